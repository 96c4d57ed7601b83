package review

import "context"

// Optimistic applies next to the local value immediately, persists it, and
// restores the previous value if persisting fails.
func Optimistic[T any](ctx context.Context, get func() T, set func(T), next func(T) T, persist func(context.Context, T) error) error {
	prev := get()
	updated := next(prev)
	set(updated)
	if err := persist(ctx, updated); err != nil {
		set(prev)
		return err
	}
	return nil
}
