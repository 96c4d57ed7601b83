package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"daily-review/internal/model"
)

// storeError maps a gorm error onto the domain taxonomy.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	case errors.Is(err, model.ErrStoreUnavailable), errors.Is(err, model.ErrNotAuthenticated),
		errors.Is(err, model.ErrValidationFailed):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return model.ErrNotAuthenticated
	}
	return nil
}

func newRetryBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 25 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 3 * time.Second
	return bo
}

// withRetry runs op, retrying while SQLite reports the database as busy or locked.
func withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(newRetryBackoff(), ctx))
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
