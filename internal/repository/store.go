package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Store bundles the per-entity repositories over one database handle.
type Store struct {
	db       *gorm.DB
	Users    *UserRepository
	Tasks    *TaskRepository
	Habits   *HabitRepository
	Projects *ProjectRepository
	Plans    *PlanRepository
	Offers   *OfferRepository
}

func NewStore(db *gorm.DB) *Store {
	return newStore(db, true)
}

func newStore(db *gorm.DB, retry bool) *Store {
	b := base{db: db, retry: retry, now: time.Now}
	return &Store{
		db:       db,
		Users:    &UserRepository{base: b},
		Tasks:    &TaskRepository{base: b},
		Habits:   &HabitRepository{base: b},
		Projects: &ProjectRepository{base: b},
		Plans:    &PlanRepository{base: b},
		Offers:   &OfferRepository{base: b},
	}
}

// Transaction runs fn against repositories bound to a single transaction.
// Either every write inside fn is committed or none is.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(newStore(tx, false))
		})
	})
}

// base carries what every repository needs.
type base struct {
	db    *gorm.DB
	retry bool
	now   func() time.Time
}

func (b base) run(ctx context.Context, op func(db *gorm.DB) error) error {
	db := b.db.WithContext(ctx)
	if !b.retry {
		return op(db)
	}
	return withRetry(ctx, func() error { return op(db) })
}
