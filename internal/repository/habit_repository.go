package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"daily-review/internal/model"
)

// HabitRepository handles CRUD for habits and their completion dates.
type HabitRepository struct {
	base
}

// HabitFields is the input for Create.
type HabitFields struct {
	Name            string
	Frequency       model.Frequency
	IsNonNegotiable bool
	Priority        model.Priority
	Category        string
	TimeOfDay       string
	TimeEstimate    *int
}

func (r *HabitRepository) List(ctx context.Context, userID string) ([]model.Habit, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("list habits", err)
	}
	var habits []model.Habit
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Order("created_at ASC").Find(&habits).Error
	})
	if err != nil {
		return nil, storeError("list habits", err)
	}
	return habits, nil
}

func (r *HabitRepository) FindByID(ctx context.Context, userID, habitID string) (*model.Habit, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("find habit", err)
	}
	var habit model.Habit
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND id = ?", userID, habitID).First(&habit).Error
	})
	if err != nil {
		return nil, storeError("find habit", err)
	}
	return &habit, nil
}

func (r *HabitRepository) Create(ctx context.Context, userID string, fields HabitFields) (*model.Habit, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("create habit", err)
	}
	now := r.now()
	habit := model.Habit{
		UserID:          userID,
		Name:            strings.TrimSpace(fields.Name),
		Frequency:       fields.Frequency,
		IsNonNegotiable: fields.IsNonNegotiable,
		Priority:        model.ParsePriority(string(fields.Priority)),
		Completions:     []string{},
		Category:        fields.Category,
		TimeOfDay:       fields.TimeOfDay,
		TimeEstimate:    fields.TimeEstimate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := r.run(ctx, func(db *gorm.DB) error { return db.Create(&habit).Error }); err != nil {
		return nil, storeError("create habit", err)
	}
	return &habit, nil
}

// UpdateCompletions replaces the completion dates, recomputes the streak in loc
// and stamps updatedAt.
func (r *HabitRepository) UpdateCompletions(ctx context.Context, userID, habitID string, completions []string, loc *time.Location) (*model.Habit, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("update habit completions", err)
	}
	if completions == nil {
		completions = []string{}
	}
	var habit model.Habit
	err := r.run(ctx, func(db *gorm.DB) error {
		if err := db.Where("user_id = ? AND id = ?", userID, habitID).First(&habit).Error; err != nil {
			return err
		}
		habit.Completions = completions
		habit.Streak = model.ComputeStreak(completions, loc)
		habit.UpdatedAt = r.now()
		return db.Model(&habit).Select("completions", "streak", "updated_at").Updates(&habit).Error
	})
	if err != nil {
		return nil, storeError("update habit completions", err)
	}
	return &habit, nil
}

func (r *HabitRepository) Delete(ctx context.Context, userID, habitID string) error {
	if err := requireUser(userID); err != nil {
		return storeError("delete habit", err)
	}
	err := r.run(ctx, func(db *gorm.DB) error {
		res := db.Where("user_id = ? AND id = ?", userID, habitID).Delete(&model.Habit{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return storeError("delete habit", err)
}
