package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-review/internal/model"
)

// PlanRepository stores daily plans and the reflection logs written with them.
type PlanRepository struct {
	base
}

// Get returns the plan for userID on date (YYYY-MM-DD).
func (r *PlanRepository) Get(ctx context.Context, userID, date string) (*model.DailyPlan, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("get daily plan", err)
	}
	var plan model.DailyPlan
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND date = ?", userID, date).First(&plan).Error
	})
	if err != nil {
		return nil, storeError("get daily plan", err)
	}
	return &plan, nil
}

// Upsert writes the plan keyed by (user, date), overwriting an earlier review of the same date.
func (r *PlanRepository) Upsert(ctx context.Context, plan *model.DailyPlan) error {
	if err := requireUser(plan.UserID); err != nil {
		return storeError("save daily plan", err)
	}
	now := r.now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	err := r.run(ctx, func(db *gorm.DB) error {
		if err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"is_complete", "non_negotiables", "business_stage", "priority_task", "updated_at",
			}),
		}).Create(plan).Error; err != nil {
			return err
		}
		var stored model.DailyPlan
		if err := db.Where("user_id = ? AND date = ?", plan.UserID, plan.Date).First(&stored).Error; err != nil {
			return err
		}
		*plan = stored
		return nil
	})
	return storeError("save daily plan", err)
}

func (r *PlanRepository) LogWork(ctx context.Context, userID, date string, hours float64) error {
	if err := requireUser(userID); err != nil {
		return storeError("log work hours", err)
	}
	entry := model.WorkLog{UserID: userID, Date: date, Hours: hours, CreatedAt: r.now()}
	err := r.run(ctx, func(db *gorm.DB) error { return db.Create(&entry).Error })
	return storeError("log work hours", err)
}

func (r *PlanRepository) LogLessons(ctx context.Context, userID, date, lessons string) error {
	if err := requireUser(userID); err != nil {
		return storeError("log lessons", err)
	}
	entry := model.LessonLog{UserID: userID, Date: date, Lessons: lessons, CreatedAt: r.now()}
	err := r.run(ctx, func(db *gorm.DB) error { return db.Create(&entry).Error })
	return storeError("log lessons", err)
}
