package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"daily-review/internal/model"
)

// ProjectRepository manages projects.
type ProjectRepository struct {
	base
}

func (r *ProjectRepository) Create(ctx context.Context, userID, name, color string) (*model.Project, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("create project", err)
	}
	now := r.now()
	project := model.Project{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Color:     strings.TrimSpace(color),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.run(ctx, func(db *gorm.DB) error { return db.Create(&project).Error }); err != nil {
		return nil, storeError("create project", err)
	}
	return &project, nil
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("list projects", err)
	}
	var projects []model.Project
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Order("name ASC").Find(&projects).Error
	})
	if err != nil {
		return nil, storeError("list projects", err)
	}
	return projects, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, userID, projectID string) (*model.Project, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("find project", err)
	}
	var project model.Project
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND id = ?", userID, projectID).First(&project).Error
	})
	if err != nil {
		return nil, storeError("find project", err)
	}
	return &project, nil
}

// Delete removes a project and unlinks its tasks in the same transaction.
// Tasks are never deleted with their project.
func (r *ProjectRepository) Delete(ctx context.Context, userID, projectID string) error {
	if err := requireUser(userID); err != nil {
		return storeError("delete project", err)
	}
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			var project model.Project
			if err := tx.Where("user_id = ? AND id = ?", userID, projectID).First(&project).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Task{}).
				Where("user_id = ? AND project_id = ?", userID, projectID).
				Updates(map[string]interface{}{"project_id": nil, "updated_at": r.now()}).Error; err != nil {
				return err
			}
			return tx.Delete(&project).Error
		})
	})
	return storeError("delete project", err)
}
