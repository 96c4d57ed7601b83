package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"daily-review/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	base
}

// TaskFields is the input for CreateTask.
type TaskFields struct {
	Text            string
	DueDate         *time.Time
	IsNonNegotiable bool
	Priority        model.Priority
	ProjectID       *string
	TimeEstimate    *int
}

// TaskPatch is a merge patch: nil fields are left untouched.
type TaskPatch struct {
	Text            *string
	Status          *model.TaskStatus
	DueDate         *time.Time
	ClearDueDate    bool
	IsNonNegotiable *bool
	Priority        *model.Priority
	ProjectID       *string
	ClearProject    bool
	TimeEstimate    *int
}

func (p TaskPatch) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Text != nil {
		updates["text"] = strings.TrimSpace(*p.Text)
	}
	if p.Status != nil {
		updates["status"] = *p.Status
	}
	switch {
	case p.ClearDueDate:
		updates["due_date"] = nil
	case p.DueDate != nil:
		updates["due_date"] = *p.DueDate
	}
	if p.IsNonNegotiable != nil {
		updates["is_non_negotiable"] = *p.IsNonNegotiable
	}
	if p.Priority != nil {
		updates["priority"] = model.ParsePriority(string(*p.Priority))
	}
	switch {
	case p.ClearProject:
		updates["project_id"] = nil
	case p.ProjectID != nil:
		updates["project_id"] = *p.ProjectID
	}
	if p.TimeEstimate != nil {
		updates["time_estimate"] = *p.TimeEstimate
	}
	return updates
}

func (r *TaskRepository) List(ctx context.Context, userID string) ([]model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("list tasks", err)
	}
	var tasks []model.Task
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).
			Order("due_date IS NULL, due_date ASC, created_at DESC").
			Find(&tasks).Error
	})
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("find task", err)
	}
	var task model.Task
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error
	})
	if err != nil {
		return nil, storeError("find task", err)
	}
	return &task, nil
}

// Create assigns an id, status=active and timestamps, and stores the task.
func (r *TaskRepository) Create(ctx context.Context, userID string, fields TaskFields) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("create task", err)
	}
	now := r.now()
	task := model.Task{
		UserID:          userID,
		ProjectID:       fields.ProjectID,
		Text:            strings.TrimSpace(fields.Text),
		Status:          model.TaskActive,
		DueDate:         fields.DueDate,
		IsNonNegotiable: fields.IsNonNegotiable,
		Priority:        model.ParsePriority(string(fields.Priority)),
		TimeEstimate:    fields.TimeEstimate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := r.run(ctx, func(db *gorm.DB) error { return db.Create(&task).Error }); err != nil {
		return nil, storeError("create task", err)
	}
	return &task, nil
}

// CreateNonNegotiable stores a task forced to non-negotiable, important priority.
func (r *TaskRepository) CreateNonNegotiable(ctx context.Context, userID, text string, dueDate time.Time, projectID *string) (*model.Task, error) {
	return r.Create(ctx, userID, TaskFields{
		Text:            text,
		DueDate:         &dueDate,
		IsNonNegotiable: true,
		Priority:        model.PriorityImportant,
		ProjectID:       projectID,
	})
}

// Update applies patch to a task owned by userID and always stamps updatedAt.
func (r *TaskRepository) Update(ctx context.Context, userID, taskID string, patch TaskPatch) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, storeError("update task", err)
	}
	updates := patch.updates()
	updates["updated_at"] = r.now()

	var task model.Task
	err := r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.Task{}).Where("user_id = ? AND id = ?", userID, taskID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return db.Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error
	})
	if err != nil {
		return nil, storeError("update task", err)
	}
	return &task, nil
}

// SetStatus is a shorthand for a status-only patch.
func (r *TaskRepository) SetStatus(ctx context.Context, userID, taskID string, status model.TaskStatus) (*model.Task, error) {
	return r.Update(ctx, userID, taskID, TaskPatch{Status: &status})
}

// Delete removes a task for the given user.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	if err := requireUser(userID); err != nil {
		return storeError("delete task", err)
	}
	err := r.run(ctx, func(db *gorm.DB) error {
		res := db.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return storeError("delete task", err)
}
