package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is either active or completed.
type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
)

// Task represents a single item in the planner.
type Task struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"index;size:36" json:"userId"`
	ProjectID       *string    `gorm:"index;size:36" json:"projectId"`
	Text            string     `json:"text"`
	Status          TaskStatus `gorm:"size:16" json:"status"`
	DueDate         *time.Time `gorm:"index" json:"dueDate,omitempty"`
	IsNonNegotiable bool       `gorm:"default:false" json:"isNonNegotiable"`
	Priority        Priority   `gorm:"type:text" json:"priority"`
	TimeEstimate    *int       `json:"timeEstimate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskActive
	}
	t.Priority = ParsePriority(string(t.Priority))
	return nil
}

// IsCompleted reports whether the task status is completed.
func (t Task) IsCompleted() bool {
	return t.Status == TaskCompleted
}
