package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanItem is a snapshot of one non-negotiable chosen during a review.
type PlanItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Type      string `json:"type"`
}

// DailyPlan records a finished review; one row per user and date.
type DailyPlan struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"size:36;uniqueIndex:idx_user_plan_date" json:"userId"`
	Date           string     `gorm:"size:10;uniqueIndex:idx_user_plan_date" json:"date"`
	IsComplete     bool       `json:"isComplete"`
	NonNegotiables []PlanItem `gorm:"serializer:json" json:"nonNegotiables"`
	BusinessStage  string     `json:"businessStage,omitempty"`
	PriorityTask   string     `json:"priorityTask,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (p *DailyPlan) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// WorkLog stores hours worked on a given date.
type WorkLog struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    string  `gorm:"index;size:36"`
	Date      string  `gorm:"size:10;index"`
	Hours     float64 `gorm:"not null"`
	CreatedAt time.Time
}

// LessonLog stores the wins and lessons written during a review.
type LessonLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index;size:36"`
	Date      string `gorm:"size:10;index"`
	Lessons   string
	CreatedAt time.Time
}
