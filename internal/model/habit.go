package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FrequencyType describes how often a habit is scheduled.
type FrequencyType string

const (
	FrequencyDaily  FrequencyType = "daily"
	FrequencyWeekly FrequencyType = "weekly"
	FrequencyCustom FrequencyType = "custom"
)

// Frequency is the schedule of a habit. DaysOfWeek uses time.Weekday numbering (Sunday=0).
type Frequency struct {
	Type       FrequencyType `json:"type"`
	DaysOfWeek []int         `json:"daysOfWeek,omitempty"`
}

// ScheduledOn reports whether the habit is due on the given weekday.
// A non-daily habit with no days selected counts as every day.
func (f Frequency) ScheduledOn(day time.Weekday) bool {
	if f.Type == "" || f.Type == FrequencyDaily || len(f.DaysOfWeek) == 0 {
		return true
	}
	for _, d := range f.DaysOfWeek {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// Streak is derived from completions and never treated as authoritative.
type Streak struct {
	Current       int    `json:"current"`
	Longest       int    `json:"longest"`
	LastCompleted string `json:"lastCompleted"`
}

// Habit is a recurring practice with a list of completion dates (YYYY-MM-DD).
type Habit struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	UserID          string    `gorm:"index;size:36" json:"userId"`
	Name            string    `json:"name"`
	Frequency       Frequency `gorm:"serializer:json" json:"frequency"`
	IsNonNegotiable bool      `gorm:"default:false" json:"isNonNegotiable"`
	Priority        Priority  `gorm:"type:text" json:"priority"`
	Completions     []string  `gorm:"serializer:json" json:"completions"`
	Streak          Streak    `gorm:"serializer:json" json:"streak"`
	Category        string    `json:"category,omitempty"`
	TimeOfDay       string    `json:"timeOfDay,omitempty"`
	TimeEstimate    *int      `json:"timeEstimate,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (h *Habit) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Frequency.Type == "" {
		h.Frequency.Type = FrequencyDaily
	}
	if h.Completions == nil {
		h.Completions = []string{}
	}
	h.Priority = ParsePriority(string(h.Priority))
	return nil
}
