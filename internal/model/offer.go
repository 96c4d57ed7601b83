package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Offer holds questionnaire answers keyed by question id and an optional AI draft.
type Offer struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	UserID    string            `gorm:"index;size:36" json:"userId"`
	Title     string            `json:"title,omitempty"`
	Answers   map[string]string `gorm:"serializer:json" json:"answers"`
	Draft     string            `json:"draft,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (o *Offer) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Answers == nil {
		o.Answers = map[string]string{}
	}
	return nil
}
