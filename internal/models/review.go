package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is immutable once created.
type Review struct {
	ID                     string    `gorm:"primaryKey;size:36" json:"id"`
	Rating                 int       `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Comment                *string   `gorm:"type:text" json:"comment"`
	ToolUsed               *string   `gorm:"size:128" json:"toolUsed"`
	WhatWorked             *string   `gorm:"type:text" json:"whatWorked"`
	WhatDidntWork          *string   `gorm:"type:text" json:"whatDidntWork"`
	ImprovementSuggestions *string   `gorm:"type:text" json:"improvementSuggestions"`
	TestRunGraphicsLink    *string   `gorm:"type:text" json:"testRunGraphicsLink"`
	PromptID               string    `gorm:"size:36;index;not null" json:"promptId"`
	UserID                 string    `gorm:"size:36;index;not null" json:"userId"`
	User                   *User     `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt              time.Time `gorm:"index" json:"createdAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
