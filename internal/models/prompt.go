package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

const (
	DefaultCategory      = "Uncategorized"
	DefaultDifficulty    = DifficultyMedium
	DefaultEstimatedTime = "5-10 minutes"
)

// Prompt is a reusable text template. Rating is derived from Reviews and
// UsageCount only ever grows.
type Prompt struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Prompt        string     `gorm:"type:text;not null" json:"prompt"`
	Category      string     `gorm:"index;not null;default:'Uncategorized'" json:"category"`
	CategoryID    *string    `gorm:"size:36;index" json:"categoryId"`
	CategoryObj   *Category  `gorm:"foreignKey:CategoryID" json:"categoryObj,omitempty"`
	Tags          StringList `gorm:"type:text" json:"tags"`
	Difficulty    Difficulty `gorm:"size:16;not null;default:'medium'" json:"difficulty"`
	EstimatedTime string     `gorm:"size:64" json:"estimatedTime"`
	Placeholders  StringList `gorm:"type:text" json:"placeholders"`
	Rating        float64    `gorm:"not null;default:0" json:"rating"`
	UsageCount    int64      `gorm:"not null;default:0" json:"usageCount"`
	AuthorID      string     `gorm:"size:36;index;not null" json:"authorId"`
	Author        *User      `gorm:"foreignKey:AuthorID" json:"-"`
	Reviews       []Review   `gorm:"foreignKey:PromptID" json:"-"`
	CreatedAt     time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
