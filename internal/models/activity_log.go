package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityAction string

const (
	ActivityView   ActivityAction = "view"
	ActivityCreate ActivityAction = "create"
	ActivityEdit   ActivityAction = "edit"
	ActivityDelete ActivityAction = "delete"
	ActivityTest   ActivityAction = "test"
	ActivityReview ActivityAction = "review"
)

// ActivityLog is append-only. PromptID carries no foreign key so entries
// outlive deleted prompts.
type ActivityLog struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"precision:3;index" json:"createdAt"`
	Action    ActivityAction `gorm:"size:16;index;not null" json:"action"`
	PromptID  string         `gorm:"size:36;index" json:"promptId"`
	ReviewID  *string        `gorm:"size:36" json:"reviewId,omitempty"`
	UserID    *string        `gorm:"size:36;index" json:"userId"` // nil for anonymous
	Metadata  datatypes.JSON `json:"metadata"`
}

// AllModels lists every table owned by this service, in migration order.
func AllModels() []interface{} {
	return []interface{}{&User{}, &Category{}, &Prompt{}, &Review{}, &ActivityLog{}}
}
