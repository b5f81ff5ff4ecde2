package category

import (
	"prompt-library-backend/internal/models"
	"prompt-library-backend/internal/services"
	"time"
)

// CategoryRequest is the body of POST and PUT. On create, name is checked by
// the handler; on update every field is optional.
type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100" example:"Marketing"`
	Description *string `json:"description" example:"Marketing and promotional content"`
	Color       *string `json:"color" binding:"omitempty,max=32" example:"#FF6B6B"`
	Icon        *string `json:"icon" binding:"omitempty,max=32" example:"📢"`
}

type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       *string   `json:"color"`
	Icon        *string   `json:"icon"`
	PromptCount *int64    `json:"promptCount,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r CategoryRequest) toInput() services.CategoryInput {
	return services.CategoryInput{
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		Icon:        r.Icon,
	}
}

func toCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func withCount(c *models.Category, count int64) CategoryResponse {
	resp := toCategoryResponse(c)
	resp.PromptCount = &count
	return resp
}
