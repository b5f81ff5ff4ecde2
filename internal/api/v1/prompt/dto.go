package prompt

import (
	"prompt-library-backend/internal/models"
	"prompt-library-backend/internal/services"
	"time"
)

// CreatePromptRequest is the body of POST /api/prompts. Title and prompt are
// checked by the handler so that it can answer with a single message.
type CreatePromptRequest struct {
	Title         string   `json:"title" binding:"max=200" example:"Product Launch Strategy"`
	Description   string   `json:"description" example:"Template for planning a product launch"`
	Prompt        string   `json:"prompt" example:"Develop a launch strategy for [PRODUCT_NAME]"`
	Category      string   `json:"category" binding:"max=100" example:"Strategy"`
	Tags          []string `json:"tags" example:"launch,strategy"`
	Difficulty    string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard" example:"medium"`
	EstimatedTime string   `json:"estimatedTime" binding:"max=64" example:"20-30 minutes"`
	Placeholders  []string `json:"placeholders" example:"[PRODUCT_NAME]"`
}

// UpdatePromptRequest carries only the editable fields; id, rating,
// usageCount and authorId in the body are ignored.
type UpdatePromptRequest struct {
	Title         *string   `json:"title" binding:"omitempty,max=200"`
	Description   *string   `json:"description"`
	Prompt        *string   `json:"prompt"`
	Category      *string   `json:"category" binding:"omitempty,max=100"`
	Tags          *[]string `json:"tags"`
	Difficulty    *string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	EstimatedTime *string   `json:"estimatedTime" binding:"omitempty,max=64"`
	Placeholders  *[]string `json:"placeholders"`
}

// CreateReviewRequest is the body of POST /api/prompts/:id/review. Rating is
// a float so that non-integer input gets the rating message too.
type CreateReviewRequest struct {
	Rating                 *float64 `json:"rating" example:"5"`
	Comment                *string  `json:"comment"`
	ToolUsed               *string  `json:"toolUsed" binding:"omitempty,max=128"`
	WhatWorked             *string  `json:"whatWorked"`
	WhatDidntWork          *string  `json:"whatDidntWork"`
	ImprovementSuggestions *string  `json:"improvementSuggestions"`
	TestRunGraphicsLink    *string  `json:"testRunGraphicsLink" binding:"omitempty,url"`
}

type PromptResponse struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Prompt        string              `json:"prompt"`
	Category      string              `json:"category"`
	CategoryID    *string             `json:"categoryId"`
	Tags          []string            `json:"tags"`
	Difficulty    models.Difficulty   `json:"difficulty"`
	EstimatedTime string              `json:"estimatedTime"`
	Placeholders  []string            `json:"placeholders"`
	Rating        float64             `json:"rating"`
	UsageCount    int64               `json:"usageCount"`
	AuthorID      string              `json:"authorId"`
	Author        *models.UserSummary `json:"author"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// PromptListItem is one row of the listing.
type PromptListItem struct {
	PromptResponse
	ReviewCount int64   `json:"reviewCount"`
	AvgRating   float64 `json:"avgRating"`
}

// PromptDetail is the single-prompt view with reviews and category detail.
type PromptDetail struct {
	PromptResponse
	Reviews     []ReviewResponse `json:"reviews"`
	CategoryObj *models.Category `json:"categoryObj"`
}

type ReviewResponse struct {
	ID                     string              `json:"id"`
	Rating                 int                 `json:"rating"`
	Comment                *string             `json:"comment"`
	ToolUsed               *string             `json:"toolUsed"`
	WhatWorked             *string             `json:"whatWorked"`
	WhatDidntWork          *string             `json:"whatDidntWork"`
	ImprovementSuggestions *string             `json:"improvementSuggestions"`
	TestRunGraphicsLink    *string             `json:"testRunGraphicsLink"`
	PromptID               string              `json:"promptId"`
	UserID                 string              `json:"userId"`
	User                   *models.UserSummary `json:"user"`
	CreatedAt              time.Time           `json:"createdAt"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toPromptResponse(p *models.Prompt) PromptResponse {
	return PromptResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Prompt:        p.Prompt,
		Category:      p.Category,
		CategoryID:    p.CategoryID,
		Tags:          nonNil(p.Tags),
		Difficulty:    p.Difficulty,
		EstimatedTime: p.EstimatedTime,
		Placeholders:  nonNil(p.Placeholders),
		Rating:        p.Rating,
		UsageCount:    p.UsageCount,
		AuthorID:      p.AuthorID,
		Author:        p.Author.Summary(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toListItem(p services.PromptWithStats) PromptListItem {
	return PromptListItem{
		PromptResponse: toPromptResponse(&p.Prompt),
		ReviewCount:    p.ReviewCount,
		AvgRating:      p.AvgRating,
	}
}

// SampleList renders sample prompts as listing rows. Their stored rating
// stands in for the review mean.
func SampleList(prompts []models.Prompt) []PromptListItem {
	items := make([]PromptListItem, 0, len(prompts))
	for i := range prompts {
		items = append(items, PromptListItem{
			PromptResponse: toPromptResponse(&prompts[i]),
			AvgRating:      prompts[i].Rating,
		})
	}
	return items
}

func SampleDetail(p *models.Prompt) PromptDetail {
	return toPromptDetail(p)
}

func toPromptDetail(p *models.Prompt) PromptDetail {
	reviews := make([]ReviewResponse, 0, len(p.Reviews))
	for i := range p.Reviews {
		reviews = append(reviews, toReviewResponse(&p.Reviews[i]))
	}
	return PromptDetail{
		PromptResponse: toPromptResponse(p),
		Reviews:        reviews,
		CategoryObj:    p.CategoryObj,
	}
}

func toReviewResponse(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:                     r.ID,
		Rating:                 r.Rating,
		Comment:                r.Comment,
		ToolUsed:               r.ToolUsed,
		WhatWorked:             r.WhatWorked,
		WhatDidntWork:          r.WhatDidntWork,
		ImprovementSuggestions: r.ImprovementSuggestions,
		TestRunGraphicsLink:    r.TestRunGraphicsLink,
		PromptID:               r.PromptID,
		UserID:                 r.UserID,
		User:                   r.User.Summary(),
		CreatedAt:              r.CreatedAt,
	}
}

func (r CreatePromptRequest) toInput() services.CreatePromptInput {
	return services.CreatePromptInput{
		Title:         r.Title,
		Description:   r.Description,
		Prompt:        r.Prompt,
		Category:      r.Category,
		Tags:          r.Tags,
		Difficulty:    models.Difficulty(r.Difficulty),
		EstimatedTime: r.EstimatedTime,
		Placeholders:  r.Placeholders,
	}
}

func (r UpdatePromptRequest) toInput() services.UpdatePromptInput {
	input := services.UpdatePromptInput{
		Title:         r.Title,
		Description:   r.Description,
		Prompt:        r.Prompt,
		Category:      r.Category,
		Tags:          r.Tags,
		EstimatedTime: r.EstimatedTime,
		Placeholders:  r.Placeholders,
	}
	if r.Difficulty != nil {
		d := models.Difficulty(*r.Difficulty)
		input.Difficulty = &d
	}
	return input
}
