// Package mockdata holds the fixed sample set served when the database is
// unreachable and by the mock server.
package mockdata

import (
	"prompt-library-backend/internal/models"
	"strings"
	"time"
)

const (
	FallbackWarning = "Using mock data - database connection failed"
	TotalViews      = 1000
)

var loadedAt = time.Now()

func ptr(s string) *string { return &s }

func authors() map[string]*models.User {
	return map[string]*models.User{
		"user1": {ID: "user1", Name: "John Doe"},
		"user2": {ID: "user2", Name: "Jane Smith"},
	}
}

// Prompts returns a fresh copy of the sample prompts, newest first.
func Prompts() []models.Prompt {
	a := authors()
	prompts := []models.Prompt{
		{
			ID:            "1",
			Title:         "Email Marketing Campaign Brief",
			Description:   "Create a comprehensive brief for an email marketing campaign",
			Prompt:        "Write a detailed email marketing campaign brief that includes: target audience, key messages, email copy, CTA, and success metrics.",
			Category:      "Marketing",
			Tags:          models.StringList{"email", "marketing", "campaign"},
			Difficulty:    models.DifficultyMedium,
			EstimatedTime: "15-20 minutes",
			Placeholders:  models.StringList{"[PRODUCT_NAME]", "[TARGET_AUDIENCE]", "[GOAL]"},
			Rating:        4.5,
			UsageCount:    234,
			AuthorID:      "user1",
			Author:        a["user1"],
		},
		{
			ID:            "2",
			Title:         "Product Launch Strategy",
			Description:   "Template for planning a product launch",
			Prompt:        "Develop a comprehensive product launch strategy that covers pre-launch, launch day, and post-launch activities.",
			Category:      "Strategy",
			Tags:          models.StringList{"launch", "strategy", "product"},
			Difficulty:    models.DifficultyHard,
			EstimatedTime: "20-30 minutes",
			Placeholders:  models.StringList{"[PRODUCT_NAME]", "[MARKET]", "[BUDGET]"},
			Rating:        4.8,
			UsageCount:    156,
			AuthorID:      "user2",
			Author:        a["user2"],
		},
		{
			ID:            "3",
			Title:         "Customer Feedback Analysis",
			Description:   "Framework for analyzing and acting on customer feedback",
			Prompt:        "Create a system to collect, analyze, and respond to customer feedback effectively.",
			Category:      "Product",
			Tags:          models.StringList{"feedback", "customer", "analysis"},
			Difficulty:    models.DifficultyEasy,
			EstimatedTime: "10-15 minutes",
			Placeholders:  models.StringList{"[FEEDBACK_SOURCE]", "[TEAM]"},
			Rating:        4.2,
			UsageCount:    89,
			AuthorID:      "user1",
			Author:        a["user1"],
		},
	}
	for i := range prompts {
		prompts[i].CreatedAt = loadedAt
		prompts[i].UpdatedAt = loadedAt
	}
	return prompts
}

// FindPrompt returns the sample prompt with the given id.
func FindPrompt(id string) (*models.Prompt, bool) {
	for _, p := range Prompts() {
		if p.ID == id {
			return &p, true
		}
	}
	return nil, false
}

// FilterPrompts applies the mock server's filters: exact category and a
// case-insensitive search over title and description.
func FilterPrompts(category, search string, limit int) []models.Prompt {
	search = strings.ToLower(search)
	out := make([]models.Prompt, 0)
	for _, p := range Prompts() {
		if category != "" && p.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return Limit(out, limit)
}

// Limit truncates prompts to at most n entries; n <= 0 keeps everything.
func Limit(prompts []models.Prompt, n int) []models.Prompt {
	if n > 0 && len(prompts) > n {
		return prompts[:n]
	}
	return prompts
}

// Categories returns the sample categories, sorted by name as the live
// listing is. These also seed an empty database.
func Categories() []models.Category {
	categories := []models.Category{
		{ID: "3", Name: "Content", Description: ptr("Content creation and copywriting"), Color: ptr("#45B7D1"), Icon: ptr("✍️")},
		{ID: "1", Name: "Marketing", Description: ptr("Marketing and promotional content"), Color: ptr("#FF6B6B"), Icon: ptr("📢")},
		{ID: "4", Name: "Product", Description: ptr("Product management and development"), Color: ptr("#FFA07A"), Icon: ptr("🛠️")},
		{ID: "2", Name: "Strategy", Description: ptr("Strategic planning and business strategy"), Color: ptr("#4ECDC4"), Icon: ptr("📊")},
	}
	for i := range categories {
		categories[i].CreatedAt = loadedAt
		categories[i].UpdatedAt = loadedAt
	}
	return categories
}

// PromptCount counts sample prompts filed under the named category.
func PromptCount(category string) int64 {
	var n int64
	for _, p := range Prompts() {
		if p.Category == category {
			n++
		}
	}
	return n
}
