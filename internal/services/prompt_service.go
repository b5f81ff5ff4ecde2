package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/metrics"
	"prompt-library-backend/internal/models"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPromptLimit = 50
	MaxPromptLimit     = 200
)

// PromptFilter defines criteria for listing prompts
type PromptFilter struct {
	Category string   // exact, case-sensitive
	Search   string   // case-insensitive substring of title, description or prompt text
	Tags     []string // match-any
	Limit    int
	Offset   int
}

// PromptWithStats is a prompt annotated with aggregates over its reviews.
type PromptWithStats struct {
	models.Prompt
	ReviewCount int64
	AvgRating   float64
}

type CreatePromptInput struct {
	Title         string
	Description   string
	Prompt        string
	Category      string
	Tags          []string
	Difficulty    models.Difficulty
	EstimatedTime string
	Placeholders  []string
}

// UpdatePromptInput carries a partial update; nil fields are left untouched.
type UpdatePromptInput struct {
	Title         *string
	Description   *string
	Prompt        *string
	Category      *string
	Tags          *[]string
	Difficulty    *models.Difficulty
	EstimatedTime *string
	Placeholders  *[]string
}

type CreateReviewInput struct {
	Rating                 int
	Comment                *string
	ToolUsed               *string
	WhatWorked             *string
	WhatDidntWork          *string
	ImprovementSuggestions *string
	TestRunGraphicsLink    *string
}

type PromptService struct {
	store    *database.Store
	activity *ActivityService
}

func NewPromptService(store *database.Store, activity *ActivityService) *PromptService {
	return &PromptService{store: store, activity: activity}
}

// ListPrompts retrieves one page of prompts, newest first.
func (s *PromptService) ListPrompts(ctx context.Context, filter PromptFilter) ([]PromptWithStats, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultPromptLimit
	}
	if filter.Limit > MaxPromptLimit {
		filter.Limit = MaxPromptLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := db.Model(&models.Prompt{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(prompt) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern)
	}
	if len(filter.Tags) > 0 {
		// Tags are stored as a JSON array, so each tag is matched exactly with its quotes.
		contains := containsFunc(db)
		clauses := make([]string, 0, len(filter.Tags))
		args := make([]interface{}, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			quoted, err := json.Marshal(tag)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, contains)
			args = append(args, string(quoted))
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	var prompts []models.Prompt
	if err := query.Preload("Author").
		Order("created_at desc").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}

	stats, err := s.reviewStats(db, prompts)
	if err != nil {
		return nil, err
	}

	result := make([]PromptWithStats, 0, len(prompts))
	for _, p := range prompts {
		st := stats[p.ID]
		result = append(result, PromptWithStats{Prompt: p, ReviewCount: st.ReviewCount, AvgRating: st.AvgRating})
	}
	return result, nil
}

type reviewStat struct {
	PromptID    string
	ReviewCount int64
	AvgRating   float64
}

func (s *PromptService) reviewStats(db *gorm.DB, prompts []models.Prompt) (map[string]reviewStat, error) {
	stats := make(map[string]reviewStat, len(prompts))
	if len(prompts) == 0 {
		return stats, nil
	}

	ids := make([]string, 0, len(prompts))
	for _, p := range prompts {
		ids = append(ids, p.ID)
	}

	var rows []reviewStat
	if err := db.Model(&models.Review{}).
		Select("prompt_id, COUNT(*) AS review_count, AVG(rating) AS avg_rating").
		Where("prompt_id IN ?", ids).
		Group("prompt_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate reviews: %w", err)
	}

	for _, row := range rows {
		stats[row.PromptID] = row
	}
	return stats, nil
}

// GetPrompt loads a prompt with its author, category and reviews (newest
// first). Rating is recomputed from the loaded reviews.
func (s *PromptService) GetPrompt(ctx context.Context, id string) (*models.Prompt, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	var prompt models.Prompt
	err = db.Preload("Author").
		Preload("CategoryObj").
		Preload("Reviews", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at desc")
		}).
		Preload("Reviews.User").
		First(&prompt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("get prompt: %w", err)
	}

	prompt.Rating = AverageRating(prompt.Reviews)
	return &prompt, nil
}

// AverageRating is the arithmetic mean of the review ratings, 0 when empty.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// CreatePrompt inserts a prompt owned by author and records the "create"
// activity in the same transaction.
func (s *PromptService) CreatePrompt(ctx context.Context, author *models.User, input CreatePromptInput, meta RequestMeta) (*models.Prompt, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	prompt := &models.Prompt{
		Title:         input.Title,
		Description:   input.Description,
		Prompt:        input.Prompt,
		Category:      input.Category,
		Tags:          models.StringList(input.Tags),
		Difficulty:    input.Difficulty,
		EstimatedTime: input.EstimatedTime,
		Placeholders:  models.StringList(input.Placeholders),
		AuthorID:      author.ID,
	}
	applyPromptDefaults(prompt)
	if !prompt.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: difficulty must be easy, medium or hard", ErrInvalidInput)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		categoryID, err := lookupCategoryID(tx, prompt.Category)
		if err != nil {
			return err
		}
		prompt.CategoryID = categoryID

		if err := tx.Create(prompt).Error; err != nil {
			return fmt.Errorf("create prompt: %w", err)
		}

		return s.activity.RecordTx(tx, ActivityEntry{
			Action:   models.ActivityCreate,
			PromptID: prompt.ID,
			UserID:   &author.ID,
			Meta:     meta,
		})
	})
	if err != nil {
		return nil, err
	}

	prompt.Author = author
	return prompt, nil
}

func applyPromptDefaults(p *models.Prompt) {
	if p.Category == "" {
		p.Category = models.DefaultCategory
	}
	if p.Difficulty == "" {
		p.Difficulty = models.DefaultDifficulty
	}
	if p.EstimatedTime == "" {
		p.EstimatedTime = models.DefaultEstimatedTime
	}
	if p.Tags == nil {
		p.Tags = models.StringList{}
	}
	if p.Placeholders == nil {
		p.Placeholders = models.StringList{}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// containsFunc returns a case-sensitive substring condition for the tags
// column in the dialect of db.
func containsFunc(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "strpos(tags, ?) > 0"
	}
	return "instr(tags, ?) > 0"
}

// lockPrompt selects the prompt row FOR UPDATE. Writers that derive columns
// from other rows of the prompt take it first.
func lockPrompt(tx *gorm.DB, id string) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", id)
}

// lookupCategoryID links a prompt to the Category row with the same name,
// if one exists. The row is share-locked so DeleteCategory cannot remove it
// before the prompt commits.
func lookupCategoryID(tx *gorm.DB, name string) (*string, error) {
	var category models.Category
	err := categoryByName(tx, name).Take(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	return &category.ID, nil
}

func categoryByName(tx *gorm.DB, name string) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id").Where("name = ?", name)
}

// findOwned loads a prompt and checks that userID authored it.
func findOwned(tx *gorm.DB, id, userID string) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := tx.First(&prompt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("find prompt: %w", err)
	}
	if prompt.AuthorID != userID {
		return nil, ErrForbidden
	}
	return &prompt, nil
}

// UpdatePrompt merges the non-nil fields of input into the prompt. Only the
// author may update; id, rating, usage count and author are never written.
func (s *PromptService) UpdatePrompt(ctx context.Context, id string, user *models.User, input UpdatePromptInput, meta RequestMeta) (*models.Prompt, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	if input.Difficulty != nil && !input.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: difficulty must be easy, medium or hard", ErrInvalidInput)
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if input.Prompt != nil && strings.TrimSpace(*input.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt cannot be empty", ErrInvalidInput)
	}

	var updated models.Prompt
	err = db.Transaction(func(tx *gorm.DB) error {
		prompt, err := findOwned(tx, id, user.ID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if input.Title != nil {
			updates["title"] = *input.Title
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Prompt != nil {
			updates["prompt"] = *input.Prompt
		}
		if input.Category != nil {
			category := *input.Category
			if category == "" {
				category = models.DefaultCategory
			}
			categoryID, err := lookupCategoryID(tx, category)
			if err != nil {
				return err
			}
			updates["category"] = category
			updates["category_id"] = categoryID
		}
		if input.Tags != nil {
			updates["tags"] = models.StringList(*input.Tags)
		}
		if input.Difficulty != nil {
			updates["difficulty"] = *input.Difficulty
		}
		if input.EstimatedTime != nil {
			updates["estimated_time"] = *input.EstimatedTime
		}
		if input.Placeholders != nil {
			updates["placeholders"] = models.StringList(*input.Placeholders)
		}

		if err := tx.Model(prompt).Updates(updates).Error; err != nil {
			return fmt.Errorf("update prompt: %w", err)
		}
		if err := tx.Preload("Author").First(&updated, "id = ?", id).Error; err != nil {
			return fmt.Errorf("reload prompt: %w", err)
		}

		return s.activity.RecordTx(tx, ActivityEntry{
			Action:   models.ActivityEdit,
			PromptID: id,
			UserID:   &user.ID,
			Meta:     meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePrompt removes a prompt together with its reviews. Only the author
// may delete.
func (s *PromptService) DeletePrompt(ctx context.Context, id string, user *models.User, meta RequestMeta) error {
	db, err := s.store.DB(ctx)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		prompt, err := findOwned(tx, id, user.ID)
		if err != nil {
			return err
		}

		if err := tx.Where("prompt_id = ?", prompt.ID).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Delete(prompt).Error; err != nil {
			return fmt.Errorf("delete prompt: %w", err)
		}

		return s.activity.RecordTx(tx, ActivityEntry{
			Action:   models.ActivityDelete,
			PromptID: prompt.ID,
			UserID:   &user.ID,
			Meta:     meta,
		})
	})
}

// TrackUsage atomically increments the usage counter. The "test" activity
// is best-effort.
func (s *PromptService) TrackUsage(ctx context.Context, id string, userID *string, meta RequestMeta) error {
	db, err := s.store.DB(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&models.Prompt{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("increment usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPromptNotFound
	}
	metrics.PromptUsesTracked.Inc()

	s.activity.Track(ctx, ActivityEntry{
		Action:   models.ActivityTest,
		PromptID: id,
		UserID:   userID,
		Meta:     meta,
	})
	return nil
}

// AddReview inserts a review and stores the new mean rating on the prompt.
// The prompt row stays locked from before the insert until commit, so reviews
// of the same prompt are applied one at a time.
func (s *PromptService) AddReview(ctx context.Context, promptID string, user *models.User, input CreateReviewInput, meta RequestMeta) (*models.Review, error) {
	if !models.ValidRating(input.Rating) {
		return nil, ErrInvalidRating
	}

	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		Rating:                 input.Rating,
		Comment:                nonEmpty(input.Comment),
		ToolUsed:               nonEmpty(input.ToolUsed),
		WhatWorked:             nonEmpty(input.WhatWorked),
		WhatDidntWork:          nonEmpty(input.WhatDidntWork),
		ImprovementSuggestions: nonEmpty(input.ImprovementSuggestions),
		TestRunGraphicsLink:    nonEmpty(input.TestRunGraphicsLink),
		PromptID:               promptID,
		UserID:                 user.ID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var prompt models.Prompt
		if err := lockPrompt(tx, promptID).Take(&prompt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPromptNotFound
			}
			return fmt.Errorf("lock prompt: %w", err)
		}

		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("create review: %w", err)
		}

		avg, err := averageRatingTx(tx, promptID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Prompt{}).Where("id = ?", promptID).UpdateColumn("rating", avg).Error; err != nil {
			return fmt.Errorf("update rating: %w", err)
		}

		return s.activity.RecordTx(tx, ActivityEntry{
			Action:   models.ActivityReview,
			PromptID: promptID,
			ReviewID: &review.ID,
			UserID:   &user.ID,
			Meta:     meta,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.ReviewsSubmitted.Inc()
	review.User = user
	return review, nil
}

func averageRatingTx(tx *gorm.DB, promptID string) (float64, error) {
	var avg *float64
	if err := tx.Model(&models.Review{}).
		Select("AVG(rating)").
		Where("prompt_id = ?", promptID).
		Row().Scan(&avg); err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// CountPrompts returns the total number of prompts.
func (s *PromptService) CountPrompts(ctx context.Context) (int64, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&models.Prompt{}).Count(&count).Error
	return count, err
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
