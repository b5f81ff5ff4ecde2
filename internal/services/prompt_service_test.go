package services

import (
	"context"
	"sync"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/database/dbtest"
	"prompt-library-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromptService(t *testing.T) (*PromptService, *database.Store) {
	t.Helper()
	store := dbtest.NewStore(t)
	return NewPromptService(store, NewActivityService(store)), store
}

func countActivities(t *testing.T, store *database.Store, action models.ActivityAction) int64 {
	t.Helper()
	var count int64
	require.NoError(t, dbtest.MustDB(t, store).Model(&models.ActivityLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}

func titles(prompts []PromptWithStats) []string {
	out := make([]string, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, p.Title)
	}
	return out
}

func TestListPromptsFilters(t *testing.T) {
	svc, store := newPromptService(t)
	author := dbtest.CreateUser(t, store, "John Doe", "john@example.com")

	dbtest.CreatePrompt(t, store, author, models.Prompt{
		Title:       "Email Marketing Campaign Brief",
		Description: "Brief for an email campaign",
		Category:    "Marketing",
		Tags:        models.StringList{"email", "marketing"},
	})
	dbtest.CreatePrompt(t, store, author, models.Prompt{
		Title:       "Product Launch Strategy",
		Description: "Plan a go-to-market",
		Category:    "Strategy",
		Tags:        models.StringList{"launch", "strategy"},
	})
	dbtest.CreatePrompt(t, store, author, models.Prompt{
		Title:       "Social Post",
		Description: "Announce the LAUNCH of a feature",
		Category:    "marketing",
		Tags:        models.StringList{"social"},
	})

	tests := []struct {
		name   string
		filter PromptFilter
		want   []string
	}{
		{
			name:   "category is exact and case-sensitive",
			filter: PromptFilter{Category: "Marketing"},
			want:   []string{"Email Marketing Campaign Brief"},
		},
		{
			name:   "search is case-insensitive over title and description",
			filter: PromptFilter{Search: "launch"},
			want:   []string{"Social Post", "Product Launch Strategy"},
		},
		{
			name:   "tags match any",
			filter: PromptFilter{Tags: []string{"social", "email"}},
			want:   []string{"Social Post", "Email Marketing Campaign Brief"},
		},
		{
			name:   "limit and offset page newest first",
			filter: PromptFilter{Limit: 1, Offset: 1},
			want:   []string{"Product Launch Strategy"},
		},
		{
			name:   "no match",
			filter: PromptFilter{Category: "Nope"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListPrompts(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
			for _, p := range got {
				require.NotNil(t, p.Author)
				assert.Equal(t, "John Doe", p.Author.Name)
			}
		})
	}
}

func TestListPromptsLiteralMatching(t *testing.T) {
	svc, store := newPromptService(t)
	author := dbtest.CreateUser(t, store, "Author", "author@example.com")

	dbtest.CreatePrompt(t, store, author, models.Prompt{
		Title: "Grow revenue 50% fast",
		Tags:  models.StringList{"a_b"},
	})
	dbtest.CreatePrompt(t, store, author, models.Prompt{
		Title: "Plain title 500 words",
		Tags:  models.StringList{"axb"},
	})

	tests := []struct {
		name   string
		filter PromptFilter
		want   []string
	}{
		{name: "percent is literal", filter: PromptFilter{Search: "50%"}, want: []string{"Grow revenue 50% fast"}},
		{name: "underscore is literal", filter: PromptFilter{Search: "_"}, want: []string{}},
		{name: "backslash is literal", filter: PromptFilter{Search: `\`}, want: []string{}},
		{name: "tag underscore is literal", filter: PromptFilter{Tags: []string{"a_b"}}, want: []string{"Grow revenue 50% fast"}},
		{name: "tags are case-sensitive", filter: PromptFilter{Tags: []string{"A_B"}}, want: []string{}},
		{name: "tag must match a whole element", filter: PromptFilter{Tags: []string{"ax"}}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListPrompts(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\tmp`, escapeLike(`c:\tmp`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestListPromptsReviewStats(t *testing.T) {
	svc, store := newPromptService(t)
	author := dbtest.CreateUser(t, store, "Author", "author@example.com")
	reviewer := dbtest.CreateUser(t, store, "Reviewer", "reviewer@example.com")
	prompt := dbtest.CreatePrompt(t, store, author, models.Prompt{Title: "Reviewed"})
	dbtest.CreatePrompt(t, store, author, models.Prompt{Title: "Unreviewed"})

	for _, r := range []int{3, 4} {
		_, err := svc.AddReview(context.Background(), prompt.ID, reviewer, CreateReviewInput{Rating: r}, RequestMeta{})
		require.NoError(t, err)
	}

	got, err := svc.ListPrompts(context.Background(), PromptFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byTitle := map[string]PromptWithStats{}
	for _, p := range got {
		byTitle[p.Title] = p
	}
	assert.Equal(t, int64(2), byTitle["Reviewed"].ReviewCount)
	assert.InDelta(t, 3.5, byTitle["Reviewed"].AvgRating, 1e-9)
	assert.Equal(t, int64(0), byTitle["Unreviewed"].ReviewCount)
	assert.Equal(t, 0.0, byTitle["Unreviewed"].AvgRating)
}

func TestGetPrompt(t *testing.T) {
	svc, store := newPromptService(t)
	author := dbtest.CreateUser(t, store, "Author", "author@example.com")
	prompt := dbtest.CreatePrompt(t, store, author, models.Prompt{Title: "Detail", Rating: 4.9})

	got, err := svc.GetPrompt(context.Background(), prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Detail", got.Title)
	assert.Equal(t, 0.0, got.Rating, "rating is recomputed from reviews")
	assert.Equal(t, "Author", got.Author.Name)
	assert.Empty(t, got.Reviews)

	_, err = svc.GetPrompt(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestGetPromptOfflineStore(t *testing.T) {
	svc := NewPromptService(database.Offline(), NewActivityService(database.Offline()))

	_, err := svc.GetPrompt(context.Background(), "1")
	assert.ErrorIs(t, err, database.ErrUnavailable)
	assert.True(t, database.IsUnavailable(err))
}

func TestCreatePrompt(t *testing.T) {
	svc, store := newPromptService(t)
	author := dbtest.CreateUser(t, store, "Author", "author@example.com")
	require.NoError(t, dbtest.MustDB(t, store).Create(&models.Category{Name: "Marketing"}).Error)

	t.Run("applies defaults", func(t *testing.T) {
		got, err := svc.CreatePrompt(context.Background(), author, CreatePromptInput{
			Title:  "Minimal",
			Prompt: "Do the thing",
		}, RequestMeta{IP: "127.0.0.1"})
		require.NoError(t, err)

		assert.NotEmpty(t, got.ID)
		assert.Equal(t, models.DefaultCategory, got.Category)
		assert.Nil(t, got.CategoryID)
		assert.Equal(t, models.DefaultDifficulty, got.Difficulty)
		assert.Equal(t, models.DefaultEstimatedTime, got.EstimatedTime)
		assert.Equal(t, models.StringList{}, got.Tags)
		assert.Equal(t, models.StringList{}, got.Placeholders)
		assert.Equal(t, author.ID, got.AuthorID)
	})

	t.Run("links existing category", func(t *testing.T) {
		got, err := svc.CreatePrompt(context.Background(), author, CreatePromptInput{
			Title:      "Campaign",
			Prompt:     "Write a campaign for [PRODUCT]",
			Category:   "Marketing",
			Difficulty: models.DifficultyHard,
		}, RequestMeta{})
		require.NoError(t, err)
		require.NotNil(t, got.CategoryID)
	})

	t.Run("rejects unknown difficulty", func(t *testing.T) {
		_, err := svc.CreatePrompt(context.Background(), author, CreatePromptInput{
			Title:      "Bad",
			Prompt:     "x",
			Difficulty: "extreme",
		}, RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	assert.Equal(t, int64(2), countActivities(t, store, models.ActivityCreate))
}

func TestUpdatePrompt(t *testing.T) {
	svc, store := newPromptService(t)
	owner := dbtest.CreateUser(t, store, "Owner", "owner@example.com")
	other := dbtest.CreateUser(t, store, "Other", "other@example.com")
	prompt := dbtest.CreatePrompt(t, store, owner, models.Prompt{Title: "Original", Description: "keep me"})

	newTitle := "Renamed"
	tags := []string{"a", "b"}

	t.Run("non-owner is forbidden and nothing changes", func(t *testing.T) {
		_, err := svc.UpdatePrompt(context.Background(), prompt.ID, other, UpdatePromptInput{Title: &newTitle}, RequestMeta{})
		assert.ErrorIs(t, err, ErrForbidden)

		var stored models.Prompt
		require.NoError(t, dbtest.MustDB(t, store).First(&stored, "id = ?", prompt.ID).Error)
		assert.Equal(t, "Original", stored.Title)
	})

	t.Run("missing prompt", func(t *testing.T) {
		_, err := svc.UpdatePrompt(context.Background(), "missing", owner, UpdatePromptInput{Title: &newTitle}, RequestMeta{})
		assert.ErrorIs(t, err, ErrPromptNotFound)
	})

	t.Run("owner merges partial fields", func(t *testing.T) {
		got, err := svc.UpdatePrompt(context.Background(), prompt.ID, owner, UpdatePromptInput{Title: &newTitle, Tags: &tags}, RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "keep me", got.Description)
		assert.Equal(t, models.StringList{"a", "b"}, got.Tags)
		assert.False(t, got.UpdatedAt.Before(prompt.UpdatedAt))
	})

	assert.Equal(t, int64(1), countActivities(t, store, models.ActivityEdit))
}

func TestDeletePrompt(t *testing.T) {
	svc, store := newPromptService(t)
	owner := dbtest.CreateUser(t, store, "Owner", "owner@example.com")
	other := dbtest.CreateUser(t, store, "Other", "other@example.com")
	prompt := dbtest.CreatePrompt(t, store, owner, models.Prompt{Title: "Doomed"})
	_, err := svc.AddReview(context.Background(), prompt.ID, other, CreateReviewInput{Rating: 5}, RequestMeta{})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeletePrompt(context.Background(), prompt.ID, other, RequestMeta{}), ErrForbidden)
	assert.ErrorIs(t, svc.DeletePrompt(context.Background(), "missing", owner, RequestMeta{}), ErrPromptNotFound)

	require.NoError(t, svc.DeletePrompt(context.Background(), prompt.ID, owner, RequestMeta{}))

	db := dbtest.MustDB(t, store)
	var prompts, reviews int64
	require.NoError(t, db.Model(&models.Prompt{}).Count(&prompts).Error)
	require.NoError(t, db.Model(&models.Review{}).Count(&reviews).Error)
	assert.Zero(t, prompts)
	assert.Zero(t, reviews, "reviews are removed with their prompt")
	assert.Equal(t, int64(1), countActivities(t, store, models.ActivityDelete))
}

func TestTrackUsage(t *testing.T) {
	svc, store := newPromptService(t)
	author := dbtest.CreateUser(t, store, "Author", "author@example.com")
	prompt := dbtest.CreatePrompt(t, store, author, models.Prompt{Title: "Used", UsageCount: 10})

	require.NoError(t, svc.TrackUsage(context.Background(), prompt.ID, nil, RequestMeta{}))
	require.NoError(t, svc.TrackUsage(context.Background(), prompt.ID, &author.ID, RequestMeta{}))

	var stored models.Prompt
	require.NoError(t, dbtest.MustDB(t, store).First(&stored, "id = ?", prompt.ID).Error)
	assert.Equal(t, int64(12), stored.UsageCount)
	assert.Equal(t, int64(2), countActivities(t, store, models.ActivityTest))

	assert.ErrorIs(t, svc.TrackUsage(context.Background(), "missing", nil, RequestMeta{}), ErrPromptNotFound)
}

func TestAddReviewRating(t *testing.T) {
	tests := []struct {
		name       string
		ratings    []int
		wantErr    error
		wantRating float64
	}{
		{name: "single review sets rating", ratings: []int{3}, wantRating: 3},
		{name: "mean of two reviews", ratings: []int{4, 5}, wantRating: 4.5},
		{name: "lower bound accepted", ratings: []int{1}, wantRating: 1},
		{name: "upper bound accepted", ratings: []int{5}, wantRating: 5},
		{name: "zero rejected", ratings: []int{0}, wantErr: ErrInvalidRating},
		{name: "six rejected", ratings: []int{6}, wantErr: ErrInvalidRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newPromptService(t)
			author := dbtest.CreateUser(t, store, "Author", "author@example.com")
			reviewer := dbtest.CreateUser(t, store, "Reviewer", "reviewer@example.com")
			prompt := dbtest.CreatePrompt(t, store, author, models.Prompt{Title: "Rated"})

			var err error
			for _, r := range tt.ratings {
				_, err = svc.AddReview(context.Background(), prompt.ID, reviewer, CreateReviewInput{Rating: r}, RequestMeta{})
			}

			var stored models.Prompt
			require.NoError(t, dbtest.MustDB(t, store).First(&stored, "id = ?", prompt.ID).Error)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0.0, stored.Rating)
				assert.Zero(t, countActivities(t, store, models.ActivityReview))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantRating, stored.Rating, 1e-9)
			assert.Equal(t, int64(len(tt.ratings)), countActivities(t, store, models.ActivityReview))
		})
	}
}

func TestAddReviewConcurrent(t *testing.T) {
	svc, store := newPromptService(t)
	author := dbtest.CreateUser(t, store, "Author", "author@example.com")
	reviewer := dbtest.CreateUser(t, store, "Reviewer", "reviewer@example.com")
	prompt := dbtest.CreatePrompt(t, store, author, models.Prompt{Title: "Busy"})

	ratings := []int{1, 2, 3, 4, 5, 5, 4, 2}
	var wg sync.WaitGroup
	errs := make(chan error, len(ratings))
	for _, r := range ratings {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, err := svc.AddReview(context.Background(), prompt.ID, reviewer, CreateReviewInput{Rating: rating}, RequestMeta{})
			errs <- err
		}(r)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var stored models.Prompt
	require.NoError(t, dbtest.MustDB(t, store).First(&stored, "id = ?", prompt.ID).Error)
	assert.InDelta(t, 26.0/8, stored.Rating, 1e-9)
}

func TestReviewWritersLockRows(t *testing.T) {
	db := dbtest.PostgresDryRun(t)

	stmt := lockPrompt(db, "p1").Take(&models.Prompt{}).Statement
	assert.Contains(t, stmt.SQL.String(), "FOR UPDATE")

	stmt = categoryByName(db, "Marketing").Take(&models.Category{}).Statement
	assert.Contains(t, stmt.SQL.String(), "FOR SHARE")
}

func TestAddReviewMissingPrompt(t *testing.T) {
	svc, store := newPromptService(t)
	reviewer := dbtest.CreateUser(t, store, "Reviewer", "reviewer@example.com")

	_, err := svc.AddReview(context.Background(), "missing", reviewer, CreateReviewInput{Rating: 4}, RequestMeta{})
	assert.ErrorIs(t, err, ErrPromptNotFound)

	var reviews int64
	require.NoError(t, dbtest.MustDB(t, store).Model(&models.Review{}).Count(&reviews).Error)
	assert.Zero(t, reviews)
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 4.5, AverageRating([]models.Review{{Rating: 4}, {Rating: 5}}))
}
