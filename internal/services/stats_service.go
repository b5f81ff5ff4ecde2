package services

import (
	"context"
	"encoding/json"
	"fmt"
	"prompt-library-backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	statsCacheKey = "stats:snapshot"
	statsCacheTTL = 30 * time.Second
)

type Stats struct {
	TotalPrompts    int64 `json:"totalPrompts"`
	TotalCategories int64 `json:"totalCategories"`
	TotalUsers      int64 `json:"totalUsers"`
	TotalViews      int64 `json:"totalViews"`
}

type StatsService struct {
	prompts    *PromptService
	categories *CategoryService
	users      *UserService
	activity   *ActivityService
	redis      *redis.Client
}

func NewStatsService(prompts *PromptService, categories *CategoryService, users *UserService, activity *ActivityService, client *redis.Client) *StatsService {
	return &StatsService{
		prompts:    prompts,
		categories: categories,
		users:      users,
		activity:   activity,
		redis:      client,
	}
}

// Snapshot counts prompts, categories, users and "view" events. The result
// is cached for a short time when Redis is configured.
func (s *StatsService) Snapshot(ctx context.Context) (*Stats, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var cached Stats
			if err := json.Unmarshal(val, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var (
		stats Stats
		err   error
	)
	if stats.TotalPrompts, err = s.prompts.CountPrompts(ctx); err != nil {
		return nil, fmt.Errorf("count prompts: %w", err)
	}
	if stats.TotalCategories, err = s.categories.CountCategories(ctx); err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	if stats.TotalUsers, err = s.users.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.TotalViews, err = s.activity.CountViews(ctx); err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}

	if s.redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.redis.Set(ctx, statsCacheKey, data, statsCacheTTL).Err(); err != nil {
				logger.Log.Warn("Failed to cache stats", zap.Error(err))
			}
		}
	}

	return &stats, nil
}
