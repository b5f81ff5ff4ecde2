package database

import (
	"context"
	"prompt-library-backend/config"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis returns a nil client when REDIS_ADDR is unset; callers treat
// a nil client as "no cache".
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
