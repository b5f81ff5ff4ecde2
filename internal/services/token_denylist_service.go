package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const denylistPrefix = "denylist:"

// TokenDenylist remembers revoked tokens until they expire. Without Redis
// nothing is ever denylisted and logout is a client-side operation.
type TokenDenylist struct {
	redis *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{redis: client}
}

func (d *TokenDenylist) Add(ctx context.Context, tokenString string, expiration time.Duration) error {
	if d.redis == nil || expiration <= 0 {
		return nil
	}
	return d.redis.Set(ctx, denylistPrefix+tokenString, 1, expiration).Err()
}

func (d *TokenDenylist) Contains(ctx context.Context, tokenString string) (bool, error) {
	if d.redis == nil {
		return false, nil
	}
	val, err := d.redis.Get(ctx, denylistPrefix+tokenString).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}
