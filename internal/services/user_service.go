package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/models"
	"prompt-library-backend/pkg/logger"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const userCacheTTL = time.Hour

type UserService struct {
	store *database.Store
	redis *redis.Client
}

func NewUserService(store *database.Store, client *redis.Client) *UserService {
	return &UserService{store: store, redis: client}
}

func userCacheKey(id string) string {
	return "user:" + id
}

// FindUserByID reads through the Redis cache when one is configured.
func (s *UserService) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	cacheKey := userCacheKey(id)
	if s.redis != nil {
		val, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return &user, nil
			}
		}
	}

	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if s.redis != nil {
		// Password is excluded from JSON, so cached users never carry the hash.
		if data, err := json.Marshal(user); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, userCacheTTL).Err(); err != nil {
				logger.Log.Warn("Failed to cache user", zap.String("user_id", id), zap.Error(err))
			}
		}
	}

	return &user, nil
}

// RegisterUser creates an account with a bcrypt-hashed password.
func (s *UserService) RegisterUser(ctx context.Context, name, email, password string) (*models.User, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	var existing models.User
	result := db.Where("email = ?", email).Take(&existing)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// CountUsers returns the total number of registered users.
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&models.User{}).Count(&count).Error
	return count, err
}
