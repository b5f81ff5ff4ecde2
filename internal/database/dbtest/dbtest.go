// Package dbtest builds isolated stores for package tests.
package dbtest

import (
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/models"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStore opens a private in-memory SQLite database and migrates it. A
// single connection keeps the in-memory database alive for the whole test.
func NewStore(t testing.TB) *database.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := database.NewStore(db)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// PostgresDryRun returns a Postgres-dialect handle that renders statements
// without connecting, for asserting SQL the SQLite store leaves out.
func PostgresDryRun(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

// NewRedis starts a miniredis server bound to the test lifetime.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// CreateUser inserts a user whose password is "password123".
func CreateUser(t testing.TB, store *database.Store, name, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Name: name, Email: email, Password: string(hash), Role: models.RoleUser}
	require.NoError(t, MustDB(t, store).Create(user).Error)
	return user
}

// CreatePrompt inserts a prompt owned by author, filling required fields.
func CreatePrompt(t testing.TB, store *database.Store, author *models.User, p models.Prompt) *models.Prompt {
	t.Helper()

	p.AuthorID = author.ID
	if p.Prompt == "" {
		p.Prompt = "Write something about " + p.Title
	}
	if p.Category == "" {
		p.Category = models.DefaultCategory
	}
	if p.Difficulty == "" {
		p.Difficulty = models.DefaultDifficulty
	}
	require.NoError(t, MustDB(t, store).Create(&p).Error)
	return &p
}

func MustDB(t testing.TB, store *database.Store) *gorm.DB {
	t.Helper()

	db, err := store.DB(t.Context())
	require.NoError(t, err)
	return db
}
