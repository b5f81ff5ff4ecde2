package database_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"prompt-library-backend/config"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/database/dbtest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineStore(t *testing.T) {
	store := database.Offline()

	_, err := store.DB(context.Background())
	assert.ErrorIs(t, err, database.ErrUnavailable)
	assert.False(t, store.Online())
	assert.ErrorIs(t, store.Ping(context.Background()), database.ErrUnavailable)
	assert.ErrorIs(t, store.Migrate(), database.ErrUnavailable)
	assert.NoError(t, store.Close())
}

func TestNilStoreIsOffline(t *testing.T) {
	var store *database.Store
	_, err := store.DB(context.Background())
	assert.True(t, database.IsUnavailable(err))
}

func TestConnectSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: t.TempDir() + "/test.db"}

	store, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, store.Online())
	assert.NoError(t, store.Migrate())
	assert.NoError(t, store.Ping(context.Background()))
}

func TestInMemoryStoreMigrates(t *testing.T) {
	store := dbtest.NewStore(t)
	db := dbtest.MustDB(t, store)

	for _, table := range []string{"users", "categories", "prompts", "reviews", "activity_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "offline", err: fmt.Errorf("list prompts: %w", database.ErrUnavailable), expected: true},
		{name: "bad conn", err: driver.ErrBadConn, expected: true},
		{name: "pg connect", err: &pgconn.ConnectError{}, expected: true},
		{name: "dial", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, expected: true},
		{name: "query error", err: errors.New("syntax error at or near"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, database.IsUnavailable(tt.err))
		})
	}
}
