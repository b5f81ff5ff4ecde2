package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"prompt-library-backend/config"
	"prompt-library-backend/internal/models"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrUnavailable is returned by Store.DB when the process is running
// without a database connection.
var ErrUnavailable = errors.New("database unavailable")

// Store owns the process-wide gorm handle. A Store without a handle is
// "offline": every DB call fails with ErrUnavailable so read paths can
// serve fallback data.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already opened gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Offline returns a store with no connection.
func Offline() *Store {
	return &Store{}
}

// Connect opens the configured database and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite serializes writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	store := NewStore(db)
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return store, nil
}

// DB returns a context-bound handle, or ErrUnavailable when offline.
func (s *Store) DB(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrUnavailable
	}
	return s.db.WithContext(ctx), nil
}

func (s *Store) Online() bool {
	return s != nil && s.db != nil
}

func (s *Store) Ping(ctx context.Context) error {
	if !s.Online() {
		return ErrUnavailable
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates every table owned by the service.
func (s *Store) Migrate() error {
	if !s.Online() {
		return ErrUnavailable
	}
	return s.db.AutoMigrate(models.AllModels()...)
}

// Close releases the underlying connection pool. Closing an offline store
// is a no-op.
func (s *Store) Close() error {
	if !s.Online() {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUnavailable reports whether err means the database could not be
// reached at all, as opposed to a failed query.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
