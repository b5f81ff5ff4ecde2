package config

import (
	"fmt"
	"os"
	"prompt-library-backend/pkg/logger"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"5000"`
	Environment string `envconfig:"NODE_ENV" default:"development"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"*"`
	MockMode    bool   `envconfig:"MOCK_MODE" default:"false"`
	BodyLimitMB int64  `envconfig:"BODY_LIMIT_MB" default:"10"`

	// DBDriver is either "postgres" or "sqlite".
	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"prompt_library"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"prompt_library.db"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"72h"`

	// AuthRateLimit caps signup and login attempts per client IP per minute.
	AuthRateLimit uint `envconfig:"AUTH_RATE_LIMIT" default:"10"`

	// Log configuration
	LogLevel      string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFilename   string `envconfig:"LOG_FILENAME" default:"logs/app.log"`
	LogMaxSize    int    `envconfig:"LOG_MAX_SIZE" default:"100"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	LogMaxAge     int    `envconfig:"LOG_MAX_AGE" default:"28"`
	LogCompress   bool   `envconfig:"LOG_COMPRESS" default:"true"`
}

// DSN returns the postgres connection string. DATABASE_URL wins over the
// individual DB_* settings when present.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins splits FRONTEND_URL on commas. "*" allows any origin.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" || c.FrontendURL == "*" {
		return nil
	}
	origins := strings.Split(strings.ReplaceAll(c.FrontendURL, " ", ""), ",")
	return origins
}

func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      c.LogLevel,
		Filename:   c.LogFilename,
		MaxSize:    c.LogMaxSize,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAge,
		Compress:   c.LogCompress,
	}
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		// Ignore error if .env file is not found
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return &cfg, nil
}
