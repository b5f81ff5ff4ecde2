// Package handler adapts the router to a stateless func(w, r) entry point
// for serverless platforms.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"prompt-library-backend/config"
	"prompt-library-backend/internal/api"
	"prompt-library-backend/internal/utils"
	"prompt-library-backend/pkg/logger"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// retryInterval bounds how often a warm instance that started without a
// database tries to build a connected app again.
const retryInterval = 30 * time.Second

// closeDelay lets requests still running on a replaced app finish.
const closeDelay = time.Minute

var (
	mu      sync.Mutex
	cfg     *config.Config
	current *api.App
	lastErr error
	lastTry time.Time

	now    = time.Now
	newApp = api.NewApp
)

func loadConfig() (*config.Config, error) {
	c, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	// Serverless file systems are read-only; log to stdout only.
	logCfg := c.LoggerConfig()
	logCfg.Filename = ""
	if err := logger.InitLogger(logCfg); err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	return c, nil
}

// currentApp returns the app for this instance, building it on first use.
// An app that came up degraded keeps serving fallback data and is rebuilt at
// most once per retryInterval until the database answers.
func currentApp(ctx context.Context) (*api.App, error) {
	mu.Lock()
	defer mu.Unlock()

	if current != nil && !current.Degraded() {
		return current, nil
	}
	if !lastTry.IsZero() && now().Sub(lastTry) < retryInterval {
		return current, lastErr
	}
	lastTry = now()

	if cfg == nil {
		c, err := loadConfig()
		if err != nil {
			lastErr = err
			return current, err
		}
		cfg = c
	}

	next, err := newApp(ctx, cfg)
	switch {
	case err != nil && current == nil:
		lastErr = err
		return nil, err
	case err != nil:
		logger.Log.Warn("Rebuilding app failed, still serving offline", zap.Error(err))
		return current, nil
	case current != nil && next.Degraded():
		_ = next.Close()
		return current, nil
	}

	if current != nil {
		logger.Log.Info("Database reachable again, replacing offline app")
		old := current
		time.AfterFunc(closeDelay, func() { _ = old.Close() })
	}
	current, lastErr = next, nil
	return current, nil
}

// Handler serves one request. The app and its connections are reused across
// warm invocations.
func Handler(w http.ResponseWriter, r *http.Request) {
	app, err := currentApp(context.Background())
	if err != nil {
		logger.Log.Error("Failed to initialize app", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(utils.NewErrorResponse("Internal server error"))
		return
	}
	app.Router.ServeHTTP(w, r)
}
