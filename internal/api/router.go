package api

import (
	"context"
	"fmt"
	"net/http"
	"prompt-library-backend/config"
	_ "prompt-library-backend/docs"
	"prompt-library-backend/internal/api/mock"
	"prompt-library-backend/internal/api/v1/auth"
	"prompt-library-backend/internal/api/v1/category"
	"prompt-library-backend/internal/api/v1/prompt"
	"prompt-library-backend/internal/api/v1/stats"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/middleware"
	"prompt-library-backend/internal/mockdata"
	"prompt-library-backend/internal/services"
	"prompt-library-backend/internal/utils"
	"prompt-library-backend/pkg/logger"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	limits "github.com/gin-contrib/size"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// App is the assembled server: its router plus the connections it owns.
type App struct {
	Router *gin.Engine
	Store  *database.Store
	Redis  *redis.Client

	mock bool
}

// Degraded reports whether the app fell back to offline mode because the
// database could not be reached. Mock apps are never degraded.
func (a *App) Degraded() bool {
	return !a.mock && !a.Store.Online()
}

// HealthResponse is served by GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

// NewApp connects to the database and Redis and builds the router. Neither
// connection is required: without a database the server runs offline and
// read endpoints serve sample data; without Redis nothing is cached and
// logout cannot revoke tokens.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.MockMode {
		logger.Log.Warn("MOCK_MODE enabled, serving sample data only")
		return &App{Router: NewMockRouter(cfg), Store: database.Offline(), mock: true}, nil
	}

	store, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Log.Warn("Database connection failed, starting in offline mode", zap.Error(err))
		store = database.Offline()
	}

	if store.Online() {
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		if err := services.NewCategoryService(store).SeedDefaults(ctx, mockdata.Categories()); err != nil {
			logger.Log.Warn("Failed to seed default categories", zap.Error(err))
		}
		logger.Log.Info("Database connected", zap.String("driver", cfg.DBDriver))
	}

	client, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Log.Warn("Redis connection failed, continuing without cache", zap.Error(err))
		client = nil
	}

	return &App{Router: NewRouter(cfg, store, client), Store: store, Redis: client}, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// newEngine installs the middleware shared by the live and mock servers.
func newEngine(cfg *config.Config) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies([]string{"0.0.0.0/0", "::/0"})

	router.Use(middleware.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
	}))
	router.Use(secure.New(secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'",
		IsDevelopment:         cfg.IsDevelopment(),
	}))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		// Credentials with a wildcard are rejected by browsers, so echo the origin.
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}
	router.Use(cors.New(corsConfig))
	router.Use(limits.RequestSizeLimiter(cfg.BodyLimitMB << 20))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, utils.ErrorResponse{
			Error:   "Not found",
			Message: fmt.Sprintf("%s %s not found", c.Request.Method, c.Request.URL.Path),
		})
	})
	return router
}

// NewRouter wires services and handlers on top of store and client. A nil
// client disables caching and token revocation.
func NewRouter(cfg *config.Config, store *database.Store, client *redis.Client) *gin.Engine {
	router := newEngine(cfg)

	p := ginprometheus.NewPrometheus("gin")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		if route := c.FullPath(); route != "" {
			return route
		}
		return "unmatched"
	}
	p.Use(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:      "OK",
			Timestamp:   time.Now().UTC(),
			Environment: cfg.Environment,
		})
	})

	activityService := services.NewActivityService(store)
	userService := services.NewUserService(store, client)
	promptService := services.NewPromptService(store, activityService)
	categoryService := services.NewCategoryService(store)
	statsService := services.NewStatsService(promptService, categoryService, userService, activityService, client)
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := services.NewAuthService(userService, tokens, services.NewTokenDenylist(client))
	authn := middleware.NewAuthenticator(authService)

	apiGroup := router.Group("/api")
	auth.RegisterRoutes(apiGroup, auth.NewHandler(authService), authn, middleware.RateLimit(cfg.AuthRateLimit))

	resources := apiGroup.Group("")
	resources.Use(authn.OptionalAuth())
	{
		prompt.RegisterRoutes(resources, prompt.NewHandler(promptService, activityService), authn)
		category.RegisterRoutes(resources, category.NewHandler(categoryService), authn)
		stats.RegisterRoutes(resources, stats.NewHandler(statsService))
	}

	return router
}

// NewMockRouter serves the sample data set with no database behind it.
func NewMockRouter(cfg *config.Config) *gin.Engine {
	router := newEngine(cfg)
	mock.RegisterRoutes(router)
	return router
}
