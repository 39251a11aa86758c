package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/collabsphere/server/internal/module/auth"
	"github.com/collabsphere/server/internal/module/github"
	"github.com/collabsphere/server/internal/module/project"
	"github.com/collabsphere/server/internal/module/user"
	"github.com/collabsphere/server/internal/shared/cache"
	"github.com/collabsphere/server/internal/shared/config"
	"github.com/collabsphere/server/internal/shared/database"
	"github.com/collabsphere/server/internal/shared/logger"
	"github.com/collabsphere/server/internal/utils/metrics"
	"github.com/collabsphere/server/internal/utils/middleware"
)

// App holds the wired application.
type App struct {
	config *config.Config
	log    *logger.Logger
	zapLog *zap.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	server *http.Server
}

// New builds the application: config, loggers, stores, the GitHub
// integration and the HTTP server. Everything is wired explicitly here.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := &logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	log := logger.New(logCfg)
	zapLog, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(&user.User{}, &project.Project{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	// Redis only backs the rate limiter on the public token endpoint; the
	// server runs without it when no address is configured.
	var redisClient redis.UniversalClient
	var limiter middleware.RateLimiter
	if cfg.Redis.Address != "" {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			zapLog.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			limiter = auth.NewRateLimiter(redisClient)
		}
	}

	m := metrics.New("collabsphere")

	verifier := auth.NewVerifier(&auth.VerifierConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	})
	cipher, err := auth.NewCryptoManager(cfg.Auth.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("init token cipher: %w", err)
	}

	userRepo := user.NewRepository(db)
	projectRepo := project.NewRepository(db)

	oauthClient := github.NewOAuthClient(github.OAuthConfig{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		TokenURL:     cfg.GitHub.TokenURL,
		APIBaseURL:   cfg.GitHub.APIBaseURL,
		CallTimeout:  cfg.GitHub.CallTimeout,
	}, zapLog)
	apiClient := github.NewClient(github.ClientConfig{
		APIBaseURL:  cfg.GitHub.APIBaseURL,
		CallTimeout: cfg.GitHub.CallTimeout,
	}, zapLog, m)

	githubService := github.NewService(userRepo, projectRepo, oauthClient, apiClient, cipher, zapLog, m)
	githubHandler := github.NewHandler(githubService, zapLog)

	router := buildRouter(log, m, githubHandler, verifier, limiter)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		config: cfg,
		log:    log,
		zapLog: zapLog,
		db:     db,
		redis:  redisClient,
		server: server,
	}, nil
}

func buildRouter(
	log *logger.Logger,
	m *metrics.Metrics,
	githubHandler *github.Handler,
	verifier *auth.Verifier,
	limiter middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.Metrics(m))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(verifier)
	publicLimit := middleware.RateLimitByIP(limiter, 20, time.Minute)
	githubHandler.RegisterRoutes(router.Group(""), requireAuth, publicLimit)

	return router
}

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run() error {
	a.zapLog.Info("server starting", zap.String("address", a.config.Server.Address))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and closes the stores.
func (a *App) Shutdown(ctx context.Context) error {
	a.zapLog.Info("server shutting down")

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if a.redis != nil {
		if err := cache.Close(a.redis); err != nil {
			a.zapLog.Warn("close redis", zap.Error(err))
		}
	}
	if err := database.Close(a.db); err != nil {
		a.zapLog.Warn("close database", zap.Error(err))
	}
	_ = a.zapLog.Sync()
	return nil
}
