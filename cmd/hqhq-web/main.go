package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hqhq-web/api/swagger"
	"github.com/noah-isme/hqhq-web/internal/handler"
	internalmiddleware "github.com/noah-isme/hqhq-web/internal/middleware"
	"github.com/noah-isme/hqhq-web/internal/repository"
	"github.com/noah-isme/hqhq-web/internal/service"
	"github.com/noah-isme/hqhq-web/pkg/cache"
	"github.com/noah-isme/hqhq-web/pkg/config"
	"github.com/noah-isme/hqhq-web/pkg/jobs"
	"github.com/noah-isme/hqhq-web/pkg/logger"
	corsmiddleware "github.com/noah-isme/hqhq-web/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hqhq-web/pkg/middleware/requestid"
)

// @title HQHQ Web API
// @version 1.0.0
// @description Record intake, admin review and leaderboard backend for the HQHQ site
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Session.Store == config.SessionStoreRedis || cfg.Redis.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	hqhqRepo := repository.NewHQHQRepository(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logr).WithObserver(metricsSvc)
	feedRepo := repository.NewLeaderboardFeedRepository(cfg.Leaderboard.FeedURL, cfg.Upstream.Timeout, logr).WithObserver(metricsSvc)

	var sessionRepo service.SessionRepository
	if cfg.Session.Store == config.SessionStoreRedis {
		sessionRepo = repository.NewRedisSessionRepository(redisClient, cfg.Session.TTL, logr)
	} else {
		sessionRepo = repository.NewMemorySessionRepository(cfg.Session.TTL)
	}

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Leaderboard.CacheTTL, logr)

	sessionSvc := service.NewSessionService(
		sessionRepo,
		hqhqRepo,
		service.NewPasswordSealer(cfg.Session.SealKey),
		validate,
		metricsSvc,
		logr,
		service.SessionConfig{Secret: cfg.Session.Secret, TTL: cfg.Session.TTL, Issuer: cfg.Session.Issuer},
	)
	reviewSvc := service.NewReviewService(sessionSvc, hqhqRepo, cfg.Moderation.Version, metricsSvc, logr)
	submissionSvc := service.NewSubmissionService(hqhqRepo, service.SubmissionRules{RequireVlogs: cfg.Submission.RequireVlogs}, metricsSvc, logr)
	leaderboardSvc := service.NewLeaderboardService(feedRepo, cacheSvc, cfg.Leaderboard.CacheTTL, logr)
	if cfg.Leaderboard.PDFFontPath != "" {
		font, err := os.ReadFile(cfg.Leaderboard.PDFFontPath)
		if err != nil {
			logr.Fatal("failed to read pdf font", zap.String("path", cfg.Leaderboard.PDFFontPath), zap.Error(err))
		}
		leaderboardSvc.WithPDFFont(font)
	}

	if cacheSvc.Enabled() && cfg.Leaderboard.WarmInterval > 0 {
		warmer := jobs.NewPeriodic("leaderboard-warm", leaderboardSvc.Warm, jobs.PeriodicConfig{
			Interval:   cfg.Leaderboard.WarmInterval,
			MaxRetries: 3,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		})
		leaderboardSvc.WithWarmer(warmer)
		warmer.Start(ctx)
		defer warmer.Stop()
	}

	sessionHandler := handler.NewSessionHandler(sessionSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc, validate)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, cfg.Submission.DefaultVersion, cfg.Submission.MaxUploadBytes, logr)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc)

	checks := map[string]handler.ReadinessCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())

	api.GET("/leaderboard", leaderboardHandler.Board)
	api.GET("/leaderboard/export", leaderboardHandler.Export)

	api.GET("/submissions/options", submissionHandler.Options)
	api.POST("/submissions", submissionHandler.Submit)

	adminGroup := api.Group("/admin")
	adminGroup.POST("/login", sessionHandler.Login)
	adminGroup.GET("/session", sessionHandler.Restore)

	secured := adminGroup.Group("")
	secured.Use(internalmiddleware.Session(sessionSvc))
	secured.POST("/logout", sessionHandler.Logout)
	secured.GET("/submissions", reviewHandler.List)
	secured.POST("/submissions/refresh", reviewHandler.Refresh)
	secured.POST("/submissions/:id/vlog/toggle", reviewHandler.ToggleVlog)
	secured.GET("/submissions/:id/vlog/:player/download", reviewHandler.DownloadVlog)
	secured.POST("/submissions/:id/decision", reviewHandler.RequestDecision)
	secured.POST("/decision/confirm", reviewHandler.ConfirmDecision)
	secured.DELETE("/decision", reviewHandler.CancelDecision)
	secured.POST("/leaderboard/refresh", leaderboardHandler.Refresh)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "session_store", cfg.Session.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
