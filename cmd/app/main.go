package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scamfeed/internal/cache"
	"scamfeed/internal/config"
	"scamfeed/internal/db"
	httpServer "scamfeed/internal/http"
	"scamfeed/internal/http/handlers"
	"scamfeed/internal/http/middleware"
	"scamfeed/internal/jobs"
	"scamfeed/internal/logger"
	"scamfeed/internal/oracle"
	"scamfeed/internal/repository"
	"scamfeed/internal/repository/memory"
	"scamfeed/internal/service"
	"scamfeed/internal/storage"
	"scamfeed/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store repository.Store
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("using in-memory storage, data is lost on restart")
		store = memory.New()
	default:
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		store = repository.NewPgStore(pool)
	}

	// nil when Redis is not configured or down; limiters and cache degrade
	rdb := middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}
	trending := cache.NewTrendingCache(rdb, cfg.TrendingCacheTTL)

	classifier, describer := newOracle(ctx, cfg)

	blobs, err := storage.NewLocalBlobStore(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", "error", err, "dir", cfg.UploadDir)
	}

	audit := service.NewAuditService(store)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	rewards := service.NewRewardService(store, service.RewardConfig{
		ReportPoints:  cfg.RewardReport,
		QuizPoints:    cfg.RewardQuizCorrect,
		LikePoints:    cfg.RewardSocialLike,
		CommentPoints: cfg.RewardSocialComment,
		QuizDailyGate: cfg.QuizDailyGate,
		Location:      cfg.Location,
	}, audit)
	feed := service.NewFeedService(store, rewards, trending, cfg.Location)

	hub := ws.NewHub()
	go hub.Run(ctx)

	pipeline := service.NewPipelineService(store, classifier, describer, blobs, rewards, audit, service.PipelineConfig{
		AutoPublishThreshold:   cfg.AutoPublishThreshold,
		VerifiedScamConfidence: cfg.VerifiedScamConfidence,
		MaxImageBytes:          cfg.MaxUploadBytes,
	}).WithNotifier(service.Notifiers{hub, feed})
	auth := service.NewAuthService(store, tokens, audit)

	scheduler := jobs.NewScheduler(feed, cfg.TrendingRefreshCron, cfg.Location)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", "error", err)
	}
	defer scheduler.Stop()

	var cachePinger handlers.Pinger
	if trending.Enabled() {
		cachePinger = trending
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, httpServer.Server{
		Handler:       handlers.NewHandler(auth, rewards, pipeline, feed, cfg.MaxUploadBytes),
		Health:        handlers.NewHealthHandler(store, cachePinger, cfg.AppVersion),
		Tokens:        tokens,
		Hub:           hub,
		Limits:        httpServer.LimitsFromConfig(cfg),
		AllowedOrigin: cfg.AllowedOrigin,
		UploadDir:     cfg.UploadDir,
		UploadPrefix:  cfg.UploadURLPrefix,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", cfg.AppVersion, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

// newOracle picks Gemini when an API key is configured and the placeholder otherwise
func newOracle(ctx context.Context, cfg *config.Config) (oracle.Classifier, oracle.Describer) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, using placeholder classifier")
		return oracle.PlaceholderClassifier{}, oracle.TemplateDescriber{}
	}
	gen, err := oracle.NewGenAIGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to create genai client, using placeholder classifier", "error", err)
		return oracle.PlaceholderClassifier{}, oracle.TemplateDescriber{}
	}
	return oracle.NewGeminiClassifier(gen, cfg.OracleTimeout), oracle.NewGeminiDescriber(gen, cfg.OracleTimeout)
}
