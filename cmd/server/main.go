package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/cache"
	"github.com/campuslink/campuslink/internal/comments"
	"github.com/campuslink/campuslink/internal/config"
	"github.com/campuslink/campuslink/internal/database"
	"github.com/campuslink/campuslink/internal/feed"
	"github.com/campuslink/campuslink/internal/httpapi"
	"github.com/campuslink/campuslink/internal/ingest"
	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/poll"
	"github.com/campuslink/campuslink/internal/ratelimit"
)

func main() {
	cfg := config.Load()

	level := logging.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	logger := logging.New(level)

	db, err := database.New(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", logging.WithField("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("Failed to run migrations", logging.WithField("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Connected to PostgreSQL")

	var feedCache cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		logger.Info("Using Redis cache backend", logging.WithField("addr", cfg.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{Addr: cfg.Cache.RedisAddr}, cfg.Cache.TTL)
		if err != nil {
			logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			feedCache = cache.NewMemory(cfg.Cache.TTL)
		} else {
			feedCache = redisCache
		}
	default:
		logger.Info("Using in-memory cache backend")
		feedCache = cache.NewMemory(cfg.Cache.TTL)
	}

	contentStore := database.NewContentStore(db)
	membershipStore := database.NewMembershipStore(db)
	ballotStore := database.NewBallotStore(db)
	commentStore := database.NewCommentStore(db)

	feedSvc := feed.NewService(contentStore, membershipStore, feedCache, logger)
	ballotEngine := poll.NewEngine(ballotStore, logger)
	commentSvc := comments.NewService(commentStore, logger)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	middleware := auth.NewMiddleware(verifier)

	if cfg.Ingest.Enabled {
		limiter := ratelimit.New(cfg.Ingest.RateLimit)
		importer := ingest.NewImporter(contentStore, limiter, logger)
		go importer.Run(ctx, cfg.Ingest.Interval)
		logger.Info("Announcement feed import enabled", logging.WithField("interval", cfg.Ingest.Interval))
	}

	feedAPI := httpapi.NewFeedAPI(feedSvc, middleware, logger)
	pollAPI := httpapi.NewPollAPI(ballotEngine, feedSvc, middleware, logger)
	commentAPI := httpapi.NewCommentAPI(commentSvc, feedSvc, middleware, logger)
	server := httpapi.New(feedAPI, pollAPI, commentAPI, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
		cancel()
	}()

	logger.Info("Starting HTTP server", logging.WithField("addr", cfg.Server.HTTPAddr))
	if err := server.Start(cfg.Server.HTTPAddr); err != nil && err.Error() != "http: Server closed" {
		logger.Error("HTTP server error", logging.WithField("error", err.Error()))
		os.Exit(1)
	}
}
