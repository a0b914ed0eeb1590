package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shelfmark/internal/app"
	"shelfmark/internal/config"
	"shelfmark/internal/server"
	"shelfmark/internal/util"
	"shelfmark/pkg/auth"
	"shelfmark/pkg/queue"
	"shelfmark/pkg/storage"
	"shelfmark/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	jwtTTL, err := config.ParseJWTTTL(cfg.JWTTTL)
	if err != nil {
		log.Fatalf("failed to parse jwt ttl: %v", err)
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, jwtTTL)
	if err != nil {
		log.Fatalf("failed to init token issuer: %v", err)
	}

	db, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	objects, err := storage.NewMinioStore(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
		cfg.MinioBucket, cfg.MinioPublicURL, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	cleanupStream := cfg.CleanupStream
	if cleanupStream == "" {
		cleanupStream = "shelfmark:cleanup"
	}
	cleanupQueue, err := queue.NewRedisCleanupQueue(queue.RedisQueueConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Stream:   cleanupStream,
		Group:    "cleanup-workers",
	})
	if err != nil {
		log.Fatalf("failed to init cleanup queue: %v", err)
	}

	appCore, err := app.New(app.Config{
		Store:   db,
		Objects: objects,
		Cleanup: app.CleanupFunc(func(ctx context.Context, objectKey string) error {
			_, err := cleanupQueue.Enqueue(ctx, objectKey)
			return err
		}),
		RequireRatingWithReview: cfg.RequireRatingWithReview,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		Tokens:                     tokens,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		RegisterRateLimitPerMinute: cfg.RegisterRateLimitPerMinute,
		LoginRateLimitPerMinute:    cfg.LoginRateLimitPerMinute,
		MessageRateLimitPerMinute:  cfg.MessageRateLimitPerMinute,
		MaxUploadBytes:             cfg.MaxUploadBytes,
		AllowedImageExtensions:     cfg.AllowedImageExtensions,
		DefaultPageLimit:           cfg.DefaultPageLimit,
		MaxPageLimit:               cfg.MaxPageLimit,
		TrustedProxies:             cfg.TrustedProxies,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workers := cfg.CleanupWorkers
	if workers <= 0 {
		workers = 2
	}
	cleanupQueue.Start(ctx, workers, func(ctx context.Context, job queue.JobStatus) error {
		return objects.Delete(ctx, job.ObjectKey)
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("api server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
