package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"academics/internal/academics"
	"academics/internal/config"
	"academics/internal/handler"
	"academics/internal/httpmiddleware"
	"academics/internal/logger"
	"academics/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.LogError("invalid configuration", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		logger.LogError("http server failed", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := store.Open(openCtx, store.Dialect(cfg.DBDriver), cfg.DatabaseURL, store.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	logger.LogInfo("store ready", "driver", cfg.DBDriver)

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	var limiter httpmiddleware.Limiter
	if redisClient != nil {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
		logger.LogInfo("rate limiting via redis", "addr", cfg.RedisAddr)
	} else {
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	svc := academics.NewService(db, cfg.BcryptCost)
	h := handler.New(svc, db, redisClient)
	r := handler.NewRouter(h, handler.RouterConfig{
		Limiter:      limiter,
		Metrics:      httpmiddleware.NewMetrics(nil),
		AllowOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogInfo("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.LogInfo("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogWarn("server forced shutdown", "error", err)
	}
	logger.LogInfo("server exited")
	return nil
}
