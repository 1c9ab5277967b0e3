package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/rfp-analyzer/internal/bootstrap"
	"github.com/bryanwahyu/rfp-analyzer/internal/config"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/rfp-analyzer/internal/middleware"
)

func main() {
	// load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		slog.Error("config load error", "err", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx := context.Background()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("configuration loaded",
		"backend", cfg.Storage.Backend,
		"bucket", app.Store.Bucket(),
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"basePath", cfg.Server.BasePath,
		"credentials", cfg.CredentialPresence())

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
	defer limiter.Close()

	// init router
	handler := httpserver.NewRouter(httpserver.Options{
		Analysis:       app.Analysis,
		Files:          app.Files,
		Store:          app.Store,
		Logger:         logger,
		BasePath:       cfg.Server.BasePath,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		Limiter:        limiter,
		Provider:       cfg.AI.Provider,
		Backend:        cfg.Storage.Backend,
		Credentials:    cfg.CredentialPresence(),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		// model calls on long documents take minutes
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
