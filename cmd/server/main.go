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

	"github.com/joho/godotenv"

	"commentcascade/internal/app"
	"commentcascade/internal/config"
	"commentcascade/internal/handlers"
	"commentcascade/internal/metrics"
	"commentcascade/internal/security"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status := handlers.NewStartupStatus(app.StepCacheStore, app.StepMigrations, app.StepServices, handlers.StepServer)
	m := metrics.New()

	a, err := app.New(ctx, cfg, logger, m, status)
	if err != nil {
		return err
	}
	defer a.Close()

	tokens, err := security.NewGameTokens(cfg.GameSecret)
	if err != nil {
		return err
	}
	if cfg.GameSecret == "" {
		logger.Warn("GAME_SECRET not set, game tokens will not survive a restart")
	}

	rateLimiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer rateLimiter.Close()

	// Initialize handlers
	middleware := handlers.NewMiddleware(logger, m)
	puzzleHandler := handlers.NewPuzzleHandler(a.Cache, tokens, logger, m)
	limited := middleware.RateLimit(rateLimiter)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/puzzle", puzzleHandler.GetPuzzle)
	mux.Handle("POST /api/reveal", limited(http.HandlerFunc(puzzleHandler.Reveal)))
	mux.Handle("POST /api/guess", limited(http.HandlerFunc(puzzleHandler.Guess)))
	mux.HandleFunc("GET /healthz", status.Health)
	mux.Handle("GET /metrics", m.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handlers.Chain(mux, middleware.RequestID, middleware.Logging, middleware.Recover),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start expired-entry cleanup for backends without native TTL
	go a.RunCleanup(ctx, time.Hour, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "cache_backend", cfg.CacheBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	status.MarkReady()

	// Wait for interrupt signal
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
