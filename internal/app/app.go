// Package app wires configuration into the cache store and puzzle services
// shared by the server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"commentcascade/internal/config"
	"commentcascade/internal/database"
	"commentcascade/internal/metrics"
	"commentcascade/internal/redaction"
	"commentcascade/internal/reddit"
	"commentcascade/internal/repository"
	"commentcascade/internal/service"
	"commentcascade/internal/store"
)

// Progress receives startup step notifications
type Progress interface {
	SetCurrentStep(step string)
	CompleteStep(step string)
}

// Startup step names
const (
	StepCacheStore = "Cache store"
	StepMigrations = "Running migrations"
	StepServices   = "Initializing services"
)

type noProgress struct{}

func (noProgress) SetCurrentStep(string) {}
func (noProgress) CompleteStep(string)   {}

// App holds the wired puzzle services
type App struct {
	Store   store.Store
	Purger  store.Purger
	Engine  *redaction.Engine
	Builder *service.PuzzleBuilder
	Cache   *service.DailyPuzzleCache
	Archive *service.ArchiveService

	closers []func() error
}

// New opens the configured cache store and builds the puzzle services
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, progress Progress) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if progress == nil {
		progress = noProgress{}
	}
	a := &App{}

	progress.SetCurrentStep(StepCacheStore)
	if err := a.openStore(ctx, cfg, logger, progress); err != nil {
		a.Close()
		return nil, err
	}
	progress.CompleteStep(StepCacheStore)

	progress.SetCurrentStep(StepServices)
	rules, err := redaction.LoadRules(cfg.RulesPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load redaction rules: %w", err)
	}
	engine, err := redaction.NewEngine(rules)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to compile redaction rules: %w", err)
	}
	a.Engine = engine
	logger.Info("redaction rules loaded", "rules", engine.RuleNames(), "path", cfg.RulesPath)

	client := reddit.NewClient(reddit.Config{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
		BaseURL:      cfg.RedditBaseURL,
		Timeout:      cfg.ProviderTimeout,
	})

	a.Builder = service.NewPuzzleBuilder(client, engine, service.BuilderConfig{
		Categories:        cfg.Categories,
		MinReplies:        cfg.MinReplies,
		ItemLimit:         cfg.ItemLimit,
		ReplyLimit:        cfg.ReplyLimit,
		CommentsPerPuzzle: cfg.CommentsPerPuzzle,
		Timeout:           cfg.ProviderTimeout,
	}, logger, m)

	a.Archive, err = service.NewArchiveService(ctx, service.ArchiveConfig{
		Bucket:    cfg.ArchiveBucket,
		Region:    cfg.ArchiveRegion,
		Endpoint:  cfg.ArchiveEndpoint,
		AccessKey: cfg.ArchiveAccessKey,
		SecretKey: cfg.ArchiveSecretKey,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize archive: %w", err)
	}

	opts := service.DailyCacheOptions{
		TTL:          cfg.PuzzleTTL,
		SingleFlight: cfg.SingleFlight,
		Logger:       logger,
		Metrics:      m,
	}
	if a.Archive.IsEnabled() {
		opts.Archiver = a.Archive
	}
	a.Cache = service.NewDailyPuzzleCache(a.Store, a.Builder, opts)
	progress.CompleteStep(StepServices)

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress Progress) error {
	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		s := store.NewMemoryStore()
		a.Store, a.Purger = s, s
		a.closers = append(a.closers, s.Close)
		logger.Info("using in-memory cache store")
		progress.CompleteStep(StepMigrations)

	case config.CacheBackendBadger:
		s, err := store.OpenBadger(store.BadgerConfig{Path: cfg.BadgerPath, Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to open badger store: %w", err)
		}
		a.Store = s
		a.closers = append(a.closers, s.Close)
		logger.Info("using badger cache store", "path", cfg.BadgerPath)
		progress.CompleteStep(StepMigrations)

	case config.CacheBackendSQL:
		db, err := database.InitializeWithConfig(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		logger.Info("database connection established", "type", cfg.DatabaseType)

		progress.SetCurrentStep(StepMigrations)
		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		progress.CompleteStep(StepMigrations)

		repo := repository.NewCacheRepository(db)
		a.Store, a.Purger = repo, repo

	default:
		return fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
	return nil
}

// PurgeExpired removes expired entries from backends that need it
func (a *App) PurgeExpired(ctx context.Context) (int64, error) {
	if a.Purger == nil {
		return 0, nil
	}
	return a.Purger.DeleteExpired(ctx)
}

// RunCleanup purges expired entries every interval until ctx is done
func (a *App) RunCleanup(ctx context.Context, every time.Duration, logger *slog.Logger) {
	if a.Purger == nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.PurgeExpired(ctx)
			if err != nil {
				logger.Error("error cleaning up expired puzzles", "error", err)
				continue
			}
			logger.Info("expired puzzles cleaned up", "removed", removed)
		}
	}
}

// Close releases the store in reverse order of opening
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
