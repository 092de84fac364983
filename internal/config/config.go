package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"commentcascade/internal/validation"
)

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendSQL    = "sql"
	CacheBackendBadger = "badger"
)

// Config holds application configuration
type Config struct {
	ServerPort string `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`

	CacheBackend string `env:"CACHE_BACKEND" envDefault:"memory"`
	DatabaseType string `env:"DB_TYPE" envDefault:"sqlite"`
	DatabasePath string `env:"DB_PATH" envDefault:"./commentcascade.db"`
	DatabaseURL  string `env:"DATABASE_URL"`
	BadgerPath   string `env:"BADGER_PATH" envDefault:"./data/badger"`

	PuzzleTTL         time.Duration `env:"PUZZLE_TTL" envDefault:"25h"`
	Categories        []string      `env:"PUZZLE_CATEGORIES" envSeparator:"," envDefault:"AskReddit,tifu,todayilearned,explainlikeimfive,unpopularopinion,AmItheAsshole,relationship_advice,LifeProTips,Showerthoughts,mildlyinfuriating"`
	MinReplies        int           `env:"PUZZLE_MIN_REPLIES" envDefault:"6"`
	ItemLimit         int           `env:"PUZZLE_ITEM_LIMIT" envDefault:"10"`
	ReplyLimit        int           `env:"PUZZLE_REPLY_LIMIT" envDefault:"10"`
	CommentsPerPuzzle int           `env:"PUZZLE_COMMENTS" envDefault:"5"`
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	SingleFlight      bool          `env:"PUZZLE_SINGLE_FLIGHT" envDefault:"false"`
	RulesPath         string        `env:"REDACTION_RULES_PATH"`

	RedditClientID     string `env:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `env:"REDDIT_CLIENT_SECRET"`
	RedditUserAgent    string `env:"REDDIT_USER_AGENT" envDefault:"commentcascade/1.0"`
	RedditBaseURL      string `env:"REDDIT_BASE_URL"`

	GameSecret string        `env:"GAME_SECRET"`
	RateLimit  int           `env:"RATE_LIMIT" envDefault:"60"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`

	ArchiveBucket    string `env:"ARCHIVE_BUCKET"`
	ArchiveRegion    string `env:"ARCHIVE_REGION" envDefault:"us-east-1"`
	ArchiveEndpoint  string `env:"ARCHIVE_ENDPOINT"`
	ArchiveAccessKey string `env:"ARCHIVE_ACCESS_KEY"`
	ArchiveSecretKey string `env:"ARCHIVE_SECRET_KEY"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that env parsing alone cannot
func (c *Config) Validate() error {
	var errs []error

	switch c.CacheBackend {
	case CacheBackendMemory, CacheBackendSQL, CacheBackendBadger:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q is not one of memory, sql, badger", c.CacheBackend))
	}
	if c.PuzzleTTL <= 24*time.Hour {
		errs = append(errs, fmt.Errorf("PUZZLE_TTL %s must be longer than 24h", c.PuzzleTTL))
	}
	if err := validation.ValidateCategories(c.Categories); err != nil {
		errs = append(errs, fmt.Errorf("PUZZLE_CATEGORIES: %w", err))
	}
	if c.CommentsPerPuzzle < 1 {
		errs = append(errs, errors.New("PUZZLE_COMMENTS must be at least 1"))
	}
	if c.ItemLimit < 1 || c.ReplyLimit < 1 {
		errs = append(errs, errors.New("PUZZLE_ITEM_LIMIT and PUZZLE_REPLY_LIMIT must be at least 1"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	if c.RateLimit < 1 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
