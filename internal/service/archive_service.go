package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"commentcascade/internal/models"
)

// ArchiveConfig configures the S3 puzzle archive
type ArchiveConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// objectPutter is the part of the S3 client the archive needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchiveService writes each day's puzzle to S3 as JSON
type ArchiveService struct {
	client  objectPutter
	bucket  string
	enabled bool
	logger  *slog.Logger
}

// NewArchiveService creates a new archive service. Without a bucket the
// service is disabled and Archive is a no-op.
func NewArchiveService(ctx context.Context, cfg ArchiveConfig, logger *slog.Logger) (*ArchiveService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Bucket == "" {
		logger.Info("Archive service disabled: ARCHIVE_BUCKET not configured")
		return &ArchiveService{logger: logger}, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("Archive service enabled", "bucket", cfg.Bucket, "region", cfg.Region)
	return newArchiveService(client, cfg.Bucket, logger), nil
}

func newArchiveService(client objectPutter, bucket string, logger *slog.Logger) *ArchiveService {
	return &ArchiveService{
		client:  client,
		bucket:  bucket,
		enabled: true,
		logger:  logger,
	}
}

// IsEnabled returns whether the archive service is enabled
func (s *ArchiveService) IsEnabled() bool {
	return s.enabled
}

// ArchiveKey returns the object key for a puzzle date (YYYY-MM-DD)
func ArchiveKey(date string) string {
	if len(date) < len("2006-01-02") {
		return "puzzles/" + date + ".json"
	}
	return fmt.Sprintf("puzzles/%s/%s/%s.json", date[0:4], date[5:7], date)
}

// Archive uploads the puzzle under its date
func (s *ArchiveService) Archive(ctx context.Context, puzzle *models.Puzzle) error {
	if !s.enabled {
		return nil
	}

	body, err := json.MarshalIndent(puzzle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode puzzle: %w", err)
	}

	key := ArchiveKey(puzzle.Date)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.Info("archived puzzle", "bucket", s.bucket, "key", key, "puzzle_id", puzzle.ID)
	return nil
}
