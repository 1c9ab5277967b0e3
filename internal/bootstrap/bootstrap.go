// Package bootstrap turns a loaded Config into the concrete storage backend, model client
// and services. Both binaries go through it so they see the same wiring.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bryanwahyu/rfp-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/rfp-analyzer/internal/application/analysis"
	appfiles "github.com/bryanwahyu/rfp-analyzer/internal/application/files"
	"github.com/bryanwahyu/rfp-analyzer/internal/config"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/ai/gemini"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/ai/heuristic"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/extract"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/rfp-analyzer/internal/middleware"
)

// App holds everything built from config. Close releases the model client.
type App struct {
	Store    *storage.Store
	Analysis *appanalysis.Service
	Files    *appfiles.Service
	Provider string

	closers []io.Closer
}

func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build validates cfg and wires the app. Nothing is reachable over the network yet except
// the optional MinIO bucket creation.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	bucket, err := OpenBucket(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := storage.NewStore(bucket, storage.Options{
		Prefix:   cfg.Storage.Prefix,
		BasePath: cfg.Server.BasePath,
		Logger:   logger.With("component", "storage"),
	})

	app := &App{Store: store, Provider: cfg.AI.Provider}

	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := client.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}

	extractor := extract.New()
	extractor.MaxEntryBytes = extract.EntryLimitFor(cfg.Analysis.MaxTextChars)

	app.Analysis = &appanalysis.Service{
		Store:        store,
		Extractor:    extractor,
		Client:       middleware.InstrumentClient(client),
		Clock:        application.SystemClock{},
		Logger:       logger.With("component", "analysis"),
		MaxTextChars: cfg.Analysis.MaxTextChars,
		Strict:       cfg.Analysis.StrictValidation,
	}
	app.Files = &appfiles.Service{Store: store}
	return app, nil
}

// OpenBucket builds the storage backend named by storage.backend.
func OpenBucket(ctx context.Context, cfg *config.Config) (storage.Bucket, error) {
	s := cfg.Storage
	switch s.Backend {
	case "minio":
		b, err := storage.NewMinio(ctx, storage.MinioOptions{
			Endpoint:     s.Minio.Endpoint,
			Region:       s.Minio.Region,
			Bucket:       s.Minio.BucketName,
			AccessKey:    s.Minio.AccessKey,
			SecretKey:    s.Minio.SecretKey,
			UseSSL:       s.Minio.UseSSL,
			CreateBucket: s.Minio.CreateBucket,
		})
		if err != nil {
			return nil, fmt.Errorf("minio init: %w", err)
		}
		return b, nil
	case "s3":
		b, err := storage.NewS3(ctx, storage.S3Options{
			Bucket:    s.S3.Bucket,
			Region:    s.S3.Region,
			Endpoint:  s.S3.Endpoint,
			AccessKey: s.S3.AccessKey,
			SecretKey: s.S3.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init: %w", err)
		}
		return b, nil
	case "filesystem":
		return storage.NewFilesystem(s.Filesystem.Dir)
	case "memory":
		return storage.NewMemory("memory"), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
}

// NewClient builds the model client named by ai.provider.
func NewClient(ctx context.Context, cfg *config.Config) (ai.Client, error) {
	switch cfg.AI.Provider {
	case "gemini":
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   int32(cfg.AI.MaxTokens),
		})
	case "openai":
		c := openai.NewClient(cfg.AI.APIKey, cfg.AI.Model)
		c.MaxTokens = cfg.AI.MaxTokens
		c.Temperature = cfg.AI.Temperature
		return c, nil
	case "heuristic":
		return heuristic.New(), nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
}
