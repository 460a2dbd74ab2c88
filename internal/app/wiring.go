package app

import (
	"context"
	"fmt"

	"gallery-service/internal/config"
	"gallery-service/internal/gateway"
	"gallery-service/internal/http"
	"gallery-service/internal/storage"
	"gallery-service/internal/storage/local"
	"gallery-service/internal/storage/minio"
	"gallery-service/internal/storage/s3"
	"gallery-service/pkg/metrics"
	"gallery-service/pkg/tracing"

	"github.com/spf13/afero"
)

// InitializeService wires up all dependencies from cfg and returns a
// configured Service. The storage provider is built once here and shared by
// every request.
func InitializeService(ctx context.Context, cfg *config.Config) (*Service, error) {
	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Protocol:    cfg.Tracing.Protocol,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	provider, publicFS, err := NewProvider(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage provider: %w", err)
	}

	m := metrics.New()
	svc := gateway.NewService(provider, gateway.Options{
		DefaultBucket: cfg.App.DefaultBucket,
		ListLimit:     cfg.App.ListLimit,
		Timeout:       cfg.Storage.RequestTimeout,
	}, m)

	server := http.NewServer(&http.ServerDependencies{
		Config:   cfg,
		Gateway:  svc,
		Metrics:  m,
		PublicFS: publicFS,
	})

	return &Service{
		config:          cfg,
		gateway:         svc,
		server:          server,
		shutdownTracing: shutdownTracing,
	}, nil
}

// NewProvider builds the configured storage backend. The returned filesystem
// is non-nil only for the local backend, whose files the server publishes.
func NewProvider(cfg *config.StorageConfig) (storage.Provider, afero.Fs, error) {
	switch cfg.Provider {
	case config.ProviderS3:
		p, err := s3.NewClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	case config.ProviderMinIO:
		p, err := minio.NewClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	case config.ProviderLocal:
		p, err := local.NewProvider(cfg.LocalRoot, cfg.PublicURL)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Fs(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}
