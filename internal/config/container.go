package config

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"travel-docs/internal/domain"
	"travel-docs/internal/repository"
	"travel-docs/internal/service"
	"travel-docs/internal/store"
	"travel-docs/pkg/logger"
	"travel-docs/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Container holds all application dependencies
type Container struct {
	Config          domain.Config
	Logger          domain.Logger
	Registry        *domain.TypeRegistry
	KeyValueStore   domain.KeyValueStore
	DocumentStore   *store.Store
	FileStore       *repository.FileStore
	DocumentService *service.DocumentService
	UploadService   *service.UploadService
	Metrics         *metrics.StoreMetrics

	prometheus *prometheus.Registry
	closer     io.Closer
}

// ContainerOption adjusts how the container is built.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	logOutput io.Writer
}

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) ContainerOption {
	return func(o *containerOptions) { o.logOutput = w }
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *AppConfig, opts ...ContainerOption) (*Container, error) {
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	appLogger := logger.New(logger.Options{
		Level:  cfg.GetLogLevel(),
		Format: cfg.GetLogFormat(),
		Output: o.logOutput,
	})

	registry := domain.DefaultTypeRegistry()
	if path := cfg.GetDocumentTypesFile(); path != "" {
		loaded, err := domain.LoadTypeRegistry(path)
		if err != nil {
			return nil, err
		}
		registry = loaded
		appLogger.Info("Loaded document types", "path", path, "count", len(registry.All()))
	}

	kv, closer, err := repository.NewKeyValueStore(ctx, cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.GetStorageBackend(), err)
	}

	files, err := repository.NewFileStore(cfg.GetUploadPath(), cfg.GetMaxFileSize())
	if err != nil {
		closer.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStoreMetrics(reg)

	documents := store.New(kv, registry, appLogger,
		store.WithKey(cfg.GetStorageKey()),
		store.WithMetrics(storeMetrics),
	)

	appLogger.Info("Storage initialized",
		"backend", cfg.GetStorageBackend(),
		"key", cfg.GetStorageKey(),
		"upload_path", files.Dir(),
	)

	return &Container{
		Config:          cfg,
		Logger:          appLogger,
		Registry:        registry,
		KeyValueStore:   kv,
		DocumentStore:   documents,
		FileStore:       files,
		DocumentService: service.NewDocumentService(documents, registry, files, appLogger),
		UploadService:   service.NewUploadService(documents, appLogger, cfg.GetUploadDelay(), storeMetrics).WithFileRemover(files),
		Metrics:         storeMetrics,
		prometheus:      reg,
		closer:          closer,
	}, nil
}

// MetricsHandler serves the container's prometheus registry.
func (c *Container) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.prometheus, promhttp.HandlerOpts{})
}

// Close releases the storage backend.
func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}
