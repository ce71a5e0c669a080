package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"travel-docs/internal/domain"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewKeyValueStore builds the persistence adapter selected by
// STORAGE_BACKEND. The returned closer releases connections.
func NewKeyValueStore(ctx context.Context, cfg domain.Config, logger domain.Logger) (domain.KeyValueStore, io.Closer, error) {
	switch cfg.GetStorageBackend() {
	case "memory":
		logger.Warn("Using in-memory storage, documents are lost on restart")
		return NewMemoryKV(), nopCloser{}, nil

	case "file", "":
		kv, err := NewFileKV(cfg.GetDataDir())
		if err != nil {
			return nil, nil, err
		}
		return kv, nopCloser{}, nil

	case "redis":
		kv, err := NewRedisKV(ctx, cfg.GetRedisURL(), cfg.GetRedisAddr(), logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil

	case "sqlite":
		dsn := cfg.GetDatabaseDSN()
		if dsn == "" {
			if err := os.MkdirAll(cfg.GetDataDir(), 0o750); err != nil {
				return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
			}
			dsn = filepath.Join(cfg.GetDataDir(), "travel-docs.db")
		}
		kv, err := OpenSQLiteKV(dsn, logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil

	case "postgres":
		kv, err := OpenPostgresKV(cfg.GetDatabaseDSN(), logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil

	case "supabase":
		client := NewSupabaseClient(cfg, logger)
		if err := client.Initialize(); err != nil {
			return nil, nil, err
		}
		return NewSupabaseKV(client, logger), nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedBackend, cfg.GetStorageBackend())
	}
}
