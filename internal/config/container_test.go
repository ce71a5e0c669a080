package config

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"travel-docs/internal/domain"
)

func testConfig(t *testing.T, backend string) *AppConfig {
	t.Helper()
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", backend)
	t.Setenv("DATA_DIR", filepath.Join(t.TempDir(), "data"))
	t.Setenv("UPLOAD_PATH", filepath.Join(t.TempDir(), "uploads"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestNewContainer_Wiring(t *testing.T) {
	for _, backend := range []string{"memory", "file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			c, err := NewContainer(context.Background(), cfg, WithLogOutput(io.Discard))
			if err != nil {
				t.Fatalf("NewContainer() error = %v", err)
			}
			defer c.Close()

			ctx := context.Background()
			typ, _ := c.Registry.Lookup("1")
			result := c.DocumentStore.AddDocument(ctx, domain.DocumentRecord{ID: "a", Type: typ, Status: domain.StatusPending})
			if !result.Persisted {
				t.Fatalf("expected write to %s backend to succeed: %v", backend, result.Err)
			}

			blob, found, err := c.KeyValueStore.Get(ctx, cfg.GetStorageKey())
			if err != nil || !found {
				t.Fatalf("expected stored collection, found=%v err=%v", found, err)
			}
			if !strings.Contains(string(blob), `"id":"a"`) {
				t.Fatalf("unexpected stored blob %s", blob)
			}
		})
	}
}

func TestNewContainer_MetricsHandler(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t, "memory"), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	c.DocumentStore.DeleteDocument(context.Background(), "ghost")

	rr := httptest.NewRecorder()
	c.MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "document_store_documents") {
		t.Fatalf("expected store gauge in metrics output")
	}
}

func TestNewContainer_DocumentTypesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	if err := os.WriteFile(path, []byte("- id: p\n  name: Pilgrim Pass\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg := testConfig(t, "memory")
	cfg.DocumentTypesFile = path

	c, err := NewContainer(context.Background(), cfg, WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if typ, ok := c.Registry.Lookup("p"); !ok || typ.Name != "Pilgrim Pass" {
		t.Fatalf("expected custom registry, got %+v", c.Registry.All())
	}
}

func TestNewContainer_MissingTypesFile(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.DocumentTypesFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := NewContainer(context.Background(), cfg, WithLogOutput(io.Discard)); err == nil {
		t.Fatalf("expected error for missing types file")
	}
}
