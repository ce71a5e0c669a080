package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"travel-docs/internal/domain"
)

const supabaseKVTable = "kv_store"

// SupabaseKV keeps blobs in a `kv_store(key text primary key, value text,
// updated_at timestamptz)` table through PostgREST.
type SupabaseKV struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseKV creates a key-value adapter on an initialized client
func NewSupabaseKV(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseKV {
	return &SupabaseKV{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

type supabaseKVRow struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Get loads the value for key. PostgREST calls are not context aware;
// ctx is only checked before the request.
func (r *SupabaseKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, false, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(supabaseKVTable).
		Select("key,value", "", false).
		Eq("key", key).
		Execute()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var rows []supabaseKVRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return []byte(rows[0].Value), true, nil
}

func (r *SupabaseKV) Set(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	row := supabaseKVRow{
		Key:       key,
		Value:     string(blob),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Use upsert to insert or update
	if _, _, err := client.From(supabaseKVTable).
		Upsert(row, "key", "", "").
		Execute(); err != nil {
		return fmt.Errorf("failed to save key %s: %w", key, err)
	}

	r.logger.Debug("Supabase key saved", "key", key, "bytes", len(blob))
	return nil
}
