package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-docs/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Error(string, error, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})         {}

// runKVContract checks the behaviour every persistence adapter shares.
func runKVContract(t *testing.T, kv domain.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "travel_documents")
	require.NoError(t, err)
	assert.False(t, found, "fresh store should not contain the key")

	require.NoError(t, kv.Set(ctx, "travel_documents", []byte(`[{"id":"a"}]`)))
	blob, found, err := kv.Get(ctx, "travel_documents")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"a"}]`, string(blob))

	// Set replaces the whole blob
	require.NoError(t, kv.Set(ctx, "travel_documents", []byte(`[]`)))
	blob, _, err = kv.Get(ctx, "travel_documents")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(blob))

	// Keys are independent
	_, found, err = kv.Get(ctx, "other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryKV(t *testing.T) {
	runKVContract(t, NewMemoryKV())
}

func TestMemoryKV_CopiesBlobs(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	blob := []byte("abc")
	require.NoError(t, kv.Set(ctx, "k", blob))
	blob[0] = 'z'

	got, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryKV_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemoryKV().Set(ctx, "k", nil), context.Canceled)
}

func TestFileKV(t *testing.T) {
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	runKVContract(t, kv)
}

func TestFileKV_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "travel/docs", []byte(`["x"]`)))

	second, err := NewFileKV(dir)
	require.NoError(t, err)
	blob, found, err := second.Get(ctx, "travel/docs")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `["x"]`, string(blob))

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGormKV_SQLite(t *testing.T) {
	kv, err := OpenSQLiteKV(filepath.Join(t.TempDir(), "kv.db"), nopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	runKVContract(t, kv)
}

func TestRedisKV(t *testing.T) {
	mock := newMockCmdable()
	kv := &RedisKV{store: mock, logger: nopLogger{}}

	runKVContract(t, kv)

	_, namespaced := mock.data["traveldocs:travel_documents"]
	assert.True(t, namespaced, "keys should be namespaced")
}

func TestRedisKV_Errors(t *testing.T) {
	mock := newMockCmdable()
	mock.err = errors.New("connection refused")
	kv := &RedisKV{store: mock, logger: nopLogger{}}

	_, _, err := kv.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, kv.Set(context.Background(), "k", []byte("v")))

	uninit := &RedisKV{}
	_, _, err = uninit.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewRedisKV_RequiresAddress(t *testing.T) {
	_, err := NewRedisKV(context.Background(), "", "", nopLogger{})
	assert.Error(t, err)

	_, err = NewRedisKV(context.Background(), "://bad", "", nopLogger{})
	assert.Error(t, err)
}

type mockCmdable struct {
	data map[string]string
	err  error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", m.err)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}
