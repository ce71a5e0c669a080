package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-docs/internal/domain"
	"travel-docs/internal/repository"
)

func newFileStore(t *testing.T, maxSize int64) *repository.FileStore {
	t.Helper()
	fs, err := repository.NewFileStore(t.TempDir(), maxSize)
	require.NoError(t, err)
	return fs
}

func TestStreamPicker_Selected(t *testing.T) {
	fs := newFileStore(t, 0)
	picker := NewStreamPicker(fs, func(context.Context) (io.ReadCloser, string, error) {
		return io.NopCloser(strings.NewReader("boarding pass")), "ticket.pdf", nil
	})

	result, err := picker.Pick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.PickSelected, result.Outcome)
	assert.Equal(t, "ticket.pdf", result.Name)
	require.True(t, strings.HasPrefix(result.URI, "file://"))

	path, ok := localPath(result.URI)
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "boarding pass", string(data))
}

func TestStreamPicker_Cancelled(t *testing.T) {
	picker := NewStreamPicker(newFileStore(t, 0), func(context.Context) (io.ReadCloser, string, error) {
		return nil, "", nil
	})

	result, err := picker.Pick(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.PickCancelled, result.Outcome)
	assert.Empty(t, result.URI)
}

func TestStreamPicker_OpenError(t *testing.T) {
	openErr := errors.New("device busy")
	picker := NewStreamPicker(newFileStore(t, 0), func(context.Context) (io.ReadCloser, string, error) {
		return nil, "", openErr
	})

	_, err := picker.Pick(context.Background())

	assert.ErrorIs(t, err, openErr)
}

func TestStreamPicker_TooLarge(t *testing.T) {
	picker := NewStreamPicker(newFileStore(t, 4), func(context.Context) (io.ReadCloser, string, error) {
		return io.NopCloser(strings.NewReader("way too long")), "big.pdf", nil
	})

	_, err := picker.Pick(context.Background())

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestPathPicker(t *testing.T) {
	src := filepath.Join(t.TempDir(), "visa scan.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o600))
	fs := newFileStore(t, 0)

	t.Run("Existing file", func(t *testing.T) {
		result, err := NewPathPicker(fs, src).Pick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.PickSelected, result.Outcome)
		assert.Equal(t, "visa scan.png", result.Name)
	})

	t.Run("Empty path cancels", func(t *testing.T) {
		result, err := NewPathPicker(fs, "").Pick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.PickCancelled, result.Outcome)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := NewPathPicker(fs, filepath.Join(t.TempDir(), "nope.pdf")).Pick(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
