package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"travel-docs/internal/domain"

	"github.com/google/uuid"
)

// FileStore keeps uploaded document files on local disk.
type FileStore struct {
	dir     string
	maxSize int64
}

// SavedFile describes a file written by FileStore.
type SavedFile struct {
	Name     string
	Path     string
	Size     int64
	Checksum string
}

// URI returns the file:// location recorded on the document.
func (s SavedFile) URI() string {
	return "file://" + filepath.ToSlash(s.Path)
}

// NewFileStore creates the upload directory if needed. maxSize <= 0 means
// no limit.
func NewFileStore(dir string, maxSize int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	return &FileStore{dir: abs, maxSize: maxSize}, nil
}

// Save streams r to disk via a temp file, hashing on the way, and renames
// it into place. Files over the size limit are rejected with
// domain.ErrFileTooLarge.
func (fs *FileStore) Save(r io.Reader, originalName string) (*SavedFile, error) {
	name := storageName(originalName)
	fullPath := filepath.Join(fs.dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	src := r
	if fs.maxSize > 0 {
		src = io.LimitReader(r, fs.maxSize+1)
	}
	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(src, hasher))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if fs.maxSize > 0 && size > fs.maxSize {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, fs.maxSize)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to fsync file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to move file into place: %w", err)
	}

	return &SavedFile{
		Name:     originalName,
		Path:     fullPath,
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Delete removes a stored file. Missing files are not an error.
func (fs *FileStore) Delete(path string) error {
	if !strings.HasPrefix(filepath.Clean(path), fs.dir+string(filepath.Separator)) {
		return fmt.Errorf("path %s is outside the upload directory", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Dir returns the absolute upload directory
func (fs *FileStore) Dir() string {
	return fs.dir
}

// storageName builds {name}_{timestamp}_{shortuuid}{ext}.
func storageName(originalName string) string {
	base := filepath.Base(originalName)
	ext := filepath.Ext(base)
	name := sanitize(strings.TrimSuffix(base, ext))
	if name == "" {
		name = "document"
	}
	if len(name) > 50 {
		name = name[:50]
	}
	ts := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("%s_%s_%s%s", name, ts, uuid.New().String()[:8], sanitize(ext))
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
