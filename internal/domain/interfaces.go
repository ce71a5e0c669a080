package domain

import (
	"context"
	"time"
)

// KeyValueStore is the persistence adapter behind the document store.
// It treats values as opaque blobs.
type KeyValueStore interface {
	// Get returns the blob stored under key; found is false when the key is absent.
	Get(ctx context.Context, key string) (blob []byte, found bool, err error)
	Set(ctx context.Context, key string, blob []byte) error
}

// PickOutcome is the result kind of a file selection.
type PickOutcome string

const (
	PickSelected  PickOutcome = "selected"
	PickCancelled PickOutcome = "cancelled"
)

// PickResult describes the file chosen by a FilePicker.
type PickResult struct {
	Outcome PickOutcome
	Name    string
	URI     string
}

// FilePicker selects a file for upload. A cancellation is a normal
// outcome, not an error.
type FilePicker interface {
	Pick(ctx context.Context) (PickResult, error)
}

// PickerFunc adapts a function to the FilePicker interface.
type PickerFunc func(ctx context.Context) (PickResult, error)

func (f PickerFunc) Pick(ctx context.Context) (PickResult, error) {
	return f(ctx)
}

// UploadResult is returned by the upload workflow instead of an error.
type UploadResult struct {
	Success  bool            `json:"success"`
	Document *DocumentRecord `json:"document,omitempty"`
	Persist  PersistResult   `json:"-"`
	Err      error           `json:"-"`
}

// UploadService orchestrates one document upload at a time.
type UploadService interface {
	UploadDocument(ctx context.Context, picker FilePicker, candidate DocumentRecord) UploadResult
	Busy() bool
	LastError() error
}

// Clock abstracts time for the upload workflow.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetUploadPath() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetLogFormat() string
	GetStorageBackend() string
	GetStorageKey() string
	GetDataDir() string
	GetDatabaseDSN() string
	GetRedisURL() string
	GetRedisAddr() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetDocumentTypesFile() string
	GetUploadDelay() time.Duration
	GetAPIToken() string
	GetAllowedOrigins() []string
}
