package domain

import (
	"context"
	"time"
)

// DocumentStatus is the upload state of a tracked document.
type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusUploaded DocumentStatus = "uploaded"
	StatusFailed   DocumentStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusUploaded, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a record may move from one status to another.
// Only pending records change state, and only forward.
func CanTransition(from, to DocumentStatus) bool {
	return from == StatusPending && (to == StatusUploaded || to == StatusFailed)
}

// DocumentType describes a category of travel document (passport, visa, ...).
type DocumentType struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Name     string `json:"name" yaml:"name" validate:"required"`
	IsCustom bool   `json:"isCustom,omitempty" yaml:"isCustom,omitempty"`
}

// DocumentRecord is a user-tracked file reference with its upload status.
type DocumentRecord struct {
	ID     string         `json:"id" yaml:"id" validate:"required"`
	Type   DocumentType   `json:"type" yaml:"type" validate:"required"`
	Status DocumentStatus `json:"status" yaml:"status" validate:"required,oneof=pending uploaded failed"`

	UploadedAt *time.Time `json:"uploadedAt,omitempty" yaml:"uploadedAt,omitempty"`
	CustomName *string    `json:"customName,omitempty" yaml:"customName,omitempty"`
	URI        *string    `json:"uri,omitempty" yaml:"uri,omitempty"`
}

// Validate checks the record invariants: uri and uploadedAt are set
// exactly when the record is uploaded.
func (d *DocumentRecord) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Message: "document ID is required"}
	}
	if d.Type.ID == "" {
		return &ValidationError{Field: "type.id", Message: "document type is required"}
	}
	if !d.Status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown status " + string(d.Status)}
	}

	uploaded := d.Status == StatusUploaded
	if uploaded && (d.URI == nil || *d.URI == "") {
		return &ValidationError{Field: "uri", Message: "uri is required for uploaded documents"}
	}
	if uploaded && d.UploadedAt == nil {
		return &ValidationError{Field: "uploadedAt", Message: "upload time is required for uploaded documents"}
	}
	if !uploaded && d.URI != nil {
		return &ValidationError{Field: "uri", Message: "uri is only set on uploaded documents"}
	}
	if !uploaded && d.UploadedAt != nil {
		return &ValidationError{Field: "uploadedAt", Message: "upload time is only set on uploaded documents"}
	}
	return nil
}

// DisplayName returns the user label for custom types, otherwise the type name.
func (d *DocumentRecord) DisplayName() string {
	if d.Type.IsCustom && d.CustomName != nil && *d.CustomName != "" {
		return *d.CustomName
	}
	return d.Type.Name
}

// Clone returns a deep copy so callers never share pointers with the store.
func (d DocumentRecord) Clone() DocumentRecord {
	out := d
	if d.UploadedAt != nil {
		t := *d.UploadedAt
		out.UploadedAt = &t
	}
	if d.CustomName != nil {
		s := *d.CustomName
		out.CustomName = &s
	}
	if d.URI != nil {
		s := *d.URI
		out.URI = &s
	}
	return out
}

// PersistResult reports what a store mutation did and whether the
// collection reached durable storage.
type PersistResult struct {
	// Changed is false for a duplicate add or a delete of an unknown id.
	Changed   bool
	Persisted bool
	Err       error
}

// DocumentStore is the process-wide authority over the document collection.
type DocumentStore interface {
	AddDocument(ctx context.Context, record DocumentRecord) PersistResult
	DeleteDocument(ctx context.Context, id string) PersistResult
	Documents(ctx context.Context) []DocumentRecord
	Get(ctx context.Context, id string) (DocumentRecord, bool)
	MarkUploaded(ctx context.Context, id, uri string, at time.Time) (PersistResult, error)
	MarkFailed(ctx context.Context, id string) (PersistResult, error)
	Subscribe(listener func()) (unsubscribe func())
	LastPersistError() error
	// Ping reports whether the backing storage answers a read.
	Ping(ctx context.Context) error
}
