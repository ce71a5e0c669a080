package domain

import "errors"

// Domain errors
var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidDocument    = errors.New("invalid document")
	ErrUploadInProgress   = errors.New("upload already in progress")
	ErrUploadCancelled    = errors.New("upload cancelled")
	ErrUnknownType        = errors.New("unknown document type")
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedBackend = errors.New("unsupported storage backend")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Unwrap lets callers match any validation failure with ErrInvalidDocument.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}
