package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"travel-docs/internal/domain"
	"travel-docs/internal/repository"
)

// FileSaver stores the bytes of a picked file.
type FileSaver interface {
	Save(r io.Reader, originalName string) (*repository.SavedFile, error)
}

// OpenFunc opens the file chosen by the user. Returning a nil reader with
// a nil error means the user did not choose anything.
type OpenFunc func(ctx context.Context) (rc io.ReadCloser, name string, err error)

// NewStreamPicker picks whatever open yields and saves it through saver.
func NewStreamPicker(saver FileSaver, open OpenFunc) domain.FilePicker {
	return domain.PickerFunc(func(ctx context.Context) (domain.PickResult, error) {
		rc, name, err := open(ctx)
		if err != nil {
			return domain.PickResult{}, err
		}
		if rc == nil {
			return domain.PickResult{Outcome: domain.PickCancelled}, nil
		}
		defer rc.Close()

		saved, err := saver.Save(rc, name)
		if err != nil {
			return domain.PickResult{}, fmt.Errorf("failed to store picked file: %w", err)
		}
		return domain.PickResult{
			Outcome: domain.PickSelected,
			Name:    saved.Name,
			URI:     saved.URI(),
		}, nil
	})
}

// NewPathPicker picks a local file by path. An empty path is a cancellation.
func NewPathPicker(saver FileSaver, path string) domain.FilePicker {
	return NewStreamPicker(saver, func(ctx context.Context) (io.ReadCloser, string, error) {
		if path == "" {
			return nil, "", nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
		}
		return f, filepath.Base(path), nil
	})
}
