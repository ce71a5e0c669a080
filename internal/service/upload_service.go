package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"travel-docs/internal/domain"
	"travel-docs/pkg/metrics"

	"github.com/google/uuid"
)

// UploadService runs the pick -> transfer -> store workflow for a single
// document at a time.
type UploadService struct {
	store   domain.DocumentStore
	logger  domain.Logger
	clock   domain.Clock
	delay   time.Duration
	metrics *metrics.StoreMetrics
	files   FileRemover

	busy atomic.Bool

	mu      sync.Mutex
	lastErr error
}

var _ domain.UploadService = (*UploadService)(nil)

// NewUploadService creates the workflow. delay simulates transfer latency.
func NewUploadService(
	store domain.DocumentStore,
	logger domain.Logger,
	delay time.Duration,
	m *metrics.StoreMetrics,
) *UploadService {
	return &UploadService{
		store:   store,
		logger:  logger,
		clock:   SystemClock{},
		delay:   delay,
		metrics: m,
	}
}

// WithClock replaces the clock, mainly for tests.
func (s *UploadService) WithClock(c domain.Clock) *UploadService {
	s.clock = c
	return s
}

// WithFileRemover lets the service delete a picked file when the upload
// does not end in a stored record.
func (s *UploadService) WithFileRemover(files FileRemover) *UploadService {
	s.files = files
	return s
}

// Busy reports whether an upload is in flight.
func (s *UploadService) Busy() bool {
	return s.busy.Load()
}

// LastError returns the error captured by the most recent attempt.
func (s *UploadService) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *UploadService) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// UploadDocument picks a file for candidate, waits out the simulated
// transfer and records the uploaded document in the store. It never
// returns an error value; failures are reported in the result.
func (s *UploadService) UploadDocument(ctx context.Context, picker domain.FilePicker, candidate domain.DocumentRecord) domain.UploadResult {
	if candidate.ID == "" {
		candidate.ID = uuid.New().String()
	}
	if candidate.Status == "" {
		candidate.Status = domain.StatusPending
	}
	if err := candidate.Validate(); err != nil {
		return s.fail(candidate.ID, "invalid", err)
	}
	if candidate.Status != domain.StatusPending {
		return s.fail(candidate.ID, "invalid", fmt.Errorf("%w: candidate is %s", domain.ErrInvalidTransition, candidate.Status))
	}

	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.IncUpload("busy")
		s.logger.Warn("Upload rejected, another upload is in flight", "document_id", candidate.ID)
		return domain.UploadResult{Err: domain.ErrUploadInProgress}
	}
	defer s.busy.Store(false)
	s.setLastError(nil)

	picked, err := s.pick(ctx, picker)
	if err != nil {
		return s.fail(candidate.ID, "failed", err)
	}
	if picked.Outcome != domain.PickSelected {
		s.metrics.IncUpload("cancelled")
		s.logger.Info("Upload cancelled", "document_id", candidate.ID)
		return domain.UploadResult{Err: domain.ErrUploadCancelled}
	}
	if picked.URI == "" {
		return s.fail(candidate.ID, "failed", errors.New("picker returned no file location"))
	}

	select {
	case <-ctx.Done():
		s.discard(candidate.ID, picked.URI)
		return s.fail(candidate.ID, "failed", ctx.Err())
	case <-s.clock.After(s.delay):
	}

	now := s.clock.Now().UTC()
	final := candidate.Clone()
	final.Status = domain.StatusUploaded
	final.UploadedAt = &now
	final.URI = &picked.URI
	final.CustomName = nil
	if candidate.Type.IsCustom {
		name := picked.Name
		if candidate.CustomName != nil && *candidate.CustomName != "" {
			name = *candidate.CustomName
		}
		final.CustomName = &name
	}

	persist, err := s.record(ctx, final)
	if err != nil {
		s.discard(candidate.ID, picked.URI)
		return s.fail(candidate.ID, "failed", err)
	}

	stored, ok := s.store.Get(ctx, final.ID)
	if !ok {
		stored = final
	}
	s.metrics.IncUpload("uploaded")
	s.logger.Info("Document uploaded",
		"document_id", final.ID,
		"type", final.Type.ID,
		"uri", picked.URI,
		"persisted", persist.Persisted,
	)
	return domain.UploadResult{Success: true, Document: &stored, Persist: persist}
}

// record adds the finalized document, or completes a pending record that
// is already in the store under the same id.
func (s *UploadService) record(ctx context.Context, final domain.DocumentRecord) (domain.PersistResult, error) {
	existing, ok := s.store.Get(ctx, final.ID)
	if !ok {
		result := s.store.AddDocument(ctx, final)
		if result.Changed {
			return result, nil
		}
		// Another writer added the id between Get and AddDocument.
		if existing, ok = s.store.Get(ctx, final.ID); !ok {
			return result, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, final.ID)
		}
	}
	if existing.Status != domain.StatusPending {
		return domain.PersistResult{}, fmt.Errorf("%w: document %s is already %s", domain.ErrInvalidTransition, final.ID, existing.Status)
	}
	return s.store.MarkUploaded(ctx, final.ID, *final.URI, *final.UploadedAt)
}

// discard removes a picked file that no record will point at.
func (s *UploadService) discard(id, uri string) {
	if s.files == nil {
		return
	}
	path, ok := localPath(uri)
	if !ok {
		return
	}
	if err := s.files.Delete(path); err != nil {
		s.logger.Warn("Failed to remove abandoned upload", "document_id", id, "path", path, "error", err.Error())
	}
}

// pick calls the picker, turning a panic into an error.
func (s *UploadService) pick(ctx context.Context, picker domain.FilePicker) (result domain.PickResult, err error) {
	if picker == nil {
		return domain.PickResult{}, errors.New("no file picker configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("file picker panicked: %v", r)
		}
	}()
	return picker.Pick(ctx)
}

func (s *UploadService) fail(id, outcome string, err error) domain.UploadResult {
	s.setLastError(err)
	s.metrics.IncUpload(outcome)
	s.logger.Error("Upload failed", err, "document_id", id)
	return domain.UploadResult{Err: err}
}
