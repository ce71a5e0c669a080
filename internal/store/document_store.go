// Package store holds the in-memory document collection, keeps it in
// sync with a key-value backend and notifies subscribers of changes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"travel-docs/internal/domain"
	"travel-docs/pkg/metrics"
)

// DefaultKey is the storage key holding the serialized collection.
const DefaultKey = "travel_documents"

// Option customizes a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithMetrics attaches prometheus recorders.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

type listener struct {
	fn func()
}

// Store implements domain.DocumentStore. Mutations are serialized and
// the in-memory collection is the source of truth for the process;
// durable writes are best effort and reported through PersistResult.
type Store struct {
	kv       domain.KeyValueStore
	registry *domain.TypeRegistry
	logger   domain.Logger
	metrics  *metrics.StoreMetrics
	key      string

	// opMu serializes hydration, mutations and the write that follows them.
	opMu sync.Mutex

	mu      sync.RWMutex
	docs    []domain.DocumentRecord
	loaded  bool
	lastErr error

	lmu       sync.Mutex
	listeners []*listener
}

var _ domain.DocumentStore = (*Store)(nil)

// New creates a store over kv. Nothing is read until the first access.
func New(kv domain.KeyValueStore, registry *domain.TypeRegistry, logger domain.Logger, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		registry: registry,
		logger:   logger,
		key:      DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Documents returns a copy of the collection, hydrating it from storage
// on first use.
func (s *Store) Documents(ctx context.Context) []domain.DocumentRecord {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DocumentRecord, len(s.docs))
	for i, d := range s.docs {
		out[i] = d.Clone()
	}
	return out
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (domain.DocumentRecord, bool) {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.docs[i].Clone(), true
	}
	return domain.DocumentRecord{}, false
}

// AddDocument appends record unless its id is already present. The
// collection is persisted and subscribers notified in both cases.
func (s *Store) AddDocument(ctx context.Context, record domain.DocumentRecord) domain.PersistResult {
	s.opMu.Lock()
	s.loadLocked(ctx)

	s.mu.Lock()
	changed := s.indexOf(record.ID) < 0
	if changed {
		s.docs = append(s.docs, record.Clone())
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.metrics.IncMutation("add")
		s.logger.Debug("Document added", "document_id", record.ID, "status", record.Status)
	} else {
		s.logger.Debug("Duplicate document ignored", "document_id", record.ID)
	}

	result := s.persist(ctx, snapshot)
	result.Changed = changed
	s.opMu.Unlock()

	s.notify()
	return result
}

// DeleteDocument removes the record with id. Deleting an unknown id still
// persists and notifies.
func (s *Store) DeleteDocument(ctx context.Context, id string) domain.PersistResult {
	s.opMu.Lock()
	s.loadLocked(ctx)

	s.mu.Lock()
	i := s.indexOf(id)
	changed := i >= 0
	if changed {
		s.docs = append(s.docs[:i], s.docs[i+1:]...)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.metrics.IncMutation("delete")
		s.logger.Debug("Document deleted", "document_id", id)
	}

	result := s.persist(ctx, snapshot)
	result.Changed = changed
	s.opMu.Unlock()

	s.notify()
	return result
}

// MarkUploaded moves a pending record to uploaded.
func (s *Store) MarkUploaded(ctx context.Context, id, uri string, at time.Time) (domain.PersistResult, error) {
	if uri == "" {
		return domain.PersistResult{}, &domain.ValidationError{Field: "uri", Message: "uri is required for uploaded documents"}
	}
	return s.transition(ctx, id, domain.StatusUploaded, func(d *domain.DocumentRecord) {
		t := at.UTC()
		d.UploadedAt = &t
		d.URI = &uri
	})
}

// MarkFailed moves a pending record to failed.
func (s *Store) MarkFailed(ctx context.Context, id string) (domain.PersistResult, error) {
	return s.transition(ctx, id, domain.StatusFailed, nil)
}

func (s *Store) transition(ctx context.Context, id string, to domain.DocumentStatus, apply func(*domain.DocumentRecord)) (domain.PersistResult, error) {
	s.opMu.Lock()
	s.loadLocked(ctx)

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.opMu.Unlock()
		return domain.PersistResult{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	from := s.docs[i].Status
	if !domain.CanTransition(from, to) {
		s.mu.Unlock()
		s.opMu.Unlock()
		return domain.PersistResult{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	s.docs[i].Status = to
	if apply != nil {
		apply(&s.docs[i])
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.IncMutation(string(to))
	s.logger.Debug("Document status changed", "document_id", id, "from", from, "to", to)

	result := s.persist(ctx, snapshot)
	result.Changed = true
	s.opMu.Unlock()

	s.notify()
	return result, nil
}

// Subscribe registers listener for every future mutation. The returned
// function removes exactly this registration and may be called any
// number of times.
func (s *Store) Subscribe(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	l := &listener{fn: fn}

	s.lmu.Lock()
	s.listeners = append(s.listeners, l)
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		for i, cur := range s.listeners {
			if cur == l {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// LastPersistError returns the error of the most recent write, or nil if
// it succeeded.
func (s *Store) LastPersistError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// notify runs listeners in subscription order outside of the store locks,
// so a listener may read the store.
func (s *Store) notify() {
	s.lmu.Lock()
	current := make([]*listener, len(s.listeners))
	copy(current, s.listeners)
	s.lmu.Unlock()

	for _, l := range current {
		s.call(l)
	}
}

func (s *Store) call(l *listener) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Document listener panicked", fmt.Errorf("%v", r))
		}
	}()
	l.fn()
}

// Ping reads the collection key without touching the in-memory state.
func (s *Store) Ping(ctx context.Context) error {
	_, _, err := s.kv.Get(ctx, s.key)
	return err
}

func (s *Store) persist(ctx context.Context, snapshot []domain.DocumentRecord) domain.PersistResult {
	blob, err := json.Marshal(snapshot)
	if err == nil {
		// The write outlives the caller so a dropped request cannot lose a change.
		err = s.kv.Set(context.WithoutCancel(ctx), s.key, blob)
	}

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.metrics.SetDocuments(len(snapshot))

	if err != nil {
		s.metrics.IncPersistFailure()
		s.logger.Error("Failed to persist documents", err, "key", s.key, "count", len(snapshot))
		return domain.PersistResult{Persisted: false, Err: err}
	}
	return domain.PersistResult{Persisted: true}
}

func (s *Store) ensureLoaded(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}

	s.opMu.Lock()
	s.loadLocked(ctx)
	s.opMu.Unlock()
}

// loadLocked hydrates the collection once. Callers hold opMu. A parse
// failure latches an empty collection; a read failure leaves it empty for
// this call only and the next access retries.
func (s *Store) loadLocked(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}

	docs, ok := s.readStored(ctx)

	s.mu.Lock()
	s.docs = docs
	s.loaded = ok
	s.mu.Unlock()
	s.metrics.SetDocuments(len(docs))
}

func (s *Store) readStored(ctx context.Context) ([]domain.DocumentRecord, bool) {
	blob, found, err := s.kv.Get(context.WithoutCancel(ctx), s.key)
	if err != nil {
		s.logger.Error("Failed to load stored documents", err, "key", s.key)
		return nil, false
	}
	if !found || len(blob) == 0 {
		return nil, true
	}

	var stored []domain.DocumentRecord
	if err := json.Unmarshal(blob, &stored); err != nil {
		s.logger.Error("Stored documents are malformed, starting empty", err, "key", s.key)
		return nil, true
	}

	docs := make([]domain.DocumentRecord, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, d := range stored {
		if _, dup := seen[d.ID]; dup {
			s.logger.Warn("Dropping stored document with duplicate id", "document_id", d.ID)
			continue
		}
		seen[d.ID] = struct{}{}
		docs = append(docs, domain.Reconcile(d, s.registry))
	}
	s.logger.Info("Documents loaded from storage", "key", s.key, "count", len(docs))
	return docs, true
}

func (s *Store) indexOf(id string) int {
	for i := range s.docs {
		if s.docs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []domain.DocumentRecord {
	out := make([]domain.DocumentRecord, len(s.docs))
	for i, d := range s.docs {
		out[i] = d.Clone()
	}
	return out
}
