package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"travel-docs/internal/domain"

	"github.com/google/uuid"
)

// NewDocumentInput is what a client sends to register a document.
type NewDocumentInput struct {
	ID         string `json:"id,omitempty" validate:"omitempty,max=128"`
	TypeID     string `json:"type_id" validate:"required,max=64"`
	CustomName string `json:"custom_name,omitempty" validate:"max=120"`
}

// FileRemover deletes stored files by path.
type FileRemover interface {
	Delete(path string) error
}

// DocumentService is the use-case layer between transports and the store.
type DocumentService struct {
	store    domain.DocumentStore
	registry *domain.TypeRegistry
	files    FileRemover
	logger   domain.Logger
}

func NewDocumentService(
	store domain.DocumentStore,
	registry *domain.TypeRegistry,
	files FileRemover,
	logger domain.Logger,
) *DocumentService {
	return &DocumentService{
		store:    store,
		registry: registry,
		files:    files,
		logger:   logger,
	}
}

func (s *DocumentService) ListDocuments(ctx context.Context) []domain.DocumentRecord {
	return s.store.Documents(ctx)
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (domain.DocumentRecord, error) {
	doc, ok := s.store.Get(ctx, id)
	if !ok {
		return domain.DocumentRecord{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return doc, nil
}

func (s *DocumentService) DocumentTypes() []domain.DocumentType {
	return s.registry.All()
}

// Subscribe forwards to the store; see domain.DocumentStore.
func (s *DocumentService) Subscribe(fn func()) func() {
	return s.store.Subscribe(fn)
}

// LastPersistError reports the outcome of the most recent store write.
func (s *DocumentService) LastPersistError() error {
	return s.store.LastPersistError()
}

// CheckStorage reports whether the storage backend is reachable.
func (s *DocumentService) CheckStorage(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// NewCandidate builds a pending record for input, resolving the type
// against the registry.
func (s *DocumentService) NewCandidate(input NewDocumentInput) (domain.DocumentRecord, error) {
	typ, ok := s.registry.Lookup(strings.TrimSpace(input.TypeID))
	if !ok {
		return domain.DocumentRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownType, input.TypeID)
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.New().String()
	}

	doc := domain.DocumentRecord{ID: id, Type: typ, Status: domain.StatusPending}
	if name := strings.TrimSpace(input.CustomName); name != "" && typ.IsCustom {
		doc.CustomName = &name
	}
	return doc, nil
}

// CreateDocument registers a pending document. A duplicate id is not an
// error; the result reports Changed=false.
func (s *DocumentService) CreateDocument(ctx context.Context, input NewDocumentInput) (domain.DocumentRecord, domain.PersistResult, error) {
	doc, err := s.NewCandidate(input)
	if err != nil {
		return domain.DocumentRecord{}, domain.PersistResult{}, err
	}
	if err := doc.Validate(); err != nil {
		return domain.DocumentRecord{}, domain.PersistResult{}, err
	}

	result := s.store.AddDocument(ctx, doc)
	if stored, ok := s.store.Get(ctx, doc.ID); ok {
		doc = stored
	}
	return doc, result, nil
}

// DeleteDocument removes the record and, for uploaded documents, the file
// it points to. File removal failures are logged only.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) domain.PersistResult {
	doc, found := s.store.Get(ctx, id)
	result := s.store.DeleteDocument(ctx, id)

	if found && doc.URI != nil && s.files != nil {
		if path, ok := localPath(*doc.URI); ok {
			if err := s.files.Delete(path); err != nil {
				s.logger.Warn("Failed to remove document file", "document_id", id, "error", err)
			}
		}
	}
	return result
}

// MarkFailed records that a pending upload did not complete.
func (s *DocumentService) MarkFailed(ctx context.Context, id string) (domain.DocumentRecord, domain.PersistResult, error) {
	result, err := s.store.MarkFailed(ctx, id)
	if err != nil {
		return domain.DocumentRecord{}, result, err
	}
	doc, _ := s.store.Get(ctx, id)
	return doc, result, nil
}

func localPath(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return u.Path, true
}
