// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"travel-docs/internal/domain"
	"travel-docs/internal/service"
	apperrors "travel-docs/pkg/errors"

	"github.com/gorilla/mux"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
	keepAliveInterval = 25 * time.Second
)

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	documents     *service.DocumentService
	uploads       domain.UploadService
	files         service.FileSaver
	maxUploadSize int64
	logger        domain.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	documents *service.DocumentService,
	uploads domain.UploadService,
	files service.FileSaver,
	maxUploadSize int64,
	logger domain.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documents:     documents,
		uploads:       uploads,
		files:         files,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Ready answers 503 while the storage backend cannot be read.
func (h *DocumentHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.documents.CheckStorage(r.Context()); err != nil {
		writeAppError(w, h.logger, apperrors.NewStorageError("Storage unavailable", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ListDocuments returns the whole collection in insertion order.
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.documents.ListDocuments(r.Context()))
}

// GetDocument returns one record by id.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.GetDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DocumentTypes lists the known document categories.
func (h *DocumentHandler) DocumentTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.documents.DocumentTypes())
}

// CreateDocument registers a pending document. Re-posting an existing id
// answers 200 with changed=false instead of 201.
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var input service.NewDocumentInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateStruct(input); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	doc, result, err := h.documents.CreateDocument(r.Context(), input)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	status := http.StatusCreated
	if !result.Changed {
		status = http.StatusOK
	}
	writeJSON(w, status, newMutationResponse(&doc, result))
}

// DeleteDocument removes a record. Unknown ids are not an error.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result := h.documents.DeleteDocument(r.Context(), id)

	resp := newMutationResponse(nil, result)
	resp.ID = id
	writeJSON(w, http.StatusOK, resp)
}

// MarkFailed flags a pending record whose upload was abandoned.
func (h *DocumentHandler) MarkFailed(w http.ResponseWriter, r *http.Request) {
	doc, result, err := h.documents.MarkFailed(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newMutationResponse(&doc, result))
}

// UploadDocument runs the upload workflow on a multipart request with
// fields type_id, id, custom_name and file. A request without a file part
// is treated like a cancelled pick.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAppError(w, h.logger, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, h.maxUploadSize))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	input := service.NewDocumentInput{
		ID:         r.FormValue("id"),
		TypeID:     r.FormValue("type_id"),
		CustomName: r.FormValue("custom_name"),
	}
	if err := validateStruct(input); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	candidate, err := h.documents.NewCandidate(input)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	picker := service.NewStreamPicker(h.files, func(context.Context) (io.ReadCloser, string, error) {
		return formFile(r, "file")
	})

	result := h.uploads.UploadDocument(r.Context(), picker, candidate)
	switch {
	case result.Success:
		writeJSON(w, http.StatusCreated, newMutationResponse(result.Document, result.Persist))
	case errors.Is(result.Err, domain.ErrUploadCancelled):
		writeError(w, http.StatusBadRequest, "File is required")
	default:
		writeAppError(w, h.logger, result.Err)
	}
}

// formFile opens a multipart file part. A missing part yields a nil reader.
func formFile(r *http.Request, field string) (io.ReadCloser, string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return file, fileName(header), nil
}

func fileName(header *multipart.FileHeader) string {
	if header == nil || header.Filename == "" {
		return "document"
	}
	return header.Filename
}

// documentsEvent is the payload of one server-sent event.
type documentsEvent struct {
	Documents    []domain.DocumentRecord `json:"documents"`
	PersistError string                  `json:"persist_error,omitempty"`
}

// Events streams the collection as server-sent events: one snapshot on
// connect and one after every store notification.
func (h *DocumentHandler) Events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	changes := make(chan struct{}, 1)
	unsubscribe := h.documents.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ctx := r.Context()
	h.logger.Debug("Event stream opened", "remote_addr", r.RemoteAddr)

	seq := 0
	send := func() bool {
		seq++
		if err := h.writeSnapshot(ctx, w, seq); err != nil {
			return false
		}
		return rc.Flush() == nil
	}
	if !send() {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("Event stream closed", "remote_addr", r.RemoteAddr)
			return
		case <-changes:
			if !send() {
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			if rc.Flush() != nil {
				return
			}
		}
	}
}

func (h *DocumentHandler) writeSnapshot(ctx context.Context, w io.Writer, seq int) error {
	event := documentsEvent{Documents: h.documents.ListDocuments(ctx)}
	if err := h.documents.LastPersistError(); err != nil {
		event.PersistError = err.Error()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode documents event", err)
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: documents\ndata: %s\n\n", seq, data)
	return err
}
