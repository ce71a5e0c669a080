package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestTokenMiddleware_Disabled(t *testing.T) {
	h := NewTokenMiddleware("", NewMockHandlerLogger()).Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
}

func TestTokenMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		header     string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"Missing header", "/api/v1/documents", "", "", http.StatusUnauthorized, "Authorization header required"},
		{"Invalid format", "/api/v1/documents", "Token abc", "", http.StatusUnauthorized, "Invalid authorization header format"},
		{"Empty token", "/api/v1/documents", "Bearer ", "", http.StatusUnauthorized, "Token required"},
		{"Wrong token", "/api/v1/documents", "Bearer nope", "", http.StatusUnauthorized, "Invalid token"},
		{"Valid header", "/api/v1/documents", "Bearer s3cret", "", http.StatusNoContent, ""},
		{"Query parameter ignored outside events", "/api/v1/documents", "", "s3cret", http.StatusUnauthorized, "Authorization header required"},
		{"Valid query parameter on events", "/api/v1/documents/events", "", "s3cret", http.StatusNoContent, ""},
		{"Wrong query parameter on events", "/api/v1/documents/events", "", "nope", http.StatusUnauthorized, "Invalid token"},
		{"Header still works on events", "/api/v1/documents/events", "Bearer s3cret", "", http.StatusNoContent, ""},
	}

	h := NewTokenMiddleware("s3cret", NewMockHandlerLogger()).Middleware(okHandler())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.path
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Fatalf("unexpected response body: %s", rr.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized && !strings.Contains(rr.Body.String(), `"type":"unauthorized"`) {
				t.Fatalf("expected typed unauthorized error, got %s", rr.Body.String())
			}
		})
	}
}

type recordingLogger struct {
	MockHandlerLogger
	fields []interface{}
}

func (l *recordingLogger) Info(msg string, fields ...interface{}) {
	l.fields = fields
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	logger := &recordingLogger{}
	h := RequestLogger(logger)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	found := false
	for i := 0; i+1 < len(logger.fields); i += 2 {
		if logger.fields[i] == "status" && logger.fields[i+1] == http.StatusNoContent {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected status field in log, got %v", logger.fields)
	}
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr, status: http.StatusOK}

	if err := http.NewResponseController(rec).Flush(); err != nil {
		t.Fatalf("expected flush through wrapper, got %v", err)
	}
	if !rr.Flushed {
		t.Fatalf("expected underlying recorder to be flushed")
	}
}
