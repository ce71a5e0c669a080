package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"travel-docs/internal/domain"
	apperrors "travel-docs/pkg/errors"
)

// TokenMiddleware guards the API with a static bearer token. An empty
// token disables the check.
type TokenMiddleware struct {
	token  string
	logger domain.Logger
}

func NewTokenMiddleware(token string, logger domain.Logger) *TokenMiddleware {
	return &TokenMiddleware{token: token, logger: logger}
}

// eventsPath is the only route that takes the token from the query string.
// EventSource clients cannot set headers.
const eventsPath = "/documents/events"

// Middleware validates the Authorization header.
func (m *TokenMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.extractToken(r)
		if err != nil {
			writeAppError(w, m.logger, err)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
			m.logger.Warn("Rejected request with invalid token", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			writeAppError(w, m.logger, apperrors.NewUnauthorizedError("Invalid token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *TokenMiddleware) extractToken(r *http.Request) (string, error) {
	if strings.HasSuffix(r.URL.Path, eventsPath) {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, nil
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewUnauthorizedError("Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", apperrors.NewUnauthorizedError("Invalid authorization header format")
	}
	if parts[1] == "" {
		return "", apperrors.NewUnauthorizedError("Token required")
	}
	return parts[1], nil
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying Flusher.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogger logs one line per request.
func RequestLogger(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
