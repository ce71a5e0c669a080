package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterOptions carries the cross-cutting pieces of the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string
	Metrics        http.Handler
	Auth           func(http.Handler) http.Handler
	RequestLog     func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(documentHandler *DocumentHandler, opts RouterOptions) http.Handler {
	router := mux.NewRouter()
	if opts.RequestLog != nil {
		router.Use(opts.RequestLog)
	}

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"travel-docs"}`))
	}).Methods("GET")

	router.HandleFunc("/ready", documentHandler.Ready).Methods("GET")

	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics).Methods("GET")
	}

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()
	if opts.Auth != nil {
		api.Use(opts.Auth)
	}

	api.HandleFunc("/document-types", documentHandler.DocumentTypes).Methods("GET")

	// Static paths go before /documents/{id}
	api.HandleFunc("/documents/events", documentHandler.Events).Methods("GET")
	api.HandleFunc("/documents/upload", documentHandler.UploadDocument).Methods("POST")

	api.HandleFunc("/documents", documentHandler.ListDocuments).Methods("GET")
	api.HandleFunc("/documents", documentHandler.CreateDocument).Methods("POST")
	api.HandleFunc("/documents/{id}", documentHandler.GetDocument).Methods("GET")
	api.HandleFunc("/documents/{id}", documentHandler.DeleteDocument).Methods("DELETE")
	api.HandleFunc("/documents/{id}/failed", documentHandler.MarkFailed).Methods("POST")

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler(router)
}
