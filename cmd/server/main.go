package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-docs/internal/config"
	"travel-docs/internal/handler"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wiring
	container, err := config.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	// Handlers
	documentHandler := handler.NewDocumentHandler(
		container.DocumentService,
		container.UploadService,
		container.FileStore,
		cfg.GetMaxFileSize(),
		container.Logger,
	)

	tokenMiddleware := handler.NewTokenMiddleware(cfg.GetAPIToken(), container.Logger)

	// Router
	router := handler.NewRouter(documentHandler, handler.RouterOptions{
		AllowedOrigins: cfg.GetAllowedOrigins(),
		Metrics:        container.MetricsHandler(),
		Auth:           tokenMiddleware.Middleware,
		RequestLog:     handler.RequestLogger(container.Logger),
	})

	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end on shutdown so event streams close.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Warm the collection so storage problems show up at startup.
	container.Logger.Info("Documents ready", "count", len(container.DocumentService.ListDocuments(ctx)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		container.Logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("Server failed", err)
		container.Close()
		os.Exit(1)
	}
	container.Logger.Info("Server exited")
}
