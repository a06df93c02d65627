// AppForge - turns images, PDFs and text into runnable interactive apps.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appforge-labs/appforge/internal/api"
	"github.com/appforge-labs/appforge/internal/audit"
	"github.com/appforge-labs/appforge/internal/config"
	"github.com/appforge-labs/appforge/internal/encode"
	"github.com/appforge-labs/appforge/internal/genai"
	"github.com/appforge-labs/appforge/internal/middleware"
	"github.com/appforge-labs/appforge/internal/orchestrator"
	"github.com/appforge-labs/appforge/internal/preview"
	"github.com/appforge-labs/appforge/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "archive", cfg.ArchiveBackend, "dev", cfg.IsDevelopment())

	// Initialize the persistence port.
	var archive store.Archive
	switch cfg.ArchiveBackend {
	case config.ArchiveFile:
		archive, err = store.NewFileArchive(cfg.ArchivePath)
	default:
		archive, err = store.NewSQLiteArchive(cfg.DBPath)
	}
	if err != nil {
		slog.Error("Failed to initialize archive", "error", err)
		os.Exit(1)
	}

	if err := archive.Ping(context.Background()); err != nil {
		slog.Error("Archive health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Archive ready", "backend", cfg.ArchiveBackend)

	// Initialize the store and load or seed the collection.
	seeder := store.NewSeeder(cfg.Seed.URLs, cfg.Seed.Timeout, logger)
	st := store.New(archive, seeder, logger)
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := st.Load(loadCtx); err != nil {
		loadCancel()
		slog.Error("Failed to load creation collection", "error", err)
		os.Exit(1)
	}
	loadCancel()
	slog.Info("Creation collection ready", "count", st.Len())

	// Initialize the generation audit log (optional).
	auditLog, err := audit.New(audit.Config{
		Enabled:   cfg.Audit.Enabled,
		Path:      cfg.Audit.Path,
		QueueSize: cfg.Audit.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize audit log", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := auditLog.Close(); closeErr != nil {
			slog.Error("Failed to close audit log", "error", closeErr)
		}
	}()

	// Initialize the generation backend client.
	if cfg.Generation.APIKey == "" {
		slog.Warn("GENAI_API_KEY not set; generation requests will rely on the backend accepting unauthenticated calls")
	}
	gen := genai.NewHTTPClient(genai.HTTPClientConfig{
		BaseURL:        cfg.Generation.BaseURL,
		APIKey:         cfg.Generation.APIKey,
		Model:          cfg.Generation.Model,
		RequestTimeout: cfg.Generation.RequestTimeout,
	}, logger)
	defer gen.Close()
	slog.Info("Generation client ready", "model", cfg.Generation.Model)

	// Initialize the orchestrator and handlers.
	orch := orchestrator.New(st, gen, encode.NewEncoder(cfg.MaxUploadBytes), auditLog, logger)

	baseHandler := api.NewHandler(st, orch, cfg)
	creationHandler := api.NewCreationHandler(baseHandler)
	healthHandler := api.NewHealthHandler(st, cfg)
	wsHandler := preview.NewWebSocketHandler(orch, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	healthHandler.RegisterHealth(r)
	creationHandler.RegisterRoutes(r)

	// WebSocket state feed for the live preview surface.
	r.Get("/ws/state", wsHandler.ServeHTTP)

	// Create server. Generation calls can run long, so the write timeout
	// tracks the backend timeout with headroom.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Generation.RequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
