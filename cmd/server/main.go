package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/lmsapi"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/platform/database"
	"github.com/p-n-ai/pai-lms/internal/platform/logging"
	"github.com/p-n-ai/pai-lms/internal/views"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.Log)

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	client := lmsapi.New(cfg.API.BaseURL, lmsapi.WithTimeout(cfg.API.Timeout()))
	opts, closeDB, err := auditOptions(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to set up audit log", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	srv := newHTTPServer(cfg.Server.Addr(), views.New(client, opts...).Handler())

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "lms_api", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// auditOptions wires the Postgres audit log when it is enabled. The returned
// func closes the pool and is safe to call when auditing is off.
func auditOptions(ctx context.Context, c config.DatabaseConfig) ([]views.Option, func(), error) {
	if !c.AuditEnabled {
		return nil, func() {}, nil
	}
	db, err := database.Open(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	events := audit.NewPostgresLogger(db.Pool)
	if err := events.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Info("audit log enabled")
	return []views.Option{
		views.WithEvents(events),
		views.WithCheck("database", db.HealthCheck),
	}, db.Close, nil
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
