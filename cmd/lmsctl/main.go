// Command lmsctl drives the LMS from a terminal: sign in, browse the course
// tree, assign courses, author MCQs, take quizzes and export reports.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/lmsapi"
	"github.com/p-n-ai/pai-lms/internal/platform/cache"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/platform/database"
	"github.com/p-n-ai/pai-lms/internal/platform/logging"
	"github.com/p-n-ai/pai-lms/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "lmsctl: load .env:", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "lmsctl:", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cli, cleanup, err := newCommandLine(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lmsctl:", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintln(os.Stderr, "lmsctl:", userMessage(err))
		}
		cleanup()
		os.Exit(2)
	}
}

// newCommandLine wires the token store and the optional audit log from cfg.
func newCommandLine(ctx context.Context, cfg *config.Config) (*commandLine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	store, err := tokenStore(ctx, cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var events audit.Logger = audit.NopLogger{}
	if cfg.Database.AuditEnabled {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open audit database: %w", err)
		}
		closers = append(closers, db.Close)
		pl := audit.NewPostgresLogger(db.Pool)
		if err := pl.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		events = pl
	}

	client := lmsapi.New(cfg.API.BaseURL, lmsapi.WithTimeout(cfg.API.Timeout()))
	return &commandLine{
		cfg:    cfg,
		client: client,
		sess:   session.NewManager(store, session.APIAuthenticator{Client: client}, events),
		events: events,
		out:    os.Stdout,
		in:     bufio.NewReader(os.Stdin),
	}, cleanup, nil
}

func tokenStore(ctx context.Context, cfg *config.Config, closers *[]func()) (session.TokenStore, error) {
	switch cfg.Session.Store {
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	case config.StoreRedis:
		c, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("open session cache: %w", err)
		}
		*closers = append(*closers, func() {
			if err := c.Close(); err != nil {
				slog.Debug("close cache", "error", err)
			}
		})
		return session.NewRedisStore(c.Client, cfg.Session.RedisKey, cfg.Session.TTL()), nil
	default:
		path := cfg.Session.TokenPath
		if path == "" {
			p, err := session.DefaultTokenPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return session.NewFileStore(path), nil
	}
}
