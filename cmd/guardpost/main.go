// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/guardpost/internal/config"
	"github.com/olegiv/guardpost/internal/geoip"
	"github.com/olegiv/guardpost/internal/handler"
	"github.com/olegiv/guardpost/internal/logging"
	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/store"
	"github.com/olegiv/guardpost/internal/version"
	"github.com/olegiv/guardpost/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.BoolVar(showVersion, "v", false, "Print version information and exit (shorthand)")
	showHelp := flag.Bool("help", false, "Show help message")
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "guardpost - facility visitor and watchlist tracking\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: guardpost [options]\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_SESSION_SECRET        Session and CSRF secret, 32+ bytes (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_DB_PATH               SQLite database path (default: ./data/guardpost.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_SERVER_HOST           Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_SERVER_PORT           Listen port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_ENV                   development or production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_LOG_LEVEL             debug, info, warn or error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_SESSION_STORE         memory or sqlite (default: memory)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_ADMIN_PASSWORD        Password for the bootstrap admin on first start\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_GEOIP_DB_PATH         GeoLite2-Country.mmdb for event log countries\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_EVENT_RETENTION_DAYS  Days to keep events, 0 keeps forever (default: 90)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GUARDPOST_LONG_STAY_HOURS       Hours before a checked-in visitor is reported (default: 12)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		fmt.Printf("guardpost %s\n", info)
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env file if present (ignored in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(textHandler))

	slog.Info("starting guardpost", "version", info.Version, "commit", info.GitCommit, "env", cfg.Env)

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("closing database", "error", err)
		}
	}()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// From here on, warnings and errors also land in the event log.
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if _, err := store.Seed(ctx, db, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		// Events are still recorded, just without a country.
		slog.Warn("geoip database unavailable", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer func() { _ = geo.Close() }()

	events := service.NewEventService(db, geo)

	sm, err := session.New(session.Options{
		Store:  cfg.SessionStore,
		DB:     db,
		Secure: !cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	renderer, err := render.New(render.Config{TemplatesFS: web.Templates, Sessions: sm})
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer lp.Close()

	jobs, err := newScheduler(cfg, db, events, geo, logger)
	if err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	r := handler.NewRouter(handler.RouterConfig{
		DB:              db,
		Renderer:        renderer,
		Sessions:        sm,
		Events:          events,
		LoginProtection: lp,
		Jobs:            jobs,
		Static:          web.Static,
		CSRF:            middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerPort),
		Security:        middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment()),
		DataDir:         dataDir,
		Version:         info.Version,
		AccessLog:       true,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
