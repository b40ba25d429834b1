// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command web is the entry point for the Kotae client-tier server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Validate upstream connectivity (one throwaway transport).
//  4. Build the browser-session registry and start its sweeper.
//  5. Wire the guard and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/kotae/internal/guard"
	"github.com/taibuivan/kotae/internal/platform/config"
	"github.com/taibuivan/kotae/internal/platform/constants"
	"github.com/taibuivan/kotae/internal/transport"
	"github.com/taibuivan/kotae/internal/web"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Kotae] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("upstream", cfg.UpstreamBaseURL),
	)

	// ── 3. Upstream Validation ────────────────────────────────────────────
	// Browser transports are built lazily per session; construct one here so
	// a malformed base URL fails the process at startup, not mid-request.
	_, err = transport.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, log)
	must(log, err, "validate upstream transport")

	// Root context governs the background loops (registry sweeper, rate
	// limiter cleanup); cancelling it stops them during shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// ── 4. Browser Registry ───────────────────────────────────────────────
	registry := web.NewRegistry(cfg, log)
	registry.StartSweeper(rootCtx)

	// ── 5. Guard + Handlers ───────────────────────────────────────────────
	gate := guard.New(log)
	handler := web.NewHandler(registry, log)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	server := web.NewServer(rootCtx, cfg, log, registry, gate, handler)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
