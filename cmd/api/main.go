// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

// Command api is the entry point for the Velour access API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the access domains (guard, registry, sessions, gateway).
//  7. Start HTTP server with graceful shutdown and a background sweeper.
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
	"time"

	"github.com/velourclub/velour/internal/access/auth"
	"github.com/velourclub/velour/internal/access/derive"
	"github.com/velourclub/velour/internal/access/guard"
	"github.com/velourclub/velour/internal/access/identity"
	"github.com/velourclub/velour/internal/access/membercode"
	"github.com/velourclub/velour/internal/access/session"
	"github.com/velourclub/velour/internal/api"
	"github.com/velourclub/velour/internal/platform/config"
	"github.com/velourclub/velour/internal/platform/constants"
	"github.com/velourclub/velour/internal/platform/migration"
	pgstore "github.com/velourclub/velour/internal/platform/postgres"
	redisstore "github.com/velourclub/velour/internal/platform/redis"
	"github.com/velourclub/velour/internal/platform/sec"
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

	log.Info("[Velour] service_initializing")

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
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Primitives ────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	masterKey, err := sec.NewMasterKey(cfg.MasterKey)
	must(log, err, "initialize master key")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	deriver := derive.New(derive.Config{
		Secret: cfg.DeriveSecret,
		Window: cfg.CodeWindow,
	})

	attemptGuard := guard.New(guard.NewRedisStore(rdb), guard.Config{
		Threshold:    cfg.LockThreshold,
		LockDuration: cfg.LockDuration,
	})

	registry := membercode.NewRegistry(membercode.NewRedisStore(rdb), membercode.Config{
		Deriver: deriver,
	})

	sessions := session.NewManager(session.NewRedisStore(rdb), session.Config{
		TTL:         cfg.SessionTTL,
		RenewWithin: cfg.SessionRenewWithin,
	})

	identities := identity.NewPostgresStore(pool)

	validator := auth.NewValidator(attemptGuard, registry, masterKey, auth.Config{})
	authService := auth.NewService(identities, validator, sessions, jwtSvc)
	authHandler := auth.NewHandler(authService)

	notifier := membercode.NewLogNotifier(log)
	memberCodeHandler := membercode.NewHandler(registry, notifier)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Auth:       authHandler,
		MemberCode: memberCodeHandler,
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	sessionAlive := func(r *http.Request, sessionID string) bool {
		return sessions.IsAlive(r.Context(), sessionID)
	}

	server := api.NewServer(rootCtx, cfg, log, jwtSvc, sessionAlive, handlers)

	// ── 10. Background Sweeper ────────────────────────────────────────────
	// Redis expires its own keys; the sweeper exists for store backends
	// without native TTLs and is a near no-op otherwise.
	go func() {
		ticker := time.NewTicker(constants.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				if err := sessions.DeleteExpired(rootCtx); err != nil {
					log.Error("session_sweep_failed", slog.Any("error", err))
				}
			}
		}
	}()

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
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
