// Package main is the entrypoint for the AudiMed API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mnardelli/audimed/internal/ai"
	"github.com/mnardelli/audimed/internal/api"
	"github.com/mnardelli/audimed/internal/api/handler"
	mw "github.com/mnardelli/audimed/internal/api/middleware"
	"github.com/mnardelli/audimed/internal/api/response"
	"github.com/mnardelli/audimed/internal/audit"
	"github.com/mnardelli/audimed/internal/cache"
	"github.com/mnardelli/audimed/internal/config"
	"github.com/mnardelli/audimed/internal/drive"
	"github.com/mnardelli/audimed/internal/pdf"
	"github.com/mnardelli/audimed/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Best-effort: local development reads a .env file, production uses
	// real environment variables.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"store_backend", cfg.Store.Backend,
		"env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create job store
	var jobStore store.Store
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := store.Connect(ctx, cfg.Store)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := store.RunMigrations(cfg.Store.DatabaseURL, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		jobStore = store.NewPostgresStore(pool)
		slog.Info("postgres store ready")
	default:
		jobStore = store.NewMemoryStore()
		slog.Info("in-memory store ready")
	}

	// 3. Optional Redis cache for job status and rate limiting
	var redisCache cache.Cache
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		redisCache = rc
		slog.Info("redis connected")
	}

	// 4. Google Drive client
	driveClient, err := drive.NewGoogleClient(ctx, cfg.Drive.CredentialsJSON, logger)
	if err != nil {
		return fmt.Errorf("create drive client: %w", err)
	}
	slog.Info("drive client initialized")

	// 5. AI extractor
	extractor, err := ai.NewExtractor(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI extractor: %w", err)
	}
	slog.Info("AI extractor initialized", "provider", extractor.Name())

	// 6. PDF tooling
	runner := pdf.NewExecRunner(logger)
	rasterizer := pdf.NewRasterizer(runner, cfg.Extraction.RasterDPI, cfg.Extraction.JPEGQuality)
	textExtractor := pdf.NewTextExtractor()
	pacer := ai.NewPacer(cfg.Extraction.PageInterval)

	// 7. Audit service
	svc := audit.NewService(
		driveClient,
		extractor,
		jobStore,
		redisCache,
		pacer,
		textExtractor,
		rasterizer,
		cfg.Extraction,
		logger,
	)

	// 8. Build router with dependencies
	deps := api.Dependencies{
		Logger:         logger,
		HealthHandler:  healthHandler(jobStore, redisCache),
		ProcessHandler: handler.NewProcessHandler(svc),
		StatusHandler:  handler.NewStatusHandler(svc),
	}
	if redisCache != nil {
		deps.RateLimit = mw.NewRateLimit(redisCache, cfg.RateLimit.RequestsPerMinute)
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks store and cache connectivity. The cache check is
// skipped when the service runs without Redis.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"store": "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["store"] = "degraded"
		}
		if c != nil {
			checks["cache"] = "ok"
			if err := c.Ping(r.Context()); err != nil {
				checks["cache"] = "degraded"
			}
		}

		for _, state := range checks {
			if state != "ok" {
				response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
					"One or more services degraded", checks)
				return
			}
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
