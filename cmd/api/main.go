package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nyashahama/diabetes-risk-planner/internal/ai"
	"github.com/nyashahama/diabetes-risk-planner/internal/api"
	"github.com/nyashahama/diabetes-risk-planner/internal/catalog"
	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
	"github.com/nyashahama/diabetes-risk-planner/internal/config"
	"github.com/nyashahama/diabetes-risk-planner/internal/planner"
	"github.com/nyashahama/diabetes-risk-planner/internal/session"
	"github.com/nyashahama/diabetes-risk-planner/internal/store"
)

func main() {
	// ── Config ────────────────────────────────────────────────────────────────
	// Loaded first so ENV from a .env file picks the log format. Load returns
	// the parsed values even when validation fails.
	cfg, cfgErr := config.Load()

	logger := newLogger(os.Stdout, cfg.IsProduction())
	slog.SetDefault(logger)

	if cfgErr != nil {
		logger.Error("fatal", "error", fmt.Errorf("config: %w", cfgErr))
		os.Exit(1)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// newLogger writes JSON in production and pretty text in development.
func newLogger(w io.Writer, production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func run(cfg *config.Config, logger *slog.Logger) error {

	// Root context cancelled by OS signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Classifier ────────────────────────────────────────────────────────────
	// The service cannot answer anything without it: refuse to start.
	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		return err
	}
	logger.Info("classifier loaded", "path", cfg.ModelPath, "version", model.Version())

	// ── Catalog ───────────────────────────────────────────────────────────────
	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	// ── AI ────────────────────────────────────────────────────────────────────
	gen, closeGen, err := buildGenerator(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	defer func() {
		if err := closeGen(); err != nil {
			logger.Warn("ai: close client", "error", err)
		}
	}()
	gateway := ai.NewGateway(gen, cfg.GenerationTimeout, logger)

	// ── Sessions ──────────────────────────────────────────────────────────────
	var sessions session.Store
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return fmt.Errorf("sessions: %w", err)
		}
		defer rs.Close()
		sessions = rs
		logger.Info("sessions: redis", "ttl", cfg.SessionTTL)
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		logger.Warn("sessions: REDIS_URL not set, keeping sessions in memory")
	}

	// ── Health records ────────────────────────────────────────────────────────
	var records store.Records
	if cfg.DatabaseURL != "" {
		st, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer st.Close()
		records = st.Records()
		logger.Info("database connected, migrations applied")
	} else {
		records = store.NewMemoryRecords()
		logger.Warn("records: DATABASE_URL not set, health records will not survive a restart")
	}

	// ── Planner ───────────────────────────────────────────────────────────────
	svc, err := planner.New(planner.Deps{
		Model:    model,
		Gateway:  gateway,
		Sessions: sessions,
		Records:  records,
		Catalog:  cat,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(svc, api.Config{
		JWTSecret:      []byte(cfg.JWTSecret),
		Env:            cfg.Env,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildGenerator chains every configured provider: Gemini first, then
// DeepSeek, then Anthropic. The returned func releases the Gemini client.
func buildGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ai.Generator, func() error, error) {
	closer := func() error { return nil }

	var chain []ai.Generator
	var names []string

	if cfg.GeminiAPIKey != "" {
		g, closeFn, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, g)
		names = append(names, "gemini")
		closer = closeFn
	}
	if cfg.DeepSeekAPIKey != "" {
		chain = append(chain, ai.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel))
		names = append(names, "deepseek")
	}
	if cfg.AnthropicAPIKey != "" {
		chain = append(chain, ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel))
		names = append(names, "anthropic")
	}
	if len(chain) == 0 {
		return nil, nil, errors.New("no provider configured")
	}

	// Fold from the back so the first provider is tried first.
	gen := chain[len(chain)-1]
	for i := len(chain) - 2; i >= 0; i-- {
		gen = ai.NewFallbackGenerator(chain[i], gen, logger)
	}

	logger.Info("ai: providers configured", "order", names)
	return gen, closer, nil
}
