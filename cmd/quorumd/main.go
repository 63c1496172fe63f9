// Command quorumd serves the multi-provider answer aggregation API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quorumai/quorum/internal/domain"
	"github.com/quorumai/quorum/internal/httpapi"
	"github.com/quorumai/quorum/internal/llm"
	"github.com/quorumai/quorum/internal/llm/configuration"
	"github.com/quorumai/quorum/internal/orchestrator"
	"github.com/quorumai/quorum/internal/search"
	"github.com/quorumai/quorum/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "quorumd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := configuration.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Observability)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	client, err := llm.NewClient(cfg, logger.With("component", "llm"))
	if err != nil {
		return err
	}

	var coordinator orchestrator.SearchCoordinator
	if cfg.Search.APIKey != "" {
		searchLog := logger.With("component", "search")
		searchClient := search.NewClient(cfg.Search, searchLog)
		coordinator = search.NewCoordinator(searchClient, st, cfg.Coordinator, searchLog)
	} else {
		logger.Warn("no search credential configured, web search disabled")
	}

	recorder := orchestrator.NewAsyncRecorder(logSink{logger: logger}, 1024,
		logger.With("component", "recorder"))
	defer recorder.Close()

	orch := orchestrator.New(client, coordinator, recorder, cfg.ConfiguredProviders(),
		logger.With("component", "orchestrator"))
	api := httpapi.NewServer(orch, cfg.ConfiguredProviders(), logger.With("component", "http"))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", cfg.Server.Addr),
			slog.Any("providers", cfg.ConfiguredProviders()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg configuration.ObservabilityConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func newStore(ctx context.Context, cfg *configuration.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("using in-process store")
		return store.NewMemoryStore(), nil
	}

	st, err := store.NewRedisStore(ctx, store.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("using redis store", slog.String("addr", cfg.Redis.Addr))
	return st, nil
}

// logSink is the default persistence backend: records go to the log until
// a durable sink is plugged in.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) SaveQuery(ctx context.Context, r domain.QueryRecord) error {
	s.logger.InfoContext(ctx, "query started",
		slog.String("query_id", r.QueryID),
		slog.Any("services", r.Services),
		slog.Bool("web_search", r.UseWebSearch))
	return nil
}

func (s logSink) SaveUsage(ctx context.Context, r domain.UsageRecord) error {
	s.logger.InfoContext(ctx, "usage recorded",
		slog.String("query_id", r.QueryID),
		slog.String("provider", r.Provider),
		slog.String("model", r.Model),
		slog.String("label", r.Label),
		slog.Int64("input_tokens", r.InputTokens),
		slog.Int64("output_tokens", r.OutputTokens),
		slog.Int64("cost_milli_cents", r.CostMilliCents))
	return nil
}
