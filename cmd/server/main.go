package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-finance/internal/activity"
	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/platform/cache"
	"github.com/p-n-ai/pai-finance/internal/platform/config"
	"github.com/p-n-ai/pai-finance/internal/platform/database"
	"github.com/p-n-ai/pai-finance/internal/platform/logging"
	"github.com/p-n-ai/pai-finance/internal/progress"
	"github.com/p-n-ai/pai-finance/internal/recommend"
	"github.com/p-n-ai/pai-finance/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	handler, cleanup, err := setup(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
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

// setup wires the content store, the optional Postgres activity log and the
// optional Redis session store into the HTTP handler. Unreachable backends
// are logged and replaced by their in-process variants.
func setup(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, err := content.Open(content.Options{
		OntologyPath: cfg.Content.OntologyPath,
		FallbackPath: cfg.Content.FallbackPath,
		FallbackOnly: cfg.Content.FallbackOnly,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("opening content: %w", err)
	}

	checks := map[string]web.Check{}

	var events activity.Logger = activity.Nop{}
	if cfg.HasDatabase() {
		db, err := database.Open(ctx, database.Options{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			slog.Warn("activity log disabled", "error", err)
		} else {
			closers = append(closers, db.Close)
			events = activity.NewPostgres(db.Pool)
			checks["database"] = db.HealthCheck
		}
	}

	var sessions progress.SessionStore = progress.NewMemoryStore()
	if cfg.HasCache() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("keeping sessions in memory", "error", err)
		} else {
			closers = append(closers, func() { c.Close() })
			sessions = progress.NewRedisStore(c, cfg.Session.TTL)
			checks["cache"] = c.HealthCheck
		}
	}

	srv := web.NewServer(web.Options{
		Content:     store,
		Sessions:    sessions,
		Events:      events,
		Recommender: recommend.New(cfg.Learning.RecommendMin, cfg.Learning.RecommendLimit),
		QuizSize:    cfg.Learning.QuizSize,
		CookieName:  cfg.Session.CookieName,
		SessionTTL:  cfg.Session.TTL,
		CORSOrigins: cfg.Server.CORSOrigins,
		Checks:      checks,
	})
	return srv.Handler(), cleanup, nil
}
