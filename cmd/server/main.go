package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"trustd/internal/auth"
	"trustd/internal/auth/mfa"
	"trustd/internal/engine"
	"trustd/internal/engine/metrics"
	"trustd/internal/engine/ports"
	"trustd/internal/geoip"
	"trustd/internal/history"
	"trustd/internal/platform/config"
	"trustd/internal/platform/httpserver"
	"trustd/internal/platform/logger"
	"trustd/internal/platform/tracer"
	httptransport "trustd/internal/transport/http"
)

// historyStore is the union of what the engine reads, what the transport
// records, and what registration seeds. Both store implementations satisfy it.
type historyStore interface {
	ports.HistoryStore
	ports.ActivityRecorder
	UpsertAccount(ctx context.Context, userID string, rec ports.AccountRecord) error
}

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing trustd",
		"addr", cfg.Addr,
		"history_path", cfg.HistoryPath,
		"tracing", cfg.TracingEnabled,
	)

	var store historyStore
	if cfg.HistoryPath != "" {
		sqliteStore, err := history.NewSQLite(cfg.HistoryPath)
		if err != nil {
			log.Error("failed to open history store", "path", cfg.HistoryPath, "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	} else {
		store = history.NewInMemory()
	}

	locator := geoip.NewStatic(cfg.GeoLat, cfg.GeoLon)

	var engineTracer tracer.Tracer = tracer.NewNoop()
	if cfg.TracingEnabled {
		engineTracer = tracer.NewOTel()
	}

	eng := engine.New(store, locator,
		engine.WithMetrics(metrics.New()),
		engine.WithLogger(log),
		engine.WithTracer(engineTracer),
	)

	users := auth.NewInMemoryUserStore()
	authService := auth.NewService(users, store, auth.WithLogger(log))
	tokens := auth.NewTokenService(cfg.JWTSigningKey, "trustd", cfg.TokenTTL)
	challenges := mfa.NewStore(cfg.MFAChallengeTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sweeper := mfa.NewSweeper(challenges,
		mfa.WithSweepInterval(cfg.MFASweepInterval),
		mfa.WithSweepLogger(log),
	)
	go func() { _ = sweeper.Start(ctx) }()

	handler := httptransport.NewHandler(eng, authService, tokens, challenges, users, store, locator, log)
	router := httptransport.NewRouter(handler, tokens)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
