// Command ranker serves the vocabulary ranking API over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
	"github.com/vocabworks/vocab-ranking-platform/internal/rank"
	"github.com/vocabworks/vocab-ranking-platform/internal/rank/cache"
	"github.com/vocabworks/vocab-ranking-platform/internal/rank/handler"
	"github.com/vocabworks/vocab-ranking-platform/internal/resolver"
	"github.com/vocabworks/vocab-ranking-platform/pkg/config"
	"github.com/vocabworks/vocab-ranking-platform/pkg/health"
	"github.com/vocabworks/vocab-ranking-platform/pkg/logger"
	"github.com/vocabworks/vocab-ranking-platform/pkg/metrics"
	"github.com/vocabworks/vocab-ranking-platform/pkg/middleware"
	"github.com/vocabworks/vocab-ranking-platform/pkg/postgres"
	"github.com/vocabworks/vocab-ranking-platform/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("ranker")
	log.Info("starting ranking service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := loadOracle(ctx, cfg, log)
	if err != nil {
		log.Error("failed to load frequency oracle", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it the service runs with an in-process
	// lemma memo and no result cache.
	var redisClient *redis.Client
	if rc, err := redis.NewClient(cfg.Redis); err != nil {
		log.Warn("redis unavailable, running without result cache", "error", err)
	} else {
		redisClient = rc
		defer redisClient.Close()
	}

	var memo resolver.MemoStore = resolver.NewMemoryStore()
	var resultCache *cache.ResultCache
	if redisClient != nil {
		memo = resolver.NewRedisMemoStore(redisClient, cfg.Redis.MemoTTL)
		resultCache = cache.New(redisClient, cfg.Redis)
	}

	m := metrics.New()

	// The resolver always needs an oracle to adjudicate candidates; an
	// empty table makes it trust the analyzer's lemma unconditionally.
	resolverTable := table
	if resolverTable == nil {
		resolverTable = oracle.NewTable(nil)
	}
	res := resolver.New(resolverTable, memo, resolver.Config{
		Margin:  &cfg.Ranking.LemmaMargin,
		Metrics: m,
	})

	var rankerOracle oracle.Oracle
	if table != nil {
		rankerOracle = table
	}
	ranker := rank.New(rankerOracle, res, m)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(sctx)
		}()
	}

	checker := health.NewChecker()
	checker.Register("oracle", func(ctx context.Context) health.ComponentHealth {
		if table == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no frequency table configured"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d words loaded", table.Len())}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	h := handler.New(ranker, table, resultCache, cfg.Ranking, m)
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var root http.Handler = mux
	root = middleware.Metrics(m)(root)
	root = middleware.Timeout(cfg.Server.RequestTimeout)(root)
	root = middleware.RequestID(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down ranking service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("ranking service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Info("ranking service stopped")
}

// loadOracle builds the reference frequency table from the configured
// source. A nil table (source "none") disables reference scoring.
func loadOracle(ctx context.Context, cfg *config.Config, log *slog.Logger) (*oracle.Table, error) {
	switch cfg.Oracle.Source {
	case "file":
		table, err := oracle.LoadFile(cfg.Oracle.Path)
		if err != nil {
			return nil, err
		}
		log.Info("frequency table loaded", "source", "file", "path", cfg.Oracle.Path, "words", table.Len())
		return table, nil
	case "postgres":
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		table, err := oracle.LoadPostgres(ctx, db, cfg.Oracle.Table)
		if err != nil {
			return nil, err
		}
		log.Info("frequency table loaded", "source", "postgres", "table", cfg.Oracle.Table, "words", table.Len())
		return table, nil
	default:
		log.Warn("no frequency oracle configured, reference scoring disabled")
		return nil, nil
	}
}
