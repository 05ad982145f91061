// Command worker consumes annotated document batches from Kafka, ranks
// them, publishes the rankings, and optionally persists them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
	"github.com/vocabworks/vocab-ranking-platform/internal/pipeline"
	"github.com/vocabworks/vocab-ranking-platform/internal/rank"
	"github.com/vocabworks/vocab-ranking-platform/internal/resolver"
	"github.com/vocabworks/vocab-ranking-platform/pkg/config"
	"github.com/vocabworks/vocab-ranking-platform/pkg/kafka"
	"github.com/vocabworks/vocab-ranking-platform/pkg/logger"
	"github.com/vocabworks/vocab-ranking-platform/pkg/metrics"
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
	log := logger.WithComponent("worker")
	log.Info("starting rank worker",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topics.DocumentsAnnotated,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The worker ranks with fixed configured settings, so a missing
	// oracle is a startup error rather than a per-request one.
	if cfg.Ranking.UseReferenceScoring && cfg.Oracle.Source == "none" {
		log.Error("reference scoring enabled but no oracle source configured")
		os.Exit(1)
	}

	var db *postgres.Client
	if cfg.Oracle.Source == "postgres" || cfg.Worker.PersistResults {
		db, err = postgres.New(cfg.Postgres)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	table, err := loadOracle(ctx, cfg, db, log)
	if err != nil {
		log.Error("failed to load frequency oracle", "error", err)
		os.Exit(1)
	}

	var memo resolver.MemoStore = resolver.NewMemoryStore()
	if redisClient, err := redis.NewClient(cfg.Redis); err != nil {
		log.Warn("redis unavailable, using in-process lemma memo", "error", err)
	} else {
		memo = resolver.NewRedisMemoStore(redisClient, cfg.Redis.MemoTTL)
		defer redisClient.Close()
	}

	m := metrics.New()

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

	var store *pipeline.Store
	if cfg.Worker.PersistResults {
		store = pipeline.NewStore(db)
	}

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Rankings)
	defer producer.Close()

	handle := pipeline.HandleMessage(ranker, producer, store, cfg.Ranking, cfg.Worker.MaxConcurrent, m)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentsAnnotated, handle)
	worker := pipeline.NewWorker(consumer)

	if err := worker.Start(ctx); err != nil {
		log.Error("worker failed", "error", err)
		os.Exit(1)
	}
	log.Info("rank worker stopped")
}

func loadOracle(ctx context.Context, cfg *config.Config, db *postgres.Client, log *slog.Logger) (*oracle.Table, error) {
	switch cfg.Oracle.Source {
	case "file":
		table, err := oracle.LoadFile(cfg.Oracle.Path)
		if err != nil {
			return nil, err
		}
		log.Info("frequency table loaded", "source", "file", "words", table.Len())
		return table, nil
	case "postgres":
		table, err := oracle.LoadPostgres(ctx, db, cfg.Oracle.Table)
		if err != nil {
			return nil, err
		}
		log.Info("frequency table loaded", "source", "postgres", "words", table.Len())
		return table, nil
	default:
		return nil, nil
	}
}
