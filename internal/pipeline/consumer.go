package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vocabworks/vocab-ranking-platform/internal/rank"
	"github.com/vocabworks/vocab-ranking-platform/pkg/config"
	"github.com/vocabworks/vocab-ranking-platform/pkg/kafka"
	"github.com/vocabworks/vocab-ranking-platform/pkg/metrics"
)

// Worker consumes document batches, ranks them, publishes the results,
// and optionally persists them.
type Worker struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewWorker creates a Worker backed by the given Kafka consumer.
func NewWorker(kafkaConsumer *kafka.Consumer) *Worker {
	return &Worker{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "rank-worker"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("rank worker starting")
	return w.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that ranks every
// document in each batch and publishes one RankingMessage per
// document. Documents are ranked concurrently up to maxConcurrent;
// cancellation is honored between documents, never inside a scoring
// pass. If store is non-nil, ranked rows are also persisted.
func HandleMessage(
	ranker *rank.Ranker,
	producer *kafka.Producer,
	store *Store,
	settings config.RankingConfig,
	maxConcurrent int,
	m *metrics.Metrics,
) kafka.MessageHandler {
	logger := slog.Default().With("component", "rank-worker")
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	mode := "lemma"
	if settings.AllowInflections {
		mode = "inflection"
	}

	return func(ctx context.Context, key []byte, value []byte) error {
		msg, err := kafka.DecodeJSON[DocumentMessage](value)
		if err != nil {
			// A malformed message never becomes valid; log and commit
			// instead of blocking the partition.
			logger.Error("failed to decode document message",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrent)

		for _, doc := range msg.Documents {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				start := time.Now()
				rows, err := ranker.Rank(gctx, []rank.Document{doc}, settings, msg.BaselineTotal)
				if err != nil {
					if m != nil {
						m.DocumentsRankedTotal.WithLabelValues("error").Inc()
					}
					return fmt.Errorf("ranking document %s: %w", doc.ID, err)
				}
				if m != nil {
					m.DocumentsRankedTotal.WithLabelValues("ok").Inc()
					m.TokensProcessedTotal.Add(float64(len(doc.Tokens)))
					m.RankLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
					m.RankedRowsCount.Observe(float64(len(rows)))
				}

				result := RankingMessage{
					BatchID:    msg.BatchID,
					DocumentID: doc.ID,
					Rows:       rows,
					Mode:       mode,
					RankedAt:   time.Now().UTC(),
				}
				if err := producer.Publish(gctx, kafka.Event{Key: doc.ID, Value: result}); err != nil {
					return fmt.Errorf("publishing ranking for %s: %w", doc.ID, err)
				}
				if store != nil {
					added, skipped, err := store.SaveRanking(gctx, result)
					if err != nil {
						if m != nil {
							m.RankingsStoredTotal.WithLabelValues("error").Inc()
						}
						return fmt.Errorf("persisting ranking for %s: %w", doc.ID, err)
					}
					if m != nil {
						m.RankingsStoredTotal.WithLabelValues("added").Add(float64(added))
						m.RankingsStoredTotal.WithLabelValues("skipped").Add(float64(skipped))
					}
				}

				logger.Info("document ranked",
					"doc_id", doc.ID,
					"batch_id", msg.BatchID,
					"rows", len(rows),
					"mode", mode,
				)
				return nil
			})
		}
		return g.Wait()
	}
}
