// Package pipeline connects the ranking engine to Kafka: annotated
// documents are consumed from one topic, ranked, published to another,
// and optionally persisted to PostgreSQL.
package pipeline

import (
	"time"

	"github.com/vocabworks/vocab-ranking-platform/internal/rank"
)

// DocumentMessage is the Kafka payload carrying one batch of annotated
// documents. Documents in a batch are ranked independently.
type DocumentMessage struct {
	BatchID   string          `json:"batch_id,omitempty"`
	Documents []rank.Document `json:"documents"`
	// BaselineTotal, when positive, fixes the target-probability
	// denominator across the whole stream for comparable scores.
	BaselineTotal int `json:"baseline_total,omitempty"`
}

// RankingMessage is published for each ranked document.
type RankingMessage struct {
	BatchID    string     `json:"batch_id,omitempty"`
	DocumentID string     `json:"document_id"`
	Rows       []rank.Row `json:"rows"`
	Mode       string     `json:"mode"`
	RankedAt   time.Time  `json:"ranked_at"`
}
