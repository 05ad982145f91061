package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vocabworks/vocab-ranking-platform/pkg/postgres"
)

// Store persists ranked rows in PostgreSQL.
//
// It requires a `rankings` table:
//
//	CREATE TABLE rankings (
//	    document_id TEXT NOT NULL,
//	    word        TEXT NOT NULL,
//	    count       INTEGER NOT NULL,
//	    score       DOUBLE PRECISION,
//	    forms       TEXT NOT NULL DEFAULT '',
//	    ranked_at   TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (document_id, word)
//	);
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a ranking persistence store.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "ranking-store"),
	}
}

// SaveRanking inserts the document's rows, skipping (document, word)
// pairs that were stored before, and reports how many rows were added
// and how many were already present.
func (s *Store) SaveRanking(ctx context.Context, msg RankingMessage) (added, skipped int, err error) {
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO rankings (document_id, word, count, score, forms, ranked_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (document_id, word) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range msg.Rows {
			var score sql.NullFloat64
			if row.Score != nil {
				score = sql.NullFloat64{Float64: *row.Score, Valid: true}
			}
			res, err := stmt.ExecContext(ctx,
				msg.DocumentID, row.Word, row.Count, score, row.Forms, msg.RankedAt,
			)
			if err != nil {
				return fmt.Errorf("inserting row %q: %w", row.Word, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("reading rows affected: %w", err)
			}
			if n == 0 {
				skipped++
			} else {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.logger.Debug("ranking persisted",
		"doc_id", msg.DocumentID,
		"added", added,
		"skipped", skipped,
	)
	return added, skipped, nil
}

// LatestRanking loads the stored rows for a document, highest score
// first.
func (s *Store) LatestRanking(ctx context.Context, documentID string) ([]StoredRow, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT word, count, score, forms
		FROM rankings
		WHERE document_id = $1
		ORDER BY score DESC NULLS LAST, word ASC`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying rankings for %s: %w", documentID, err)
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var r StoredRow
		var score sql.NullFloat64
		if err := rows.Scan(&r.Word, &r.Count, &score, &r.Forms); err != nil {
			return nil, fmt.Errorf("scanning ranking row: %w", err)
		}
		if score.Valid {
			r.Score = &score.Float64
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ranking rows: %w", err)
	}
	return out, nil
}

// StoredRow is one persisted ranking row.
type StoredRow struct {
	Word  string   `json:"word"`
	Count int      `json:"count"`
	Score *float64 `json:"score,omitempty"`
	Forms string   `json:"forms,omitempty"`
}
