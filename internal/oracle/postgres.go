package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vocabworks/vocab-ranking-platform/pkg/postgres"
	"github.com/vocabworks/vocab-ranking-platform/pkg/resilience"
)

// LoadPostgres reads the full reference frequency table from PostgreSQL
// into an in-memory Table. The table is expected to have the shape:
//
//	CREATE TABLE word_frequencies (
//	    word TEXT PRIMARY KEY,
//	    zipf DOUBLE PRECISION NOT NULL
//	);
//
// The whole table is loaded up front so per-word queries stay pure,
// total, and free of I/O, as the scoring path requires. The read is
// retried with backoff since it runs once at startup.
func LoadPostgres(ctx context.Context, db *postgres.Client, table string) (*Table, error) {
	zipf := make(map[string]float64)

	load := func() error {
		rows, err := db.DB.QueryContext(ctx,
			fmt.Sprintf(`SELECT word, zipf FROM %s`, table),
		)
		if err != nil {
			return fmt.Errorf("querying %s: %w", table, err)
		}
		defer rows.Close()

		clear(zipf)
		for rows.Next() {
			var word string
			var z float64
			if err := rows.Scan(&word, &z); err != nil {
				return fmt.Errorf("scanning %s row: %w", table, err)
			}
			zipf[strings.ToLower(word)] = z
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating %s rows: %w", table, err)
		}
		return nil
	}

	if err := resilience.Retry(ctx, "oracle-load", resilience.RetryConfig{}, load); err != nil {
		return nil, err
	}

	slog.Default().With("component", "oracle").Info("frequency table loaded from postgres",
		"table", table,
		"words", len(zipf),
	)
	return NewTable(zipf), nil
}
