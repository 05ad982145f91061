// Package rank composes the resolver, aggregator, and score blender
// into the vocabulary ranking pipeline. One entry point serves both
// ranking modes: lemma-grouped (forms counted under their canonical
// headword) and raw-inflection (surface forms ranked as-is).
package rank

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vocabworks/vocab-ranking-platform/internal/aggregate"
	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
	"github.com/vocabworks/vocab-ranking-platform/internal/resolver"
	"github.com/vocabworks/vocab-ranking-platform/internal/score"
	"github.com/vocabworks/vocab-ranking-platform/pkg/config"
	apperrors "github.com/vocabworks/vocab-ranking-platform/pkg/errors"
	"github.com/vocabworks/vocab-ranking-platform/pkg/metrics"
)

// Document is one annotated-token stream to rank. Tokens arrive
// pre-tokenized and lower-cased from the external morphological
// analyzer.
type Document struct {
	ID     string                    `json:"id"`
	Tokens []resolver.AnnotatedToken `json:"tokens"`
}

// Row is one ranked vocabulary item. Score is nil when reference
// scoring is disabled. Forms lists the contributing surface forms and
// counts in lemma mode, most frequent first.
type Row struct {
	Word  string   `json:"word"`
	Count int      `json:"count"`
	Score *float64 `json:"score,omitempty"`
	Forms string   `json:"forms,omitempty"`
}

// Ranker runs ranking requests against a fixed oracle and resolver.
type Ranker struct {
	oracle   oracle.Oracle
	resolver *resolver.Resolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Ranker. A nil oracle is allowed; requests that ask for
// reference scoring against it fail fast with ErrOracleUnavailable.
// m may be nil.
func New(o oracle.Oracle, res *resolver.Resolver, m *metrics.Metrics) *Ranker {
	return &Ranker{
		oracle:   o,
		resolver: res,
		metrics:  m,
		logger:   slog.Default().With("component", "ranker"),
	}
}

// Rank ranks a batch of documents under the given settings. Counts are
// merged across documents before scoring; baseline, when positive,
// replaces the batch total as the target-probability denominator for
// cross-batch consistency. The context is only consulted between
// documents: a single scoring pass always runs to completion.
func (r *Ranker) Rank(ctx context.Context, docs []Document, settings config.RankingConfig, baseline int) ([]Row, error) {
	prepared, err := r.Prepare(ctx, docs, settings, baseline)
	if err != nil {
		return nil, err
	}
	return prepared.Rows(settings), nil
}

// Prepared holds the aggregated counts and precomputed score terms for
// a batch, so the same batch can be re-blended under different balance
// weights or exclusion ranges without re-resolving or re-querying the
// oracle.
type Prepared struct {
	Terms  score.Terms      `json:"terms,omitempty"`
	Counts aggregate.Counts `json:"counts"`
	Groups aggregate.Groups `json:"groups,omitempty"`

	useReference bool
	inflections  bool
	metrics      *metrics.Metrics
}

// Prepare runs everything up to (and including) score-term precompute.
func (r *Ranker) Prepare(ctx context.Context, docs []Document, settings config.RankingConfig, baseline int) (*Prepared, error) {
	start := time.Now()

	if err := settings.Validate(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidSettings, http.StatusBadRequest, "%v", err)
	}
	if settings.UseReferenceScoring && r.oracle == nil {
		return nil, fmt.Errorf("reference scoring requested: %w", apperrors.ErrOracleUnavailable)
	}

	patterns := aggregate.CompileIgnorePatterns(settings.IgnorePatterns)
	agg := aggregate.New()
	tokenCount := 0

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ranking cancelled: %w", err)
		}
		tokens := aggregate.FilterTokens(doc.Tokens, patterns,
			func(t resolver.AnnotatedToken) string { return t.Form })
		tokenCount += len(tokens)

		if settings.AllowInflections {
			forms := make([]string, len(tokens))
			for i, tok := range tokens {
				forms[i] = tok.Form
			}
			agg.AddForms(forms)
		} else {
			agg.Add(r.resolver.ResolveAll(tokens))
		}
	}

	if !settings.AllowOnes {
		agg.DropSingletons()
	}

	counts := agg.Forms
	if !settings.AllowInflections {
		if settings.MarkGroupedLemmas {
			counts = agg.Groups.MarkedLemmaCounts(score.InflectionMarker)
		} else {
			counts = agg.Groups.LemmaCounts()
		}
	}

	prepared := &Prepared{
		Counts:       counts,
		Groups:       agg.Groups,
		useReference: settings.UseReferenceScoring,
		inflections:  settings.AllowInflections,
		metrics:      r.metrics,
	}
	if settings.UseReferenceScoring {
		prepared.Terms = score.Precompute(counts, r.oracle, baseline)
	}

	r.logger.Debug("batch prepared",
		"documents", len(docs),
		"tokens", tokenCount,
		"vocabulary", len(counts),
		"elapsed", time.Since(start),
	)
	return prepared, nil
}

// Rows blends (or, without reference scoring, sorts by count) and
// builds the final row set. Only the blend-stage settings are read
// here; aggregation-stage settings were consumed by Prepare.
func (p *Prepared) Rows(settings config.RankingConfig) []Row {
	var scored []score.Scored
	if p.useReference {
		var dropped int
		scored, dropped = score.Blend(p.Terms, score.Params{
			Limit:   settings.Limit,
			Balance: settings.BalanceWeight,
			MinZipf: settings.MinRefZipf,
			MaxZipf: settings.MaxRefZipf,
		})
		if p.metrics != nil && dropped > 0 {
			p.metrics.ScoresDroppedTotal.Add(float64(dropped))
		}
	} else {
		scored = score.TopByCount(p.Counts, settings.Limit)
	}

	rows := make([]Row, 0, len(scored))
	for _, s := range scored {
		row := Row{Word: s.Word, Count: s.Count}
		if p.useReference {
			v := s.Score
			row.Score = &v
		}
		if !p.inflections {
			lemma := strings.TrimSuffix(s.Word, score.InflectionMarker)
			row.Forms = FormsDetail(p.Groups[lemma])
		}
		rows = append(rows, row)
	}
	return rows
}

// FormsDetail renders a lemma group as "form count, form count", forms
// sorted by descending count, ties broken by form.
func FormsDetail(forms aggregate.Counts) string {
	if len(forms) == 0 {
		return ""
	}
	type fc struct {
		form  string
		count int
	}
	ordered := make([]fc, 0, len(forms))
	for form, count := range forms {
		ordered = append(ordered, fc{form, count})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].form < ordered[j].form
	})

	var b strings.Builder
	for i, e := range ordered {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %d", e.form, e.count)
	}
	return b.String()
}
