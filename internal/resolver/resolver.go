// Package resolver maps analyzer-annotated surface forms to canonical
// dictionary headwords. The analyzer's proposed lemma is trusted by
// default; a table of suffix-substitution rules generates alternative
// infinitive candidates, and the reference frequency oracle adjudicates
// between them. Resolution is pure per surface form and memoized in an
// injectable store.
package resolver

import (
	"log/slog"
	"sync/atomic"
	"unicode"

	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
	"github.com/vocabworks/vocab-ranking-platform/pkg/metrics"
)

// reservedToken is the ambiguous preposition resolved by the case of
// the word it governs rather than by the analyzer's lemma.
const reservedToken = "z"

// DefaultMargin is the Zipf improvement a candidate must show over the
// analyzer's lemma before it overrides it. A heuristic constant, not a
// law; tune per language via Config.Margin.
const DefaultMargin = 0.5

// AnnotatedToken is one normalized token with the analyzer's proposed
// lemma and the grammatical case feature, when present.
type AnnotatedToken struct {
	Form  string `json:"form"`
	Lemma string `json:"lemma"`
	Case  string `json:"case,omitempty"`
}

// Resolved pairs a surface form with its canonical lemma.
type Resolved struct {
	Form  string
	Lemma Lemma
}

// Config holds the resolver's tunables.
type Config struct {
	// Margin is the minimum Zipf improvement for overriding the
	// analyzer's lemma. Nil selects DefaultMargin; an explicit 0 makes
	// any strictly more frequent candidate win.
	Margin *float64
	// Metrics, when non-nil, receives memo hit/miss counts.
	Metrics *metrics.Metrics
}

// Resolver resolves annotated tokens to canonical lemmas.
type Resolver struct {
	oracle  oracle.Oracle
	memo    MemoStore
	margin  float64
	metrics *metrics.Metrics
	logger  *slog.Logger

	memoHits   atomic.Int64
	memoMisses atomic.Int64
}

// New creates a Resolver using the given oracle and memo store.
func New(o oracle.Oracle, memo MemoStore, cfg Config) *Resolver {
	margin := DefaultMargin
	if cfg.Margin != nil {
		margin = *cfg.Margin
	}
	return &Resolver{
		oracle:  o,
		memo:    memo,
		margin:  margin,
		metrics: cfg.Metrics,
		logger:  slog.Default().With("component", "lemma-resolver"),
	}
}

// ResolveAll resolves every token in the stream. The stream is needed
// as a whole because the reserved token looks ahead at the case of the
// following word.
func (r *Resolver) ResolveAll(tokens []AnnotatedToken) []Resolved {
	out := make([]Resolved, len(tokens))
	for i, tok := range tokens {
		out[i] = Resolved{Form: tok.Form, Lemma: r.ResolveAt(tokens, i)}
	}
	return out
}

// ResolveAt resolves the token at position i. The reserved token's
// outcome depends on the tokens that follow it, so it bypasses the
// memo table; every other form is memoized.
func (r *Resolver) ResolveAt(tokens []AnnotatedToken, i int) Lemma {
	tok := tokens[i]
	if tok.Form == reservedToken {
		return Lemma{Text: reservedToken, Sense: r.governedSense(tokens, i)}
	}
	return Lemma{Text: r.resolveForm(tok.Form, tok.Lemma)}
}

// governedSense scans forward for the next alphabetic token carrying a
// case feature and maps instrumental/genitive government to the
// corresponding sense. UD case codes ("Ins", "Gen") are expected.
func (r *Resolver) governedSense(tokens []AnnotatedToken, i int) Sense {
	for _, tok := range tokens[i+1:] {
		if tok.Case == "" || !isAlphabetic(tok.Form) {
			continue
		}
		switch tok.Case {
		case "Ins":
			return SenseInstrumental
		case "Gen":
			return SenseGenitive
		default:
			return SensePlain
		}
	}
	return SensePlain
}

// resolveForm picks the canonical lemma for one surface form.
func (r *Resolver) resolveForm(form, proposed string) string {
	if lemma, ok := r.memo.Get(form); ok {
		r.memoHits.Add(1)
		if r.metrics != nil {
			r.metrics.MemoHitsTotal.Inc()
		}
		return lemma
	}
	r.memoMisses.Add(1)
	if r.metrics != nil {
		r.metrics.MemoMissesTotal.Inc()
	}

	if proposed == "" {
		proposed = form
	}

	// When the analyzer did no normalization at all, any strictly more
	// frequent candidate wins; otherwise overriding it takes convincing
	// evidence.
	margin := r.margin
	if proposed == form {
		margin = 0
	}

	chosen := proposed
	bestZipf := r.oracle.Zipf(proposed)
	for _, cand := range candidates(form) {
		z := r.oracle.Zipf(cand)
		if z > bestZipf+margin {
			chosen = cand
			bestZipf = z
			margin = 0
		}
	}

	// Never trade a form the reference corpus knows for a lemma it has
	// never seen.
	if r.oracle.Zipf(chosen) == 0 && r.oracle.Zipf(form) > 0 {
		chosen = form
	}

	if chosen != proposed {
		r.logger.Debug("lemma corrected",
			"form", form,
			"proposed", proposed,
			"chosen", chosen,
		)
	}
	r.memo.Put(form, chosen)
	return chosen
}

// MemoStats reports memo table hits and misses since startup.
func (r *Resolver) MemoStats() (hits, misses int64) {
	return r.memoHits.Load(), r.memoMisses.Load()
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
