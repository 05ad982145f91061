// Package score blends in-document term frequency with deviation from
// the general-language reference frequency into a single ranking score.
// Term precompute is split from blending so a batch can be re-blended
// under a new balance weight without repeating oracle lookups.
package score

import (
	"math"
	"sort"
	"strings"

	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
	"github.com/vocabworks/vocab-ranking-platform/internal/resolver"
)

// EPS keeps log ratios finite when either probability is exactly zero.
const EPS = 1e-9

// InflectionMarker is appended to a word key to flag that other
// inflections of it were observed. It is display-only and stripped
// before any reference-frequency lookup.
const InflectionMarker = "*"

// Term holds the precomputed scoring signals for one word. All fields
// are finite by construction.
type Term struct {
	Count    int     `json:"count"`
	LogTF1   float64 `json:"log_tf1"`
	LogRatio float64 `json:"log_ratio"`
	RefZipf  float64 `json:"ref_zipf"`
}

// Terms maps word keys to their precomputed signals.
type Terms map[string]Term

// Scored is one ranked word.
type Scored struct {
	Word  string
	Count int
	Score float64
}

// Params controls blending and exclusion.
type Params struct {
	// Limit truncates the ranked output. Must be positive.
	Limit int
	// Balance is the blend weight a; it is clamped to [0, 1].
	// 1 ranks by absolute in-document frequency, 0 by relative
	// novelty against the reference corpus.
	Balance float64
	// MinZipf excludes words whose reference Zipf falls below it.
	MinZipf float64
	// MaxZipf, when non-nil, excludes words whose reference Zipf
	// exceeds it. Nil leaves the range unbounded above.
	MaxZipf *float64
}

// Precompute derives scoring terms for every counted word. The target
// probability denominator is the sum of all counts, or baseline when
// baseline > 0 (for cross-batch consistency); a zero denominator is
// treated as 1.
func Precompute(counts map[string]int, o oracle.Oracle, baseline int) Terms {
	total := baseline
	if total <= 0 {
		total = 0
		for _, n := range counts {
			total += n
		}
	}
	if total < 1 {
		total = 1
	}

	terms := make(Terms, len(counts))
	for word, n := range counts {
		key := cleanKey(word)
		pTarget := float64(n) / float64(total)
		pRef := o.Probability(key)
		terms[word] = Term{
			Count:    n,
			LogTF1:   math.Log(float64(n) + 1),
			LogRatio: math.Log(pTarget+EPS) - math.Log(pRef+EPS),
			RefZipf:  o.Zipf(key),
		}
	}
	return terms
}

// Blend combines each term's signals under the given balance weight,
// applies the Zipf exclusion range, drops non-finite scores, and
// returns the ranked result truncated to the limit. Equal scores order
// lexicographically by word, so rankings are reproducible across runs.
// dropped reports how many words were discarded for non-finite scores;
// Zipf-range exclusions are not counted.
func Blend(terms Terms, p Params) (result []Scored, dropped int) {
	a := clamp01(p.Balance)

	result = make([]Scored, 0, len(terms))
	for word, t := range terms {
		if t.RefZipf < p.MinZipf {
			continue
		}
		if p.MaxZipf != nil && t.RefZipf > *p.MaxZipf {
			continue
		}
		s := a*t.LogTF1 + (1-a)*t.LogRatio
		if math.IsNaN(s) || math.IsInf(s, 0) {
			dropped++
			continue
		}
		result = append(result, Scored{Word: word, Count: t.Count, Score: s})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Word < result[j].Word
	})
	if p.Limit > 0 && len(result) > p.Limit {
		result = result[:p.Limit]
	}
	return result, dropped
}

// TopByCount ranks words by raw count alone, for requests that opt out
// of reference scoring. Ties order lexicographically.
func TopByCount(counts map[string]int, limit int) []Scored {
	result := make([]Scored, 0, len(counts))
	for word, n := range counts {
		result = append(result, Scored{Word: word, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Word < result[j].Word
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// cleanKey strips the inflection marker and any sense suffix so the
// oracle is queried with the bare headword.
func cleanKey(word string) string {
	return resolver.BaseForm(strings.TrimSuffix(word, InflectionMarker))
}

func clamp01(a float64) float64 {
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}
