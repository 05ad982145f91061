// Package aggregate counts surface forms and groups them under their
// resolved lemmas, applying the minimum-occurrence filter used to drop
// hapax legomena from ranking.
package aggregate

import "github.com/vocabworks/vocab-ranking-platform/internal/resolver"

// Counts maps a word key to its occurrence count.
type Counts map[string]int

// Groups maps a lemma key to the surface forms observed under it and
// their counts. The sum of form counts always equals the lemma total.
type Groups map[string]Counts

// Result holds the aggregation output for one batch of documents.
type Result struct {
	// Forms counts raw surface forms (inflection-mode ranking input).
	Forms Counts
	// Groups holds per-lemma form counts (lemma-mode ranking input).
	Groups Groups
}

// Total returns the lemma's total count across all its forms.
func (g Groups) Total(lemma string) int {
	total := 0
	for _, n := range g[lemma] {
		total += n
	}
	return total
}

// LemmaCounts collapses the groups into lemma -> total count.
func (g Groups) LemmaCounts() Counts {
	counts := make(Counts, len(g))
	for lemma := range g {
		counts[lemma] = g.Total(lemma)
	}
	return counts
}

// MarkedLemmaCounts is LemmaCounts with marker appended to every lemma
// observed under more than one surface form, flagging grouped
// inflections in the output key itself.
func (g Groups) MarkedLemmaCounts(marker string) Counts {
	counts := make(Counts, len(g))
	for lemma, forms := range g {
		key := lemma
		if len(forms) > 1 {
			key += marker
		}
		counts[key] = g.Total(lemma)
	}
	return counts
}

// New creates an empty aggregation result.
func New() *Result {
	return &Result{
		Forms:  make(Counts),
		Groups: make(Groups),
	}
}

// Add merges one document's resolved tokens into the result. Calling
// it once per document accumulates a cross-document batch.
func (r *Result) Add(tokens []resolver.Resolved) {
	for _, tok := range tokens {
		r.Forms[tok.Form]++
		key := tok.Lemma.Key()
		group, ok := r.Groups[key]
		if !ok {
			group = make(Counts)
			r.Groups[key] = group
		}
		group[tok.Form]++
	}
}

// AddForms merges raw surface forms without lemma grouping, for
// inflection-mode batches where resolution is skipped.
func (r *Result) AddForms(forms []string) {
	for _, form := range forms {
		r.Forms[form]++
	}
}

// DropSingletons removes every surface form and lemma whose aggregated
// total is exactly 1. The filter runs after grouping: a lemma whose
// differently spelled forms sum to more than 1 survives even when each
// form alone occurs once.
func (r *Result) DropSingletons() {
	for form, n := range r.Forms {
		if n == 1 {
			delete(r.Forms, form)
		}
	}
	for lemma := range r.Groups {
		if r.Groups.Total(lemma) == 1 {
			delete(r.Groups, lemma)
		}
	}
}
