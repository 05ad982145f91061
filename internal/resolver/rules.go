package resolver

import (
	"strings"
	"unicode/utf8"
)

// suffixRule rewrites a non-infinitive verb ending into one or more
// plausible infinitive endings. Rules are ordered longest suffix first
// and only the first matching rule fires; minStem is the minimum stem
// length in runes for the substitution to be meaningful.
type suffixRule struct {
	suffix     string
	candidates []string
	minStem    int
}

var infinitiveRules = []suffixRule{
	{"uje", []string{"ować"}, 2},
	{"ują", []string{"ować"}, 2},
	{"ie", []string{"ać", "eć"}, 3},
	{"ą", []string{"ać", "ąć"}, 3},
	{"i", []string{"ić", "ieć"}, 3},
	{"y", []string{"yć"}, 3},
	{"e", []string{"ać", "eć"}, 3},
	{"a", []string{"ać"}, 3},
}

// candidates generates infinitive lemma candidates for a surface form
// by applying the rule table. The surface form itself is never
// returned as a candidate.
func candidates(form string) []string {
	for _, rule := range infinitiveRules {
		if !strings.HasSuffix(form, rule.suffix) {
			continue
		}
		stem := form[:len(form)-len(rule.suffix)]
		if utf8.RuneCountInString(stem) < rule.minStem {
			continue
		}
		out := make([]string, 0, len(rule.candidates))
		for _, ending := range rule.candidates {
			cand := stem + ending
			if cand == form {
				continue
			}
			out = append(out, cand)
		}
		return out
	}
	return nil
}
