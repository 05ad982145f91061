package aggregate

import (
	"path"
	"strings"
)

// CompileIgnorePatterns normalizes a list of glob patterns: each is
// whitespace-trimmed and lower-cased, and empty entries are dropped.
// Matching follows path.Match syntax ('*', '?', character classes).
func CompileIgnorePatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterTokens returns the tokens whose form matches none of the
// compiled patterns. With no patterns the input slice is returned
// unchanged. The filter runs before aggregation, so an ignored form
// never contributes to any lemma's count.
func FilterTokens[T any](tokens []T, patterns []string, form func(T) string) []T {
	if len(patterns) == 0 {
		return tokens
	}
	out := make([]T, 0, len(tokens))
	for _, tok := range tokens {
		if !matchesAny(form(tok), patterns) {
			out = append(out, tok)
		}
	}
	return out
}

func matchesAny(form string, patterns []string) bool {
	form = strings.ToLower(form)
	for _, p := range patterns {
		// Patterns are pre-validated by config; a malformed pattern
		// reaching this point simply never matches.
		if ok, err := path.Match(p, form); err == nil && ok {
			return true
		}
	}
	return false
}
