// Package oracle provides the reference frequency table used as the
// general-language baseline for vocabulary scoring. Frequencies are
// stored on the Zipf scale (log10 occurrences per billion words); the
// linear probability is derived from it on demand.
package oracle

import (
	"math"
	"sort"
	"sync"
)

// Oracle answers frequency queries against a general-language reference
// corpus. Both queries are total: unseen words yield 0.
type Oracle interface {
	// Probability returns the word's occurrence probability in [0, 1].
	Probability(word string) float64
	// Zipf returns the word's Zipf frequency, conventionally in [0, 8].
	Zipf(word string) float64
}

// Table is an in-memory Oracle backed by a word -> Zipf map. It is
// immutable after construction and safe for concurrent use.
type Table struct {
	zipf map[string]float64

	// sorted word list by Zipf, built lazily for ExamplesByBand.
	byZipfOnce sync.Once
	byZipf     []string
}

// NewTable builds a Table from a word -> Zipf frequency map.
func NewTable(zipf map[string]float64) *Table {
	m := make(map[string]float64, len(zipf))
	for word, z := range zipf {
		m[word] = z
	}
	return &Table{zipf: m}
}

// Zipf returns the stored Zipf frequency, or 0 for unseen words.
func (t *Table) Zipf(word string) float64 {
	return t.zipf[word]
}

// Probability converts the stored Zipf frequency back to a linear
// probability. Zipf z means 10^z occurrences per billion words.
func (t *Table) Probability(word string) float64 {
	z, ok := t.zipf[word]
	if !ok || z <= 0 {
		return 0
	}
	p := math.Pow(10, z) / 1e9
	if p > 1 {
		return 1
	}
	return p
}

// Len returns the number of words in the table.
func (t *Table) Len() int {
	return len(t.zipf)
}

// ExamplesByBand returns up to n words whose Zipf frequency falls in
// [lo, hi], most frequent first. Used to illustrate what an exclusion
// range would keep or drop.
func (t *Table) ExamplesByBand(lo, hi float64, n int) []string {
	t.byZipfOnce.Do(func() {
		t.byZipf = make([]string, 0, len(t.zipf))
		for word := range t.zipf {
			t.byZipf = append(t.byZipf, word)
		}
		sort.Slice(t.byZipf, func(i, j int) bool {
			zi, zj := t.zipf[t.byZipf[i]], t.zipf[t.byZipf[j]]
			if zi != zj {
				return zi > zj
			}
			return t.byZipf[i] < t.byZipf[j]
		})
	})

	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for _, word := range t.byZipf {
		z := t.zipf[word]
		if z > hi {
			continue
		}
		if z < lo {
			break
		}
		out = append(out, word)
		if len(out) == n {
			break
		}
	}
	return out
}

// ZipfFromProbability converts a linear probability to the Zipf scale.
// Probabilities of 0 (or below) map to 0, matching the unseen-word
// convention.
func ZipfFromProbability(p float64) float64 {
	if p <= 0 {
		return 0
	}
	z := math.Log10(p * 1e9)
	if z < 0 {
		return 0
	}
	return z
}
