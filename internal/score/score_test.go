package score

import (
	"math"
	"testing"

	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
)

func testTable() *oracle.Table {
	return oracle.NewTable(map[string]float64{
		"kot":    4.5,
		"pies":   4.8,
		"dom":    5.2,
		"i":      7.6,
		"rzadki": 2.1,
		"z":      7.2,
	})
}

func TestPrecomputeTerms(t *testing.T) {
	table := testTable()
	counts := map[string]int{"kot": 3, "pies": 2}
	terms := Precompute(counts, table, 0)

	kot, ok := terms["kot"]
	if !ok {
		t.Fatal("missing term for kot")
	}
	if got, want := kot.Count, 3; got != want {
		t.Errorf("Count = %d, want %d", got, want)
	}
	if got, want := kot.LogTF1, math.Log(4); got != want {
		t.Errorf("LogTF1 = %g, want %g", got, want)
	}
	pTarget := 3.0 / 5.0
	pRef := table.Probability("kot")
	want := math.Log(pTarget+EPS) - math.Log(pRef+EPS)
	if got := kot.LogRatio; got != want {
		t.Errorf("LogRatio = %g, want %g", got, want)
	}
	if got, want := kot.RefZipf, 4.5; got != want {
		t.Errorf("RefZipf = %g, want %g", got, want)
	}
}

func TestPrecomputeBaselineOverride(t *testing.T) {
	table := testTable()
	counts := map[string]int{"kot": 3}

	batch := Precompute(counts, table, 0)["kot"]
	fixed := Precompute(counts, table, 1000)["kot"]

	pRef := table.Probability("kot")
	want := math.Log(3.0/1000.0+EPS) - math.Log(pRef+EPS)
	if got := fixed.LogRatio; got != want {
		t.Errorf("LogRatio with baseline = %g, want %g", got, want)
	}
	if batch.LogRatio == fixed.LogRatio {
		t.Error("baseline override had no effect on LogRatio")
	}
}

func TestPrecomputeMissingReferenceWord(t *testing.T) {
	terms := Precompute(map[string]int{"xyzzy": 5, "kot": 5}, testTable(), 0)

	unseen := terms["xyzzy"]
	if unseen.RefZipf != 0 {
		t.Errorf("RefZipf for unseen word = %g, want 0", unseen.RefZipf)
	}
	if math.IsNaN(unseen.LogRatio) || math.IsInf(unseen.LogRatio, 0) {
		t.Errorf("LogRatio for unseen word is not finite: %g", unseen.LogRatio)
	}
	if unseen.LogRatio <= terms["kot"].LogRatio {
		t.Error("unseen word should score as more novel than a common one at equal count")
	}
}

func TestPrecomputeZeroCountsStayFinite(t *testing.T) {
	terms := Precompute(map[string]int{"kot": 0}, testTable(), 0)
	kot := terms["kot"]
	for name, v := range map[string]float64{
		"LogTF1":   kot.LogTF1,
		"LogRatio": kot.LogRatio,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %g", name, v)
		}
	}
	if kot.LogTF1 != 0 {
		t.Errorf("LogTF1 for zero count = %g, want 0", kot.LogTF1)
	}
}

func TestPrecomputeStripsMarkerAndSenseSuffix(t *testing.T) {
	table := testTable()
	terms := Precompute(map[string]int{
		"kot*":       4,
		"z (instr.)": 2,
		"z (gen.)":   2,
		"rzadki":     2,
	}, table, 0)

	if got, want := terms["kot*"].RefZipf, 4.5; got != want {
		t.Errorf("marked word RefZipf = %g, want %g", got, want)
	}
	if got, want := terms["z (instr.)"].RefZipf, 7.2; got != want {
		t.Errorf("sense-suffixed word RefZipf = %g, want %g", got, want)
	}
	if got, want := terms["z (gen.)"].RefZipf, 7.2; got != want {
		t.Errorf("sense-suffixed word RefZipf = %g, want %g", got, want)
	}
}

func TestBlendPureFrequency(t *testing.T) {
	terms := Precompute(map[string]int{"kot": 3, "pies": 7}, testTable(), 0)

	for _, a := range []float64{1, 9} {
		scored, _ := Blend(terms, Params{Limit: 10, Balance: a})
		for _, s := range scored {
			if want := math.Log(float64(s.Count) + 1); s.Score != want {
				t.Errorf("a=%g: score for %s = %g, want ln(count+1) = %g", a, s.Word, s.Score, want)
			}
		}
		if scored[0].Word != "pies" {
			t.Errorf("a=%g: top word = %s, want pies", a, scored[0].Word)
		}
	}
}

func TestBlendPureNovelty(t *testing.T) {
	terms := Precompute(map[string]int{"i": 5, "rzadki": 5}, testTable(), 0)

	for _, a := range []float64{0, -3} {
		scored, _ := Blend(terms, Params{Limit: 10, Balance: a})
		for _, s := range scored {
			if want := terms[s.Word].LogRatio; s.Score != want {
				t.Errorf("a=%g: score for %s = %g, want log ratio %g", a, s.Word, s.Score, want)
			}
		}
		if scored[0].Word != "rzadki" {
			t.Errorf("a=%g: top word = %s, want rzadki", a, scored[0].Word)
		}
	}
}

func TestBlendZipfExclusionRange(t *testing.T) {
	terms := Precompute(map[string]int{"i": 3, "kot": 3, "rzadki": 3, "xyzzy": 3}, testTable(), 0)

	hi := 6.0
	scored, dropped := Blend(terms, Params{Limit: 10, Balance: 0.5, MinZipf: 3.0, MaxZipf: &hi})
	if len(scored) != 1 || scored[0].Word != "kot" {
		t.Fatalf("exclusion range kept %v, want [kot]", words(scored))
	}
	// Range exclusions are not dropped scores.
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}

	// Unbounded above keeps the very common word too.
	scored, _ = Blend(terms, Params{Limit: 10, Balance: 0.5, MinZipf: 3.0})
	if len(scored) != 2 {
		t.Fatalf("open-ended range kept %v, want kot and i", words(scored))
	}
}

func TestBlendTieBreakIsLexicographic(t *testing.T) {
	// Identical counts and identical reference stats produce identical
	// scores; the ordering must still be deterministic.
	terms := Terms{
		"wilk": {Count: 2, LogTF1: math.Log(3), LogRatio: 1.5, RefZipf: 4},
		"lis":  {Count: 2, LogTF1: math.Log(3), LogRatio: 1.5, RefZipf: 4},
		"bóbr": {Count: 2, LogTF1: math.Log(3), LogRatio: 1.5, RefZipf: 4},
	}
	scored, _ := Blend(terms, Params{Limit: 10, Balance: 0.5})
	got := words(scored)
	want := []string{"bóbr", "lis", "wilk"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie order = %v, want %v", got, want)
		}
	}
}

func TestBlendLimitTruncates(t *testing.T) {
	terms := Precompute(map[string]int{"kot": 5, "pies": 4, "dom": 3, "i": 2}, testTable(), 0)
	scored, _ := Blend(terms, Params{Limit: 2, Balance: 1})
	if len(scored) != 2 {
		t.Fatalf("got %d rows, want 2", len(scored))
	}
	if scored[0].Word != "kot" || scored[1].Word != "pies" {
		t.Errorf("top rows = %v, want [kot pies]", words(scored))
	}
}

func TestBlendDropsNonFiniteScores(t *testing.T) {
	terms := Terms{
		"ok":  {Count: 2, LogTF1: 1, LogRatio: 1},
		"bad": {Count: 2, LogTF1: math.Inf(1), LogRatio: 1},
		"nan": {Count: 2, LogTF1: math.NaN(), LogRatio: 1},
	}
	scored, dropped := Blend(terms, Params{Limit: 10, Balance: 0.5})
	if len(scored) != 1 || scored[0].Word != "ok" {
		t.Fatalf("got %v, want only the finite score", words(scored))
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
}

func TestTopByCount(t *testing.T) {
	scored := TopByCount(map[string]int{"kot": 3, "dom": 3, "pies": 7, "i": 1}, 3)
	got := words(scored)
	want := []string{"pies", "dom", "kot"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func words(scored []Scored) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Word
	}
	return out
}
