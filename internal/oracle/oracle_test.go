package oracle

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestTableZipfAndProbability(t *testing.T) {
	table := NewTable(map[string]float64{
		"i":    7.6,
		"kot":  4.5,
		"rzad": 0,
	})

	if got := table.Zipf("kot"); got != 4.5 {
		t.Errorf("Zipf(kot) = %g, want 4.5", got)
	}
	if got := table.Zipf("nieznany"); got != 0 {
		t.Errorf("Zipf(unseen) = %g, want 0", got)
	}

	want := math.Pow(10, 4.5) / 1e9
	if got := table.Probability("kot"); math.Abs(got-want) > 1e-15 {
		t.Errorf("Probability(kot) = %g, want %g", got, want)
	}
	if got := table.Probability("nieznany"); got != 0 {
		t.Errorf("Probability(unseen) = %g, want 0", got)
	}
	if got := table.Probability("rzad"); got != 0 {
		t.Errorf("Probability(zipf 0) = %g, want 0", got)
	}
}

func TestProbabilityCappedAtOne(t *testing.T) {
	table := NewTable(map[string]float64{"x": 9.5})
	if got := table.Probability("x"); got != 1 {
		t.Errorf("Probability = %g, want 1", got)
	}
}

func TestZipfFromProbability(t *testing.T) {
	if got := ZipfFromProbability(0); got != 0 {
		t.Errorf("ZipfFromProbability(0) = %g, want 0", got)
	}
	want := 4.5
	p := math.Pow(10, want) / 1e9
	if got := ZipfFromProbability(p); math.Abs(got-want) > 1e-12 {
		t.Errorf("ZipfFromProbability = %g, want %g", got, want)
	}
	// Probabilities below one-per-billion clamp to 0 rather than going
	// negative.
	if got := ZipfFromProbability(1e-12); got != 0 {
		t.Errorf("ZipfFromProbability(1e-12) = %g, want 0", got)
	}
}

func TestExamplesByBand(t *testing.T) {
	table := NewTable(map[string]float64{
		"i":      7.6,
		"dom":    5.2,
		"kot":    4.5,
		"pies":   4.5,
		"rzadki": 2.1,
	})

	got := table.ExamplesByBand(3.0, 6.0, 10)
	want := []string{"dom", "kot", "pies"}
	if len(got) != len(want) {
		t.Fatalf("examples = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("examples = %v, want %v", got, want)
		}
	}

	if got := table.ExamplesByBand(3.0, 6.0, 2); len(got) != 2 || got[0] != "dom" {
		t.Errorf("truncated examples = %v, want [dom kot]", got)
	}
	if got := table.ExamplesByBand(3.0, 6.0, 0); got != nil {
		t.Errorf("n=0 examples = %v, want nil", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freq.tsv")
	content := "# comment line\n" +
		"KOT\t4.5\n" +
		"\n" +
		"pies 4.8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("loaded %d words, want 2", table.Len())
	}
	// Words are lower-cased on load.
	if got := table.Zipf("kot"); got != 4.5 {
		t.Errorf("Zipf(kot) = %g, want 4.5", got)
	}
	if got := table.Zipf("pies"); got != 4.8 {
		t.Errorf("Zipf(pies) = %g, want 4.8", got)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.tsv")
	if err := os.WriteFile(bad, []byte("kot\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for line without a zipf column")
	}

	notNum := filepath.Join(t.TempDir(), "notnum.tsv")
	if err := os.WriteFile(notNum, []byte("kot abc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(notNum); err == nil {
		t.Error("expected error for non-numeric zipf")
	}
}
