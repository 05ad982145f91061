// Command vocabrank ranks the vocabulary of annotated documents from
// the command line and prints a TSV table. In lemma mode a trailing
// marker on a word flags that several inflections were grouped under it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vocabworks/vocab-ranking-platform/internal/oracle"
	"github.com/vocabworks/vocab-ranking-platform/internal/rank"
	"github.com/vocabworks/vocab-ranking-platform/internal/resolver"
	"github.com/vocabworks/vocab-ranking-platform/pkg/config"
	"github.com/vocabworks/vocab-ranking-platform/pkg/logger"
)

func main() {
	var (
		inputPath   = flag.String("input", "-", "annotated-token JSON file, or - for stdin")
		configPath  = flag.String("config", "", "optional config file for defaults")
		freqPath    = flag.String("freq", "", "frequency list file (overrides config)")
		limit       = flag.Int("limit", 0, "maximum rows to print")
		inflections = flag.Bool("inflections", false, "rank surface forms instead of lemmas")
		allowOnes   = flag.Bool("allow-ones", false, "keep words seen only once")
		balance     = flag.Float64("a", -1, "blend weight between 0 and 1")
		minZipf     = flag.Float64("min-zipf", -1, "exclude words below this reference Zipf")
		maxZipf     = flag.Float64("max-zipf", 0, "exclude words above this reference Zipf (0 = unbounded)")
		noScores    = flag.Bool("no-scores", false, "rank by count only, without reference scoring")
		ignore      = flag.String("ignore", "", "comma-separated glob patterns to skip")
		baseline    = flag.Int("baseline", 0, "fixed total for the target probability denominator")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("loading config: %v", err)
	}
	logger.Setup("warn", "text")

	settings := cfg.Ranking
	settings.MarkGroupedLemmas = true
	if *limit > 0 {
		settings.Limit = *limit
	}
	settings.AllowInflections = *inflections
	if *allowOnes {
		settings.AllowOnes = true
	}
	if *balance >= 0 {
		settings.BalanceWeight = *balance
	}
	if *minZipf >= 0 {
		settings.MinRefZipf = *minZipf
	}
	if *maxZipf > 0 {
		settings.MaxRefZipf = maxZipf
	}
	if *noScores {
		settings.UseReferenceScoring = false
	}
	if *ignore != "" {
		settings.IgnorePatterns = strings.Split(*ignore, ",")
	}
	if err := settings.Validate(); err != nil {
		fatal("invalid settings: %v", err)
	}

	docs, err := readDocuments(*inputPath)
	if err != nil {
		fatal("reading input: %v", err)
	}

	path := cfg.Oracle.Path
	if *freqPath != "" {
		path = *freqPath
	}
	var table *oracle.Table
	if settings.UseReferenceScoring {
		table, err = oracle.LoadFile(path)
		if err != nil {
			fatal("loading frequency list: %v", err)
		}
	} else {
		table = oracle.NewTable(nil)
	}

	res := resolver.New(table, resolver.NewMemoryStore(), resolver.Config{Margin: &settings.LemmaMargin})
	ranker := rank.New(table, res, nil)

	rows, err := ranker.Rank(context.Background(), docs, settings, *baseline)
	if err != nil {
		fatal("ranking: %v", err)
	}

	for _, row := range rows {
		fmt.Printf("%s\t%d", row.Word, row.Count)
		if row.Score != nil {
			fmt.Printf("\t%.4f", *row.Score)
		}
		if row.Forms != "" {
			fmt.Printf("\t%s", row.Forms)
		}
		fmt.Println()
	}
}

// readDocuments accepts either a list of documents or a bare token
// array, which becomes a single anonymous document.
func readDocuments(path string) ([]rank.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var docs []rank.Document
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}
	var tokens []resolver.AnnotatedToken
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("input must be a document list or a token list: %w", err)
	}
	return []rank.Document{{ID: "stdin", Tokens: tokens}}, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
