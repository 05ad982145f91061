package oracle

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LoadFile reads a frequency list from a tab- or space-separated file
// of "word<TAB>zipf" lines and returns an in-memory Table. Blank lines
// and lines starting with '#' are skipped. Words are lower-cased so
// lookups match the normalized token stream.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frequency list %s: %w", path, err)
	}
	defer f.Close()

	zipf := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("frequency list %s line %d: expected \"word zipf\", got %q", path, lineNo, line)
		}
		z, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("frequency list %s line %d: parsing zipf %q: %w", path, lineNo, fields[1], err)
		}
		zipf[strings.ToLower(fields[0])] = z
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading frequency list %s: %w", path, err)
	}

	slog.Default().With("component", "oracle").Info("frequency list loaded",
		"path", path,
		"words", len(zipf),
	)
	return NewTable(zipf), nil
}
