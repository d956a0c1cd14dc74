package universe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"vol-scanner/internal/storage"
)

// LoadCSV reads a ticker universe from a one-column CSV file. Header rows
// ("symbol"/"ticker") are skipped, symbols are trimmed, uppercased, and
// share-class dots are rewritten to dashes (BRK.B -> BRK-B). The result is
// deduplicated and sorted.
func LoadCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe csv: %w", err)
	}
	defer file.Close()

	raw := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		// Tolerate multi-column rows by taking the first field.
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if idx := strings.IndexByte(line, ','); idx >= 0 {
			line = line[:idx]
		}
		raw = append(raw, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read universe csv: %w", err)
	}

	return Normalize(raw), nil
}

// Normalize canonicalises raw ticker strings: trim, uppercase, dots to
// dashes, drop header tokens and blanks, dedupe, sort.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tickers := make([]string, 0, len(raw))
	for _, r := range raw {
		t := strings.ToUpper(strings.TrimSpace(r))
		if t == "" || t == "SYMBOL" || t == "TICKER" {
			continue
		}
		t = strings.ReplaceAll(t, ".", "-")
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Refresh loads the CSV universe and replaces the stored one.
func Refresh(ctx context.Context, store storage.UniverseStore, path string) (int, error) {
	tickers, err := LoadCSV(path)
	if err != nil {
		return 0, err
	}
	if len(tickers) == 0 {
		return 0, fmt.Errorf("universe csv %s contains no tickers", path)
	}
	if err := store.ReplaceUniverse(ctx, tickers); err != nil {
		return 0, fmt.Errorf("replace universe: %w", err)
	}
	return len(tickers), nil
}
