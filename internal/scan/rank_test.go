package scan

import (
	"testing"
)

func scoredEntry(ticker string, score float64) ScoreEntry {
	s := score
	iv, rv := 0.3, 0.2
	return ScoreEntry{Ticker: ticker, IV: &iv, RV: &rv, Score: &s}
}

func unscoredEntry(ticker string, reason Reason) ScoreEntry {
	return ScoreEntry{Ticker: ticker, Reason: reason}
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	entries := []ScoreEntry{
		scoredEntry("LOW", 0.1),
		scoredEntry("HIGH", 0.9),
		scoredEntry("MID", 0.5),
	}

	out := Rank(entries, 10, 10)
	got := []string{out[0].Ticker, out[1].Ticker, out[2].Ticker}
	want := []string{"HIGH", "MID", "LOW"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank order %v, want %v", got, want)
		}
	}
}

func TestRankNeverInterleavesUnscored(t *testing.T) {
	entries := []ScoreEntry{
		unscoredEntry("U1", ReasonNoSpot),
		scoredEntry("S1", 0.2),
		unscoredEntry("U2", ReasonNoChain),
		scoredEntry("S2", 0.8),
	}

	out := Rank(entries, 10, 10)
	if len(out) != 4 {
		t.Fatalf("got %d entries, want 4", len(out))
	}
	if out[0].Ticker != "S2" || out[1].Ticker != "S1" {
		t.Fatalf("scored block wrong: %s, %s", out[0].Ticker, out[1].Ticker)
	}
	// Unscored entries keep their input order after the scored block.
	if out[2].Ticker != "U1" || out[3].Ticker != "U2" {
		t.Fatalf("unscored block wrong: %s, %s", out[2].Ticker, out[3].Ticker)
	}
}

func TestRankTruncatesBothBlocks(t *testing.T) {
	entries := make([]ScoreEntry, 0)
	for i := 0; i < 5; i++ {
		entries = append(entries, scoredEntry("S", float64(i)))
	}
	for i := 0; i < 15; i++ {
		entries = append(entries, unscoredEntry("U", ReasonError))
	}

	out := Rank(entries, 3, 10)
	if len(out) != 13 {
		t.Fatalf("got %d entries, want 3 scored + 10 unscored", len(out))
	}
	scored := 0
	for _, e := range out {
		if e.Scored() {
			scored++
		}
	}
	if scored != 3 {
		t.Fatalf("got %d scored entries, want 3", scored)
	}
}

func TestRankIndependentOfInputOrderForScored(t *testing.T) {
	a := []ScoreEntry{scoredEntry("A", 0.3), scoredEntry("B", 0.7), scoredEntry("C", 0.5)}
	b := []ScoreEntry{scoredEntry("C", 0.5), scoredEntry("A", 0.3), scoredEntry("B", 0.7)}

	outA := Rank(a, 10, 10)
	outB := Rank(b, 10, 10)
	for i := range outA {
		if outA[i].Ticker != outB[i].Ticker {
			t.Fatalf("order depends on input permutation: %v vs %v", outA[i].Ticker, outB[i].Ticker)
		}
	}
}
