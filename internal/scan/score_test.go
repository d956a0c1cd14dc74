package scan

import (
	"math"
	"testing"
)

func TestScoreKnownValues(t *testing.T) {
	gap, score := Score(f(0.35), f(0.25))
	if gap == nil || score == nil {
		t.Fatal("expected both measures present")
	}
	if math.Abs(*gap-0.10) > 1e-9 {
		t.Fatalf("gap = %v, want 0.10", *gap)
	}
	if math.Abs(*score-0.4) > 1e-9 {
		t.Fatalf("score = %v, want 0.4", *score)
	}
}

func TestScoreAbsentInputs(t *testing.T) {
	if gap, score := Score(nil, f(0.25)); gap != nil || score != nil {
		t.Fatal("missing iv must yield absent measures")
	}
	if gap, score := Score(f(0.35), nil); gap != nil || score != nil {
		t.Fatal("missing rv must yield absent measures")
	}
}

func TestScoreZeroRealizedVol(t *testing.T) {
	// rv of zero would divide by zero; both measures stay absent.
	if gap, score := Score(f(0.35), f(0)); gap != nil || score != nil {
		t.Fatal("zero rv must yield absent measures")
	}
}
