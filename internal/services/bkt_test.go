package services

import (
	"math"
	"testing"
)

func TestUpdatePKnowCorrectFromNeutral(t *testing.T) {
	next := UpdatePKnow(0.5, true, DefaultBKTParams())
	if got := StoredPKnow(next); got != 83 {
		t.Fatalf("expected stored 83 after one correct from neutral, got %d (%.4f)", got, next)
	}
}

func TestUpdatePKnowIncorrectFromNeutral(t *testing.T) {
	next := UpdatePKnow(0.5, false, DefaultBKTParams())
	if next >= 0.5 {
		t.Fatalf("incorrect answer must lower the estimate, got %.4f", next)
	}
	if got := StoredPKnow(next); got != 10 {
		t.Fatalf("expected stored 10 after one incorrect from neutral, got %d (%.4f)", got, next)
	}
}

func TestUpdatePKnowStaysInRange(t *testing.T) {
	params := DefaultBKTParams()
	for _, prior := range []float64{-0.5, 0, 0.001, 0.25, 0.5, 0.75, 0.999, 1, 1.5} {
		for _, correct := range []bool{true, false} {
			next := UpdatePKnow(prior, correct, params)
			if next < 0 || next > 1 {
				t.Fatalf("UpdatePKnow(%v, %v) = %v out of [0,1]", prior, correct, next)
			}
		}
	}
}

func TestUpdatePKnowMonotonicInEvidence(t *testing.T) {
	params := DefaultBKTParams()
	for _, prior := range []float64{0.1, 0.5, 0.9} {
		up := UpdatePKnow(prior, true, params)
		down := UpdatePKnow(prior, false, params)
		if up <= down {
			t.Fatalf("prior %.2f: correct (%.4f) must beat incorrect (%.4f)", prior, up, down)
		}
		if up < prior {
			t.Fatalf("prior %.2f: correct answer lowered the estimate to %.4f", prior, up)
		}
		if down > prior {
			t.Fatalf("prior %.2f: incorrect answer raised the estimate to %.4f", prior, down)
		}
	}
}

func TestUpdatePKnowZeroDenominator(t *testing.T) {
	// prior 0 with zero guess makes the evidence denominator collapse; the
	// posterior falls back to 0 and only the transition moves the estimate.
	params := BKTParams{Slip: 0.1, Guess: 0, Transit: 0.15}
	next := UpdatePKnow(0, true, params)
	if math.Abs(next-0.15) > 1e-9 {
		t.Fatalf("expected transit-only update 0.15, got %v", next)
	}
}

func TestStoredPKnowRoundTrip(t *testing.T) {
	if got := StoredPKnow(0.831818); got != 83 {
		t.Fatalf("StoredPKnow(0.831818) = %d, want 83", got)
	}
	if got := StoredPKnow(1.7); got != 100 {
		t.Fatalf("StoredPKnow clamps high, got %d", got)
	}
	if got := StoredPKnow(-0.2); got != 0 {
		t.Fatalf("StoredPKnow clamps low, got %d", got)
	}
	if got := PKnowFromStored(50); got != 0.5 {
		t.Fatalf("PKnowFromStored(50) = %v, want 0.5", got)
	}
}
