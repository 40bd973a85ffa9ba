package stats_test

import (
	"testing"

	"github.com/splitkit/splitkit/internal/stats"
)

func TestWilsonInterval_50PercentConversion(t *testing.T) {
	// 50 successes out of 100 trials
	lower, upper := stats.WilsonInterval(50, 100, 0.95)

	// Expected: approximately [0.40, 0.60] with some tolerance
	if lower < 0.38 || lower > 0.42 {
		t.Errorf("lower bound %f not in expected range [0.38, 0.42]", lower)
	}
	if upper < 0.58 || upper > 0.62 {
		t.Errorf("upper bound %f not in expected range [0.58, 0.62]", upper)
	}
}

func TestWilsonInterval_ZeroTrials(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 0, 0.95)

	if lower != 0 || upper != 0 {
		t.Errorf("expected (0, 0) for zero trials, got (%f, %f)", lower, upper)
	}
}

func TestWilsonInterval_Clamped(t *testing.T) {
	lower, _ := stats.WilsonInterval(0, 100, 0.95)
	if lower != 0 {
		t.Errorf("expected lower bound 0, got %f", lower)
	}

	_, upper := stats.WilsonInterval(100, 100, 0.95)
	if upper > 1.0 {
		t.Errorf("expected upper bound <= 1, got %f", upper)
	}
}

func TestWilsonInterval_SmallSampleIsWide(t *testing.T) {
	lower, upper := stats.WilsonInterval(5, 10, 0.95)

	if width := upper - lower; width < 0.3 {
		t.Errorf("interval width %f too narrow for small sample", width)
	}
}

func TestSignificance_NoData(t *testing.T) {
	if got := stats.Significance(0, 0, 0, 0); got != 0.5 {
		t.Errorf("expected 0.5 with no data, got %f", got)
	}
	if got := stats.Significance(5, 100, 0, 0); got != 0.5 {
		t.Errorf("expected 0.5 with one-sided data, got %f", got)
	}
}

func TestSignificance_ClearWinner(t *testing.T) {
	// 20% vs 10% conversion over 1000 exposures each
	conf := stats.Significance(200, 1000, 100, 1000)
	if conf < 0.95 {
		t.Errorf("expected high confidence for a clear winner, got %f", conf)
	}
}

func TestSignificance_ClearLoser(t *testing.T) {
	conf := stats.Significance(100, 1000, 200, 1000)
	if conf > 0.05 {
		t.Errorf("expected low confidence for a clear loser, got %f", conf)
	}
}

func TestSignificance_EvenSplit(t *testing.T) {
	conf := stats.Significance(100, 1000, 100, 1000)
	if conf < 0.45 || conf > 0.55 {
		t.Errorf("expected ~0.5 for identical variants, got %f", conf)
	}
}
