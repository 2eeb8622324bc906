package vitals

import (
	"testing"

	"github.com/sitepulse/pulse/internal/model"
)

func TestRate(t *testing.T) {
	cases := []struct {
		metric string
		value  float64
		want   model.MetricStatus
	}{
		{"cls", 0.05, model.StatusGood},
		{"cls", 0.2, model.StatusNeedsImprovement},
		{"cls", 0.3, model.StatusPoor},
		{"lcp", 2500, model.StatusGood},
		{"lcp", 4001, model.StatusPoor},
		{"ttfb", 1000, model.StatusNeedsImprovement},
		{"inp", 150, model.StatusGood},
		{"bogus", 10, model.StatusUnknown},
		{"lcp", 0, model.StatusUnknown},
	}
	for _, tc := range cases {
		if got := Rate(tc.metric, tc.value); got != tc.want {
			t.Errorf("Rate(%s, %v) = %s, want %s", tc.metric, tc.value, got, tc.want)
		}
	}
}

func TestScore(t *testing.T) {
	good := model.WebVitals{CLS: 0.05, LCP: 2000, FID: 50}
	if got := Score(good); got != 100 {
		t.Fatalf("Score(good) = %d, want 100", got)
	}

	poor := model.WebVitals{CLS: 0.4, LCP: 5000, FID: 400}
	if got := Score(poor); got != 15 {
		t.Fatalf("Score(poor) = %d, want 15", got)
	}

	mid := model.WebVitals{CLS: 0.15, LCP: 3000, FID: 150}
	if got := Score(mid); got != 60 {
		t.Fatalf("Score(mid) = %d, want 60", got)
	}
}

func TestGrade(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {75, "B"}, {74, "C"}, {50, "C"}, {49, "D"}, {0, "D"},
	}
	for _, tc := range cases {
		if got := Grade(tc.score); got != tc.want {
			t.Errorf("Grade(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
