// Package vitals rates, collects, and compares browser performance metrics.
package vitals

import "github.com/sitepulse/pulse/internal/model"

// Threshold holds the rating cutoffs for one metric. Values at or below Good
// rate good; values at or below NeedsImprovement rate needs-improvement;
// anything above rates poor.
type Threshold struct {
	Good             float64
	NeedsImprovement float64
}

// Thresholds is the shared per-metric rating table. CLS is unitless, the
// rest are milliseconds. Cutoffs follow the web-vitals rating tiers.
var Thresholds = map[string]Threshold{
	"cls":  {Good: 0.1, NeedsImprovement: 0.25},
	"lcp":  {Good: 2500, NeedsImprovement: 4000},
	"fid":  {Good: 100, NeedsImprovement: 300},
	"fcp":  {Good: 1800, NeedsImprovement: 3000},
	"ttfb": {Good: 800, NeedsImprovement: 1800},
	"inp":  {Good: 200, NeedsImprovement: 500},
}

// Rate returns the traffic-light status for one metric value.
// Unknown metric names and unmeasured (zero) values rate unknown.
func Rate(metric string, value float64) model.MetricStatus {
	t, ok := Thresholds[metric]
	if !ok || value <= 0 {
		return model.StatusUnknown
	}
	switch {
	case value <= t.Good:
		return model.StatusGood
	case value <= t.NeedsImprovement:
		return model.StatusNeedsImprovement
	default:
		return model.StatusPoor
	}
}

// Glyph returns the report glyph for a status.
func Glyph(status model.MetricStatus) string {
	switch status {
	case model.StatusGood:
		return "🟢"
	case model.StatusNeedsImprovement:
		return "🟡"
	case model.StatusPoor:
		return "🔴"
	default:
		return "⚪"
	}
}

// Score computes a coarse 0-100 score from the core metrics. It starts at 100
// and subtracts a fixed penalty per threshold tier exceeded.
func Score(m model.WebVitals) int {
	score := 100

	switch {
	case m.CLS > Thresholds["cls"].NeedsImprovement:
		score -= 30
	case m.CLS > Thresholds["cls"].Good:
		score -= 15
	}

	switch {
	case m.LCP > Thresholds["lcp"].NeedsImprovement:
		score -= 30
	case m.LCP > Thresholds["lcp"].Good:
		score -= 15
	}

	switch {
	case m.FID > Thresholds["fid"].NeedsImprovement:
		score -= 25
	case m.FID > Thresholds["fid"].Good:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	return score
}

// Grade maps a score to a letter grade.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 50:
		return "C"
	default:
		return "D"
	}
}

// CoreValues returns the comparable metric values of m keyed by metric name.
// Only metrics with a rating threshold are included.
func CoreValues(m model.WebVitals) map[string]float64 {
	return map[string]float64{
		"cls":  m.CLS,
		"lcp":  m.LCP,
		"fid":  m.FID,
		"fcp":  m.FCP,
		"ttfb": m.TTFB,
		"inp":  m.INP,
	}
}
