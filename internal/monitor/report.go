package monitor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sitepulse/pulse/internal/model"
	"github.com/sitepulse/pulse/internal/vitals"
)

// buildReport renders one monitoring cycle as a plain-text report.
func buildReport(result *RunResult) string {
	var b strings.Builder

	snapshot := result.Snapshot
	score := vitals.Score(snapshot.WebVitals)

	fmt.Fprintf(&b, "Performance report for %s", snapshot.Page)
	if snapshot.Locale != "" {
		fmt.Fprintf(&b, " [%s]", snapshot.Locale)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Score: %d (%s)\n", score, vitals.Grade(score))

	values := vitals.CoreValues(snapshot.WebVitals)
	metrics := make([]string, 0, len(values))
	for metric := range values {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	for _, metric := range metrics {
		value := values[metric]
		status := vitals.Rate(metric, value)
		fmt.Fprintf(&b, "  %s %-4s %s (%s)\n",
			vitals.Glyph(status), metric, formatValue(metric, value), status)
	}

	switch {
	case result.Baseline == nil:
		b.WriteString("No baseline for comparison; this run establishes one.\n")
	case result.Regression != nil && result.Regression.Regressed:
		fmt.Fprintf(&b, "REGRESSION against baseline %s:\n", result.Regression.BaselineID)
		for _, delta := range result.Regression.Deltas {
			if !delta.Regressed {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s -> %s (%+.1f%%)\n",
				delta.Metric,
				formatValue(delta.Metric, delta.Baseline),
				formatValue(delta.Metric, delta.Current),
				delta.ChangePercent)
		}
	default:
		fmt.Fprintf(&b, "No regression against baseline %s.\n", result.Baseline.ID)
	}

	if len(result.Alerts) > 0 {
		fmt.Fprintf(&b, "Alerts fired: %d\n", len(result.Alerts))
		for _, alert := range result.Alerts {
			fmt.Fprintf(&b, "  [%s] %s\n", alert.Severity, alert.Message)
		}
	}

	if result.Saved != nil {
		fmt.Fprintf(&b, "Saved new baseline %s.\n", result.Saved.ID)
	}

	return b.String()
}

func formatValue(metric string, value float64) string {
	if value <= 0 {
		return "-"
	}
	if metric == "cls" {
		return fmt.Sprintf("%.3f", value)
	}
	return fmt.Sprintf("%.0fms", value)
}

// statusLine is a compact one-line health summary used by logs.
func statusLine(m model.WebVitals) string {
	score := vitals.Score(m)
	return fmt.Sprintf("score=%d grade=%s lcp=%s cls=%s inp=%s",
		score, vitals.Grade(score),
		formatValue("lcp", m.LCP), formatValue("cls", m.CLS), formatValue("inp", m.INP))
}
