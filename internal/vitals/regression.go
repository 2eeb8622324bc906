package vitals

import (
	"time"

	"github.com/sitepulse/pulse/internal/model"
)

// regressionChangePercent is the minimum relative worsening before a metric
// can be flagged. A tier downgrade alone is not enough: both conditions must
// hold so a value hovering around a cutoff does not flap.
const regressionChangePercent = 20.0

// DetectRegression compares current metrics against a stored baseline.
// A metric counts as regressed when it worsened by more than 20% relative to
// the baseline AND its status tier degraded. Metrics absent from either side
// (zero value) are skipped.
func DetectRegression(current model.WebVitals, baseline *model.Baseline) *model.RegressionResult {
	if baseline == nil {
		return nil
	}

	result := &model.RegressionResult{
		BaselineID: baseline.ID,
		CheckedAt:  time.Now().UTC(),
	}

	curValues := CoreValues(current)
	baseValues := CoreValues(baseline.Metrics)

	for _, metric := range []string{"cls", "lcp", "fid", "fcp", "ttfb", "inp"} {
		base := baseValues[metric]
		cur := curValues[metric]
		if base <= 0 || cur <= 0 {
			continue
		}

		change := (cur - base) / base * 100
		baseStatus := Rate(metric, base)
		curStatus := Rate(metric, cur)

		delta := model.MetricDelta{
			Metric:         metric,
			Baseline:       base,
			Current:        cur,
			ChangePercent:  change,
			BaselineStatus: baseStatus,
			CurrentStatus:  curStatus,
			Regressed:      change > regressionChangePercent && statusRank(curStatus) > statusRank(baseStatus),
		}
		if delta.Regressed {
			result.Regressed = true
		}
		result.Deltas = append(result.Deltas, delta)
	}

	return result
}

func statusRank(s model.MetricStatus) int {
	switch s {
	case model.StatusGood:
		return 0
	case model.StatusNeedsImprovement:
		return 1
	case model.StatusPoor:
		return 2
	default:
		return 0
	}
}
