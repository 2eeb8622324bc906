package alert

import (
	"errors"
	"testing"
	"time"

	"github.com/sitepulse/pulse/internal/model"
)

type captureNotifier struct {
	alerts []model.Alert
	err    error
}

func (c *captureNotifier) Name() string { return "capture" }

func (c *captureNotifier) Notify(a model.Alert) error {
	c.alerts = append(c.alerts, a)
	return c.err
}

func goodSnapshot() *model.VitalsSnapshot {
	s := &model.VitalsSnapshot{Page: "/products"}
	s.CLS = 0.05
	s.LCP = 2000
	s.FID = 50
	s.FCP = 1500
	s.TTFB = 400
	s.INP = 150
	return s
}

func TestCheck_NoAlertsForGoodMetrics(t *testing.T) {
	n := &captureNotifier{}
	a := NewAlerter(n)

	alerts := a.Check(goodSnapshot(), nil)
	if len(alerts) != 0 {
		t.Errorf("Check fired %d alerts for good metrics, want 0", len(alerts))
	}
	if len(n.alerts) != 0 {
		t.Errorf("notifier received %d alerts, want 0", len(n.alerts))
	}
}

func TestCheck_PoorMetricFiresWarning(t *testing.T) {
	n := &captureNotifier{}
	a := NewAlerter(n)

	snap := goodSnapshot()
	snap.LCP = 4500 // past the poor threshold of 4000

	alerts := a.Check(snap, nil)
	if len(alerts) != 1 {
		t.Fatalf("Check fired %d alerts, want 1", len(alerts))
	}
	if alerts[0].Severity != model.SeverityWarning {
		t.Errorf("severity = %s, want warning", alerts[0].Severity)
	}
	if alerts[0].Metric != "lcp" || alerts[0].Value != 4500 {
		t.Errorf("alert = %s/%v, want lcp/4500", alerts[0].Metric, alerts[0].Value)
	}
	if alerts[0].Page != "/products" {
		t.Errorf("page = %s, want /products", alerts[0].Page)
	}
	if len(n.alerts) != 1 {
		t.Errorf("notifier received %d alerts, want 1", len(n.alerts))
	}
}

func TestCheck_UnmeasuredMetricsSkipped(t *testing.T) {
	a := NewAlerter()

	snap := &model.VitalsSnapshot{Page: "/"}
	// All metrics zero: nothing was measured, nothing should fire.
	if alerts := a.Check(snap, nil); len(alerts) != 0 {
		t.Errorf("Check fired %d alerts for unmeasured snapshot, want 0", len(alerts))
	}
}

func TestCheck_RegressionFiresCritical(t *testing.T) {
	n := &captureNotifier{}
	a := NewAlerter(n)

	regression := &model.RegressionResult{
		BaselineID: "b-123",
		Regressed:  true,
		CheckedAt:  time.Now(),
		Deltas: []model.MetricDelta{
			{
				Metric:         "lcp",
				Baseline:       2000,
				Current:        4200,
				ChangePercent:  110,
				BaselineStatus: model.StatusGood,
				CurrentStatus:  model.StatusPoor,
				Regressed:      true,
			},
			{
				Metric:        "fid",
				Baseline:      50,
				Current:       55,
				ChangePercent: 10,
				Regressed:     false,
			},
		},
	}

	snap := goodSnapshot()
	snap.LCP = 4200

	alerts := a.Check(snap, regression)

	var criticals int
	for _, alert := range alerts {
		if alert.Severity == model.SeverityCritical {
			criticals++
			if alert.Metric != "lcp" {
				t.Errorf("critical alert metric = %s, want lcp", alert.Metric)
			}
		}
	}
	if criticals != 1 {
		t.Errorf("fired %d critical alerts, want 1 (only regressed deltas)", criticals)
	}
}

func TestCheck_NonRegressedResultFiresNothingExtra(t *testing.T) {
	a := NewAlerter()

	regression := &model.RegressionResult{
		Regressed: false,
		Deltas:    []model.MetricDelta{{Metric: "lcp", Regressed: false}},
	}

	if alerts := a.Check(goodSnapshot(), regression); len(alerts) != 0 {
		t.Errorf("Check fired %d alerts, want 0", len(alerts))
	}
}

func TestCheck_NotifierFailureIsNotFatal(t *testing.T) {
	failing := &captureNotifier{err: errors.New("slack down")}
	working := &captureNotifier{}
	a := NewAlerter(failing, working)

	snap := goodSnapshot()
	snap.CLS = 0.4

	alerts := a.Check(snap, nil)
	if len(alerts) != 1 {
		t.Fatalf("Check fired %d alerts, want 1", len(alerts))
	}
	if len(working.alerts) != 1 {
		t.Errorf("second notifier received %d alerts despite first failing, want 1", len(working.alerts))
	}
}

func TestFormatMetricValue(t *testing.T) {
	if got := formatMetricValue("cls", 0.254); got != "0.254" {
		t.Errorf("cls format = %s, want 0.254", got)
	}
	if got := formatMetricValue("lcp", 4200); got != "4200ms" {
		t.Errorf("lcp format = %s, want 4200ms", got)
	}
}
