package alert

import (
	"fmt"
	"log"
	"time"

	"github.com/sitepulse/pulse/internal/model"
	"github.com/sitepulse/pulse/internal/vitals"
)

// Notifier delivers fired alerts to one destination.
type Notifier interface {
	Name() string
	Notify(alert model.Alert) error
}

// Alerter evaluates snapshots against thresholds and fans alerts out to the
// configured notifiers. Notifier failures are logged, never fatal.
type Alerter struct {
	notifiers []Notifier
	now       func() time.Time
}

// NewAlerter creates an alerter that fans out to the given notifiers.
func NewAlerter(notifiers ...Notifier) *Alerter {
	return &Alerter{
		notifiers: notifiers,
		now:       time.Now,
	}
}

// Check evaluates one snapshot plus an optional regression result and returns
// every alert fired. Poor-tier metric values fire warnings; a confirmed
// regression fires one critical alert per regressed metric.
func (a *Alerter) Check(snapshot *model.VitalsSnapshot, regression *model.RegressionResult) []model.Alert {
	var alerts []model.Alert

	for metric, value := range vitals.CoreValues(snapshot.WebVitals) {
		if value <= 0 {
			continue
		}
		if vitals.Rate(metric, value) != model.StatusPoor {
			continue
		}
		alerts = append(alerts, model.Alert{
			Severity: model.SeverityWarning,
			Metric:   metric,
			Value:    value,
			Message:  fmt.Sprintf("%s is in the poor range: %s", metric, formatMetricValue(metric, value)),
			Page:     snapshot.Page,
			FiredAt:  a.now(),
		})
	}

	if regression != nil && regression.Regressed {
		for _, delta := range regression.Deltas {
			if !delta.Regressed {
				continue
			}
			alerts = append(alerts, model.Alert{
				Severity: model.SeverityCritical,
				Metric:   delta.Metric,
				Value:    delta.Current,
				Message: fmt.Sprintf("%s regressed %+.1f%% against baseline %s (%s -> %s)",
					delta.Metric, delta.ChangePercent, regression.BaselineID,
					delta.BaselineStatus, delta.CurrentStatus),
				Page:    snapshot.Page,
				FiredAt: a.now(),
			})
		}
	}

	for _, alert := range alerts {
		a.dispatch(alert)
	}
	return alerts
}

func (a *Alerter) dispatch(alert model.Alert) {
	for _, n := range a.notifiers {
		if err := n.Notify(alert); err != nil {
			log.Printf("alert: notifier %s failed: %v", n.Name(), err)
		}
	}
}

// formatMetricValue renders a metric value with its unit. CLS is unitless,
// everything else is milliseconds.
func formatMetricValue(metric string, value float64) string {
	if metric == "cls" {
		return fmt.Sprintf("%.3f", value)
	}
	return fmt.Sprintf("%.0fms", value)
}
