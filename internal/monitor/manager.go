package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sitepulse/pulse/internal/alert"
	"github.com/sitepulse/pulse/internal/baseline"
	"github.com/sitepulse/pulse/internal/model"
	"github.com/sitepulse/pulse/internal/vitals"
)

// ErrNilSnapshot is returned when Run is called without a snapshot.
var ErrNilSnapshot = errors.New("monitor: nil snapshot")

// Config holds tunable parameters for the monitoring manager.
type Config struct {
	// MinSaveInterval is the minimum age of the latest matching baseline
	// before a new one is saved. Defaults to 24h.
	MinSaveInterval time.Duration
	// BaselineMaxAge bounds how old a baseline may get before the scheduled
	// cleanup removes it. Defaults to model.DefaultBaselineMaxAge.
	BaselineMaxAge time.Duration
	// CleanupSchedule is a cron expression for periodic baseline cleanup.
	// Empty disables scheduling.
	CleanupSchedule string
	// SupportedLocales are the locale path segments recognized when deriving
	// a locale from a URL. Defaults to en and zh.
	SupportedLocales []string
}

// RunResult is the outcome of one monitoring cycle.
type RunResult struct {
	Snapshot   *model.VitalsSnapshot   `json:"snapshot"`
	Baseline   *model.Baseline         `json:"baseline,omitempty"`
	Regression *model.RegressionResult `json:"regression,omitempty"`
	Alerts     []model.Alert           `json:"alerts,omitempty"`
	Saved      *model.Baseline         `json:"savedBaseline,omitempty"`
	Report     string                  `json:"report"`
}

// Summary is the condensed health view of one snapshot.
type Summary struct {
	Score    int                           `json:"score"`
	Grade    string                        `json:"grade"`
	Statuses map[string]model.MetricStatus `json:"statuses"`
}

// Manager drives the monitoring cycle: baseline lookup, regression
// comparison, alerting, and baseline rotation.
type Manager struct {
	baselines *baseline.Manager
	alerter   *alert.Alerter

	minGap  time.Duration
	maxAge  time.Duration
	sched   string
	locales []string

	mu          sync.Mutex
	cron        *cron.Cron
	initialized bool

	now func() time.Time
}

// NewManager creates a monitoring manager over the given baseline manager
// and alerter.
func NewManager(baselines *baseline.Manager, alerter *alert.Alerter, conf ...Config) *Manager {
	minGap := model.DefaultBaselineMinGap
	maxAge := model.DefaultBaselineMaxAge
	sched := ""
	locales := []string{"en", "zh"}
	if len(conf) > 0 {
		if conf[0].MinSaveInterval > 0 {
			minGap = conf[0].MinSaveInterval
		}
		if conf[0].BaselineMaxAge > 0 {
			maxAge = conf[0].BaselineMaxAge
		}
		sched = conf[0].CleanupSchedule
		if len(conf[0].SupportedLocales) > 0 {
			locales = conf[0].SupportedLocales
		}
	}

	return &Manager{
		baselines: baselines,
		alerter:   alerter,
		minGap:    minGap,
		maxAge:    maxAge,
		sched:     sched,
		locales:   locales,
		now:       time.Now,
	}
}

// Initialize starts the scheduled baseline cleanup. Calling it more than
// once is a no-op.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	m.initialized = true

	if m.sched == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(m.sched, m.runCleanup); err != nil {
		m.initialized = false
		return fmt.Errorf("monitor: invalid cleanup schedule %q: %w", m.sched, err)
	}
	c.Start()
	m.cron = c

	log.Printf("monitor: baseline cleanup scheduled (cron: %s)", m.sched)
	return nil
}

// Stop halts the cleanup scheduler. Safe to call without Initialize.
func (m *Manager) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.initialized = false
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

func (m *Manager) runCleanup() {
	if removed := m.baselines.CleanupOld(m.maxAge); removed > 0 {
		log.Printf("monitor: cleanup removed %d expired baselines", removed)
	}
}

// Run executes one monitoring cycle for a snapshot: match the most recent
// baseline, compare for regressions, fire alerts, and rotate in a new
// baseline when the latest matching one is older than the save interval.
func (m *Manager) Run(ctx context.Context, snapshot *model.VitalsSnapshot, buildInfo *model.BuildInfo) (*RunResult, error) {
	if snapshot == nil {
		log.Printf("monitor: run called without a snapshot")
		return nil, ErrNilSnapshot
	}
	if err := ctx.Err(); err != nil {
		log.Printf("monitor: run aborted: %v", err)
		return nil, err
	}

	page, locale := m.resolvePageLocale(snapshot)

	result := &RunResult{Snapshot: snapshot}
	result.Baseline = m.baselines.Recent(page, locale)

	if result.Baseline != nil {
		result.Regression = vitals.DetectRegression(snapshot.WebVitals, result.Baseline)
	}

	if m.alerter != nil {
		result.Alerts = m.alerter.Check(snapshot, result.Regression)
	}

	if m.shouldSaveBaseline(result.Baseline) {
		saved := m.baselines.Save(snapshot, buildInfo)
		result.Saved = &saved
	}

	result.Report = buildReport(result)
	log.Printf("monitor: run page=%s locale=%s %s", page, locale, statusLine(snapshot.WebVitals))
	return result, nil
}

// Summary returns the condensed score, grade, and per-metric statuses for a
// snapshot without touching baselines or alerts.
func (m *Manager) Summary(snapshot *model.VitalsSnapshot) Summary {
	score := vitals.Score(snapshot.WebVitals)
	statuses := make(map[string]model.MetricStatus)
	for metric, value := range vitals.CoreValues(snapshot.WebVitals) {
		statuses[metric] = vitals.Rate(metric, value)
	}
	return Summary{
		Score:    score,
		Grade:    vitals.Grade(score),
		Statuses: statuses,
	}
}

// shouldSaveBaseline applies the rotation policy: save when there is no
// matching baseline, or the latest one is older than the save interval.
func (m *Manager) shouldSaveBaseline(latest *model.Baseline) bool {
	if latest == nil {
		return true
	}
	return m.now().Sub(latest.Timestamp) >= m.minGap
}

// resolvePageLocale returns the snapshot's page and locale, deriving either
// from the URL path when missing.
func (m *Manager) resolvePageLocale(snapshot *model.VitalsSnapshot) (page, locale string) {
	page = snapshot.Page
	locale = snapshot.Locale
	if (page != "" && locale != "") || snapshot.URL == "" {
		return page, locale
	}

	path := snapshot.URL
	if idx := strings.Index(path, "://"); idx >= 0 {
		path = path[idx+3:]
		if slash := strings.Index(path, "/"); slash >= 0 {
			path = path[slash:]
		} else {
			path = "/"
		}
	}
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}

	for _, l := range m.locales {
		if strings.HasPrefix(path, "/"+l+"/") {
			if locale == "" {
				locale = l
			}
			path = path[len(l)+1:]
			break
		}
		if path == "/"+l {
			if locale == "" {
				locale = l
			}
			path = "/"
			break
		}
	}
	if page == "" {
		page = path
	}
	return page, locale
}
