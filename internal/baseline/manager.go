// Package baseline maintains the rolling set of performance baselines that
// regression detection compares page loads against.
package baseline

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sitepulse/pulse/internal/model"
	"github.com/sitepulse/pulse/internal/vitals"
)

// Config holds tunable parameters for the baseline manager.
type Config struct {
	MaxBaselines int
	Environment  string
}

// Manager owns the capped, append-only baseline list. Baselines are held in
// insertion order; when the cap is exceeded the oldest entries are evicted
// from the front. Persistence failures are logged and never surfaced to the
// page-serving path.
type Manager struct {
	mu        sync.Mutex
	store     model.BaselineStore
	baselines []model.Baseline
	max       int
	env       string
	now       func() time.Time
}

// NewManager creates a manager backed by store. Existing baselines are loaded
// eagerly; a load failure starts the manager empty rather than failing boot.
func NewManager(store model.BaselineStore, conf ...Config) *Manager {
	maxBaselines := model.DefaultMaxBaselines
	env := model.DefaultEnvironment
	if len(conf) > 0 {
		if conf[0].MaxBaselines > 0 {
			maxBaselines = conf[0].MaxBaselines
		}
		if conf[0].Environment != "" {
			env = conf[0].Environment
		}
	}

	m := &Manager{
		store: store,
		max:   maxBaselines,
		env:   env,
		now:   time.Now,
	}

	loaded, err := store.LoadBaselines()
	if err != nil {
		log.Printf("baseline: load failed, starting empty: %v", err)
		return m
	}
	if len(loaded) > maxBaselines {
		loaded = loaded[len(loaded)-maxBaselines:]
	}
	m.baselines = loaded
	return m
}

// Save records a new baseline built from snapshot and evicts the oldest
// entries beyond the cap. The created baseline is returned.
func (m *Manager) Save(snapshot *model.VitalsSnapshot, buildInfo *model.BuildInfo) model.Baseline {
	b := model.Baseline{
		ID:          uuid.NewString(),
		Timestamp:   m.now().UTC(),
		URL:         snapshot.URL,
		UserAgent:   snapshot.UserAgent,
		Connection:  snapshot.Connection,
		Metrics:     snapshot.WebVitals,
		Score:       vitals.Score(snapshot.WebVitals),
		Environment: m.env,
		BuildInfo:   buildInfo,
	}

	m.mu.Lock()
	m.baselines = append(m.baselines, b)
	if over := len(m.baselines) - m.max; over > 0 {
		m.baselines = append(m.baselines[:0:0], m.baselines[over:]...)
	}
	m.persistLocked()
	m.mu.Unlock()

	return b
}

// Recent returns the most recent baseline whose URL matches the page path
// and/or /{locale}/ segment, or nil when no baseline matches.
func (m *Manager) Recent(page, locale string) *model.Baseline {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.baselines) - 1; i >= 0; i-- {
		b := m.baselines[i]
		if page != "" && !strings.Contains(b.URL, page) {
			continue
		}
		if locale != "" && !strings.Contains(b.URL, "/"+locale+"/") && !strings.HasSuffix(b.URL, "/"+locale) {
			continue
		}
		out := b
		return &out
	}
	return nil
}

// CleanupOld removes baselines older than maxAge and persists only when
// something was removed. Returns the number removed.
func (m *Manager) CleanupOld(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.baselines[:0:0]
	for _, b := range m.baselines {
		if b.Timestamp.After(cutoff) {
			kept = append(kept, b)
		}
	}
	removed := len(m.baselines) - len(kept)
	if removed > 0 {
		m.baselines = kept
		m.persistLocked()
	}
	return removed
}

// All returns a copy of the stored baselines in insertion order.
func (m *Manager) All() []model.Baseline {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Baseline, len(m.baselines))
	copy(out, m.baselines)
	return out
}

// Len returns the number of stored baselines.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.baselines)
}

func (m *Manager) persistLocked() {
	snapshot := make([]model.Baseline, len(m.baselines))
	copy(snapshot, m.baselines)
	if err := m.store.SaveBaselines(snapshot); err != nil {
		log.Printf("baseline: persist failed: %v", err)
	}
}
