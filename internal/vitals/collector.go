package vitals

import (
	"log"
	"sync"

	"github.com/sitepulse/pulse/internal/model"
)

// EntrySource is the capability abstraction the collector observes performance
// entries through. Implementations deliver entries of a kind to registered
// callbacks; Supported reports whether a kind can be observed at all, so an
// absent capability degrades to a skipped observer instead of a failure.
type EntrySource interface {
	Supported(kind model.EntryKind) bool
	Subscribe(kind model.EntryKind, fn func(model.PerformanceEntry)) (unsubscribe func(), err error)
}

// Collector accumulates web-vitals metrics from a stream of performance
// entries. Each metric has its own observer with its own accumulation rule.
type Collector struct {
	mu      sync.Mutex
	metrics model.WebVitals
	fidSeen bool
	unsubs  map[model.EntryKind]func()
	closed  bool
}

// NewCollector registers one observer per metric kind on src. A registration
// failure for one kind is logged and does not prevent the remaining observers
// from registering.
func NewCollector(src EntrySource) *Collector {
	c := &Collector{unsubs: make(map[model.EntryKind]func())}

	c.register(src, model.EntryLayoutShift, c.onLayoutShift)
	c.register(src, model.EntryLCP, c.onLCP)
	c.register(src, model.EntryFirstInput, c.onFirstInput)
	c.register(src, model.EntryPaint, c.onPaint)
	c.register(src, model.EntryEvent, c.onEvent)

	return c
}

func (c *Collector) register(src EntrySource, kind model.EntryKind, fn func(model.PerformanceEntry)) {
	if !src.Supported(kind) {
		return
	}
	unsub, err := src.Subscribe(kind, fn)
	if err != nil {
		log.Printf("vitals: observer for %s unavailable: %v", kind, err)
		return
	}
	c.mu.Lock()
	c.unsubs[kind] = unsub
	c.mu.Unlock()
}

// onLayoutShift sums shift values, excluding shifts caused by recent input.
func (c *Collector) onLayoutShift(e model.PerformanceEntry) {
	if e.HadRecentInput {
		return
	}
	c.mu.Lock()
	c.metrics.CLS += e.Value
	c.mu.Unlock()
}

// onLCP keeps the most recent candidate; the last entry wins.
func (c *Collector) onLCP(e model.PerformanceEntry) {
	c.mu.Lock()
	c.metrics.LCP = e.StartTime
	c.mu.Unlock()
}

// onFirstInput takes only the first input entry, then stops observing.
func (c *Collector) onFirstInput(e model.PerformanceEntry) {
	c.mu.Lock()
	if c.fidSeen {
		c.mu.Unlock()
		return
	}
	c.fidSeen = true
	c.metrics.FID = e.ProcessingStart - e.StartTime
	unsub := c.unsubs[model.EntryFirstInput]
	delete(c.unsubs, model.EntryFirstInput)
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (c *Collector) onPaint(e model.PerformanceEntry) {
	c.mu.Lock()
	switch e.Name {
	case "first-contentful-paint":
		c.metrics.FCP = e.StartTime
	case "first-paint":
		c.metrics.FirstPaint = e.StartTime
	}
	c.mu.Unlock()
}

// onEvent tracks the maximum interaction latency seen (INP).
func (c *Collector) onEvent(e model.PerformanceEntry) {
	d := e.ProcessingEnd - e.StartTime
	c.mu.Lock()
	if d > c.metrics.INP {
		c.metrics.INP = d
	}
	c.mu.Unlock()
}

// ApplyTimings merges page navigation milestones into the metric set.
func (c *Collector) ApplyTimings(t model.NavigationTimings) {
	c.mu.Lock()
	if t.TTFB > 0 {
		c.metrics.TTFB = t.TTFB
	}
	if t.DOMContentLoaded > 0 {
		c.metrics.DOMContentLoaded = t.DOMContentLoaded
	}
	if t.LoadComplete > 0 {
		c.metrics.LoadComplete = t.LoadComplete
	}
	if t.FirstPaint > 0 && c.metrics.FirstPaint == 0 {
		c.metrics.FirstPaint = t.FirstPaint
	}
	c.mu.Unlock()
}

// Metrics returns an immutable copy of the accumulated metric values.
func (c *Collector) Metrics() model.WebVitals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// Close disconnects all registered observers. Safe to call repeatedly and
// with zero observers registered.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubs := c.unsubs
	c.unsubs = make(map[model.EntryKind]func())
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}
