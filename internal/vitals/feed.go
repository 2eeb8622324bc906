package vitals

import (
	"sync"

	"github.com/sitepulse/pulse/internal/model"
)

// Feed is an in-process EntrySource. Beacon processing publishes the entries
// reported by a page load and subscribed observers receive them in order.
type Feed struct {
	mu        sync.Mutex
	nextID    int
	subs      map[model.EntryKind]map[int]func(model.PerformanceEntry)
	supported map[model.EntryKind]bool
}

// NewFeed creates a feed supporting the given entry kinds. With no kinds
// listed, every kind is supported.
func NewFeed(kinds ...model.EntryKind) *Feed {
	f := &Feed{
		subs:      make(map[model.EntryKind]map[int]func(model.PerformanceEntry)),
		supported: make(map[model.EntryKind]bool),
	}
	if len(kinds) == 0 {
		kinds = []model.EntryKind{
			model.EntryLayoutShift,
			model.EntryLCP,
			model.EntryFirstInput,
			model.EntryPaint,
			model.EntryEvent,
			model.EntryNavigation,
		}
	}
	for _, k := range kinds {
		f.supported[k] = true
	}
	return f
}

// Supported reports whether entries of kind are delivered by this feed.
func (f *Feed) Supported(kind model.EntryKind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.supported[kind]
}

// Subscribe registers fn for entries of kind and returns its unsubscribe.
func (f *Feed) Subscribe(kind model.EntryKind, fn func(model.PerformanceEntry)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs[kind] == nil {
		f.subs[kind] = make(map[int]func(model.PerformanceEntry))
	}
	id := f.nextID
	f.nextID++
	f.subs[kind][id] = fn

	return func() {
		f.mu.Lock()
		delete(f.subs[kind], id)
		f.mu.Unlock()
	}, nil
}

// Publish delivers one entry to every subscriber of its kind.
func (f *Feed) Publish(e model.PerformanceEntry) {
	f.mu.Lock()
	fns := make([]func(model.PerformanceEntry), 0, len(f.subs[e.Kind]))
	for _, fn := range f.subs[e.Kind] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
