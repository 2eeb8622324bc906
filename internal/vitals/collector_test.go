package vitals

import (
	"testing"

	"github.com/sitepulse/pulse/internal/model"
)

func TestLayoutShiftAccumulation(t *testing.T) {
	feed := NewFeed()
	c := NewCollector(feed)
	defer c.Close()

	feed.Publish(model.PerformanceEntry{Kind: model.EntryLayoutShift, Value: 0.05})
	feed.Publish(model.PerformanceEntry{Kind: model.EntryLayoutShift, Value: 0.3, HadRecentInput: true})
	feed.Publish(model.PerformanceEntry{Kind: model.EntryLayoutShift, Value: 0.02})

	got := c.Metrics().CLS
	want := 0.07
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("CLS = %v, want %v (recent-input shifts must be excluded)", got, want)
	}
}

func TestLCPLastEntryWins(t *testing.T) {
	feed := NewFeed()
	c := NewCollector(feed)
	defer c.Close()

	feed.Publish(model.PerformanceEntry{Kind: model.EntryLCP, StartTime: 1200})
	feed.Publish(model.PerformanceEntry{Kind: model.EntryLCP, StartTime: 2400})

	if got := c.Metrics().LCP; got != 2400 {
		t.Fatalf("LCP = %v, want 2400", got)
	}
}

func TestFirstInputOnlyFirstEntry(t *testing.T) {
	feed := NewFeed()
	c := NewCollector(feed)
	defer c.Close()

	feed.Publish(model.PerformanceEntry{Kind: model.EntryFirstInput, StartTime: 100, ProcessingStart: 140})
	feed.Publish(model.PerformanceEntry{Kind: model.EntryFirstInput, StartTime: 500, ProcessingStart: 900})

	if got := c.Metrics().FID; got != 40 {
		t.Fatalf("FID = %v, want 40 (later input entries must be ignored)", got)
	}
}

func TestPaintEntriesByName(t *testing.T) {
	feed := NewFeed()
	c := NewCollector(feed)
	defer c.Close()

	feed.Publish(model.PerformanceEntry{Kind: model.EntryPaint, Name: "first-paint", StartTime: 600})
	feed.Publish(model.PerformanceEntry{Kind: model.EntryPaint, Name: "first-contentful-paint", StartTime: 900})

	m := c.Metrics()
	if m.FCP != 900 {
		t.Fatalf("FCP = %v, want 900", m.FCP)
	}
	if m.FirstPaint != 600 {
		t.Fatalf("FirstPaint = %v, want 600", m.FirstPaint)
	}
}

func TestINPTracksMaximum(t *testing.T) {
	feed := NewFeed()
	c := NewCollector(feed)
	defer c.Close()

	feed.Publish(model.PerformanceEntry{Kind: model.EntryEvent, StartTime: 0, ProcessingEnd: 120})
	feed.Publish(model.PerformanceEntry{Kind: model.EntryEvent, StartTime: 10, ProcessingEnd: 420})
	feed.Publish(model.PerformanceEntry{Kind: model.EntryEvent, StartTime: 0, ProcessingEnd: 90})

	if got := c.Metrics().INP; got != 410 {
		t.Fatalf("INP = %v, want 410", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	feed := NewFeed()
	c := NewCollector(feed)

	c.Close()
	c.Close()

	// Entries published after Close must not be observed.
	feed.Publish(model.PerformanceEntry{Kind: model.EntryLayoutShift, Value: 0.5})
	if got := c.Metrics().CLS; got != 0 {
		t.Fatalf("CLS after Close = %v, want 0", got)
	}
}

func TestUnsupportedKindsSkipped(t *testing.T) {
	feed := NewFeed(model.EntryPaint) // only paint supported
	c := NewCollector(feed)
	defer c.Close()

	feed.Publish(model.PerformanceEntry{Kind: model.EntryPaint, Name: "first-contentful-paint", StartTime: 700})

	m := c.Metrics()
	if m.FCP != 700 {
		t.Fatalf("FCP = %v, want 700 (supported observer must still work)", m.FCP)
	}
	if len(c.unsubs) != 1 {
		t.Fatalf("registered observers = %d, want 1", len(c.unsubs))
	}
}

func TestApplyTimings(t *testing.T) {
	feed := NewFeed()
	c := NewCollector(feed)
	defer c.Close()

	c.ApplyTimings(model.NavigationTimings{TTFB: 320, DOMContentLoaded: 850, LoadComplete: 1900})

	m := c.Metrics()
	if m.TTFB != 320 || m.DOMContentLoaded != 850 || m.LoadComplete != 1900 {
		t.Fatalf("timings not applied: %+v", m)
	}
}
