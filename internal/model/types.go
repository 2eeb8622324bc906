package model

import "time"

// WebVitals holds one set of browser performance metric values.
// CLS is unitless; every other field is milliseconds.
type WebVitals struct {
	CLS              float64 `json:"cls"`
	LCP              float64 `json:"lcp"`
	FID              float64 `json:"fid"`
	FCP              float64 `json:"fcp"`
	TTFB             float64 `json:"ttfb"`
	INP              float64 `json:"inp"`
	DOMContentLoaded float64 `json:"domContentLoaded"`
	LoadComplete     float64 `json:"loadComplete"`
	FirstPaint       float64 `json:"firstPaint"`
}

// VitalsSnapshot is the canonical per-page-load performance record used across
// the system. It is the type for storage, transport, and baseline comparison.
// A snapshot is immutable once captured.
type VitalsSnapshot struct {
	WebVitals

	Page        string    `json:"page"`
	Locale      string    `json:"locale"`
	URL         string    `json:"url"`
	UserAgent   string    `json:"userAgent"`
	Device      string    `json:"device"`     // "mobile", "desktop", ""
	Connection  string    `json:"connection"` // effective connection type, e.g. "4g"
	Source      string    `json:"source"`     // "http", "tcp", "stdin"
	EventID     string    `json:"eventId"`
	CollectedAt time.Time `json:"collectedAt"`
}

// EntryKind identifies the browser performance entry type a PerformanceEntry
// was produced by.
type EntryKind string

const (
	EntryLayoutShift EntryKind = "layout-shift"
	EntryLCP         EntryKind = "largest-contentful-paint"
	EntryFirstInput  EntryKind = "first-input"
	EntryPaint       EntryKind = "paint"
	EntryEvent       EntryKind = "event"
	EntryNavigation  EntryKind = "navigation"
)

// PerformanceEntry is one raw browser performance entry as delivered by a
// beacon. Field meaning follows the browser Performance Timeline model; which
// fields are populated depends on Kind.
type PerformanceEntry struct {
	Kind            EntryKind `json:"type"`
	Name            string    `json:"name"`
	Value           float64   `json:"value"`
	StartTime       float64   `json:"startTime"`
	Duration        float64   `json:"duration"`
	ProcessingStart float64   `json:"processingStart"`
	ProcessingEnd   float64   `json:"processingEnd"`
	HadRecentInput  bool      `json:"hadRecentInput"`
}

// NavigationTimings carries page-level navigation milestones from a beacon.
type NavigationTimings struct {
	TTFB             float64 `json:"ttfb"`
	DOMContentLoaded float64 `json:"domContentLoaded"`
	LoadComplete     float64 `json:"loadComplete"`
	FirstPaint       float64 `json:"firstPaint"`
}

// BuildInfo identifies the deployed build a snapshot or baseline was taken on.
type BuildInfo struct {
	Version string `json:"version,omitempty"`
	Commit  string `json:"commit,omitempty"`
}

// Baseline is one saved performance snapshot used as a comparison point for
// regression detection. Baselines form an append-only, capped list.
type Baseline struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	URL         string     `json:"url"`
	UserAgent   string     `json:"userAgent"`
	Connection  string     `json:"connection"`
	Metrics     WebVitals  `json:"metrics"`
	Score       int        `json:"score"`
	Environment string     `json:"environment"`
	BuildInfo   *BuildInfo `json:"buildInfo,omitempty"`
}

// MetricStatus is the traffic-light rating for one metric value.
type MetricStatus string

const (
	StatusGood             MetricStatus = "good"
	StatusNeedsImprovement MetricStatus = "needs-improvement"
	StatusPoor             MetricStatus = "poor"
	StatusUnknown          MetricStatus = "unknown"
)

// MetricDelta is the per-metric outcome of a regression comparison.
type MetricDelta struct {
	Metric         string       `json:"metric"`
	Baseline       float64      `json:"baseline"`
	Current        float64      `json:"current"`
	ChangePercent  float64      `json:"changePercent"`
	BaselineStatus MetricStatus `json:"baselineStatus"`
	CurrentStatus  MetricStatus `json:"currentStatus"`
	Regressed      bool         `json:"regressed"`
}

// RegressionResult compares one snapshot against one baseline.
// It is ephemeral and never persisted.
type RegressionResult struct {
	BaselineID string        `json:"baselineId"`
	Regressed  bool          `json:"regressed"`
	Deltas     []MetricDelta `json:"deltas"`
	CheckedAt  time.Time     `json:"checkedAt"`
}

// AlertSeverity classifies a fired alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is one threshold or regression finding surfaced by the alert system.
type Alert struct {
	Severity AlertSeverity `json:"severity"`
	Metric   string        `json:"metric"`
	Value    float64       `json:"value"`
	Message  string        `json:"message"`
	Page     string        `json:"page"`
	FiredAt  time.Time     `json:"firedAt"`
}

// LocaleDetectionRecord is one locale-detection event. Immutable once created.
type LocaleDetectionRecord struct {
	Locale     string  `json:"locale"`
	Source     string  `json:"source"`    // "cookie", "header", "path", "default"
	Timestamp  int64   `json:"timestamp"` // unix milliseconds
	Confidence float64 `json:"confidence"`
}

// DetectionHistory is the persisted locale-detection history blob.
// History is ordered newest-first after any mutation.
type DetectionHistory struct {
	History     []LocaleDetectionRecord `json:"history"`
	LastUpdated int64                   `json:"lastUpdated"` // unix milliseconds
}

// PageCount represents snapshot counts grouped by page path.
type PageCount struct {
	Page  string
	Count int64
}

// MetricPercentile represents an aggregate percentile value for one metric.
type MetricPercentile struct {
	Metric string
	P75    float64
}

// DayCounts represents snapshot counts for one day, split by device class.
type DayCounts struct {
	Day     time.Time
	Mobile  int64
	Desktop int64
	Total   int64
}
