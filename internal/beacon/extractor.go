package beacon

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sitepulse/pulse/internal/model"
	"github.com/sitepulse/pulse/internal/vitals"
)

// ParseBeacon parses one beacon JSON line into a VitalsSnapshot.
// Two payload shapes are accepted: a raw-entries envelope
// ({entries: [...], timings: {...}}) that is replayed through the
// collector, and a pre-aggregated envelope ({metrics: {...}}).
// Returns nil when the line is not a recognizable beacon.
func ParseBeacon(line string) *model.VitalsSnapshot {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil
	}

	snapshot := &model.VitalsSnapshot{
		Page:       ExtractStringField(raw, "page", "path"),
		Locale:     ExtractStringField(raw, "locale", "lang"),
		URL:        ExtractStringField(raw, "url", "href"),
		UserAgent:  ExtractStringField(raw, "userAgent", "ua"),
		Device:     ExtractStringField(raw, "device"),
		Connection: ExtractStringField(raw, "connection", "effectiveType"),
	}
	snapshot.CollectedAt = extractBeaconTimestamp(raw)

	switch {
	case hasKey(raw, "entries") || hasKey(raw, "timings"):
		applyEntriesPayload(snapshot, raw)
	case hasKey(raw, "metrics"):
		applyMetricsPayload(snapshot, raw["metrics"])
	default:
		// Flat shape with metric fields at the top level.
		if !applyMetricsPayload(snapshot, raw) {
			return nil
		}
	}

	if snapshot.Page == "" {
		snapshot.Page = pageFromURL(snapshot.URL)
	}
	if snapshot.Device == "" {
		snapshot.Device = ClassifyDevice(snapshot.UserAgent)
	}
	return snapshot
}

// applyEntriesPayload replays raw performance entries through a collector so
// the envelope obeys the same aggregation rules as the in-browser observers.
func applyEntriesPayload(snapshot *model.VitalsSnapshot, raw map[string]interface{}) {
	feed := vitals.NewFeed()
	collector := vitals.NewCollector(feed)
	defer collector.Close()

	if entries, ok := raw["entries"].([]interface{}); ok {
		for _, item := range entries {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			feed.Publish(parseEntry(entry))
		}
	}

	if timings, ok := raw["timings"].(map[string]interface{}); ok {
		collector.ApplyTimings(model.NavigationTimings{
			TTFB:             extractFloat(timings, "ttfb"),
			DOMContentLoaded: extractFloat(timings, "domContentLoaded"),
			LoadComplete:     extractFloat(timings, "loadComplete"),
			FirstPaint:       extractFloat(timings, "firstPaint"),
		})
	}

	snapshot.WebVitals = collector.Metrics()
}

func parseEntry(raw map[string]interface{}) model.PerformanceEntry {
	return model.PerformanceEntry{
		Kind:            model.EntryKind(ExtractStringField(raw, "type", "entryType")),
		Name:            ExtractStringField(raw, "name"),
		Value:           extractFloat(raw, "value"),
		StartTime:       extractFloat(raw, "startTime"),
		Duration:        extractFloat(raw, "duration"),
		ProcessingStart: extractFloat(raw, "processingStart"),
		ProcessingEnd:   extractFloat(raw, "processingEnd"),
		HadRecentInput:  extractBool(raw, "hadRecentInput"),
	}
}

// applyMetricsPayload copies pre-aggregated metric values onto the snapshot.
// Reports whether at least one metric field was present.
func applyMetricsPayload(snapshot *model.VitalsSnapshot, value interface{}) bool {
	metrics, ok := value.(map[string]interface{})
	if !ok {
		return false
	}

	found := false
	assign := func(dst *float64, keys ...string) {
		for _, key := range keys {
			if _, present := metrics[key]; present {
				*dst = extractFloat(metrics, key)
				found = true
				return
			}
		}
	}

	assign(&snapshot.CLS, "cls")
	assign(&snapshot.LCP, "lcp")
	assign(&snapshot.FID, "fid")
	assign(&snapshot.FCP, "fcp")
	assign(&snapshot.TTFB, "ttfb")
	assign(&snapshot.INP, "inp")
	assign(&snapshot.DOMContentLoaded, "domContentLoaded")
	assign(&snapshot.LoadComplete, "loadComplete")
	assign(&snapshot.FirstPaint, "firstPaint")
	return found
}

func extractBeaconTimestamp(raw map[string]interface{}) time.Time {
	for _, key := range []string{"timestamp", "collectedAt"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if ts, parsed := parseBeaconTime(value); parsed {
			return ts
		}
	}
	return time.Time{}
}

// parseBeaconTime accepts RFC3339 strings and unix-millisecond numbers,
// the two formats emitted by navigator.sendBeacon callers.
func parseBeaconTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts, true
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(n), true
		}
	case float64:
		return time.UnixMilli(int64(v)), true
	}
	return time.Time{}, false
}

// pageFromURL extracts the path component from a page URL, stripping any
// leading locale segment so "/zh/products" and "/en/products" group together.
func pageFromURL(url string) string {
	if url == "" {
		return ""
	}
	path := url
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
	for _, locale := range []string{"/en/", "/zh/"} {
		if strings.HasPrefix(path, locale) {
			path = path[len(locale)-1:]
			break
		}
		if path == strings.TrimSuffix(locale, "/") {
			path = "/"
			break
		}
	}
	if path == "" {
		path = "/"
	}
	return path
}

var mobileUATokens = []string{"Mobile", "Android", "iPhone", "iPad", "iPod"}

// ClassifyDevice buckets a user agent string into mobile or desktop.
func ClassifyDevice(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	for _, token := range mobileUATokens {
		if strings.Contains(userAgent, token) {
			return "mobile"
		}
	}
	return "desktop"
}

func hasKey(raw map[string]interface{}, key string) bool {
	_, ok := raw[key]
	return ok
}

func extractFloat(raw map[string]interface{}, key string) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func extractBool(raw map[string]interface{}, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

func stringifyJSONValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%v", v)
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return ""
}

// ExtractStringField returns the first non-empty string value found among the given keys.
func ExtractStringField(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if str := stringifyJSONValue(v); str != "" {
				return str
			}
		}
	}
	return ""
}
