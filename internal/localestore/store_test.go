package localestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sitepulse/pulse/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "locale_detection_history.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func record(locale, source string, ts int64) model.LocaleDetectionRecord {
	return model.LocaleDetectionRecord{Locale: locale, Source: source, Timestamp: ts, Confidence: 0.9}
}

func TestCleanupExpired(t *testing.T) {
	s := openStore(t)
	now := time.Now()

	res := s.Append(record("en", "cookie", now.Add(-31*24*time.Hour).UnixMilli()))
	if !res.Success {
		t.Fatalf("Append: %+v", res)
	}
	s.Append(record("zh", "header", now.Add(-24*time.Hour).UnixMilli()))

	res = s.CleanupExpired(30 * 24 * time.Hour)
	if !res.Success || res.Data != 1 {
		t.Fatalf("CleanupExpired = %+v, want success with 1 removed", res)
	}

	h, err := s.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(h.History) != 1 || h.History[0].Locale != "zh" {
		t.Fatalf("history = %+v, want only the 1-day-old zh record", h.History)
	}
}

func TestCleanupExpiredNothingToRemove(t *testing.T) {
	s := openStore(t)
	s.Append(record("en", "cookie", time.Now().UnixMilli()))

	res := s.CleanupExpired(30 * 24 * time.Hour)
	if !res.Success || res.Data != 0 {
		t.Fatalf("CleanupExpired = %+v, want success with 0 removed", res)
	}
	if res.Source != "file" {
		t.Fatalf("Source = %q, want file", res.Source)
	}
}

func TestCleanupDuplicatesIdempotent(t *testing.T) {
	s := openStore(t)
	ts := time.Now().UnixMilli()

	s.Append(record("en", "cookie", ts))
	s.Append(record("en", "cookie", ts))
	s.Append(record("en", "header", ts))

	res := s.CleanupDuplicates()
	if !res.Success || res.Data != 1 {
		t.Fatalf("first CleanupDuplicates = %+v, want 1 removed", res)
	}

	res = s.CleanupDuplicates()
	if !res.Success || res.Data != 0 {
		t.Fatalf("second CleanupDuplicates = %+v, want 0 removed", res)
	}
}

func TestLimitHistory(t *testing.T) {
	s := openStore(t)
	base := time.Now().UnixMilli()
	for i := 0; i < 10; i++ {
		s.Append(record("en", "path", base+int64(i)))
	}

	res := s.LimitHistory(3)
	if !res.Success || res.Data != 7 {
		t.Fatalf("LimitHistory = %+v, want 7 removed", res)
	}

	h, _ := s.History()
	if len(h.History) != 3 {
		t.Fatalf("len = %d, want 3", len(h.History))
	}
	// Newest-first ordering: the three newest timestamps survive.
	if h.History[0].Timestamp != base+9 || h.History[2].Timestamp != base+7 {
		t.Fatalf("kept wrong records: %+v", h.History)
	}
}

func TestAppendCapsHistory(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.json"), Config{MaxRecords: 5})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	base := time.Now().UnixMilli()
	for i := 0; i < 8; i++ {
		s.Append(record("en", "cookie", base+int64(i)))
	}
	h, _ := s.History()
	if len(h.History) != 5 {
		t.Fatalf("len = %d, want 5", len(h.History))
	}
}

func TestClearAll(t *testing.T) {
	s := openStore(t)
	s.Append(record("zh", "cookie", time.Now().UnixMilli()))
	s.Append(record("en", "header", time.Now().UnixMilli()))

	res := s.ClearAll()
	if !res.Success || res.Data != 2 {
		t.Fatalf("ClearAll = %+v, want 2 removed", res)
	}
	h, _ := s.History()
	if len(h.History) != 0 {
		t.Fatalf("history not empty after ClearAll: %+v", h.History)
	}
}

func TestNewestFirstAfterMutation(t *testing.T) {
	s := openStore(t)
	base := time.Now().UnixMilli()

	// Append out of order; the invariant is restored on every mutation.
	s.Append(record("en", "cookie", base-1000))
	s.Append(record("zh", "header", base))
	s.Append(record("en", "path", base-500))

	h, _ := s.History()
	for i := 1; i < len(h.History); i++ {
		if h.History[i].Timestamp > h.History[i-1].Timestamp {
			t.Fatalf("history not newest-first: %+v", h.History)
		}
	}
}

func TestCorruptFileFailsSoftly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	res := s.CleanupExpired(0)
	if res.Success {
		t.Fatalf("CleanupExpired on corrupt file = %+v, want soft failure", res)
	}
	if res.Error == "" {
		t.Fatal("soft failure must carry the error text")
	}
}
