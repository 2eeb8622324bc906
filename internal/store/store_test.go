package store

import (
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertTestSnapshots(t *testing.T, store *Store, snapshots []*VitalsSnapshot) {
	t.Helper()
	if err := store.InsertSnapshotBatch(snapshots); err != nil {
		t.Fatalf("InsertSnapshotBatch failed: %v", err)
	}
}

func sampleSnapshot(page, locale, device string, at time.Time) *VitalsSnapshot {
	s := &VitalsSnapshot{
		Page:        page,
		Locale:      locale,
		Device:      device,
		URL:         "https://example.com/" + locale + page,
		Source:      "http",
		CollectedAt: at,
	}
	s.CLS = 0.05
	s.LCP = 2100
	s.FID = 40
	s.FCP = 1500
	s.TTFB = 420
	s.INP = 160
	return s
}

func TestInsertSnapshotBatch(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "en", "desktop", now),
		sampleSnapshot("/products", "zh", "mobile", now),
	})

	count, err := store.TotalSnapshotCount(QueryOpts{})
	if err != nil {
		t.Fatalf("TotalSnapshotCount: %v", err)
	}
	if count != 2 {
		t.Errorf("TotalSnapshotCount = %d, want 2", count)
	}
}

func TestInsertSnapshotBatch_AssignsEventID(t *testing.T) {
	store := newTestStore(t)

	snap := sampleSnapshot("/", "en", "desktop", time.Now())
	insertTestSnapshots(t, store, []*VitalsSnapshot{snap})

	rows, err := store.RecentSnapshots(10, QueryOpts{})
	if err != nil {
		t.Fatalf("RecentSnapshots: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("RecentSnapshots returned %d rows, want 1", len(rows))
	}
	if rows[0].EventID == "" {
		t.Error("stored snapshot has empty event_id")
	}
}

func TestTotalSnapshotCount_Filters(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "en", "desktop", now),
		sampleSnapshot("/", "zh", "mobile", now),
		sampleSnapshot("/pricing", "zh", "mobile", now),
	})

	count, err := store.TotalSnapshotCount(QueryOpts{Locale: "zh"})
	if err != nil {
		t.Fatalf("TotalSnapshotCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count for locale=zh = %d, want 2", count)
	}

	count, err = store.TotalSnapshotCount(QueryOpts{Page: "/", Locale: "zh"})
	if err != nil {
		t.Fatalf("TotalSnapshotCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count for page=/ locale=zh = %d, want 1", count)
	}
}

func TestTopPages(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	var snaps []*VitalsSnapshot
	for i := 0; i < 3; i++ {
		snaps = append(snaps, sampleSnapshot("/products", "en", "desktop", now))
	}
	snaps = append(snaps, sampleSnapshot("/", "en", "desktop", now))
	insertTestSnapshots(t, store, snaps)

	pages, err := store.TopPages(10, QueryOpts{})
	if err != nil {
		t.Fatalf("TopPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("TopPages returned %d rows, want 2", len(pages))
	}
	if pages[0].Page != "/products" || pages[0].Count != 3 {
		t.Errorf("top page = %s (%d), want /products (3)", pages[0].Page, pages[0].Count)
	}
}

func TestMetricP75(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	values := []float64{1000, 2000, 3000, 4000}
	var snaps []*VitalsSnapshot
	for _, v := range values {
		s := sampleSnapshot("/", "en", "desktop", now)
		s.LCP = v
		s.FID = 0 // unmeasured, must be excluded
		snaps = append(snaps, s)
	}
	insertTestSnapshots(t, store, snaps)

	percentiles, err := store.MetricP75(QueryOpts{})
	if err != nil {
		t.Fatalf("MetricP75: %v", err)
	}

	byMetric := make(map[string]float64, len(percentiles))
	for _, mp := range percentiles {
		byMetric[mp.Metric] = mp.P75
	}

	if got := byMetric["lcp"]; got < 3000 || got > 4000 {
		t.Errorf("lcp p75 = %v, want in [3000, 4000]", got)
	}
	if got := byMetric["fid"]; got != 0 {
		t.Errorf("fid p75 = %v, want 0 (no measured values)", got)
	}
}

func TestCountsByDay(t *testing.T) {
	store := newTestStore(t)

	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "en", "mobile", day),
		sampleSnapshot("/", "en", "mobile", day.Add(2*time.Hour)),
		sampleSnapshot("/", "en", "desktop", day.Add(3*time.Hour)),
	})

	days, err := store.CountsByDay(QueryOpts{})
	if err != nil {
		t.Fatalf("CountsByDay: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("CountsByDay returned %d rows, want 1", len(days))
	}
	if days[0].Mobile != 2 || days[0].Desktop != 1 || days[0].Total != 3 {
		t.Errorf("day counts = mobile=%d desktop=%d total=%d, want 2/1/3",
			days[0].Mobile, days[0].Desktop, days[0].Total)
	}
}

func TestListLocales(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "zh", "desktop", now),
		sampleSnapshot("/", "en", "desktop", now),
		sampleSnapshot("/about", "en", "desktop", now),
	})

	locales, err := store.ListLocales()
	if err != nil {
		t.Fatalf("ListLocales: %v", err)
	}
	if len(locales) != 2 || locales[0] != "en" || locales[1] != "zh" {
		t.Errorf("ListLocales = %v, want [en zh]", locales)
	}
}

func TestRecentSnapshots_ChronologicalOrder(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	var snaps []*VitalsSnapshot
	for i := 0; i < 5; i++ {
		snaps = append(snaps, sampleSnapshot("/", "en", "desktop", base.Add(time.Duration(i)*time.Minute)))
	}
	insertTestSnapshots(t, store, snaps)

	rows, err := store.RecentSnapshots(3, QueryOpts{})
	if err != nil {
		t.Fatalf("RecentSnapshots: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("RecentSnapshots returned %d rows, want 3", len(rows))
	}
	// Most recent 3, oldest first.
	for i := 1; i < len(rows); i++ {
		if rows[i].CollectedAt.Before(rows[i-1].CollectedAt) {
			t.Errorf("results not in chronological order at index %d", i)
		}
	}
	if !rows[2].CollectedAt.After(rows[0].CollectedAt) {
		t.Error("expected ascending timestamps")
	}
}

func TestDeleteBefore(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "en", "desktop", now.Add(-48*time.Hour)),
		sampleSnapshot("/", "en", "desktop", now),
	})

	deleted, err := store.DeleteBefore(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteBefore deleted %d rows, want 1", deleted)
	}

	count, err := store.TotalSnapshotCount(QueryOpts{})
	if err != nil {
		t.Fatalf("TotalSnapshotCount: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining count = %d, want 1", count)
	}
}

func TestExecuteQuery_SelectAllowed(t *testing.T) {
	store := newTestStore(t)
	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "en", "desktop", time.Now()),
	})

	results, err := store.ExecuteQuery("SELECT page, locale FROM vitals_samples")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("ExecuteQuery returned %d rows, want 1", len(results))
	}
	if results[0]["page"] != "/" {
		t.Errorf("page = %v, want /", results[0]["page"])
	}
}

func TestExecuteQuery_WithAllowed(t *testing.T) {
	store := newTestStore(t)
	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "en", "desktop", time.Now()),
	})

	_, err := store.ExecuteQuery("WITH recent AS (SELECT * FROM vitals_samples) SELECT COUNT(*) FROM recent")
	if err != nil {
		t.Fatalf("ExecuteQuery with CTE: %v", err)
	}
}

func TestExecuteQuery_DMLRejected(t *testing.T) {
	store := newTestStore(t)

	cases := []string{
		"DELETE FROM vitals_samples",
		"DROP TABLE vitals_samples",
		"SELECT 1; DELETE FROM vitals_samples",
		"SELECT 1 /* DROP TABLE vitals_samples */; DROP TABLE vitals_samples",
		"INSERT INTO vitals_samples VALUES (1)",
	}
	for _, q := range cases {
		if _, err := store.ExecuteQuery(q); err == nil {
			t.Errorf("ExecuteQuery(%q) succeeded, want rejection", q)
		}
	}
}

func TestExecuteQuery_KeywordInCommentRejected(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ExecuteQuery("SELECT 1 -- harmless\nUNION SELECT 2 FROM (SELECT 1) WHERE EXISTS (SELECT 1) AND 'DROP' = 'DROP'")
	// Literal keyword appears outside a comment, so this is rejected too.
	if err == nil {
		t.Error("expected keyword rejection")
	}
	if err != nil && !strings.Contains(err.Error(), "disallowed keyword") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTableRowCounts(t *testing.T) {
	store := newTestStore(t)
	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "en", "desktop", time.Now()),
		sampleSnapshot("/", "zh", "mobile", time.Now()),
	})

	counts, err := store.TableRowCounts()
	if err != nil {
		t.Fatalf("TableRowCounts: %v", err)
	}
	if counts["vitals_samples"] != 2 {
		t.Errorf("vitals_samples count = %d, want 2", counts["vitals_samples"])
	}
}

func TestSetMaxConcurrentQueries(t *testing.T) {
	store := newTestStore(t)
	store.SetMaxConcurrentQueries(1)

	insertTestSnapshots(t, store, []*VitalsSnapshot{
		sampleSnapshot("/", "en", "desktop", time.Now()),
	})

	// Queries still succeed with the gate in place.
	for i := 0; i < 3; i++ {
		if _, err := store.TotalSnapshotCount(QueryOpts{}); err != nil {
			t.Fatalf("TotalSnapshotCount with gate: %v", err)
		}
	}
}
