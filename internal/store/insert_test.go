package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sitepulse/pulse/internal/journal"
)

func TestInsertBuffer_AddAndStop(t *testing.T) {
	store := newTestStore(t)
	buf := NewInsertBuffer(store)

	for i := 0; i < 10; i++ {
		buf.Add(sampleSnapshot("/", "en", "desktop", time.Now()))
	}

	// Stop should flush all pending snapshots
	buf.Stop()

	count, err := store.TotalSnapshotCount(QueryOpts{})
	if err != nil {
		t.Fatalf("TotalSnapshotCount: %v", err)
	}
	if count != 10 {
		t.Errorf("after Stop, TotalSnapshotCount = %d, want 10", count)
	}
}

func TestInsertBuffer_BatchThreshold(t *testing.T) {
	store := newTestStore(t)
	buf := NewInsertBuffer(store, InsertBufferConfig{BatchSize: 50})

	// More than one full batch to trigger an immediate flush
	for i := 0; i < 120; i++ {
		buf.Add(sampleSnapshot("/products", "zh", "mobile", time.Now()))
	}

	buf.Stop()

	count, err := store.TotalSnapshotCount(QueryOpts{})
	if err != nil {
		t.Fatalf("TotalSnapshotCount: %v", err)
	}
	if count != 120 {
		t.Errorf("after batch insert, TotalSnapshotCount = %d, want 120", count)
	}
}

func TestInsertBuffer_ConcurrentAdd(t *testing.T) {
	store := newTestStore(t)
	buf := NewInsertBuffer(store)

	var wg sync.WaitGroup
	numGoroutines := 10
	snapshotsPerGoroutine := 50

	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < snapshotsPerGoroutine; i++ {
				buf.Add(sampleSnapshot("/", "en", "desktop", time.Now()))
			}
		}()
	}
	wg.Wait()
	buf.Stop()

	count, err := store.TotalSnapshotCount(QueryOpts{})
	if err != nil {
		t.Fatalf("TotalSnapshotCount: %v", err)
	}
	want := int64(numGoroutines * snapshotsPerGoroutine)
	if count != want {
		t.Errorf("TotalSnapshotCount = %d, want %d", count, want)
	}
}

func TestInsertBuffer_AssignsEventID(t *testing.T) {
	store := newTestStore(t)
	buf := NewInsertBuffer(store)

	snap := sampleSnapshot("/", "en", "desktop", time.Now())
	buf.Add(snap)
	buf.Stop()

	if snap.EventID == "" {
		t.Error("Add did not assign an event ID")
	}
}

func TestInsertBuffer_JournalCommitOnFlush(t *testing.T) {
	store := newTestStore(t)

	jpath := filepath.Join(t.TempDir(), "ingest.journal")
	jnl, err := journal.Open(jpath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}

	buf := NewInsertBuffer(store, InsertBufferConfig{Journal: jnl})
	for i := 0; i < 5; i++ {
		buf.Add(sampleSnapshot("/", "en", "desktop", time.Now()))
	}
	buf.Stop() // closes the journal too

	// Reopen: all entries were committed, so nothing replays.
	jnl2, err := journal.Open(jpath)
	if err != nil {
		t.Fatalf("journal.Open (reopen): %v", err)
	}
	defer jnl2.Close()

	replayed := 0
	err = jnl2.Replay(func(seq uint64, snapshot *VitalsSnapshot) error {
		replayed++
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if replayed != 0 {
		t.Errorf("replayed %d entries after clean flush, want 0", replayed)
	}
}

func TestInsertBuffer_StopIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	buf := NewInsertBuffer(store)
	buf.Add(sampleSnapshot("/", "en", "desktop", time.Now()))

	buf.Stop()
	buf.Stop()

	count, err := store.TotalSnapshotCount(QueryOpts{})
	if err != nil {
		t.Fatalf("TotalSnapshotCount: %v", err)
	}
	if count != 1 {
		t.Errorf("after double Stop, TotalSnapshotCount = %d, want 1", count)
	}
}
