package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sitepulse/pulse/internal/journal"
	"github.com/sitepulse/pulse/internal/model"
)

// DefaultFlushQueueSize is the number of batches that can be queued for async flushing.
const DefaultFlushQueueSize = 64

var eventIDCounter atomic.Uint64

type journaledSnapshot struct {
	seq      uint64
	snapshot *VitalsSnapshot
}

type durableJournal interface {
	Append(snapshot *model.VitalsSnapshot) (uint64, error)
	Commit(seq uint64) error
	Close() error
}

// InsertBuffer batches vitals snapshots and flushes them to DuckDB asynchronously.
// Add() never blocks on DuckDB writes; snapshots are sent to a flush goroutine.
type InsertBuffer struct {
	writer        model.VitalsWriter
	mu            sync.Mutex
	pending       []journaledSnapshot
	flushChan     chan []journaledSnapshot // async flush queue
	maxBatch      int
	flushInterval time.Duration
	done          chan struct{}
	wg            sync.WaitGroup
	tickWg        sync.WaitGroup // separate WaitGroup for tickLoop
	stopOnce      sync.Once
	journal       durableJournal

	// backpressureCount tracks inline flushes for throttled logging.
	backpressureCount atomic.Int64
	lastBPLog         atomic.Int64 // unix timestamp of last backpressure log
}

// InsertBufferConfig holds tunable parameters for the insert buffer.
type InsertBufferConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	FlushQueueSize int
	Journal        *journal.Journal
}

// NewInsertBuffer creates a new insert buffer that flushes to the store.
// The flush goroutine processes batches asynchronously so Add() never blocks on IO.
func NewInsertBuffer(writer model.VitalsWriter, conf ...InsertBufferConfig) *InsertBuffer {
	batchSize := 500
	flushInterval := 100 * time.Millisecond
	flushQueueSize := DefaultFlushQueueSize
	if len(conf) > 0 {
		if conf[0].BatchSize > 0 {
			batchSize = conf[0].BatchSize
		}
		if conf[0].FlushInterval > 0 {
			flushInterval = conf[0].FlushInterval
		}
		if conf[0].FlushQueueSize > 0 {
			flushQueueSize = conf[0].FlushQueueSize
		}
	}

	b := &InsertBuffer{
		writer:        writer,
		pending:       make([]journaledSnapshot, 0, batchSize),
		flushChan:     make(chan []journaledSnapshot, flushQueueSize),
		maxBatch:      batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}
	if len(conf) > 0 && conf[0].Journal != nil {
		b.journal = conf[0].Journal
	}

	b.wg.Add(1)
	go b.flushWorker()

	b.wg.Add(1)
	b.tickWg.Add(1)
	go b.tickLoop()

	return b
}

// tickLoop periodically drains the pending buffer.
func (b *InsertBuffer) tickLoop() {
	defer b.wg.Done()
	defer b.tickWg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.drainPending()
		case <-b.done:
			b.drainPending() // final drain
			return
		}
	}
}

// logBackpressure emits a throttled warning (at most once per 10 seconds) when
// the flush channel is full and an inline flush is triggered.
func (b *InsertBuffer) logBackpressure() {
	count := b.backpressureCount.Add(1)
	now := time.Now().Unix()
	last := b.lastBPLog.Load()
	if now-last >= 10 && b.lastBPLog.CompareAndSwap(last, now) {
		log.Printf("store: backpressure, %d inline flushes (flush channel full, DuckDB falling behind)", count)
	}
}

// drainPending moves pending snapshots to the flush channel without blocking on DuckDB.
func (b *InsertBuffer) drainPending() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = make([]journaledSnapshot, 0, b.maxBatch)
	b.mu.Unlock()

	// Non-blocking send to flush channel. If channel is full, flush synchronously
	// as a safety valve (this means DuckDB is falling behind).
	select {
	case b.flushChan <- batch:
	default:
		b.logBackpressure()
		if err := b.flushBatch(batch); err != nil {
			log.Printf("store: flush error (inline): %v", err)
		}
	}
}

// flushWorker processes batches from the flush channel.
func (b *InsertBuffer) flushWorker() {
	defer b.wg.Done()
	for batch := range b.flushChan {
		if err := b.flushBatch(batch); err != nil {
			log.Printf("store: flush error: %v", err)
		}
	}
}

// Add queues a snapshot for batch insertion. This never blocks on DuckDB IO.
func (b *InsertBuffer) Add(snapshot *VitalsSnapshot) {
	if snapshot.EventID == "" {
		snapshot.EventID = nextEventID()
	}

	seq := uint64(0)
	if b.journal != nil {
		for {
			var err error
			seq, err = b.journal.Append(snapshot)
			if err == nil {
				break
			}
			log.Printf("store: journal append failed, retrying: %v", err)
			select {
			case <-b.done:
				return
			case <-time.After(200 * time.Millisecond):
			}
		}
	}

	b.mu.Lock()
	b.pending = append(b.pending, journaledSnapshot{
		seq:      seq,
		snapshot: snapshot,
	})
	shouldFlush := len(b.pending) >= b.maxBatch
	var batch []journaledSnapshot
	if shouldFlush {
		batch = b.pending
		b.pending = make([]journaledSnapshot, 0, b.maxBatch)
	}
	b.mu.Unlock()

	if shouldFlush {
		select {
		case b.flushChan <- batch:
		default:
			// Backpressure safety valve: flush inline instead of spawning
			// unbounded goroutines under sustained overload.
			b.logBackpressure()
			if err := b.flushBatch(batch); err != nil {
				log.Printf("store: flush error (overflow-inline): %v", err)
			}
		}
	}
}

// Stop flushes remaining snapshots and waits for all writes to complete.
// Safe to call more than once.
func (b *InsertBuffer) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		// Wait for tickLoop to finish its final drain before closing flushChan,
		// ensuring all pending snapshots are sent to the flush channel.
		b.tickWg.Wait()
		close(b.flushChan)
		b.wg.Wait()
		if b.journal != nil {
			if err := b.journal.Close(); err != nil {
				log.Printf("store: journal close error: %v", err)
			}
		}
	})
}

func (b *InsertBuffer) flushBatch(batch []journaledSnapshot) error {
	if len(batch) == 0 {
		return nil
	}

	snapshots := make([]*VitalsSnapshot, 0, len(batch))
	for _, item := range batch {
		snapshots = append(snapshots, item.snapshot)
	}

	if err := b.writer.InsertSnapshotBatch(snapshots); err != nil {
		return err
	}

	if b.journal != nil {
		maxSeq := uint64(0)
		for _, item := range batch {
			if item.seq > maxSeq {
				maxSeq = item.seq
			}
		}
		if maxSeq > 0 {
			if err := b.journal.Commit(maxSeq); err != nil {
				return fmt.Errorf("journal commit seq=%d: %w", maxSeq, err)
			}
		}
	}
	return nil
}

// InsertSnapshotBatch appends a batch of vitals snapshots into DuckDB in a
// single transaction. If any individual snapshot fails to insert, the entire
// batch is rolled back and retried record-by-record to salvage what we can.
func (s *Store) InsertSnapshotBatch(snapshots []*VitalsSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.insertBatchTx(ctx, snapshots)
	if err == nil {
		return nil
	}

	var failed int
	for _, snap := range snapshots {
		if rerr := s.insertBatchTx(ctx, []*VitalsSnapshot{snap}); rerr != nil {
			failed++
			log.Printf("store: dropping snapshot (page=%s locale=%s): %v", snap.Page, snap.Locale, rerr)
		}
	}
	if failed > 0 {
		log.Printf("store: batch partially failed, %d/%d snapshots dropped", failed, len(snapshots))
	}
	return nil
}

// insertBatchTx inserts snapshots in a single transaction.
func (s *Store) insertBatchTx(ctx context.Context, snapshots []*VitalsSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vitals_samples (collected_at, page, locale, url, user_agent, device, connection, source, event_id, cls, lcp, fid, fcp, ttfb, inp, dom_content_loaded, load_complete, first_paint) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		collectedAt := snap.CollectedAt
		if collectedAt.IsZero() {
			collectedAt = time.Now().UTC()
		}
		locale := snap.Locale
		if locale == "" {
			locale = "en"
		}
		eventID := snap.EventID
		if eventID == "" {
			eventID = nextEventID()
		}

		if _, err := stmt.ExecContext(
			ctx,
			collectedAt, snap.Page, locale, snap.URL,
			snap.UserAgent, snap.Device, snap.Connection, snap.Source, eventID,
			snap.CLS, snap.LCP, snap.FID, snap.FCP, snap.TTFB, snap.INP,
			snap.DOMContentLoaded, snap.LoadComplete, snap.FirstPaint,
		); err != nil {
			return fmt.Errorf("snapshot insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func nextEventID() string {
	n := eventIDCounter.Add(1)
	return fmt.Sprintf("%x-%x", time.Now().UTC().UnixNano(), n)
}
