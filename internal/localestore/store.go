// Package localestore persists the locale-detection history of the site's
// visitors and provides its cleanup and compaction operations.
package localestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sitepulse/pulse/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755

	sourceName = "file"
)

// Result is the uniform outcome envelope for every store operation. Store
// operations recover from their own failures: Success=false with Error set is
// how problems are reported, never a panic or a propagated error.
type Result struct {
	Success      bool          `json:"success"`
	Data         int           `json:"data"` // records affected
	Error        string        `json:"error,omitempty"`
	Source       string        `json:"source"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"responseTime"`
}

// Config holds tunable parameters for the history store.
type Config struct {
	MaxRecords int
}

// Store owns the detection-history blob. All mutations go read-compute-persist
// under one lock; the cached in-memory copy is invalidated on every mutation
// so reads after a failed persist re-read the file.
type Store struct {
	mu     sync.Mutex
	path   string
	max    int
	cached *model.DetectionHistory
	now    func() time.Time
}

// Open creates or opens the history store at path.
func Open(path string, conf ...Config) (*Store, error) {
	if path == "" {
		return nil, errors.New("localestore: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("localestore: mkdir: %w", err)
	}
	maxRecords := model.DefaultHistoryMaxRecords
	if len(conf) > 0 && conf[0].MaxRecords > 0 {
		maxRecords = conf[0].MaxRecords
	}
	return &Store{path: path, max: maxRecords, now: time.Now}, nil
}

// Append prepends one detection record and re-applies the size cap.
func (s *Store) Append(record model.LocaleDetectionRecord) Result {
	return s.mutate(func(h *model.DetectionHistory) int {
		h.History = append([]model.LocaleDetectionRecord{record}, h.History...)
		if len(h.History) > s.max {
			h.History = h.History[:s.max]
		}
		return 1
	})
}

// CleanupExpired removes records older than maxAge (default 30 days) and
// returns the removal count. Nothing expired is still a success.
func (s *Store) CleanupExpired(maxAge time.Duration) Result {
	if maxAge <= 0 {
		maxAge = model.DefaultHistoryMaxAge
	}
	cutoff := s.now().Add(-maxAge).UnixMilli()

	return s.mutate(func(h *model.DetectionHistory) int {
		kept := h.History[:0:0]
		for _, r := range h.History {
			if r.Timestamp >= cutoff {
				kept = append(kept, r)
			}
		}
		removed := len(h.History) - len(kept)
		h.History = kept
		return removed
	})
}

// CleanupDuplicates removes records sharing a composite identity
// (locale, source, timestamp, confidence), keeping the first occurrence.
// Running it twice in a row removes nothing the second time.
func (s *Store) CleanupDuplicates() Result {
	return s.mutate(func(h *model.DetectionHistory) int {
		seen := make(map[string]bool, len(h.History))
		kept := h.History[:0:0]
		for _, r := range h.History {
			key := r.Locale + "|" + r.Source + "|" +
				strconv.FormatInt(r.Timestamp, 10) + "|" +
				strconv.FormatFloat(r.Confidence, 'f', -1, 64)
			if seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, r)
		}
		removed := len(h.History) - len(kept)
		h.History = kept
		return removed
	})
}

// LimitHistory truncates the history to the newest maxRecords entries.
func (s *Store) LimitHistory(maxRecords int) Result {
	if maxRecords <= 0 {
		maxRecords = s.max
	}
	return s.mutate(func(h *model.DetectionHistory) int {
		if len(h.History) <= maxRecords {
			return 0
		}
		removed := len(h.History) - maxRecords
		h.History = h.History[:maxRecords]
		return removed
	})
}

// ClearAll resets the store to a fresh empty history.
func (s *Store) ClearAll() Result {
	return s.mutate(func(h *model.DetectionHistory) int {
		removed := len(h.History)
		h.History = nil
		return removed
	})
}

// History returns a copy of the current detection history.
func (s *Store) History() (model.DetectionHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.loadLocked()
	if err != nil {
		return model.DetectionHistory{}, err
	}
	out := model.DetectionHistory{LastUpdated: h.LastUpdated}
	out.History = append(out.History, h.History...)
	return out, nil
}

// mutate runs one read-compute-persist cycle. Every failure is converted into
// a soft Result; nothing escapes as an error.
func (s *Store) mutate(fn func(*model.DetectionHistory) int) Result {
	start := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	fail := func(err error) Result {
		s.cached = nil
		return Result{
			Success:      false,
			Error:        err.Error(),
			Source:       sourceName,
			Timestamp:    start,
			ResponseTime: s.now().Sub(start),
		}
	}

	h, err := s.loadLocked()
	if err != nil {
		return fail(err)
	}

	affected := fn(h)

	// Any mutation leaves the history newest-first.
	sort.SliceStable(h.History, func(i, j int) bool {
		return h.History[i].Timestamp > h.History[j].Timestamp
	})
	h.LastUpdated = s.now().UnixMilli()

	if err := s.persistLocked(h); err != nil {
		return fail(err)
	}
	s.cached = h

	return Result{
		Success:      true,
		Data:         affected,
		Source:       sourceName,
		Timestamp:    start,
		ResponseTime: s.now().Sub(start),
	}
}

func (s *Store) loadLocked() (*model.DetectionHistory, error) {
	if s.cached != nil {
		h := model.DetectionHistory{LastUpdated: s.cached.LastUpdated}
		h.History = append(h.History, s.cached.History...)
		return &h, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.DetectionHistory{}, nil
		}
		return nil, fmt.Errorf("localestore: read: %w", err)
	}

	var h model.DetectionHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("localestore: parse: %w", err)
	}
	return &h, nil
}

func (s *Store) persistLocked(h *model.DetectionHistory) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("localestore: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, defaultFileMode); err != nil {
		return fmt.Errorf("localestore: write tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("localestore: rename: %w", err)
	}
	return nil
}
