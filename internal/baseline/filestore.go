package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sitepulse/pulse/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// FileStore persists the baseline list as a JSON array in a single file.
// Writes go through a temp file and rename so a crash never leaves a
// half-written list behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed baseline store at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("baseline: store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("baseline: mkdir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// LoadBaselines reads the stored baseline list. A missing file is an empty
// list, not an error.
func (s *FileStore) LoadBaselines() ([]model.Baseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("baseline: read: %w", err)
	}

	var baselines []model.Baseline
	if err := json.Unmarshal(data, &baselines); err != nil {
		return nil, fmt.Errorf("baseline: parse: %w", err)
	}
	return baselines, nil
}

// SaveBaselines replaces the stored baseline list.
func (s *FileStore) SaveBaselines(baselines []model.Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(baselines)
	if err != nil {
		return fmt.Errorf("baseline: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, defaultFileMode); err != nil {
		return fmt.Errorf("baseline: write tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("baseline: rename: %w", err)
	}
	return nil
}
