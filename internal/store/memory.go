package store

import (
	"errors"
	"sync"
	"time"

	"github.com/handiism/epic-downloader/internal/model"
)

var (
	// ErrNotFound is returned when no run matches a lookup.
	ErrNotFound = errors.New("no run recorded")
)

// RunRecord is the outcome of one scheduled run.
type RunRecord struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Report     *model.RunReport `json:"report,omitempty"`

	// Error is set when the run failed before producing a report.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the run produced a report without failures.
func (r RunRecord) Succeeded() bool {
	return r.Error == "" && r.Report != nil && !r.Report.Partial()
}

// MemoryStore is a concurrency-safe in-memory history of runs, oldest first.
type MemoryStore struct {
	mu sync.RWMutex

	runs []RunRecord

	// maxHistory is the number of runs kept; <= 0 means unlimited.
	maxHistory int
}

// NewMemoryStore creates a new MemoryStore keeping at most maxHistory runs.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{maxHistory: maxHistory}
}

// Save appends a run and enforces retention.
func (s *MemoryStore) Save(record RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, record)

	if s.maxHistory > 0 && len(s.runs) > s.maxHistory {
		over := len(s.runs) - s.maxHistory
		s.runs = append([]RunRecord(nil), s.runs[over:]...)
	}
}

// Latest returns the most recent run.
func (s *MemoryStore) Latest() (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return RunRecord{}, ErrNotFound
	}
	return s.runs[len(s.runs)-1], nil
}

// Get returns the run with the given ID.
func (s *MemoryStore) Get(runID string) (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].RunID == runID {
			return s.runs[i], nil
		}
	}
	return RunRecord{}, ErrNotFound
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *MemoryStore) List(limit int) []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]RunRecord, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.runs[i])
	}
	return result
}

// Len returns the number of stored runs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
