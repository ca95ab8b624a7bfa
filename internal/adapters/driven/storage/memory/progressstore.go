package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure ProgressStore implements the interface.
var _ driven.ProgressStore = (*ProgressStore)(nil)

// ProgressStore is an in-memory implementation of driven.ProgressStore.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.ProgressRecord
	history map[string][]domain.ProgressRecord
}

// NewProgressStore creates a new in-memory progress store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		records: make(map[string]domain.ProgressRecord),
		history: make(map[string][]domain.ProgressRecord),
	}
}

// SaveProgress creates or replaces the record for a job.
func (s *ProgressStore) SaveProgress(_ context.Context, record domain.ProgressRecord) error {
	if record.JobID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.JobID] = record
	s.history[record.JobID] = append(s.history[record.JobID], record)
	return nil
}

// GetProgress retrieves the record for a job.
func (s *ProgressStore) GetProgress(_ context.Context, jobID string) (*domain.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[jobID]
	if !ok {
		return nil, fmt.Errorf("progress %s: %w", jobID, domain.ErrNotFound)
	}
	return &r, nil
}

// History returns every record saved for a job, oldest first.
func (s *ProgressStore) History(jobID string) []domain.ProgressRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ProgressRecord(nil), s.history[jobID]...)
}
