package driven

import (
	"context"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// ProgressSink receives incremental progress from a running compliance check.
// Calls are fire-and-forget; implementations must not block for long
// and their failures are never surfaced to the run.
type ProgressSink interface {
	// OnProgress reports the current step label and completion percentage.
	OnProgress(step string, percent int)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(step string, percent int)

// OnProgress calls f.
func (f ProgressFunc) OnProgress(step string, percent int) {
	f(step, percent)
}

// ProgressStore persists pollable progress records.
type ProgressStore interface {
	// SaveProgress creates or replaces the record for a job.
	SaveProgress(ctx context.Context, record domain.ProgressRecord) error

	// GetProgress retrieves the record for a job.
	// Returns domain.ErrNotFound for unknown jobs.
	GetProgress(ctx context.Context, jobID string) (*domain.ProgressRecord, error)
}
