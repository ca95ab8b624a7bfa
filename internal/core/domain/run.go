package domain

import (
	"fmt"
	"time"
)

// RunState is the lifecycle state of a single compliance run.
type RunState string

// Run states in order of progression.
const (
	RunPending      RunState = "pending"
	RunDecomposing  RunState = "decomposing"
	RunRetrieving   RunState = "retrieving"
	RunAssessing    RunState = "assessing"
	RunSynthesizing RunState = "synthesizing"
	RunCompleted    RunState = "completed"
	RunFailed       RunState = "failed"
)

// runTransitions lists the states reachable from each state.
// Failed is reachable from every non-terminal state and is added in CanTransition.
var runTransitions = map[RunState][]RunState{
	RunPending:      {RunDecomposing},
	RunDecomposing:  {RunRetrieving, RunSynthesizing},
	RunRetrieving:   {RunAssessing, RunSynthesizing},
	RunAssessing:    {RunRetrieving, RunSynthesizing},
	RunSynthesizing: {RunCompleted},
}

// IsTerminal returns true for completed and failed.
func (s RunState) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// CanTransition reports whether a run may move from s to next.
// Retrieving and assessing alternate once per rule-set.
func (s RunState) CanTransition(next RunState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == RunFailed {
		return true
	}
	for _, allowed := range runTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RunTracker enforces the run state graph.
// It is owned by a single run and not safe for concurrent use.
type RunTracker struct {
	state   RunState
	history []RunState
}

// NewRunTracker returns a tracker in the pending state.
func NewRunTracker() *RunTracker {
	return &RunTracker{state: RunPending, history: []RunState{RunPending}}
}

// State returns the current state.
func (t *RunTracker) State() RunState {
	return t.state
}

// History returns the states visited so far, oldest first.
func (t *RunTracker) History() []RunState {
	out := make([]RunState, len(t.history))
	copy(out, t.history)
	return out
}

// Transition moves to next or returns ErrInvalidTransition.
func (t *RunTracker) Transition(next RunState) error {
	if !t.state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.state, next)
	}
	t.state = next
	t.history = append(t.history, next)
	return nil
}

// Fail moves to failed from any non-terminal state. It is a no-op once terminal.
func (t *RunTracker) Fail() {
	if t.state.IsTerminal() {
		return
	}
	t.state = RunFailed
	t.history = append(t.history, RunFailed)
}

// ProgressStatus is the coarse status of a persisted progress record.
type ProgressStatus string

// Progress statuses.
const (
	ProgressStarted   ProgressStatus = "started"
	ProgressCompleted ProgressStatus = "completed"
	ProgressFailed    ProgressStatus = "failed"
)

// ProgressRecord is the advisory, pollable progress of a compliance job.
type ProgressRecord struct {
	JobID      string         `json:"job_id"`
	DocumentID string         `json:"document_id"`
	Status     ProgressStatus `json:"status"`
	Percent    int            `json:"progress_pct"`
	Step       string         `json:"step"`
	ReportID   string         `json:"report_id,omitempty"`
	Error      string         `json:"error,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// BatchError records the failure of one document in a batch run.
type BatchError struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
}

// BatchSummary is the outcome of a sequential batch run.
type BatchSummary struct {
	Total          int           `json:"total"`
	Completed      int           `json:"completed"`
	Failed         int           `json:"failed"`
	ReportIDs      []string      `json:"report_ids"`
	Errors         []BatchError  `json:"errors"`
	ProcessingTime time.Duration `json:"processing_time"`
}
