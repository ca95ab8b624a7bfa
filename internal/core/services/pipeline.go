package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

// Ensure CompliancePipeline implements the interface.
var _ driving.ComplianceService = (*CompliancePipeline)(nil)

// complianceRunner runs a single compliance check.
type complianceRunner interface {
	RunComplianceCheck(ctx context.Context, req driving.CheckRequest) (*domain.ComplianceReport, error)
}

// CompliancePipeline wraps the engine with document status bookkeeping,
// persisted progress and batch runs.
type CompliancePipeline struct {
	engine   complianceRunner
	docs     driven.DocumentStore
	progress driven.ProgressStore
	now      func() time.Time
	newJobID func() string
}

// NewCompliancePipeline creates a pipeline. progress may be nil.
func NewCompliancePipeline(
	engine complianceRunner, docs driven.DocumentStore, progress driven.ProgressStore,
) *CompliancePipeline {
	return &CompliancePipeline{
		engine:   engine,
		docs:     docs,
		progress: progress,
		now:      time.Now,
		newJobID: uuid.NewString,
	}
}

// RunComplianceCheck marks the document as validating, runs the engine
// and records the outcome on the document and in the progress store.
func (p *CompliancePipeline) RunComplianceCheck(
	ctx context.Context, req driving.CheckRequest,
) (*domain.ComplianceReport, error) {
	if req.JobID == "" {
		req.JobID = p.newJobID()
	}
	jobID := req.JobID

	p.setStatus(ctx, req.DocumentID, domain.DocumentStatusUpdate{Status: domain.StatusValidating})
	p.saveProgress(ctx, domain.ProgressRecord{
		JobID: jobID, DocumentID: req.DocumentID, Status: domain.ProgressStarted, Step: "Queued",
	})

	caller := req.Progress
	req.Progress = driven.ProgressFunc(func(step string, percent int) {
		p.saveProgress(ctx, domain.ProgressRecord{
			JobID: jobID, DocumentID: req.DocumentID, Status: domain.ProgressStarted,
			Percent: percent, Step: step,
		})
		if caller != nil {
			caller.OnProgress(step, percent)
		}
	})

	report, err := p.engine.RunComplianceCheck(ctx, req)
	if err != nil {
		p.setStatus(ctx, req.DocumentID, domain.DocumentStatusUpdate{Status: domain.StatusValidationFailed})
		p.saveProgress(ctx, domain.ProgressRecord{
			JobID: jobID, DocumentID: req.DocumentID, Status: domain.ProgressFailed,
			Step: "Failed", Error: err.Error(),
		})
		return report, err
	}

	update := domain.DocumentStatusUpdate{Status: domain.StatusValidated, LastReportID: report.ID}
	if report.State == domain.RunFailed {
		update.Status = domain.StatusValidationFailed
	} else {
		score := report.Score
		update.LastScore = &score
	}
	p.setStatus(ctx, req.DocumentID, update)
	p.saveProgress(ctx, domain.ProgressRecord{
		JobID: jobID, DocumentID: req.DocumentID, Status: domain.ProgressCompleted,
		Percent: 100, Step: "Completed", ReportID: report.ID,
	})
	return report, nil
}

// RunBatch checks each document in turn. Individual failures are
// collected in the summary and never stop the batch.
func (p *CompliancePipeline) RunBatch(
	ctx context.Context, documentIDs []string, ruleSets []string,
) (*domain.BatchSummary, error) {
	start := p.now()
	summary := &domain.BatchSummary{Total: len(documentIDs)}

	for i, id := range documentIDs {
		logger.Info("Batch %d/%d: %s", i+1, len(documentIDs), id)
		report, err := p.RunComplianceCheck(ctx, driving.CheckRequest{DocumentID: id, RuleSets: ruleSets})
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, domain.BatchError{DocumentID: id, Error: err.Error()})
			continue
		}
		summary.Completed++
		summary.ReportIDs = append(summary.ReportIDs, report.ID)
	}

	summary.ProcessingTime = p.now().Sub(start)
	return summary, nil
}

func (p *CompliancePipeline) setStatus(ctx context.Context, id string, update domain.DocumentStatusUpdate) {
	if p.docs == nil {
		return
	}
	if err := p.docs.UpdateStatus(ctx, id, update); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Updating status of %s to %s: %v", id, update.Status, err)
	}
}

func (p *CompliancePipeline) saveProgress(ctx context.Context, rec domain.ProgressRecord) {
	if p.progress == nil {
		return
	}
	rec.UpdatedAt = p.now().UTC()
	if err := p.progress.SaveProgress(ctx, rec); err != nil {
		logger.Debug("Saving progress %s: %v", rec.JobID, err)
	}
}
