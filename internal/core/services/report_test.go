package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-comply/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

func TestReportService_GetAndList(t *testing.T) {
	ctx := context.Background()
	reports := memory.NewReportStore()
	svc := NewReportService(reports, memory.NewProgressStore())
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	for _, r := range []*domain.ComplianceReport{
		{ID: "rep-old", DocumentID: "doc-1", Score: 40, GeneratedAt: base},
		{ID: "rep-new", DocumentID: "doc-1", Score: 90, GeneratedAt: base.Add(time.Hour)},
		{ID: "rep-other", DocumentID: "doc-2", GeneratedAt: base},
	} {
		_, err := reports.InsertReport(ctx, r)
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, "rep-new")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, got.Score, 0.001)

	list, err := svc.List(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "rep-new", list[0].ID)
	assert.Equal(t, "rep-old", list[1].ID)

	_, err = svc.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Get(ctx, "  ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestReportService_Progress(t *testing.T) {
	ctx := context.Background()
	progress := memory.NewProgressStore()
	svc := NewReportService(memory.NewReportStore(), progress)

	require.NoError(t, progress.SaveProgress(ctx, domain.ProgressRecord{
		JobID: "job-1", DocumentID: "doc-1", Status: domain.ProgressStarted, Percent: 40, Step: "Phase 2",
	}))

	rec, err := svc.Progress(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 40, rec.Percent)
	assert.Equal(t, "Phase 2", rec.Step)

	_, err = svc.Progress(ctx, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = NewReportService(memory.NewReportStore(), nil).Progress(ctx, "job-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
