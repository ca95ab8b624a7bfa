package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// reportStore implements driven.ReportStore.
type reportStore struct {
	store *Store
}

var _ driven.ReportStore = (*reportStore)(nil)

// InsertReport stores a new report. Reports are never updated, so an
// existing ID is rejected with domain.ErrDuplicateReport.
func (s *reportStore) InsertReport(ctx context.Context, report *domain.ComplianceReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("%w: nil report", domain.ErrInvalidInput)
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshalling report: %w", err)
	}

	result, err := s.store.db.ExecContext(ctx, `
		INSERT INTO reports (id, document_id, document_name, score, total_rules_checked, state, generated_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, report.ID, report.DocumentID, report.DocumentName, report.Score, report.TotalRulesChecked,
		string(report.State), report.GeneratedAt.UTC(), string(data))
	if err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("checking insert: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("report %s: %w", report.ID, domain.ErrDuplicateReport)
	}
	return report.ID, nil
}

// GetReport retrieves a report by ID.
func (s *reportStore) GetReport(ctx context.Context, id string) (*domain.ComplianceReport, error) {
	var data string
	err := s.store.db.QueryRowContext(ctx, "SELECT data FROM reports WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("querying report: %w", err)
	}

	var report domain.ComplianceReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("unmarshalling report: %w", err)
	}
	return &report, nil
}

// ListReports returns report summaries, newest first. An empty
// documentID lists every report.
func (s *reportStore) ListReports(ctx context.Context, documentID string) ([]domain.ReportSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, document_name, score, total_rules_checked, state, generated_at
		FROM reports
		WHERE ? = '' OR document_id = ?
		ORDER BY generated_at DESC, id
	`, documentID, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ReportSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			summary domain.ReportSummary
			state   string
		)
		if err := rows.Scan(&summary.ID, &summary.DocumentID, &summary.DocumentName, &summary.Score,
			&summary.TotalRulesChecked, &state, &summary.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		summary.State = domain.RunState(state)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return summaries, nil
}
