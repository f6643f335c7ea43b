package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/srgjo27/hotel_ledger/internal/core/domain"
)

// ReportRepository stores generated reports. Rows are only ever inserted.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) AppendReport(ctx context.Context, report *domain.FinancialReport) error {
	data, err := json.Marshal(report.Data)
	if err != nil {
		return fmt.Errorf("failed to encode report data: %w", err)
	}

	query := `
	INSERT INTO financial_reports (id, type, start_date, end_date, generated_at, data)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query, report.ID, report.Type, report.StartDate, report.EndDate, report.GeneratedAt, data)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("report %s: %w", report.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

func (r *ReportRepository) ListReports(ctx context.Context, limit int) ([]domain.FinancialReport, error) {
	query := `
	SELECT id, type, start_date, end_date, generated_at, data
	FROM financial_reports
	ORDER BY generated_at DESC
	LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	reports := []domain.FinancialReport{}
	for rows.Next() {
		var report domain.FinancialReport
		var data []byte

		if err := rows.Scan(&report.ID, &report.Type, &report.StartDate, &report.EndDate, &report.GeneratedAt, &data); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(data, &report.Data); err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", report.ID, err)
		}

		reports = append(reports, report)
	}

	return reports, rows.Err()
}
