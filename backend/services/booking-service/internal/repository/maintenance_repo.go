package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chargebook/backend/services/booking-service/internal/models"
)

// ErrReportNotFound indicates missing maintenance report.
var ErrReportNotFound = errors.New("maintenance report not found")

// MaintenanceRepository persists maintenance reports.
type MaintenanceRepository struct {
	pool *pgxpool.Pool
}

// NewMaintenanceRepository returns repository.
func NewMaintenanceRepository(pool *pgxpool.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

const reportColumns = `
	m.report_id, m.chargerid, m.reported_by, m.issue_description, m.status,
	m.assigned_to, m.created_at, m.resolved_at, c.location
`

// List returns reports newest first. With unresolvedOnly, resolved reports are skipped.
func (r *MaintenanceRepository) List(ctx context.Context, unresolvedOnly bool) ([]models.MaintenanceReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM maintenance_reports m
		JOIN chargers c ON c.chargerid = m.chargerid
		WHERE NOT $1 OR m.status <> $2
		ORDER BY m.created_at DESC
	`, unresolvedOnly, models.MaintenanceResolved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]models.MaintenanceReport, 0)
	for rows.Next() {
		var m models.MaintenanceReport
		if err := rows.Scan(
			&m.ID,
			&m.ChargerID,
			&m.ReportedBy,
			&m.IssueDescription,
			&m.Status,
			&m.AssignedTo,
			&m.CreatedAt,
			&m.ResolvedAt,
			&m.Location,
		); err != nil {
			return nil, err
		}
		reports = append(reports, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *MaintenanceRepository) Create(ctx context.Context, m *models.MaintenanceReport) (*models.MaintenanceReport, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO maintenance_reports (chargerid, reported_by, issue_description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING report_id, created_at
	`, m.ChargerID, m.ReportedBy, m.IssueDescription, m.Status).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrChargerNotFound
		}
		return nil, err
	}
	return m, nil
}

// Assign sets the technician and moves the report to in_progress.
func (r *MaintenanceRepository) Assign(ctx context.Context, id, assignee int64) (*models.MaintenanceReport, error) {
	return r.updateReturning(ctx, `
		UPDATE maintenance_reports
		SET assigned_to = $2, status = $3
		WHERE report_id = $1
		RETURNING report_id, chargerid, reported_by, issue_description, status, assigned_to, created_at, resolved_at
	`, id, assignee, models.MaintenanceInProgress)
}

// Resolve marks the report resolved now.
func (r *MaintenanceRepository) Resolve(ctx context.Context, id int64) (*models.MaintenanceReport, error) {
	return r.updateReturning(ctx, `
		UPDATE maintenance_reports
		SET status = $2, resolved_at = NOW()
		WHERE report_id = $1
		RETURNING report_id, chargerid, reported_by, issue_description, status, assigned_to, created_at, resolved_at
	`, id, models.MaintenanceResolved)
}

func (r *MaintenanceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM maintenance_reports WHERE report_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *MaintenanceRepository) updateReturning(ctx context.Context, query string, args ...any) (*models.MaintenanceReport, error) {
	var m models.MaintenanceReport
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&m.ID,
		&m.ChargerID,
		&m.ReportedBy,
		&m.IssueDescription,
		&m.Status,
		&m.AssignedTo,
		&m.CreatedAt,
		&m.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
