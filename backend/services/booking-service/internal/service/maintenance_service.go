package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/models"
)

// ErrEmptyIssue indicates a report without description.
var ErrEmptyIssue = errors.New("issue description required")

// MaintenanceRepository is the persistence the maintenance service needs.
type MaintenanceRepository interface {
	List(ctx context.Context, unresolvedOnly bool) ([]models.MaintenanceReport, error)
	Create(ctx context.Context, m *models.MaintenanceReport) (*models.MaintenanceReport, error)
	Assign(ctx context.Context, id, assignee int64) (*models.MaintenanceReport, error)
	Resolve(ctx context.Context, id int64) (*models.MaintenanceReport, error)
	Delete(ctx context.Context, id int64) error
}

// MaintenanceService records and triages charger issues.
type MaintenanceService struct {
	repo   MaintenanceRepository
	logger *zap.Logger
}

// NewMaintenanceService builds service.
func NewMaintenanceService(repo MaintenanceRepository, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{repo: repo, logger: logger}
}

func (s *MaintenanceService) List(ctx context.Context, unresolvedOnly bool) ([]models.MaintenanceReport, error) {
	return s.repo.List(ctx, unresolvedOnly)
}

// Report opens a pending report on chargerID.
func (s *MaintenanceService) Report(ctx context.Context, chargerID, reportedBy int64, issue string) (*models.MaintenanceReport, error) {
	issue = strings.TrimSpace(issue)
	if issue == "" {
		return nil, ErrEmptyIssue
	}
	report, err := s.repo.Create(ctx, &models.MaintenanceReport{
		ChargerID:        chargerID,
		ReportedBy:       reportedBy,
		IssueDescription: issue,
		Status:           models.MaintenancePending,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("maintenance reported",
		zap.Int64("report_id", report.ID),
		zap.Int64("charger_id", chargerID),
		zap.Int64("reported_by", reportedBy),
	)
	return report, nil
}

func (s *MaintenanceService) Assign(ctx context.Context, id, assignee int64) (*models.MaintenanceReport, error) {
	report, err := s.repo.Assign(ctx, id, assignee)
	if err != nil {
		return nil, err
	}
	s.logger.Info("maintenance assigned", zap.Int64("report_id", id), zap.Int64("assigned_to", assignee))
	return report, nil
}

func (s *MaintenanceService) Resolve(ctx context.Context, id int64) (*models.MaintenanceReport, error) {
	report, err := s.repo.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("maintenance resolved", zap.Int64("report_id", id))
	return report, nil
}

func (s *MaintenanceService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
