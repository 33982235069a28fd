package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/models"
)

// ErrInvalidCharger indicates a charger payload that cannot be stored.
var ErrInvalidCharger = errors.New("invalid charger")

// ChargerRepository is the persistence the charger service needs.
type ChargerRepository interface {
	List(ctx context.Context) ([]models.Charger, error)
	Get(ctx context.Context, id int64) (*models.Charger, error)
	Create(ctx context.Context, c *models.Charger) (*models.Charger, error)
	Update(ctx context.Context, c *models.Charger) (*models.Charger, error)
	Delete(ctx context.Context, id int64) error
}

// CacheInvalidator drops cached charger lookups.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, chargerID int64) error
}

// ChargerInput is the writable part of a charger.
type ChargerInput struct {
	Location         string
	Status           string
	LastServicedDate *time.Time
}

// ChargerService manages charger inventory.
type ChargerService struct {
	repo   ChargerRepository
	cache  CacheInvalidator
	logger *zap.Logger
}

// NewChargerService builds service. cache may be nil.
func NewChargerService(repo ChargerRepository, cache CacheInvalidator, logger *zap.Logger) *ChargerService {
	return &ChargerService{repo: repo, cache: cache, logger: logger}
}

func (s *ChargerService) List(ctx context.Context) ([]models.Charger, error) {
	return s.repo.List(ctx)
}

func (s *ChargerService) Get(ctx context.Context, id int64) (*models.Charger, error) {
	return s.repo.Get(ctx, id)
}

func (s *ChargerService) Create(ctx context.Context, input ChargerInput) (*models.Charger, error) {
	charger, err := chargerFromInput(input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, charger)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, created.ID)
	s.logger.Info("charger created", zap.Int64("charger_id", created.ID), zap.String("location", created.Location))
	return created, nil
}

func (s *ChargerService) Update(ctx context.Context, id int64, input ChargerInput) (*models.Charger, error) {
	charger, err := chargerFromInput(input)
	if err != nil {
		return nil, err
	}
	charger.ID = id
	updated, err := s.repo.Update(ctx, charger)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// Delete removes the charger together with its reservations and reports.
func (s *ChargerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("charger deleted", zap.Int64("charger_id", id))
	return nil
}

func (s *ChargerService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate charger cache", zap.Int64("charger_id", id), zap.Error(err))
	}
}

func chargerFromInput(input ChargerInput) (*models.Charger, error) {
	location := strings.TrimSpace(input.Location)
	if location == "" {
		return nil, ErrInvalidCharger
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = models.ChargerAvailable
	}
	charger := &models.Charger{Location: location, Status: status}
	if input.LastServicedDate != nil {
		d := input.LastServicedDate.UTC().Truncate(24 * time.Hour)
		charger.LastServicedDate = &d
	}
	return charger, nil
}
