package service

import (
	"context"

	"chargebook/backend/services/booking-service/internal/models"
	"chargebook/backend/services/booking-service/internal/scheduling"
)

// ReservationLister serves reservation read models.
type ReservationLister interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Reservation, error)
	ListAll(ctx context.Context, limit int) ([]models.Reservation, error)
	ListByCharger(ctx context.Context, chargerID int64) ([]models.Reservation, error)
}

// BookingInput carries caller supplied wall-clock timestamps.
type BookingInput struct {
	ChargerID int64
	StartTime string
	EndTime   string
}

// ReservationService translates requests into scheduler operations.
type ReservationService struct {
	scheduler  *scheduling.Scheduler
	normalizer *scheduling.Normalizer
	lister     ReservationLister
}

// NewReservationService builds service.
func NewReservationService(scheduler *scheduling.Scheduler, normalizer *scheduling.Normalizer, lister ReservationLister) *ReservationService {
	return &ReservationService{scheduler: scheduler, normalizer: normalizer, lister: lister}
}

// Book reserves a slot for userID.
func (s *ReservationService) Book(ctx context.Context, userID int64, input BookingInput) (models.Reservation, error) {
	start, end, err := s.normalizer.NormalizeRange(input.StartTime, input.EndTime)
	if err != nil {
		return models.Reservation{}, err
	}
	iv, err := s.scheduler.Book(ctx, input.ChargerID, start, end, userID)
	if err != nil {
		return models.Reservation{}, err
	}
	return toReservation(iv), nil
}

// Reschedule moves an existing reservation.
func (s *ReservationService) Reschedule(ctx context.Context, reservationID int64, input BookingInput) (models.Reservation, error) {
	start, end, err := s.normalizer.NormalizeRange(input.StartTime, input.EndTime)
	if err != nil {
		return models.Reservation{}, err
	}
	iv, err := s.scheduler.Reschedule(ctx, reservationID, input.ChargerID, start, end)
	if err != nil {
		return models.Reservation{}, err
	}
	return toReservation(iv), nil
}

func (s *ReservationService) Cancel(ctx context.Context, reservationID int64) (models.Reservation, error) {
	iv, err := s.scheduler.Cancel(ctx, reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	return toReservation(iv), nil
}

// Expire removes reservations that already ended.
func (s *ReservationService) Expire(ctx context.Context) (int64, error) {
	return s.scheduler.Expire(ctx)
}

func (s *ReservationService) ListMine(ctx context.Context, userID int64) ([]models.Reservation, error) {
	return s.lister.ListByUser(ctx, userID)
}

func (s *ReservationService) ListAll(ctx context.Context) ([]models.Reservation, error) {
	return s.lister.ListAll(ctx, 0)
}

func (s *ReservationService) ListByCharger(ctx context.Context, chargerID int64) ([]models.Reservation, error) {
	return s.lister.ListByCharger(ctx, chargerID)
}

func toReservation(iv scheduling.Interval) models.Reservation {
	return models.Reservation{
		ID:        iv.ReservationID,
		ChargerID: iv.ChargerID,
		UserID:    iv.UserID,
		StartTime: iv.Start.UTC(),
		EndTime:   iv.End.UTC(),
	}
}
