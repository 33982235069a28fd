package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/models"
	"chargebook/backend/services/booking-service/internal/scheduling"
)

type nopLister struct{}

func (nopLister) ListByUser(context.Context, int64) ([]models.Reservation, error) { return nil, nil }
func (nopLister) ListAll(context.Context, int) ([]models.Reservation, error) { return nil, nil }
func (nopLister) ListByCharger(context.Context, int64) ([]models.Reservation, error) {
	return nil, nil
}

func newReservationService(t *testing.T) *ReservationService {
	t.Helper()
	normalizer, err := scheduling.NewNormalizer("America/New_York")
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	scheduler := scheduling.NewScheduler(scheduling.NewMemoryStore(nil), nil, zap.NewNop(), scheduling.Options{})
	return NewReservationService(scheduler, normalizer, nopLister{})
}

func TestReservationServiceBookConvertsWallClockToUTC(t *testing.T) {
	svc := newReservationService(t)

	res, err := svc.Book(context.Background(), 7, BookingInput{
		ChargerID: 1,
		StartTime: "2030-01-15T09:00",
		EndTime:   "2030-01-15T10:30",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	wantStart := time.Date(2030, 1, 15, 14, 0, 0, 0, time.UTC)
	if !res.StartTime.Equal(wantStart) || !res.EndTime.Equal(wantStart.Add(90*time.Minute)) {
		t.Fatalf("unexpected times %v - %v", res.StartTime, res.EndTime)
	}
	if res.UserID != 7 || res.ChargerID != 1 || res.ID == 0 {
		t.Fatalf("unexpected reservation %+v", res)
	}
}

func TestReservationServiceRejectsBadInput(t *testing.T) {
	svc := newReservationService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, 7, BookingInput{ChargerID: 1, StartTime: "tomorrow", EndTime: "2030-01-15T10:00"}); !errors.Is(err, scheduling.ErrInvalidTimestamp) {
		t.Fatalf("garbage start: got %v", err)
	}
	if _, err := svc.Book(ctx, 7, BookingInput{ChargerID: 1, StartTime: "2030-01-15T10:00", EndTime: "2030-01-15T09:00"}); !errors.Is(err, scheduling.ErrInvalidInterval) {
		t.Fatalf("inverted range: got %v", err)
	}
}

func TestReservationServiceRescheduleAndCancel(t *testing.T) {
	svc := newReservationService(t)
	ctx := context.Background()

	first, err := svc.Book(ctx, 7, BookingInput{ChargerID: 1, StartTime: "2030-01-15T09:00", EndTime: "2030-01-15T10:00"})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.Book(ctx, 8, BookingInput{ChargerID: 1, StartTime: "2030-01-15T10:00", EndTime: "2030-01-15T11:00"}); err != nil {
		t.Fatalf("adjacent book: %v", err)
	}

	if _, err := svc.Reschedule(ctx, first.ID, BookingInput{ChargerID: 1, StartTime: "2030-01-15T09:30", EndTime: "2030-01-15T10:30"}); !errors.Is(err, scheduling.ErrSlotConflict) {
		t.Fatalf("overlapping reschedule: got %v", err)
	}
	moved, err := svc.Reschedule(ctx, first.ID, BookingInput{ChargerID: 1, StartTime: "2030-01-15T08:00", EndTime: "2030-01-15T09:30"})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.UserID != 7 {
		t.Fatalf("owner changed to %d", moved.UserID)
	}

	if _, err := svc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, first.ID); !errors.Is(err, scheduling.ErrReservationNotFound) {
		t.Fatalf("second cancel: got %v", err)
	}
}
