package scheduling

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Options tune a Scheduler. Zero values select SystemClock, no notifications and no margin.
type Options struct {
	Clock    Clock
	Notifier Notifier
	Margin   time.Duration
}

// Scheduler is the only writer of reservation intervals. Every operation runs as one
// Store.Update so the conflict check and the write cannot be separated by another writer.
type Scheduler struct {
	store     Store
	directory ChargerDirectory
	checker   Checker
	clock     Clock
	notifier  Notifier
	logger    *zap.Logger
}

func NewScheduler(store Store, directory ChargerDirectory, logger *zap.Logger, opts Options) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	return &Scheduler{
		store:     store,
		directory: directory,
		checker:   NewChecker(opts.Margin),
		clock:     opts.Clock,
		notifier:  opts.Notifier,
		logger:    logger,
	}
}

// Checker exposes the conflict rule in use.
func (s *Scheduler) Checker() Checker {
	return s.checker
}

// Book reserves [start, end) on chargerID for userID.
func (s *Scheduler) Book(ctx context.Context, chargerID int64, start, end time.Time, userID int64) (Interval, error) {
	candidate := Interval{ChargerID: chargerID, UserID: userID, Start: start.UTC(), End: end.UTC()}
	if !candidate.Valid() {
		return Interval{}, ErrInvalidInterval
	}

	err := s.store.Update(ctx, []int64{chargerID}, func(tx Tx) error {
		if err := s.requireCharger(ctx, chargerID); err != nil {
			return err
		}
		hit, conflict, err := s.checker.HasConflict(ctx, tx, chargerID, candidate, 0)
		if err != nil {
			return err
		}
		if conflict {
			s.logger.Debug("booking rejected",
				zap.Int64("charger_id", chargerID),
				zap.Int64("conflicts_with", hit.ReservationID),
			)
			return ErrSlotConflict
		}
		id, err := tx.Insert(ctx, candidate)
		if err != nil {
			return err
		}
		candidate.ReservationID = id
		return nil
	})
	if err != nil {
		return Interval{}, Storage("book", err)
	}

	s.logger.Info("reservation booked",
		zap.Int64("reservation_id", candidate.ReservationID),
		zap.Int64("charger_id", chargerID),
		zap.Int64("user_id", userID),
		zap.Duration("duration", candidate.Duration()),
	)
	s.notifier.Notify(ctx, bookedEvent(candidate, s.clock.Now()))
	return candidate, nil
}

// Reschedule moves reservationID to [start, end) on chargerID. Identity and owner are kept;
// the reservation's own current slot never counts as a conflict.
func (s *Scheduler) Reschedule(ctx context.Context, reservationID, chargerID int64, start, end time.Time) (Interval, error) {
	candidate := Interval{ReservationID: reservationID, ChargerID: chargerID, Start: start.UTC(), End: end.UTC()}
	if !candidate.Valid() {
		return Interval{}, ErrInvalidInterval
	}

	err := s.store.Update(ctx, []int64{chargerID}, func(tx Tx) error {
		current, err := tx.Get(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := s.requireCharger(ctx, chargerID); err != nil {
			return err
		}
		hit, conflict, err := s.checker.HasConflict(ctx, tx, chargerID, candidate, reservationID)
		if err != nil {
			return err
		}
		if conflict {
			s.logger.Debug("reschedule rejected",
				zap.Int64("reservation_id", reservationID),
				zap.Int64("conflicts_with", hit.ReservationID),
			)
			return ErrSlotConflict
		}
		candidate.UserID = current.UserID
		return tx.Replace(ctx, reservationID, candidate)
	})
	if err != nil {
		return Interval{}, Storage("reschedule", err)
	}

	s.logger.Info("reservation rescheduled",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("charger_id", chargerID),
		zap.Duration("duration", candidate.Duration()),
	)
	s.notifier.Notify(ctx, rescheduledEvent(candidate, s.clock.Now()))
	return candidate, nil
}

// Cancel removes reservationID and returns what was removed.
func (s *Scheduler) Cancel(ctx context.Context, reservationID int64) (Interval, error) {
	var removed Interval
	err := s.store.Update(ctx, nil, func(tx Tx) error {
		iv, ok, err := tx.Remove(ctx, reservationID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrReservationNotFound
		}
		removed = iv
		return nil
	})
	if err != nil {
		return Interval{}, Storage("cancel", err)
	}

	s.logger.Info("reservation cancelled",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("charger_id", removed.ChargerID),
	)
	s.notifier.Notify(ctx, cancelledEvent(removed, s.clock.Now()))
	return removed, nil
}

// Expire sweeps every reservation that ended before the clock's current instant.
func (s *Scheduler) Expire(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	n, err := s.store.Sweep(ctx, now)
	if err != nil {
		return 0, Storage("sweep", err)
	}
	if n > 0 {
		s.logger.Info("expired reservations removed", zap.Int64("count", n))
		s.notifier.Notify(ctx, expiredEvent(n, now))
	}
	return n, nil
}

func (s *Scheduler) requireCharger(ctx context.Context, chargerID int64) error {
	if s.directory == nil {
		return nil
	}
	ok, err := s.directory.Exists(ctx, chargerID)
	if err != nil {
		return Storage("charger lookup", err)
	}
	if !ok {
		return ErrChargerNotFound
	}
	return nil
}
