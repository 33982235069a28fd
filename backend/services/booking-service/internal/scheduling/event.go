package scheduling

import (
	"context"
	"fmt"
	"time"
)

// EventType names a committed scheduling change.
type EventType string

const (
	EventBooked      EventType = "reservation.booked"
	EventRescheduled EventType = "reservation.rescheduled"
	EventCancelled   EventType = "reservation.cancelled"
	EventExpired     EventType = "reservation.expired"
)

// Event describes a change after it was committed.
type Event struct {
	Type        EventType `json:"type"`
	Reservation Interval  `json:"-"`
	Count       int64     `json:"count,omitempty"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}

// Key is used to partition event streams; events of one reservation share a key.
func (e Event) Key() string {
	if e.Reservation.ReservationID == 0 {
		return string(e.Type)
	}
	return fmt.Sprintf("reservation-%d", e.Reservation.ReservationID)
}

// Notifier receives events after a successful commit. Implementations must not block for
// long and cannot fail the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event)

func (f NotifierFunc) Notify(ctx context.Context, ev Event) {
	f(ctx, ev)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

func bookedEvent(iv Interval, at time.Time) Event {
	return Event{
		Type:        EventBooked,
		Reservation: iv,
		Message:     fmt.Sprintf("New reservation on charger %d from %s to %s", iv.ChargerID, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339)),
		At:          at,
	}
}

func rescheduledEvent(iv Interval, at time.Time) Event {
	return Event{
		Type:        EventRescheduled,
		Reservation: iv,
		Message:     fmt.Sprintf("Reservation %d moved to charger %d from %s to %s", iv.ReservationID, iv.ChargerID, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339)),
		At:          at,
	}
}

func cancelledEvent(iv Interval, at time.Time) Event {
	return Event{
		Type:        EventCancelled,
		Reservation: iv,
		Message:     fmt.Sprintf("Reservation %d cancelled", iv.ReservationID),
		At:          at,
	}
}

func expiredEvent(count int64, at time.Time) Event {
	return Event{
		Type:    EventExpired,
		Count:   count,
		Message: fmt.Sprintf("%d expired reservations removed", count),
		At:      at,
	}
}
