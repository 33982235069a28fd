package scheduling

import (
	"context"
	"sort"
	"time"
)

// Tx is the view of the interval store handed to an Update callback. Every write made through
// a Tx commits together with the others or not at all.
type Tx interface {
	// List returns the intervals on chargerID, skipping reservation excluding (0 skips none).
	List(ctx context.Context, chargerID, excluding int64) ([]Interval, error)
	// Get returns one reservation or ErrReservationNotFound.
	Get(ctx context.Context, reservationID int64) (Interval, error)
	// Insert stores iv and returns its new identity; ErrChargerNotFound for unknown chargers.
	Insert(ctx context.Context, iv Interval) (int64, error)
	// Replace overwrites charger and times of an existing reservation; ErrReservationNotFound if absent.
	Replace(ctx context.Context, reservationID int64, iv Interval) error
	// Remove deletes the reservation. A missing reservation reports ok=false and no error.
	Remove(ctx context.Context, reservationID int64) (Interval, bool, error)
}

// Store owns the authoritative reservation intervals.
type Store interface {
	// Update runs fn while holding exclusive access to every charger in chargerIDs.
	Update(ctx context.Context, chargerIDs []int64, fn func(Tx) error) error
	// Sweep removes intervals whose end is strictly before now and returns how many went.
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

// ChargerDirectory answers whether a charger exists.
type ChargerDirectory interface {
	Exists(ctx context.Context, chargerID int64) (bool, error)
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// LockOrder returns the distinct positive charger ids in ascending order. Stores acquire
// locks in this order so that multi-charger updates cannot deadlock.
func LockOrder(chargerIDs []int64) []int64 {
	seen := make(map[int64]struct{}, len(chargerIDs))
	ids := make([]int64, 0, len(chargerIDs))
	for _, id := range chargerIDs {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
