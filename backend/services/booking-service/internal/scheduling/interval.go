package scheduling

import (
	"fmt"
	"time"
)

// Interval is a reservation's half-open [Start, End) range on one charger.
type Interval struct {
	ReservationID int64
	ChargerID     int64
	UserID        int64
	Start         time.Time
	End           time.Time
}

// Valid reports whether Start is strictly before End.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) String() string {
	return fmt.Sprintf("charger %d [%s, %s)", iv.ChargerID, iv.Start.UTC().Format(time.RFC3339), iv.End.UTC().Format(time.RFC3339))
}

// Overlaps reports whether a and b intersect in nonzero duration.
// Touching endpoints (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
