package scheduling

import (
	"context"
	"time"
)

// Checker detects overlaps between a candidate interval and a charger's existing reservations.
// A positive margin demands that much idle time between neighbouring reservations.
type Checker struct {
	margin time.Duration
}

// NewChecker returns a checker; margins below zero are treated as zero.
func NewChecker(margin time.Duration) Checker {
	if margin < 0 {
		margin = 0
	}
	return Checker{margin: margin}
}

// Margin returns the configured gap between reservations.
func (c Checker) Margin() time.Duration {
	return c.margin
}

// Overlaps applies the half-open overlap rule, widened by the margin.
func (c Checker) Overlaps(candidate, existing Interval) bool {
	if c.margin == 0 {
		return Overlaps(candidate, existing)
	}
	return candidate.Start.Before(existing.End.Add(c.margin)) && existing.Start.Before(candidate.End.Add(c.margin))
}

// FirstConflict returns the first interval in existing that collides with candidate.
func (c Checker) FirstConflict(candidate Interval, existing []Interval) (Interval, bool) {
	for _, iv := range existing {
		if c.Overlaps(candidate, iv) {
			return iv, true
		}
	}
	return Interval{}, false
}

// HasConflict lists the charger's intervals (minus excluding) through tx and checks candidate
// against them.
func (c Checker) HasConflict(ctx context.Context, tx Tx, chargerID int64, candidate Interval, excluding int64) (Interval, bool, error) {
	existing, err := tx.List(ctx, chargerID, excluding)
	if err != nil {
		return Interval{}, false, err
	}
	hit, ok := c.FirstConflict(candidate, existing)
	return hit, ok, nil
}
