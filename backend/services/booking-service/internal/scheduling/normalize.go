package scheduling

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultZone is the civil zone chargers operate in when none is configured.
const DefaultZone = "America/New_York"

var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05Z07",
		"2006-01-02T15:04Z07",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15",
		"2006-01-02",
	}
)

// Normalizer converts caller supplied wall-clock timestamps into UTC instants.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer loads the IANA zone used for timestamps that carry no offset.
func NewNormalizer(zone string) (*Normalizer, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("scheduling: load zone %q: %w", zone, err)
	}
	return &Normalizer{loc: loc}, nil
}

// Location returns the configured civil zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize parses raw and returns the instant in UTC. An explicit offset in raw wins over
// the configured zone.
func (n *Normalizer) Normalize(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range localLayouts {
		if wall, err := time.Parse(layout, raw); err == nil {
			return n.inZone(wall).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// inZone reads the clock fields of wall in the configured zone. A wall clock skipped by a
// forward transition (02:30 on a spring-forward night) moves forward by the size of the gap.
func (n *Normalizer) inZone(wall time.Time) time.Time {
	t := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), n.loc)
	if sameClock(t, wall) {
		return t
	}
	_, before := t.Add(-12 * time.Hour).Zone()
	_, after := t.Add(12 * time.Hour).Zone()
	early := wall.Add(-time.Duration(after) * time.Second)
	late := wall.Add(-time.Duration(before) * time.Second)
	if early.After(late) {
		return early.In(n.loc)
	}
	return late.In(n.loc)
}

func sameClock(t, wall time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := wall.Date()
	return y1 == y2 && m1 == m2 && d1 == d2 &&
		t.Hour() == wall.Hour() && t.Minute() == wall.Minute() && t.Second() == wall.Second()
}

// NormalizeRange normalizes both ends of a booking request.
func (n *Normalizer) NormalizeRange(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := n.Normalize(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := n.Normalize(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
