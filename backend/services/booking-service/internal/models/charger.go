package models

import "time"

// Charger statuses used by fleet management. The list is open; unknown values are stored as-is.
const (
	ChargerAvailable   = "available"
	ChargerUnavailable = "unavailable"
	ChargerInService   = "in_service"
)

// Charger is one bookable charging point.
type Charger struct {
	ID               int64      `db:"chargerid" json:"id"`
	Location         string     `db:"location" json:"location"`
	Status           string     `db:"status" json:"status"`
	LastServicedDate *time.Time `db:"last_serviced_date" json:"last_serviced_date,omitempty"`
}
