package models

import "time"

// Reservation is a booked [StartTime, EndTime) slot on a charger.
type Reservation struct {
	ID        int64     `db:"reservationid" json:"id"`
	ChargerID int64     `db:"chargerid" json:"charger_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	StartTime time.Time `db:"starttime" json:"start_time"`
	EndTime   time.Time `db:"endtime" json:"end_time"`
	Location  string    `db:"location" json:"location,omitempty"`
}
