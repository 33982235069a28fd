package notify

import (
	"encoding/json"
	"time"

	"chargebook/backend/services/booking-service/internal/scheduling"
)

// Payload is the wire form of a scheduling event on every channel.
type Payload struct {
	Type          string     `json:"type"`
	Message       string     `json:"message"`
	ReservationID int64      `json:"reservation_id,omitempty"`
	ChargerID     int64      `json:"charger_id,omitempty"`
	UserID        int64      `json:"user_id,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Count         int64      `json:"count,omitempty"`
	At            time.Time  `json:"at"`
}

func NewPayload(ev scheduling.Event) Payload {
	p := Payload{
		Type:    string(ev.Type),
		Message: ev.Message,
		Count:   ev.Count,
		At:      ev.At.UTC(),
	}
	if iv := ev.Reservation; iv.ReservationID != 0 {
		start, end := iv.Start.UTC(), iv.End.UTC()
		p.ReservationID = iv.ReservationID
		p.ChargerID = iv.ChargerID
		p.UserID = iv.UserID
		p.StartTime = &start
		p.EndTime = &end
	}
	return p
}

// Encode marshals ev as a Payload.
func Encode(ev scheduling.Event) ([]byte, error) {
	return json.Marshal(NewPayload(ev))
}
