package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chargebook/backend/services/booking-service/internal/models"
)

// ReservationRepository serves read-only reservation listings. Writes go through the scheduler.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository returns repository.
func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

const reservationColumns = `
	r.reservationid, r.chargerid, r.user_id, r.starttime, r.endtime, c.location
`

// ListByUser returns the user's reservations with their charger location, soonest first.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID int64) ([]models.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r
		JOIN chargers c ON c.chargerid = r.chargerid
		WHERE r.user_id = $1
		ORDER BY r.starttime ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListAll returns up to limit reservations across all users.
func (r *ReservationRepository) ListAll(ctx context.Context, limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r
		JOIN chargers c ON c.chargerid = r.chargerid
		ORDER BY r.starttime ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListByCharger returns the booked slots on one charger.
func (r *ReservationRepository) ListByCharger(ctx context.Context, chargerID int64) ([]models.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r
		JOIN chargers c ON c.chargerid = r.chargerid
		WHERE r.chargerid = $1
		ORDER BY r.starttime ASC
	`, chargerID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]models.Reservation, error) {
	defer rows.Close()

	reservations := make([]models.Reservation, 0)
	for rows.Next() {
		var res models.Reservation
		if err := rows.Scan(
			&res.ID,
			&res.ChargerID,
			&res.UserID,
			&res.StartTime,
			&res.EndTime,
			&res.Location,
		); err != nil {
			return nil, err
		}
		res.StartTime = res.StartTime.UTC()
		res.EndTime = res.EndTime.UTC()
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}
