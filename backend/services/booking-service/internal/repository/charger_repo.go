package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chargebook/backend/services/booking-service/internal/models"
)

// ErrChargerNotFound indicates missing charger.
var ErrChargerNotFound = errors.New("charger not found")

// ChargerRepository persists chargers.
type ChargerRepository struct {
	pool *pgxpool.Pool
}

// NewChargerRepository returns repository.
func NewChargerRepository(pool *pgxpool.Pool) *ChargerRepository {
	return &ChargerRepository{pool: pool}
}

func (r *ChargerRepository) List(ctx context.Context) ([]models.Charger, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chargerid, location, status, last_serviced_date
		FROM chargers
		ORDER BY chargerid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chargers := make([]models.Charger, 0)
	for rows.Next() {
		var c models.Charger
		if err := rows.Scan(&c.ID, &c.Location, &c.Status, &c.LastServicedDate); err != nil {
			return nil, err
		}
		chargers = append(chargers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chargers, nil
}

func (r *ChargerRepository) Get(ctx context.Context, id int64) (*models.Charger, error) {
	var c models.Charger
	err := r.pool.QueryRow(ctx, `
		SELECT chargerid, location, status, last_serviced_date
		FROM chargers
		WHERE chargerid = $1
	`, id).Scan(&c.ID, &c.Location, &c.Status, &c.LastServicedDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChargerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChargerRepository) Create(ctx context.Context, c *models.Charger) (*models.Charger, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chargers (location, status, last_serviced_date)
		VALUES ($1, $2, $3)
		RETURNING chargerid
	`, c.Location, c.Status, c.LastServicedDate).Scan(&c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChargerRepository) Update(ctx context.Context, c *models.Charger) (*models.Charger, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chargers
		SET location = $2,
		    status = $3,
		    last_serviced_date = $4
		WHERE chargerid = $1
	`, c.ID, c.Location, c.Status, c.LastServicedDate)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrChargerNotFound
	}
	return c, nil
}

// Delete removes the charger; its reservations and reports cascade.
func (r *ChargerRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chargers WHERE chargerid = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrChargerNotFound
	}
	return nil
}

// Exists satisfies scheduling.ChargerDirectory.
func (r *ChargerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chargers WHERE chargerid = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
