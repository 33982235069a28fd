package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chargebook/backend/services/booking-service/internal/scheduling"
)

const (
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
)

// ReservationStore is the Postgres interval store. Each Update is one transaction that takes a
// transaction-scoped advisory lock per charger before running the callback; the
// reservations_no_overlap exclusion constraint backs the same rule at the storage level.
type ReservationStore struct {
	pool *pgxpool.Pool
}

// NewReservationStore returns store.
func NewReservationStore(pool *pgxpool.Pool) *ReservationStore {
	return &ReservationStore{pool: pool}
}

// Update implements scheduling.Store.
func (s *ReservationStore) Update(ctx context.Context, chargerIDs []int64, fn func(scheduling.Tx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return scheduling.Storage("begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// advisory keys are charger ids; other advisory lock users must not share this database
	for _, id := range scheduling.LockOrder(chargerIDs) {
		if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, id); err != nil {
			return scheduling.Storage("lock charger", err)
		}
	}

	if err = fn(&pgTx{tx: tx}); err != nil {
		return mapPgError("update", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return mapPgError("commit", err)
	}
	return nil
}

// Sweep implements scheduling.Store.
func (s *ReservationStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reservations WHERE endtime < $1`, now)
	if err != nil {
		return 0, scheduling.Storage("sweep", err)
	}
	return tag.RowsAffected(), nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) List(ctx context.Context, chargerID, excluding int64) ([]scheduling.Interval, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT reservationid, chargerid, user_id, starttime, endtime
		FROM reservations
		WHERE chargerid = $1 AND reservationid <> $2
		ORDER BY starttime ASC
	`, chargerID, excluding)
	if err != nil {
		return nil, mapPgError("list", err)
	}
	defer rows.Close()

	var out []scheduling.Interval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, mapPgError("list", err)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("list", err)
	}
	return out, nil
}

func (t *pgTx) Get(ctx context.Context, reservationID int64) (scheduling.Interval, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT reservationid, chargerid, user_id, starttime, endtime
		FROM reservations
		WHERE reservationid = $1
		FOR UPDATE
	`, reservationID)
	iv, err := scanInterval(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scheduling.Interval{}, scheduling.ErrReservationNotFound
	}
	if err != nil {
		return scheduling.Interval{}, mapPgError("get", err)
	}
	return iv, nil
}

func (t *pgTx) Insert(ctx context.Context, iv scheduling.Interval) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO reservations (chargerid, user_id, starttime, endtime)
		VALUES ($1, $2, $3, $4)
		RETURNING reservationid
	`, iv.ChargerID, iv.UserID, iv.Start, iv.End).Scan(&id)
	if err != nil {
		return 0, mapPgError("insert", err)
	}
	return id, nil
}

func (t *pgTx) Replace(ctx context.Context, reservationID int64, iv scheduling.Interval) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE reservations
		SET chargerid = $2,
		    starttime = $3,
		    endtime = $4
		WHERE reservationid = $1
	`, reservationID, iv.ChargerID, iv.Start, iv.End)
	if err != nil {
		return mapPgError("replace", err)
	}
	if tag.RowsAffected() == 0 {
		return scheduling.ErrReservationNotFound
	}
	return nil
}

func (t *pgTx) Remove(ctx context.Context, reservationID int64) (scheduling.Interval, bool, error) {
	row := t.tx.QueryRow(ctx, `
		DELETE FROM reservations
		WHERE reservationid = $1
		RETURNING reservationid, chargerid, user_id, starttime, endtime
	`, reservationID)
	iv, err := scanInterval(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scheduling.Interval{}, false, nil
	}
	if err != nil {
		return scheduling.Interval{}, false, mapPgError("remove", err)
	}
	return iv, true, nil
}

func scanInterval(row pgx.Row) (scheduling.Interval, error) {
	var iv scheduling.Interval
	if err := row.Scan(&iv.ReservationID, &iv.ChargerID, &iv.UserID, &iv.Start, &iv.End); err != nil {
		return scheduling.Interval{}, err
	}
	iv.Start = iv.Start.UTC()
	iv.End = iv.End.UTC()
	return iv, nil
}

// mapPgError turns constraint violations that carry scheduling meaning into domain errors and
// wraps everything else as a storage failure.
func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return scheduling.ErrSlotConflict
		case pgForeignKeyViolation:
			return scheduling.ErrChargerNotFound
		}
	}
	return scheduling.Storage(op, err)
}
