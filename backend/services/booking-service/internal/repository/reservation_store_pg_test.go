package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/scheduling"
)

// testDSNEnv names a disposable Postgres database for the store tests. Each run works in its
// own schema and drops it afterwards.
const testDSNEnv = "BOOKING_TEST_POSTGRES_DSN"

var storeDay = time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC)

func at(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return storeDay.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

type pgFixture struct {
	pool      *pgxpool.Pool
	store     *ReservationStore
	scheduler *scheduling.Scheduler
	chargers  *ChargerRepository
}

func newPgFixture(t *testing.T, margin time.Duration) *pgFixture {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(admin.Close)

	schema := fmt.Sprintf("booking_test_%d", time.Now().UnixNano())
	if _, err := admin.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS btree_gist`); err != nil {
		t.Fatalf("btree_gist: %v", err)
	}
	if _, err := admin.Exec(ctx, `CREATE SCHEMA `+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), `DROP SCHEMA `+schema+` CASCADE`)
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.MaxConns = 40
	cfg.ConnConfig.RuntimeParams["search_path"] = schema + ",public"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	migration, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(migration)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	store := NewReservationStore(pool)
	chargers := NewChargerRepository(pool)
	return &pgFixture{
		pool:      pool,
		store:     store,
		chargers:  chargers,
		scheduler: scheduling.NewScheduler(store, chargers, zap.NewNop(), scheduling.Options{Margin: margin}),
	}
}

func (f *pgFixture) addCharger(t *testing.T) int64 {
	t.Helper()
	var id int64
	err := f.pool.QueryRow(context.Background(),
		`INSERT INTO chargers (location) VALUES ('Depot') RETURNING chargerid`).Scan(&id)
	if err != nil {
		t.Fatalf("insert charger: %v", err)
	}
	return id
}

func (f *pgFixture) count(t *testing.T, chargerID int64) int {
	t.Helper()
	var n int
	err := f.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM reservations WHERE chargerid = $1`, chargerID).Scan(&n)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestReservationStoreConcurrentSameSlot(t *testing.T) {
	f := newPgFixture(t, 0)
	charger := f.addCharger(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := f.scheduler.Book(ctx, charger, at("10:00"), at("11:00"), user)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, scheduling.ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("successes=%d conflicts=%d", successes, conflicts)
	}
	if n := f.count(t, charger); n != 1 {
		t.Fatalf("stored %d reservations, want 1", n)
	}
}

func TestReservationStoreMarginHoldsUnderConcurrency(t *testing.T) {
	// Only the locked check enforces the margin, the exclusion constraint does not.
	f := newPgFixture(t, 30*time.Minute)
	charger := f.addCharger(t)
	ctx := context.Background()

	slots := [][2]string{{"08:00", "09:00"}, {"09:00", "10:00"}, {"10:00", "11:00"}, {"11:00", "12:00"}, {"12:00", "13:00"}}
	var wg sync.WaitGroup
	for round := 0; round < 4; round++ {
		for _, s := range slots {
			wg.Add(1)
			go func(from, to string) {
				defer wg.Done()
				_, err := f.scheduler.Book(ctx, charger, at(from), at(to), 1)
				if err != nil && !errors.Is(err, scheduling.ErrSlotConflict) {
					t.Errorf("unexpected error: %v", err)
				}
			}(s[0], s[1])
		}
	}
	wg.Wait()

	var stored []scheduling.Interval
	err := f.store.Update(ctx, nil, func(tx scheduling.Tx) error {
		var err error
		stored, err = tx.List(ctx, charger, 0)
		return err
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	checker := scheduling.NewChecker(30 * time.Minute)
	for i := range stored {
		for j := i + 1; j < len(stored); j++ {
			if checker.Overlaps(stored[i], stored[j]) {
				t.Fatalf("%s and %s violate the margin", stored[i], stored[j])
			}
		}
	}
	if len(stored) == 0 {
		t.Fatal("expected at least one booking")
	}
}

func TestReservationStoreBackToBackAndReschedule(t *testing.T) {
	f := newPgFixture(t, 0)
	charger := f.addCharger(t)
	ctx := context.Background()

	first, err := f.scheduler.Book(ctx, charger, at("10:00"), at("11:00"), 1)
	if err != nil {
		t.Fatalf("book first: %v", err)
	}
	second, err := f.scheduler.Book(ctx, charger, at("11:00"), at("12:00"), 2)
	if err != nil {
		t.Fatalf("book adjacent: %v", err)
	}

	// overlapping only its own current slot
	moved, err := f.scheduler.Reschedule(ctx, first.ReservationID, charger, at("10:30"), at("11:00"))
	if err != nil {
		t.Fatalf("reschedule within own slot: %v", err)
	}
	if moved.UserID != 1 {
		t.Fatalf("owner changed to %d", moved.UserID)
	}

	if _, err := f.scheduler.Reschedule(ctx, first.ReservationID, charger, at("10:30"), at("11:30")); !errors.Is(err, scheduling.ErrSlotConflict) {
		t.Fatalf("reschedule onto neighbour: got %v", err)
	}
	if _, err := f.scheduler.Reschedule(ctx, 999999, charger, at("14:00"), at("15:00")); !errors.Is(err, scheduling.ErrReservationNotFound) {
		t.Fatalf("reschedule missing: got %v", err)
	}

	if _, err := f.scheduler.Cancel(ctx, second.ReservationID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.scheduler.Cancel(ctx, second.ReservationID); !errors.Is(err, scheduling.ErrReservationNotFound) {
		t.Fatalf("cancel missing: got %v", err)
	}
	if n := f.count(t, charger); n != 1 {
		t.Fatalf("stored %d reservations, want 1", n)
	}
}

func TestReservationStoreUnknownCharger(t *testing.T) {
	f := newPgFixture(t, 0)
	if _, err := f.scheduler.Book(context.Background(), 424242, at("10:00"), at("11:00"), 1); !errors.Is(err, scheduling.ErrChargerNotFound) {
		t.Fatalf("got %v", err)
	}

	// foreign key path when the directory is bypassed
	err := f.store.Update(context.Background(), []int64{424242}, func(tx scheduling.Tx) error {
		_, err := tx.Insert(context.Background(), scheduling.Interval{ChargerID: 424242, UserID: 1, Start: at("10:00"), End: at("11:00")})
		return err
	})
	if !errors.Is(err, scheduling.ErrChargerNotFound) {
		t.Fatalf("direct insert: got %v", err)
	}
}

func TestReservationStoreExclusionConstraint(t *testing.T) {
	f := newPgFixture(t, 0)
	charger := f.addCharger(t)
	ctx := context.Background()

	if _, err := f.scheduler.Book(ctx, charger, at("10:00"), at("11:00"), 1); err != nil {
		t.Fatalf("book: %v", err)
	}

	// insert without consulting the checker; the constraint must still refuse it
	err := f.store.Update(ctx, []int64{charger}, func(tx scheduling.Tx) error {
		_, err := tx.Insert(ctx, scheduling.Interval{ChargerID: charger, UserID: 2, Start: at("10:30"), End: at("11:30")})
		return err
	})
	if !errors.Is(err, scheduling.ErrSlotConflict) {
		t.Fatalf("got %v, want ErrSlotConflict", err)
	}

	err = f.store.Update(ctx, []int64{charger}, func(tx scheduling.Tx) error {
		_, err := tx.Insert(ctx, scheduling.Interval{ChargerID: charger, UserID: 2, Start: at("11:00"), End: at("12:00")})
		return err
	})
	if err != nil {
		t.Fatalf("adjacent insert: %v", err)
	}
	if n := f.count(t, charger); n != 2 {
		t.Fatalf("stored %d reservations, want 2", n)
	}
}

func TestReservationStoreRollsBackOnError(t *testing.T) {
	f := newPgFixture(t, 0)
	charger := f.addCharger(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := f.store.Update(ctx, []int64{charger}, func(tx scheduling.Tx) error {
		if _, err := tx.Insert(ctx, scheduling.Interval{ChargerID: charger, UserID: 1, Start: at("10:00"), End: at("11:00")}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if n := f.count(t, charger); n != 0 {
		t.Fatalf("stored %d reservations after rollback", n)
	}
}

func TestReservationStoreSweepBoundary(t *testing.T) {
	f := newPgFixture(t, 0)
	charger := f.addCharger(t)
	ctx := context.Background()

	if _, err := f.scheduler.Book(ctx, charger, at("10:00"), at("11:00"), 1); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.scheduler.Book(ctx, charger, at("12:00"), at("13:00"), 1); err != nil {
		t.Fatalf("book: %v", err)
	}

	n, err := f.store.Sweep(ctx, at("11:00"))
	if err != nil || n != 0 {
		t.Fatalf("sweep at end: n=%d err=%v", n, err)
	}
	n, err = f.store.Sweep(ctx, at("11:00").Add(time.Second))
	if err != nil || n != 1 {
		t.Fatalf("sweep after end: n=%d err=%v", n, err)
	}
	n, err = f.store.Sweep(ctx, at("11:00").Add(time.Second))
	if err != nil || n != 0 {
		t.Fatalf("repeated sweep: n=%d err=%v", n, err)
	}
	if c := f.count(t, charger); c != 1 {
		t.Fatalf("stored %d reservations, want 1", c)
	}
}
