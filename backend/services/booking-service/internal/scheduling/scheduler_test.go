package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeDirectory struct {
	chargers map[int64]bool
	err      error
}

func (d fakeDirectory) Exists(_ context.Context, chargerID int64) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.chargers[chargerID], nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingNotifier) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type schedulerFixture struct {
	store    *MemoryStore
	clock    *fakeClock
	notifier *recordingNotifier
	sched    *Scheduler
}

func newFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	dir := fakeDirectory{chargers: map[int64]bool{1: true, 2: true}}
	f := &schedulerFixture{
		store:    NewMemoryStore(dir),
		clock:    &fakeClock{now: at("08:00")},
		notifier: &recordingNotifier{},
	}
	f.sched = NewScheduler(f.store, dir, nil, Options{Clock: f.clock, Notifier: f.notifier})
	return f
}

func (f *schedulerFixture) book(t *testing.T, chargerID int64, from, to string) Interval {
	t.Helper()
	iv, err := f.sched.Book(context.Background(), chargerID, at(from), at(to), 42)
	if err != nil {
		t.Fatalf("Book(%d, %s-%s): %v", chargerID, from, to, err)
	}
	return iv
}

func assertNoOverlap(t *testing.T, intervals []Interval) {
	t.Helper()
	for i := range intervals {
		if !intervals[i].Valid() {
			t.Fatalf("stored invalid interval %s", intervals[i])
		}
		for j := i + 1; j < len(intervals); j++ {
			a, b := intervals[i], intervals[j]
			if a.ChargerID == b.ChargerID && Overlaps(a, b) {
				t.Fatalf("reservations %d and %d overlap: %s / %s", a.ReservationID, b.ReservationID, a, b)
			}
		}
	}
}

func TestBookBackToBack(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, 1, "10:00", "11:00")
	second := f.book(t, 1, "11:00", "12:00")

	if first.ReservationID == 0 || second.ReservationID == first.ReservationID {
		t.Fatalf("unexpected ids %d, %d", first.ReservationID, second.ReservationID)
	}
	if second.UserID != 42 {
		t.Fatalf("owner not stored, got %d", second.UserID)
	}
	if got := len(f.store.Snapshot()); got != 2 {
		t.Fatalf("expected 2 reservations, got %d", got)
	}
	if types := f.notifier.types(); len(types) != 2 || types[0] != EventBooked {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestBookOverlapConflict(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, 1, "10:00", "11:00")

	_, err := f.sched.Book(context.Background(), 1, at("10:30"), at("11:30"), 7)
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	snap := f.store.Snapshot()
	if len(snap) != 1 || snap[0] != first {
		t.Fatalf("store changed after conflict: %v", snap)
	}
	if len(f.notifier.types()) != 1 {
		t.Fatalf("rejected booking must not notify")
	}

	// same slot on another charger is independent
	f.book(t, 2, "10:30", "11:30")
}

func TestBookInvalidInterval(t *testing.T) {
	f := newFixture(t)
	for _, tc := range [][2]string{{"10:00", "10:00"}, {"11:00", "10:00"}} {
		_, err := f.sched.Book(context.Background(), 1, at(tc[0]), at(tc[1]), 1)
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("Book(%s-%s) error = %v, want ErrInvalidInterval", tc[0], tc[1], err)
		}
	}
	if len(f.store.Snapshot()) != 0 {
		t.Fatalf("invalid booking stored something")
	}
}

func TestBookUnknownCharger(t *testing.T) {
	f := newFixture(t)
	_, err := f.sched.Book(context.Background(), 99, at("10:00"), at("11:00"), 1)
	if !errors.Is(err, ErrChargerNotFound) {
		t.Fatalf("expected ErrChargerNotFound, got %v", err)
	}
	if len(f.store.Snapshot()) != 0 {
		t.Fatalf("unknown charger booking stored something")
	}
}

func TestBookDirectoryFailureIsStorageError(t *testing.T) {
	dir := fakeDirectory{err: errors.New("db down")}
	sched := NewScheduler(NewMemoryStore(nil), dir, nil, Options{})
	_, err := sched.Book(context.Background(), 1, at("10:00"), at("11:00"), 1)
	if !IsStorageError(err) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if errors.Is(err, ErrChargerNotFound) {
		t.Fatalf("infrastructure failure must not look like a domain error")
	}
}

func TestRescheduleOwnSlot(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, 1, "09:00", "10:00")

	moved, err := f.sched.Reschedule(context.Background(), r.ReservationID, 1, at("09:30"), at("10:30"))
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.ReservationID != r.ReservationID || moved.UserID != r.UserID {
		t.Fatalf("identity or owner changed: %+v", moved)
	}
	snap := f.store.Snapshot()
	if len(snap) != 1 || !snap[0].Start.Equal(at("09:30")) || !snap[0].End.Equal(at("10:30")) {
		t.Fatalf("store does not reflect the new interval: %v", snap)
	}
}

func TestRescheduleConflictKeepsOriginal(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, 1, "09:00", "10:00")
	f.book(t, 1, "10:00", "11:00")

	_, err := f.sched.Reschedule(context.Background(), r.ReservationID, 1, at("09:30"), at("10:30"))
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	for _, iv := range f.store.Snapshot() {
		if iv.ReservationID == r.ReservationID && iv != r {
			t.Fatalf("original interval changed: %s", iv)
		}
	}
}

func TestRescheduleToOtherCharger(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, 1, "09:00", "10:00")
	f.book(t, 2, "12:00", "13:00")

	moved, err := f.sched.Reschedule(context.Background(), r.ReservationID, 2, at("09:00"), at("10:00"))
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.ChargerID != 2 {
		t.Fatalf("charger not updated: %+v", moved)
	}
	// the old slot on charger 1 is free again
	f.book(t, 1, "09:00", "10:00")
	assertNoOverlap(t, f.store.Snapshot())
}

func TestRescheduleErrors(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, 1, "09:00", "10:00")
	ctx := context.Background()

	if _, err := f.sched.Reschedule(ctx, 999, 1, at("12:00"), at("13:00")); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
	if _, err := f.sched.Reschedule(ctx, r.ReservationID, 99, at("12:00"), at("13:00")); !errors.Is(err, ErrChargerNotFound) {
		t.Fatalf("expected ErrChargerNotFound, got %v", err)
	}
	if _, err := f.sched.Reschedule(ctx, r.ReservationID, 1, at("13:00"), at("12:00")); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if snap := f.store.Snapshot(); len(snap) != 1 || snap[0] != r {
		t.Fatalf("failed reschedules changed the store: %v", snap)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, 1, "09:00", "10:00")
	ctx := context.Background()

	removed, err := f.sched.Cancel(ctx, r.ReservationID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if removed != r {
		t.Fatalf("Cancel returned %+v, want %+v", removed, r)
	}
	if _, err := f.sched.Cancel(ctx, r.ReservationID); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("second Cancel error = %v, want ErrReservationNotFound", err)
	}
	types := f.notifier.types()
	if len(types) != 2 || types[1] != EventCancelled {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestExpire(t *testing.T) {
	f := newFixture(t)
	f.book(t, 1, "09:00", "10:00")
	f.book(t, 1, "11:00", "12:00")
	ctx := context.Background()

	// end == now is not yet expired
	f.clock.set(at("10:00"))
	if n, err := f.sched.Expire(ctx); err != nil || n != 0 {
		t.Fatalf("Expire at end instant = %d, %v", n, err)
	}

	f.clock.set(at("10:30"))
	if n, err := f.sched.Expire(ctx); err != nil || n != 1 {
		t.Fatalf("first Expire = %d, %v, want 1", n, err)
	}
	if n, err := f.sched.Expire(ctx); err != nil || n != 0 {
		t.Fatalf("second Expire = %d, %v, want 0", n, err)
	}
	snap := f.store.Snapshot()
	if len(snap) != 1 || !snap[0].Start.Equal(at("11:00")) {
		t.Fatalf("wrong reservation swept: %v", snap)
	}

	var expired int
	for _, typ := range f.notifier.types() {
		if typ == EventExpired {
			expired++
		}
	}
	if expired != 1 {
		t.Fatalf("expected one expiry event, got %d", expired)
	}
}

func TestConcurrentBookingSameSlot(t *testing.T) {
	f := newFixture(t)
	const workers = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			<-start
			_, err := f.sched.Book(context.Background(), 1, at("10:00"), at("11:00"), user)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	close(start)
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("successes=%d conflicts=%d", successes, conflicts)
	}
	if len(f.store.Snapshot()) != 1 {
		t.Fatalf("expected exactly one stored reservation")
	}
}

func TestConcurrentMixedOperationsKeepInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slots := []string{"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00"}

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			charger := int64(i%2 + 1)
			from := slots[i%len(slots)]
			to := slots[(i+2)%len(slots)]
			if at(to).Before(at(from)) || at(to).Equal(at(from)) {
				to = "12:00"
			}
			iv, err := f.sched.Book(ctx, charger, at(from), at(to), int64(i))
			if err != nil {
				return
			}
			switch i % 3 {
			case 0:
				_, _ = f.sched.Cancel(ctx, iv.ReservationID)
			case 1:
				_, _ = f.sched.Reschedule(ctx, iv.ReservationID, 3-charger, iv.Start.Add(30*time.Minute), iv.End.Add(30*time.Minute))
			}
		}(i)
	}
	wg.Wait()

	assertNoOverlap(t, f.store.Snapshot())
}

func TestNotifierFuncAndEventKey(t *testing.T) {
	var got Event
	n := NotifierFunc(func(_ context.Context, ev Event) { got = ev })
	ev := bookedEvent(Interval{ReservationID: 9, ChargerID: 1, Start: at("10:00"), End: at("11:00")}, at("09:00"))
	n.Notify(context.Background(), ev)

	if got.Type != EventBooked || got.Message == "" {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Key() != "reservation-9" {
		t.Fatalf("unexpected key %q", got.Key())
	}
	if expiredEvent(3, at("09:00")).Key() != string(EventExpired) {
		t.Fatalf("expiry events key by type")
	}
}

func TestSchedulerLogsCommittedChanges(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dir := fakeDirectory{chargers: map[int64]bool{1: true}}
	sched := NewScheduler(NewMemoryStore(dir), dir, zap.New(core), Options{Margin: 10 * time.Minute})
	if got := sched.Checker().Margin(); got != 10*time.Minute {
		t.Fatalf("margin = %s", got)
	}

	iv, err := sched.Book(context.Background(), 1, at("10:00"), at("11:30"), 7)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := sched.Reschedule(context.Background(), iv.ReservationID, 1, at("12:00"), at("12:45")); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	want := map[string]time.Duration{
		"reservation booked":      90 * time.Minute,
		"reservation rescheduled": 45 * time.Minute,
	}
	for msg, d := range want {
		entries := logs.FilterMessage(msg).All()
		if len(entries) != 1 {
			t.Fatalf("%q logged %d times", msg, len(entries))
		}
		if got := entries[0].ContextMap()["duration"]; got != d {
			t.Fatalf("%q duration = %v, want %v", msg, got, d)
		}
	}
}
