package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Each charger has its own mutex held for the whole of an
// Update; writes are staged and applied atomically once the callback succeeds.
type MemoryStore struct {
	mu        sync.RWMutex
	intervals map[int64]Interval
	nextID    int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	directory ChargerDirectory
}

// NewMemoryStore builds an empty store. When directory is non-nil, Insert rejects chargers it
// does not know.
func NewMemoryStore(directory ChargerDirectory) *MemoryStore {
	return &MemoryStore{
		intervals: make(map[int64]Interval),
		locks:     make(map[int64]*sync.Mutex),
		directory: directory,
	}
}

func (s *MemoryStore) chargerLock(chargerID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[chargerID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[chargerID] = m
	}
	return m
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, chargerIDs []int64, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range LockOrder(chargerIDs) {
		m := s.chargerLock(id)
		m.Lock()
		defer m.Unlock()
	}

	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	return s.apply(tx.ops)
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, iv := range s.intervals {
		if iv.End.Before(now) {
			delete(s.intervals, id)
			removed++
		}
	}
	return removed, nil
}

// Snapshot returns a copy of every stored interval ordered by reservation id.
func (s *MemoryStore) Snapshot() []Interval {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Interval, 0, len(s.intervals))
	for _, iv := range s.intervals {
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservationID < out[j].ReservationID })
	return out
}

type memOpKind int

const (
	memInsert memOpKind = iota
	memReplace
	memRemove
)

type memOp struct {
	kind memOpKind
	iv   Interval
}

func (s *MemoryStore) apply(ops []memOp) error {
	if len(ops) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent Cancel may have removed a reservation that this transaction replaces.
	for _, op := range ops {
		if op.kind == memReplace {
			if _, ok := s.intervals[op.iv.ReservationID]; !ok {
				return ErrReservationNotFound
			}
		}
	}
	for _, op := range ops {
		switch op.kind {
		case memInsert, memReplace:
			s.intervals[op.iv.ReservationID] = op.iv
		case memRemove:
			delete(s.intervals, op.iv.ReservationID)
		}
	}
	return nil
}

// memTx reads committed state; staged writes become visible only after Update returns.
type memTx struct {
	store *MemoryStore
	ops   []memOp
}

func (t *memTx) List(ctx context.Context, chargerID, excluding int64) ([]Interval, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var out []Interval
	for _, iv := range t.store.intervals {
		if iv.ChargerID != chargerID || iv.ReservationID == excluding {
			continue
		}
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (t *memTx) Get(ctx context.Context, reservationID int64) (Interval, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	iv, ok := t.store.intervals[reservationID]
	if !ok {
		return Interval{}, ErrReservationNotFound
	}
	return iv, nil
}

func (t *memTx) Insert(ctx context.Context, iv Interval) (int64, error) {
	if t.store.directory != nil {
		ok, err := t.store.directory.Exists(ctx, iv.ChargerID)
		if err != nil {
			return 0, Storage("insert", err)
		}
		if !ok {
			return 0, ErrChargerNotFound
		}
	}

	t.store.mu.Lock()
	t.store.nextID++
	iv.ReservationID = t.store.nextID
	t.store.mu.Unlock()

	t.ops = append(t.ops, memOp{kind: memInsert, iv: iv})
	return iv.ReservationID, nil
}

func (t *memTx) Replace(ctx context.Context, reservationID int64, iv Interval) error {
	if _, err := t.Get(ctx, reservationID); err != nil {
		return err
	}
	iv.ReservationID = reservationID
	t.ops = append(t.ops, memOp{kind: memReplace, iv: iv})
	return nil
}

func (t *memTx) Remove(ctx context.Context, reservationID int64) (Interval, bool, error) {
	iv, err := t.Get(ctx, reservationID)
	if err != nil {
		return Interval{}, false, nil
	}
	t.ops = append(t.ops, memOp{kind: memRemove, iv: iv})
	return iv, true, nil
}
