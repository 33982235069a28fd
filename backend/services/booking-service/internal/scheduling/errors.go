package scheduling

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimestamp is returned when a timestamp cannot be parsed as a date-time.
	ErrInvalidTimestamp = errors.New("scheduling: invalid timestamp")
	// ErrInvalidInterval is returned when start is not strictly before end.
	ErrInvalidInterval = errors.New("scheduling: start must be before end")
	// ErrChargerNotFound is returned when the referenced charger does not exist.
	ErrChargerNotFound = errors.New("scheduling: charger not found")
	// ErrReservationNotFound is returned when the referenced reservation does not exist.
	ErrReservationNotFound = errors.New("scheduling: reservation not found")
	// ErrSlotConflict is returned when a candidate interval overlaps an existing reservation.
	ErrSlotConflict = errors.New("scheduling: slot already booked")
)

// StorageError wraps infrastructure failures so callers can tell them apart from domain errors.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("scheduling: storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Storage wraps err as a StorageError unless it is nil, a domain error or already wrapped.
func Storage(op string, err error) error {
	if err == nil || isDomainError(err) || IsStorageError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrInvalidTimestamp) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrChargerNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrSlotConflict)
}
