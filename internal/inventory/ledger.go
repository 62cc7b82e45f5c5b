package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
)

// InsufficientAvailabilityError reports the first date of a requested
// range that cannot accommodate the rooms asked for. The whole range
// is rejected; no partial reservation is ever applied.
type InsufficientAvailabilityError struct {
	RoomTypeID uint64
	Date       time.Time
	Requested  int
	Available  int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient availability for room type %d on %s: requested %d, available %d",
		e.RoomTypeID, e.Date.Format("2006-01-02"), e.Requested, e.Available)
}

// AvailabilityStore is the persistence the ledger drives: per-date
// override rows keyed by (room type, date). Satisfied by
// repository.AvailabilityRepo; tests substitute an in-memory map.
type AvailabilityStore interface {
	Get(ctx context.Context, roomTypeID uint64, date time.Time) (int, bool, error)
	GetTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) (int, bool, error)
	EnsureTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, seed int) error
	LockTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) (int, error)
	AddTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, delta int) error
	ReplaceTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, value int) error
	ListRange(ctx context.Context, roomTypeID uint64, from, to time.Time) (map[time.Time]int, error)
}

// StayCounter answers how many rooms active stays occupy on a date.
// Satisfied by repository.BookingRepo.
type StayCounter interface {
	BookedCountTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) (int, error)
}

// Ledger answers how many rooms of a room type are bookable on a date
// and applies reservation deltas. Override records store the
// remaining bookable count per (room type, date); absent a record the
// room type's base availability applies. Reserve and Release lock the
// per-date rows so concurrent checkouts for the same key serialize
// and the count can never be driven below zero.
type Ledger struct {
	avail    AvailabilityStore
	bookings StayCounter
}

// NewLedger constructs a Ledger over the availability and booking
// stores. Both must be non-nil.
func NewLedger(avail AvailabilityStore, bookings StayCounter) *Ledger {
	if avail == nil || bookings == nil {
		panic("nil store passed to NewLedger")
	}
	return &Ledger{avail: avail, bookings: bookings}
}

// Availability returns the bookable room count for a single date
// inside a transaction: the override value when a record exists,
// otherwise the room type's base availability.
func (l *Ledger) Availability(ctx context.Context, tx *sql.Tx, rt *model.RoomType, date time.Time) (int, error) {
	v, ok, err := l.avail.GetTx(ctx, tx, rt.ID, Day(date))
	if err != nil {
		return 0, err
	}
	if !ok {
		return rt.BaseAvailability, nil
	}
	return v, nil
}

// AvailabilityAt is Availability without a transaction, for read-only
// callers such as the public browse endpoints.
func (l *Ledger) AvailabilityAt(ctx context.Context, rt *model.RoomType, date time.Time) (int, error) {
	v, ok, err := l.avail.Get(ctx, rt.ID, Day(date))
	if err != nil {
		return 0, err
	}
	if !ok {
		return rt.BaseAvailability, nil
	}
	return v, nil
}

// AvailabilityRange returns the bookable count per day over the given
// range, applying the base fallback for days without an override.
func (l *Ledger) AvailabilityRange(ctx context.Context, rt *model.RoomType, r DateRange) (map[time.Time]int, error) {
	overrides, err := l.avail.ListRange(ctx, rt.ID, r.CheckIn, r.CheckOut)
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]int, r.Nights())
	for _, d := range r.Days() {
		if v, ok := overrides[d]; ok {
			out[d] = v
		} else {
			out[d] = rt.BaseAvailability
		}
	}
	return out, nil
}

// BookedCount sums the rooms of active hotel stays occupying the date
// (half-open: a stay's check-out day is not occupied).
func (l *Ledger) BookedCount(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) (int, error) {
	return l.bookings.BookedCountTx(ctx, tx, roomTypeID, Day(date))
}

// Reserve takes numRooms out of every date in the range, all or
// nothing. Each date's override row is materialized from the base
// value when absent, then locked; the first date with fewer than
// numRooms available fails the whole call with
// InsufficientAvailabilityError and the transaction's rollback undoes
// any dates already decremented.
func (l *Ledger) Reserve(ctx context.Context, tx *sql.Tx, rt *model.RoomType, r DateRange, numRooms int) error {
	if numRooms < 1 {
		return fmt.Errorf("invalid room count %d", numRooms)
	}
	for _, d := range r.Days() {
		if err := l.avail.EnsureTx(ctx, tx, rt.ID, d, rt.BaseAvailability); err != nil {
			return err
		}
		v, err := l.avail.LockTx(ctx, tx, rt.ID, d)
		if err != nil {
			return err
		}
		if v < numRooms {
			return &InsufficientAvailabilityError{RoomTypeID: rt.ID, Date: d, Requested: numRooms, Available: v}
		}
		if err := l.avail.AddTx(ctx, tx, rt.ID, d, -numRooms); err != nil {
			return err
		}
	}
	return nil
}

// Release returns numRooms to every date in the range. A date without
// an override record gets one seeded from base availability plus the
// released rooms, which is what the increment would have produced had
// the record survived.
func (l *Ledger) Release(ctx context.Context, tx *sql.Tx, rt *model.RoomType, r DateRange, numRooms int) error {
	if numRooms < 1 {
		return fmt.Errorf("invalid room count %d", numRooms)
	}
	for _, d := range r.Days() {
		if err := l.avail.EnsureTx(ctx, tx, rt.ID, d, rt.BaseAvailability); err != nil {
			return err
		}
		if _, err := l.avail.LockTx(ctx, tx, rt.ID, d); err != nil {
			return err
		}
		if err := l.avail.AddTx(ctx, tx, rt.ID, d, numRooms); err != nil {
			return err
		}
	}
	return nil
}

// ForceSet unconditionally replaces the override record for a single
// date with the exact value, unclamped: an owner may set it below the
// booked count on purpose. Cancelling enough bookings to honor the
// cut is the forced-reduction workflow's job, not the ledger's.
func (l *Ledger) ForceSet(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, value int) error {
	return l.avail.ReplaceTx(ctx, tx, roomTypeID, Day(date), value)
}
