// Package inventory implements the room-availability ledger: per
// room type, per calendar date counters of bookable rooms, with the
// reserve/release/force-set operations the booking workflows run
// against. All other code mutates availability only through this
// package.
package inventory

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a stay range has zero or negative
// nights. Ranges are validated before they ever reach the ledger.
var ErrInvalidRange = errors.New("check-out date must be after check-in date")

// Day truncates a timestamp to its calendar day at midnight UTC.
// Every date handled by the ledger goes through this first.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateRange is a half-open [CheckIn, CheckOut) range of calendar
// days: the check-out day itself is not occupied. Both endpoints are
// normalized to midnight UTC.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewDateRange normalizes and validates a stay range. A range of zero
// nights (check-out equal to check-in) is invalid.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if !r.CheckOut.After(r.CheckIn) {
		return DateRange{}, ErrInvalidRange
	}
	return r, nil
}

// Nights returns the number of occupied nights.
func (r DateRange) Nights() int {
	n := 0
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Days returns every occupied calendar day in order. Iteration steps
// by whole calendar days with AddDate, not fixed 24h increments, so
// ranges spanning a DST transition or a leap day stay correct.
func (r DateRange) Days() []time.Time {
	days := make([]time.Time, 0, 2)
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether the day of t is occupied by the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}
