// Package booking implements the checkout, cancellation and
// forced-availability-reduction workflows over the inventory ledger,
// the flight gateway and the persistence layer. Handlers stay thin;
// every rule about what may happen to a booking lives here.
package booking

import (
	"fmt"
	"time"
)

// ValidationError reports malformed or out-of-range caller input.
// Handlers translate it into an HTTP 400 response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidStateTransitionError reports an illegal booking or stay
// status change, such as cancelling an already-cancelled booking.
type InvalidStateTransitionError struct {
	BookingID uint64
	Status    string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("booking %d cannot be cancelled from status %s", e.BookingID, e.Status)
}

// AffectedBooking describes one hotel stay that a forced availability
// reduction would cancel (or has cancelled).
type AffectedBooking struct {
	BookingID uint64    `json:"booking_id"`
	StayID    uint64    `json:"stay_id"`
	UserID    uint64    `json:"user_id"`
	NumRooms  int       `json:"num_rooms"`
	CreatedAt time.Time `json:"created_at"`
}

// AvailabilityConflictError reports that an availability cut would
// require cancelling existing bookings and the caller did not opt in.
// Handlers translate it into an HTTP 409 carrying the candidate list
// so the owner can decide.
type AvailabilityConflictError struct {
	Date             time.Time         `json:"date"`
	ExistingBookings int               `json:"existing_bookings"`
	Requested        int               `json:"requested_availability"`
	Deficit          int               `json:"deficit"`
	Affected         []AffectedBooking `json:"affected_bookings"`
}

func (e *AvailabilityConflictError) Error() string {
	return fmt.Sprintf("reducing availability on %s to %d requires cancelling %d booked room(s)",
		e.Date.Format("2006-01-02"), e.Requested, e.Deficit)
}
