// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// Event types published by the booking workflows.
const (
	EventBookingConfirmed    = "booking_confirmed"
	EventBookingCancelled    = "booking_cancelled"
	EventStayCancelled       = "stay_cancelled"
	EventAvailabilityReduced = "availability_reduced"
)

// BookingEvent is published after a booking transaction commits. It
// carries enough information for downstream consumers to log or
// notify without querying the primary database.
type BookingEvent struct {
	Type            string `json:"type"`
	BookingID       uint64 `json:"booking_id"`
	UserID          uint64 `json:"user_id"`
	Message         string `json:"message"`
	TotalPriceCents uint64 `json:"total_price_cents,omitempty"`
	OccurredAt      string `json:"occurred_at"`
}
