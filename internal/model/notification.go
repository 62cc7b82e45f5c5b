package model

import "time"

// Notification type values emitted by the booking workflows.
const (
	NotificationBookingConfirmed = "BOOKING_CONFIRMED"
	NotificationBookingCancelled = "BOOKING_CANCELLED"
	NotificationNewReservation   = "NEW_RESERVATION"
)

// Notification is a fire-and-forget record written once per
// meaningful state transition and listed to the user later.
type Notification struct {
	ID        uint64     // notifications.id
	UserID    uint64     // notifications.user_id
	Type      string     // notifications.type
	Message   string     // notifications.message
	BookingID *uint64    // notifications.booking_id (nullable)
	ReadAt    *time.Time // notifications.read_at (nullable)
	CreatedAt time.Time  // notifications.created_at
}
