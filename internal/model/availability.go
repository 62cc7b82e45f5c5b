package model

import "time"

// RoomAvailability is a per-date record of how many rooms of a room
// type remain bookable on a date. At most one record exists per
// (room_type_id, date); absent a record the room type's base
// availability applies. Reservations decrement the value and releases
// increment it. Owner overrides are written unclamped: setting the
// value below what active bookings need triggers the forced-reduction
// flow first.
//
// Fields:
//  ID             – primary key identifier.
//  RoomTypeID     – room type this override applies to.
//  Date           – calendar day (stored as DATE, midnight UTC).
//  AvailableRooms – remaining bookable rooms for that day.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type RoomAvailability struct {
	ID             uint64    // room_availability.id
	RoomTypeID     uint64    // room_availability.room_type_id
	Date           time.Time // room_availability.date
	AvailableRooms int       // room_availability.available_rooms
	CreatedAt      time.Time // room_availability.created_at
	UpdatedAt      time.Time // room_availability.updated_at
}
