// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking workflows to distinguish between different
// failure scenarios. For example, ErrForbidden indicates that the
// current user is not authorized to perform an operation on a resource
// owned by someone else, while ErrConflict signals that an operation
// cannot proceed due to existing dependent records.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update collides with
// existing state, such as a duplicate hotel or room type name.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrHotelNotFound is returned when a hotel id does not resolve to a row.
var ErrHotelNotFound = errors.New("hotel not found")

// ErrRoomTypeNotFound is returned when a room type id does not resolve
// to a row, or the row does not belong to the stated hotel.
var ErrRoomTypeNotFound = errors.New("room type not found")

// ErrBookingNotFound is returned when a booking id does not resolve to
// a row visible to the caller.
var ErrBookingNotFound = errors.New("booking not found")

// ErrStayNotFound is returned when a hotel stay line item does not
// resolve to a row.
var ErrStayNotFound = errors.New("hotel stay not found")
