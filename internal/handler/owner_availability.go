package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/booking"
	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/model"
)

type availabilityEntryBody struct {
	Date           string `json:"date"` // YYYY-MM-DD
	AvailableRooms int    `json:"available_rooms"`
}

type setAvailabilityBody struct {
	Entries []availabilityEntryBody `json:"entries"`
	Force   bool                    `json:"force"`
}

// SetAvailability handles PUT /v1/room-types/:id/availability. Each
// entry sets the bookable room count for one date. An entry that cuts
// below what active bookings occupy returns 409 with the bookings
// that would have to be cancelled, unless force is set, in which case
// those bookings are cancelled newest first and the cut applied. The
// dates in the batch are independent: a conflicting date does not
// stop the others, and the 409 body carries the results of every date
// that was applied.
func (h *OwnerHandler) SetAvailability(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomTypeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body setAvailabilityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	entries := make([]booking.AvailabilityEntry, 0, len(body.Entries))
	for _, e := range body.Entries {
		d, err := parseDate(e.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date: " + e.Date})
		}
		entries = append(entries, booking.AvailabilityEntry{Date: d, Value: e.AvailableRooms})
	}
	results, err := h.Workflows.SetAvailability(c.Request().Context(), ownerID, roomTypeID, entries, body.Force)
	if err != nil {
		var conflictErr *booking.AvailabilityConflictError
		if errors.As(err, &conflictErr) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":                  conflictErr.Error(),
				"date":                   conflictErr.Date.Format(dateLayout),
				"existing_bookings":      conflictErr.ExistingBookings,
				"requested_availability": conflictErr.Requested,
				"deficit":                conflictErr.Deficit,
				"affected_bookings":      conflictErr.Affected,
				"results":                results,
			})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}

type availabilityDay struct {
	Date           string `json:"date"`
	AvailableRooms int    `json:"available_rooms"`
}

// availabilityDays resolves the from/to query parameters and returns
// the sorted per-day availability. A nil slice with nil error means
// the parameters were malformed.
func availabilityDays(c echo.Context, ledger *inventory.Ledger, rt *model.RoomType) ([]availabilityDay, error) {
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return nil, nil
	}
	var to time.Time
	if raw := c.QueryParam("to"); raw != "" {
		if to, err = parseDate(raw); err != nil {
			return nil, nil
		}
	} else {
		to = from.AddDate(0, 0, 30)
	}
	r, err := inventory.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	byDate, err := ledger.AvailabilityRange(c.Request().Context(), rt, r)
	if err != nil {
		return nil, err
	}
	out := make([]availabilityDay, 0, len(byDate))
	for _, d := range r.Days() {
		out = append(out, availabilityDay{Date: d.Format(dateLayout), AvailableRooms: byDate[d]})
	}
	return out, nil
}
