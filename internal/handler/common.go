// Package handler contains the HTTP layer. Handlers bind and
// validate request bodies, delegate to the workflow service or the
// repositories, and translate domain errors into JSON responses.
package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/booking"
	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil
}

const dateLayout = "2006-01-02"

// parseDate parses a calendar date in YYYY-MM-DD form as midnight UTC.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// writeError maps domain errors onto HTTP responses. Anything not
// recognized becomes a generic 500 so internals never leak.
func writeError(c echo.Context, err error) error {
	var (
		valErr      *booking.ValidationError
		stateErr    *booking.InvalidStateTransitionError
		availErr    *inventory.InsufficientAvailabilityError
		conflictErr *booking.AvailabilityConflictError
		gwErr       *flightgw.GatewayError
	)
	switch {
	case errors.As(err, &valErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": valErr.Msg})
	case errors.As(err, &conflictErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                  conflictErr.Error(),
			"date":                   conflictErr.Date.Format(dateLayout),
			"existing_bookings":      conflictErr.ExistingBookings,
			"requested_availability": conflictErr.Requested,
			"deficit":                conflictErr.Deficit,
			"affected_bookings":      conflictErr.Affected,
		})
	case errors.As(err, &availErr):
		// A full date is caller error, not a conflict: the cart asked
		// for rooms that are not there.
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":           availErr.Error(),
			"date":            availErr.Date.Format(dateLayout),
			"requested_rooms": availErr.Requested,
			"available_rooms": availErr.Available,
		})
	case errors.As(err, &stateErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": stateErr.Error()})
	case errors.As(err, &gwErr):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": gwErr.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrHotelNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
	case errors.Is(err, repository.ErrRoomTypeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room type not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrStayNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "stay not found"})
	case errors.Is(err, inventory.ErrInvalidRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
