package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/booking"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// BookingHandler exposes the customer-facing booking endpoints:
// checkout, cancellation, listing and flight verification.
type BookingHandler struct {
	Workflows *booking.Service
	Bookings  *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler and panics if any
// dependency is nil.
func NewBookingHandler(workflows *booking.Service, bookings *repository.BookingRepo) *BookingHandler {
	if workflows == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Workflows: workflows, Bookings: bookings}
}

type stayReqBody struct {
	HotelID    uint64 `json:"hotel_id"`
	RoomTypeID uint64 `json:"room_type_id"`
	CheckIn    string `json:"check_in"`  // YYYY-MM-DD
	CheckOut   string `json:"check_out"` // YYYY-MM-DD
	NumRooms   int    `json:"num_rooms"`
}

type flightReqBody struct {
	FlightIDs []string `json:"flight_ids"`
}

type checkoutBody struct {
	CardNumber string          `json:"card_number"`
	CardExpiry string          `json:"card_expiry"`
	Stays      []stayReqBody   `json:"stays"`
	Flights    []flightReqBody `json:"flights"`
	Passengers int             `json:"passengers"`
}

// Create handles POST /v1/bookings: the checkout. Hotel inventory and
// flights are booked all-or-nothing; a 400 names the date that lacked
// rooms and a 502 means the flight gateway refused or was unreachable.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body checkoutBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in := booking.CheckoutInput{
		UserID: userID,
		Payment: booking.PaymentInfo{
			CardNumber: strings.TrimSpace(body.CardNumber),
			Expiry:     strings.TrimSpace(body.CardExpiry),
		},
		Passengers: body.Passengers,
	}
	for _, s := range body.Stays {
		checkIn, err := parseDate(s.CheckIn)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in: " + s.CheckIn})
		}
		checkOut, err := parseDate(s.CheckOut)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out: " + s.CheckOut})
		}
		in.Stays = append(in.Stays, booking.StayRequest{
			HotelID:    s.HotelID,
			RoomTypeID: s.RoomTypeID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			NumRooms:   s.NumRooms,
		})
	}
	for _, f := range body.Flights {
		in.Flights = append(in.Flights, booking.FlightRequest{FlightIDs: f.FlightIDs})
	}

	detail, err := h.Workflows.Checkout(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// Cancel handles POST /v1/bookings/:id/cancel. The response carries
// the per-reference flight cancellation outcomes; a failed remote
// cancel does not undo the local one.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Workflows.Cancel(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// List handles GET /v1/bookings: the caller's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id. Foreign bookings read as 404.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	detail, err := h.Bookings.GetForUser(c.Request().Context(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// VerifyFlight handles GET /v1/flights/verify?booking_reference=. It
// returns the airline's current view of one of the caller's flight
// reservations. Verification is advisory: when the airline cannot be
// reached the response is still 200, marked unavailable.
func (h *BookingHandler) VerifyFlight(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ref := strings.TrimSpace(c.QueryParam("booking_reference"))
	res, err := h.Workflows.VerifyFlight(c.Request().Context(), userID, ref)
	if err != nil {
		return writeError(c, err)
	}
	if res.Unavailable {
		return c.JSON(http.StatusOK, echo.Map{"status": "verification unavailable", "reason": res.Reason})
	}
	return c.JSON(http.StatusOK, res.Snapshot)
}
