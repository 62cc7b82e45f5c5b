package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/booking"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// OwnerHandler bundles everything hotel owners need to manage their
// properties, room types and availability.
type OwnerHandler struct {
	Hotels    *repository.HotelRepo
	RoomTypes *repository.RoomTypeRepo
	Bookings  *repository.BookingRepo
	Workflows *booking.Service
}

// NewOwnerHandler constructs an OwnerHandler and panics if any
// dependency is nil.
func NewOwnerHandler(hotels *repository.HotelRepo, roomTypes *repository.RoomTypeRepo, bookings *repository.BookingRepo, workflows *booking.Service) *OwnerHandler {
	if hotels == nil || roomTypes == nil || bookings == nil || workflows == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{Hotels: hotels, RoomTypes: roomTypes, Bookings: bookings, Workflows: workflows}
}

type hotelBody struct {
	Name       string `json:"name"`
	City       string `json:"city"`
	Address    string `json:"address"`
	StarRating uint8  `json:"star_rating"`
}

func (b *hotelBody) validate() (string, bool) {
	b.Name = strings.TrimSpace(b.Name)
	b.City = strings.TrimSpace(b.City)
	b.Address = strings.TrimSpace(b.Address)
	if b.Name == "" {
		return "name is required", false
	}
	if b.City == "" {
		return "city is required", false
	}
	if b.StarRating < 1 || b.StarRating > 5 {
		return "star_rating must be between 1 and 5", false
	}
	return "", true
}

// CreateHotel handles POST /v1/hotels.
func (h *OwnerHandler) CreateHotel(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body hotelBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := body.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	hotel := &model.Hotel{
		OwnerID:    ownerID,
		Name:       body.Name,
		City:       body.City,
		Address:    body.Address,
		StarRating: body.StarRating,
	}
	if err := h.Hotels.Create(c.Request().Context(), hotel); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "hotel name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create hotel"})
	}
	return c.JSON(http.StatusCreated, hotel)
}

// UpdateHotel handles PUT /v1/hotels/:id.
func (h *OwnerHandler) UpdateHotel(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body hotelBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := body.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	hotel := &model.Hotel{
		ID:         id,
		OwnerID:    ownerID,
		Name:       body.Name,
		City:       body.City,
		Address:    body.Address,
		StarRating: body.StarRating,
	}
	if err := h.Hotels.Update(c.Request().Context(), hotel, ownerID); err != nil {
		return writeError(c, err)
	}
	updated, err := h.Hotels.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ListHotels handles GET /v1/owner/hotels and returns the caller's
// hotels. The unscoped hotel list is served by the public browse API.
func (h *OwnerHandler) ListHotels(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Hotels.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListHotelStays handles GET /v1/hotels/:id/stays: every stay booked
// at the owner's hotel, with guest context.
func (h *OwnerHandler) ListHotelStays(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Bookings.ListStaysByHotelForOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CancelStay handles POST /v1/stays/:id/cancel: a hotel owner cancels
// a single stay at their hotel. The guest is notified and the parent
// booking cascades when this was its last active stay.
func (h *OwnerHandler) CancelStay(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Workflows.CancelStay(c.Request().Context(), id, ownerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
