package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

type roomTypeBody struct {
	Name               string `json:"name"`
	PricePerNightCents uint32 `json:"price_per_night_cents"`
	BaseAvailability   int    `json:"base_availability"`
}

func (b *roomTypeBody) validate() (string, bool) {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return "name is required", false
	}
	if b.PricePerNightCents == 0 {
		return "price_per_night_cents is required", false
	}
	if b.BaseAvailability < 0 {
		return "base_availability cannot be negative", false
	}
	return "", true
}

// CreateRoomType handles POST /v1/hotels/:id/room-types.
func (h *OwnerHandler) CreateRoomType(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hotelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body roomTypeBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := body.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	// Ownership check doubles as the existence check.
	if _, err := h.Hotels.GetOwned(c.Request().Context(), hotelID, ownerID); err != nil {
		return writeError(c, err)
	}
	rt := &model.RoomType{
		HotelID:            hotelID,
		Name:               body.Name,
		PricePerNightCents: body.PricePerNightCents,
		BaseAvailability:   body.BaseAvailability,
	}
	if err := h.RoomTypes.Create(c.Request().Context(), rt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room type name already exists for this hotel"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create room type"})
	}
	return c.JSON(http.StatusCreated, rt)
}

// UpdateRoomType handles PUT /v1/room-types/:id. Changing the base
// availability only affects dates without an override record; past
// reservations already materialized their dates.
func (h *OwnerHandler) UpdateRoomType(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body roomTypeBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := body.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	actualOwner, err := h.RoomTypes.OwnerOf(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if actualOwner != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	rt := &model.RoomType{
		ID:                 id,
		Name:               body.Name,
		PricePerNightCents: body.PricePerNightCents,
		BaseAvailability:   body.BaseAvailability,
	}
	if err := h.RoomTypes.Update(c.Request().Context(), rt); err != nil {
		return writeError(c, err)
	}
	updated, err := h.RoomTypes.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

