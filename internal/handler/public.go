package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// PublicHandler exposes unauthenticated browse endpoints so guests
// can inspect hotels, room types and availability before registering.
type PublicHandler struct {
	Hotels    *repository.HotelRepo
	RoomTypes *repository.RoomTypeRepo
	Ledger    *inventory.Ledger
}

func NewPublicHandler(hotels *repository.HotelRepo, roomTypes *repository.RoomTypeRepo, ledger *inventory.Ledger) *PublicHandler {
	if hotels == nil || roomTypes == nil || ledger == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Hotels: hotels, RoomTypes: roomTypes, Ledger: ledger}
}

// publicHotel strips owner details from a hotel record.
type publicHotel struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	City       string `json:"city"`
	Address    string `json:"address"`
	StarRating uint8  `json:"star_rating"`
}

func toPublicHotel(h model.Hotel) publicHotel {
	return publicHotel{ID: h.ID, Name: h.Name, City: h.City, Address: h.Address, StarRating: h.StarRating}
}

// ListHotels handles GET /v1/hotels (public).
func (h *PublicHandler) ListHotels(c echo.Context) error {
	hotels, err := h.Hotels.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]publicHotel, 0, len(hotels))
	for _, hh := range hotels {
		items = append(items, toPublicHotel(hh))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetHotel handles GET /v1/hotels/:id (public).
func (h *PublicHandler) GetHotel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	hotel, err := h.Hotels.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPublicHotel(*hotel))
}

// ListRoomTypes handles GET /v1/hotels/:id/room-types (public).
func (h *PublicHandler) ListRoomTypes(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Hotels.GetByID(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	items, err := h.RoomTypes.ListByHotel(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetAvailability handles GET /v1/room-types/:id/availability?from=&to=
// (public). Guests see the same per-day counts owners do.
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	roomTypeID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rt, err := h.RoomTypes.GetByID(c.Request().Context(), roomTypeID)
	if err != nil {
		return writeError(c, err)
	}
	days, err := availabilityDays(c, h.Ledger, rt)
	if err != nil {
		return writeError(c, err)
	}
	if days == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from/to dates"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_type_id": rt.ID,
		"days":         days,
	})
}
