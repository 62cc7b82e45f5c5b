package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/handler"
	"github.com/iliyamo/travel-booking/internal/middleware"
)

// RegisterOwner registers OWNER-scoped endpoints under /v1. All
// routes require a valid JWT and the OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Hotels ----
	g.POST("/hotels", o.CreateHotel)
	g.PUT("/hotels/:id", o.UpdateHotel)
	g.PATCH("/hotels/:id", o.UpdateHotel)
	// The unscoped hotel and room-type reads live on the public
	// router; only the owner's own-property list is duplicated here.
	g.GET("/owner/hotels", o.ListHotels)

	// ---- Room types ----
	g.POST("/hotels/:id/room-types", o.CreateRoomType)
	g.PUT("/room-types/:id", o.UpdateRoomType)
	g.PATCH("/room-types/:id", o.UpdateRoomType)

	// ---- Availability ----
	// Reads share the public GET /v1/room-types/:id/availability.
	g.PUT("/room-types/:id/availability", o.SetAvailability)

	// ---- Reservations at the owner's hotels ----
	g.GET("/hotels/:id/stays", o.ListHotelStays)
	g.POST("/stays/:id/cancel", o.CancelStay)
}
