package model

import "time"

// Booking status values. A booking only ever moves from PENDING or
// CONFIRMED to CANCELLED; COMPLETED is reached after the stay ends.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusCompleted = "COMPLETED"
)

// Hotel stay line item status values. A stay may be cancelled on its
// own while the parent booking stays active.
const (
	StayStatusConfirmed = "CONFIRMED"
	StayStatusCancelled = "CANCELLED"
)

// Booking aggregates one checkout: one or more hotel stays plus zero
// or more flight items under a single payment summary. Only the card
// brand and last four digits are ever stored.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – customer who made the booking.
//  Status          – one of the BookingStatus constants.
//  TotalPriceCents – total price across all line items.
//  CardBrand       – detected brand of the payment card.
//  CardLast4       – last four digits of the card number.
//  CardExpiry      – expiry as entered (MM/YY), display only.
//  InvoiceRef      – durable reference to the rendered invoice, if any.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
	ID              uint64    // bookings.id
	UserID          uint64    // bookings.user_id
	Status          string    // bookings.status
	TotalPriceCents uint64    // bookings.total_price_cents
	CardBrand       string    // bookings.card_brand
	CardLast4       string    // bookings.card_last4
	CardExpiry      string    // bookings.card_expiry
	InvoiceRef      *string   // bookings.invoice_ref (nullable)
	CreatedAt       time.Time // bookings.created_at
	UpdatedAt       time.Time // bookings.updated_at
}

// HotelStay is one hotel line item of a booking: a number of rooms of
// one room type over a half-open [CheckIn, CheckOut) date range. Stays
// are never deleted once created; cancellation flips the status.
//
// Fields:
//  ID         – primary key identifier.
//  BookingID  – parent booking.
//  HotelID    – hotel the room type belongs to.
//  RoomTypeID – room type reserved.
//  CheckIn    – first occupied night (inclusive).
//  CheckOut   – departure day (exclusive, not occupied).
//  NumRooms   – rooms reserved, at least one.
//  PriceCents – total price for this stay.
//  Status     – CONFIRMED or CANCELLED.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type HotelStay struct {
	ID         uint64    // hotel_stays.id
	BookingID  uint64    // hotel_stays.booking_id
	HotelID    uint64    // hotel_stays.hotel_id
	RoomTypeID uint64    // hotel_stays.room_type_id
	CheckIn    time.Time // hotel_stays.check_in
	CheckOut   time.Time // hotel_stays.check_out
	NumRooms   int       // hotel_stays.num_rooms
	PriceCents uint64    // hotel_stays.price_cents
	Status     string    // hotel_stays.status
	CreatedAt  time.Time // hotel_stays.created_at
	UpdatedAt  time.Time // hotel_stays.updated_at
}

// FlightItem is one flight line item of a booking. A single item may
// cover a multi-leg itinerary; the flattened remote segment ids are
// stored joined by commas. All items booked through one gateway call
// share a booking reference and are cancelled together by reference.
//
// Fields:
//  ID            – primary key identifier.
//  BookingID     – parent booking.
//  SegmentIDs    – comma-joined remote flight segment ids.
//  BookingRef    – reference assigned by the flight gateway.
//  TicketNumber  – ticket number assigned by the flight gateway.
//  DepartAirport – IATA code of the departure airport.
//  ArriveAirport – IATA code of the arrival airport.
//  DepartAt      – scheduled departure time.
//  ArriveAt      – scheduled arrival time.
//  Passengers    – number of travellers.
//  PriceCents    – total price for this item.
//  CreatedAt     – creation timestamp.
type FlightItem struct {
	ID            uint64    // flight_items.id
	BookingID     uint64    // flight_items.booking_id
	SegmentIDs    string    // flight_items.segment_ids
	BookingRef    string    // flight_items.booking_ref
	TicketNumber  string    // flight_items.ticket_number
	DepartAirport string    // flight_items.depart_airport
	ArriveAirport string    // flight_items.arrive_airport
	DepartAt      time.Time // flight_items.depart_at
	ArriveAt      time.Time // flight_items.arrive_at
	Passengers    int       // flight_items.passengers
	PriceCents    uint64    // flight_items.price_cents
	CreatedAt     time.Time // flight_items.created_at
}
