package model

import "time"

// Hotel is a property managed by an owner. Room inventory hangs off
// hotels through room types.
//
// Fields:
//  ID         – primary key identifier.
//  OwnerID    – user who manages the hotel.
//  Name       – display name of the hotel.
//  City       – city the hotel is located in.
//  Address    – street address.
//  StarRating – rating from 1 to 5.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Hotel struct {
	ID         uint64    // hotels.id
	OwnerID    uint64    // hotels.owner_id
	Name       string    // hotels.name
	City       string    // hotels.city
	Address    string    // hotels.address
	StarRating uint8     // hotels.star_rating
	CreatedAt  time.Time // hotels.created_at
	UpdatedAt  time.Time // hotels.updated_at
}

// RoomType groups identical rooms within a hotel. BaseAvailability is
// the default number of bookable rooms per night; per-date override
// records in room_availability supersede it.
//
// Fields:
//  ID                 – primary key identifier.
//  HotelID            – hotel this room type belongs to.
//  Name               – label such as "Deluxe Double".
//  PricePerNightCents – nightly price in cents.
//  BaseAvailability   – default room count absent an override record.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type RoomType struct {
	ID                 uint64    // room_types.id
	HotelID            uint64    // room_types.hotel_id
	Name               string    // room_types.name
	PricePerNightCents uint32    // room_types.price_per_night_cents
	BaseAvailability   int       // room_types.base_availability
	CreatedAt          time.Time // room_types.created_at
	UpdatedAt          time.Time // room_types.updated_at
}
