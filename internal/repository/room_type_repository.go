package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/travel-booking/internal/model"
)

// RoomTypeRepo provides CRUD operations for room types. Room types
// carry the base availability that the inventory ledger falls back to
// when no per-date override record exists.
type RoomTypeRepo struct {
	db *sql.DB
}

// NewRoomTypeRepo returns a new RoomTypeRepo bound to the given database.
func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo { return &RoomTypeRepo{db: db} }

const roomTypeColumns = `id, hotel_id, name, price_per_night_cents, base_availability, created_at, updated_at`

// Create inserts a room type and populates the generated ID.
func (r *RoomTypeRepo) Create(ctx context.Context, rt *model.RoomType) error {
	const q = `INSERT INTO room_types (hotel_id, name, price_per_night_cents, base_availability) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rt.HotelID, rt.Name, rt.PricePerNightCents, rt.BaseAvailability)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// GetByID returns a room type by id, or ErrRoomTypeNotFound.
func (r *RoomTypeRepo) GetByID(ctx context.Context, id uint64) (*model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ?`
	return scanRoomType(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID within an open transaction. Checkout uses it
// so the room type read and the availability writes share a snapshot.
func (r *RoomTypeRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ?`
	return scanRoomType(tx.QueryRowContext(ctx, q, id))
}

func scanRoomType(row *sql.Row) (*model.RoomType, error) {
	var rt model.RoomType
	err := row.Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.PricePerNightCents, &rt.BaseAvailability, &rt.CreatedAt, &rt.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoomTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// ListByHotel returns all room types of a hotel ordered by name.
func (r *RoomTypeRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE hotel_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	types := make([]model.RoomType, 0)
	for rows.Next() {
		var rt model.RoomType
		if err := rows.Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.PricePerNightCents, &rt.BaseAvailability, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	return types, rows.Err()
}

// Update modifies price and base availability. Changing base
// availability does not touch existing override records.
func (r *RoomTypeRepo) Update(ctx context.Context, rt *model.RoomType) error {
	const q = `UPDATE room_types SET name = ?, price_per_night_cents = ?, base_availability = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, rt.Name, rt.PricePerNightCents, rt.BaseAvailability, rt.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRoomTypeNotFound
	}
	return nil
}

// OwnerOf returns the owner user id of the hotel a room type belongs
// to. Used by the availability endpoints for ownership checks.
func (r *RoomTypeRepo) OwnerOf(ctx context.Context, roomTypeID uint64) (uint64, error) {
	const q = `SELECT h.owner_id FROM room_types rt JOIN hotels h ON h.id = rt.hotel_id WHERE rt.id = ?`
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, roomTypeID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return 0, ErrRoomTypeNotFound
	}
	return ownerID, err
}
