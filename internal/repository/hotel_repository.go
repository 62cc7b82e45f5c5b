package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/travel-booking/internal/model"
)

// HotelRepo provides CRUD operations for hotels. Ownership checks
// are performed here so handlers and workflows can rely on the
// ErrForbidden sentinel instead of re-implementing the comparison.
type HotelRepo struct {
	db *sql.DB
}

// NewHotelRepo returns a new HotelRepo bound to the given database.
func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning several repositories.
func (r *HotelRepo) DB() *sql.DB { return r.db }

// Create inserts a hotel and populates the generated ID.
func (r *HotelRepo) Create(ctx context.Context, h *model.Hotel) error {
	const q = `INSERT INTO hotels (owner_id, name, city, address, star_rating) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.OwnerID, h.Name, h.City, h.Address, h.StarRating)
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
	h.ID = uint64(id)
	return nil
}

// GetByID returns a hotel by id, or ErrHotelNotFound.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (*model.Hotel, error) {
	const q = `SELECT id, owner_id, name, city, address, star_rating, created_at, updated_at
	           FROM hotels WHERE id = ?`
	var h model.Hotel
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.City, &h.Address, &h.StarRating, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrHotelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// GetOwned returns a hotel after verifying the caller owns it. It
// returns ErrHotelNotFound when the row does not exist and
// ErrForbidden when it belongs to another owner.
func (r *HotelRepo) GetOwned(ctx context.Context, id, ownerID uint64) (*model.Hotel, error) {
	h, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return h, nil
}

// ListByOwner returns all hotels managed by the given owner, newest
// first.
func (r *HotelRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Hotel, error) {
	const q = `SELECT id, owner_id, name, city, address, star_rating, created_at, updated_at
	           FROM hotels WHERE owner_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, ownerID)
}

// ListAll returns every hotel for public browsing, ordered by city
// then name for deterministic output.
func (r *HotelRepo) ListAll(ctx context.Context) ([]model.Hotel, error) {
	const q = `SELECT id, owner_id, name, city, address, star_rating, created_at, updated_at
	           FROM hotels ORDER BY city, name`
	return r.list(ctx, q)
}

func (r *HotelRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hotels := make([]model.Hotel, 0)
	for rows.Next() {
		var h model.Hotel
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.Name, &h.City, &h.Address, &h.StarRating, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}

// Update modifies the mutable columns of an owned hotel.
func (r *HotelRepo) Update(ctx context.Context, h *model.Hotel, ownerID uint64) error {
	if _, err := r.GetOwned(ctx, h.ID, ownerID); err != nil {
		return err
	}
	const q = `UPDATE hotels SET name = ?, city = ?, address = ?, star_rating = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, h.Name, h.City, h.Address, h.StarRating, h.ID)
	return err
}
