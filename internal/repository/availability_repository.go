package repository

import (
	"context"
	"database/sql"
	"time"
)

// AvailabilityRepo persists per-date room availability override
// records. A record holds the remaining bookable room count for one
// (room_type_id, date) key; absent a record the room type's base
// availability applies. All mutation methods run inside a caller
// transaction so the inventory ledger can serialize writers per key
// with row locks.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns a new AvailabilityRepo bound to the given database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *AvailabilityRepo) DB() *sql.DB { return r.db }

// Get returns the override value for a key outside any transaction.
// The second return value reports whether a record exists.
func (r *AvailabilityRepo) Get(ctx context.Context, roomTypeID uint64, date time.Time) (int, bool, error) {
	const q = `SELECT available_rooms FROM room_availability WHERE room_type_id = ? AND date = ?`
	var v int
	err := r.db.QueryRowContext(ctx, q, roomTypeID, date).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// GetTx is Get within an open transaction, without locking.
func (r *AvailabilityRepo) GetTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) (int, bool, error) {
	const q = `SELECT available_rooms FROM room_availability WHERE room_type_id = ? AND date = ?`
	var v int
	err := tx.QueryRowContext(ctx, q, roomTypeID, date).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// EnsureTx materializes an override record seeded with the given
// value when none exists yet. INSERT IGNORE keeps the call idempotent
// under the unique (room_type_id, date) key, so two concurrent
// checkouts race harmlessly here and serialize on LockTx below.
func (r *AvailabilityRepo) EnsureTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, seed int) error {
	const q = `INSERT IGNORE INTO room_availability (room_type_id, date, available_rooms) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, roomTypeID, date, seed)
	return err
}

// LockTx reads the override value for a key while taking an exclusive
// row lock held until the transaction ends. Concurrent reserves and
// releases for the same key block here.
func (r *AvailabilityRepo) LockTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) (int, error) {
	const q = `SELECT available_rooms FROM room_availability WHERE room_type_id = ? AND date = ? FOR UPDATE`
	var v int
	err := tx.QueryRowContext(ctx, q, roomTypeID, date).Scan(&v)
	return v, err
}

// AddTx applies a signed delta to an existing override record.
func (r *AvailabilityRepo) AddTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, delta int) error {
	const q = `UPDATE room_availability SET available_rooms = available_rooms + ? WHERE room_type_id = ? AND date = ?`
	_, err := tx.ExecContext(ctx, q, delta, roomTypeID, date)
	return err
}

// ReplaceTx removes any record for the key and writes a fresh one
// with the exact value, unclamped. Used by owner overrides only.
func (r *AvailabilityRepo) ReplaceTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, value int) error {
	const del = `DELETE FROM room_availability WHERE room_type_id = ? AND date = ?`
	if _, err := tx.ExecContext(ctx, del, roomTypeID, date); err != nil {
		return err
	}
	const ins = `INSERT INTO room_availability (room_type_id, date, available_rooms) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, ins, roomTypeID, date, value)
	return err
}

// ListRange returns existing override values keyed by date for a
// room type over [from, to). Dates without a record are absent from
// the map; callers fall back to base availability.
func (r *AvailabilityRepo) ListRange(ctx context.Context, roomTypeID uint64, from, to time.Time) (map[time.Time]int, error) {
	const q = `SELECT date, available_rooms FROM room_availability WHERE room_type_id = ? AND date >= ? AND date < ?`
	rows, err := r.db.QueryContext(ctx, q, roomTypeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[time.Time]int)
	for rows.Next() {
		var d time.Time
		var v int
		if err := rows.Scan(&d, &v); err != nil {
			return nil, err
		}
		out[d.UTC()] = v
	}
	return out, rows.Err()
}
