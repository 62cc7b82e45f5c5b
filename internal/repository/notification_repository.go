package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/travel-booking/internal/model"
)

// NotificationRepo persists user notifications. Rows are written
// inside the same transaction as the state transition that caused
// them, so each transition emits its notification exactly once.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// CreateTx inserts a notification row within the caller's transaction.
func (r *NotificationRepo) CreateTx(ctx context.Context, tx *sql.Tx, n *model.Notification) error {
	const q = `INSERT INTO notifications (user_id, type, message, booking_id) VALUES (?, ?, ?, ?)`
	var bookingID interface{}
	if n.BookingID != nil {
		bookingID = *n.BookingID
	}
	res, err := tx.ExecContext(ctx, q, n.UserID, n.Type, n.Message, bookingID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns a user's notifications, newest first, up to limit.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, user_id, type, message, booking_id, read_at, created_at
	           FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		var bookingID sql.NullInt64
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &bookingID, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			id := uint64(bookingID.Int64)
			n.BookingID = &id
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead stamps a notification as read, enforcing ownership.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	const q = `UPDATE notifications SET read_at = NOW() WHERE id = ? AND user_id = ? AND read_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
