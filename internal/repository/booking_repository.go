package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
)

// BookingRepo provides persistence for bookings and their hotel-stay
// and flight line items. Checkout and cancellation run several of
// these operations inside one transaction; the ...Tx variants take
// the caller's *sql.Tx and the caller commits or rolls back.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so workflows can open transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a booking row and populates the generated ID and
// timestamps on the passed record.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, status, total_price_cents, card_brand, card_last4, card_expiry)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.Status, b.TotalPriceCents, b.CardBrand, b.CardLast4, b.CardExpiry)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// CreateStaysBulkTx inserts hotel stay line items in one statement.
// Passing an empty slice has no effect.
func (r *BookingRepo) CreateStaysBulkTx(ctx context.Context, tx *sql.Tx, stays []model.HotelStay) error {
	if len(stays) == 0 {
		return nil
	}
	query := `INSERT INTO hotel_stays (booking_id, hotel_id, room_type_id, check_in, check_out, num_rooms, price_cents, status) VALUES `
	args := make([]interface{}, 0, len(stays)*8)
	for i, s := range stays {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.BookingID, s.HotelID, s.RoomTypeID, s.CheckIn, s.CheckOut, s.NumRooms, s.PriceCents, s.Status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CreateFlightItemsBulkTx inserts flight line items in one statement.
func (r *BookingRepo) CreateFlightItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.FlightItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO flight_items (booking_id, segment_ids, booking_ref, ticket_number, depart_airport, arrive_airport, depart_at, arrive_at, passengers, price_cents) VALUES `
	args := make([]interface{}, 0, len(items)*10)
	for i, f := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, f.BookingID, f.SegmentIDs, f.BookingRef, f.TicketNumber,
			f.DepartAirport, f.ArriveAirport, f.DepartAt, f.ArriveAt, f.Passengers, f.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// BookingDetail is a booking together with all of its line items.
type BookingDetail struct {
	Booking model.Booking
	Stays   []model.HotelStay
	Flights []model.FlightItem
}

const bookingColumns = `id, user_id, status, total_price_cents, card_brand, card_last4, card_expiry, invoice_ref, created_at, updated_at`

func scanBooking(scan func(dest ...interface{}) error) (model.Booking, error) {
	var b model.Booking
	var invoiceRef sql.NullString
	err := scan(&b.ID, &b.UserID, &b.Status, &b.TotalPriceCents,
		&b.CardBrand, &b.CardLast4, &b.CardExpiry, &invoiceRef, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return b, err
	}
	if invoiceRef.Valid {
		ref := invoiceRef.String
		b.InvoiceRef = &ref
	}
	return b, nil
}

// GetWithItemsTx loads a booking and all of its line items inside a
// transaction, locking the booking row so concurrent cancellations
// serialize. Returns ErrBookingNotFound when no row exists.
func (r *BookingRepo) GetWithItemsTx(ctx context.Context, tx *sql.Tx, id uint64) (*BookingDetail, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	det := &BookingDetail{Booking: b}
	if det.Stays, err = r.staysOf(ctx, tx, id); err != nil {
		return nil, err
	}
	if det.Flights, err = r.flightsOf(ctx, tx, id); err != nil {
		return nil, err
	}
	return det, nil
}

// GetForUser loads a booking with line items outside a transaction,
// enforcing ownership. Returns ErrBookingNotFound when the row does
// not exist or belongs to another user; ownership failures are not
// distinguished so callers cannot enumerate foreign booking ids.
func (r *BookingRepo) GetForUser(ctx context.Context, id, userID uint64) (*BookingDetail, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND user_id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id, userID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	det := &BookingDetail{Booking: b}
	if det.Stays, err = r.staysOf(ctx, nil, id); err != nil {
		return nil, err
	}
	if det.Flights, err = r.flightsOf(ctx, nil, id); err != nil {
		return nil, err
	}
	return det, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *BookingRepo) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *BookingRepo) staysOf(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.HotelStay, error) {
	const q = `SELECT id, booking_id, hotel_id, room_type_id, check_in, check_out, num_rooms, price_cents, status, created_at, updated_at
	           FROM hotel_stays WHERE booking_id = ? ORDER BY id`
	rows, err := r.q(tx).QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stays := make([]model.HotelStay, 0)
	for rows.Next() {
		var s model.HotelStay
		if err := rows.Scan(&s.ID, &s.BookingID, &s.HotelID, &s.RoomTypeID, &s.CheckIn, &s.CheckOut,
			&s.NumRooms, &s.PriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.CheckIn = s.CheckIn.UTC()
		s.CheckOut = s.CheckOut.UTC()
		stays = append(stays, s)
	}
	return stays, rows.Err()
}

func (r *BookingRepo) flightsOf(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.FlightItem, error) {
	const q = `SELECT id, booking_id, segment_ids, booking_ref, ticket_number, depart_airport, arrive_airport, depart_at, arrive_at, passengers, price_cents, created_at
	           FROM flight_items WHERE booking_id = ? ORDER BY id`
	rows, err := r.q(tx).QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.FlightItem, 0)
	for rows.Next() {
		var f model.FlightItem
		if err := rows.Scan(&f.ID, &f.BookingID, &f.SegmentIDs, &f.BookingRef, &f.TicketNumber,
			&f.DepartAirport, &f.ArriveAirport, &f.DepartAt, &f.ArriveAt, &f.Passengers, &f.PriceCents, &f.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// UpdateStatusTx moves a booking to the given status.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE bookings SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}

// UpdateStayStatusTx moves a single hotel stay to the given status.
func (r *BookingRepo) UpdateStayStatusTx(ctx context.Context, tx *sql.Tx, stayID uint64, status string) error {
	const q = `UPDATE hotel_stays SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, stayID)
	return err
}

// SetInvoiceRef stores the invoice reference once it is generated.
// The reference is written at most once; later calls keep the first.
func (r *BookingRepo) SetInvoiceRef(ctx context.Context, id uint64, ref string) error {
	const q = `UPDATE bookings SET invoice_ref = ? WHERE id = ? AND invoice_ref IS NULL`
	_, err := r.db.ExecContext(ctx, q, ref, id)
	return err
}

// BookedCountTx sums rooms across active hotel stays whose half-open
// [check_in, check_out) range contains the date. Check-out day does
// not count as occupied. Stays of pending and confirmed bookings both
// count; cancelled stays never do.
func (r *BookingRepo) BookedCountTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) (int, error) {
	const q = `SELECT COALESCE(SUM(hs.num_rooms), 0)
	           FROM hotel_stays hs
	           JOIN bookings b ON b.id = hs.booking_id
	           WHERE hs.room_type_id = ? AND hs.status = ?
	             AND b.status IN (?, ?)
	             AND hs.check_in <= ? AND hs.check_out > ?`
	var n int
	err := tx.QueryRowContext(ctx, q, roomTypeID, model.StayStatusConfirmed,
		model.BookingStatusPending, model.BookingStatusConfirmed, date, date).Scan(&n)
	return n, err
}

// StayWithBooking pairs a hotel stay with its parent booking's id,
// owner and creation time; used to pick forced-cancellation victims.
type StayWithBooking struct {
	Stay             model.HotelStay
	BookingUserID    uint64
	BookingCreatedAt time.Time
}

// ActiveStaysOnDateTx returns active stays of active bookings whose
// range covers the date, newest booking first. The forced reducer
// walks this list greedily; ordering is the cancellation priority.
func (r *BookingRepo) ActiveStaysOnDateTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) ([]StayWithBooking, error) {
	const q = `SELECT hs.id, hs.booking_id, hs.hotel_id, hs.room_type_id, hs.check_in, hs.check_out,
	                  hs.num_rooms, hs.price_cents, hs.status, hs.created_at, hs.updated_at,
	                  b.user_id, b.created_at
	           FROM hotel_stays hs
	           JOIN bookings b ON b.id = hs.booking_id
	           WHERE hs.room_type_id = ? AND hs.status = ?
	             AND b.status IN (?, ?)
	             AND hs.check_in <= ? AND hs.check_out > ?
	           ORDER BY b.created_at DESC, b.id DESC`
	rows, err := tx.QueryContext(ctx, q, roomTypeID, model.StayStatusConfirmed,
		model.BookingStatusPending, model.BookingStatusConfirmed, date, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StayWithBooking, 0)
	for rows.Next() {
		var sb StayWithBooking
		s := &sb.Stay
		if err := rows.Scan(&s.ID, &s.BookingID, &s.HotelID, &s.RoomTypeID, &s.CheckIn, &s.CheckOut,
			&s.NumRooms, &s.PriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt,
			&sb.BookingUserID, &sb.BookingCreatedAt); err != nil {
			return nil, err
		}
		s.CheckIn = s.CheckIn.UTC()
		s.CheckOut = s.CheckOut.UTC()
		out = append(out, sb)
	}
	return out, rows.Err()
}

// GetStayTx loads a single hotel stay row inside a transaction.
func (r *BookingRepo) GetStayTx(ctx context.Context, tx *sql.Tx, stayID uint64) (*model.HotelStay, error) {
	const q = `SELECT id, booking_id, hotel_id, room_type_id, check_in, check_out, num_rooms, price_cents, status, created_at, updated_at
	           FROM hotel_stays WHERE id = ? FOR UPDATE`
	var s model.HotelStay
	err := tx.QueryRowContext(ctx, q, stayID).Scan(&s.ID, &s.BookingID, &s.HotelID, &s.RoomTypeID,
		&s.CheckIn, &s.CheckOut, &s.NumRooms, &s.PriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrStayNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CheckIn = s.CheckIn.UTC()
	s.CheckOut = s.CheckOut.UTC()
	return &s, nil
}

// ActiveStayCountTx counts non-cancelled stays under a booking. The
// owner stay-cancellation path uses it to decide whether the parent
// booking must cascade to cancelled.
func (r *BookingRepo) ActiveStayCountTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM hotel_stays WHERE booking_id = ? AND status = ?`
	var n int
	err := tx.QueryRowContext(ctx, q, bookingID, model.StayStatusConfirmed).Scan(&n)
	return n, err
}

// ListByUser returns a user's bookings with line items, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, BookingDetail{Booking: b})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range details {
		id := details[i].Booking.ID
		if details[i].Stays, err = r.staysOf(ctx, nil, id); err != nil {
			return nil, err
		}
		if details[i].Flights, err = r.flightsOf(ctx, nil, id); err != nil {
			return nil, err
		}
	}
	return details, nil
}

// HotelStayListing is a stay joined with guest and booking context,
// as shown to hotel owners.
type HotelStayListing struct {
	Stay          model.HotelStay `json:"stay"`
	BookingStatus string          `json:"booking_status"`
	GuestEmail    string          `json:"guest_email"`
}

// ListStaysByHotelForOwner returns all stays booked at a hotel after
// verifying the caller owns it. Newest first.
func (r *BookingRepo) ListStaysByHotelForOwner(ctx context.Context, hotelID, ownerID uint64) ([]HotelStayListing, error) {
	const checkQ = `SELECT owner_id FROM hotels WHERE id = ?`
	var actual uint64
	if err := r.db.QueryRowContext(ctx, checkQ, hotelID).Scan(&actual); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrHotelNotFound
		}
		return nil, err
	}
	if actual != ownerID {
		return nil, ErrForbidden
	}
	const q = `SELECT hs.id, hs.booking_id, hs.hotel_id, hs.room_type_id, hs.check_in, hs.check_out,
	                  hs.num_rooms, hs.price_cents, hs.status, hs.created_at, hs.updated_at,
	                  b.status, u.email
	           FROM hotel_stays hs
	           JOIN bookings b ON b.id = hs.booking_id
	           JOIN users u ON u.id = b.user_id
	           WHERE hs.hotel_id = ?
	           ORDER BY hs.created_at DESC, hs.id DESC`
	rows, err := r.db.QueryContext(ctx, q, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]HotelStayListing, 0)
	for rows.Next() {
		var l HotelStayListing
		s := &l.Stay
		if err := rows.Scan(&s.ID, &s.BookingID, &s.HotelID, &s.RoomTypeID, &s.CheckIn, &s.CheckOut,
			&s.NumRooms, &s.PriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt,
			&l.BookingStatus, &l.GuestEmail); err != nil {
			return nil, err
		}
		s.CheckIn = s.CheckIn.UTC()
		s.CheckOut = s.CheckOut.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

// DistinctFlightRefs extracts the distinct, non-empty booking
// references across flight items preserving first-seen order.
// Several items booked in one gateway call share one reference and
// must be cancelled once, by reference.
func DistinctFlightRefs(items []model.FlightItem) []string {
	seen := make(map[string]struct{}, len(items))
	refs := make([]string, 0, len(items))
	for _, f := range items {
		ref := strings.TrimSpace(f.BookingRef)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}
