package booking

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// The workflows talk to storage through narrow interfaces satisfied by
// the repository types, so tests can run them against in-memory fakes.

// HotelStore resolves hotels.
type HotelStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Hotel, error)
}

// RoomTypeStore resolves room types and their ownership.
type RoomTypeStore interface {
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.RoomType, error)
	OwnerOf(ctx context.Context, roomTypeID uint64) (uint64, error)
}

// UserStore resolves users.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// BookingStore persists bookings with their line items.
type BookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	CreateStaysBulkTx(ctx context.Context, tx *sql.Tx, stays []model.HotelStay) error
	CreateFlightItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.FlightItem) error
	GetWithItemsTx(ctx context.Context, tx *sql.Tx, id uint64) (*repository.BookingDetail, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error
	UpdateStayStatusTx(ctx context.Context, tx *sql.Tx, stayID uint64, status string) error
	SetInvoiceRef(ctx context.Context, id uint64, ref string) error
	ActiveStaysOnDateTx(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) ([]repository.StayWithBooking, error)
	GetStayTx(ctx context.Context, tx *sql.Tx, stayID uint64) (*model.HotelStay, error)
	ActiveStayCountTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (int, error)
	ListByUser(ctx context.Context, userID uint64) ([]repository.BookingDetail, error)
}

// NotificationStore appends notification rows.
type NotificationStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, n *model.Notification) error
}

// InventoryLedger is the slice of the inventory ledger the workflows
// drive: reservation deltas, booked counts and owner overrides.
type InventoryLedger interface {
	Reserve(ctx context.Context, tx *sql.Tx, rt *model.RoomType, r inventory.DateRange, numRooms int) error
	Release(ctx context.Context, tx *sql.Tx, rt *model.RoomType, r inventory.DateRange, numRooms int) error
	BookedCount(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time) (int, error)
	ForceSet(ctx context.Context, tx *sql.Tx, roomTypeID uint64, date time.Time, value int) error
}

// dbTx is one open workflow transaction. Raw exposes the handle the
// repositories write through; fake stores return nil and track state
// themselves.
type dbTx interface {
	Raw() *sql.Tx
	Commit() error
	Rollback() error
}

// txBeginner opens workflow transactions.
type txBeginner interface {
	BeginTx(ctx context.Context) (dbTx, error)
}

type sqlBeginner struct{ db *sql.DB }

func (b sqlBeginner) BeginTx(ctx context.Context) (dbTx, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{tx}, nil
}

type sqlTx struct{ tx *sql.Tx }

func (t sqlTx) Raw() *sql.Tx    { return t.tx }
func (t sqlTx) Commit() error   { return t.tx.Commit() }
func (t sqlTx) Rollback() error { return t.tx.Rollback() }

// Service orchestrates the booking workflows. All dependencies are
// injected so tests can substitute fakes for storage, the gateway,
// the broker publisher and the invoice generator.
type Service struct {
	db            txBeginner
	hotels        HotelStore
	roomTypes     RoomTypeStore
	bookings      BookingStore
	notifications NotificationStore
	users         UserStore
	ledger        InventoryLedger
	gateway       flightgw.API
	publisher     Publisher
	cards         CardValidator
	invoices      InvoiceGenerator
}

// NewService constructs the workflow service. The publisher may be
// nil (event publishing disabled); everything else must be non-nil.
func NewService(
	db *sql.DB,
	hotels HotelStore,
	roomTypes RoomTypeStore,
	bookings BookingStore,
	notifications NotificationStore,
	users UserStore,
	ledger InventoryLedger,
	gateway flightgw.API,
	publisher Publisher,
	cards CardValidator,
	invoices InvoiceGenerator,
) *Service {
	if db == nil || hotels == nil || roomTypes == nil || bookings == nil ||
		notifications == nil || users == nil || ledger == nil || gateway == nil ||
		cards == nil || invoices == nil {
		panic("nil dependency passed to NewService")
	}
	return &Service{
		db:            sqlBeginner{db},
		hotels:        hotels,
		roomTypes:     roomTypes,
		bookings:      bookings,
		notifications: notifications,
		users:         users,
		ledger:        ledger,
		gateway:       gateway,
		publisher:     publisher,
		cards:         cards,
		invoices:      invoices,
	}
}

// flush publishes events collected during a workflow once its
// transaction has committed. Failures are logged and swallowed; a
// broker outage must never unwind a committed booking.
func (s *Service) flush(ctx context.Context, events []queue.BookingEvent) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if ev.OccurredAt == "" {
			ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
		}
		if err := s.publisher.PublishBookingEvent(ctx, ev); err != nil {
			log.Printf("booking: publish %s event for booking %d failed: %v", ev.Type, ev.BookingID, err)
		}
	}
}
