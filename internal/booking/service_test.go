package booking

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
)

type availKey struct {
	roomType uint64
	date     time.Time
}

// fakeEnv is an in-memory stand-in for the database. It implements
// the transaction seam (snapshot on begin, restore on rollback, the
// way a real transaction unwinds) and the inventory ledger; the
// fake* facade types expose its maps through the store interfaces.
type fakeEnv struct {
	hotels    map[uint64]model.Hotel
	roomTypes map[uint64]model.RoomType
	users     map[uint64]model.User
	bookings  map[uint64]model.Booking
	stays     map[uint64]model.HotelStay
	flights   map[uint64][]model.FlightItem
	notifs    []model.Notification
	avail     map[availKey]int

	nextID uint64
	clock  time.Time
	snap   *fakeEnv
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		hotels:    make(map[uint64]model.Hotel),
		roomTypes: make(map[uint64]model.RoomType),
		users:     make(map[uint64]model.User),
		bookings:  make(map[uint64]model.Booking),
		stays:     make(map[uint64]model.HotelStay),
		flights:   make(map[uint64][]model.FlightItem),
		avail:     make(map[availKey]int),
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (e *fakeEnv) id() uint64 {
	e.nextID++
	return e.nextID
}

func (e *fakeEnv) now() time.Time {
	e.clock = e.clock.Add(time.Minute)
	return e.clock
}

func (e *fakeEnv) clone() *fakeEnv {
	c := newFakeEnv()
	for k, v := range e.hotels {
		c.hotels[k] = v
	}
	for k, v := range e.roomTypes {
		c.roomTypes[k] = v
	}
	for k, v := range e.users {
		c.users[k] = v
	}
	for k, v := range e.bookings {
		c.bookings[k] = v
	}
	for k, v := range e.stays {
		c.stays[k] = v
	}
	for k, v := range e.flights {
		c.flights[k] = append([]model.FlightItem(nil), v...)
	}
	c.notifs = append([]model.Notification(nil), e.notifs...)
	for k, v := range e.avail {
		c.avail[k] = v
	}
	c.nextID = e.nextID
	c.clock = e.clock
	return c
}

func (e *fakeEnv) BeginTx(ctx context.Context) (dbTx, error) {
	e.snap = e.clone()
	return fakeTx{e}, nil
}

type fakeTx struct{ env *fakeEnv }

func (t fakeTx) Raw() *sql.Tx { return nil }

func (t fakeTx) Commit() error {
	t.env.snap = nil
	return nil
}

func (t fakeTx) Rollback() error {
	if s := t.env.snap; s != nil {
		*t.env = *s
	}
	return nil
}

// Seed helpers.

func (e *fakeEnv) addUser(lastName string) uint64 {
	id := e.id()
	e.users[id] = model.User{
		ID:        id,
		Email:     fmt.Sprintf("user%d@example.com", id),
		FirstName: "Test",
		LastName:  lastName,
		Role:      "CUSTOMER",
		IsActive:  true,
	}
	return id
}

func (e *fakeEnv) addHotel(ownerID uint64, name string) uint64 {
	id := e.id()
	e.hotels[id] = model.Hotel{ID: id, OwnerID: ownerID, Name: name, City: "Lisbon", StarRating: 4}
	return id
}

func (e *fakeEnv) addRoomType(hotelID uint64, base int, priceCents uint32) uint64 {
	id := e.id()
	e.roomTypes[id] = model.RoomType{ID: id, HotelID: hotelID, Name: "Double", PricePerNightCents: priceCents, BaseAvailability: base}
	return id
}

// addBooking seeds a confirmed booking with one stay and mirrors the
// reservation in the ledger rows, as if it had gone through checkout.
func (e *fakeEnv) addBooking(userID, hotelID, roomTypeID uint64, checkIn, checkOut time.Time, rooms int) uint64 {
	id := e.id()
	e.bookings[id] = model.Booking{ID: id, UserID: userID, Status: model.BookingStatusConfirmed, CreatedAt: e.now()}
	sid := e.id()
	e.stays[sid] = model.HotelStay{
		ID:         sid,
		BookingID:  id,
		HotelID:    hotelID,
		RoomTypeID: roomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		NumRooms:   rooms,
		Status:     model.StayStatusConfirmed,
	}
	rt := e.roomTypes[roomTypeID]
	r, _ := inventory.NewDateRange(checkIn, checkOut)
	for _, d := range r.Days() {
		e.avail[availKey{roomTypeID, d}] = e.remaining(&rt, d) - rooms
	}
	return id
}

func (e *fakeEnv) addFlightItem(bookingID uint64, ref string) {
	e.flights[bookingID] = append(e.flights[bookingID], model.FlightItem{
		ID:         e.id(),
		BookingID:  bookingID,
		BookingRef: ref,
	})
}

// Inventory ledger over the avail map, remaining-rooms semantics.

func (e *fakeEnv) remaining(rt *model.RoomType, d time.Time) int {
	if v, ok := e.avail[availKey{rt.ID, d}]; ok {
		return v
	}
	return rt.BaseAvailability
}

func (e *fakeEnv) Reserve(_ context.Context, _ *sql.Tx, rt *model.RoomType, r inventory.DateRange, numRooms int) error {
	for _, d := range r.Days() {
		v := e.remaining(rt, d)
		if v < numRooms {
			return &inventory.InsufficientAvailabilityError{RoomTypeID: rt.ID, Date: d, Requested: numRooms, Available: v}
		}
		e.avail[availKey{rt.ID, d}] = v - numRooms
	}
	return nil
}

func (e *fakeEnv) Release(_ context.Context, _ *sql.Tx, rt *model.RoomType, r inventory.DateRange, numRooms int) error {
	for _, d := range r.Days() {
		e.avail[availKey{rt.ID, d}] = e.remaining(rt, d) + numRooms
	}
	return nil
}

func (e *fakeEnv) BookedCount(_ context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time) (int, error) {
	n := 0
	for _, st := range e.stays {
		if st.RoomTypeID != roomTypeID || st.Status != model.StayStatusConfirmed {
			continue
		}
		b := e.bookings[st.BookingID]
		if b.Status != model.BookingStatusPending && b.Status != model.BookingStatusConfirmed {
			continue
		}
		if !st.CheckIn.After(date) && st.CheckOut.After(date) {
			n += st.NumRooms
		}
	}
	return n, nil
}

func (e *fakeEnv) ForceSet(_ context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time, value int) error {
	e.avail[availKey{roomTypeID, date}] = value
	return nil
}

// Store facades.

type fakeHotels struct{ env *fakeEnv }

func (f fakeHotels) GetByID(_ context.Context, id uint64) (*model.Hotel, error) {
	h, ok := f.env.hotels[id]
	if !ok {
		return nil, repository.ErrHotelNotFound
	}
	return &h, nil
}

type fakeRoomTypes struct{ env *fakeEnv }

func (f fakeRoomTypes) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.RoomType, error) {
	rt, ok := f.env.roomTypes[id]
	if !ok {
		return nil, repository.ErrRoomTypeNotFound
	}
	return &rt, nil
}

func (f fakeRoomTypes) OwnerOf(_ context.Context, roomTypeID uint64) (uint64, error) {
	rt, ok := f.env.roomTypes[roomTypeID]
	if !ok {
		return 0, repository.ErrRoomTypeNotFound
	}
	h, ok := f.env.hotels[rt.HotelID]
	if !ok {
		return 0, repository.ErrHotelNotFound
	}
	return h.OwnerID, nil
}

type fakeUsers struct{ env *fakeEnv }

func (f fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.env.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type fakeNotifications struct{ env *fakeEnv }

func (f fakeNotifications) CreateTx(_ context.Context, _ *sql.Tx, n *model.Notification) error {
	f.env.notifs = append(f.env.notifs, *n)
	return nil
}

type fakeBookings struct{ env *fakeEnv }

func (f fakeBookings) CreateTx(_ context.Context, _ *sql.Tx, b *model.Booking) error {
	b.ID = f.env.id()
	b.CreatedAt = f.env.now()
	b.UpdatedAt = b.CreatedAt
	f.env.bookings[b.ID] = *b
	return nil
}

func (f fakeBookings) CreateStaysBulkTx(_ context.Context, _ *sql.Tx, stays []model.HotelStay) error {
	for i := range stays {
		st := stays[i]
		st.ID = f.env.id()
		st.CreatedAt = f.env.now()
		f.env.stays[st.ID] = st
	}
	return nil
}

func (f fakeBookings) CreateFlightItemsBulkTx(_ context.Context, _ *sql.Tx, items []model.FlightItem) error {
	for _, it := range items {
		it.ID = f.env.id()
		f.env.flights[it.BookingID] = append(f.env.flights[it.BookingID], it)
	}
	return nil
}

func (f fakeBookings) detail(id uint64) (*repository.BookingDetail, bool) {
	b, ok := f.env.bookings[id]
	if !ok {
		return nil, false
	}
	det := &repository.BookingDetail{Booking: b}
	var stayIDs []uint64
	for sid, st := range f.env.stays {
		if st.BookingID == id {
			stayIDs = append(stayIDs, sid)
		}
	}
	sort.Slice(stayIDs, func(i, j int) bool { return stayIDs[i] < stayIDs[j] })
	for _, sid := range stayIDs {
		det.Stays = append(det.Stays, f.env.stays[sid])
	}
	det.Flights = append(det.Flights, f.env.flights[id]...)
	return det, true
}

func (f fakeBookings) GetWithItemsTx(_ context.Context, _ *sql.Tx, id uint64) (*repository.BookingDetail, error) {
	det, ok := f.detail(id)
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return det, nil
}

func (f fakeBookings) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, status string) error {
	b, ok := f.env.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.Status = status
	f.env.bookings[id] = b
	return nil
}

func (f fakeBookings) UpdateStayStatusTx(_ context.Context, _ *sql.Tx, stayID uint64, status string) error {
	st, ok := f.env.stays[stayID]
	if !ok {
		return repository.ErrStayNotFound
	}
	st.Status = status
	f.env.stays[stayID] = st
	return nil
}

func (f fakeBookings) SetInvoiceRef(_ context.Context, id uint64, ref string) error {
	b, ok := f.env.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.InvoiceRef == nil {
		b.InvoiceRef = &ref
		f.env.bookings[id] = b
	}
	return nil
}

func (f fakeBookings) ActiveStaysOnDateTx(_ context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time) ([]repository.StayWithBooking, error) {
	var out []repository.StayWithBooking
	for _, st := range f.env.stays {
		if st.RoomTypeID != roomTypeID || st.Status != model.StayStatusConfirmed {
			continue
		}
		b := f.env.bookings[st.BookingID]
		if b.Status != model.BookingStatusPending && b.Status != model.BookingStatusConfirmed {
			continue
		}
		if st.CheckIn.After(date) || !st.CheckOut.After(date) {
			continue
		}
		out = append(out, repository.StayWithBooking{Stay: st, BookingUserID: b.UserID, BookingCreatedAt: b.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingCreatedAt.Equal(out[j].BookingCreatedAt) {
			return out[i].BookingCreatedAt.After(out[j].BookingCreatedAt)
		}
		return out[i].Stay.BookingID > out[j].Stay.BookingID
	})
	return out, nil
}

func (f fakeBookings) GetStayTx(_ context.Context, _ *sql.Tx, stayID uint64) (*model.HotelStay, error) {
	st, ok := f.env.stays[stayID]
	if !ok {
		return nil, repository.ErrStayNotFound
	}
	return &st, nil
}

func (f fakeBookings) ActiveStayCountTx(_ context.Context, _ *sql.Tx, bookingID uint64) (int, error) {
	n := 0
	for _, st := range f.env.stays {
		if st.BookingID == bookingID && st.Status == model.StayStatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (f fakeBookings) ListByUser(_ context.Context, userID uint64) ([]repository.BookingDetail, error) {
	var ids []uint64
	for id, b := range f.env.bookings {
		if b.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	out := make([]repository.BookingDetail, 0, len(ids))
	for _, id := range ids {
		det, _ := f.detail(id)
		out = append(out, *det)
	}
	return out, nil
}

// Collaborator fakes.

type fakeGateway struct {
	bookRes    *flightgw.BookResult
	bookErr    error
	cancelRefs []string
	cancelErr  error
	verifySnap *flightgw.Snapshot
	verifyErr  error
}

func (f *fakeGateway) Book(_ context.Context, _ flightgw.Traveler, _ []string) (*flightgw.BookResult, error) {
	return f.bookRes, f.bookErr
}

func (f *fakeGateway) Cancel(_ context.Context, _, ref string) error {
	f.cancelRefs = append(f.cancelRefs, ref)
	return f.cancelErr
}

func (f *fakeGateway) Verify(_ context.Context, _, _ string) (*flightgw.Snapshot, error) {
	return f.verifySnap, f.verifyErr
}

type fakePublisher struct{ events []queue.BookingEvent }

func (p *fakePublisher) PublishBookingEvent(_ context.Context, ev queue.BookingEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func newFakeService(env *fakeEnv, gw flightgw.API, pub Publisher) *Service {
	return &Service{
		db:            env,
		hotels:        fakeHotels{env},
		roomTypes:     fakeRoomTypes{env},
		bookings:      fakeBookings{env},
		notifications: fakeNotifications{env},
		users:         fakeUsers{env},
		ledger:        env,
		gateway:       gw,
		publisher:     pub,
		cards:         SimpleCardValidator{},
		invoices:      URLInvoiceGenerator{BaseURL: "https://billing.example.com"},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
