package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// checkoutFixture books 5 rooms over 2024-06-01 -> 2024-06-03 with one
// flight, returning the environment, the service and the booking id.
func checkoutFixture(t *testing.T, gw *fakeGateway) (*fakeEnv, *Service, uint64, uint64) {
	t.Helper()
	env := newFakeEnv()
	owner := env.addUser("Owner")
	guest := env.addUser("Guest")
	hotelID := env.addHotel(owner, "Hotel Mar")
	rtID := env.addRoomType(hotelID, 5, 12000)

	if gw.bookRes == nil {
		gw.bookRes = &flightgw.BookResult{
			BookingRef:   "PNR-1",
			TicketNumber: "TK-1",
			Segments:     []flightgw.Segment{{ID: "seg-1", Price: 99}},
		}
	}
	s := newFakeService(env, gw, nil)

	detail, err := s.Checkout(context.Background(), CheckoutInput{
		UserID:  guest,
		Payment: validPayment(),
		Stays: []StayRequest{{
			HotelID:    hotelID,
			RoomTypeID: rtID,
			CheckIn:    date(2024, 6, 1),
			CheckOut:   date(2024, 6, 3),
			NumRooms:   5,
		}},
		Flights: []FlightRequest{{FlightIDs: []string{"seg-1"}}},
	})
	require.NoError(t, err)

	return env, s, detail.Booking.ID, rtID
}

func TestCancelRestoresInventoryAndCancelsFlights(t *testing.T) {
	gw := &fakeGateway{}
	env, s, bookingID, rtID := checkoutFixture(t, gw)
	guest := env.bookings[bookingID].UserID

	res, err := s.Cancel(context.Background(), bookingID, guest)
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusCancelled, env.bookings[bookingID].Status)
	for _, d := range []time.Time{date(2024, 6, 1), date(2024, 6, 2)} {
		assert.Equal(t, 5, env.avail[availKey{rtID, d}])
	}
	require.Len(t, res.Flights, 1)
	assert.True(t, res.Flights[0].OK)
	assert.Equal(t, []string{"PNR-1"}, gw.cancelRefs)
}

func TestCancelTwiceDoesNotDoubleReleaseInventory(t *testing.T) {
	gw := &fakeGateway{}
	env, s, bookingID, rtID := checkoutFixture(t, gw)
	guest := env.bookings[bookingID].UserID

	_, err := s.Cancel(context.Background(), bookingID, guest)
	require.NoError(t, err)

	_, err = s.Cancel(context.Background(), bookingID, guest)
	var stateErr *InvalidStateTransitionError
	require.ErrorAs(t, err, &stateErr)

	// Inventory restored exactly once.
	for _, d := range []time.Time{date(2024, 6, 1), date(2024, 6, 2)} {
		assert.Equal(t, 5, env.avail[availKey{rtID, d}])
	}
}

func TestCancelRemoteFailureDoesNotAbortLocalCancellation(t *testing.T) {
	gw := &fakeGateway{cancelErr: &flightgw.GatewayError{Status: 500, Message: "airline down"}}
	env, s, bookingID, rtID := checkoutFixture(t, gw)
	guest := env.bookings[bookingID].UserID

	res, err := s.Cancel(context.Background(), bookingID, guest)
	require.NoError(t, err)

	// The airline-side failure is recorded but the booking is still
	// cancelled and the rooms are back.
	require.Len(t, res.Flights, 1)
	assert.False(t, res.Flights[0].OK)
	assert.NotEmpty(t, res.Flights[0].Error)
	assert.Equal(t, model.BookingStatusCancelled, env.bookings[bookingID].Status)
	for _, d := range []time.Time{date(2024, 6, 1), date(2024, 6, 2)} {
		assert.Equal(t, 5, env.avail[availKey{rtID, d}])
	}
}

func TestCancelForeignBookingReadsAsNotFound(t *testing.T) {
	gw := &fakeGateway{}
	env, s, bookingID, _ := checkoutFixture(t, gw)
	stranger := env.addUser("Stranger")

	_, err := s.Cancel(context.Background(), bookingID, stranger)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestOwnerStayCascadeSkipsFlightCancellation(t *testing.T) {
	gw := &fakeGateway{}
	env, s, bookingID, rtID := checkoutFixture(t, gw)

	var stayID uint64
	for id, st := range env.stays {
		if st.BookingID == bookingID {
			stayID = id
		}
	}
	require.NotZero(t, stayID)
	ownerID := env.hotels[env.stays[stayID].HotelID].OwnerID

	res, err := s.CancelStay(context.Background(), stayID, ownerID)
	require.NoError(t, err)

	// Last active stay: the parent booking cascades to cancelled and
	// the rooms come back, but the guest's flights are left alone.
	assert.Equal(t, model.BookingStatusCancelled, env.bookings[bookingID].Status)
	assert.Equal(t, model.StayStatusCancelled, env.stays[stayID].Status)
	for _, d := range []time.Time{date(2024, 6, 1), date(2024, 6, 2)} {
		assert.Equal(t, 5, env.avail[availKey{rtID, d}])
	}
	assert.Empty(t, gw.cancelRefs)
	assert.Empty(t, res.Flights)
}
