package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/inventory"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/queue"
)

func validPayment() PaymentInfo {
	return PaymentInfo{CardNumber: "4111111111111111", Expiry: "12/27"}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	s := newFakeService(newFakeEnv(), &fakeGateway{}, nil)
	_, err := s.Checkout(context.Background(), CheckoutInput{
		UserID:  1,
		Payment: validPayment(),
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestCheckoutRejectsBadCard(t *testing.T) {
	s := newFakeService(newFakeEnv(), &fakeGateway{}, nil)
	_, err := s.Checkout(context.Background(), CheckoutInput{
		UserID:  1,
		Payment: PaymentInfo{CardNumber: "42"},
		Flights: []FlightRequest{{FlightIDs: []string{"FL-1"}}},
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestCheckoutRejectsZeroRooms(t *testing.T) {
	s := newFakeService(newFakeEnv(), &fakeGateway{}, nil)
	_, err := s.Checkout(context.Background(), CheckoutInput{
		UserID:  1,
		Payment: validPayment(),
		Stays: []StayRequest{{
			HotelID:    1,
			RoomTypeID: 1,
			CheckIn:    date(2024, 6, 1),
			CheckOut:   date(2024, 6, 3),
			NumRooms:   0,
		}},
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestCheckoutRejectsInvertedStayRange(t *testing.T) {
	s := newFakeService(newFakeEnv(), &fakeGateway{}, nil)
	_, err := s.Checkout(context.Background(), CheckoutInput{
		UserID:  1,
		Payment: validPayment(),
		Stays: []StayRequest{{
			HotelID:    1,
			RoomTypeID: 1,
			CheckIn:    date(2024, 6, 3),
			CheckOut:   date(2024, 6, 1),
			NumRooms:   1,
		}},
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestCheckoutConfirmsBookingAndNotifies(t *testing.T) {
	env := newFakeEnv()
	owner := env.addUser("Owner")
	guest := env.addUser("Guest")
	hotelID := env.addHotel(owner, "Hotel Mar")
	rtID := env.addRoomType(hotelID, 5, 12000)

	gw := &fakeGateway{bookRes: &flightgw.BookResult{
		BookingRef:   "PNR-1",
		TicketNumber: "TK-1",
		Segments:     []flightgw.Segment{{ID: "seg-1", OriginCode: "LIS", DestCode: "MAD", Price: 120.50}},
	}}
	pub := &fakePublisher{}
	s := newFakeService(env, gw, pub)

	detail, err := s.Checkout(context.Background(), CheckoutInput{
		UserID:  guest,
		Payment: validPayment(),
		Stays: []StayRequest{{
			HotelID:    hotelID,
			RoomTypeID: rtID,
			CheckIn:    date(2024, 6, 1),
			CheckOut:   date(2024, 6, 3),
			NumRooms:   2,
		}},
		Flights: []FlightRequest{{FlightIDs: []string{"seg-1"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusConfirmed, detail.Booking.Status)
	// 2 rooms x 2 nights x 12000 + 1 passenger x 12050.
	assert.Equal(t, uint64(60050), detail.Booking.TotalPriceCents)
	assert.Equal(t, "VISA", detail.Booking.CardBrand)
	assert.Equal(t, "1111", detail.Booking.CardLast4)
	require.NotNil(t, detail.Booking.InvoiceRef)
	assert.Contains(t, *detail.Booking.InvoiceRef, "https://billing.example.com/invoices/")

	// Inventory decremented for every night of the stay.
	for _, d := range []time.Time{date(2024, 6, 1), date(2024, 6, 2)} {
		assert.Equal(t, 3, env.avail[availKey{rtID, d}])
	}

	// Guest confirmation plus one notification per hotel owner.
	types := make(map[string]int)
	for _, n := range env.notifs {
		types[n.Type]++
	}
	assert.Equal(t, 1, types[model.NotificationBookingConfirmed])
	assert.Equal(t, 1, types[model.NotificationNewReservation])

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.EventBookingConfirmed, pub.events[0].Type)
}

func TestCheckoutCompensatesReservationsOnGatewayFailure(t *testing.T) {
	env := newFakeEnv()
	owner := env.addUser("Owner")
	guest := env.addUser("Guest")
	hotelID := env.addHotel(owner, "Hotel Mar")
	rtID := env.addRoomType(hotelID, 5, 12000)

	gw := &fakeGateway{bookErr: &flightgw.GatewayError{Status: 503, Message: "remote unavailable"}}
	s := newFakeService(env, gw, nil)

	_, err := s.Checkout(context.Background(), CheckoutInput{
		UserID:  guest,
		Payment: validPayment(),
		Stays: []StayRequest{{
			HotelID:    hotelID,
			RoomTypeID: rtID,
			CheckIn:    date(2024, 6, 1),
			CheckOut:   date(2024, 6, 3),
			NumRooms:   2,
		}},
		Flights: []FlightRequest{{FlightIDs: []string{"seg-1"}}},
	})
	var gwErr *flightgw.GatewayError
	require.ErrorAs(t, err, &gwErr)

	// The hotel reservation was fully unwound: every date reads the
	// pre-checkout value and nothing was persisted.
	rt := env.roomTypes[rtID]
	for _, d := range []time.Time{date(2024, 6, 1), date(2024, 6, 2)} {
		assert.Equal(t, 5, env.remaining(&rt, d))
	}
	assert.Empty(t, env.bookings)
	assert.Empty(t, env.notifs)
}

func TestCheckoutRejectsRangeWithFullDate(t *testing.T) {
	env := newFakeEnv()
	owner := env.addUser("Owner")
	guest := env.addUser("Guest")
	hotelID := env.addHotel(owner, "Hotel Mar")
	rtID := env.addRoomType(hotelID, 5, 12000)

	s := newFakeService(env, &fakeGateway{}, nil)

	book := func(rooms int) error {
		_, err := s.Checkout(context.Background(), CheckoutInput{
			UserID:  guest,
			Payment: validPayment(),
			Stays: []StayRequest{{
				HotelID:    hotelID,
				RoomTypeID: rtID,
				CheckIn:    date(2024, 6, 1),
				CheckOut:   date(2024, 6, 3),
				NumRooms:   rooms,
			}},
		})
		return err
	}

	require.NoError(t, book(5))

	err := book(1)
	var availErr *inventory.InsufficientAvailabilityError
	require.ErrorAs(t, err, &availErr)
	assert.Equal(t, date(2024, 6, 1), availErr.Date)
	assert.Contains(t, err.Error(), "2024-06-01")

	// The failed attempt left the inventory of both dates untouched.
	for _, d := range []time.Time{date(2024, 6, 1), date(2024, 6, 2)} {
		assert.Equal(t, 0, env.avail[availKey{rtID, d}])
	}
}
