package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking/internal/flightgw"
	"github.com/iliyamo/travel-booking/internal/repository"
)

func verifyFixture() (*fakeEnv, uint64) {
	env := newFakeEnv()
	owner := env.addUser("Owner")
	guest := env.addUser("Guest")
	hotelID := env.addHotel(owner, "Hotel Rio")
	rtID := env.addRoomType(hotelID, 5, 9000)
	bookingID := env.addBooking(guest, hotelID, rtID, date(2024, 6, 1), date(2024, 6, 2), 1)
	env.addFlightItem(bookingID, "PNR-9")
	return env, guest
}

func TestVerifyFlightReturnsSnapshot(t *testing.T) {
	env, guest := verifyFixture()
	gw := &fakeGateway{verifySnap: &flightgw.Snapshot{BookingRef: "PNR-9", Status: "CONFIRMED"}}
	s := newFakeService(env, gw, nil)

	res, err := s.VerifyFlight(context.Background(), guest, "PNR-9")
	require.NoError(t, err)
	assert.False(t, res.Unavailable)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, "CONFIRMED", res.Snapshot.Status)
}

func TestVerifyFlightGatewayFailureIsNonFatal(t *testing.T) {
	env, guest := verifyFixture()
	gw := &fakeGateway{verifyErr: &flightgw.GatewayError{Message: "connection refused"}}
	s := newFakeService(env, gw, nil)

	res, err := s.VerifyFlight(context.Background(), guest, "PNR-9")
	require.NoError(t, err)
	assert.True(t, res.Unavailable)
	assert.Contains(t, res.Reason, "connection refused")
	assert.Nil(t, res.Snapshot)
}

func TestVerifyFlightForeignReferenceReadsAsNotFound(t *testing.T) {
	env, _ := verifyFixture()
	stranger := env.addUser("Stranger")
	s := newFakeService(env, &fakeGateway{}, nil)

	_, err := s.VerifyFlight(context.Background(), stranger, "PNR-9")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	_, err = s.VerifyFlight(context.Background(), stranger, "")
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
