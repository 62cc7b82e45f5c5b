package flightgw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 2*time.Second), srv
}

func TestBookSendsTravelerAndIDs(t *testing.T) {
	var gotBody struct {
		Email      string   `json:"email"`
		FirstName  string   `json:"firstName"`
		LastName   string   `json:"lastName"`
		PassportNo string   `json:"passportNumber"`
		FlightIDs  []string `json:"flightIds"`
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bookings", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bookingReference": "REF123",
			"ticketNumber": "TKT9",
			"flights": [
				{"id": "FL-100", "originCode": "AMS", "destinationCode": "LIS",
				 "departureTime": "2024-06-01T09:00:00Z", "arrivalTime": "2024-06-01T11:30:00Z",
				 "price": 129.99, "status": "CONFIRMED"}
			]
		}`))
	})

	res, err := c.Book(context.Background(), Traveler{
		Email:      "ana@example.com",
		FirstName:  "Ana",
		LastName:   "Silva",
		PassportNo: "P1234567",
	}, []string{"FL-100"})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", gotBody.Email)
	assert.Equal(t, "Silva", gotBody.LastName)
	assert.Equal(t, "P1234567", gotBody.PassportNo)
	assert.Equal(t, []string{"FL-100"}, gotBody.FlightIDs)

	assert.Equal(t, "REF123", res.BookingRef)
	assert.Equal(t, "TKT9", res.TicketNumber)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, "FL-100", res.Segments[0].ID)
	assert.Equal(t, "AMS", res.Segments[0].OriginCode)
	assert.InDelta(t, 129.99, res.Segments[0].Price, 0.001)
}

func TestBookRejectsEmptyIDs(t *testing.T) {
	c := NewClient("http://unused", "k", time.Second)
	_, err := c.Book(context.Background(), Traveler{}, nil)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 0, gwErr.Status)
}

func TestRemoteErrorsCarryStatusAndMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "flight sold out"}`))
	})
	_, err := c.Book(context.Background(), Traveler{}, []string{"FL-1"})
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.Status)
	assert.Equal(t, "flight sold out", gwErr.Message)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "unknown flight"}`))
	})
	// More rejections than the breaker's consecutive-failure threshold;
	// every one must still reach the server.
	for i := 0; i < 8; i++ {
		_, err := c.Book(context.Background(), Traveler{}, []string{"FL-1"})
		var gwErr *GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, http.StatusNotFound, gwErr.Status)
	}
	assert.Equal(t, 8, calls)
}

func TestServerErrorsTripBreaker(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	for i := 0; i < 5; i++ {
		_, err := c.Book(context.Background(), Traveler{}, []string{"FL-1"})
		require.Error(t, err)
	}
	require.Equal(t, 5, calls)

	// Breaker is now open; the next call fails fast without a request.
	_, err := c.Book(context.Background(), Traveler{}, []string{"FL-1"})
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 5, calls)
}

func TestCancelPostsReferenceAndLastName(t *testing.T) {
	var gotBody map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bookings/cancel", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.Cancel(context.Background(), "Silva", "REF123"))
	assert.Equal(t, "Silva", gotBody["lastName"])
	assert.Equal(t, "REF123", gotBody["bookingReference"])
}

func TestVerifyUsesQueryParams(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/bookings/retrieve", r.URL.Path)
		assert.Equal(t, "REF123", r.URL.Query().Get("bookingReference"))
		assert.Equal(t, "Silva", r.URL.Query().Get("lastName"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bookingReference": "REF123", "status": "CONFIRMED", "flights": []}`))
	})
	snap, err := c.Verify(context.Background(), "REF123", "Silva")
	require.NoError(t, err)
	assert.Equal(t, "REF123", snap.BookingRef)
	assert.Equal(t, "CONFIRMED", snap.Status)
}
