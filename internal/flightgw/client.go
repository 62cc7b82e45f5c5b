// Package flightgw wraps the third-party flight reservation API. The
// remote system is treated as an unreliable dependency: every call
// runs behind a circuit breaker with a bounded timeout, and failures
// surface as *GatewayError so callers can decide whether the failure
// aborts their workflow or is merely recorded.
package flightgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	circuit "github.com/rubyist/circuitbreaker"
)

// GatewayError carries the remote failure detail. Timeouts and
// breaker rejections are reported the same way as explicit remote
// errors.
type GatewayError struct {
	Status  int    // HTTP status, 0 when the call never completed
	Message string // remote error message or transport error text
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("flight gateway: status %d: %s", e.Status, e.Message)
	}
	return "flight gateway: " + e.Message
}

// Traveler identifies the passenger a reservation is placed for.
type Traveler struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	PassportNo string `json:"passportNumber"`
}

// Segment is one flight leg as reported by the gateway.
type Segment struct {
	ID            string    `json:"id"`
	OriginCode    string    `json:"originCode"`
	DestCode      string    `json:"destinationCode"`
	DepartureTime time.Time `json:"departureTime"`
	ArrivalTime   time.Time `json:"arrivalTime"`
	Price         float64   `json:"price"`
	Status        string    `json:"status"`
}

// BookResult is the gateway's answer to a successful reservation.
// Every segment booked in one call shares the booking reference.
type BookResult struct {
	BookingRef   string    `json:"bookingReference"`
	TicketNumber string    `json:"ticketNumber"`
	Segments     []Segment `json:"flights"`
}

// Snapshot is the remote state of an existing reservation, used for
// read-only verification.
type Snapshot struct {
	BookingRef string    `json:"bookingReference"`
	Status     string    `json:"status"`
	Segments   []Segment `json:"flights"`
}

// API is the gateway contract consumed by the booking workflows.
// The HTTP client below implements it; tests substitute fakes.
type API interface {
	Book(ctx context.Context, t Traveler, flightIDs []string) (*BookResult, error)
	Cancel(ctx context.Context, lastName, bookingRef string) error
	Verify(ctx context.Context, bookingRef, lastName string) (*Snapshot, error)
}

// Client talks to the flight gateway over HTTP with a shared API key.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	breaker *circuit.Breaker
}

// NewClient constructs a gateway client. The breaker trips after
// consecutive transport failures and recovers on its own; while open,
// calls fail fast with a GatewayError instead of waiting out the
// timeout against a dead remote.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.NewConsecutiveBreaker(5),
	}
}

// Book reserves the given flattened segment ids for the traveler in
// one remote call. Callers must flatten composite itinerary ids with
// FlattenIDs first.
func (c *Client) Book(ctx context.Context, t Traveler, flightIDs []string) (*BookResult, error) {
	if len(flightIDs) == 0 {
		return nil, &GatewayError{Message: "no flight ids to book"}
	}
	body := struct {
		Traveler
		FlightIDs []string `json:"flightIds"`
	}{Traveler: t, FlightIDs: flightIDs}
	var out BookResult
	if err := c.call(ctx, http.MethodPost, "/bookings", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel voids a remote reservation by reference. The gateway
// requires the traveler's last name alongside the reference.
func (c *Client) Cancel(ctx context.Context, lastName, bookingRef string) error {
	body := map[string]string{
		"lastName":         lastName,
		"bookingReference": bookingRef,
	}
	return c.call(ctx, http.MethodPost, "/bookings/cancel", body, nil)
}

// Verify fetches the remote state of a reservation. Failures here
// are non-fatal to callers; they surface as "verification
// unavailable" rather than aborting anything.
func (c *Client) Verify(ctx context.Context, bookingRef, lastName string) (*Snapshot, error) {
	q := url.Values{}
	q.Set("bookingReference", bookingRef)
	q.Set("lastName", lastName)
	var out Snapshot
	if err := c.call(ctx, http.MethodGet, "/bookings/retrieve?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-api-key", c.apiKey)

	var gwErr *GatewayError
	callErr := c.breaker.Call(func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			gwErr = &GatewayError{Message: err.Error()}
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			gwErr = &GatewayError{Status: resp.StatusCode, Message: remoteMessage(resp.Body)}
			// A remote 4xx is a definitive answer, not a sign the
			// gateway is down; only 5xx counts against the breaker.
			if resp.StatusCode >= 500 {
				return gwErr
			}
			return nil
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				gwErr = &GatewayError{Message: "decoding response: " + err.Error()}
				return nil
			}
		}
		return nil
	}, c.timeout)

	if gwErr != nil {
		return gwErr
	}
	if callErr != nil {
		// Breaker open or call timed out before the handler ran.
		return &GatewayError{Message: callErr.Error()}
	}
	return nil
}

func remoteMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "remote error"
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(raw)
}

var _ API = (*Client)(nil)
