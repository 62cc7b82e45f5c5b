package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// Publisher pushes booking events to the message broker after the
// surrounding transaction has committed. A nil publisher disables
// publishing; a publish failure is logged and never propagated, so it
// cannot roll back committed state.
type Publisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

// CardValidator detects the brand of a payment card and confirms the
// number is plausibly formed. Only the brand and the last four digits
// are ever kept; the full number is dropped on the floor.
type CardValidator interface {
	Detect(number string) (brand, last4 string, err error)
}

// InvoiceGenerator renders a durable invoice document for a completed
// checkout and returns a reference to it. Generation is idempotent:
// re-invoking for a booking that already has a reference keeps the
// first one.
type InvoiceGenerator interface {
	Generate(ctx context.Context, detail *repository.BookingDetail) (string, error)
}

// SimpleCardValidator is a format-only card check: it never talks to
// a payment processor. Brand detection follows the leading digits.
type SimpleCardValidator struct{}

func (SimpleCardValidator) Detect(number string) (brand, last4 string, err error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(digits) < 12 || len(digits) > 19 {
		return "", "", validationf("card number must be 12-19 digits")
	}
	switch {
	case digits[0] == '4':
		brand = "VISA"
	case digits[0] == '5':
		brand = "MASTERCARD"
	case strings.HasPrefix(digits, "34") || strings.HasPrefix(digits, "37"):
		brand = "AMEX"
	default:
		brand = "CARD"
	}
	return brand, digits[len(digits)-4:], nil
}

// URLInvoiceGenerator issues invoice references shaped as URLs under
// a fixed base path. The rendered document itself is produced by an
// external service that resolves these references.
type URLInvoiceGenerator struct {
	BaseURL string
}

func (g URLInvoiceGenerator) Generate(_ context.Context, detail *repository.BookingDetail) (string, error) {
	if detail.Booking.InvoiceRef != nil {
		return *detail.Booking.InvoiceRef, nil
	}
	base := strings.TrimSuffix(g.BaseURL, "/")
	return fmt.Sprintf("%s/invoices/%d/%s.pdf", base, detail.Booking.ID, uuid.NewString()), nil
}
