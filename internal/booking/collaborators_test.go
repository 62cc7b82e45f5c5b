package booking

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

func TestSimpleCardValidatorDetect(t *testing.T) {
	v := SimpleCardValidator{}

	brand, last4, err := v.Detect("4111 1111 1111 1111")
	require.NoError(t, err)
	assert.Equal(t, "VISA", brand)
	assert.Equal(t, "1111", last4)

	brand, _, err = v.Detect("5500000000000004")
	require.NoError(t, err)
	assert.Equal(t, "MASTERCARD", brand)

	brand, _, err = v.Detect("340000000000009")
	require.NoError(t, err)
	assert.Equal(t, "AMEX", brand)

	brand, last4, err = v.Detect("6011-0000-0000-0004")
	require.NoError(t, err)
	assert.Equal(t, "CARD", brand)
	assert.Equal(t, "0004", last4)
}

func TestSimpleCardValidatorRejectsBadLengths(t *testing.T) {
	v := SimpleCardValidator{}

	_, _, err := v.Detect("4111")
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	_, _, err = v.Detect(strings.Repeat("4", 20))
	require.ErrorAs(t, err, &valErr)
}

func TestURLInvoiceGenerator(t *testing.T) {
	g := URLInvoiceGenerator{BaseURL: "https://billing.example.com/"}
	detail := &repository.BookingDetail{Booking: model.Booking{ID: 42}}

	ref, err := g.Generate(context.Background(), detail)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "https://billing.example.com/invoices/42/"))
	assert.True(t, strings.HasSuffix(ref, ".pdf"))

	// A booking that already carries a reference keeps it.
	existing := "https://billing.example.com/invoices/42/fixed.pdf"
	detail.Booking.InvoiceRef = &existing
	ref, err = g.Generate(context.Background(), detail)
	require.NoError(t, err)
	assert.Equal(t, existing, ref)
}
