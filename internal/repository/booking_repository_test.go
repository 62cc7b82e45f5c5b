package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/travel-booking/internal/model"
)

func TestDistinctFlightRefs(t *testing.T) {
	items := []model.FlightItem{
		{BookingRef: "REF-A"},
		{BookingRef: "REF-A"}, // several segments from one gateway call
		{BookingRef: " REF-B "},
		{BookingRef: ""},
		{BookingRef: "REF-A"},
	}
	assert.Equal(t, []string{"REF-A", "REF-B"}, DistinctFlightRefs(items))
	assert.Empty(t, DistinctFlightRefs(nil))
}
