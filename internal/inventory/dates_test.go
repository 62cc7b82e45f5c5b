package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	in := time.Date(2024, 6, 1, 1, 30, 0, 0, loc) // 2024-05-31T22:30Z
	assert.Equal(t, date(2024, 5, 31), Day(in))

	assert.Equal(t, date(2024, 6, 1), Day(time.Date(2024, 6, 1, 23, 59, 59, 0, time.UTC)))
}

func TestNewDateRangeRejectsZeroNights(t *testing.T) {
	_, err := NewDateRange(date(2024, 6, 1), date(2024, 6, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewDateRange(date(2024, 6, 2), date(2024, 6, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDateRangeNormalizesTimestamps(t *testing.T) {
	r, err := NewDateRange(
		time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 11, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 6, 1), r.CheckIn)
	assert.Equal(t, date(2024, 6, 3), r.CheckOut)
	assert.Equal(t, 2, r.Nights())
}

func TestDaysIsCheckoutExclusive(t *testing.T) {
	r, err := NewDateRange(date(2024, 6, 1), date(2024, 6, 4))
	require.NoError(t, err)

	days := r.Days()
	require.Len(t, days, 3)
	assert.Equal(t, date(2024, 6, 1), days[0])
	assert.Equal(t, date(2024, 6, 2), days[1])
	assert.Equal(t, date(2024, 6, 3), days[2])
}

func TestDaysAcrossMonthAndLeapDay(t *testing.T) {
	r, err := NewDateRange(date(2024, 2, 28), date(2024, 3, 1))
	require.NoError(t, err)

	days := r.Days()
	require.Len(t, days, 2)
	assert.Equal(t, date(2024, 2, 28), days[0])
	assert.Equal(t, date(2024, 2, 29), days[1])
}

func TestContains(t *testing.T) {
	r, err := NewDateRange(date(2024, 6, 1), date(2024, 6, 4))
	require.NoError(t, err)

	assert.True(t, r.Contains(date(2024, 6, 1)))
	assert.True(t, r.Contains(time.Date(2024, 6, 3, 23, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(date(2024, 6, 4)), "check-out day is not occupied")
	assert.False(t, r.Contains(date(2024, 5, 31)))
}
