package inventory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-booking/internal/model"
)

type availRow struct {
	roomType uint64
	date     time.Time
}

// memAvailability is an in-memory AvailabilityStore. The tx parameter
// is ignored; the ledger's locking discipline is exercised through the
// call order, not through real row locks.
type memAvailability map[availRow]int

func (m memAvailability) Get(_ context.Context, roomTypeID uint64, date time.Time) (int, bool, error) {
	v, ok := m[availRow{roomTypeID, date}]
	return v, ok, nil
}

func (m memAvailability) GetTx(ctx context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time) (int, bool, error) {
	return m.Get(ctx, roomTypeID, date)
}

func (m memAvailability) EnsureTx(_ context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time, seed int) error {
	k := availRow{roomTypeID, date}
	if _, ok := m[k]; !ok {
		m[k] = seed
	}
	return nil
}

func (m memAvailability) LockTx(_ context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time) (int, error) {
	v, ok := m[availRow{roomTypeID, date}]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return v, nil
}

func (m memAvailability) AddTx(_ context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time, delta int) error {
	m[availRow{roomTypeID, date}] += delta
	return nil
}

func (m memAvailability) ReplaceTx(_ context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time, value int) error {
	m[availRow{roomTypeID, date}] = value
	return nil
}

func (m memAvailability) ListRange(_ context.Context, roomTypeID uint64, from, to time.Time) (map[time.Time]int, error) {
	out := make(map[time.Time]int)
	for k, v := range m {
		if k.roomType == roomTypeID && !k.date.Before(from) && k.date.Before(to) {
			out[k.date] = v
		}
	}
	return out, nil
}

type memCounter map[availRow]int

func (m memCounter) BookedCountTx(_ context.Context, _ *sql.Tx, roomTypeID uint64, date time.Time) (int, error) {
	return m[availRow{roomTypeID, date}], nil
}

func testRoomType() *model.RoomType {
	return &model.RoomType{ID: 7, HotelID: 1, Name: "Double", BaseAvailability: 5}
}

func mustRange(t *testing.T, from, to time.Time) DateRange {
	t.Helper()
	r, err := NewDateRange(from, to)
	require.NoError(t, err)
	return r
}

func TestReserveConsumesBaseAvailability(t *testing.T) {
	avail := memAvailability{}
	l := NewLedger(avail, memCounter{})
	rt := testRoomType()
	r := mustRange(t, date(2024, 6, 1), date(2024, 6, 3))

	require.NoError(t, l.Reserve(context.Background(), nil, rt, r, 5))

	for _, d := range r.Days() {
		v, err := l.Availability(context.Background(), nil, rt, d)
		require.NoError(t, err)
		assert.Equal(t, 0, v)
	}
	// Check-out day untouched: no override row was ever created for it.
	v, err := l.Availability(context.Background(), nil, rt, date(2024, 6, 3))
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	_, ok := avail[availRow{rt.ID, date(2024, 6, 3)}]
	assert.False(t, ok)
}

func TestReserveRejectsRangeOnFirstFullDate(t *testing.T) {
	avail := memAvailability{}
	l := NewLedger(avail, memCounter{})
	rt := testRoomType()

	// Five singles fill 2024-06-01.
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Reserve(context.Background(), nil, rt, mustRange(t, date(2024, 6, 1), date(2024, 6, 2)), 1))
	}

	err := l.Reserve(context.Background(), nil, rt, mustRange(t, date(2024, 6, 1), date(2024, 6, 3)), 1)
	var insErr *InsufficientAvailabilityError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, date(2024, 6, 1), insErr.Date)
	assert.Equal(t, 0, insErr.Available)
	assert.Equal(t, 1, insErr.Requested)
	assert.Contains(t, err.Error(), "2024-06-01")
}

func TestReserveThenReleaseRestoresAvailability(t *testing.T) {
	avail := memAvailability{}
	l := NewLedger(avail, memCounter{})
	rt := testRoomType()
	r := mustRange(t, date(2024, 6, 1), date(2024, 6, 4))

	require.NoError(t, l.Reserve(context.Background(), nil, rt, r, 3))
	require.NoError(t, l.Release(context.Background(), nil, rt, r, 3))

	for _, d := range r.Days() {
		v, err := l.Availability(context.Background(), nil, rt, d)
		require.NoError(t, err)
		assert.Equal(t, rt.BaseAvailability, v)
	}
}

func TestReserveRejectsNonPositiveRoomCount(t *testing.T) {
	l := NewLedger(memAvailability{}, memCounter{})
	rt := testRoomType()
	r := mustRange(t, date(2024, 6, 1), date(2024, 6, 2))

	assert.Error(t, l.Reserve(context.Background(), nil, rt, r, 0))
	assert.Error(t, l.Release(context.Background(), nil, rt, r, -1))
}

func TestForceSetWritesExactValueUnclamped(t *testing.T) {
	avail := memAvailability{}
	counter := memCounter{{7, date(2024, 6, 1)}: 5}
	l := NewLedger(avail, counter)
	rt := testRoomType()

	// Below the booked count on purpose.
	require.NoError(t, l.ForceSet(context.Background(), nil, rt.ID, date(2024, 6, 1), 2))

	v, err := l.Availability(context.Background(), nil, rt, date(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	booked, err := l.BookedCount(context.Background(), nil, rt.ID, date(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 5, booked)
}

func TestAvailabilityFallsBackToBase(t *testing.T) {
	avail := memAvailability{{7, date(2024, 6, 2)}: 1}
	l := NewLedger(avail, memCounter{})
	rt := testRoomType()

	out, err := l.AvailabilityRange(context.Background(), rt, mustRange(t, date(2024, 6, 1), date(2024, 6, 4)))
	require.NoError(t, err)
	assert.Equal(t, map[time.Time]int{
		date(2024, 6, 1): 5,
		date(2024, 6, 2): 1,
		date(2024, 6, 3): 5,
	}, out)
}
