package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBookingOverlaps_HalfOpenIntervals(t *testing.T) {
	a := &Booking{CheckIn: day(2025, 7, 10), CheckOut: day(2025, 7, 15)}

	// Back-to-back: one guest checks out the day the next checks in.
	b := &Booking{CheckIn: day(2025, 7, 15), CheckOut: day(2025, 7, 20)}
	require.False(t, a.Overlaps(b))
	require.False(t, b.Overlaps(a))

	// One night shared.
	c := &Booking{CheckIn: day(2025, 7, 14), CheckOut: day(2025, 7, 16)}
	require.True(t, a.Overlaps(c))
	require.True(t, c.Overlaps(a))

	// Fully contained.
	d := &Booking{CheckIn: day(2025, 7, 11), CheckOut: day(2025, 7, 12)}
	require.True(t, a.Overlaps(d))
}

func TestBookingNights(t *testing.T) {
	b := &Booking{CheckIn: day(2025, 7, 10), CheckOut: day(2025, 7, 15)}
	require.Equal(t, 5, b.Nights())
}

func TestSlotHolding(t *testing.T) {
	require.True(t, BookingConfirmed.SlotHolding())
	require.True(t, BookingCheckedIn.SlotHolding())
	require.False(t, BookingPending.SlotHolding())
	require.False(t, BookingCheckedOut.SlotHolding())
	require.False(t, BookingCancelled.SlotHolding())
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCheckedIn, false},
		{BookingConfirmed, BookingCheckedIn, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingCheckedOut, false},
		{BookingCheckedIn, BookingCheckedOut, true},
		{BookingCheckedIn, BookingCancelled, false},
		{BookingCheckedOut, BookingConfirmed, false},
		{BookingCancelled, BookingConfirmed, false},
	}

	for _, tc := range cases {
		b := &Booking{Status: tc.from}
		require.Equalf(t, tc.allowed, b.ValidTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
