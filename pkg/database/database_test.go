package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsBookingConflict(t *testing.T) {
	conflict := &pgconn.PgError{Code: "23P01", ConstraintName: BookingOverlapConstraint}
	require.True(t, IsBookingConflict(conflict))

	// gorm wraps driver errors; unwrapping must still match.
	require.True(t, IsBookingConflict(fmt.Errorf("create failed: %w", conflict)))
}

func TestIsBookingConflict_Negative(t *testing.T) {
	// Unique violation on the same constraint name is not an overlap.
	require.False(t, IsBookingConflict(&pgconn.PgError{Code: "23505", ConstraintName: BookingOverlapConstraint}))

	// Exclusion violation on some other constraint is not ours.
	require.False(t, IsBookingConflict(&pgconn.PgError{Code: "23P01", ConstraintName: "users_email_key"}))

	require.False(t, IsBookingConflict(errors.New("connection refused")))
	require.False(t, IsBookingConflict(nil))
}

func TestBookingOverlapDDL(t *testing.T) {
	require.Contains(t, bookingOverlapDDL, "EXCLUDE USING gist")
	require.Contains(t, bookingOverlapDDL, "daterange(check_in, check_out) WITH &&")
	require.Contains(t, bookingOverlapDDL, "status IN ('confirmed', 'checked_in')")
	require.Contains(t, bookingOverlapDDL, "deleted_at IS NULL")
}
