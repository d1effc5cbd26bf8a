package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/vehicle"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestReservation(t *testing.T, deposit bool) *Reservation {
	t.Helper()
	dr, err := daterange.New(testNow.AddDate(0, 0, 9), testNow.AddDate(0, 0, 14))
	require.NoError(t, err)
	res, err := New(CreateParams{
		ID:              "res-1",
		VehicleID:       vehicle.VehicleID("veh-1"),
		RequesterID:     "cust-1",
		Range:           dr,
		DepositRequired: deposit,
		CreatedAt:       testNow,
	})
	require.NoError(t, err)
	return res
}

func TestNew(t *testing.T) {
	res := newTestReservation(t, false)
	assert.Equal(t, StatusPending, res.Status)
	assert.Len(t, res.PendingEvents(), 1)
}

func TestNew_RequiresRequester(t *testing.T) {
	dr, err := daterange.New(testNow, testNow.AddDate(0, 0, 2))
	require.NoError(t, err)
	_, err = New(CreateParams{ID: "res-1", VehicleID: "veh-1", Range: dr, CreatedAt: testNow})
	assert.ErrorIs(t, err, ErrRequesterRequired)
}

func TestConfirm_DepositGuard(t *testing.T) {
	res := newTestReservation(t, true)

	err := res.Confirm(testNow.Add(time.Minute))
	assert.ErrorIs(t, err, ErrDepositRequired)
	assert.Equal(t, StatusPending, res.Status)

	res.MarkDepositPaid(testNow.Add(2 * time.Minute))
	require.NoError(t, res.Confirm(testNow.Add(3*time.Minute)))
	assert.Equal(t, StatusConfirmed, res.Status)
}

func TestConfirm_WithoutDepositRequirement(t *testing.T) {
	res := newTestReservation(t, false)
	require.NoError(t, res.Confirm(testNow.Add(time.Minute)))
	assert.Equal(t, StatusConfirmed, res.Status)
}

func TestTransitions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Reservation)
		act     func(*Reservation) error
	}{
		{
			name:    "confirm twice",
			prepare: func(r *Reservation) { _ = r.Confirm(testNow) },
			act:     func(r *Reservation) error { return r.Confirm(testNow) },
		},
		{
			name:    "complete pending",
			prepare: func(r *Reservation) {},
			act:     func(r *Reservation) error { return r.Complete(testNow.AddDate(0, 1, 0)) },
		},
		{
			name: "cancel completed",
			prepare: func(r *Reservation) {
				_ = r.Confirm(testNow)
				_ = r.Complete(testNow.AddDate(0, 1, 0))
			},
			act: func(r *Reservation) error { return r.Cancel("late", false, nil, testNow.AddDate(0, 1, 1)) },
		},
		{
			name:    "expire confirmed hold",
			prepare: func(r *Reservation) { _ = r.Confirm(testNow) },
			act:     func(r *Reservation) error { return r.ExpireHold(testNow.Add(time.Hour)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestReservation(t, false)
			tt.prepare(res)
			assert.ErrorIs(t, tt.act(res), ErrInvalidTransition)
		})
	}
}

func TestComplete_RequiresElapsedRange(t *testing.T) {
	res := newTestReservation(t, false)
	require.NoError(t, res.Confirm(testNow))

	err := res.Complete(res.Range.End.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrNotElapsed)

	require.NoError(t, res.Complete(res.Range.End))
	assert.Equal(t, StatusCompleted, res.Status)
}

func TestCancel_CustomerWindow(t *testing.T) {
	policy := CutoffPolicy(24 * time.Hour)

	res := newTestReservation(t, false)
	// Inside the cutoff: start is 9 days out, cancel 8.5 days later.
	lateCancel := res.Range.Start.Add(-12 * time.Hour)
	err := res.Cancel("changed plans", true, policy, lateCancel)
	assert.ErrorIs(t, err, ErrCancellationWindowClosed)
	assert.Equal(t, StatusPending, res.Status)

	// Well before the cutoff.
	require.NoError(t, res.Cancel("changed plans", true, policy, testNow.Add(time.Hour)))
	assert.Equal(t, StatusCancelled, res.Status)
}

func TestCancel_ShopIgnoresWindow(t *testing.T) {
	policy := CutoffPolicy(24 * time.Hour)
	res := newTestReservation(t, false)
	require.NoError(t, res.Confirm(testNow))

	lateCancel := res.Range.Start.Add(-time.Hour)
	require.NoError(t, res.Cancel("vehicle damaged", false, policy, lateCancel))
	assert.Equal(t, StatusCancelled, res.Status)
}

func TestOccupiesAt(t *testing.T) {
	hold := 30 * time.Minute
	res := newTestReservation(t, false)

	assert.True(t, res.OccupiesAt(testNow.Add(29*time.Minute), hold))
	assert.False(t, res.OccupiesAt(testNow.Add(30*time.Minute), hold))
	assert.False(t, res.OccupiesAt(testNow.Add(40*time.Minute), hold))

	require.NoError(t, res.Confirm(testNow))
	// Confirmed occupies regardless of age.
	assert.True(t, res.OccupiesAt(testNow.Add(48*time.Hour), hold))
}

func TestHoldExpired(t *testing.T) {
	hold := 30 * time.Minute
	res := newTestReservation(t, false)

	assert.False(t, res.HoldExpired(testNow.Add(10*time.Minute), hold))
	assert.True(t, res.HoldExpired(testNow.Add(31*time.Minute), hold))

	require.NoError(t, res.ExpireHold(testNow.Add(31*time.Minute)))
	assert.Equal(t, StatusCancelled, res.Status)
	assert.False(t, res.HoldExpired(testNow.Add(time.Hour), hold))
}
