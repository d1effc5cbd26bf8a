package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/domain/reservation"
	"fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/vehicle"
)

const testHold = 30 * time.Minute

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(start, end)
	require.NoError(t, err)
	return dr
}

func confirmedReservation(t *testing.T, id string, dr daterange.DateRange, createdAt time.Time) *reservation.Reservation {
	t.Helper()
	res, err := reservation.New(reservation.CreateParams{
		ID:          reservation.ReservationID(id),
		VehicleID:   vehicle.VehicleID("veh-1"),
		RequesterID: "cust-1",
		Range:       dr,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	require.NoError(t, res.Confirm(createdAt))
	res.ClearEvents()
	return res
}

func pendingReservation(t *testing.T, id string, dr daterange.DateRange, createdAt time.Time) *reservation.Reservation {
	t.Helper()
	res, err := reservation.New(reservation.CreateParams{
		ID:          reservation.ReservationID(id),
		VehicleID:   vehicle.VehicleID("veh-1"),
		RequesterID: "cust-1",
		Range:       dr,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	res.ClearEvents()
	return res
}

func TestAvailable_ConfirmedReservation(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	occ := Occupancy{
		Reservations: []*reservation.Reservation{
			confirmedReservation(t, "res-1", mustRange(t, day(2026, 6, 10), day(2026, 6, 15)), now),
		},
	}

	tests := []struct {
		name   string
		window daterange.DateRange
		want   bool
	}{
		{name: "pickup on dropoff day", window: mustRange(t, day(2026, 6, 15), day(2026, 6, 18)), want: true},
		{name: "overlapping request", window: mustRange(t, day(2026, 6, 12), day(2026, 6, 20)), want: false},
		{name: "ends on pickup day", window: mustRange(t, day(2026, 6, 5), day(2026, 6, 10)), want: true},
		{name: "fully covering", window: mustRange(t, day(2026, 6, 1), day(2026, 6, 30)), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, occ.Available(tt.window, now, testHold))
		})
	}
}

func TestAvailable_ExpiredHoldDoesNotBlock(t *testing.T) {
	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	window := mustRange(t, day(2026, 6, 10), day(2026, 6, 15))
	occ := Occupancy{
		Reservations: []*reservation.Reservation{pendingReservation(t, "res-1", window, created)},
	}

	// 10 minutes after creation the hold still occupies.
	assert.False(t, occ.Available(window, created.Add(10*time.Minute), testHold))
	// 40 minutes after creation the hold is stale even though its status is
	// still PENDING in storage.
	assert.True(t, occ.Available(window, created.Add(40*time.Minute), testHold))
}

func TestAvailable_CancelledNeverBlocks(t *testing.T) {
	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	window := mustRange(t, day(2026, 6, 10), day(2026, 6, 15))
	res := confirmedReservation(t, "res-1", window, created)
	require.NoError(t, res.Cancel("plans changed", false, nil, created.Add(time.Hour)))

	occ := Occupancy{Reservations: []*reservation.Reservation{res}}
	assert.True(t, occ.Available(window, created.Add(2*time.Hour), testHold))
}

func TestAvailable_BlockedDay(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	occ := Occupancy{
		Blocks: []BlockedDate{NewBlockedDate("veh-1", day(2026, 6, 20), "maintenance", now)},
	}

	assert.False(t, occ.Available(mustRange(t, day(2026, 6, 19), day(2026, 6, 21)), now, testHold))
	assert.False(t, occ.Available(mustRange(t, day(2026, 6, 20), day(2026, 6, 21)), now, testHold))
	assert.True(t, occ.Available(mustRange(t, day(2026, 6, 21), day(2026, 6, 25)), now, testHold))
	assert.True(t, occ.Available(mustRange(t, day(2026, 6, 18), day(2026, 6, 20)), now, testHold))
}

func TestFirstConflict_ReportsOccupant(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	resRange := mustRange(t, day(2026, 6, 10), day(2026, 6, 15))
	occ := Occupancy{
		Reservations: []*reservation.Reservation{confirmedReservation(t, "res-1", resRange, now)},
		Blocks:       []BlockedDate{NewBlockedDate("veh-1", day(2026, 6, 20), "maintenance", now)},
	}

	conflict, found := FirstConflict(occ, mustRange(t, day(2026, 6, 14), day(2026, 6, 16)), now, testHold)
	require.True(t, found)
	assert.Equal(t, reservation.ReservationID("res-1"), conflict.ReservationID)
	assert.False(t, conflict.Blocked)

	conflict, found = FirstConflict(occ, mustRange(t, day(2026, 6, 20), day(2026, 6, 22)), now, testHold)
	require.True(t, found)
	assert.True(t, conflict.Blocked)

	_, found = FirstConflict(occ, mustRange(t, day(2026, 6, 16), day(2026, 6, 20)), now, testHold)
	assert.False(t, found)
}

func TestEvaluateBatch_CarriesEveryVehicle(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	window := mustRange(t, day(2026, 6, 10), day(2026, 6, 15))
	occupancies := map[vehicle.VehicleID]Occupancy{
		"veh-1": {Reservations: []*reservation.Reservation{confirmedReservation(t, "res-1", window, now)}},
	}

	ids := []vehicle.VehicleID{"veh-1", "veh-2", "veh-3"}
	out := EvaluateBatch(ids, occupancies, window, now, testHold)

	require.Len(t, out, 3)
	assert.False(t, out["veh-1"])
	// Vehicles without occupants are available, never dropped.
	assert.True(t, out["veh-2"])
	assert.True(t, out["veh-3"])
}
