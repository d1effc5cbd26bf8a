package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/app/clock"
	reservationapp "fleetbook/internal/app/handlers/reservation"
	domainavailability "fleetbook/internal/domain/availability"
	domainreservation "fleetbook/internal/domain/reservation"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
	"fleetbook/internal/infra/storage/memory"
)

const testHold = 30 * time.Minute

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	factory memory.Factory
	blocks  *memory.BlockRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	vehicles := memory.NewVehicleRepository()
	for _, id := range []string{"veh-1", "veh-2", "veh-3"} {
		vehicles.Put(&domainvehicle.Vehicle{ID: domainvehicle.VehicleID(id), ShopID: "shop-1"})
	}
	reservations := memory.NewReservationRepository()
	blocks := memory.NewBlockRepository()
	return fixture{
		factory: memory.Factory{
			VehicleRepo:     vehicles,
			ReservationRepo: reservations,
			OccupancyStore:  memory.NewOccupancyStore(reservations, blocks),
			BlockRepo:       blocks,
		},
		blocks: blocks,
	}
}

func (f fixture) reserve(t *testing.T, id, vehicleID string, start, end time.Time) {
	t.Helper()
	h := &reservationapp.CreateReservationHandler{
		UoWFactory: f.factory,
		Outbox:     memory.NewOutbox(),
		Hold:       testHold,
		Now:        clock.Fixed(testNow),
	}
	_, err := h.Handle(context.Background(), reservationapp.CreateReservationCommand{
		CommandID:   id,
		VehicleID:   vehicleID,
		RequesterID: "cust-1",
		Start:       start,
		End:         end,
	})
	require.NoError(t, err)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	f.reserve(t, "res-1", "veh-1", testNow.AddDate(0, 0, 9), testNow.AddDate(0, 0, 14))

	h := &CheckAvailabilityHandler{UoWFactory: f.factory, Hold: testHold, Now: clock.Fixed(testNow.Add(time.Minute))}
	ctx := context.Background()

	taken, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Start: testNow.AddDate(0, 0, 12), End: testNow.AddDate(0, 0, 20)})
	require.NoError(t, err)
	assert.False(t, taken.Available)

	free, err := h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Start: testNow.AddDate(0, 0, 14), End: testNow.AddDate(0, 0, 18)})
	require.NoError(t, err)
	assert.True(t, free.Available)

	_, err = h.Handle(ctx, CheckAvailabilityQuery{VehicleID: "veh-1", Start: testNow.AddDate(0, 0, 14), End: testNow.AddDate(0, 0, 14)})
	assert.ErrorIs(t, err, domainrange.ErrInvalidRange)
}

func TestCheckBatch_MatchesSingleChecks(t *testing.T) {
	f := newFixture(t)
	f.reserve(t, "res-1", "veh-1", testNow.AddDate(0, 0, 9), testNow.AddDate(0, 0, 14))
	require.NoError(t, f.blocks.Upsert(context.Background(),
		domainavailability.NewBlockedDate("veh-2", testNow.AddDate(0, 0, 10), "maintenance", testNow)))

	now := clock.Fixed(testNow.Add(time.Minute))
	single := &CheckAvailabilityHandler{UoWFactory: f.factory, Hold: testHold, Now: now}
	batch := &CheckAvailabilityBatchHandler{UoWFactory: f.factory, Hold: testHold, Now: now}
	ctx := context.Background()

	start, end := testNow.AddDate(0, 0, 9), testNow.AddDate(0, 0, 14)
	result, err := batch.Handle(ctx, CheckAvailabilityBatchQuery{
		VehicleIDs: []string{"veh-1", "veh-2", "veh-3"},
		Start:      start,
		End:        end,
	})
	require.NoError(t, err)
	require.Len(t, result.Vehicles, 3)
	assert.False(t, result.Degraded)

	for _, id := range []string{"veh-1", "veh-2", "veh-3"} {
		one, err := single.Handle(ctx, CheckAvailabilityQuery{VehicleID: id, Start: start, End: end})
		require.NoError(t, err)
		assert.Equal(t, one.Available, result.Vehicles[id], id)
	}
	assert.False(t, result.Vehicles["veh-1"])
	assert.False(t, result.Vehicles["veh-2"])
	assert.True(t, result.Vehicles["veh-3"])
}

func TestCheckBatch_RequiresVehicles(t *testing.T) {
	f := newFixture(t)
	batch := &CheckAvailabilityBatchHandler{UoWFactory: f.factory, Hold: testHold, Now: clock.Fixed(testNow)}

	_, err := batch.Handle(context.Background(), CheckAvailabilityBatchQuery{
		Start: testNow.AddDate(0, 0, 1),
		End:   testNow.AddDate(0, 0, 3),
	})
	assert.ErrorIs(t, err, ErrNoVehicles)
}

// failingStore simulates a storage outage on the bulk read path.
type failingStore struct{}

func (failingStore) LoadOccupancy(ctx context.Context, id domainvehicle.VehicleID, window domainrange.DateRange) (domainavailability.Occupancy, error) {
	return domainavailability.Occupancy{}, domainavailability.ErrStoreUnavailable
}

func (failingStore) LoadOccupancyBatch(ctx context.Context, ids []domainvehicle.VehicleID, window domainrange.DateRange) (map[domainvehicle.VehicleID]domainavailability.Occupancy, error) {
	return nil, domainavailability.ErrStoreUnavailable
}

func (failingStore) TryReserve(ctx context.Context, res *domainreservation.Reservation, hold time.Duration, now time.Time) error {
	return domainavailability.ErrStoreUnavailable
}

func failingFixture(t *testing.T) memory.Factory {
	t.Helper()
	f := newFixture(t)
	return memory.Factory{
		VehicleRepo:     f.factory.VehicleRepo,
		ReservationRepo: f.factory.ReservationRepo,
		OccupancyStore:  failingStore{},
		BlockRepo:       f.factory.BlockRepo,
	}
}

func TestCheckBatch_StoreFailurePropagates(t *testing.T) {
	batch := &CheckAvailabilityBatchHandler{UoWFactory: failingFixture(t), Hold: testHold, Now: clock.Fixed(testNow)}

	_, err := batch.Handle(context.Background(), CheckAvailabilityBatchQuery{
		VehicleIDs: []string{"veh-1", "veh-2"},
		Start:      testNow.AddDate(0, 0, 1),
		End:        testNow.AddDate(0, 0, 3),
	})
	assert.ErrorIs(t, err, domainavailability.ErrStoreUnavailable)
}

func TestCheckBatch_FailOpenDegrades(t *testing.T) {
	batch := &CheckAvailabilityBatchHandler{UoWFactory: failingFixture(t), Hold: testHold, Now: clock.Fixed(testNow)}

	result, err := batch.Handle(context.Background(), CheckAvailabilityBatchQuery{
		VehicleIDs: []string{"veh-1", "veh-2"},
		Start:      testNow.AddDate(0, 0, 1),
		End:        testNow.AddDate(0, 0, 3),
		FailOpen:   true,
	})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	require.Len(t, result.Vehicles, 2)
	assert.True(t, result.Vehicles["veh-1"])
	assert.True(t, result.Vehicles["veh-2"])
}
