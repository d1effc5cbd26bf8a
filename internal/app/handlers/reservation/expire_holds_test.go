package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/app/clock"
	domainreservation "fleetbook/internal/domain/reservation"
)

func TestExpireHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seedReservation(t, f, "res-stale", false)

	// A second, younger hold on a different vehicle stays untouched.
	cmd := createCmd("res-fresh", "veh-2", testNow.AddDate(0, 0, 9), testNow.AddDate(0, 0, 14))
	fresh := &CreateReservationHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Hold:       testHold,
		Now:        clock.Fixed(testNow.Add(25 * time.Minute)),
	}
	_, err := fresh.Handle(ctx, cmd)
	require.NoError(t, err)

	h := &ExpireHoldsHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Hold:       testHold,
		Now:        clock.Fixed(testNow.Add(40 * time.Minute)),
	}
	result, err := h.Handle(ctx, ExpireHoldsCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)

	stale, err := f.reservations.ByID(ctx, "res-stale")
	require.NoError(t, err)
	assert.Equal(t, domainreservation.StatusCancelled, stale.Status)

	still, err := f.reservations.ByID(ctx, "res-fresh")
	require.NoError(t, err)
	assert.Equal(t, domainreservation.StatusPending, still.Status)
}

func TestExpireHolds_NothingStale(t *testing.T) {
	f := newFixture(t)
	seedReservation(t, f, "res-1", false)

	h := &ExpireHoldsHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Hold:       testHold,
		Now:        clock.Fixed(testNow.Add(10 * time.Minute)),
	}
	result, err := h.Handle(context.Background(), ExpireHoldsCommand{})
	require.NoError(t, err)
	assert.Zero(t, result.Expired)
}
