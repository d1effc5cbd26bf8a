package availability

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/domain/reservation"
	"fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/vehicle"
)

var (
	// ErrDateConflict is an expected outcome, not a system failure; callers
	// surface it as "dates no longer available".
	ErrDateConflict = errors.New("availability: requested dates conflict with an existing occupant")
	// ErrStoreUnavailable marks transient persistence failures. It is the only
	// category a caller may retry.
	ErrStoreUnavailable = errors.New("availability: occupancy store unavailable")
)

// Occupancy is the committed state contested for one vehicle: customer
// reservations plus shop-imposed blocked days.
type Occupancy struct {
	Reservations []*reservation.Reservation
	Blocks       []BlockedDate
}

// Store is the engine's view of the persistence collaborator. TryReserve must
// execute the occupancy check and the insert as one atomic unit so that
// concurrent overlapping attempts on a vehicle are linearized; at most one
// succeeds, the rest see ErrDateConflict.
type Store interface {
	LoadOccupancy(ctx context.Context, id vehicle.VehicleID, window daterange.DateRange) (Occupancy, error)
	LoadOccupancyBatch(ctx context.Context, ids []vehicle.VehicleID, window daterange.DateRange) (map[vehicle.VehicleID]Occupancy, error)
	TryReserve(ctx context.Context, res *reservation.Reservation, hold time.Duration, now time.Time) error
}

// Conflict describes the occupant that defeated an availability check.
type Conflict struct {
	Range         daterange.DateRange
	ReservationID reservation.ReservationID
	Blocked       bool
}

// FirstConflict scans the occupancy for an effectively active occupant
// overlapping the window. Expired pending holds do not count even before the
// janitor has flipped them.
func FirstConflict(occ Occupancy, window daterange.DateRange, now time.Time, hold time.Duration) (Conflict, bool) {
	for _, res := range occ.Reservations {
		if !res.OccupiesAt(now, hold) {
			continue
		}
		if res.Range.Overlaps(window) {
			return Conflict{Range: res.Range, ReservationID: res.ID}, true
		}
	}
	for _, block := range occ.Blocks {
		if block.Range().Overlaps(window) {
			return Conflict{Range: block.Range(), Blocked: true}, true
		}
	}
	return Conflict{}, false
}

// Available is the boolean snapshot the rest of the system consumes. It is
// always recomputed from committed state, never cached.
func (occ Occupancy) Available(window daterange.DateRange, now time.Time, hold time.Duration) bool {
	_, conflicted := FirstConflict(occ, window, now, hold)
	return !conflicted
}

// EvaluateBatch applies the overlap predicate per vehicle over one bulk read.
// Vehicles missing from occupancies have no occupants and come back available;
// the result always carries every requested id.
func EvaluateBatch(ids []vehicle.VehicleID, occupancies map[vehicle.VehicleID]Occupancy, window daterange.DateRange, now time.Time, hold time.Duration) map[vehicle.VehicleID]bool {
	out := make(map[vehicle.VehicleID]bool, len(ids))
	for _, id := range ids {
		out[id] = occupancies[id].Available(window, now, hold)
	}
	return out
}
