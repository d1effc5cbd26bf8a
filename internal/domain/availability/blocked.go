package availability

import (
	"context"
	"time"

	"fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/vehicle"
)

// BlockedDate is a single calendar day a shop has withdrawn from the pool.
// Unlike a reservation it has no lifecycle; it exists until removed.
type BlockedDate struct {
	VehicleID vehicle.VehicleID
	Day       time.Time
	Reason    string
	CreatedAt time.Time
}

// NewBlockedDate normalizes the day so the (vehicle, day) pair is stable.
func NewBlockedDate(id vehicle.VehicleID, day time.Time, reason string, now time.Time) BlockedDate {
	return BlockedDate{
		VehicleID: id,
		Day:       daterange.TruncateDay(day),
		Reason:    reason,
		CreatedAt: now.UTC(),
	}
}

// Range exposes the block as a one-day half-open range so conflict checks use
// the shared overlap predicate.
func (b BlockedDate) Range() daterange.DateRange {
	return daterange.Single(b.Day)
}

// BlockRepository persists blocked days. Upsert is idempotent per
// (vehicle, day): re-blocking an already blocked day is not an error and never
// produces a second row.
type BlockRepository interface {
	Upsert(ctx context.Context, block BlockedDate) error
	Remove(ctx context.Context, id vehicle.VehicleID, day time.Time) error
	ListByVehicle(ctx context.Context, id vehicle.VehicleID, window daterange.DateRange) ([]BlockedDate, error)
}
