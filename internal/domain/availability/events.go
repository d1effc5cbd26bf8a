package availability

import (
	"time"

	"fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/vehicle"
)

type DatesBlocked struct {
	VehicleID string
	Days      []time.Time
	Reason    string
	At        time.Time
}

func (e DatesBlocked) EventName() string     { return "availability.dates_blocked" }
func (e DatesBlocked) AggregateID() string   { return e.VehicleID }
func (e DatesBlocked) OccurredAt() time.Time { return e.At }

type DatesUnblocked struct {
	VehicleID string
	Days      []time.Time
	At        time.Time
}

func (e DatesUnblocked) EventName() string     { return "availability.dates_unblocked" }
func (e DatesUnblocked) AggregateID() string   { return e.VehicleID }
func (e DatesUnblocked) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	VehicleID string
	Range     daterange.DateRange
	At        time.Time
}

func (e OverbookingPrevented) EventName() string     { return "availability.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.VehicleID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }

func DatesBlockedEvent(id vehicle.VehicleID, days []time.Time, reason string, at time.Time) DatesBlocked {
	return DatesBlocked{VehicleID: string(id), Days: days, Reason: reason, At: at}
}

func DatesUnblockedEvent(id vehicle.VehicleID, days []time.Time, at time.Time) DatesUnblocked {
	return DatesUnblocked{VehicleID: string(id), Days: days, At: at}
}

func OverbookingPreventedEvent(id vehicle.VehicleID, r daterange.DateRange, at time.Time) OverbookingPrevented {
	return OverbookingPrevented{VehicleID: string(id), Range: r, At: at}
}
