package availability

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/app/clock"
	"fleetbook/internal/app/dto"
	"fleetbook/internal/app/queries"
	"fleetbook/internal/app/uow"
	domainavailability "fleetbook/internal/domain/availability"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

const checkBatchKey = "availability.check_batch"

var ErrNoVehicles = errors.New("availability: batch requires at least one vehicle id")

type CheckAvailabilityBatchQuery struct {
	VehicleIDs []string
	Start      time.Time
	End        time.Time
	// FailOpen answers "available" for every vehicle when the bulk read
	// fails, instead of propagating the error. The result is marked Degraded;
	// vehicles are never silently dropped either way.
	FailOpen bool
}

func (q CheckAvailabilityBatchQuery) Key() string { return checkBatchKey }

// CheckAvailabilityBatchHandler serves browse-with-dates: one bulk occupancy
// read for all candidates, then the shared overlap predicate per vehicle in
// memory.
type CheckAvailabilityBatchHandler struct {
	UoWFactory uow.UoWFactory
	Hold       time.Duration
	Now        clock.Clock
}

func (h *CheckAvailabilityBatchHandler) Handle(ctx context.Context, q CheckAvailabilityBatchQuery) (dto.BatchAvailabilityResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.BatchAvailabilityResult{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.BatchAvailabilityResult{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	if len(q.VehicleIDs) == 0 {
		return dto.BatchAvailabilityResult{}, ErrNoVehicles
	}
	window, err := domainrange.New(q.Start, q.End)
	if err != nil {
		return dto.BatchAvailabilityResult{}, err
	}

	ids := make([]domainvehicle.VehicleID, 0, len(q.VehicleIDs))
	for _, raw := range q.VehicleIDs {
		ids = append(ids, domainvehicle.VehicleID(raw))
	}

	now := clock.Or(h.Now)()
	result := dto.BatchAvailabilityResult{
		Start:     window.Start,
		End:       window.End,
		Vehicles:  make(map[string]bool, len(ids)),
		CheckedAt: now,
	}

	occupancies, err := unit.Availability().LoadOccupancyBatch(ctx, ids, window)
	if err != nil {
		if !q.FailOpen {
			return dto.BatchAvailabilityResult{}, err
		}
		for _, id := range ids {
			result.Vehicles[string(id)] = true
		}
		result.Degraded = true
		return result, nil
	}

	for id, available := range domainavailability.EvaluateBatch(ids, occupancies, window, now, h.Hold) {
		result.Vehicles[string(id)] = available
	}
	return result, nil
}

var _ queries.Handler[CheckAvailabilityBatchQuery, dto.BatchAvailabilityResult] = (*CheckAvailabilityBatchHandler)(nil)
