package availability

import (
	"context"
	"time"

	"fleetbook/internal/app/clock"
	"fleetbook/internal/app/dto"
	"fleetbook/internal/app/queries"
	"fleetbook/internal/app/uow"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	VehicleID string
	Start     time.Time
	End       time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

// CheckAvailabilityHandler recomputes the snapshot from committed state on
// every call. The answer is advisory: only CreateReservation decides at
// commit time.
type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Hold       time.Duration
	Now        clock.Clock
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.AvailabilityResult{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.AvailabilityResult{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	window, err := domainrange.New(q.Start, q.End)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}

	occ, err := unit.Availability().LoadOccupancy(ctx, domainvehicle.VehicleID(q.VehicleID), window)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}

	now := clock.Or(h.Now)()
	return dto.AvailabilityResult{
		VehicleID: q.VehicleID,
		Start:     window.Start,
		End:       window.End,
		Available: occ.Available(window, now, h.Hold),
	}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityResult] = (*CheckAvailabilityHandler)(nil)
