package blocks

import (
	"context"
	"time"

	"fleetbook/internal/app/dto"
	"fleetbook/internal/app/queries"
	"fleetbook/internal/app/uow"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

const listBlocksKey = "blocks.list"

type ListBlocksQuery struct {
	VehicleID string
	Start     time.Time
	End       time.Time
}

func (q ListBlocksQuery) Key() string { return listBlocksKey }

type ListBlocksHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBlocksHandler) Handle(ctx context.Context, q ListBlocksQuery) ([]dto.BlockedDateView, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	window, err := domainrange.New(q.Start, q.End)
	if err != nil {
		return nil, err
	}
	items, err := unit.Blocks().ListByVehicle(ctx, domainvehicle.VehicleID(q.VehicleID), window)
	if err != nil {
		return nil, err
	}
	views := make([]dto.BlockedDateView, 0, len(items))
	for _, block := range items {
		views = append(views, dto.MapBlockedDate(block))
	}
	return views, nil
}

var _ queries.Handler[ListBlocksQuery, []dto.BlockedDateView] = (*ListBlocksHandler)(nil)
