package blocks

import (
	"context"
	"time"

	"fleetbook/internal/app/clock"
	"fleetbook/internal/app/commands"
	"fleetbook/internal/app/dto"
	"fleetbook/internal/app/outbox"
	"fleetbook/internal/app/uow"
	domainavailability "fleetbook/internal/domain/availability"
	domainrange "fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/shared/events"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

const unblockDatesKey = "blocks.unblock_dates"

type UnblockDatesCommand struct {
	VehicleID string
	ShopID    string
	Dates     []time.Time
}

func (c UnblockDatesCommand) Key() string { return unblockDatesKey }

type UnblockDatesHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        clock.Clock
}

func (h *UnblockDatesHandler) Handle(ctx context.Context, cmd UnblockDatesCommand) (*dto.UnblockDatesResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	if len(cmd.Dates) == 0 {
		return nil, ErrNoDates
	}
	vehicleID := domainvehicle.VehicleID(cmd.VehicleID)
	veh, err := unit.Vehicles().ByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if cmd.ShopID != "" && veh.ShopID != domainvehicle.ShopID(cmd.ShopID) {
		return nil, ErrNotShopOwner
	}

	now := clock.Or(h.Now)()
	result := &dto.UnblockDatesResult{VehicleID: cmd.VehicleID}
	days := make([]time.Time, 0, len(cmd.Dates))
	for _, raw := range cmd.Dates {
		day := domainrange.TruncateDay(raw)
		if err := unit.Blocks().Remove(ctx, vehicleID, day); err != nil {
			return nil, err
		}
		days = append(days, day)
		result.Unblocked = append(result.Unblocked, day.Format("2006-01-02"))
	}

	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(),
		[]events.DomainEvent{domainavailability.DatesUnblockedEvent(vehicleID, days, now)}); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return result, nil
}

func (h *UnblockDatesHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[UnblockDatesCommand, *dto.UnblockDatesResult] = (*UnblockDatesHandler)(nil)
