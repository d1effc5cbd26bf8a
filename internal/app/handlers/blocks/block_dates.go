package blocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetbook/internal/app/clock"
	"fleetbook/internal/app/commands"
	"fleetbook/internal/app/dto"
	"fleetbook/internal/app/outbox"
	"fleetbook/internal/app/uow"
	domainavailability "fleetbook/internal/domain/availability"
	domainreservation "fleetbook/internal/domain/reservation"
	domainrange "fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/shared/events"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

const blockDatesKey = "blocks.block_dates"

var (
	ErrUnitOfWorkRequired = errors.New("blocks: unit of work required")
	ErrNoDates            = errors.New("blocks: at least one date required")
	ErrNotShopOwner       = errors.New("blocks: only the owning shop may manage blocks")
)

type BlockDatesCommand struct {
	VehicleID string
	ShopID    string
	Dates     []time.Time
	Reason    string
}

func (c BlockDatesCommand) Key() string { return blockDatesKey }

// BlockDatesHandler writes shop-imposed unavailability. Upserts keep the
// operation idempotent per (vehicle, day). Blocking over a confirmed
// reservation is allowed but reported back as a warning; it never cancels the
// booking.
type BlockDatesHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        clock.Clock
}

func (h *BlockDatesHandler) Handle(ctx context.Context, cmd BlockDatesCommand) (*dto.BlockDatesResult, error) {
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
	window := blockWindow(cmd.Dates)
	occ, err := unit.Availability().LoadOccupancy(ctx, vehicleID, window)
	if err != nil {
		return nil, err
	}

	result := &dto.BlockDatesResult{VehicleID: cmd.VehicleID}
	days := make([]time.Time, 0, len(cmd.Dates))
	for _, raw := range cmd.Dates {
		block := domainavailability.NewBlockedDate(vehicleID, raw, cmd.Reason, now)
		if err := unit.Blocks().Upsert(ctx, block); err != nil {
			return nil, err
		}
		days = append(days, block.Day)
		result.Blocked = append(result.Blocked, block.Day.Format("2006-01-02"))

		for _, res := range occ.Reservations {
			if res.Status == domainreservation.StatusConfirmed && res.Range.Overlaps(block.Range()) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("blocked %s overlaps confirmed reservation %s", block.Day.Format("2006-01-02"), res.ID))
			}
		}
	}

	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(),
		[]events.DomainEvent{domainavailability.DatesBlockedEvent(vehicleID, days, cmd.Reason, now)}); err != nil {
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

func (h *BlockDatesHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// blockWindow is the narrowest range covering every requested day.
func blockWindow(dates []time.Time) domainrange.DateRange {
	min := domainrange.TruncateDay(dates[0])
	max := min
	for _, d := range dates[1:] {
		day := domainrange.TruncateDay(d)
		if day.Before(min) {
			min = day
		}
		if day.After(max) {
			max = day
		}
	}
	return domainrange.DateRange{Start: min, End: max.AddDate(0, 0, 1)}
}

var _ commands.Handler[BlockDatesCommand, *dto.BlockDatesResult] = (*BlockDatesHandler)(nil)
