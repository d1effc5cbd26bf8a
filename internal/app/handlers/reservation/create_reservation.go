package reservation

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/app/clock"
	"fleetbook/internal/app/commands"
	"fleetbook/internal/app/middleware"
	"fleetbook/internal/app/outbox"
	"fleetbook/internal/app/uow"
	domainavailability "fleetbook/internal/domain/availability"
	domainreservation "fleetbook/internal/domain/reservation"
	domainrange "fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/shared/events"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

const createReservationKey = "reservation.create"

var ErrUnitOfWorkRequired = errors.New("reservation: unit of work required")

type CreateReservationCommand struct {
	CommandID       string
	VehicleID       string
	RequesterID     string
	Start           time.Time
	End             time.Time
	DepositRequired bool
	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string { return createReservationKey }

func (c CreateReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateReservationCommand) ResultPrototype() any { return &CreateReservationResult{} }

type CreateReservationResult struct {
	ReservationID string `json:"reservation_id"`
}

// CreateReservationHandler is the conflict resolver. The occupancy check and
// the pending insert run as one atomic unit inside the store's TryReserve, so
// two racing requests for overlapping dates cannot both commit.
type CreateReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Hold       time.Duration
	Now        clock.Clock
}

func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*CreateReservationResult, error) {
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

	// Validation happens before any I/O.
	dr, err := domainrange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}
	now := clock.Or(h.Now)()

	if _, err := unit.Vehicles().ByID(ctx, domainvehicle.VehicleID(cmd.VehicleID)); err != nil {
		return nil, err
	}

	res, err := domainreservation.New(domainreservation.CreateParams{
		ID:              domainreservation.ReservationID(cmd.CommandID),
		VehicleID:       domainvehicle.VehicleID(cmd.VehicleID),
		RequesterID:     cmd.RequesterID,
		Range:           dr,
		DepositRequired: cmd.DepositRequired,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	// A lost race surfaces as ErrDateConflict; it is never retried here. The
	// caller re-checks availability and decides.
	if err := unit.Availability().TryReserve(ctx, res, h.Hold, now); err != nil {
		if errors.Is(err, domainavailability.ErrDateConflict) {
			// Audit record, written outside the aborting transaction.
			_ = outbox.RecordDomainEvents(context.Background(), h.Outbox, h.encoder(),
				[]events.DomainEvent{domainavailability.OverbookingPreventedEvent(res.VehicleID, dr, now)})
		}
		return nil, err
	}

	pending := res.PendingEvents()
	res.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &CreateReservationResult{ReservationID: string(res.ID)}, nil
}

func (h *CreateReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateReservationCommand, *CreateReservationResult] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateReservationCommand)(nil)
