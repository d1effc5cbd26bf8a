package reservation

import (
	"context"
	"errors"
	"strings"

	"fleetbook/internal/app/clock"
	"fleetbook/internal/app/commands"
	"fleetbook/internal/app/dto"
	"fleetbook/internal/app/outbox"
	"fleetbook/internal/app/uow"
	domainreservation "fleetbook/internal/domain/reservation"
)

const transitionReservationKey = "reservation.transition"

var (
	ErrUnknownTarget  = errors.New("reservation: unknown transition target")
	ErrNotParticipant = errors.New("reservation: actor is neither requester nor shop")
	ErrShopActionOnly = errors.New("reservation: transition restricted to the shop")
)

// Actor identifies who asks for the transition; it decides which guard path
// applies (customer cancellations are window-checked, shop ones are not).
type Actor struct {
	ID   string
	Role string // "customer", "shop" or "admin"
}

type TransitionReservationCommand struct {
	ReservationID string
	Target        string // CONFIRMED, COMPLETED or CANCELLED
	Reason        string
	DepositPaid   bool // payment collaborator's signal, consumed on confirm
	Actor         Actor
}

func (c TransitionReservationCommand) Key() string { return transitionReservationKey }

type TransitionReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Policy     domainreservation.CancellationPolicy
	Now        clock.Clock
}

func (h *TransitionReservationHandler) Handle(ctx context.Context, cmd TransitionReservationCommand) (dto.ReservationView, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.ReservationView{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.ReservationView{}, err
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

	res, err := unit.Reservations().ByID(ctx, domainreservation.ReservationID(cmd.ReservationID))
	if err != nil {
		return dto.ReservationView{}, err
	}
	if err := h.authorize(cmd.Actor, res); err != nil {
		return dto.ReservationView{}, err
	}

	now := clock.Or(h.Now)()
	switch domainreservation.Status(strings.ToUpper(strings.TrimSpace(cmd.Target))) {
	case domainreservation.StatusConfirmed:
		if cmd.Actor.Role == "customer" {
			return dto.ReservationView{}, ErrShopActionOnly
		}
		if cmd.DepositPaid {
			res.MarkDepositPaid(now)
		}
		err = res.Confirm(now)
	case domainreservation.StatusCompleted:
		if cmd.Actor.Role == "customer" {
			return dto.ReservationView{}, ErrShopActionOnly
		}
		err = res.Complete(now)
	case domainreservation.StatusCancelled:
		err = res.Cancel(cmd.Reason, cmd.Actor.Role == "customer", h.Policy, now)
	default:
		return dto.ReservationView{}, ErrUnknownTarget
	}
	if err != nil {
		return dto.ReservationView{}, err
	}

	if err := unit.Reservations().Save(ctx, res); err != nil {
		return dto.ReservationView{}, err
	}

	pending := res.PendingEvents()
	res.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return dto.ReservationView{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.ReservationView{}, err
		}
		committed = true
	}
	return dto.MapReservation(res), nil
}

func (h *TransitionReservationHandler) authorize(actor Actor, res *domainreservation.Reservation) error {
	switch actor.Role {
	case "admin", "shop":
		return nil
	case "customer":
		if actor.ID != res.RequesterID {
			return ErrNotParticipant
		}
		return nil
	default:
		return ErrNotParticipant
	}
}

func (h *TransitionReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[TransitionReservationCommand, dto.ReservationView] = (*TransitionReservationHandler)(nil)
