package reservation

import (
	"context"
	"time"

	"fleetbook/internal/app/clock"
	"fleetbook/internal/app/commands"
	"fleetbook/internal/app/outbox"
	"fleetbook/internal/app/uow"
	domainreservation "fleetbook/internal/domain/reservation"
)

const expireHoldsKey = "reservation.expire_holds"

type ExpireHoldsCommand struct{}

func (c ExpireHoldsCommand) Key() string { return expireHoldsKey }

type ExpireHoldsResult struct {
	Expired int `json:"expired"`
}

// StaleHoldLister is the extra read the janitor needs beyond the repository
// port; both stores implement it.
type StaleHoldLister interface {
	ListStalePending(ctx context.Context, olderThan time.Time) ([]*domainreservation.Reservation, error)
}

// ExpireHoldsHandler is the hygiene sweep flipping expired pending holds to
// cancelled. Correctness never depends on it: readers already treat expired
// holds as non-occupying.
type ExpireHoldsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Hold       time.Duration
	Now        clock.Clock
}

func (h *ExpireHoldsHandler) Handle(ctx context.Context, cmd ExpireHoldsCommand) (*ExpireHoldsResult, error) {
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

	lister, ok := unit.Reservations().(StaleHoldLister)
	if !ok {
		return &ExpireHoldsResult{}, nil
	}

	now := clock.Or(h.Now)()
	stale, err := lister.ListStalePending(ctx, now.Add(-h.Hold))
	if err != nil {
		return nil, err
	}

	expired := 0
	for _, res := range stale {
		if !res.HoldExpired(now, h.Hold) {
			continue
		}
		if err := res.ExpireHold(now); err != nil {
			continue
		}
		if err := unit.Reservations().Save(ctx, res); err != nil {
			return nil, err
		}
		pending := res.PendingEvents()
		res.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
			return nil, err
		}
		expired++
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &ExpireHoldsResult{Expired: expired}, nil
}

func (h *ExpireHoldsHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ExpireHoldsCommand, *ExpireHoldsResult] = (*ExpireHoldsHandler)(nil)
