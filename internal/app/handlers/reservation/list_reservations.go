package reservation

import (
	"context"
	"errors"

	"fleetbook/internal/app/dto"
	"fleetbook/internal/app/queries"
	"fleetbook/internal/app/uow"
)

const listReservationsKey = "reservation.list_by_requester"

var ErrRequesterIDRequired = errors.New("reservation: requester id required for listing")

type ListReservationsQuery struct {
	RequesterID string
}

func (q ListReservationsQuery) Key() string { return listReservationsKey }

type ListReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListReservationsHandler) Handle(ctx context.Context, q ListReservationsQuery) ([]dto.ReservationView, error) {
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

	if q.RequesterID == "" {
		return nil, ErrRequesterIDRequired
	}
	items, err := unit.Reservations().ListByRequester(ctx, q.RequesterID)
	if err != nil {
		return nil, err
	}
	views := make([]dto.ReservationView, 0, len(items))
	for _, res := range items {
		views = append(views, dto.MapReservation(res))
	}
	return views, nil
}

var _ queries.Handler[ListReservationsQuery, []dto.ReservationView] = (*ListReservationsHandler)(nil)
