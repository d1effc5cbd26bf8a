package memory

import (
	"context"
	"errors"

	"fleetbook/internal/app/uow"
	domainavailability "fleetbook/internal/domain/availability"
	domainreservation "fleetbook/internal/domain/reservation"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	VehicleRepo     domainvehicle.Repository
	ReservationRepo domainreservation.Repository
	OccupancyStore  domainavailability.Store
	BlockRepo       domainavailability.BlockRepository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports; atomicity of the reserve path
// comes from the occupancy store's own lock.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.VehicleRepo == nil || f.ReservationRepo == nil || f.OccupancyStore == nil || f.BlockRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		vehicles:     f.VehicleRepo,
		reservations: f.ReservationRepo,
		occupancy:    f.OccupancyStore,
		blocks:       f.BlockRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	vehicles     domainvehicle.Repository
	reservations domainreservation.Repository
	occupancy    domainavailability.Store
	blocks       domainavailability.BlockRepository
}

func (u *Unit) Vehicles() domainvehicle.Repository {
	return u.vehicles
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) Availability() domainavailability.Store {
	return u.occupancy
}

func (u *Unit) Blocks() domainavailability.BlockRepository {
	return u.blocks
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
