package uow

import (
	"context"

	domainavailability "fleetbook/internal/domain/availability"
	domainreservation "fleetbook/internal/domain/reservation"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

// UnitOfWork coordinates the engine's repositories inside one transaction
// boundary. Conflict checks and the reservation insert must share it so the
// storage layer can linearize concurrent attempts.
type UnitOfWork interface {
	Vehicles() domainvehicle.Repository
	Reservations() domainreservation.Repository
	Availability() domainavailability.Store
	Blocks() domainavailability.BlockRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
