package vehicle

import (
	"context"
	"errors"
)

var ErrVehicleNotFound = errors.New("vehicle: not found")

type VehicleID string

type ShopID string

// Vehicle is owned by the catalog service; the engine only needs its identity
// and the shop that owns it for authorization of blocks and transitions.
type Vehicle struct {
	ID     VehicleID
	ShopID ShopID
}

type Repository interface {
	ByID(ctx context.Context, id VehicleID) (*Vehicle, error)
}
