package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainvehicle "fleetbook/internal/domain/vehicle"
)

type VehicleRepository struct {
	col *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{col: db.Collection("vehicles")}
}

func (r *VehicleRepository) ByID(ctx context.Context, id domainvehicle.VehicleID) (*domainvehicle.Vehicle, error) {
	var doc vehicleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainvehicle.ErrVehicleNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toAggregate(), nil
}

type vehicleDocument struct {
	ID     string `bson:"_id"`
	ShopID string `bson:"shop_id"`
}

func (d vehicleDocument) toAggregate() *domainvehicle.Vehicle {
	return &domainvehicle.Vehicle{
		ID:     domainvehicle.VehicleID(d.ID),
		ShopID: domainvehicle.ShopID(d.ShopID),
	}
}

var _ domainvehicle.Repository = (*VehicleRepository)(nil)
