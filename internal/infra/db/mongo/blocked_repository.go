package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "fleetbook/internal/domain/availability"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

type BlockedDateRepository struct {
	col *mongo.Collection
}

func NewBlockedDateRepository(db *mongo.Database) *BlockedDateRepository {
	col := db.Collection("blocked_dates")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "vehicle_id", Value: 1}, {Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BlockedDateRepository{col: col}
}

// Upsert is idempotent per (vehicle, day): re-blocking keeps the original row
// and only refreshes the reason.
func (r *BlockedDateRepository) Upsert(ctx context.Context, block domainavailability.BlockedDate) error {
	filter := bson.M{"vehicle_id": string(block.VehicleID), "day": block.Day.UnixMilli()}
	update := bson.M{
		"$set":         bson.M{"reason": block.Reason},
		"$setOnInsert": bson.M{"created_at": block.CreatedAt.UnixMilli()},
	}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Concurrent insert of the same (vehicle, day); already blocked.
			return nil
		}
		return storeErr(err)
	}
	return nil
}

func (r *BlockedDateRepository) Remove(ctx context.Context, id domainvehicle.VehicleID, day time.Time) error {
	filter := bson.M{"vehicle_id": string(id), "day": domainrange.TruncateDay(day).UnixMilli()}
	if _, err := r.col.DeleteOne(ctx, filter); err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *BlockedDateRepository) ListByVehicle(ctx context.Context, id domainvehicle.VehicleID, window domainrange.DateRange) ([]domainavailability.BlockedDate, error) {
	filter := bson.M{
		"vehicle_id": string(id),
		"day":        bson.M{"$gte": window.Start.UnixMilli(), "$lt": window.End.UnixMilli()},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "day", Value: 1}}))
	if err != nil {
		return nil, storeErr(err)
	}
	defer cur.Close(ctx)
	var out []domainavailability.BlockedDate
	for cur.Next(ctx) {
		var doc blockedDateDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

type blockedDateDocument struct {
	VehicleID string `bson:"vehicle_id"`
	Day       int64  `bson:"day"`
	Reason    string `bson:"reason"`
	CreatedAt int64  `bson:"created_at"`
}

func (d blockedDateDocument) toDomain() domainavailability.BlockedDate {
	return domainavailability.BlockedDate{
		VehicleID: domainvehicle.VehicleID(d.VehicleID),
		Day:       timestampToTime(d.Day),
		Reason:    d.Reason,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

var _ domainavailability.BlockRepository = (*BlockedDateRepository)(nil)
