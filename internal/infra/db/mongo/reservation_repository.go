package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainreservation "fleetbook/internal/domain/reservation"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	col := db.Collection("reservations")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ReservationRepository{col: col}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrReservationNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toAggregate(), nil
}

// Save performs an optimistic versioned upsert; a stale version loses with
// ErrConcurrentUpdate instead of silently overwriting a newer state.
func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	out, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return storeErr(err)
	}
	if out.MatchedCount == 0 && out.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domainreservation.Reservation, error) {
	cur, err := r.col.Find(ctx, bson.M{"requester_id": requesterID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, storeErr(err)
	}
	defer cur.Close(ctx)
	return decodeReservations(ctx, cur)
}

// ListStalePending feeds the hold-expiry janitor.
func (r *ReservationRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]*domainreservation.Reservation, error) {
	filter := bson.M{"status": string(domainreservation.StatusPending), "created_at": bson.M{"$lte": olderThan.UnixMilli()}}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cur.Close(ctx)
	return decodeReservations(ctx, cur)
}

func decodeReservations(ctx context.Context, cur *mongo.Cursor) ([]*domainreservation.Reservation, error) {
	var out []*domainreservation.Reservation
	for cur.Next(ctx) {
		var doc reservationDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, doc.toAggregate())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

type reservationDocument struct {
	ID              string `bson:"_id"`
	VehicleID       string `bson:"vehicle_id"`
	RequesterID     string `bson:"requester_id"`
	Start           int64  `bson:"start"`
	End             int64  `bson:"end"`
	Status          string `bson:"status"`
	DepositRequired bool   `bson:"deposit_required"`
	DepositPaid     bool   `bson:"deposit_paid"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
	Version         int64  `bson:"version"`
}

func newReservationDocument(res *domainreservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:              string(res.ID),
		VehicleID:       string(res.VehicleID),
		RequesterID:     res.RequesterID,
		Start:           res.Range.Start.UnixMilli(),
		End:             res.Range.End.UnixMilli(),
		Status:          string(res.Status),
		DepositRequired: res.DepositRequired,
		DepositPaid:     res.DepositPaid,
		CreatedAt:       res.CreatedAt.UnixMilli(),
		UpdatedAt:       res.UpdatedAt.UnixMilli(),
		Version:         res.Version,
	}
}

func (d reservationDocument) toAggregate() *domainreservation.Reservation {
	return &domainreservation.Reservation{
		ID:              domainreservation.ReservationID(d.ID),
		VehicleID:       domainvehicle.VehicleID(d.VehicleID),
		RequesterID:     d.RequesterID,
		Range:           domainrange.DateRange{Start: timestampToTime(d.Start), End: timestampToTime(d.End)},
		Status:          domainreservation.Status(d.Status),
		DepositRequired: d.DepositRequired,
		DepositPaid:     d.DepositPaid,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
