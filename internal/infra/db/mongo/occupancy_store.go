package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "fleetbook/internal/domain/availability"
	domainreservation "fleetbook/internal/domain/reservation"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

// OccupancyStore reads committed occupancy and performs the atomic reserve.
// Atomicity relies on the surrounding session transaction plus a per-vehicle
// calendar lock document: every TryReserve bumps the lock inside the
// transaction, so two racing reserves on one vehicle produce a write conflict
// and exactly one commits.
type OccupancyStore struct {
	reservations *mongo.Collection
	blocks       *mongo.Collection
	locks        *mongo.Collection
}

func NewOccupancyStore(db *mongo.Database) *OccupancyStore {
	return &OccupancyStore{
		reservations: db.Collection("reservations"),
		blocks:       db.Collection("blocked_dates"),
		locks:        db.Collection("vehicle_calendar_locks"),
	}
}

func occupancyFilter(window domainrange.DateRange) bson.M {
	// The half-open overlap predicate expressed as a query: narrow reads, the
	// in-memory predicate stays the single place deciding conflicts.
	return bson.M{
		"start": bson.M{"$lt": window.End.UnixMilli()},
		"end":   bson.M{"$gt": window.Start.UnixMilli()},
		"status": bson.M{"$in": []string{
			string(domainreservation.StatusPending),
			string(domainreservation.StatusConfirmed),
		}},
	}
}

func (s *OccupancyStore) LoadOccupancy(ctx context.Context, id domainvehicle.VehicleID, window domainrange.DateRange) (domainavailability.Occupancy, error) {
	batch, err := s.LoadOccupancyBatch(ctx, []domainvehicle.VehicleID{id}, window)
	if err != nil {
		return domainavailability.Occupancy{}, err
	}
	return batch[id], nil
}

// LoadOccupancyBatch issues exactly two queries regardless of how many
// vehicles are asked for.
func (s *OccupancyStore) LoadOccupancyBatch(ctx context.Context, ids []domainvehicle.VehicleID, window domainrange.DateRange) (map[domainvehicle.VehicleID]domainavailability.Occupancy, error) {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	filter := occupancyFilter(window)
	filter["vehicle_id"] = bson.M{"$in": raw}

	out := make(map[domainvehicle.VehicleID]domainavailability.Occupancy, len(ids))

	cur, err := s.reservations.Find(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc reservationDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, storeErr(err)
		}
		res := doc.toAggregate()
		occ := out[res.VehicleID]
		occ.Reservations = append(occ.Reservations, res)
		out[res.VehicleID] = occ
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr(err)
	}

	blockFilter := bson.M{
		"vehicle_id": bson.M{"$in": raw},
		"day":        bson.M{"$gte": window.Start.UnixMilli(), "$lt": window.End.UnixMilli()},
	}
	bcur, err := s.blocks.Find(ctx, blockFilter)
	if err != nil {
		return nil, storeErr(err)
	}
	defer bcur.Close(ctx)
	for bcur.Next(ctx) {
		var doc blockedDateDocument
		if err := bcur.Decode(&doc); err != nil {
			return nil, storeErr(err)
		}
		block := doc.toDomain()
		occ := out[block.VehicleID]
		occ.Blocks = append(occ.Blocks, block)
		out[block.VehicleID] = occ
	}
	if err := bcur.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// TryReserve is the engine's single write path for new reservations. Check
// and insert run in one transaction; the lock bump linearizes concurrent
// attempts per vehicle.
func (s *OccupancyStore) TryReserve(ctx context.Context, res *domainreservation.Reservation, hold time.Duration, now time.Time) error {
	if err := s.touchLock(ctx, res.VehicleID); err != nil {
		return err
	}

	occ, err := s.LoadOccupancy(ctx, res.VehicleID, res.Range)
	if err != nil {
		return err
	}
	if _, conflicted := domainavailability.FirstConflict(occ, res.Range, now, hold); conflicted {
		return domainavailability.ErrDateConflict
	}

	doc := newReservationDocument(res)
	doc.Version = res.Version + 1
	if _, err := s.reservations.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainavailability.ErrDateConflict
		}
		// A transactional write conflict means the race was lost, which is a
		// conflict for the caller, not an outage.
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("TransientTransactionError") {
			return domainavailability.ErrDateConflict
		}
		return storeErr(err)
	}
	res.Version = doc.Version
	return nil
}

func (s *OccupancyStore) touchLock(ctx context.Context, id domainvehicle.VehicleID) error {
	update := bson.M{"$inc": bson.M{"version": 1}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.locks.UpdateByID(ctx, string(id), update, opts); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("TransientTransactionError") {
			return domainavailability.ErrDateConflict
		}
		return storeErr(err)
	}
	return nil
}

// storeErr folds driver failures into the transient storage category so
// callers can tell "retry later" apart from "dates taken".
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", domainavailability.ErrStoreUnavailable, err)
}

var _ domainavailability.Store = (*OccupancyStore)(nil)
