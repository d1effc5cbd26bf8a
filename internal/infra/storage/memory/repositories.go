package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainavailability "fleetbook/internal/domain/availability"
	domainreservation "fleetbook/internal/domain/reservation"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

// VehicleRepository is an in-memory implementation for tests and demo mode.
type VehicleRepository struct {
	mu    sync.RWMutex
	items map[domainvehicle.VehicleID]*domainvehicle.Vehicle
}

// NewVehicleRepository builds an empty repository.
func NewVehicleRepository() *VehicleRepository {
	return &VehicleRepository{items: make(map[domainvehicle.VehicleID]*domainvehicle.Vehicle)}
}

// ByID returns a vehicle or vehicle.ErrVehicleNotFound.
func (r *VehicleRepository) ByID(ctx context.Context, id domainvehicle.VehicleID) (*domainvehicle.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	veh, ok := r.items[id]
	if !ok {
		return nil, domainvehicle.ErrVehicleNotFound
	}
	return veh, nil
}

// Put seeds a vehicle; demo wiring and tests use it directly.
func (r *VehicleRepository) Put(veh *domainvehicle.Vehicle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[veh.ID] = veh
}

// ReservationRepository stores reservations in memory.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainreservation.ReservationID]*domainreservation.Reservation
}

// NewReservationRepository builds an empty reservation repo.
func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[domainreservation.ReservationID]*domainreservation.Reservation)}
}

// ByID fetches a reservation.
func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainreservation.ErrReservationNotFound
	}
	return res, nil
}

// Save stores the current reservation state.
func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.Version++
	r.items[res.ID] = res
	return nil
}

func (r *ReservationRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if requesterID == "" {
		return nil, domainreservation.ErrRequesterRequired
	}
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.RequesterID == requesterID {
			matches = append(matches, res)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// ListStalePending feeds the hold-expiry janitor.
func (r *ReservationRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.Status == domainreservation.StatusPending && !res.CreatedAt.After(olderThan) {
			matches = append(matches, res)
		}
	}
	return matches, nil
}

// OccupancyStore keeps the same reservations map visible through the
// availability port. A single mutex makes TryReserve's check-then-insert
// atomic, mirroring what the transactional store guarantees.
type OccupancyStore struct {
	mu           sync.Mutex
	reservations *ReservationRepository
	blocks       *BlockRepository
}

func NewOccupancyStore(reservations *ReservationRepository, blocks *BlockRepository) *OccupancyStore {
	return &OccupancyStore{reservations: reservations, blocks: blocks}
}

func (s *OccupancyStore) LoadOccupancy(ctx context.Context, id domainvehicle.VehicleID, window domainrange.DateRange) (domainavailability.Occupancy, error) {
	batch, err := s.LoadOccupancyBatch(ctx, []domainvehicle.VehicleID{id}, window)
	if err != nil {
		return domainavailability.Occupancy{}, err
	}
	return batch[id], nil
}

func (s *OccupancyStore) LoadOccupancyBatch(ctx context.Context, ids []domainvehicle.VehicleID, window domainrange.DateRange) (map[domainvehicle.VehicleID]domainavailability.Occupancy, error) {
	wanted := make(map[domainvehicle.VehicleID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make(map[domainvehicle.VehicleID]domainavailability.Occupancy, len(ids))

	s.reservations.mu.RLock()
	for _, res := range s.reservations.items {
		if _, ok := wanted[res.VehicleID]; !ok {
			continue
		}
		if !res.Range.Overlaps(window) {
			continue
		}
		occ := out[res.VehicleID]
		occ.Reservations = append(occ.Reservations, res)
		out[res.VehicleID] = occ
	}
	s.reservations.mu.RUnlock()

	s.blocks.mu.RLock()
	for _, block := range s.blocks.items {
		if _, ok := wanted[block.VehicleID]; !ok {
			continue
		}
		if !block.Range().Overlaps(window) {
			continue
		}
		occ := out[block.VehicleID]
		occ.Blocks = append(occ.Blocks, block)
		out[block.VehicleID] = occ
	}
	s.blocks.mu.RUnlock()
	return out, nil
}

func (s *OccupancyStore) TryReserve(ctx context.Context, res *domainreservation.Reservation, hold time.Duration, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	occ, err := s.LoadOccupancy(ctx, res.VehicleID, res.Range)
	if err != nil {
		return err
	}
	if _, conflicted := domainavailability.FirstConflict(occ, res.Range, now, hold); conflicted {
		return domainavailability.ErrDateConflict
	}
	return s.reservations.Save(ctx, res)
}

// BlockRepository keeps blocked days in memory, keyed by (vehicle, day) so
// repeated blocks collapse to one entry.
type BlockRepository struct {
	mu    sync.RWMutex
	items map[blockKey]domainavailability.BlockedDate
}

type blockKey struct {
	vehicle domainvehicle.VehicleID
	day     int64
}

func NewBlockRepository() *BlockRepository {
	return &BlockRepository{items: make(map[blockKey]domainavailability.BlockedDate)}
}

func (r *BlockRepository) Upsert(ctx context.Context, block domainavailability.BlockedDate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := blockKey{vehicle: block.VehicleID, day: block.Day.UnixMilli()}
	if existing, ok := r.items[key]; ok {
		existing.Reason = block.Reason
		r.items[key] = existing
		return nil
	}
	r.items[key] = block
	return nil
}

func (r *BlockRepository) Remove(ctx context.Context, id domainvehicle.VehicleID, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, blockKey{vehicle: id, day: domainrange.TruncateDay(day).UnixMilli()})
	return nil
}

func (r *BlockRepository) ListByVehicle(ctx context.Context, id domainvehicle.VehicleID, window domainrange.DateRange) ([]domainavailability.BlockedDate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]domainavailability.BlockedDate, 0)
	for key, block := range r.items {
		if key.vehicle != id {
			continue
		}
		if !window.ContainsDay(block.Day) {
			continue
		}
		matches = append(matches, block)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Day.Before(matches[j].Day)
	})
	return matches, nil
}

var (
	_ domainvehicle.Repository           = (*VehicleRepository)(nil)
	_ domainreservation.Repository       = (*ReservationRepository)(nil)
	_ domainavailability.Store           = (*OccupancyStore)(nil)
	_ domainavailability.BlockRepository = (*BlockRepository)(nil)
)
