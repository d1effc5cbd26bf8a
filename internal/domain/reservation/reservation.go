package reservation

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/domain/shared/daterange"
	"fleetbook/internal/domain/shared/events"
	"fleetbook/internal/domain/vehicle"
)

var (
	ErrInvalidTransition        = errors.New("reservation: invalid state transition")
	ErrDepositRequired          = errors.New("reservation: deposit must be paid before confirmation")
	ErrCancellationWindowClosed = errors.New("reservation: cancellation window has closed")
	ErrNotElapsed               = errors.New("reservation: rental period has not ended")
	ErrRequesterRequired        = errors.New("reservation: requester id required")
	ErrReservationNotFound      = errors.New("reservation: not found")
)

type ReservationID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Reservation is one customer's claim on a vehicle for a date range. Only the
// lifecycle methods below mutate it; everything else reads.
type Reservation struct {
	ID              ReservationID
	VehicleID       vehicle.VehicleID
	RequesterID     string
	Range           daterange.DateRange
	Status          Status
	DepositRequired bool
	DepositPaid     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	Save(ctx context.Context, res *Reservation) error
	ListByRequester(ctx context.Context, requesterID string) ([]*Reservation, error)
}

type CreateParams struct {
	ID              ReservationID
	VehicleID       vehicle.VehicleID
	RequesterID     string
	Range           daterange.DateRange
	DepositRequired bool
	CreatedAt       time.Time
}

// New builds a PENDING reservation. Range validity is the caller's concern via
// daterange.New; requester identity is mandatory here.
func New(params CreateParams) (*Reservation, error) {
	if params.RequesterID == "" {
		return nil, ErrRequesterRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	r := &Reservation{
		ID:              params.ID,
		VehicleID:       params.VehicleID,
		RequesterID:     params.RequesterID,
		Range:           params.Range,
		Status:          StatusPending,
		DepositRequired: params.DepositRequired,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.Record(ReservationRequested{ReservationID: r.ID, VehicleID: r.VehicleID, RequesterID: r.RequesterID, Range: r.Range, At: now})
	return r, nil
}

// OccupiesAt reports whether the reservation removes its dates from the pool
// at the given instant. A pending hold older than the hold duration no longer
// occupies even if the janitor has not flipped its status yet.
func (r *Reservation) OccupiesAt(now time.Time, hold time.Duration) bool {
	switch r.Status {
	case StatusConfirmed:
		return true
	case StatusPending:
		return now.Sub(r.CreatedAt) < hold
	default:
		return false
	}
}

// HoldExpired reports a pending hold past its duration; used by the janitor.
func (r *Reservation) HoldExpired(now time.Time, hold time.Duration) bool {
	return r.Status == StatusPending && now.Sub(r.CreatedAt) >= hold
}

func (r *Reservation) MarkDepositPaid(now time.Time) {
	r.DepositPaid = true
	r.UpdatedAt = now.UTC()
}

func (r *Reservation) Confirm(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	if r.DepositRequired && !r.DepositPaid {
		return ErrDepositRequired
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = now.UTC()
	r.Record(ReservationConfirmed{ReservationID: r.ID, VehicleID: r.VehicleID, Range: r.Range, At: r.UpdatedAt})
	return nil
}

// Complete closes out a confirmed rental once its range has fully elapsed.
func (r *Reservation) Complete(now time.Time) error {
	if r.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	if now.Before(r.Range.End) {
		return ErrNotElapsed
	}
	r.Status = StatusCompleted
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCompleted{ReservationID: r.ID, VehicleID: r.VehicleID, At: r.UpdatedAt})
	return nil
}

// Cancel releases the hold on the vehicle's calendar. The policy predicate is
// consulted only for customer-initiated cancellations; shops and admins may
// always cancel.
func (r *Reservation) Cancel(reason string, byCustomer bool, policy CancellationPolicy, now time.Time) error {
	switch r.Status {
	case StatusPending, StatusConfirmed:
	default:
		return ErrInvalidTransition
	}
	if byCustomer && policy != nil && !policy(r.Range.Start, now) {
		return ErrCancellationWindowClosed
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{ReservationID: r.ID, VehicleID: r.VehicleID, Range: r.Range, Reason: reason, At: r.UpdatedAt})
	return nil
}

// ExpireHold is the janitor path for stale pending reservations.
func (r *Reservation) ExpireHold(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{ReservationID: r.ID, VehicleID: r.VehicleID, Range: r.Range, Reason: "hold expired", At: r.UpdatedAt})
	return nil
}
