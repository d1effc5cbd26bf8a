package dto

import (
	"time"

	"fleetbook/internal/domain/reservation"
)

type ReservationView struct {
	ID              string    `json:"id"`
	VehicleID       string    `json:"vehicle_id"`
	RequesterID     string    `json:"requester_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Status          string    `json:"status"`
	DepositRequired bool      `json:"deposit_required"`
	DepositPaid     bool      `json:"deposit_paid"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func MapReservation(res *reservation.Reservation) ReservationView {
	if res == nil {
		return ReservationView{}
	}
	return ReservationView{
		ID:              string(res.ID),
		VehicleID:       string(res.VehicleID),
		RequesterID:     res.RequesterID,
		Start:           res.Range.Start,
		End:             res.Range.End,
		Status:          string(res.Status),
		DepositRequired: res.DepositRequired,
		DepositPaid:     res.DepositPaid,
		CreatedAt:       res.CreatedAt,
		UpdatedAt:       res.UpdatedAt,
	}
}
