package dto

import (
	"time"

	"fleetbook/internal/domain/availability"
)

type AvailabilityResult struct {
	VehicleID string    `json:"vehicle_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// BatchAvailabilityResult carries one verdict per requested vehicle.
// Degraded marks a fail-open answer produced after a bulk-load failure; the
// reservation-time conflict check still protects correctness.
type BatchAvailabilityResult struct {
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Vehicles  map[string]bool `json:"vehicles"`
	Degraded  bool            `json:"degraded,omitempty"`
	CheckedAt time.Time       `json:"checked_at"`
}

// BlockDatesResult reports which days were written and any warnings, e.g.
// blocking over an already confirmed reservation.
type BlockDatesResult struct {
	VehicleID string   `json:"vehicle_id"`
	Blocked   []string `json:"blocked"`
	Warnings  []string `json:"warnings,omitempty"`
}

type UnblockDatesResult struct {
	VehicleID string   `json:"vehicle_id"`
	Unblocked []string `json:"unblocked"`
}

type BlockedDateView struct {
	VehicleID string    `json:"vehicle_id"`
	Day       string    `json:"day"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func MapBlockedDate(block availability.BlockedDate) BlockedDateView {
	return BlockedDateView{
		VehicleID: string(block.VehicleID),
		Day:       block.Day.Format("2006-01-02"),
		Reason:    block.Reason,
		CreatedAt: block.CreatedAt,
	}
}
