package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetbook/internal/app/commands"
	"fleetbook/internal/app/dto"
	reservationapp "fleetbook/internal/app/handlers/reservation"
	"fleetbook/internal/app/queries"
)

// Identity comes from trusted gateway headers; the engine itself does not
// authenticate.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createReservationRequest struct {
	VehicleID       string `json:"vehicle_id"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DepositRequired bool   `json:"deposit_required"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDate(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
		return
	}
	cmd := reservationapp.CreateReservationCommand{
		CommandID:       uuid.NewString(),
		VehicleID:       req.VehicleID,
		RequesterID:     c.GetHeader(headerUserID),
		Start:           start,
		End:             end,
		DepositRequired: req.DepositRequired,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservationapp.CreateReservationCommand, *reservationapp.CreateReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type transitionRequest struct {
	Target      string `json:"target"`
	Reason      string `json:"reason"`
	DepositPaid bool   `json:"deposit_paid"`
}

func (h ReservationHandler) Transition(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reservationapp.TransitionReservationCommand{
		ReservationID: c.Param("id"),
		Target:        req.Target,
		Reason:        req.Reason,
		DepositPaid:   req.DepositPaid,
		Actor: reservationapp.Actor{
			ID:   c.GetHeader(headerUserID),
			Role: c.GetHeader(headerUserRole),
		},
	}
	result, err := commands.Dispatch[reservationapp.TransitionReservationCommand, dto.ReservationView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListMine(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	q := reservationapp.ListReservationsQuery{RequesterID: c.GetHeader(headerUserID)}
	result, err := queries.Ask[reservationapp.ListReservationsQuery, []dto.ReservationView](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

var _ ReservationHTTP = ReservationHandler{}
