package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"fleetbook/internal/app/dto"
	availabilityapp "fleetbook/internal/app/handlers/availability"
	"fleetbook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries  queries.Bus
	FailOpen bool
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	start, end, ok := dateWindow(c)
	if !ok {
		return
	}
	q := availabilityapp.CheckAvailabilityQuery{
		VehicleID: c.Param("id"),
		Start:     start,
		End:       end,
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type batchAvailabilityRequest struct {
	VehicleIDs []string `json:"vehicle_ids"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
}

func (h AvailabilityHandler) CheckBatch(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	var req batchAvailabilityRequest
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
	q := availabilityapp.CheckAvailabilityBatchQuery{
		VehicleIDs: req.VehicleIDs,
		Start:      start,
		End:        end,
		FailOpen:   h.FailOpen,
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityBatchQuery, dto.BatchAvailabilityResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func dateWindow(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := parseDate(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
