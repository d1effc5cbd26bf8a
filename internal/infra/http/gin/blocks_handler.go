package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"fleetbook/internal/app/commands"
	"fleetbook/internal/app/dto"
	blocksapp "fleetbook/internal/app/handlers/blocks"
	"fleetbook/internal/app/queries"
)

type BlocksHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type blockDatesRequest struct {
	Dates  []string `json:"dates"`
	Reason string   `json:"reason"`
}

func (h BlocksHandler) Block(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req blockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dates, ok := parseDates(c, req.Dates)
	if !ok {
		return
	}
	cmd := blocksapp.BlockDatesCommand{
		VehicleID: c.Param("id"),
		ShopID:    c.GetHeader(headerUserID),
		Dates:     dates,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[blocksapp.BlockDatesCommand, *dto.BlockDatesResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type unblockDatesRequest struct {
	Dates []string `json:"dates"`
}

func (h BlocksHandler) Unblock(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req unblockDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dates, ok := parseDates(c, req.Dates)
	if !ok {
		return
	}
	cmd := blocksapp.UnblockDatesCommand{
		VehicleID: c.Param("id"),
		ShopID:    c.GetHeader(headerUserID),
		Dates:     dates,
	}
	result, err := commands.Dispatch[blocksapp.UnblockDatesCommand, *dto.UnblockDatesResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BlocksHandler) List(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	start, end, ok := dateWindow(c)
	if !ok {
		return
	}
	q := blocksapp.ListBlocksQuery{VehicleID: c.Param("id"), Start: start, End: end}
	result, err := queries.Ask[blocksapp.ListBlocksQuery, []dto.BlockedDateView](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

func parseDates(c *gin.Context, raw []string) ([]time.Time, bool) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := parseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date: " + s})
			return nil, false
		}
		dates = append(dates, d)
	}
	return dates, true
}

var _ BlocksHTTP = BlocksHandler{}
