package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	availabilityapp "fleetbook/internal/app/handlers/availability"
	blocksapp "fleetbook/internal/app/handlers/blocks"
	reservationapp "fleetbook/internal/app/handlers/reservation"
	domainavailability "fleetbook/internal/domain/availability"
	domainreservation "fleetbook/internal/domain/reservation"
	domainrange "fleetbook/internal/domain/shared/daterange"
	domainvehicle "fleetbook/internal/domain/vehicle"
)

// writeError maps domain error categories onto HTTP statuses. Categories stay
// distinct on the wire: a conflict is never dressed up as a validation
// failure, and a storage outage is never reported as "unavailable dates".
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainreservation.ErrRequesterRequired),
		errors.Is(err, blocksapp.ErrNoDates),
		errors.Is(err, availabilityapp.ErrNoVehicles),
		errors.Is(err, reservationapp.ErrUnknownTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainvehicle.ErrVehicleNotFound),
		errors.Is(err, domainreservation.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, reservationapp.ErrNotParticipant),
		errors.Is(err, reservationapp.ErrShopActionOnly),
		errors.Is(err, blocksapp.ErrNotShopOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainavailability.ErrDateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainreservation.ErrDepositRequired),
		errors.Is(err, domainreservation.ErrInvalidTransition),
		errors.Is(err, domainreservation.ErrCancellationWindowClosed),
		errors.Is(err, domainreservation.ErrNotElapsed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domainavailability.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseDate accepts calendar days ("2006-01-02") or full RFC 3339 instants;
// either way the engine truncates to the day boundary.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
