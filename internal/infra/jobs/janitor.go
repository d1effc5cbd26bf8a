package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"fleetbook/internal/app/commands"
	appreservation "fleetbook/internal/app/handlers/reservation"
)

// Janitor periodically flips expired pending holds to cancelled. The schedule
// is advisory hygiene: readers already discount expired holds, so a missed run
// never lets a stale hold block a booking.
type Janitor struct {
	Bus    commands.Bus
	Spec   string
	Logger *slog.Logger

	cron *cron.Cron
}

var ErrJanitorNotConfigured = errors.New("jobs: janitor requires a command bus")

func (j *Janitor) Start(ctx context.Context) error {
	if j.Bus == nil {
		return ErrJanitorNotConfigured
	}
	spec := j.Spec
	if spec == "" {
		spec = "@every 5m"
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		result, err := commands.Dispatch[appreservation.ExpireHoldsCommand, *appreservation.ExpireHoldsResult](
			ctx, j.Bus, appreservation.ExpireHoldsCommand{})
		if err != nil {
			j.logger().Error("hold expiry sweep failed", "error", err)
			return
		}
		if result.Expired > 0 {
			j.logger().Info("expired stale holds", "count", result.Expired)
		}
	})
	if err != nil {
		return err
	}
	j.cron = c
	c.Start()
	return nil
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *Janitor) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
