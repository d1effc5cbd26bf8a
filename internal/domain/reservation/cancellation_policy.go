package reservation

import "time"

// CancellationPolicy decides whether a customer may still cancel at cancelAt
// for a rental starting at rangeStart. The cutoff is configuration, not a rule
// baked into the aggregate.
type CancellationPolicy func(rangeStart, cancelAt time.Time) bool

// CutoffPolicy disallows customer cancellation once cancelAt is within the
// cutoff window before the rental starts. A zero cutoff always allows it.
func CutoffPolicy(cutoff time.Duration) CancellationPolicy {
	return func(rangeStart, cancelAt time.Time) bool {
		if cutoff <= 0 {
			return true
		}
		return cancelAt.Before(rangeStart.Add(-cutoff))
	}
}
