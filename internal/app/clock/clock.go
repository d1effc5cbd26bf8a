package clock

import "time"

// Clock supplies the current instant. Hold-expiry and transition guards read
// wall-clock time at evaluation, so handlers take a Clock instead of calling
// time.Now directly.
type Clock func() time.Time

// System returns UTC wall-clock time.
func System() Clock {
	return func() time.Time { return time.Now().UTC() }
}

// Fixed always returns t; test helper.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// Or falls back to the system clock when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return System()
	}
	return c
}
