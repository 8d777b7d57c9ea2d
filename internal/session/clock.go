package session

import "time"

// Clock supplies the current wall-clock time.
// Implemented by SystemClock (production) and fixed clocks in tests, so
// transitions and totals are reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
