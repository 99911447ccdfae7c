package metrics

import "time"

// Noop discards every measurement.
type Noop struct{}

// ObserveFetch does nothing.
func (Noop) ObserveFetch(string, time.Duration) {}

// ObserveResolution does nothing.
func (Noop) ObserveResolution(int, int, int, time.Duration) {}
