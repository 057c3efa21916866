package core

import "time"

// EdgeDebouncer turns a noisy momentary input into clean rising edges.
// Used for the external reset trigger.
type EdgeDebouncer struct {
	interval  time.Duration
	lastEdge  time.Time
	lastState bool
}

// NewEdgeDebouncer creates a debouncer that suppresses edges closer together
// than interval.
func NewEdgeDebouncer(interval time.Duration) *EdgeDebouncer {
	return &EdgeDebouncer{interval: interval}
}

// RisingEdge reports a debounced false->true transition of the input.
func (d *EdgeDebouncer) RisingEdge(pressed bool, now time.Time) bool {
	was := d.lastState
	d.lastState = pressed

	if !pressed || was {
		return false
	}
	if !d.lastEdge.IsZero() && now.Sub(d.lastEdge) < d.interval {
		return false
	}
	d.lastEdge = now
	return true
}
