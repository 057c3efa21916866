package core

import (
	"testing"
	"time"
)

func TestEdgeDebouncer(t *testing.T) {
	d := NewEdgeDebouncer(300 * time.Millisecond)
	base := time.Unix(0, 0)

	if !d.RisingEdge(true, base) {
		t.Fatal("first press not reported")
	}
	if d.RisingEdge(true, base.Add(10*time.Millisecond)) {
		t.Error("held press reported a second edge")
	}

	// Release and re-press inside the debounce interval: bounce, suppressed.
	d.RisingEdge(false, base.Add(50*time.Millisecond))
	if d.RisingEdge(true, base.Add(80*time.Millisecond)) {
		t.Error("bounce inside debounce interval reported")
	}

	// A clean press after the interval is a new edge.
	d.RisingEdge(false, base.Add(400*time.Millisecond))
	if !d.RisingEdge(true, base.Add(500*time.Millisecond)) {
		t.Error("press after debounce interval not reported")
	}
}
