package core

import (
	"testing"
	"time"

	"boardlink/protocol"
)

// fakeBoard is an in-memory sensor matrix.
type fakeBoard struct {
	bits  [protocol.NumSquares]bool
	reads int
}

func (b *fakeBoard) ReadSquare(sq protocol.Square) (bool, error) {
	b.reads++
	return b.bits[sq], nil
}

func (b *fakeBoard) set(t *testing.T, name string, present bool) {
	t.Helper()
	sq, err := protocol.ParseSquare(name)
	if err != nil {
		t.Fatalf("bad square %q: %v", name, err)
	}
	b.bits[sq] = present
}

// sim drives an engine with a deterministic 20 ms clock.
type sim struct {
	t      *testing.T
	engine *Engine
	board  *fakeBoard
	now    time.Time
	events []Event
	notes  []Notification
}

func newSim(t *testing.T) *sim {
	board := &fakeBoard{}
	s := &sim{
		t:      t,
		board:  board,
		engine: NewEngine(board, Timings{}),
		now:    time.Unix(0, 0),
	}
	s.engine.SetNotify(func(n Notification) {
		s.notes = append(s.notes, n)
	})
	return s
}

// run advances the simulation by d in 20 ms ticks.
func (s *sim) run(d time.Duration) {
	end := s.now.Add(d)
	for !s.now.After(end) {
		s.events = append(s.events, s.engine.Tick(s.now)...)
		s.now = s.now.Add(20 * time.Millisecond)
	}
}

// settle runs the engine through the startup stabilization window.
func (s *sim) settle() {
	s.run(DefaultTimings().StartupWindow + 200*time.Millisecond)
	if len(s.events) != 0 {
		s.t.Fatalf("events emitted during settling: %v", s.events)
	}
}

func mustSquare(t *testing.T, name string) protocol.Square {
	t.Helper()
	sq, err := protocol.ParseSquare(name)
	if err != nil {
		t.Fatalf("bad square %q: %v", name, err)
	}
	return sq
}

func TestStartupPlacementEmitsNothing(t *testing.T) {
	s := newSim(t)

	// Place the 32 starting pieces over the first few hundred ms.
	homes := []string{}
	for _, rank := range []string{"1", "2", "7", "8"} {
		for _, file := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
			homes = append(homes, file+rank)
		}
	}
	s.run(100 * time.Millisecond)
	for i, name := range homes {
		s.board.set(t, name, true)
		if i%8 == 7 {
			s.run(60 * time.Millisecond)
		}
	}
	s.run(DefaultTimings().StartupWindow)

	if len(s.events) != 0 {
		t.Fatalf("startup placements produced %d events", len(s.events))
	}
	for _, name := range homes {
		if !s.engine.Stable(mustSquare(t, name)) {
			t.Errorf("square %s not settled as baseline", name)
		}
	}
}

func TestLiftPlaceEmitsSingleMove(t *testing.T) {
	s := newSim(t)
	s.board.set(t, "e2", true)
	s.settle()

	s.board.set(t, "e2", false)
	s.run(1200 * time.Millisecond)
	s.board.set(t, "e4", true)
	s.run(500 * time.Millisecond)

	if len(s.events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(s.events), s.events)
	}
	ev := s.events[0]
	if ev.Kind != EventMove {
		t.Fatalf("event kind = %v, want EventMove", ev.Kind)
	}
	if ev.Move.String() != "e2-e4" {
		t.Errorf("move = %s, want e2-e4", ev.Move)
	}
	if _, active := s.engine.Pending(); active {
		t.Error("pending move not cleared after placement")
	}
}

func TestReplacedAtOriginIsSilent(t *testing.T) {
	s := newSim(t)
	s.board.set(t, "d3", true)
	s.settle()

	s.board.set(t, "d3", false)
	s.run(500 * time.Millisecond)
	s.board.set(t, "d3", true)
	s.run(500 * time.Millisecond)

	if len(s.events) != 0 {
		t.Fatalf("replaced-at-origin produced events: %v", s.events)
	}
	if _, active := s.engine.Pending(); active {
		t.Error("pending move not cleared after replacement")
	}

	found := false
	for _, n := range s.notes {
		if n.Kind == NoteReplacedAtOrigin && n.Square == mustSquare(t, "d3") {
			found = true
		}
	}
	if !found {
		t.Error("no ReplacedAtOrigin notification fired")
	}
}

func TestPendingMoveTimesOut(t *testing.T) {
	s := newSim(t)
	s.board.set(t, "a2", true)
	s.settle()

	s.board.set(t, "a2", false)
	lifted := s.now
	s.run(DefaultTimings().MoveTimeout + 300*time.Millisecond)

	if len(s.events) != 1 {
		t.Fatalf("got %d events, want 1 cancellation: %v", len(s.events), s.events)
	}
	ev := s.events[0]
	if ev.Kind != EventCancelled || ev.Reason != CancelTimeout {
		t.Fatalf("event = %+v, want Cancelled(timeout)", ev)
	}
	// The raw flip at the first tick commits 60 ms later (three consistent
	// 20 ms samples past the 50 ms window); the deadline is exceeded strictly,
	// so cancellation fires on the first tick after commit+10000 ms.
	if want := lifted.Add(10080 * time.Millisecond); !ev.At.Equal(want) {
		t.Errorf("cancelled at +%v, want +%v", ev.At.Sub(lifted), want.Sub(lifted))
	}
	if _, active := s.engine.Pending(); active {
		t.Error("pending move not cleared after timeout")
	}
}

func TestFirstLiftWins(t *testing.T) {
	s := newSim(t)
	s.board.set(t, "e2", true)
	s.board.set(t, "d7", true)
	s.settle()

	s.board.set(t, "e2", false)
	s.run(200 * time.Millisecond)
	s.board.set(t, "d7", false) // conflicting lift, ignored
	s.run(200 * time.Millisecond)
	s.board.set(t, "e4", true)
	s.run(500 * time.Millisecond)

	if len(s.events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(s.events), s.events)
	}
	if s.events[0].Move.String() != "e2-e4" {
		t.Errorf("move = %s, want e2-e4", s.events[0].Move)
	}

	found := false
	for _, n := range s.notes {
		if n.Kind == NoteConflictingLift && n.Square == mustSquare(t, "d7") {
			found = true
		}
	}
	if !found {
		t.Error("no ConflictingLift notification fired")
	}
}

func TestScanIntervalIsHardFloor(t *testing.T) {
	s := newSim(t)
	s.engine.Tick(s.now)
	before := s.board.reads

	// Invoked 1 ms later: the whole cycle must be skipped.
	s.engine.Tick(s.now.Add(time.Millisecond))
	if s.board.reads != before {
		t.Error("early tick sampled sensors despite rate floor")
	}

	s.engine.Tick(s.now.Add(25 * time.Millisecond))
	if s.board.reads == before {
		t.Error("tick past the interval did not sample sensors")
	}
}

func TestSingleEventPerLifecycle(t *testing.T) {
	// A move that completes just before the deadline must emit the move
	// and not a cancellation.
	s := newSim(t)
	s.board.set(t, "c7", true)
	s.settle()

	s.board.set(t, "c7", false)
	s.run(DefaultTimings().MoveTimeout - 500*time.Millisecond)
	s.board.set(t, "c5", true)
	s.run(time.Second)

	if len(s.events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(s.events), s.events)
	}
	if s.events[0].Kind != EventMove || s.events[0].Move.String() != "c7-c5" {
		t.Errorf("event = %+v, want move c7-c5", s.events[0])
	}
}
