package core

import (
	"time"

	"boardlink/protocol"
)

// EventKind discriminates engine events.
type EventKind uint8

const (
	// EventMove reports a completed lift->place pair.
	EventMove EventKind = iota + 1
	// EventCancelled reports a pending move that was abandoned.
	EventCancelled
)

// CancelReason explains an EventCancelled.
type CancelReason uint8

const (
	// CancelTimeout means no placement arrived within the move timeout.
	CancelTimeout CancelReason = iota + 1
)

// Event is one detected board event. Exactly one event is produced per
// pending-move lifecycle.
type Event struct {
	Kind   EventKind
	Move   protocol.Move // valid when Kind == EventMove
	Reason CancelReason  // valid when Kind == EventCancelled
	At     time.Time
}

// NoteKind discriminates non-move notifications.
type NoteKind uint8

const (
	// NoteReplacedAtOrigin: a lifted piece was returned to its own square.
	// Deliberately produces no move event; surfaced only for telemetry.
	NoteReplacedAtOrigin NoteKind = iota + 1
	// NoteConflictingLift: a second lift while a move was already pending.
	NoteConflictingLift
)

// Notification is an observability-only signal. It never generates moves.
type Notification struct {
	Kind   NoteKind
	Square protocol.Square
	At     time.Time
}

// PendingMove is the single in-flight lift awaiting a matching placement.
type PendingMove struct {
	Origin protocol.Square
	Start  time.Time
	Active bool
}

// detect consumes this tick's stable transitions in ascending square order
// for determinism, then enforces the pending-move timeout.
func (e *Engine) detect(now time.Time) []Event {
	var events []Event

	for i := 0; i < protocol.NumSquares; i++ {
		st := &e.sensors[i]
		if !st.ChangedThisTick {
			continue
		}
		sq := protocol.Square(i)

		switch {
		case st.PrevStable && !st.Stable:
			// Piece lifted. First lift wins; later lifts are ignored
			// until the pending move resolves or times out.
			if !e.pending.Active {
				e.pending = PendingMove{Origin: sq, Start: now, Active: true}
			} else if e.pending.Origin != sq {
				e.note(Notification{Kind: NoteConflictingLift, Square: sq, At: now})
			}

		case !st.PrevStable && st.Stable:
			// Piece placed.
			if !e.pending.Active {
				continue
			}
			if sq == e.pending.Origin {
				// Returned to its own square: no event. This is the
				// guard against spurious same-square moves.
				e.pending = PendingMove{}
				e.note(Notification{Kind: NoteReplacedAtOrigin, Square: sq, At: now})
				continue
			}
			events = append(events, Event{
				Kind: EventMove,
				Move: protocol.Move{From: e.pending.Origin, To: sq},
				At:   now,
			})
			e.pending = PendingMove{}
		}
	}

	if e.pending.Active && now.Sub(e.pending.Start) > e.cfg.MoveTimeout {
		e.pending = PendingMove{}
		events = append(events, Event{Kind: EventCancelled, Reason: CancelTimeout, At: now})
	}

	return events
}

func (e *Engine) note(n Notification) {
	if e.notify != nil {
		e.notify(n)
	}
}
