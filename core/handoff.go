package core

// Slot is the bounded single-slot handoff between the sensor task and the
// link task. Capacity is exactly one; when the consumer is still busy the
// producer's Offer fails and the value is dropped or held by the caller.
// This is the system's backpressure mechanism: there is no unbounded queue.
type Slot[T any] struct {
	ch chan T
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{ch: make(chan T, 1)}
}

// Offer places v in the slot if it is free. Never blocks.
func (s *Slot[T]) Offer(v T) bool {
	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// Take removes and returns the slot's value if present. Never blocks.
func (s *Slot[T]) Take() (T, bool) {
	select {
	case v := <-s.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Recv exposes the slot for select-based consumption by the link task.
func (s *Slot[T]) Recv() <-chan T {
	return s.ch
}
