// Sensing engine: periodic scan, per-square debounce, move detection.
// Runs entirely on the sensor task; it never blocks and owns all sensor and
// pending-move state exclusively.
package core

import (
	"time"

	"boardlink/protocol"
)

// Timings holds the engine's timing configuration. All values overridable;
// see DefaultTimings for the defaults.
type Timings struct {
	ScanInterval    time.Duration // hard floor between scans
	DebounceWindow  time.Duration // min elapsed time since last raw flip
	ConsistentReads uint8         // min consecutive identical raw samples
	StartupWindow   time.Duration // baseline settling window after init
	MoveTimeout     time.Duration // pending move deadline
}

// DefaultTimings returns the stock timing configuration.
func DefaultTimings() Timings {
	return Timings{
		ScanInterval:    20 * time.Millisecond,
		DebounceWindow:  50 * time.Millisecond,
		ConsistentReads: 3,
		StartupWindow:   3000 * time.Millisecond,
		MoveTimeout:     10000 * time.Millisecond,
	}
}

// Engine converts raw sensor reads into validated move events.
type Engine struct {
	cfg    Timings
	driver SensorDriver

	sensors [protocol.NumSquares]SensorState
	pending PendingMove

	started   bool
	firstTick time.Time
	lastScan  time.Time

	notify func(Notification)
}

// NewEngine creates an engine over the given sensor driver. Zero fields in
// cfg are filled from DefaultTimings.
func NewEngine(driver SensorDriver, cfg Timings) *Engine {
	def := DefaultTimings()
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = def.ScanInterval
	}
	if cfg.DebounceWindow == 0 {
		cfg.DebounceWindow = def.DebounceWindow
	}
	if cfg.ConsistentReads == 0 {
		cfg.ConsistentReads = def.ConsistentReads
	}
	if cfg.StartupWindow == 0 {
		cfg.StartupWindow = def.StartupWindow
	}
	if cfg.MoveTimeout == 0 {
		cfg.MoveTimeout = def.MoveTimeout
	}
	return &Engine{cfg: cfg, driver: driver}
}

// SetNotify installs an optional observability hook for non-move signals
// (replaced-at-origin, conflicting lift). Call before the first Tick.
func (e *Engine) SetNotify(fn func(Notification)) {
	e.notify = fn
}

// Pending reports the currently pending lift, if any.
func (e *Engine) Pending() (protocol.Square, bool) {
	return e.pending.Origin, e.pending.Active
}

// Stable reports the committed stable state of one square.
func (e *Engine) Stable(sq protocol.Square) bool {
	return e.sensors[sq].Stable
}

// Tick runs one scan cycle. Invocations earlier than the scan interval are
// skipped entirely; the interval is a hard floor, not a target. Returns the
// events produced by this cycle, usually none.
func (e *Engine) Tick(now time.Time) []Event {
	if !e.started {
		e.started = true
		e.firstTick = now
	} else if now.Sub(e.lastScan) < e.cfg.ScanInterval {
		return nil
	}
	e.lastScan = now

	e.scan(now, e.firstTick.Add(e.cfg.StartupWindow))
	return e.detect(now)
}

// scan samples all squares and folds the raw bits through the debouncer.
func (e *Engine) scan(now time.Time, startupEnd time.Time) {
	for i := 0; i < protocol.NumSquares; i++ {
		st := &e.sensors[i]
		raw, err := e.driver.ReadSquare(protocol.Square(i))
		if err != nil {
			// Treat a failed read as a repeat of the last sample so a
			// flaky channel cannot fabricate a transition.
			st.ChangedThisTick = false
			continue
		}
		st.debounce(raw, now, e.cfg, startupEnd)
	}
}
