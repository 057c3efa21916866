// Motor-controller link: the lock-step handshake that sequences magnet
// activation and physical piece transport, and the reset coordinator that
// resynchronizes the remote after a failure.
//
// Runs on the link task only. The protocol holds at most one in-flight
// session; callers queue or drop at their own discretion.
package motor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"boardlink/core"
	"boardlink/protocol"
)

// State is the link protocol state, exposed for diagnostics.
type State uint8

const (
	StateIdle State = iota
	StateAwaitingReceipt
	StateAwaitingMagnetReady
	StateAwaitingCompletion
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReceipt:
		return "awaiting-receipt"
	case StateAwaitingMagnetReady:
		return "awaiting-magnet-ready"
	case StateAwaitingCompletion:
		return "awaiting-completion"
	}
	return "unknown"
}

var (
	// ErrBusy is returned when Dispatch is called outside Idle.
	ErrBusy = errors.New("motor link busy")

	// ErrLinkFailure is returned after the retry budget is exhausted.
	// It is the only link condition surfaced for explicit handling.
	ErrLinkFailure = errors.New("motor link failure")
)

// Config holds the link protocol tuning.
type Config struct {
	StageTimeout time.Duration // per-handshake-stage deadline
	RetryLimit   int           // resend budget per stage
}

// DefaultConfig returns the stock link tuning.
func DefaultConfig() Config {
	return Config{
		StageTimeout: 5000 * time.Millisecond,
		RetryLimit:   3,
	}
}

// Controller drives the move handshake against the motor controller.
type Controller struct {
	tr      *protocol.Transport
	outputs core.OutputDriver
	cfg     Config

	mu    sync.Mutex
	state State

	logf func(format string, args ...any)
}

// NewController creates a link controller. Zero cfg fields are filled from
// DefaultConfig.
func NewController(tr *protocol.Transport, outputs core.OutputDriver, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.StageTimeout == 0 {
		cfg.StageTimeout = def.StageTimeout
	}
	if cfg.RetryLimit == 0 {
		cfg.RetryLimit = def.RetryLimit
	}
	return &Controller{
		tr:      tr,
		outputs: outputs,
		cfg:     cfg,
		logf:    func(string, ...any) {},
	}
}

// SetLogf installs a diagnostics printf. Call before dispatching.
func (c *Controller) SetLogf(logf func(format string, args ...any)) {
	c.logf = logf
}

// State returns the current protocol state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch sends a move to the motor controller and drives the handshake to
// completion. Accepted only in Idle; blocks until success or failure. On any
// failure the magnet output is forcibly deasserted, the session is destroyed
// and the state returns to Idle before ErrLinkFailure is returned: an
// actuator is never left energized.
func (c *Controller) Dispatch(mv protocol.Move) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateAwaitingReceipt
	c.mu.Unlock()

	defer c.setState(StateIdle)

	err := c.runHandshake(mv)
	if err != nil {
		// Safety: never leave the magnet energized on a failed session.
		_ = c.outputs.SetMagnet(false)
		c.logf("motor: %s failed: %v", mv, err)
		return fmt.Errorf("dispatch %s: %w", mv, ErrLinkFailure)
	}
	return nil
}

func (c *Controller) runHandshake(mv protocol.Move) error {
	if err := c.tr.WriteMove(mv); err != nil {
		return err
	}

	if err := c.awaitToken(protocol.TokenReceived, mv); err != nil {
		return err
	}
	c.setState(StateAwaitingMagnetReady)

	if err := c.awaitToken(protocol.TokenMagnetReady, mv); err != nil {
		return err
	}

	// Magnet window opens on the magnet-ready cue and closes on completion.
	if err := c.outputs.SetMagnet(true); err != nil {
		return err
	}
	c.setState(StateAwaitingCompletion)

	if err := c.awaitToken(protocol.TokenMoveCompleted, mv); err != nil {
		return err
	}
	return c.outputs.SetMagnet(false)
}

// awaitToken waits for the wanted token within the stage timeout, resending
// the move token on each timeout up to the retry budget. Magnet on/off
// commands from the remote are honored at any stage; other tokens are stale
// leftovers from a previous session and are ignored.
func (c *Controller) awaitToken(want protocol.Token, mv protocol.Move) error {
	for attempt := 0; ; attempt++ {
		timer := time.NewTimer(c.cfg.StageTimeout)

	stage:
		for {
			select {
			case tok, ok := <-c.tr.Tokens():
				if !ok {
					timer.Stop()
					return errors.New("transport closed")
				}
				switch tok {
				case want:
					timer.Stop()
					return nil
				case protocol.TokenMagnetOn:
					_ = c.outputs.SetMagnet(true)
				case protocol.TokenMagnetOff:
					_ = c.outputs.SetMagnet(false)
				default:
					c.logf("motor: ignoring %s while %s", tok, c.State())
				}

			case <-timer.C:
				break stage
			}
		}

		if attempt >= c.cfg.RetryLimit {
			return fmt.Errorf("no %s after %d attempts", want, attempt+1)
		}
		c.logf("motor: stage timeout, resending %s (attempt %d)", mv, attempt+1)
		if err := c.tr.WriteMove(mv); err != nil {
			return err
		}
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
