package motor

import (
	"time"

	"boardlink/core"
	"boardlink/protocol"
)

// ResetConfig holds the reset sequence tuning.
type ResetConfig struct {
	TriggerDebounce time.Duration // min spacing between accepted triggers
	InterSendPause  time.Duration // pause between reset token variants
	AckTimeout      time.Duration // wait for the readiness acknowledgment
	HardResetPulse  time.Duration // width of the hardware reset pulse
}

// DefaultResetConfig returns the stock reset tuning.
func DefaultResetConfig() ResetConfig {
	return ResetConfig{
		TriggerDebounce: 300 * time.Millisecond,
		InterSendPause:  100 * time.Millisecond,
		AckTimeout:      1500 * time.Millisecond,
		HardResetPulse:  50 * time.Millisecond,
	}
}

// ResetCoordinator resynchronizes the motor controller after a failure.
// It shares the transport with the link controller but runs independently,
// triggered by a debounced button edge.
type ResetCoordinator struct {
	tr      *protocol.Transport
	outputs core.OutputDriver
	cfg     ResetConfig

	edge    *core.EdgeDebouncer
	restart func()

	sleep func(time.Duration)
	logf  func(format string, args ...any)
}

// NewResetCoordinator creates a coordinator. restart is invoked
// unconditionally at the end of every reset run; on hardware it reboots the
// sensing controller, on a host it typically exits so a supervisor restarts
// the process. Zero cfg fields are filled from DefaultResetConfig.
func NewResetCoordinator(tr *protocol.Transport, outputs core.OutputDriver, restart func(), cfg ResetConfig) *ResetCoordinator {
	def := DefaultResetConfig()
	if cfg.TriggerDebounce == 0 {
		cfg.TriggerDebounce = def.TriggerDebounce
	}
	if cfg.InterSendPause == 0 {
		cfg.InterSendPause = def.InterSendPause
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = def.AckTimeout
	}
	if cfg.HardResetPulse == 0 {
		cfg.HardResetPulse = def.HardResetPulse
	}
	return &ResetCoordinator{
		tr:      tr,
		outputs: outputs,
		cfg:     cfg,
		edge:    core.NewEdgeDebouncer(cfg.TriggerDebounce),
		restart: restart,
		sleep:   time.Sleep,
		logf:    func(string, ...any) {},
	}
}

// SetLogf installs a diagnostics printf.
func (r *ResetCoordinator) SetLogf(logf func(format string, args ...any)) {
	r.logf = logf
}

// Trigger feeds the raw reset-button state. Returns true on a debounced
// rising edge, i.e. when the caller should invoke Run.
func (r *ResetCoordinator) Trigger(pressed bool, now time.Time) bool {
	return r.edge.RisingEdge(pressed, now)
}

// resetTokens is the ordered compatibility set sent to the remote. Multiple
// variants are sent unconditionally because the remote firmware revision is
// unknown; each revision understands at least one of them.
var resetTokens = []protocol.Token{
	protocol.TokenResetArduino,
	protocol.TokenSystemReset,
	protocol.TokenRestart,
}

// Run executes the full resynchronization sequence. It always ends in the
// injected restart; recovery favors a deterministic restart over an
// uncertain wait. Returns whether the remote acknowledged readiness, for
// logging by callers that outlive the restart (tests, supervisors).
func (r *ResetCoordinator) Run() bool {
	// Safety first: all actuator and indicator outputs off, regardless of
	// whatever state the link protocol thinks it is in.
	core.SafeOutputs(r.outputs)

	for _, tok := range resetTokens {
		if err := r.tr.WriteToken(tok); err != nil {
			r.logf("reset: send %s: %v", tok, err)
		}
		r.sleep(r.cfg.InterSendPause)
	}

	if err := r.tr.WriteToken(protocol.TokenTest); err != nil {
		r.logf("reset: send %s: %v", protocol.TokenTest, err)
	}
	acked := r.awaitReady()

	if !acked {
		// Fall back to the dedicated hardware reset line. Non-fatal if
		// the board has none wired; the restart below happens anyway.
		r.logf("reset: remote unacknowledged, pulsing hardware reset")
		if err := r.outputs.PulseMotorReset(r.cfg.HardResetPulse); err != nil {
			r.logf("reset: hardware pulse: %v", err)
		}
	}

	r.restart()
	return acked
}

func (r *ResetCoordinator) awaitReady() bool {
	timer := time.NewTimer(r.cfg.AckTimeout)
	defer timer.Stop()

	for {
		select {
		case tok, ok := <-r.tr.Tokens():
			if !ok {
				return false
			}
			if tok == protocol.TokenReady {
				return true
			}
			// Drain stale session tokens; only readiness counts.

		case <-timer.C:
			return false
		}
	}
}
