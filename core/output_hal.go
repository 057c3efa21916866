package core

import "time"

// OutputDriver controls the local actuator and indicator outputs.
// Every failure path in the system converges on all outputs deasserted, so
// implementations must make Set*(false) unconditional best-effort.
type OutputDriver interface {
	// SetMagnet asserts or deasserts the electromagnet output.
	SetMagnet(on bool) error

	// SetIndicator asserts or deasserts the status indicator output.
	SetIndicator(on bool) error

	// PulseMotorReset pulses the hardware reset line of the motor
	// controller for the given duration.
	PulseMotorReset(d time.Duration) error
}

// Global singleton used by target code.
var outputDriver OutputDriver

// SetOutputDriver is called by target-specific code to register its driver.
func SetOutputDriver(d OutputDriver) {
	outputDriver = d
}

// MustOutputs returns the configured driver or panics if missing.
func MustOutputs() OutputDriver {
	if outputDriver == nil {
		panic("output driver not configured")
	}
	return outputDriver
}

// SafeOutputs deasserts every output, ignoring errors. Used on shutdown and
// at the start of a reset sequence.
func SafeOutputs(d OutputDriver) {
	_ = d.SetMagnet(false)
	_ = d.SetIndicator(false)
}
