// Hardware abstraction for the board's presence sensors.
// Target-specific code (I/O expanders, multiplexers) registers a driver;
// core logic only ever sees per-square boolean reads.
package core

import "boardlink/protocol"

// SensorDriver reads the raw presence bit of one square.
// Implementations must be safe to call from the sensor task only.
type SensorDriver interface {
	ReadSquare(sq protocol.Square) (bool, error)
}

// Global singleton used by target code.
var sensorDriver SensorDriver

// SetSensorDriver is called by target-specific code to register its driver.
func SetSensorDriver(d SensorDriver) {
	sensorDriver = d
}

// MustSensors returns the configured driver or panics if missing.
func MustSensors() SensorDriver {
	if sensorDriver == nil {
		panic("sensor driver not configured")
	}
	return sensorDriver
}
