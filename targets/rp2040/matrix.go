//go:build rp2040

package main

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"

	"boardlink/protocol"
)

// matrix reads the 64 reed switches through four MCP23017 I/O expanders on
// one I2C bus, sixteen squares per expander, in square order a1..h8.
type matrix struct {
	expanders [4]*mcp23017.Device
	cache     [4]mcp23017.Pins
	errs      [4]error
}

func newMatrix(bus drivers.I2C) (*matrix, error) {
	m := &matrix{}
	for i := range m.expanders {
		dev, err := mcp23017.NewI2C(bus, uint8(0x20+i))
		if err != nil {
			return nil, err
		}
		for pin := 0; pin < 16; pin++ {
			if err := dev.Pin(pin).SetMode(mcp23017.Input | mcp23017.Pullup); err != nil {
				return nil, err
			}
		}
		m.expanders[i] = dev
	}
	return m, nil
}

// ReadSquare returns the presence bit of one square. The engine scans squares
// in ascending order, so each expander's sixteen pins are fetched in one bus
// transaction when its first square is read and served from cache after that.
// A failed fetch fails all sixteen squares of the bank until the next refresh;
// stale bits must never masquerade as fresh samples.
func (m *matrix) ReadSquare(sq protocol.Square) (bool, error) {
	bank := int(sq) / 16
	pin := int(sq) % 16
	if pin == 0 {
		pins, err := m.expanders[bank].GetPins()
		m.errs[bank] = err
		if err == nil {
			m.cache[bank] = pins
		}
	}
	if err := m.errs[bank]; err != nil {
		return false, err
	}
	// Reed switches pull the line low when a magnetized piece is present.
	return !m.cache[bank].Get(pin), nil
}
