//go:build rp2040

// Board controller firmware for RP2040-based sensing boards.
//
// Pinout:
//
//	I2C0 SDA/SCL    MCP23017 expanders 0x20-0x23 (reed switch matrix)
//	UART0 TX/RX     motor controller link
//	GP15            electromagnet driver
//	GP16            status indicator
//	GP17            motor controller hardware reset (active low)
//	GP18            reset button (active low, internal pull-up)
package main

import (
	"machine"
	"time"

	"boardlink/core"
	"boardlink/host/motor"
	"boardlink/protocol"
)

const (
	magnetPin      = machine.GP15
	indicatorPin   = machine.GP16
	motorResetPin  = machine.GP17
	resetButtonPin = machine.GP18
)

// boardOutputs drives the local actuator pins.
type boardOutputs struct{}

func (boardOutputs) SetMagnet(on bool) error {
	magnetPin.Set(on)
	return nil
}

func (boardOutputs) SetIndicator(on bool) error {
	indicatorPin.Set(on)
	return nil
}

func (boardOutputs) PulseMotorReset(d time.Duration) error {
	motorResetPin.Low()
	time.Sleep(d)
	motorResetPin.High()
	return nil
}

// uartPort adapts the UART to the blocking ReadWriteCloser the transport
// expects. machine.UART reads return immediately when the FIFO is empty, so
// Read parks until at least one byte arrives.
type uartPort struct {
	uart *machine.UART
}

func (p *uartPort) Read(b []byte) (int, error) {
	for {
		if n, err := p.uart.Read(b); n > 0 || err != nil {
			return n, err
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *uartPort) Write(b []byte) (int, error) { return p.uart.Write(b) }

func (p *uartPort) Close() error { return nil }

func main() {
	magnetPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	indicatorPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	motorResetPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	motorResetPin.High()
	resetButtonPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	outputs := boardOutputs{}
	core.SetOutputDriver(outputs)
	core.SafeOutputs(outputs)

	core.SetDebugWriter(func(s string) { println(s) })

	uart := machine.UART0
	if err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		fatal("uart: " + err.Error())
	}

	if err := machine.I2C0.Configure(machine.I2CConfig{}); err != nil {
		fatal("i2c: " + err.Error())
	}
	board, err := newMatrix(machine.I2C0)
	if err != nil {
		fatal("matrix: " + err.Error())
	}
	core.SetSensorDriver(board)

	tr := protocol.NewTransport(&uartPort{uart: uart})
	ctrl := motor.NewController(tr, outputs, motor.Config{})
	reset := motor.NewResetCoordinator(tr, outputs, machine.CPUReset, motor.ResetConfig{})

	eventSlot := core.NewSlot[core.Event]()
	remoteSlot := core.NewSlot[protocol.Move]()
	resetSlot := core.NewSlot[struct{}]()

	// Sensor task: periodic scan, never blocks.
	go func() {
		engine := core.NewEngine(core.MustSensors(), core.Timings{})
		interval := core.DefaultTimings().ScanInterval
		for {
			for _, ev := range engine.Tick(time.Now()) {
				if !eventSlot.Offer(ev) {
					core.DebugPrintln("board: link busy, event dropped")
				}
			}
			time.Sleep(interval)
		}
	}()

	// Link task: handshake and reset state, bounded waits only.
	go func() {
		for {
			select {
			case ev := <-eventSlot.Recv():
				publish(ev)

			case mv := <-remoteSlot.Recv():
				if err := ctrl.Dispatch(mv); err != nil {
					core.DebugPrintln("link: " + err.Error())
					_ = outputs.SetIndicator(true)
				}

			case <-resetSlot.Recv():
				reset.Run()
			}
		}
	}()

	// Upstream bridge: the USB console carries remote moves to execute,
	// one move token per line.
	go func() {
		var line []byte
		for {
			if machine.Serial.Buffered() == 0 {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			c, err := machine.Serial.ReadByte()
			if err != nil {
				continue
			}
			if c != '\n' && c != '\r' {
				if len(line) < 16 {
					line = append(line, c)
				}
				continue
			}
			if len(line) > 0 {
				if mv, err := protocol.ParseMove(string(line)); err == nil {
					if !remoteSlot.Offer(mv) {
						core.DebugPrintln("link busy, move dropped")
					}
				}
				line = line[:0]
			}
		}
	}()

	// Main loop: poll the reset button.
	for {
		pressed := !resetButtonPin.Get()
		if reset.Trigger(pressed, time.Now()) {
			resetSlot.Offer(struct{}{})
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// publish hands a detected move to the upstream bridge. On this firmware the
// bridge is the USB console; a companion process forwards it.
func publish(ev core.Event) {
	switch ev.Kind {
	case core.EventMove:
		println("MOVE " + ev.Move.String())
	case core.EventCancelled:
		println("MOVE_CANCELLED")
	}
}

func fatal(msg string) {
	for {
		println(msg)
		time.Sleep(time.Second)
	}
}
