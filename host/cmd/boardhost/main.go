// boardhost runs the sensing core and motor link on a host machine.
//
// The motor controller is reached over a real serial device; the sensor
// matrix is simulated from stdin so the link protocol and detection logic
// can be exercised on a bench without board hardware:
//
//	set e2 1      press a piece onto e2
//	set e2 0      lift the piece off e2
//	move e7-e5    inject a remote move to execute physically
//	reset         press the reset button
//	quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"boardlink/config"
	"boardlink/core"
	"boardlink/host/journal"
	"boardlink/host/motor"
	"boardlink/host/serial"
	"boardlink/protocol"
)

// Publisher receives locally detected move events. The network bridge that
// forwards them to a remote game service lives outside this program.
type Publisher interface {
	PublishPhysicalMove(ev core.Event)
}

// logPublisher is the stand-in upstream boundary: it only prints.
type logPublisher struct{}

func (logPublisher) PublishPhysicalMove(ev core.Event) {
	switch ev.Kind {
	case core.EventMove:
		log.Printf("publish: move %s", ev.Move)
	case core.EventCancelled:
		log.Printf("publish: cancelled (timeout)")
	}
}

// simBoard is a stdin-driven sensor matrix.
type simBoard struct {
	mu   sync.Mutex
	bits [protocol.NumSquares]bool
}

func (b *simBoard) ReadSquare(sq protocol.Square) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bits[sq], nil
}

func (b *simBoard) set(sq protocol.Square, present bool) {
	b.mu.Lock()
	b.bits[sq] = present
	b.mu.Unlock()
}

// hostOutputs logs actuator transitions instead of driving pins.
type hostOutputs struct{}

func (hostOutputs) SetMagnet(on bool) error {
	log.Printf("output: magnet %v", on)
	return nil
}

func (hostOutputs) SetIndicator(on bool) error {
	log.Printf("output: indicator %v", on)
	return nil
}

func (hostOutputs) PulseMotorReset(d time.Duration) error {
	log.Printf("output: motor reset pulse %v", d)
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to JSON config file")
	device := flag.String("device", "", "serial device of the motor controller (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *device != "" {
		cfg.Device = *device
	}
	if cfg.Device == "" {
		log.Fatal("no serial device: pass -device or set device in the config")
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	serialCfg := serial.DefaultConfig(cfg.Device)
	serialCfg.Baud = cfg.Baud
	port, err := serial.Open(serialCfg)
	if err != nil {
		return fmt.Errorf("open link: %w", err)
	}

	tr := protocol.NewTransport(port)
	defer tr.Close()
	if cfg.Debug {
		tr.SetDebugWriter(func(s string) { log.Print(s) })
		core.SetDebugEnabled(true)
		core.SetDebugWriter(func(s string) { log.Print(s) })
	}

	var store *journal.Store
	if cfg.JournalPath != "" {
		store, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
	}
	ctx := context.Background()

	outputs := hostOutputs{}
	board := &simBoard{}

	engine := core.NewEngine(board, cfg.Timings())
	engine.SetNotify(func(n core.Notification) {
		switch n.Kind {
		case core.NoteReplacedAtOrigin:
			log.Printf("board: %s replaced at origin", n.Square)
			_ = store.Append(ctx, journal.KindReplacedAtOrigin, n.Square.String())
		case core.NoteConflictingLift:
			log.Printf("board: conflicting lift at %s ignored", n.Square)
			_ = store.Append(ctx, journal.KindConflictingLift, n.Square.String())
		}
	})

	ctrl := motor.NewController(tr, outputs, cfg.LinkConfig())
	ctrl.SetLogf(log.Printf)
	reset := motor.NewResetCoordinator(tr, outputs, func() {
		// A supervisor (systemd, launchd) restarts the process.
		log.Print("reset: restarting controller")
		os.Exit(1)
	}, cfg.ResetConfig())
	reset.SetLogf(log.Printf)

	// The two bounded handoffs between the sensor task and the link task.
	eventSlot := core.NewSlot[core.Event]()
	remoteSlot := core.NewSlot[protocol.Move]()
	resetSlot := core.NewSlot[struct{}]()

	// Sensor task: strictly periodic, never blocks.
	go func() {
		ticker := time.NewTicker(cfg.Timings().ScanInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			for _, ev := range engine.Tick(now) {
				if !eventSlot.Offer(ev) {
					log.Printf("board: link busy, dropping %v", ev)
				}
			}
		}
	}()

	// Link task: owns protocol and reset state, blocks only on bounded waits.
	go func() {
		publisher := logPublisher{}
		for {
			select {
			case ev := <-eventSlot.Recv():
				publisher.PublishPhysicalMove(ev)
				switch ev.Kind {
				case core.EventMove:
					_ = store.Append(ctx, journal.KindMove, ev.Move.String())
				case core.EventCancelled:
					_ = store.Append(ctx, journal.KindCancelled, "timeout")
				}

			case mv := <-remoteSlot.Recv():
				log.Printf("link: executing %s", mv)
				if err := ctrl.Dispatch(mv); err != nil {
					log.Printf("link: %v", err)
					_ = store.Append(ctx, journal.KindLinkFailure, mv.String())
					continue
				}
				log.Printf("link: %s completed", mv)

			case <-resetSlot.Recv():
				_ = store.Append(ctx, journal.KindReset, "button")
				reset.Run()
			}
		}
	}()

	return readCommands(os.Stdin, board, reset, remoteSlot, resetSlot)
}

// readCommands drives the simulated board and buttons from stdin.
func readCommands(in *os.File, board *simBoard, reset *motor.ResetCoordinator,
	remoteSlot *core.Slot[protocol.Move], resetSlot *core.Slot[struct{}]) error {

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "set":
			if len(fields) != 3 {
				log.Print("usage: set <square> <0|1>")
				continue
			}
			sq, err := protocol.ParseSquare(fields[1])
			if err != nil {
				log.Printf("set: %v", err)
				continue
			}
			board.set(sq, fields[2] == "1")

		case "move":
			if len(fields) != 2 {
				log.Print("usage: move <from>-<to>")
				continue
			}
			mv, err := protocol.ParseMove(fields[1])
			if err != nil {
				log.Printf("move: %v", err)
				continue
			}
			if !remoteSlot.Offer(mv) {
				log.Print("move: link busy, try again")
			}

		case "reset":
			if reset.Trigger(true, time.Now()) {
				resetSlot.Offer(struct{}{})
			}
			reset.Trigger(false, time.Now())

		case "quit", "exit":
			return nil

		default:
			log.Printf("unknown command %q", fields[0])
		}
	}
	return scanner.Err()
}
