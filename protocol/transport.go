package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// DebugWriter receives transport-level diagnostics (unparseable lines,
// overflow drops). Optional.
type DebugWriter func(string)

// Transport frames the newline-delimited token stream over a serial port.
// A background goroutine reads lines and parses them into Tokens; writers
// are serialized by a mutex so the link task's handshake writes and the reset
// coordinator never interleave bytes on the half-duplex link.
type Transport struct {
	port io.ReadWriteCloser

	tokens chan Token

	writeMu sync.Mutex
	debug   DebugWriter

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewTransport starts a transport over an open port.
func NewTransport(port io.ReadWriteCloser) *Transport {
	t := &Transport{
		port:     port,
		tokens:   make(chan Token, 16),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SetDebugWriter sets an optional diagnostics sink. Call before traffic flows.
func (t *Transport) SetDebugWriter(w DebugWriter) {
	t.debug = w
}

// Tokens returns the inbound control-token stream.
func (t *Transport) Tokens() <-chan Token {
	return t.tokens
}

// WriteToken sends a control token followed by a newline.
func (t *Transport) WriteToken(tok Token) error {
	return t.writeLine(tok.String())
}

// WriteMove sends a move token like "e2-e4" followed by a newline.
func (t *Transport) WriteMove(mv Move) error {
	return t.writeLine(mv.String())
}

func (t *Transport) writeLine(line string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	data := []byte(line + "\n")
	n, err := t.port.Write(data)
	if err != nil {
		return fmt.Errorf("write %q: %w", line, err)
	}
	if n != len(data) {
		return fmt.Errorf("write %q: incomplete write: %d/%d bytes", line, n, len(data))
	}
	return nil
}

// readLoop reads lines until the port fails or Close is called. The token
// channel is closed on exit so consumers blocked in a handshake wake up.
func (t *Transport) readLoop() {
	defer func() {
		close(t.tokens)
		close(t.doneChan)
	}()

	scanner := bufio.NewScanner(t.port)
	for scanner.Scan() {
		select {
		case <-t.stopChan:
			return
		default:
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		tok, ok := ParseToken(line)
		if !ok {
			if t.debug != nil {
				t.debug("transport: dropping unknown line " + line)
			}
			continue
		}
		t.dispatch(tok)
	}
}

// dispatch delivers a token without ever blocking the read loop. On overflow
// the oldest queued token is dropped in favor of the newest.
func (t *Transport) dispatch(tok Token) {
	select {
	case t.tokens <- tok:
	default:
		select {
		case <-t.tokens:
		default:
		}
		select {
		case t.tokens <- tok:
		default:
		}
		if t.debug != nil {
			t.debug("transport: token queue overflow, dropped oldest")
		}
	}
}

// Close stops the read loop and closes the port.
func (t *Transport) Close() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}
