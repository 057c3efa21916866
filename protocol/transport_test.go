package protocol

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// pipePort adapts an io.Pipe pair to the ReadWriteCloser the transport wants.
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written strings.Builder
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, w: w}
}

func (p *pipePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written.Write(b)
	return len(b), nil
}

func (p *pipePort) Close() error {
	p.r.Close()
	return p.w.Close()
}

func (p *pipePort) sent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func (p *pipePort) feed(t *testing.T, line string) {
	t.Helper()
	if _, err := p.w.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("feed %q: %v", line, err)
	}
}

func recvToken(t *testing.T, tr *Transport) Token {
	t.Helper()
	select {
	case tok := <-tr.Tokens():
		return tok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for token")
		return TokenInvalid
	}
}

func TestTransportParsesInboundTokens(t *testing.T) {
	port := newPipePort()
	tr := NewTransport(port)
	defer tr.Close()

	port.feed(t, "ARDUINO_RECEIVED")
	port.feed(t, "MAGNET_READY")
	port.feed(t, "MOVE_COMPLETED")

	for _, want := range []Token{TokenReceived, TokenMagnetReady, TokenMoveCompleted} {
		if got := recvToken(t, tr); got != want {
			t.Errorf("received %v, want %v", got, want)
		}
	}
}

func TestTransportIgnoresUnknownLines(t *testing.T) {
	port := newPipePort()
	tr := NewTransport(port)
	defer tr.Close()

	port.feed(t, "garbage line")
	port.feed(t, "")
	port.feed(t, "ARDUINO_READY\r")

	if got := recvToken(t, tr); got != TokenReady {
		t.Errorf("received %v, want TokenReady", got)
	}
}

func TestTransportWrites(t *testing.T) {
	port := newPipePort()
	tr := NewTransport(port)
	defer tr.Close()

	if err := tr.WriteMove(Move{From: 12, To: 28}); err != nil {
		t.Fatalf("WriteMove: %v", err)
	}
	if err := tr.WriteToken(TokenTest); err != nil {
		t.Fatalf("WriteToken: %v", err)
	}

	if got, want := port.sent(), "e2-e4\nESP32_TEST\n"; got != want {
		t.Errorf("wrote %q, want %q", got, want)
	}
}

func TestTransportOverflowDropsOldest(t *testing.T) {
	port := newPipePort()
	tr := NewTransport(port)
	defer tr.Close()

	// Saturate the queue well past its capacity. The newest tokens win.
	for i := 0; i < 40; i++ {
		port.feed(t, "MAGNET_ON")
	}
	port.feed(t, "MOVE_COMPLETED")

	// Give the read loop time to drain the pipe.
	deadline := time.Now().Add(time.Second)
	var last Token
	for time.Now().Before(deadline) {
		select {
		case last = <-tr.Tokens():
			if last == TokenMoveCompleted {
				return
			}
		default:
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatalf("never saw the newest token, last was %v", last)
}
