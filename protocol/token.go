// Wire data model for the sensing <-> motor controller link.
// The link carries newline-delimited, case-sensitive text tokens; everything
// is parsed into closed types at this boundary so the state machines upstream
// never dispatch on raw text.
package protocol

import (
	"errors"
	"fmt"
)

// NumSquares is the number of board positions.
const NumSquares = 64

// Square identifies one board position, 0-63, a1=0 .. h8=63.
type Square uint8

// Valid reports whether the square index is on the board.
func (s Square) Valid() bool {
	return s < NumSquares
}

// File returns the file letter 'a'-'h'.
func (s Square) File() byte {
	return 'a' + byte(s%8)
}

// Rank returns the rank digit '1'-'8'.
func (s Square) Rank() byte {
	return '1' + byte(s/8)
}

// String returns the algebraic form, e.g. "e2".
func (s Square) String() string {
	if !s.Valid() {
		return "??"
	}
	return string([]byte{s.File(), s.Rank()})
}

// ParseSquare parses an algebraic square like "e2".
func ParseSquare(text string) (Square, error) {
	if len(text) != 2 {
		return 0, fmt.Errorf("invalid square %q", text)
	}
	file := text[0]
	rank := text[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return 0, fmt.Errorf("invalid square %q", text)
	}
	return Square(rank-'1')*8 + Square(file-'a'), nil
}

// Move is one physical piece relocation.
type Move struct {
	From Square
	To   Square
}

// String returns the wire form, e.g. "e2-e4".
func (m Move) String() string {
	return m.From.String() + "-" + m.To.String()
}

// ParseMove parses a wire move token like "e2-e4".
func ParseMove(text string) (Move, error) {
	if len(text) != 5 || text[2] != '-' {
		return Move{}, fmt.Errorf("invalid move token %q", text)
	}
	from, err := ParseSquare(text[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(text[3:])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to}, nil
}

// Token is one control token on the link.
type Token uint8

const (
	TokenInvalid Token = iota

	// Inbound (motor controller -> sensing controller)
	TokenReceived      // ARDUINO_RECEIVED
	TokenMagnetOn      // MAGNET_ON
	TokenMagnetReady   // MAGNET_READY
	TokenMagnetOff     // MAGNET_OFF
	TokenMoveCompleted // MOVE_COMPLETED
	TokenReady         // ARDUINO_READY

	// Outbound (sensing controller -> motor controller)
	TokenResetArduino // RESET_ARDUINO
	TokenSystemReset  // SYSTEM_RESET
	TokenRestart      // RESTART
	TokenTest         // ESP32_TEST
)

var tokenText = map[Token]string{
	TokenReceived:      "ARDUINO_RECEIVED",
	TokenMagnetOn:      "MAGNET_ON",
	TokenMagnetReady:   "MAGNET_READY",
	TokenMagnetOff:     "MAGNET_OFF",
	TokenMoveCompleted: "MOVE_COMPLETED",
	TokenReady:         "ARDUINO_READY",
	TokenResetArduino:  "RESET_ARDUINO",
	TokenSystemReset:   "SYSTEM_RESET",
	TokenRestart:       "RESTART",
	TokenTest:          "ESP32_TEST",
}

var textToken = func() map[string]Token {
	m := make(map[string]Token, len(tokenText))
	for tok, text := range tokenText {
		m[text] = tok
	}
	return m
}()

// ErrUnknownToken reports a line that is neither a control token nor a move.
var ErrUnknownToken = errors.New("unknown token")

// String returns the wire text of a control token.
func (t Token) String() string {
	if text, ok := tokenText[t]; ok {
		return text
	}
	return "INVALID"
}

// ParseToken parses a control token. Matching is exact and case-sensitive.
func ParseToken(text string) (Token, bool) {
	tok, ok := textToken[text]
	return tok, ok
}
