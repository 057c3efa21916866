package protocol

import "testing"

func TestSquareRoundTrip(t *testing.T) {
	for i := 0; i < NumSquares; i++ {
		sq := Square(i)
		parsed, err := ParseSquare(sq.String())
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", sq.String(), err)
		}
		if parsed != sq {
			t.Errorf("square %d round-tripped to %d", sq, parsed)
		}
	}
}

func TestSquareAlgebraic(t *testing.T) {
	tests := []struct {
		text   string
		square Square
	}{
		{"a1", 0},
		{"h1", 7},
		{"e2", 12},
		{"e4", 28},
		{"a8", 56},
		{"h8", 63},
	}
	for _, tt := range tests {
		sq, err := ParseSquare(tt.text)
		if err != nil {
			t.Errorf("ParseSquare(%q): %v", tt.text, err)
			continue
		}
		if sq != tt.square {
			t.Errorf("ParseSquare(%q) = %d, want %d", tt.text, sq, tt.square)
		}
		if got := tt.square.String(); got != tt.text {
			t.Errorf("Square(%d).String() = %q, want %q", tt.square, got, tt.text)
		}
	}
}

func TestParseSquareInvalid(t *testing.T) {
	for _, text := range []string{"", "e", "e9", "i2", "E2", "e22"} {
		if _, err := ParseSquare(text); err == nil {
			t.Errorf("ParseSquare(%q) succeeded, want error", text)
		}
	}
}

func TestParseMove(t *testing.T) {
	mv, err := ParseMove("e2-e4")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if mv.From.String() != "e2" || mv.To.String() != "e4" {
		t.Errorf("ParseMove(\"e2-e4\") = %v", mv)
	}
	if mv.String() != "e2-e4" {
		t.Errorf("Move.String() = %q", mv.String())
	}

	for _, text := range []string{"", "e2e4", "e2_e4", "e2-e9", "x2-e4", "e2-e4 "} {
		if _, err := ParseMove(text); err == nil {
			t.Errorf("ParseMove(%q) succeeded, want error", text)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := []Token{
		TokenReceived, TokenMagnetOn, TokenMagnetReady, TokenMagnetOff,
		TokenMoveCompleted, TokenReady, TokenResetArduino, TokenSystemReset,
		TokenRestart, TokenTest,
	}
	for _, tok := range tokens {
		parsed, ok := ParseToken(tok.String())
		if !ok {
			t.Errorf("ParseToken(%q) failed", tok.String())
			continue
		}
		if parsed != tok {
			t.Errorf("token %v round-tripped to %v", tok, parsed)
		}
	}
}

func TestParseTokenCaseSensitive(t *testing.T) {
	if _, ok := ParseToken("arduino_received"); ok {
		t.Error("lower-case token accepted, matching must be case-sensitive")
	}
	if _, ok := ParseToken("NOT_A_TOKEN"); ok {
		t.Error("unknown token accepted")
	}
}
