package board

import (
	"testing"

	"chessarena/internal/server/core"
)

func TestParseSquare(t *testing.T) {
	tests := []struct {
		alg  string
		want Square
	}{
		{"a8", Square{Row: 0, Col: 0}},
		{"e2", Square{Row: 6, Col: 4}},
		{"h1", Square{Row: 7, Col: 7}},
		{"E4", Square{Row: 4, Col: 4}},
	}
	for _, tt := range tests {
		got, err := ParseSquare(tt.alg)
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", tt.alg, err)
		}
		if got != tt.want {
			t.Fatalf("ParseSquare(%q) = %+v, want %+v", tt.alg, got, tt.want)
		}
		if got.Index() != SquareFromIndex(got.Index()).Index() {
			t.Fatalf("index round trip failed for %s", tt.alg)
		}
	}

	for _, bad := range []string{"", "i1", "a9", "a0", "e22"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Fatalf("ParseSquare(%q) should fail", bad)
		}
	}
}

func TestSquareIndexMatchesA1Origin(t *testing.T) {
	if got := MustSquare("a1").Index(); got != 0 {
		t.Fatalf("a1 index = %d", got)
	}
	if got := MustSquare("h8").Index(); got != 63 {
		t.Fatalf("h8 index = %d", got)
	}
	if got := SquareFromIndex(12).String(); got != "e2" {
		t.Fatalf("index 12 = %s", got)
	}
}

func TestInitialMatchesStartingFEN(t *testing.T) {
	pos, err := ParseFEN(StartingFEN)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.Board != Initial() {
		t.Fatalf("starting FEN board differs from Initial()")
	}
	if pos.Turn != core.ColorWhite || pos.Castling != AllCastlingRights() || pos.EnPassant != nil {
		t.Fatalf("unexpected starting metadata: %+v", pos)
	}
	if got := pos.FEN(); got != StartingFEN {
		t.Fatalf("FEN round trip = %q", got)
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
		"8/2p5/3p4/KP5r/1R3p2/4P1P1/8/8 w - - 0 1",
		"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.FEN(); got != fen {
			t.Fatalf("round trip mismatch:\n got %q\nwant %q", got, fen)
		}
	}
}

func TestParseFENRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQxq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq z9 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - a 1",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); err == nil {
			t.Fatalf("ParseFEN(%q) should fail", fen)
		}
	}
}

func TestPieceSymbols(t *testing.T) {
	for _, ch := range []byte("PNBRQKpnbrqk") {
		p, ok := PieceFromSymbol(ch)
		if !ok {
			t.Fatalf("PieceFromSymbol(%q) failed", ch)
		}
		if p.Symbol() != ch {
			t.Fatalf("symbol round trip %q -> %q", ch, p.Symbol())
		}
	}
	if _, ok := PieceFromSymbol('x'); ok {
		t.Fatalf("PieceFromSymbol('x') should fail")
	}
}

func TestToASCII(t *testing.T) {
	b := Initial()
	ascii := b.ToASCII()
	want := "8 r n b q k b n r  8"
	if got := splitLine(ascii, 1); got != want {
		t.Fatalf("rank 8 line = %q, want %q", got, want)
	}
}

func splitLine(s string, n int) string {
	line := 0
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if line == n {
				return s[start:i]
			}
			line++
			start = i + 1
		}
	}
	return s[start:]
}
