package rules

import (
	"testing"

	"chessarena/internal/server/board"
)

var underpromotions = []board.PieceType{board.Rook, board.Bishop, board.Knight}

// perft counts leaf nodes, expanding every promotion into its four choices
func perft(t *testing.T, s GameState, depth int) int {
	t.Helper()
	if depth == 0 {
		return 1
	}
	total := 0
	for _, m := range AllLegalMoves(s) {
		inputs := []MoveInput{m.Input()}
		if m.Promotion != board.NoPiece {
			for _, p := range underpromotions {
				inputs = append(inputs, MoveInput{From: m.From, To: m.To, Promotion: p})
			}
		}
		for _, in := range inputs {
			next, err := ApplyMove(s, in)
			if err != nil {
				t.Fatalf("ApplyMove(%s): %v", m.UCI(), err)
			}
			total += perft(t, next, depth-1)
		}
	}
	return total
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  int
		long  bool
	}{
		{"start d1", board.StartingFEN, 1, 20, false},
		{"start d2", board.StartingFEN, 2, 400, false},
		{"start d3", board.StartingFEN, 3, 8902, true},
		{"kiwipete d1", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 1, 48, false},
		{"kiwipete d2", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, 2039, true},
		{"endgame d1", "8/2p5/3p4/KP5r/1R3p2/4P1P1/8/8 w - - 0 1", 1, 14, false},
		{"endgame d2", "8/2p5/3p4/KP5r/1R3p2/4P1P1/8/8 w - - 0 1", 2, 191, false},
		{"promotions d1", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", 1, 6, false},
		{"promotions d2", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", 2, 264, false},
		{"discovered d1", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", 1, 44, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.long && testing.Short() {
				t.Skip("skipping deep perft in short mode")
			}
			if got := perft(t, mustFEN(t, tt.fen), tt.depth); got != tt.want {
				t.Errorf("perft = %d, want %d", got, tt.want)
			}
		})
	}
}
