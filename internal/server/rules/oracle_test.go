package rules

import (
	"sort"
	"testing"

	"chessarena/internal/server/board"

	"github.com/dylhunn/dragontoothmg"
)

// oracleMoves lists from-to pairs as reported by an independent bitboard generator
func oracleMoves(fen string) []string {
	b := dragontoothmg.ParseFen(fen)
	seen := make(map[string]bool)
	var out []string
	for _, mv := range b.GenerateLegalMoves() {
		from := board.SquareFromIndex(int(mv.From()))
		to := board.SquareFromIndex(int(mv.To()))
		key := from.String() + to.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func ownMoves(s GameState) []string {
	var out []string
	for _, m := range AllLegalMoves(s) {
		out = append(out, m.From.String()+m.To.String())
	}
	sort.Strings(out)
	return out
}

func compareWithOracle(t *testing.T, s GameState) {
	t.Helper()
	fen := s.FEN()
	want := oracleMoves(fen)
	got := ownMoves(s)
	if len(got) != len(want) {
		t.Fatalf("%s: %d moves, oracle %d\n got  %v\n want %v", fen, len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s: move lists differ at %d\n got  %v\n want %v", fen, i, got, want)
		}
	}
}

func TestMoveGenerationMatchesOracle(t *testing.T) {
	fens := []string{
		board.StartingFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p2/4P1P1/8/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	}

	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			s := mustFEN(t, fen)
			for ply := 0; ply < 24 && !s.IsOver(); ply++ {
				compareWithOracle(t, s)
				s = playout(t, s, 1+ply%3)
			}
		})
	}
}
