package rules

import (
	"testing"
)

func mustFEN(t *testing.T, fen string) GameState {
	t.Helper()
	s, err := FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return s
}

func mustApply(t *testing.T, s GameState, moves ...string) GameState {
	t.Helper()
	for _, uci := range moves {
		in, err := ParseMoveInput(uci)
		if err != nil {
			t.Fatalf("ParseMoveInput(%q): %v", uci, err)
		}
		next, err := ApplyMove(s, in)
		if err != nil {
			t.Fatalf("ApplyMove(%s): %v", uci, err)
		}
		s = next
	}
	return s
}

// playout advances s by a fixed pattern of legal moves so tests reach varied positions
func playout(t *testing.T, s GameState, plies int) GameState {
	t.Helper()
	for ply := 0; ply < plies; ply++ {
		moves := AllLegalMoves(s)
		if len(moves) == 0 {
			break
		}
		m := moves[(ply*7+3)%len(moves)]
		next, err := ApplyMove(s, m.Input())
		if err != nil {
			t.Fatalf("ply %d ApplyMove(%s): %v", ply, m.UCI(), err)
		}
		if next.IsOver() {
			return next
		}
		s = next
	}
	return s
}

func containsSquare(list []string, sq string) bool {
	for _, s := range list {
		if s == sq {
			return true
		}
	}
	return false
}
