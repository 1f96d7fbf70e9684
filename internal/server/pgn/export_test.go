package pgn

import (
	"strings"
	"testing"

	"chessarena/internal/server/board"
	"chessarena/internal/server/rules"
)

func played(t *testing.T, fen string, moves ...string) []rules.SerializedMove {
	t.Helper()
	s, err := rules.FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	for _, uci := range moves {
		in, err := rules.ParseMoveInput(uci)
		if err != nil {
			t.Fatalf("ParseMoveInput(%q): %v", uci, err)
		}
		if s, err = rules.ApplyMove(s, in); err != nil {
			t.Fatalf("ApplyMove(%s): %v", uci, err)
		}
	}
	return rules.SerializeAll(s.MoveHistory)
}

func TestRenderFoolsMate(t *testing.T) {
	moves := played(t, board.StartingFEN, "f2f3", "e7e5", "g2g4", "d8h4")
	out, err := Render(board.StartingFEN, moves, map[string]string{"Event": "test"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Outcome != "0-1" {
		t.Fatalf("Outcome = %s, want 0-1", out.Outcome)
	}
	for _, want := range []string{"f3", "e5", "g4", "Qh4#", "0-1", `[Event "test"]`} {
		if !strings.Contains(out.PGN, want) {
			t.Fatalf("PGN missing %q:\n%s", want, out.PGN)
		}
	}
}

func TestRenderOngoingFromCustomStart(t *testing.T) {
	fen := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	moves := played(t, fen, "e1g1", "e8c8")
	out, err := Render(fen, moves, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Outcome != "*" {
		t.Fatalf("Outcome = %s, want *", out.Outcome)
	}
	for _, want := range []string{"O-O", "O-O-O", `[FEN "` + fen + `"]`} {
		if !strings.Contains(out.PGN, want) {
			t.Fatalf("PGN missing %q:\n%s", want, out.PGN)
		}
	}
}

func TestRenderRejectsBadList(t *testing.T) {
	moves := played(t, board.StartingFEN, "e2e4")
	moves[0].To = board.MustSquare("e5")
	if _, err := Render(board.StartingFEN, moves, nil); !rules.IsReplayError(err) {
		t.Fatalf("Render error = %v, want replay error", err)
	}
}

func TestRenderFiftyMoveDraw(t *testing.T) {
	const fen = "4k3/8/8/8/8/8/8/R3K3 w - - 99 80"
	moves := played(t, fen, "a1a2")
	out, err := Render(fen, moves, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Outcome != "1/2-1/2" {
		t.Fatalf("Outcome = %s, want 1/2-1/2", out.Outcome)
	}
	for _, want := range []string{"Ra2", `[Result "1/2-1/2"]`, `[FEN "` + fen + `"]`} {
		if !strings.Contains(out.PGN, want) {
			t.Fatalf("PGN missing %q:\n%s", want, out.PGN)
		}
	}
}
