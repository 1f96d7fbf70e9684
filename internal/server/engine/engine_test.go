package engine

import (
	"math/rand"
	"testing"

	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
	"chessarena/internal/server/rules"
)

func mustFEN(t *testing.T, fen string) rules.GameState {
	t.Helper()
	s, err := rules.FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return s
}

func mustApply(t *testing.T, s rules.GameState, moves ...string) rules.GameState {
	t.Helper()
	for _, uci := range moves {
		in, err := rules.ParseMoveInput(uci)
		if err != nil {
			t.Fatalf("ParseMoveInput(%q): %v", uci, err)
		}
		if s, err = rules.ApplyMove(s, in); err != nil {
			t.Fatalf("ApplyMove(%s): %v", uci, err)
		}
	}
	return s
}

func isLegal(s rules.GameState, m rules.Move) bool {
	for _, lm := range rules.AllLegalMoves(s) {
		if lm.From == m.From && lm.To == m.To {
			return true
		}
	}
	return false
}

func TestSearchDepth(t *testing.T) {
	tests := []struct {
		d    core.Difficulty
		want int
	}{
		{core.DifficultyEasy, 0},
		{core.DifficultyNormal, 0},
		{core.DifficultyHard, 1},
		{core.DifficultyVeryHard, 2},
		{core.DifficultyImpossible, 3},
		{core.Difficulty("grandmaster"), 0},
	}
	for _, tt := range tests {
		if got := SearchDepth(tt.d); got != tt.want {
			t.Errorf("SearchDepth(%s) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	start := board.Initial()
	if got := Evaluate(&start); got != 0 {
		t.Fatalf("Evaluate(start) = %d, want 0", got)
	}
	s := mustFEN(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")
	if got := Evaluate(&s.Board); got != 9 {
		t.Fatalf("Evaluate(queen up) = %d, want 9", got)
	}
	s = mustFEN(t, "r3k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if got := Evaluate(&s.Board); got != -5 {
		t.Fatalf("Evaluate(black rook up) = %d, want -5", got)
	}
}

func TestEasyReturnsLegalMove(t *testing.T) {
	bot := NewBot(rand.NewSource(1))
	s := rules.NewGame()
	for ply := 0; ply < 40 && !s.IsOver(); ply++ {
		res, ok := bot.Move(s, core.DifficultyEasy)
		if !ok {
			t.Fatalf("ply %d: no move from a live position", ply)
		}
		if !isLegal(s, res.Move) {
			t.Fatalf("ply %d: %s is not legal", ply, res.Move.UCI())
		}
		next, err := rules.ApplyMove(s, res.Move.Input())
		if err != nil {
			t.Fatalf("ply %d: ApplyMove(%s): %v", ply, res.Move.UCI(), err)
		}
		s = next
	}
}

func TestNoMoveWhenGameIsOver(t *testing.T) {
	bot := NewBot(rand.NewSource(1))
	mate := mustApply(t, rules.NewGame(), "f2f3", "e7e5", "g2g4", "d8h4")
	stale := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")

	for _, d := range []core.Difficulty{core.DifficultyEasy, core.DifficultyNormal, core.DifficultyImpossible} {
		if _, ok := bot.Move(mate, d); ok {
			t.Errorf("%s returned a move after checkmate", d)
		}
		if _, ok := bot.Move(stale, d); ok {
			t.Errorf("%s returned a move in stalemate", d)
		}
	}
}

func TestNoMoveAfterFiftyMoveDraw(t *testing.T) {
	bot := NewBot(rand.NewSource(1))
	drawn := mustApply(t, mustFEN(t, "4k3/8/8/8/8/8/8/R3K3 w - - 99 80"), "a1a2")
	if !drawn.IsDraw || drawn.IsStalemate {
		t.Fatalf("position after a1a2 is not a fifty-move draw: %+v", drawn.Outcome())
	}
	if len(rules.LegalMoves(&drawn.Board, board.MustSquare("e8"), drawn.Castling, drawn.EnPassant)) == 0 {
		t.Fatalf("black king has no piece moves; position does not isolate the draw")
	}

	for _, d := range []core.Difficulty{core.DifficultyEasy, core.DifficultyNormal, core.DifficultyImpossible} {
		if res, ok := bot.Move(drawn, d); ok {
			t.Errorf("%s returned %s after a fifty-move draw", d, res.Move.UCI())
		}
	}
}

func TestNormalPrefersCaptures(t *testing.T) {
	s := mustApply(t, rules.NewGame(), "e2e4", "d7d5")
	for seed := int64(0); seed < 10; seed++ {
		res, ok := NewBot(rand.NewSource(seed)).Move(s, core.DifficultyNormal)
		if !ok {
			t.Fatalf("no move")
		}
		if res.Move.UCI() != "e4d5" {
			t.Fatalf("seed %d: normal played %s, want the only capture e4d5", seed, res.Move.UCI())
		}
	}
}

func TestSearchFindsMateInOne(t *testing.T) {
	s := mustFEN(t, "7k/6pp/6Q1/8/8/2B5/8/6K1 w - - 0 1")
	bot := NewBot(rand.NewSource(1))

	for _, d := range []core.Difficulty{core.DifficultyHard, core.DifficultyVeryHard, core.DifficultyImpossible} {
		res, ok := bot.Move(s, d)
		if !ok {
			t.Fatalf("%s: no move", d)
		}
		if res.Move.UCI() != "g6g7" {
			t.Errorf("%s played %s, want g6g7", d, res.Move.UCI())
		}
		if res.Depth != SearchDepth(d) {
			t.Errorf("%s: depth %d, want %d", d, res.Depth, SearchDepth(d))
		}
		if res.Score < mateBonus {
			t.Errorf("%s: score %d does not include the mate bonus", d, res.Score)
		}
	}
}

func TestSearchForBlackMinimizes(t *testing.T) {
	s := mustFEN(t, "6k1/8/2b5/8/8/6q1/6PP/7K b - - 0 1")
	res, ok := NewBot(rand.NewSource(1)).Move(s, core.DifficultyHard)
	if !ok {
		t.Fatalf("no move")
	}
	if res.Move.UCI() != "g3g2" {
		t.Fatalf("black played %s, want g3g2", res.Move.UCI())
	}
	if res.Score > -mateBonus {
		t.Fatalf("score %d does not include the mate bonus for black", res.Score)
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	s := mustApply(t, rules.NewGame(), "e2e4", "e7e5", "g1f3", "b8c6")
	a, _ := NewBot(rand.NewSource(1)).Move(s, core.DifficultyVeryHard)
	b, _ := NewBot(rand.NewSource(99)).Move(s, core.DifficultyVeryHard)
	if a.Move.UCI() != b.Move.UCI() || a.Score != b.Score {
		t.Fatalf("search differs across seeds: %s (%d) vs %s (%d)", a.Move.UCI(), a.Score, b.Move.UCI(), b.Score)
	}
}
