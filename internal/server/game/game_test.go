package game

import (
	"errors"
	"testing"

	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
	"chessarena/internal/server/rules"
)

func newTestGame() *Game {
	white := core.NewPlayer(core.PlayerConfig{Type: core.PlayerHuman}, core.ColorWhite)
	black := core.NewPlayer(core.PlayerConfig{Type: core.PlayerComputer, Difficulty: core.DifficultyEasy}, core.ColorBlack)
	return New(rules.NewGame(), white, black)
}

func move(t *testing.T, uci string) rules.MoveInput {
	t.Helper()
	in, err := rules.ParseMoveInput(uci)
	if err != nil {
		t.Fatalf("ParseMoveInput(%q): %v", uci, err)
	}
	return in
}

func play(t *testing.T, g *Game, moves ...string) {
	t.Helper()
	for _, uci := range moves {
		if _, err := g.ExecuteMove(move(t, uci)); err != nil {
			t.Fatalf("ExecuteMove(%s): %v", uci, err)
		}
	}
}

func TestExecuteMoveRecordsHistory(t *testing.T) {
	g := newTestGame()
	play(t, g, "e2e4", "e7e5", "g1f3")

	if g.Ply() != 3 {
		t.Fatalf("Ply = %d, want 3", g.Ply())
	}
	if g.NextTurnColor() != core.ColorBlack {
		t.Fatalf("NextTurnColor = %s, want black", g.NextTurnColor())
	}
	if got := g.MoveStrings(); len(got) != 3 || got[2] != "g1f3" {
		t.Fatalf("MoveStrings = %v", got)
	}
	if g.NextPlayer().Type != core.PlayerComputer {
		t.Fatalf("black should be the computer")
	}
	if lr := g.LastResult(); lr == nil || lr.Move != "g1f3" || lr.PlayerColor != core.ColorWhite {
		t.Fatalf("LastResult = %+v", lr)
	}
	if g.InitialFEN() != board.StartingFEN {
		t.Fatalf("InitialFEN = %s", g.InitialFEN())
	}
}

func TestExecuteMoveRejectsIllegal(t *testing.T) {
	g := newTestGame()
	_, err := g.ExecuteMove(move(t, "e2e5"))
	var ime *rules.InvalidMoveError
	if !errors.As(err, &ime) {
		t.Fatalf("ExecuteMove error = %v, want InvalidMoveError", err)
	}
	if g.Ply() != 0 || g.Generation() != 0 {
		t.Fatalf("rejected move changed the game")
	}
}

func TestMovesReturnsCopy(t *testing.T) {
	g := newTestGame()
	play(t, g, "e2e4")
	moves := g.Moves()
	moves[0].To = board.MustSquare("e3")
	if g.Moves()[0].To != board.MustSquare("e4") {
		t.Fatalf("Moves exposed internal storage")
	}
}

func TestSelectSquare(t *testing.T) {
	g := newTestGame()

	targets := g.SelectSquare(board.MustSquare("g1"))
	if len(targets) != 2 {
		t.Fatalf("knight targets = %v", targets)
	}
	if sq, ok := g.Selected(); !ok || sq != board.MustSquare("g1") {
		t.Fatalf("Selected = %v, %v", sq, ok)
	}

	if targets := g.SelectSquare(board.MustSquare("e7")); targets != nil {
		t.Fatalf("selecting an opponent piece returned %v", targets)
	}
	if _, ok := g.Selected(); ok {
		t.Fatalf("selection should be cleared")
	}

	g.SelectSquare(board.MustSquare("e2"))
	play(t, g, "e2e4")
	if _, ok := g.Selected(); ok {
		t.Fatalf("selection should be cleared by a move")
	}
}

func TestUndoMoves(t *testing.T) {
	g := newTestGame()
	play(t, g, "e2e4", "e7e5", "g1f3", "b8c6")
	before := g.Generation()

	if err := g.UndoMoves(2); err != nil {
		t.Fatalf("UndoMoves: %v", err)
	}
	if g.Ply() != 2 {
		t.Fatalf("Ply = %d, want 2", g.Ply())
	}
	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"
	if g.CurrentFEN() != want {
		t.Fatalf("FEN after undo = %s\nwant %s", g.CurrentFEN(), want)
	}
	if g.Generation() == before {
		t.Fatalf("undo must advance the generation")
	}
	if g.LastResult() != nil {
		t.Fatalf("undo must clear the last result")
	}

	for _, n := range []int{0, 3} {
		if err := g.UndoMoves(n); !errors.Is(err, ErrInvalidUndo) {
			t.Fatalf("UndoMoves(%d) error = %v, want ErrInvalidUndo", n, err)
		}
	}
}

func TestUndoReopensFinishedGame(t *testing.T) {
	g := newTestGame()
	play(t, g, "f2f3", "e7e5", "g2g4", "d8h4")
	if g.State() != core.StateBlackWins {
		t.Fatalf("State = %s, want black_wins", g.State())
	}
	if _, err := g.ExecuteMove(move(t, "a2a3")); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after mate error = %v, want ErrGameOver", err)
	}
	if err := g.UndoMoves(1); err != nil {
		t.Fatalf("UndoMoves: %v", err)
	}
	if g.State() != core.StateOngoing {
		t.Fatalf("State after undo = %s, want ongoing", g.State())
	}
}

func TestComputerMoveLifecycle(t *testing.T) {
	g := newTestGame()
	play(t, g, "e2e4")

	gen, err := g.BeginComputerMove()
	if err != nil {
		t.Fatalf("BeginComputerMove: %v", err)
	}
	if g.State() != core.StatePending {
		t.Fatalf("State = %s, want pending", g.State())
	}
	if _, err := g.BeginComputerMove(); !errors.Is(err, ErrMovePending) {
		t.Fatalf("second BeginComputerMove error = %v", err)
	}
	if _, err := g.ExecuteMove(move(t, "e7e5")); !errors.Is(err, ErrMovePending) {
		t.Fatalf("human move while pending error = %v", err)
	}

	result, err := g.CompleteComputerMove(gen, move(t, "e7e5"), 3, 1)
	if err != nil {
		t.Fatalf("CompleteComputerMove: %v", err)
	}
	if result.Score != 3 || result.Depth != 1 || result.PlayerColor != core.ColorBlack {
		t.Fatalf("result = %+v", result)
	}
	if g.State() != core.StateOngoing || g.Ply() != 2 {
		t.Fatalf("state %s ply %d after computer move", g.State(), g.Ply())
	}
}

func TestStaleComputerResultIsDiscarded(t *testing.T) {
	t.Run("undo", func(t *testing.T) {
		g := newTestGame()
		play(t, g, "e2e4")
		gen, _ := g.BeginComputerMove()
		if err := g.UndoMoves(1); err != nil {
			t.Fatalf("UndoMoves: %v", err)
		}
		if _, err := g.CompleteComputerMove(gen, move(t, "e7e5"), 0, 0); err == nil {
			t.Fatalf("stale result was applied")
		}
		if g.Ply() != 0 {
			t.Fatalf("Ply = %d, want 0", g.Ply())
		}
	})

	t.Run("cancel and restart", func(t *testing.T) {
		g := newTestGame()
		play(t, g, "e2e4")
		old, _ := g.BeginComputerMove()
		g.CancelPending()
		fresh, err := g.BeginComputerMove()
		if err != nil {
			t.Fatalf("BeginComputerMove: %v", err)
		}
		if _, err := g.CompleteComputerMove(old, move(t, "e7e5"), 0, 0); !errors.Is(err, ErrStaleResult) {
			t.Fatalf("old result error = %v, want ErrStaleResult", err)
		}
		if _, err := g.CompleteComputerMove(fresh, move(t, "d7d5"), 0, 0); err != nil {
			t.Fatalf("fresh result: %v", err)
		}
		if got := g.MoveStrings(); got[1] != "d7d5" {
			t.Fatalf("moves = %v", got)
		}
	})

	t.Run("failure marks stuck", func(t *testing.T) {
		g := newTestGame()
		play(t, g, "e2e4")
		gen, _ := g.BeginComputerMove()
		if !g.FailComputerMove(gen) {
			t.Fatalf("FailComputerMove returned false")
		}
		if g.State() != core.StateStuck {
			t.Fatalf("State = %s, want stuck", g.State())
		}
	})
}

func TestRestore(t *testing.T) {
	g := newTestGame()
	play(t, g, "e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7")

	restored, err := Restore(rules.NewGame(), g.Moves(), g.GetPlayer(core.ColorWhite), g.GetPlayer(core.ColorBlack))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.CurrentFEN() != g.CurrentFEN() {
		t.Fatalf("restored FEN %s, want %s", restored.CurrentFEN(), g.CurrentFEN())
	}
	if restored.State() != core.StateWhiteWins {
		t.Fatalf("restored State = %s, want white_wins", restored.State())
	}

	bad := g.Moves()
	bad[2].To = board.MustSquare("h6")
	if _, err := Restore(rules.NewGame(), bad, nil, nil); !rules.IsReplayError(err) {
		t.Fatalf("Restore with bad list error = %v, want replay error", err)
	}
}

func TestExecuteMoveAtRejectsStalePly(t *testing.T) {
	g := newTestGame()
	if _, err := g.ExecuteMoveAt(move(t, "e2e4"), 0); err != nil {
		t.Fatalf("ExecuteMoveAt(0): %v", err)
	}
	if _, err := g.ExecuteMoveAt(move(t, "e7e5"), 0); !errors.Is(err, ErrOutOfTurn) {
		t.Fatalf("stale ply error = %v, want ErrOutOfTurn", err)
	}
	result, err := g.ExecuteMoveAt(move(t, "e7e5"), 1)
	if err != nil {
		t.Fatalf("ExecuteMoveAt(1): %v", err)
	}
	if result.Ply != 2 || result.Record.UCI() != "e7e5" {
		t.Fatalf("result = %+v", result)
	}
}
