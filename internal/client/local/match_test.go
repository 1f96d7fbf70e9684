package local

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/game"
	"chessarena/internal/server/rules"
)

func newMatch(t *testing.T, human core.Color, delay time.Duration) *Match {
	t.Helper()
	m, err := NewMatch(Config{Human: human, Difficulty: core.DifficultyEasy, Delay: delay}, rand.NewSource(1))
	if err != nil {
		t.Fatalf("NewMatch() error = %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func play(t *testing.T, m *Match, uci string) {
	t.Helper()
	in, err := rules.ParseMoveInput(uci)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Play(in); err != nil {
		t.Fatalf("Play(%s) error = %v", uci, err)
	}
}

func waitForPly(t *testing.T, m *Match, ply int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m.Game().Ply() == ply && !m.Thinking() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("game stuck at ply %d, want %d", m.Game().Ply(), ply)
}

func TestBotReplies(t *testing.T) {
	m := newMatch(t, core.ColorWhite, 0)
	if m.Thinking() {
		t.Fatal("bot should wait for white")
	}

	events := make(chan game.Event, 16)
	m.SetListener(func(e game.Event) { events <- e })

	play(t, m, "e2e4")
	waitForPly(t, m, 2)

	g := m.Game()
	if g.NextTurnColor() != core.ColorWhite {
		t.Errorf("turn = %v, want white", g.NextTurnColor())
	}
	last := g.LastResult()
	if last == nil || last.PlayerColor != core.ColorBlack {
		t.Errorf("last result = %+v, want a black move", last)
	}

	timeout := time.After(5 * time.Second)
	for turns := 0; turns < 2; {
		select {
		case e := <-events:
			if e.Type == game.EventTurnChanged {
				turns++
			}
		case <-timeout:
			t.Fatalf("turn change events = %d, want 2", turns)
		}
	}
}

func TestBotMovesFirstForBlackHuman(t *testing.T) {
	m := newMatch(t, core.ColorBlack, 0)
	waitForPly(t, m, 1)
	if m.Game().NextTurnColor() != core.ColorBlack {
		t.Error("black should be on move after the bot opens")
	}
}

func TestMoveWhileThinking(t *testing.T) {
	m := newMatch(t, core.ColorBlack, time.Hour)
	if !m.Thinking() {
		t.Fatal("bot should be thinking")
	}
	in, _ := rules.ParseMoveInput("e7e5")
	if _, err := m.Play(in); !errors.Is(err, game.ErrMovePending) {
		t.Errorf("Play() error = %v, want ErrMovePending", err)
	}
}

func TestResetDiscardsPendingMove(t *testing.T) {
	m := newMatch(t, core.ColorWhite, 20*time.Millisecond)
	play(t, m, "e2e4")
	old := m.Game()
	if !m.Thinking() {
		t.Fatal("bot should be thinking")
	}

	if err := m.Reset(""); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if old.State() != core.StateOngoing {
		t.Errorf("old game state = %v, want ongoing", old.State())
	}

	time.Sleep(60 * time.Millisecond)
	if ply := m.Game().Ply(); ply != 0 {
		t.Errorf("new game ply = %d, want 0", ply)
	}
	if ply := old.Ply(); ply != 1 {
		t.Errorf("old game ply = %d, want 1", ply)
	}
	if m.Thinking() {
		t.Error("new game should wait for white")
	}
}

func TestUndo(t *testing.T) {
	t.Run("while thinking", func(t *testing.T) {
		m := newMatch(t, core.ColorWhite, time.Hour)
		play(t, m, "e2e4")
		if err := m.Undo(); err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if m.Game().Ply() != 0 || m.Thinking() {
			t.Errorf("ply = %d thinking = %v, want 0 and false", m.Game().Ply(), m.Thinking())
		}
	})

	t.Run("after reply", func(t *testing.T) {
		m := newMatch(t, core.ColorWhite, 0)
		play(t, m, "d2d4")
		waitForPly(t, m, 2)
		if err := m.Undo(); err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if m.Game().Ply() != 0 {
			t.Errorf("ply = %d, want 0", m.Game().Ply())
		}
	})

	t.Run("nothing to undo", func(t *testing.T) {
		m := newMatch(t, core.ColorWhite, 0)
		if err := m.Undo(); !errors.Is(err, game.ErrInvalidUndo) {
			t.Errorf("Undo() error = %v, want ErrInvalidUndo", err)
		}
	})
}

func TestResetFromFEN(t *testing.T) {
	m := newMatch(t, core.ColorWhite, 0)
	if err := m.Reset("not a fen"); err == nil {
		t.Error("Reset() should reject an invalid FEN")
	}
	// White is mated
	if err := m.Reset("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if m.Game().State() != core.StateBlackWins {
		t.Errorf("state = %v, want black wins", m.Game().State())
	}
	in, _ := rules.ParseMoveInput("e2e4")
	if _, err := m.Play(in); !errors.Is(err, game.ErrGameOver) {
		t.Errorf("Play() error = %v, want ErrGameOver", err)
	}
}
