package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/game"
	"chessarena/internal/server/rules"
	"chessarena/internal/server/storage"
)

func human(c core.Color) *core.Player {
	return core.NewPlayer(core.PlayerConfig{Type: core.PlayerHuman}, c)
}

func computer(c core.Color) *core.Player {
	return core.NewPlayer(core.PlayerConfig{Type: core.PlayerComputer, Difficulty: core.DifficultyEasy}, c)
}

func move(t *testing.T, uci string) rules.MoveInput {
	t.Helper()
	in, err := rules.ParseMoveInput(uci)
	if err != nil {
		t.Fatalf("ParseMoveInput(%q): %v", uci, err)
	}
	return in
}

func ply(n int) *int {
	return &n
}

type recordingBroadcaster struct {
	changed chan string
	removed chan string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{changed: make(chan string, 16), removed: make(chan string, 16)}
}

func (r *recordingBroadcaster) GameChanged(gameID string) { r.changed <- gameID }
func (r *recordingBroadcaster) GameRemoved(gameID string) { r.removed <- gameID }

func TestApplyMoveChecksPly(t *testing.T) {
	svc := New(nil)
	id := svc.GenerateGameID()
	if _, err := svc.CreateGame(id, human(core.ColorWhite), human(core.ColorBlack), rules.NewGame()); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	if _, err := svc.ApplyMove(id, move(t, "e2e4"), ply(0)); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if _, err := svc.ApplyMove(id, move(t, "d7d5"), ply(0)); !errors.Is(err, game.ErrOutOfTurn) {
		t.Fatalf("stale ply error = %v, want ErrOutOfTurn", err)
	}
	if _, err := svc.ApplyMove(id, move(t, "d7d5"), nil); err != nil {
		t.Fatalf("ApplyMove without ply: %v", err)
	}
	if _, err := svc.ApplyMove("missing", move(t, "e2e4"), nil); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("missing game error = %v", err)
	}
	if _, err := svc.CreateGame(id, human(core.ColorWhite), human(core.ColorBlack), rules.NewGame()); !errors.Is(err, ErrGameExists) {
		t.Fatalf("duplicate CreateGame error = %v", err)
	}
}

func TestComputerMoveFlow(t *testing.T) {
	svc := New(nil)
	b := newRecordingBroadcaster()
	svc.SetBroadcaster(b)

	id := svc.GenerateGameID()
	svc.CreateGame(id, human(core.ColorWhite), computer(core.ColorBlack), rules.NewGame())
	if svc.GetComputerGameCount() != 1 {
		t.Fatalf("computer game count = %d", svc.GetComputerGameCount())
	}

	if _, _, _, err := svc.BeginComputerMove(id); err == nil {
		t.Fatalf("white is human, BeginComputerMove should fail")
	}
	svc.ApplyMove(id, move(t, "e2e4"), nil)
	if _, err := svc.ApplyMove(id, move(t, "e7e5"), nil); !errors.Is(err, ErrNotHumanTurn) {
		t.Fatalf("human move on computer turn error = %v", err)
	}

	gen, state, player, err := svc.BeginComputerMove(id)
	if err != nil {
		t.Fatalf("BeginComputerMove: %v", err)
	}
	if state.Turn != core.ColorBlack || player.Difficulty != core.DifficultyEasy {
		t.Fatalf("search input turn %s player %+v", state.Turn, player)
	}
	result, err := svc.CompleteComputerMove(id, gen, move(t, "e7e5"), 0, 0)
	if err != nil {
		t.Fatalf("CompleteComputerMove: %v", err)
	}
	if result.Ply != 2 {
		t.Fatalf("result ply = %d", result.Ply)
	}

	if err := svc.DeleteGame(id); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if svc.GetComputerGameCount() != 0 {
		t.Fatalf("computer game count after delete = %d", svc.GetComputerGameCount())
	}
	select {
	case got := <-b.removed:
		if got != id {
			t.Fatalf("removed %s, want %s", got, id)
		}
	default:
		t.Fatalf("broadcaster not told about the delete")
	}
	if len(b.changed) == 0 {
		t.Fatalf("broadcaster saw no changes")
	}
}

func TestUndoDiscardsPendingComputerMove(t *testing.T) {
	svc := New(nil)
	id := svc.GenerateGameID()
	svc.CreateGame(id, human(core.ColorWhite), computer(core.ColorBlack), rules.NewGame())
	svc.ApplyMove(id, move(t, "e2e4"), nil)

	gen, _, _, err := svc.BeginComputerMove(id)
	if err != nil {
		t.Fatalf("BeginComputerMove: %v", err)
	}
	if err := svc.UndoMoves(id, 1); err != nil {
		t.Fatalf("UndoMoves: %v", err)
	}
	if _, err := svc.CompleteComputerMove(id, gen, move(t, "e7e5"), 0, 0); err == nil {
		t.Fatalf("stale computer move applied after undo")
	}
	g, _ := svc.GetGame(id)
	if g.Ply() != 0 || g.State() != core.StateOngoing {
		t.Fatalf("ply %d state %s after undo", g.Ply(), g.State())
	}
}

func TestFailComputerMoveMarksStuck(t *testing.T) {
	svc := New(nil)
	id := svc.GenerateGameID()
	svc.CreateGame(id, computer(core.ColorWhite), human(core.ColorBlack), rules.NewGame())
	gen, _, _, err := svc.BeginComputerMove(id)
	if err != nil {
		t.Fatalf("BeginComputerMove: %v", err)
	}
	svc.FailComputerMove(id, gen)
	g, _ := svc.GetGame(id)
	if g.State() != core.StateStuck {
		t.Fatalf("State = %s, want stuck", g.State())
	}

	// new players unstick the game
	if err := svc.UpdatePlayers(id, human(core.ColorWhite), human(core.ColorBlack)); err != nil {
		t.Fatalf("UpdatePlayers: %v", err)
	}
	if g.State() != core.StateOngoing || svc.GetComputerGameCount() != 0 {
		t.Fatalf("state %s computer games %d", g.State(), svc.GetComputerGameCount())
	}
}

func TestWaitReleasedByMove(t *testing.T) {
	svc := New(nil)
	id := svc.GenerateGameID()
	svc.CreateGame(id, human(core.ColorWhite), human(core.ColorBlack), rules.NewGame())

	wait := svc.RegisterWait(context.Background(), id)
	svc.ApplyMove(id, move(t, "e2e4"), nil)

	select {
	case <-wait:
	case <-time.After(time.Second):
		t.Fatalf("waiter not released by a move")
	}
}

func TestRestoreFromStorage(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "chess.db"), false)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	if err := store.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	first := New(store)
	id := first.GenerateGameID()
	first.CreateGame(id, human(core.ColorWhite), computer(core.ColorBlack), rules.NewGame())
	first.ApplyMove(id, move(t, "e2e4"), nil)
	gen, _, _, _ := first.BeginComputerMove(id)
	first.CompleteComputerMove(id, gen, move(t, "c7c5"), 0, 0)
	first.ApplyMove(id, move(t, "g1f3"), nil)
	first.UndoMoves(id, 1)
	first.ApplyMove(id, move(t, "b1c3"), nil)
	if err := store.Flush(2 * time.Second); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	second := New(store)
	g, err := second.GetGame(id)
	if err != nil {
		t.Fatalf("GetGame from storage: %v", err)
	}
	want := []string{"e2e4", "c7c5", "b1c3"}
	got := g.MoveStrings()
	if len(got) != len(want) {
		t.Fatalf("restored moves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("restored moves = %v, want %v", got, want)
		}
	}
	if g.NextPlayer().Type != core.PlayerComputer || g.NextPlayer().Difficulty != core.DifficultyEasy {
		t.Fatalf("restored player = %+v", g.NextPlayer())
	}

	if _, err := second.GetGame("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("missing game error = %v", err)
	}
}

func TestImportGame(t *testing.T) {
	svc := New(nil)
	src := rules.NewGame()
	for _, uci := range []string{"e2e4", "e7e5", "g1f3"} {
		next, err := rules.ApplyMove(src, move(t, uci))
		if err != nil {
			t.Fatalf("ApplyMove: %v", err)
		}
		src = next
	}

	id := svc.GenerateGameID()
	g, err := svc.ImportGame(id, human(core.ColorWhite), human(core.ColorBlack), rules.NewGame(), rules.SerializeAll(src.MoveHistory))
	if err != nil {
		t.Fatalf("ImportGame: %v", err)
	}
	if g.CurrentFEN() != src.FEN() {
		t.Fatalf("imported FEN %s, want %s", g.CurrentFEN(), src.FEN())
	}

	bad := rules.SerializeAll(src.MoveHistory)
	bad[1].To = bad[1].From
	if _, err := svc.ImportGame(svc.GenerateGameID(), human(core.ColorWhite), human(core.ColorBlack), rules.NewGame(), bad); !rules.IsReplayError(err) {
		t.Fatalf("bad import error = %v, want replay error", err)
	}
}
