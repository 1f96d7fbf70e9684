package commands

import (
	"bytes"
	"errors"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"chessarena/internal/client/api"
	"chessarena/internal/client/display"
	"chessarena/internal/client/local"
	"chessarena/internal/client/session"
	"chessarena/internal/server/core"
	serverhttp "chessarena/internal/server/http"
	"chessarena/internal/server/processor"
	"chessarena/internal/server/service"
)

func init() {
	display.Disable()
}

// syncBuffer collects output written from the REPL and the bot goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Take returns and clears the collected output
func (b *syncBuffer) Take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

func TestParsePlayer(t *testing.T) {
	tests := []struct {
		in      string
		want    api.PlayerConfig
		wantErr bool
	}{
		{"h", api.PlayerConfig{Type: api.PlayerHuman}, false},
		{"", api.PlayerConfig{Type: api.PlayerHuman}, false},
		{"c", api.PlayerConfig{Type: api.PlayerComputer, Difficulty: core.DifficultyNormal}, false},
		{"C:Hard", api.PlayerConfig{Type: api.PlayerComputer, Difficulty: core.DifficultyHard}, false},
		{"c:grandmaster", api.PlayerConfig{}, true},
		{"h:easy", api.PlayerConfig{}, true},
		{"x", api.PlayerConfig{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePlayer(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePlayer(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parsePlayer(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}

	white, black, random, rest, err := parsePlayers([]string{"rc:easy", "h", "8/8/8/8/8/8/8/K6k", "w", "-", "-", "0", "1"})
	if err != nil {
		t.Fatalf("parsePlayers() error = %v", err)
	}
	if white.Type != api.PlayerComputer || black.Type != api.PlayerHuman || !random || len(rest) != 6 {
		t.Errorf("parsePlayers() = %+v %+v %v %v", white, black, random, rest)
	}
}

func TestOfflineCommands(t *testing.T) {
	match, err := local.NewMatch(local.Config{Human: core.ColorWhite, Difficulty: core.DifficultyEasy}, rand.NewSource(7))
	if err != nil {
		t.Fatal(err)
	}
	defer match.Close()

	out := &syncBuffer{}
	s := &session.Session{Match: match, Output: out}
	match.SetListener(OfflineListener(s))
	r := NewRegistry(s)

	r.Execute("move e2e4")
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.Take(), "Computer played") {
		if time.Now().After(deadline) {
			t.Fatal("computer never replied")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if match.Game().Ply() != 2 {
		t.Fatalf("ply = %d, want 2", match.Game().Ply())
	}

	r.Execute("legal g1")
	if got := out.Take(); !strings.Contains(got, "h3") {
		t.Errorf("legal output = %q", got)
	}

	r.Execute("show")
	if got := out.Take(); !strings.Contains(got, "FEN: ") || !strings.Contains(got, "1.e2e4") {
		t.Errorf("show output = %q", got)
	}

	r.Execute("pgn")
	if got := out.Take(); !strings.Contains(got, `[White "You"]`) || !strings.Contains(got, "1. e4") {
		t.Errorf("pgn output = %q", got)
	}

	r.Execute("move e2e4")
	if got := out.Take(); !strings.Contains(got, "Error:") {
		t.Errorf("illegal move output = %q", got)
	}

	r.Execute("undo")
	if match.Game().Ply() != 0 {
		t.Errorf("ply after undo = %d, want 0", match.Game().Ply())
	}

	const fen = "7k/8/8/8/8/8/8/K6R w - - 0 1"
	r.Execute("new " + fen)
	if got := match.Game().InitialFEN(); got != fen {
		t.Errorf("initial FEN = %q, want %q", got, fen)
	}
	out.Take()

	r.Execute("bogus")
	if got := out.Take(); !strings.Contains(got, "Unknown command: bogus") {
		t.Errorf("unknown command output = %q", got)
	}
	if err := r.Execute("exit"); !errors.Is(err, ErrExit) {
		t.Errorf("Execute(exit) = %v, want ErrExit", err)
	}
}

func startServer(t *testing.T) string {
	t.Helper()
	svc := service.New(nil)
	proc := processor.New(svc, 1, 0)
	app := serverhttp.NewFiberApp(proc, svc, serverhttp.Options{RateLimit: -1})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go app.Listener(ln)
	t.Cleanup(func() {
		app.Shutdown()
		proc.Close()
		svc.Shutdown(time.Second)
	})
	return "http://" + ln.Addr().String()
}

func TestServerCommands(t *testing.T) {
	url := startServer(t)
	out := &syncBuffer{}
	client := api.New(url)
	client.Out = out
	s := &session.Session{APIBaseURL: url, Client: client, Output: out}
	r := NewRegistry(s)

	r.Execute("health")
	if got := out.Take(); !strings.Contains(got, "Status:   healthy") {
		t.Fatalf("health output = %q", got)
	}

	r.Execute("new h c:easy")
	if s.CurrentGame == "" {
		t.Fatalf("no game created: %q", out.Take())
	}
	if s.PlayerColor != "white" {
		t.Errorf("player color = %q, want white", s.PlayerColor)
	}
	out.Take()

	r.Execute("move e2e4")
	got := out.Take()
	if !strings.Contains(got, "Computer played") {
		t.Fatalf("move output = %q", got)
	}
	if s.LastMoveCount != 2 || s.CurrentGameState.Turn != "white" {
		t.Errorf("session after reply: count %d turn %q", s.LastMoveCount, s.CurrentGameState.Turn)
	}

	r.Execute("move e2e4")
	if got := out.Take(); !strings.Contains(got, "INVALID_MOVE") {
		t.Errorf("illegal move output = %q", got)
	}

	r.Execute("legal b1")
	if got := out.Take(); !strings.Contains(got, "b1: ") {
		t.Errorf("legal output = %q", got)
	}

	file := filepath.Join(t.TempDir(), "moves.json")
	r.Execute("history " + file)
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("history file: %v, output %q", err, out.Take())
	}
	original := s.CurrentGame

	r.Execute("import " + file + " h h")
	if s.CurrentGame == original || s.LastMoveCount != 2 {
		t.Errorf("import: game %s count %d, output %q", s.CurrentGame, s.LastMoveCount, out.Take())
	}
	out.Take()

	r.Execute("pgn")
	if got := out.Take(); !strings.Contains(got, "1. e4") {
		t.Errorf("pgn output = %q", got)
	}

	r.Execute("undo 2")
	if s.LastMoveCount != 0 {
		t.Errorf("count after undo = %d, want 0", s.LastMoveCount)
	}

	r.Execute("delete")
	if s.CurrentGame != "" {
		t.Errorf("current game after delete = %q", s.CurrentGame)
	}
	r.Execute("show")
	if got := out.Take(); !strings.Contains(got, errNoGame.Error()) {
		t.Errorf("show without game output = %q", got)
	}
}
