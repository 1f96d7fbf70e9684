// Package main implements an interactive client for the chess server API and
// an offline mode against the built-in bot.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chessarena/internal/client/api"
	"chessarena/internal/client/commands"
	"chessarena/internal/client/display"
	"chessarena/internal/client/local"
	"chessarena/internal/client/session"
	"chessarena/internal/server/core"

	"github.com/chzyer/readline"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "Chess server base URL")
	offline := flag.Bool("local", false, "Play against the built-in bot without a server")
	difficulty := flag.String("difficulty", "normal", "Offline bot difficulty: easy, normal, hard, very_hard, impossible")
	color := flag.String("color", "white", "Offline side to play: white or black")
	delay := flag.Duration("think-time", 300*time.Millisecond, "Offline pause before the bot moves")
	flag.Parse()

	s := &session.Session{
		APIBaseURL: *apiURL,
		Client:     api.New(*apiURL),
	}

	if *offline {
		match, err := newMatch(*difficulty, *color, *delay)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s%s%s\n", display.Red, err.Error(), display.Reset)
			os.Exit(2)
		}
		defer match.Close()
		s.Client = nil
		s.Match = match
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     ".chess_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	// Bot replies arrive on another goroutine, route all output through readline
	s.Output = rl.Stdout()
	if s.Client != nil {
		s.Client.Out = rl.Stdout()
	}

	out := s.Out()
	if s.Match != nil {
		s.Match.SetListener(commands.OfflineListener(s))
		fmt.Fprintf(out, "%sChess Offline Client%s\n", display.Cyan, display.Reset)
		fmt.Fprintf(out, "%sYou play %s against a %s computer%s\n", display.Cyan, s.Match.Human(), s.Match.Difficulty(), display.Reset)
	} else {
		fmt.Fprintf(out, "%sChess Debug Client%s\n", display.Cyan, display.Reset)
		fmt.Fprintf(out, "%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	}
	fmt.Fprintf(out, "Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s)

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		if strings.HasSuffix(line, " -v") {
			s.Verbose = true
			line = strings.TrimSuffix(line, " -v")
		} else {
			s.Verbose = false
		}

		if err := registry.Execute(line); errors.Is(err, commands.ErrExit) {
			break
		}
	}
}

func newMatch(difficulty, color string, delay time.Duration) (*local.Match, error) {
	d, ok := core.ParseDifficulty(strings.ToLower(difficulty))
	if !ok {
		return nil, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	var human core.Color
	switch strings.ToLower(color) {
	case "white", "w":
		human = core.ColorWhite
	case "black", "b":
		human = core.ColorBlack
	default:
		return nil, fmt.Errorf("unknown color %q", color)
	}
	return local.NewMatch(local.Config{Human: human, Difficulty: d, Delay: delay}, nil)
}

func buildPrompt(s *session.Session) string {
	if s.Match != nil {
		g := s.Match.Game()
		status := display.ColorForTurn(g.NextTurnColor().String()) + " to move"
		switch {
		case s.Match.Thinking():
			status = display.Magenta + "thinking" + display.Reset
		case g.State().IsOver():
			status = g.State().String()
		}
		return display.Prompt(fmt.Sprintf("chess %s[%s%s%s] %d%s", display.Yellow, display.Reset, status, display.Yellow, g.Ply(), display.Reset))
	}

	promptStr := "chess"
	var parts []string
	if s.CurrentGame != "" {
		id := s.CurrentGame
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, display.White+id+display.Reset)
	}
	if s.CurrentGameState != nil && s.PlayerColor != "" {
		parts = append(parts, display.ColorForTurn(s.PlayerColor))
	}
	if len(parts) > 0 {
		promptStr += display.Yellow + " [" + display.Reset + strings.Join(parts, " ") + display.Yellow + "]"
	}

	if gs := s.CurrentGameState; gs != nil {
		playerType := "h"
		p := gs.Players.White
		if gs.Turn == "black" {
			p = gs.Players.Black
		}
		if p != nil && p.Type == core.PlayerComputer {
			playerType = "c"
		}
		promptStr += fmt.Sprintf(" - Turn:%s(%s)", display.ColorForTurn(gs.Turn), playerType)
	}

	return display.Prompt(promptStr)
}
