package commands

import (
	"fmt"
	"os"
	"strings"

	"chessarena/internal/client/display"
	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
	"chessarena/internal/server/game"
	"chessarena/internal/server/pgn"
	"chessarena/internal/server/rules"
)

func (r *Registry) registerLocalCommands() {
	r.Group("Offline Commands",
		&Command{
			Name:        "new",
			ShortName:   "n",
			Description: "Start a new game against the computer",
			Usage:       "new [fen...]",
			Handler:     localNewHandler,
		},
		&Command{
			Name:        "move",
			ShortName:   "m",
			Description: "Make a move",
			Usage:       "move <from><to>[promotion]  (e.g. e2e4, e7e8q)",
			Handler:     localMoveHandler,
		},
		&Command{
			Name:        "undo",
			ShortName:   "u",
			Description: "Take back your last move",
			Usage:       "undo",
			Handler:     localUndoHandler,
		},
		&Command{
			Name:        "legal",
			ShortName:   "l",
			Description: "List legal targets of a square",
			Usage:       "legal <square>",
			Handler:     localLegalHandler,
		},
		&Command{
			Name:        "show",
			ShortName:   "h",
			Description: "Show board and game state",
			Usage:       "show",
			Handler:     localShowHandler,
		},
		&Command{
			Name:        "history",
			ShortName:   "v",
			Description: "Show or save the serialized move list",
			Usage:       "history [file]",
			Handler:     localHistoryHandler,
		},
		&Command{
			Name:        "pgn",
			ShortName:   "g",
			Description: "Export the game as PGN",
			Usage:       "pgn",
			Handler:     localPGNHandler,
		},
	)
}

func localNewHandler(s Session, args []string) error {
	m := s.GetMatch()
	if err := m.Reset(strings.Join(args, " ")); err != nil {
		return err
	}
	fmt.Fprintf(s.Out(), "%sNew game, you play %s against %s%s\n",
		display.Green, m.Human(), m.Difficulty(), display.Reset)
	return nil
}

func localMoveHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: move <from><to>[promotion]")
	}
	in, err := rules.ParseMoveInput(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	result, err := s.GetMatch().Play(in)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out(), "%sPlayed %s%s\n", display.Green, result.Move, display.Reset)
	return nil
}

func localUndoHandler(s Session, args []string) error {
	if err := s.GetMatch().Undo(); err != nil {
		return err
	}
	fmt.Fprintf(s.Out(), "%sMove taken back%s\n", display.Green, display.Reset)
	return nil
}

func localLegalHandler(s Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: legal <square>")
	}
	sq, err := board.ParseSquare(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	targets := s.GetMatch().Game().LegalMoves(sq)
	if len(targets) == 0 {
		fmt.Fprintf(s.Out(), "No legal moves from %s\n", sq)
		return nil
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.String()
	}
	fmt.Fprintf(s.Out(), "%s: %s\n", sq, strings.Join(names, " "))
	return nil
}

func localShowHandler(s Session, args []string) error {
	g := s.GetMatch().Game()
	snap := g.Snapshot()
	out := s.Out()

	fmt.Fprintln(out)
	display.RenderBoard(out, snap.State.Board.ToASCII())

	turn := snap.State.Turn.String()
	fmt.Fprintf(out, "\nFEN: %s\n", snap.State.FEN())
	fmt.Fprintf(out, "Turn: %s | State: %s | Moves: %d\n", display.ColorForTurn(turn), snap.Status, len(snap.Moves))

	if len(snap.Moves) > 0 {
		blackFirst := !strings.Contains(snap.InitialFEN, " w ")
		fmt.Fprintf(out, "\nHistory: %s\n", display.FormatHistory(snap.Moves, blackFirst))
	}
	if snap.LastResult != nil {
		fmt.Fprintf(out, "Last move: %s by %s", snap.LastResult.Move, snap.LastResult.PlayerColor)
		if snap.LastResult.Depth > 0 {
			fmt.Fprintf(out, " (depth %d, score %d)", snap.LastResult.Depth, snap.LastResult.Score)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func localHistoryHandler(s Session, args []string) error {
	g := s.GetMatch().Game()
	data, err := rules.EncodeMoves(g.Moves())
	if err != nil {
		return err
	}

	if len(args) > 0 {
		if err := os.WriteFile(args[0], data, 0644); err != nil {
			return err
		}
		fmt.Fprintf(s.Out(), "%sSaved %d move(s) to %s%s\n", display.Green, g.Ply(), args[0], display.Reset)
		return nil
	}
	fmt.Fprintln(s.Out(), string(data))
	return nil
}

func localPGNHandler(s Session, args []string) error {
	m := s.GetMatch()
	g := m.Game()

	tags := map[string]string{"Event": "Offline game", "White": "You", "Black": "Computer (" + string(m.Difficulty()) + ")"}
	if m.Human() == core.ColorBlack {
		tags["White"], tags["Black"] = tags["Black"], tags["White"]
	}
	export, err := pgn.Render(g.InitialFEN(), g.Moves(), tags)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.Out(), export.PGN)
	return nil
}

// OfflineListener prints the computer's replies and check or game end signals
func OfflineListener(s Session) game.Listener {
	return func(e game.Event) {
		m := s.GetMatch()
		if m == nil {
			return
		}
		out := s.Out()

		switch e.Type {
		case game.EventTurnChanged, game.EventCheckmate, game.EventStalemate, game.EventDraw:
			last := m.Game().LastResult()
			if last != nil && last.Ply == e.Ply && last.PlayerColor != m.Human() {
				fmt.Fprintf(out, "%sComputer played: %s%s", display.Magenta, last.Move, display.Reset)
				if last.Depth > 0 {
					fmt.Fprintf(out, " (depth %d, score %d)", last.Depth, last.Score)
				}
				fmt.Fprintln(out)
			}
		}

		switch e.Type {
		case game.EventCheckmate:
			fmt.Fprintf(out, "%sCheckmate! %s%s\n", display.Yellow, e.State, display.Reset)
		case game.EventStalemate:
			fmt.Fprintf(out, "%sStalemate%s\n", display.Yellow, display.Reset)
		case game.EventDraw:
			fmt.Fprintf(out, "%sDraw%s\n", display.Yellow, display.Reset)
		case game.EventCheck:
			fmt.Fprintf(out, "%sCheck%s\n", display.Yellow, display.Reset)
		}
	}
}
