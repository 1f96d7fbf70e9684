package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"chessarena/internal/client/api"
	"chessarena/internal/client/display"
	"chessarena/internal/server/core"
)

// maxPolls bounds the long-polls spent waiting for one computer move
const maxPolls = 3

var errNoGame = fmt.Errorf("no current game, use 'new' or 'join <gameId>'")

func (r *Registry) registerGameCommands() {
	r.Group("Game Commands",
		&Command{
			Name:        "new",
			ShortName:   "n",
			Description: "Create a new game",
			Usage:       "new [white] [black] [fen...]  (player: h, c or c:<difficulty>, r prefix swaps randomly)",
			Handler:     newGameHandler,
		},
		&Command{
			Name:        "import",
			ShortName:   "i",
			Description: "Create a game from a saved move list",
			Usage:       "import <file> [white] [black]",
			Handler:     importGameHandler,
		},
		&Command{
			Name:        "join",
			ShortName:   "j",
			Description: "Join/set current game ID",
			Usage:       "join <gameId>",
			Handler:     joinGameHandler,
		},
		&Command{
			Name:        "players",
			ShortName:   "y",
			Description: "Reconfigure both players",
			Usage:       "players <white> <black>",
			Handler:     playersHandler,
		},
		&Command{
			Name:        "move",
			ShortName:   "m",
			Description: "Make a move",
			Usage:       "move <from><to>[promotion]  (e.g. e2e4, e7e8q)",
			Handler:     moveHandler,
		},
		&Command{
			Name:        "computer",
			ShortName:   "c",
			Description: "Trigger computer move",
			Usage:       "computer",
			Handler:     computerMoveHandler,
		},
		&Command{
			Name:        "undo",
			ShortName:   "u",
			Description: "Undo moves",
			Usage:       "undo [count]",
			Handler:     undoHandler,
		},
		&Command{
			Name:        "legal",
			ShortName:   "l",
			Description: "List legal targets of a square",
			Usage:       "legal <square>",
			Handler:     legalHandler,
		},
		&Command{
			Name:        "show",
			ShortName:   "h",
			Description: "Show board and game state",
			Usage:       "show",
			Handler:     showBoardHandler,
		},
		&Command{
			Name:        "state",
			ShortName:   "s",
			Description: "Show raw game JSON",
			Usage:       "state",
			Handler:     gameStateHandler,
		},
		&Command{
			Name:        "history",
			ShortName:   "v",
			Description: "Show or save the serialized move list",
			Usage:       "history [file]",
			Handler:     historyHandler,
		},
		&Command{
			Name:        "pgn",
			ShortName:   "g",
			Description: "Export the game as PGN",
			Usage:       "pgn",
			Handler:     pgnHandler,
		},
		&Command{
			Name:        "delete",
			ShortName:   "d",
			Description: "Delete a game",
			Usage:       "delete [gameId]",
			Handler:     deleteGameHandler,
		},
		&Command{
			Name:        "poll",
			ShortName:   "p",
			Description: "Long-poll for game updates",
			Usage:       "poll",
			Handler:     pollHandler,
		},
	)
}

// parsePlayer reads "h", "c" or "c:<difficulty>"
func parsePlayer(s string) (api.PlayerConfig, error) {
	kind, level, _ := strings.Cut(strings.ToLower(s), ":")
	switch kind {
	case "", "h":
		if level != "" {
			return api.PlayerConfig{}, fmt.Errorf("human player %q takes no difficulty", s)
		}
		return api.PlayerConfig{Type: api.PlayerHuman}, nil
	case "c":
		d, ok := core.ParseDifficulty(level)
		if !ok {
			return api.PlayerConfig{}, fmt.Errorf("unknown difficulty %q", level)
		}
		return api.PlayerConfig{Type: api.PlayerComputer, Difficulty: d}, nil
	default:
		return api.PlayerConfig{}, fmt.Errorf("invalid player %q, use h, c or c:<difficulty>", s)
	}
}

// parsePlayers reads up to two player specs from args and returns the rest
func parsePlayers(args []string) (white, black api.PlayerConfig, random bool, rest []string, err error) {
	specs := []string{"h", "h"}
	for i := 0; i < 2 && i < len(args); i++ {
		spec := args[i]
		if strings.HasPrefix(spec, "r") && len(spec) > 1 {
			random = true
			spec = spec[1:]
		}
		specs[i] = spec
	}
	if white, err = parsePlayer(specs[0]); err != nil {
		return
	}
	if black, err = parsePlayer(specs[1]); err != nil {
		return
	}
	if len(args) > 2 {
		rest = args[2:]
	}
	return
}

// adopt makes resp the current game and derives the local player's color
func adopt(s Session, resp *api.GameResponse) {
	s.SetCurrentGame(resp.GameID)
	s.SetGameState(resp)

	white := resp.Players.White != nil && resp.Players.White.Type == core.PlayerHuman
	black := resp.Players.Black != nil && resp.Players.Black.Type == core.PlayerHuman
	switch {
	case white && !black:
		s.SetPlayerColor("white")
	case black && !white:
		s.SetPlayerColor("black")
	default:
		s.SetPlayerColor("")
	}
}

func currentGame(s Session) (string, error) {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return "", errNoGame
	}
	return gameID, nil
}

// computerToMove reports whether the side to move is played by the server
func computerToMove(resp *api.GameResponse) bool {
	if resp.State != core.StateOngoing.String() {
		return false
	}
	p := resp.Players.White
	if resp.Turn == "black" {
		p = resp.Players.Black
	}
	return p != nil && p.Type == core.PlayerComputer
}

func newGameHandler(s Session, args []string) error {
	white, black, random, rest, err := parsePlayers(args)
	if err != nil {
		return err
	}
	c := s.GetClient()
	out := s.Out()

	fmt.Fprintln(out, "\n"+display.Cyan+"Creating new game..."+display.Reset)
	resp, err := c.CreateGame(&api.CreateGameRequest{
		White:        white,
		Black:        black,
		FEN:          strings.Join(rest, " "),
		RandomColors: random,
	})
	if err != nil {
		return err
	}
	adopt(s, resp)

	fmt.Fprintf(out, "%sGame created: %s%s\n", display.Green, resp.GameID, display.Reset)
	if color := s.GetPlayerColor(); color != "" {
		fmt.Fprintf(out, "%sYou play %s%s\n", display.Cyan, color, display.Reset)
	}

	if computerToMove(resp) {
		fmt.Fprintf(out, "\n%sComputer opens, triggering move...%s\n", display.Magenta, display.Reset)
		return triggerComputer(s, resp.GameID)
	}
	return nil
}

func importGameHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: import <file> [white] [black]")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var list api.MoveListResponse
	if err := json.Unmarshal(data, &list); err != nil || list.Moves == nil {
		// A bare JSON array of moves
		list = api.MoveListResponse{Moves: data}
	}

	white, black, _, _, err := parsePlayers(args[1:])
	if err != nil {
		return err
	}

	resp, err := s.GetClient().ImportGame(&api.ImportGameRequest{
		White: white,
		Black: black,
		FEN:   list.InitialFEN,
		Moves: list.Moves,
	})
	if err != nil {
		return err
	}
	adopt(s, resp)
	fmt.Fprintf(s.Out(), "%sImported game %s at ply %d%s\n", display.Green, resp.GameID, resp.Ply, display.Reset)
	return nil
}

func joinGameHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	resp, err := s.GetClient().GetGame(args[0])
	if err != nil {
		return err
	}
	adopt(s, resp)

	fmt.Fprintf(s.Out(), "%sJoined game: %s%s\n", display.Green, resp.GameID, display.Reset)
	fmt.Fprintf(s.Out(), "Turn: %s | State: %s | Moves: %d\n", display.ColorForTurn(resp.Turn), resp.State, resp.Ply)
	return nil
}

func playersHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: players <white> <black>")
	}
	white, black, _, _, err := parsePlayers(args)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().ConfigurePlayers(gameID, &api.ConfigurePlayersRequest{White: white, Black: black})
	if err != nil {
		return err
	}
	adopt(s, resp)
	fmt.Fprintf(s.Out(), "%sPlayers updated%s\n", display.Green, display.Reset)

	if computerToMove(resp) {
		return triggerComputer(s, gameID)
	}
	return nil
}

func moveHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: move <from><to>[promotion]")
	}
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	move := strings.ToLower(args[0])
	if len(move) != 4 && len(move) != 5 {
		return fmt.Errorf("invalid move %q, expected e.g. e2e4 or e7e8q", args[0])
	}

	resp, err := s.GetClient().MakeMove(gameID, move[0:2], move[2:4], move[4:], -1)
	if err != nil {
		return err
	}
	s.SetGameState(resp)
	fmt.Fprintf(s.Out(), "%sMove accepted%s\n", display.Green, display.Reset)
	reportOutcome(s, resp)

	if computerToMove(resp) {
		fmt.Fprintf(s.Out(), "\n%sComputer's turn, triggering move...%s\n", display.Magenta, display.Reset)
		return triggerComputer(s, gameID)
	}
	return nil
}

func computerMoveHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}
	return triggerComputer(s, gameID)
}

// triggerComputer starts a server-side bot move and long-polls for its result
func triggerComputer(s Session, gameID string) error {
	c := s.GetClient()
	out := s.Out()

	resp, err := c.ComputerMove(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(resp)
	fmt.Fprintf(out, "%sComputer is thinking...%s\n", display.Magenta, display.Reset)

	for i := 0; i < maxPolls; i++ {
		next, err := c.GetGameWithPoll(gameID, resp.Ply)
		if err != nil {
			return err
		}
		if next.State == core.StatePending.String() {
			continue
		}
		s.SetGameState(next)
		if next.State == core.StateStuck.String() {
			return fmt.Errorf("computer could not move")
		}
		if next.LastMove != nil && next.Ply > resp.Ply {
			fmt.Fprintf(out, "%sComputer played: %s%s", display.Magenta, next.LastMove.Move, display.Reset)
			if next.LastMove.Depth > 0 {
				fmt.Fprintf(out, " (depth %d, score %d)", next.LastMove.Depth, next.LastMove.Score)
			}
			fmt.Fprintln(out)
		}
		reportOutcome(s, next)
		return nil
	}
	return fmt.Errorf("timeout waiting for computer move")
}

// reportOutcome announces check and game end
func reportOutcome(s Session, resp *api.GameResponse) {
	out := s.Out()
	switch {
	case resp.Checkmate:
		fmt.Fprintf(out, "%sCheckmate! %s%s\n", display.Yellow, resp.State, display.Reset)
	case resp.Stalemate:
		fmt.Fprintf(out, "%sStalemate%s\n", display.Yellow, display.Reset)
	case resp.Draw:
		fmt.Fprintf(out, "%sDraw%s\n", display.Yellow, display.Reset)
	case resp.Check:
		fmt.Fprintf(out, "%sCheck%s\n", display.Yellow, display.Reset)
	}
}

func undoHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	count := 1
	if len(args) > 0 {
		count, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}

	resp, err := s.GetClient().UndoMoves(gameID, count)
	if err != nil {
		return err
	}
	s.SetGameState(resp)
	fmt.Fprintf(s.Out(), "%sUndid %d move(s)%s\n", display.Green, count, display.Reset)
	return nil
}

func legalHandler(s Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: legal <square>")
	}
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetLegalMoves(gameID, strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	if len(resp.Targets) == 0 {
		fmt.Fprintf(s.Out(), "No legal moves from %s\n", resp.Square)
		return nil
	}
	fmt.Fprintf(s.Out(), "%s: %s\n", resp.Square, strings.Join(resp.Targets, " "))
	return nil
}

func showBoardHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}
	c := s.GetClient()
	out := s.Out()

	game, err := c.GetGame(gameID)
	if err != nil {
		return err
	}
	board, err := c.GetBoard(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(game)

	fmt.Fprintln(out)
	display.RenderBoard(out, board.Board)

	fmt.Fprintf(out, "\nFEN: %s\n", game.FEN)
	fmt.Fprintf(out, "Turn: %s | State: %s | Moves: %d\n",
		display.ColorForTurn(game.Turn), game.State, game.Ply)

	if len(game.Moves) > 0 {
		blackFirst := (game.Turn == "black") == (len(game.Moves)%2 == 0)
		fmt.Fprintf(out, "\nHistory: %s\n", display.FormatHistory(game.Moves, blackFirst))
	}

	if game.LastMove != nil {
		fmt.Fprintf(out, "Last move: %s by %s", game.LastMove.Move, game.LastMove.PlayerColor)
		if game.LastMove.Depth > 0 {
			fmt.Fprintf(out, " (depth %d, score %d)", game.LastMove.Depth, game.LastMove.Score)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func gameStateHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetGame(gameID)
	if err != nil {
		return err
	}
	s.SetGameState(resp)

	fmt.Fprintf(s.Out(), "%sGame State:%s\n", display.Cyan, display.Reset)
	display.PrettyPrintJSON(s.Out(), resp)
	return nil
}

func historyHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetMoves(gameID)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], data, 0644); err != nil {
			return err
		}
		fmt.Fprintf(s.Out(), "%sSaved %d move(s) to %s%s\n", display.Green, resp.Ply, args[0], display.Reset)
		return nil
	}
	display.PrettyPrintJSON(s.Out(), resp)
	return nil
}

func pgnHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().GetPGN(gameID)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.Out(), resp.PGN)
	return nil
}

func deleteGameHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if len(args) > 0 {
		gameID = args[0]
	}
	if gameID == "" {
		return fmt.Errorf("specify game ID or set current game")
	}

	if err := s.GetClient().DeleteGame(gameID); err != nil {
		return err
	}

	if gameID == s.GetCurrentGame() {
		s.SetCurrentGame("")
		s.SetLastMoveCount(0)
	}

	fmt.Fprintf(s.Out(), "%sGame deleted: %s%s\n", display.Green, gameID, display.Reset)
	return nil
}

func pollHandler(s Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}
	out := s.Out()
	moveCount := s.GetLastMoveCount()

	fmt.Fprintf(out, "%sLong-polling for updates (move count: %d)...%s\n",
		display.Cyan, moveCount, display.Reset)

	resp, err := s.GetClient().GetGameWithPoll(gameID, moveCount)
	if err != nil {
		return err
	}
	s.SetGameState(resp)

	if resp.Ply != moveCount {
		fmt.Fprintf(out, "%sGame updated! Move count is now %d%s\n", display.Green, resp.Ply, display.Reset)
		if resp.LastMove != nil {
			fmt.Fprintf(out, "Last move: %s\n", resp.LastMove.Move)
		}
	} else {
		fmt.Fprintf(out, "%sNo updates (timeout)%s\n", display.Yellow, display.Reset)
	}
	return nil
}
