package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"chessarena/internal/server/core"
	"chessarena/internal/server/pgn"
	"chessarena/internal/server/rules"
	"chessarena/internal/server/storage"

	"github.com/google/uuid"
	"golang.org/x/term"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	return run(args, os.Stdin, os.Stdout)
}

func run(args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, moves, export")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], out)
	case "delete":
		return runDelete(args[1:], in, out)
	case "query":
		return runQuery(args[1:], out)
	case "moves":
		return runMoves(args[1:], out)
	case "export":
		return runExport(args[1:], out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func runInit(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	force := fs.Bool("force", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	if !*force && isTerminal(in) {
		fmt.Fprintf(out, "Delete %s and all recorded games? [y/N]: ", *path)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", *path)
	return nil
}

// isTerminal reports whether r is an interactive terminal
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func describePlayer(id string, playerType int, difficulty string) string {
	if core.PlayerType(playerType) == core.PlayerComputer {
		return fmt.Sprintf("%s (bot %s)", short(id), difficulty)
	}
	return fmt.Sprintf("%s (human)", short(id))
}

func runQuery(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	gameID := fs.String("gameId", "", "Game ID to filter (optional, * for all)")
	playerID := fs.String("playerId", "", "Player ID to filter (optional, * for all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	games, err := store.QueryGames(*gameID, *playerID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tWhite Player\tBlack Player\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			g.GameID,
			describePlayer(g.WhitePlayerID, g.WhiteType, g.WhiteDifficulty),
			describePlayer(g.BlackPlayerID, g.BlackType, g.BlackDifficulty),
			g.StartTimeUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

// gameFlags parses the -path and -gameId pair shared by moves and export
func gameFlags(name string, args []string) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	gameID := fs.String("gameId", "", "Game ID (required)")

	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if *path == "" {
		return "", "", fmt.Errorf("database path required")
	}
	if _, err := uuid.Parse(*gameID); err != nil {
		return "", "", fmt.Errorf("valid game ID required: %w", err)
	}
	return *path, *gameID, nil
}

// loadGame reads a stored game and decodes its move list
func loadGame(path, gameID string) (storage.GameRecord, []storage.MoveRecord, []rules.SerializedMove, error) {
	store, err := storage.NewStore(path, false)
	if err != nil {
		return storage.GameRecord{}, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	record, err := store.LoadGame(gameID)
	if err != nil {
		return storage.GameRecord{}, nil, nil, fmt.Errorf("load game: %w", err)
	}
	rows, err := store.LoadMoves(gameID)
	if err != nil {
		return storage.GameRecord{}, nil, nil, fmt.Errorf("load moves: %w", err)
	}

	moves := make([]rules.SerializedMove, 0, len(rows))
	for i, row := range rows {
		m, err := rules.DecodeMove([]byte(row.MoveJSON))
		if err != nil {
			return storage.GameRecord{}, nil, nil, &rules.DecodeError{Index: i, Err: err}
		}
		moves = append(moves, m)
	}
	return record, rows, moves, nil
}

func runMoves(args []string, out io.Writer) error {
	path, gameID, err := gameFlags("moves", args)
	if err != nil {
		return err
	}

	record, rows, _, err := loadGame(path, gameID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Game %s from %s\n\n", record.GameID, record.InitialFEN)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ply\tColor\tMove\tTime")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			row.Ply,
			row.PlayerColor,
			row.MoveUCI,
			row.MoveTimeUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d move(s)\n", len(rows))
	return nil
}

func runExport(args []string, out io.Writer) error {
	path, gameID, err := gameFlags("export", args)
	if err != nil {
		return err
	}

	record, _, moves, err := loadGame(path, gameID)
	if err != nil {
		return err
	}

	tags := map[string]string{
		"Event": "chessarena",
		"Site":  record.GameID,
		"Date":  record.StartTimeUTC.Format("2006.01.02"),
		"White": describePlayer(record.WhitePlayerID, record.WhiteType, record.WhiteDifficulty),
		"Black": describePlayer(record.BlackPlayerID, record.BlackType, record.BlackDifficulty),
	}
	export, err := pgn.Render(record.InitialFEN, moves, tags)
	if err != nil {
		return fmt.Errorf("render PGN: %w", err)
	}

	fmt.Fprintln(out, export.PGN)
	return nil
}
