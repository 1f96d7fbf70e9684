// Package pgn renders recorded games as Portable Game Notation
package pgn

import (
	"fmt"
	"sort"

	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
	"chessarena/internal/server/rules"

	"github.com/notnil/chess"
)

// Export is a rendered game
type Export struct {
	PGN     string
	Outcome string // "1-0", "0-1", "1/2-1/2" or "*"
}

// Outcome maps a lifecycle state onto a PGN result
func Outcome(s core.State) string {
	switch s {
	case core.StateWhiteWins:
		return "1-0"
	case core.StateBlackWins:
		return "0-1"
	case core.StateDraw, core.StateStalemate:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Render replays moves from initialFEN and writes them in standard algebraic notation
func Render(initialFEN string, moves []rules.SerializedMove, tags map[string]string) (Export, error) {
	start, err := rules.FromFEN(initialFEN)
	if err != nil {
		return Export{}, fmt.Errorf("start position: %w", err)
	}
	final, err := rules.ReplayFrom(start, moves)
	if err != nil {
		return Export{}, err
	}

	var opts []func(*chess.Game)
	if initialFEN != board.StartingFEN {
		fenOpt, err := chess.FEN(initialFEN)
		if err != nil {
			return Export{}, fmt.Errorf("start position: %w", err)
		}
		opts = append(opts, fenOpt)
	}
	g := chess.NewGame(opts...)

	for i, m := range moves {
		mv, err := chess.UCINotation{}.Decode(g.Position(), m.UCI())
		if err != nil {
			return Export{}, fmt.Errorf("move %d %s: %w", i, m.UCI(), err)
		}
		if err := g.Move(mv); err != nil {
			return Export{}, fmt.Errorf("move %d %s: %w", i, m.UCI(), err)
		}
	}
	if final.IsDraw && !final.IsStalemate {
		// the library only records the fifty-move draw when it is claimed
		if err := g.Draw(chess.FiftyMoveRule); err != nil {
			return Export{}, fmt.Errorf("record fifty-move draw: %w", err)
		}
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g.AddTagPair(k, tags[k])
	}
	if initialFEN != board.StartingFEN {
		g.AddTagPair("SetUp", "1")
		g.AddTagPair("FEN", initialFEN)
	}

	outcome := Outcome(final.Outcome())
	g.AddTagPair("Result", outcome)
	return Export{PGN: g.String(), Outcome: outcome}, nil
}
