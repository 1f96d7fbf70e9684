package engine

import (
	"math/rand"
	"time"

	"chessarena/internal/server/core"
	"chessarena/internal/server/rules"
)

// SearchResult is the move chosen by the bot with its search metadata
type SearchResult struct {
	Move  rules.Move
	Score int
	Depth int
}

// Bot picks moves for computer players. It is not safe for concurrent use,
// every queue worker owns its own instance.
type Bot struct {
	rng *rand.Rand
}

// NewBot creates a bot drawing random choices from src, a nil src seeds from the clock
func NewBot(src rand.Source) *Bot {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Bot{rng: rand.New(src)}
}

// SearchDepth maps a difficulty to the minimax depth below the root move.
// Unknown difficulties play like easy.
func SearchDepth(d core.Difficulty) int {
	switch d {
	case core.DifficultyHard:
		return 1
	case core.DifficultyVeryHard:
		return 2
	case core.DifficultyImpossible:
		return 3
	default:
		return 0
	}
}

// Move selects a move for the side to move. ok is false when no legal move
// exists, which includes a game already drawn by the fifty-move rule.
func (b *Bot) Move(state rules.GameState, d core.Difficulty) (SearchResult, bool) {
	moves := rules.AllLegalMoves(state)
	if len(moves) == 0 {
		return SearchResult{}, false
	}

	switch d {
	case core.DifficultyHard, core.DifficultyVeryHard, core.DifficultyImpossible:
		return searchRoot(state, moves, SearchDepth(d)), true
	case core.DifficultyNormal:
		return SearchResult{Move: b.pick(captures(moves))}, true
	default:
		return SearchResult{Move: b.pick(moves)}, true
	}
}

func (b *Bot) pick(moves []rules.Move) rules.Move {
	return moves[b.rng.Intn(len(moves))]
}

// captures returns the capturing subset of moves, or all of them when nothing captures
func captures(moves []rules.Move) []rules.Move {
	var out []rules.Move
	for _, m := range moves {
		if m.Captured != nil {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return moves
	}
	return out
}
