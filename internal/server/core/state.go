package core

type State int

const (
	StateOngoing State = iota
	StatePending       // Computer is calculating a move
	StateStuck         // Bot worker failed, game needs an undo or new players
	StateWhiteWins
	StateBlackWins
	StateDraw
	StateStalemate
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStuck:
		return "stuck"
	case StateWhiteWins:
		return "white_wins"
	case StateBlackWins:
		return "black_wins"
	case StateDraw:
		return "draw"
	case StateStalemate:
		return "stalemate"
	case StateOngoing:
		return "ongoing"
	default:
		return "unknown"
	}
}

// IsOver reports whether the state is terminal for play
func (s State) IsOver() bool {
	switch s {
	case StateWhiteWins, StateBlackWins, StateDraw, StateStalemate:
		return true
	}
	return false
}

// WinState returns the terminal state for a win by the given color
func WinState(winner Color) State {
	if winner == ColorWhite {
		return StateWhiteWins
	}
	return StateBlackWins
}
