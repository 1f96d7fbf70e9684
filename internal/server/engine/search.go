package engine

import (
	"math"

	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
	"chessarena/internal/server/rules"
)

const (
	mateBonus  = 1000
	checkBonus = 50
)

var pieceValues = map[board.PieceType]int{
	board.Pawn:   1,
	board.Knight: 3,
	board.Bishop: 3,
	board.Rook:   5,
	board.Queen:  9,
	board.King:   0,
}

// Evaluate returns the material balance, positive when white is ahead
func Evaluate(b *board.Board) int {
	score := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.IsEmpty() {
				continue
			}
			if p.Color == core.ColorWhite {
				score += pieceValues[p.Type]
			} else {
				score -= pieceValues[p.Type]
			}
		}
	}
	return score
}

// searchRoot scores every root move with a full window and keeps the first best one.
// The mate and check bonus is only applied here, one ply from the root.
func searchRoot(state rules.GameState, moves []rules.Move, depth int) SearchResult {
	white := state.Turn == core.ColorWhite
	best := SearchResult{Move: moves[0], Depth: depth}
	found := false

	for _, m := range moves {
		child, err := rules.ApplyMove(state, m.Input())
		if err != nil {
			continue
		}
		score := minimax(child, depth, math.MinInt32, math.MaxInt32, child.Turn == core.ColorWhite)
		score += terminalBonus(child, white)

		if !found || (white && score > best.Score) || (!white && score < best.Score) {
			best = SearchResult{Move: child.MoveHistory[len(child.MoveHistory)-1], Score: score, Depth: depth}
			found = true
		}
	}
	return best
}

func terminalBonus(child rules.GameState, moverWhite bool) int {
	bonus := 0
	switch {
	case child.IsCheckmate:
		bonus = mateBonus
	case child.IsCheck:
		bonus = checkBonus
	}
	if !moverWhite {
		return -bonus
	}
	return bonus
}

func minimax(state rules.GameState, depth, alpha, beta int, maximizing bool) int {
	if depth == 0 {
		return Evaluate(&state.Board)
	}
	moves := rules.AllLegalMoves(state)
	if len(moves) == 0 {
		return Evaluate(&state.Board)
	}

	if maximizing {
		value := math.MinInt32
		for _, m := range moves {
			child, err := rules.ApplyMove(state, m.Input())
			if err != nil {
				continue
			}
			value = max(value, minimax(child, depth-1, alpha, beta, false))
			alpha = max(alpha, value)
			if alpha >= beta {
				break
			}
		}
		return value
	}

	value := math.MaxInt32
	for _, m := range moves {
		child, err := rules.ApplyMove(state, m.Input())
		if err != nil {
			continue
		}
		value = min(value, minimax(child, depth-1, alpha, beta, true))
		beta = min(beta, value)
		if alpha >= beta {
			break
		}
	}
	return value
}
