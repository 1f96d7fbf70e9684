package rules

import (
	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
)

type offset struct {
	dr, dc int
}

var (
	knightOffsets = [8]offset{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = [8]offset{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	bishopDirs    = []offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	rookDirs      = []offset{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	queenDirs     = append(append([]offset{}, rookDirs...), bishopDirs...)
)

// pawnDirection is the row delta of a forward pawn step
func pawnDirection(c core.Color) int {
	if c == core.ColorWhite {
		return -1
	}
	return 1
}

func pawnStartRow(c core.Color) int {
	if c == core.ColorWhite {
		return 6
	}
	return 1
}

// promotionRow is the farthest rank for the color
func promotionRow(c core.Color) int {
	if c == core.ColorWhite {
		return 0
	}
	return 7
}

// homeRow is the back rank of the color
func homeRow(c core.Color) int {
	if c == core.ColorWhite {
		return 7
	}
	return 0
}

// RawMoves returns the pseudo-legal destinations of the piece on from.
// King safety is not checked here, castling only checks rights and empty cells.
func RawMoves(b *board.Board, from board.Square, rights board.CastlingRights, ep *board.Square) []board.Square {
	piece := b.At(from)
	if piece.IsEmpty() {
		return nil
	}

	switch piece.Type {
	case board.Pawn:
		return pawnMoves(b, from, piece.Color, ep)
	case board.Knight:
		return stepMoves(b, from, piece.Color, knightOffsets[:])
	case board.Bishop:
		return slideMoves(b, from, piece.Color, bishopDirs)
	case board.Rook:
		return slideMoves(b, from, piece.Color, rookDirs)
	case board.Queen:
		return slideMoves(b, from, piece.Color, queenDirs)
	case board.King:
		moves := stepMoves(b, from, piece.Color, kingOffsets[:])
		return append(moves, castlingMoves(b, from, piece.Color, rights)...)
	}
	return nil
}

func pawnMoves(b *board.Board, from board.Square, color core.Color, ep *board.Square) []board.Square {
	var moves []board.Square
	dir := pawnDirection(color)

	one := board.Square{Row: from.Row + dir, Col: from.Col}
	if one.Valid() && b.At(one).IsEmpty() {
		moves = append(moves, one)
		two := board.Square{Row: from.Row + 2*dir, Col: from.Col}
		if from.Row == pawnStartRow(color) && b.At(two).IsEmpty() {
			moves = append(moves, two)
		}
	}

	for _, dc := range [2]int{-1, 1} {
		diag := board.Square{Row: from.Row + dir, Col: from.Col + dc}
		if !diag.Valid() {
			continue
		}
		target := b.At(diag)
		if (!target.IsEmpty() && target.Color != color) || (ep != nil && *ep == diag) {
			moves = append(moves, diag)
		}
	}
	return moves
}

func stepMoves(b *board.Board, from board.Square, color core.Color, offsets []offset) []board.Square {
	var moves []board.Square
	for _, o := range offsets {
		to := board.Square{Row: from.Row + o.dr, Col: from.Col + o.dc}
		if !to.Valid() {
			continue
		}
		target := b.At(to)
		if target.IsEmpty() || target.Color != color {
			moves = append(moves, to)
		}
	}
	return moves
}

func slideMoves(b *board.Board, from board.Square, color core.Color, dirs []offset) []board.Square {
	var moves []board.Square
	for _, d := range dirs {
		to := board.Square{Row: from.Row + d.dr, Col: from.Col + d.dc}
		for to.Valid() {
			target := b.At(to)
			if !target.IsEmpty() {
				if target.Color != color {
					moves = append(moves, to)
				}
				break
			}
			moves = append(moves, to)
			to = board.Square{Row: to.Row + d.dr, Col: to.Col + d.dc}
		}
	}
	return moves
}

// castlingMoves yields the king's two-file destinations when the right is held,
// the king and rook stand on their home squares and the cells between are empty
func castlingMoves(b *board.Board, from board.Square, color core.Color, rights board.CastlingRights) []board.Square {
	row := homeRow(color)
	if from != (board.Square{Row: row, Col: 4}) {
		return nil
	}

	var moves []board.Square
	rook := board.Piece{Type: board.Rook, Color: color}

	if rights.Kingside(color) && b[row][7] == rook &&
		b[row][5].IsEmpty() && b[row][6].IsEmpty() {
		moves = append(moves, board.Square{Row: row, Col: 6})
	}
	if rights.Queenside(color) && b[row][0] == rook &&
		b[row][1].IsEmpty() && b[row][2].IsEmpty() && b[row][3].IsEmpty() {
		moves = append(moves, board.Square{Row: row, Col: 2})
	}
	return moves
}
