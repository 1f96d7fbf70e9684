package rules

import (
	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
)

// IsSquareAttacked reports whether any attacker piece could move onto sq.
// Castling and en passant never count as attacks. Pawns attack diagonally
// whether or not sq is occupied.
func IsSquareAttacked(b *board.Board, sq board.Square, attacker core.Color) bool {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.IsEmpty() || p.Color != attacker {
				continue
			}
			from := board.Square{Row: row, Col: col}
			if p.Type == board.Pawn {
				if sq.Row == row+pawnDirection(attacker) && (sq.Col == col-1 || sq.Col == col+1) {
					return true
				}
				continue
			}
			for _, to := range RawMoves(b, from, board.CastlingRights{}, nil) {
				if to == sq {
					return true
				}
			}
		}
	}
	return false
}

// IsInCheck reports whether color's king is attacked, a board without that king is never in check
func IsInCheck(b *board.Board, color core.Color) bool {
	king, ok := b.FindKing(color)
	if !ok {
		return false
	}
	return IsSquareAttacked(b, king, core.OppositeColor(color))
}

// LegalMoves filters RawMoves down to destinations that leave the mover's king safe
func LegalMoves(b *board.Board, from board.Square, rights board.CastlingRights, ep *board.Square) []board.Square {
	piece := b.At(from)
	if piece.IsEmpty() {
		return nil
	}
	opponent := core.OppositeColor(piece.Color)

	raw := RawMoves(b, from, rights, ep)
	legal := make([]board.Square, 0, len(raw))
	for _, to := range raw {
		if isCastling(piece, from, to) {
			if IsInCheck(b, piece.Color) {
				continue
			}
			transit := board.Square{Row: from.Row, Col: (from.Col + to.Col) / 2}
			mid := *b
			mid.Set(from, board.Piece{})
			mid.Set(transit, piece)
			if IsSquareAttacked(&mid, transit, opponent) {
				continue
			}
		}

		scratch := *b
		applyToBoard(&scratch, from, to, piece, ep, board.NoPiece)
		if IsInCheck(&scratch, piece.Color) {
			continue
		}
		legal = append(legal, to)
	}
	return legal
}

// HasLegalMoves scans every piece of color for at least one legal destination
func HasLegalMoves(b *board.Board, color core.Color, rights board.CastlingRights, ep *board.Square) bool {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.IsEmpty() || p.Color != color {
				continue
			}
			if len(LegalMoves(b, board.Square{Row: row, Col: col}, rights, ep)) > 0 {
				return true
			}
		}
	}
	return false
}

func IsCheckmate(b *board.Board, color core.Color, rights board.CastlingRights, ep *board.Square) bool {
	return IsInCheck(b, color) && !HasLegalMoves(b, color, rights, ep)
}

func IsStalemate(b *board.Board, color core.Color, rights board.CastlingRights, ep *board.Square) bool {
	return !IsInCheck(b, color) && !HasLegalMoves(b, color, rights, ep)
}

func isCastling(p board.Piece, from, to board.Square) bool {
	return p.Type == board.King && from.Row == to.Row && abs(to.Col-from.Col) == 2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
