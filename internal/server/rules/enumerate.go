package rules

import (
	"chessarena/internal/server/board"
)

// AllLegalMoves lists every legal move of the side to move in row-major
// source order. Promotions are listed once, as a queen. A finished game,
// including one drawn by the fifty-move rule, has no legal moves.
func AllLegalMoves(s GameState) []Move {
	if s.IsOver() {
		return nil
	}

	var moves []Move
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := s.Board[row][col]
			if piece.IsEmpty() || piece.Color != s.Turn {
				continue
			}
			from := board.Square{Row: row, Col: col}
			for _, to := range LegalMoves(&s.Board, from, s.Castling, s.EnPassant) {
				moves = append(moves, candidate(&s.Board, from, to, piece, s.EnPassant))
			}
		}
	}
	return moves
}

// candidate describes a legal from-to pair without applying it
func candidate(b *board.Board, from, to board.Square, piece board.Piece, ep *board.Square) Move {
	m := Move{From: from, To: to, Piece: piece}

	if target := b.At(to); !target.IsEmpty() {
		m.Captured = &target
	} else if piece.Type == board.Pawn && ep != nil && to == *ep && from.Col != to.Col {
		victim := b.At(board.Square{Row: from.Row, Col: to.Col})
		m.Captured = &victim
		m.IsEnPassant = true
	}

	if isCastling(piece, from, to) {
		m.Castling = CastleQueenside
		if to.Col == 6 {
			m.Castling = CastleKingside
		}
	}

	if piece.Type == board.Pawn && to.Row == promotionRow(piece.Color) {
		m.Promotion = board.Queen
	}
	return m
}

// Input converts a move back to the submission form
func (m Move) Input() MoveInput {
	return MoveInput{From: m.From, To: m.To, Promotion: m.Promotion}
}
