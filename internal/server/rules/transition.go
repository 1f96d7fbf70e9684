package rules

import (
	"chessarena/internal/server/board"
	"chessarena/internal/server/core"

	"golang.org/x/exp/slices"
)

// ApplyMove validates in against state and returns the successor state.
// The input state is not modified.
func ApplyMove(state GameState, in MoveInput) (GameState, error) {
	reject := func(err error) (GameState, error) {
		return GameState{}, &InvalidMoveError{From: in.From, To: in.To, Err: err}
	}

	if !in.From.Valid() || !in.To.Valid() {
		return reject(ErrOutOfRange)
	}
	if state.IsOver() {
		return reject(ErrGameFinished)
	}

	piece := state.Board.At(in.From)
	if piece.IsEmpty() {
		return reject(ErrNoPiece)
	}
	if piece.Color != state.Turn {
		return reject(ErrWrongTurn)
	}
	if !slices.Contains(LegalMoves(&state.Board, in.From, state.Castling, state.EnPassant), in.To) {
		return reject(ErrIllegalTarget)
	}

	promotion := board.NoPiece
	if piece.Type == board.Pawn && in.To.Row == promotionRow(piece.Color) {
		promotion = in.Promotion
		if promotion == board.NoPiece {
			promotion = board.Queen
		}
		if !promotion.IsPromotion() {
			return reject(ErrInvalidPromotion)
		}
	}

	next := state
	captured, enPassant, castling := applyToBoard(&next.Board, in.From, in.To, piece, state.EnPassant, promotion)

	next.Castling = updateCastling(state.Castling, piece, in.From, in.To)

	next.EnPassant = nil
	if piece.Type == board.Pawn && abs(in.To.Row-in.From.Row) == 2 {
		ep := board.Square{Row: (in.From.Row + in.To.Row) / 2, Col: in.From.Col}
		next.EnPassant = &ep
	}

	if piece.Type == board.Pawn || captured != nil {
		next.HalfMoveClock = 0
	} else {
		next.HalfMoveClock = state.HalfMoveClock + 1
	}
	if piece.Color == core.ColorBlack {
		next.FullMoveNumber = state.FullMoveNumber + 1
	}

	next.Turn = core.OppositeColor(state.Turn)
	next.evaluateStatus()

	move := Move{
		From:        in.From,
		To:          in.To,
		Piece:       piece,
		Captured:    captured,
		Promotion:   promotion,
		IsEnPassant: enPassant,
		Castling:    castling,
		IsCheck:     next.IsCheck,
		IsCheckmate: next.IsCheckmate,
	}
	next.MoveHistory = append(slices.Clone(state.MoveHistory), move)

	return next, nil
}

// applyToBoard performs the physical relocation on b, including the en passant
// removal, the castling rook hop and promotion. Legality is not checked.
func applyToBoard(b *board.Board, from, to board.Square, piece board.Piece, ep *board.Square, promotion board.PieceType) (*board.Piece, bool, CastlingSide) {
	var captured *board.Piece
	if target := b.At(to); !target.IsEmpty() {
		captured = &target
	}

	b.Set(to, piece)
	b.Set(from, board.Piece{})

	enPassant := false
	if piece.Type == board.Pawn && ep != nil && to == *ep && from.Col != to.Col && captured == nil {
		victimSq := board.Square{Row: from.Row, Col: to.Col}
		victim := b.At(victimSq)
		captured = &victim
		b.Set(victimSq, board.Piece{})
		enPassant = true
	}

	castling := CastleNone
	if isCastling(piece, from, to) {
		row := from.Row
		rook := board.Piece{Type: board.Rook, Color: piece.Color}
		if to.Col == 6 {
			b[row][7] = board.Piece{}
			b[row][5] = rook
			castling = CastleKingside
		} else {
			b[row][0] = board.Piece{}
			b[row][3] = rook
			castling = CastleQueenside
		}
	}

	if promotion != board.NoPiece {
		b.Set(to, board.Piece{Type: promotion, Color: piece.Color})
	}

	return captured, enPassant, castling
}

var rookHomes = map[board.Square]func(*board.CastlingRights){
	{Row: 7, Col: 7}: func(r *board.CastlingRights) { r.WhiteKingside = false },
	{Row: 7, Col: 0}: func(r *board.CastlingRights) { r.WhiteQueenside = false },
	{Row: 0, Col: 7}: func(r *board.CastlingRights) { r.BlackKingside = false },
	{Row: 0, Col: 0}: func(r *board.CastlingRights) { r.BlackQueenside = false },
}

// updateCastling strips rights after a king move, a move from a rook home
// square, or a capture landing on a rook home square
func updateCastling(r board.CastlingRights, piece board.Piece, from, to board.Square) board.CastlingRights {
	if piece.Type == board.King {
		if piece.Color == core.ColorWhite {
			r.WhiteKingside, r.WhiteQueenside = false, false
		} else {
			r.BlackKingside, r.BlackQueenside = false, false
		}
	}
	if strip, ok := rookHomes[from]; ok {
		strip(&r)
	}
	if strip, ok := rookHomes[to]; ok {
		strip(&r)
	}
	return r
}
