package rules

import (
	"fmt"

	"chessarena/internal/server/board"
	"chessarena/internal/server/core"
)

type CastlingSide uint8

const (
	CastleNone CastlingSide = iota
	CastleKingside
	CastleQueenside
)

func (c CastlingSide) String() string {
	switch c {
	case CastleKingside:
		return "kingside"
	case CastleQueenside:
		return "queenside"
	default:
		return "none"
	}
}

// Move is an applied move with every derived flag filled in
type Move struct {
	From        board.Square
	To          board.Square
	Piece       board.Piece
	Captured    *board.Piece
	Promotion   board.PieceType
	IsEnPassant bool
	Castling    CastlingSide
	IsCheck     bool
	IsCheckmate bool
}

// UCI returns coordinate notation, e.g. "e7e8q"
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != board.NoPiece {
		s += string(m.Promotion.Letter())
	}
	return s
}

// MoveInput is what a player submits
type MoveInput struct {
	From      board.Square
	To        board.Square
	Promotion board.PieceType
}

// ParseMoveInput reads coordinate notation ("e2e4", "e7e8q")
func ParseMoveInput(s string) (MoveInput, error) {
	if len(s) != 4 && len(s) != 5 {
		return MoveInput{}, fmt.Errorf("invalid move notation %q", s)
	}
	from, err := board.ParseSquare(s[0:2])
	if err != nil {
		return MoveInput{}, err
	}
	to, err := board.ParseSquare(s[2:4])
	if err != nil {
		return MoveInput{}, err
	}
	in := MoveInput{From: from, To: to}
	if len(s) == 5 {
		promo, err := board.ParsePieceType(s[4:])
		if err != nil || !promo.IsPromotion() {
			return MoveInput{}, fmt.Errorf("invalid promotion in %q", s)
		}
		in.Promotion = promo
	}
	return in, nil
}

// GameState is a snapshot of a game. Every value is produced fresh by
// NewGame, FromFEN or ApplyMove and is never mutated afterwards.
type GameState struct {
	Board          board.Board
	Turn           core.Color
	Castling       board.CastlingRights
	EnPassant      *board.Square
	HalfMoveClock  int
	FullMoveNumber int
	IsCheck        bool
	IsCheckmate    bool
	IsStalemate    bool
	IsDraw         bool
	MoveHistory    []Move
}

// NewGame returns the standard starting state
func NewGame() GameState {
	return GameState{
		Board:          board.Initial(),
		Turn:           core.ColorWhite,
		Castling:       board.AllCastlingRights(),
		FullMoveNumber: 1,
	}
}

// FromFEN builds a state from a FEN record with status flags derived
func FromFEN(fen string) (GameState, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return GameState{}, err
	}
	for _, c := range []core.Color{core.ColorWhite, core.ColorBlack} {
		if _, ok := pos.Board.FindKing(c); !ok {
			return GameState{}, fmt.Errorf("invalid FEN: missing %s king", c)
		}
	}
	if IsInCheck(&pos.Board, core.OppositeColor(pos.Turn)) {
		return GameState{}, fmt.Errorf("invalid FEN: side not to move is in check")
	}
	if pos.EnPassant != nil && !validEnPassant(&pos.Board, pos.Turn, *pos.EnPassant) {
		return GameState{}, fmt.Errorf("invalid FEN: en passant target %s does not follow a double pawn push", pos.EnPassant)
	}

	s := GameState{
		Board:          pos.Board,
		Turn:           pos.Turn,
		Castling:       pos.Castling,
		EnPassant:      pos.EnPassant,
		HalfMoveClock:  pos.HalfMoveClock,
		FullMoveNumber: pos.FullMoveNumber,
	}
	s.evaluateStatus()
	return s, nil
}

// validEnPassant reports whether ep is the empty square an enemy pawn just
// skipped: on the third rank from the enemy side, with the pawn directly behind
// it and its origin square vacated
func validEnPassant(b *board.Board, turn core.Color, ep board.Square) bool {
	row, dir := 2, 1
	if turn == core.ColorBlack {
		row, dir = 5, -1
	}
	if ep.Row != row {
		return false
	}
	origin := board.Square{Row: row - dir, Col: ep.Col}
	pawn := board.Square{Row: row + dir, Col: ep.Col}
	return b.At(ep).IsEmpty() && b.At(origin).IsEmpty() &&
		b.At(pawn) == (board.Piece{Type: board.Pawn, Color: core.OppositeColor(turn)})
}

// Position returns the FEN view of the state
func (s GameState) Position() board.Position {
	return board.Position{
		Board:          s.Board,
		Turn:           s.Turn,
		Castling:       s.Castling,
		EnPassant:      s.EnPassant,
		HalfMoveClock:  s.HalfMoveClock,
		FullMoveNumber: s.FullMoveNumber,
	}
}

func (s GameState) FEN() string {
	return s.Position().FEN()
}

// IsOver reports whether no further move can be applied
func (s GameState) IsOver() bool {
	return s.IsCheckmate || s.IsStalemate || s.IsDraw
}

// Winner returns the side that delivered mate
func (s GameState) Winner() (core.Color, bool) {
	if !s.IsCheckmate {
		return 0, false
	}
	return core.OppositeColor(s.Turn), true
}

// Outcome maps the terminal flags onto the lifecycle state
func (s GameState) Outcome() core.State {
	switch {
	case s.IsCheckmate:
		winner, _ := s.Winner()
		return core.WinState(winner)
	case s.IsStalemate:
		return core.StateStalemate
	case s.IsDraw:
		return core.StateDraw
	}
	return core.StateOngoing
}

// evaluateStatus recomputes the flags for the side to move
func (s *GameState) evaluateStatus() {
	s.IsCheck = IsInCheck(&s.Board, s.Turn)
	canMove := HasLegalMoves(&s.Board, s.Turn, s.Castling, s.EnPassant)
	s.IsCheckmate = s.IsCheck && !canMove
	s.IsStalemate = !s.IsCheck && !canMove
	s.IsDraw = s.IsStalemate || s.HalfMoveClock >= 100
}
