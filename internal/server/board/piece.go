package board

import (
	"fmt"

	"chessarena/internal/server/core"
)

type PieceType uint8

const (
	NoPiece PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (t PieceType) String() string {
	if int(t) < len(pieceTypeNames) {
		return pieceTypeNames[t]
	}
	return "unknown"
}

// Letter returns the lowercase FEN letter, or 0 for NoPiece
func (t PieceType) Letter() byte {
	switch t {
	case Pawn:
		return 'p'
	case Knight:
		return 'n'
	case Bishop:
		return 'b'
	case Rook:
		return 'r'
	case Queen:
		return 'q'
	case King:
		return 'k'
	}
	return 0
}

// IsPromotion reports whether a pawn may promote to t
func (t PieceType) IsPromotion() bool {
	return t == Queen || t == Rook || t == Bishop || t == Knight
}

func (t PieceType) MarshalText() ([]byte, error) {
	if t > King {
		return nil, fmt.Errorf("invalid piece type: %d", t)
	}
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(text []byte) error {
	parsed, err := ParsePieceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParsePieceType accepts full names and single FEN letters, empty means NoPiece
func ParsePieceType(s string) (PieceType, error) {
	switch s {
	case "":
		return NoPiece, nil
	case "pawn", "p":
		return Pawn, nil
	case "knight", "n":
		return Knight, nil
	case "bishop", "b":
		return Bishop, nil
	case "rook", "r":
		return Rook, nil
	case "queen", "q":
		return Queen, nil
	case "king", "k":
		return King, nil
	}
	return NoPiece, fmt.Errorf("unknown piece type %q", s)
}

// Piece is a board cell value, the zero value is an empty cell
type Piece struct {
	Type  PieceType  `json:"type"`
	Color core.Color `json:"color"`
}

func (p Piece) IsEmpty() bool {
	return p.Type == NoPiece
}

// Symbol returns the FEN character, uppercase for white
func (p Piece) Symbol() byte {
	ch := p.Type.Letter()
	if ch == 0 {
		return '.'
	}
	if p.Color == core.ColorWhite {
		ch -= 'a' - 'A'
	}
	return ch
}

// PieceFromSymbol parses a FEN piece character
func PieceFromSymbol(ch byte) (Piece, bool) {
	color := core.ColorBlack
	if ch >= 'A' && ch <= 'Z' {
		color = core.ColorWhite
		ch += 'a' - 'A'
	}
	t, err := ParsePieceType(string(ch))
	if err != nil || t == NoPiece {
		return Piece{}, false
	}
	return Piece{Type: t, Color: color}, true
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	return p.Color.String() + " " + p.Type.String()
}
