package board

import (
	"fmt"
	"strconv"
	"strings"

	"chessarena/internal/server/core"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// CastlingRights only ever lose flags during a game
type CastlingRights struct {
	WhiteKingside  bool `json:"whiteKingside"`
	WhiteQueenside bool `json:"whiteQueenside"`
	BlackKingside  bool `json:"blackKingside"`
	BlackQueenside bool `json:"blackQueenside"`
}

func AllCastlingRights() CastlingRights {
	return CastlingRights{true, true, true, true}
}

// Kingside returns the kingside flag for a color
func (r CastlingRights) Kingside(c core.Color) bool {
	if c == core.ColorWhite {
		return r.WhiteKingside
	}
	return r.BlackKingside
}

// Queenside returns the queenside flag for a color
func (r CastlingRights) Queenside(c core.Color) bool {
	if c == core.ColorWhite {
		return r.WhiteQueenside
	}
	return r.BlackQueenside
}

func (r CastlingRights) String() string {
	var sb strings.Builder
	if r.WhiteKingside {
		sb.WriteByte('K')
	}
	if r.WhiteQueenside {
		sb.WriteByte('Q')
	}
	if r.BlackKingside {
		sb.WriteByte('k')
	}
	if r.BlackQueenside {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func parseCastling(s string) (CastlingRights, error) {
	var r CastlingRights
	if s == "-" {
		return r, nil
	}
	for _, ch := range s {
		switch ch {
		case 'K':
			r.WhiteKingside = true
		case 'Q':
			r.WhiteQueenside = true
		case 'k':
			r.BlackKingside = true
		case 'q':
			r.BlackQueenside = true
		default:
			return r, fmt.Errorf("invalid FEN: castling field %q", s)
		}
	}
	return r, nil
}

// Position is the full content of a FEN record
type Position struct {
	Board          Board
	Turn           core.Color
	Castling       CastlingRights
	EnPassant      *Square
	HalfMoveClock  int
	FullMoveNumber int
}

func ParseFEN(fen string) (Position, error) {
	var pos Position
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return pos, fmt.Errorf("invalid FEN: expected 6 parts, got %d", len(parts))
	}

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return pos, fmt.Errorf("invalid FEN: expected 8 ranks")
	}

	for row := 0; row < 8; row++ {
		col := 0
		for i := 0; i < len(ranks[row]); i++ {
			ch := ranks[row][i]
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			if col >= 8 {
				return pos, fmt.Errorf("invalid FEN: too many pieces in rank %d", 8-row)
			}
			p, ok := PieceFromSymbol(ch)
			if !ok {
				return pos, fmt.Errorf("invalid FEN: unknown piece %q", ch)
			}
			pos.Board[row][col] = p
			col++
		}
		if col != 8 {
			return pos, fmt.Errorf("invalid FEN: rank %d has %d files", 8-row, col)
		}
	}

	switch parts[1] {
	case "w":
		pos.Turn = core.ColorWhite
	case "b":
		pos.Turn = core.ColorBlack
	default:
		return pos, fmt.Errorf("invalid FEN: turn must be 'w' or 'b'")
	}

	rights, err := parseCastling(parts[2])
	if err != nil {
		return pos, err
	}
	pos.Castling = rights

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return pos, fmt.Errorf("invalid FEN: en passant: %w", err)
		}
		pos.EnPassant = &sq
	}

	if pos.HalfMoveClock, err = strconv.Atoi(parts[4]); err != nil || pos.HalfMoveClock < 0 {
		return pos, fmt.Errorf("invalid FEN: halfmove counter")
	}
	if pos.FullMoveNumber, err = strconv.Atoi(parts[5]); err != nil || pos.FullMoveNumber < 1 {
		return pos, fmt.Errorf("invalid FEN: fullmove counter")
	}

	return pos, nil
}

// FEN renders the position in Forsyth-Edwards notation
func (p Position) FEN() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			piece := p.Board[row][col]
			if piece.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece.Symbol())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}

	ep := "-"
	if p.EnPassant != nil {
		ep = p.EnPassant.String()
	}

	return fmt.Sprintf("%s %s %s %s %d %d",
		sb.String(), p.Turn.Short(), p.Castling, ep, p.HalfMoveClock, p.FullMoveNumber)
}
