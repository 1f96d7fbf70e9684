package board

import (
	"fmt"
	"strings"

	"chessarena/internal/server/core"
)

// Board is a fixed 8x8 grid indexed [row][col]
type Board [8][8]Piece

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Initial returns the standard starting position
func Initial() Board {
	var b Board
	for col := 0; col < 8; col++ {
		b[0][col] = Piece{Type: backRank[col], Color: core.ColorBlack}
		b[1][col] = Piece{Type: Pawn, Color: core.ColorBlack}
		b[6][col] = Piece{Type: Pawn, Color: core.ColorWhite}
		b[7][col] = Piece{Type: backRank[col], Color: core.ColorWhite}
	}
	return b
}

func (b *Board) At(sq Square) Piece {
	return b[sq.Row][sq.Col]
}

func (b *Board) Set(sq Square, p Piece) {
	b[sq.Row][sq.Col] = p
}

// FindKing locates the king of the given color
func (b *Board) FindKing(c core.Color) (Square, bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p.Type == King && p.Color == c {
				return Square{Row: row, Col: col}, true
			}
		}
	}
	return Square{}, false
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for row := 0; row < 8; row++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-row))
		for col := 0; col < 8; col++ {
			sb.WriteByte(b[row][col].Symbol())
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-row))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}
