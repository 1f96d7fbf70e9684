package board

import "fmt"

// Square addresses a cell, row 0 is rank 8 and col 0 is file a
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// String returns algebraic notation, e.g. "e2"
func (s Square) String() string {
	if !s.Valid() {
		return "??"
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, 8-s.Row)
}

// Index returns the 0..63 index with a1 = 0 and h8 = 63
func (s Square) Index() int {
	return (7-s.Row)*8 + s.Col
}

// SquareFromIndex is the inverse of Index
func SquareFromIndex(i int) Square {
	return Square{Row: 7 - i/8, Col: i % 8}
}

// ParseSquare parses algebraic notation
func ParseSquare(alg string) (Square, error) {
	if len(alg) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", alg)
	}
	file, rank := alg[0], alg[1]
	if file >= 'A' && file <= 'H' {
		file += 'a' - 'A'
	}
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Square{}, fmt.Errorf("invalid square %q", alg)
	}
	return Square{Row: int('8' - rank), Col: int(file - 'a')}, nil
}

// MustSquare is ParseSquare for constant input
func MustSquare(alg string) Square {
	sq, err := ParseSquare(alg)
	if err != nil {
		panic(err)
	}
	return sq
}
