package core

import "fmt"

type Color byte

const (
	ColorWhite Color = iota + 1
	ColorBlack
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorBlack:
		return "black"
	default:
		return "-"
	}
}

// Short returns the single letter form used by FEN
func (c Color) Short() string {
	switch c {
	case ColorWhite:
		return "w"
	case ColorBlack:
		return "b"
	default:
		return "-"
	}
}

func (c Color) Valid() bool {
	return c == ColorWhite || c == ColorBlack
}

func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid color: %d", c)
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor accepts both the long and the FEN form
func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w":
		return ColorWhite, nil
	case "black", "b":
		return ColorBlack, nil
	default:
		return 0, fmt.Errorf("unknown color %q", s)
	}
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}
