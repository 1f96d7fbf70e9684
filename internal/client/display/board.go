package display

import (
	"fmt"
	"io"
	"strings"
)

// RenderBoard writes an ASCII board with colored pieces
func RenderBoard(w io.Writer, asciiBoard string) {
	lines := strings.Split(strings.TrimRight(asciiBoard, "\n"), "\n")
	last := len(lines) - 1

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		isFileLine := i == 0 || i == last

		var sb strings.Builder
		for _, char := range line {
			switch {
			case char >= 'a' && char <= 'h' && isFileLine:
				sb.WriteString(Cyan + string(char) + Reset)
			case char >= 'A' && char <= 'Z':
				// White pieces
				sb.WriteString(Blue + string(char) + Reset)
			case char >= 'a' && char <= 'z':
				// Black pieces
				sb.WriteString(Red + string(char) + Reset)
			case char >= '1' && char <= '8':
				sb.WriteString(Cyan + string(char) + Reset)
			default:
				sb.WriteRune(char)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

// ColorForTurn returns a colored turn indicator for "white" or "black"
func ColorForTurn(turn string) string {
	if turn == "white" {
		return Blue + "White" + Reset
	}
	return Red + "Black" + Reset
}
