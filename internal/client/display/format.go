package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// PrettyPrintJSON writes v as indented JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red, err.Error(), Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}

// FormatHistory numbers a UCI move list starting at white's first move
func FormatHistory(moves []string, blackFirst bool) string {
	var sb strings.Builder
	i, number := 0, 1
	if blackFirst && len(moves) > 0 {
		fmt.Fprintf(&sb, "1...%s", moves[0])
		i, number = 1, 2
	}
	for ; i < len(moves); i += 2 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d.%s", number, moves[i])
		if i+1 < len(moves) {
			sb.WriteString(" " + moves[i+1])
		}
		number++
	}
	return sb.String()
}
