package chess

import (
	"fmt"
	"strings"
)

const files = "abcdefgh"

// ToNotation converts a square to algebraic notation. Row 0 maps to rank 8.
func ToNotation(sq Square) string {
	return string([]byte{files[sq.Col], byte('8' - sq.Row)})
}

// FromNotation parses exactly one file letter followed by one rank digit.
func FromNotation(text string) (Square, error) {
	if len(text) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrMalformedNotation, text)
	}
	col := strings.IndexByte(files, lower(text[0]))
	if col < 0 {
		return Square{}, fmt.Errorf("%w: unknown file in %q", ErrMalformedNotation, text)
	}
	rank := text[1]
	if rank < '1' || rank > '8' {
		return Square{}, fmt.Errorf("%w: unknown rank in %q", ErrMalformedNotation, text)
	}
	return Square{Row: int('8' - rank), Col: col}, nil
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
