package chess

import (
	"fmt"
	"strings"
	"unicode"
)

// FEN encodes the board with the given side to move. Castling and en passant
// are always "-" since neither is modelled.
func (b *Board) FEN(turn Color) string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			p, ok := b.PieceAt(Square{Row: row, Col: col})
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(fenLetter(p))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if turn == Black {
		side = "b"
	}
	return sb.String() + " " + side + " - - 0 1"
}

func fenLetter(p Piece) string {
	if p.Color == White {
		return p.Kind.Letter()
	}
	return strings.ToLower(p.Kind.Letter())
}

// ParseFEN decodes the placement and side-to-move fields of a FEN string.
// Remaining fields are ignored.
func ParseFEN(fen string) (*Board, Color, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return nil, White, fmt.Errorf("%w: empty", ErrMalformedFEN)
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, White, fmt.Errorf("%w: want 8 ranks, got %d", ErrMalformedFEN, len(ranks))
	}

	var pieces []Piece
	for row, rank := range ranks {
		col := 0
		for _, r := range rank {
			if r >= '1' && r <= '8' {
				col += int(r - '0')
				continue
			}
			kind, ok := ParseKind(string(r))
			if !ok {
				return nil, White, fmt.Errorf("%w: unknown piece %q", ErrMalformedFEN, r)
			}
			color := Black
			if unicode.IsUpper(r) {
				color = White
			}
			pieces = append(pieces, Piece{Kind: kind, Color: color, Square: Square{Row: row, Col: col}})
			col++
		}
		if col != 8 {
			return nil, White, fmt.Errorf("%w: rank %d has %d files", ErrMalformedFEN, 8-row, col)
		}
	}

	turn := White
	if len(fields) > 1 {
		c, ok := ParseColor(fields[1])
		if !ok {
			return nil, White, fmt.Errorf("%w: side to move %q", ErrMalformedFEN, fields[1])
		}
		turn = c
	}

	b, err := NewBoard(pieces...)
	if err != nil {
		return nil, White, fmt.Errorf("%w: %w", ErrMalformedFEN, err)
	}
	return b, turn, nil
}
