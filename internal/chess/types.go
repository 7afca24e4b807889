package chess

import (
	"fmt"
	"strings"
)

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Forward is the row delta a pawn of this color advances by.
func (c Color) Forward() int {
	if c == White {
		return -1
	}
	return 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return White, false
	}
}

// Kind is the piece type.
type Kind uint8

const (
	King Kind = iota
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

// Kinds lists every piece kind in declaration order.
var Kinds = [...]Kind{King, Queen, Rook, Bishop, Knight, Pawn}

func (k Kind) String() string {
	switch k {
	case King:
		return "king"
	case Queen:
		return "queen"
	case Rook:
		return "rook"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Pawn:
		return "pawn"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Letter returns the upper-case algebraic letter (P for pawns).
func (k Kind) Letter() string {
	switch k {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	case Pawn:
		return "P"
	default:
		return "?"
	}
}

func (k Kind) slides() bool {
	return k == Queen || k == Rook || k == Bishop
}

// ParseKind accepts a piece letter (K Q R B N P) or an English piece name.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "k", "king":
		return King, true
	case "q", "queen":
		return Queen, true
	case "r", "rook":
		return Rook, true
	case "b", "bishop":
		return Bishop, true
	case "n", "knight":
		return Knight, true
	case "p", "pawn":
		return Pawn, true
	default:
		return King, false
	}
}

// Square is a board cell. Row 0 is rank 8 and column 0 is the a-file.
type Square struct {
	Row int
	Col int
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) Offset(dr, dc int) Square {
	return Square{Row: s.Row + dr, Col: s.Col + dc}
}

func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return ToNotation(s)
}

// Piece is a placed piece.
type Piece struct {
	Kind   Kind
	Color  Color
	Square Square
}

func (p Piece) String() string {
	return fmt.Sprintf("%s %s %s", p.Color, p.Kind, p.Square)
}

// Target is the hidden answer of one puzzle.
type Target struct {
	Kind  Kind
	Color Color
	From  Square
	To    Square
}

// Guess is a move claimed by the player.
type Guess struct {
	Kind  Kind
	Color Color
	From  Square
	To    Square
}

func (g Guess) String() string {
	return fmt.Sprintf("%s %s %s-%s", g.Color, g.Kind, g.From, g.To)
}

// Puzzle pairs a generated board with its hidden target.
type Puzzle struct {
	Board  *Board
	Target Target
}
