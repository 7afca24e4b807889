package chess

import (
	"errors"
	"testing"
)

func TestNewBoardRejectsInvalidPlacement(t *testing.T) {
	cases := []struct {
		name   string
		pieces []Piece
		want   error
	}{
		{
			name:   "off board",
			pieces: []Piece{{Kind: Rook, Color: White, Square: Square{Row: 8, Col: 0}}},
			want:   ErrOffBoard,
		},
		{
			name:   "shared square",
			pieces: []Piece{pc(t, Rook, White, "a1"), pc(t, Knight, Black, "a1")},
			want:   ErrSquareOccupied,
		},
		{
			name:   "second white king",
			pieces: []Piece{pc(t, King, White, "e1"), pc(t, King, White, "e3")},
			want:   ErrDuplicateKing,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewBoard(tc.pieces...); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBoardReads(t *testing.T) {
	b := MustBoard(pc(t, King, White, "e1"), pc(t, King, Black, "e8"), pc(t, Queen, Black, "d5"))
	if b.Len() != 3 {
		t.Fatalf("Len = %d", b.Len())
	}
	if p, ok := b.PieceAt(mustSquare(t, "d5")); !ok || p.Kind != Queen || p.Color != Black {
		t.Fatalf("PieceAt(d5) = %v, %v", p, ok)
	}
	if _, ok := b.PieceAt(Square{Row: -1, Col: 3}); ok {
		t.Fatal("off-board lookup must miss")
	}
	if k, ok := b.King(Black); !ok || ToNotation(k.Square) != "e8" {
		t.Fatalf("King(black) = %v, %v", k, ok)
	}

	pieces := b.Pieces()
	pieces[0].Square = mustSquare(t, "a1")
	if _, ok := b.PieceAt(mustSquare(t, "a1")); ok {
		t.Fatal("Pieces must return a copy")
	}
}

func TestWithMoveLeavesOriginalUntouched(t *testing.T) {
	b := MustBoard(pc(t, King, White, "e1"), pc(t, King, Black, "e8"), pc(t, Rook, White, "a1"), pc(t, Knight, Black, "a7"))
	next := b.withMove(mustSquare(t, "a1"), mustSquare(t, "a7"))

	if next.Len() != 3 {
		t.Fatalf("capture left %d pieces", next.Len())
	}
	if p, ok := next.PieceAt(mustSquare(t, "a7")); !ok || p.Kind != Rook {
		t.Fatalf("a7 after capture = %v, %v", p, ok)
	}
	if next.Occupied(mustSquare(t, "a1")) {
		t.Fatal("origin must be empty after the move")
	}
	if p, ok := b.PieceAt(mustSquare(t, "a7")); !ok || p.Kind != Knight || b.Len() != 4 {
		t.Fatal("original board was mutated")
	}
}

func TestRemoveAtReindexes(t *testing.T) {
	b := MustBoard(pc(t, Rook, White, "a1"), pc(t, Bishop, White, "c1"), pc(t, Pawn, Black, "h7"))
	b.removeAt(mustSquare(t, "a1"))
	if b.Len() != 2 || b.Occupied(mustSquare(t, "a1")) {
		t.Fatal("a1 should be gone")
	}
	if p, ok := b.PieceAt(mustSquare(t, "h7")); !ok || p.Kind != Pawn {
		t.Fatalf("h7 lookup broken after removal: %v, %v", p, ok)
	}
}
