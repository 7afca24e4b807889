package chess

import (
	"sort"
	"testing"
)

// Non-pawn pieces have no special moves here, so their move sets must agree
// with the full rules library.
func TestLegalMovesMatchReference(t *testing.T) {
	g := NewGenerator(WithSeed(2024))
	for i := 0; i < 100; i++ {
		b, err := g.GenerateBoard()
		if err != nil {
			t.Fatalf("GenerateBoard: %v", err)
		}
		for _, p := range b.Pieces() {
			if p.Kind == Pawn {
				continue
			}
			ref, err := ReferenceMoves(p, b)
			if err != nil {
				t.Fatalf("ReferenceMoves: %v", err)
			}
			got, want := notations(LegalMoves(p, b)), notations(ref)
			sort.Strings(want)
			if len(got) != len(want) {
				t.Fatalf("%s on %s: got %v, reference %v", p, b.FEN(p.Color), got, want)
			}
			for j := range got {
				if got[j] != want[j] {
					t.Fatalf("%s on %s: got %v, reference %v", p, b.FEN(p.Color), got, want)
				}
			}
		}
	}
}

func TestReferenceBoardPlacement(t *testing.T) {
	b := MustBoard(pc(t, King, White, "e1"), pc(t, King, Black, "e8"), pc(t, Queen, Black, "d8"))
	rb := ReferenceBoard(b)
	for _, p := range b.Pieces() {
		got := rb.Piece(ReferenceSquare(p.Square))
		if got.Type() != referenceKind(p.Kind) || got.Color() != referenceColor(p.Color) {
			t.Fatalf("reference piece on %s = %v", p.Square, got)
		}
	}
}
