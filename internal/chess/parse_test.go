package chess

import (
	"errors"
	"testing"
)

func TestParseGuess(t *testing.T) {
	b := MustBoard(
		pc(t, Knight, White, "g1"),
		pc(t, Bishop, Black, "b4"),
		pc(t, King, White, "e1"),
		pc(t, King, Black, "e8"),
	)
	knight := Guess{Kind: Knight, Color: White, From: mustSquare(t, "g1"), To: mustSquare(t, "f3")}
	bishop := Guess{Kind: Bishop, Color: Black, From: mustSquare(t, "b4"), To: mustSquare(t, "c3")}

	cases := map[string]Guess{
		"Ng1f3":              knight,
		"Ng1-f3":             knight,
		"N g1 f3":            knight,
		"knight g1-f3":       knight,
		"white knight g1 f3": knight,
		"w N g1 f3":          knight,
		"g1f3":               knight,
		"g1 f3":              knight,
		"Ｎｇ１ｆ３":              knight,
		"Bb4c3":              bishop,
		"b b4 c3":            bishop,
		"black bishop b4xc3": bishop,
		"b4-c3":              bishop,
	}
	for text, want := range cases {
		got, err := ParseGuess(text, b)
		if err != nil {
			t.Fatalf("ParseGuess(%q): %v", text, err)
		}
		if got != want {
			t.Fatalf("ParseGuess(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestParseGuessKeepsExplicitFields(t *testing.T) {
	b := MustBoard(pc(t, Knight, White, "g1"), pc(t, King, White, "e1"), pc(t, King, Black, "e8"))
	got, err := ParseGuess("black rook g1 g3", b)
	if err != nil {
		t.Fatalf("ParseGuess: %v", err)
	}
	if got.Kind != Rook || got.Color != Black {
		t.Fatalf("explicit fields overwritten: %s", got)
	}
	if _, err := Judge(got, b, Target{}); !errors.Is(err, ErrPieceMismatch) {
		t.Fatalf("Judge err = %v, want ErrPieceMismatch", err)
	}
}

func TestParseGuessErrors(t *testing.T) {
	b := MustBoard(pc(t, King, White, "e1"), pc(t, King, Black, "e8"))
	malformed := []string{"", "   ", "hello", "N g1", "Ng1f3h4", "knight knight e1 e2", "Zg1f3"}
	for _, text := range malformed {
		_, err := ParseGuess(text, b)
		if !errors.Is(err, ErrMalformedGuess) && !errors.Is(err, ErrMalformedNotation) {
			t.Fatalf("ParseGuess(%q) err = %v, want malformed", text, err)
		}
	}
	if _, err := ParseGuess("a2a3", b); !errors.Is(err, ErrNoPieceAtOrigin) {
		t.Fatalf("ParseGuess on empty origin err = %v", err)
	}
}
