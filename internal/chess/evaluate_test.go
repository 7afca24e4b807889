package chess

import (
	"errors"
	"testing"
)

func TestEvaluateWrongDestinationOnly(t *testing.T) {
	target := Target{Kind: Knight, Color: White, From: mustSquare(t, "g1"), To: mustSquare(t, "f3")}
	guess := Guess{Kind: Knight, Color: White, From: mustSquare(t, "g1"), To: mustSquare(t, "e2")}

	f := Evaluate(guess, target)
	if f.ExactMatch || f.WrongKind || f.WrongColor || f.WrongOrigin || !f.WrongDestination {
		t.Fatalf("unexpected feedback: %+v", f)
	}
	if got := f.Headline(); got != CauseWrongDestination {
		t.Fatalf("headline = %s, want wrong_destination", got)
	}
	if f.DestinationCorrect() {
		t.Fatalf("destination should be reported incorrect")
	}
}

func TestEvaluateExactMatch(t *testing.T) {
	target := Target{Kind: Knight, Color: White, From: mustSquare(t, "g1"), To: mustSquare(t, "f3")}
	f := Evaluate(Guess(target), target)
	if !f.ExactMatch || f.Headline() != CauseSolved {
		t.Fatalf("want exact match, got %+v", f)
	}
}

func TestHeadlinePriority(t *testing.T) {
	target := Target{Kind: Knight, Color: White, From: mustSquare(t, "g1"), To: mustSquare(t, "f3")}
	cases := []struct {
		name  string
		guess Guess
		want  Cause
	}{
		{"kind beats everything", Guess{Kind: Rook, Color: Black, From: mustSquare(t, "a8"), To: mustSquare(t, "a1")}, CauseWrongKind},
		{"kind with right destination", Guess{Kind: Bishop, Color: White, From: mustSquare(t, "g1"), To: mustSquare(t, "f3")}, CauseWrongKind},
		{"color before origin", Guess{Kind: Knight, Color: Black, From: mustSquare(t, "b8"), To: mustSquare(t, "c6")}, CauseWrongColor},
		{"origin before destination", Guess{Kind: Knight, Color: White, From: mustSquare(t, "b1"), To: mustSquare(t, "c3")}, CauseWrongOrigin},
		{"origin with right destination", Guess{Kind: Knight, Color: White, From: mustSquare(t, "e1"), To: mustSquare(t, "f3")}, CauseWrongOrigin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := Evaluate(tc.guess, target)
			if got := f.Headline(); got != tc.want {
				t.Fatalf("headline = %s, want %s (%+v)", got, tc.want, f)
			}
		})
	}
}

func TestHeadlineDestinationClause(t *testing.T) {
	target := Target{Kind: Knight, Color: White, From: mustSquare(t, "g1"), To: mustSquare(t, "f3")}
	f := Evaluate(Guess{Kind: Bishop, Color: White, From: mustSquare(t, "e2"), To: mustSquare(t, "f3")}, target)
	if !f.DestinationCorrect() {
		t.Fatalf("destination clause should be positive: %+v", f)
	}
}

func TestJudgeRejectsInvalidGuesses(t *testing.T) {
	knight := pc(t, Knight, White, "g1")
	b := MustBoard(knight, pc(t, King, White, "e1"), pc(t, King, Black, "e8"))
	target := Target{Kind: Knight, Color: White, From: knight.Square, To: mustSquare(t, "f3")}

	cases := []struct {
		name  string
		guess Guess
		want  error
	}{
		{"empty origin", Guess{Kind: Knight, Color: White, From: mustSquare(t, "b1"), To: mustSquare(t, "c3")}, ErrNoPieceAtOrigin},
		{"wrong kind on origin", Guess{Kind: Bishop, Color: White, From: knight.Square, To: mustSquare(t, "f3")}, ErrPieceMismatch},
		{"wrong color on origin", Guess{Kind: Knight, Color: Black, From: knight.Square, To: mustSquare(t, "f3")}, ErrPieceMismatch},
		{"unreachable destination", Guess{Kind: Knight, Color: White, From: knight.Square, To: mustSquare(t, "g3")}, ErrIllegalDestination},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Judge(tc.guess, b, target)
			if !errors.Is(err, ErrInvalidGuess) || !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if f.Valid || f.Headline() != CauseInvalid {
				t.Fatalf("invalid guess must carry the invalid flag: %+v", f)
			}
		})
	}

	f, err := Judge(Guess{Kind: Knight, Color: White, From: knight.Square, To: mustSquare(t, "h3")}, b, target)
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if !f.Valid || f.Headline() != CauseWrongDestination {
		t.Fatalf("unexpected feedback: %+v", f)
	}
}
