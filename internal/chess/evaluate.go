package chess

import "fmt"

// Cause is the headline reason attached to a guess result.
type Cause uint8

const (
	CauseInvalid Cause = iota
	CauseSolved
	CauseWrongKind
	CauseWrongColor
	CauseWrongOrigin
	CauseWrongDestination
)

func (c Cause) String() string {
	switch c {
	case CauseInvalid:
		return "invalid"
	case CauseSolved:
		return "solved"
	case CauseWrongKind:
		return "wrong_kind"
	case CauseWrongColor:
		return "wrong_color"
	case CauseWrongOrigin:
		return "wrong_origin"
	case CauseWrongDestination:
		return "wrong_destination"
	default:
		return fmt.Sprintf("cause(%d)", uint8(c))
	}
}

// Feedback is the structured comparison of a guess against the target.
type Feedback struct {
	Valid            bool
	ExactMatch       bool
	WrongKind        bool
	WrongColor       bool
	WrongOrigin      bool
	WrongDestination bool
}

// Headline returns the most specific mismatch, in the order
// kind, color, origin, destination.
func (f Feedback) Headline() Cause {
	switch {
	case !f.Valid:
		return CauseInvalid
	case f.ExactMatch:
		return CauseSolved
	case f.WrongKind:
		return CauseWrongKind
	case f.WrongColor:
		return CauseWrongColor
	case f.WrongOrigin:
		return CauseWrongOrigin
	default:
		return CauseWrongDestination
	}
}

// DestinationCorrect is the secondary clause shown next to the headline.
func (f Feedback) DestinationCorrect() bool {
	return f.Valid && !f.WrongDestination
}

// Evaluate compares a guess with the target field by field.
func Evaluate(g Guess, t Target) Feedback {
	f := Feedback{
		Valid:            true,
		WrongKind:        g.Kind != t.Kind,
		WrongColor:       g.Color != t.Color,
		WrongOrigin:      g.From != t.From,
		WrongDestination: g.To != t.To,
	}
	f.ExactMatch = !f.WrongKind && !f.WrongColor && !f.WrongOrigin && !f.WrongDestination
	return f
}

// ValidateGuess checks that the guessed piece stands on the claimed origin and
// that the destination is one of its legal moves.
func ValidateGuess(g Guess, b *Board) error {
	p, ok := b.PieceAt(g.From)
	if !ok {
		return fmt.Errorf("%w: %w at %s", ErrInvalidGuess, ErrNoPieceAtOrigin, g.From)
	}
	if p.Kind != g.Kind || p.Color != g.Color {
		return fmt.Errorf("%w: %w: %s %s stands on %s", ErrInvalidGuess, ErrPieceMismatch, p.Color, p.Kind, g.From)
	}
	if !IsLegalMove(p, g.To, b) {
		return fmt.Errorf("%w: %w: %s", ErrInvalidGuess, ErrIllegalDestination, g)
	}
	return nil
}

// Judge validates then evaluates. An invalid guess yields Feedback{Valid: false}
// together with the validation error.
func Judge(g Guess, b *Board, t Target) (Feedback, error) {
	if err := ValidateGuess(g, b); err != nil {
		return Feedback{}, err
	}
	return Evaluate(g, t), nil
}
