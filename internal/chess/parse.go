package chess

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

var guessSeparators = strings.NewReplacer("-", " ", ",", " ", ">", " ", "→", " ")

// ParseGuess reads a guess such as "Ng1f3", "N g1 f3", "knight g1-f3",
// "white knight g1 f3" or "g1f3". Piece kind and color default to the
// occupant of the origin square when omitted. Full-width characters are
// narrowed first.
func ParseGuess(text string, b *Board) (Guess, error) {
	normalized := guessSeparators.Replace(width.Narrow.String(strings.TrimSpace(text)))
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return Guess{}, fmt.Errorf("%w: empty input", ErrMalformedGuess)
	}

	var (
		color      Color
		kind       Kind
		colorKnown bool
		kindKnown  bool
		squares    []Square
	)
	for i, tok := range tokens {
		lowered := strings.ToLower(tok)
		if lowered == "white" || lowered == "black" || (i == 0 && len(tokens) == 4 && (lowered == "w" || lowered == "b")) {
			if colorKnown {
				return Guess{}, fmt.Errorf("%w: color given twice", ErrMalformedGuess)
			}
			color, _ = ParseColor(lowered)
			colorKnown = true
			continue
		}
		if len(tok) > 1 {
			if k, ok := ParseKind(tok); ok {
				if kindKnown {
					return Guess{}, fmt.Errorf("%w: piece given twice", ErrMalformedGuess)
				}
				kind, kindKnown = k, true
				continue
			}
		}

		rest := strings.ReplaceAll(lowered, "x", "")
		if len(rest)%2 == 1 {
			k, ok := ParseKind(rest[:1])
			if !ok || kindKnown {
				return Guess{}, fmt.Errorf("%w: unexpected %q", ErrMalformedGuess, tok)
			}
			kind, kindKnown = k, true
			rest = rest[1:]
		}
		for len(rest) >= 2 {
			sq, err := FromNotation(rest[:2])
			if err != nil {
				return Guess{}, err
			}
			squares = append(squares, sq)
			rest = rest[2:]
		}
	}
	if len(squares) != 2 {
		return Guess{}, fmt.Errorf("%w: need origin and destination squares, got %d", ErrMalformedGuess, len(squares))
	}

	g := Guess{Kind: kind, Color: color, From: squares[0], To: squares[1]}
	if kindKnown && colorKnown {
		return g, nil
	}
	occupant, ok := b.PieceAt(g.From)
	if !ok {
		return Guess{}, fmt.Errorf("%w: %w at %s", ErrInvalidGuess, ErrNoPieceAtOrigin, g.From)
	}
	if !kindKnown {
		g.Kind = occupant.Kind
	}
	if !colorKnown {
		g.Color = occupant.Color
	}
	return g, nil
}
