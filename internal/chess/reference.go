package chess

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

// ReferenceBoard converts b into the full rules library's board type,
// which the renderer draws from.
func ReferenceBoard(b *Board) *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece, b.Len())
	for _, p := range b.pieces {
		m[ReferenceSquare(p.Square)] = nchess.NewPiece(referenceKind(p.Kind), referenceColor(p.Color))
	}
	return nchess.NewBoard(m)
}

func ReferenceSquare(sq Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.Col), nchess.Rank(7-sq.Row))
}

func fromReferenceSquare(sq nchess.Square) Square {
	return Square{Row: 7 - int(sq.Rank()), Col: int(sq.File())}
}

// ReferenceMoves asks the full rules library for the destinations of the piece
// on p's square with p's side to move. Promotion variants collapse into one
// destination. Pawn double steps are included since the library generates them.
func ReferenceMoves(p Piece, b *Board) ([]Square, error) {
	opt, err := nchess.FEN(b.FEN(p.Color))
	if err != nil {
		return nil, fmt.Errorf("reference position: %w", err)
	}
	game := nchess.NewGame(opt)

	from := ReferenceSquare(p.Square)
	seen := make(map[Square]bool)
	var out []Square
	for _, mv := range game.ValidMoves() {
		if mv.S1() != from {
			continue
		}
		to := fromReferenceSquare(mv.S2())
		if seen[to] {
			continue
		}
		seen[to] = true
		out = append(out, to)
	}
	return out, nil
}

func referenceKind(k Kind) nchess.PieceType {
	switch k {
	case King:
		return nchess.King
	case Queen:
		return nchess.Queen
	case Rook:
		return nchess.Rook
	case Bishop:
		return nchess.Bishop
	case Knight:
		return nchess.Knight
	default:
		return nchess.Pawn
	}
}

func referenceColor(c Color) nchess.Color {
	if c == White {
		return nchess.White
	}
	return nchess.Black
}
