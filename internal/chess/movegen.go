package chess

// LegalMoves returns the destinations p may move to on b.
// Castling, double steps, en passant and promotion are not generated.
// The board is not modified and a fresh slice is returned on every call.
func LegalMoves(p Piece, b *Board) []Square {
	var candidates []Square
	switch p.Kind {
	case Rook, Bishop, Queen:
		candidates = slideTargets(p, b)
	case Knight:
		candidates = stepTargets(p, b, knightJumps)
	case King:
		candidates = stepTargets(p, b, kingSteps)
	case Pawn:
		candidates = pawnTargets(p, b)
	}

	moves := make([]Square, 0, len(candidates))
	for _, to := range candidates {
		if leavesKingAttacked(p, to, b) {
			continue
		}
		moves = append(moves, to)
	}
	return moves
}

// AllLegalMoves returns every legal move of color c keyed by origin square.
// Pieces without moves are omitted.
func AllLegalMoves(c Color, b *Board) map[Square][]Square {
	out := make(map[Square][]Square)
	for _, p := range b.pieces {
		if p.Color != c {
			continue
		}
		if moves := LegalMoves(p, b); len(moves) > 0 {
			out[p.Square] = moves
		}
	}
	return out
}

// IsLegalMove reports whether to is among LegalMoves(p, b).
func IsLegalMove(p Piece, to Square, b *Board) bool {
	for _, sq := range LegalMoves(p, b) {
		if sq == to {
			return true
		}
	}
	return false
}

func slideTargets(p Piece, b *Board) []Square {
	var out []Square
	for _, d := range slideDirs(p.Kind) {
		for sq := p.Square.Offset(d.dr, d.dc); sq.Valid(); sq = sq.Offset(d.dr, d.dc) {
			occupant, ok := b.PieceAt(sq)
			if !ok {
				out = append(out, sq)
				continue
			}
			if occupant.Color != p.Color {
				out = append(out, sq)
			}
			break
		}
	}
	return out
}

func stepTargets(p Piece, b *Board, steps []direction) []Square {
	var out []Square
	for _, d := range steps {
		sq := p.Square.Offset(d.dr, d.dc)
		if !sq.Valid() {
			continue
		}
		if occupant, ok := b.PieceAt(sq); ok && occupant.Color == p.Color {
			continue
		}
		out = append(out, sq)
	}
	return out
}

func pawnTargets(p Piece, b *Board) []Square {
	var out []Square
	fwd := p.Color.Forward()
	if ahead := p.Square.Offset(fwd, 0); ahead.Valid() && !b.Occupied(ahead) {
		out = append(out, ahead)
	}
	for _, dc := range [...]int{-1, 1} {
		sq := p.Square.Offset(fwd, dc)
		if occupant, ok := b.PieceAt(sq); ok && occupant.Color != p.Color {
			out = append(out, sq)
		}
	}
	return out
}

// leavesKingAttacked plays p to `to` on a copy of b and reports whether any
// enemy piece then attacks p's own king. For a king move the moved king is
// the one tested, so this doubles as the "no stepping into attack" rule.
func leavesKingAttacked(p Piece, to Square, b *Board) bool {
	next := b.withMove(p.Square, to)
	for _, enemy := range next.pieces {
		if enemy.Color == p.Color {
			continue
		}
		if Attacks(enemy, next) {
			return true
		}
	}
	return false
}
