package chess

type direction struct{ dr, dc int }

var (
	straightDirs = []direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonalDirs = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	queenDirs    = append(append([]direction(nil), straightDirs...), diagonalDirs...)
	knightJumps  = []direction{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingSteps    = []direction{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

func slideDirs(k Kind) []direction {
	switch k {
	case Rook:
		return straightDirs
	case Bishop:
		return diagonalDirs
	case Queen:
		return queenDirs
	default:
		return nil
	}
}

// Attacks reports whether p attacks the opposing king on b.
// It is false when the opposing king is not on the board.
func Attacks(p Piece, b *Board) bool {
	king, ok := b.King(p.Color.Opponent())
	if !ok {
		return false
	}
	return attacksSquare(p, king.Square, b)
}

func attacksSquare(p Piece, target Square, b *Board) bool {
	dr := target.Row - p.Square.Row
	dc := target.Col - p.Square.Col
	if dr == 0 && dc == 0 {
		return false
	}
	switch p.Kind {
	case Knight:
		return (abs(dr) == 1 && abs(dc) == 2) || (abs(dr) == 2 && abs(dc) == 1)
	case King:
		return abs(dr) <= 1 && abs(dc) <= 1
	case Pawn:
		return dr == p.Color.Forward() && abs(dc) == 1
	case Rook:
		return (dr == 0 || dc == 0) && pathClear(p.Square, target, b)
	case Bishop:
		return abs(dr) == abs(dc) && pathClear(p.Square, target, b)
	case Queen:
		return (dr == 0 || dc == 0 || abs(dr) == abs(dc)) && pathClear(p.Square, target, b)
	default:
		return false
	}
}

// pathClear reports whether every square strictly between from and to is empty.
// from and to must share a rank, file or diagonal.
func pathClear(from, to Square, b *Board) bool {
	step := direction{sign(to.Row - from.Row), sign(to.Col - from.Col)}
	for sq := from.Offset(step.dr, step.dc); sq != to; sq = sq.Offset(step.dr, step.dc) {
		if b.Occupied(sq) {
			return false
		}
	}
	return true
}

// IsInCheck reports whether any piece of the other color attacks c's king.
func IsInCheck(c Color, b *Board) bool {
	for _, p := range b.pieces {
		if p.Color != c && Attacks(p, b) {
			return true
		}
	}
	return false
}

// KingsAdjacent reports whether both kings are present and touching.
func KingsAdjacent(b *Board) bool {
	wk, ok := b.King(White)
	if !ok {
		return false
	}
	bk, ok := b.King(Black)
	if !ok {
		return false
	}
	return abs(wk.Square.Row-bk.Square.Row) <= 1 && abs(wk.Square.Col-bk.Square.Col) <= 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
