package chess

import "fmt"

// Board is an unordered set of pieces on distinct squares with at most one king per color.
// Exported methods never mutate the receiver.
type Board struct {
	pieces []Piece
	grid   [8][8]int8 // index+1 into pieces, 0 when empty
}

// NewBoard validates and builds a board from the given pieces.
func NewBoard(pieces ...Piece) (*Board, error) {
	b := &Board{pieces: make([]Piece, 0, len(pieces))}
	for _, p := range pieces {
		if err := b.add(p); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// MustBoard is NewBoard for fixtures; it panics on invalid input.
func MustBoard(pieces ...Piece) *Board {
	b, err := NewBoard(pieces...)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Board) Len() int { return len(b.pieces) }

// Pieces returns a copy of the piece list.
func (b *Board) Pieces() []Piece {
	return append([]Piece(nil), b.pieces...)
}

func (b *Board) PieceAt(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	idx := b.grid[sq.Row][sq.Col]
	if idx == 0 {
		return Piece{}, false
	}
	return b.pieces[idx-1], true
}

func (b *Board) Occupied(sq Square) bool {
	return sq.Valid() && b.grid[sq.Row][sq.Col] != 0
}

func (b *Board) King(c Color) (Piece, bool) {
	for _, p := range b.pieces {
		if p.Kind == King && p.Color == c {
			return p, true
		}
	}
	return Piece{}, false
}

// withMove returns a copy of the board where the piece on from stands on to.
// Whatever stood on to is captured.
func (b *Board) withMove(from, to Square) *Board {
	moving, ok := b.PieceAt(from)
	if !ok {
		return b.clone()
	}
	next := &Board{pieces: make([]Piece, 0, len(b.pieces))}
	for _, p := range b.pieces {
		if p.Square == from || p.Square == to {
			continue
		}
		next.insert(p)
	}
	moving.Square = to
	next.insert(moving)
	return next
}

func (b *Board) clone() *Board {
	next := &Board{pieces: append([]Piece(nil), b.pieces...)}
	next.grid = b.grid
	return next
}

func (b *Board) add(p Piece) error {
	if !p.Square.Valid() {
		return fmt.Errorf("%w: %v", ErrOffBoard, p.Square)
	}
	if b.Occupied(p.Square) {
		return fmt.Errorf("%w: %s", ErrSquareOccupied, p.Square)
	}
	if p.Kind == King {
		if _, ok := b.King(p.Color); ok {
			return fmt.Errorf("%w: %s", ErrDuplicateKing, p.Color)
		}
	}
	b.insert(p)
	return nil
}

func (b *Board) insert(p Piece) {
	b.pieces = append(b.pieces, p)
	b.grid[p.Square.Row][p.Square.Col] = int8(len(b.pieces))
}

// removeAt drops the piece on sq, if any, keeping the index consistent.
func (b *Board) removeAt(sq Square) {
	idx := b.grid[sq.Row][sq.Col]
	if idx == 0 {
		return
	}
	b.pieces = append(b.pieces[:idx-1], b.pieces[idx:]...)
	b.grid = [8][8]int8{}
	for i, p := range b.pieces {
		b.grid[p.Square.Row][p.Square.Col] = int8(i + 1)
	}
}
