package chess

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultExtraPieces    = 6
	DefaultPlacementTries = 100
	DefaultBoardAttempts  = 300
)

// extraKinds are the kinds drawn for non-king pieces.
var extraKinds = [...]Kind{Queen, Rook, Bishop, Knight, Pawn}

// Generator produces random puzzle boards and targets.
// It is safe for concurrent use; all randomness goes through one locked source.
type Generator struct {
	randMu sync.Mutex
	rand   *rand.Rand

	extraPieces    int
	placementTries int
	boardAttempts  int
}

type Option func(*Generator)

func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rand = rand.New(rand.NewSource(seed)) }
}

func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rand = r
		}
	}
}

func WithExtraPieces(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.extraPieces = n
		}
	}
}

func WithPlacementTries(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.placementTries = n
		}
	}
}

func WithBoardAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.boardAttempts = n
		}
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rand:           rand.New(rand.NewSource(time.Now().UnixNano())),
		extraPieces:    DefaultExtraPieces,
		placementTries: DefaultPlacementTries,
		boardAttempts:  DefaultBoardAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateBoard places both kings and up to ExtraPieces random pieces such that
// no piece attacks the opposing king and the kings are not adjacent.
func (g *Generator) GenerateBoard() (*Board, error) {
	g.randMu.Lock()
	defer g.randMu.Unlock()
	return g.generateBoardLocked()
}

func (g *Generator) generateBoardLocked() (*Board, error) {
	for attempt := 0; attempt < g.boardAttempts; attempt++ {
		b, ok := g.tryBoard()
		if ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: no valid board after %d attempts", ErrGenerationExhausted, g.boardAttempts)
}

func (g *Generator) tryBoard() (*Board, bool) {
	b := &Board{pieces: make([]Piece, 0, 2+g.extraPieces)}
	for _, c := range [...]Color{White, Black} {
		if !g.place(b, King, c) {
			return nil, false
		}
	}
	for i := 0; i < g.extraPieces; i++ {
		kind := extraKinds[g.rand.Intn(len(extraKinds))]
		color := Color(g.rand.Intn(2))
		// A piece that finds no square is left out.
		g.place(b, kind, color)
	}
	if KingsAdjacent(b) {
		return nil, false
	}
	return b, true
}

// place tries random squares for one piece and keeps the first acceptable one.
func (g *Generator) place(b *Board, kind Kind, color Color) bool {
	for try := 0; try < g.placementTries; try++ {
		sq := Square{Row: g.rand.Intn(8), Col: g.rand.Intn(8)}
		if b.Occupied(sq) {
			continue
		}
		if kind == Pawn && (sq.Row == 0 || sq.Row == 7) {
			continue
		}
		p := Piece{Kind: kind, Color: color, Square: sq}
		b.insert(p)
		if Attacks(p, b) {
			b.removeAt(sq)
			continue
		}
		return true
	}
	return false
}

// SelectTarget picks a random piece and one of its legal moves.
func (g *Generator) SelectTarget(b *Board) (Target, error) {
	g.randMu.Lock()
	defer g.randMu.Unlock()
	return g.selectTargetLocked(b)
}

func (g *Generator) selectTargetLocked(b *Board) (Target, error) {
	if b == nil || b.Len() == 0 {
		return Target{}, ErrNoLegalMoves
	}
	p := b.pieces[g.rand.Intn(len(b.pieces))]
	moves := LegalMoves(p, b)
	if len(moves) == 0 {
		return Target{}, fmt.Errorf("%w: %s", ErrNoLegalMoves, p)
	}
	return Target{
		Kind:  p.Kind,
		Color: p.Color,
		From:  p.Square,
		To:    moves[g.rand.Intn(len(moves))],
	}, nil
}

// NewPuzzle generates a board and a target on it. When the chosen piece has no
// legal move the whole board is regenerated; the combined loop is bounded.
func (g *Generator) NewPuzzle() (*Puzzle, error) {
	g.randMu.Lock()
	defer g.randMu.Unlock()

	for attempt := 0; attempt < g.boardAttempts; attempt++ {
		b, ok := g.tryBoard()
		if !ok {
			continue
		}
		target, err := g.selectTargetLocked(b)
		if errors.Is(err, ErrNoLegalMoves) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Puzzle{Board: b, Target: target}, nil
	}
	return nil, fmt.Errorf("%w: no puzzle after %d attempts", ErrGenerationExhausted, g.boardAttempts)
}
