// Package puzzlebank generates puzzles in bulk and stores them as parquet.
package puzzlebank

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"
)

type PuzzleRow struct {
	Index       int64  `parquet:"name=index, type=INT64"`
	FEN         string `parquet:"name=fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	TargetKind  string `parquet:"name=target_kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	TargetColor string `parquet:"name=target_color, type=BYTE_ARRAY, convertedtype=UTF8"`
	TargetFrom  string `parquet:"name=target_from, type=BYTE_ARRAY, convertedtype=UTF8"`
	TargetTo    string `parquet:"name=target_to, type=BYTE_ARRAY, convertedtype=UTF8"`
	Pieces      int32  `parquet:"name=pieces, type=INT32"`
	// PieceMoves counts the target piece's legal moves, SideMoves those of its whole side.
	PieceMoves int32 `parquet:"name=piece_moves, type=INT32"`
	SideMoves  int32 `parquet:"name=side_moves, type=INT32"`
	// ReferenceAgrees is false when the rules library disagrees on the target piece's moves.
	ReferenceAgrees bool `parquet:"name=reference_agrees, type=BOOLEAN"`
}

type Options struct {
	Count       int
	Workers     int
	Seed        int64
	ExtraPieces int
}

// Generate runs a worker pool that turns job indexes into rows. Rows arrive in
// completion order. The first worker error stops the whole pool; the channels
// close when all jobs finish, a worker fails or ctx ends.
func Generate(ctx context.Context, opts Options, logger *zap.Logger) (<-chan PuzzleRow, <-chan error) {
	return generate(ctx, opts, logger, func(worker int) puzzler {
		return chess.NewGenerator(
			chess.WithSeed(opts.Seed+int64(worker)),
			chess.WithExtraPieces(opts.ExtraPieces),
		)
	})
}

type puzzler interface {
	NewPuzzle() (*chess.Puzzle, error)
}

func generate(ctx context.Context, opts Options, logger *zap.Logger, newPuzzler func(worker int) puzzler) (<-chan PuzzleRow, <-chan error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > opts.Count && opts.Count > 0 {
		workers = opts.Count
	}

	ctx, cancel := context.WithCancel(ctx)
	jobs := make(chan int64)
	rows := make(chan PuzzleRow, workers)
	errCh := make(chan error, workers)

	go func() {
		defer close(jobs)
		for i := 0; i < opts.Count; i++ {
			select {
			case jobs <- int64(i):
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(gen puzzler) {
			defer wg.Done()
			for idx := range jobs {
				row, err := buildRow(idx, gen)
				if err != nil {
					errCh <- fmt.Errorf("puzzle %d: %w", idx, err)
					cancel()
					return
				}
				if !row.ReferenceAgrees {
					logger.Warn("reference_mismatch", zap.Int64("index", idx), zap.String("fen", row.FEN))
				}
				select {
				case rows <- row:
				case <-ctx.Done():
					return
				}
			}
		}(newPuzzler(w))
	}

	go func() {
		wg.Wait()
		cancel()
		close(rows)
		close(errCh)
	}()
	return rows, errCh
}

func buildRow(idx int64, gen puzzler) (PuzzleRow, error) {
	pz, err := gen.NewPuzzle()
	if err != nil {
		return PuzzleRow{}, err
	}
	t := pz.Target
	piece, ok := pz.Board.PieceAt(t.From)
	if !ok {
		return PuzzleRow{}, errors.New("target origin is empty")
	}
	own := chess.LegalMoves(piece, pz.Board)
	side := 0
	for _, moves := range chess.AllLegalMoves(t.Color, pz.Board) {
		side += len(moves)
	}
	agrees, err := referenceAgrees(piece, own, pz.Board)
	if err != nil {
		return PuzzleRow{}, err
	}
	return PuzzleRow{
		Index:           idx,
		FEN:             pz.Board.FEN(t.Color),
		TargetKind:      t.Kind.String(),
		TargetColor:     t.Color.String(),
		TargetFrom:      chess.ToNotation(t.From),
		TargetTo:        chess.ToNotation(t.To),
		Pieces:          int32(pz.Board.Len()),
		PieceMoves:      int32(len(own)),
		SideMoves:       int32(side),
		ReferenceAgrees: agrees,
	}, nil
}

// referenceAgrees compares destinations with the rules library. Pawns are
// skipped since the library also knows double steps.
func referenceAgrees(p chess.Piece, own []chess.Square, b *chess.Board) (bool, error) {
	if p.Kind == chess.Pawn {
		return true, nil
	}
	ref, err := chess.ReferenceMoves(p, b)
	if err != nil {
		return false, err
	}
	if len(ref) != len(own) {
		return false, nil
	}
	key := func(s []chess.Square) []string {
		out := make([]string, len(s))
		for i, sq := range s {
			out[i] = chess.ToNotation(sq)
		}
		sort.Strings(out)
		return out
	}
	a, r := key(own), key(ref)
	for i := range a {
		if a[i] != r[i] {
			return false, nil
		}
	}
	return true, nil
}

// WriteParquet drains rows into a Snappy-compressed parquet file and returns the row count.
func WriteParquet(path string, rows <-chan PuzzleRow, parallel int64) (n int, err error) {
	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := fileWriter.Close(); err == nil {
			err = cerr
		}
	}()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(PuzzleRow), parallel)
	if err != nil {
		return 0, err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for row := range rows {
		if err := parquetWriter.Write(row); err != nil {
			return n, err
		}
		n++
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return n, err
	}
	return n, nil
}

func ReadParquet(path string, parallel int64) ([]PuzzleRow, error) {
	absPath := path
	if !filepath.IsAbs(path) {
		if resolved, err := filepath.Abs(path); err == nil {
			absPath = resolved
		}
	}
	fileReader, err := local.NewLocalFileReader(absPath)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(PuzzleRow), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	out := make([]PuzzleRow, num)
	if num == 0 {
		return out, nil
	}
	if err := parquetReader.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}
