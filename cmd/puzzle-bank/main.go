// Command puzzle-bank pre-generates puzzles into a parquet file for offline analysis.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-MoveGuess-bot/internal/obslog"
	"github.com/park285/Cheese-MoveGuess-bot/internal/puzzlebank"
)

func main() {
	count := flag.Int("count", 1000, "number of puzzles to generate")
	output := flag.String("output", "puzzles.parquet", "output parquet file")
	workers := flag.Int("workers", 4, "number of generator workers")
	seed := flag.Int64("seed", time.Now().UnixNano(), "base random seed; worker i uses seed+i")
	extra := flag.Int("extra-pieces", 6, "pieces placed besides the two kings")
	verify := flag.Bool("verify", false, "read the file back and report mismatches")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		panic(err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	rows, errs := puzzlebank.Generate(ctx, puzzlebank.Options{
		Count:       *count,
		Workers:     *workers,
		Seed:        *seed,
		ExtraPieces: *extra,
	}, logger)

	written, err := puzzlebank.WriteParquet(*output, rows, int64(*workers))
	if err != nil {
		logger.Fatal("write_failed", zap.String("output", *output), zap.Error(err))
	}
	for genErr := range errs {
		logger.Error("generate_failed", zap.Error(genErr))
	}
	logger.Info("bank_written",
		zap.String("output", *output),
		zap.Int("rows", written),
		zap.Int64("seed", *seed),
		zap.Duration("elapsed", time.Since(started)),
	)

	if !*verify {
		return
	}
	stored, err := puzzlebank.ReadParquet(*output, int64(*workers))
	if err != nil {
		logger.Fatal("verify_read_failed", zap.Error(err))
	}
	mismatches := 0
	for _, row := range stored {
		if !row.ReferenceAgrees {
			mismatches++
		}
	}
	logger.Info("bank_verified", zap.Int("rows", len(stored)), zap.Int("reference_mismatches", mismatches))
}
