package puzzle

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
)

func TestSVGBoardRendererProducesPNG(t *testing.T) {
	pz := knightPuzzle(t)
	r := NewSVGBoardRenderer()

	from := chess.ReferenceSquare(pz.Target.From)
	to := chess.ReferenceSquare(pz.Target.To)
	data, err := r.RenderPNG(context.Background(), chess.ReferenceBoard(pz.Board), RenderOptions{
		Answer:    &MoveHighlight{From: from, To: to},
		HUDHeader: "Puzzle",
		HUDStatus: "solved",
	})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != boardSize+2*sideMargin || b.Dy() != boardSize+topMargin+bottomMargin {
		t.Fatalf("image size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestSVGBoardRendererRejectsNilBoard(t *testing.T) {
	if _, err := NewSVGBoardRenderer().RenderPNG(context.Background(), nil, RenderOptions{}); err == nil {
		t.Fatal("expected error for nil board")
	}
}
