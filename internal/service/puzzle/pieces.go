package puzzle

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const glyphTemplate = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` +
	`<g fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round">%s` +
	`<rect x="10" y="34" width="25" height="5" rx="1.5"/></g></svg>`

var glyphBodies = map[nchess.PieceType]string{
	nchess.King: `<path d="M21 5 h3 v3 h3 v3 h-3 v5 h-3 v-5 h-3 v-3 h3 z"/>` +
		`<path d="M11 34 C7 25 12 17 22.5 20 C33 17 38 25 34 34 Z"/>`,
	nchess.Queen: `<path d="M11 34 L8 14 L15 25 L16 11 L22.5 23 L29 11 L30 25 L37 14 L34 34 Z"/>` +
		`<circle cx="8" cy="12" r="2.5"/><circle cx="16" cy="9" r="2.5"/><circle cx="22.5" cy="8" r="2.5"/>` +
		`<circle cx="29" cy="9" r="2.5"/><circle cx="37" cy="12" r="2.5"/>`,
	nchess.Rook: `<path d="M12 10 h4 v3 h4 v-3 h5 v3 h4 v-3 h4 v8 l-3 3 v10 l3 3 H12 l3 -3 V21 l-3 -3 z"/>`,
	nchess.Bishop: `<circle cx="22.5" cy="8" r="2.5"/>` +
		`<path d="M22.5 11 C16 16 14 22 17 27 L14 34 H31 L28 27 C31 22 29 16 22.5 11 Z"/>`,
	nchess.Knight: `<path d="M14 34 H32 C32 25 30 16 22 11 L20 7 L18 11 C13 13 9 18 9 23 L12 25 L18 22 C18 27 14 30 14 34 Z"/>`,
	nchess.Pawn: `<circle cx="22.5" cy="14" r="5"/>` +
		`<path d="M16 34 L18.5 20 H26.5 L29 34 Z"/>`,
}

type glyphKey struct {
	piece nchess.Piece
	size  int
}

var (
	glyphCache   = map[glyphKey]image.Image{}
	glyphCacheMu sync.RWMutex
)

func pieceSVG(piece nchess.Piece) ([]byte, error) {
	body, ok := glyphBodies[piece.Type()]
	if !ok {
		return nil, fmt.Errorf("no glyph for %v", piece)
	}
	fill, stroke := "#fafafa", "#1a1a1a"
	if piece.Color() == nchess.Black {
		fill, stroke = "#262626", "#f0f0f0"
	}
	return []byte(fmt.Sprintf(glyphTemplate, fill, stroke, body)), nil
}

func renderPieceImage(piece nchess.Piece, size int) (image.Image, error) {
	key := glyphKey{piece: piece, size: size}

	glyphCacheMu.RLock()
	if img, ok := glyphCache[key]; ok {
		glyphCacheMu.RUnlock()
		return img, nil
	}
	glyphCacheMu.RUnlock()

	data, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	glyphCacheMu.Lock()
	glyphCache[key] = img
	glyphCacheMu.Unlock()

	return img, nil
}
