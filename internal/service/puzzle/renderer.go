package puzzle

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type MoveHighlight struct {
	From nchess.Square
	To   nchess.Square
}

type RenderOptions struct {
	// Guess is the latest evaluated guess, Answer the revealed target.
	Guess     *MoveHighlight
	Answer    *MoveHighlight
	HUDHeader string
	HUDStatus string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, opts RenderOptions) ([]byte, error)
}

type svgBoardRenderer struct {
	face font.Face
}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{face: basicfont.Face7x13}
}

const (
	squareSize    = 64
	boardSquares  = 8
	boardSize     = squareSize * boardSquares
	sideMargin    = 28
	topMargin     = 92
	bottomMargin  = 28
	panelHeight   = 28
	panelGap      = 10
	gapToBoard    = 14
	panelRadius   = 10
	panelPaddingX = 18
	shadowOffsetY = 4
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	guessArrowColor     = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	answerArrowColor    = color.NRGBA{R: 120, G: 220, B: 130, A: 190}
	answerSquareFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 110}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudStatusPanelColor = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudStatusTextColor  = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	backgroundColor     = color.RGBA{246, 244, 238, 255}
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board *nchess.Board, opts RenderOptions) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)
	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, opts, boardRect)
	drawSquares(img, origin)
	if opts.Answer != nil {
		drawSquareOverlay(img, opts.Answer.From, origin, answerSquareFill)
		drawSquareOverlay(img, opts.Answer.To, origin, answerSquareFill)
	}
	if err := drawPieces(img, board, origin); err != nil {
		return nil, err
	}
	if opts.Guess != nil {
		drawArrow(img, opts.Guess.From, opts.Guess.To, origin, guessArrowColor)
	}
	if opts.Answer != nil {
		drawArrow(img, opts.Answer.From, opts.Answer.To, origin, answerArrowColor)
	}
	r.drawCoordinates(img, origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// attachBoardImage renders the session board; failures only drop the image.
func (s *Service) attachBoardImage(ctx context.Context, state *SessionState, p *sessionPayload) {
	if state == nil || state.Board == nil || s.renderer == nil {
		return
	}
	opts := RenderOptions{
		HUDHeader: fmt.Sprintf("%s - guess the move", state.PlayerName),
		HUDStatus: fmt.Sprintf("Guess %d/%d", len(state.Guesses), state.MaxGuesses),
	}
	if g, ok := p.lastValidGuess(); ok {
		from, ferr := chess.FromNotation(g.From)
		to, terr := chess.FromNotation(g.To)
		if ferr == nil && terr == nil {
			opts.Guess = &MoveHighlight{From: chess.ReferenceSquare(from), To: chess.ReferenceSquare(to)}
		}
	}
	if state.Finished && state.Target != nil {
		opts.Answer = &MoveHighlight{From: chess.ReferenceSquare(state.Target.From), To: chess.ReferenceSquare(state.Target.To)}
		opts.HUDStatus = strings.ToUpper(state.Outcome[:1]) + state.Outcome[1:]
	}

	data, err := s.renderer.RenderPNG(ctx, chess.ReferenceBoard(state.Board), opts)
	if err != nil {
		s.logger.Warn("puzzle_board_render_failed", zap.Error(err))
		return
	}
	state.BoardImage = data
}

func (r *svgBoardRenderer) drawHUD(img *image.RGBA, opts RenderOptions, boardRect image.Rectangle) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "Guess the move"
	}
	status := strings.TrimSpace(opts.HUDStatus)

	statusBottom := boardRect.Min.Y - gapToBoard
	statusTop := statusBottom - panelHeight
	titleBottom := statusTop - panelGap
	titleTop := titleBottom - panelHeight

	maxWidth := boardRect.Dx()
	titleWidth := clampWidth(drawer.MeasureString(title).Round()+panelPaddingX*2, maxWidth)
	titleRect := image.Rect(boardRect.Min.X, titleTop, boardRect.Min.X+titleWidth, titleBottom)
	title = truncateWithEllipsis(r.face, title, titleRect.Dx()-panelPaddingX*2)

	drawRoundedPanel(img, titleRect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawCenteredString(drawer, titleRect, title, hudTextPrimary)

	if status == "" {
		return
	}
	statusWidth := clampWidth(drawer.MeasureString(status).Round()+panelPaddingX*2, maxWidth)
	statusLeft := boardRect.Min.X + (boardRect.Dx()-statusWidth)/2
	statusRect := image.Rect(statusLeft, statusTop, statusLeft+statusWidth, statusBottom)
	drawRoundedPanel(img, statusRect.Add(image.Pt(0, shadowOffsetY)), panelRadius, hudShadowColor)
	drawRoundedPanel(img, statusRect, panelRadius, hudStatusPanelColor)
	drawCenteredString(drawer, statusRect, status, hudStatusTextColor)
}

func (r *svgBoardRenderer) drawCoordinates(img *image.RGBA, origin image.Point) {
	drawer := &font.Drawer{Dst: img, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	for i := 0; i < boardSquares; i++ {
		center := i*squareSize + squareSize/2
		rank := nchess.Rank(7 - i).String()
		drawCenteredText(drawer, rank, origin.X-sideMargin/2, origin.Y+center+ascent/2)
		file := nchess.File(i).String()
		drawCenteredText(drawer, file, origin.X+center, origin.Y+boardSize+ascent+6)
	}
}

func drawSquares(dst imagedraw.Image, origin image.Point) {
	for row := 0; row < boardSquares; row++ {
		for col := 0; col < boardSquares; col++ {
			clr := lightSquare
			if (row+col)%2 == 1 {
				clr = darkSquare
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *nchess.Board, origin image.Point) error {
	for sq, piece := range board.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		img, err := renderPieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, squareRect(sq, origin), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawSquareOverlay(img *image.RGBA, sq nchess.Square, origin image.Point, clr color.Color) {
	imagedraw.Draw(img, squareRect(sq, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawArrow(img *image.RGBA, from, to nchess.Square, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	startRect := squareRect(from, origin)
	endRect := squareRect(to, origin)
	sx := float64(startRect.Min.X + squareSize/2)
	sy := float64(startRect.Min.Y + squareSize/2)
	ex := float64(endRect.Min.X + squareSize/2)
	ey := float64(endRect.Min.Y + squareSize/2)

	dx, dy := ex-sx, ey-sy
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - float64(squareSize)*0.45
	if baseLength < float64(squareSize)*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := float64(squareSize) * 0.12
	headWidth := float64(squareSize) * 0.4

	baseX := sx + dirX*baseLength
	baseY := sy + dirY*baseLength

	fillQuad(img,
		pointF{sx - perpX*halfWidth, sy - perpY*halfWidth},
		pointF{sx + perpX*halfWidth, sy + perpY*halfWidth},
		pointF{baseX + perpX*halfWidth, baseY + perpY*halfWidth},
		pointF{baseX - perpX*halfWidth, baseY - perpY*halfWidth},
		clr,
	)
	fillTriangleF(img,
		pointF{ex, ey},
		pointF{baseX - perpX*headWidth/2, baseY - perpY*headWidth/2},
		pointF{baseX + perpX*headWidth/2, baseY + perpY*headWidth/2},
		clr,
	)
}

func squareRect(sq nchess.Square, origin image.Point) image.Rectangle {
	row := 7 - int(sq.Rank())
	col := int(sq.File())
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func clampWidth(w, max int) int {
	if w > max {
		return max
	}
	return w
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	if limit := min(rect.Dx(), rect.Dy()) / 2; radius > limit {
		radius = limit
	}
	fill := image.NewUniform(clr)
	if radius <= 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	// Corner quarter discs, skipping pixels the rectangles above already cover.
	corners := []struct {
		center image.Point
		sx, sy int
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), -1, -1},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), 1, -1},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), -1, 1},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), 1, 1},
	}
	r2 := radius * radius
	for _, c := range corners {
		for y := 1; y <= radius; y++ {
			for x := 1; x <= radius; x++ {
				if x*x+y*y > r2 {
					continue
				}
				blendPixel(img, c.center.X+c.sx*x, c.center.Y+c.sy*y, clr)
			}
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

// blendPixel composites clr over the pixel at (x, y) with source-over.
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 65535 - sa
	mix := func(s uint32, d uint8) uint8 {
		return uint8((s + uint32(d)*0x101*inv/65535) >> 8)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: mix(sr, dst.R),
		G: mix(sg, dst.G),
		B: mix(sb, dst.B),
		A: mix(sa, dst.A),
	})
}

type pointF struct {
	X float64
	Y float64
}

func fillQuad(img *image.RGBA, p0, p1, p2, p3 pointF, clr color.Color) {
	fillTriangleF(img, p0, p1, p2, clr)
	fillTriangleF(img, p0, p2, p3, clr)
}

func fillTriangleF(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func pointInTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	return alpha >= 0 && beta >= 0 && 1-alpha-beta >= 0
}
