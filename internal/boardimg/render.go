// Package boardimg renders chess positions to PNG for embedding in
// study cards.
package boardimg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MoveHighlight marks the move that led into the rendered position.
type MoveHighlight struct {
	From nchess.Square
	To   nchess.Square
}

// Options select what a rendered board shows besides the pieces.
type Options struct {
	Highlight *MoveHighlight
	// Orientation puts the named side at the bottom edge. NoColor
	// renders from White's side.
	Orientation nchess.Color
}

// Renderer produces a PNG snapshot of a board.
type Renderer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error)
}

type pngRenderer struct{}

// NewPNGRenderer builds a renderer backed by the embedded SVG piece
// set.
func NewPNGRenderer() Renderer {
	return &pngRenderer{}
}

const (
	squareSize   = 64
	boardSquares = 8
	boardSize    = squareSize * boardSquares
	edgeMargin   = 24
)

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	highlightFill  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	backgroundFill = color.RGBA{38, 36, 33, 255}
	coordinateText = color.NRGBA{R: 220, G: 205, B: 180, A: 255}
)

func (r *pngRenderer) RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	total := boardSize + edgeMargin*2
	origin := image.Point{X: edgeMargin, Y: edgeMargin}
	img := image.NewRGBA(image.Rect(0, 0, total, total))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundFill), image.Point{}, imagedraw.Src)

	flipped := opts.Orientation == nchess.Black
	drawSquares(img, origin, flipped)
	if opts.Highlight != nil {
		drawSquareOverlay(img, opts.Highlight.From, origin, flipped, highlightFill)
		drawSquareOverlay(img, opts.Highlight.To, origin, flipped, highlightFill)
	}
	if err := drawPieces(img, board, origin, flipped); err != nil {
		return nil, err
	}
	drawCoordinates(img, origin, flipped)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawSquares(img *image.RGBA, origin image.Point, flipped bool) {
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			sq := nchess.NewSquare(file, rank)
			rect := squareRect(sq, origin, flipped)
			imagedraw.Draw(img, rect, image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(img *image.RGBA, board *nchess.Board, origin image.Point, flipped bool) error {
	for sq, piece := range board.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		tile, err := renderPieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		rect := squareRect(sq, origin, flipped)
		imagedraw.Draw(img, rect, tile, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawSquareOverlay(img *image.RGBA, sq nchess.Square, origin image.Point, flipped bool, clr color.Color) {
	rect := squareRect(sq, origin, flipped)
	imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawCoordinates(img *image.RGBA, origin image.Point, flipped bool) {
	drawer := &font.Drawer{
		Dst:  img,
		Face: basicfont.Face7x13,
		Src:  image.NewUniform(coordinateText),
	}
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()

	leftX := origin.X - edgeMargin/2
	bottomY := origin.Y + boardSize + ascent + 3

	for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
		rect := squareRect(nchess.NewSquare(nchess.FileA, rank), origin, flipped)
		baseline := rect.Min.Y + squareSize/2 + ascent/2
		drawCenteredText(drawer, rank.String(), leftX, baseline)
	}
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		rect := squareRect(nchess.NewSquare(file, nchess.Rank1), origin, flipped)
		drawCenteredText(drawer, file.String(), rect.Min.X+squareSize/2, bottomY)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

// squareRect maps a square to its pixel rectangle, honoring the board
// orientation.
func squareRect(sq nchess.Square, origin image.Point, flipped bool) image.Rectangle {
	col := int(sq.File())
	row := 7 - int(sq.Rank())
	if flipped {
		col = 7 - col
		row = int(sq.Rank())
	}
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}
