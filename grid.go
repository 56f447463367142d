package aavideo

import (
	"image"
	"image/draw"
	"math"
)

// GridWidth is the fixed number of character columns of every rendered frame.
const GridWidth = 100

// RenderGrid is the character grid a whole run is rendered into. The width is
// always GridWidth and the height is fixed from the first frame's aspect ratio.
type RenderGrid struct {
	Width  int
	Height int
}

// NewRenderGrid computes the grid for a source of the given size.
func NewRenderGrid(srcWidth, srcHeight int, aspect float64) (RenderGrid, error) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return RenderGrid{}, ErrInvalidFrame
	}
	if !(aspect > 0) {
		return RenderGrid{}, ErrInvalidAspect
	}

	h := int(math.Round(float64(srcHeight) / float64(srcWidth) * GridWidth * aspect))
	if h < 1 {
		h = 1
	}

	return RenderGrid{Width: GridWidth, Height: h}, nil
}

// Bounds returns the pixel rectangle of the grid.
func (g RenderGrid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// toRGBA returns img as a zero-origin *image.RGBA. The result never aliases
// img, so callers are free to modify it.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
