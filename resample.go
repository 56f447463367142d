package aavideo

import (
	"image"

	"github.com/disintegration/gift"
)

// Resampler scales decoded frames down to the render grid.
type Resampler struct {
	aspect float64
	grid   RenderGrid
	fixed  bool
}

// NewResampler returns a resampler using the given vertical aspect factor.
func NewResampler(aspect float64) (*Resampler, error) {
	if !(aspect > 0) {
		return nil, ErrInvalidAspect
	}
	return &Resampler{aspect: aspect}, nil
}

// Grid returns the render grid and whether it has been fixed yet.
func (r *Resampler) Grid() (RenderGrid, bool) {
	return r.grid, r.fixed
}

// Reset unfixes the grid so the next frame computes it again.
func (r *Resampler) Reset() {
	r.grid = RenderGrid{}
	r.fixed = false
}

// Resample resizes img to the render grid using area averaging. The grid
// height is computed from the first frame and reused for every later one.
func (r *Resampler) Resample(img image.Image) (*image.RGBA, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidFrame
	}

	if !r.fixed {
		grid, err := NewRenderGrid(b.Dx(), b.Dy(), r.aspect)
		if err != nil {
			return nil, err
		}
		r.grid = grid
		r.fixed = true
	}

	if b.Dx() == r.grid.Width && b.Dy() == r.grid.Height {
		return toRGBA(img), nil
	}

	dst := image.NewRGBA(r.grid.Bounds())
	gift.Resize(r.grid.Width, r.grid.Height, gift.BoxResampling).Draw(dst, img, &gift.Options{
		Parallelization: false,
	})

	return dst, nil
}
