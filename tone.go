package aavideo

import (
	"image"

	"github.com/disintegration/gift"
)

// ToneMapper applies gamma correction and optional CLAHE to a resized frame.
type ToneMapper struct {
	g *gift.GIFT
}

// NewToneMapper returns a tone mapper. Gamma must be positive; a gamma of 1
// with CLAHE disabled is the identity.
func NewToneMapper(gamma float64, clahe bool) (*ToneMapper, error) {
	if !(gamma > 0) {
		return nil, ErrInvalidGamma
	}

	g := gift.New()
	if gamma != 1 {
		g.Add(gift.Gamma(float32(gamma)))
	}
	if clahe {
		g.Add(newCLAHE())
	}
	g.SetParallelization(false)

	return &ToneMapper{g: g}, nil
}

// Identity reports whether Apply leaves frames untouched.
func (t *ToneMapper) Identity() bool {
	return len(t.g.Filters) == 0
}

// Apply returns the tone mapped copy of img.
func (t *ToneMapper) Apply(img *image.RGBA) *image.RGBA {
	if t.Identity() {
		return toRGBA(img)
	}

	dst := image.NewRGBA(t.g.Bounds(img.Bounds()))
	t.g.Draw(dst, img)
	return dst
}
