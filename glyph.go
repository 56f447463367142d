package aavideo

import (
	"image"
)

// GlyphRamp is an ordered sequence of characters used as a density scale.
// Index 0 is selected for the darkest luminance.
type GlyphRamp []rune

// NewGlyphRamp returns the ramp for s.
func NewGlyphRamp(s string) (GlyphRamp, error) {
	r := GlyphRamp(s)
	if len(r) == 0 {
		return nil, ErrEmptyRamp
	}
	return r, nil
}

// Index maps a luminance onto the ramp: floor(lum * len / 256). The mapping
// is monotonic non-decreasing and always lands in [0, len-1].
func (g GlyphRamp) Index(lum uint8) int {
	i := int(lum) * len(g) / 256
	if i > len(g)-1 {
		i = len(g) - 1
	}
	return i
}

// Glyph returns the character for a luminance.
func (g GlyphRamp) Glyph(lum uint8) rune {
	return g[g.Index(lum)]
}

// Luma returns the BT.601 luma of an 8-bit color, using the same integer
// weights as color.GrayModel and color.RGBToYCbCr. It is the only luminance
// weighting used for glyph selection and CLAHE.
func Luma(r, g, b uint8) uint8 {
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}

// GlyphMapper selects one glyph index per pixel.
type GlyphMapper struct {
	ramp   GlyphRamp
	invert bool
}

// NewGlyphMapper returns a mapper for ramp. With invert set, luminance is
// flipped before lookup, for terminals with a light background.
func NewGlyphMapper(ramp GlyphRamp, invert bool) *GlyphMapper {
	return &GlyphMapper{ramp: ramp, invert: invert}
}

// Ramp returns the mapper's ramp.
func (m *GlyphMapper) Ramp() GlyphRamp {
	return m.ramp
}

// Map returns the glyph of every pixel of img, row-major.
func (m *GlyphMapper) Map(img *image.RGBA) []rune {
	b := img.Bounds()
	out := make([]rune, 0, b.Dx()*b.Dy())

	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			lum := Luma(row[x*4], row[x*4+1], row[x*4+2])
			if m.invert {
				lum = 255 - lum
			}
			out = append(out, m.ramp.Glyph(lum))
		}
	}

	return out
}
