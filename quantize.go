package aavideo

import (
	"image"
	"image/color"
	"math"
)

// Palette level bounds.
const (
	MinLevels = 1
	MaxLevels = 8
)

// Quantizer maps colors onto a uniform palette of levels³ colors, built by
// splitting each channel into levels equal bins.
type Quantizer struct {
	levels  int
	values  []uint8
	palette color.Palette
}

// NewQuantizer returns the quantizer for the given number of levels per
// channel.
func NewQuantizer(levels int) (*Quantizer, error) {
	if levels < MinLevels || levels > MaxLevels {
		return nil, ErrInvalidLevels
	}

	q := &Quantizer{
		levels: levels,
		values: make([]uint8, levels),
	}

	for b := range q.values {
		if levels == 1 {
			q.values[b] = 0xff
			continue
		}
		q.values[b] = uint8(math.Round(float64(b) * 255 / float64(levels-1)))
	}

	q.palette = make(color.Palette, levels*levels*levels)
	for i := range q.palette {
		q.palette[i] = q.Color(i)
	}

	return q, nil
}

// Levels returns the number of levels per channel.
func (q *Quantizer) Levels() int {
	return q.levels
}

// Palette returns the ordered palette. Index i matches Index and Color.
func (q *Quantizer) Palette() color.Palette {
	return q.palette
}

// Bucket returns the per-channel bucket of c.
func (q *Quantizer) Bucket(c uint8) int {
	b := int(c) * q.levels / 256
	if b > q.levels-1 {
		b = q.levels - 1
	}
	return b
}

// Value returns the representative channel value of a bucket.
func (q *Quantizer) Value(bucket int) uint8 {
	return q.values[bucket]
}

// Index returns the palette index of a color.
func (q *Quantizer) Index(r, g, b uint8) int {
	return (q.Bucket(r)*q.levels+q.Bucket(g))*q.levels + q.Bucket(b)
}

// Color returns the palette color at index.
func (q *Quantizer) Color(index int) color.RGBA {
	l := q.levels
	return color.RGBA{
		R: q.values[index/(l*l)],
		G: q.values[(index/l)%l],
		B: q.values[index%l],
		A: 0xff,
	}
}

// IndexedFrame is a frame whose pixels are palette indices. Palettes of
// more than 256 colors are possible, so indices are 16 bits wide.
type IndexedFrame struct {
	Width   int
	Height  int
	Pix     []uint16
	Palette color.Palette
}

// At returns the palette index at (x, y).
func (f *IndexedFrame) At(x, y int) int {
	return int(f.Pix[y*f.Width+x])
}

// Quantize maps every pixel of img onto the palette. It is a pure function of
// the input pixels and the level count.
func (q *Quantizer) Quantize(img *image.RGBA) *IndexedFrame {
	b := img.Bounds()
	out := &IndexedFrame{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Pix:     make([]uint16, b.Dx()*b.Dy()),
		Palette: q.palette,
	}

	for y := 0; y < out.Height; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Width:]
		for x := 0; x < out.Width; x++ {
			dst[x] = uint16(q.Index(src[x*4], src[x*4+1], src[x*4+2]))
		}
	}

	return out
}
