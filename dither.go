package aavideo

import (
	"image"
)

// Ditherer applies Floyd-Steinberg error diffusion against a quantizer's
// palette. It walks rows top to bottom and pixels left to right, the same
// order Quantize consumes them.
type Ditherer struct {
	q *Quantizer
}

// NewDitherer returns a ditherer that diffuses the error of q.
func NewDitherer(q *Quantizer) *Ditherer {
	return &Ditherer{q: q}
}

// Apply returns a copy of img with the quantization error of every pixel
// spread onto its unprocessed neighbours. Quantizing the result yields the
// dithered palette image.
func (d *Ditherer) Apply(img *image.RGBA) *image.RGBA {
	out := toRGBA(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w == 0 || h == 0 {
		return out
	}

	// errorRows[0] is the current row, errorRows[1] the next. Each entry holds
	// three channels and the row is padded by one pixel on both sides.
	var errorRows [2][]float32
	errorRows[0] = make([]float32, (w+2)*3)
	errorRows[1] = make([]float32, (w+2)*3)

	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			ox := x + 1
			for c := 0; c < 3; c++ {
				corrected := float32(row[x*4+c]) + errorRows[0][ox*3+c]
				v := clampChannel(corrected)
				q := d.q.Value(d.q.Bucket(v))
				row[x*4+c] = v

				diffuseFloydSteinberg(&errorRows, ox, c, float32(v)-float32(q))
			}
		}

		errorRows[0], errorRows[1] = errorRows[1], errorRows[0]
		for i := range errorRows[1] {
			errorRows[1][i] = 0
		}
	}

	return out
}

func diffuseFloydSteinberg(errorRows *[2][]float32, ox, c int, e float32) {
	errorRows[0][(ox+1)*3+c] += e * (7.0 / 16)
	errorRows[1][(ox-1)*3+c] += e * (3.0 / 16)
	errorRows[1][ox*3+c] += e * (5.0 / 16)
	errorRows[1][(ox+1)*3+c] += e * (1.0 / 16)
}

func clampChannel(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
