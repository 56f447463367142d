package aavideo

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestDitherPreservesRowMean(t *testing.T) {
	q, err := NewQuantizer(4)
	if err != nil {
		t.Fatal(err)
	}

	src := fill(image.Rect(0, 0, 100, 20), color.RGBA{100, 100, 100, 255})
	out := NewDitherer(q).Apply(src)

	changed := 0
	for i := range out.Pix {
		if i%4 != 3 && out.Pix[i] != src.Pix[i] {
			changed++
		}
	}
	if changed == 0 {
		t.Fatal("dithering changed no pixel")
	}

	// rows stay within one palette step of the input
	step := 255.0 / float64(q.Levels()-1)
	for y := 0; y < 20; y++ {
		sum := 0
		for x := 0; x < 100; x++ {
			sum += int(out.RGBAAt(x, y).R)
		}
		if mean := float64(sum) / 100; math.Abs(mean-100) > step/2 {
			t.Errorf("row %d mean = %.2f, want within %.1f of 100", y, mean, step/2)
		}
	}

	plain := paletteMean(q, q.Quantize(src))
	dithered := paletteMean(q, q.Quantize(out))

	if math.Abs(plain-100) < 10 {
		t.Fatalf("undithered mean %.2f is unexpectedly close to 100", plain)
	}
	if math.Abs(dithered-100) > 3 {
		t.Errorf("dithered palette mean = %.2f, want within 3 of 100", dithered)
	}
}

func TestDitherSmoothGradient(t *testing.T) {
	q, _ := NewQuantizer(4)

	src := image.NewRGBA(image.Rect(0, 0, 100, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(x * 255 / 99)
			src.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}

	plain := q.Quantize(src)
	dithered := q.Quantize(NewDitherer(q).Apply(src))

	differs := 0
	for i := range plain.Pix {
		if plain.Pix[i] != dithered.Pix[i] {
			differs++
		}
	}
	if differs == 0 {
		t.Error("dithering did not change any quantized pixel of a gradient")
	}

	var want float64
	for x := 0; x < 100; x++ {
		want += float64(x * 255 / 99)
	}
	want /= 100

	for y := 0; y < 10; y++ {
		sum := 0.0
		for x := 0; x < 100; x++ {
			sum += float64(q.Color(dithered.At(x, y)).R)
		}
		if mean := sum / 100; math.Abs(mean-want) > 8 {
			t.Errorf("row %d palette mean = %.2f, want within 8 of %.2f", y, mean, want)
		}
	}
}

func TestDitherDoesNotModifyInput(t *testing.T) {
	q, _ := NewQuantizer(2)
	src := fill(image.Rect(0, 0, 8, 8), color.RGBA{90, 90, 90, 255})

	NewDitherer(q).Apply(src)

	if c := src.RGBAAt(3, 3); c.R != 90 {
		t.Errorf("input was modified: %v", c)
	}
}

func paletteMean(q *Quantizer, f *IndexedFrame) float64 {
	sum := 0.0
	for _, idx := range f.Pix {
		sum += float64(q.Color(int(idx)).R)
	}
	return sum / float64(len(f.Pix))
}
