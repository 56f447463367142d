package aavideo

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func fill(r image.Rectangle, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestNewRenderGrid(t *testing.T) {
	tests := []struct {
		w, h   int
		aspect float64
		height int
	}{
		{200, 100, 0.55, 28},
		{1920, 1080, 0.55, 31},
		{100, 100, 1, 100},
		{1000, 1, 0.55, 1},
		{640, 480, 0.5, 38},
	}

	for _, test := range tests {
		grid, err := NewRenderGrid(test.w, test.h, test.aspect)
		if err != nil {
			t.Fatalf("NewRenderGrid(%d, %d, %v): %v", test.w, test.h, test.aspect, err)
		}
		if grid.Width != GridWidth || grid.Height != test.height {
			t.Errorf("NewRenderGrid(%d, %d, %v) = %dx%d, want %dx%d", test.w, test.h, test.aspect,
				grid.Width, grid.Height, GridWidth, test.height)
		}
	}
}

func TestResampleInvalidFrame(t *testing.T) {
	r, err := NewResampler(DefaultAspect)
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Resample(image.NewRGBA(image.Rect(0, 0, 0, 10)))
	if !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Resample(0x10) = %v, want ErrInvalidFrame", err)
	}
	if _, fixed := r.Grid(); fixed {
		t.Error("grid was fixed by an invalid frame")
	}
}

func TestResampleFixesGrid(t *testing.T) {
	r, _ := NewResampler(DefaultAspect)

	first, err := r.Resample(fill(image.Rect(10, 10, 210, 110), color.RGBA{50, 100, 150, 255}))
	if err != nil {
		t.Fatal(err)
	}
	if b := first.Bounds(); b != image.Rect(0, 0, 100, 28) {
		t.Fatalf("first frame bounds = %v, want 100x28", b)
	}

	c := first.RGBAAt(50, 14)
	if absDiff(c.R, 50) > 1 || absDiff(c.G, 100) > 1 || absDiff(c.B, 150) > 1 {
		t.Errorf("uniform frame resampled to %v, want about {50 100 150}", c)
	}

	// a differently shaped frame keeps the grid
	second, err := r.Resample(fill(image.Rect(0, 0, 100, 100), color.RGBA{0, 0, 0, 255}))
	if err != nil {
		t.Fatal(err)
	}
	if b := second.Bounds(); b != image.Rect(0, 0, 100, 28) {
		t.Errorf("second frame bounds = %v, want 100x28", b)
	}

	r.Reset()
	third, err := r.Resample(fill(image.Rect(0, 0, 100, 100), color.RGBA{0, 0, 0, 255}))
	if err != nil {
		t.Fatal(err)
	}
	if b := third.Bounds(); b != image.Rect(0, 0, 100, 55) {
		t.Errorf("frame after Reset bounds = %v, want 100x55", b)
	}
}

func TestResampleIdempotent(t *testing.T) {
	r, _ := NewResampler(DefaultAspect)

	src := image.NewRGBA(image.Rect(0, 0, 320, 180))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 13)
	}

	once, err := r.Resample(src)
	if err != nil {
		t.Fatal(err)
	}

	twice, err := r.Resample(once)
	if err != nil {
		t.Fatal(err)
	}

	if once.Bounds() != twice.Bounds() {
		t.Fatalf("bounds changed: %v -> %v", once.Bounds(), twice.Bounds())
	}
	for i := range once.Pix {
		if once.Pix[i] != twice.Pix[i] {
			t.Fatalf("byte %d changed: %d -> %d", i, once.Pix[i], twice.Pix[i])
		}
	}

	twice.Pix[0] ^= 0xff
	if once.Pix[0] == twice.Pix[0] {
		t.Error("resampled frame aliases its input")
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
