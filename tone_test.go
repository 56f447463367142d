package aavideo

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestToneMapperIdentity(t *testing.T) {
	tm, err := NewToneMapper(1, false)
	if err != nil {
		t.Fatal(err)
	}
	if !tm.Identity() {
		t.Fatal("gamma 1 without CLAHE is not the identity")
	}

	src := image.NewRGBA(image.Rect(0, 0, 100, 20))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 31)
	}

	out := tm.Apply(src)
	for i := range src.Pix {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("byte %d: %d -> %d", i, src.Pix[i], out.Pix[i])
		}
	}
}

func TestToneMapperInvalidGamma(t *testing.T) {
	for _, gamma := range []float64{0, -1} {
		if _, err := NewToneMapper(gamma, false); !errors.Is(err, ErrInvalidGamma) {
			t.Errorf("NewToneMapper(%v) = %v, want ErrInvalidGamma", gamma, err)
		}
	}
}

func TestToneMapperGamma(t *testing.T) {
	tm, err := NewToneMapper(2, false)
	if err != nil {
		t.Fatal(err)
	}
	if tm.Identity() {
		t.Fatal("gamma 2 reported as identity")
	}

	out := tm.Apply(fill(image.Rect(0, 0, 4, 4), color.RGBA{64, 0, 255, 255}))
	c := out.RGBAAt(1, 1)

	// 255 * (64/255)^(1/2) = 127.75
	if absDiff(c.R, 128) > 1 {
		t.Errorf("gamma 2 on 64 = %d, want about 128", c.R)
	}
	if c.G != 0 || c.B != 255 {
		t.Errorf("gamma moved the end points: %v", c)
	}
}

func TestToneMapperCLAHE(t *testing.T) {
	tm, err := NewToneMapper(1, true)
	if err != nil {
		t.Fatal(err)
	}

	// low contrast gray gradient of grid size
	src := image.NewRGBA(image.Rect(0, 0, 100, 28))
	for y := 0; y < 28; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(100 + x*32/100)
			src.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	out := tm.Apply(src)
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}

	lo, hi := uint8(255), uint8(0)
	for y := 0; y < 28; y++ {
		for x := 0; x < 100; x++ {
			c := out.RGBAAt(x, y)
			if c.R != c.G || c.G != c.B {
				t.Fatalf("gray pixel (%d, %d) gained chroma: %v", x, y, c)
			}
			lo = min(lo, c.R)
			hi = max(hi, c.R)
		}
	}

	if int(hi)-int(lo) <= 31 {
		t.Errorf("CLAHE did not stretch contrast: output range %d..%d, input 100..131", lo, hi)
	}
}

func TestCLAHEUniformPlane(t *testing.T) {
	f := newCLAHE()

	// 4:3, 5:3 and 16:9 sources at the default aspect, plus tiny planes
	sizes := []struct{ w, h int }{
		{100, 41},
		{100, 33},
		{100, 31},
		{100, 10},
		{3, 2},
		{1, 1},
	}

	for _, size := range sizes {
		for _, v := range []uint8{0, 60, 128, 200, 255} {
			lum := make([]uint8, size.w*size.h)
			for i := range lum {
				lum[i] = v
			}

			out := f.equalize(lum, size.w, size.h)
			for i, got := range out {
				if got != out[0] {
					t.Fatalf("%dx%d plane of %d: pixel (%d, %d) = %d, pixel (0, 0) = %d",
						size.w, size.h, v, i%size.w, i/size.w, got, out[0])
				}
			}
		}
	}
}

func TestTileGrid(t *testing.T) {
	for _, size := range []int{8, 10, 28, 33, 41, 100} {
		edges, centers := tileGrid(size, 8)

		if edges[0] != 0 || edges[8] != size {
			t.Errorf("size %d: edges %v do not cover the plane", size, edges)
		}
		for k := 0; k < 8; k++ {
			if edges[k+1] <= edges[k] {
				t.Errorf("size %d: tile %d is empty (%v)", size, k, edges)
			}
			if k > 0 && centers[k] <= centers[k-1] {
				t.Errorf("size %d: centers not increasing: %v", size, centers)
			}
		}
	}
}
