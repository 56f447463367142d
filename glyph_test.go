package aavideo

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestGlyphRampMonotonic(t *testing.T) {
	ramps := []string{"@", "@ ", "@%#*+=-:. ", DefaultRamp, strings.Repeat("ab", 200)}

	for _, s := range ramps {
		ramp, err := NewGlyphRamp(s)
		if err != nil {
			t.Fatal(err)
		}

		prev := 0
		for lum := 0; lum < 256; lum++ {
			i := ramp.Index(uint8(lum))
			if i < 0 || i > len(ramp)-1 {
				t.Fatalf("ramp of %d: Index(%d) = %d out of range", len(ramp), lum, i)
			}
			if i < prev {
				t.Fatalf("ramp of %d: Index(%d) = %d < Index(%d) = %d", len(ramp), lum, i, lum-1, prev)
			}
			prev = i
		}

		if ramp.Index(0) != 0 {
			t.Errorf("ramp of %d: Index(0) = %d, want 0", len(ramp), ramp.Index(0))
		}
		if len(ramp) <= 256 && ramp.Index(255) != len(ramp)-1 {
			t.Errorf("ramp of %d: Index(255) = %d, want %d", len(ramp), ramp.Index(255), len(ramp)-1)
		}
	}
}

func TestGlyphRampMultibyte(t *testing.T) {
	ramp, err := NewGlyphRamp("漢字 ")
	if err != nil {
		t.Fatal(err)
	}

	if len(ramp) != 3 {
		t.Fatalf("len = %d, want 3 runes", len(ramp))
	}
	if g := ramp.Glyph(0); g != '漢' {
		t.Errorf("Glyph(0) = %q, want '漢'", g)
	}
	if g := ramp.Glyph(255); g != ' ' {
		t.Errorf("Glyph(255) = %q, want ' '", g)
	}
}

func TestEmptyRamp(t *testing.T) {
	_, err := NewGlyphRamp("")
	if !errors.Is(err, ErrEmptyRamp) || !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NewGlyphRamp(\"\") = %v, want ErrEmptyRamp", err)
	}
}

func TestLumaMatchesYCbCr(t *testing.T) {
	for _, c := range []color.RGBA{
		{0, 0, 0, 255},
		{255, 255, 255, 255},
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
		{12, 200, 99, 255},
		{128, 128, 128, 255},
	} {
		want, _, _ := color.RGBToYCbCr(c.R, c.G, c.B)
		if got := Luma(c.R, c.G, c.B); got != want {
			t.Errorf("Luma(%v) = %d, want %d", c, got, want)
		}
	}
}

func TestGlyphMapperInvert(t *testing.T) {
	ramp, _ := NewGlyphRamp("#. ")

	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{255, 255, 255, 255})

	if got := string(NewGlyphMapper(ramp, false).Map(img)); got != "# " {
		t.Errorf("Map = %q, want %q", got, "# ")
	}
	if got := string(NewGlyphMapper(ramp, true).Map(img)); got != " #" {
		t.Errorf("inverted Map = %q, want %q", got, " #")
	}
}
