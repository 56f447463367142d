package aavideo

import (
	"image/color"
	"testing"
)

func TestXtermIndex(t *testing.T) {
	tests := []struct {
		c    color.RGBA
		want int
	}{
		{color.RGBA{0, 0, 0, 255}, 16},
		{color.RGBA{255, 255, 255, 255}, 231},
		{color.RGBA{255, 0, 0, 255}, 196},
		{color.RGBA{0, 255, 0, 255}, 46},
		{color.RGBA{0, 0, 255, 255}, 21},
		{color.RGBA{238, 238, 238, 255}, 255},
		{color.RGBA{95, 135, 175, 255}, 67},
	}

	for _, test := range tests {
		if got := XtermIndex(test.c); got != test.want {
			t.Errorf("XtermIndex(%v) = %d, want %d", test.c, got, test.want)
		}
	}
}

func TestEscapeTable(t *testing.T) {
	q, _ := NewQuantizer(2)

	if table := EscapeTable(q.Palette(), ColorNone); table != nil {
		t.Errorf("ColorNone table = %v, want nil", table)
	}

	truecolor := EscapeTable(q.Palette(), ColorTrue)
	if len(truecolor) != 8 {
		t.Fatalf("table has %d entries, want 8", len(truecolor))
	}
	if got := truecolor[7]; got != "\x1b[38;2;255;255;255m" {
		t.Errorf("white escape = %q", got)
	}

	xterm := EscapeTable(q.Palette(), Color256)
	if got := xterm[4]; got != "\x1b[38;5;196m" {
		t.Errorf("red escape = %q, want 196", got)
	}
}
