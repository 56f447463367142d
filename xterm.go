package aavideo

import (
	"image/color"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// xterm 256-color cube channel values.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// xtermColor returns the RGB value of an xterm palette entry in 16..255.
// Entries 0..15 are terminal-defined and never selected.
func xtermColor(index int) color.RGBA {
	if index >= 232 {
		v := uint8(8 + 10*(index-232))
		return color.RGBA{R: v, G: v, B: v, A: 0xff}
	}
	i := index - 16
	return color.RGBA{R: cubeLevels[i/36], G: cubeLevels[(i/6)%6], B: cubeLevels[i%6], A: 0xff}
}

// XtermIndex returns the xterm 256-color entry closest to c in CIE Lab.
func XtermIndex(c color.Color) int {
	target, _ := colorful.MakeColor(c)

	best := 16
	bestDist := -1.0
	for i := 16; i < 256; i++ {
		cand, _ := colorful.MakeColor(xtermColor(i))
		d := target.DistanceLab(cand)
		if bestDist < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}

	return best
}

// EscapeTable returns the foreground escape sequence for every palette entry
// in the given mode, or nil for ColorNone.
func EscapeTable(palette color.Palette, mode ColorMode) []string {
	if mode == ColorNone {
		return nil
	}

	table := make([]string, len(palette))
	for i, c := range palette {
		rgb := color.RGBAModel.Convert(c).(color.RGBA)
		switch mode {
		case Color256:
			table[i] = "\x1b[38;5;" + strconv.Itoa(XtermIndex(rgb)) + "m"
		default:
			table[i] = "\x1b[38;2;" + strconv.Itoa(int(rgb.R)) + ";" +
				strconv.Itoa(int(rgb.G)) + ";" + strconv.Itoa(int(rgb.B)) + "m"
		}
	}

	return table
}
