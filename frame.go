package aavideo

import (
	"bufio"
	"io"
)

const resetTermColor = "\x1b[0m"

// FrameRow represents a row of a rendered frame.
type FrameRow struct {
	Text  []rune
	Color []uint16
}

// writeTo writes the row to wr, emitting a color escape only where the color
// differs from the color currently active. It returns the color active after
// the row.
func (f *FrameRow) writeTo(wr *bufio.Writer, escapes []string, active int) int {
	for i, ch := range f.Text {
		if escapes != nil {
			c := int(f.Color[i])
			if c != active {
				wr.WriteString(escapes[c])
				active = c
			}
		}
		wr.WriteRune(ch)
	}

	return active
}

// FrameChunk represents one rendered frame: a glyph per cell and, unless the
// frame is monochrome, a palette index per cell.
type FrameChunk struct {
	Width  int
	Height int

	Rows []*FrameRow

	// Escapes holds the foreground escape sequence of each palette index. A
	// nil table renders the frame without color.
	Escapes []string
}

// WriteTo writes the frame to w. Rows are separated by newlines, with no
// trailing newline, and colored frames end with an SGR reset.
func (f *FrameChunk) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	wr := bufio.NewWriterSize(cw, f.Width*f.Height*4+64)

	active := -1
	for i, row := range f.Rows {
		if i > 0 {
			wr.WriteByte('\n')
		}
		active = row.writeTo(wr, f.Escapes, active)
	}

	if f.Escapes != nil {
		wr.WriteString(resetTermColor)
	}

	err := wr.Flush()
	return cw.n, err
}

// Runs returns the number of color escapes WriteTo emits.
func (f *FrameChunk) Runs() int {
	if f.Escapes == nil {
		return 0
	}

	runs := 0
	active := -1
	for _, row := range f.Rows {
		for _, c := range row.Color {
			if int(c) != active {
				runs++
				active = int(c)
			}
		}
	}
	return runs
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
