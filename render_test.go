package aavideo

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
)

func testChunk(t *testing.T) *FrameChunk {
	t.Helper()

	q, err := NewQuantizer(2)
	if err != nil {
		t.Fatal(err)
	}

	// 3x2 grid: red red blue / blue blue blue
	colors := &IndexedFrame{
		Width:   3,
		Height:  2,
		Pix:     []uint16{4, 4, 1, 1, 1, 1},
		Palette: q.Palette(),
	}

	frame, err := GenerateFrameChunk(RenderGrid{Width: 3, Height: 2}, []rune("ab#c.d"), colors,
		EscapeTable(q.Palette(), ColorTrue))
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestFrameChunkWriteTo(t *testing.T) {
	frame := testChunk(t)

	buf := new(bytes.Buffer)
	n, err := frame.WriteTo(buf)
	if err != nil {
		t.Fatal(err)
	}

	want := "\x1b[38;2;255;0;0mab\x1b[38;2;0;0;255m#\nc.d\x1b[0m"
	if got := buf.String(); got != want {
		t.Errorf("WriteTo = %q, want %q", got, want)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d bytes", n, buf.Len())
	}
	if runs := frame.Runs(); runs != 2 {
		t.Errorf("Runs = %d, want 2", runs)
	}
}

func TestFrameChunkMonochrome(t *testing.T) {
	frame, err := GenerateFrameChunk(RenderGrid{Width: 2, Height: 2}, []rune("ab c"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	buf := new(bytes.Buffer)
	frame.WriteTo(buf)

	if got := buf.String(); got != "ab\n c" {
		t.Errorf("WriteTo = %q, want %q", got, "ab\n c")
	}
	if strings.Contains(buf.String(), "\x1b") {
		t.Error("monochrome frame contains escapes")
	}
}

func TestGenerateFrameChunkMismatch(t *testing.T) {
	if _, err := GenerateFrameChunk(RenderGrid{Width: 2, Height: 2}, []rune("abc"), nil, nil); err == nil {
		t.Error("expected an error for a short glyph slice")
	}

	colors := &IndexedFrame{Width: 3, Height: 1, Pix: make([]uint16, 3)}
	if _, err := GenerateFrameChunk(RenderGrid{Width: 2, Height: 2}, []rune("abcd"), colors, nil); err == nil {
		t.Error("expected an error for a mismatched color frame")
	}
}

func TestRendererCursorMovement(t *testing.T) {
	tests := []struct {
		name   string
		clear  bool
		first  string
		second string
	}{
		{"clear", true, clearScreen, cursorHome},
		{"redraw", false, "", "\r\x1b[1A"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			r := NewRenderer(buf, nil, test.clear)
			frame := testChunk(t)

			if err := r.WriteChunk(frame); err != nil {
				t.Fatal(err)
			}
			first := buf.String()
			if !strings.HasPrefix(first, test.first+"\x1b[38;2;") {
				t.Errorf("first frame starts %q, want prefix %q", first, test.first)
			}

			buf.Reset()
			if err := r.WriteChunk(frame); err != nil {
				t.Fatal(err)
			}
			second := buf.String()
			if !strings.HasPrefix(second, test.second+"\x1b[38;2;") {
				t.Errorf("second frame starts %q, want prefix %q", second, test.second)
			}
			if !strings.HasSuffix(second, resetTermColor) {
				t.Errorf("frame does not end with a reset: %q", second)
			}
		})
	}
}

type countWrites struct {
	bytes.Buffer
	writes int
}

func (c *countWrites) Write(p []byte) (int, error) {
	c.writes++
	return c.Buffer.Write(p)
}

func TestRendererWriteFrame(t *testing.T) {
	opts := DefaultOptions()
	conv, err := NewConverter(opts)
	if err != nil {
		t.Fatal(err)
	}

	w := new(countWrites)
	r := NewRenderer(w, conv, false)

	img := fill(image.Rect(0, 0, 200, 100), color.RGBA{255, 0, 0, 255})
	if err := r.WriteFrame(img); err != nil {
		t.Fatal(err)
	}
	if w.writes != 1 {
		t.Errorf("frame took %d writes, want 1", w.writes)
	}

	lines := strings.Split(w.String(), "\n")
	if len(lines) != 28 {
		t.Errorf("frame has %d lines, want 28", len(lines))
	}

	// one escape for the whole uniform frame
	if n := strings.Count(w.String(), "\x1b[38;2;"); n != 1 {
		t.Errorf("uniform frame has %d color escapes, want 1", n)
	}
}

func TestRendererReset(t *testing.T) {
	buf := new(bytes.Buffer)
	r := NewRenderer(buf, nil, false)

	if err := r.Reset(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("Reset before any frame wrote %q", buf.String())
	}

	r.WriteChunk(testChunk(t))
	buf.Reset()

	r.Reset()
	if got := buf.String(); got != resetTermColor+"\n" {
		t.Errorf("Reset wrote %q, want %q", got, resetTermColor+"\n")
	}

	buf.Reset()
	r.Reset()
	if buf.Len() != 0 {
		t.Errorf("second Reset wrote %q", buf.String())
	}

	// the next frame starts over without moving the cursor up
	r.WriteChunk(testChunk(t))
	if strings.HasPrefix(buf.String(), "\r") {
		t.Errorf("frame after Reset moved the cursor: %q", buf.String())
	}
}
