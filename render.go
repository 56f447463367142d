package aavideo

import (
	"bytes"
	"image"
	"io"
	"strconv"
)

const (
	clearScreen = "\x1b[2J\x1b[H"
	cursorHome  = "\x1b[H"
)

// Renderer converts frames and writes them to the terminal stream. It is
// the only writer of that stream during playback.
type Renderer struct {
	w         io.Writer
	converter *Converter
	clear     bool

	buf        bytes.Buffer
	started    bool
	prevHeight int
	dirty      bool
}

// NewRenderer returns a renderer writing to w. With clear set, the screen is
// cleared before the first frame and every frame starts at the home
// position. Otherwise frames are redrawn over the previous one by moving the
// cursor up.
func NewRenderer(w io.Writer, converter *Converter, clear bool) *Renderer {
	return &Renderer{
		w:         w,
		converter: converter,
		clear:     clear,
	}
}

// SetConverter replaces the converter used by WriteFrame. It must not be
// called during playback.
func (r *Renderer) SetConverter(c *Converter) {
	r.converter = c
}

// WriteFrame converts img and writes it in a single write.
func (r *Renderer) WriteFrame(img image.Image) error {
	frame, err := r.converter.Convert(img)
	if err != nil {
		return err
	}
	return r.WriteChunk(frame)
}

// WriteChunk writes an already converted frame.
func (r *Renderer) WriteChunk(frame *FrameChunk) error {
	r.buf.Reset()

	switch {
	case !r.started && r.clear:
		r.buf.WriteString(clearScreen)
	case !r.started:
	case r.clear:
		r.buf.WriteString(cursorHome)
	default:
		r.buf.WriteByte('\r')
		if r.prevHeight > 1 {
			r.buf.WriteString("\x1b[" + strconv.Itoa(r.prevHeight-1) + "A")
		}
	}

	if _, err := frame.WriteTo(&r.buf); err != nil {
		return err
	}

	r.started = true
	r.dirty = true
	r.prevHeight = frame.Height

	_, err := r.w.Write(r.buf.Bytes())
	return err
}

// Reset reverts color state and moves the cursor below the last frame. The
// next frame fixes a new render grid. Writing is skipped when nothing has
// been written since the last reset.
func (r *Renderer) Reset() error {
	if r.converter != nil {
		r.converter.ResetGrid()
	}
	if !r.dirty {
		return nil
	}
	r.dirty = false
	r.started = false

	_, err := io.WriteString(r.w, resetTermColor+"\n")
	return err
}
