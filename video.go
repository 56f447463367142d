package aavideo

import (
	"fmt"
	"image"
	"log"
	"time"
)

// Converter turns decoded frames into character frames. It holds the
// validated stages and the render grid fixed by the first frame, so inputs
// must be separated by ResetGrid.
type Converter struct {
	opts Options

	resampler *Resampler
	tone      *ToneMapper
	quant     *Quantizer
	dither    *Ditherer
	glyphs    *GlyphMapper
	escapes   []string
}

// NewConverter validates opts and builds the conversion stages.
func NewConverter(opts Options) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ramp, err := NewGlyphRamp(opts.Ramp)
	if err != nil {
		return nil, err
	}

	resampler, err := NewResampler(opts.Aspect)
	if err != nil {
		return nil, err
	}

	tone, err := NewToneMapper(opts.Gamma, opts.CLAHE)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		opts:      opts,
		resampler: resampler,
		tone:      tone,
		glyphs:    NewGlyphMapper(ramp, opts.Invert),
	}

	mode := opts.EffectiveColorMode()
	if mode != ColorNone {
		c.quant, err = NewQuantizer(opts.Levels)
		if err != nil {
			return nil, err
		}
		c.escapes = EscapeTable(c.quant.Palette(), mode)
		if opts.Dither {
			c.dither = NewDitherer(c.quant)
		}
	}

	return c, nil
}

// Grid returns the render grid once the first frame has been converted.
func (c *Converter) Grid() (RenderGrid, bool) {
	return c.resampler.Grid()
}

// ResetGrid forgets the render grid; the next input fixes a new one.
func (c *Converter) ResetGrid() {
	c.resampler.Reset()
}

// Convert runs one frame through the pipeline. Glyphs are chosen from the
// tone mapped frame before dithering, so dithering only affects color.
func (c *Converter) Convert(img image.Image) (*FrameChunk, error) {
	start := time.Now()

	resized, err := c.resampler.Resample(img)
	if err != nil {
		return nil, err
	}

	toned := c.tone.Apply(resized)
	glyphs := c.glyphs.Map(toned)

	var colors *IndexedFrame
	if c.quant != nil {
		src := toned
		if c.dither != nil {
			src = c.dither.Apply(toned)
		}
		colors = c.quant.Quantize(src)
	}

	grid, _ := c.resampler.Grid()
	frame, err := GenerateFrameChunk(grid, glyphs, colors, c.escapes)
	if err != nil {
		return nil, fmt.Errorf("aavideo: Convert: %w", err)
	}

	if c.opts.Debug {
		log.Printf("aavideo: convert: %dx%d -> %dx%d in %s",
			img.Bounds().Dx(), img.Bounds().Dy(), grid.Width, grid.Height, time.Since(start))
	}

	return frame, nil
}
