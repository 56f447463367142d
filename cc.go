package aavideo

import (
	"errors"
)

// GenerateFrameChunk composes glyphs and palette indices into a frame chunk.
// colors may be nil for a monochrome frame.
func GenerateFrameChunk(grid RenderGrid, glyphs []rune, colors *IndexedFrame,
	escapes []string) (*FrameChunk, error) {
	if len(glyphs) != grid.Width*grid.Height {
		return nil, errors.New("aavideo: GenerateFrameChunk: glyph count does not match grid")
	}
	if colors != nil && (colors.Width != grid.Width || colors.Height != grid.Height) {
		return nil, errors.New("aavideo: GenerateFrameChunk: color frame does not match grid")
	}

	frame := &FrameChunk{
		Width:  grid.Width,
		Height: grid.Height,
		Rows:   make([]*FrameRow, grid.Height),
	}

	if colors != nil {
		frame.Escapes = escapes
	}

	for y := 0; y < grid.Height; y++ {
		row := &FrameRow{
			Text: glyphs[y*grid.Width : (y+1)*grid.Width],
		}
		if frame.Escapes != nil {
			row.Color = colors.Pix[y*grid.Width : (y+1)*grid.Width]
		}
		frame.Rows[y] = row
	}

	return frame, nil
}
