package aavideo

import (
	"io"
	"log"
	"os"

	"golang.org/x/term"
)

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// Terminal is a scoped acquisition of the output terminal. While held, the
// cursor is hidden and ANSI processing is enabled where the platform needs it.
// Release restores everything and must run on every exit path.
type Terminal struct {
	out      io.Writer
	fd       int
	isTTY    bool
	restore  func() error
	released bool
}

// AcquireTerminal takes over out for playback. When out is not a terminal
// nothing is changed and Release only writes a final color reset.
func AcquireTerminal(out *os.File) (*Terminal, error) {
	t := &Terminal{
		out:     out,
		fd:      int(out.Fd()),
		restore: func() error { return nil },
	}
	t.isTTY = term.IsTerminal(t.fd)
	if !t.isTTY {
		return t, nil
	}

	restore, err := enableVirtualTerminal(out)
	if err != nil {
		return nil, err
	}
	t.restore = restore

	if width, _, err := term.GetSize(t.fd); err == nil && width < GridWidth {
		log.Printf("aavideo: terminal is %d columns wide, frames need %d", width, GridWidth)
	}

	if _, err := io.WriteString(out, hideCursor); err != nil {
		t.restore()
		return nil, err
	}

	return t, nil
}

// IsTerminal reports whether the output is an interactive terminal.
func (t *Terminal) IsTerminal() bool {
	return t.isTTY
}

// Release resets colors, shows the cursor and restores the console mode.
// It is safe to call more than once.
func (t *Terminal) Release() error {
	if t.released {
		return nil
	}
	t.released = true

	seq := resetTermColor
	if t.isTTY {
		seq += showCursor
	}
	_, err := io.WriteString(t.out, seq)

	if rerr := t.restore(); err == nil {
		err = rerr
	}
	return err
}
