//go:build windows

package aavideo

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableVirtualTerminal turns on ANSI escape processing for a Windows console
// and returns a function restoring the previous console mode.
func enableVirtualTerminal(f *os.File) (func() error, error) {
	h := windows.Handle(f.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return nil, err
	}
	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return func() error { return nil }, nil
	}

	if err := windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
		return nil, err
	}

	return func() error {
		return windows.SetConsoleMode(h, mode)
	}, nil
}
