//go:build !windows

package aavideo

import (
	"os"
)

// enableVirtualTerminal is a no-op where terminals process ANSI natively.
func enableVirtualTerminal(f *os.File) (func() error, error) {
	return func() error { return nil }, nil
}
