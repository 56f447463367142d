package aavideo

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the parent of every configuration or frame shape error.
// Use errors.Is(err, ErrInvalidInput) to detect any of them.
var ErrInvalidInput = errors.New("aavideo: invalid input")

var (
	ErrInvalidFrame  = fmt.Errorf("%w: frame has zero width or height", ErrInvalidInput)
	ErrEmptyRamp     = fmt.Errorf("%w: glyph ramp must not be empty", ErrInvalidInput)
	ErrInvalidLevels = fmt.Errorf("%w: palette levels must be between %d and %d",
		ErrInvalidInput, MinLevels, MaxLevels)
	ErrInvalidAspect = fmt.Errorf("%w: aspect factor must be positive", ErrInvalidInput)
	ErrInvalidGamma  = fmt.Errorf("%w: gamma must be positive", ErrInvalidInput)
)

// AcquisitionKind classifies why a source could not be acquired.
type AcquisitionKind int

// Possible acquisition failure kinds.
const (
	// NotFound means the file does not exist or the URL is unreachable.
	NotFound AcquisitionKind = iota + 1
	// Unsupported means the source exists but cannot be decoded.
	Unsupported
	// Rejected means the URL failed the scheme/domain allow-list.
	Rejected
)

func (k AcquisitionKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Unsupported:
		return "unsupported"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// AcquisitionError is returned when a playback target cannot be opened. It is
// never retried.
type AcquisitionError struct {
	Kind   AcquisitionKind
	Source string
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("aavideo: acquire %q: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("aavideo: acquire %q: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the frame stream fails mid-playback.
type DecodeError struct {
	Frame int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("aavideo: decode failed at frame %d: %v", e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
