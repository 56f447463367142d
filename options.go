package aavideo

import (
	"fmt"
	"math"
)

// Defaults for the conversion options.
const (
	DefaultRamp   = "$@B%8&WM#*oahkbdpqwmZ0QLCJUYXzcvunxrjft/\\|()1{}[]?-_+~<>i!lI;:,\"^`'. "
	DefaultAspect = 0.55
	DefaultGamma  = 1.0
	DefaultLevels = 4
)

// ColorMode selects how palette colors are written to the terminal.
type ColorMode int

// Possible color modes.
const (
	ColorTrue ColorMode = iota
	Color256
	ColorNone
)

// ParseColorMode parses "truecolor", "256" or "none".
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "truecolor", "24bit", "":
		return ColorTrue, nil
	case "256", "xterm":
		return Color256, nil
	case "none", "mono":
		return ColorNone, nil
	}
	return ColorTrue, fmt.Errorf("%w: unknown color mode %q", ErrInvalidInput, s)
}

func (m ColorMode) String() string {
	switch m {
	case Color256:
		return "256"
	case ColorNone:
		return "none"
	}
	return "truecolor"
}

// Options configures the per-frame conversion. It is validated once before
// any frame is processed.
type Options struct {
	Ramp      string
	Aspect    float64
	Color     bool
	ColorMode ColorMode
	Gamma     float64
	CLAHE     bool
	Dither    bool
	Levels    int
	Invert    bool
	Debug     bool
}

// DefaultOptions returns the options used when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		Ramp:      DefaultRamp,
		Aspect:    DefaultAspect,
		Color:     true,
		ColorMode: ColorTrue,
		Gamma:     DefaultGamma,
		Levels:    DefaultLevels,
	}
}

// Validate checks the configuration shape.
func (o *Options) Validate() error {
	if o.Ramp == "" {
		return ErrEmptyRamp
	}
	if o.Levels < MinLevels || o.Levels > MaxLevels {
		return fmt.Errorf("%w (got %d)", ErrInvalidLevels, o.Levels)
	}
	if !(o.Aspect > 0) || math.IsInf(o.Aspect, 0) {
		return fmt.Errorf("%w (got %v)", ErrInvalidAspect, o.Aspect)
	}
	if !(o.Gamma > 0) || math.IsInf(o.Gamma, 0) {
		return fmt.Errorf("%w (got %v)", ErrInvalidGamma, o.Gamma)
	}
	if o.ColorMode < ColorTrue || o.ColorMode > ColorNone {
		return fmt.Errorf("%w: unknown color mode %d", ErrInvalidInput, o.ColorMode)
	}

	return nil
}

// EffectiveColorMode folds the Color switch into the color mode.
func (o *Options) EffectiveColorMode() ColorMode {
	if !o.Color {
		return ColorNone
	}
	return o.ColorMode
}
