package stream

import (
	"context"
	"encoding/json"
	"image"
	"math"
	"time"
)

// MaxDuration is the longest stretch of a source that is played. Longer
// sources trigger the truncation prompt.
const MaxDuration = 30 * time.Minute

// fallbackFPS is used when a source does not report a usable frame rate.
const fallbackFPS = 24.0

// Metadata describes an acquired source.
type Metadata struct {
	Title    string
	Source   string
	Duration time.Duration
	FPS      float64
	Width    int
	Height   int
}

// Sequence is a lazy, finite, forward-only sequence of decoded frames.
// Next returns io.EOF once the sequence is exhausted.
type Sequence interface {
	Next() (image.Image, error)
	FPS() float64
	Close() error
}

// Media is an acquired source that can be decoded. Open returns a fresh
// sequence each call; a positive limit asks for only that much of the
// source.
type Media interface {
	Metadata() Metadata
	Open(ctx context.Context, limit time.Duration) (Sequence, error)
	Close() error
}

// FrameSink receives frames in presentation order and owns the terminal.
// Reset must revert any color and cursor state the sink has changed.
type FrameSink interface {
	WriteFrame(img image.Image) error
	Reset() error
}

// State is a playback state.
type State int

// Possible playback states.
const (
	StateIdle = State(iota + 1)
	StateRunning
	StateLooping
	StateTruncatedPrompt
	StateFinished
	StateCancelled
	StateAborted
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateRunning:         "running",
	StateLooping:         "looping",
	StateTruncatedPrompt: "truncated-prompt",
	StateFinished:        "finished",
	StateCancelled:       "cancelled",
	StateAborted:         "aborted",
	StateFailed:          "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transitions can follow.
func (s State) Terminal() bool {
	switch s {
	case StateFinished, StateCancelled, StateAborted, StateFailed:
		return true
	}
	return false
}

// PlaybackState is the scheduler's view of one playback. Only the scheduler
// mutates it; observers receive copies.
type PlaybackState struct {
	State     State
	Title     string
	Source    string
	Frame     int
	Elapsed   time.Duration
	Duration  time.Duration
	Loop      bool
	Truncated bool
	Err       error
}

func (s PlaybackState) MarshalJSON() ([]byte, error) {
	type stateJSON struct {
		State     State  `json:"state"`
		Title     string `json:"title"`
		Source    string `json:"source"`
		Frame     int    `json:"frame"`
		Elapsed   int    `json:"elapsed"`
		Duration  int    `json:"duration"`
		Loop      bool   `json:"loop"`
		Truncated bool   `json:"truncated"`
		Error     string `json:"error,omitempty"`
	}

	out := stateJSON{
		State:     s.State,
		Title:     s.Title,
		Source:    s.Source,
		Frame:     s.Frame,
		Elapsed:   int(s.Elapsed.Seconds()),
		Duration:  int(math.Round(s.Duration.Seconds())),
		Loop:      s.Loop,
		Truncated: s.Truncated,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}

	return json.Marshal(out)
}

// frameDelay returns the target delay between frames for fps, falling back
// to 24 fps when the rate is missing or nonsensical.
func frameDelay(fps float64) (time.Duration, float64) {
	if !(fps > 0) || math.IsInf(fps, 0) || fps > 1000 {
		fps = fallbackFPS
	}
	return time.Duration(float64(time.Second) / fps), fps
}
