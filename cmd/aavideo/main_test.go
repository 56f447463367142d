package main

import (
	"context"
	"errors"
	"testing"

	"github.com/tmpim/aavideo"
	"github.com/tmpim/aavideo/stream"
)

func TestExitFor(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	acqErr := &aavideo.AcquisitionError{Kind: aavideo.NotFound, Source: "x.mp4", Err: errors.New("no such file")}

	tests := []struct {
		name  string
		ctx   context.Context
		state stream.State
		err   error
		code  int
	}{
		{"finished", context.Background(), stream.StateFinished, nil, exitOK},
		{"cancelled", context.Background(), stream.StateCancelled, nil, exitCancelled},
		{"interrupted", cancelled, stream.StateFailed, errors.New("killed"), exitCancelled},
		{"aborted", context.Background(), stream.StateAborted, nil, exitAborted},
		{"acquisition", context.Background(), stream.StateFailed, acqErr, exitAcquisition},
		{"decode", context.Background(), stream.StateFailed, &aavideo.DecodeError{Frame: 3, Err: errors.New("bad")}, exitFailed},
	}

	for _, test := range tests {
		err := exitFor(test.ctx, stream.PlaybackState{State: test.state}, test.err)

		code := exitOK
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		} else if err != nil {
			t.Errorf("%s: unexpected error type %T", test.name, err)
		}

		if code != test.code {
			t.Errorf("%s: exit code = %d, want %d", test.name, code, test.code)
		}
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := &config{
		ramp:      aavideo.DefaultRamp,
		aspect:    aavideo.DefaultAspect,
		gamma:     2.2,
		levels:    4,
		colorMode: "256",
	}
	opts, err := cfg.options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Levels != 4 || opts.Gamma != 2.2 || !opts.Color {
		t.Errorf("options = %+v", opts)
	}

	bad := *cfg
	bad.colorMode = "sixel"
	if _, err := bad.options(); err == nil {
		t.Error("unknown color mode accepted")
	}

	bad = *cfg
	bad.levels = 0
	if _, err := bad.options(); err == nil {
		t.Error("zero palette levels accepted")
	}
}

func TestRootCmdRejectsBadInput(t *testing.T) {
	tests := [][]string{
		{"--truncate", "maybe", "video.mp4"},
		{"--levels", "9", "video.mp4"},
		{"a.mp4", "b.mp4"},
		{},
	}

	for _, args := range tests {
		cmd := newRootCmd()
		cmd.SetArgs(args)

		err := cmd.ExecuteContext(context.Background())

		var exitErr *exitError
		if !errors.As(err, &exitErr) || exitErr.code != exitInvalid {
			t.Errorf("%q: got %v, want exit code %d", args, err, exitInvalid)
		}
	}
}
