package main

import (
	"context"
	"errors"
	"image"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/tmpim/aavideo"
	"github.com/tmpim/aavideo/stream"
)

// terminalSink acquires the terminal on the first frame, so nothing is
// hidden or redrawn while the truncation prompt is waiting for an answer.
type terminalSink struct {
	*aavideo.Renderer
	out  *os.File
	term *aavideo.Terminal
}

func newTerminalSink(out *os.File, w io.Writer, conv *aavideo.Converter, clear bool) *terminalSink {
	return &terminalSink{
		Renderer: aavideo.NewRenderer(w, conv, clear),
		out:      out,
	}
}

func (s *terminalSink) WriteFrame(img image.Image) error {
	if s.term == nil {
		t, err := aavideo.AcquireTerminal(s.out)
		if err != nil {
			return err
		}
		s.term = t
	}
	return s.Renderer.WriteFrame(img)
}

// Release restores the terminal if it was acquired.
func (s *terminalSink) Release() error {
	if s.term == nil {
		return nil
	}
	err := s.term.Release()
	s.term = nil
	return err
}

// decider returns the truncation decider for policy. "ask" prompts on the
// controlling terminal and falls back to abort when stdin is not one.
func decider(policy string) stream.TruncationDecider {
	d, _ := stream.ParsePolicy(policy)
	if d != nil {
		return d
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Println("aavideo: stdin is not a terminal, long videos will be aborted (see --truncate)")
		return stream.AlwaysAbort
	}

	return &stream.Prompt{In: os.Stdin, Out: os.Stderr}
}

// acquire opens target as a local file or, for URLs, through yt-dlp.
func acquire(ctx context.Context, cfg *config, target string) (stream.Media, error) {
	if stream.IsURL(target) {
		return stream.YoutubeDLSource(ctx, target, cfg.youtubeDLOptions())
	}
	return stream.FileSource(target, cfg.decodeOptions())
}

// converterFor builds the converter for media, extending the ramp with
// subtitle kanji when requested.
func converterFor(ctx context.Context, cfg *config, opts aavideo.Options,
	media stream.Media) (*aavideo.Converter, error) {
	if remote, ok := media.(*stream.RemoteMedia); ok && cfg.subtitles {
		ramp, err := remote.SubtitleRamp(ctx, opts.Ramp)
		if err != nil {
			log.Println("aavideo: subtitle ramp:", err)
		}
		opts.Ramp = ramp
	}

	return aavideo.NewConverter(opts)
}

func playOne(ctx context.Context, cfg *config, opts aavideo.Options, target string) error {
	media, err := acquire(ctx, cfg, target)
	if err != nil {
		return exitFor(ctx, stream.PlaybackState{State: stream.StateFailed}, err)
	}
	defer media.Close()

	conv, err := converterFor(ctx, cfg, opts, media)
	if err != nil {
		return &exitError{code: exitInvalid, err: err}
	}

	sink := newTerminalSink(os.Stdout, os.Stdout, conv, !cfg.noClear)
	defer sink.Release()

	player := &stream.Scheduler{
		Sink:    sink,
		Decide:  decider(cfg.truncate),
		Loop:    cfg.loop,
		Verbose: cfg.verbose,
	}

	st, err := player.Play(ctx, media)
	if rerr := sink.Release(); err == nil && rerr != nil {
		err = rerr
	}

	if cfg.verbose {
		log.Printf("aavideo: %s after %d frames", st.State, st.Frame)
	}

	return exitFor(ctx, st, err)
}

// exitFor maps a finished playback to the process exit code.
func exitFor(ctx context.Context, st stream.PlaybackState, err error) error {
	var acqErr *aavideo.AcquisitionError

	switch {
	case st.State == stream.StateCancelled, ctx.Err() != nil:
		return &exitError{code: exitCancelled}
	case st.State == stream.StateAborted:
		return &exitError{code: exitAborted, err: errors.New("playback aborted: video exceeds 30 minutes")}
	case err == nil:
		return nil
	case errors.As(err, &acqErr):
		return &exitError{code: exitAcquisition, err: err}
	}

	return &exitError{code: exitFailed, err: err}
}
