package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"time"

	"github.com/tmpim/aavideo"
)

// Scheduler paces frames from a media sequence into a sink at the source
// frame rate. It implements the playback state machine:
//
//	Idle -> Running -> {Looping | Finished | Cancelled | TruncatedPrompt}
//
// TruncatedPrompt is entered at most once, before the first frame, and
// resolves back to Running or to Aborted. Decode and render errors end in
// Failed.
type Scheduler struct {
	Sink   FrameSink
	Clock  Clock
	Decide TruncationDecider
	Loop   bool

	// OnState, if set, receives a copy of the state after every transition.
	OnState func(PlaybackState)
	Verbose bool
}

var errStopped = errors.New("stream: playback cancelled")

// Play runs media to completion, cancellation or failure. Cancellation is
// reported as StateCancelled with a nil error. The sink is reset on every
// exit path.
func (s *Scheduler) Play(ctx context.Context, media Media) (st PlaybackState, err error) {
	clock := s.Clock
	if clock == nil {
		clock = SystemClock
	}

	meta := media.Metadata()
	st = PlaybackState{
		State:    StateIdle,
		Title:    meta.Title,
		Source:   meta.Source,
		Duration: meta.Duration,
		Loop:     s.Loop,
	}
	s.publish(st)

	defer func() {
		if rerr := s.Sink.Reset(); rerr != nil && err == nil && st.State != StateCancelled {
			err = rerr
			st.State = StateFailed
			st.Err = rerr
			s.publish(st)
		}
	}()

	started := clock.Now()
	s.transition(&st, StateRunning)

	var limit time.Duration
	if meta.Duration > MaxDuration {
		s.transition(&st, StateTruncatedPrompt)

		decide := s.Decide
		if decide == nil {
			decide = AlwaysAbort
		}

		proceed, err := decide.Decide(ctx, meta)
		if ctx.Err() != nil {
			s.transition(&st, StateCancelled)
			return st, nil
		} else if err != nil {
			return s.fail(&st, err)
		}

		if !proceed {
			s.transition(&st, StateAborted)
			return st, nil
		}

		st.Truncated = true
		limit = MaxDuration
		s.transition(&st, StateRunning)
	}

	for {
		if ctx.Err() != nil {
			s.transition(&st, StateCancelled)
			return st, nil
		}

		seq, err := media.Open(ctx, limit)
		if err != nil {
			if ctx.Err() != nil {
				s.transition(&st, StateCancelled)
				return st, nil
			}
			return s.fail(&st, err)
		}

		err = s.run(ctx, clock, seq, &st, limit, started)
		seq.Close()

		if errors.Is(err, errStopped) {
			s.transition(&st, StateCancelled)
			return st, nil
		} else if err != nil {
			return s.fail(&st, err)
		}

		if !s.Loop {
			s.transition(&st, StateFinished)
			return st, nil
		}

		s.transition(&st, StateLooping)
		st.Frame = 0
		s.transition(&st, StateRunning)
	}
}

// run emits the frames of one pass. It sleeps only the positive remainder of
// the frame delay after rendering and never skips frames to catch up.
func (s *Scheduler) run(ctx context.Context, clock Clock, seq Sequence,
	st *PlaybackState, limit time.Duration, started time.Time) error {
	delay, fps := frameDelay(seq.FPS())

	maxFrames := -1
	if limit > 0 {
		maxFrames = int(math.Floor(limit.Seconds()*fps + 1e-9))
	}

	if s.Verbose {
		log.Printf("aavideo stream: playing %q at %.3f fps (frame delay %s)", st.Title, fps, delay)
	}

	for maxFrames < 0 || st.Frame < maxFrames {
		if ctx.Err() != nil {
			return errStopped
		}

		img, err := seq.Next()
		if err != nil && ctx.Err() != nil {
			// the decoder was killed by the cancellation
			return errStopped
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			var decodeErr *aavideo.DecodeError
			if errors.As(err, &decodeErr) {
				return err
			}
			return &aavideo.DecodeError{Frame: st.Frame, Err: err}
		}

		// decoding may block for a while; never start a render after a
		// cancellation
		if ctx.Err() != nil {
			return errStopped
		}

		start := clock.Now()
		if err := s.Sink.WriteFrame(img); err != nil {
			return err
		}

		st.Frame++
		st.Elapsed = clock.Now().Sub(started)

		if wait := delay - clock.Now().Sub(start); wait > 0 {
			if err := clock.Sleep(ctx, wait); err != nil {
				return errStopped
			}
		}
	}

	return nil
}

func (s *Scheduler) transition(st *PlaybackState, next State) {
	if s.Verbose {
		log.Printf("aavideo stream: %s -> %s (frame %d)", st.State, next, st.Frame)
	}
	st.State = next
	s.publish(*st)
}

func (s *Scheduler) fail(st *PlaybackState, err error) (PlaybackState, error) {
	st.Err = err
	s.transition(st, StateFailed)
	return *st, err
}

func (s *Scheduler) publish(st PlaybackState) {
	if s.OnState != nil {
		s.OnState(st)
	}
}
