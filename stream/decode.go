package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/image/bmp"
	"golang.org/x/sync/errgroup"

	"github.com/tmpim/aavideo"
)

// DefaultDecodeWidth caps the width of frames coming out of ffmpeg. The
// resampler still does the final area-averaged reduction to the grid; this
// only keeps the BMP pipe small for high resolution sources.
const DefaultDecodeWidth = 400

// maxStderr bounds how much ffmpeg diagnostics are kept for error messages.
const maxStderr = 4096

// DecodeOptions configures the ffmpeg decoder.
type DecodeOptions struct {
	Binary string
	Width  int
	Debug  bool
}

func (o DecodeOptions) binary() string {
	if o.Binary == "" {
		return "ffmpeg"
	}
	return o.Binary
}

// ffmpegArgs builds the command line decoding path into a stream of BMP
// images on stdout.
func ffmpegArgs(path string, width int, limit time.Duration) []string {
	if width <= 0 {
		width = DefaultDecodeWidth
	}

	kw := ffmpeg.KwArgs{
		"format":   "image2pipe",
		"vcodec":   "bmp",
		"vf":       "scale='min(" + strconv.Itoa(width) + ",iw)':-2",
		"loglevel": "error",
	}
	if limit > 0 {
		kw["t"] = strconv.FormatFloat(limit.Seconds(), 'f', 3, 64)
	}

	return ffmpeg.Input(path).Output("pipe:", kw).GetArgs()
}

// FFmpegSequence is a Sequence of frames decoded by an ffmpeg subprocess.
type FFmpegSequence struct {
	fps    float64
	cmd    *exec.Cmd
	rd     *bufio.Reader
	cancel func()
	group  *errgroup.Group
	stderr *boundedBuffer

	frame int
	done  bool
	once  sync.Once
	err   error
}

// Decode starts ffmpeg on path. fps is the rate reported by the probe; the
// decoder does not resample time.
func Decode(ctx context.Context, path string, fps float64, limit time.Duration,
	opts DecodeOptions) (*FFmpegSequence, error) {
	wrappedCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(wrappedCtx, opts.binary(), ffmpegArgs(path, opts.Width, limit)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &aavideo.AcquisitionError{Kind: aavideo.Unsupported, Source: path, Err: err}
	}

	seq := &FFmpegSequence{
		fps:    fps,
		cmd:    cmd,
		rd:     bufio.NewReaderSize(stdout, 1<<20),
		cancel: cancel,
		group:  new(errgroup.Group),
		stderr: &boundedBuffer{max: maxStderr},
	}

	seq.group.Go(func() error {
		var w io.Writer = seq.stderr
		if opts.Debug {
			w = io.MultiWriter(seq.stderr, debugWriter{})
		}
		_, err := io.Copy(w, stderr)
		return err
	})

	return seq, nil
}

// FPS returns the source frame rate.
func (s *FFmpegSequence) FPS() float64 {
	return s.fps
}

// Next decodes the next frame. It returns io.EOF after the last frame and a
// *aavideo.DecodeError when ffmpeg fails or emits a malformed image.
func (s *FFmpegSequence) Next() (image.Image, error) {
	if s.done {
		return nil, io.EOF
	}

	img, err := bmp.Decode(s.rd)
	if err == nil {
		s.frame++
		return img, nil
	}

	s.done = true
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if werr := s.wait(); werr != nil {
			return nil, &aavideo.DecodeError{Frame: s.frame, Err: werr}
		}
		return nil, io.EOF
	}

	s.Close()
	return nil, &aavideo.DecodeError{Frame: s.frame, Err: err}
}

func (s *FFmpegSequence) wait() error {
	s.once.Do(func() {
		s.group.Wait()
		err := s.cmd.Wait()
		s.cancel()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(s.stderr.String())
			if msg == "" {
				s.err = fmt.Errorf("ffmpeg: %v", err)
			} else {
				s.err = fmt.Errorf("ffmpeg: %v: %s", err, msg)
			}
		} else if err != nil {
			s.err = err
		}
	})

	return s.err
}

// Close stops ffmpeg and releases the pipe. It is safe to call repeatedly.
func (s *FFmpegSequence) Close() error {
	s.done = true
	s.cancel()
	go io.Copy(io.Discard, s.rd)
	s.wait()
	return nil
}

type debugWriter struct{}

func (debugWriter) Write(p []byte) (int, error) {
	log.Printf("aavideo stream: ffmpeg: %s", bytes.TrimSpace(p))
	return len(p), nil
}

type boundedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
