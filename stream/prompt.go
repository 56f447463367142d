package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// TruncationDecider answers the truncation prompt: true plays only the first
// MaxDuration of the source, false aborts the item. It is called
// synchronously before the first frame.
type TruncationDecider interface {
	Decide(ctx context.Context, meta Metadata) (bool, error)
}

// DecideFunc adapts a function to TruncationDecider.
type DecideFunc func(ctx context.Context, meta Metadata) (bool, error)

func (f DecideFunc) Decide(ctx context.Context, meta Metadata) (bool, error) {
	return f(ctx, meta)
}

type fixedDecision bool

func (d fixedDecision) Decide(context.Context, Metadata) (bool, error) {
	return bool(d), nil
}

// Fixed policies for non-interactive use.
var (
	AlwaysProceed TruncationDecider = fixedDecision(true)
	AlwaysAbort   TruncationDecider = fixedDecision(false)
)

// ParsePolicy returns the decider for "proceed" or "abort". "ask" returns a
// nil decider, leaving the caller to build an interactive Prompt.
func ParsePolicy(s string) (TruncationDecider, error) {
	switch strings.ToLower(s) {
	case "proceed", "yes", "y", "cut":
		return AlwaysProceed, nil
	case "abort", "no", "n":
		return AlwaysAbort, nil
	case "ask", "":
		return nil, nil
	}
	return nil, fmt.Errorf("stream: unknown truncation policy %q", s)
}

// Prompt asks the user on In/Out. End of input counts as abort. The first
// Decide starts a reader that owns In for the lifetime of the Prompt; lines
// typed after an answer are kept for the next Decide, so In must not be read
// by anything else.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	lines chan string
}

func (p *Prompt) Decide(ctx context.Context, meta Metadata) (bool, error) {
	if p.lines == nil {
		p.lines = make(chan string)
		go func() {
			defer close(p.lines)
			scanner := bufio.NewScanner(p.In)
			for scanner.Scan() {
				p.lines <- scanner.Text()
			}
		}()
	}

	name := meta.Title
	if name == "" {
		name = meta.Source
	}

	fmt.Fprintf(p.Out, "%s is %s long, which exceeds %s.\n"+
		"  y) play only the first %s\n"+
		"  n) cancel and choose a shorter video\n",
		name, HumanDuration(meta.Duration), HumanDuration(MaxDuration), HumanDuration(MaxDuration))

	for {
		fmt.Fprint(p.Out, "Choose (y/n): ")

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return false, nil
			}

			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				return true, nil
			case "n", "no":
				return false, nil
			}
			fmt.Fprintln(p.Out, "Please answer y or n.")
		}
	}
}

// HumanDuration formats d as 1h02m03s, 2m03s or 3s.
func HumanDuration(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}

	s := int(d / time.Second)
	h := s / 3600
	m := (s % 3600) / 60
	s = s % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
