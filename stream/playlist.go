package stream

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Playlist delivers playback targets (file paths or URLs). Next blocks until
// a target is available; ok is false once ctx is done.
type Playlist interface {
	Next(ctx context.Context) (target string, ok bool)
}

// Queue is a FIFO playlist. Push may be called from any goroutine.
type Queue struct {
	mu     sync.Mutex
	items  []string
	notify chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends targets to the queue.
func (q *Queue) Push(targets ...string) {
	q.mu.Lock()
	q.items = append(q.items, targets...)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes the head of the queue without blocking.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", false
	}

	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// Len returns the number of queued targets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a copy of the queued targets.
func (q *Queue) Items() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.items...)
}

func (q *Queue) Next(ctx context.Context) (string, bool) {
	for {
		if target, ok := q.Pop(); ok {
			return target, true
		}

		select {
		case <-ctx.Done():
			return "", false
		case <-q.notify:
		}
	}
}

// SheetConfig configures the spreadsheet poller.
type SheetConfig struct {
	URL      string
	Interval time.Duration
}

// DefaultSheetInterval is used when AAVIDEO_SHEET_INTERVAL is unset.
const DefaultSheetInterval = 30 * time.Second

// SheetConfigFromEnv reads AAVIDEO_SHEET_URL and AAVIDEO_SHEET_INTERVAL. The
// interval is a Go duration ("45s") or a number of seconds.
func SheetConfigFromEnv() SheetConfig {
	return SheetConfig{
		URL:      os.Getenv("AAVIDEO_SHEET_URL"),
		Interval: envDuration("AAVIDEO_SHEET_INTERVAL", DefaultSheetInterval),
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}

	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	return fallback
}

// SheetPoller polls a published spreadsheet (CSV export) and pushes targets
// it has not seen before into Queue.
type SheetPoller struct {
	URL      string
	Interval time.Duration
	Client   *http.Client
	Queue    *Queue

	seen map[string]bool
}

// Run polls until ctx is done. Poll errors are logged and retried on the
// next tick.
func (p *SheetPoller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultSheetInterval
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		n, err := p.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Println("aavideo stream: sheet poll failed:", err)
		} else if n > 0 {
			log.Printf("aavideo stream: sheet added %d item(s)", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Poll fetches the sheet once and returns how many new targets were queued.
func (p *SheetPoller) Poll(ctx context.Context) (int, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sheet: unexpected status %s", resp.Status)
	}

	targets, err := ParseSheet(resp.Body)
	if err != nil {
		return 0, err
	}

	if p.seen == nil {
		p.seen = make(map[string]bool)
	}

	var fresh []string
	for _, target := range targets {
		if p.seen[target] {
			continue
		}
		p.seen[target] = true
		fresh = append(fresh, target)
	}

	if len(fresh) > 0 {
		p.Queue.Push(fresh...)
	}
	return len(fresh), nil
}

// ParseSheet returns the first column of a CSV document, skipping blank
// cells, a "url" header and rows starting with '#'.
func ParseSheet(r io.Reader) ([]string, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1
	rd.Comment = '#'
	rd.TrimLeadingSpace = true

	var out []string
	for i := 0; ; i++ {
		record, err := rd.Read()
		if err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, fmt.Errorf("sheet: %w", err)
		}

		if len(record) == 0 {
			continue
		}

		cell := strings.TrimSpace(record[0])
		if cell == "" || (i == 0 && strings.EqualFold(cell, "url")) {
			continue
		}
		out = append(out, cell)
	}
}
