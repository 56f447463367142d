package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/tmpim/aavideo"
)

// IsURL reports whether s looks like a URL rather than a file path.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// AllowedURL checks that rawURL is an HTTPS link to youtube.com (or one of
// its subdomains) or youtu.be.
func AllowedURL(rawURL string) error {
	reject := func(reason string) error {
		return &aavideo.AcquisitionError{
			Kind:   aavideo.Rejected,
			Source: rawURL,
			Err:    errors.New(reason),
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return reject("malformed URL")
	}

	if !strings.EqualFold(u.Scheme, "https") {
		return reject("only https URLs are allowed")
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	switch {
	case host == "youtube.com", strings.HasSuffix(host, ".youtube.com"):
	case host == "youtu.be":
	default:
		return reject("only youtube.com and youtu.be are allowed")
	}

	return nil
}

// YouTubeDLMetadata is the subset of yt-dlp's --dump-json output in use.
type YouTubeDLMetadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	FPS      float64 `json:"fps"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	IsLive   bool    `json:"is_live"`
}

// YoutubeDLOptions configures remote acquisition.
type YoutubeDLOptions struct {
	Binary string
	// TempDir is the parent of the per-item download directory.
	TempDir string
	// Keep leaves the downloaded file on disk after Close.
	Keep   bool
	Decode DecodeOptions
}

func (o YoutubeDLOptions) binary() string {
	if o.Binary == "" {
		return "yt-dlp"
	}
	return o.Binary
}

// RemoteMedia is a video fetched with yt-dlp. The file is downloaded on the
// first Open and reused for loops.
type RemoteMedia struct {
	url  string
	meta Metadata
	opts YoutubeDLOptions

	mu   sync.Mutex
	dir  string
	path string
}

// YoutubeDLSource validates videoURL and fetches its metadata without
// downloading the video.
func YoutubeDLSource(ctx context.Context, videoURL string, opts YoutubeDLOptions) (*RemoteMedia, error) {
	if err := AllowedURL(videoURL); err != nil {
		return nil, err
	}

	out, err := runYoutubeDL(ctx, opts.binary(), "--dump-json", "--no-playlist", videoURL)
	if err != nil {
		return nil, &aavideo.AcquisitionError{Kind: aavideo.NotFound, Source: videoURL, Err: err}
	}

	meta, err := parseYoutubeDLMetadata(out, videoURL)
	if err != nil {
		return nil, &aavideo.AcquisitionError{Kind: aavideo.Unsupported, Source: videoURL, Err: err}
	}

	return &RemoteMedia{url: videoURL, meta: meta, opts: opts}, nil
}

// parseYoutubeDLMetadata reads the first JSON object of a --dump-json run.
func parseYoutubeDLMetadata(data []byte, videoURL string) (Metadata, error) {
	var raw YouTubeDLMetadata
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return Metadata{}, fmt.Errorf("youtube-dl: failed to parse json: %w", err)
	}

	if raw.IsLive {
		return Metadata{}, errors.New("youtube-dl: live streams are not supported")
	}

	meta := Metadata{
		Title:    raw.Title,
		Source:   videoURL,
		Duration: -1,
		FPS:      raw.FPS,
		Width:    raw.Width,
		Height:   raw.Height,
	}
	if raw.Duration > 0 {
		meta.Duration = time.Duration(raw.Duration * float64(time.Second))
	}
	if meta.Title == "" {
		meta.Title = raw.ID
	}

	return meta, nil
}

func runYoutubeDL(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	var stdout bytes.Buffer
	stderr := &boundedBuffer{max: maxStderr}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("youtube-dl: %w", err)
		}
		return nil, fmt.Errorf("youtube-dl: %w: %s", err, msg)
	}

	return stdout.Bytes(), nil
}

func (r *RemoteMedia) Metadata() Metadata {
	return r.meta
}

// URL returns the source URL.
func (r *RemoteMedia) URL() string {
	return r.url
}

func (r *RemoteMedia) Open(ctx context.Context, limit time.Duration) (Sequence, error) {
	path, err := r.download(ctx, limit)
	if err != nil {
		return nil, err
	}

	return Decode(ctx, path, r.meta.FPS, limit, r.opts.Decode)
}

func (r *RemoteMedia) tempDir() (string, error) {
	if r.dir != "" {
		return r.dir, nil
	}

	dir, err := os.MkdirTemp(r.opts.TempDir, "aavideo-")
	if err != nil {
		return "", err
	}
	r.dir = dir
	return dir, nil
}

func (r *RemoteMedia) download(ctx context.Context, limit time.Duration) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path != "" {
		return r.path, nil
	}

	dir, err := r.tempDir()
	if err != nil {
		return "", err
	}

	args := []string{"-f", "best", "--no-playlist", "-o", filepath.Join(dir, "%(id)s.%(ext)s")}
	if limit > 0 {
		args = append(args, "--download-sections", fmt.Sprintf("*0-%d", int(limit.Seconds())))
	}
	args = append(args, r.url)

	log.Println("aavideo stream: downloading", r.url)

	if _, err := runYoutubeDL(ctx, r.opts.binary(), args...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &aavideo.AcquisitionError{Kind: aavideo.NotFound, Source: r.url, Err: err}
	}

	path, err := newestFile(dir, func(name string) bool {
		return !isSubtitleFile(name)
	})
	if err != nil {
		return "", &aavideo.AcquisitionError{Kind: aavideo.NotFound, Source: r.url, Err: err}
	}

	// yt-dlp does not always report a frame rate; the file knows.
	if r.meta.FPS == 0 {
		if out, err := ffmpeg.Probe(path); err == nil {
			if probed, err := parseProbe([]byte(out), path); err == nil {
				r.meta.FPS = probed.FPS
			}
		}
	}

	r.path = path
	return path, nil
}

// newestFile returns the most recently modified regular file in dir accepted
// by keep.
func newestFile(dir string, keep func(name string) bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var (
		newest  string
		newestT time.Time
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !keep(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if newest == "" || info.ModTime().After(newestT) {
			newest = filepath.Join(dir, entry.Name())
			newestT = info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no downloaded file in %s", dir)
	}
	return newest, nil
}

// Close removes the download directory unless Keep is set.
func (r *RemoteMedia) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dir == "" {
		return nil
	}

	if r.opts.Keep {
		log.Println("aavideo stream: kept download in", r.dir)
		return nil
	}

	err := os.RemoveAll(r.dir)
	r.dir = ""
	r.path = ""
	return err
}
