package stream

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/tmpim/aavideo"
)

// FileTitle returns the base name of path without its extension.
func FileTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type probeInfo struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
		Frames       string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
}

// parseProbe extracts the first video stream from ffprobe's JSON output.
func parseProbe(data []byte, path string) (Metadata, error) {
	var info probeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return Metadata{}, err
	}

	meta := Metadata{
		Title:    FileTitle(path),
		Source:   path,
		Duration: -1,
	}
	if title := info.Format.Tags["title"]; title != "" {
		meta.Title = title
	}

	found := false
	for _, s := range info.Streams {
		if s.CodecType != "video" {
			continue
		}

		found = true
		meta.Width = s.Width
		meta.Height = s.Height

		meta.FPS = parseRate(s.AvgFrameRate)
		if meta.FPS == 0 {
			meta.FPS = parseRate(s.RFrameRate)
		}

		if d, ok := parseSeconds(s.Duration); ok {
			meta.Duration = d
		}
		break
	}

	if !found {
		return Metadata{}, errors.New("no video stream")
	}

	if d, ok := parseSeconds(info.Format.Duration); ok && meta.Duration < 0 {
		meta.Duration = d
	}

	return meta, nil
}

// parseRate parses an ffprobe rational such as "30000/1001". Unusable rates
// are returned as 0.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}

	d := 1.0
	if ok {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0
		}
	}

	r := n / d
	if !(r > 0) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func parseSeconds(s string) (time.Duration, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}

// FileMedia is a local video file.
type FileMedia struct {
	path string
	meta Metadata
	opts DecodeOptions
}

// FileSource probes the file at path.
func FileSource(path string, opts DecodeOptions) (*FileMedia, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &aavideo.AcquisitionError{Kind: aavideo.NotFound, Source: path, Err: err}
	}

	out, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, &aavideo.AcquisitionError{Kind: aavideo.Unsupported, Source: path, Err: err}
	}

	meta, err := parseProbe([]byte(out), path)
	if err != nil {
		return nil, &aavideo.AcquisitionError{Kind: aavideo.Unsupported, Source: path, Err: err}
	}

	return &FileMedia{path: path, meta: meta, opts: opts}, nil
}

func (f *FileMedia) Metadata() Metadata {
	return f.meta
}

func (f *FileMedia) Open(ctx context.Context, limit time.Duration) (Sequence, error) {
	return Decode(ctx, f.path, f.meta.FPS, limit, f.opts)
}

// Close is a no-op; the file belongs to the caller.
func (f *FileMedia) Close() error {
	return nil
}
