package stream

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	vttHeaderPattern = regexp.MustCompile(`(?s)\AWEBVTT.*?\n\n`)
	timestampPattern = regexp.MustCompile(`\d{2}:\d{2}:\d{2}[.,]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[.,]\d{3}[^\n]*`)
	cueIndexPattern  = regexp.MustCompile(`(?m)^\d+\s*$`)
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
	blankLinePattern = regexp.MustCompile(`\n\s*\n+`)
)

var subtitleExts = []string{".vtt", ".srt"}

func isSubtitleFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range subtitleExts {
		if ext == e {
			return true
		}
	}
	return false
}

// ExtractSubtitleText strips the WebVTT header, cue timings, SRT indices and
// inline markup from a subtitle file, leaving the spoken text.
func ExtractSubtitleText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = vttHeaderPattern.ReplaceAllString(content, "")
	content = timestampPattern.ReplaceAllString(content, "")
	content = cueIndexPattern.ReplaceAllString(content, "")
	content = tagPattern.ReplaceAllString(content, "")
	content = blankLinePattern.ReplaceAllString(content, "\n")
	return strings.TrimSpace(content)
}

// ExtractKanji returns the unique CJK unified ideographs (U+4E00 to U+9FFF)
// of text in order of first appearance.
func ExtractKanji(text string) []rune {
	seen := make(map[rune]bool)
	var out []rune
	for _, r := range text {
		if r < 0x4E00 || r > 0x9FFF || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// RampWithKanji prepends kanji to ramp. Dense ideographs then take the dark
// end of the ramp.
func RampWithKanji(kanji []rune, ramp string) string {
	if len(kanji) == 0 {
		return ramp
	}
	return string(kanji) + ramp
}

// SubtitleRamp downloads the subtitles of the video, preferring Japanese,
// and returns ramp with the subtitle kanji prepended. When no subtitles are
// available ramp is returned unchanged.
func (r *RemoteMedia) SubtitleRamp(ctx context.Context, ramp string) (string, error) {
	path, err := r.downloadSubtitles(ctx)
	if err != nil {
		return ramp, err
	} else if path == "" {
		log.Println("aavideo stream: no subtitles for", r.url)
		return ramp, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ramp, err
	}

	kanji := ExtractKanji(ExtractSubtitleText(string(data)))
	log.Printf("aavideo stream: %d kanji from %s", len(kanji), filepath.Base(path))

	return RampWithKanji(kanji, ramp), nil
}

func (r *RemoteMedia) downloadSubtitles(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir, err := r.tempDir()
	if err != nil {
		return "", err
	}

	_, err = runYoutubeDL(ctx, r.opts.binary(),
		"--skip-download",
		"--write-sub",
		"--write-auto-sub",
		"--sub-lang", "ja,en",
		"--sub-format", "vtt/srt/best",
		"--no-playlist",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		r.url,
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// missing subtitles are not fatal
		log.Println("aavideo stream: subtitle download failed:", err)
		return "", nil
	}

	return pickSubtitle(dir)
}

// pickSubtitle returns the Japanese subtitle in dir if any, else the first
// subtitle file, else "".
func pickSubtitle(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	var first string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !isSubtitleFile(name) {
			continue
		}

		if strings.Contains(name, ".ja.") {
			return filepath.Join(dir, name), nil
		}
		if first == "" {
			first = filepath.Join(dir, name)
		}
	}

	return first, nil
}
