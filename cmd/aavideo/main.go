package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tmpim/aavideo"
	"github.com/tmpim/aavideo/stream"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailed      = 1
	exitInvalid     = 2
	exitAcquisition = 3
	exitAborted     = 4
	exitCancelled   = 130
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

type config struct {
	ramp      string
	aspect    float64
	noColor   bool
	colorMode string
	gamma     float64
	clahe     bool
	dither    bool
	levels    int
	invert    bool
	loop      bool
	noClear   bool
	keep      bool
	truncate  string
	subtitles bool
	listen    string
	sheetURL  string
	decodeW   int
	ffmpegBin string
	ytdlpBin  string
	verbose   bool
}

func (c *config) options() (aavideo.Options, error) {
	opts := aavideo.DefaultOptions()
	opts.Ramp = c.ramp
	opts.Aspect = c.aspect
	opts.Color = !c.noColor
	opts.Gamma = c.gamma
	opts.CLAHE = c.clahe
	opts.Dither = c.dither
	opts.Levels = c.levels
	opts.Invert = c.invert
	opts.Debug = c.verbose

	mode, err := aavideo.ParseColorMode(c.colorMode)
	if err != nil {
		return opts, err
	}
	opts.ColorMode = mode

	return opts, opts.Validate()
}

func (c *config) decodeOptions() stream.DecodeOptions {
	return stream.DecodeOptions{
		Binary: c.ffmpegBin,
		Width:  c.decodeW,
		Debug:  c.verbose,
	}
}

func (c *config) youtubeDLOptions() stream.YoutubeDLOptions {
	return stream.YoutubeDLOptions{
		Binary: c.ytdlpBin,
		Keep:   c.keep,
		Decode: c.decodeOptions(),
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}
	sheet := stream.SheetConfigFromEnv()

	cmd := &cobra.Command{
		Use:   "aavideo [flags] <file or YouTube URL>...",
		Short: "Play a video as colored ASCII art in the terminal",
		Long: "aavideo decodes a local video file or an HTTPS YouTube link and plays it\n" +
			"in the terminal as 100 columns of colored characters at the source frame\n" +
			"rate. Videos longer than 30 minutes can be cut to their first 30 minutes.\n\n" +
			"With --listen or --sheet-url it runs as a playlist player controlled over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.verbose {
				log.SetFlags(log.Ltime | log.Lmicroseconds)
			}

			opts, err := cfg.options()
			if err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			if _, err := stream.ParsePolicy(cfg.truncate); err != nil {
				return &exitError{code: exitInvalid, err: err}
			}

			if cfg.listen != "" || cfg.sheetURL != "" {
				return serve(cmd.Context(), cfg, opts, args)
			}

			if len(args) != 1 {
				return &exitError{code: exitInvalid, err: errors.New("expected exactly one file path or URL")}
			}

			return playOne(cmd.Context(), cfg, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.ramp, "chars", "c", aavideo.DefaultRamp, "glyph ramp, darkest first")
	f.Float64VarP(&cfg.aspect, "aspect", "a", aavideo.DefaultAspect, "vertical aspect factor of a character cell")
	f.BoolVar(&cfg.noColor, "no-color", false, "disable color output")
	f.StringVar(&cfg.colorMode, "color-mode", "truecolor", "color escapes: truecolor, 256 or none")
	f.Float64Var(&cfg.gamma, "gamma", aavideo.DefaultGamma, "gamma correction (1.0 is identity)")
	f.BoolVar(&cfg.clahe, "clahe", false, "apply adaptive contrast equalization")
	f.BoolVar(&cfg.dither, "dither", false, "Floyd-Steinberg dither the color palette")
	f.IntVar(&cfg.levels, "levels", aavideo.DefaultLevels, "palette levels per channel (1-8)")
	f.BoolVar(&cfg.invert, "invert", false, "invert glyph brightness for light terminals")
	f.BoolVar(&cfg.loop, "loop", false, "repeat playback until interrupted")
	f.BoolVar(&cfg.noClear, "no-clear", false, "do not clear the screen before playing")
	f.BoolVar(&cfg.keep, "keep", false, "keep downloaded videos")
	f.StringVar(&cfg.truncate, "truncate", "ask", "videos over 30 minutes: ask, proceed or abort")
	f.BoolVar(&cfg.subtitles, "subtitle-ramp", false, "prepend kanji from the video's subtitles to the ramp")
	f.StringVar(&cfg.listen, "listen", "", "serve the control API on this address (e.g. :9999)")
	f.StringVar(&cfg.sheetURL, "sheet-url", sheet.URL, "poll this CSV export for playlist entries")
	f.IntVar(&cfg.decodeW, "decode-width", stream.DefaultDecodeWidth, "maximum width of decoded frames")
	f.StringVar(&cfg.ffmpegBin, "ffmpeg", "ffmpeg", "ffmpeg binary")
	f.StringVar(&cfg.ytdlpBin, "yt-dlp", "yt-dlp", "yt-dlp binary")
	f.BoolVarP(&cfg.verbose, "verbose", "v", false, "log per-frame timing and state changes")

	return cmd
}

func main() {
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	code := exitFailed
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		code = exitErr.code
		if exitErr.err == nil {
			os.Exit(code)
		}
	}

	log.Println("aavideo:", err)
	os.Exit(code)
}
