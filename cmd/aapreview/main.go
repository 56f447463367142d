package main

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"

	"github.com/tmpim/aavideo"
)

type previewConfig struct {
	in      string
	out     string
	ramp    string
	aspect  float64
	mode    string
	gamma   float64
	clahe   bool
	dither  bool
	levels  int
	profile string
}

func main() {
	log.SetFlags(0)

	cfg := &previewConfig{}

	cmd := &cobra.Command{
		Use:   "aapreview",
		Short: "Convert still images into .ans files to compare conversion settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.in, "input", "i", "./input_test", "directory of PNG, JPEG or BMP images")
	f.StringVarP(&cfg.out, "output", "o", "./output_test", "directory for the .ans files")
	f.StringVarP(&cfg.ramp, "chars", "c", aavideo.DefaultRamp, "glyph ramp, darkest first")
	f.Float64VarP(&cfg.aspect, "aspect", "a", aavideo.DefaultAspect, "vertical aspect factor")
	f.StringVar(&cfg.mode, "color-mode", "truecolor", "truecolor, 256 or none")
	f.Float64Var(&cfg.gamma, "gamma", aavideo.DefaultGamma, "gamma correction")
	f.BoolVar(&cfg.clahe, "clahe", false, "adaptive contrast equalization")
	f.BoolVar(&cfg.dither, "dither", false, "Floyd-Steinberg dithering")
	f.IntVar(&cfg.levels, "levels", aavideo.DefaultLevels, "palette levels per channel")
	f.StringVar(&cfg.profile, "cpuprofile", "", "write a CPU profile to this file")

	if err := cmd.Execute(); err != nil {
		log.Println("aapreview:", err)
		os.Exit(1)
	}
}

func run(cfg *previewConfig) error {
	if cfg.profile != "" {
		f, err := os.Create(cfg.profile)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	opts := aavideo.DefaultOptions()
	opts.Ramp = cfg.ramp
	opts.Aspect = cfg.aspect
	opts.Gamma = cfg.gamma
	opts.CLAHE = cfg.clahe
	opts.Dither = cfg.dither
	opts.Levels = cfg.levels

	mode, err := aavideo.ParseColorMode(cfg.mode)
	if err != nil {
		return err
	}
	opts.ColorMode = mode

	conv, err := aavideo.NewConverter(opts)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(cfg.in)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.out, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		if err := convert(conv, cfg, entry.Name()); err != nil {
			log.Println("aapreview:", entry.Name()+":", err)
		}
	}

	return nil
}

func convert(conv *aavideo.Converter, cfg *previewConfig, name string) error {
	start := time.Now()

	input, err := os.Open(filepath.Join(cfg.in, name))
	if err != nil {
		return err
	}

	img, _, err := image.Decode(input)
	input.Close()
	if err != nil {
		return err
	}

	log.Println("read+decode:", time.Since(start))

	// every image gets its own grid
	conv.ResetGrid()

	frame, err := conv.Convert(img)
	if err != nil {
		return err
	}

	log.Printf("[complete] convert: %s (%d runs)", time.Since(start), frame.Runs())

	basename := strings.TrimSuffix(name, filepath.Ext(name))
	out, err := os.Create(filepath.Join(cfg.out, basename+".ans"))
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := frame.WriteTo(out); err != nil {
		return err
	}

	_, err = out.WriteString("\n")
	return err
}
