package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	"golang.org/x/sync/errgroup"

	"github.com/tmpim/aavideo"
)

func main() {
	log.SetFlags(0)

	var (
		workers    int
		iterations int
		dither     bool
		clahe      bool
		levels     int
	)

	cmd := &cobra.Command{
		Use:   "aabench <image>",
		Short: "Measure frame conversion throughput",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}

			img, _, err := image.Decode(f)
			f.Close()
			if err != nil {
				return err
			}

			opts := aavideo.DefaultOptions()
			opts.Dither = dither
			opts.CLAHE = clahe
			opts.Levels = levels
			if err := opts.Validate(); err != nil {
				return err
			}

			g := new(errgroup.Group)
			start := time.Now()

			for w := 0; w < workers; w++ {
				g.Go(func() error {
					conv, err := aavideo.NewConverter(opts)
					if err != nil {
						return err
					}

					buf := new(bytes.Buffer)
					for i := 0; i < iterations; i++ {
						frame, err := conv.Convert(img)
						if err != nil {
							return err
						}

						buf.Reset()
						frame.WriteTo(buf)
					}
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}

			took := time.Since(start)
			frames := workers * iterations
			fmt.Println("took:", took)
			fmt.Printf("%d frames, %.1f frames/s\n", frames, float64(frames)/took.Seconds())
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&workers, "workers", "w", 8, "concurrent converters")
	f.IntVarP(&iterations, "iterations", "n", 100, "frames per worker")
	f.BoolVar(&dither, "dither", false, "enable dithering")
	f.BoolVar(&clahe, "clahe", false, "enable CLAHE")
	f.IntVar(&levels, "levels", aavideo.DefaultLevels, "palette levels per channel")

	if err := cmd.Execute(); err != nil {
		log.Println("aabench:", err)
		os.Exit(1)
	}
}
