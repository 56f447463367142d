package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tmpim/aavideo"
	"github.com/tmpim/aavideo/stream"
	"github.com/tmpim/aavideo/stream/server"
)

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) {
	return f(p)
}

// serve plays queued targets until interrupted. Targets arrive from the
// command line, the control API and the sheet poller.
func serve(ctx context.Context, cfg *config, opts aavideo.Options, targets []string) error {
	conv, err := aavideo.NewConverter(opts)
	if err != nil {
		return &exitError{code: exitInvalid, err: err}
	}

	var mgr *stream.Manager
	frames := writerFunc(func(p []byte) (int, error) {
		return mgr.Write(p)
	})

	sink := newTerminalSink(os.Stdout, io.MultiWriter(os.Stdout, frames), conv, !cfg.noClear)
	defer sink.Release()

	open := func(ctx context.Context, target string) (stream.Media, error) {
		media, err := acquire(ctx, cfg, target)
		if err != nil {
			return nil, err
		}

		conv, err := converterFor(ctx, cfg, opts, media)
		if err != nil {
			media.Close()
			return nil, err
		}
		sink.SetConverter(conv)

		return media, nil
	}

	mgr = stream.NewManager(stream.NewQueue(), open, stream.Scheduler{
		Sink:    sink,
		Decide:  decider(cfg.truncate),
		Loop:    cfg.loop,
		Verbose: cfg.verbose,
	})

	for _, target := range targets {
		mgr.Enqueue(target)
	}

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mgr.Run(groupCtx)
	})

	if cfg.sheetURL != "" {
		poller := &stream.SheetPoller{
			URL:      cfg.sheetURL,
			Interval: stream.SheetConfigFromEnv().Interval,
			Queue:    mgr.Queue(),
		}
		log.Println("aavideo: polling playlist sheet every", poller.Interval)

		g.Go(func() error {
			return poller.Run(groupCtx)
		})
	}

	if cfg.listen != "" {
		e := server.New(mgr)
		log.Println("aavideo: control API listening on", cfg.listen)

		g.Go(func() error {
			err := e.Start(cfg.listen)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})

		g.Go(func() error {
			<-groupCtx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if ctx.Err() != nil {
		return &exitError{code: exitCancelled}
	}
	return err
}
