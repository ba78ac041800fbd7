// Command stripsim replays an encoder script against the pattern player and
// draws the strip to the console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/funtimes-ledstrip/internal/encoder"
	"github.com/coreman2200/funtimes-ledstrip/internal/led"
	"github.com/coreman2200/funtimes-ledstrip/internal/pattern"
	"github.com/coreman2200/funtimes-ledstrip/internal/render"
	"github.com/coreman2200/funtimes-ledstrip/internal/selection"
)

type options struct {
	scriptPath string
	leds, fps  int
	linger     time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.scriptPath, "script", "", "path to an encoder event script (YAML)")
	flag.IntVar(&o.leds, "leds", 32, "number of simulated LEDs")
	flag.IntVar(&o.fps, "fps", 30, "frames per second")
	flag.DurationVar(&o.linger, "linger", 2*time.Second, "keep rendering this long after the last event")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(o); err != nil {
		log.Error().Err(err).Msg("simulation failed")
		os.Exit(1)
	}
}

func run(o options) error {
	if o.scriptPath == "" {
		return errors.New("provide -script path to an event script")
	}
	script, err := encoder.LoadScript(o.scriptPath)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}

	d, err := led.OpenDrawer(led.DrawerOpts{Driver: led.DriverSim, NumPixels: o.leds})
	if err != nil {
		return err
	}
	strip, err := led.NewStrip(d, o.leds)
	if err != nil {
		return err
	}
	defer func() {
		if err := strip.Halt(); err != nil {
			log.Error().Err(err).Msg("halt strip")
		}
	}()

	lib := pattern.Default()
	sel, err := selection.New(lib.Len())
	if err != nil {
		return err
	}
	eng, err := render.NewEngine(strip, lib, sel, o.fps)
	if err != nil {
		return err
	}
	sel.SetHooks(selection.Hooks{
		OnPause: eng.RequestClear,
		OnChange: func(_, next selection.State) {
			log.Info().Str("pattern", lib.At(next.Index).Name).Bool("running", next.Running).Msg("selection")
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, script.Duration()+o.linger)
	defer cancel()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return eng.Run(ctx) })
	grp.Go(func() error {
		err := script.Run(ctx, sel.Handle)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := grp.Wait(); err != nil {
		return err
	}
	st := eng.Stats()
	log.Info().Uint64("frames", st.Frames).Uint64("clears", st.Clears).Str("pattern", st.Pattern).Msg("done")
	return nil
}
