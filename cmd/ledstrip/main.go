package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/display"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-ledstrip/internal/config"
	"github.com/coreman2200/funtimes-ledstrip/internal/encoder"
	"github.com/coreman2200/funtimes-ledstrip/internal/led"
	"github.com/coreman2200/funtimes-ledstrip/internal/pattern"
	"github.com/coreman2200/funtimes-ledstrip/internal/preview"
	"github.com/coreman2200/funtimes-ledstrip/internal/render"
	"github.com/coreman2200/funtimes-ledstrip/internal/selection"
)

type options struct {
	configPath  string
	driver      string
	debug       bool
	previewAddr string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "config.yaml", "path to config.yaml")
	flag.StringVar(&o.driver, "driver", "", "driver: spi | sim (overrides config)")
	flag.BoolVar(&o.debug, "debug", false, "debug logging")
	flag.StringVar(&o.previewAddr, "preview", "", "preview listen address, e.g. :8080 (overrides config)")
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if err := run(o); err != nil {
		log.Error().Err(err).Msg("ledstrip stopped")
		os.Exit(1)
	}
	log.Info().Msg("shutting down")
}

func run(o options) error {
	// ---- Config (optional file over defaults, flags last) ----
	cfg, err := config.Load(o.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", o.configPath).Msg("no config file; using defaults")
	case err != nil:
		return fmt.Errorf("config %s: %w", o.configPath, err)
	}
	if o.driver != "" {
		cfg.Driver = o.driver
	}
	if o.previewAddr != "" {
		cfg.Preview.Addr = o.previewAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		level = l
	}
	if o.debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	// ---- Output ----
	var d display.Drawer
	if d, err = led.OpenDrawer(cfg.DrawerOpts()); err != nil {
		return fmt.Errorf("open %s drawer: %w", cfg.Driver, err)
	}
	var pv *preview.Server
	if cfg.Preview.Addr != "" {
		pv = preview.New(cfg.LEDCount)
		d = pv.Drawer(d)
	}
	strip, err := led.NewStrip(d, cfg.LEDCount)
	if err != nil {
		return err
	}
	defer func() {
		if err := strip.Halt(); err != nil {
			log.Error().Err(err).Msg("halt strip")
		}
	}()

	// ---- Patterns, selection, render loop ----
	lib, err := cfg.Library()
	if err != nil {
		return fmt.Errorf("patterns: %w", err)
	}
	sel, err := selection.New(lib.Len())
	if err != nil {
		return err
	}
	eng, err := render.NewEngine(strip, lib, sel, cfg.FPS)
	if err != nil {
		return err
	}
	sel.SetHooks(selectionHooks(eng, lib))

	// ---- Encoder ----
	src, err := encoder.OpenGPIO(cfg.Pins(), cfg.Encoder.StepsPerDetent, cfg.Encoder.Debounce)
	if err != nil {
		return fmt.Errorf("encoder: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error { return eng.Run(ctx) })
	grp.Go(func() error { return src.Run(ctx, sel.Handle) })
	if pv != nil {
		pv.Status = func() preview.Status {
			st := eng.Stats()
			return preview.Status{Pattern: st.Pattern, Step: st.Step, Running: st.Running}
		}
		srv := &http.Server{
			Addr:         cfg.Preview.Addr,
			Handler:      pv.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		grp.Go(func() error {
			log.Info().Str("addr", srv.Addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		grp.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
	}

	log.Info().
		Str("driver", cfg.Driver).
		Int("leds", cfg.LEDCount).
		Strs("patterns", lib.Names()).
		Msg("ledstrip running")

	return grp.Wait()
}

func selectionHooks(eng *render.Engine, lib *pattern.Library) selection.Hooks {
	return selection.Hooks{
		OnPause: eng.RequestClear,
		OnChange: func(prev, next selection.State) {
			log.Info().
				Str("pattern", lib.At(next.Index).Name).
				Bool("running", next.Running).
				Stringer("was", prev).
				Msg("selection")
		},
	}
}
