package encoder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// edgeTimeout bounds each WaitForEdge so cancellation is noticed.
const edgeTimeout = 100 * time.Millisecond

// Pins names the encoder lines as understood by gpioreg (e.g. "GPIO2").
type Pins struct {
	CLK string
	DT  string
	SW  string
}

// GPIO reads a quadrature encoder with push button from periph GPIO pins.
type GPIO struct {
	clk, dt, sw gpio.PinIO

	mu  sync.Mutex
	dec *Decoder
	now func() time.Time
}

var _ Source = (*GPIO)(nil)

// OpenGPIO resolves and configures the pins. host.Init must have run.
func OpenGPIO(p Pins, stepsPerDetent int, debounce time.Duration) (*GPIO, error) {
	var pins [3]gpio.PinIO
	for i, name := range []string{p.CLK, p.DT, p.SW} {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("gpio pin %q not found", name)
		}
		pins[i] = pin
	}
	return NewGPIO(pins[0], pins[1], pins[2], stepsPerDetent, debounce)
}

// NewGPIO configures already resolved pins as pulled-up inputs on both edges.
func NewGPIO(clk, dt, sw gpio.PinIO, stepsPerDetent int, debounce time.Duration) (*GPIO, error) {
	for _, pin := range []gpio.PinIO{clk, dt, sw} {
		if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("configure %s: %w", pin, err)
		}
	}
	return &GPIO{
		clk: clk,
		dt:  dt,
		sw:  sw,
		dec: NewDecoder(stepsPerDetent, debounce),
		now: time.Now,
	}, nil
}

// Run watches all three pins and dispatches decoded events to h from a single goroutine.
func (g *GPIO) Run(ctx context.Context, h Handler) error {
	events := make(chan Event, 16)
	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error { return g.watch(ctx, g.clk, g.sampleRotation, events) })
	grp.Go(func() error { return g.watch(ctx, g.dt, g.sampleRotation, events) })
	grp.Go(func() error { return g.watch(ctx, g.sw, g.sampleButton, events) })
	grp.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-events:
				log.Debug().Stringer("event", ev).Msg("encoder")
				h(ev)
			}
		}
	})

	err := grp.Wait()
	for _, pin := range []gpio.PinIO{g.clk, g.dt, g.sw} {
		if herr := pin.Halt(); herr != nil {
			log.Debug().Err(herr).Str("pin", pin.Name()).Msg("halt")
		}
	}
	return err
}

func (g *GPIO) watch(ctx context.Context, pin gpio.PinIO, sample func() (Event, bool), out chan<- Event) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		pin.WaitForEdge(edgeTimeout)
		ev, ok := sample()
		if !ok {
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

func (g *GPIO) sampleRotation() (Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dec.Rotate(bool(g.clk.Read()), bool(g.dt.Read()))
}

// sampleButton also runs on timeouts so a release swallowed by the debounce window is picked up later.
func (g *GPIO) sampleButton() (Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dec.Button(bool(g.sw.Read()), g.now())
}
