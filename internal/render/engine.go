// Package render runs the frame loop: it steps the selected pattern and flushes it to the strip.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ledstrip/internal/led"
	"github.com/coreman2200/funtimes-ledstrip/internal/pattern"
	"github.com/coreman2200/funtimes-ledstrip/internal/selection"
)

const (
	DefaultFPS = 100
	// MaxFPS bounds the frame rate so the tick interval never rounds down to zero.
	MaxFPS = 1000
)

// Selector is the read side of the selection state machine.
type Selector interface {
	Snapshot() selection.State
}

// Stats describes the engine's progress.
type Stats struct {
	Frames  uint64
	Clears  uint64
	Pattern string
	Step    int
	Running bool
}

// Engine is the only writer of the frame buffer.
type Engine struct {
	fb       led.FrameBuffer
	lib      *pattern.Library
	sel      Selector
	interval time.Duration

	frame   []led.Color
	clearCh chan struct{}

	// render goroutine state
	active bool
	index  int
	step   int
	shown  bool

	mu    sync.Mutex
	stats Stats
}

// NewEngine wires a strip, a library and a selection source. fps <= 0 uses DefaultFPS;
// anything above MaxFPS is capped.
func NewEngine(fb led.FrameBuffer, lib *pattern.Library, sel Selector, fps int) (*Engine, error) {
	if fb == nil || lib == nil || sel == nil {
		return nil, errors.New("render: nil frame buffer, library or selector")
	}
	if fb.Len() <= 0 {
		return nil, fmt.Errorf("render: %w", led.ErrInvalidCount)
	}
	switch {
	case fps <= 0:
		fps = DefaultFPS
	case fps > MaxFPS:
		fps = MaxFPS
	}
	return &Engine{
		fb:       fb,
		lib:      lib,
		sel:      sel,
		interval: time.Second / time.Duration(fps),
		frame:    make([]led.Color, fb.Len()),
		clearCh:  make(chan struct{}, 1),
	}, nil
}

// RequestClear asks the render goroutine to blank the strip. Safe from any goroutine; never blocks.
func (e *Engine) RequestClear() {
	select {
	case e.clearCh <- struct{}{}:
	default:
	}
}

// Run renders one step per tick until ctx is done or a flush fails.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", e.interval).Int("leds", e.fb.Len()).Int("patterns", e.lib.Len()).Msg("render loop started")
	defer log.Info().Msg("render loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.clearCh:
			if err := e.Clear(); err != nil {
				return err
			}
		case <-ticker.C:
			// a pending clear goes first so a paused strip never shows a stale frame
			select {
			case <-e.clearCh:
				if err := e.Clear(); err != nil {
					return err
				}
			default:
			}
			if err := e.RenderOnce(); err != nil {
				return err
			}
		}
	}
}

// RenderOnce advances the selected pattern by one step. It writes nothing while paused.
func (e *Engine) RenderOnce() error {
	st := e.sel.Snapshot()
	if !st.Running {
		e.active = false
		e.setStats(st, "", 0, false)
		return nil
	}

	p := e.lib.At(st.Index)
	if !e.active || st.Index != e.index {
		e.active = true
		e.index = st.Index
		e.step = 0
		e.shown = false
		log.Info().Int("index", st.Index).Str("pattern", p.Name).Msg("pattern started")
	}
	if e.shown && !p.Animated() {
		return nil
	}

	p.Render(e.frame, e.step)
	for i, c := range e.frame {
		if !e.sel.Snapshot().Running {
			// paused mid-step; the pending clear blanks the strip
			e.active = false
			if p.FlushesPartial() {
				return e.flush(p)
			}
			return nil
		}
		e.fb.SetPixel(i, c)
	}
	if err := e.flush(p); err != nil {
		return err
	}

	e.shown = true
	e.step = (e.step + 1) % p.Steps(e.fb.Len())
	e.setStats(st, p.Name, e.step, true)
	return nil
}

func (e *Engine) flush(p pattern.Pattern) error {
	if err := e.fb.Flush(); err != nil {
		return fmt.Errorf("render %q step %d: %w", p.Name, e.step, err)
	}
	e.mu.Lock()
	e.stats.Frames++
	e.mu.Unlock()
	return nil
}

// Clear sets every pixel to black and flushes. The next running step starts the
// selected pattern over, so a one-shot pattern is drawn again.
func (e *Engine) Clear() error {
	e.active = false
	e.fb.Fill(led.Black)
	if err := e.fb.Flush(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	e.mu.Lock()
	e.stats.Frames++
	e.stats.Clears++
	e.mu.Unlock()
	log.Debug().Msg("strip cleared")
	return nil
}

func (e *Engine) setStats(st selection.State, name string, step int, running bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "" {
		name = e.lib.At(st.Index).Name
	}
	e.stats.Pattern = name
	e.stats.Step = step
	e.stats.Running = running
}

// Stats is safe to call from any goroutine.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
