// Package fake provides an in-memory display.Drawer that records every frame, useful for headless tests.
package fake

import (
	"image"
	"image/color"
	"sync"

	"github.com/coreman2200/funtimes-ledstrip/internal/led"
)

type Drawer struct {
	mu     sync.Mutex
	n      int
	frames [][]led.Color
	halted bool

	// Err, when set, is returned by Draw instead of recording the frame.
	Err error
}

func New(n int) *Drawer { return &Drawer{n: n} }

func (d *Drawer) String() string { return "fake" }

func (d *Drawer) Halt() error {
	d.mu.Lock()
	d.halted = true
	d.mu.Unlock()
	return nil
}

func (d *Drawer) ColorModel() color.Model { return color.NRGBAModel }

func (d *Drawer) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.n, 1)
}

func (d *Drawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	r = r.Intersect(d.Bounds())
	frame := make([]led.Color, r.Dx())
	for x := range frame {
		c := color.NRGBAModel.Convert(src.At(sp.X+x, sp.Y)).(color.NRGBA)
		frame[x] = led.Color{R: c.R, G: c.G, B: c.B}
	}
	d.frames = append(d.frames, frame)
	return nil
}

// Frames returns every frame drawn so far.
func (d *Drawer) Frames() [][]led.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]led.Color(nil), d.frames...)
}

// Last returns the most recent frame, or nil.
func (d *Drawer) Last() []led.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frames) == 0 {
		return nil
	}
	return d.frames[len(d.frames)-1]
}

func (d *Drawer) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

func (d *Drawer) Halted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.halted
}
