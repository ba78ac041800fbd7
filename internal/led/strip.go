package led

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3/display"
)

// ErrInvalidCount is returned when a strip is built with no LEDs.
var ErrInvalidCount = errors.New("led count must be positive")

// FrameBuffer is the only way the render core touches pixels.
type FrameBuffer interface {
	// SetPixel stores c at index i. i must be in [0, Len()).
	SetPixel(i int, c Color)
	// Fill stores c in every pixel.
	Fill(c Color)
	// Flush pushes the buffered pixels to the hardware.
	Flush() error
	// Len returns the LED count.
	Len() int
}

// Strip is a FrameBuffer backed by a single-row image drawn onto a periph display.Drawer.
type Strip struct {
	mu     sync.Mutex
	img    *image.NRGBA
	drawer display.Drawer
}

var _ FrameBuffer = (*Strip)(nil)

// NewStrip allocates a buffer of count pixels, all black.
func NewStrip(d display.Drawer, count int) (*Strip, error) {
	if count <= 0 {
		return nil, fmt.Errorf("new strip (%d): %w", count, ErrInvalidCount)
	}
	if d == nil {
		return nil, errors.New("new strip: nil drawer")
	}
	s := &Strip{
		img:    image.NewNRGBA(image.Rect(0, 0, count, 1)),
		drawer: d,
	}
	s.Fill(Black)
	return s, nil
}

func (s *Strip) Len() int {
	return s.img.Rect.Dx()
}

// SetPixel panics when i is out of range; that is a programming error, not a runtime condition.
func (s *Strip) SetPixel(i int, c Color) {
	if i < 0 || i >= s.Len() {
		panic(fmt.Sprintf("led: pixel index %d out of range [0,%d)", i, s.Len()))
	}
	s.mu.Lock()
	s.img.SetNRGBA(i, 0, c.NRGBA())
	s.mu.Unlock()
}

func (s *Strip) Fill(c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := c.NRGBA()
	for x := 0; x < s.img.Rect.Max.X; x++ {
		s.img.SetNRGBA(x, 0, v)
	}
}

func (s *Strip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.drawer.Draw(s.drawer.Bounds(), s.img, image.Point{}); err != nil {
		return fmt.Errorf("flush %d leds to %s: %w", s.Len(), s.drawer, err)
	}
	return nil
}

// Pixels returns a copy of the buffered colors.
func (s *Strip) Pixels() []Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Color, s.Len())
	for x := range out {
		c := s.img.NRGBAAt(x, 0)
		out[x] = Color{R: c.R, G: c.G, B: c.B}
	}
	return out
}

// Halt blanks the strip and halts the drawer.
func (s *Strip) Halt() error {
	s.Fill(Black)
	if err := s.Flush(); err != nil {
		return err
	}
	return s.drawer.Halt()
}
