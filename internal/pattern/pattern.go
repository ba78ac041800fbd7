// Package pattern holds the strip animations. Every pattern is a pure function of
// (strip length, step) so frames can be produced and checked without hardware or timing.
package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/funtimes-ledstrip/internal/led"
)

// Kind tags the step function a Pattern uses.
type Kind uint8

const (
	RainbowCycle Kind = iota
	Cycle
	ChaseColour
	FillColour
	Fade
	Bounce
)

// ErrUnknownKind is returned when parsing an unrecognised pattern kind.
var ErrUnknownKind = errors.New("unknown pattern kind")

var kindNames = map[Kind]string{
	RainbowCycle: "rainbow",
	Cycle:        "cycle",
	ChaseColour:  "chase",
	FillColour:   "fill",
	Fade:         "fade",
	Bounce:       "bounce",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// fade walks i over [0, 4*256) in increments of fadeStride.
const fadeStride = 8

// Pattern is a named, colored instance of a Kind.
// Color is used by ChaseColour and FillColour only.
type Pattern struct {
	Kind  Kind
	Name  string
	Color led.Color
}

// Steps returns the number of frames in one pass over a strip of n LEDs.
func (p Pattern) Steps(n int) int {
	switch p.Kind {
	case Cycle, Bounce:
		return 4 * n
	case Fade:
		return 4 * 256 / fadeStride
	case ChaseColour:
		return n
	case RainbowCycle:
		return 256
	default:
		return 1
	}
}

// Animated reports whether frames differ between steps.
func (p Pattern) Animated() bool {
	return p.Kind != FillColour
}

// FlushesPartial reports whether a step interrupted by a pause still pushes what it wrote.
// The breathing fade sets every pixel to the same level, so a partial frame is just a tear.
func (p Pattern) FlushesPartial() bool {
	return p.Kind == Fade
}

// Render writes the frame for step into dst; len(dst) is the strip length.
// step is reduced modulo Steps(len(dst)).
func (p Pattern) Render(dst []led.Color, step int) {
	n := len(dst)
	if n == 0 {
		return
	}
	if steps := p.Steps(n); step >= steps || step < 0 {
		step = ((step % steps) + steps) % steps
	}

	switch p.Kind {
	case Cycle:
		fill(dst, led.Black)
		dst[step%n] = led.White

	case Bounce:
		fill(dst, led.Navy)
		if (step/n)%2 == 0 {
			dst[step%n] = led.Black
		} else {
			dst[n-1-step%n] = led.Black
		}

	case Fade:
		v := FadeLevel(step * fadeStride)
		fill(dst, led.Color{R: v})

	case FillColour:
		fill(dst, p.Color)

	case ChaseColour:
		fill(dst, led.Black)
		dst[step] = p.Color

	case RainbowCycle:
		for i := range dst {
			dst[i] = Wheel((i*256/n + step) & 255)
		}
	}
}

// FadeLevel returns the red level of the breathing fade at position i of [0, 1024).
func FadeLevel(i int) uint8 {
	if (i/256)%2 == 0 {
		return uint8(i & 0xff)
	}
	return uint8(255 - (i & 0xff))
}

// Wheel maps pos in [0,255] onto a hue: red-green, green-blue and blue-red in three
// 85-wide segments. Anything outside the range is black.
func Wheel(pos int) led.Color {
	switch {
	case pos < 0 || pos > 255:
		return led.Black
	case pos < 85:
		return led.Color{R: uint8(pos * 3), G: uint8(255 - pos*3)}
	case pos < 170:
		pos -= 85
		return led.Color{R: uint8(255 - pos*3), B: uint8(pos * 3)}
	default:
		pos -= 170
		return led.Color{G: uint8(pos * 3), B: uint8(255 - pos*3)}
	}
}

func fill(dst []led.Color, c led.Color) {
	for i := range dst {
		dst[i] = c
	}
}
