package pattern

import (
	"errors"

	"github.com/coreman2200/funtimes-ledstrip/internal/led"
)

// ErrEmptyLibrary is returned when a library would hold no patterns.
var ErrEmptyLibrary = errors.New("pattern library is empty")

// Library is the fixed, ordered list the encoder scrolls through.
type Library struct {
	patterns []Pattern
}

func NewLibrary(ps ...Pattern) (*Library, error) {
	if len(ps) == 0 {
		return nil, ErrEmptyLibrary
	}
	l := &Library{patterns: make([]Pattern, len(ps))}
	copy(l.patterns, ps)
	for i := range l.patterns {
		if l.patterns[i].Name == "" {
			l.patterns[i].Name = l.patterns[i].Kind.String()
		}
	}
	return l, nil
}

// DefaultPatterns is the reference list, in selection order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Kind: RainbowCycle, Name: "Rainbow Cycle"},
		{Kind: Cycle, Name: "Cycle"},
		{Kind: ChaseColour, Name: "Chase Colour (default)", Color: led.Red},
		{Kind: FillColour, Name: "Fill Colour (default)", Color: led.White},
		{Kind: Fade, Name: "Fade (default)"},
		{Kind: Bounce, Name: "Bounce"},
	}
}

func Default() *Library {
	l, _ := NewLibrary(DefaultPatterns()...)
	return l
}

func (l *Library) Len() int { return len(l.patterns) }

// At returns the pattern at i. i must be in [0, Len()).
func (l *Library) At(i int) Pattern { return l.patterns[i] }

func (l *Library) Names() []string {
	out := make([]string, len(l.patterns))
	for i, p := range l.patterns {
		out[i] = p.Name
	}
	return out
}
