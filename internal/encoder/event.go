package encoder

import (
	"context"
	"fmt"
	"strings"
)

// Event is a discrete input from the rotary encoder.
type Event uint8

const (
	RotateCW Event = iota + 1
	RotateCCW
	ButtonPress
	ButtonRelease
)

var eventNames = map[Event]string{
	RotateCW:      "cw",
	RotateCCW:     "ccw",
	ButtonPress:   "press",
	ButtonRelease: "release",
}

func (e Event) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

func ParseEvent(s string) (Event, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for e, name := range eventNames {
		if name == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown encoder event %q", s)
}

func (e Event) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Event) UnmarshalText(text []byte) error {
	v, err := ParseEvent(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Handler consumes events. Calls are serialized by the Source.
type Handler func(Event)

// Source delivers encoder events to h until ctx is done.
type Source interface {
	Run(ctx context.Context, h Handler) error
}
