package encoder

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Step is one scripted event, delivered After the previous one.
type Step struct {
	After time.Duration `yaml:"after"`
	Event Event         `yaml:"event"`
}

// Script replays a fixed list of events. It stands in for the knob in the simulator and in tests.
type Script struct {
	Steps []Step
}

var _ Source = (*Script)(nil)

// LoadScript reads a YAML list of steps, e.g.
//
//	- {after: 2s, event: cw}
//	- {after: 500ms, event: release}
func LoadScript(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(b)
}

func ParseScript(b []byte) (*Script, error) {
	var raw []struct {
		After string `yaml:"after"`
		Event Event  `yaml:"event"`
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	s := &Script{Steps: make([]Step, 0, len(raw))}
	for i, r := range raw {
		var d time.Duration
		if r.After != "" {
			var err error
			if d, err = time.ParseDuration(r.After); err != nil {
				return nil, fmt.Errorf("script step %d: %w", i, err)
			}
		}
		s.Steps = append(s.Steps, Step{After: d, Event: r.Event})
	}
	return s, nil
}

// Run delivers every step in order and returns once the script is exhausted.
func (s *Script) Run(ctx context.Context, h Handler) error {
	for _, st := range s.Steps {
		if st.After > 0 {
			t := time.NewTimer(st.After)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		h(st.Event)
	}
	return nil
}

// Duration is the total scripted time.
func (s *Script) Duration() time.Duration {
	var total time.Duration
	for _, st := range s.Steps {
		total += st.After
	}
	return total
}
