// Package selection tracks which pattern is active and whether it is running.
//
// The state is written by the encoder goroutine and read by the render loop. Both
// fields live in one atomic word, so a reader always sees a valid (index, running) pair.
package selection

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ledstrip/internal/encoder"
)

// ErrInvalidCount is returned for a machine with no patterns to select.
var ErrInvalidCount = errors.New("pattern count must be positive")

// State is a consistent snapshot of the selection.
type State struct {
	Index   int
	Running bool
}

func (s State) String() string {
	if s.Running {
		return fmt.Sprintf("#%d running", s.Index)
	}
	return fmt.Sprintf("#%d paused", s.Index)
}

func pack(s State) uint32 {
	w := uint32(s.Index) << 1
	if s.Running {
		w |= 1
	}
	return w
}

func unpack(w uint32) State {
	return State{Index: int(w >> 1), Running: w&1 == 1}
}

// Hooks are invoked on the goroutine that called Handle, after the new state is visible.
type Hooks struct {
	// OnPause runs once per running -> paused transition.
	OnPause func()
	// OnChange runs after every event that changed the state.
	OnChange func(prev, next State)
}

type Machine struct {
	word  atomic.Uint32
	count int
	hooks Hooks
}

// New starts at pattern 0, running.
func New(count int) (*Machine, error) {
	if count <= 0 {
		return nil, fmt.Errorf("new selection (%d): %w", count, ErrInvalidCount)
	}
	m := &Machine{count: count}
	m.word.Store(pack(State{Index: 0, Running: true}))
	return m, nil
}

// SetHooks must be called before events start flowing.
func (m *Machine) SetHooks(h Hooks) { m.hooks = h }

func (m *Machine) Count() int { return m.count }

func (m *Machine) Snapshot() State { return unpack(m.word.Load()) }

// Handle applies one encoder event.
func (m *Machine) Handle(ev encoder.Event) {
	if ev == encoder.ButtonPress {
		log.Debug().Stringer("state", m.Snapshot()).Msg("button pressed")
		return
	}

	var old, next State
	for {
		w := m.word.Load()
		old = unpack(w)
		next = m.transition(old, ev)
		if m.word.CompareAndSwap(w, pack(next)) {
			break
		}
	}
	if old == next {
		return
	}

	log.Debug().Stringer("event", ev).Stringer("from", old).Stringer("to", next).Msg("selection changed")
	if m.hooks.OnChange != nil {
		m.hooks.OnChange(old, next)
	}
	if old.Running && !next.Running && m.hooks.OnPause != nil {
		m.hooks.OnPause()
	}
}

func (m *Machine) transition(s State, ev encoder.Event) State {
	switch ev {
	case encoder.RotateCW:
		return State{Index: (s.Index + 1) % m.count, Running: true}
	case encoder.RotateCCW:
		return State{Index: (s.Index - 1 + m.count) % m.count, Running: true}
	case encoder.ButtonRelease:
		return State{Index: s.Index, Running: !s.Running}
	default:
		return s
	}
}
