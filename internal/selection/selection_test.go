package selection_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/coreman2200/funtimes-ledstrip/internal/encoder"
	"github.com/coreman2200/funtimes-ledstrip/internal/selection"
)

func TestNew(t *testing.T) {
	_, err := selection.New(0)
	assert.ErrorIs(t, err, selection.ErrInvalidCount)

	m, err := selection.New(5)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Count())
	assert.Equal(t, selection.State{Index: 0, Running: true}, m.Snapshot())
}

func TestHandle(t *testing.T) {
	testCases := []struct {
		name   string
		events []encoder.Event
		want   selection.State
	}{
		{name: "cw", events: []encoder.Event{encoder.RotateCW}, want: selection.State{Index: 1, Running: true}},
		{name: "ccw wraps to last", events: []encoder.Event{encoder.RotateCCW}, want: selection.State{Index: 4, Running: true}},
		{name: "cw wraps to first", events: []encoder.Event{encoder.RotateCW, encoder.RotateCW, encoder.RotateCW, encoder.RotateCW, encoder.RotateCW}, want: selection.State{Index: 0, Running: true}},
		{name: "release pauses", events: []encoder.Event{encoder.ButtonRelease}, want: selection.State{Index: 0, Running: false}},
		{name: "press does nothing", events: []encoder.Event{encoder.ButtonPress}, want: selection.State{Index: 0, Running: true}},
		{name: "rotate resumes", events: []encoder.Event{encoder.ButtonRelease, encoder.RotateCW}, want: selection.State{Index: 1, Running: true}},
		{name: "release twice", events: []encoder.Event{encoder.ButtonRelease, encoder.ButtonRelease}, want: selection.State{Index: 0, Running: true}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			m, err := selection.New(5)
			require.NoError(t, err)
			for _, ev := range tt.events {
				m.Handle(ev)
			}
			assert.Equal(t, tt.want, m.Snapshot())
		})
	}
}

func TestHooks(t *testing.T) {
	m, err := selection.New(3)
	require.NoError(t, err)

	var pauses int
	var changes []selection.State
	m.SetHooks(selection.Hooks{
		OnPause:  func() { pauses++ },
		OnChange: func(_, next selection.State) { changes = append(changes, next) },
	})

	m.Handle(encoder.ButtonPress)
	m.Handle(encoder.ButtonRelease)
	m.Handle(encoder.ButtonPress)
	m.Handle(encoder.ButtonRelease)
	m.Handle(encoder.ButtonRelease)
	m.Handle(encoder.RotateCCW)

	assert.Equal(t, 2, pauses)
	assert.Equal(t, []selection.State{
		{Index: 0, Running: false},
		{Index: 0, Running: true},
		{Index: 0, Running: false},
		{Index: 2, Running: true},
	}, changes)
}

var rotations = rapid.SampledFrom([]encoder.Event{encoder.RotateCW, encoder.RotateCCW})

func TestWrapAround(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 40).Draw(t, "count")
		m, err := selection.New(count)
		if err != nil {
			t.Fatal(err)
		}
		events := rapid.SliceOf(rotations).Draw(t, "events")
		want := 0
		for _, ev := range events {
			m.Handle(ev)
			if ev == encoder.RotateCW {
				want++
			} else {
				want--
			}
			s := m.Snapshot()
			if s.Index < 0 || s.Index >= count {
				t.Fatalf("index %d out of [0,%d)", s.Index, count)
			}
			if !s.Running {
				t.Fatalf("rotation left the machine paused")
			}
		}
		if got := m.Snapshot().Index; got != ((want%count)+count)%count {
			t.Fatalf("index %d, want %d", got, ((want%count)+count)%count)
		}
	})
}

func TestInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 40).Draw(t, "count")
		m, err := selection.New(count)
		if err != nil {
			t.Fatal(err)
		}
		for _, ev := range rapid.SliceOf(rotations).Draw(t, "prefix") {
			m.Handle(ev)
		}
		before := m.Snapshot()
		first := rotations.Draw(t, "first")
		second := encoder.RotateCCW
		if first == encoder.RotateCCW {
			second = encoder.RotateCW
		}
		m.Handle(first)
		m.Handle(second)
		if after := m.Snapshot(); after.Index != before.Index {
			t.Fatalf("%v then %v moved %d to %d", first, second, before.Index, after.Index)
		}
	})
}

func TestToggle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m, err := selection.New(4)
		if err != nil {
			t.Fatal(err)
		}
		if rapid.Bool().Draw(t, "paused") {
			m.Handle(encoder.ButtonRelease)
		}
		for _, ev := range rapid.SliceOf(rotations).Draw(t, "prefix") {
			m.Handle(ev)
		}
		before := m.Snapshot()
		m.Handle(encoder.ButtonRelease)
		mid := m.Snapshot()
		if mid.Running == before.Running || mid.Index != before.Index {
			t.Fatalf("release: %v -> %v", before, mid)
		}
		m.Handle(encoder.ButtonRelease)
		if after := m.Snapshot(); after != before {
			t.Fatalf("two releases: %v -> %v", before, after)
		}
	})
}

func TestConcurrentReaders(t *testing.T) {
	const count = 7
	m, err := selection.New(count)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	bad := make(chan selection.State, 1)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if s := m.Snapshot(); s.Index < 0 || s.Index >= count {
					select {
					case bad <- s:
					default:
					}
					return
				}
			}
		}()
	}

	events := []encoder.Event{encoder.RotateCW, encoder.RotateCCW, encoder.ButtonRelease, encoder.RotateCCW, encoder.ButtonPress}
	for i := 0; i < 10000; i++ {
		m.Handle(events[i%len(events)])
	}
	close(stop)
	wg.Wait()

	select {
	case s := <-bad:
		t.Fatalf("reader saw invalid state %v", s)
	default:
	}
}
