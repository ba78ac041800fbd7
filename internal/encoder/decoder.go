package encoder

import "time"

// DefaultStepsPerDetent matches a common full-cycle-per-click encoder.
const DefaultStepsPerDetent = 4

// transitions is indexed by prev<<2 | cur, where a state is clk<<1 | dt.
// Invalid (bouncing) transitions count as 0.
var transitions = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// Decoder turns raw pin levels into Events. It holds no locks; callers serialize access.
type Decoder struct {
	StepsPerDetent int
	Debounce       time.Duration

	state   uint8
	acc     int
	pressed bool
	lastBtn time.Time
}

// NewDecoder assumes both quadrature lines idle high (pull-ups).
func NewDecoder(stepsPerDetent int, debounce time.Duration) *Decoder {
	if stepsPerDetent <= 0 {
		stepsPerDetent = DefaultStepsPerDetent
	}
	return &Decoder{
		StepsPerDetent: stepsPerDetent,
		Debounce:       debounce,
		state:          0b11,
	}
}

// Rotate feeds the current clk/dt levels and reports a rotation once a full detent has been seen.
func (d *Decoder) Rotate(clk, dt bool) (Event, bool) {
	cur := level(clk)<<1 | level(dt)
	if cur == d.state {
		return 0, false
	}
	d.acc += int(transitions[d.state<<2|cur])
	d.state = cur

	var (
		ev Event
		ok bool
	)
	switch {
	case d.acc >= d.StepsPerDetent:
		ev, ok = RotateCW, true
		d.acc = 0
	case d.acc <= -d.StepsPerDetent:
		ev, ok = RotateCCW, true
		d.acc = 0
	}
	if cur == 0b11 {
		// back at rest: drop any half-turn
		d.acc = 0
	}
	return ev, ok
}

// Button feeds the switch level (low = pressed) sampled at now.
func (d *Decoder) Button(high bool, now time.Time) (Event, bool) {
	pressed := !high
	if pressed == d.pressed {
		return 0, false
	}
	if !d.lastBtn.IsZero() && now.Sub(d.lastBtn) < d.Debounce {
		return 0, false
	}
	d.pressed = pressed
	d.lastBtn = now
	if pressed {
		return ButtonPress, true
	}
	return ButtonRelease, true
}

func level(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
