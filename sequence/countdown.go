package sequence

import (
	"ScanBooth/surface"
	"ScanBooth/timer"
	"image/color"
	"strconv"
	"time"

	"golang.org/x/image/font"
)

// CountdownTick is the fixed interval between countdown frames.
const CountdownTick = time.Second

// countdownX and countdownY place the digits near the top left corner.
const (
	countdownX = 50
	countdownY = 50
)

// CountdownState is the progress of a countdown.
type CountdownState struct {
	Remaining int
}

// NewCountdownState starts at floor(delay / 1s).
func NewCountdownState(delay time.Duration) CountdownState {
	if delay < 0 {
		delay = 0
	}
	return CountdownState{Remaining: int(delay / CountdownTick)}
}

// Step renders the current value and returns the next state. done is true
// once the zero frame has been drawn.
func (c CountdownState) Step(target *surface.Surface, face font.Face, overlay color.Color) (next CountdownState, done bool) {
	target.Clear(target.Bounds())
	target.DrawText(strconv.Itoa(c.Remaining), countdownX, countdownY, face, overlay)
	if c.Remaining > 0 {
		return CountdownState{Remaining: c.Remaining - 1}, false
	}
	return c, true
}

// CountdownOptions are the inputs of a countdown phase.
type CountdownOptions struct {
	Delay     time.Duration
	Target    *surface.Surface
	Face      font.Face
	Overlay   color.Color
	Scheduler timer.Scheduler
	Timer     *timer.Handle

	// OnFrame runs after every rendered frame with the value just drawn.
	OnFrame func(shown int)
	// OnDone runs exactly once, after the zero frame.
	OnDone func()
}

// Countdown draws the first frame immediately and then one frame per second
// until zero. It returns as soon as the first frame is drawn; the remaining
// frames are scheduled through o.Timer.
func Countdown(o CountdownOptions) {
	state := NewCountdownState(o.Delay)

	var tick func()
	tick = func() {
		shown := state.Remaining
		next, done := state.Step(o.Target, o.Face, o.Overlay)
		state = next
		if o.OnFrame != nil {
			o.OnFrame(shown)
		}
		if done {
			if o.OnDone != nil {
				o.OnDone()
			}
			return
		}
		o.Timer.Set(o.Scheduler.AfterFunc(CountdownTick, tick))
	}
	tick()
}
