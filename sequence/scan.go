package sequence

import (
	"ScanBooth/surface"
	"ScanBooth/timer"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"
)

var (
	ErrEmptySource = errors.New("source has no pixels yet")
	ErrBandWidth   = errors.New("band width must be at least 1")
	ErrDuration    = errors.New("scan duration must be positive")
)

// ScanState is the progress of a scan. Offset grows by BandWidth on every
// tick; the scan is over once Offset reaches Bound.
type ScanState struct {
	Direction Direction
	Offset    int
	Bound     int // source extent along the scan axis
	BandWidth int
	Width     int // surface size fixed at setup
	Height    int
	Duration  time.Duration
	TickDelay time.Duration // delay before a full band
}

// NewScanState validates the inputs and returns the state before the first
// tick.
func NewScanState(dir Direction, w, h, bandWidth int, duration time.Duration) (ScanState, error) {
	if w <= 0 || h <= 0 {
		return ScanState{}, fmt.Errorf("%w (%dx%d)", ErrEmptySource, w, h)
	}
	if bandWidth < 1 {
		return ScanState{}, fmt.Errorf("%w, got %d", ErrBandWidth, bandWidth)
	}
	if duration <= 0 {
		return ScanState{}, fmt.Errorf("%w, got %v", ErrDuration, duration)
	}
	bound := dir.bound(w, h)
	return ScanState{
		Direction: dir,
		Bound:     bound,
		BandWidth: bandWidth,
		Width:     w,
		Height:    h,
		Duration:  duration,
		TickDelay: scale(duration, bandWidth, bound),
	}, nil
}

// scale returns d * num / den without integer truncation of the ratio.
func scale(d time.Duration, num, den int) time.Duration {
	return time.Duration(float64(d) * float64(num) / float64(den))
}

// Done reports whether the band has reached the far edge.
func (s ScanState) Done() bool {
	return s.Offset >= s.Bound
}

// Ticks is the number of ticks a full scan takes, ceil(Bound / BandWidth).
func (s ScanState) Ticks() int {
	return (s.Bound + s.BandWidth - 1) / s.BandWidth
}

// NextDelay is the wait before the next tick: the part of Duration that the
// next advance of the cursor represents. Full bands wait TickDelay and a
// clamped final band waits proportionally less, so the delays of a whole
// scan add up to Duration.
func (s ScanState) NextDelay() time.Duration {
	from := min(s.Offset, s.Bound)
	to := min(s.Offset+s.BandWidth, s.Bound)
	if to-from == s.BandWidth {
		return s.TickDelay
	}
	return scale(s.Duration, to-from, s.Bound)
}

// Step advances the cursor, paints the leading-edge marker one band ahead and
// copies the source band at the new offset onto the target.
func (s ScanState) Step(src image.Image, target *surface.Surface, overlay color.Color) ScanState {
	s.Offset += s.BandWidth

	target.Fill(s.Direction.band(s.Offset+s.BandWidth, s.BandWidth, s.Width, s.Height), overlay)

	if src != nil {
		sb := src.Bounds()
		srcRect := s.Direction.band(s.Offset, s.BandWidth, sb.Dx(), sb.Dy()).Add(sb.Min)
		dstRect := s.Direction.band(s.Offset, s.BandWidth, s.Width, s.Height)
		target.CopyRegion(src, srcRect, dstRect)
	}
	return s
}

// ScanOptions are the inputs of a scan phase.
type ScanOptions struct {
	Direction Direction
	Source    surface.Source
	Target    *surface.Surface
	Duration  time.Duration
	BandWidth int
	Overlay   color.Color
	Scheduler timer.Scheduler
	Timer     *timer.Handle

	// OnTick runs after every step with the new state.
	OnTick func(ScanState)
	// OnDone runs exactly once, after the step that reaches the edge.
	OnDone func(ScanState)
}

// Scan resets the target to the source's size and schedules the first tick.
// Nothing is scheduled when the inputs are invalid.
func Scan(o ScanOptions) (ScanState, error) {
	w, h := o.Source.Size()
	state, err := NewScanState(o.Direction, w, h, o.BandWidth, o.Duration)
	if err != nil {
		return ScanState{}, err
	}
	o.Target.Resize(w, h)

	var tick func()
	tick = func() {
		state = state.Step(o.Source.Frame(), o.Target, o.Overlay)
		if o.OnTick != nil {
			o.OnTick(state)
		}
		if state.Done() {
			if o.OnDone != nil {
				o.OnDone(state)
			}
			return
		}
		o.Timer.Set(o.Scheduler.AfterFunc(state.NextDelay(), tick))
	}
	o.Timer.Set(o.Scheduler.AfterFunc(state.NextDelay(), tick))
	return state, nil
}
