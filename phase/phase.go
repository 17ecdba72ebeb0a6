// Package phase drives one capture run: countdown, scan, done. A Controller
// owns the surface, the shared timer handle and the state machine. All of its
// methods and every callback it schedules must run on the scheduler's
// goroutine.
package phase

import (
	"ScanBooth/capture"
	"ScanBooth/sequence"
	"ScanBooth/surface"
	"ScanBooth/timer"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"golang.org/x/image/font"
)

// Machine states.
const (
	StateIdle     = "idle"
	StateCounting = "counting"
	StateScanning = "scanning"
	StateDone     = "done"
)

// Machine events.
const (
	eventCount  = "count"
	eventScan   = "scan"
	eventFinish = "finish"
	eventReset  = "reset"
)

// ErrNotReady is returned by Export before a scan has completed.
var ErrNotReady = errors.New("capture not ready")

// Hooks observe a controller. Every hook is optional and runs on the
// scheduler goroutine.
type Hooks struct {
	// Frame receives a private copy of the surface after every render.
	Frame func(img *image.RGBA)
	// State runs after every transition.
	State func(from, to string)
	// Ready reports whether Export may be used.
	Ready func(ready bool)
	// Error receives failures of a run that was already started.
	Error func(err error)
}

// Options configure a Controller.
type Options struct {
	Source    surface.Source
	Scheduler timer.Scheduler
	BandWidth int
	Duration  time.Duration // scan length
	Delay     time.Duration // countdown length
	Overlay   color.Color
	Face      font.Face // countdown digits; the Go font is used when nil
	Hooks     Hooks
}

// OptionsFromConfig fills the scan parameters from cfg.
func OptionsFromConfig(cfg timer.ScanConfig, src surface.Source, sched timer.Scheduler) (Options, error) {
	overlay, err := cfg.Overlay()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Source:    src,
		Scheduler: sched,
		BandWidth: cfg.BandWidth,
		Duration:  cfg.ScanDuration(),
		Delay:     cfg.StartDelay(),
		Overlay:   overlay,
	}, nil
}

// Snapshot is a point-in-time view of a run for status displays.
type Snapshot struct {
	RunID     string `json:"run_id,omitempty"`
	State     string `json:"state"`
	Direction string `json:"direction,omitempty"`
	Remaining int    `json:"countdown_remaining"`
	Offset    int    `json:"scan_offset"`
	Bound     int    `json:"scan_bound"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Controller sequences the countdown and the scan on one surface.
type Controller struct {
	opts    Options
	surface *surface.Surface
	timer   timer.Handle
	machine *fsm.FSM

	runID     uuid.UUID
	direction sequence.Direction
	remaining int
	scan      sequence.ScanState
}

// New builds an idle controller with a surface sized to the source.
func New(o Options) (*Controller, error) {
	if o.Source == nil || o.Scheduler == nil {
		return nil, errors.New("phase: source and scheduler are required")
	}
	if o.Overlay == nil {
		o.Overlay = color.NRGBA{G: 0xff, A: 0xff}
	}
	if o.Face == nil {
		face, err := surface.NewFace(float64(timer.FontSizeCountdown))
		if err != nil {
			return nil, fmt.Errorf("countdown face: %w", err)
		}
		o.Face = face
	}

	c := &Controller{opts: o, surface: surface.New(0, 0)}
	c.surface.Reset(o.Source)
	c.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventCount, Src: []string{StateIdle}, Dst: StateCounting},
			{Name: eventScan, Src: []string{StateCounting}, Dst: StateScanning},
			{Name: eventFinish, Src: []string{StateScanning}, Dst: StateDone},
			{Name: eventReset, Src: []string{StateCounting, StateScanning, StateDone}, Dst: StateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Printf("phase %s -> %s", e.Src, e.Dst)
				if c.opts.Hooks.State != nil {
					c.opts.Hooks.State(e.Src, e.Dst)
				}
			},
			"enter_" + StateDone: func(_ context.Context, e *fsm.Event) {
				c.ready(true)
			},
		},
	)
	return c, nil
}

// State returns the current machine state.
func (c *Controller) State() string {
	return c.machine.Current()
}

// Start begins a new run in direction dir. Whatever run was in flight is
// canceled first, so at most one sequence is ever scheduled.
func (c *Controller) Start(ctx context.Context, dir sequence.Direction) error {
	c.timer.Clear()
	if err := c.reset(ctx); err != nil {
		return err
	}

	c.runID = uuid.New()
	c.direction = dir
	c.scan = sequence.ScanState{}
	c.surface.Reset(c.opts.Source)
	c.ready(false)

	if err := c.machine.Event(ctx, eventCount); err != nil {
		return fmt.Errorf("start countdown: %w", err)
	}
	log.Printf("run %s: %s scan after %v", c.runID, dir, c.opts.Delay)

	sequence.Countdown(sequence.CountdownOptions{
		Delay:     c.opts.Delay,
		Target:    c.surface,
		Face:      c.opts.Face,
		Overlay:   c.opts.Overlay,
		Scheduler: c.opts.Scheduler,
		Timer:     &c.timer,
		OnFrame: func(shown int) {
			c.remaining = shown
			c.frame()
		},
		OnDone: func() {
			c.startScan(ctx)
		},
	})
	return nil
}

func (c *Controller) startScan(ctx context.Context) {
	c.timer.Clear()
	c.surface.Reset(c.opts.Source)
	c.ready(false)
	if err := c.machine.Event(ctx, eventScan); err != nil {
		c.fail(ctx, fmt.Errorf("start scan: %w", err))
		return
	}

	state, err := sequence.Scan(sequence.ScanOptions{
		Direction: c.direction,
		Source:    c.opts.Source,
		Target:    c.surface,
		Duration:  c.opts.Duration,
		BandWidth: c.opts.BandWidth,
		Overlay:   c.opts.Overlay,
		Scheduler: c.opts.Scheduler,
		Timer:     &c.timer,
		OnTick: func(s sequence.ScanState) {
			c.scan = s
			c.frame()
		},
		OnDone: func(s sequence.ScanState) {
			if err := c.machine.Event(ctx, eventFinish); err != nil {
				c.fail(ctx, fmt.Errorf("finish scan: %w", err))
			}
		},
	})
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.scan = state
	c.frame()
}

// Cancel stops any scheduled work and returns to idle. The surface keeps
// whatever was drawn.
func (c *Controller) Cancel(ctx context.Context) error {
	c.timer.Clear()
	c.ready(false)
	return c.reset(ctx)
}

func (c *Controller) reset(ctx context.Context) error {
	if c.machine.Is(StateIdle) {
		return nil
	}
	if err := c.machine.Event(ctx, eventReset); err != nil {
		return fmt.Errorf("reset phase: %w", err)
	}
	return nil
}

func (c *Controller) fail(ctx context.Context, err error) {
	log.Printf("run %s: %v", c.runID, err)
	c.timer.Clear()
	if rerr := c.reset(ctx); rerr != nil {
		log.Printf("run %s: %v", c.runID, rerr)
	}
	if c.opts.Hooks.Error != nil {
		c.opts.Hooks.Error(err)
	}
}

func (c *Controller) ready(ok bool) {
	if c.opts.Hooks.Ready != nil {
		c.opts.Hooks.Ready(ok)
	}
}

func (c *Controller) frame() {
	if c.opts.Hooks.Frame != nil {
		c.opts.Hooks.Frame(c.surface.Snapshot())
	}
}

// ResetSurface resizes the surface to the source's current size, clearing
// it. It runs whenever a new stream is acquired. The pixels of any earlier
// run are gone afterwards, so the run is canceled and Export refuses until
// the next scan completes.
func (c *Controller) ResetSurface(ctx context.Context) error {
	c.timer.Clear()
	c.ready(false)
	err := c.reset(ctx)
	c.remaining = 0
	c.scan = sequence.ScanState{}
	c.surface.Reset(c.opts.Source)
	c.frame()
	return err
}

// Export encodes the finished frame as a JPEG. It refuses until the current
// run has completed.
func (c *Controller) Export(w io.Writer) error {
	if !c.machine.Is(StateDone) {
		return fmt.Errorf("%w (state %s)", ErrNotReady, c.machine.Current())
	}
	return capture.Encode(w, c.surface.Image())
}

// Frame returns a copy of the current surface.
func (c *Controller) Frame() *image.RGBA {
	return c.surface.Snapshot()
}

// Snapshot reports the run's progress.
func (c *Controller) Snapshot() Snapshot {
	w, h := c.surface.Size()
	s := Snapshot{
		State:     c.machine.Current(),
		Remaining: c.remaining,
		Offset:    c.scan.Offset,
		Bound:     c.scan.Bound,
		Width:     w,
		Height:    h,
	}
	if c.runID != uuid.Nil {
		s.RunID = c.runID.String()
		s.Direction = c.direction.String()
	}
	return s
}
