// Package main contains the application wiring and the AppManager which
// coordinates the camera, the phase controller, audio cues and the UI.
//
// Maintenance notes / tips:
//   - Concurrency model: one loop goroutine (timer.Loop) runs every command
//     and every countdown/scan tick. The controller, its surface and its timer
//     handle are only touched there. The UI and the HTTP remote never call the
//     controller directly; they enqueue control.Command values.
//   - Frames leave the loop as private copies (phase.Hooks.Frame) so fyne and
//     the preview stream can hold on to them.
//   - `Loop.Post` drops work when the queue stays full for 150ms rather than
//     blocking the UI. Dropped commands are answered with errDropped.
//   - Opening a camera blocks the loop for as long as the device takes. Timer
//     callbacks that fire meanwhile wait on their own channel and run late; only
//     commands are ever dropped.
//   - A new stream resets the controller to idle, so a finished scan can no
//     longer be downloaded after a flip.
package main

import (
	"ScanBooth/camera"
	"ScanBooth/control"
	"ScanBooth/httpapi"
	"ScanBooth/i18n"
	"ScanBooth/phase"
	"ScanBooth/timer"
	"ScanBooth/ui"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/hashicorp/go-multierror"
)

const (
	toneTick    = "tick"
	toneGo      = "go"
	toneShutter = "shutter"

	sampleRate = beep.SampleRate(44100)

	acquireTimeout = 10 * time.Second
)

var errDropped = errors.New("command dropped: application busy")

// AppManager is the main application struct, holding all state.
type AppManager struct {
	mainWindow fyne.Window
	view       *ui.View
	cfg        timer.ScanConfig

	loop       *timer.Loop
	loopCtx    context.Context
	loopCancel context.CancelFunc

	session *camera.Session
	ctrl    *phase.Controller
	frames  *httpapi.Frames

	audioBuffers map[string]*beep.Buffer
	speakerLock  sync.Mutex
}

// NewAppManager creates a new application manager and starts its loop.
func NewAppManager(cfg timer.ScanConfig, session *camera.Session) (*AppManager, error) {
	// Use a larger buffer for the loop to absorb bursts of commands.
	loop := timer.NewLoop(256)
	a, err := newAppManager(cfg, session, loop)
	if err != nil {
		return nil, err
	}
	a.loop = loop
	a.loadTones()
	go a.loop.Run(a.loopCtx)
	return a, nil
}

// newAppManager wires the controller to sched without starting anything.
// Commands go through handleCommand on whatever goroutine drives sched.
func newAppManager(cfg timer.ScanConfig, session *camera.Session, sched timer.Scheduler) (*AppManager, error) {
	a := &AppManager{
		cfg:          cfg,
		session:      session,
		frames:       httpapi.NewFrames(),
		audioBuffers: make(map[string]*beep.Buffer),
	}

	opts, err := phase.OptionsFromConfig(cfg, session, sched)
	if err != nil {
		return nil, err
	}
	opts.Hooks = phase.Hooks{
		Frame: a.onFrame,
		State: a.onState,
		Ready: a.onReady,
		Error: a.onError,
	}
	a.ctrl, err = phase.New(opts)
	if err != nil {
		return nil, err
	}

	a.loopCtx, a.loopCancel = context.WithCancel(context.Background())
	return a, nil
}

// SetView attaches the window widgets. Call it before Acquire.
func (a *AppManager) SetView(w fyne.Window, v *ui.View) {
	a.mainWindow = w
	a.view = v
}

// EnqueueCommand posts a command to the loop.
func (a *AppManager) EnqueueCommand(cmd control.Command) {
	if !a.loop.Post(func() { a.handleCommand(cmd) }) {
		cmd.Respond(errDropped)
	}
}

func (a *AppManager) handleCommand(cmd control.Command) {
	var err error
	switch cmd.Type {
	case control.CmdScan:
		err = a.ctrl.Start(a.loopCtx, cmd.Direction)
	case control.CmdDownload:
		err = a.export(cmd.Writer)
	case control.CmdFlip:
		err = a.flip()
	default:
		err = fmt.Errorf("unknown command %v", cmd.Type)
	}
	if err != nil {
		log.Printf("%s: %v", cmd.Type, err)
	}
	cmd.Respond(err)
}

// export writes the finished frame and closes w when it is a file. Nothing
// is written unless a scan has completed; the caller removes the empty file.
func (a *AppManager) export(w io.Writer) error {
	if w == nil {
		return errors.New("download: no destination")
	}
	var result error
	if state := a.ctrl.State(); state != phase.StateDone {
		result = multierror.Append(result, fmt.Errorf("%w (state %s)", phase.ErrNotReady, state))
	} else if err := a.ctrl.Export(w); err != nil {
		result = multierror.Append(result, err)
	}
	if c, ok := w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil {
		return result
	}
	a.PlaySound(toneShutter)
	return nil
}

// Acquire opens the camera for the initial facing mode and decides whether
// the flip control is shown.
func (a *AppManager) Acquire() {
	a.loop.Post(func() {
		if err := a.acquire(camera.Constraints{Facing: camera.User}); err != nil {
			a.onError(err)
		}
		canFlip := a.session.CanFlip()
		if a.view != nil {
			a.view.SetFlipVisible(canFlip)
		}
	})
}

func (a *AppManager) acquire(c camera.Constraints) error {
	ctx, cancel := context.WithTimeout(a.loopCtx, acquireTimeout)
	defer cancel()
	if err := a.session.Acquire(ctx, c); err != nil {
		return err
	}
	return a.ctrl.ResetSurface(a.loopCtx)
}

func (a *AppManager) flip() error {
	ctx, cancel := context.WithTimeout(a.loopCtx, acquireTimeout)
	defer cancel()
	if err := a.session.Flip(ctx); err != nil {
		return err
	}
	return a.ctrl.ResetSurface(a.loopCtx)
}

// Status returns the controller snapshot, read on the loop.
func (a *AppManager) Status(ctx context.Context) (phase.Snapshot, error) {
	reply := make(chan phase.Snapshot, 1)
	if !a.loop.Post(func() { reply <- a.ctrl.Snapshot() }) {
		return phase.Snapshot{}, errDropped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return phase.Snapshot{}, ctx.Err()
	}
}

func (a *AppManager) onFrame(img *image.RGBA) {
	a.frames.Publish(img)
	if a.view != nil {
		a.view.SetScan(img)
	}

	s := a.ctrl.Snapshot()
	switch s.State {
	case phase.StateCounting:
		if s.Remaining > 0 {
			a.PlaySound(toneTick)
		} else {
			a.PlaySound(toneGo)
		}
		a.setStatus(fmt.Sprintf("%s: %d", i18n.T("Get ready"), s.Remaining))
	case phase.StateScanning:
		if s.Bound > 0 {
			a.setStatus(fmt.Sprintf("%s %d%%", i18n.T("Scanning"), min(s.Offset, s.Bound)*100/s.Bound))
		}
	}
}

func (a *AppManager) onState(from, to string) {
	switch to {
	case phase.StateIdle:
		a.setStatus(i18n.T("Ready"))
	case phase.StateDone:
		a.setStatus(i18n.T("Done"))
	}
}

func (a *AppManager) onReady(ok bool) {
	if a.view != nil {
		a.view.SetDownloadVisible(ok)
	}
}

func (a *AppManager) onError(err error) {
	var acquireErr *camera.AcquireError
	if errors.As(err, &acquireErr) {
		log.Printf("%s: %v", acquireErr.Name, acquireErr.Err)
		a.setStatus(i18n.T("No camera feed"))
		return
	}
	if a.view != nil {
		a.view.ShowError(err)
		return
	}
	log.Printf("run failed: %v", err)
}

func (a *AppManager) setStatus(text string) {
	if a.view != nil {
		a.view.SetStatus(text)
	}
}

// loadTones synthesizes the countdown and shutter cues.
func (a *AppManager) loadTones() {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		log.Printf("Audio disabled: Failed to initialize speaker: %v\n", err)
		return
	}

	tones := []struct {
		name string
		freq float64
		d    time.Duration
	}{
		{toneTick, 880, 80 * time.Millisecond},
		{toneGo, 1320, 250 * time.Millisecond},
		{toneShutter, 660, 150 * time.Millisecond},
	}
	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
	for _, t := range tones {
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			log.Printf("Failed to build tone %s: %v", t.name, err)
			continue
		}
		buffer := beep.NewBuffer(format)
		buffer.Append(beep.Take(sampleRate.N(t.d), sine))
		a.audioBuffers[t.name] = buffer
	}
}

// PlaySound plays a synthesized cue.
func (a *AppManager) PlaySound(name string) {
	b, ok := a.audioBuffers[name]
	if !ok {
		return
	}

	a.speakerLock.Lock()
	defer a.speakerLock.Unlock()

	speaker.Play(b.Streamer(0, b.Len()))
}

// HandleKeyRune handles key presses for the application.
func (a *AppManager) HandleKeyRune(r rune) {
	if a.view == nil {
		return
	}
	var btn *widget.Button
	switch r {
	case 'v', 'V':
		btn = a.view.ScanVertical
	case 'h', 'H':
		btn = a.view.ScanHorizontal
	case 'd', 'D':
		btn = a.view.Download
	case 'f', 'F':
		btn = a.view.Flip
	}
	if btn != nil && !btn.Hidden {
		btn.Tapped(&fyne.PointEvent{})
	}
}

// preview pushes camera frames to the live view at the configured rate.
func (a *AppManager) preview(ctx context.Context) {
	fps := a.cfg.PreviewFPS
	if fps <= 0 {
		fps = 15
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.view != nil {
				a.view.SetPreview(a.session.Frame())
			}
		}
	}
}

// serveHTTP runs the remote control API until ctx is done.
func (a *AppManager) serveHTTP(ctx context.Context, addr string) {
	srv := &http.Server{Addr: addr, Handler: httpapi.NewRouter(a, a.frames)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("http remote listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("http remote: %v", err)
	}
}

// Shutdown stops the loop and releases the camera.
func (a *AppManager) Shutdown() {
	if a.loopCancel != nil {
		a.loopCancel()
	}
	if err := a.session.Close(); err != nil {
		log.Printf("closing camera: %v", err)
	}
}
