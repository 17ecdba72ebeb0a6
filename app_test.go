package main

import (
	"ScanBooth/camera"
	"ScanBooth/control"
	"ScanBooth/i18n"
	"ScanBooth/phase"
	"ScanBooth/sequence"
	"ScanBooth/timer"
	"ScanBooth/ui"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"os"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type solidStream struct {
	w, h int
}

func (s *solidStream) Size() (int, int) { return s.w, s.h }

func (s *solidStream) Frame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for p := 0; p < len(img.Pix); p += 4 {
		img.Pix[p+2] = 0xc0
		img.Pix[p+3] = 0xff
	}
	return img
}

func (s *solidStream) Close() error { return nil }

// sizedOpener opens a stream whose size depends on the device path.
type sizedOpener struct {
	sizes map[string]image.Point
	fail  error
}

func (o *sizedOpener) Open(ctx context.Context, dev camera.Device, c camera.Constraints) (camera.Stream, error) {
	if o.fail != nil {
		return nil, o.fail
	}
	p := o.sizes[dev.Path]
	return &solidStream{w: p.X, h: p.Y}, nil
}

// fileBuffer stands in for the file the save dialog opens.
type fileBuffer struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (f *fileBuffer) Close() error {
	f.closed = true
	return f.closeErr
}

func newTestManager(t *testing.T, opener camera.Opener, paths ...string) (*AppManager, *timer.Virtual, *ui.View) {
	t.Helper()
	cfg := timer.DefaultScanConfig()
	cfg.ScanDurationMs = 200
	cfg.StartDelayMs = 1000
	cfg.BandWidth = 3

	v := timer.NewVirtual()
	a, err := newAppManager(cfg, camera.NewSession(camera.Fixed(paths...), opener, 16, 8), v)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	fyneApp := test.NewApp()
	t.Cleanup(fyneApp.Quit)
	w, view := ui.CreateMainWindow(a, fyneApp)
	t.Cleanup(w.Close)
	a.SetView(w, view)
	return a, v, view
}

func command(cmd control.Command) (control.Command, chan error) {
	reply := make(chan error, 1)
	cmd.Reply = reply
	return cmd, reply
}

func runToDone(t *testing.T, a *AppManager, v *timer.Virtual, dir sequence.Direction) {
	t.Helper()
	cmd, reply := command(control.Command{Type: control.CmdScan, Direction: dir})
	a.handleCommand(cmd)
	require.NoError(t, <-reply)
	v.RunUntilIdle(1000)
	require.Equal(t, phase.StateDone, a.ctrl.State())
}

func TestHandleCommandScanThenDownload(t *testing.T) {
	op := &sizedOpener{sizes: map[string]image.Point{"/dev/video0": {X: 16, Y: 8}}}
	a, v, view := newTestManager(t, op, "/dev/video0")
	require.NoError(t, a.acquire(camera.Constraints{Facing: camera.User}))

	runToDone(t, a, v, sequence.Vertical)
	assert.False(t, view.Download.Hidden)
	assert.Equal(t, i18n.T("Done"), view.Status())

	out := &fileBuffer{}
	cmd, reply := command(control.Command{Type: control.CmdDownload, Writer: out})
	a.handleCommand(cmd)
	require.NoError(t, <-reply)
	assert.True(t, out.closed)

	img, err := jpeg.Decode(&out.Buffer)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
}

func TestHandleCommandUnknown(t *testing.T) {
	a, _, _ := newTestManager(t, &sizedOpener{}, "/dev/video0")

	cmd, reply := command(control.Command{Type: control.CommandType(42)})
	a.handleCommand(cmd)
	assert.ErrorContains(t, <-reply, "unknown command")
}

func TestExportBeforeScanWritesNothing(t *testing.T) {
	op := &sizedOpener{sizes: map[string]image.Point{"/dev/video0": {X: 16, Y: 8}}}
	a, _, _ := newTestManager(t, op, "/dev/video0")
	require.NoError(t, a.acquire(camera.Constraints{}))

	out := &fileBuffer{}
	err := a.export(out)
	assert.ErrorIs(t, err, phase.ErrNotReady)
	assert.Zero(t, out.Len())
	assert.True(t, out.closed)

	assert.Error(t, a.export(nil))
}

func TestExportAggregatesCloseFailure(t *testing.T) {
	op := &sizedOpener{sizes: map[string]image.Point{"/dev/video0": {X: 16, Y: 8}}}
	a, v, _ := newTestManager(t, op, "/dev/video0")
	require.NoError(t, a.acquire(camera.Constraints{}))

	diskFull := errors.New("disk full")
	out := &fileBuffer{closeErr: diskFull}
	err := a.export(out)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.ErrorIs(t, err, phase.ErrNotReady)
	assert.ErrorIs(t, err, diskFull)

	runToDone(t, a, v, sequence.Horizontal)
	out = &fileBuffer{closeErr: diskFull}
	err = a.export(out)
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)
	assert.ErrorIs(t, err, diskFull)
	assert.NotZero(t, out.Len())
}

func TestFlipResetsFinishedRun(t *testing.T) {
	op := &sizedOpener{sizes: map[string]image.Point{
		"/dev/video0": {X: 16, Y: 8},
		"/dev/video1": {X: 24, Y: 12},
	}}
	a, v, view := newTestManager(t, op, "/dev/video0", "/dev/video1")
	require.NoError(t, a.acquire(camera.Constraints{Facing: camera.User}))
	assert.True(t, a.session.CanFlip())

	runToDone(t, a, v, sequence.Horizontal)
	require.False(t, view.Download.Hidden)

	cmd, reply := command(control.Command{Type: control.CmdFlip})
	a.handleCommand(cmd)
	require.NoError(t, <-reply)

	s := a.ctrl.Snapshot()
	assert.Equal(t, phase.StateIdle, s.State)
	assert.Equal(t, 24, s.Width)
	assert.Equal(t, 12, s.Height)
	assert.True(t, view.Download.Hidden)
	assert.Equal(t, i18n.T("Ready"), view.Status())

	// the blank surface is published, not the previous capture
	last := a.frames.Latest()
	require.NotNil(t, last)
	assert.Equal(t, image.Rect(0, 0, 24, 12), last.Bounds())
	assert.Equal(t, color.RGBA{}, color.RGBAModel.Convert(last.At(20, 10)))

	assert.ErrorIs(t, a.export(&fileBuffer{}), phase.ErrNotReady)
}

func TestAcquireFailureReportsNoFeed(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	op := &sizedOpener{fail: errors.New("device busy")}
	a, _, view := newTestManager(t, op, "/dev/video0")

	err := a.acquire(camera.Constraints{})
	var ae *camera.AcquireError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, camera.NotReadableError, ae.Name)

	a.onError(err)
	assert.Contains(t, logs.String(), "NotReadableError: device busy")
	assert.Equal(t, i18n.T("No camera feed"), view.Status())
}

func TestRunFailureShownAsError(t *testing.T) {
	a, _, view := newTestManager(t, &sizedOpener{}, "/dev/video0")

	a.onError(errors.New("scan exploded"))
	assert.Contains(t, view.Status(), "scan exploded")
}
