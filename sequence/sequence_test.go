package sequence

import (
	"ScanBooth/surface"
	"ScanBooth/timer"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
)

var (
	overlay = color.RGBA{G: 0xff, A: 0xff}
	blue    = color.RGBA{B: 0xff, A: 0xff}
)

func testFace(t *testing.T) font.Face {
	t.Helper()
	face, err := surface.NewFace(24)
	require.NoError(t, err)
	return face
}

type scanRun struct {
	ticks  int
	delays []time.Duration
	done   int
	final  ScanState
}

func runScan(t *testing.T, dir Direction, w, h, band int, duration time.Duration) scanRun {
	t.Helper()
	v := timer.NewVirtual()
	var handle timer.Handle
	var run scanRun
	last := v.Now()

	_, err := Scan(ScanOptions{
		Direction: dir,
		Source:    surface.NewSolid(w, h, blue),
		Target:    surface.New(1, 1),
		Duration:  duration,
		BandWidth: band,
		Overlay:   overlay,
		Scheduler: v,
		Timer:     &handle,
		OnTick: func(s ScanState) {
			run.ticks++
			run.delays = append(run.delays, v.Now()-last)
			last = v.Now()
		},
		OnDone: func(s ScanState) {
			run.done++
			run.final = s
		},
	})
	require.NoError(t, err)
	v.RunUntilIdle(1 << 20)
	return run
}

func TestScanTickCount(t *testing.T) {
	for _, tc := range []struct {
		w, h, band int
	}{
		{10, 4, 1},
		{10, 4, 3},
		{10, 4, 10},
		{10, 4, 11},
		{640, 480, 7},
		{1, 1, 1},
	} {
		run := runScan(t, Horizontal, tc.w, tc.h, tc.band, time.Second)
		want := (tc.w + tc.band - 1) / tc.band
		assert.Equal(t, want, run.ticks, "w=%d band=%d", tc.w, tc.band)
		assert.Equal(t, 1, run.done)
		assert.GreaterOrEqual(t, run.final.Offset, tc.w)
	}
}

func TestScanDelaysSumToDuration(t *testing.T) {
	duration := 10 * time.Second
	for _, band := range []int{1, 2, 3, 7, 64, 480, 1000} {
		run := runScan(t, Vertical, 640, 480, band, duration)
		var sum time.Duration
		for _, d := range run.delays {
			sum += d
		}
		// one nanosecond of float truncation per tick at most
		assert.InDelta(t, float64(duration), float64(sum), float64(len(run.delays)), "band=%d", band)
	}
}

func TestScanFullBandsWaitTickDelay(t *testing.T) {
	run := runScan(t, Horizontal, 100, 10, 10, time.Second)
	require.Len(t, run.delays, 10)
	for _, d := range run.delays {
		assert.Equal(t, 100*time.Millisecond, d)
	}
}

func TestScanDirectionSymmetry(t *testing.T) {
	for _, band := range []int{1, 3, 5, 17} {
		h := runScan(t, Horizontal, 123, 45, band, time.Second)
		v := runScan(t, Vertical, 45, 123, band, time.Second)
		assert.Equal(t, h.ticks, v.ticks, "band=%d", band)
	}
}

func TestScanRejectsInvalidInputs(t *testing.T) {
	v := timer.NewVirtual()
	var handle timer.Handle
	base := ScanOptions{
		Direction: Horizontal,
		Source:    surface.NewSolid(8, 8, blue),
		Target:    surface.New(1, 1),
		Duration:  time.Second,
		BandWidth: 1,
		Overlay:   overlay,
		Scheduler: v,
		Timer:     &handle,
	}

	o := base
	o.Source = surface.NewStill(nil)
	_, err := Scan(o)
	assert.ErrorIs(t, err, ErrEmptySource)

	o = base
	o.BandWidth = 0
	_, err = Scan(o)
	assert.ErrorIs(t, err, ErrBandWidth)

	o = base
	o.Duration = 0
	_, err = Scan(o)
	assert.ErrorIs(t, err, ErrDuration)

	assert.Equal(t, 0, v.Pending())
	assert.False(t, handle.Pending())
}

func TestScanRevealsSourceAndMarksLeadingEdge(t *testing.T) {
	v := timer.NewVirtual()
	var handle timer.Handle
	target := surface.New(1, 1)

	state, err := Scan(ScanOptions{
		Direction: Horizontal,
		Source:    surface.NewSolid(10, 4, blue),
		Target:    target,
		Duration:  time.Second,
		BandWidth: 2,
		Overlay:   overlay,
		Scheduler: v,
		Timer:     &handle,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, state.Bound)

	w, h := target.Size()
	assert.Equal(t, 10, w)
	assert.Equal(t, 4, h)

	require.True(t, v.Step())
	img := target.Image()
	// offset 2: band [2,4) revealed, marker at [4,6)
	assert.Equal(t, blue, img.RGBAAt(2, 0))
	assert.Equal(t, blue, img.RGBAAt(3, 3))
	assert.Equal(t, overlay, img.RGBAAt(4, 0))
	assert.Equal(t, overlay, img.RGBAAt(5, 3))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(6, 0))

	// the next band replaces the marker
	require.True(t, v.Step())
	assert.Equal(t, blue, img.RGBAAt(4, 0))
	assert.Equal(t, overlay, img.RGBAAt(6, 0))
}

func TestScanVerticalBands(t *testing.T) {
	s, err := NewScanState(Vertical, 4, 10, 3, time.Second)
	require.NoError(t, err)
	target := surface.New(4, 10)
	src := surface.NewSolid(4, 10, blue)

	s = s.Step(src.Frame(), target, overlay)
	assert.Equal(t, 3, s.Offset)
	assert.Equal(t, blue, target.Image().RGBAAt(0, 3))
	assert.Equal(t, overlay, target.Image().RGBAAt(3, 6))
	assert.Equal(t, color.RGBA{}, target.Image().RGBAAt(0, 9))
}

func TestScanStepScalesChangedSource(t *testing.T) {
	s, err := NewScanState(Horizontal, 10, 10, 5, time.Second)
	require.NoError(t, err)
	target := surface.New(10, 10)
	// the stream was replaced by a shorter frame mid-scan
	src := surface.NewSolid(10, 5, blue)

	s = s.Step(src.Frame(), target, overlay)
	assert.Equal(t, blue, target.Image().RGBAAt(5, 9))
}

func TestClearingHandleStopsScan(t *testing.T) {
	v := timer.NewVirtual()
	var handle timer.Handle
	ticks := 0
	done := 0
	_, err := Scan(ScanOptions{
		Direction: Horizontal,
		Source:    surface.NewSolid(100, 10, blue),
		Target:    surface.New(1, 1),
		Duration:  time.Second,
		BandWidth: 1,
		Overlay:   overlay,
		Scheduler: v,
		Timer:     &handle,
		OnTick:    func(ScanState) { ticks++ },
		OnDone:    func(ScanState) { done++ },
	})
	require.NoError(t, err)

	v.Advance(105 * time.Millisecond)
	assert.Equal(t, 10, ticks)

	handle.Clear()
	v.Advance(10 * time.Second)
	assert.Equal(t, 10, ticks)
	assert.Equal(t, 0, done)
	assert.Equal(t, 0, v.Pending())
}

func TestCountdownFrames(t *testing.T) {
	v := timer.NewVirtual()
	var handle timer.Handle
	var shown []int
	var at []time.Duration
	done := 0

	Countdown(CountdownOptions{
		Delay:     3000 * time.Millisecond,
		Target:    surface.New(200, 200),
		Face:      testFace(t),
		Overlay:   overlay,
		Scheduler: v,
		Timer:     &handle,
		OnFrame: func(n int) {
			shown = append(shown, n)
			at = append(at, v.Now())
		},
		OnDone: func() { done++ },
	})
	// first frame is synchronous
	assert.Equal(t, []int{3}, shown)

	v.RunUntilIdle(100)
	assert.Equal(t, []int{3, 2, 1, 0}, shown)
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second, 3 * time.Second}, at)
	assert.Equal(t, 1, done)
	assert.Equal(t, 0, v.Pending())
}

func TestCountdownFloorsDelay(t *testing.T) {
	assert.Equal(t, 2, NewCountdownState(2999*time.Millisecond).Remaining)
	assert.Equal(t, 0, NewCountdownState(999*time.Millisecond).Remaining)
	assert.Equal(t, 0, NewCountdownState(-time.Second).Remaining)
}

func TestCountdownZeroDelayCompletesImmediately(t *testing.T) {
	v := timer.NewVirtual()
	var handle timer.Handle
	done := 0
	Countdown(CountdownOptions{
		Target:    surface.New(50, 50),
		Face:      testFace(t),
		Overlay:   overlay,
		Scheduler: v,
		Timer:     &handle,
		OnDone:    func() { done++ },
	})
	assert.Equal(t, 1, done)
	assert.False(t, handle.Pending())
}

func TestCountdownClearsBetweenFrames(t *testing.T) {
	target := surface.New(20, 20)
	target.Fill(image.Rect(0, 0, 20, 20), blue)
	s := CountdownState{Remaining: 1}
	s, done := s.Step(target, testFace(t), overlay)
	assert.False(t, done)
	assert.Equal(t, 0, s.Remaining)
	// the digit sits at 50,50 so the visible corner is cleared
	assert.Equal(t, color.RGBA{}, target.Image().RGBAAt(0, 0))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("Vertical")
	require.NoError(t, err)
	assert.Equal(t, Vertical, d)

	d, err = ParseDirection("h")
	require.NoError(t, err)
	assert.Equal(t, Horizontal, d)
	assert.Equal(t, "horizontal", d.String())

	_, err = ParseDirection("diagonal")
	assert.Error(t, err)
}
