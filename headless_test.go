package main

import (
	"ScanBooth/camera"
	"ScanBooth/capture"
	"ScanBooth/sequence"
	"ScanBooth/timer"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrames(t *testing.T, dir string, n, w, h int) {
	t.Helper()
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p+2] = uint8(0x80 + 40*i)
			img.Pix[p+3] = 0xff
		}
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%06d.jpg", i)))
		require.NoError(t, err)
		require.NoError(t, jpeg.Encode(f, img, nil))
		require.NoError(t, f.Close())
	}
}

func TestRunHeadless(t *testing.T) {
	frames, out := t.TempDir(), t.TempDir()
	writeFrames(t, frames, 3, 16, 8)

	cfg := timer.DefaultScanConfig()
	cfg.ScanDurationMs = 200
	cfg.StartDelayMs = 1000
	cfg.BandWidth = 3

	for _, dir := range []sequence.Direction{sequence.Horizontal, sequence.Vertical} {
		path, err := runHeadless(cfg, frames, out, dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(out, capture.FileName), path)

		f, err := os.Open(path)
		require.NoError(t, err)
		img, err := jpeg.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())

		// the far edge is revealed, not transparent black
		_, _, b, _ := img.At(15, 7).RGBA()
		assert.NotZero(t, b>>8, "direction %s", dir)
	}
}

func TestRunHeadlessErrors(t *testing.T) {
	cfg := timer.DefaultScanConfig()

	_, err := runHeadless(cfg, t.TempDir(), t.TempDir(), sequence.Horizontal)
	var ae *camera.AcquireError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, camera.NotFoundError, ae.Name)

	frames := t.TempDir()
	writeFrames(t, frames, 1, 4, 4)
	cfg.OverlayColor = "not a colour"
	_, err = runHeadless(cfg, frames, t.TempDir(), sequence.Horizontal)
	assert.Error(t, err)
}
