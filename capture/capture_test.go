package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncodeKeepsDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, solid(64, 48, color.RGBA{R: 200, A: 255})))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)
}

func TestEncodeHighQuality(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, solid(16, 16, color.RGBA{R: 200, G: 40, B: 10, A: 255})))

	img, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	r, g, b, _ := img.At(8, 8).RGBA()
	assert.InDelta(t, 200, r>>8, 8)
	assert.InDelta(t, 40, g>>8, 8)
	assert.InDelta(t, 10, b>>8, 8)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path, err := Save(dir, solid(8, 8, color.White))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my-image.jpg"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
}

func TestSaveMissingDir(t *testing.T) {
	_, err := Save(filepath.Join(t.TempDir(), "missing"), solid(1, 1, color.Black))
	assert.Error(t, err)
}
