// Package capture turns the finished surface into a downloadable JPEG.
package capture

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
)

const (
	// FileName is the name every export is offered under.
	FileName = "my-image.jpg"
	// Quality is the fixed JPEG quality, 0.95 on a 0..1 scale.
	Quality = 95
	// MimeType of the encoded image.
	MimeType = "image/jpeg"
)

// Encode writes img as JPEG at the fixed quality.
func Encode(w io.Writer, img image.Image) error {
	b := bufio.NewWriter(w)
	if err := jpeg.Encode(b, img, &jpeg.Options{Quality: Quality}); err != nil {
		return fmt.Errorf("encode capture: %w", err)
	}
	return b.Flush()
}

// Save writes img into dir under FileName and returns the full path.
func Save(dir string, img image.Image) (path string, err error) {
	path = filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := Encode(f, img); err != nil {
		return "", err
	}
	return path, nil
}
