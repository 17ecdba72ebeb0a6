package camera

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Replay plays back a directory of recorded JPEG frames (000000.jpg,
// 000001.jpg, ...). The frame shown is chosen by Clock, so a replay driven
// by a virtual clock renders identically on every run.
type Replay struct {
	frames   []image.Image
	interval time.Duration
	clock    func() time.Duration
}

// LoadReplay decodes every *.jpg in dir in name order.
func LoadReplay(dir string, fps int, clock func() time.Duration) (*Replay, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("replay fps must be positive, got %d", fps)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &AcquireError{Name: NotFoundError, Err: fmt.Errorf("no frames in %s", dir)}
	}
	sort.Strings(paths)

	r := &Replay{interval: time.Second / time.Duration(fps), clock: clock}
	for _, p := range paths {
		img, err := decodeFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		r.frames = append(r.frames, img)
	}
	return r, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return jpeg.Decode(bufio.NewReader(f))
}

// Len returns the number of frames.
func (r *Replay) Len() int {
	return len(r.frames)
}

// Frame returns the frame due at the clock's current time, looping.
func (r *Replay) Frame() image.Image {
	i := int(r.clock()/r.interval) % len(r.frames)
	return r.frames[i]
}

// Size returns the size of the current frame.
func (r *Replay) Size() (w, h int) {
	b := r.Frame().Bounds()
	return b.Dx(), b.Dy()
}

// Close is a no-op; the frames live in memory.
func (r *Replay) Close() error {
	return nil
}
