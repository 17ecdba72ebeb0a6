package httpapi

import (
	"image"
	"sync"
)

// Frames fans rendered frames out to preview subscribers. Slow subscribers
// miss frames instead of holding up the publisher.
type Frames struct {
	mu     sync.Mutex
	subs   map[chan image.Image]struct{}
	latest image.Image
}

// NewFrames returns an empty broadcaster.
func NewFrames() *Frames {
	return &Frames{subs: make(map[chan image.Image]struct{})}
}

// Publish hands img to every subscriber. img must not be modified afterwards.
func (f *Frames) Publish(img image.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = img
	for ch := range f.subs {
		select {
		case ch <- img:
		default:
		}
	}
}

// Latest returns the last published frame, nil before the first one.
func (f *Frames) Latest() image.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// Subscribe returns a channel of frames, primed with the latest one, and a
// function that ends the subscription.
func (f *Frames) Subscribe() (<-chan image.Image, func()) {
	ch := make(chan image.Image, 1)
	f.mu.Lock()
	if f.latest != nil {
		ch <- f.latest
	}
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}
