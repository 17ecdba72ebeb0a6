package camera

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Session owns the current stream and the facing mode. It is itself a
// surface.Source that follows whichever stream is current, so consumers keep
// one reference across flips.
type Session struct {
	enumerate Enumerator
	opener    Opener
	width     int
	height    int

	mu      sync.RWMutex
	facing  Facing
	current Stream
	// failures closing replaced streams, reported by Close
	closeErr error
}

// NewSession creates a session that has not acquired anything yet. The
// facing mode starts at User.
func NewSession(enumerate Enumerator, opener Opener, width, height int) *Session {
	return &Session{enumerate: enumerate, opener: opener, width: width, height: height, facing: User}
}

// Facing returns the current facing mode.
func (s *Session) Facing() Facing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facing
}

// Inputs lists the video input devices.
func (s *Session) Inputs() ([]Device, error) {
	devs, err := s.enumerate()
	if err != nil {
		return nil, err
	}
	return VideoInputs(devs), nil
}

// CanFlip reports whether more than one video input exists. Enumeration
// errors are logged and treated as "no".
func (s *Session) CanFlip() bool {
	inputs, err := s.Inputs()
	if err != nil {
		log.Printf("enumerate devices: %v", err)
		return false
	}
	return len(inputs) > 1
}

// Acquire opens a stream for c and makes it current, closing the previous
// one. On failure the previous stream stays current and the returned error
// is an *AcquireError. There is no retry.
func (s *Session) Acquire(ctx context.Context, c Constraints) error {
	if c.Audio {
		return &AcquireError{Name: NotSupportedError, Err: ErrAudio}
	}
	if c.Width == 0 && c.Height == 0 {
		c.Width, c.Height = s.width, s.height
	}

	inputs, err := s.Inputs()
	if err != nil {
		return &AcquireError{Name: NotFoundError, Err: err}
	}
	if len(inputs) == 0 {
		return &AcquireError{Name: NotFoundError, Err: ErrNoDevice}
	}
	dev := pickDevice(inputs, c.Facing)

	stream, err := s.opener.Open(ctx, dev, c)
	if err != nil {
		if _, ok := err.(*AcquireError); ok {
			return err
		}
		return &AcquireError{Name: NotReadableError, Err: err}
	}
	log.Printf("acquired %s facing %s", dev.Path, c.Facing)

	s.mu.Lock()
	old := s.current
	s.current = stream
	s.facing = c.Facing
	s.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Printf("closing previous stream: %v", err)
			s.mu.Lock()
			s.closeErr = multierror.Append(s.closeErr, fmt.Errorf("closing previous stream: %w", err))
			s.mu.Unlock()
		}
	}
	return nil
}

// Flip toggles the facing mode and re-acquires. The facing mode toggles even
// when the new stream cannot be opened.
func (s *Session) Flip(ctx context.Context) error {
	s.mu.Lock()
	s.facing = s.facing.Toggle()
	facing := s.facing
	s.mu.Unlock()
	return s.Acquire(ctx, Constraints{Facing: facing})
}

// Size returns the current stream's frame size, zero without a stream.
func (s *Session) Size() (w, h int) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return 0, 0
	}
	return cur.Size()
}

// Frame returns the current stream's latest frame, nil without a stream.
func (s *Session) Frame() image.Image {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return nil
	}
	return cur.Frame()
}

// Close releases the current stream. Its error also carries every failure
// to close a stream replaced by Acquire since the last Close.
func (s *Session) Close() error {
	s.mu.Lock()
	cur := s.current
	result := s.closeErr
	s.current = nil
	s.closeErr = nil
	s.mu.Unlock()
	if cur != nil {
		if err := cur.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
