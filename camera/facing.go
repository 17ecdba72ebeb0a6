// Package camera acquires live video for the booth: V4L2 webcams, network
// MJPEG cameras and recorded frame directories, plus the session glue that
// picks a device for a facing mode and swaps streams on a flip.
package camera

import (
	"ScanBooth/surface"
	"errors"
	"fmt"
)

// Facing is the requested camera orientation.
type Facing int

const (
	User        Facing = iota // front, "selfie"
	Environment               // rear
)

// Toggle returns the other facing mode.
func (f Facing) Toggle() Facing {
	if f == User {
		return Environment
	}
	return User
}

func (f Facing) String() string {
	if f == Environment {
		return "environment"
	}
	return "user"
}

// Constraints describe the stream to acquire. Audio is never captured; the
// field exists so callers state it explicitly.
type Constraints struct {
	Audio  bool
	Facing Facing
	Width  int
	Height int
}

// Stream is an open video stream. Frame returns the most recent decoded
// frame, or nil before the first one arrives.
type Stream interface {
	surface.Source
	Close() error
}

// Error names reported with a failed acquisition.
const (
	NotFoundError        = "NotFoundError"
	NotReadableError     = "NotReadableError"
	NotSupportedError    = "NotSupportedError"
	OverconstrainedError = "OverconstrainedError"
)

var (
	ErrNoDevice = errors.New("no video input device")
	ErrAudio    = errors.New("audio capture is not supported")
)

// AcquireError is a failed stream acquisition, named by kind.
type AcquireError struct {
	Name string
	Err  error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}
