// Package sequence implements the two timed phases: the countdown shown
// before a capture and the scan that reveals the live source band by band.
//
// Both phases keep their progress in a small state value that each tick takes
// and returns. Ticks are scheduled through a timer.Scheduler and the shared
// timer.Handle, so the caller decides which goroutine they run on and can
// cancel a phase by clearing the handle.
package sequence

import (
	"fmt"
	"image"
	"strings"
)

// Direction selects the axis the scan advances along.
type Direction int

const (
	Horizontal Direction = iota // band moves left to right
	Vertical                    // band moves top to bottom
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "horizontal"/"h" and "vertical"/"v".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	}
	return 0, fmt.Errorf("unknown scan direction %q", s)
}

// bound is the source extent along the scan axis.
func (d Direction) bound(w, h int) int {
	if d == Vertical {
		return h
	}
	return w
}

// band returns the strip of the given width starting at pos on the scan axis,
// spanning the full perpendicular extent of a w×h frame.
func (d Direction) band(pos, width, w, h int) image.Rectangle {
	if d == Vertical {
		return image.Rect(0, pos, w, pos+width)
	}
	return image.Rect(pos, 0, pos+width, h)
}
