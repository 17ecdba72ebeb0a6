// Package control defines lightweight command messages used by the UI and
// the HTTP remote to request actions from the application loop. The loop
// centralizes state changes so the controller, the surface and the timer
// handle are only ever touched from one goroutine.
package control

import (
	"ScanBooth/sequence"
	"io"
)

// CommandType enumerates supported command operations.
type CommandType int

const (
	CmdScan CommandType = iota
	CmdDownload
	CmdFlip
)

func (c CommandType) String() string {
	switch c {
	case CmdScan:
		return "scan"
	case CmdDownload:
		return "download"
	case CmdFlip:
		return "flip"
	}
	return "unknown"
}

// Command is the message sent to AppManager's loop. The optional Reply
// channel receives the outcome (nil on success) and should be buffered.
type Command struct {
	Type      CommandType
	Direction sequence.Direction // CmdScan
	Writer    io.Writer          // CmdDownload destination
	Reply     chan error         // optional reply channel
}

// Respond delivers err on the reply channel without blocking.
func (c Command) Respond(err error) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- err:
	default:
	}
}
