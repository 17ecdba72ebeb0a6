package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"sync"

	"github.com/blackjack/webcam"
	"github.com/hashicorp/go-multierror"
)

// pixFmtMJPEG is V4L2_PIX_FMT_MJPEG ('M','J','P','G').
const pixFmtMJPEG webcam.PixelFormat = 0x47504A4D

// waitTimeout is how long, in seconds, one WaitForFrame call may block.
const waitTimeout = 1

func mjpegFormat(formats map[webcam.PixelFormat]string) (webcam.PixelFormat, bool) {
	for f, desc := range formats {
		if f == pixFmtMJPEG || desc == "Motion-JPEG" {
			return f, true
		}
	}
	return 0, false
}

// V4L2Opener opens local webcams through blackjack/webcam.
type V4L2Opener struct{}

// Open starts an MJPEG stream on dev at the requested size, or the closest
// size the driver accepts.
func (V4L2Opener) Open(ctx context.Context, dev Device, c Constraints) (Stream, error) {
	cam, err := webcam.Open(dev.Path)
	if err != nil {
		return nil, &AcquireError{Name: NotReadableError, Err: err}
	}

	format, ok := mjpegFormat(cam.GetSupportedFormats())
	if !ok {
		cam.Close()
		return nil, &AcquireError{Name: NotSupportedError, Err: fmt.Errorf("%s: no MJPEG format", dev.Path)}
	}
	_, w, h, err := cam.SetImageFormat(format, uint32(c.Width), uint32(c.Height))
	if err != nil {
		cam.Close()
		return nil, &AcquireError{Name: OverconstrainedError, Err: err}
	}
	if err := cam.SetBufferCount(4); err != nil {
		log.Printf("%s: set buffer count: %v", dev.Path, err)
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, &AcquireError{Name: NotReadableError, Err: err}
	}
	log.Printf("streaming %s at %dx%d", dev.Path, w, h)

	ctx, cancel := context.WithCancel(ctx)
	s := &webcamStream{cam: cam, path: dev.Path, cancel: cancel, done: make(chan struct{})}
	go s.capture(ctx)
	return s, nil
}

type webcamStream struct {
	cam    *webcam.Webcam
	path   string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	latest image.Image
}

// capture reads frames until ctx ends, keeping only the newest.
func (s *webcamStream) capture(ctx context.Context) {
	defer close(s.done)
	for ctx.Err() == nil {
		err := s.cam.WaitForFrame(waitTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			log.Printf("%s: wait for frame: %v", s.path, err)
			return
		}

		frame, err := s.cam.ReadFrame()
		if err != nil {
			log.Printf("%s: read frame: %v", s.path, err)
			continue
		}
		if len(frame) == 0 {
			continue
		}
		img, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.latest = img
		s.mu.Unlock()
	}
}

func (s *webcamStream) Size() (w, h int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return 0, 0
	}
	b := s.latest.Bounds()
	return b.Dx(), b.Dy()
}

func (s *webcamStream) Frame() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Close stops the capture goroutine and releases the device.
func (s *webcamStream) Close() error {
	s.cancel()
	<-s.done

	var result error
	if err := s.cam.StopStreaming(); err != nil {
		result = multierror.Append(result, fmt.Errorf("stop streaming: %w", err))
	}
	if err := s.cam.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close: %w", err))
	}
	return result
}
