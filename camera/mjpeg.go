package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
)

// MJPEGOpener opens network cameras serving multipart/x-mixed-replace JPEG
// streams. The device path is the stream URL; list them with Fixed.
type MJPEGOpener struct {
	Client *http.Client
}

// Open connects to the stream and starts reading frames in the background.
func (o MJPEGOpener) Open(ctx context.Context, dev Device, c Constraints) (Stream, error) {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dev.Path, nil)
	if err != nil {
		cancel()
		return nil, &AcquireError{Name: NotFoundError, Err: err}
	}
	req.Header.Set("Accept", "multipart/x-mixed-replace")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, &AcquireError{Name: NotReadableError, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &AcquireError{Name: NotReadableError, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		cancel()
		return nil, &AcquireError{Name: NotSupportedError, Err: fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))}
	}

	s := &mjpegStream{url: dev.Path, body: resp.Body, cancel: cancel, done: make(chan struct{})}
	// some servers put the delimiter dashes into the boundary parameter
	go s.read(multipart.NewReader(resp.Body, strings.TrimPrefix(params["boundary"], "--")))
	return s, nil
}

type mjpegStream struct {
	url    string
	body   io.Closer
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	latest image.Image
}

func (s *mjpegStream) read(mr *multipart.Reader) {
	defer close(s.done)
	buf := new(bytes.Buffer)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			log.Printf("%s: end of stream", s.url)
			return
		}
		if err != nil {
			log.Printf("%s: reading part: %v", s.url, err)
			return
		}

		buf.Reset()
		_, err = io.Copy(buf, part)
		part.Close()
		if err != nil {
			continue
		}
		img, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
		if err != nil {
			log.Printf("%s: decoding frame: %v (bytes: %d)", s.url, err, buf.Len())
			continue
		}
		s.mu.Lock()
		s.latest = img
		s.mu.Unlock()
	}
}

func (s *mjpegStream) Size() (w, h int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return 0, 0
	}
	b := s.latest.Bounds()
	return b.Dx(), b.Dy()
}

func (s *mjpegStream) Frame() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *mjpegStream) Close() error {
	s.cancel()
	err := s.body.Close()
	<-s.done
	return err
}
