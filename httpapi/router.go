// Package httpapi exposes the booth over HTTP so it can be triggered and
// watched from another machine.
package httpapi

import (
	"ScanBooth/camera"
	"ScanBooth/capture"
	"ScanBooth/control"
	"ScanBooth/phase"
	"ScanBooth/sequence"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// PreviewQuality is the JPEG quality of the preview stream.
const PreviewQuality = 75

// Backend is the application as seen by the HTTP handlers.
type Backend interface {
	EnqueueCommand(cmd control.Command)
	Status(ctx context.Context) (phase.Snapshot, error)
}

var errTimeout = errors.New("command timed out")

type server struct {
	backend Backend
	frames  *Frames
	timeout time.Duration
}

// NewRouter wires the routes. frames may be nil, in which case /preview is
// not served.
func NewRouter(b Backend, frames *Frames) *mux.Router {
	return routes(&server{backend: b, frames: frames, timeout: 5 * time.Second})
}

func routes(s *server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/scan/{direction}", s.handleScan).Methods("POST")
	r.HandleFunc("/flip", s.handleFlip).Methods("POST")
	r.HandleFunc("/snapshot.jpg", s.handleSnapshot).Methods("GET")
	if s.frames != nil {
		r.Handle("/preview", mjpegHandler{frames: s.frames}).Methods("GET")
	}
	return r
}

// do runs cmd on the application loop and waits for its reply.
func (s *server) do(ctx context.Context, cmd control.Command) error {
	cmd.Reply = make(chan error, 1)
	s.backend.EnqueueCommand(cmd)
	select {
	case err := <-cmd.Reply:
		return err
	case <-time.After(s.timeout):
		return errTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.backend.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	dir, err := sequence.ParseDirection(mux.Vars(r)["direction"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.do(r.Context(), control.Command{Type: control.CmdScan, Direction: dir}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "started", dir)
}

func (s *server) handleFlip(w http.ResponseWriter, r *http.Request) {
	if err := s.do(r.Context(), control.Command{Type: control.CmdFlip}); err != nil {
		writeError(w, err)
		return
	}
	fmt.Fprintln(w, "OK")
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.do(r.Context(), control.Command{Type: control.CmdDownload, Writer: &buf}); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", capture.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+capture.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var acquireErr *camera.AcquireError
	switch {
	case errors.Is(err, phase.ErrNotReady):
		status = http.StatusConflict
	case errors.As(err, &acquireErr), errors.Is(err, errTimeout):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return
	}
	log.Printf("http: %v", err)
	http.Error(w, err.Error(), status)
}
