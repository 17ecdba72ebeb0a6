package httpapi

import (
	"fmt"
	"image/jpeg"
	"log"
	"net/http"
)

const boundary = "BOUNDARY"

// mjpegHandler streams published frames as multipart/x-mixed-replace until
// the client goes away.
type mjpegHandler struct {
	frames *Frames
}

func (h mjpegHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	frames, cancel := h.frames.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace;boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	for {
		select {
		case <-r.Context().Done():
			return
		case img := <-frames:
			if img.Bounds().Empty() {
				continue
			}
			if _, err := fmt.Fprint(w, "--"+boundary+"\r\n"+
				"Content-Type: image/jpeg\r\n"+
				"\r\n"); err != nil {
				return
			}
			if err := jpeg.Encode(w, img, &jpeg.Options{Quality: PreviewQuality}); err != nil {
				log.Printf("preview: %v", err)
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
