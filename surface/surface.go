// Package surface holds the paintable frame that scans and countdowns draw
// on, and the Source interface for the live pixels they copy from.
package surface

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Source is a live pixel source. Its size may change whenever the
// underlying stream is replaced.
type Source interface {
	Size() (w, h int)
	Frame() image.Image
}

// Surface is a 2D RGBA raster. It is not safe for concurrent use; hand
// Snapshot copies to other goroutines.
type Surface struct {
	img *image.RGBA
}

// New creates a cleared surface of the given size.
func New(w, h int) *Surface {
	s := &Surface{}
	s.Resize(w, h)
	return s
}

// Resize reallocates the raster. Like a canvas, resizing always clears it.
func (s *Surface) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Reset resizes the surface to the source's current size and clears it.
func (s *Surface) Reset(src Source) {
	w, h := src.Size()
	s.Resize(w, h)
}

// Bounds returns the raster rectangle.
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Rect
}

// Size returns the raster width and height.
func (s *Surface) Size() (w, h int) {
	return s.img.Rect.Dx(), s.img.Rect.Dy()
}

// Clear makes r fully transparent.
func (s *Surface) Clear(r image.Rectangle) {
	draw.Draw(s.img, r.Intersect(s.img.Rect), image.Transparent, image.Point{}, draw.Src)
}

// Fill paints r with a solid colour. Parts outside the surface are ignored.
func (s *Surface) Fill(r image.Rectangle, c color.Color) {
	draw.Draw(s.img, r.Intersect(s.img.Rect), image.NewUniform(c), image.Point{}, draw.Src)
}

// CopyRegion scales srcRect of src into dstRect. The destination is clipped
// to the surface and the source rectangle is trimmed in proportion, so a band
// hanging past either edge copies only the pixels that exist.
func (s *Surface) CopyRegion(src image.Image, srcRect, dstRect image.Rectangle) {
	if src == nil || dstRect.Empty() || srcRect.Empty() {
		return
	}
	srcRect, dstRect = clipPair(srcRect, dstRect, src.Bounds())
	dstRect, srcRect = clipPair(dstRect, srcRect, s.img.Rect)
	if dstRect.Empty() || srcRect.Empty() {
		return
	}
	xdraw.NearestNeighbor.Scale(s.img, dstRect, src, srcRect, xdraw.Src, nil)
}

// clipPair intersects a with limit and shrinks b by the same proportions.
func clipPair(a, b, limit image.Rectangle) (image.Rectangle, image.Rectangle) {
	c := a.Intersect(limit)
	if c.Empty() {
		return image.Rectangle{}, image.Rectangle{}
	}
	if c == a {
		return a, b
	}
	sx := float64(b.Dx()) / float64(a.Dx())
	sy := float64(b.Dy()) / float64(a.Dy())
	nb := image.Rect(
		b.Min.X+int(float64(c.Min.X-a.Min.X)*sx),
		b.Min.Y+int(float64(c.Min.Y-a.Min.Y)*sy),
		b.Min.X+int(float64(c.Max.X-a.Min.X)*sx),
		b.Min.Y+int(float64(c.Max.Y-a.Min.Y)*sy),
	)
	return c, nb
}

// Image exposes the backing raster for encoders running on the owning
// goroutine.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Snapshot returns a private copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	cp := image.NewRGBA(s.img.Rect)
	copy(cp.Pix, s.img.Pix)
	return cp
}
