package surface

import (
	"image"
	"image/color"
)

// Still is a Source that always returns the same image.
type Still struct {
	img image.Image
}

// NewStill wraps img as a Source.
func NewStill(img image.Image) *Still {
	return &Still{img: img}
}

// NewSolid returns a w×h source of a single colour.
func NewSolid(w, h int, c color.Color) *Still {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := c.RGBA()
		img.Pix[i+0] = uint8(r >> 8)
		img.Pix[i+1] = uint8(g >> 8)
		img.Pix[i+2] = uint8(b >> 8)
		img.Pix[i+3] = uint8(a >> 8)
	}
	return &Still{img: img}
}

// Size returns the image dimensions, zero when there is no image.
func (s *Still) Size() (w, h int) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Frame returns the wrapped image.
func (s *Still) Frame() image.Image {
	return s.img
}
