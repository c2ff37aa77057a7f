package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Pixels is a row-major grid of 8-bit channel values with explicit shape.
//
// Pix holds Height rows of Width pixels, each pixel Channels consecutive bytes.
// For 4-channel grids the layout is identical to image.NRGBA with a stride of
// 4*Width, which lets thumbnails be copied into a canvas byte-for-byte.
type Pixels struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewPixels allocates a zeroed grid of the given shape.
func NewPixels(width, height, channels int) *Pixels {
	return &Pixels{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// FromImage copies img into a new 4-channel RGBA grid whose origin is (0,0).
//
// The conversion goes through imaging.Clone, so any source color model
// (YCbCr, paletted, 16-bit) ends up as non-premultiplied 8-bit RGBA.
func FromImage(img image.Image) *Pixels {
	return wrapNRGBA(imaging.Clone(img))
}

// wrapNRGBA adopts the backing array of an origin-anchored NRGBA image without copying.
// The caller must not retain img.
func wrapNRGBA(img *image.NRGBA) *Pixels {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride != 4*w || img.Rect.Min != (image.Point{}) {
		img = imaging.Clone(img)
	}
	return &Pixels{
		Width:    w,
		Height:   h,
		Channels: 4,
		Pix:      img.Pix[:w*h*4],
	}
}

// Validate checks that the shape is supported and consistent with Pix.
func (p *Pixels) Validate() error {
	if p.Channels != 3 && p.Channels != 4 {
		return fmt.Errorf("unsupported channel count %d (want 3 or 4)", p.Channels)
	}
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("invalid dimensions %dx%d", p.Width, p.Height)
	}
	if want := p.Width * p.Height * p.Channels; len(p.Pix) != want {
		return fmt.Errorf("pixel buffer holds %d bytes, shape %dx%dx%d needs %d",
			len(p.Pix), p.Width, p.Height, p.Channels, want)
	}
	return nil
}

// Len returns the number of pixels in the grid.
func (p *Pixels) Len() int { return p.Width * p.Height }

// Pixel returns the channel values at column x, row y. The slice aliases Pix.
func (p *Pixels) Pixel(x, y int) []uint8 {
	off := (y*p.Width + x) * p.Channels
	return p.Pix[off : off+p.Channels : off+p.Channels]
}

// ColorAt returns the pixel at column x, row y as a Color.
func (p *Pixels) ColorAt(x, y int) Color {
	px := p.Pixel(x, y)
	c := make(Color, len(px))
	for i, v := range px {
		c[i] = float64(v)
	}
	return c
}

// Row returns the bytes of row y. The slice aliases Pix.
func (p *Pixels) Row(y int) []uint8 {
	n := p.Width * p.Channels
	return p.Pix[y*n : (y+1)*n]
}

// Equal reports whether p and o have the same shape and pixel data.
func (p *Pixels) Equal(o *Pixels) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Width == o.Width && p.Height == o.Height &&
		p.Channels == o.Channels && bytes.Equal(p.Pix, o.Pix)
}

// Image exposes the grid as an image.Image suitable for encoding.
//
// 4-channel grids share their backing array with the returned *image.NRGBA.
// 3-channel grids are expanded into a new NRGBA with opaque alpha.
func (p *Pixels) Image() *image.NRGBA {
	rect := image.Rect(0, 0, p.Width, p.Height)
	if p.Channels == 4 {
		return &image.NRGBA{Pix: p.Pix, Stride: 4 * p.Width, Rect: rect}
	}
	out := image.NewNRGBA(rect)
	for i, j := 0, 0; i+2 < len(p.Pix); i, j = i+p.Channels, j+4 {
		out.Pix[j] = p.Pix[i]
		out.Pix[j+1] = p.Pix[i+1]
		out.Pix[j+2] = p.Pix[i+2]
		out.Pix[j+3] = 0xff
	}
	return out
}
