package imaging

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a representative color: 3 (RGB) or 4 (RGBA) channels, each in the
// 8-bit range 0-255. Channel values are float64 so that centroids keep their
// fractional part for nearest-neighbor matching.
type Color []float64

// RGBA returns a 4-channel Color from 8-bit components.
func RGBA(r, g, b, a uint8) Color {
	return Color{float64(r), float64(g), float64(b), float64(a)}
}

// RGB returns a 3-channel Color from 8-bit components.
func RGB(r, g, b uint8) Color {
	return Color{float64(r), float64(g), float64(b)}
}

// Dims returns the number of channels.
func (c Color) Dims() int { return len(c) }

// Narrow returns c restricted to its first n channels. A 3-channel color widened
// to 4 gains an opaque alpha channel.
func (c Color) Narrow(n int) Color {
	out := make(Color, n)
	copy(out, c)
	for i := len(c); i < n; i++ {
		out[i] = 255
	}
	return out
}

// Equal reports whether both colors have the same channels with identical values.
func (c Color) Equal(o Color) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// NRGBA rounds and clamps the color to an 8-bit color.NRGBA. Missing alpha is opaque.
func (c Color) NRGBA() color.NRGBA {
	ch := func(i int) uint8 {
		if i >= len(c) {
			return 0xff
		}
		return uint8(math.Round(math.Max(0, math.Min(255, c[i]))))
	}
	return color.NRGBA{R: ch(0), G: ch(1), B: ch(2), A: ch(3)}
}

// Hex renders the RGB channels as "#rrggbb". Alpha is not included.
func (c Color) Hex() string {
	n := c.NRGBA()
	return colorful.Color{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
	}.Hex()
}

// ParseHex parses "#rrggbb" into an opaque 4-channel Color.
func ParseHex(s string) (Color, error) {
	cf, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := cf.RGB255()
	return RGBA(r, g, b, 0xff), nil
}
