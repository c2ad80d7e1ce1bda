package render

import "image/color"

// Color is a packed 32-bit pixel in 0xAARRGGBB order.
// It implements image/color.Color.
type Color uint32

// Colors for convenience
const (
	ColorBlack   Color = 0xFF000000
	ColorWhite   Color = 0xFFFFFFFF
	ColorRed     Color = 0xFFFF0000
	ColorGreen   Color = 0xFF00FF00
	ColorBlue    Color = 0xFF0000FF
	ColorYellow  Color = 0xFFFFFF00
	ColorCyan    Color = 0xFF00FFFF
	ColorMagenta Color = 0xFFFF00FF
	ColorGray    Color = 0xFF808080
	ColorGrid    Color = 0xFF333333
)

// RGB creates an opaque color from RGB values.
func RGB(r, g, b uint8) Color {
	return ARGB(255, r, g, b)
}

// ARGB creates a color from alpha and RGB values.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// A returns the alpha channel.
func (c Color) A() uint8 { return uint8(c >> 24) }

// R returns the red channel.
func (c Color) R() uint8 { return uint8(c >> 16) }

// G returns the green channel.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B returns the blue channel.
func (c Color) B() uint8 { return uint8(c) }

// RGBA implements image/color.Color. The result is alpha-premultiplied.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(c.A())
	r = uint32(c.R()) * a / 0xff
	g = uint32(c.G()) * a / 0xff
	b = uint32(c.B()) * a / 0xff
	return r * 0x101, g * 0x101, b * 0x101, a * 0x101
}

// ApplyIntensity scales the RGB channels by f, clamped to [0, 1].
// Alpha is preserved.
func ApplyIntensity(c Color, f float64) Color {
	f = max(0, min(1, f))
	return ARGB(
		c.A(),
		uint8(float64(c.R())*f),
		uint8(float64(c.G())*f),
		uint8(float64(c.B())*f),
	)
}

// FromColor converts any color.Color to a packed Color.
func FromColor(c color.Color) Color {
	r, g, b, a := c.RGBA()
	// Undo premultiplication so stored channels are straight alpha.
	if a == 0 {
		return 0
	}
	if a != 0xffff {
		r = r * 0xffff / a
		g = g * 0xffff / a
		b = b * 0xffff / a
	}
	return ARGB(uint8(a>>8), uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

var _ color.Color = Color(0)
