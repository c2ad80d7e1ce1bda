// Package render rasterizes screen-space triangles into a color and depth
// buffer and presents the result to a terminal or an image.
package render

import (
	"image"
	"image/png"
	"math"
	"os"
)

// Framebuffer is a 2D array of pixels plus a parallel depth buffer.
// When presented to a terminal each cell shows two vertically stacked
// pixels using half-block characters (▀).
type Framebuffer struct {
	Width  int       // Width in "pixels" (same as terminal columns)
	Height int       // Height in "pixels" (2x terminal rows due to half-blocks)
	Pixels []Color   // Row-major pixel data
	Depth  []float64 // Row-major depth, 0 = near, 1 = cleared/far
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
// Height should be 2x the desired terminal rows for half-block rendering.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
		Depth:  make([]float64, width*height),
	}
	fb.ClearDepth()
	return fb
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c Color) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// ClearDepth resets every depth value to 1.0 (farthest).
func (fb *Framebuffer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(fb.Depth)
	if n == 0 {
		return
	}
	fb.Depth[0] = 1.0
	for i := 1; i < n; i *= 2 {
		copy(fb.Depth[i:], fb.Depth[:i])
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Out-of-range coordinates are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return 0
	}
	return fb.Pixels[y*fb.Width+x]
}

// DepthAt returns the stored depth at (x, y), or 1.0 if out of bounds.
func (fb *Framebuffer) DepthAt(x, y int) float64 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return 1.0
	}
	return fb.Depth[y*fb.Width+x]
}

// depthTest stores depth at (x, y) and reports true when it is strictly
// nearer than the current value. Out-of-range pixels always fail.
func (fb *Framebuffer) depthTest(x, y int, depth float64) bool {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return false
	}
	i := y*fb.Width + x
	if depth < fb.Depth[i] {
		fb.Depth[i] = depth
		return true
	}
	return false
}

// DrawLine draws a line from (x0, y0) to (x1, y1) with a digital
// differential analyzer: it steps the longer axis one pixel at a time and
// rounds the other.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c Color) {
	dx := x1 - x0
	dy := y1 - y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		fb.SetPixel(x0, y0, c)
		return
	}

	xInc := float64(dx) / float64(steps)
	yInc := float64(dy) / float64(steps)
	x, y := float64(x0), float64(y0)
	for range steps + 1 {
		fb.SetPixel(int(math.Round(x)), int(math.Round(y)), c)
		x += xInc
		y += yInc
	}
}

// DrawRect draws a filled rectangle.
func (fb *Framebuffer) DrawRect(x, y, w, h int, c Color) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			fb.SetPixel(px, py, c)
		}
	}
}

// DrawGrid plots a dot every spacing pixels in both directions.
func (fb *Framebuffer) DrawGrid(spacing int, c Color) {
	if spacing <= 0 {
		return
	}
	for y := 0; y < fb.Height; y += spacing {
		for x := 0; x < fb.Width; x += spacing {
			fb.Pixels[y*fb.Width+x] = c
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			r, g, b, a := fb.Pixels[y*fb.Width+x].RGBA()
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(r >> 8)
			img.Pix[i+1] = uint8(g >> 8)
			img.Pix[i+2] = uint8(b >> 8)
			img.Pix[i+3] = uint8(a >> 8)
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, fb.ToImage())
}
