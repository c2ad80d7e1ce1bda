package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to terminal cells and draws them on
// the screen.
// The framebuffer height should be 2x the terminal height.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	// Each terminal row represents 2 framebuffer rows
	// We use ▀ (upper half block) with fg=top color and bg=bottom color

	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col-area.Min.X < fb.Width; col++ {
			x := col - area.Min.X
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: termColor(fb.GetPixel(x, topY)),
					Bg: termColor(fb.GetPixel(x, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// termColor maps a pixel to a terminal color. Fully transparent pixels
// leave the terminal's own color showing.
func termColor(c Color) color.Color {
	if c.A() == 0 {
		return nil
	}
	return color.RGBA{R: c.R(), G: c.G(), B: c.B(), A: 255}
}

// Screen is a terminal screen that can be drawn into and then flushed.
type Screen interface {
	uv.Screen
	Display() error
}

// TerminalRenderer presents framebuffers on a terminal using half-block
// characters, two framebuffer rows per terminal row.
type TerminalRenderer struct {
	screen     Screen
	cols, rows int
}

// NewTerminalRenderer creates a renderer for a terminal of cols x rows cells.
func NewTerminalRenderer(scr Screen, cols, rows int) *TerminalRenderer {
	return &TerminalRenderer{screen: scr, cols: cols, rows: rows}
}

// FramebufferSize returns the framebuffer size that fills the terminal.
func (r *TerminalRenderer) FramebufferSize() (width, height int) {
	return r.cols, r.rows * 2
}

// Render draws fb into the screen buffer.
func (r *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(r.screen, uv.Rect(0, 0, r.cols, r.rows))
}

// Flush writes the screen buffer to the terminal.
func (r *TerminalRenderer) Flush() error {
	return r.screen.Display()
}
