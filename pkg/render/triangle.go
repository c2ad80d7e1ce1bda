package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taigrr/scanline/pkg/math3d"
)

// Triangle is a screen-space triangle ready for rasterization.
//
// Points hold screen X and Y in pixels, Z after the perspective divide and
// W as the original view-space depth, which drives depth testing and
// perspective-correct texturing.
type Triangle struct {
	Points    [3]math3d.Vec4
	TexCoords [3]math3d.Vec2 // Image space, (0, 0) is the top-left texel
	Color     Color          // Shaded face color
	Texture   *Texture       // Used by textured modes, may be nil
}

// Depth returns the average view-space depth of the triangle.
func (t *Triangle) Depth() float64 {
	return (t.Points[0].W + t.Points[1].W + t.Points[2].W) / 3
}

// Mode selects which primitives are drawn for each triangle.
// Flags combine; ModeTextured takes precedence over ModeFilled.
type Mode uint8

const (
	ModeWireframe Mode = 1 << iota // Triangle edges
	ModeFilled                     // Solid face color
	ModeTextured                   // Perspective-correct texture
	ModeVertices                   // Small squares on each vertex
)

// Named presets, one per number key in the interactive viewer.
const (
	ModeWire         = ModeWireframe
	ModeWireVertex   = ModeWireframe | ModeVertices
	ModeFill         = ModeFilled
	ModeFillWire     = ModeFilled | ModeWireframe
	ModeTexture      = ModeTextured
	ModeTexturedWire = ModeTextured | ModeWireframe
)

var modeNames = []struct {
	name string
	mode Mode
}{
	{"wire", ModeWire},
	{"wire+vertex", ModeWireVertex},
	{"fill", ModeFill},
	{"fill+wire", ModeFillWire},
	{"textured", ModeTexture},
	{"textured+wire", ModeTexturedWire},
}

// Has reports whether every flag in f is set.
func (m Mode) Has(f Mode) bool {
	return m&f == f
}

func (m Mode) String() string {
	for _, n := range modeNames {
		if n.mode == m {
			return n.name
		}
	}
	var parts []string
	for _, f := range []struct {
		name string
		mode Mode
	}{{"wire", ModeWireframe}, {"fill", ModeFilled}, {"textured", ModeTextured}, {"vertex", ModeVertices}} {
		if m.Has(f.mode) {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// ErrUnknownMode is returned by ParseMode and ParseCullMode.
var ErrUnknownMode = errors.New("render: unknown mode")

// ParseMode parses one of the preset names ("wire", "wire+vertex", "fill",
// "fill+wire", "textured", "textured+wire").
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range modeNames {
		if n.name == s {
			return n.mode, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMode, s)
}

// CullMode controls back-face culling.
type CullMode uint8

const (
	CullBackface CullMode = iota // Drop faces pointing away from the camera
	CullNone                     // Draw both sides
)

func (c CullMode) String() string {
	if c == CullNone {
		return "none"
	}
	return "backface"
}

// ParseCullMode parses "backface" or "none".
func ParseCullMode(s string) (CullMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "backface", "back", "":
		return CullBackface, nil
	case "none", "off":
		return CullNone, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMode, s)
}
