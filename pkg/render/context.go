package render

// Default colors used by a new Context.
const (
	DefaultWireColor   = ColorGreen
	DefaultVertexColor = ColorBlue
	DefaultGridSpacing = 10
)

// Context carries the render state for one target: what to draw, how to
// cull and whether to depth test. It replaces global render settings so
// several targets can be drawn independently.
type Context struct {
	Target      *Framebuffer
	Mode        Mode
	Cull        CullMode
	DepthTest   bool
	Background  Color
	GridSpacing int // 0 disables the background grid
	WireColor   Color
	VertexColor Color
}

// NewContext creates a context drawing wireframes with back-face culling
// and depth testing enabled.
func NewContext(target *Framebuffer) *Context {
	return &Context{
		Target:      target,
		Mode:        ModeWire,
		Cull:        CullBackface,
		DepthTest:   true,
		Background:  ColorBlack,
		GridSpacing: DefaultGridSpacing,
		WireColor:   DefaultWireColor,
		VertexColor: DefaultVertexColor,
	}
}

// Begin clears the color and depth buffers and draws the grid.
func (c *Context) Begin() {
	c.Target.Clear(c.Background)
	c.Target.ClearDepth()
	c.Target.DrawGrid(c.GridSpacing, ColorGrid)
}

// Rasterizer returns a rasterizer bound to the context's target.
func (c *Context) Rasterizer() Rasterizer {
	return Rasterizer{Target: c.Target, DepthTest: c.DepthTest}
}

// Draw rasterizes tris in order according to the context mode.
func (c *Context) Draw(tris []Triangle) {
	r := c.Rasterizer()
	for i := range tris {
		t := &tris[i]
		switch {
		case c.Mode.Has(ModeTextured):
			r.DrawTriangleTextured(t)
		case c.Mode.Has(ModeFilled):
			r.DrawTriangleFlat(t)
		}
		if c.Mode.Has(ModeWireframe) {
			r.DrawTriangleWire(t, c.WireColor)
		}
		if c.Mode.Has(ModeVertices) {
			r.DrawVertexMarkers(t, c.VertexColor)
		}
	}
}
