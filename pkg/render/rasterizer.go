package render

import (
	"github.com/taigrr/scanline/pkg/math3d"
)

// VertexMarkerSize is the side length of the square drawn on each vertex.
const VertexMarkerSize = 6

// Rasterizer fills screen-space triangles into a framebuffer.
//
// Nothing here fails: pixels outside the target are dropped, and
// zero-area triangles draw nothing.
type Rasterizer struct {
	Target    *Framebuffer
	DepthTest bool
}

// NewRasterizer creates a rasterizer for fb with depth testing enabled.
func NewRasterizer(fb *Framebuffer) Rasterizer {
	return Rasterizer{Target: fb, DepthTest: true}
}

// DrawTriangleWire draws the three edges of t.
func (r Rasterizer) DrawTriangleWire(t *Triangle, c Color) {
	p := t.Points
	r.Target.DrawLine(int(p[0].X), int(p[0].Y), int(p[1].X), int(p[1].Y), c)
	r.Target.DrawLine(int(p[1].X), int(p[1].Y), int(p[2].X), int(p[2].Y), c)
	r.Target.DrawLine(int(p[2].X), int(p[2].Y), int(p[0].X), int(p[0].Y), c)
}

// DrawVertexMarkers draws a small filled square centered on each vertex.
func (r Rasterizer) DrawVertexMarkers(t *Triangle, c Color) {
	half := VertexMarkerSize / 2
	for _, p := range t.Points {
		r.Target.DrawRect(int(p.X)-half, int(p.Y)-half, VertexMarkerSize, VertexMarkerSize, c)
	}
}

// DrawTriangleFlat fills t with its face color. With depth testing on every
// pixel is tested against 1 - 1/w; without it the triangle is split into a
// flat-bottom and a flat-top half and drawn as horizontal lines.
func (r Rasterizer) DrawTriangleFlat(t *Triangle) {
	if !r.DepthTest {
		r.fillFlat(t)
		return
	}

	bc, ok := newBarycentric(t.Points)
	if !ok {
		return
	}
	invW := reciprocalW(t.Points)
	fb := r.Target

	scanTriangle(t.Points, func(y, xStart, xEnd int) {
		for x := xStart; x < xEnd; x++ {
			alpha, beta, gamma := bc.weights(float64(x)+0.5, float64(y)+0.5)
			w := alpha*invW[0] + beta*invW[1] + gamma*invW[2]
			if fb.depthTest(x, y, 1-w) {
				fb.SetPixel(x, y, t.Color)
			}
		}
	})
}

// DrawTriangleTextured fills t with its texture using perspective-correct
// interpolation: u/w, v/w and 1/w are interpolated with screen-space
// barycentric weights and then divided by the interpolated 1/w.
// Texture coordinates are in image space with (0, 0) at the top-left.
// A triangle without a texture is filled flat instead.
func (r Rasterizer) DrawTriangleTextured(t *Triangle) {
	tex := t.Texture
	if tex == nil || tex.Width == 0 || tex.Height == 0 {
		r.DrawTriangleFlat(t)
		return
	}

	bc, ok := newBarycentric(t.Points)
	if !ok {
		return
	}
	invW := reciprocalW(t.Points)
	var uvw [3]math3d.Vec2
	for i, uv := range t.TexCoords {
		uvw[i] = uv.Scale(invW[i])
	}
	fb := r.Target

	scanTriangle(t.Points, func(y, xStart, xEnd int) {
		for x := xStart; x < xEnd; x++ {
			alpha, beta, gamma := bc.weights(float64(x)+0.5, float64(y)+0.5)
			uv, w := interpolateUV(alpha, beta, gamma, invW, uvw)
			if r.DepthTest {
				if !fb.depthTest(x, y, 1-w) {
					continue
				}
			}
			fb.SetPixel(x, y, tex.Sample(uv.X, uv.Y))
		}
	})
}

// interpolateUV returns the perspective-correct texture coordinate and the
// interpolated 1/w of a pixel. uvw holds each vertex's UV divided by its w.
func interpolateUV(alpha, beta, gamma float64, invW [3]float64, uvw [3]math3d.Vec2) (math3d.Vec2, float64) {
	w := alpha*invW[0] + beta*invW[1] + gamma*invW[2]
	u := alpha*uvw[0].X + beta*uvw[1].X + gamma*uvw[2].X
	v := alpha*uvw[0].Y + beta*uvw[1].Y + gamma*uvw[2].Y
	return math3d.V2(u/w, v/w), w
}

func reciprocalW(p [3]math3d.Vec4) [3]float64 {
	var inv [3]float64
	for i := range p {
		if p[i].W != 0 {
			inv[i] = 1 / p[i].W
		}
	}
	return inv
}

// barycentric computes weights of a point against a fixed screen triangle
// from signed-area ratios.
type barycentric struct {
	a, b, c math3d.Vec2
	ac      math3d.Vec2
	invArea float64
}

// newBarycentric reports false for a triangle of exactly zero area.
func newBarycentric(p [3]math3d.Vec4) (barycentric, bool) {
	a := math3d.V2(p[0].X, p[0].Y)
	b := math3d.V2(p[1].X, p[1].Y)
	c := math3d.V2(p[2].X, p[2].Y)
	ac := c.Sub(a)
	area := ac.Cross(b.Sub(a))
	if area == 0 {
		return barycentric{}, false
	}
	return barycentric{a: a, b: b, c: c, ac: ac, invArea: 1 / area}, true
}

// weights returns (alpha, beta, gamma) for the point (x, y); they sum to 1
// and alpha is the weight of the first vertex.
func (bc barycentric) weights(x, y float64) (alpha, beta, gamma float64) {
	p := math3d.V2(x, y)
	alpha = bc.c.Sub(p).Cross(bc.b.Sub(p)) * bc.invArea
	beta = bc.ac.Cross(p.Sub(bc.a)) * bc.invArea
	gamma = 1 - alpha - beta
	return alpha, beta, gamma
}

// scanTriangle walks the triangle top to bottom and calls span once per
// scanline with the half-open pixel range [xStart, xEnd). The upper half
// runs from the top vertex to the middle one, the lower half from the
// middle to the bottom; an edge with no height contributes a zero slope.
func scanTriangle(p [3]math3d.Vec4, span func(y, xStart, xEnd int)) {
	x0, y0 := int(p[0].X), int(p[0].Y)
	x1, y1 := int(p[1].X), int(p[1].Y)
	x2, y2 := int(p[2].X), int(p[2].Y)

	// Sort by y so that y0 <= y1 <= y2
	if y0 > y1 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}
	if y1 > y2 {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}
	if y0 > y1 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}

	longSlope := invSlope(x0, y0, x2, y2)

	if y1 != y0 {
		shortSlope := invSlope(x0, y0, x1, y1)
		for y := y0; y <= y1; y++ {
			xStart := int(float64(x1) + float64(y-y1)*shortSlope)
			xEnd := int(float64(x0) + float64(y-y0)*longSlope)
			if xEnd < xStart {
				xStart, xEnd = xEnd, xStart
			}
			span(y, xStart, xEnd)
		}
	}

	if y2 != y1 {
		shortSlope := invSlope(x1, y1, x2, y2)
		for y := y1; y <= y2; y++ {
			xStart := int(float64(x1) + float64(y-y1)*shortSlope)
			xEnd := int(float64(x0) + float64(y-y0)*longSlope)
			if xEnd < xStart {
				xStart, xEnd = xEnd, xStart
			}
			span(y, xStart, xEnd)
		}
	}
}

// invSlope is dx/|dy| for the edge, or 0 for a horizontal edge.
func invSlope(xa, ya, xb, yb int) float64 {
	dy := abs(yb - ya)
	if dy == 0 {
		return 0
	}
	return float64(xb-xa) / float64(dy)
}

// fillFlat draws t without a depth test by splitting it at the middle
// vertex into a flat-bottom and a flat-top triangle.
func (r Rasterizer) fillFlat(t *Triangle) {
	x0, y0 := int(t.Points[0].X), int(t.Points[0].Y)
	x1, y1 := int(t.Points[1].X), int(t.Points[1].Y)
	x2, y2 := int(t.Points[2].X), int(t.Points[2].Y)

	if (x2-x0)*(y1-y0)-(x1-x0)*(y2-y0) == 0 {
		return // zero area
	}

	if y0 > y1 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}
	if y1 > y2 {
		x1, y1, x2, y2 = x2, y2, x1, y1
	}
	if y0 > y1 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}

	switch {
	case y1 == y2:
		r.fillFlatBottom(x0, y0, x1, y1, x2, y2, t.Color)
	case y0 == y1:
		r.fillFlatTop(x0, y0, x1, y1, x2, y2, t.Color)
	default:
		// Split point on the long edge at the middle vertex's height
		mx := int(float64((x2-x0)*(y1-y0))/float64(y2-y0)) + x0
		r.fillFlatBottom(x0, y0, x1, y1, mx, y1, t.Color)
		r.fillFlatTop(x1, y1, mx, y1, x2, y2, t.Color)
	}
}

// fillFlatBottom draws from the apex (x0, y0) down to the flat edge at y1 == y2.
func (r Rasterizer) fillFlatBottom(x0, y0, x1, y1, x2, y2 int, c Color) {
	slope1 := invSlope(x0, y0, x1, y1)
	slope2 := invSlope(x0, y0, x2, y2)
	xStart, xEnd := float64(x0), float64(x0)
	for y := y0; y <= y2; y++ {
		r.Target.DrawLine(int(xStart), y, int(xEnd), y, c)
		xStart += slope1
		xEnd += slope2
	}
}

// fillFlatTop draws from the apex (x2, y2) up to the flat edge at y0 == y1.
func (r Rasterizer) fillFlatTop(x0, y0, x1, y1, x2, y2 int, c Color) {
	slope1 := invSlope(x2, y2, x0, y0)
	slope2 := invSlope(x2, y2, x1, y1)
	xStart, xEnd := float64(x2), float64(x2)
	for y := y2; y >= y0; y-- {
		r.Target.DrawLine(int(xStart), y, int(xEnd), y, c)
		xStart += slope1
		xEnd += slope2
	}
}
