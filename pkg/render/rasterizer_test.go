package render

import (
	"math"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
)

func screenTri(w float64, c Color, pts ...[2]float64) Triangle {
	var t Triangle
	for i, p := range pts {
		t.Points[i] = math3d.V4(p[0], p[1], 0, w)
	}
	t.Color = c
	return t
}

func countPixels(fb *Framebuffer, c Color) int {
	n := 0
	for _, p := range fb.Pixels {
		if p == c {
			n++
		}
	}
	return n
}

func TestBarycentric(t *testing.T) {
	// Triangle: (0,0), (1,0), (0,1)
	bc, ok := newBarycentric([3]math3d.Vec4{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	if !ok {
		t.Fatal("unit triangle reported as degenerate")
	}

	tests := []struct {
		name     string
		px, py   float64
		expected math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, b, g := bc.weights(tc.px, tc.py)
			if math.Abs(a-tc.expected.X) > 1e-9 ||
				math.Abs(b-tc.expected.Y) > 1e-9 ||
				math.Abs(g-tc.expected.Z) > 1e-9 {
				t.Errorf("weights(%v, %v) = (%v, %v, %v), want %v", tc.px, tc.py, a, b, g, tc.expected)
			}
		})
	}

	t.Run("outside triangle", func(t *testing.T) {
		a, b, g := bc.weights(-1, -1)
		if a >= 0 && b >= 0 && g >= 0 {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})

	t.Run("zero area", func(t *testing.T) {
		if _, ok := newBarycentric([3]math3d.Vec4{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}); ok {
			t.Error("collinear triangle should be rejected")
		}
	})
}

func TestInterpolateUVEqualWIsAffine(t *testing.T) {
	uvs := [3]math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0.25), math3d.V2(0.3, 1)}
	weights := [][3]float64{
		{1, 0, 0},
		{0.2, 0.3, 0.5},
		{1.0 / 3, 1.0 / 3, 1.0 / 3},
		{0.9, 0.05, 0.05},
	}

	for _, w := range []float64{0.5, 1, 7.25} {
		invW := [3]float64{1 / w, 1 / w, 1 / w}
		var uvw [3]math3d.Vec2
		for i := range uvs {
			uvw[i] = uvs[i].Scale(invW[i])
		}

		for _, b := range weights {
			got, _ := interpolateUV(b[0], b[1], b[2], invW, uvw)
			want := uvs[0].Scale(b[0]).Add(uvs[1].Scale(b[1])).Add(uvs[2].Scale(b[2]))
			if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 {
				t.Errorf("w=%v weights=%v: got %v, want affine %v", w, b, got, want)
			}
		}
	}
}

func TestInterpolateUVForeshortening(t *testing.T) {
	// Halfway in screen space between a near and a far vertex lies closer
	// to the near vertex in texture space.
	uvs := [3]math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(0, 1)}
	invW := [3]float64{1, 1.0 / 9, 1}
	var uvw [3]math3d.Vec2
	for i := range uvs {
		uvw[i] = uvs[i].Scale(invW[i])
	}

	got, w := interpolateUV(0.5, 0.5, 0, invW, uvw)
	if got.X >= 0.5 {
		t.Errorf("u = %v, want < 0.5 toward the near vertex", got.X)
	}
	if math.Abs(got.X-0.1) > 1e-12 {
		t.Errorf("u = %v, want 0.1", got.X)
	}
	if math.Abs(w-(0.5+0.5/9)) > 1e-12 {
		t.Errorf("1/w = %v", w)
	}
}

func TestDepthTestMonotonic(t *testing.T) {
	pts := [][2]float64{{2, 2}, {17, 2}, {2, 17}}
	near := screenTri(2, ColorRed, pts...)
	far := screenTri(10, ColorBlue, pts...)

	orders := map[string][]Triangle{
		"near first": {near, far},
		"far first":  {far, near},
	}

	for name, tris := range orders {
		t.Run(name, func(t *testing.T) {
			fb := NewFramebuffer(20, 20)
			r := NewRasterizer(fb)
			for i := range tris {
				r.DrawTriangleFlat(&tris[i])
			}

			if got := fb.GetPixel(4, 4); got != ColorRed {
				t.Errorf("pixel color = %#x, want near color %#x", uint32(got), uint32(ColorRed))
			}
			if got := fb.DepthAt(4, 4); math.Abs(got-0.5) > 1e-9 {
				t.Errorf("depth = %v, want 0.5", got)
			}
			if countPixels(fb, ColorBlue) != 0 {
				t.Error("far triangle leaked through the depth test")
			}
		})
	}
}

func TestDepthTestRejectsEqualDepth(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	r := NewRasterizer(fb)
	pts := [][2]float64{{2, 2}, {17, 2}, {2, 17}}
	first := screenTri(4, ColorRed, pts...)
	second := screenTri(4, ColorBlue, pts...)

	r.DrawTriangleFlat(&first)
	r.DrawTriangleFlat(&second)
	if countPixels(fb, ColorBlue) != 0 {
		t.Error("equal depth must not overwrite")
	}
}

func TestPainterOverwrites(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	r := Rasterizer{Target: fb}
	pts := [][2]float64{{2, 2}, {17, 2}, {2, 17}}
	first := screenTri(2, ColorRed, pts...)
	second := screenTri(10, ColorBlue, pts...)

	r.DrawTriangleFlat(&first)
	r.DrawTriangleFlat(&second)

	if got := fb.GetPixel(4, 4); got != ColorBlue {
		t.Errorf("pixel = %#x, want last drawn color", uint32(got))
	}
	if fb.DepthAt(4, 4) != 1.0 {
		t.Error("painter mode should not touch the depth buffer")
	}
}

func TestDegenerateTriangles(t *testing.T) {
	tests := []struct {
		name string
		pts  [][2]float64
	}{
		{"collinear", [][2]float64{{0, 0}, {5, 5}, {10, 10}}},
		{"zero height", [][2]float64{{0, 5}, {5, 5}, {10, 5}}},
		{"single point", [][2]float64{{3, 3}, {3, 3}, {3, 3}}},
		{"sub-pixel height", [][2]float64{{0, 5.2}, {5, 5.7}, {10, 5.1}}},
	}

	for _, tc := range tests {
		for _, depth := range []bool{true, false} {
			t.Run(tc.name, func(t *testing.T) {
				fb := NewFramebuffer(16, 16)
				r := Rasterizer{Target: fb, DepthTest: depth}
				tri := screenTri(1, ColorRed, tc.pts...)
				tri.Texture = NewCheckerTexture(4, 4, 1, ColorRed, ColorRed)

				r.DrawTriangleFlat(&tri)
				r.DrawTriangleTextured(&tri)

				if n := countPixels(fb, ColorRed); n != 0 {
					t.Errorf("drew %d pixels for a degenerate triangle", n)
				}
			})
		}
	}
}

func TestFlatTopAndFlatBottom(t *testing.T) {
	tests := []struct {
		name string
		pts  [][2]float64
		in   [2]int
	}{
		{"flat top", [][2]float64{{2, 2}, {17, 2}, {9, 17}}, [2]int{9, 6}},
		{"flat bottom", [][2]float64{{9, 2}, {2, 17}, {17, 17}}, [2]int{9, 12}},
		{"general", [][2]float64{{3, 1}, {18, 8}, {6, 18}}, [2]int{8, 8}},
	}

	for _, tc := range tests {
		for _, depth := range []bool{true, false} {
			t.Run(tc.name, func(t *testing.T) {
				fb := NewFramebuffer(20, 20)
				r := Rasterizer{Target: fb, DepthTest: depth}
				tri := screenTri(1, ColorYellow, tc.pts...)
				r.DrawTriangleFlat(&tri)

				if fb.GetPixel(tc.in[0], tc.in[1]) != ColorYellow {
					t.Errorf("interior pixel %v not filled", tc.in)
				}
				if fb.GetPixel(0, 19) == ColorYellow {
					t.Error("pixel outside the triangle was filled")
				}
			})
		}
	}
}

func TestDrawTriangleTexturedOrientation(t *testing.T) {
	tex := NewTexture(2, 2)
	tex.SetPixel(0, 0, ColorRed)
	tex.SetPixel(1, 0, ColorGreen)
	tex.SetPixel(0, 1, ColorBlue)
	tex.SetPixel(1, 1, ColorWhite)

	// A full-screen quad. UV (0,0) is the top-left of the image and is
	// sampled as stored.
	quad := []Triangle{
		{
			Points:    [3]math3d.Vec4{{X: 0, Y: 0, W: 1}, {X: 8, Y: 0, W: 1}, {X: 8, Y: 8, W: 1}},
			TexCoords: [3]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
			Texture:   tex,
		},
		{
			Points:    [3]math3d.Vec4{{X: 0, Y: 0, W: 1}, {X: 8, Y: 8, W: 1}, {X: 0, Y: 8, W: 1}},
			TexCoords: [3]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
			Texture:   tex,
		},
	}

	fb := NewFramebuffer(8, 8)
	r := NewRasterizer(fb)
	for i := range quad {
		r.DrawTriangleTextured(&quad[i])
	}

	tests := []struct {
		x, y int
		want Color
	}{
		{1, 1, ColorRed},
		{6, 1, ColorGreen},
		{1, 6, ColorBlue},
		{6, 6, ColorWhite},
	}
	for _, tc := range tests {
		if got := fb.GetPixel(tc.x, tc.y); got != tc.want {
			t.Errorf("pixel (%d,%d) = %#x, want %#x", tc.x, tc.y, uint32(got), uint32(tc.want))
		}
	}
}

func TestDrawTriangleTexturedWithoutTexture(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	r := NewRasterizer(fb)
	tri := screenTri(1, ColorMagenta, [2]float64{2, 2}, [2]float64{17, 2}, [2]float64{2, 17})

	r.DrawTriangleTextured(&tri)
	if fb.GetPixel(4, 4) != ColorMagenta {
		t.Error("nil texture should fall back to a flat fill")
	}
}

func TestDrawTriangleWire(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	r := NewRasterizer(fb)
	tri := screenTri(1, ColorWhite, [2]float64{2, 2}, [2]float64{17, 2}, [2]float64{2, 17})

	r.DrawTriangleWire(&tri, ColorGreen)
	for _, p := range [][2]int{{2, 2}, {17, 2}, {2, 17}, {10, 2}, {2, 10}} {
		if fb.GetPixel(p[0], p[1]) != ColorGreen {
			t.Errorf("edge pixel %v not drawn", p)
		}
	}
	if fb.GetPixel(5, 5) == ColorGreen {
		t.Error("wireframe filled the interior")
	}
}

func TestDrawVertexMarkers(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	r := NewRasterizer(fb)
	tri := screenTri(1, ColorWhite, [2]float64{5, 5}, [2]float64{15, 5}, [2]float64{5, 15})

	r.DrawVertexMarkers(&tri, ColorBlue)
	// Three disjoint 6x6 squares.
	if n := countPixels(fb, ColorBlue); n != 3*VertexMarkerSize*VertexMarkerSize {
		t.Errorf("marker pixels = %d, want %d", n, 3*VertexMarkerSize*VertexMarkerSize)
	}
	if fb.GetPixel(2, 2) != ColorBlue || fb.GetPixel(7, 7) != ColorBlue || fb.GetPixel(8, 8) == ColorBlue {
		t.Error("marker not centered on vertex")
	}
}

func TestOffscreenTriangleIsClipped(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	r := NewRasterizer(fb)
	tri := screenTri(1, ColorRed, [2]float64{-50, -50}, [2]float64{60, -40}, [2]float64{5, 80})

	r.DrawTriangleFlat(&tri)
	r.DrawTriangleWire(&tri, ColorGreen)
	if countPixels(fb, ColorRed) != 100 {
		t.Error("covering triangle should fill every on-screen pixel")
	}
}

func BenchmarkDrawTriangleFlat(b *testing.B) {
	fb := NewFramebuffer(320, 240)
	r := NewRasterizer(fb)
	tri := screenTri(5, ColorRed, [2]float64{10, 10}, [2]float64{300, 40}, [2]float64{120, 230})

	for b.Loop() {
		fb.ClearDepth()
		r.DrawTriangleFlat(&tri)
	}
}

func BenchmarkDrawTriangleTextured(b *testing.B) {
	fb := NewFramebuffer(320, 240)
	r := NewRasterizer(fb)
	tri := screenTri(5, ColorRed, [2]float64{10, 10}, [2]float64{300, 40}, [2]float64{120, 230})
	tri.Points[1].W = 20
	tri.TexCoords = [3]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	tri.Texture = NewCheckerTexture(64, 64, 8, ColorWhite, ColorGray)

	for b.Loop() {
		fb.ClearDepth()
		r.DrawTriangleTextured(&tri)
	}
}
