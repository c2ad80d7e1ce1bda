package pipeline

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
	"github.com/taigrr/scanline/pkg/render"
)

const (
	testWidth  = 200
	testHeight = 100
)

func newTestPipeline() (*Pipeline, *render.Context) {
	p := New(DefaultProjection(testWidth, testHeight), NewCamera(), DefaultLight())
	ctx := render.NewContext(render.NewFramebuffer(testWidth, testHeight))
	return p, ctx
}

func cubeAt(z float64) *models.Mesh {
	m := models.NewCube()
	m.Translation = math3d.V3(0, 0, z)
	return m
}

// singleFace builds a one-face mesh from three world-space points.
func singleFace(a, b, c math3d.Vec3) *models.Mesh {
	m := models.NewMesh("tri")
	m.Vertices = []math3d.Vec3{a, b, c}
	m.Faces = []models.Face{{
		V:     [3]int{0, 1, 2},
		UV:    [3]math3d.Vec2{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		Color: render.ColorWhite,
	}}
	m.CalculateBounds()
	return m
}

func screenBounds(tris []render.Triangle) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, t := range tris {
		for _, p := range t.Points {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	return minX, minY, maxX, maxY
}

func TestCubeFootprintCentered(t *testing.T) {
	p, ctx := newTestPipeline()
	ctx.Cull = render.CullNone

	tris := p.Process(ctx, []*models.Mesh{cubeAt(5)})
	require.Len(t, tris, 12, "a cube well inside the frustum is not clipped")

	minX, minY, maxX, maxY := screenBounds(tris)
	assert.InDelta(t, testWidth/2.0, (minX+maxX)/2, 1e-9)
	assert.InDelta(t, testHeight/2.0, (minY+maxY)/2, 1e-9)
	assert.InDelta(t, maxY-testHeight/2.0, testHeight/2.0-minY, 1e-9)

	// Nearest face at z=4: half height 1 maps to f/4 of the half viewport,
	// and x is scaled by height/width so the cube stays square on screen.
	f := 1 / math.Tan(math.Pi/6)
	assert.InDelta(t, f/4*testHeight/2, maxY-testHeight/2.0, 1e-9)
	assert.InDelta(t, maxX-minX, maxY-minY, 1e-9)
}

func TestCubeFullTurnReturnsToStart(t *testing.T) {
	for _, axis := range []math3d.Vec3{{X: 1}, {Y: 1}, {Z: 1}} {
		p, ctx := newTestPipeline()
		ctx.Cull = render.CullNone

		cube := cubeAt(5)
		start := append([]render.Triangle(nil), p.Process(ctx, []*models.Mesh{cube})...)

		cube.Rotation = axis.Scale(2 * math.Pi)
		end := p.Process(ctx, []*models.Mesh{cube})
		require.Len(t, end, len(start))

		for i := range start {
			for k := range 3 {
				a, b := start[i].Points[k], end[i].Points[k]
				assert.InDelta(t, a.X, b.X, 1e-9, "axis %v tri %d vertex %d", axis, i, k)
				assert.InDelta(t, a.Y, b.Y, 1e-9, "axis %v tri %d vertex %d", axis, i, k)
				assert.InDelta(t, a.W, b.W, 1e-9, "axis %v tri %d vertex %d", axis, i, k)
			}
		}
	}
}

func TestBackfaceCulling(t *testing.T) {
	front := singleFace(math3d.V3(-1, -1, 5), math3d.V3(-1, 1, 5), math3d.V3(1, 1, 5))
	back := singleFace(math3d.V3(-1, -1, 5), math3d.V3(1, 1, 5), math3d.V3(-1, 1, 5))

	tests := []struct {
		name string
		mesh *models.Mesh
		cull render.CullMode
		want int
	}{
		{"front face kept", front, render.CullBackface, 1},
		{"back face culled", back, render.CullBackface, 0},
		{"back face kept without culling", back, render.CullNone, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ctx := newTestPipeline()
			ctx.Cull = tt.cull
			tris := p.Process(ctx, []*models.Mesh{tt.mesh})
			assert.Len(t, tris, tt.want)
			assert.Equal(t, 1-tt.want, p.Stats().Culled)
		})
	}
}

func TestCubeHeadOnShowsFrontSide(t *testing.T) {
	p, ctx := newTestPipeline()
	tris := p.Process(ctx, []*models.Mesh{cubeAt(5)})
	// From inside the side planes only the front pair faces the camera.
	assert.Len(t, tris, 2)
	assert.Equal(t, 10, p.Stats().Culled)
}

func TestNearPlaneStraddleMakesQuad(t *testing.T) {
	p, ctx := newTestPipeline()
	ctx.Cull = render.CullNone

	tri := singleFace(math3d.V3(0, 0.01, -1), math3d.V3(-0.05, 0.01, 1), math3d.V3(0.05, 0.01, 1))
	tris := p.Process(ctx, []*models.Mesh{tri})
	require.Len(t, tris, 2)

	for _, tr := range tris {
		for _, pt := range tr.Points {
			assert.GreaterOrEqual(t, pt.W, 0.1-1e-9, "clipped vertices lie on or past the near plane")
		}
	}
}

func TestFullyOutsideProducesNothing(t *testing.T) {
	p, ctx := newTestPipeline()
	tris := p.Process(ctx, []*models.Mesh{cubeAt(-5)})
	assert.Empty(t, tris)
	assert.Equal(t, 1, p.Stats().MeshesRejected)
	assert.Equal(t, 12, p.Stats().Faces)
}

func TestEmissionOrder(t *testing.T) {
	p, ctx := newTestPipeline()
	near := singleFace(math3d.V3(-1, -1, 3), math3d.V3(-1, 1, 3), math3d.V3(1, 1, 3))
	far := singleFace(math3d.V3(-1, -1, 8), math3d.V3(-1, 1, 8), math3d.V3(1, 1, 8))

	tris := p.Process(ctx, []*models.Mesh{near, far})
	require.Len(t, tris, 2)
	assert.InDelta(t, 3, tris[0].Depth(), 1e-9, "depth tested frames keep mesh order")
	assert.InDelta(t, 8, tris[1].Depth(), 1e-9)
}

func TestPainterSort(t *testing.T) {
	p, ctx := newTestPipeline()
	ctx.DepthTest = false
	near := singleFace(math3d.V3(-1, -1, 3), math3d.V3(-1, 1, 3), math3d.V3(1, 1, 3))
	mid := singleFace(math3d.V3(-1, -1, 5), math3d.V3(-1, 1, 5), math3d.V3(1, 1, 5))
	far := singleFace(math3d.V3(-1, -1, 8), math3d.V3(-1, 1, 8), math3d.V3(1, 1, 8))

	tris := p.Process(ctx, []*models.Mesh{near, far, mid})
	require.Len(t, tris, 3)
	assert.InDelta(t, 8, tris[0].Depth(), 1e-9)
	assert.InDelta(t, 5, tris[1].Depth(), 1e-9)
	assert.InDelta(t, 3, tris[2].Depth(), 1e-9)
}

func TestShadingAndTextureCoordinates(t *testing.T) {
	p, ctx := newTestPipeline()
	tex := render.NewTexture(1, 1)
	face := singleFace(math3d.V3(-1, -1, 5), math3d.V3(-1, 1, 5), math3d.V3(1, 1, 5))
	face.Texture = tex

	tris := p.Process(ctx, []*models.Mesh{face})
	require.Len(t, tris, 1)
	tr := tris[0]

	assert.Equal(t, render.ColorWhite, tr.Color, "a face towards the light is fully lit")
	assert.Same(t, tex, tr.Texture)
	// V is flipped for the sampler.
	assert.Equal(t, math3d.V2(0, 1), tr.TexCoords[0])
	assert.Equal(t, math3d.V2(0, 0), tr.TexCoords[1])
	assert.Equal(t, math3d.V2(1, 0), tr.TexCoords[2])
}

func TestTexturedQuadUpright(t *testing.T) {
	p, ctx := newTestPipeline()
	ctx.Mode = render.ModeTexture
	ctx.GridSpacing = 0

	// Row 0 of the image is red and row 1 blue.
	tex := render.NewTexture(1, 2)
	tex.SetPixel(0, 0, render.ColorRed)
	tex.SetPixel(0, 1, render.ColorBlue)

	quad := models.NewMesh("quad")
	quad.Vertices = []math3d.Vec3{
		{X: -1, Y: -1, Z: 3}, {X: -1, Y: 1, Z: 3}, {X: 1, Y: 1, Z: 3}, {X: 1, Y: -1, Z: 3},
	}
	// Mesh UVs grow upward: V=1 is the top of the image.
	uvs := []math3d.Vec2{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	for _, f := range [][3]int{{0, 1, 2}, {0, 2, 3}} {
		quad.Faces = append(quad.Faces, models.Face{
			V:     f,
			UV:    [3]math3d.Vec2{uvs[f[0]], uvs[f[1]], uvs[f[2]]},
			Color: render.ColorWhite,
		})
	}
	quad.Texture = tex
	quad.CalculateBounds()

	ctx.Begin()
	tris := p.Process(ctx, []*models.Mesh{quad})
	require.Len(t, tris, 2)
	ctx.Draw(tris)

	fb := ctx.Target
	assert.Equal(t, render.ColorRed, fb.GetPixel(testWidth/2, testHeight/2-20), "model top samples image row 0")
	assert.Equal(t, render.ColorBlue, fb.GetPixel(testWidth/2, testHeight/2+20), "model bottom samples the last row")
}

func TestTiltedFaceIsDimmer(t *testing.T) {
	p, ctx := newTestPipeline()
	// Tilted 60 degrees away from the view axis: intensity cos(60) = 0.5.
	s := math.Sqrt(3)
	face := singleFace(math3d.V3(-1, -1, 5-s), math3d.V3(-1, 1, 5-s), math3d.V3(1, 1, 5+s))
	tris := p.Process(ctx, []*models.Mesh{face})
	require.Len(t, tris, 1)
	assert.Equal(t, render.ApplyIntensity(render.ColorWhite, 0.5), tris[0].Color)
}

func TestTriangleLimit(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	p, ctx := newTestPipeline()
	ctx.Cull = render.CullNone
	p.MaxTrianglesPerMesh = 3

	tris := p.Process(ctx, []*models.Mesh{cubeAt(5), cubeAt(6)})
	assert.Len(t, tris, 6, "the limit applies per mesh")
	assert.Equal(t, 18, p.Stats().Dropped)
	assert.Equal(t, 2, strings.Count(buf.String(), "triangle limit reached"), "warned once per mesh")

	p.MaxTrianglesPerMesh = 0
	assert.Len(t, p.Process(ctx, []*models.Mesh{cubeAt(5)}), 12)
}

func TestProcessReusesBuffer(t *testing.T) {
	p, ctx := newTestPipeline()
	ctx.Cull = render.CullNone
	first := p.Process(ctx, []*models.Mesh{cubeAt(5)})
	second := p.Process(ctx, []*models.Mesh{cubeAt(5)})
	require.NotEmpty(t, second)
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, 12, p.Stats().Triangles)
}

func TestSetProjection(t *testing.T) {
	p, ctx := newTestPipeline()
	ctx.Cull = render.CullNone
	p.SetProjection(DefaultProjection(80, 40))
	assert.Equal(t, 80, p.Projection().Width)

	tris := p.Process(ctx, []*models.Mesh{cubeAt(5)})
	require.Len(t, tris, 12)
	minX, minY, maxX, maxY := screenBounds(tris)
	assert.InDelta(t, 40, (minX+maxX)/2, 1e-9, "centered on the new viewport")
	assert.InDelta(t, 20, (minY+maxY)/2, 1e-9)
}

func BenchmarkProcessCube(b *testing.B) {
	p, ctx := newTestPipeline()
	ctx.Cull = render.CullNone
	meshes := []*models.Mesh{cubeAt(5)}
	for b.Loop() {
		meshes[0].Rotation.Y += 0.01
		p.Process(ctx, meshes)
	}
}
