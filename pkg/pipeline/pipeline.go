// Package pipeline turns meshes into screen-space triangles: world and
// view transforms, back-face culling, frustum clipping, projection and
// flat shading.
package pipeline

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/taigrr/scanline/internal/logging"
	"github.com/taigrr/scanline/pkg/clip"
	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
	"github.com/taigrr/scanline/pkg/render"
)

// DefaultMaxTrianglesPerMesh caps the triangles one mesh may emit per frame.
const DefaultMaxTrianglesPerMesh = 10000

// Stats counts what happened to the faces of the last processed frame.
type Stats struct {
	Meshes         int // Meshes processed
	MeshesRejected int // Meshes skipped because their bounds were outside the frustum
	Faces          int // Faces considered, including those of rejected meshes
	Culled         int // Faces dropped by back-face culling
	ClippedAway    int // Faces with nothing left after clipping
	Overflows      int // Faces dropped because clipping exceeded polygon capacity
	Dropped        int // Triangles dropped by MaxTrianglesPerMesh
	Triangles      int // Triangles emitted
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("meshes", s.Meshes),
		slog.Int("rejected", s.MeshesRejected),
		slog.Int("faces", s.Faces),
		slog.Int("culled", s.Culled),
		slog.Int("clipped", s.ClippedAway),
		slog.Int("overflows", s.Overflows),
		slog.Int("dropped", s.Dropped),
		slog.Int("triangles", s.Triangles),
	)
}

// Pipeline holds the per-run state of the geometry stage. It is not safe
// for concurrent use; Process reuses internal buffers between frames.
type Pipeline struct {
	Camera *Camera
	Light  Light

	// MaxTrianglesPerMesh limits the triangles emitted per mesh and frame.
	// Zero means unbounded.
	MaxTrianglesPerMesh int

	projection Projection
	projMatrix math3d.Mat4
	frustum    clip.Frustum

	triangles []render.Triangle
	clipped   []clip.Triangle
	stats     Stats
}

// New creates a pipeline. The projection matrix and frustum are computed
// once here and again only through SetProjection.
func New(proj Projection, cam *Camera, light Light) *Pipeline {
	if cam == nil {
		cam = NewCamera()
	}
	p := &Pipeline{
		Camera:              cam,
		Light:               light,
		MaxTrianglesPerMesh: DefaultMaxTrianglesPerMesh,
	}
	p.SetProjection(proj)
	return p
}

// SetProjection replaces the projection, for example after a resize.
func (p *Pipeline) SetProjection(proj Projection) {
	p.projection = proj
	p.projMatrix = proj.Matrix()
	p.frustum = proj.Frustum()
}

// Projection returns the current projection.
func (p *Pipeline) Projection() Projection {
	return p.projection
}

// Frustum returns the camera-space frustum faces are clipped against.
func (p *Pipeline) Frustum() clip.Frustum {
	return p.frustum
}

// Stats returns the counts of the last Process call.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Process runs every face of every mesh through the geometry stage and
// returns the screen-space triangles in mesh and face order. When ctx has
// depth testing disabled the result is instead sorted farthest first.
//
// The returned slice is owned by the pipeline and is overwritten by the
// next call.
func (p *Pipeline) Process(ctx *render.Context, meshes []*models.Mesh) []render.Triangle {
	p.triangles = p.triangles[:0]
	p.stats = Stats{}
	view := p.Camera.ViewMatrix()

	for _, mesh := range meshes {
		p.processMesh(ctx, mesh, view)
	}

	if !ctx.DepthTest {
		slices.SortStableFunc(p.triangles, func(a, b render.Triangle) int {
			return cmp.Compare(b.Depth(), a.Depth())
		})
	}

	p.stats.Triangles = len(p.triangles)
	logging.Logger().Debug("frame processed", "stats", p.stats)
	return p.triangles
}

func (p *Pipeline) processMesh(ctx *render.Context, mesh *models.Mesh, view math3d.Mat4) {
	p.stats.Meshes++
	p.stats.Faces += len(mesh.Faces)

	modelView := view.Mul(mesh.WorldMatrix())
	if len(mesh.Vertices) > 0 && !p.frustum.IntersectAABB(mesh.Bounds().Transform(modelView)) {
		p.stats.MeshesRejected++
		return
	}

	emitted := 0
	warned := false
	for i := range mesh.Faces {
		face := &mesh.Faces[i]
		a := modelView.MulVec3(mesh.Vertices[face.V[0]])
		b := modelView.MulVec3(mesh.Vertices[face.V[1]])
		c := modelView.MulVec3(mesh.Vertices[face.V[2]])

		normal := math3d.TriangleNormal(a, b, c)
		if ctx.Cull == render.CullBackface && normal.Dot(a.Negate()) < 0 {
			p.stats.Culled++
			continue
		}

		poly := clip.NewPolygon(a, b, c, face.UV[0], face.UV[1], face.UV[2])
		if err := p.frustum.Clip(&poly); err != nil {
			p.stats.Overflows++
			logging.Logger().Warn("face dropped", "mesh", mesh.Name, "face", i, "err", err)
			continue
		}
		if poly.Count < 3 {
			p.stats.ClippedAway++
			continue
		}

		color := render.ApplyIntensity(face.Color, p.Light.Intensity(normal))
		p.clipped = poly.Triangles(p.clipped[:0])
		for k := range p.clipped {
			if p.MaxTrianglesPerMesh > 0 && emitted >= p.MaxTrianglesPerMesh {
				p.stats.Dropped++
				if !warned {
					logging.Logger().Warn("triangle limit reached", "mesh", mesh.Name, "limit", p.MaxTrianglesPerMesh)
					warned = true
				}
				continue
			}
			p.triangles = append(p.triangles, p.project(&p.clipped[k], color, mesh.Texture))
			emitted++
		}
	}
}

// project maps a camera-space triangle to the screen. Texture V is flipped
// here to match the image row order used by the sampler.
func (p *Pipeline) project(t *clip.Triangle, color render.Color, tex *render.Texture) render.Triangle {
	out := render.Triangle{Color: color, Texture: tex}
	for i := range 3 {
		v := p.projMatrix.MulVec4Project(math3d.V4FromV3(t.Points[i], 1))
		out.Points[i] = p.projection.ToScreen(v)
		uv := t.TexCoords[i]
		out.TexCoords[i] = math3d.V2(uv.X, 1-uv.Y)
	}
	return out
}
