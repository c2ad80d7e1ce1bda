package clip

import (
	"errors"

	"github.com/taigrr/scanline/pkg/math3d"
)

// MaxPolygonVertices bounds the vertex count of a Polygon. Clipping a
// triangle against the six frustum planes adds at most one vertex per
// plane, so 9 is the worst case.
const MaxPolygonVertices = 10

// ErrPolygonOverflow is returned when clipping would exceed MaxPolygonVertices.
var ErrPolygonOverflow = errors.New("clip: polygon vertex capacity exceeded")

// Polygon is a convex camera-space polygon with per-vertex texture
// coordinates. It lives in fixed arrays so clipping never allocates.
type Polygon struct {
	Vertices  [MaxPolygonVertices]math3d.Vec3
	TexCoords [MaxPolygonVertices]math3d.Vec2
	Count     int
}

// Triangle is one fan triangle produced by Polygon.Triangles.
type Triangle struct {
	Points    [3]math3d.Vec3
	TexCoords [3]math3d.Vec2
}

// NewPolygon creates a three-vertex polygon from a triangle.
func NewPolygon(a, b, c math3d.Vec3, ta, tb, tc math3d.Vec2) Polygon {
	return Polygon{
		Vertices:  [MaxPolygonVertices]math3d.Vec3{a, b, c},
		TexCoords: [MaxPolygonVertices]math3d.Vec2{ta, tb, tc},
		Count:     3,
	}
}

func (p *Polygon) push(v math3d.Vec3, uv math3d.Vec2) error {
	if p.Count == MaxPolygonVertices {
		return ErrPolygonOverflow
	}
	p.Vertices[p.Count] = v
	p.TexCoords[p.Count] = uv
	p.Count++
	return nil
}

// Clip clips p against every frustum plane in order. p is left empty as
// soon as a plane removes all of it.
func (f Frustum) Clip(p *Polygon) error {
	for i := range f.Planes {
		if err := ClipAgainstPlane(p, f.Planes[i]); err != nil {
			return err
		}
		if p.Count == 0 {
			return nil
		}
	}
	return nil
}

// ClipAgainstPlane replaces p with its intersection with the inside
// half-space of plane (Sutherland-Hodgman). Vertices exactly on the plane
// count as outside. On ErrPolygonOverflow p is left unchanged.
func ClipAgainstPlane(p *Polygon, plane Plane) error {
	if p.Count == 0 {
		return nil
	}

	var out Polygon
	prev := p.Count - 1
	prevDist := plane.SignedDistance(p.Vertices[prev])

	for cur := range p.Count {
		curDist := plane.SignedDistance(p.Vertices[cur])

		if prevDist*curDist < 0 {
			t := prevDist / (prevDist - curDist)
			v := p.Vertices[prev].Lerp(p.Vertices[cur], t)
			uv := p.TexCoords[prev].Lerp(p.TexCoords[cur], t)
			if err := out.push(v, uv); err != nil {
				return err
			}
		}
		if curDist > 0 {
			if err := out.push(p.Vertices[cur], p.TexCoords[cur]); err != nil {
				return err
			}
		}

		prev, prevDist = cur, curDist
	}

	*p = out
	return nil
}

// Triangles appends the fan triangulation of p to dst: (0,1,2), (0,2,3)...
// A polygon with fewer than 3 vertices appends nothing.
func (p *Polygon) Triangles(dst []Triangle) []Triangle {
	for i := 0; i+2 < p.Count; i++ {
		dst = append(dst, Triangle{
			Points:    [3]math3d.Vec3{p.Vertices[0], p.Vertices[i+1], p.Vertices[i+2]},
			TexCoords: [3]math3d.Vec2{p.TexCoords[0], p.TexCoords[i+1], p.TexCoords[i+2]},
		})
	}
	return dst
}
