// Package clip implements view-frustum clipping of camera-space polygons.
package clip

import (
	"math"

	"github.com/taigrr/scanline/pkg/math3d"
)

// Plane is a plane in camera space given by a point on it and a normal.
// The normal points into the visible half-space.
type Plane struct {
	Point  math3d.Vec3
	Normal math3d.Vec3
}

// SignedDistance returns the signed distance from the plane to a point.
// Positive = inside (same side as normal), negative = outside.
func (p Plane) SignedDistance(point math3d.Vec3) float64 {
	return point.Sub(p.Point).Dot(p.Normal)
}

// Frustum represents the 6 planes of a view frustum.
// Planes are ordered Left, Right, Top, Bottom, Near, Far, which is also
// the order polygons are clipped in.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	Left = iota
	Right
	Top
	Bottom
	Near
	Far
)

// NewFrustum builds the camera-space frustum for a camera at the origin
// looking down +Z. fovx and fovy are full field-of-view angles in radians.
func NewFrustum(fovx, fovy, near, far float64) Frustum {
	cosX, sinX := math.Cos(fovx/2), math.Sin(fovx/2)
	cosY, sinY := math.Cos(fovy/2), math.Sin(fovy/2)

	var f Frustum
	f.Planes[Left] = Plane{Normal: math3d.V3(cosX, 0, sinX)}
	f.Planes[Right] = Plane{Normal: math3d.V3(-cosX, 0, sinX)}
	f.Planes[Top] = Plane{Normal: math3d.V3(0, -cosY, sinY)}
	f.Planes[Bottom] = Plane{Normal: math3d.V3(0, cosY, sinY)}
	f.Planes[Near] = Plane{Point: math3d.V3(0, 0, near), Normal: math3d.V3(0, 0, 1)}
	f.Planes[Far] = Plane{Point: math3d.V3(0, 0, far), Normal: math3d.V3(0, 0, -1)}
	return f
}

// HorizontalFOV derives the horizontal field of view from a vertical one
// and an aspect ratio given as width/height.
func HorizontalFOV(fovy, aspectX float64) float64 {
	return 2 * math.Atan(math.Tan(fovy/2)*aspectX)
}

// ContainsPoint tests if a point is strictly inside every plane.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(p) <= 0 {
			return false
		}
	}
	return true
}
