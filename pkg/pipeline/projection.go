package pipeline

import (
	"math"

	"github.com/taigrr/scanline/pkg/clip"
	"github.com/taigrr/scanline/pkg/math3d"
)

// Projection describes the perspective projection and the viewport it
// maps onto.
type Projection struct {
	FOVY   float64 // Vertical field of view in radians
	Width  int     // Viewport width in pixels
	Height int     // Viewport height in pixels
	Near   float64
	Far    float64
}

// DefaultProjection returns a 60 degree projection with near 0.1 and far
// 100 for a viewport of the given size.
func DefaultProjection(width, height int) Projection {
	return Projection{
		FOVY:   math.Pi / 3,
		Width:  width,
		Height: height,
		Near:   0.1,
		Far:    100,
	}
}

// Aspect returns height/width, the ratio the projection matrix scales x by.
func (p Projection) Aspect() float64 {
	return float64(p.Height) / float64(p.Width)
}

// FOVX returns the horizontal field of view in radians.
func (p Projection) FOVX() float64 {
	return clip.HorizontalFOV(p.FOVY, float64(p.Width)/float64(p.Height))
}

// Matrix returns the perspective projection matrix.
func (p Projection) Matrix() math3d.Mat4 {
	return math3d.Perspective(p.FOVY, p.Aspect(), p.Near, p.Far)
}

// Frustum returns the camera-space clipping frustum.
func (p Projection) Frustum() clip.Frustum {
	return clip.NewFrustum(p.FOVX(), p.FOVY, p.Near, p.Far)
}

// ToScreen maps a projected point from normalized device coordinates to
// pixels. Screen Y grows downward; Z and W pass through.
func (p Projection) ToScreen(v math3d.Vec4) math3d.Vec4 {
	halfW, halfH := float64(p.Width)/2, float64(p.Height)/2
	v.X = v.X*halfW + halfW
	v.Y = -v.Y*halfH + halfH
	return v
}
