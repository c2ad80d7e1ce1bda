package pipeline

import "github.com/taigrr/scanline/pkg/math3d"

// Light is a directional light in camera space.
type Light struct {
	Direction math3d.Vec3 // Unit vector the light travels along
}

// NewLight creates a light travelling along dir. dir is normalized.
func NewLight(dir math3d.Vec3) Light {
	return Light{Direction: dir.Normalize()}
}

// DefaultLight shines straight down the view axis.
func DefaultLight() Light {
	return Light{Direction: math3d.Forward()}
}

// Intensity returns the flat Lambertian factor for a face with the given
// unit normal, clamped to [0, 1].
func (l Light) Intensity(normal math3d.Vec3) float64 {
	return max(0, min(1, -normal.Dot(l.Direction)))
}
