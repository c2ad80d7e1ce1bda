package pipeline

import (
	"math"

	"github.com/taigrr/scanline/pkg/math3d"
)

// maxPitch keeps the view direction away from the up vector, where the
// look-at basis degenerates.
const maxPitch = math.Pi/2 - 0.01

// Camera is a first-person camera with position and yaw/pitch orientation.
// The view matrix is cached and rebuilt only after the camera changes.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation (Euler angles in radians)
	Pitch float64 // Rotation around X axis, positive looks down
	Yaw   float64 // Rotation around Y axis, positive turns towards +X

	viewMatrix math3d.Mat4
	viewDirty  bool
}

// NewCamera creates a camera at the origin looking down +Z.
func NewCamera() *Camera {
	return &Camera{viewDirty: true}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetRotation sets the camera rotation (pitch, yaw in radians).
// Pitch is clamped short of straight up or down.
func (c *Camera) SetRotation(pitch, yaw float64) {
	c.Pitch = clampPitch(pitch)
	c.Yaw = yaw
	c.viewDirty = true
}

// Direction returns the unit view direction Ry(yaw)·Rx(pitch)·(0,0,1).
func (c *Camera) Direction() math3d.Vec3 {
	return math3d.V3(
		math.Sin(c.Yaw)*math.Cos(c.Pitch),
		-math.Sin(c.Pitch),
		math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the horizontal right direction vector.
func (c *Camera) Right() math3d.Vec3 {
	return math3d.V3(math.Cos(c.Yaw), 0, -math.Sin(c.Yaw))
}

// Target returns the point one unit ahead of the camera.
func (c *Camera) Target() math3d.Vec3 {
	return c.Position.Add(c.Direction())
}

// ViewMatrix returns the world-to-camera matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = math3d.LookAt(c.Position, c.Target(), math3d.Up())
		c.viewDirty = false
	}
	return c.viewMatrix
}

// MoveForward moves the camera along its view direction (backward if negative).
func (c *Camera) MoveForward(distance float64) {
	c.Position = c.Position.Add(c.Direction().Scale(distance))
	c.viewDirty = true
}

// MoveRight moves the camera right (or left if negative).
func (c *Camera) MoveRight(distance float64) {
	c.Position = c.Position.Add(c.Right().Scale(distance))
	c.viewDirty = true
}

// Rotate rotates the camera by the given angles (in radians).
func (c *Camera) Rotate(deltaPitch, deltaYaw float64) {
	c.SetRotation(c.Pitch+deltaPitch, c.Yaw+deltaYaw)
}

// LookAt turns the camera towards target. A target at the camera
// position leaves the orientation unchanged.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position)
	if dir.LenSq() == 0 {
		return
	}
	dir = dir.Normalize()
	c.SetRotation(math.Asin(-dir.Y), math.Atan2(dir.X, dir.Z))
}

func clampPitch(p float64) float64 {
	return math.Max(-maxPitch, math.Min(maxPitch, p))
}
