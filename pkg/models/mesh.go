// Package models provides mesh data, the built-in cube and the OBJ and
// glTF loaders that feed the pipeline.
package models

import (
	"errors"
	"fmt"

	"github.com/taigrr/scanline/pkg/clip"
	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("models: unsupported format")

// DefaultFaceColor is the base color given to faces that specify none.
const DefaultFaceColor = render.ColorWhite

// Mesh is an indexed triangle mesh in model space plus its transform state.
// Vertex and face data are fixed after load; only Scale, Rotation and
// Translation change from frame to frame.
type Mesh struct {
	Name     string
	Vertices []math3d.Vec3
	Faces    []Face
	Texture  *render.Texture // Optional, used by the textured modes

	Scale       math3d.Vec3
	Rotation    math3d.Vec3 // Euler angles in radians about X, Y, Z
	Translation math3d.Vec3

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Face represents a triangle with 0-based vertex indices, one texture
// coordinate per corner and a base color.
type Face struct {
	V     [3]int         // Indices into Mesh.Vertices
	UV    [3]math3d.Vec2 // Texture coordinates, V grows upward
	Color render.Color   // Base color before shading
}

// NewMesh creates an empty mesh with unit scale.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:  name,
		Scale: math3d.V3(1, 1, 1),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	b := clip.BoundPoints(m.Vertices)
	m.BoundsMin, m.BoundsMax = b.Min, b.Max
}

// Bounds returns the model-space bounding box.
func (m *Mesh) Bounds() clip.AABB {
	return clip.AABB{Min: m.BoundsMin, Max: m.BoundsMax}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// WorldMatrix returns the model-to-world transform for the current
// scale, rotation and translation.
func (m *Mesh) WorldMatrix() math3d.Mat4 {
	return math3d.World(m.Scale, m.Rotation, m.Translation)
}

// Validate checks that every face index refers to an existing vertex.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for i, f := range m.Faces {
		for _, v := range f.V {
			if v < 0 || v >= n {
				return fmt.Errorf("mesh %q: face %d references vertex %d of %d", m.Name, i, v, n)
			}
		}
	}
	return nil
}

// Fit recenters the vertex data on the origin and rescales it so the
// largest dimension equals size. Empty or flat-to-a-point meshes are
// left as they are.
func (m *Mesh) Fit(size float64) {
	m.CalculateBounds()
	dims := m.Size()
	maxDim := max(dims.X, dims.Y, dims.Z)
	if maxDim <= 0 {
		return
	}

	center := m.Center()
	s := size / maxDim
	transform := math3d.ScaleUniform(s).Mul(math3d.Translate(center.Negate()))
	for i := range m.Vertices {
		m.Vertices[i] = transform.MulVec3(m.Vertices[i])
	}
	m.CalculateBounds()
}

// SetColor assigns c to every face.
func (m *Mesh) SetColor(c render.Color) {
	for i := range m.Faces {
		m.Faces[i].Color = c
	}
}

// Clone creates a deep copy of the mesh. The texture is shared.
func (m *Mesh) Clone() *Mesh {
	clone := *m
	clone.Vertices = make([]math3d.Vec3, len(m.Vertices))
	clone.Faces = make([]Face, len(m.Faces))
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	return &clone
}
