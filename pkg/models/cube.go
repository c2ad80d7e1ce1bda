package models

import "github.com/taigrr/scanline/pkg/math3d"

var cubeVertices = []math3d.Vec3{
	{X: -1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: -1, Z: 1},
}

// Two triangles per side; each side maps the full texture.
var cubeFaces = [][3]int{
	// front
	{0, 1, 2}, {0, 2, 3},
	// right
	{3, 2, 4}, {3, 4, 5},
	// back
	{5, 4, 6}, {5, 6, 7},
	// left
	{7, 6, 1}, {7, 1, 0},
	// top
	{1, 6, 4}, {1, 4, 2},
	// bottom
	{5, 7, 0}, {5, 0, 3},
}

var (
	cubeUVFirst  = [3]math3d.Vec2{{X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}}
	cubeUVSecond = [3]math3d.Vec2{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}}
)

// NewCube returns a cube spanning [-1, 1] on every axis with 8 vertices and
// 12 white faces. Faces wind clockwise when seen from outside.
func NewCube() *Mesh {
	m := NewMesh("cube")
	m.Vertices = append([]math3d.Vec3(nil), cubeVertices...)
	m.Faces = make([]Face, len(cubeFaces))
	for i, v := range cubeFaces {
		uv := cubeUVFirst
		if i%2 == 1 {
			uv = cubeUVSecond
		}
		m.Faces[i] = Face{V: v, UV: uv, Color: DefaultFaceColor}
	}
	m.CalculateBounds()
	return m
}
