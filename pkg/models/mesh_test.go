package models

import (
	"math"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

func TestNewMesh(t *testing.T) {
	m := NewMesh("test")
	if m.Name != "test" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.Scale != math3d.V3(1, 1, 1) {
		t.Errorf("Scale = %v, want unit", m.Scale)
	}
	if m.WorldMatrix() != math3d.Identity() {
		t.Error("new mesh world matrix should be identity")
	}
}

func TestCube(t *testing.T) {
	c := NewCube()
	if c.VertexCount() != 8 {
		t.Errorf("cube vertices = %d, want 8", c.VertexCount())
	}
	if c.TriangleCount() != 12 {
		t.Errorf("cube faces = %d, want 12", c.TriangleCount())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.BoundsMin != math3d.V3(-1, -1, -1) || c.BoundsMax != math3d.V3(1, 1, 1) {
		t.Errorf("bounds = %v..%v", c.BoundsMin, c.BoundsMax)
	}
	for i, f := range c.Faces {
		if f.Color != render.ColorWhite {
			t.Errorf("face %d color = %#x, want white", i, uint32(f.Color))
		}
	}
}

// Every cube face must point away from the center, so the outward normal
// of a clockwise face points the same way as its centroid.
func TestCubeFacesPointOutward(t *testing.T) {
	c := NewCube()
	for i, f := range c.Faces {
		a, b, v := c.Vertices[f.V[0]], c.Vertices[f.V[1]], c.Vertices[f.V[2]]
		n := math3d.TriangleNormal(a, b, v)
		centroid := a.Add(b).Add(v).Scale(1.0 / 3)
		if n.Dot(centroid) <= 0 {
			t.Errorf("face %d normal %v points inward", i, n)
		}
	}
}

func TestCubeIsIndependent(t *testing.T) {
	a := NewCube()
	a.Vertices[0] = math3d.V3(9, 9, 9)
	if NewCube().Vertices[0] == a.Vertices[0] {
		t.Error("NewCube should not share vertex storage")
	}
}

func TestValidate(t *testing.T) {
	m := NewMesh("bad")
	m.Vertices = []math3d.Vec3{{}, {}, {}}
	m.Faces = []Face{{V: [3]int{0, 1, 3}}}
	if err := m.Validate(); err == nil {
		t.Error("expected out of range error")
	}
	m.Faces[0].V = [3]int{0, -1, 2}
	if err := m.Validate(); err == nil {
		t.Error("expected negative index error")
	}
	m.Faces[0].V = [3]int{0, 1, 2}
	if err := m.Validate(); err != nil {
		t.Errorf("valid mesh: %v", err)
	}
}

func TestFit(t *testing.T) {
	m := NewMesh("box")
	m.Vertices = []math3d.Vec3{{X: 10, Y: 0, Z: 0}, {X: 14, Y: 2, Z: 1}}
	m.Fit(2)

	size := m.Size()
	if math.Abs(size.X-2) > 1e-9 || math.Abs(size.Y-1) > 1e-9 || math.Abs(size.Z-0.5) > 1e-9 {
		t.Errorf("size = %v, want (2, 1, 0.5)", size)
	}
	if c := m.Center(); c.Len() > 1e-9 {
		t.Errorf("center = %v, want origin", c)
	}
}

func TestFitDegenerate(t *testing.T) {
	m := NewMesh("point")
	m.Vertices = []math3d.Vec3{{X: 3, Y: 3, Z: 3}}
	m.Fit(2)
	if m.Vertices[0] != math3d.V3(3, 3, 3) {
		t.Errorf("single point should be left alone, got %v", m.Vertices[0])
	}

	empty := NewMesh("empty")
	empty.Fit(2) // must not panic
}

func TestClone(t *testing.T) {
	m := NewCube()
	m.Texture = render.NewTexture(1, 1)
	c := m.Clone()

	c.Vertices[0] = math3d.V3(5, 5, 5)
	c.Faces[0].Color = render.ColorRed
	c.Translation = math3d.V3(1, 2, 3)

	if m.Vertices[0] == c.Vertices[0] {
		t.Error("clone shares vertices")
	}
	if m.Faces[0].Color == render.ColorRed {
		t.Error("clone shares faces")
	}
	if m.Translation == c.Translation {
		t.Error("clone shares transform")
	}
	if c.Texture != m.Texture {
		t.Error("clone should share the texture")
	}
}

func TestSetColor(t *testing.T) {
	m := NewCube()
	m.SetColor(render.ColorBlue)
	for i, f := range m.Faces {
		if f.Color != render.ColorBlue {
			t.Fatalf("face %d not recolored", i)
		}
	}
}
