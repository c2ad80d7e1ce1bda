package models

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/udhos/gwob"

	"github.com/taigrr/scanline/internal/logging"
	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

var errNoFaces = errors.New("no faces")

func objOptions() *gwob.ObjParserOptions {
	return &gwob.ObjParserOptions{
		IgnoreNormals: true,
		Logger: func(msg string) {
			logging.Logger().Debug("obj parser", "msg", msg)
		},
	}
}

// LoadOBJ loads a Wavefront OBJ file. A material library named by mtllib
// is read relative to the file; a material's Kd color becomes the color
// of the faces that use it and the first map_Kd image becomes the mesh
// texture.
func LoadOBJ(path string) (*Mesh, error) {
	opts := objOptions()
	obj, err := gwob.NewObjFromFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	mesh, err := meshFromOBJ(filepath.Base(path), obj)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if obj.Mtllib != "" {
		applyMaterials(mesh, obj, filepath.Dir(path), opts)
	}
	return finishOBJ(mesh)
}

// ParseOBJ parses OBJ data from r. Material libraries are not resolved.
//
// Faces may use the v, v/vt, v//vn and v/vt/vn forms with positive or
// negative (relative) indices; faces with more than three corners are
// fanned into triangles. Normals are ignored.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	obj, err := gwob.NewObjFromReader("obj", r, objOptions())
	if err != nil {
		return nil, err
	}
	mesh, err := meshFromOBJ("obj", obj)
	if err != nil {
		return nil, err
	}
	return finishOBJ(mesh)
}

// meshFromOBJ copies the parsed vertex stream into a Mesh. The parser
// merges each distinct position and texture coordinate pair into one
// element, so the mesh has one vertex per element and faces index them
// 0-based.
func meshFromOBJ(name string, obj *gwob.Obj) (*Mesh, error) {
	stride := obj.StrideSize / 4
	if len(obj.Indices) < 3 || stride < 3 {
		return nil, errNoFaces
	}
	posOff := obj.StrideOffsetPosition / 4
	texOff := obj.StrideOffsetTexture / 4

	n := len(obj.Coord) / stride
	mesh := NewMesh(name)
	mesh.Vertices = make([]math3d.Vec3, n)
	uvs := make([]math3d.Vec2, n)
	for i := range n {
		c := obj.Coord[i*stride : (i+1)*stride]
		mesh.Vertices[i] = math3d.V3(float64(c[posOff]), float64(c[posOff+1]), float64(c[posOff+2]))
		if obj.TextCoordFound {
			uvs[i] = math3d.V2(float64(c[texOff]), float64(c[texOff+1]))
		}
	}

	mesh.Faces = make([]Face, 0, len(obj.Indices)/3)
	for i := 0; i+2 < len(obj.Indices); i += 3 {
		f := Face{Color: DefaultFaceColor}
		for k := range 3 {
			idx := obj.Indices[i+k]
			f.V[k] = idx
			if idx >= 0 && idx < n {
				f.UV[k] = uvs[idx]
			}
		}
		mesh.Faces = append(mesh.Faces, f)
	}
	return mesh, nil
}

// applyMaterials colors faces by their usemtl group and loads the first
// diffuse map. A missing or unreadable library is logged and skipped.
func applyMaterials(mesh *Mesh, obj *gwob.Obj, dir string, opts *gwob.ObjParserOptions) {
	path := filepath.Join(dir, obj.Mtllib)
	lib, err := gwob.ReadMaterialLibFromFile(path, opts)
	if err != nil {
		logging.Logger().Warn("obj material library skipped", "path", path, "err", err)
		return
	}

	var texPath string
	for _, g := range obj.Groups {
		mtl, ok := lib.Lib[g.Usemtl]
		if !ok {
			continue
		}
		if texPath == "" && mtl.MapKd != "" {
			texPath = filepath.Join(dir, mtl.MapKd)
		}
		// A material without Kd keeps the default color.
		if mtl.Kd == [3]float32{} {
			continue
		}
		color := render.RGB(unitByte(float64(mtl.Kd[0])), unitByte(float64(mtl.Kd[1])), unitByte(float64(mtl.Kd[2])))
		first := g.IndexBegin / 3
		last := min(first+g.IndexCount/3, len(mesh.Faces))
		for i := first; i < last; i++ {
			mesh.Faces[i].Color = color
		}
	}

	if texPath == "" {
		return
	}
	tex, err := render.LoadTexture(texPath)
	if err != nil {
		logging.Logger().Warn("obj texture skipped", "path", texPath, "err", err)
		return
	}
	mesh.Texture = tex
}

func finishOBJ(mesh *Mesh) (*Mesh, error) {
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	mesh.CalculateBounds()
	logging.Logger().Debug("obj loaded", "name", mesh.Name,
		"vertices", mesh.VertexCount(), "faces", mesh.TriangleCount())
	return mesh, nil
}

func unitByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
