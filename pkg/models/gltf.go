package models

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/scanline/internal/logging"
	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// LoadTextures decodes the first embedded or referenced image into
	// Mesh.Texture.
	LoadTextures bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{LoadTextures: true}
}

// LoadGLTF loads a .gltf or .glb file with its texture.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh. Every triangle
// primitive of every mesh in the document is merged into one Mesh.
//
// Positions are used as stored and triangle winding is kept. Reading the
// right-handed glTF data into the left-handed space mirrors the model
// along Z, which also turns its counter-clockwise front faces clockwise.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	mesh.CalculateBounds()

	if l.LoadTextures {
		img, err := firstImage(doc, filepath.Dir(path))
		if err != nil {
			logging.Logger().Warn("gltf texture skipped", "path", path, "err", err)
		} else if img != nil {
			mesh.Texture = render.TextureFromImage(img)
		}
	}

	logging.Logger().Debug("gltf loaded", "path", path,
		"vertices", mesh.VertexCount(), "faces", mesh.TriangleCount(),
		"textured", mesh.Texture != nil)
	return mesh, nil
}

// processMesh extracts geometry from a GLTF mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		color := materialColor(doc, prim.Material)
		baseVertex := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, positions...)

		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{Color: color}
			for k := range 3 {
				idx := indices[i+k]
				f.V[k] = baseVertex + idx
				if idx < len(uvs) {
					// GLTF puts V=0 at the top of the image; faces store V up
					f.UV[k] = math3d.V2(uvs[idx].X, 1.0-uvs[idx].Y)
				}
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}

	return nil
}

// materialColor returns the base color factor of the material, or the
// default face color when the primitive has none.
func materialColor(doc *gltf.Document, idx *int) render.Color {
	if idx == nil || *idx < 0 || *idx >= len(doc.Materials) {
		return DefaultFaceColor
	}
	pbr := doc.Materials[*idx].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return DefaultFaceColor
	}
	f := pbr.BaseColorFactor
	return render.ARGB(unitByte(f[3]), unitByte(f[0]), unitByte(f[1]), unitByte(f[2]))
}

// readVec3Accessor reads a VEC3 position accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor, err := lookupAccessor(doc, accessorIdx, gltf.AccessorVec3)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadPosition(doc, accessor, nil)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, len(raw))
	for i, p := range raw {
		result[i] = math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))
	}
	return result, nil
}

// readVec2Accessor reads a VEC2 texture coordinate accessor. Normalized
// byte and short coordinates are converted to floats.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor, err := lookupAccessor(doc, accessorIdx, gltf.AccessorVec2)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadTextureCoord(doc, accessor, nil)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec2, len(raw))
	for i, uv := range raw {
		result[i] = math3d.V2(float64(uv[0]), float64(uv[1]))
	}
	return result, nil
}

// readIndices reads an unsigned byte, short or int index accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor, err := lookupAccessor(doc, accessorIdx, gltf.AccessorScalar)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadIndices(doc, accessor, nil)
	if err != nil {
		return nil, err
	}

	result := make([]int, len(raw))
	for i, idx := range raw {
		result[i] = int(idx)
	}
	return result, nil
}

// lookupAccessor returns accessor idx after checking its type and that its
// buffer view exists.
func lookupAccessor(doc *gltf.Document, idx int, typ gltf.AccessorType) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	accessor := doc.Accessors[idx]
	if accessor.Type != typ {
		return nil, fmt.Errorf("accessor %d: expected %v, got %v", idx, typ, accessor.Type)
	}
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	if bv := *accessor.BufferView; bv < 0 || bv >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d: buffer view %d out of range", idx, bv)
	}
	return accessor, nil
}

// firstImage decodes the first image in the document that can be decoded.
// Images are either stored in a buffer view or referenced by URI relative
// to dir. It returns nil, nil when the document carries no images.
func firstImage(doc *gltf.Document, dir string) (image.Image, error) {
	var lastErr error
	for i, img := range doc.Images {
		data, err := imageData(doc, img, dir)
		if err != nil {
			lastErr = fmt.Errorf("image %d: %w", i, err)
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			lastErr = fmt.Errorf("decode image %d: %w", i, err)
			continue
		}
		return decoded, nil
	}
	return nil, lastErr
}

func imageData(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	if img.BufferView != nil {
		if *img.BufferView >= len(doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", *img.BufferView)
		}
		bv := doc.BufferViews[*img.BufferView]
		if bv.Buffer >= len(doc.Buffers) {
			return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
		}
		buf := doc.Buffers[bv.Buffer].Data
		end := bv.ByteOffset + bv.ByteLength
		if end > len(buf) {
			return nil, errors.New("image view past end of buffer")
		}
		return buf[bv.ByteOffset:end], nil
	}
	if img.URI == "" {
		return nil, errors.New("image has no data")
	}
	if img.IsEmbeddedResource() {
		return img.MarshalData()
	}
	return os.ReadFile(filepath.Join(dir, img.URI))
}
