package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load reads a mesh from path, picking the decoder from the file extension.
// Supported extensions are .obj, .gltf and .glb.
func Load(path string) (*Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return LoadOBJ(path)
	case ".gltf", ".glb":
		return LoadGLTF(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
