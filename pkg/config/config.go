// Package config loads scene descriptions for the viewer from TOML or
// YAML files and watches them for changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config describes a scene and how to render it.
// Angles are in degrees except Spin, which is radians per second.
type Config struct {
	Width  int `toml:"width" yaml:"width"`   // Framebuffer width in pixels
	Height int `toml:"height" yaml:"height"` // Framebuffer height in pixels
	FPS    int `toml:"fps" yaml:"fps"`

	FOV  float64 `toml:"fov" yaml:"fov"` // Vertical field of view
	Near float64 `toml:"near" yaml:"near"`
	Far  float64 `toml:"far" yaml:"far"`

	Mode         string  `toml:"mode" yaml:"mode"`
	Cull         string  `toml:"cull" yaml:"cull"`
	DepthTest    bool    `toml:"depth_test" yaml:"depth_test"`
	Background   string  `toml:"background" yaml:"background"` // 0xAARRGGBB
	Grid         int     `toml:"grid" yaml:"grid"`             // Grid spacing, 0 disables
	MaxTriangles int     `toml:"max_triangles" yaml:"max_triangles"`
	Light        Vector3 `toml:"light" yaml:"light"`

	Camera Camera `toml:"camera" yaml:"camera"`
	Meshes []Mesh `toml:"meshes" yaml:"meshes"`
}

// Camera is the initial camera placement.
type Camera struct {
	Position Vector3 `toml:"position" yaml:"position"`
	Yaw      float64 `toml:"yaw" yaml:"yaw"`
	Pitch    float64 `toml:"pitch" yaml:"pitch"`
}

// Mesh places one model in the scene.
type Mesh struct {
	Path        string  `toml:"path" yaml:"path"`       // Empty selects the built-in cube
	Texture     string  `toml:"texture" yaml:"texture"` // Overrides any texture the model carries
	Color       string  `toml:"color" yaml:"color"`     // Overrides face colors, 0xAARRGGBB
	Fit         bool    `toml:"fit" yaml:"fit"`         // Recenter and scale to a size of 2
	Scale       Vector3 `toml:"scale" yaml:"scale"`     // Zero means unit scale
	Rotation    Vector3 `toml:"rotation" yaml:"rotation"`
	Translation Vector3 `toml:"translation" yaml:"translation"`
	Spin        Vector3 `toml:"spin" yaml:"spin"`

	// TextureSize downscales textures whose larger side exceeds it.
	// Zero keeps the decoded size.
	TextureSize int `toml:"texture_size" yaml:"texture_size"`
}

// Vector3 is an x, y, z triple written as a three element array.
type Vector3 [3]float64

// Vec3 converts v to a math3d vector.
func (v Vector3) Vec3() math3d.Vec3 {
	return math3d.V3(v[0], v[1], v[2])
}

// Radians converts a vector of degrees to radians.
func (v Vector3) Radians() math3d.Vec3 {
	return v.Vec3().Scale(math.Pi / 180)
}

// Default returns a single cube five units in front of the camera, drawn
// as a wireframe with back-face culling.
func Default() Config {
	return Config{
		Width:        160,
		Height:       96,
		FPS:          60,
		FOV:          60,
		Near:         0.1,
		Far:          100,
		Mode:         render.ModeWire.String(),
		Cull:         render.CullBackface.String(),
		DepthTest:    true,
		Background:   "0xFF000000",
		Grid:         render.DefaultGridSpacing,
		MaxTriangles: 10000,
		Light:        Vector3{0, 0, 1},
		Meshes: []Mesh{{
			Scale:       Vector3{1, 1, 1},
			Translation: Vector3{0, 0, 5},
			Spin:        Vector3{0.6, 0.9, 0.2},
		}},
	}
}

// Load reads a config file, using the extension to pick the format.
// Keys missing from the file keep their Default values. A file that
// lists meshes replaces the default mesh list. Relative mesh and texture
// paths are resolved against the config file's directory after a
// leading ~ is expanded to the home directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	cfg.Meshes = nil
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = nil // empty document
		}
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.Meshes == nil {
		cfg.Meshes = Default().Meshes
	}

	dir := filepath.Dir(path)
	for i := range cfg.Meshes {
		m := &cfg.Meshes[i]
		if m.Path, err = resolve(dir, m.Path); err != nil {
			return Config{}, fmt.Errorf("mesh %d path: %w", i, err)
		}
		if m.Texture, err = resolve(dir, m.Texture); err != nil {
			return Config{}, fmt.Errorf("mesh %d texture: %w", i, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolve(dir, p string) (string, error) {
	if p == "" {
		return p, nil
	}
	p, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(dir, p), nil
}

// Validate checks ranges and that named modes and colors parse. It also
// fills a zero mesh scale with unit scale.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Width > 0 && c.Height > 0, "viewport %dx%d must be positive", c.Width, c.Height)
	check(c.FPS > 0, "fps %d must be positive", c.FPS)
	check(c.FOV > 0 && c.FOV < 180, "fov %g must be in (0, 180)", c.FOV)
	check(c.Near > 0 && c.Far > c.Near, "clip range %g..%g must satisfy 0 < near < far", c.Near, c.Far)
	check(c.Grid >= 0, "grid spacing %d must not be negative", c.Grid)
	check(c.MaxTriangles >= 0, "max_triangles %d must not be negative", c.MaxTriangles)
	check(c.Light.Vec3().LenSq() > 0, "light direction must be non-zero")

	if _, err := render.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := render.ParseCullMode(c.Cull); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseColor(c.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}

	for i := range c.Meshes {
		m := &c.Meshes[i]
		if m.Scale == (Vector3{}) {
			m.Scale = Vector3{1, 1, 1}
		}
		check(m.TextureSize >= 0, "mesh %d texture_size %d must not be negative", i, m.TextureSize)
		if m.Color != "" {
			if _, err := ParseColor(m.Color); err != nil {
				errs = append(errs, fmt.Errorf("mesh %d color: %w", i, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// RenderMode returns the parsed render mode. Call after Validate.
func (c *Config) RenderMode() render.Mode {
	m, _ := render.ParseMode(c.Mode)
	return m
}

// CullMode returns the parsed cull mode. Call after Validate.
func (c *Config) CullMode() render.CullMode {
	m, _ := render.ParseCullMode(c.Cull)
	return m
}

// BackgroundColor returns the parsed background color. Call after Validate.
func (c *Config) BackgroundColor() render.Color {
	col, _ := ParseColor(c.Background)
	return col
}

// ParseColor parses a packed 0xAARRGGBB color. A leading "#" is accepted
// as well, and six hex digits give an opaque color.
func ParseColor(s string) (render.Color, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "#"), "0x")
	if len(hex) != 6 && len(hex) != 8 {
		return 0, fmt.Errorf("color %q: want 6 or 8 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return render.Color(v), nil
}
