package main

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/taigrr/scanline/internal/logging"
	"github.com/taigrr/scanline/pkg/config"
	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
	"github.com/taigrr/scanline/pkg/pipeline"
	"github.com/taigrr/scanline/pkg/render"
)

// Per-second rates for the camera keys.
const (
	pitchRate = 3.0
	yawRate   = 1.0
	moveRate  = 5.0
)

// scene ties the loaded meshes to the pipeline and the render context.
// All of its methods run on the frame loop goroutine.
type scene struct {
	cfg      config.Config
	meshes   []*models.Mesh
	base     []math3d.Vec3 // Configured rotation per mesh
	spun     []math3d.Vec3 // Accumulated spin per mesh
	pipe     *pipeline.Pipeline
	ctx      *render.Context
	rotation *RotationState
}

func newScene(cfg config.Config, fb *render.Framebuffer) (*scene, error) {
	meshes, err := loadMeshes(cfg)
	if err != nil {
		return nil, err
	}

	cam := pipeline.NewCamera()
	cam.SetPosition(cfg.Camera.Position.Vec3())
	cam.SetRotation(degToRad(cfg.Camera.Pitch), degToRad(cfg.Camera.Yaw))

	s := &scene{
		cfg:      cfg,
		meshes:   meshes,
		base:     make([]math3d.Vec3, len(meshes)),
		spun:     make([]math3d.Vec3, len(meshes)),
		pipe:     pipeline.New(projection(cfg, fb), cam, pipeline.NewLight(cfg.Light.Vec3())),
		rotation: NewRotationState(cfg.FPS),
	}
	s.pipe.MaxTrianglesPerMesh = cfg.MaxTriangles
	for i, m := range meshes {
		s.base[i] = m.Rotation
	}

	s.ctx = render.NewContext(fb)
	s.ctx.Mode = cfg.RenderMode()
	s.ctx.Cull = cfg.CullMode()
	s.ctx.DepthTest = cfg.DepthTest
	s.ctx.Background = cfg.BackgroundColor()
	s.ctx.GridSpacing = cfg.Grid
	return s, nil
}

func projection(cfg config.Config, fb *render.Framebuffer) pipeline.Projection {
	return pipeline.Projection{
		FOVY:   degToRad(cfg.FOV),
		Width:  fb.Width,
		Height: fb.Height,
		Near:   cfg.Near,
		Far:    cfg.Far,
	}
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// loadMeshes builds every configured mesh. Meshes without a texture get a
// checker pattern so the textured modes always have something to sample.
func loadMeshes(cfg config.Config) ([]*models.Mesh, error) {
	meshes := make([]*models.Mesh, 0, len(cfg.Meshes))
	for i, mc := range cfg.Meshes {
		var (
			m   *models.Mesh
			err error
		)
		if mc.Path == "" {
			m = models.NewCube()
		} else if m, err = models.Load(mc.Path); err != nil {
			return nil, fmt.Errorf("load mesh %d: %w", i, err)
		}

		if mc.Fit {
			m.Fit(2)
		}
		if mc.Color != "" {
			c, err := config.ParseColor(mc.Color)
			if err != nil {
				return nil, fmt.Errorf("mesh %d: %w", i, err)
			}
			m.SetColor(c)
		}
		if mc.Texture != "" {
			tex, err := render.LoadTexture(mc.Texture)
			if err != nil {
				return nil, fmt.Errorf("mesh %d: %w", i, err)
			}
			m.Texture = tex
		}
		if m.Texture == nil {
			m.Texture = render.NewCheckerTexture(64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100))
		}
		m.Texture = m.Texture.Fit(mc.TextureSize)

		m.Scale = mc.Scale.Vec3()
		m.Rotation = mc.Rotation.Radians()
		m.Translation = mc.Translation.Vec3()

		logging.Logger().Info("mesh ready", "index", i, "name", m.Name,
			"vertices", m.VertexCount(), "faces", m.TriangleCount())
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// resize retargets the scene at a new framebuffer.
func (s *scene) resize(fb *render.Framebuffer) {
	s.ctx.Target = fb
	s.pipe.SetProjection(projection(s.cfg, fb))
}

// update advances the animation by dt seconds.
func (s *scene) update(dt float64) {
	s.rotation.Update()
	user := math3d.V3(s.rotation.Pitch.Position, s.rotation.Yaw.Position, s.rotation.Roll.Position)
	for i, m := range s.meshes {
		s.spun[i] = s.spun[i].Add(s.cfg.Meshes[i].Spin.Vec3().Scale(dt))
		m.Rotation = s.base[i].Add(s.spun[i]).Add(user)
	}
}

// draw renders one frame into the context's target and returns the
// number of triangles drawn.
func (s *scene) draw() int {
	tris := s.pipe.Process(s.ctx, s.meshes)
	s.ctx.Begin()
	s.ctx.Draw(tris)
	return len(tris)
}

// handleKey applies one key press. dt scales the continuous camera
// controls. It reports whether the key asks to quit.
func (s *scene) handleKey(key string, dt float64) (quit bool) {
	cam := s.pipe.Camera
	switch key {
	case "1":
		s.ctx.Mode = render.ModeWireVertex
	case "2":
		s.ctx.Mode = render.ModeWire
	case "3":
		s.ctx.Mode = render.ModeFill
	case "4":
		s.ctx.Mode = render.ModeFillWire
	case "5":
		s.ctx.Mode = render.ModeTexture
	case "6":
		s.ctx.Mode = render.ModeTexturedWire
	case "7":
		s.ctx.Cull = render.CullBackface
	case "8":
		s.ctx.Cull = render.CullNone
	case "p":
		s.ctx.DepthTest = !s.ctx.DepthTest
	case "g":
		if s.ctx.GridSpacing > 0 {
			s.ctx.GridSpacing = 0
		} else {
			s.ctx.GridSpacing = render.DefaultGridSpacing
		}
	case "w":
		cam.Rotate(pitchRate*dt, 0)
	case "s":
		cam.Rotate(-pitchRate*dt, 0)
	case "right":
		cam.Rotate(0, yawRate*dt)
	case "left":
		cam.Rotate(0, -yawRate*dt)
	case "up":
		cam.MoveForward(moveRate * dt)
	case "down":
		cam.MoveForward(-moveRate * dt)
	case "space":
		s.rotation.ApplyImpulse(
			(rand.Float64()-0.5)*1.5,
			(rand.Float64()-0.5)*1.5,
			(rand.Float64()-0.5)*1.5,
		)
	case "r":
		s.rotation.Reset()
		clear(s.spun)
		cam.SetPosition(s.cfg.Camera.Position.Vec3())
		cam.SetRotation(degToRad(s.cfg.Camera.Pitch), degToRad(s.cfg.Camera.Yaw))
	case "escape", "ctrl+c":
		return true
	}
	return false
}

// drag turns the meshes by a mouse drag of dx, dy cells.
func (s *scene) drag(dx, dy int) {
	s.rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03, 0)
}
