// scanline - software 3D rasterizer
// Renders meshes through a CPU geometry pipeline and rasterizer, either
// live in the terminal or headless into a PNG.
//
// Controls:
//
//	1-6         - Render mode (wire+vertex, wire, fill, fill+wire, textured, textured+wire)
//	7/8         - Back-face culling on/off
//	P           - Toggle depth buffer (painter's sort when off)
//	G           - Toggle background grid
//	W/S         - Pitch camera
//	Left/Right  - Yaw camera
//	Up/Down     - Move camera forward/back
//	Mouse drag  - Spin the meshes
//	Space       - Apply random impulse
//	R           - Reset camera and spin
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/scanline/internal/logging"
	"github.com/taigrr/scanline/pkg/config"
	"github.com/taigrr/scanline/pkg/render"
)

var (
	configPath = flag.String("config", "", "Scene file (.toml, .yaml); defaults to a single cube")
	targetFPS  = flag.Int("fps", 0, "Target FPS (overrides the scene file)")
	modeName   = flag.String("mode", "", "Render mode: wire, wire+vertex, fill, fill+wire, textured, textured+wire")
	pngPath    = flag.String("png", "", "Render headless and write the last frame to this PNG")
	frames     = flag.Int("frames", 1, "Frames to render in headless mode")
	logPath    = flag.String("log", "", "Write debug logs to this file")
	watch      = flag.Bool("watch", false, "Reload the scene file when it changes")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "scanline - software 3D rasterizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: scanline [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  1-6         - Render mode\n")
		fmt.Fprintf(os.Stderr, "  7/8         - Culling on/off\n")
		fmt.Fprintf(os.Stderr, "  P           - Toggle depth buffer\n")
		fmt.Fprintf(os.Stderr, "  G           - Toggle grid\n")
		fmt.Fprintf(os.Stderr, "  W/S         - Pitch camera\n")
		fmt.Fprintf(os.Stderr, "  Left/Right  - Yaw camera\n")
		fmt.Fprintf(os.Stderr, "  Up/Down     - Move camera\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Spin meshes\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logging.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if *pngPath != "" {
		return runHeadless(cfg, *pngPath, *frames)
	}
	return runTerminal(cfg)
}

// loadConfig reads the scene file, if any, and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	if *targetFPS > 0 {
		cfg.FPS = *targetFPS
	}
	if *modeName != "" {
		cfg.Mode = *modeName
	}
}

// runHeadless renders n frames at a fixed 1/FPS step and writes the last.
func runHeadless(cfg config.Config, path string, n int) error {
	fb := render.NewFramebuffer(cfg.Width, cfg.Height)
	s, err := newScene(cfg, fb)
	if err != nil {
		return err
	}

	dt := 1 / float64(cfg.FPS)
	var tris int
	for range max(n, 1) {
		s.update(dt)
		tris = s.draw()
	}

	if err := fb.SavePNG(path); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	logging.Logger().Info("frame written", "path", path, "triangles", tris, "stats", s.pipe.Stats())
	return nil
}

func runTerminal(cfg config.Config) error {
	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1002h") // Button-event mouse tracking (drags)
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1002l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	termRenderer := render.NewTerminalRenderer(term, width, height)
	fb := render.NewFramebuffer(termRenderer.FramebufferSize())

	s, err := newScene(cfg, fb)
	if err != nil {
		return err
	}

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Events are handed to the frame loop so that all scene state is
	// touched from one goroutine.
	events := make(chan uv.Event, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var reloads <-chan config.Config
	var reloadErrs <-chan error
	if *watch && *configPath != "" {
		if reloads, reloadErrs, err = config.Watch(ctx, *configPath); err != nil {
			return err
		}
	}

	var (
		mouseDown              bool
		lastMouseX, lastMouseY int
	)

	lastFrame := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now

		if dt > 0.1 {
			dt = 0.1
		}

	drain:
		for {
			select {
			case ev := <-events:
				switch ev := ev.(type) {
				case uv.WindowSizeEvent:
					width, height = ev.Width, ev.Height
					term.Erase()
					term.Resize(width, height)
					termRenderer = render.NewTerminalRenderer(term, width, height)
					fb = render.NewFramebuffer(termRenderer.FramebufferSize())
					s.resize(fb)

				case uv.KeyPressEvent:
					if s.handleKey(keyName(ev), dt) {
						return nil
					}

				case uv.MouseClickEvent:
					mouseDown = true
					lastMouseX, lastMouseY = ev.X, ev.Y

				case uv.MouseReleaseEvent:
					mouseDown = false

				case uv.MouseMotionEvent:
					if mouseDown {
						s.drag(ev.X-lastMouseX, ev.Y-lastMouseY)
						lastMouseX, lastMouseY = ev.X, ev.Y
					}
				}

			case next, ok := <-reloads:
				if !ok {
					reloads = nil
					continue
				}
				applyFlags(&next)
				ns, err := newScene(next, fb)
				if err != nil {
					logging.Logger().Warn("reload failed", "err", err)
					continue
				}
				s = ns
				logging.Logger().Info("scene reloaded", "path", *configPath)

			case err, ok := <-reloadErrs:
				if !ok {
					reloadErrs = nil
					continue
				}
				logging.Logger().Warn("reload failed", "err", err)

			default:
				break drain
			}
		}

		s.update(dt)
		s.draw()

		// Display
		termRenderer.Render(fb)
		if err := termRenderer.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}

		// Frame timing
		targetDuration := time.Second / time.Duration(s.cfg.FPS)
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// keyNames lists the keys the scene understands.
var keyNames = []string{
	"1", "2", "3", "4", "5", "6", "7", "8",
	"p", "g", "w", "s", "r", "space",
	"left", "right", "up", "down",
	"escape", "ctrl+c",
}

// keyName returns the scene key a press matches, or "" for none.
func keyName(ev uv.KeyPressEvent) string {
	for _, name := range keyNames {
		if ev.MatchString(name) {
			return name
		}
	}
	return ""
}
