// Command oxyview opens a window and renders a small scene of spinning primitives through
// the negotiated backend.
//
// Usage:
//
//	oxyview [options]
//
// Examples:
//
//	oxyview                      # OpenGL, 4x MSAA
//	oxyview -backend native      # WebGPU through the native bridge
//	oxyview -msaa 1 -vsync=false # no multisampling, uncapped present
//	oxyview -model duck.glb      # add a glTF model to the scene
//
// Arrow keys orbit the camera, W/A/S/D pan, the scroll wheel zooms and Escape quits.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/loader"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/backend/native"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/backend/opengl"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bridge"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"
)

var (
	backend  = flag.String("backend", "gl", "graphics backend: gl or native")
	msaa     = flag.Uint("msaa", 4, "preferred MSAA sample count: 1, 4, 8 or 16")
	vsync    = flag.Bool("vsync", true, "wait for vertical blank on present")
	power    = flag.String("power", "high-performance", "adapter preference: high-performance, low-power or default")
	tickRate = flag.Float64("tick", 60, "scene updates per second")
	fpsCap   = flag.Float64("fps", 0, "render frame cap (0 = uncapped)")
	stats    = flag.Duration("stats", time.Second, "profiler log interval (0 disables)")
	model    = flag.String("model", "", "glTF or GLB file to add to the scene")
	verbose  = flag.Bool("v", false, "debug logging")
)

func init() {
	// GLFW and GL contexts belong to the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	defer closer.Close()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "oxyview: %v\n", err)
		closer.Exit(1)
	}
}

func run() error {
	config := renderer.DefaultConfig()
	config.SampleCount = renderer.MSAASampleCount(*msaa)
	config.PowerPreference = powerPreference(*power)
	if err := config.Validate(); err != nil {
		return err
	}

	w := window.NewWindow(window.WithTitle("oxyview"), window.WithSize(1280, 720), window.WithMinSize(320, 240))
	surface, err := newSurface(w)
	if err != nil {
		return err
	}

	var options []renderer.RendererBuilderOption
	if *stats > 0 {
		options = append(options, renderer.WithProfiler(profiler.NewProfiler(profiler.WithInterval(*stats))))
	}
	r := renderer.NewRenderer(surface, options...)
	if err := r.Initialize(config); err != nil {
		w.Close()
		return err
	}

	sc, animate := newScene()
	if *model != "" {
		n, err := loader.NewLoader().Load(*model)
		if err != nil {
			r.Dispose()
			sc.Close()
			w.Close()
			return err
		}
		sc.Add(n)
	}
	ctrl := camera.NewCameraController(
		camera.WithRadius(8),
		camera.WithElevation(0.4),
		camera.WithRadiusBounds(2, 60),
		camera.WithZoomSpeed(0.5),
	)
	cam := camera.NewCamera(
		camera.WithAspect(float32(w.Width())/float32(w.Height())),
		camera.WithController(ctrl),
	)
	bindInput(w, ctrl)

	e := engine.NewEngine(w, r, sc, cam,
		engine.WithTickRate(*tickRate),
		engine.WithRenderFrameLimit(*fpsCap),
		engine.WithTickCallback(animate),
	)

	// closer runs bound functions on its signal goroutine. Teardown has to stay on this
	// thread, so the bound function only stops the engine and waits for it.
	done := make(chan struct{})
	closer.Bind(func() {
		e.Quit()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	})

	common.Logger().Info("rendering", "variant", r.Variant(), "backend", *backend)
	err = e.Run()

	// The context has to outlive the objects it owns.
	r.Dispose()
	sc.Close()
	w.Close()
	close(done)
	return err
}

func newSurface(w window.Window) (negotiator.Surface, error) {
	switch *backend {
	case "gl":
		return opengl.NewSurface(w, *vsync), nil
	case "native":
		if err := w.Open(window.Hints{ClientAPI: window.ClientNone, Resizable: true}); err != nil {
			return nil, err
		}
		return native.NewSurface(bridge.NewWGPU(), w.SurfaceDescriptor(), w.Width(), w.Height(), *vsync), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", *backend)
	}
}

func powerPreference(s string) negotiator.PowerPreference {
	switch s {
	case "high-performance":
		return negotiator.PowerHighPerformance
	case "low-power":
		return negotiator.PowerLowPower
	case "default", "":
		return negotiator.PowerDefault
	default:
		return negotiator.PowerPreference(s)
	}
}

func bindInput(w window.Window, ctrl camera.CameraController) {
	w.SetScrollCallback(func(delta float32) {
		ctrl.Zoom(delta)
	})
	w.SetKeyDownCallback(func(key uint32) {
		switch glfw.Key(key) {
		case glfw.KeyLeft:
			ctrl.OrbitLeft()
		case glfw.KeyRight:
			ctrl.OrbitRight()
		case glfw.KeyUp:
			ctrl.OrbitUp()
		case glfw.KeyDown:
			ctrl.OrbitDown()
		case glfw.KeyA:
			ctrl.PanRight(-1)
		case glfw.KeyD:
			ctrl.PanRight(1)
		case glfw.KeyW:
			ctrl.PanUp(1)
		case glfw.KeyS:
			ctrl.PanUp(-1)
		}
	})
}
