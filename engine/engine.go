package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// engine implements the Engine interface.
// Runs the fixed-rate tick loop on its own goroutine and renders on the window goroutine.
type engine struct {
	mu *sync.Mutex

	running     bool
	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
	err         error

	window   window.Window
	renderer renderer.Renderer
	scene    scene.Scene
	camera   camera.Camera

	engineTickRate   time.Duration
	tickRateChannel  chan time.Duration
	tickCallback     func(deltaTime float32)
	renderFrameLimit time.Duration
	lastRender       time.Time
	now              func() time.Time
	sleep            func(time.Duration)
}

// Engine drives one renderer: it ticks scene logic at a fixed rate and renders the scene
// from the camera every time the window pumps its messages.
type Engine interface {
	// Window returns the window the engine pumps.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Scene returns the scene that is rendered.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// Camera returns the viewpoint the scene is rendered from.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// SetTickRate sets the tick rate in ticks per second.
	// If the engine is running, the change takes effect on the next tick.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick. The callback never runs
	// concurrently with a render, so it may mutate the scene and camera freely.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick loop and pumps the window until it closes or Quit is called.
	// A fatal render error stops the loop and is returned. The window is left open.
	//
	// Returns:
	//   - error: the render error that stopped the engine, or nil
	Run() error

	// Quit signals the engine to stop. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine over an initialized renderer.
//
// Parameters:
//   - w: the window to pump; its resize events resize the renderer and the camera aspect
//   - r: the renderer, already initialized on a surface of w
//   - s: the scene to render
//   - c: the camera to render from
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(w window.Window, r renderer.Renderer, s scene.Scene, c camera.Camera, options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		quitChannel:     make(chan struct{}),
		window:          w,
		renderer:        r,
		scene:           s,
		camera:          c,
		engineTickRate:  time.Second / 60,
		tickRateChannel: make(chan time.Duration, 1),
		now:             time.Now,
		sleep:           time.Sleep,
	}
	for _, opt := range options {
		opt(e)
	}

	e.window.SetResizeCallback(e.resize)
	e.window.SetUpdateCallback(e.frame)
	return e
}

func (e *engine) Window() window.Window       { return e.window }
func (e *engine) Renderer() renderer.Renderer { return e.renderer }
func (e *engine) Scene() scene.Scene          { return e.scene }
func (e *engine) Camera() camera.Camera       { return e.camera }

func (e *engine) resize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if width > 0 && height > 0 {
		e.camera.SetAspect(float32(width) / float32(height))
	}
	if err := e.renderer.Resize(width, height); err != nil {
		common.Logger().Warn("resize failed", "width", width, "height", height, "error", err)
	}
}

func (e *engine) Run() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine already running")
	}
	e.running = true
	e.lastRender = e.now()
	e.mu.Unlock()

	e.wg.Add(1)
	go e.handleEngine()

	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	return e.err
}

func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop until the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(dt)
		case next := <-e.tickRateChannel:
			ticker.Reset(next)
		}
	}
}

func (e *engine) tick(dt float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
}

// frame renders one frame. It runs on the window goroutine, which owns the graphics context.
func (e *engine) frame() {
	select {
	case <-e.quitChannel:
		e.window.RequestClose()
		return
	default:
	}

	e.mu.Lock()
	err := e.renderer.Render(e.scene, e.camera)
	if err != nil {
		e.err = fmt.Errorf("render: %w", err)
	}
	limit := e.renderFrameLimit
	start := e.lastRender
	e.mu.Unlock()

	if err != nil {
		common.Logger().Error("render failed, stopping", "error", err)
		e.signalQuit()
		e.window.RequestClose()
		return
	}

	if limit > 0 {
		if remaining := limit - e.now().Sub(start); remaining > 0 {
			e.sleep(remaining)
		}
	}
	e.mu.Lock()
	e.lastRender = e.now()
	e.mu.Unlock()
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	rate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.engineTickRate = rate
	if !e.running {
		return
	}
	// Replace any pending update so the loop always sees the latest rate.
	select {
	case <-e.tickRateChannel:
	default:
	}
	e.tickRateChannel <- rate
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameLimit(fps)
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
