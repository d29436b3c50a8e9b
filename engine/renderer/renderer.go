package renderer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/capability"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrDisposed is returned by every operation called after Dispose.
	ErrDisposed = errors.New("renderer: disposed")
	// ErrNotInitialized is returned by Render and Resize before a successful Initialize.
	ErrNotInitialized = errors.New("renderer: not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("renderer: already initialized")
)

// DefaultClearColor is used when a scene has no background.
var DefaultClearColor = common.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// Scene is the scene graph as seen by the renderer.
type Scene interface {
	// Background describes the clear color source.
	Background() common.Background
	// UpdateWorldMatrices recomposes every node's world matrix from its local transform.
	UpdateWorldMatrices()
	// Walk visits every visible node, parents before children and siblings in insertion order.
	Walk(visit func(Node))
}

// Node is one visible scene object.
type Node interface {
	// ID is the node's stable identity; the resource cache is keyed by it.
	ID() uint64
	// WorldMatrix is the node's model-to-world transform.
	WorldMatrix() mgl32.Mat4
	// Drawable returns what the node draws; KindNone for pure grouping nodes.
	Drawable() resource_cache.Drawable
}

// DrawHooks may be implemented by a Node to run code around its draw call.
type DrawHooks interface {
	BeforeDraw()
	AfterDraw()
}

// Camera supplies the view and projection transforms.
type Camera interface {
	// UpdateMatrices recomputes the world, inverse-world and projection matrices.
	UpdateMatrices()
	// ProjectionMatrix returns the clip transform.
	ProjectionMatrix() mgl32.Mat4
	// ViewMatrix returns the inverse of the camera's world matrix.
	ViewMatrix() mgl32.Mat4
}

type lifecycle int

const (
	stateNew lifecycle = iota
	stateReady
	stateDisposed
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu sync.Mutex

	surface negotiator.Surface
	state   lifecycle

	ctx     gpu.Context
	variant string
	caps    capability.Descriptor
	program *shader.Program
	layout  gpu.VertexLayout
	mvp     int
	cache   *resource_cache.Cache

	clearColor    common.Color
	clearColorSet bool
	defaultClear  common.Color

	uploadPolicy resource_cache.UploadPolicy
	profiler     *profiler.Profiler
	now          func() time.Time

	stats     FrameStats
	lastFrame time.Time
	visited   map[uint64]struct{}
	touched   []resource_cache.Geometry
}

// Renderer draws a scene through one negotiated graphics context and owns every GPU
// object created for it.
//
// A Renderer is single-threaded: Initialize, Render, Resize and Dispose must be called from
// the goroutine that owns the surface.
type Renderer interface {
	// Initialize negotiates a context on the surface, compiles the default program and probes
	// the context's capabilities. Any failure is fatal and leaves nothing allocated.
	//
	// Parameters:
	//   - config: the preferred context settings
	//
	// Returns:
	//   - error: a config error, *negotiator.NegotiationError, *shader.CompileError,
	//     ErrAlreadyInitialized or ErrDisposed
	Initialize(config Config) error

	// Render draws one frame of scene as seen from camera and updates Stats.
	// A fatal error abandons the frame without presenting it.
	//
	// Parameters:
	//   - scene: the scene to draw
	//   - camera: the viewpoint
	//
	// Returns:
	//   - error: a *resource_cache.IndexWidthError, a context error, ErrNotInitialized or ErrDisposed
	Render(scene Scene, camera Camera) error

	// Resize resizes the surface. Both dimensions are clamped to at least 1.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: a context error, ErrNotInitialized or ErrDisposed
	Resize(width, height int) error

	// Dispose releases every cached buffer, the default program and the context.
	// It is idempotent. Initialize, Render and Resize return ErrDisposed afterwards; the
	// read-only accessors Stats, Capabilities and Variant keep returning the last values.
	Dispose()

	// Stats returns the statistics of the last successfully rendered frame. It stays
	// readable after Dispose.
	//
	// Returns:
	//   - FrameStats: a copy of the latest statistics
	Stats() FrameStats

	// Capabilities returns the capabilities probed at Initialize. It stays readable after
	// Dispose.
	//
	// Returns:
	//   - capability.Descriptor: a copy of the descriptor
	Capabilities() capability.Descriptor

	// Variant returns the context variant negotiation obtained, or "" before Initialize.
	// It stays readable after Dispose.
	//
	// Returns:
	//   - string: the variant name
	Variant() string
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer that will draw to surface once initialized.
//
// Parameters:
//   - surface: the presentable target, e.g. a gl, webgl or native backend surface
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new, uninitialized renderer
func NewRenderer(surface negotiator.Surface, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		surface:      surface,
		defaultClear: DefaultClearColor,
		now:          time.Now,
		visited:      make(map[uint64]struct{}),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) Initialize(config Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case stateDisposed:
		return ErrDisposed
	case stateReady:
		return ErrAlreadyInitialized
	}
	if err := config.Validate(); err != nil {
		return err
	}

	res, err := negotiator.Acquire(r.surface, config.attributes())
	if err != nil {
		return err
	}
	ctx := res.Context

	program, err := shader.Compile(ctx, DefaultProgramSource(ctx.Backend(), ctx.Variant()), defaultAttributes, defaultUniforms)
	if err != nil {
		ctx.Destroy()
		return fmt.Errorf("default program: %w", err)
	}

	r.ctx = ctx
	r.variant = ctx.Variant()
	r.program = program
	r.caps = capability.Probe(ctx)
	r.layout = resource_cache.Layout(
		program.Attribute(AttributePosition),
		program.Attribute(AttributeColor),
		program.Attribute(AttributeSize),
	)
	r.mvp = program.Uniform(UniformModelViewProjection)
	r.cache = resource_cache.New(ctx, r.caps.Uint32Indices, resource_cache.WithUploadPolicy(r.uploadPolicy))
	r.clearColorSet = false
	r.state = stateReady

	common.Logger().Info("renderer initialized",
		"backend", string(ctx.Backend()),
		"variant", r.variant,
		"max_texture_size", r.caps.MaxTextureSize,
		"uint32_indices", r.caps.Uint32Indices,
	)
	return nil
}

func (r *renderer) guard() error {
	switch r.state {
	case stateDisposed:
		return ErrDisposed
	case stateNew:
		return ErrNotInitialized
	}
	return nil
}

func (r *renderer) Render(scene Scene, camera Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return err
	}

	start := r.now()
	ctx := r.ctx
	if err := ctx.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	if cc := scene.Background().ClearColor(r.defaultClear); !r.clearColorSet || cc != r.clearColor {
		ctx.SetClearColor(cc)
		r.clearColor, r.clearColorSet = cc, true
	}
	w, h := ctx.Size()
	ctx.SetViewport(0, 0, w, h)
	ctx.Clear()

	scene.UpdateWorldMatrices()
	camera.UpdateMatrices()
	viewProjection := camera.ProjectionMatrix().Mul4(camera.ViewMatrix())

	ctx.UseProgram(r.program.Handle)
	clear(r.visited)
	clear(r.touched)
	r.touched = r.touched[:0]

	var drawCalls, triangles int
	var fatal error
	scene.Walk(func(n Node) {
		if fatal != nil {
			return
		}
		d := n.Drawable()
		if d.Kind == resource_cache.KindNone {
			return
		}
		id := n.ID()
		entry, ok, err := r.cache.Ensure(id, d)
		if err != nil {
			if errors.Is(err, resource_cache.ErrIndexOverflow) {
				fatal = err
				return
			}
			common.Logger().Warn("skipping node", "id", id, "err", err)
			return
		}
		if !ok {
			return
		}
		r.visited[id] = struct{}{}
		r.touched = append(r.touched, d.Geometry)

		ctx.BindVertexBuffer(entry.VertexBuffer, r.layout)
		if entry.HasIndex {
			ctx.BindIndexBuffer(entry.IndexBuffer, entry.IndexFormat)
		}
		ctx.SetUniformMat4(r.mvp, viewProjection.Mul4(n.WorldMatrix()))

		hooks, hasHooks := n.(DrawHooks)
		if hasHooks {
			hooks.BeforeDraw()
		}
		if entry.HasIndex {
			err = ctx.DrawIndexed(entry.Topology, entry.IndexCount, entry.IndexFormat)
		} else {
			err = ctx.Draw(entry.Topology, 0, entry.VertexCount)
		}
		if hasHooks {
			hooks.AfterDraw()
		}
		if err != nil {
			fatal = fmt.Errorf("object %d: draw %s: %w", id, entry.Topology, err)
			return
		}
		drawCalls++
		triangles += entry.Triangles
	})

	if fatal != nil {
		ctx.DiscardFrame()
		return fatal
	}

	r.cache.Sweep(r.visited)
	for _, g := range r.touched {
		if cl, ok := g.(interface{ ClearNeedsUpdate() }); ok {
			cl.ClearNeedsUpdate()
		}
	}
	if err := ctx.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}

	stats := FrameStats{
		Triangles:     triangles,
		DrawCalls:     drawCalls,
		BufferMemory:  r.cache.BufferBytes(),
		TextureMemory: ctx.TextureMemory(),
		Timestamp:     start,
	}
	if !r.lastFrame.IsZero() {
		stats.FrameTime = start.Sub(r.lastFrame)
		if stats.FrameTime > 0 {
			stats.FPS = 1 / stats.FrameTime.Seconds()
		}
	}
	r.lastFrame = start
	r.stats = stats

	if r.profiler != nil {
		r.profiler.Tick(profiler.Sample{
			DrawCalls:    drawCalls,
			Triangles:    triangles,
			BufferBytes:  stats.BufferMemory,
			TextureBytes: stats.TextureMemory,
		})
	}
	return nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.guard(); err != nil {
		return err
	}
	return r.ctx.Resize(max(1, width), max(1, height))
}

func (r *renderer) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateDisposed {
		return
	}
	if r.state == stateReady {
		r.cache.Dispose()
		r.program.Release(r.ctx)
		r.ctx.Destroy()
		common.Logger().Info("renderer disposed", "variant", r.variant)
	}
	r.ctx, r.cache, r.program = nil, nil, nil
	r.state = stateDisposed
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Capabilities() capability.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caps.Clone()
}

func (r *renderer) Variant() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variant
}
