package renderer

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

type testSurface struct {
	ctx    *gputest.Context
	refuse bool
}

func (s *testSurface) Kind() string { return "test-surface" }

func (s *testSurface) Ladder() negotiator.Ladder {
	return negotiator.Ladder{High: negotiator.API{Name: "webgl2"}, Low: negotiator.API{Name: "webgl"}}
}

func (s *testSurface) Create(negotiator.Candidate) (gpu.Context, error) {
	if s.refuse {
		return nil, errors.New("no context")
	}
	return s.ctx, nil
}

type testNode struct {
	id       uint64
	world    mgl32.Mat4
	drawable resource_cache.Drawable
	before   int
	after    int
}

func (n *testNode) ID() uint64                        { return n.id }
func (n *testNode) WorldMatrix() mgl32.Mat4           { return n.world }
func (n *testNode) Drawable() resource_cache.Drawable { return n.drawable }
func (n *testNode) BeforeDraw()                       { n.before++ }
func (n *testNode) AfterDraw()                        { n.after++ }

type testScene struct {
	background common.Background
	nodes      []*testNode
	updates    int
}

func (s *testScene) Background() common.Background { return s.background }
func (s *testScene) UpdateWorldMatrices()          { s.updates++ }
func (s *testScene) Walk(visit func(Node)) {
	for _, n := range s.nodes {
		visit(n)
	}
}

type testCamera struct {
	projection, view mgl32.Mat4
	updates          int
}

func (c *testCamera) UpdateMatrices()              { c.updates++ }
func (c *testCamera) ProjectionMatrix() mgl32.Mat4 { return c.projection }
func (c *testCamera) ViewMatrix() mgl32.Mat4       { return c.view }

func identityCamera() *testCamera {
	return &testCamera{projection: mgl32.Ident4(), view: mgl32.Ident4()}
}

func meshNode(id uint64, g geometry.Geometry) *testNode {
	return &testNode{id: id, world: mgl32.Ident4(), drawable: resource_cache.Mesh(g, nil)}
}

func newTestRenderer(t *testing.T, ctx *gputest.Context, options ...RendererBuilderOption) Renderer {
	t.Helper()
	r := NewRenderer(&testSurface{ctx: ctx}, options...)
	cfg := DefaultConfig()
	cfg.SampleCount = MSAAOff
	if err := r.Initialize(cfg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(r.Dispose)
	return r
}

func TestRenderSingleTriangle(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	scene := &testScene{nodes: []*testNode{meshNode(1, geometry.Triangle())}}
	camera := identityCamera()

	if err := r.Render(scene, camera); err != nil {
		t.Fatalf("Render: %v", err)
	}

	stats := r.Stats()
	if stats.DrawCalls != 1 || stats.Triangles != 1 {
		t.Errorf("stats = %+v, want 1 draw and 1 triangle", stats)
	}
	if stats.BufferMemory != 84 {
		t.Errorf("BufferMemory = %d, want 84", stats.BufferMemory)
	}
	if len(ctx.Draws) != 1 || ctx.Draws[0].Indexed || ctx.Draws[0].Count != 3 || ctx.Draws[0].Topology != gpu.Triangles {
		t.Errorf("draws = %+v", ctx.Draws)
	}
	if scene.updates != 1 || camera.updates != 1 {
		t.Errorf("matrices not force-updated: scene %d camera %d", scene.updates, camera.updates)
	}
	if ctx.Presented != 1 || ctx.Clears != 1 {
		t.Errorf("presented %d cleared %d", ctx.Presented, ctx.Clears)
	}
	if n := scene.nodes[0]; n.before != 1 || n.after != 1 {
		t.Errorf("hooks ran %d/%d times", n.before, n.after)
	}
}

func TestRenderComputesModelViewProjection(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	node := meshNode(1, geometry.Triangle())
	node.world = mgl32.Translate3D(1, 2, 3)
	camera := &testCamera{projection: mgl32.Scale3D(2, 2, 2), view: mgl32.Translate3D(0, 0, -5)}

	if err := r.Render(&testScene{nodes: []*testNode{node}}, camera); err != nil {
		t.Fatal(err)
	}
	want := camera.projection.Mul4(camera.view).Mul4(node.world)
	if got := ctx.Draws[0].MVP; !got.ApproxEqual(want) {
		t.Fatalf("MVP = %v, want %v", got, want)
	}
}

func TestRenderIndexOverflowIsFatal(t *testing.T) {
	ctx := gputest.New()
	ctx.Features[gpu.FeatureUint32Indices] = false
	r := newTestRenderer(t, ctx)

	big := geometry.NewGeometry(
		geometry.WithPositions(make([]float32, 70000*3)),
		geometry.WithIndex([]uint32{0, 1, 69999}),
	)
	scene := &testScene{nodes: []*testNode{meshNode(1, geometry.Triangle()), meshNode(2, big), meshNode(3, geometry.Triangle())}}

	err := r.Render(scene, identityCamera())
	var iw *resource_cache.IndexWidthError
	if !errors.As(err, &iw) || iw.ObjectID != 2 {
		t.Fatalf("err = %v, want IndexWidthError for object 2", err)
	}
	for _, d := range ctx.Draws {
		if d.Indexed {
			t.Fatal("overflowing object was drawn")
		}
	}
	if len(ctx.Draws) != 1 {
		t.Errorf("draws after fatal error: %d", len(ctx.Draws))
	}
	if ctx.Discarded != 1 || ctx.Presented != 0 {
		t.Errorf("frame should be discarded, presented=%d discarded=%d", ctx.Presented, ctx.Discarded)
	}
}

func TestRenderUses32BitIndicesWhenSupported(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	big := geometry.NewGeometry(
		geometry.WithPositions(make([]float32, 70000*3)),
		geometry.WithIndex([]uint32{0, 1, 69999}),
	)
	if err := r.Render(&testScene{nodes: []*testNode{meshNode(1, big)}}, identityCamera()); err != nil {
		t.Fatal(err)
	}
	if d := ctx.Draws[0]; !d.Indexed || d.Format != gpu.IndexUint32 || d.Count != 3 {
		t.Fatalf("draw = %+v", d)
	}
}

func TestRenderReusesHandlesAcrossFrames(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	scene := &testScene{nodes: []*testNode{meshNode(1, geometry.Triangle()), meshNode(2, geometry.Cube())}}

	if err := r.Render(scene, identityCamera()); err != nil {
		t.Fatal(err)
	}
	before := ctx.BufferHandles()
	if err := r.Render(scene, identityCamera()); err != nil {
		t.Fatal(err)
	}
	after := ctx.BufferHandles()

	if len(before) != 3 || len(after) != len(before) {
		t.Fatalf("buffers %v -> %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("handles changed between frames: %v -> %v", before, after)
		}
	}
	if ctx.Draws[0].VertexBuffer != ctx.Draws[2].VertexBuffer {
		t.Error("first object drew from a different buffer on the second frame")
	}
}

func TestRenderEvictsUnvisitedNodes(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	scene := &testScene{nodes: []*testNode{meshNode(1, geometry.Triangle()), meshNode(2, geometry.Cube())}}
	r.Render(scene, identityCamera())

	scene.nodes = scene.nodes[:1]
	if err := r.Render(scene, identityCamera()); err != nil {
		t.Fatal(err)
	}
	if ctx.LiveBuffers() != 1 {
		t.Fatalf("LiveBuffers = %d, want 1", ctx.LiveBuffers())
	}
	if r.Stats().BufferMemory != 84 {
		t.Errorf("BufferMemory = %d, want 84", r.Stats().BufferMemory)
	}

	scene.nodes = nil
	r.Render(scene, identityCamera())
	if ctx.LiveBuffers() != 0 {
		t.Fatalf("empty frame left %d buffers", ctx.LiveBuffers())
	}
}

func TestRenderSkipsEmptyGeometry(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	group := &testNode{id: 9, world: mgl32.Ident4()}
	scene := &testScene{nodes: []*testNode{group, meshNode(1, geometry.NewGeometry())}}

	if err := r.Render(scene, identityCamera()); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Draws) != 0 || r.Stats().DrawCalls != 0 {
		t.Fatalf("empty geometry drawn: %+v", ctx.Draws)
	}
}

func TestRenderClearColorOnlyWhenChanged(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	scene := &testScene{}

	r.Render(scene, identityCamera())
	r.Render(scene, identityCamera())
	if len(ctx.ClearColors) != 1 || ctx.ClearColors[0] != DefaultClearColor {
		t.Fatalf("clear colors = %v", ctx.ClearColors)
	}

	scene.background = common.GradientBackground(common.RGB(1, 1, 1), common.RGB(0, 0, 0))
	r.Render(scene, identityCamera())
	r.Render(scene, identityCamera())
	if len(ctx.ClearColors) != 2 || ctx.ClearColors[1] != (common.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}) {
		t.Fatalf("clear colors = %v", ctx.ClearColors)
	}
}

func TestRenderClearsNeedsUpdate(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	g := geometry.Triangle()
	r.Render(&testScene{nodes: []*testNode{meshNode(1, g)}}, identityCamera())
	if g.NeedsUpdate() {
		t.Fatal("needs-update flag not cleared after upload")
	}
}

func TestStatsTiming(t *testing.T) {
	ctx := gputest.New()
	now := time.Unix(100, 0)
	r := newTestRenderer(t, ctx, WithClock(func() time.Time { return now }))
	scene := &testScene{}

	r.Render(scene, identityCamera())
	if s := r.Stats(); s.FPS != 0 || !s.Timestamp.Equal(now) {
		t.Fatalf("first frame stats = %+v", s)
	}
	now = now.Add(20 * time.Millisecond)
	r.Render(scene, identityCamera())
	s := r.Stats()
	if s.FrameTime != 20*time.Millisecond || s.FPS < 49.9 || s.FPS > 50.1 {
		t.Fatalf("stats = %+v", s)
	}
	if s.TextureMemory != ctx.TextureMemory() {
		t.Errorf("TextureMemory = %d", s.TextureMemory)
	}
}

func TestResizeClamps(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	if err := r.Resize(0, -3); err != nil {
		t.Fatal(err)
	}
	if w, h := ctx.Size(); w != 1 || h != 1 {
		t.Fatalf("size = %dx%d, want 1x1", w, h)
	}
	r.Render(&testScene{}, identityCamera())
	if vp := ctx.Viewports[len(ctx.Viewports)-1]; vp != [4]int{0, 0, 1, 1} {
		t.Fatalf("viewport = %v", vp)
	}
}

func TestLifecycleGuards(t *testing.T) {
	ctx := gputest.New()
	r := NewRenderer(&testSurface{ctx: ctx})

	if err := r.Render(&testScene{}, identityCamera()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Render before Initialize = %v", err)
	}
	if err := r.Resize(10, 10); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Resize before Initialize = %v", err)
	}
	if err := r.Initialize(DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	if err := r.Initialize(DefaultConfig()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Initialize = %v", err)
	}
	if err := r.Render(&testScene{nodes: []*testNode{meshNode(1, geometry.Cube())}}, identityCamera()); err != nil {
		t.Fatal(err)
	}
	stats, caps, variant := r.Stats(), r.Capabilities(), r.Variant()

	r.Dispose()
	r.Dispose()

	if got := r.Stats(); got != stats || got.DrawCalls != 1 {
		t.Errorf("Stats after Dispose = %+v, want %+v", got, stats)
	}
	if got := r.Capabilities(); got.MaxTextureSize != caps.MaxTextureSize || got.Variant != caps.Variant {
		t.Errorf("Capabilities after Dispose = %+v", got)
	}
	if got := r.Variant(); got != variant || got == "" {
		t.Errorf("Variant after Dispose = %q, want %q", got, variant)
	}

	if !ctx.Destroyed || ctx.LiveBuffers() != 0 || ctx.LivePrograms() != 0 {
		t.Fatalf("dispose leaked: destroyed=%v buffers=%d programs=%d", ctx.Destroyed, ctx.LiveBuffers(), ctx.LivePrograms())
	}
	if err := r.Render(&testScene{}, identityCamera()); !errors.Is(err, ErrDisposed) {
		t.Errorf("Render after Dispose = %v", err)
	}
	if err := r.Resize(1, 1); !errors.Is(err, ErrDisposed) {
		t.Errorf("Resize after Dispose = %v", err)
	}
	if err := r.Initialize(DefaultConfig()); !errors.Is(err, ErrDisposed) {
		t.Errorf("Initialize after Dispose = %v", err)
	}
}

func TestInitializeFailures(t *testing.T) {
	t.Run("negotiation", func(t *testing.T) {
		r := NewRenderer(&testSurface{refuse: true})
		var ne *negotiator.NegotiationError
		if err := r.Initialize(DefaultConfig()); !errors.As(err, &ne) || ne.Surface != "test-surface" {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("shader", func(t *testing.T) {
		ctx := gputest.New()
		ctx.CompileLogs = map[gpu.ShaderStage]string{gpu.StageFragment: "bad fragment"}
		r := NewRenderer(&testSurface{ctx: ctx})
		var ce *shader.CompileError
		if err := r.Initialize(DefaultConfig()); !errors.As(err, &ce) || ce.Log != "bad fragment" {
			t.Fatalf("err = %v", err)
		}
		if !ctx.Destroyed || ctx.LiveShaders() != 0 {
			t.Fatal("context or shaders left alive after failed initialize")
		}
		if err := r.Render(&testScene{}, identityCamera()); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("Render after failed Initialize = %v", err)
		}
	})

	t.Run("config", func(t *testing.T) {
		r := NewRenderer(&testSurface{ctx: gputest.New()})
		if err := r.Initialize(Config{SampleCount: 3}); err == nil {
			t.Fatal("expected invalid sample count to be rejected")
		}
	})
}

func TestCapabilitiesAndVariant(t *testing.T) {
	ctx := gputest.New()
	r := newTestRenderer(t, ctx)
	if r.Variant() != "webgl2" {
		t.Errorf("Variant = %q", r.Variant())
	}
	caps := r.Capabilities()
	if caps.MaxTextureSize != 4096 || !caps.Uint32Indices {
		t.Errorf("caps = %+v", caps)
	}
}

func TestDefaultProgramSource(t *testing.T) {
	cases := []struct {
		backend gpu.Backend
		variant string
		prefix  string
	}{
		{gpu.BackendGL, "opengl-4.1-core", "#version 330 core"},
		{gpu.BackendWebGL, "webgl2", "#version 300 es"},
		{gpu.BackendWebGL, "webgl", "attribute vec3 aPosition;"},
		{gpu.BackendNative, "webgpu", "@group(0) @binding(0)"},
	}
	for _, tc := range cases {
		src := DefaultProgramSource(tc.backend, tc.variant)
		if len(src.Vertex) < len(tc.prefix) || src.Vertex[:len(tc.prefix)] != tc.prefix {
			t.Errorf("%s/%s vertex source starts %q", tc.backend, tc.variant, src.Vertex[:20])
		}
	}
}
