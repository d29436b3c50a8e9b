// Package gputest provides a recording gpu.Context for tests.
package gputest

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// DrawCall is one recorded draw.
type DrawCall struct {
	Program      gpu.ProgramHandle
	Topology     gpu.Topology
	Count        int
	Indexed      bool
	Format       gpu.IndexFormat
	VertexBuffer gpu.BufferHandle
	IndexBuffer  gpu.BufferHandle
	MVP          mgl32.Mat4
}

// Context is an in-memory gpu.Context. Zero-valued script fields mean "succeed";
// set them before use to script failures.
type Context struct {
	BackendKind gpu.Backend
	VariantName string

	// Ints answers QueryInt; missing entries return gpu.ErrUnsupported.
	Ints map[gpu.Param]int
	// Features answers QueryFeature; missing entries are false.
	Features map[gpu.Feature]bool
	// ExtensionList answers Extensions.
	ExtensionList []string
	// PanicOnQuery makes every query panic, as some host bindings do on a lost context.
	PanicOnQuery bool

	// CompileLogs makes CompileShader fail for a stage with the given log.
	CompileLogs map[gpu.ShaderStage]string
	// LinkLog makes LinkProgram fail with the given log when non-empty.
	LinkLog string
	// Attribs and Uniforms resolve names to locations; missing names resolve to -1.
	Attribs  map[string]int
	Uniforms map[string]int

	// Draws, ClearColors and Viewports record frame traffic.
	Draws       []DrawCall
	ClearColors []common.Color
	Viewports   [][4]int
	Clears      int
	Uploads     int
	Frames      int
	Presented   int
	Discarded   int
	Destroyed   bool

	width, height int
	next          uint64
	shaders       map[gpu.ShaderHandle]gpu.ShaderStage
	programs      map[gpu.ProgramHandle]bool
	buffers       map[gpu.BufferHandle][]byte
	program       gpu.ProgramHandle
	vertexBuffer  gpu.BufferHandle
	indexBuffer   gpu.BufferHandle
	mvp           mgl32.Mat4
}

var _ gpu.Context = &Context{}

// New returns a Context that supports 32-bit indices and resolves the default program's
// attribute and uniform names.
func New() *Context {
	return &Context{
		BackendKind: gpu.BackendWebGL,
		VariantName: "webgl2",
		Ints: map[gpu.Param]int{
			gpu.ParamMaxTextureSize:          4096,
			gpu.ParamMaxVertexAttributes:     16,
			gpu.ParamMaxVertexUniformVectors: 256,
			gpu.ParamMaxSamples:              4,
			gpu.ParamMaxDrawBuffers:          4,
		},
		Features: map[gpu.Feature]bool{
			gpu.FeatureUint32Indices: true,
			gpu.FeatureInstancing:    true,
		},
		Attribs:  map[string]int{"aPosition": 0, "aColor": 1, "aSize": 2},
		Uniforms: map[string]int{"uModelViewProjection": 0},
		width:    640,
		height:   480,
	}
}

func (c *Context) init() {
	if c.shaders == nil {
		c.shaders = make(map[gpu.ShaderHandle]gpu.ShaderStage)
		c.programs = make(map[gpu.ProgramHandle]bool)
		c.buffers = make(map[gpu.BufferHandle][]byte)
	}
}

func (c *Context) id() uint64 {
	c.init()
	c.next++
	return c.next
}

// LiveShaders returns the number of shader objects not yet deleted.
func (c *Context) LiveShaders() int { c.init(); return len(c.shaders) }

// LivePrograms returns the number of program objects not yet deleted.
func (c *Context) LivePrograms() int { c.init(); return len(c.programs) }

// LiveBuffers returns the number of buffers not yet deleted.
func (c *Context) LiveBuffers() int { c.init(); return len(c.buffers) }

// BufferData returns a copy of the last upload to h.
func (c *Context) BufferData(h gpu.BufferHandle) []byte {
	c.init()
	return append([]byte(nil), c.buffers[h]...)
}

// BufferHandles returns the live buffer handles in ascending order.
func (c *Context) BufferHandles() []gpu.BufferHandle {
	c.init()
	out := make([]gpu.BufferHandle, 0, len(c.buffers))
	for h := range c.buffers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Context) Backend() gpu.Backend { return c.BackendKind }
func (c *Context) Variant() string      { return c.VariantName }

func (c *Context) QueryInt(p gpu.Param) (int, error) {
	if c.PanicOnQuery {
		panic("gputest: context lost")
	}
	v, ok := c.Ints[p]
	if !ok {
		return 0, gpu.ErrUnsupported
	}
	return v, nil
}

func (c *Context) QueryFeature(f gpu.Feature) (bool, error) {
	if c.PanicOnQuery {
		panic("gputest: context lost")
	}
	return c.Features[f], nil
}

func (c *Context) Extensions() ([]string, error) {
	if c.PanicOnQuery {
		panic("gputest: context lost")
	}
	return append([]string(nil), c.ExtensionList...), nil
}

func (c *Context) TextureFormats() ([]string, []string) {
	return []string{"rgba8"}, []string{"depth16"}
}

func (c *Context) CreateShader(stage gpu.ShaderStage) (gpu.ShaderHandle, error) {
	h := gpu.ShaderHandle(c.id())
	c.shaders[h] = stage
	return h, nil
}

func (c *Context) CompileShader(h gpu.ShaderHandle, source string) (string, bool) {
	c.init()
	stage, ok := c.shaders[h]
	if !ok {
		return fmt.Sprintf("unknown shader %d", h), false
	}
	if log, fail := c.CompileLogs[stage]; fail {
		return log, false
	}
	return "", true
}

func (c *Context) DeleteShader(h gpu.ShaderHandle) { c.init(); delete(c.shaders, h) }

func (c *Context) CreateProgram() (gpu.ProgramHandle, error) {
	h := gpu.ProgramHandle(c.id())
	c.programs[h] = true
	return h, nil
}

func (c *Context) AttachShader(gpu.ProgramHandle, gpu.ShaderHandle) {}

func (c *Context) LinkProgram(gpu.ProgramHandle) (string, bool) {
	if c.LinkLog != "" {
		return c.LinkLog, false
	}
	return "", true
}

func (c *Context) DeleteProgram(h gpu.ProgramHandle) { c.init(); delete(c.programs, h) }

func (c *Context) AttribLocation(_ gpu.ProgramHandle, name string) int {
	if loc, ok := c.Attribs[name]; ok {
		return loc
	}
	return -1
}

func (c *Context) UniformLocation(_ gpu.ProgramHandle, name string) int {
	if loc, ok := c.Uniforms[name]; ok {
		return loc
	}
	return -1
}

func (c *Context) UseProgram(p gpu.ProgramHandle) { c.program = p }

func (c *Context) CreateBuffer(gpu.BufferTarget) (gpu.BufferHandle, error) {
	h := gpu.BufferHandle(c.id())
	c.buffers[h] = nil
	return h, nil
}

func (c *Context) UploadBuffer(h gpu.BufferHandle, data []byte, _ bool) error {
	c.init()
	if _, ok := c.buffers[h]; !ok {
		return fmt.Errorf("gputest: upload to unknown buffer %d", h)
	}
	c.buffers[h] = append([]byte(nil), data...)
	c.Uploads++
	return nil
}

func (c *Context) DeleteBuffer(h gpu.BufferHandle) { c.init(); delete(c.buffers, h) }

func (c *Context) BeginFrame() error { c.Frames++; return nil }

func (c *Context) SetClearColor(col common.Color) { c.ClearColors = append(c.ClearColors, col) }

func (c *Context) SetViewport(x, y, w, h int) { c.Viewports = append(c.Viewports, [4]int{x, y, w, h}) }

func (c *Context) Clear() { c.Clears++ }

func (c *Context) BindVertexBuffer(h gpu.BufferHandle, _ gpu.VertexLayout) { c.vertexBuffer = h }

func (c *Context) BindIndexBuffer(h gpu.BufferHandle, _ gpu.IndexFormat) { c.indexBuffer = h }

func (c *Context) SetUniformMat4(_ int, m mgl32.Mat4) { c.mvp = m }

func (c *Context) Draw(t gpu.Topology, _, count int) error {
	c.Draws = append(c.Draws, DrawCall{
		Program: c.program, Topology: t, Count: count,
		VertexBuffer: c.vertexBuffer, MVP: c.mvp,
	})
	return nil
}

func (c *Context) DrawIndexed(t gpu.Topology, count int, f gpu.IndexFormat) error {
	c.Draws = append(c.Draws, DrawCall{
		Program: c.program, Topology: t, Count: count, Indexed: true, Format: f,
		VertexBuffer: c.vertexBuffer, IndexBuffer: c.indexBuffer, MVP: c.mvp,
	})
	return nil
}

func (c *Context) EndFrame() error { c.Presented++; return nil }

func (c *Context) DiscardFrame() { c.Discarded++ }

func (c *Context) Resize(w, h int) error {
	c.width, c.height = w, h
	return nil
}

func (c *Context) Size() (int, int) { return c.width, c.height }

func (c *Context) TextureMemory() int64 { return int64(c.width) * int64(c.height) * 8 }

func (c *Context) Destroy() { c.Destroyed = true }
