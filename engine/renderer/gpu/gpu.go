// Package gpu defines the backend-neutral graphics context the renderer draws through.
// Backends (desktop GL, WebGL, native WebGPU over the bridge) implement Context; the
// renderer, resource cache, shader compiler and capability probe only ever see handles.
package gpu

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnsupported is returned by a Context when the requested operation or query has no
// equivalent on its backend.
var ErrUnsupported = errors.New("gpu: unsupported by backend")

// Backend identifies the family of graphics API behind a Context.
type Backend string

const (
	BackendGL     Backend = "gl"
	BackendWebGL  Backend = "webgl"
	BackendNative Backend = "native"
)

// BufferHandle, ShaderHandle and ProgramHandle are opaque identifiers owned by the Context
// that issued them. Zero is never a valid handle.
type (
	BufferHandle  uint64
	ShaderHandle  uint64
	ProgramHandle uint64
)

// ShaderStage is a programmable pipeline stage.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// BufferTarget selects the binding point a buffer is created for.
type BufferTarget int

const (
	BufferVertex BufferTarget = iota
	BufferIndex
)

// Topology is the primitive assembly mode of a draw.
type Topology int

const (
	Triangles Topology = iota
	TriangleStrip
	TriangleFan
	Lines
	LineStrip
	Points
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case TriangleFan:
		return "triangle-fan"
	case Lines:
		return "lines"
	case LineStrip:
		return "line-strip"
	case Points:
		return "points"
	default:
		return "unknown"
	}
}

// IndexFormat is the element width of an index buffer.
type IndexFormat int

const (
	IndexUint16 IndexFormat = iota
	IndexUint32
)

// Size returns the byte width of a single index.
func (f IndexFormat) Size() int {
	if f == IndexUint32 {
		return 4
	}
	return 2
}

func (f IndexFormat) String() string {
	if f == IndexUint32 {
		return "uint32"
	}
	return "uint16"
}

// Param is an integer limit that can be queried from a Context.
type Param int

const (
	ParamMaxTextureSize Param = iota
	ParamMaxVertexAttributes
	ParamMaxVertexUniformVectors
	ParamMaxSamples
	ParamMaxDrawBuffers
)

// Feature is an optional capability that can be queried from a Context.
type Feature int

const (
	FeatureUint32Indices Feature = iota
	FeatureInstancing
	FeatureMultipleRenderTargets
	FeatureCompute
	FeatureAnisotropicFiltering
)

// VertexAttribute places one shader input inside an interleaved vertex.
type VertexAttribute struct {
	// Location is the shader input location; negative locations are skipped.
	Location int
	// Components is the number of float32 components.
	Components int
	// Offset is the byte offset inside one vertex.
	Offset int
}

// VertexLayout describes how an interleaved vertex buffer feeds shader inputs.
type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

// Context is a live graphics context bound to one surface.
//
// A Context is not safe for concurrent use; the renderer owns it on a single goroutine.
type Context interface {
	// Backend returns the API family of this context.
	Backend() Backend

	// Variant returns the concrete API variant that negotiation obtained, e.g. "webgl2"
	// or "opengl-4.1-core".
	Variant() string

	// QueryInt reads an integer limit.
	//
	// Parameters:
	//   - p: the limit to read
	//
	// Returns:
	//   - int: the limit reported by the driver
	//   - error: ErrUnsupported or a driver error if the value could not be read
	QueryInt(p Param) (int, error)

	// QueryFeature reports whether an optional capability is present.
	//
	// Parameters:
	//   - f: the feature to test
	//
	// Returns:
	//   - bool: true if the feature is available
	//   - error: a driver error if the query itself failed
	QueryFeature(f Feature) (bool, error)

	// Extensions lists the extension names the driver advertises.
	//
	// Returns:
	//   - []string: extension names in driver order
	//   - error: a driver error if the list could not be read
	Extensions() ([]string, error)

	// TextureFormats lists the color and depth texture formats this context can create.
	//
	// Returns:
	//   - color: color format names
	//   - depth: depth format names
	TextureFormats() (color, depth []string)

	// CreateShader allocates an empty shader object for stage.
	CreateShader(stage ShaderStage) (ShaderHandle, error)

	// CompileShader compiles source into the shader object.
	//
	// Parameters:
	//   - h: the shader object
	//   - source: the shader source text
	//
	// Returns:
	//   - string: the compiler info log, verbatim
	//   - bool: true if compilation succeeded
	CompileShader(h ShaderHandle, source string) (string, bool)

	// DeleteShader frees a shader object. Deleting an unknown handle is a no-op.
	DeleteShader(h ShaderHandle)

	// CreateProgram allocates an empty program object.
	CreateProgram() (ProgramHandle, error)

	// AttachShader attaches a compiled shader to a program.
	AttachShader(p ProgramHandle, s ShaderHandle)

	// LinkProgram links the attached stages.
	//
	// Returns:
	//   - string: the linker info log, verbatim
	//   - bool: true if linking succeeded
	LinkProgram(p ProgramHandle) (string, bool)

	// DeleteProgram frees a program object. Deleting an unknown handle is a no-op.
	DeleteProgram(p ProgramHandle)

	// AttribLocation resolves a vertex input by name, or -1 if it is not active.
	AttribLocation(p ProgramHandle, name string) int

	// UniformLocation resolves a uniform by name, or -1 if it is not active.
	UniformLocation(p ProgramHandle, name string) int

	// UseProgram makes p current for subsequent draws.
	UseProgram(p ProgramHandle)

	// CreateBuffer allocates an empty buffer for target.
	CreateBuffer(target BufferTarget) (BufferHandle, error)

	// UploadBuffer replaces the full contents of a buffer. The context copies data
	// before returning.
	//
	// Parameters:
	//   - h: the buffer to fill
	//   - data: the new contents
	//   - dynamic: a usage hint that the contents change every frame
	UploadBuffer(h BufferHandle, data []byte, dynamic bool) error

	// DeleteBuffer frees a buffer. Deleting an unknown handle is a no-op.
	DeleteBuffer(h BufferHandle)

	// BeginFrame starts recording a frame.
	BeginFrame() error

	// SetClearColor sets the color used by Clear.
	SetClearColor(c common.Color)

	// SetViewport sets the drawing rectangle in framebuffer pixels.
	SetViewport(x, y, width, height int)

	// Clear clears the color and depth targets.
	Clear()

	// BindVertexBuffer binds an interleaved vertex buffer with layout.
	BindVertexBuffer(h BufferHandle, layout VertexLayout)

	// BindIndexBuffer binds an index buffer of format f.
	BindIndexBuffer(h BufferHandle, f IndexFormat)

	// SetUniformMat4 writes a 4x4 matrix uniform for the next draw.
	SetUniformMat4(location int, m mgl32.Mat4)

	// Draw issues a non-indexed draw of count vertices starting at first.
	Draw(t Topology, first, count int) error

	// DrawIndexed issues an indexed draw of count indices from the bound index buffer.
	DrawIndexed(t Topology, count int, f IndexFormat) error

	// EndFrame finishes the frame and presents it.
	EndFrame() error

	// DiscardFrame abandons the frame started by BeginFrame without presenting it.
	DiscardFrame()

	// Resize resizes the drawing surface in pixels.
	Resize(width, height int) error

	// Size returns the drawing surface size in pixels.
	Size() (width, height int)

	// TextureMemory estimates the bytes held by surface-owned textures (color, depth, MSAA).
	TextureMemory() int64

	// Destroy releases the context and everything it still owns. Idempotent.
	Destroy()
}
