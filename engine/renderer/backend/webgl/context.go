//go:build js && wasm

package webgl

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

var errNoFrame = errors.New("webgl: no frame in progress")

// context is the implementation of gpu.Context over a WebGLRenderingContext or
// WebGL2RenderingContext. JS objects are kept in per-kind tables behind integer handles.
type context struct {
	canvas  js.Value
	gl      js.Value
	variant string
	depth   bool
	webgl2  bool

	consts glConsts

	nextHandle uint64
	shaders    map[gpu.ShaderHandle]js.Value
	programs   map[gpu.ProgramHandle]*programState
	buffers    map[gpu.BufferHandle]bufferState
	enabled    map[int]struct{}

	current   *programState
	inFrame   bool
	destroyed bool
}

type programState struct {
	program  js.Value
	uniforms []js.Value
}

type bufferState struct {
	buffer js.Value
	target gpu.BufferTarget
	size   int
}

type glConsts struct {
	arrayBuffer        int
	elementArrayBuffer int
	staticDraw         int
	dynamicDraw        int
	floatType          int
	unsignedShort      int
	unsignedInt        int
	colorBufferBit     int
	depthBufferBit     int
	depthTest          int
	compileStatus      int
	linkStatus         int
	vertexShader       int
	fragmentShader     int
	noError            int
}

var _ gpu.Context = &context{}

func newContext(canvas, gl js.Value, variant string, depth bool) *context {
	c := &context{
		canvas:   canvas,
		gl:       gl,
		variant:  variant,
		depth:    depth,
		webgl2:   variant == VariantWebGL2,
		shaders:  make(map[gpu.ShaderHandle]js.Value),
		programs: make(map[gpu.ProgramHandle]*programState),
		buffers:  make(map[gpu.BufferHandle]bufferState),
		enabled:  make(map[int]struct{}),
	}
	c.consts = glConsts{
		arrayBuffer:        gl.Get("ARRAY_BUFFER").Int(),
		elementArrayBuffer: gl.Get("ELEMENT_ARRAY_BUFFER").Int(),
		staticDraw:         gl.Get("STATIC_DRAW").Int(),
		dynamicDraw:        gl.Get("DYNAMIC_DRAW").Int(),
		floatType:          gl.Get("FLOAT").Int(),
		unsignedShort:      gl.Get("UNSIGNED_SHORT").Int(),
		unsignedInt:        gl.Get("UNSIGNED_INT").Int(),
		colorBufferBit:     gl.Get("COLOR_BUFFER_BIT").Int(),
		depthBufferBit:     gl.Get("DEPTH_BUFFER_BIT").Int(),
		depthTest:          gl.Get("DEPTH_TEST").Int(),
		compileStatus:      gl.Get("COMPILE_STATUS").Int(),
		linkStatus:         gl.Get("LINK_STATUS").Int(),
		vertexShader:       gl.Get("VERTEX_SHADER").Int(),
		fragmentShader:     gl.Get("FRAGMENT_SHADER").Int(),
		noError:            gl.Get("NO_ERROR").Int(),
	}
	if !c.webgl2 {
		// 32-bit indices need the extension enabled before use on WebGL 1.
		gl.Call("getExtension", "OES_element_index_uint")
	}
	w, h := c.Size()
	gl.Call("viewport", 0, 0, w, h)
	return c
}

func (c *context) handle() uint64 {
	c.nextHandle++
	return c.nextHandle
}

func (c *context) Backend() gpu.Backend { return gpu.BackendWebGL }
func (c *context) Variant() string      { return c.variant }

func (c *context) parameter(name string) (int, error) {
	enum := c.gl.Get(name)
	if enum.IsUndefined() {
		return 0, gpu.ErrUnsupported
	}
	v := c.gl.Call("getParameter", enum)
	if v.IsNull() || v.IsUndefined() {
		return 0, fmt.Errorf("webgl: getParameter(%s) returned null", name)
	}
	return v.Int(), nil
}

func (c *context) QueryInt(p gpu.Param) (int, error) {
	switch p {
	case gpu.ParamMaxTextureSize:
		return c.parameter("MAX_TEXTURE_SIZE")
	case gpu.ParamMaxVertexAttributes:
		return c.parameter("MAX_VERTEX_ATTRIBS")
	case gpu.ParamMaxVertexUniformVectors:
		return c.parameter("MAX_VERTEX_UNIFORM_VECTORS")
	case gpu.ParamMaxSamples:
		if !c.webgl2 {
			return 0, gpu.ErrUnsupported
		}
		return c.parameter("MAX_SAMPLES")
	case gpu.ParamMaxDrawBuffers:
		if c.webgl2 {
			return c.parameter("MAX_DRAW_BUFFERS")
		}
		ext := c.gl.Call("getExtension", "WEBGL_draw_buffers")
		if ext.IsNull() {
			return 1, nil
		}
		return c.gl.Call("getParameter", ext.Get("MAX_DRAW_BUFFERS_WEBGL")).Int(), nil
	}
	return 0, gpu.ErrUnsupported
}

func (c *context) hasExtension(name string) bool {
	return !c.gl.Call("getExtension", name).IsNull()
}

func (c *context) QueryFeature(f gpu.Feature) (bool, error) {
	switch f {
	case gpu.FeatureUint32Indices:
		return c.webgl2 || c.hasExtension("OES_element_index_uint"), nil
	case gpu.FeatureInstancing:
		return c.webgl2 || c.hasExtension("ANGLE_instanced_arrays"), nil
	case gpu.FeatureMultipleRenderTargets:
		return c.webgl2 || c.hasExtension("WEBGL_draw_buffers"), nil
	case gpu.FeatureAnisotropicFiltering:
		return c.hasExtension("EXT_texture_filter_anisotropic"), nil
	}
	return false, nil
}

func (c *context) Extensions() ([]string, error) {
	list := c.gl.Call("getSupportedExtensions")
	if list.IsNull() {
		return nil, errors.New("webgl: context lost")
	}
	out := make([]string, list.Length())
	for i := range out {
		out[i] = list.Index(i).String()
	}
	return out, nil
}

func (c *context) TextureFormats() (color, depth []string) {
	if c.webgl2 {
		return []string{"rgba8", "srgb8_alpha8", "rgb10_a2", "rgba16f", "rgba32f"},
			[]string{"depth16", "depth24", "depth32f", "depth24_stencil8"}
	}
	color = []string{"rgba8", "rgb565", "rgba4"}
	depth = []string{"depth16"}
	if c.hasExtension("WEBGL_depth_texture") {
		depth = append(depth, "depth24_stencil8")
	}
	return color, depth
}

// Resize sets the canvas drawing buffer size, which is independent of its CSS size.
func (c *context) Resize(width, height int) error {
	width, height = max(1, width), max(1, height)
	c.canvas.Set("width", width)
	c.canvas.Set("height", height)
	c.gl.Call("viewport", 0, 0, width, height)
	return nil
}

func (c *context) Size() (int, int) {
	return max(1, c.gl.Get("drawingBufferWidth").Int()), max(1, c.gl.Get("drawingBufferHeight").Int())
}

// TextureMemory estimates the drawing buffer: one RGBA8 color buffer plus depth if requested.
func (c *context) TextureMemory() int64 {
	w, h := c.Size()
	perPixel := int64(4)
	if c.depth {
		perPixel += 4
	}
	return int64(w) * int64(h) * perPixel
}

func (c *context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.inFrame = false
	for h := range c.programs {
		c.DeleteProgram(h)
	}
	for h := range c.shaders {
		c.DeleteShader(h)
	}
	for h := range c.buffers {
		c.DeleteBuffer(h)
	}
	if ext := c.gl.Call("getExtension", "WEBGL_lose_context"); !ext.IsNull() {
		ext.Call("loseContext")
	}
}

func (c *context) SetClearColor(col common.Color) {
	c.gl.Call("clearColor", col.R, col.G, col.B, col.A)
}

func (c *context) SetUniformMat4(location int, m mgl32.Mat4) {
	if c.current == nil || location < 0 || location >= len(c.current.uniforms) {
		return
	}
	c.gl.Call("uniformMatrix4fv", c.current.uniforms[location], false, float32Array(m[:]))
}

// glError drains the error queue and reports the first error, if any.
func (c *context) glError(op string) error {
	code := c.gl.Call("getError").Int()
	if code == c.consts.noError {
		return nil
	}
	for range 8 {
		if c.gl.Call("getError").Int() == c.consts.noError {
			break
		}
	}
	return fmt.Errorf("webgl: %s: 0x%04X", op, code)
}
