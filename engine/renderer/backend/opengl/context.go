package opengl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

var errNoFrame = errors.New("opengl: no frame in progress")

// context is the implementation of gpu.Context over the current GL context of a window.
// GL object names are used as handles directly; the maps track what the context owns so
// Destroy can free it and deletes of foreign handles are ignored.
type context struct {
	window  window.Window
	variant string
	major   int
	minor   int
	samples int
	depth   bool

	vao      uint32
	shaders  map[gpu.ShaderHandle]gpu.ShaderStage
	programs map[gpu.ProgramHandle]struct{}
	buffers  map[gpu.BufferHandle]gpu.BufferTarget
	enabled  map[uint32]struct{}

	width, height int
	inFrame       bool
	destroyed     bool
}

var _ gpu.Context = &context{}

func newContext(w window.Window, variant string, major, minor, samples int, depth bool) *context {
	c := &context{
		window:   w,
		variant:  variant,
		major:    major,
		minor:    minor,
		samples:  samples,
		depth:    depth,
		shaders:  make(map[gpu.ShaderHandle]gpu.ShaderStage),
		programs: make(map[gpu.ProgramHandle]struct{}),
		buffers:  make(map[gpu.BufferHandle]gpu.BufferTarget),
		enabled:  make(map[uint32]struct{}),
		width:    max(1, w.Width()),
		height:   max(1, w.Height()),
	}
	// Core profiles draw nothing without a bound vertex array.
	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)
	gl.Viewport(0, 0, int32(c.width), int32(c.height))
	return c
}

func (c *context) Backend() gpu.Backend { return gpu.BackendGL }
func (c *context) Variant() string      { return c.variant }

func (c *context) QueryInt(p gpu.Param) (int, error) {
	var name uint32
	scale := int32(1)
	switch p {
	case gpu.ParamMaxTextureSize:
		name = gl.MAX_TEXTURE_SIZE
	case gpu.ParamMaxVertexAttributes:
		name = gl.MAX_VERTEX_ATTRIBS
	case gpu.ParamMaxVertexUniformVectors:
		name, scale = gl.MAX_VERTEX_UNIFORM_COMPONENTS, 4
	case gpu.ParamMaxSamples:
		name = gl.MAX_SAMPLES
	case gpu.ParamMaxDrawBuffers:
		name = gl.MAX_DRAW_BUFFERS
	default:
		return 0, gpu.ErrUnsupported
	}
	var v int32
	gl.GetIntegerv(name, &v)
	if err := glError("query"); err != nil {
		return 0, err
	}
	return int(v / scale), nil
}

func (c *context) QueryFeature(f gpu.Feature) (bool, error) {
	switch f {
	case gpu.FeatureUint32Indices, gpu.FeatureInstancing:
		return true, nil
	case gpu.FeatureMultipleRenderTargets:
		n, err := c.QueryInt(gpu.ParamMaxDrawBuffers)
		return n > 1, err
	case gpu.FeatureCompute:
		return c.major > 4 || (c.major == 4 && c.minor >= 3), nil
	case gpu.FeatureAnisotropicFiltering:
		ext, err := c.Extensions()
		if err != nil {
			return false, err
		}
		for _, e := range ext {
			if e == "GL_EXT_texture_filter_anisotropic" || e == "GL_ARB_texture_filter_anisotropic" {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

func (c *context) Extensions() ([]string, error) {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	out := make([]string, 0, n)
	for i := range uint32(n) {
		out = append(out, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i)))
	}
	return out, glError("extensions")
}

func (c *context) TextureFormats() (color, depth []string) {
	return []string{"rgba8", "srgb8_alpha8", "rgb10_a2", "rgba16f", "rgba32f"},
		[]string{"depth16", "depth24", "depth32f", "depth24_stencil8"}
}

func (c *context) Resize(width, height int) error {
	c.width, c.height = max(1, width), max(1, height)
	gl.Viewport(0, 0, int32(c.width), int32(c.height))
	return nil
}

func (c *context) Size() (int, int) { return c.width, c.height }

// TextureMemory estimates the default framebuffer: front and back color buffers plus a
// 32-bit depth buffer, each multiplied by the sample count.
func (c *context) TextureMemory() int64 {
	perPixel := int64(8)
	if c.depth {
		perPixel += 4
	}
	return int64(c.width) * int64(c.height) * perPixel * int64(c.samples)
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
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
}

// glError drains the GL error queue and reports the first error, if any.
func glError(op string) error {
	var codes []string
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		codes = append(codes, fmt.Sprintf("0x%04X", code))
		if len(codes) == 8 {
			break
		}
	}
	if len(codes) == 0 {
		return nil
	}
	return fmt.Errorf("opengl: %s: %s", op, strings.Join(codes, ", "))
}

func (c *context) SetUniformMat4(location int, m mgl32.Mat4) {
	if location < 0 {
		return
	}
	gl.UniformMatrix4fv(int32(location), 1, false, &m[0])
}

func (c *context) SetClearColor(col common.Color) {
	gl.ClearColor(col.R, col.G, col.B, col.A)
}
