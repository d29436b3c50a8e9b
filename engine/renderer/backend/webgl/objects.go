//go:build js && wasm

package webgl

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
)

func (c *context) CreateShader(stage gpu.ShaderStage) (gpu.ShaderHandle, error) {
	kind := c.consts.vertexShader
	if stage == gpu.StageFragment {
		kind = c.consts.fragmentShader
	}
	s := c.gl.Call("createShader", kind)
	if s.IsNull() {
		return 0, fmt.Errorf("webgl: create %s shader failed", stage)
	}
	h := gpu.ShaderHandle(c.handle())
	c.shaders[h] = s
	return h, nil
}

func (c *context) CompileShader(h gpu.ShaderHandle, source string) (string, bool) {
	s, ok := c.shaders[h]
	if !ok {
		return fmt.Sprintf("unknown shader %d", h), false
	}
	c.gl.Call("shaderSource", s, source)
	c.gl.Call("compileShader", s)
	ok = c.gl.Call("getShaderParameter", s, c.consts.compileStatus).Bool()
	return c.gl.Call("getShaderInfoLog", s).String(), ok
}

func (c *context) DeleteShader(h gpu.ShaderHandle) {
	s, ok := c.shaders[h]
	if !ok {
		return
	}
	delete(c.shaders, h)
	c.gl.Call("deleteShader", s)
}

func (c *context) CreateProgram() (gpu.ProgramHandle, error) {
	p := c.gl.Call("createProgram")
	if p.IsNull() {
		return 0, fmt.Errorf("webgl: create program failed")
	}
	h := gpu.ProgramHandle(c.handle())
	c.programs[h] = &programState{program: p}
	return h, nil
}

func (c *context) AttachShader(p gpu.ProgramHandle, s gpu.ShaderHandle) {
	prog, ok := c.programs[p]
	if !ok {
		return
	}
	if sh, ok := c.shaders[s]; ok {
		c.gl.Call("attachShader", prog.program, sh)
	}
}

func (c *context) LinkProgram(p gpu.ProgramHandle) (string, bool) {
	prog, ok := c.programs[p]
	if !ok {
		return fmt.Sprintf("unknown program %d", p), false
	}
	c.gl.Call("linkProgram", prog.program)
	ok = c.gl.Call("getProgramParameter", prog.program, c.consts.linkStatus).Bool()
	return c.gl.Call("getProgramInfoLog", prog.program).String(), ok
}

func (c *context) DeleteProgram(p gpu.ProgramHandle) {
	prog, ok := c.programs[p]
	if !ok {
		return
	}
	delete(c.programs, p)
	if c.current == prog {
		c.current = nil
	}
	c.gl.Call("deleteProgram", prog.program)
}

func (c *context) AttribLocation(p gpu.ProgramHandle, name string) int {
	prog, ok := c.programs[p]
	if !ok {
		return -1
	}
	return c.gl.Call("getAttribLocation", prog.program, name).Int()
}

// UniformLocation returns an index into the program's table of WebGLUniformLocation
// objects, since WebGL locations are opaque.
func (c *context) UniformLocation(p gpu.ProgramHandle, name string) int {
	prog, ok := c.programs[p]
	if !ok {
		return -1
	}
	loc := c.gl.Call("getUniformLocation", prog.program, name)
	if loc.IsNull() {
		return -1
	}
	prog.uniforms = append(prog.uniforms, loc)
	return len(prog.uniforms) - 1
}

func (c *context) UseProgram(p gpu.ProgramHandle) {
	prog, ok := c.programs[p]
	if !ok {
		return
	}
	c.gl.Call("useProgram", prog.program)
	c.current = prog
}

func (c *context) bufferTarget(t gpu.BufferTarget) int {
	if t == gpu.BufferIndex {
		return c.consts.elementArrayBuffer
	}
	return c.consts.arrayBuffer
}

func (c *context) CreateBuffer(target gpu.BufferTarget) (gpu.BufferHandle, error) {
	b := c.gl.Call("createBuffer")
	if b.IsNull() {
		return 0, fmt.Errorf("webgl: create buffer failed")
	}
	h := gpu.BufferHandle(c.handle())
	c.buffers[h] = bufferState{buffer: b, target: target}
	return h, nil
}

func (c *context) UploadBuffer(h gpu.BufferHandle, data []byte, dynamic bool) error {
	b, ok := c.buffers[h]
	if !ok {
		return fmt.Errorf("webgl: unknown buffer %d", h)
	}
	usage := c.consts.staticDraw
	if dynamic {
		usage = c.consts.dynamicDraw
	}
	t := c.bufferTarget(b.target)
	c.gl.Call("bindBuffer", t, b.buffer)
	c.gl.Call("bufferData", t, uint8Array(data), usage)
	b.size = len(data)
	c.buffers[h] = b
	return c.glError("upload buffer")
}

func (c *context) DeleteBuffer(h gpu.BufferHandle) {
	b, ok := c.buffers[h]
	if !ok {
		return
	}
	delete(c.buffers, h)
	c.gl.Call("deleteBuffer", b.buffer)
}
