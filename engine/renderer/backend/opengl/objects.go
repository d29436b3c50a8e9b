package opengl

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/go-gl/gl/v3.3-core/gl"
)

func (c *context) CreateShader(stage gpu.ShaderStage) (gpu.ShaderHandle, error) {
	kind := uint32(gl.VERTEX_SHADER)
	if stage == gpu.StageFragment {
		kind = gl.FRAGMENT_SHADER
	}
	name := gl.CreateShader(kind)
	if name == 0 {
		return 0, fmt.Errorf("opengl: create %s shader: %w", stage, glError("create shader"))
	}
	h := gpu.ShaderHandle(name)
	c.shaders[h] = stage
	return h, nil
}

func (c *context) CompileShader(h gpu.ShaderHandle, source string) (string, bool) {
	if _, ok := c.shaders[h]; !ok {
		return fmt.Sprintf("unknown shader %d", h), false
	}
	name := uint32(h)
	sources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(name, 1, sources, nil)
	free()
	gl.CompileShader(name)

	var status int32
	gl.GetShaderiv(name, gl.COMPILE_STATUS, &status)
	var logLength int32
	gl.GetShaderiv(name, gl.INFO_LOG_LENGTH, &logLength)
	log := infoLog(logLength, func(buf *uint8) { gl.GetShaderInfoLog(name, logLength, nil, buf) })
	return log, status == gl.TRUE
}

func (c *context) DeleteShader(h gpu.ShaderHandle) {
	if _, ok := c.shaders[h]; !ok {
		return
	}
	delete(c.shaders, h)
	gl.DeleteShader(uint32(h))
}

func (c *context) CreateProgram() (gpu.ProgramHandle, error) {
	name := gl.CreateProgram()
	if name == 0 {
		return 0, fmt.Errorf("opengl: create program: %w", glError("create program"))
	}
	h := gpu.ProgramHandle(name)
	c.programs[h] = struct{}{}
	return h, nil
}

func (c *context) AttachShader(p gpu.ProgramHandle, s gpu.ShaderHandle) {
	if _, ok := c.programs[p]; !ok {
		return
	}
	if _, ok := c.shaders[s]; !ok {
		return
	}
	gl.AttachShader(uint32(p), uint32(s))
}

func (c *context) LinkProgram(p gpu.ProgramHandle) (string, bool) {
	if _, ok := c.programs[p]; !ok {
		return fmt.Sprintf("unknown program %d", p), false
	}
	name := uint32(p)
	gl.LinkProgram(name)

	var status int32
	gl.GetProgramiv(name, gl.LINK_STATUS, &status)
	var logLength int32
	gl.GetProgramiv(name, gl.INFO_LOG_LENGTH, &logLength)
	log := infoLog(logLength, func(buf *uint8) { gl.GetProgramInfoLog(name, logLength, nil, buf) })
	return log, status == gl.TRUE
}

// infoLog reads a NUL-terminated info log of logLength bytes through read.
func infoLog(logLength int32, read func(buf *uint8)) string {
	if logLength <= 1 {
		return ""
	}
	buf := make([]uint8, logLength+1)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00")
}

func (c *context) DeleteProgram(p gpu.ProgramHandle) {
	if _, ok := c.programs[p]; !ok {
		return
	}
	delete(c.programs, p)
	gl.DeleteProgram(uint32(p))
}

func (c *context) AttribLocation(p gpu.ProgramHandle, name string) int {
	if _, ok := c.programs[p]; !ok {
		return -1
	}
	return int(gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00")))
}

func (c *context) UniformLocation(p gpu.ProgramHandle, name string) int {
	if _, ok := c.programs[p]; !ok {
		return -1
	}
	return int(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (c *context) UseProgram(p gpu.ProgramHandle) {
	if _, ok := c.programs[p]; ok {
		gl.UseProgram(uint32(p))
	}
}

func bufferTarget(t gpu.BufferTarget) uint32 {
	if t == gpu.BufferIndex {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func (c *context) CreateBuffer(target gpu.BufferTarget) (gpu.BufferHandle, error) {
	var name uint32
	gl.GenBuffers(1, &name)
	if name == 0 {
		return 0, fmt.Errorf("opengl: create buffer: %w", glError("create buffer"))
	}
	h := gpu.BufferHandle(name)
	c.buffers[h] = target
	return h, nil
}

func (c *context) UploadBuffer(h gpu.BufferHandle, data []byte, dynamic bool) error {
	target, ok := c.buffers[h]
	if !ok {
		return fmt.Errorf("opengl: unknown buffer %d", h)
	}
	usage := uint32(gl.STATIC_DRAW)
	if dynamic {
		usage = gl.DYNAMIC_DRAW
	}
	t := bufferTarget(target)
	gl.BindBuffer(t, uint32(h))
	if len(data) == 0 {
		gl.BufferData(t, 0, nil, usage)
	} else {
		gl.BufferData(t, len(data), gl.Ptr(data), usage)
	}
	return glError("upload buffer")
}

func (c *context) DeleteBuffer(h gpu.BufferHandle) {
	if _, ok := c.buffers[h]; !ok {
		return
	}
	delete(c.buffers, h)
	name := uint32(h)
	gl.DeleteBuffers(1, &name)
}
