package opengl

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/go-gl/gl/v3.3-core/gl"
)

func (c *context) BeginFrame() error {
	if c.inFrame {
		return errors.New("opengl: previous frame not finished")
	}
	c.window.MakeContextCurrent()
	if c.depth {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if c.samples > 1 {
		gl.Enable(gl.MULTISAMPLE)
	}
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	c.inFrame = true
	return nil
}

func (c *context) SetViewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (c *context) Clear() {
	mask := uint32(gl.COLOR_BUFFER_BIT)
	if c.depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(mask)
}

// BindVertexBuffer points every attribute of layout at h and disables attribute arrays the
// previous layout enabled but this one does not use.
func (c *context) BindVertexBuffer(h gpu.BufferHandle, layout gpu.VertexLayout) {
	if _, ok := c.buffers[h]; !ok {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(h))
	used := make(map[uint32]struct{}, len(layout.Attributes))
	for _, a := range layout.Attributes {
		if a.Location < 0 {
			continue
		}
		loc := uint32(a.Location)
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointerWithOffset(loc, int32(a.Components), gl.FLOAT, false, int32(layout.Stride), uintptr(a.Offset))
		used[loc] = struct{}{}
	}
	for loc := range c.enabled {
		if _, ok := used[loc]; !ok {
			gl.DisableVertexAttribArray(loc)
		}
	}
	c.enabled = used
}

func (c *context) BindIndexBuffer(h gpu.BufferHandle, _ gpu.IndexFormat) {
	if _, ok := c.buffers[h]; ok {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(h))
	}
}

func drawMode(t gpu.Topology) (uint32, error) {
	switch t {
	case gpu.Triangles:
		return gl.TRIANGLES, nil
	case gpu.TriangleStrip:
		return gl.TRIANGLE_STRIP, nil
	case gpu.TriangleFan:
		return gl.TRIANGLE_FAN, nil
	case gpu.Lines:
		return gl.LINES, nil
	case gpu.LineStrip:
		return gl.LINE_STRIP, nil
	case gpu.Points:
		return gl.POINTS, nil
	}
	return 0, fmt.Errorf("opengl: unknown topology %d", t)
}

func (c *context) Draw(t gpu.Topology, first, count int) error {
	if !c.inFrame {
		return errNoFrame
	}
	mode, err := drawMode(t)
	if err != nil {
		return err
	}
	gl.DrawArrays(mode, int32(first), int32(count))
	return glError("draw")
}

func (c *context) DrawIndexed(t gpu.Topology, count int, f gpu.IndexFormat) error {
	if !c.inFrame {
		return errNoFrame
	}
	mode, err := drawMode(t)
	if err != nil {
		return err
	}
	kind := uint32(gl.UNSIGNED_SHORT)
	if f == gpu.IndexUint32 {
		kind = gl.UNSIGNED_INT
	}
	gl.DrawElementsWithOffset(mode, int32(count), kind, 0)
	return glError("draw indexed")
}

// EndFrame presents the back buffer. Errors still queued from the frame are reported after
// the swap so a bad frame does not stall the window.
func (c *context) EndFrame() error {
	if !c.inFrame {
		return errNoFrame
	}
	c.inFrame = false
	err := glError("frame")
	c.window.SwapBuffers()
	return err
}

// DiscardFrame leaves the back buffer unpresented; the next frame clears over it.
func (c *context) DiscardFrame() {
	if c.inFrame {
		glError("discarded frame")
		c.inFrame = false
	}
}
