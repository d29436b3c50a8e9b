//go:build js && wasm

package webgl

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
)

func (c *context) BeginFrame() error {
	if c.inFrame {
		return errors.New("webgl: previous frame not finished")
	}
	if c.gl.Call("isContextLost").Bool() {
		return errors.New("webgl: context lost")
	}
	if c.depth {
		c.gl.Call("enable", c.consts.depthTest)
	} else {
		c.gl.Call("disable", c.consts.depthTest)
	}
	c.inFrame = true
	return nil
}

func (c *context) SetViewport(x, y, width, height int) {
	c.gl.Call("viewport", x, y, width, height)
}

func (c *context) Clear() {
	mask := c.consts.colorBufferBit
	if c.depth {
		mask |= c.consts.depthBufferBit
	}
	c.gl.Call("clear", mask)
}

func (c *context) BindVertexBuffer(h gpu.BufferHandle, layout gpu.VertexLayout) {
	b, ok := c.buffers[h]
	if !ok {
		return
	}
	c.gl.Call("bindBuffer", c.consts.arrayBuffer, b.buffer)
	used := make(map[int]struct{}, len(layout.Attributes))
	for _, a := range layout.Attributes {
		if a.Location < 0 {
			continue
		}
		c.gl.Call("enableVertexAttribArray", a.Location)
		c.gl.Call("vertexAttribPointer", a.Location, a.Components, c.consts.floatType, false, layout.Stride, a.Offset)
		used[a.Location] = struct{}{}
	}
	for loc := range c.enabled {
		if _, ok := used[loc]; !ok {
			c.gl.Call("disableVertexAttribArray", loc)
		}
	}
	c.enabled = used
}

func (c *context) BindIndexBuffer(h gpu.BufferHandle, _ gpu.IndexFormat) {
	if b, ok := c.buffers[h]; ok {
		c.gl.Call("bindBuffer", c.consts.elementArrayBuffer, b.buffer)
	}
}

func (c *context) drawMode(t gpu.Topology) (int, error) {
	name := ""
	switch t {
	case gpu.Triangles:
		name = "TRIANGLES"
	case gpu.TriangleStrip:
		name = "TRIANGLE_STRIP"
	case gpu.TriangleFan:
		name = "TRIANGLE_FAN"
	case gpu.Lines:
		name = "LINES"
	case gpu.LineStrip:
		name = "LINE_STRIP"
	case gpu.Points:
		name = "POINTS"
	default:
		return 0, fmt.Errorf("webgl: unknown topology %d", t)
	}
	return c.gl.Get(name).Int(), nil
}

func (c *context) Draw(t gpu.Topology, first, count int) error {
	if !c.inFrame {
		return errNoFrame
	}
	mode, err := c.drawMode(t)
	if err != nil {
		return err
	}
	c.gl.Call("drawArrays", mode, first, count)
	return c.glError("draw")
}

func (c *context) DrawIndexed(t gpu.Topology, count int, f gpu.IndexFormat) error {
	if !c.inFrame {
		return errNoFrame
	}
	mode, err := c.drawMode(t)
	if err != nil {
		return err
	}
	kind := c.consts.unsignedShort
	if f == gpu.IndexUint32 {
		kind = c.consts.unsignedInt
	}
	c.gl.Call("drawElements", mode, count, kind, 0)
	return c.glError("draw indexed")
}

// EndFrame ends the frame; the browser composites the drawing buffer when control returns
// to the event loop.
func (c *context) EndFrame() error {
	if !c.inFrame {
		return errNoFrame
	}
	c.inFrame = false
	return c.glError("frame")
}

func (c *context) DiscardFrame() {
	if c.inFrame {
		c.glError("discarded frame")
		c.inFrame = false
	}
}
