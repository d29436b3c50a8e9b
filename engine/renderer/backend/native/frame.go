package native

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bridge"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// ErrTriangleFan is returned for fan draws, which WebGPU has no topology for.
var ErrTriangleFan = errors.New("native: triangle fans are not supported")

type pipelineKey struct {
	topology    gputypes.PrimitiveTopology
	stripFormat gputypes.IndexFormat
	layout      string
}

func primitiveTopology(t gpu.Topology) (gputypes.PrimitiveTopology, error) {
	switch t {
	case gpu.Triangles:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case gpu.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	case gpu.Lines:
		return gputypes.PrimitiveTopologyLineList, nil
	case gpu.LineStrip:
		return gputypes.PrimitiveTopologyLineStrip, nil
	case gpu.Points:
		return gputypes.PrimitiveTopologyPointList, nil
	case gpu.TriangleFan:
		return 0, ErrTriangleFan
	}
	return 0, fmt.Errorf("native: unknown topology %d", t)
}

func indexFormat(f gpu.IndexFormat) gputypes.IndexFormat {
	if f == gpu.IndexUint32 {
		return gputypes.IndexFormatUint32
	}
	return gputypes.IndexFormatUint16
}

func vertexFormat(components int) (gputypes.VertexFormat, error) {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32, nil
	case 2:
		return gputypes.VertexFormatFloat32x2, nil
	case 3:
		return gputypes.VertexFormatFloat32x3, nil
	case 4:
		return gputypes.VertexFormatFloat32x4, nil
	}
	return 0, fmt.Errorf("native: %d components per attribute", components)
}

func bufferLayout(l gpu.VertexLayout) (gputypes.VertexBufferLayout, error) {
	out := gputypes.VertexBufferLayout{ArrayStride: uint64(l.Stride), StepMode: gputypes.VertexStepModeVertex}
	for _, a := range l.Attributes {
		if a.Location < 0 {
			continue
		}
		format, err := vertexFormat(a.Components)
		if err != nil {
			return out, err
		}
		out.Attributes = append(out.Attributes, gputypes.VertexAttribute{
			Format:         format,
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(a.Location),
		})
	}
	return out, nil
}

// pipeline returns the render pipeline of the current program for a topology, creating it
// on first use.
func (c *context) pipeline(t gpu.Topology, indexed bool, f gpu.IndexFormat) (bridge.Handle, error) {
	topology, err := primitiveTopology(t)
	if err != nil {
		return 0, err
	}
	key := pipelineKey{topology: topology, layout: fmt.Sprint(c.layout)}
	if indexed && (topology == gputypes.PrimitiveTopologyTriangleStrip || topology == gputypes.PrimitiveTopologyLineStrip) {
		key.stripFormat = indexFormat(f)
	}
	prog := c.current
	if h, ok := prog.pipelines[key]; ok {
		return h, nil
	}

	layout, err := bufferLayout(c.layout)
	if err != nil {
		return 0, err
	}
	desc := bridge.RenderPipelineDescriptor{
		Label:              fmt.Sprintf("Default Pipeline (%s)", t),
		Layout:             prog.pipelineLayout,
		VertexModule:       prog.vertex.module,
		VertexEntryPoint:   prog.vertex.info.entryPoint,
		FragmentModule:     prog.fragment.module,
		FragmentEntryPoint: prog.fragment.info.entryPoint,
		Buffers:            []gputypes.VertexBufferLayout{layout},
		Topology:           topology,
		StripIndexFormat:   key.stripFormat,
		ColorFormat:        c.format,
		SampleCount:        c.samples,
	}
	if c.depth {
		desc.DepthFormat = depthFormat
	}
	h, err := c.bridge.CreateRenderPipeline(c.device, desc)
	if err != nil {
		return 0, fmt.Errorf("native: create pipeline: %w", err)
	}
	prog.pipelines[key] = h
	common.Logger().Debug("native pipeline created", "topology", t.String(), "indexed", indexed)
	return h, nil
}

func (c *context) BeginFrame() error {
	if c.frame != nil {
		return errors.New("native: previous frame not finished")
	}
	texture, err := c.bridge.AcquireSurfaceTexture(c.surface)
	if err != nil {
		return fmt.Errorf("native: acquire surface texture: %w", err)
	}
	f := &frame{texture: texture}
	if f.view, err = c.bridge.CreateTextureView(texture); err != nil {
		c.releaseFrame(f)
		return fmt.Errorf("native: surface view: %w", err)
	}
	if f.encoder, err = c.bridge.CreateCommandEncoder(c.device); err != nil {
		c.releaseFrame(f)
		return fmt.Errorf("native: command encoder: %w", err)
	}
	c.frame = f
	for _, prog := range c.programs {
		prog.ring.reset()
	}
	return nil
}

func (c *context) SetClearColor(col common.Color) { c.clearColor = col }

// SetViewport is a no-op: a render pass covers the whole surface.
func (c *context) SetViewport(_, _, _, _ int) {}

// Clear begins the render pass, which clears color and depth on load.
func (c *context) Clear() {
	if c.frame != nil && c.frame.pass == 0 {
		if err := c.beginPass(c.frame); err != nil {
			common.Logger().Warn("native: begin render pass failed", "err", err)
		}
	}
}

func (c *context) beginPass(f *frame) error {
	desc := bridge.RenderPassDescriptor{
		ColorView: f.view,
		StoreOp:   gputypes.StoreOpStore,
		DepthView: c.depthView,
		ClearColor: gputypes.Color{
			R: float64(c.clearColor.R), G: float64(c.clearColor.G),
			B: float64(c.clearColor.B), A: float64(c.clearColor.A),
		},
	}
	if c.samples > 1 {
		desc.ColorView, desc.ResolveTarget = c.msaaView, f.view
		desc.StoreOp = gputypes.StoreOpDiscard
	}
	pass, err := c.bridge.BeginRenderPass(f.encoder, desc)
	if err != nil {
		return err
	}
	f.pass = pass
	return nil
}

func (c *context) BindVertexBuffer(h gpu.BufferHandle, layout gpu.VertexLayout) {
	c.vertexBuffer = c.buffers[h]
	c.layout = layout
}

func (c *context) BindIndexBuffer(h gpu.BufferHandle, _ gpu.IndexFormat) {
	c.indexBuffer = c.buffers[h]
}

// SetUniformMat4 stages m for the next draw, remapping clip-space depth from [-1, 1] to [0, 1].
func (c *context) SetUniformMat4(location int, m mgl32.Mat4) {
	if c.current == nil || location < 0 || uint32(location) != c.current.uniformBinding {
		return
	}
	c.mvp = common.ClipSpaceCorrection.Mul4(m)
}

// prepare sets the pipeline, the uniform slot and the vertex buffer for a draw.
func (c *context) prepare(t gpu.Topology, indexed bool, f gpu.IndexFormat) error {
	if c.frame == nil {
		return errNoFrame
	}
	if c.current == nil {
		return errors.New("native: no program in use")
	}
	if c.vertexBuffer == nil || c.vertexBuffer.native == 0 {
		return errors.New("native: no vertex buffer bound")
	}
	if c.frame.pass == 0 {
		if err := c.beginPass(c.frame); err != nil {
			return err
		}
	}
	pipeline, err := c.pipeline(t, indexed, f)
	if err != nil {
		return err
	}
	chunk, offset, err := c.current.ring.push(c, c.current, &c.mvp)
	if err != nil {
		return err
	}
	pass := c.frame.pass
	if err := c.bridge.SetPipeline(pass, pipeline); err != nil {
		return err
	}
	if err := c.bridge.SetBindGroup(pass, 0, chunk.group, []uint32{offset}); err != nil {
		return err
	}
	return c.bridge.SetVertexBuffer(pass, 0, c.vertexBuffer.native)
}

func (c *context) Draw(t gpu.Topology, first, count int) error {
	if err := c.prepare(t, false, 0); err != nil {
		return err
	}
	return c.bridge.Draw(c.frame.pass, uint32(count), uint32(first))
}

func (c *context) DrawIndexed(t gpu.Topology, count int, f gpu.IndexFormat) error {
	if c.indexBuffer == nil || c.indexBuffer.native == 0 {
		return errors.New("native: no index buffer bound")
	}
	if err := c.prepare(t, true, f); err != nil {
		return err
	}
	if err := c.bridge.SetIndexBuffer(c.frame.pass, c.indexBuffer.native, indexFormat(f)); err != nil {
		return err
	}
	return c.bridge.DrawIndexed(c.frame.pass, uint32(count))
}

// EndFrame writes the staged matrices, submits the frame and presents it.
func (c *context) EndFrame() error {
	f := c.frame
	if f == nil {
		return errNoFrame
	}
	defer c.releaseFrame(f)
	c.frame = nil

	if f.pass == 0 {
		if err := c.beginPass(f); err != nil {
			return fmt.Errorf("native: begin render pass: %w", err)
		}
	}
	if err := c.bridge.EndRenderPass(f.pass); err != nil {
		return fmt.Errorf("native: end render pass: %w", err)
	}
	f.ended = true
	commands, err := c.bridge.FinishEncoder(f.encoder)
	if err != nil {
		return fmt.Errorf("native: finish encoder: %w", err)
	}
	defer c.bridge.Release(commands)

	for _, prog := range c.programs {
		if err := prog.ring.flush(c); err != nil {
			return err
		}
	}
	if err := c.bridge.QueueSubmit(c.device, commands); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	if err := c.bridge.Present(c.surface); err != nil {
		return fmt.Errorf("native: present: %w", err)
	}
	return nil
}

func (c *context) DiscardFrame() {
	if c.frame == nil {
		return
	}
	c.releaseFrame(c.frame)
	c.frame = nil
}

func (c *context) releaseFrame(f *frame) {
	if f.pass != 0 && !f.ended {
		c.bridge.EndRenderPass(f.pass)
		f.ended = true
	}
	for _, h := range []*bridge.Handle{&f.pass, &f.encoder, &f.view, &f.texture} {
		c.release(h)
	}
}
