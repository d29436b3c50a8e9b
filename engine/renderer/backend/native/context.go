package native

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bridge"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

var errNoFrame = errors.New("native: no frame in progress")

// frame holds the native objects of the frame between BeginFrame and EndFrame.
type frame struct {
	texture bridge.Handle
	view    bridge.Handle
	encoder bridge.Handle
	pass    bridge.Handle
	ended   bool
}

// context is the implementation of gpu.Context over a bridge.Bridge.
type context struct {
	bridge  bridge.Bridge
	variant string
	samples uint32
	depth   bool
	vsync   bool

	instance bridge.Handle
	surface  bridge.Handle
	adapter  bridge.Handle
	device   bridge.Handle
	format   gputypes.TextureFormat
	limits   gputypes.Limits
	features []string
	formats  []gputypes.TextureFormat

	width, height int
	msaaTexture   bridge.Handle
	msaaView      bridge.Handle
	depthTexture  bridge.Handle
	depthView     bridge.Handle

	next     uint64
	shaders  map[gpu.ShaderHandle]*shaderObject
	programs map[gpu.ProgramHandle]*program
	buffers  map[gpu.BufferHandle]*buffer

	current      *program
	vertexBuffer *buffer
	layout       gpu.VertexLayout
	indexBuffer  *buffer
	mvp          mgl32.Mat4
	clearColor   common.Color
	frame        *frame
	destroyed    bool
}

var _ gpu.Context = &context{}

func (c *context) id() uint64 {
	c.next++
	return c.next
}

func (c *context) open(target any, candidate negotiator.Candidate) error {
	b := c.bridge
	var err error
	if c.instance, err = b.CreateInstance(); err != nil {
		return err
	}
	if c.surface, err = b.CreateSurface(c.instance, target); err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	c.adapter, err = b.RequestAdapter(c.instance, c.surface, bridge.AdapterOptions{
		PowerPreference:      powerPreference(candidate.Attributes.PowerPreference),
		ForceFallbackAdapter: candidate.API.Name == VariantFallback,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	if c.limits, err = b.AdapterLimits(c.adapter); err != nil {
		return fmt.Errorf("adapter limits: %w", err)
	}
	if c.features, err = b.AdapterFeatures(c.adapter); err != nil {
		return fmt.Errorf("adapter features: %w", err)
	}
	if c.formats, err = b.SurfaceFormats(c.surface, c.adapter); err != nil {
		return fmt.Errorf("surface formats: %w", err)
	}
	if len(c.formats) == 0 {
		return errors.New("surface has no supported color format")
	}
	c.format = c.formats[0]
	if c.device, err = b.RequestDevice(c.adapter); err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	return c.configure()
}

// configure (re)creates the swapchain and the MSAA and depth attachments at the current size.
func (c *context) configure() error {
	err := c.bridge.ConfigureSurface(c.surface, c.adapter, c.device, bridge.SurfaceConfig{
		Format: c.format,
		Width:  uint32(c.width),
		Height: uint32(c.height),
		VSync:  c.vsync,
	})
	if err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	c.releaseAttachments()

	size := gputypes.Extent3D{Width: uint32(c.width), Height: uint32(c.height), DepthOrArrayLayers: 1}
	if c.samples > 1 {
		if c.msaaTexture, c.msaaView, err = c.attachment("MSAA Texture", size, c.format); err != nil {
			return err
		}
	}
	if c.depth {
		if c.depthTexture, c.depthView, err = c.attachment("Depth Texture", size, depthFormat); err != nil {
			return err
		}
	}
	return nil
}

func (c *context) attachment(label string, size gputypes.Extent3D, format gputypes.TextureFormat) (bridge.Handle, bridge.Handle, error) {
	tex, err := c.bridge.CreateTexture(c.device, gputypes.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   c.samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := c.bridge.CreateTextureView(tex)
	if err != nil {
		c.bridge.Release(tex)
		return 0, 0, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (c *context) releaseAttachments() {
	for _, h := range []*bridge.Handle{&c.msaaView, &c.msaaTexture, &c.depthView, &c.depthTexture} {
		c.release(h)
	}
}

// release releases *h if set and zeroes it.
func (c *context) release(h *bridge.Handle) {
	if *h != 0 {
		c.bridge.Release(*h)
		*h = 0
	}
}

func (c *context) Backend() gpu.Backend { return gpu.BackendNative }
func (c *context) Variant() string      { return c.variant }

func (c *context) QueryInt(p gpu.Param) (int, error) {
	switch p {
	case gpu.ParamMaxTextureSize:
		return int(c.limits.MaxTextureDimension2D), nil
	case gpu.ParamMaxVertexAttributes:
		return int(c.limits.MaxVertexAttributes), nil
	case gpu.ParamMaxVertexUniformVectors:
		return int(c.limits.MaxUniformBufferBindingSize / 16), nil
	case gpu.ParamMaxSamples:
		return 4, nil
	case gpu.ParamMaxDrawBuffers:
		return int(c.limits.MaxColorAttachments), nil
	}
	return 0, gpu.ErrUnsupported
}

func (c *context) QueryFeature(f gpu.Feature) (bool, error) {
	switch f {
	case gpu.FeatureUint32Indices, gpu.FeatureInstancing, gpu.FeatureCompute, gpu.FeatureAnisotropicFiltering:
		return true, nil
	case gpu.FeatureMultipleRenderTargets:
		return c.limits.MaxColorAttachments > 1, nil
	}
	return false, nil
}

func (c *context) Extensions() ([]string, error) {
	return append([]string(nil), c.features...), nil
}

func (c *context) TextureFormats() (color, depth []string) {
	for _, f := range c.formats {
		color = append(color, f.String())
	}
	return color, []string{gputypes.TextureFormatDepth24Plus.String(), gputypes.TextureFormatDepth32Float.String()}
}

func (c *context) Resize(width, height int) error {
	if c.frame != nil {
		return errors.New("native: resize during a frame")
	}
	c.width, c.height = max(1, width), max(1, height)
	return c.configure()
}

func (c *context) Size() (int, int) { return c.width, c.height }

// TextureMemory counts the MSAA and depth attachments and the two swapchain images.
func (c *context) TextureMemory() int64 {
	pixels := int64(c.width) * int64(c.height)
	total := 2 * pixels * 4
	if c.msaaTexture != 0 {
		total += pixels * 4 * int64(c.samples)
	}
	if c.depthTexture != 0 {
		total += pixels * 4 * int64(c.samples)
	}
	return total
}

func (c *context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.DiscardFrame()
	for h := range c.programs {
		c.DeleteProgram(h)
	}
	for h := range c.shaders {
		c.DeleteShader(h)
	}
	for h := range c.buffers {
		c.DeleteBuffer(h)
	}
	c.releaseAttachments()
	for _, h := range []*bridge.Handle{&c.device, &c.adapter, &c.surface, &c.instance} {
		c.release(h)
	}
}
