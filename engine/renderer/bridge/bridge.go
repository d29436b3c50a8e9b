// Package bridge is the narrow, synchronous, id-based boundary to a native WebGPU library.
// Every native object is referred to by an opaque Handle; the library itself sits behind a
// two-state guard so that a missing or broken library fails fast with a typed error.
package bridge

import (
	"github.com/gogpu/gputypes"
)

// Handle is an opaque id for a native object. Zero is never a valid handle.
type Handle uint64

// AdapterOptions selects an adapter.
type AdapterOptions struct {
	PowerPreference      gputypes.PowerPreference
	ForceFallbackAdapter bool
}

// SurfaceConfig configures the swapchain of a surface.
type SurfaceConfig struct {
	Format gputypes.TextureFormat
	Width  uint32
	Height uint32
	VSync  bool
}

// UniformLayoutEntry describes one uniform buffer binding in a bind group layout.
type UniformLayoutEntry struct {
	Binding          uint32
	Visibility       gputypes.ShaderStage
	HasDynamicOffset bool
	MinBindingSize   uint64
}

// BufferBinding binds a range of a buffer to a bind group slot.
type BufferBinding struct {
	Binding uint32
	Buffer  Handle
	Offset  uint64
	Size    uint64
}

// RenderPipelineDescriptor describes a render pipeline with one color target.
// DepthFormat is TextureFormatUndefined for pipelines without a depth attachment.
type RenderPipelineDescriptor struct {
	Label              string
	Layout             Handle
	VertexModule       Handle
	VertexEntryPoint   string
	FragmentModule     Handle
	FragmentEntryPoint string
	Buffers            []gputypes.VertexBufferLayout
	Topology           gputypes.PrimitiveTopology
	StripIndexFormat   gputypes.IndexFormat
	ColorFormat        gputypes.TextureFormat
	DepthFormat        gputypes.TextureFormat
	SampleCount        uint32
}

// RenderPassDescriptor describes a render pass with one color attachment that is cleared on
// load. ResolveTarget and DepthView are zero when unused.
type RenderPassDescriptor struct {
	ColorView     Handle
	ResolveTarget Handle
	ClearColor    gputypes.Color
	StoreOp       gputypes.StoreOp
	DepthView     Handle
}

// Bridge is the set of native calls the native backend is built on. Every call either
// succeeds or returns an error; when the library is unavailable every call returns an
// *UnavailableError without touching native code.
//
// Objects are released with Release regardless of their kind. Releasing an unknown or
// already-released handle is a no-op.
type Bridge interface {
	// CreateInstance loads the library if needed and returns the instance handle.
	//
	// Returns:
	//   - Handle: the instance
	//   - error: an *UnavailableError if the library could not be loaded
	CreateInstance() (Handle, error)

	// CreateSurface creates a presentable surface for a platform target.
	//
	// Parameters:
	//   - instance: the instance handle
	//   - target: the platform surface description, e.g. a *wgpu.SurfaceDescriptor
	//
	// Returns:
	//   - Handle: the surface
	//   - error: an error if the target is not supported
	CreateSurface(instance Handle, target any) (Handle, error)

	// RequestAdapter selects an adapter compatible with surface.
	//
	// Parameters:
	//   - instance: the instance handle
	//   - surface: the surface the adapter must present to
	//   - options: adapter selection options
	//
	// Returns:
	//   - Handle: the adapter
	//   - error: an error if no adapter matched
	RequestAdapter(instance, surface Handle, options AdapterOptions) (Handle, error)

	// AdapterLimits returns the limits the adapter supports.
	AdapterLimits(adapter Handle) (gputypes.Limits, error)

	// AdapterFeatures returns the names of the optional features the adapter supports.
	AdapterFeatures(adapter Handle) ([]string, error)

	// SurfaceFormats returns the color formats the surface supports on adapter, preferred first.
	SurfaceFormats(surface, adapter Handle) ([]gputypes.TextureFormat, error)

	// RequestDevice opens a device and its queue on adapter.
	RequestDevice(adapter Handle) (Handle, error)

	// ConfigureSurface (re)creates the swapchain of surface.
	ConfigureSurface(surface, adapter, device Handle, config SurfaceConfig) error

	// AcquireSurfaceTexture returns the next swapchain texture of surface.
	AcquireSurfaceTexture(surface Handle) (Handle, error)

	// CreateBuffer creates a buffer on device.
	CreateBuffer(device Handle, desc gputypes.BufferDescriptor) (Handle, error)

	// WriteBuffer queues a write of data into buffer at offset.
	WriteBuffer(device, buffer Handle, offset uint64, data []byte) error

	// CreateTexture creates a texture on device.
	CreateTexture(device Handle, desc gputypes.TextureDescriptor) (Handle, error)

	// CreateTextureView creates the default view of texture.
	CreateTextureView(texture Handle) (Handle, error)

	// CreateShaderModule creates a shader module from WGSL source.
	CreateShaderModule(device Handle, label, wgsl string) (Handle, error)

	// CreateBindGroupLayout creates a layout of uniform buffer bindings.
	CreateBindGroupLayout(device Handle, entries []UniformLayoutEntry) (Handle, error)

	// CreateBindGroup binds buffers to the slots of layout.
	CreateBindGroup(device, layout Handle, entries []BufferBinding) (Handle, error)

	// CreatePipelineLayout creates a pipeline layout from bind group layouts, in group order.
	CreatePipelineLayout(device Handle, groups []Handle) (Handle, error)

	// CreateRenderPipeline creates a render pipeline.
	CreateRenderPipeline(device Handle, desc RenderPipelineDescriptor) (Handle, error)

	// CreateCommandEncoder creates a command encoder on device.
	CreateCommandEncoder(device Handle) (Handle, error)

	// BeginRenderPass starts a render pass on encoder.
	BeginRenderPass(encoder Handle, desc RenderPassDescriptor) (Handle, error)

	SetPipeline(pass, pipeline Handle) error
	SetVertexBuffer(pass Handle, slot uint32, buffer Handle) error
	SetIndexBuffer(pass, buffer Handle, format gputypes.IndexFormat) error
	SetBindGroup(pass Handle, index uint32, group Handle, dynamicOffsets []uint32) error
	Draw(pass Handle, vertexCount, firstVertex uint32) error
	DrawIndexed(pass Handle, indexCount uint32) error

	// EndRenderPass ends pass. The pass handle must still be released.
	EndRenderPass(pass Handle) error

	// FinishEncoder finishes encoder into a command buffer.
	FinishEncoder(encoder Handle) (Handle, error)

	// QueueSubmit submits command buffers to the queue of device.
	QueueSubmit(device Handle, commandBuffers ...Handle) error

	// Present presents the acquired swapchain texture of surface.
	Present(surface Handle) error

	// Release destroys the native object behind h and invalidates the handle.
	Release(h Handle)

	// Live returns the number of handles not yet released.
	Live() int
}
