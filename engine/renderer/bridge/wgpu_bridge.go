package bridge

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

// WGPULibrary is the library name reported by the wgpu-native bridge.
const WGPULibrary = "wgpu-native"

type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

type wgpuSurfaceTexture struct {
	texture *wgpu.Texture
}

// wgpuBridge implements Bridge on top of wgpu-native through cogentcore/webgpu.
type wgpuBridge struct {
	lib     *Library
	objects *handleTable
	// acquired holds the swapchain texture of each surface between Acquire and Present.
	acquired map[Handle]*wgpu.Texture
}

var _ Bridge = &wgpuBridge{}

// NewWGPU returns a Bridge backed by wgpu-native. The library is loaded by the first
// CreateInstance call.
//
// Returns:
//   - Bridge: the bridge, unloaded until CreateInstance succeeds
func NewWGPU() Bridge {
	return &wgpuBridge{
		lib:      NewLibrary(WGPULibrary),
		objects:  newHandleTable(),
		acquired: make(map[Handle]*wgpu.Texture),
	}
}

func (b *wgpuBridge) CreateInstance() (Handle, error) {
	err := b.lib.Load(func() (any, error) {
		instance := wgpu.CreateInstance(nil)
		if instance == nil {
			return nil, errors.New("wgpuCreateInstance returned null")
		}
		return instance, nil
	})
	if err != nil {
		return 0, err
	}
	handle, err := b.lib.Ready()
	if err != nil {
		return 0, err
	}
	return b.objects.insert(handle.(*wgpu.Instance)), nil
}

func (b *wgpuBridge) CreateSurface(instance Handle, target any) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	inst, err := lookup[*wgpu.Instance](b.objects, instance)
	if err != nil {
		return 0, err
	}
	desc, ok := target.(*wgpu.SurfaceDescriptor)
	if !ok || desc == nil {
		return 0, fmt.Errorf("unsupported surface target %T", target)
	}
	return b.objects.insert(inst.CreateSurface(desc)), nil
}

func (b *wgpuBridge) RequestAdapter(instance, surface Handle, options AdapterOptions) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	inst, err := lookup[*wgpu.Instance](b.objects, instance)
	if err != nil {
		return 0, err
	}
	surf, err := lookup[*wgpu.Surface](b.objects, surface)
	if err != nil {
		return 0, err
	}
	adapter, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      powerPreference(options.PowerPreference),
		ForceFallbackAdapter: options.ForceFallbackAdapter,
		CompatibleSurface:    surf,
	})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(adapter), nil
}

func (b *wgpuBridge) AdapterLimits(adapter Handle) (gputypes.Limits, error) {
	if _, err := b.lib.Ready(); err != nil {
		return gputypes.Limits{}, err
	}
	a, err := lookup[*wgpu.Adapter](b.objects, adapter)
	if err != nil {
		return gputypes.Limits{}, err
	}
	l := a.GetLimits().Limits
	out := gputypes.DefaultLimits()
	out.MaxTextureDimension2D = l.MaxTextureDimension2D
	out.MaxBindGroups = l.MaxBindGroups
	out.MaxVertexAttributes = l.MaxVertexAttributes
	out.MaxVertexBuffers = l.MaxVertexBuffers
	out.MaxColorAttachments = l.MaxColorAttachments
	out.MaxUniformBufferBindingSize = l.MaxUniformBufferBindingSize
	out.MinUniformBufferOffsetAlignment = l.MinUniformBufferOffsetAlignment
	return out, nil
}

func (b *wgpuBridge) AdapterFeatures(adapter Handle) ([]string, error) {
	if _, err := b.lib.Ready(); err != nil {
		return nil, err
	}
	a, err := lookup[*wgpu.Adapter](b.objects, adapter)
	if err != nil {
		return nil, err
	}
	features := a.EnumerateFeatures()
	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, fmt.Sprint(f))
	}
	return names, nil
}

func (b *wgpuBridge) SurfaceFormats(surface, adapter Handle) ([]gputypes.TextureFormat, error) {
	if _, err := b.lib.Ready(); err != nil {
		return nil, err
	}
	s, err := lookup[*wgpu.Surface](b.objects, surface)
	if err != nil {
		return nil, err
	}
	a, err := lookup[*wgpu.Adapter](b.objects, adapter)
	if err != nil {
		return nil, err
	}
	caps := s.GetCapabilities(a)
	out := make([]gputypes.TextureFormat, 0, len(caps.Formats))
	for _, f := range caps.Formats {
		if tf, ok := fromTextureFormat(f); ok {
			out = append(out, tf)
		}
	}
	return out, nil
}

func (b *wgpuBridge) RequestDevice(adapter Handle) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	a, err := lookup[*wgpu.Adapter](b.objects, adapter)
	if err != nil {
		return 0, err
	}
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "oxy-render device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(&wgpuDevice{device: d, queue: d.GetQueue()}), nil
}

func (b *wgpuBridge) ConfigureSurface(surface, adapter, device Handle, config SurfaceConfig) error {
	if _, err := b.lib.Ready(); err != nil {
		return err
	}
	s, err := lookup[*wgpu.Surface](b.objects, surface)
	if err != nil {
		return err
	}
	a, err := lookup[*wgpu.Adapter](b.objects, adapter)
	if err != nil {
		return err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return err
	}
	format, err := textureFormat(config.Format)
	if err != nil {
		return err
	}
	presentMode := wgpu.PresentModeImmediate
	if config.VSync {
		presentMode = wgpu.PresentModeFifo
	}
	caps := s.GetCapabilities(a)
	if len(caps.AlphaModes) == 0 {
		return errors.New("surface reports no alpha modes")
	}
	s.Configure(a, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       config.Width,
		Height:      config.Height,
		PresentMode: presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})
	return nil
}

func (b *wgpuBridge) AcquireSurfaceTexture(surface Handle) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	s, err := lookup[*wgpu.Surface](b.objects, surface)
	if err != nil {
		return 0, err
	}
	if _, held := b.acquired[surface]; held {
		return 0, errors.New("previous surface texture not yet presented")
	}
	tex, err := s.GetCurrentTexture()
	if err != nil {
		return 0, err
	}
	b.acquired[surface] = tex
	return b.objects.insert(&wgpuSurfaceTexture{texture: tex}), nil
}

func (b *wgpuBridge) CreateBuffer(device Handle, desc gputypes.BufferDescriptor) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return 0, err
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            bufferUsage(desc.Usage),
		MappedAtCreation: desc.MappedAtCreation,
	})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(buf), nil
}

func (b *wgpuBridge) WriteBuffer(device, buffer Handle, offset uint64, data []byte) error {
	if _, err := b.lib.Ready(); err != nil {
		return err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return err
	}
	buf, err := lookup[*wgpu.Buffer](b.objects, buffer)
	if err != nil {
		return err
	}
	d.queue.WriteBuffer(buf, offset, data)
	return nil
}

func (b *wgpuBridge) CreateTexture(device Handle, desc gputypes.TextureDescriptor) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return 0, err
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return 0, err
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Size.Width,
			Height:             desc.Size.Height,
			DepthOrArrayLayers: max(1, desc.Size.DepthOrArrayLayers),
		},
		MipLevelCount: max(1, desc.MipLevelCount),
		SampleCount:   max(1, desc.SampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(tex), nil
}

func (b *wgpuBridge) CreateTextureView(texture Handle) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	var tex *wgpu.Texture
	if st, err := lookup[*wgpuSurfaceTexture](b.objects, texture); err == nil {
		tex = st.texture
	} else if tex, err = lookup[*wgpu.Texture](b.objects, texture); err != nil {
		return 0, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return 0, err
	}
	return b.objects.insert(view), nil
}

func (b *wgpuBridge) CreateShaderModule(device Handle, label, wgsl string) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return 0, err
	}
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgsl,
		},
	})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(module), nil
}

func (b *wgpuBridge) CreateBindGroupLayout(device Handle, entries []UniformLayoutEntry) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return 0, err
	}
	out := make([]wgpu.BindGroupLayoutEntry, len(entries))
	for i, e := range entries {
		out[i] = wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: shaderStage(e.Visibility),
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: e.HasDynamicOffset,
				MinBindingSize:   e.MinBindingSize,
			},
		}
	}
	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Entries: out})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(layout), nil
}

func (b *wgpuBridge) CreateBindGroup(device, layout Handle, entries []BufferBinding) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return 0, err
	}
	l, err := lookup[*wgpu.BindGroupLayout](b.objects, layout)
	if err != nil {
		return 0, err
	}
	out := make([]wgpu.BindGroupEntry, len(entries))
	for i, e := range entries {
		buf, err := lookup[*wgpu.Buffer](b.objects, e.Buffer)
		if err != nil {
			return 0, err
		}
		out[i] = wgpu.BindGroupEntry{Binding: e.Binding, Buffer: buf, Offset: e.Offset, Size: e.Size}
	}
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Layout: l, Entries: out})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(group), nil
}

func (b *wgpuBridge) CreatePipelineLayout(device Handle, groups []Handle) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return 0, err
	}
	layouts := make([]*wgpu.BindGroupLayout, len(groups))
	for i, g := range groups {
		if layouts[i], err = lookup[*wgpu.BindGroupLayout](b.objects, g); err != nil {
			return 0, err
		}
	}
	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{BindGroupLayouts: layouts})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(layout), nil
}

func (b *wgpuBridge) CreateRenderPipeline(device Handle, desc RenderPipelineDescriptor) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return 0, err
	}
	layout, err := lookup[*wgpu.PipelineLayout](b.objects, desc.Layout)
	if err != nil {
		return 0, err
	}
	vs, err := lookup[*wgpu.ShaderModule](b.objects, desc.VertexModule)
	if err != nil {
		return 0, err
	}
	fs, err := lookup[*wgpu.ShaderModule](b.objects, desc.FragmentModule)
	if err != nil {
		return 0, err
	}
	colorFormat, err := textureFormat(desc.ColorFormat)
	if err != nil {
		return 0, err
	}

	buffers := make([]wgpu.VertexBufferLayout, len(desc.Buffers))
	for i, l := range desc.Buffers {
		attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
		for j, a := range l.Attributes {
			format, err := vertexFormat(a.Format)
			if err != nil {
				return 0, err
			}
			attrs[j] = wgpu.VertexAttribute{Format: format, Offset: a.Offset, ShaderLocation: a.ShaderLocation}
		}
		buffers[i] = wgpu.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		}
	}

	var depth *wgpu.DepthStencilState
	if desc.DepthFormat != gputypes.TextureFormatUndefined {
		depthFormat, err := textureFormat(desc.DepthFormat)
		if err != nil {
			return 0, err
		}
		depth = &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	pipeline, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: desc.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    colorFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:         topology(desc.Topology),
			StripIndexFormat: indexFormat(desc.StripIndexFormat),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: max(1, desc.SampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depth,
	})
	if err != nil {
		return 0, err
	}
	return b.objects.insert(pipeline), nil
}

func (b *wgpuBridge) CreateCommandEncoder(device Handle) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return 0, err
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return 0, err
	}
	return b.objects.insert(encoder), nil
}

func (b *wgpuBridge) BeginRenderPass(encoder Handle, desc RenderPassDescriptor) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	enc, err := lookup[*wgpu.CommandEncoder](b.objects, encoder)
	if err != nil {
		return 0, err
	}
	color, err := lookup[*wgpu.TextureView](b.objects, desc.ColorView)
	if err != nil {
		return 0, err
	}
	attachment := wgpu.RenderPassColorAttachment{
		View:    color,
		LoadOp:  wgpu.LoadOpClear,
		StoreOp: storeOp(desc.StoreOp),
		ClearValue: wgpu.Color{
			R: desc.ClearColor.R, G: desc.ClearColor.G, B: desc.ClearColor.B, A: desc.ClearColor.A,
		},
	}
	if desc.ResolveTarget != 0 {
		if attachment.ResolveTarget, err = lookup[*wgpu.TextureView](b.objects, desc.ResolveTarget); err != nil {
			return 0, err
		}
	}
	rp := &wgpu.RenderPassDescriptor{ColorAttachments: []wgpu.RenderPassColorAttachment{attachment}}
	if desc.DepthView != 0 {
		depth, err := lookup[*wgpu.TextureView](b.objects, desc.DepthView)
		if err != nil {
			return 0, err
		}
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}
	return b.objects.insert(enc.BeginRenderPass(rp)), nil
}

func (b *wgpuBridge) pass(h Handle) (*wgpu.RenderPassEncoder, error) {
	if _, err := b.lib.Ready(); err != nil {
		return nil, err
	}
	return lookup[*wgpu.RenderPassEncoder](b.objects, h)
}

func (b *wgpuBridge) SetPipeline(pass, pipeline Handle) error {
	p, err := b.pass(pass)
	if err != nil {
		return err
	}
	rp, err := lookup[*wgpu.RenderPipeline](b.objects, pipeline)
	if err != nil {
		return err
	}
	p.SetPipeline(rp)
	return nil
}

func (b *wgpuBridge) SetVertexBuffer(pass Handle, slot uint32, buffer Handle) error {
	p, err := b.pass(pass)
	if err != nil {
		return err
	}
	buf, err := lookup[*wgpu.Buffer](b.objects, buffer)
	if err != nil {
		return err
	}
	p.SetVertexBuffer(slot, buf, 0, wgpu.WholeSize)
	return nil
}

func (b *wgpuBridge) SetIndexBuffer(pass, buffer Handle, format gputypes.IndexFormat) error {
	p, err := b.pass(pass)
	if err != nil {
		return err
	}
	buf, err := lookup[*wgpu.Buffer](b.objects, buffer)
	if err != nil {
		return err
	}
	p.SetIndexBuffer(buf, indexFormat(format), 0, wgpu.WholeSize)
	return nil
}

func (b *wgpuBridge) SetBindGroup(pass Handle, index uint32, group Handle, dynamicOffsets []uint32) error {
	p, err := b.pass(pass)
	if err != nil {
		return err
	}
	g, err := lookup[*wgpu.BindGroup](b.objects, group)
	if err != nil {
		return err
	}
	p.SetBindGroup(index, g, dynamicOffsets)
	return nil
}

func (b *wgpuBridge) Draw(pass Handle, vertexCount, firstVertex uint32) error {
	p, err := b.pass(pass)
	if err != nil {
		return err
	}
	p.Draw(vertexCount, 1, firstVertex, 0)
	return nil
}

func (b *wgpuBridge) DrawIndexed(pass Handle, indexCount uint32) error {
	p, err := b.pass(pass)
	if err != nil {
		return err
	}
	p.DrawIndexed(indexCount, 1, 0, 0, 0)
	return nil
}

func (b *wgpuBridge) EndRenderPass(pass Handle) error {
	p, err := b.pass(pass)
	if err != nil {
		return err
	}
	p.End()
	return nil
}

func (b *wgpuBridge) FinishEncoder(encoder Handle) (Handle, error) {
	if _, err := b.lib.Ready(); err != nil {
		return 0, err
	}
	enc, err := lookup[*wgpu.CommandEncoder](b.objects, encoder)
	if err != nil {
		return 0, err
	}
	cb, err := enc.Finish(nil)
	if err != nil {
		return 0, err
	}
	return b.objects.insert(cb), nil
}

func (b *wgpuBridge) QueueSubmit(device Handle, commandBuffers ...Handle) error {
	if _, err := b.lib.Ready(); err != nil {
		return err
	}
	d, err := lookup[*wgpuDevice](b.objects, device)
	if err != nil {
		return err
	}
	cbs := make([]*wgpu.CommandBuffer, len(commandBuffers))
	for i, h := range commandBuffers {
		if cbs[i], err = lookup[*wgpu.CommandBuffer](b.objects, h); err != nil {
			return err
		}
	}
	d.queue.Submit(cbs...)
	return nil
}

func (b *wgpuBridge) Present(surface Handle) error {
	if _, err := b.lib.Ready(); err != nil {
		return err
	}
	s, err := lookup[*wgpu.Surface](b.objects, surface)
	if err != nil {
		return err
	}
	if _, held := b.acquired[surface]; !held {
		return errors.New("no surface texture acquired")
	}
	s.Present()
	delete(b.acquired, surface)
	return nil
}

func (b *wgpuBridge) Release(h Handle) {
	obj, ok := b.objects.remove(h)
	if !ok {
		return
	}
	switch o := obj.(type) {
	case *wgpu.Instance:
		// The instance is owned by the library guard and lives for the process.
	case *wgpu.Surface:
		delete(b.acquired, h)
		o.Release()
	case *wgpu.Adapter:
		o.Release()
	case *wgpuDevice:
		o.queue.Release()
		o.device.Release()
	case *wgpuSurfaceTexture:
		for s, tex := range b.acquired {
			if tex == o.texture {
				delete(b.acquired, s)
			}
		}
		o.texture.Release()
	case *wgpu.Buffer:
		o.Release()
	case *wgpu.Texture:
		o.Release()
	case *wgpu.TextureView:
		o.Release()
	case *wgpu.ShaderModule:
		o.Release()
	case *wgpu.BindGroupLayout:
		o.Release()
	case *wgpu.BindGroup:
		o.Release()
	case *wgpu.PipelineLayout:
		o.Release()
	case *wgpu.RenderPipeline:
		o.Release()
	case *wgpu.CommandEncoder:
		o.Release()
	case *wgpu.RenderPassEncoder:
		o.Release()
	case *wgpu.CommandBuffer:
		o.Release()
	default:
		common.Logger().Warn("releasing unknown native object", "handle", uint64(h), "type", fmt.Sprintf("%T", obj))
	}
}

func (b *wgpuBridge) Live() int { return b.objects.Live() }
