package bridge

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

var textureFormats = map[gputypes.TextureFormat]wgpu.TextureFormat{
	gputypes.TextureFormatBGRA8Unorm:          wgpu.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatBGRA8UnormSrgb:      wgpu.TextureFormatBGRA8UnormSrgb,
	gputypes.TextureFormatRGBA8Unorm:          wgpu.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb:      wgpu.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatDepth24Plus:         wgpu.TextureFormatDepth24Plus,
	gputypes.TextureFormatDepth24PlusStencil8: wgpu.TextureFormatDepth24PlusStencil8,
	gputypes.TextureFormatDepth32Float:        wgpu.TextureFormatDepth32Float,
}

func textureFormat(f gputypes.TextureFormat) (wgpu.TextureFormat, error) {
	if tf, ok := textureFormats[f]; ok {
		return tf, nil
	}
	return wgpu.TextureFormatUndefined, fmt.Errorf("unsupported texture format %s", f)
}

func fromTextureFormat(f wgpu.TextureFormat) (gputypes.TextureFormat, bool) {
	for k, v := range textureFormats {
		if v == f {
			return k, true
		}
	}
	return gputypes.TextureFormatUndefined, false
}

func vertexFormat(f gputypes.VertexFormat) (wgpu.VertexFormat, error) {
	switch f {
	case gputypes.VertexFormatFloat32:
		return wgpu.VertexFormatFloat32, nil
	case gputypes.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2, nil
	case gputypes.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3, nil
	case gputypes.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4, nil
	}
	return wgpu.VertexFormatUndefined, fmt.Errorf("unsupported vertex format %s", f)
}

func topology(t gputypes.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	case gputypes.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gputypes.PrimitiveTopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case gputypes.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func indexFormat(f gputypes.IndexFormat) wgpu.IndexFormat {
	switch f {
	case gputypes.IndexFormatUint16:
		return wgpu.IndexFormatUint16
	case gputypes.IndexFormatUint32:
		return wgpu.IndexFormatUint32
	default:
		return wgpu.IndexFormatUndefined
	}
}

func storeOp(op gputypes.StoreOp) wgpu.StoreOp {
	if op == gputypes.StoreOpDiscard {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}

func powerPreference(p gputypes.PowerPreference) wgpu.PowerPreference {
	switch p {
	case gputypes.PowerPreferenceHighPerformance:
		return wgpu.PowerPreferenceHighPerformance
	case gputypes.PowerPreferenceLowPower:
		return wgpu.PowerPreferenceLowPower
	default:
		return wgpu.PowerPreferenceUndefined
	}
}

func shaderStage(s gputypes.ShaderStage) wgpu.ShaderStage {
	out := wgpu.ShaderStageNone
	if s&gputypes.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gputypes.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&gputypes.ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func bufferUsage(u gputypes.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	pairs := []struct {
		from gputypes.BufferUsage
		to   wgpu.BufferUsage
	}{
		{gputypes.BufferUsageCopySrc, wgpu.BufferUsageCopySrc},
		{gputypes.BufferUsageCopyDst, wgpu.BufferUsageCopyDst},
		{gputypes.BufferUsageIndex, wgpu.BufferUsageIndex},
		{gputypes.BufferUsageVertex, wgpu.BufferUsageVertex},
		{gputypes.BufferUsageUniform, wgpu.BufferUsageUniform},
		{gputypes.BufferUsageStorage, wgpu.BufferUsageStorage},
		{gputypes.BufferUsageIndirect, wgpu.BufferUsageIndirect},
	}
	for _, p := range pairs {
		if u.Contains(p.from) {
			out |= p.to
		}
	}
	return out
}

func textureUsage(u gputypes.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u.Contains(gputypes.TextureUsageCopySrc) {
		out |= wgpu.TextureUsageCopySrc
	}
	if u.Contains(gputypes.TextureUsageCopyDst) {
		out |= wgpu.TextureUsageCopyDst
	}
	if u.Contains(gputypes.TextureUsageTextureBinding) {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u.Contains(gputypes.TextureUsageRenderAttachment) {
		out |= wgpu.TextureUsageRenderAttachment
	}
	return out
}
