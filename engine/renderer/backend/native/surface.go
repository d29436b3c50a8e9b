// Package native implements gpu.Context with WebGPU semantics on top of a bridge.Bridge.
package native

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bridge"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
	"github.com/gogpu/gputypes"
)

const (
	// VariantHardware is a hardware adapter.
	VariantHardware = "webgpu"
	// VariantFallback is the software fallback adapter.
	VariantFallback = "webgpu-fallback"
)

// SurfaceKind is reported in negotiation errors.
const SurfaceKind = "webgpu-surface"

// depthFormat is the depth attachment format of every native context.
const depthFormat = gputypes.TextureFormatDepth24Plus

type surface struct {
	bridge bridge.Bridge
	target any
	width  int
	height int
	vsync  bool
}

var _ negotiator.Surface = &surface{}

// NewSurface returns a negotiation surface that creates native contexts presenting to target.
//
// Parameters:
//   - b: the bridge to the native library
//   - target: the platform surface description passed to bridge.CreateSurface
//   - width: the initial width in pixels
//   - height: the initial height in pixels
//   - vsync: present with vertical sync
//
// Returns:
//   - negotiator.Surface: the surface
func NewSurface(b bridge.Bridge, target any, width, height int, vsync bool) negotiator.Surface {
	return &surface{bridge: b, target: target, width: max(1, width), height: max(1, height), vsync: vsync}
}

func (s *surface) Kind() string { return SurfaceKind }

func (s *surface) Ladder() negotiator.Ladder {
	return negotiator.Ladder{
		High: negotiator.API{Name: VariantHardware},
		Low:  negotiator.API{Name: VariantFallback},
	}
}

// Create builds a context for candidate. WebGPU only guarantees 1 and 4 samples, so any
// other sample count is rejected and negotiation moves on to the default attributes.
func (s *surface) Create(candidate negotiator.Candidate) (gpu.Context, error) {
	samples := max(1, candidate.Attributes.SampleCount)
	if samples != 1 && samples != 4 {
		return nil, fmt.Errorf("%d samples not supported", samples)
	}

	c := &context{
		bridge:   s.bridge,
		variant:  candidate.API.Name,
		samples:  uint32(samples),
		depth:    candidate.Attributes.Depth,
		vsync:    s.vsync,
		width:    s.width,
		height:   s.height,
		shaders:  make(map[gpu.ShaderHandle]*shaderObject),
		programs: make(map[gpu.ProgramHandle]*program),
		buffers:  make(map[gpu.BufferHandle]*buffer),
	}
	if err := c.open(s.target, candidate); err != nil {
		c.Destroy()
		return nil, err
	}
	common.Logger().Debug("native context created",
		"variant", c.variant, "format", c.format.String(), "samples", c.samples)
	return c, nil
}

func powerPreference(p negotiator.PowerPreference) gputypes.PowerPreference {
	switch p {
	case negotiator.PowerHighPerformance:
		return gputypes.PowerPreferenceHighPerformance
	case negotiator.PowerLowPower:
		return gputypes.PowerPreferenceLowPower
	default:
		return gputypes.PowerPreferenceNone
	}
}
