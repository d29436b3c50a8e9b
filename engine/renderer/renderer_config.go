package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. 1 (off) and 4 are supported
// everywhere; higher values (8, 16) are adapter-dependent and may be refused, in which case
// context negotiation falls back to default attributes.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// Config holds the context creation settings passed to Renderer.Initialize.
type Config struct {
	// SampleCount is the preferred MSAA sample count.
	SampleCount MSAASampleCount

	// PowerPreference hints which GPU to use: high-performance or low-power.
	PowerPreference negotiator.PowerPreference

	// Antialias requests an antialiased default framebuffer where the backend distinguishes
	// it from SampleCount (browser contexts).
	Antialias bool
}

// DefaultConfig returns MSAA4x on a high-performance adapter with antialiasing.
func DefaultConfig() Config {
	return Config{
		SampleCount:     MSAA4x,
		PowerPreference: negotiator.PowerHighPerformance,
		Antialias:       true,
	}
}

// Validate rejects sample counts and power preferences the renderer does not know.
//
// Returns:
//   - error: a description of the first invalid field, or nil
func (c Config) Validate() error {
	switch c.SampleCount {
	case MSAAOff, MSAA4x, MSAA8x, MSAA16x:
	default:
		return fmt.Errorf("invalid MSAA sample count %d", c.SampleCount)
	}
	switch c.PowerPreference {
	case negotiator.PowerDefault, negotiator.PowerHighPerformance, negotiator.PowerLowPower:
	default:
		return fmt.Errorf("invalid power preference %q", c.PowerPreference)
	}
	return nil
}

func (c Config) attributes() negotiator.Attributes {
	return negotiator.Attributes{
		SampleCount:     int(c.SampleCount),
		PowerPreference: c.PowerPreference,
		Antialias:       c.Antialias,
		Depth:           true,
	}
}
