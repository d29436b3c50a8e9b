// Package opengl implements gpu.Context on desktop OpenGL through go-gl, presenting to a
// GLFW window.
package opengl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
	"github.com/go-gl/gl/v3.3-core/gl"
)

// Context variants, in negotiation order.
const (
	VariantGL41Core   = "opengl-4.1-core"
	VariantGL33Core   = "opengl-3.3-core"
	VariantGL33Compat = "opengl-3.3-compat"
)

// SurfaceKind is reported in negotiation errors.
const SurfaceKind = "glfw-window"

type surface struct {
	window window.Window
	vsync  bool
	// driver reads the freshly opened context; replaced in tests.
	driver func() (driverInfo, error)
}

// driverInfo is what the driver reports for a current context.
type driverInfo struct {
	version  string
	renderer string
	samples  int
}

var _ negotiator.Surface = &surface{}

// NewSurface returns a negotiation surface that opens w with an OpenGL context per candidate.
// The window is reopened for every attempt, so it must not be open for another API.
//
// Parameters:
//   - w: the window to draw into
//   - vsync: wait for vertical blank on present
//
// Returns:
//   - negotiator.Surface: the surface
func NewSurface(w window.Window, vsync bool) negotiator.Surface {
	return &surface{window: w, vsync: vsync, driver: glDriverInfo}
}

// glDriverInfo loads the GL entry points for the current context and reads its identity.
func glDriverInfo() (driverInfo, error) {
	if err := gl.Init(); err != nil {
		return driverInfo{}, fmt.Errorf("load OpenGL: %w", err)
	}
	var samples int32
	gl.GetIntegerv(gl.SAMPLES, &samples)
	return driverInfo{
		version:  gl.GoStr(gl.GetString(gl.VERSION)),
		renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		samples:  int(samples),
	}, nil
}

func (s *surface) Kind() string { return SurfaceKind }

func (s *surface) Ladder() negotiator.Ladder {
	return negotiator.Ladder{
		High:   negotiator.API{Name: VariantGL41Core},
		Low:    negotiator.API{Name: VariantGL33Core},
		Legacy: &negotiator.API{Name: VariantGL33Compat},
	}
}

// candidateHints maps a negotiation candidate onto window hints.
func candidateHints(c negotiator.Candidate) (window.Hints, error) {
	h := window.Hints{
		ClientAPI: window.ClientOpenGL,
		Samples:   c.Attributes.SampleCount,
		Depth:     c.Attributes.Depth,
		Resizable: true,
	}
	switch c.API.Name {
	case VariantGL41Core:
		h.Major, h.Minor, h.Core = 4, 1, true
	case VariantGL33Core:
		h.Major, h.Minor, h.Core = 3, 3, true
	case VariantGL33Compat:
		h.Major, h.Minor = 3, 3
	default:
		return h, fmt.Errorf("unknown OpenGL variant %q", c.API.Name)
	}
	return h, nil
}

// parseVersion reads the leading "major.minor" of a GL_VERSION string such as
// "4.1 Metal - 76.3" or "3.3.0 NVIDIA 535.54".
func parseVersion(s string) (major, minor int, ok bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, 0, false
	}
	parts := strings.SplitN(fields[0], ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	var err error
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, false
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// Create opens the window for candidate, loads the GL entry points and checks that the
// driver honored the requested version and sample count. The window is closed again on any
// failure after it opened, so a rejected candidate leaves no context behind.
func (s *surface) Create(candidate negotiator.Candidate) (gpu.Context, error) {
	hints, err := candidateHints(candidate)
	if err != nil {
		return nil, err
	}
	if err := s.window.Open(hints); err != nil {
		return nil, err
	}
	s.window.MakeContextCurrent()

	info, err := s.driver()
	if err == nil {
		err = checkDriver(hints, info)
	}
	if err != nil {
		if cerr := s.window.Close(); cerr != nil {
			common.Logger().Warn("closing rejected OpenGL window failed", "variant", candidate.API.Name, "err", cerr)
		}
		return nil, err
	}

	major, minor, _ := parseVersion(info.version)
	samples := 1
	if hints.Samples > 1 {
		samples = info.samples
	}
	interval := 0
	if s.vsync {
		interval = 1
	}
	s.window.SetSwapInterval(interval)

	c := newContext(s.window, candidate.API.Name, major, minor, samples, hints.Depth)
	common.Logger().Debug("OpenGL context created", "variant", c.variant, "version", info.version,
		"renderer", info.renderer, "samples", samples)
	return c, nil
}

// checkDriver rejects a context whose version or sample count is below what hints asked for.
func checkDriver(hints window.Hints, info driverInfo) error {
	major, minor, ok := parseVersion(info.version)
	if !ok {
		return fmt.Errorf("unreadable GL_VERSION %q", info.version)
	}
	if major < hints.Major || (major == hints.Major && minor < hints.Minor) {
		return fmt.Errorf("driver returned OpenGL %d.%d", major, minor)
	}
	if hints.Samples > 1 && info.samples < hints.Samples {
		return fmt.Errorf("%d samples requested, framebuffer has %d", hints.Samples, info.samples)
	}
	return nil
}
