//go:build js && wasm

// Package webgl implements gpu.Context on a browser canvas through syscall/js.
package webgl

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
)

// Context names, in negotiation order.
const (
	VariantWebGL2       = "webgl2"
	VariantWebGL        = "webgl"
	VariantExperimental = "experimental-webgl"
)

// SurfaceKind is reported in negotiation errors.
const SurfaceKind = "canvas"

type surface struct {
	canvas js.Value
}

var _ negotiator.Surface = &surface{}

// NewSurface returns a negotiation surface over an HTML canvas element.
//
// Parameters:
//   - canvas: the canvas element to request contexts from
//
// Returns:
//   - negotiator.Surface: the surface
func NewSurface(canvas js.Value) negotiator.Surface {
	return &surface{canvas: canvas}
}

func (s *surface) Kind() string { return SurfaceKind }

func (s *surface) Ladder() negotiator.Ladder {
	return negotiator.Ladder{
		High:   negotiator.API{Name: VariantWebGL2},
		Low:    negotiator.API{Name: VariantWebGL},
		Legacy: &negotiator.API{Name: VariantExperimental},
	}
}

func (s *surface) Create(candidate negotiator.Candidate) (gpu.Context, error) {
	if s.canvas.IsUndefined() || s.canvas.IsNull() {
		return nil, errors.New("no canvas")
	}
	gl := s.canvas.Call("getContext", candidate.API.Name, contextAttributes(candidate.Attributes))
	if gl.IsUndefined() || gl.IsNull() {
		return nil, fmt.Errorf("getContext(%q) returned null", candidate.API.Name)
	}
	if gl.Call("isContextLost").Bool() {
		return nil, fmt.Errorf("%s context lost on creation", candidate.API.Name)
	}
	c := newContext(s.canvas, gl, candidate.API.Name, candidate.Attributes.Depth)
	common.Logger().Debug("WebGL context created", "variant", c.variant,
		"version", gl.Call("getParameter", gl.Get("VERSION")).String())
	return c, nil
}
