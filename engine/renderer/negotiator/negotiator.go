// Package negotiator acquires a graphics context for a surface by trying an ordered list
// of API variants and attribute sets until one succeeds.
package negotiator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
)

// PowerPreference hints which adapter or GPU a surface should pick.
type PowerPreference string

const (
	PowerDefault         PowerPreference = ""
	PowerHighPerformance PowerPreference = "high-performance"
	PowerLowPower        PowerPreference = "low-power"
)

// Attributes are the context creation attributes of one attempt.
type Attributes struct {
	SampleCount     int
	PowerPreference PowerPreference
	Antialias       bool
	Depth           bool
}

// DefaultAttributes are what every surface must accept when the preferred set is refused.
func DefaultAttributes() Attributes {
	return Attributes{SampleCount: 1, Depth: true}
}

// API names one context variant of a surface, e.g. "webgl2" or "opengl-3.3-core".
type API struct {
	Name string
}

// Ladder is the ordered set of API variants a surface offers. Legacy is optional.
type Ladder struct {
	High   API
	Low    API
	Legacy *API
}

// Candidate is one context creation attempt.
type Candidate struct {
	API        API
	Attributes Attributes
	// Preferred is true when Attributes are the caller's preferred set.
	Preferred bool
}

func (c Candidate) String() string {
	if c.Preferred {
		return c.API.Name + " (preferred attributes)"
	}
	return c.API.Name + " (default attributes)"
}

// Surface is a presentable target that can create contexts of the variants in its ladder.
type Surface interface {
	// Kind names the surface type for diagnostics, e.g. "glfw-window" or "html-canvas".
	Kind() string
	// Ladder returns the API variants in priority order.
	Ladder() Ladder
	// Create tries to build a context for c. Implementations may panic; Acquire recovers.
	Create(c Candidate) (gpu.Context, error)
}

// Plan returns the strict attempt order for ladder: high API with preferred attributes,
// high API with defaults, low API with preferred, low API with defaults, then the legacy
// alias with defaults. When preferred equals the defaults the duplicate attempt is dropped.
//
// Parameters:
//   - ladder: the surface's API variants
//   - preferred: the caller's preferred attributes
//
// Returns:
//   - []Candidate: attempts in priority order
func Plan(ladder Ladder, preferred Attributes) []Candidate {
	defaults := DefaultAttributes()
	var out []Candidate
	for _, api := range []API{ladder.High, ladder.Low} {
		if api.Name == "" {
			continue
		}
		out = append(out, Candidate{API: api, Attributes: preferred, Preferred: true})
		if preferred != defaults {
			out = append(out, Candidate{API: api, Attributes: defaults})
		}
	}
	if ladder.Legacy != nil && ladder.Legacy.Name != "" {
		out = append(out, Candidate{API: *ladder.Legacy, Attributes: defaults})
	}
	return out
}

// Attempt records why one candidate was refused.
type Attempt struct {
	Candidate Candidate
	Err       error
}

// NegotiationError is returned when no candidate produced a context.
type NegotiationError struct {
	Surface  string
	Attempts []Attempt
}

func (e *NegotiationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no graphics context available for surface %q", e.Surface)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Candidate, a.Err)
	}
	return b.String()
}

// Unwrap exposes every attempt error to errors.Is and errors.As.
func (e *NegotiationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Result is a successfully negotiated context and the candidate that produced it.
type Result struct {
	Context   gpu.Context
	Candidate Candidate
}

// ErrNoContext is reported for an attempt that returned neither a context nor an error.
var ErrNoContext = errors.New("surface returned no context")

// Acquire tries every candidate of Plan(surface.Ladder(), preferred) in order and returns
// the first context obtained. Errors and panics from the surface advance to the next
// candidate. A context returned alongside an error is destroyed before moving on, so no
// partial context survives a failed negotiation.
//
// Parameters:
//   - surface: the target surface
//   - preferred: the caller's preferred attributes
//
// Returns:
//   - Result: the live context and the winning candidate
//   - error: a *NegotiationError when every candidate failed
func Acquire(surface Surface, preferred Attributes) (Result, error) {
	candidates := Plan(surface.Ladder(), preferred)
	attempts := make([]Attempt, 0, len(candidates))

	for _, c := range candidates {
		ctx, err := try(surface, c)
		if err == nil {
			common.Logger().Info("graphics context acquired",
				"surface", surface.Kind(), "variant", ctx.Variant(), "preferred", c.Preferred)
			return Result{Context: ctx, Candidate: c}, nil
		}
		common.Logger().Warn("graphics context candidate rejected",
			"surface", surface.Kind(), "candidate", c.String(), "err", err)
		attempts = append(attempts, Attempt{Candidate: c, Err: err})
	}
	return Result{}, &NegotiationError{Surface: surface.Kind(), Attempts: attempts}
}

func try(surface Surface, c Candidate) (ctx gpu.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ctx != nil {
				destroy(ctx)
			}
			ctx, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	ctx, err = surface.Create(c)
	if err != nil {
		if ctx != nil {
			destroy(ctx)
		}
		return nil, err
	}
	if ctx == nil {
		return nil, ErrNoContext
	}
	return ctx, nil
}

func destroy(ctx gpu.Context) {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Warn("destroying rejected context panicked", "panic", fmt.Sprint(r))
		}
	}()
	ctx.Destroy()
}
