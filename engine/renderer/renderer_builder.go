package renderer

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger installs l as the logger shared by the renderer and its sub-packages.
//
// Parameters:
//   - l: the logger, or nil to silence logging
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(l *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		common.SetLogger(l)
	}
}

// WithDefaultClearColor sets the clear color used for scenes without a background.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithDefaultClearColor(c common.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.defaultClear = c
	}
}

// WithUploadPolicy sets when cached geometry is re-uploaded. The default,
// resource_cache.UploadAlways, re-uploads every visited object every frame.
//
// Parameters:
//   - p: the upload policy
//
// Returns:
//   - RendererBuilderOption: a function that applies the upload policy option to a renderer
func WithUploadPolicy(p resource_cache.UploadPolicy) RendererBuilderOption {
	return func(r *renderer) {
		r.uploadPolicy = p
	}
}

// WithProfiler feeds every rendered frame to p.
//
// Parameters:
//   - p: the profiler to tick once per frame
//
// Returns:
//   - RendererBuilderOption: a function that applies the profiler option to a renderer
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}

// WithClock replaces the wall clock used for frame timing.
//
// Parameters:
//   - now: the clock function
//
// Returns:
//   - RendererBuilderOption: a function that applies the clock option to a renderer
func WithClock(now func() time.Time) RendererBuilderOption {
	return func(r *renderer) {
		if now != nil {
			r.now = now
		}
	}
}
