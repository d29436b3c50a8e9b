// Package capability reads the limits and optional features of a graphics context into
// a plain Descriptor.
package capability

import (
	"fmt"
	"slices"
	"sort"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
)

// Defaults used when a limit cannot be read. They are the minimums every conforming
// WebGL 1 implementation guarantees.
const (
	DefaultMaxTextureSize          = 2048
	DefaultMaxVertexAttributes     = 8
	DefaultMaxVertexUniformVectors = 128
	DefaultMaxSamples              = 1
	DefaultMaxDrawBuffers          = 1
)

// Descriptor is an immutable snapshot of what a context can do.
type Descriptor struct {
	Backend gpu.Backend
	Variant string

	MaxTextureSize          int
	MaxVertexAttributes     int
	MaxVertexUniformVectors int
	MaxSamples              int
	MaxDrawBuffers          int

	TextureFormats []string
	DepthFormats   []string
	Extensions     []string

	Uint32Indices         bool
	Instancing            bool
	MultipleRenderTargets bool
	Compute               bool
	AnisotropicFiltering  bool
}

// Clone returns a deep copy of d.
func (d Descriptor) Clone() Descriptor {
	d.TextureFormats = slices.Clone(d.TextureFormats)
	d.DepthFormats = slices.Clone(d.DepthFormats)
	d.Extensions = slices.Clone(d.Extensions)
	return d
}

// HasExtension reports whether the driver advertised name.
func (d Descriptor) HasExtension(name string) bool {
	i := sort.SearchStrings(d.Extensions, name)
	return i < len(d.Extensions) && d.Extensions[i] == name
}

// Probe reads every limit and feature of ctx. It never fails: a query that errors or
// panics yields the default for that field and is logged at warn level. Probing the same
// context twice yields equal descriptors.
//
// Parameters:
//   - ctx: the context to inspect
//
// Returns:
//   - Descriptor: the capabilities of ctx
func Probe(ctx gpu.Context) Descriptor {
	d := Descriptor{
		Backend: ctx.Backend(),
		Variant: ctx.Variant(),
	}

	d.MaxTextureSize = queryInt(ctx, gpu.ParamMaxTextureSize, DefaultMaxTextureSize)
	d.MaxVertexAttributes = queryInt(ctx, gpu.ParamMaxVertexAttributes, DefaultMaxVertexAttributes)
	d.MaxVertexUniformVectors = queryInt(ctx, gpu.ParamMaxVertexUniformVectors, DefaultMaxVertexUniformVectors)
	d.MaxSamples = queryInt(ctx, gpu.ParamMaxSamples, DefaultMaxSamples)
	d.MaxDrawBuffers = queryInt(ctx, gpu.ParamMaxDrawBuffers, DefaultMaxDrawBuffers)

	d.Uint32Indices = queryFeature(ctx, gpu.FeatureUint32Indices)
	d.Instancing = queryFeature(ctx, gpu.FeatureInstancing)
	d.MultipleRenderTargets = queryFeature(ctx, gpu.FeatureMultipleRenderTargets)
	d.Compute = queryFeature(ctx, gpu.FeatureCompute)
	d.AnisotropicFiltering = queryFeature(ctx, gpu.FeatureAnisotropicFiltering)

	d.Extensions = queryExtensions(ctx)
	d.TextureFormats, d.DepthFormats = queryFormats(ctx)

	return d
}

func queryInt(ctx gpu.Context, p gpu.Param, def int) (v int) {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Warn("capability query panicked", "param", int(p), "panic", fmt.Sprint(r))
			v = def
		}
	}()
	n, err := ctx.QueryInt(p)
	if err != nil || n <= 0 {
		if err != nil {
			common.Logger().Warn("capability query failed, using default", "param", int(p), "default", def, "err", err)
		}
		return def
	}
	return n
}

func queryFeature(ctx gpu.Context, f gpu.Feature) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Warn("feature query panicked", "feature", int(f), "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	ok, err := ctx.QueryFeature(f)
	if err != nil {
		return false
	}
	return ok
}

func queryExtensions(ctx gpu.Context) (out []string) {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Warn("extension query panicked", "panic", fmt.Sprint(r))
			out = nil
		}
	}()
	exts, err := ctx.Extensions()
	if err != nil {
		return nil
	}
	out = slices.Clone(exts)
	sort.Strings(out)
	return slices.Compact(out)
}

func queryFormats(ctx gpu.Context) (color, depth []string) {
	defer func() {
		if r := recover(); r != nil {
			color, depth = nil, nil
		}
	}()
	c, d := ctx.TextureFormats()
	return slices.Clone(c), slices.Clone(d)
}
