package capability

import (
	"reflect"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu/gputest"
)

func TestProbeReadsContext(t *testing.T) {
	ctx := gputest.New()
	ctx.ExtensionList = []string{"OES_vertex_array_object", "EXT_color_buffer_float", "OES_vertex_array_object"}

	d := Probe(ctx)

	if d.MaxTextureSize != 4096 {
		t.Errorf("MaxTextureSize = %d, want 4096", d.MaxTextureSize)
	}
	if !d.Uint32Indices || !d.Instancing {
		t.Errorf("expected uint32 indices and instancing, got %+v", d)
	}
	if d.Compute {
		t.Error("Compute should default to false when absent")
	}
	want := []string{"EXT_color_buffer_float", "OES_vertex_array_object"}
	if !reflect.DeepEqual(d.Extensions, want) {
		t.Errorf("Extensions = %v, want %v", d.Extensions, want)
	}
	if !d.HasExtension("EXT_color_buffer_float") || d.HasExtension("WEBGL_draw_buffers") {
		t.Error("HasExtension mismatch")
	}
	if d.Variant != "webgl2" || d.Backend != gpu.BackendWebGL {
		t.Errorf("identity = %s/%s", d.Backend, d.Variant)
	}
}

func TestProbeFallsBackToDefaults(t *testing.T) {
	ctx := gputest.New()
	ctx.Ints = map[gpu.Param]int{gpu.ParamMaxTextureSize: 0}
	ctx.Features = nil

	d := Probe(ctx)

	if d.MaxTextureSize != DefaultMaxTextureSize {
		t.Errorf("MaxTextureSize = %d, want default %d", d.MaxTextureSize, DefaultMaxTextureSize)
	}
	if d.MaxVertexAttributes != DefaultMaxVertexAttributes {
		t.Errorf("MaxVertexAttributes = %d, want default %d", d.MaxVertexAttributes, DefaultMaxVertexAttributes)
	}
	if d.Uint32Indices {
		t.Error("Uint32Indices should be false when the feature is absent")
	}
}

func TestProbeNeverPanics(t *testing.T) {
	ctx := gputest.New()
	ctx.PanicOnQuery = true

	d := Probe(ctx)

	if d.MaxSamples != DefaultMaxSamples || d.MaxDrawBuffers != DefaultMaxDrawBuffers {
		t.Errorf("expected defaults after panicking queries, got %+v", d)
	}
	if d.Extensions != nil {
		t.Errorf("Extensions = %v, want nil", d.Extensions)
	}
}

func TestProbeIsIdempotent(t *testing.T) {
	ctx := gputest.New()
	ctx.ExtensionList = []string{"b", "a"}
	first := Probe(ctx)
	second := Probe(ctx)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("probe results differ:\n%+v\n%+v", first, second)
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := Descriptor{Extensions: []string{"a"}}
	c := d.Clone()
	c.Extensions[0] = "z"
	if d.Extensions[0] != "a" {
		t.Fatal("Clone shares the extension slice")
	}
}
