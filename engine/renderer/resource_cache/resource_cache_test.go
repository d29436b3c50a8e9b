package resource_cache

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

func indexedGeometry(vertices int, index []uint32) geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithPositions(make([]float32, vertices*3)),
		geometry.WithIndex(index),
	)
}

func TestEnsureSkipsEmptyGeometry(t *testing.T) {
	ctx := gputest.New()
	c := New(ctx, true)

	for _, d := range []Drawable{
		Mesh(geometry.NewGeometry(), nil),
		{Kind: KindNone, Geometry: geometry.Triangle()},
	} {
		e, ok, err := c.Ensure(1, d)
		if err != nil || ok || e != nil {
			t.Fatalf("Ensure = %v, %v, %v; want skip", e, ok, err)
		}
	}
	if ctx.LiveBuffers() != 0 || c.Len() != 0 {
		t.Fatalf("skip created state: %d buffers, %d entries", ctx.LiveBuffers(), c.Len())
	}
}

func TestSingleTriangleEntry(t *testing.T) {
	ctx := gputest.New()
	c := New(ctx, true)

	e, ok, err := c.Ensure(7, Mesh(geometry.Triangle(), material.NewMaterial()))
	if err != nil || !ok {
		t.Fatalf("Ensure: ok=%v err=%v", ok, err)
	}
	if e.VertexBytes != 84 {
		t.Errorf("VertexBytes = %d, want 84", e.VertexBytes)
	}
	if e.Triangles != 1 || e.HasIndex || e.DrawCount() != 3 {
		t.Errorf("entry = %+v", e)
	}
	if got := c.BufferBytes(); got != 84 {
		t.Errorf("BufferBytes = %d, want 84", got)
	}
}

func TestIndexWidthSelection(t *testing.T) {
	t.Run("small mesh uses 16-bit", func(t *testing.T) {
		ctx := gputest.New()
		c := New(ctx, true)
		e, _, err := c.Ensure(1, Mesh(indexedGeometry(65535, []uint32{0, 1, 65534}), nil))
		if err != nil {
			t.Fatal(err)
		}
		if e.IndexFormat != gpu.IndexUint16 || e.IndexBytes != 6 {
			t.Fatalf("format %v bytes %d, want uint16 and 6", e.IndexFormat, e.IndexBytes)
		}
		data := ctx.BufferData(e.IndexBuffer)
		if binary.LittleEndian.Uint16(data[4:]) != 65534 {
			t.Fatalf("index data = %v", data)
		}
	})

	t.Run("restart value moves to 32-bit when supported", func(t *testing.T) {
		ctx := gputest.New()
		c := New(ctx, true)
		e, _, err := c.Ensure(1, MeshWithMode(indexedGeometry(65536, []uint32{0, 1, 65535}), nil, gpu.TriangleStrip))
		if err != nil {
			t.Fatal(err)
		}
		if e.IndexFormat != gpu.IndexUint32 || e.IndexBytes != 12 {
			t.Fatalf("format %v bytes %d, want uint32 and 12", e.IndexFormat, e.IndexBytes)
		}
		data := ctx.BufferData(e.IndexBuffer)
		if binary.LittleEndian.Uint32(data[8:]) != 65535 {
			t.Fatalf("index data = %v", data)
		}
	})

	t.Run("restart value stays 16-bit without 32-bit support", func(t *testing.T) {
		ctx := gputest.New()
		c := New(ctx, false)
		e, _, err := c.Ensure(1, Mesh(indexedGeometry(65536, []uint32{0, 1, 65535}), nil))
		if err != nil {
			t.Fatal(err)
		}
		if e.IndexFormat != gpu.IndexUint16 || e.IndexBytes != 6 {
			t.Fatalf("format %v bytes %d, want uint16 and 6", e.IndexFormat, e.IndexBytes)
		}
	})

	t.Run("large index uses 32-bit when supported", func(t *testing.T) {
		ctx := gputest.New()
		c := New(ctx, true)
		e, ok, err := c.Ensure(1, Mesh(indexedGeometry(70000, []uint32{0, 1, 69999}), nil))
		if err != nil || !ok {
			t.Fatalf("Ensure: ok=%v err=%v", ok, err)
		}
		if e.IndexFormat != gpu.IndexUint32 || e.IndexBytes != 12 {
			t.Fatalf("format %v bytes %d, want uint32 and 12", e.IndexFormat, e.IndexBytes)
		}
	})

	t.Run("large index without 32-bit support is fatal", func(t *testing.T) {
		ctx := gputest.New()
		c := New(ctx, false)
		_, ok, err := c.Ensure(42, Mesh(indexedGeometry(70000, []uint32{0, 1, 69999}), nil))
		if ok {
			t.Fatal("expected object to be rejected")
		}
		var iw *IndexWidthError
		if !errors.As(err, &iw) || iw.ObjectID != 42 || iw.MaxIndex != 69999 {
			t.Fatalf("err = %v, want IndexWidthError for object 42", err)
		}
		if !errors.Is(err, ErrIndexOverflow) {
			t.Error("error should match ErrIndexOverflow")
		}
		if ctx.LiveBuffers() != 0 {
			t.Errorf("rejected object allocated %d buffers", ctx.LiveBuffers())
		}
	})
}

func TestTriangleEstimate(t *testing.T) {
	cases := []struct {
		topology gpu.Topology
		count    int
		want     int
	}{
		{gpu.Triangles, 300, 100},
		{gpu.TriangleStrip, 10, 8},
		{gpu.TriangleFan, 10, 8},
		{gpu.TriangleStrip, 1, 0},
		{gpu.Points, 50, 50},
		{gpu.Lines, 50, 0},
		{gpu.LineStrip, 50, 0},
	}
	for _, tc := range cases {
		if got := TriangleEstimate(tc.topology, tc.count); got != tc.want {
			t.Errorf("TriangleEstimate(%v, %d) = %d, want %d", tc.topology, tc.count, got, tc.want)
		}
	}
}

func TestEnsureReusesHandles(t *testing.T) {
	ctx := gputest.New()
	c := New(ctx, true)
	d := Mesh(geometry.Cube(), nil)

	first, _, _ := c.Ensure(3, d)
	vb, ib := first.VertexBuffer, first.IndexBuffer
	uploads := ctx.Uploads

	second, _, err := c.Ensure(3, d)
	if err != nil {
		t.Fatal(err)
	}
	if second.VertexBuffer != vb || second.IndexBuffer != ib {
		t.Fatalf("handles changed: %d/%d -> %d/%d", vb, ib, second.VertexBuffer, second.IndexBuffer)
	}
	if ctx.Uploads != uploads+2 {
		t.Errorf("UploadAlways should re-upload both buffers, uploads %d -> %d", uploads, ctx.Uploads)
	}
	if ctx.LiveBuffers() != 2 {
		t.Errorf("LiveBuffers = %d, want 2", ctx.LiveBuffers())
	}
}

func TestUploadOnChangeSkipsCleanGeometry(t *testing.T) {
	ctx := gputest.New()
	c := New(ctx, true, WithUploadPolicy(UploadOnChange))
	g := geometry.Triangle()

	if _, _, err := c.Ensure(1, Mesh(g, nil)); err != nil {
		t.Fatal(err)
	}
	g.ClearNeedsUpdate()
	uploads := ctx.Uploads

	if _, _, err := c.Ensure(1, Mesh(g, nil)); err != nil {
		t.Fatal(err)
	}
	if ctx.Uploads != uploads {
		t.Fatalf("clean geometry re-uploaded")
	}

	g.MarkNeedsUpdate()
	if _, _, err := c.Ensure(1, Mesh(g, nil)); err != nil {
		t.Fatal(err)
	}
	if ctx.Uploads != uploads+1 {
		t.Fatalf("dirty geometry not re-uploaded")
	}
}

func TestRemovingIndexFreesIndexBuffer(t *testing.T) {
	ctx := gputest.New()
	c := New(ctx, true)
	g := geometry.Cube()

	c.Ensure(1, Mesh(g, nil))
	g.SetIndex(nil)
	e, _, err := c.Ensure(1, Mesh(g, nil))
	if err != nil {
		t.Fatal(err)
	}
	if e.HasIndex || ctx.LiveBuffers() != 1 {
		t.Fatalf("index buffer not released: entry %+v, %d live", e, ctx.LiveBuffers())
	}
}

func TestSweep(t *testing.T) {
	ctx := gputest.New()
	c := New(ctx, true)
	for id := uint64(1); id <= 3; id++ {
		c.Ensure(id, Mesh(geometry.Cube(), nil))
	}

	if n := c.Sweep(map[uint64]struct{}{2: {}}); n != 2 {
		t.Errorf("evicted %d, want 2", n)
	}
	if _, ok := c.Entry(2); !ok || c.Len() != 1 {
		t.Fatalf("visited entry evicted")
	}

	c.Sweep(map[uint64]struct{}{})
	if c.Len() != 0 || ctx.LiveBuffers() != 0 {
		t.Fatalf("after empty sweep: %d entries, %d buffers", c.Len(), ctx.LiveBuffers())
	}
}

func TestDispose(t *testing.T) {
	ctx := gputest.New()
	c := New(ctx, true)
	c.Ensure(1, PointCloud(geometry.Grid(4, 1), nil))
	c.Dispose()
	if c.Len() != 0 || ctx.LiveBuffers() != 0 {
		t.Fatalf("Dispose left %d entries, %d buffers", c.Len(), ctx.LiveBuffers())
	}
}

func TestLinearizeLayout(t *testing.T) {
	m := material.NewMaterial(material.WithColor(common.RGB(0.2, 0.4, 0.6)), material.WithPointSize(5))

	t.Run("material fallback", func(t *testing.T) {
		g := geometry.NewGeometry(geometry.WithPositions([]float32{1, 2, 3}))
		got := Linearize(nil, g, m)
		want := []float32{1, 2, 3, 0.2, 0.4, 0.6, 5}
		assertFloats(t, got, want)
	})

	t.Run("vertex attributes win", func(t *testing.T) {
		g := geometry.NewGeometry(
			geometry.WithPositions([]float32{1, 2, 3}),
			geometry.WithAttribute(geometry.AttributeColor, []float32{0.1, 0.2, 0.3, 1}, 4),
			geometry.WithSizes([]float32{9}),
		)
		assertFloats(t, Linearize(nil, g, m), []float32{1, 2, 3, 0.1, 0.2, 0.3, 9})
	})

	t.Run("narrow color falls back", func(t *testing.T) {
		g := geometry.NewGeometry(
			geometry.WithPositions([]float32{1, 2, 3}),
			geometry.WithAttribute(geometry.AttributeColor, []float32{0.5, 0.5}, 2),
		)
		assertFloats(t, Linearize(nil, g, nil), []float32{1, 2, 3, 1, 1, 1, 1})
	})

	t.Run("copies source data", func(t *testing.T) {
		src := []float32{1, 2, 3}
		g := geometry.NewGeometry(geometry.WithPositions(src))
		out := Linearize(nil, g, nil)
		src[0] = 99
		if out[0] != 1 {
			t.Fatal("linearized block aliases the position attribute")
		}
	})
}

func TestDrawableTopology(t *testing.T) {
	g := geometry.Triangle()
	cases := map[gpu.Topology]Drawable{
		gpu.Triangles:     Mesh(g, nil),
		gpu.TriangleStrip: MeshWithMode(g, nil, gpu.TriangleStrip),
		gpu.Points:        PointCloud(g, nil),
		gpu.Lines:         LineSegments(g, nil),
		gpu.LineStrip:     Line(g, nil),
	}
	for want, d := range cases {
		if got := d.Topology(); got != want {
			t.Errorf("%s topology = %v, want %v", d.Kind, got, want)
		}
	}
	if got := MeshWithMode(g, nil, gpu.Points).Topology(); got != gpu.Triangles {
		t.Errorf("mesh with non-triangle mode = %v, want triangles", got)
	}
}

func assertFloats(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
