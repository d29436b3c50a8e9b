package resource_cache

import (
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
)

// Kind is the closed set of drawable node variants.
type Kind int

const (
	// KindNone marks a node that carries no drawable (groups, empty nodes).
	KindNone Kind = iota
	KindMesh
	KindPoints
	KindLines
	KindLineStrip
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindPoints:
		return "points"
	case KindLines:
		return "lines"
	case KindLineStrip:
		return "line-strip"
	default:
		return "none"
	}
}

// Geometry is the read side of geometry.Geometry the cache consumes.
type Geometry interface {
	VertexCount() int
	Attribute(name string) (geometry.Attribute, bool)
	Index() []uint32
	NeedsUpdate() bool
}

// Material is the read side of material.Material the cache consumes.
type Material interface {
	Color() [3]float32
	PointSize() float32
}

// Drawable is a tagged variant over the drawable node kinds. Every kind produces the
// same interleaved vertex layout; only the topology differs.
type Drawable struct {
	Kind     Kind
	Geometry Geometry
	Material Material

	// Mode selects the triangle topology of a mesh: Triangles, TriangleStrip or TriangleFan.
	// Ignored for other kinds.
	Mode gpu.Topology
}

// Mesh returns a triangle-list mesh drawable.
func Mesh(g Geometry, m Material) Drawable {
	return Drawable{Kind: KindMesh, Geometry: g, Material: m, Mode: gpu.Triangles}
}

// MeshWithMode returns a mesh drawable with an explicit triangle topology.
func MeshWithMode(g Geometry, m Material, mode gpu.Topology) Drawable {
	return Drawable{Kind: KindMesh, Geometry: g, Material: m, Mode: mode}
}

// PointCloud returns a points drawable.
func PointCloud(g Geometry, m Material) Drawable {
	return Drawable{Kind: KindPoints, Geometry: g, Material: m}
}

// LineSegments returns a drawable that pairs vertices into separate lines.
func LineSegments(g Geometry, m Material) Drawable {
	return Drawable{Kind: KindLines, Geometry: g, Material: m}
}

// Line returns a drawable that joins vertices into one connected strip.
func Line(g Geometry, m Material) Drawable {
	return Drawable{Kind: KindLineStrip, Geometry: g, Material: m}
}

// Topology returns the primitive topology the drawable is rasterized with.
func (d Drawable) Topology() gpu.Topology {
	switch d.Kind {
	case KindMesh:
		switch d.Mode {
		case gpu.TriangleStrip, gpu.TriangleFan:
			return d.Mode
		default:
			return gpu.Triangles
		}
	case KindPoints:
		return gpu.Points
	case KindLines:
		return gpu.Lines
	case KindLineStrip:
		return gpu.LineStrip
	default:
		return gpu.Triangles
	}
}

// TriangleEstimate returns the triangle count reported in frame stats for a draw of count
// vertices or indices. Points count one per vertex; lines count none.
//
// Parameters:
//   - t: the draw topology
//   - count: the index count for indexed draws, otherwise the vertex count
//
// Returns:
//   - int: the estimated triangle count
func TriangleEstimate(t gpu.Topology, count int) int {
	switch t {
	case gpu.Triangles:
		return count / 3
	case gpu.TriangleStrip, gpu.TriangleFan:
		return max(0, count-2)
	case gpu.Points:
		return count
	default:
		return 0
	}
}
