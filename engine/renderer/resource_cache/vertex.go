package resource_cache

import (
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
)

// Interleaved vertex layout shared by every drawable kind: position xyz, color rgb, size.
const (
	FloatsPerVertex = 7
	VertexStride    = FloatsPerVertex * 4

	positionOffset = 0
	colorOffset    = 3 * 4
	sizeOffset     = 6 * 4
)

// Layout returns the vertex layout for the given shader input locations. A negative
// location disables that input.
//
// Parameters:
//   - position, color, size: attribute locations resolved from the program
//
// Returns:
//   - gpu.VertexLayout: the interleaved layout
func Layout(position, color, size int) gpu.VertexLayout {
	return gpu.VertexLayout{
		Stride: VertexStride,
		Attributes: []gpu.VertexAttribute{
			{Location: position, Components: 3, Offset: positionOffset},
			{Location: color, Components: 3, Offset: colorOffset},
			{Location: size, Components: 1, Offset: sizeOffset},
		},
	}
}

// Linearize appends the interleaved vertex block of g to dst[:0] and returns it. Attribute
// data is copied; the result never aliases caller-owned arrays.
//
// Color comes from the "color" attribute when it has at least 3 components per vertex,
// otherwise from the material. Size comes from the "size" attribute, otherwise from the
// material's point size, otherwise 1.
//
// Parameters:
//   - dst: scratch storage to reuse, may be nil
//   - g: the geometry to read
//   - m: the material, may be nil
//
// Returns:
//   - []float32: VertexCount()*FloatsPerVertex floats
func Linearize(dst []float32, g Geometry, m Material) []float32 {
	n := g.VertexCount()
	dst = dst[:0]
	if n == 0 {
		return dst
	}

	pos, _ := g.Attribute(geometry.AttributePosition)
	col, hasColor := g.Attribute(geometry.AttributeColor)
	hasColor = hasColor && col.ItemSize >= 3 && col.Count() >= n
	size, hasSize := g.Attribute(geometry.AttributeSize)
	hasSize = hasSize && size.ItemSize >= 1 && size.Count() >= n

	flat := [3]float32{1, 1, 1}
	pointSize := float32(1)
	if m != nil {
		flat = m.Color()
		if ps := m.PointSize(); ps > 0 {
			pointSize = ps
		}
	}

	for i := range n {
		p := pos.Data[i*pos.ItemSize:]
		var x, y, z float32
		x = p[0]
		if pos.ItemSize > 1 {
			y = p[1]
		}
		if pos.ItemSize > 2 {
			z = p[2]
		}
		dst = append(dst, x, y, z)

		if hasColor {
			c := col.Data[i*col.ItemSize:]
			dst = append(dst, c[0], c[1], c[2])
		} else {
			dst = append(dst, flat[0], flat[1], flat[2])
		}

		if hasSize {
			dst = append(dst, size.Data[i*size.ItemSize])
		} else {
			dst = append(dst, pointSize)
		}
	}
	return dst
}
