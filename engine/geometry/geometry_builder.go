package geometry

// GeometryBuilderOption is a functional option for configuring a Geometry via NewGeometry.
type GeometryBuilderOption func(*geometry)

// WithPositions sets the position attribute (3 components per vertex).
//
// Parameters:
//   - positions: flat xyz data
//
// Returns:
//   - GeometryBuilderOption: a function that applies the positions option to a geometry
func WithPositions(positions []float32) GeometryBuilderOption {
	return WithAttribute(AttributePosition, positions, 3)
}

// WithColors sets the per-vertex color attribute (3 components per vertex).
//
// Parameters:
//   - colors: flat rgb data
//
// Returns:
//   - GeometryBuilderOption: a function that applies the colors option to a geometry
func WithColors(colors []float32) GeometryBuilderOption {
	return WithAttribute(AttributeColor, colors, 3)
}

// WithSizes sets the per-vertex point size attribute.
//
// Parameters:
//   - sizes: one size per vertex
//
// Returns:
//   - GeometryBuilderOption: a function that applies the sizes option to a geometry
func WithSizes(sizes []float32) GeometryBuilderOption {
	return WithAttribute(AttributeSize, sizes, 1)
}

// WithAttribute sets an arbitrary named attribute.
//
// Parameters:
//   - name: the attribute name
//   - data: flat component data
//   - itemSize: components per vertex
//
// Returns:
//   - GeometryBuilderOption: a function that applies the attribute option to a geometry
func WithAttribute(name string, data []float32, itemSize int) GeometryBuilderOption {
	return func(g *geometry) {
		g.attributes[name] = Attribute{Data: data, ItemSize: itemSize}
	}
}

// WithIndex sets the index list.
//
// Parameters:
//   - index: the indices
//
// Returns:
//   - GeometryBuilderOption: a function that applies the index option to a geometry
func WithIndex(index []uint32) GeometryBuilderOption {
	return func(g *geometry) {
		g.index = index
	}
}
