package material

import "github.com/Carmen-Shannon/oxy-render/common"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithColor is an option builder that sets the flat color of the material.
//
// Parameters:
//   - c: the flat color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color option to a material
func WithColor(c common.Color) MaterialBuilderOption {
	return func(m *material) {
		m.color = c
	}
}

// WithPointSize is an option builder that sets the default point size. Non-positive
// sizes are ignored.
//
// Parameters:
//   - size: the point size in pixels
//
// Returns:
//   - MaterialBuilderOption: a function that applies the point size option to a material
func WithPointSize(size float32) MaterialBuilderOption {
	return func(m *material) {
		if size > 0 {
			m.pointSize = size
		}
	}
}
