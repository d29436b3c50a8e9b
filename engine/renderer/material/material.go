package material

import "github.com/Carmen-Shannon/oxy-render/common"

// material is the implementation of the Material interface.
type material struct {
	name      string
	color     common.Color
	pointSize float32
}

// Material defines the render parameters the resource cache reads when a geometry
// carries no per-vertex color or size.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Color retrieves the flat RGB color applied to vertices without a color attribute.
	//
	// Returns:
	//   - [3]float32: the flat color
	Color() [3]float32

	// PointSize retrieves the size applied to vertices without a size attribute.
	//
	// Returns:
	//   - float32: the point size in pixels
	PointSize() float32

	// SetColor replaces the flat color.
	//
	// Parameters:
	//   - c: the new color, alpha is ignored
	SetColor(c common.Color)
}

var _ Material = &material{}

// NewMaterial creates a white Material with a point size of 1.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Material: the new material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		color:     common.RGB(1, 1, 1),
		pointSize: 1,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string { return m.name }

func (m *material) Color() [3]float32 {
	return [3]float32{m.color.R, m.color.G, m.color.B}
}

func (m *material) PointSize() float32 { return m.pointSize }

func (m *material) SetColor(c common.Color) { m.color = c }
