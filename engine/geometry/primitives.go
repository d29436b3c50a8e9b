package geometry

// Triangle returns a single counter-clockwise triangle in the XY plane with red, green
// and blue corners.
func Triangle() Geometry {
	return NewGeometry(
		WithPositions([]float32{
			-0.5, -0.5, 0,
			0.5, -0.5, 0,
			0, 0.5, 0,
		}),
		WithColors([]float32{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		}),
	)
}

// Cube returns an indexed unit cube centered at the origin with a color per corner.
func Cube() Geometry {
	positions := []float32{
		-0.5, -0.5, -0.5,
		0.5, -0.5, -0.5,
		0.5, 0.5, -0.5,
		-0.5, 0.5, -0.5,
		-0.5, -0.5, 0.5,
		0.5, -0.5, 0.5,
		0.5, 0.5, 0.5,
		-0.5, 0.5, 0.5,
	}
	colors := make([]float32, 0, len(positions))
	for i := 0; i < len(positions); i += 3 {
		colors = append(colors, positions[i]+0.5, positions[i+1]+0.5, positions[i+2]+0.5)
	}
	return NewGeometry(
		WithPositions(positions),
		WithColors(colors),
		WithIndex([]uint32{
			0, 2, 1, 0, 3, 2, // back
			4, 5, 6, 4, 6, 7, // front
			0, 4, 7, 0, 7, 3, // left
			1, 2, 6, 1, 6, 5, // right
			3, 7, 6, 3, 6, 2, // top
			0, 1, 5, 0, 5, 4, // bottom
		}),
	)
}

// Grid returns an n x n grid of points spaced step apart in the XZ plane.
func Grid(n int, step float32) Geometry {
	positions := make([]float32, 0, n*n*3)
	half := float32(n-1) * step / 2
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			positions = append(positions, float32(x)*step-half, 0, float32(z)*step-half)
		}
	}
	return NewGeometry(WithPositions(positions))
}
