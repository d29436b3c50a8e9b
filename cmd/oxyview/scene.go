package main

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// spinner is a node that turns around its Y axis at a fixed rate.
type spinner struct {
	node  scene.Node
	speed float32
}

// newScene builds the demo scene and the tick callback that animates it.
func newScene() (scene.Scene, func(dt float32)) {
	solid := material.NewMaterial(material.WithName("vertex-colors"))
	points := material.NewMaterial(material.WithName("points"), material.WithColor(common.RGB(1, 0.8, 0.2)), material.WithPointSize(4))
	lines := material.NewMaterial(material.WithName("grid-lines"), material.WithColor(common.RGB(0.4, 0.4, 0.45)))

	cube := scene.NewNode(
		scene.WithName("cube"),
		scene.WithPosition(-1.5, 0.5, 0),
		scene.WithDrawable(resource_cache.Mesh(geometry.Cube(), solid)),
	)
	triangle := scene.NewNode(
		scene.WithName("triangle"),
		scene.WithPosition(1.5, 0.75, 0),
		scene.WithScale(1.5, 1.5, 1.5),
		scene.WithDrawable(resource_cache.Mesh(geometry.Triangle(), solid)),
	)
	// The cube's child inherits its spin.
	moon := scene.NewNode(
		scene.WithName("moon"),
		scene.WithPosition(0, 1.2, 0),
		scene.WithScale(0.3, 0.3, 0.3),
		scene.WithDrawable(resource_cache.Mesh(geometry.Cube(), solid)),
	)
	cube.Add(moon)

	grid := geometry.Grid(21, 0.5)
	floor := scene.NewNode(
		scene.WithName("floor"),
		scene.WithDrawable(resource_cache.PointCloud(grid, points)),
	)
	axes := scene.NewNode(
		scene.WithName("axes"),
		scene.WithDrawable(resource_cache.LineSegments(axesGeometry(), lines)),
	)

	quad := scene.NewNode(
		scene.WithName("quad"),
		scene.WithPosition(0, 0.01, -2),
		scene.WithRotation(-1.5708, 0, 0),
		scene.WithDrawable(resource_cache.MeshWithMode(quadGeometry(), solid, gpu.TriangleStrip)),
	)

	spinners := []spinner{{node: cube, speed: 0.8}, {node: triangle, speed: -1.3}}
	sc := scene.NewScene(
		scene.WithBackground(common.GradientBackground(common.RGB(0.08, 0.09, 0.14), common.RGB(0.02, 0.02, 0.03))),
		scene.WithNodes(floor, axes, quad, cube, triangle),
	)
	return sc, func(dt float32) {
		for _, s := range spinners {
			r := s.node.Rotation()
			s.node.SetRotation(mgl32.Vec3{r.X(), r.Y() + s.speed*dt, r.Z()})
		}
	}
}

func quadGeometry() geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithPositions([]float32{
			-1, -1, 0,
			1, -1, 0,
			-1, 1, 0,
			1, 1, 0,
		}),
		geometry.WithColors([]float32{
			0.2, 0.2, 0.6,
			0.2, 0.6, 0.6,
			0.6, 0.2, 0.6,
			0.6, 0.6, 0.2,
		}),
	)
}

func axesGeometry() geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithPositions([]float32{
			0, 0, 0, 2, 0, 0,
			0, 0, 0, 0, 2, 0,
			0, 0, 0, 0, 0, 2,
		}),
		geometry.WithColors([]float32{
			1, 0, 0, 1, 0, 0,
			0, 1, 0, 0, 1, 0,
			0, 0, 1, 0, 0, 1,
		}),
	)
}
