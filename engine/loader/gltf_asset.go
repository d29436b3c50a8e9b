package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
	"github.com/go-gl/mathgl/mgl32"
)

// asset is an imported file: shared geometry and materials plus the node hierarchy that
// every instance copies.
type asset struct {
	name   string
	meshes [][]resource_cache.Drawable
	nodes  []assetNode
	roots  []int
}

type assetNode struct {
	name     string
	mesh     int
	children []int
	position mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3
}

// buildAsset converts a parsed document. Materials are created once and shared by every
// primitive that references them.
func buildAsset(name string, p *gltfParser, defaultColor common.Color) (*asset, error) {
	doc := p.doc
	a := &asset{name: name}

	materials := make([]material.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		c := defaultColor
		if m.PBRMetallicRoughness != nil && m.PBRMetallicRoughness.BaseColorFactor != nil {
			f := m.PBRMetallicRoughness.BaseColorFactor
			c = common.Color{R: f[0], G: f[1], B: f[2], A: f[3]}
		}
		materials[i] = material.NewMaterial(material.WithName(m.Name), material.WithColor(c))
	}
	fallback := material.NewMaterial(material.WithName(name+"/default"), material.WithColor(defaultColor))

	a.meshes = make([][]resource_cache.Drawable, len(doc.Meshes))
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			mat := fallback
			if prim.Material != nil {
				if *prim.Material < 0 || *prim.Material >= len(materials) {
					return nil, fmt.Errorf("mesh %d primitive %d: material %d out of range", mi, pi, *prim.Material)
				}
				mat = materials[*prim.Material]
			}
			d, err := buildPrimitive(p, prim, mat)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			a.meshes[mi] = append(a.meshes[mi], d)
		}
	}

	a.nodes = make([]assetNode, len(doc.Nodes))
	for i, n := range doc.Nodes {
		an := assetNode{name: n.Name, mesh: -1, children: n.Children, scale: mgl32.Vec3{1, 1, 1}}
		if n.Mesh != nil {
			if *n.Mesh < 0 || *n.Mesh >= len(a.meshes) {
				return nil, fmt.Errorf("node %d: mesh %d out of range", i, *n.Mesh)
			}
			an.mesh = *n.Mesh
		}
		for _, c := range n.Children {
			if c < 0 || c >= len(doc.Nodes) {
				return nil, fmt.Errorf("node %d: child %d out of range", i, c)
			}
		}
		switch {
		case n.Matrix != nil:
			an.position, an.rotation, an.scale = decompose(mgl32.Mat4(*n.Matrix))
		default:
			if n.Translation != nil {
				an.position = mgl32.Vec3(*n.Translation)
			}
			if n.Rotation != nil {
				q := mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
				an.rotation = eulerYXZ(q.Normalize().Mat4())
			}
			if n.Scale != nil {
				an.scale = mgl32.Vec3(*n.Scale)
			}
		}
		a.nodes[i] = an
	}

	switch {
	case len(doc.Scenes) > 0:
		s := 0
		if doc.Scene != nil {
			s = *doc.Scene
		}
		if s < 0 || s >= len(doc.Scenes) {
			return nil, fmt.Errorf("scene %d out of range", s)
		}
		a.roots = doc.Scenes[s].Nodes
	default:
		a.roots = parentless(doc.Nodes)
	}
	if err := checkAcyclic(a); err != nil {
		return nil, err
	}
	return a, nil
}

func buildPrimitive(p *gltfParser, prim gltfPrimitive, mat material.Material) (resource_cache.Drawable, error) {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return resource_cache.Drawable{}, fmt.Errorf("no POSITION attribute")
	}
	positions, err := p.readFloats(posIndex, 3)
	if err != nil {
		return resource_cache.Drawable{}, err
	}
	options := []geometry.GeometryBuilderOption{geometry.WithPositions(positions)}

	if colorIndex, ok := prim.Attributes["COLOR_0"]; ok {
		colors, err := readColors(p, colorIndex)
		if err != nil {
			return resource_cache.Drawable{}, err
		}
		options = append(options, geometry.WithColors(colors))
	}

	var index []uint32
	if prim.Indices != nil {
		if index, err = p.readIndices(*prim.Indices); err != nil {
			return resource_cache.Drawable{}, err
		}
	}

	mode := gltfModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	if mode == gltfModeLineLoop {
		index = closeLoop(index, len(positions)/3)
	}
	if index != nil {
		options = append(options, geometry.WithIndex(index))
	}
	g := geometry.NewGeometry(options...)

	switch mode {
	case gltfModePoints:
		return resource_cache.PointCloud(g, mat), nil
	case gltfModeLines:
		return resource_cache.LineSegments(g, mat), nil
	case gltfModeLineLoop, gltfModeLineStrip:
		return resource_cache.Line(g, mat), nil
	case gltfModeTriangles:
		return resource_cache.Mesh(g, mat), nil
	case gltfModeTriangleStrip:
		return resource_cache.MeshWithMode(g, mat, gpu.TriangleStrip), nil
	case gltfModeTriangleFan:
		return resource_cache.MeshWithMode(g, mat, gpu.TriangleFan), nil
	}
	return resource_cache.Drawable{}, fmt.Errorf("unknown primitive mode %d", mode)
}

// readColors reads COLOR_0 as RGB, dropping alpha from VEC4 colors.
func readColors(p *gltfParser, index int) ([]float32, error) {
	if index < 0 || index >= len(p.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	if p.doc.Accessors[index].Type != gltfTypeVec4 {
		return p.readFloats(index, 3)
	}
	rgba, err := p.readFloats(index, 4)
	if err != nil {
		return nil, err
	}
	rgb := make([]float32, 0, len(rgba)/4*3)
	for i := 0; i < len(rgba); i += 4 {
		rgb = append(rgb, rgba[i], rgba[i+1], rgba[i+2])
	}
	return rgb, nil
}

// closeLoop turns a line loop into a strip by repeating the first vertex at the end.
func closeLoop(index []uint32, vertexCount int) []uint32 {
	if index == nil {
		index = make([]uint32, vertexCount)
		for i := range index {
			index[i] = uint32(i)
		}
	}
	if len(index) == 0 {
		return index
	}
	return append(index, index[0])
}

// parentless returns the nodes no other node lists as a child, in document order.
func parentless(nodes []gltfNode) []int {
	child := make([]bool, len(nodes))
	for _, n := range nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func checkAcyclic(a *asset) error {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(a.nodes))
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case active:
			return fmt.Errorf("node %d is its own ancestor", i)
		case done:
			return nil
		}
		state[i] = active
		for _, c := range a.nodes[i].children {
			if err := visit(c); err != nil {
				return err
			}
		}
		state[i] = done
		return nil
	}
	for _, r := range a.roots {
		if r < 0 || r >= len(a.nodes) {
			return fmt.Errorf("root node %d out of range", r)
		}
		if err := visit(r); err != nil {
			return err
		}
	}
	return nil
}

// decompose splits a TRS matrix into translation, YXZ Euler rotation and scale.
func decompose(m mgl32.Mat4) (position, rotation, scale mgl32.Vec3) {
	position = m.Col(3).Vec3()
	scale = mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	var r mgl32.Mat4
	for c := range 3 {
		s := scale[c]
		if s == 0 {
			s = 1
		}
		col := m.Col(c).Vec3().Mul(1 / s)
		r.SetCol(c, col.Vec4(0))
	}
	r.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	return position, eulerYXZ(r), scale
}

// eulerYXZ returns the angles (x, y, z) with Ry(y) * Rx(x) * Rz(z) == m, the order
// common.ModelMatrix composes.
func eulerYXZ(m mgl32.Mat4) mgl32.Vec3 {
	sx := -m.At(1, 2)
	sx = float32(math.Max(-1, math.Min(1, float64(sx))))
	x := float32(math.Asin(float64(sx)))
	if math.Abs(float64(sx)) > 0.9999 {
		y := float32(math.Atan2(float64(-m.At(2, 0)), float64(m.At(0, 0))))
		return mgl32.Vec3{x, y, 0}
	}
	y := float32(math.Atan2(float64(m.At(0, 2)), float64(m.At(2, 2))))
	z := float32(math.Atan2(float64(m.At(1, 0)), float64(m.At(1, 1))))
	return mgl32.Vec3{x, y, z}
}
