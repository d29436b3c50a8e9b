package scene

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestScene(t *testing.T, options ...SceneBuilderOption) Scene {
	t.Helper()
	s := NewScene(options...)
	t.Cleanup(s.Close)
	return s
}

func walkIDs(s Scene) []uint64 {
	var ids []uint64
	s.Walk(func(n renderer.Node) { ids = append(ids, n.ID()) })
	return ids
}

func TestNodeIDsAreUnique(t *testing.T) {
	seen := make(map[uint64]bool)
	for range 100 {
		id := NewNode().ID()
		if id == 0 || seen[id] {
			t.Fatalf("id %d reused or zero", id)
		}
		seen[id] = true
	}
}

func TestWalkOrder(t *testing.T) {
	a1, a2 := NewNode(WithName("a1")), NewNode(WithName("a2"))
	a := NewNode(WithName("a"), WithChildren(a1, a2))
	b := NewNode(WithName("b"))
	s := newTestScene(t, WithNodes(a, b))

	got := walkIDs(s)
	want := []uint64{a.ID(), a1.ID(), a2.ID(), b.ID()}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("walk = %v, want %v", got, want)
	}

	a.SetVisible(false)
	got = walkIDs(s)
	if fmt.Sprint(got) != fmt.Sprint([]uint64{b.ID()}) {
		t.Fatalf("walk with hidden subtree = %v", got)
	}
}

func TestWorldMatricesCompose(t *testing.T) {
	child := NewNode(WithPosition(0, 1, 0))
	parent := NewNode(WithPosition(10, 0, 0), WithScale(2, 2, 2), WithChildren(child))
	other := NewNode(WithPosition(0, 0, -3))
	s := newTestScene(t, WithNodes(parent, other), WithWorkers(2))

	s.UpdateWorldMatrices()

	origin := child.WorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	if !origin.ApproxEqual(mgl32.Vec3{10, 2, 0}) {
		t.Errorf("child origin = %v", origin)
	}
	if got := other.WorldMatrix().Col(3).Vec3(); !got.ApproxEqual(mgl32.Vec3{0, 0, -3}) {
		t.Errorf("other origin = %v", got)
	}

	parent.SetPosition(mgl32.Vec3{})
	if got := child.WorldMatrix().Col(3).Vec3(); !got.ApproxEqual(mgl32.Vec3{10, 2, 0}) {
		t.Error("world matrix changed before UpdateWorldMatrices")
	}
	s.UpdateWorldMatrices()
	if got := child.WorldMatrix().Col(3).Vec3(); !got.ApproxEqual(mgl32.Vec3{0, 2, 0}) {
		t.Errorf("child origin after move = %v", got)
	}
}

func TestManyRootsUpdateInParallel(t *testing.T) {
	s := newTestScene(t, WithWorkers(4))
	nodes := make([]Node, 500)
	for i := range nodes {
		nodes[i] = NewNode(WithPosition(float32(i), 0, 0), WithChildren(NewNode(WithPosition(0, 1, 0))))
	}
	s.Add(nodes...)

	s.UpdateWorldMatrices()
	for i, n := range nodes {
		want := mgl32.Vec3{float32(i), 1, 0}
		if got := n.Children()[0].WorldMatrix().Col(3).Vec3(); !got.ApproxEqual(want) {
			t.Fatalf("node %d child origin = %v, want %v", i, got, want)
		}
	}
}

func TestReparenting(t *testing.T) {
	a, b, c := NewNode(), NewNode(), NewNode()
	s := newTestScene(t, WithNodes(a, b))
	a.Add(c)

	b.Add(c)
	if len(a.Children()) != 0 || c.Parent() != b {
		t.Fatal("child not moved to its new parent")
	}

	c.Add(b)
	if b.Parent() != nil || len(c.Children()) != 0 {
		t.Fatal("cycle created")
	}

	s.Add(c)
	if c.Parent() != nil || len(s.Roots()) != 3 {
		t.Fatalf("roots = %d, parent = %v", len(s.Roots()), c.Parent())
	}
	s.Add(c)
	if len(s.Roots()) != 3 {
		t.Fatal("root added twice")
	}
}

func TestRemoveAndFind(t *testing.T) {
	leaf := NewNode()
	mid := NewNode(WithChildren(leaf), WithVisible(false))
	root := NewNode(WithChildren(mid))
	s := newTestScene(t, WithNodes(root))

	if s.Find(leaf.ID()) != leaf {
		t.Fatal("Find missed a node under a hidden parent")
	}
	if !s.Remove(mid) {
		t.Fatal("Remove of a nested node failed")
	}
	if s.Find(leaf.ID()) != nil || mid.Parent() != nil {
		t.Fatal("subtree still attached")
	}
	if s.Remove(mid) {
		t.Fatal("second Remove succeeded")
	}
	if !s.Remove(root) || len(s.Roots()) != 0 {
		t.Fatal("root not removed")
	}
}

func TestHooksAndDrawable(t *testing.T) {
	var calls []string
	g := geometry.Triangle()
	n := NewNode(
		WithDrawable(resource_cache.Mesh(g, material.NewMaterial())),
		WithBeforeDraw(func() { calls = append(calls, "before") }),
		WithAfterDraw(func() { calls = append(calls, "after") }),
	)

	var hooks renderer.DrawHooks = n
	hooks.BeforeDraw()
	hooks.AfterDraw()
	if fmt.Sprint(calls) != "[before after]" {
		t.Fatalf("calls = %v", calls)
	}
	if n.Drawable().Kind != resource_cache.KindMesh || n.Drawable().Geometry != g {
		t.Errorf("drawable = %+v", n.Drawable())
	}

	n.SetBeforeDraw(nil)
	n.BeforeDraw()
	if len(calls) != 2 {
		t.Error("cleared hook still ran")
	}
}

func TestBackground(t *testing.T) {
	s := newTestScene(t, WithBackground(common.SolidBackground(common.RGB(1, 0, 0))))
	if got := s.Background().ClearColor(common.Color{}); got != common.RGB(1, 0, 0) {
		t.Errorf("clear color = %v", got)
	}
	s.SetBackground(common.Background{})
	if got := s.Background().ClearColor(common.RGB(0, 0, 1)); got != common.RGB(0, 0, 1) {
		t.Errorf("default clear color = %v", got)
	}
}
