package scene

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
	"github.com/go-gl/mathgl/mgl32"
)

// nodeCount hands out node ids. Ids start at 1 and are never reused within a process.
var nodeCount atomic.Uint64

type node struct {
	mu *sync.Mutex

	id   uint64
	name string

	position mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3
	world    mgl32.Mat4

	parent   *node
	children []*node

	visible  bool
	drawable resource_cache.Drawable

	beforeDraw func()
	afterDraw  func()
}

// Node is one element of the scene graph: a local transform relative to its parent, an
// optional drawable and any number of children.
//
// Setters are safe to call from any goroutine except while Scene.UpdateWorldMatrices runs.
type Node interface {
	// ID returns the node's process-unique identity. The renderer keys its GPU resources by it.
	ID() uint64

	// Name returns the node's diagnostic name.
	Name() string

	// SetName sets the node's diagnostic name.
	SetName(name string)

	// Position returns the translation relative to the parent.
	Position() mgl32.Vec3

	// SetPosition sets the translation relative to the parent.
	SetPosition(p mgl32.Vec3)

	// Rotation returns the Euler rotation in radians around X, Y and Z.
	Rotation() mgl32.Vec3

	// SetRotation sets the Euler rotation in radians around X, Y and Z.
	SetRotation(r mgl32.Vec3)

	// Scale returns the scale factors along each axis.
	Scale() mgl32.Vec3

	// SetScale sets the scale factors along each axis.
	SetScale(s mgl32.Vec3)

	// LocalMatrix composes position, rotation and scale.
	//
	// Returns:
	//   - mgl32.Mat4: the parent-relative transform
	LocalMatrix() mgl32.Mat4

	// WorldMatrix returns the model-to-world transform computed by the last
	// Scene.UpdateWorldMatrices.
	WorldMatrix() mgl32.Mat4

	// Parent returns the parent node, or nil for a root or detached node.
	Parent() Node

	// Children returns a snapshot of the child nodes in insertion order.
	Children() []Node

	// Add attaches children to this node, detaching each from its previous parent first.
	// A child that is this node or one of its ancestors is skipped.
	//
	// Parameters:
	//   - children: the nodes to attach
	Add(children ...Node)

	// Remove detaches a direct child. Removing a node that is not a child is a no-op.
	//
	// Parameters:
	//   - child: the node to detach
	Remove(child Node)

	// Visible reports whether the node and its subtree are drawn.
	Visible() bool

	// SetVisible hides or shows the node and its subtree.
	SetVisible(visible bool)

	// Drawable returns what the node draws.
	Drawable() resource_cache.Drawable

	// SetDrawable replaces what the node draws.
	SetDrawable(d resource_cache.Drawable)

	// SetBeforeDraw registers a hook run right before the node's draw call. nil clears it.
	SetBeforeDraw(hook func())

	// SetAfterDraw registers a hook run right after the node's draw call. nil clears it.
	SetAfterDraw(hook func())

	// BeforeDraw runs the before-draw hook, if any.
	BeforeDraw()

	// AfterDraw runs the after-draw hook, if any.
	AfterDraw()
}

var _ Node = &node{}

// NewNode creates a detached node with an identity transform.
//
// Parameters:
//   - options: functional options to configure the node
//
// Returns:
//   - Node: the new node
func NewNode(options ...NodeBuilderOption) Node {
	n := &node{
		mu:      &sync.Mutex{},
		id:      nodeCount.Add(1),
		scale:   mgl32.Vec3{1, 1, 1},
		world:   mgl32.Ident4(),
		visible: true,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

func (n *node) ID() uint64 { return n.id }

func (n *node) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

func (n *node) SetName(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.name = name
}

func (n *node) Position() mgl32.Vec3 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.position
}

func (n *node) SetPosition(p mgl32.Vec3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.position = p
}

func (n *node) Rotation() mgl32.Vec3 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rotation
}

func (n *node) SetRotation(r mgl32.Vec3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rotation = r
}

func (n *node) Scale() mgl32.Vec3 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.scale
}

func (n *node) SetScale(s mgl32.Vec3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scale = s
}

func (n *node) LocalMatrix() mgl32.Mat4 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return common.ModelMatrix(n.position, n.rotation, n.scale)
}

func (n *node) WorldMatrix() mgl32.Mat4 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.world
}

func (n *node) Parent() Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) Children() []Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *node) Add(children ...Node) {
	for _, c := range children {
		child, ok := c.(*node)
		if !ok || child == nil {
			continue
		}
		if n.isSelfOrAncestor(child) {
			common.Logger().Warn("scene: refusing to attach a node under itself",
				"parent", n.id, "child", child.id)
			continue
		}
		if old := child.parentNode(); old != nil {
			old.Remove(child)
		}
		n.mu.Lock()
		n.children = append(n.children, child)
		n.mu.Unlock()
		child.mu.Lock()
		child.parent = n
		child.mu.Unlock()
	}
}

func (n *node) Remove(c Node) {
	child, ok := c.(*node)
	if !ok || child == nil {
		return
	}
	n.mu.Lock()
	removed := false
	for i, existing := range n.children {
		if existing == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			removed = true
			break
		}
	}
	n.mu.Unlock()
	if removed {
		child.mu.Lock()
		child.parent = nil
		child.mu.Unlock()
	}
}

func (n *node) parentNode() *node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

// isSelfOrAncestor reports whether candidate is n or one of n's ancestors.
func (n *node) isSelfOrAncestor(candidate *node) bool {
	for cur := n; cur != nil; cur = cur.parentNode() {
		if cur == candidate {
			return true
		}
	}
	return false
}

func (n *node) Visible() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.visible
}

func (n *node) SetVisible(visible bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visible = visible
}

func (n *node) Drawable() resource_cache.Drawable {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.drawable
}

func (n *node) SetDrawable(d resource_cache.Drawable) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drawable = d
}

func (n *node) SetBeforeDraw(hook func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.beforeDraw = hook
}

func (n *node) SetAfterDraw(hook func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.afterDraw = hook
}

func (n *node) BeforeDraw() {
	n.mu.Lock()
	hook := n.beforeDraw
	n.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (n *node) AfterDraw() {
	n.mu.Lock()
	hook := n.afterDraw
	n.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// updateWorld composes the world matrix of n and its whole subtree under parent.
func (n *node) updateWorld(parent mgl32.Mat4) {
	n.mu.Lock()
	n.world = parent.Mul4(common.ModelMatrix(n.position, n.rotation, n.scale))
	world := n.world
	children := append([]*node(nil), n.children...)
	n.mu.Unlock()
	for _, c := range children {
		c.updateWorld(world)
	}
}
