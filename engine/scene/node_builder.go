package scene

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/resource_cache"
	"github.com/go-gl/mathgl/mgl32"
)

// NodeBuilderOption is a functional option for configuring a Node.
type NodeBuilderOption func(n *node)

// WithName sets the node's diagnostic name.
func WithName(name string) NodeBuilderOption {
	return func(n *node) {
		n.name = name
	}
}

// WithPosition sets the translation relative to the parent.
//
// Parameters:
//   - x, y, z: the translation
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithPosition(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		n.position = mgl32.Vec3{x, y, z}
	}
}

// WithRotation sets the Euler rotation in radians.
//
// Parameters:
//   - x, y, z: rotation around each axis in radians
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithRotation(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		n.rotation = mgl32.Vec3{x, y, z}
	}
}

// WithScale sets the scale factors.
func WithScale(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		n.scale = mgl32.Vec3{x, y, z}
	}
}

// WithDrawable sets what the node draws.
//
// Parameters:
//   - d: the drawable, e.g. resource_cache.Mesh(geometry, material)
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithDrawable(d resource_cache.Drawable) NodeBuilderOption {
	return func(n *node) {
		n.drawable = d
	}
}

// WithVisible sets the initial visibility.
func WithVisible(visible bool) NodeBuilderOption {
	return func(n *node) {
		n.visible = visible
	}
}

// WithChildren attaches children to the node.
func WithChildren(children ...Node) NodeBuilderOption {
	return func(n *node) {
		n.Add(children...)
	}
}

// WithBeforeDraw registers a hook run right before the node's draw call.
func WithBeforeDraw(hook func()) NodeBuilderOption {
	return func(n *node) {
		n.beforeDraw = hook
	}
}

// WithAfterDraw registers a hook run right after the node's draw call.
func WithAfterDraw(hook func()) NodeBuilderOption {
	return func(n *node) {
		n.afterDraw = hook
	}
}
