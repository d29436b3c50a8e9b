package scene

import "github.com/Carmen-Shannon/oxy-render/common"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithBackground sets the initial background.
//
// Parameters:
//   - b: the background, e.g. common.SolidBackground(color)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackground(b common.Background) SceneBuilderOption {
	return func(s *scene) {
		s.background = b
	}
}

// WithNodes adds initial root nodes.
func WithNodes(nodes ...Node) SceneBuilderOption {
	return func(s *scene) {
		s.Add(nodes...)
	}
}

// WithWorkers sets the number of goroutines UpdateWorldMatrices spreads root subtrees
// across. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = max(1, n)
	}
}
