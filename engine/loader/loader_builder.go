package loader

import "github.com/Carmen-Shannon/oxy-render/common"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDefaultColor sets the flat color of primitives that reference no material or a
// material without a base color factor.
//
// Parameters:
//   - c: the color
//
// Returns:
//   - LoaderBuilderOption: a function that applies the color option to a loader
func WithDefaultColor(c common.Color) LoaderBuilderOption {
	return func(l *loader) {
		l.defaultColor = c
	}
}
