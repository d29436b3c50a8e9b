// Package common contains plain data types and helpers shared throughout the renderer.
package common

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// RGB returns an opaque Color.
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// Lerp linearly interpolates between c and o by t.
//
// Parameters:
//   - o: the target color
//   - t: interpolation factor, 0 yields c and 1 yields o
//
// Returns:
//   - Color: the interpolated color
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// BackgroundKind selects how a Background is described.
type BackgroundKind int

const (
	BackgroundNone BackgroundKind = iota
	BackgroundSolid
	BackgroundGradient
)

// Background describes what a scene shows behind its objects.
type Background struct {
	Kind BackgroundKind
	// Color is used by BackgroundSolid.
	Color Color
	// Top and Bottom are used by BackgroundGradient.
	Top, Bottom Color
}

// SolidBackground returns a single-color background.
func SolidBackground(c Color) Background {
	return Background{Kind: BackgroundSolid, Color: c}
}

// GradientBackground returns a vertical two-color gradient background.
func GradientBackground(top, bottom Color) Background {
	return Background{Kind: BackgroundGradient, Top: top, Bottom: bottom}
}

// ClearColor resolves the background to a single clear color. A gradient is approximated
// by its midpoint; BackgroundNone yields def.
//
// Parameters:
//   - def: the color used when no background is set
//
// Returns:
//   - Color: the clear color
func (b Background) ClearColor(def Color) Color {
	switch b.Kind {
	case BackgroundSolid:
		return b.Color
	case BackgroundGradient:
		return b.Top.Lerp(b.Bottom, 0.5)
	default:
		return def
	}
}
