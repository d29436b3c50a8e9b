package webgl

import "github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"

// contextAttributes builds the WebGLContextAttributes object for a candidate. WebGL has no
// explicit sample count, so any multisampling request turns on antialias.
func contextAttributes(a negotiator.Attributes) map[string]any {
	power := string(a.PowerPreference)
	if a.PowerPreference == negotiator.PowerDefault {
		power = "default"
	}
	return map[string]any{
		"antialias":             a.Antialias || a.SampleCount > 1,
		"depth":                 a.Depth,
		"powerPreference":       power,
		"preserveDrawingBuffer": false,
	}
}
