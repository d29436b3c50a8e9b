package window

import "github.com/go-gl/glfw/v3.3/glfw"

// ClientAPI selects what kind of graphics context a window is created with.
type ClientAPI int

const (
	// ClientNone creates no context; the window is presented to by WebGPU.
	ClientNone ClientAPI = iota
	// ClientOpenGL creates a desktop OpenGL context.
	ClientOpenGL
)

// Hints are the context settings a window is opened with.
type Hints struct {
	ClientAPI ClientAPI
	// Major and Minor are the requested OpenGL version. Ignored for ClientNone.
	Major, Minor int
	// Core requests a core profile; false requests a compatibility profile.
	Core bool
	// Samples is the MSAA sample count of the default framebuffer; 0 or 1 disables it.
	Samples int
	// Depth requests a 24-bit depth buffer.
	Depth bool
	// Resizable lets the user resize the window.
	Resizable bool
}

type hint struct {
	key   glfw.Hint
	value int
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// glfwHints translates h into the window hints applied before glfw.CreateWindow.
// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
func glfwHints(h Hints) []hint {
	out := []hint{{glfw.Resizable, boolHint(h.Resizable)}}
	if h.ClientAPI == ClientNone {
		return append(out, hint{glfw.ClientAPI, glfw.NoAPI})
	}

	out = append(out,
		hint{glfw.ClientAPI, glfw.OpenGLAPI},
		hint{glfw.ContextVersionMajor, h.Major},
		hint{glfw.ContextVersionMinor, h.Minor},
	)
	// Profiles only exist from OpenGL 3.2 on.
	if h.Major > 3 || (h.Major == 3 && h.Minor >= 2) {
		if h.Core {
			out = append(out,
				hint{glfw.OpenGLProfile, glfw.OpenGLCoreProfile},
				hint{glfw.OpenGLForwardCompatible, glfw.True},
			)
		} else {
			out = append(out, hint{glfw.OpenGLProfile, glfw.OpenGLCompatProfile})
		}
	}
	samples := 0
	if h.Samples > 1 {
		samples = h.Samples
	}
	depth := 0
	if h.Depth {
		depth = 24
	}
	return append(out, hint{glfw.Samples, samples}, hint{glfw.DepthBits, depth})
}
