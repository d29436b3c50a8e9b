package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func hintMap(h Hints) map[glfw.Hint]int {
	out := make(map[glfw.Hint]int)
	for _, kv := range glfwHints(h) {
		out[kv.key] = kv.value
	}
	return out
}

func TestGLFWHints(t *testing.T) {
	tests := []struct {
		name    string
		hints   Hints
		want    map[glfw.Hint]int
		missing []glfw.Hint
	}{
		{
			name:    "no client api",
			hints:   Hints{ClientAPI: ClientNone, Samples: 4},
			want:    map[glfw.Hint]int{glfw.ClientAPI: glfw.NoAPI},
			missing: []glfw.Hint{glfw.Samples, glfw.ContextVersionMajor},
		},
		{
			name:  "core profile with msaa",
			hints: Hints{ClientAPI: ClientOpenGL, Major: 4, Minor: 1, Core: true, Samples: 4, Depth: true},
			want: map[glfw.Hint]int{
				glfw.ClientAPI:               glfw.OpenGLAPI,
				glfw.ContextVersionMajor:     4,
				glfw.ContextVersionMinor:     1,
				glfw.OpenGLProfile:           glfw.OpenGLCoreProfile,
				glfw.OpenGLForwardCompatible: glfw.True,
				glfw.Samples:                 4,
				glfw.DepthBits:               24,
			},
		},
		{
			name:  "compatibility profile without msaa",
			hints: Hints{ClientAPI: ClientOpenGL, Major: 3, Minor: 3, Samples: 1},
			want: map[glfw.Hint]int{
				glfw.OpenGLProfile: glfw.OpenGLCompatProfile,
				glfw.Samples:       0,
				glfw.DepthBits:     0,
			},
			missing: []glfw.Hint{glfw.OpenGLForwardCompatible},
		},
		{
			name:    "legacy version has no profile",
			hints:   Hints{ClientAPI: ClientOpenGL, Major: 2, Minor: 1, Core: true},
			missing: []glfw.Hint{glfw.OpenGLProfile, glfw.OpenGLForwardCompatible},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hintMap(tt.hints)
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("hint %d = %d, want %d", k, got[k], v)
				}
			}
			for _, k := range tt.missing {
				if _, ok := got[k]; ok {
					t.Errorf("hint %d set", k)
				}
			}
		})
	}
}

func TestNewWindowDefersPlatformWindow(t *testing.T) {
	w := NewWindow(WithTitle("test"), WithSize(0, 300), WithMinSize(100, 50))
	ew := w.(*engineWindow)
	if ew.title != "test" || ew.width != 1 || ew.height != 300 || ew.minWidth != 100 {
		t.Fatalf("window = %+v", ew)
	}
	if w.IsRunning() || w.SurfaceDescriptor() != nil {
		t.Fatal("window reports a platform window before Open")
	}
	if err := w.Close(); err == nil {
		t.Fatal("Close before Open succeeded")
	}
	w.SwapBuffers()
	w.MakeContextCurrent()
}
