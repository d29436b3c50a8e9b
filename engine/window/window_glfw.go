package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	window  *glfw.Window
	running bool
	gl      bool
}

// platformOpenWindow creates the GLFW window for hints, replacing a window opened earlier.
// GLFW is initialized on first use; the caller's goroutine is locked to its OS thread since
// GLFW and GL contexts are bound to the thread that created them.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func platformOpenWindow(w *engineWindow, hints Hints) error {
	runtime.LockOSThread()

	if gw, ok := w.internalWindow.(*glfwWindow); ok {
		gw.window.Destroy()
		w.internalWindow = nil
	} else if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	glfw.DefaultWindowHints()
	for _, h := range glfwHints(hints) {
		glfw.WindowHint(h.key, h.value)
	}

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}
	if w.minWidth > 0 || w.minHeight > 0 {
		win.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)
	}

	gw := &glfwWindow{
		window:  win,
		running: true,
		gl:      hints.ClientAPI == ClientOpenGL,
	}
	w.internalWindow = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.running = false
			win.SetShouldClose(true)
			return
		}
		if (action == glfw.Press || action == glfw.Repeat) && w.onKeyDown != nil {
			w.onKeyDown(uint32(key))
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	// Framebuffer size is in pixels, which differs from window size on high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	w.width, w.height = win.GetFramebufferSize()
	common.Logger().Debug("window opened", "title", w.title, "gl", gw.gl,
		"width", w.width, "height", w.height)
	return nil
}

func current(w *engineWindow) *glfwWindow {
	gw, _ := w.internalWindow.(*glfwWindow)
	return gw
}

// platformGetSurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the
// GLFW window through wgpuglfw (Windows, X11, Wayland, macOS).
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	gw := current(w)
	if gw == nil || gw.gl {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

func platformMakeContextCurrent(w *engineWindow) {
	if gw := current(w); gw != nil && gw.gl {
		gw.window.MakeContextCurrent()
	}
}

func platformSwapBuffers(w *engineWindow) {
	if gw := current(w); gw != nil && gw.gl {
		gw.window.SwapBuffers()
	}
}

// platformSetSwapInterval applies to the context current on the calling thread.
func platformSetSwapInterval(w *engineWindow, interval int) {
	if gw := current(w); gw != nil && gw.gl {
		glfw.SwapInterval(interval)
	}
}

func platformIsRunningCheck(w *engineWindow) bool {
	gw := current(w)
	return gw != nil && gw.running && !gw.window.ShouldClose()
}

func platformRequestClose(w *engineWindow) {
	if gw := current(w); gw != nil {
		gw.window.SetShouldClose(true)
	}
}

func platformCloseWindow(w *engineWindow) error {
	gw := current(w)
	if gw == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	w.internalWindow = nil
	glfw.Terminate()
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
