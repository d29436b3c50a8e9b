package opengl

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/negotiator"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// countingWindow records Open and Close calls so tests can see whether a context outlived
// its negotiation attempt.
type countingWindow struct {
	opens, closes int
	open          bool
}

var _ window.Window = &countingWindow{}

func (w *countingWindow) Open(window.Hints) error {
	w.opens++
	w.open = true
	return nil
}

func (w *countingWindow) Close() error {
	if w.open {
		w.closes++
	}
	w.open = false
	return nil
}

func (w *countingWindow) SetUpdateCallback(func())                   {}
func (w *countingWindow) SetResizeCallback(func(int, int))           {}
func (w *countingWindow) SetScrollCallback(func(float32))            {}
func (w *countingWindow) SetKeyDownCallback(func(uint32))            {}
func (w *countingWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *countingWindow) MakeContextCurrent()                        {}
func (w *countingWindow) SwapBuffers()                               {}
func (w *countingWindow) SetSwapInterval(int)                        {}
func (w *countingWindow) IsRunning() bool                            { return w.open }
func (w *countingWindow) RequestClose()                              {}
func (w *countingWindow) ProcessMessages()                           {}
func (w *countingWindow) Width() int                                 { return 640 }
func (w *countingWindow) Height() int                                { return 480 }

func newTestSurface(w window.Window, info driverInfo, err error) *surface {
	return &surface{window: w, driver: func() (driverInfo, error) { return info, err }}
}

func TestLadder(t *testing.T) {
	l := NewSurface(window.NewWindow(), true).Ladder()
	if l.High.Name != VariantGL41Core || l.Low.Name != VariantGL33Core {
		t.Fatalf("ladder = %s, %s", l.High.Name, l.Low.Name)
	}
	if l.Legacy == nil || l.Legacy.Name != VariantGL33Compat {
		t.Fatalf("legacy = %+v, want %s", l.Legacy, VariantGL33Compat)
	}
}

func TestCandidateHints(t *testing.T) {
	tests := []struct {
		variant      string
		major, minor int
		core         bool
	}{
		{VariantGL41Core, 4, 1, true},
		{VariantGL33Core, 3, 3, true},
		{VariantGL33Compat, 3, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			c := negotiator.Candidate{
				API:        negotiator.API{Name: tt.variant},
				Attributes: negotiator.Attributes{SampleCount: 4, Depth: true},
			}
			h, err := candidateHints(c)
			if err != nil {
				t.Fatalf("candidateHints: %v", err)
			}
			if h.ClientAPI != window.ClientOpenGL {
				t.Errorf("client api = %v", h.ClientAPI)
			}
			if h.Major != tt.major || h.Minor != tt.minor || h.Core != tt.core {
				t.Errorf("version = %d.%d core=%v, want %d.%d core=%v", h.Major, h.Minor, h.Core, tt.major, tt.minor, tt.core)
			}
			if h.Samples != 4 || !h.Depth || !h.Resizable {
				t.Errorf("hints = %+v", h)
			}
		})
	}

	if _, err := candidateHints(negotiator.Candidate{API: negotiator.API{Name: "vulkan"}}); err == nil {
		t.Fatal("expected an error for an unknown variant")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in           string
		major, minor int
		ok           bool
	}{
		{"4.1 Metal - 76.3", 4, 1, true},
		{"3.3.0 NVIDIA 535.54.03", 3, 3, true},
		{"4.6 (Core Profile) Mesa 23.2.1", 4, 6, true},
		{"", 0, 0, false},
		{"OpenGL", 0, 0, false},
		{"x.y", 0, 0, false},
	}
	for _, tt := range tests {
		major, minor, ok := parseVersion(tt.in)
		if ok != tt.ok || major != tt.major || minor != tt.minor {
			t.Errorf("parseVersion(%q) = %d, %d, %v", tt.in, major, minor, ok)
		}
	}
}

func TestDrawMode(t *testing.T) {
	if _, err := drawMode(99); err == nil {
		t.Fatal("expected an error for an unknown topology")
	}
}

func TestRejectedCandidateClosesWindow(t *testing.T) {
	tests := []struct {
		name    string
		info    driverInfo
		err     error
		samples int
	}{
		{"load failure", driverInfo{}, errors.New("no entry points"), 1},
		{"unreadable version", driverInfo{version: "OpenGL"}, nil, 1},
		{"old driver", driverInfo{version: "3.2 Mesa"}, nil, 1},
		{"sample shortfall", driverInfo{version: "4.6 Mesa", samples: 2}, nil, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &countingWindow{}
			s := newTestSurface(w, tt.info, tt.err)
			c := negotiator.Candidate{
				API:        negotiator.API{Name: VariantGL41Core},
				Attributes: negotiator.Attributes{SampleCount: tt.samples, Depth: true},
			}
			ctx, err := s.Create(c)
			if err == nil || ctx != nil {
				t.Fatalf("Create = %v, %v; want an error and no context", ctx, err)
			}
			if w.opens != 1 || w.closes != 1 || w.open {
				t.Fatalf("opens=%d closes=%d open=%v", w.opens, w.closes, w.open)
			}
		})
	}
}

func TestExhaustedNegotiationLeavesNoWindow(t *testing.T) {
	w := &countingWindow{}
	s := newTestSurface(w, driverInfo{version: "3.2 Mesa"}, nil)

	_, err := negotiator.Acquire(s, negotiator.Attributes{SampleCount: 4, Depth: true})
	var ne *negotiator.NegotiationError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want a NegotiationError", err)
	}
	if ne.Surface != SurfaceKind {
		t.Errorf("surface = %q, want %q", ne.Surface, SurfaceKind)
	}
	if w.opens == 0 || w.opens != w.closes || w.open {
		t.Fatalf("opens=%d closes=%d open=%v", w.opens, w.closes, w.open)
	}
}

func TestCheckDriver(t *testing.T) {
	hints := window.Hints{Major: 3, Minor: 3, Samples: 4}
	if err := checkDriver(hints, driverInfo{version: "3.3.0 NVIDIA", samples: 4}); err != nil {
		t.Fatalf("exact match rejected: %v", err)
	}
	if err := checkDriver(hints, driverInfo{version: "4.1 Metal", samples: 8}); err != nil {
		t.Fatalf("newer driver rejected: %v", err)
	}
	if err := checkDriver(window.Hints{Major: 3, Minor: 3, Samples: 1}, driverInfo{version: "3.3", samples: 0}); err != nil {
		t.Fatalf("single-sampled context rejected: %v", err)
	}
}
