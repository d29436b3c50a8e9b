package negotiator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu/gputest"
)

var errRefused = errors.New("refused")

type fakeSurface struct {
	ladder  Ladder
	accept  func(Candidate) bool
	panics  bool
	partial bool
	tried   []Candidate
	created []*gputest.Context
}

func (s *fakeSurface) Kind() string   { return "test-canvas" }
func (s *fakeSurface) Ladder() Ladder { return s.ladder }

func (s *fakeSurface) Create(c Candidate) (gpu.Context, error) {
	s.tried = append(s.tried, c)
	if s.panics {
		panic("binding threw")
	}
	ctx := gputest.New()
	ctx.VariantName = c.API.Name
	s.created = append(s.created, ctx)
	if s.accept != nil && s.accept(c) {
		return ctx, nil
	}
	if s.partial {
		return ctx, errRefused
	}
	ctx.Destroy()
	return nil, errRefused
}

func webLadder() Ladder {
	return Ladder{High: API{Name: "webgl2"}, Low: API{Name: "webgl"}, Legacy: &API{Name: "experimental-webgl"}}
}

func TestPlanOrder(t *testing.T) {
	preferred := Attributes{SampleCount: 4, PowerPreference: PowerHighPerformance, Antialias: true, Depth: true}
	got := Plan(webLadder(), preferred)
	want := []struct {
		name      string
		preferred bool
	}{
		{"webgl2", true},
		{"webgl2", false},
		{"webgl", true},
		{"webgl", false},
		{"experimental-webgl", false},
	}
	if len(got) != len(want) {
		t.Fatalf("plan has %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].API.Name != w.name || got[i].Preferred != w.preferred {
			t.Errorf("candidate %d = %s, want %s preferred=%v", i, got[i], w.name, w.preferred)
		}
		if !w.preferred && got[i].Attributes != DefaultAttributes() {
			t.Errorf("candidate %d should use default attributes", i)
		}
	}
}

func TestPlanDropsDuplicateDefaults(t *testing.T) {
	got := Plan(Ladder{High: API{Name: "a"}, Low: API{Name: "b"}}, DefaultAttributes())
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
}

func TestAcquireFallsBack(t *testing.T) {
	s := &fakeSurface{
		ladder: webLadder(),
		accept: func(c Candidate) bool { return c.API.Name == "webgl" && !c.Preferred },
	}
	res, err := Acquire(s, Attributes{SampleCount: 4, Antialias: true, Depth: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Context.Variant() != "webgl" || res.Candidate.Preferred {
		t.Fatalf("got %s", res.Candidate)
	}
	if len(s.tried) != 4 {
		t.Errorf("tried %d candidates, want 4", len(s.tried))
	}
}

func TestAcquireExhaustedIsSingleError(t *testing.T) {
	for _, tc := range []struct {
		name string
		s    *fakeSurface
	}{
		{"errors", &fakeSurface{ladder: webLadder()}},
		{"panics", &fakeSurface{ladder: webLadder(), panics: true}},
		{"partial contexts", &fakeSurface{ladder: webLadder(), partial: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Acquire(tc.s, Attributes{SampleCount: 4})
			if res.Context != nil {
				t.Fatal("expected no context")
			}
			var ne *NegotiationError
			if !errors.As(err, &ne) {
				t.Fatalf("err = %v, want *NegotiationError", err)
			}
			if ne.Surface != "test-canvas" || !strings.Contains(err.Error(), "test-canvas") {
				t.Errorf("error does not name the surface: %v", err)
			}
			if len(ne.Attempts) != 5 {
				t.Errorf("attempts = %d, want 5", len(ne.Attempts))
			}
			for i, ctx := range tc.s.created {
				if !ctx.Destroyed {
					t.Errorf("context %d left alive", i)
				}
			}
		})
	}
}

func TestAcquireErrorUnwraps(t *testing.T) {
	_, err := Acquire(&fakeSurface{ladder: webLadder()}, DefaultAttributes())
	if !errors.Is(err, errRefused) {
		t.Fatalf("errors.Is(err, errRefused) = false for %v", err)
	}
}
