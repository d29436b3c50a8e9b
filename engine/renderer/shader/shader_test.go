package shader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu/gputest"
)

var testSource = Source{Vertex: "void main() {}", Fragment: "void main() {}"}

func TestCompileResolvesActiveNames(t *testing.T) {
	ctx := gputest.New()

	p, err := Compile(ctx, testSource, []string{"aPosition", "aColor", "aUnused"}, []string{"uModelViewProjection", "uMissing"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.Attribute("aPosition") != 0 || p.Attribute("aColor") != 1 {
		t.Errorf("attribute locations = %v", p.Attributes)
	}
	if _, ok := p.Attributes["aUnused"]; ok {
		t.Error("inactive attribute should be absent")
	}
	if p.Uniform("uMissing") != -1 {
		t.Error("unresolved uniform should report -1")
	}
	if ctx.LiveShaders() != 0 {
		t.Errorf("stage objects leaked: %d live shaders", ctx.LiveShaders())
	}
	if ctx.LivePrograms() != 1 {
		t.Errorf("LivePrograms = %d, want 1", ctx.LivePrograms())
	}

	p.Release(ctx)
	p.Release(ctx)
	if ctx.LivePrograms() != 0 {
		t.Errorf("program not released")
	}
}

func TestCompileFailuresFreeEverything(t *testing.T) {
	cases := []struct {
		name      string
		configure func(*gputest.Context)
		stage     Stage
		log       string
	}{
		{
			name:      "vertex",
			configure: func(c *gputest.Context) { c.CompileLogs = map[gpu.ShaderStage]string{gpu.StageVertex: "0:1: syntax error"} },
			stage:     StageVertex,
			log:       "0:1: syntax error",
		},
		{
			name: "fragment",
			configure: func(c *gputest.Context) {
				c.CompileLogs = map[gpu.ShaderStage]string{gpu.StageFragment: "ERROR: 0:3: 'gl_FragColor' : undeclared"}
			},
			stage: StageFragment,
			log:   "ERROR: 0:3: 'gl_FragColor' : undeclared",
		},
		{
			name:      "link",
			configure: func(c *gputest.Context) { c.LinkLog = "varying vColor not written" },
			stage:     StageLink,
			log:       "varying vColor not written",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := gputest.New()
			tc.configure(ctx)

			p, err := Compile(ctx, testSource, []string{"aPosition"}, nil)
			if p != nil {
				t.Fatal("expected no program")
			}
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a *CompileError", err)
			}
			if ce.Stage != tc.stage || ce.Log != tc.log {
				t.Errorf("got stage %q log %q, want %q %q", ce.Stage, ce.Log, tc.stage, tc.log)
			}
			if ctx.LiveShaders() != 0 || ctx.LivePrograms() != 0 {
				t.Errorf("leaked objects: %d shaders, %d programs", ctx.LiveShaders(), ctx.LivePrograms())
			}
		})
	}
}
