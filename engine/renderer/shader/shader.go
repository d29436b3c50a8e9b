// Package shader compiles and links vertex/fragment shader pairs into programs through a
// gpu.Context, resolving attribute and uniform locations by name.
package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
)

// Stage names the step that produced a CompileError.
type Stage string

const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
	StageLink     Stage = "link"
)

// Source pairs the two stage sources of a program.
type Source struct {
	Vertex   string
	Fragment string
}

// CompileError reports a failed compile or link step. Log is the driver's info log, verbatim.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	if e.Log == "" {
		return fmt.Sprintf("shader %s failed", e.Stage)
	}
	return fmt.Sprintf("shader %s failed: %s", e.Stage, e.Log)
}

// Program is a linked program with the locations of the inputs it was asked to resolve.
// Names that are not active in the linked program are absent from the maps.
type Program struct {
	Handle     gpu.ProgramHandle
	Attributes map[string]int
	Uniforms   map[string]int
}

// Attribute returns the location of a vertex input, or -1 if it was not resolved.
func (p *Program) Attribute(name string) int {
	if loc, ok := p.Attributes[name]; ok {
		return loc
	}
	return -1
}

// Uniform returns the location of a uniform, or -1 if it was not resolved.
func (p *Program) Uniform(name string) int {
	if loc, ok := p.Uniforms[name]; ok {
		return loc
	}
	return -1
}

// Release deletes the program from ctx. Safe to call on a nil Program.
func (p *Program) Release(ctx gpu.Context) {
	if p == nil || p.Handle == 0 {
		return
	}
	ctx.DeleteProgram(p.Handle)
	p.Handle = 0
}

// Compile builds a program from src. The operation is atomic: on any failure every shader
// and program object it created has been deleted before the error is returned, and the
// error is a *CompileError for compile and link failures.
//
// Linking is only attempted once both stages compiled. The stage objects are deleted after
// a successful link since the program keeps its own copy.
//
// Parameters:
//   - ctx: the context to compile on
//   - src: vertex and fragment sources
//   - attributeNames: vertex inputs to resolve
//   - uniformNames: uniforms to resolve
//
// Returns:
//   - *Program: the linked program
//   - error: a *CompileError, or a context error if an object could not be allocated
func Compile(ctx gpu.Context, src Source, attributeNames, uniformNames []string) (*Program, error) {
	vs, err := compileStage(ctx, gpu.StageVertex, src.Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := compileStage(ctx, gpu.StageFragment, src.Fragment)
	if err != nil {
		ctx.DeleteShader(vs)
		return nil, err
	}
	defer ctx.DeleteShader(vs)
	defer ctx.DeleteShader(fs)

	prog, err := ctx.CreateProgram()
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	ctx.AttachShader(prog, vs)
	ctx.AttachShader(prog, fs)
	if log, ok := ctx.LinkProgram(prog); !ok {
		ctx.DeleteProgram(prog)
		return nil, &CompileError{Stage: StageLink, Log: log}
	}

	p := &Program{
		Handle:     prog,
		Attributes: make(map[string]int, len(attributeNames)),
		Uniforms:   make(map[string]int, len(uniformNames)),
	}
	for _, name := range attributeNames {
		if loc := ctx.AttribLocation(prog, name); loc >= 0 {
			p.Attributes[name] = loc
		}
	}
	for _, name := range uniformNames {
		if loc := ctx.UniformLocation(prog, name); loc >= 0 {
			p.Uniforms[name] = loc
		}
	}
	common.Logger().Debug("shader program linked",
		"program", uint64(prog), "attributes", len(p.Attributes), "uniforms", len(p.Uniforms))
	return p, nil
}

func compileStage(ctx gpu.Context, stage gpu.ShaderStage, source string) (gpu.ShaderHandle, error) {
	h, err := ctx.CreateShader(stage)
	if err != nil {
		return 0, fmt.Errorf("create %s shader: %w", stage, err)
	}
	if log, ok := ctx.CompileShader(h, source); !ok {
		ctx.DeleteShader(h)
		return 0, &CompileError{Stage: Stage(stage.String()), Log: log}
	}
	return h, nil
}
