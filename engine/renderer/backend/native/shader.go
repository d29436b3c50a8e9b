package native

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bridge"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// matrixSize is the byte size of a mat4x4<f32> uniform.
const matrixSize = 64

// reflection is what a compiled WGSL module exposes to the pipeline.
type reflection struct {
	entryPoint string
	// inputs maps vertex input names to their @location.
	inputs map[string]uint32
	// uniforms maps uniform variable names to their binding in group 0.
	uniforms map[string]uint32
}

type shaderObject struct {
	stage  gpu.ShaderStage
	module bridge.Handle
	info   reflection
	// refs counts the programs the shader is attached to; the module outlives DeleteShader
	// until the last of them is deleted.
	refs    int
	deleted bool
}

type program struct {
	vertex, fragment *shaderObject
	linked           bool

	bindGroupLayout bridge.Handle
	pipelineLayout  bridge.Handle
	uniformBinding  uint32
	pipelines       map[pipelineKey]bridge.Handle
	ring            uniformRing
}

// compileWGSL validates source and reflects the entry point of stage.
func compileWGSL(stage gpu.ShaderStage, source string) (reflection, string, bool) {
	ast, err := naga.Parse(source)
	if err != nil {
		return reflection{}, err.Error(), false
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return reflection{}, err.Error(), false
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return reflection{}, err.Error(), false
	}
	if len(problems) > 0 {
		lines := make([]string, len(problems))
		for i, p := range problems {
			lines[i] = p.Error()
		}
		return reflection{}, strings.Join(lines, "\n"), false
	}
	r, err := reflectEntryPoint(module, stage)
	if err != nil {
		return reflection{}, err.Error(), false
	}
	return r, "", true
}

func reflectEntryPoint(module *ir.Module, stage gpu.ShaderStage) (reflection, error) {
	want := ir.StageVertex
	if stage == gpu.StageFragment {
		want = ir.StageFragment
	}
	r := reflection{inputs: make(map[string]uint32), uniforms: make(map[string]uint32)}

	found := false
	for _, ep := range module.EntryPoints {
		if ep.Stage != want {
			continue
		}
		r.entryPoint = ep.Name
		for _, arg := range ep.Function.Arguments {
			if loc, ok := location(arg.Binding); ok {
				r.inputs[arg.Name] = loc
				continue
			}
			if int(arg.Type) >= len(module.Types) {
				continue
			}
			if st, ok := module.Types[arg.Type].Inner.(ir.StructType); ok {
				for _, m := range st.Members {
					if loc, ok := location(m.Binding); ok {
						r.inputs[m.Name] = loc
					}
				}
			}
		}
		found = true
		break
	}
	if !found {
		return r, fmt.Errorf("no @%s entry point", stage)
	}

	for _, gv := range module.GlobalVariables {
		if gv.Space == ir.SpaceUniform && gv.Binding != nil && gv.Binding.Group == 0 {
			r.uniforms[gv.Name] = gv.Binding.Binding
		}
	}
	return r, nil
}

func location(b *ir.Binding) (uint32, bool) {
	if b == nil {
		return 0, false
	}
	if lb, ok := (*b).(ir.LocationBinding); ok {
		return lb.Location, true
	}
	return 0, false
}

func (c *context) CreateShader(stage gpu.ShaderStage) (gpu.ShaderHandle, error) {
	h := gpu.ShaderHandle(c.id())
	c.shaders[h] = &shaderObject{stage: stage}
	return h, nil
}

func (c *context) CompileShader(h gpu.ShaderHandle, source string) (string, bool) {
	s, ok := c.shaders[h]
	if !ok {
		return fmt.Sprintf("unknown shader %d", h), false
	}
	r, log, ok := compileWGSL(s.stage, source)
	if !ok {
		return log, false
	}
	module, err := c.bridge.CreateShaderModule(c.device, s.stage.String(), source)
	if err != nil {
		return err.Error(), false
	}
	c.release(&s.module)
	s.module, s.info = module, r
	return "", true
}

func (c *context) DeleteShader(h gpu.ShaderHandle) {
	s, ok := c.shaders[h]
	if !ok {
		return
	}
	delete(c.shaders, h)
	s.deleted = true
	if s.refs == 0 {
		c.release(&s.module)
	}
}

func (c *context) unref(s *shaderObject) {
	if s == nil {
		return
	}
	s.refs--
	if s.deleted && s.refs == 0 {
		c.release(&s.module)
	}
}

func (c *context) CreateProgram() (gpu.ProgramHandle, error) {
	h := gpu.ProgramHandle(c.id())
	c.programs[h] = &program{pipelines: make(map[pipelineKey]bridge.Handle)}
	return h, nil
}

func (c *context) AttachShader(p gpu.ProgramHandle, s gpu.ShaderHandle) {
	prog, ok := c.programs[p]
	if !ok {
		return
	}
	sh, ok := c.shaders[s]
	if !ok {
		return
	}
	slot := &prog.fragment
	if sh.stage == gpu.StageVertex {
		slot = &prog.vertex
	}
	if *slot == sh {
		return
	}
	c.unref(*slot)
	sh.refs++
	*slot = sh
}

// LinkProgram checks that both stages are present, that the uniforms live in bind group 0
// and creates the layouts every pipeline of the program shares.
func (c *context) LinkProgram(p gpu.ProgramHandle) (string, bool) {
	prog, ok := c.programs[p]
	if !ok {
		return fmt.Sprintf("unknown program %d", p), false
	}
	if prog.vertex == nil || prog.vertex.module == 0 {
		return "no compiled vertex stage attached", false
	}
	if prog.fragment == nil || prog.fragment.module == 0 {
		return "no compiled fragment stage attached", false
	}
	if len(prog.vertex.info.uniforms) != 1 {
		return fmt.Sprintf("expected one uniform matrix in group 0, found %d", len(prog.vertex.info.uniforms)), false
	}
	for _, binding := range prog.vertex.info.uniforms {
		prog.uniformBinding = binding
	}

	layout, err := c.bridge.CreateBindGroupLayout(c.device, []bridge.UniformLayoutEntry{{
		Binding:          prog.uniformBinding,
		Visibility:       gputypes.ShaderStageVertex,
		HasDynamicOffset: true,
		MinBindingSize:   matrixSize,
	}})
	if err != nil {
		return err.Error(), false
	}
	pipelineLayout, err := c.bridge.CreatePipelineLayout(c.device, []bridge.Handle{layout})
	if err != nil {
		c.bridge.Release(layout)
		return err.Error(), false
	}
	prog.bindGroupLayout, prog.pipelineLayout = layout, pipelineLayout
	prog.ring.alignment = uint64(max(c.limits.MinUniformBufferOffsetAlignment, 256))
	prog.linked = true
	return "", true
}

func (c *context) DeleteProgram(p gpu.ProgramHandle) {
	prog, ok := c.programs[p]
	if !ok {
		return
	}
	delete(c.programs, p)
	if c.current == prog {
		c.current = nil
	}
	for key, h := range prog.pipelines {
		c.bridge.Release(h)
		delete(prog.pipelines, key)
	}
	prog.ring.release(c.bridge)
	c.release(&prog.pipelineLayout)
	c.release(&prog.bindGroupLayout)
	c.unref(prog.vertex)
	c.unref(prog.fragment)
}

func (c *context) AttribLocation(p gpu.ProgramHandle, name string) int {
	prog, ok := c.programs[p]
	if !ok || !prog.linked {
		return -1
	}
	if loc, ok := prog.vertex.info.inputs[name]; ok {
		return int(loc)
	}
	return -1
}

func (c *context) UniformLocation(p gpu.ProgramHandle, name string) int {
	prog, ok := c.programs[p]
	if !ok || !prog.linked {
		return -1
	}
	if binding, ok := prog.vertex.info.uniforms[name]; ok {
		return int(binding)
	}
	return -1
}

func (c *context) UseProgram(p gpu.ProgramHandle) {
	if prog, ok := c.programs[p]; ok && prog.linked {
		c.current = prog
	}
}
