package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

// Names bound by the default program.
const (
	AttributePosition          = "aPosition"
	AttributeColor             = "aColor"
	AttributeSize              = "aSize"
	UniformModelViewProjection = "uModelViewProjection"
)

var (
	defaultAttributes = []string{AttributePosition, AttributeColor, AttributeSize}
	defaultUniforms   = []string{UniformModelViewProjection}
)

const glsl330Vertex = `#version 330 core
in vec3 aPosition;
in vec3 aColor;
in float aSize;
uniform mat4 uModelViewProjection;
out vec3 vColor;
void main() {
	gl_Position = uModelViewProjection * vec4(aPosition, 1.0);
	gl_PointSize = aSize;
	vColor = aColor;
}
`

const glsl330Fragment = `#version 330 core
in vec3 vColor;
out vec4 fragColor;
void main() {
	fragColor = vec4(vColor, 1.0);
}
`

const glslES300Vertex = `#version 300 es
in vec3 aPosition;
in vec3 aColor;
in float aSize;
uniform mat4 uModelViewProjection;
out vec3 vColor;
void main() {
	gl_Position = uModelViewProjection * vec4(aPosition, 1.0);
	gl_PointSize = aSize;
	vColor = aColor;
}
`

const glslES300Fragment = `#version 300 es
precision mediump float;
in vec3 vColor;
out vec4 fragColor;
void main() {
	fragColor = vec4(vColor, 1.0);
}
`

const glslES100Vertex = `attribute vec3 aPosition;
attribute vec3 aColor;
attribute float aSize;
uniform mat4 uModelViewProjection;
varying vec3 vColor;
void main() {
	gl_Position = uModelViewProjection * vec4(aPosition, 1.0);
	gl_PointSize = aSize;
	vColor = aColor;
}
`

const glslES100Fragment = `precision mediump float;
varying vec3 vColor;
void main() {
	gl_FragColor = vec4(vColor, 1.0);
}
`

// WebGPU has no point size; aSize is declared so the shared vertex layout validates.
const wgslVertex = `@group(0) @binding(0) var<uniform> uModelViewProjection: mat4x4<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
};

@vertex
fn vs_main(@location(0) aPosition: vec3<f32>, @location(1) aColor: vec3<f32>, @location(2) aSize: f32) -> VertexOutput {
    var out: VertexOutput;
    out.position = uModelViewProjection * vec4<f32>(aPosition, 1.0);
    out.color = aColor;
    return out;
}
`

const wgslFragment = `@fragment
fn fs_main(@location(0) color: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color, 1.0);
}
`

// DefaultProgramSource returns the shader sources of the default program for a context.
//
// Parameters:
//   - backend: the context's API family
//   - variant: the negotiated variant, used to pick the WebGL shading language version
//
// Returns:
//   - shader.Source: the vertex and fragment sources
func DefaultProgramSource(backend gpu.Backend, variant string) shader.Source {
	switch backend {
	case gpu.BackendNative:
		return shader.Source{Vertex: wgslVertex, Fragment: wgslFragment}
	case gpu.BackendWebGL:
		if variant == "webgl2" {
			return shader.Source{Vertex: glslES300Vertex, Fragment: glslES300Fragment}
		}
		return shader.Source{Vertex: glslES100Vertex, Fragment: glslES100Fragment}
	default:
		return shader.Source{Vertex: glsl330Vertex, Fragment: glsl330Fragment}
	}
}
