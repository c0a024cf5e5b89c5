package renderable

// meshShaderSource draws an indexed triangle mesh with interleaved
// position+color vertices, transformed by the camera view-projection and
// a per-mesh model matrix.
const meshShaderSource = `
struct Camera {
    view_proj: mat4x4<f32>,
    position: vec3<f32>,
}

@group(0) @binding(0) var<uniform> camera: Camera;
@group(1) @binding(0) var<uniform> model: mat4x4<f32>;

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) color: vec3<f32>,
}

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = camera.view_proj * model * vec4<f32>(in.position, 1.0);
    out.color = in.color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color, 1.0);
}
`

// flatShaderSource draws position-only 2D geometry in clip space with a
// single uniform color. Group 0 stays reserved for the camera so the
// pipeline layout is uniform across variants.
const flatShaderSource = `
struct FlatParams {
    color: vec4<f32>,
}

@group(1) @binding(0) var<uniform> params: FlatParams;

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.color;
}
`
