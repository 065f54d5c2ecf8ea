//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/guipaint"
	"github.com/gogpu/guipaint/internal/blend"
	"github.com/gogpu/guipaint/shader"
	"github.com/gogpu/wgpu/hal"
)

// meshVertexLayout returns the vertex buffer layout of a guipaint.Vertex.
// Layout per vertex:
//
//	pos   (vec2<f32>) = 8 bytes (location 0)
//	uv    (vec2<f32>) = 8 bytes (location 1)
//	color (unorm8x4)  = 4 bytes (location 2)
//
// Total = 20 bytes per vertex.
func meshVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: guipaint.VertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2},
		},
	}}
}

// primitiveState draws unculled triangle lists. GUI meshes are emitted in
// either winding.
func primitiveState() gputypes.PrimitiveState {
	return gputypes.PrimitiveState{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		FrontFace: gputypes.FrontFaceCW,
		CullMode:  gputypes.CullModeNone,
	}
}

// layoutBinding is one resource the pipeline layout provides.
type layoutBinding struct {
	name           string
	group, binding uint32
	kind           shader.ResourceKind
}

// pipelineBindings lists the bindings created by createPipeline.
var pipelineBindings = []layoutBinding{
	{"transform", shader.TransformGroup, 0, shader.ResourceUniform},
	{"texture", shader.TextureGroup, shader.TextureBinding, shader.ResourceHandle},
	{"sampler", shader.TextureGroup, shader.SamplerBinding, shader.ResourceHandle},
}

// checkLayout verifies that the shader reads its resources where the
// pipeline layout binds them. Push constants cannot be set on a HAL render
// pass, so a shader using them is rejected too.
func checkLayout(iface *shader.Interface) error {
	for _, b := range pipelineBindings {
		res, ok := iface.Lookup(b.group, b.binding)
		if !ok {
			return fmt.Errorf("%w: no %s at group %d binding %d", ErrLayoutMismatch, b.name, b.group, b.binding)
		}
		if res.Kind != b.kind {
			return fmt.Errorf("%w: %s %q at group %d binding %d has kind %d", ErrLayoutMismatch, b.name, res.Name, b.group, b.binding, res.Kind)
		}
	}
	if iface.HasPushConstants() {
		return fmt.Errorf("%w: shader reads push constants", ErrLayoutMismatch)
	}
	return nil
}

// createPipeline compiles the mesh shader and creates the layouts and the
// render pipeline for the target format.
func (r *Renderer) createPipeline() error {
	src, err := shader.Source(r.opts.variant)
	if err != nil {
		return err
	}
	iface, err := shader.Reflect(r.opts.variant)
	if err != nil {
		return err
	}
	if err := checkLayout(iface); err != nil {
		return err
	}

	mod, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  r.label("mesh_shader"),
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return fmt.Errorf("compile mesh shader: %w", err)
	}
	r.shader = mod

	// Group 0: Transform uniform (vertex).
	transformLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: r.label("transform_layout"),
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: guipaint.TransformSize,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("create transform layout: %w", err)
	}
	r.transformLayout = transformLayout

	// Group 1: texture + filtering sampler (fragment).
	textureLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: r.label("texture_layout"),
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    shader.TextureBinding,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    shader.SamplerBinding,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture layout: %w", err)
	}
	r.textureLayout = textureLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            r.label("pipe_layout"),
		BindGroupLayouts: []hal.BindGroupLayout{r.transformLayout, r.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	premul := blend.Premultiplied()
	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  r.label("mesh_pipeline"),
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: shader.VertexEntryPoint,
			Buffers:    meshVertexLayout(),
		},
		Primitive: primitiveState(),
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: shader.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    r.format,
				Blend:     &premul,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create mesh pipeline: %w", err)
	}
	r.pipeline = pipeline
	return nil
}

// destroyPipeline releases pipeline objects in reverse creation order.
func (r *Renderer) destroyPipeline() {
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.textureLayout != nil {
		r.device.DestroyBindGroupLayout(r.textureLayout)
		r.textureLayout = nil
	}
	if r.transformLayout != nil {
		r.device.DestroyBindGroupLayout(r.transformLayout)
		r.transformLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

func addressMode(w guipaint.WrapMode) gputypes.AddressMode {
	switch w {
	case guipaint.WrapRepeat:
		return gputypes.AddressModeRepeat
	case guipaint.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

func filterMode(f guipaint.Filter) gputypes.FilterMode {
	if f == guipaint.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

// samplerDescriptor maps texture options to a sampler. GUI textures carry a
// single mip level.
func samplerDescriptor(label string, o guipaint.TextureOptions) *hal.SamplerDescriptor {
	wrap := addressMode(o.Wrap)
	return &hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: wrap,
		AddressModeV: wrap,
		AddressModeW: wrap,
		MagFilter:    filterMode(o.Magnification),
		MinFilter:    filterMode(o.Minification),
		MipmapFilter: gputypes.FilterModeNearest,
	}
}

// sampler returns the shared sampler for o, creating it on first use.
func (r *Renderer) sampler(o guipaint.TextureOptions) (hal.Sampler, error) {
	if s, ok := r.samplers[o]; ok {
		return s, nil
	}
	s, err := r.device.CreateSampler(samplerDescriptor(r.label("sampler"), o))
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	r.samplers[o] = s
	return s, nil
}
