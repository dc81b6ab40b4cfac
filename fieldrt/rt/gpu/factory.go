package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Pipeline is a render pipeline together with the target key it was built for.
type Pipeline struct {
	Variant Variant
	Key     TargetKey
	Handle  *wgpu.RenderPipeline
}

func (p *Pipeline) Release() {
	if p != nil && p.Handle != nil {
		p.Handle.Release()
		p.Handle = nil
	}
}

// Factory builds pipelines from variant specs. Shader modules and bind group
// layouts are cached and shared across sample count changes.
type Factory struct {
	device  *wgpu.Device
	modules map[string]*wgpu.ShaderModule
	groups  map[Variant][]*wgpu.BindGroupLayout
	shared  map[string]*wgpu.BindGroupLayout
	layouts map[Variant]*wgpu.PipelineLayout
}

func NewFactory(device *wgpu.Device) *Factory {
	return &Factory{
		device:  device,
		modules: make(map[string]*wgpu.ShaderModule),
		groups:  make(map[Variant][]*wgpu.BindGroupLayout),
		shared:  make(map[string]*wgpu.BindGroupLayout),
		layouts: make(map[Variant]*wgpu.PipelineLayout),
	}
}

func (f *Factory) module(spec Spec) (*wgpu.ShaderModule, error) {
	if m, ok := f.modules[spec.ShaderLabel]; ok {
		return m, nil
	}
	m, err := f.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          spec.ShaderLabel,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: spec.Shader},
	})
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", spec.ShaderLabel, err)
	}
	f.modules[spec.ShaderLabel] = m
	return m, nil
}

func layoutEntry(index int, b Binding) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(index),
		Visibility: b.Visibility,
	}
	switch b.Kind {
	case BindingUniform:
		entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
	case BindingStorage:
		entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}
	case BindingFieldTexture:
		entry.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
			ViewDimension: wgpu.TextureViewDimension3D,
		}
	case BindingAtlasTexture:
		entry.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case BindingSampler:
		entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	}
	return entry
}

// GroupSignature identifies a bind group layout by its bindings. Variants
// with equal signatures share one layout object, so one bind group serves all.
func GroupSignature(bindings []Binding) string {
	sig := ""
	for i, b := range bindings {
		sig += fmt.Sprintf("%d:%d/%d;", i, b.Kind, b.Visibility)
	}
	return sig
}

// GroupLayouts returns the bind group layouts of v, by group index.
func (f *Factory) GroupLayouts(v Variant) ([]*wgpu.BindGroupLayout, error) {
	if l, ok := f.groups[v]; ok {
		return l, nil
	}
	spec := SpecFor(v)
	layouts := make([]*wgpu.BindGroupLayout, 0, len(spec.Groups))
	for g, bindings := range spec.Groups {
		sig := GroupSignature(bindings)
		if bgl, ok := f.shared[sig]; ok {
			layouts = append(layouts, bgl)
			continue
		}
		entries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
		for i, b := range bindings {
			entries[i] = layoutEntry(i, b)
		}
		bgl, err := f.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", spec.Label, g),
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("%s group %d layout: %w", spec.Label, g, err)
		}
		f.shared[sig] = bgl
		layouts = append(layouts, bgl)
	}
	f.groups[v] = layouts
	return layouts, nil
}

// GroupLayout is a single layout of v.
func (f *Factory) GroupLayout(v Variant, group int) (*wgpu.BindGroupLayout, error) {
	layouts, err := f.GroupLayouts(v)
	if err != nil {
		return nil, err
	}
	if group < 0 || group >= len(layouts) {
		return nil, fmt.Errorf("%s has no bind group %d", v, group)
	}
	return layouts[group], nil
}

func (f *Factory) pipelineLayout(v Variant) (*wgpu.PipelineLayout, error) {
	if l, ok := f.layouts[v]; ok {
		return l, nil
	}
	groups, err := f.GroupLayouts(v)
	if err != nil {
		return nil, err
	}
	layout, err := f.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            SpecFor(v).Label + " layout",
		BindGroupLayouts: groups,
	})
	if err != nil {
		return nil, fmt.Errorf("%s pipeline layout: %w", v, err)
	}
	f.layouts[v] = layout
	return layout, nil
}

// Compute builds the compute pipeline of a compute variant.
func (f *Factory) Compute(v Variant) (*wgpu.ComputePipeline, error) {
	if !v.IsCompute() {
		return nil, fmt.Errorf("%s is not a compute variant", v)
	}
	spec := SpecFor(v)
	module, err := f.module(spec)
	if err != nil {
		return nil, err
	}
	layout, err := f.pipelineLayout(v)
	if err != nil {
		return nil, err
	}
	p, err := f.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  spec.Label,
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: spec.ComputeEntry,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s compute pipeline: %w", v, err)
	}
	return p, nil
}

// Render builds the render pipeline of a draw variant for key.
func (f *Factory) Render(v Variant, key TargetKey) (*Pipeline, error) {
	if v.IsCompute() {
		return nil, fmt.Errorf("%s is not a draw variant", v)
	}
	spec := SpecFor(v)
	module, err := f.module(spec)
	if err != nil {
		return nil, err
	}
	layout, err := f.pipelineLayout(v)
	if err != nil {
		return nil, err
	}

	p, err := f.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  spec.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: spec.VertexEntry,
			Buffers:    spec.Vertex,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: spec.FragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format:    key.ColorFormat,
				Blend:     spec.Blend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  spec.Topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            key.DepthFormat,
			DepthWriteEnabled: spec.DepthWrite,
			DepthCompare:      spec.DepthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: key.SampleCount,
			Mask:  0xFFFFFFFF,
			// alpha-to-coverage needs a multisampled target
			AlphaToCoverageEnabled: spec.AlphaToCoverage && key.SampleCount > 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s render pipeline (%s): %w", v, key, err)
	}
	return &Pipeline{Variant: v, Key: key, Handle: p}, nil
}

func (f *Factory) Release() {
	for _, l := range f.layouts {
		l.Release()
	}
	for _, g := range f.shared {
		g.Release()
	}
	for _, m := range f.modules {
		m.Release()
	}
	f.layouts = make(map[Variant]*wgpu.PipelineLayout)
	f.groups = make(map[Variant][]*wgpu.BindGroupLayout)
	f.shared = make(map[string]*wgpu.BindGroupLayout)
	f.modules = make(map[string]*wgpu.ShaderModule)
}
