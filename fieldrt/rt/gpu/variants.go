package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pudnax/fidmag/fieldrt/rt/core"
	"github.com/pudnax/fidmag/fieldrt/rt/shaders"
)

// Variant is one GPU program configuration. The set is closed.
type Variant int

const (
	VariantSeed Variant = iota
	VariantSampleField
	VariantIntegrate
	VariantDrawWireframe
	VariantDrawParticles
	VariantDrawOverlay
	variantCount
)

// Variants lists every variant in declaration order.
func Variants() []Variant {
	out := make([]Variant, 0, variantCount)
	for v := Variant(0); v < variantCount; v++ {
		out = append(out, v)
	}
	return out
}

func (v Variant) String() string {
	if v >= 0 && v < variantCount {
		return specs[v].Label
	}
	return "unknown"
}

func (v Variant) IsCompute() bool {
	return v == VariantSeed || v == VariantSampleField || v == VariantIntegrate
}

// BindingKind is the resource type of one binding slot.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingStorage
	BindingFieldTexture
	BindingAtlasTexture
	BindingSampler
)

// Binding is one slot of a bind group; its index is its binding number.
type Binding struct {
	Kind       BindingKind
	Visibility wgpu.ShaderStage
}

// Spec is the data record describing how to build a variant.
type Spec struct {
	Label  string
	Shader string
	// ShaderLabel keys the shader module cache.
	ShaderLabel string

	ComputeEntry  string
	VertexEntry   string
	FragmentEntry string

	// Groups lists bind group layouts by group index.
	Groups [][]Binding

	Vertex          []wgpu.VertexBufferLayout
	Topology        wgpu.PrimitiveTopology
	Blend           *wgpu.BlendState
	DepthWrite      bool
	DepthCompare    wgpu.CompareFunction
	AlphaToCoverage bool
}

var (
	particleGroup = []Binding{{Kind: BindingStorage, Visibility: wgpu.ShaderStageCompute}}
	paramsGroup   = []Binding{{Kind: BindingUniform, Visibility: wgpu.ShaderStageCompute}}
	fieldGroup    = []Binding{{Kind: BindingFieldTexture, Visibility: wgpu.ShaderStageCompute}}
	cameraGroup   = []Binding{{Kind: BindingUniform, Visibility: wgpu.ShaderStageVertex}}
	atlasGroup    = []Binding{
		{Kind: BindingAtlasTexture, Visibility: wgpu.ShaderStageFragment},
		{Kind: BindingSampler, Visibility: wgpu.ShaderStageFragment},
	}

	alphaBlending = &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
		Alpha: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
	}
)

var specs = [variantCount]Spec{
	VariantSeed: {
		Label:        "seed",
		Shader:       shaders.ParticlesWGSL,
		ShaderLabel:  "particles.wgsl",
		ComputeEntry: "fill",
		Groups:       [][]Binding{particleGroup, paramsGroup},
	},
	VariantSampleField: {
		Label:        "sample_field",
		Shader:       shaders.ParticlesWGSL,
		ShaderLabel:  "particles.wgsl",
		ComputeEntry: "compute_field",
		Groups:       [][]Binding{particleGroup, paramsGroup, fieldGroup},
	},
	VariantIntegrate: {
		Label:        "integrate",
		Shader:       shaders.ParticlesWGSL,
		ShaderLabel:  "particles.wgsl",
		ComputeEntry: "integrate",
		Groups:       [][]Binding{particleGroup, paramsGroup},
	},
	VariantDrawWireframe: {
		Label:           "draw_wireframe",
		Shader:          shaders.LineWGSL,
		ShaderLabel:     "line.wgsl",
		VertexEntry:     "vs_main",
		FragmentEntry:   "fs_main",
		Groups:          [][]Binding{cameraGroup},
		Vertex:          []wgpu.VertexBufferLayout{VertexLayout(core.WireVertex{})},
		Topology:        wgpu.PrimitiveTopologyLineList,
		DepthWrite:      true,
		DepthCompare:    wgpu.CompareFunctionLess,
		AlphaToCoverage: true,
	},
	VariantDrawParticles: {
		Label:         "draw_particles",
		Shader:        shaders.ParticleWGSL,
		ShaderLabel:   "particle.wgsl",
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Groups:        [][]Binding{cameraGroup},
		Vertex:        []wgpu.VertexBufferLayout{VertexLayout(core.Particle{})},
		Topology:      wgpu.PrimitiveTopologyPointList,
		Blend:         alphaBlending,
		DepthWrite:    true,
		DepthCompare:  wgpu.CompareFunctionLess,
	},
	VariantDrawOverlay: {
		Label:         "draw_overlay",
		Shader:        shaders.TextWGSL,
		ShaderLabel:   "text.wgsl",
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Groups:        [][]Binding{atlasGroup},
		Vertex:        []wgpu.VertexBufferLayout{VertexLayout(core.TextVertex{})},
		Topology:      wgpu.PrimitiveTopologyTriangleList,
		Blend:         alphaBlending,
		DepthCompare:  wgpu.CompareFunctionAlways,
	},
}

// SpecFor returns the build record of v.
func SpecFor(v Variant) Spec {
	return specs[v]
}
