package shaders

import (
	_ "embed"
)

// ParticlesWGSL holds the compute entry points fill, compute_field and integrate.
//
//go:embed particles.wgsl
var ParticlesWGSL string

//go:embed particle.wgsl
var ParticleWGSL string

//go:embed line.wgsl
var LineWGSL string

//go:embed text.wgsl
var TextWGSL string
