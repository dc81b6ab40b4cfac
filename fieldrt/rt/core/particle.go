package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Particle matches the WGSL layout in particles.wgsl
// struct Particle { pos: vec4<f32>, vel: vec4<f32>, lifetime: f32, _pad: vec3<f32> }
// The struct tags drive the vertex buffer layout used by the particle draw.
type Particle struct {
	Pos      mgl32.Vec4 `fidmag:"layout" format:"float32x4" location:"0"`
	Vel      mgl32.Vec4 `fidmag:"layout" format:"float32x4" location:"1"`
	Lifetime float32    `fidmag:"layout" format:"float32" location:"2"`
	_        [3]float32
}

// ParticleSize is the byte stride of one Particle on the GPU.
const ParticleSize = 48

// SeedScale separates the key ranges of successive seeds.
const SeedScale = 65536.0

// VelocityKeyOffset decorrelates the velocity hash from the position hash.
const VelocityKeyOffset = 0.5

const InitialSpeed = 0.05

// Seeded lifetimes span [LifetimeBase, LifetimeBase+2*LifetimeSpread) of the
// configured maximum.
const (
	LifetimeBase   = 0.5
	LifetimeSpread = 0.25
)

// HashScale and HashBias are the constants of hash31.
var HashScale = [3]float32{0.1031, 0.1030, 0.0973}

const HashBias = 33.33

func fract(x float32) float32 {
	return x - float32(math.Floor(float64(x)))
}

// Hash31 maps a scalar key to three components in [-1, 1). It mirrors hash31
// in particles.wgsl operation for operation.
func Hash31(p float32) mgl32.Vec3 {
	p3 := mgl32.Vec3{
		fract(float32(p * HashScale[0])),
		fract(float32(p * HashScale[1])),
		fract(float32(p * HashScale[2])),
	}
	p3 = mgl32.Vec3{
		float32(p3[0] * float32(p3[1]+HashBias)),
		float32(p3[1] * float32(p3[2]+HashBias)),
		float32(p3[2] * float32(p3[0]+HashBias)),
	}
	x, y, z := p3[0], p3[1], p3[2]
	return mgl32.Vec3{
		fract(float32(float32(x+y)*z))*2 - 1,
		fract(float32(float32(x+z)*y))*2 - 1,
		fract(float32(float32(y+z)*x))*2 - 1,
	}
}

// ParticleKey is the hash key of particle index under seed.
func ParticleKey(index uint32, seed float32) float32 {
	return float32(index) + float32(seed*SeedScale)
}

// SeedParticle returns the initial record of particle index, as the fill
// pass writes it. Equal (index, seed, maxLifetime) always give bit-identical
// records.
func SeedParticle(index uint32, seed, maxLifetime float32) Particle {
	key := ParticleKey(index, seed)
	pos := Hash31(key)
	vel := Hash31(key + VelocityKeyOffset)
	life := Hash31(key + 2*VelocityKeyOffset)
	return Particle{
		Pos:      pos.Vec4(1),
		Vel:      vel.Mul(InitialSpeed).Vec4(0),
		Lifetime: maxLifetime * (LifetimeBase + LifetimeSpread*(life[0]+1)),
	}
}

// DragRate is the step rate drag is expressed at: drag is the fraction of
// velocity lost every 1/DragRate seconds.
const DragRate = 60

// Damping is the velocity factor for one step of dt seconds. Steps compose:
// two steps of dt/2 damp as much as one step of dt.
func Damping(drag, dt float32) float32 {
	if dt <= 0 {
		return 1
	}
	return float32(math.Pow(float64(1-drag), float64(dt)*DragRate))
}

// SimParams matches the WGSL uniform in particles.wgsl.
type SimParams struct {
	Seed             float32
	Dt               float32
	Count            uint32
	MaxLifetime      float32
	RespawnThreshold float32
	Damping          float32
	FieldStrength    float32
	SpeedLimit       float32
}

const SimParamsSize = 32

// Bytes packs the params little-endian in declaration order.
func (p SimParams) Bytes() []byte {
	buf := make([]byte, SimParamsSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(p.Seed))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(p.Dt))
	binary.LittleEndian.PutUint32(buf[8:12], p.Count)
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(p.MaxLifetime))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(p.RespawnThreshold))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(p.Damping))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(p.FieldStrength))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(p.SpeedLimit))
	return buf
}

// WireVertex is one endpoint of a wireframe line.
type WireVertex struct {
	Pos mgl32.Vec3 `fidmag:"layout" format:"float32x3" location:"0"`
}

// CellWireframe returns the line list outlining the bottom and top faces of
// the [-1,1] cell the field is baked over.
func CellWireframe() []WireVertex {
	verts := make([]WireVertex, 0, 16)
	for _, y := range []float32{-1, 1} {
		corners := [4]mgl32.Vec3{{-1, y, -1}, {1, y, -1}, {1, y, 1}, {-1, y, 1}}
		for i := range corners {
			verts = append(verts, WireVertex{corners[i]}, WireVertex{corners[(i+1)%4]})
		}
	}
	return verts
}

// WireVertexBytes flattens vertices for upload.
func WireVertexBytes(verts []WireVertex) []byte {
	buf := make([]byte, len(verts)*12)
	for i, v := range verts {
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(buf[i*12+j*4:], math.Float32bits(v.Pos[j]))
		}
	}
	return buf
}
