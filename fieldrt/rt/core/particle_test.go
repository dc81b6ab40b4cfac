package core

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticleLayout(t *testing.T) {
	assert.Equal(t, uintptr(ParticleSize), unsafe.Sizeof(Particle{}))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(Particle{}.Vel))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(Particle{}.Lifetime))
	assert.Equal(t, uintptr(12), unsafe.Sizeof(WireVertex{}))
	assert.Equal(t, uintptr(TextVertexSize), unsafe.Sizeof(TextVertex{}))
}

func TestHash31_Range(t *testing.T) {
	for i := 0; i < 20000; i++ {
		h := Hash31(float32(i) * 1.37)
		for c := 0; c < 3; c++ {
			require.GreaterOrEqual(t, h[c], float32(-1), "key %d component %d", i, c)
			require.Less(t, h[c], float32(1), "key %d component %d", i, c)
		}
	}
}

func TestHash31_Decorrelated(t *testing.T) {
	a, b := Hash31(10), Hash31(11)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a[0], a[1])
}

func TestSeedParticle_Deterministic(t *testing.T) {
	const maxLife = 6.0
	for _, seed := range []float32{0, 0.25, 0.9} {
		for _, idx := range []uint32{0, 1, 255, 256, 999999} {
			a := SeedParticle(idx, seed, maxLife)
			b := SeedParticle(idx, seed, maxLife)
			assert.Equal(t, a, b, "index %d seed %v", idx, seed)
		}
	}
}

func TestSeedParticle_Ranges(t *testing.T) {
	const maxLife = 6.0
	for idx := uint32(0); idx < 4096; idx++ {
		p := SeedParticle(idx, 0.5, maxLife)
		assert.Equal(t, float32(1), p.Pos[3])
		assert.Equal(t, float32(0), p.Vel[3])
		assert.LessOrEqual(t, p.Vel.Vec3().Len(), float32(InitialSpeed*1.8))
		assert.GreaterOrEqual(t, p.Lifetime, float32(maxLife*0.5))
		assert.Less(t, p.Lifetime, float32(maxLife*1.0)+1e-4)
	}
}

func TestSeedParticle_SeedChangesPopulation(t *testing.T) {
	a := SeedParticle(7, 0.1, 6)
	b := SeedParticle(7, 0.2, 6)
	assert.NotEqual(t, a.Pos, b.Pos)
}

func TestSimParams_Bytes(t *testing.T) {
	p := SimParams{Seed: 1, Dt: 0.5, Count: 4, MaxLifetime: 6, Damping: 0.98, FieldStrength: 0.1, SpeedLimit: 1.5}
	b := p.Bytes()
	require.Len(t, b, SimParamsSize)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, b[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0x3f}, b[4:8])
	assert.Equal(t, []byte{4, 0, 0, 0}, b[8:12])
	assert.Equal(t, p.Bytes(), b)
}

func TestCellWireframe(t *testing.T) {
	verts := CellWireframe()
	require.Len(t, verts, 16)
	for _, v := range verts {
		for c := 0; c < 3; c++ {
			assert.Contains(t, []float32{-1, 1}, v.Pos[c])
		}
	}
	// every segment is an edge of the cell along x or z
	for i := 0; i < len(verts); i += 2 {
		d := verts[i+1].Pos.Sub(verts[i].Pos)
		assert.Equal(t, float32(0), d[1])
		assert.InDelta(t, 2.0, d.Len(), 1e-6)
	}
	assert.Len(t, WireVertexBytes(verts), 16*12)
}

func TestDamping(t *testing.T) {
	const drag = 0.02
	assert.InDelta(t, 1-drag, Damping(drag, 1.0/DragRate), 1e-6)
	assert.Equal(t, float32(1), Damping(drag, 0))
	assert.Equal(t, float32(1), Damping(drag, -0.1))
	assert.Equal(t, float32(1), Damping(0, 0.05))

	// frame rate independent: half steps compose to a full step
	for _, dt := range []float32{1.0 / 144, 1.0 / 60, 0.05} {
		half := Damping(drag, dt/2)
		assert.InDelta(t, Damping(drag, dt), half*half, 1e-6, "dt=%v", dt)
	}
	assert.Less(t, Damping(drag, 0.05), Damping(drag, 1.0/60))
}
