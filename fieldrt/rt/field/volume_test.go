package field

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finite(v mgl32.Vec4) bool {
	for _, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}

func TestSynthesize_CountAndFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 40; trial++ {
		dims := Dims{1 + rng.Intn(9), 1 + rng.Intn(9), 1 + rng.Intn(9)}
		charges := RandomCharges(rng, rng.Intn(12), 10, 3)

		vol, err := Synthesize(charges, dims, DefaultOptions())
		require.NoError(t, err)
		require.Len(t, vol.Samples, dims.Width*dims.Height*dims.Depth, "dims %s", dims)
		for i, s := range vol.Samples {
			require.True(t, finite(s), "dims %s sample %d = %v", dims, i, s)
			require.Equal(t, float32(1), s[3])
		}
	}
}

func TestSynthesize_ChargeOnGridPoint(t *testing.T) {
	// the grid has a node at the origin when every axis has an odd count
	charges := []Charge{{Q: 10, Pos: mgl32.Vec3{0, 0, 0}}}
	vol, err := Synthesize(charges, Dims{5, 5, 5}, DefaultOptions())
	require.NoError(t, err)
	for _, s := range vol.Samples {
		require.True(t, finite(s))
	}
}

func TestSynthesize_Dims(t *testing.T) {
	vol, err := Synthesize(nil, Dims{0, 4, 4}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, vol.Samples)
	assert.Equal(t, Stats{}, vol.Stats())

	_, err = Synthesize(nil, Dims{-1, 4, 4}, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidDims)
}

func TestSynthesize_NoCharges(t *testing.T) {
	vol, err := Synthesize(nil, Dims{3, 3, 3}, DefaultOptions())
	require.NoError(t, err)
	for _, s := range vol.Samples {
		assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, s)
	}
}

func TestSynthesize_AxisOrder(t *testing.T) {
	// one charge far along -x: samples at larger x are pushed harder toward +x
	charges := []Charge{{Q: 1, Pos: mgl32.Vec3{-3, 0, 0}}}
	vol, err := Synthesize(charges, Dims{4, 3, 2}, Options{Softening: 1e-9})
	require.NoError(t, err)

	first := vol.Samples[0].Vec3()
	// index 1 is x=1, y=0, z=0
	second := vol.Samples[1].Vec3()
	assert.Greater(t, first[0], second[0])
	// index 8 is x=0, y=2: same x distance, opposite y offset
	assert.InDelta(t, -vol.Samples[0][1], vol.Samples[8][1], 1e-5)
}

func TestAt_PointChargeAtOrigin(t *testing.T) {
	charges := []Charge{{Q: 1, Pos: mgl32.Vec3{}}}
	v := At(charges, mgl32.Vec3{0.1, 0, 0}, 1e-2)

	assert.False(t, math.IsInf(float64(v[0]), 0))
	assert.Greater(t, v[0], float32(0))
	assert.InDelta(t, 0.0, v[1], 1e-9)
	assert.InDelta(t, 0.0, v[2], 1e-9)
	// q/r^2 + eps*r
	assert.InDelta(t, 100.001, v.Len(), 1e-3)
}

func TestAt_Singular(t *testing.T) {
	v := At([]Charge{{Q: -5, Pos: mgl32.Vec3{0.2, 0.2, 0.2}}}, mgl32.Vec3{0.2, 0.2, 0.2}, 1e-2)
	assert.True(t, finite(v.Vec4(1)))
}

func TestRandomCharges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	charges := RandomCharges(rng, 9, 10, 3)
	require.Len(t, charges, 9)
	for _, c := range charges {
		assert.GreaterOrEqual(t, c.Q, float32(-10))
		assert.Less(t, c.Q, float32(10))
		for a := 0; a < 3; a++ {
			assert.GreaterOrEqual(t, c.Pos[a], float32(-3))
			assert.Less(t, c.Pos[a], float32(3))
		}
	}
	assert.Nil(t, RandomCharges(rng, 0, 10, 3))

	again := RandomCharges(rand.New(rand.NewSource(7)), 9, 10, 3)
	assert.Equal(t, charges, again)
}

func TestVolume_SampleMatchesGrid(t *testing.T) {
	charges := []Charge{
		{Q: 5, Pos: mgl32.Vec3{1.5, 0.2, -0.3}},
		{Q: -3, Pos: mgl32.Vec3{-1.4, 1.2, 0.5}},
	}
	dims := Dims{5, 4, 3}
	vol, err := Synthesize(charges, dims, DefaultOptions())
	require.NoError(t, err)

	for z := 0; z < dims.Depth; z++ {
		for y := 0; y < dims.Height; y++ {
			for x := 0; x < dims.Width; x++ {
				p := mgl32.Vec3{normalize(x, dims.Width), normalize(y, dims.Height), normalize(z, dims.Depth)}
				want := vol.at(x, y, z)
				got := vol.Sample(p)
				for a := 0; a < 3; a++ {
					assert.InDelta(t, want[a], got[a], 1e-3*(1+math.Abs(float64(want[a]))))
				}
			}
		}
	}
}

func TestVolume_SampleInterpolates(t *testing.T) {
	vol := &Volume{Dims: Dims{2, 1, 1}, Samples: []mgl32.Vec4{{0, 0, 0, 1}, {2, 4, 6, 1}}}
	mid := vol.Sample(mgl32.Vec3{0, 0, 0})
	assert.InDelta(t, 1.0, mid[0], 1e-6)
	assert.InDelta(t, 2.0, mid[1], 1e-6)
	assert.InDelta(t, 3.0, mid[2], 1e-6)

	// one cell past the +x edge mirrors back onto the edge texel
	past := vol.Sample(mgl32.Vec3{3, 0, 0})
	assert.InDelta(t, 2.0, past[0], 1e-6)
	assert.Equal(t, mgl32.Vec3{}, (&Volume{}).Sample(mgl32.Vec3{}))
}

func TestMirror(t *testing.T) {
	got := make([]int, 0, 12)
	for i := -4; i < 8; i++ {
		got = append(got, mirror(i, 3))
	}
	assert.Equal(t, []int{2, 2, 1, 0, 0, 1, 2, 2, 1, 0, 0, 1}, got)
}

func TestVolume_Stats(t *testing.T) {
	vol := &Volume{Dims: Dims{3, 1, 1}, Samples: []mgl32.Vec4{{3, 4, 0, 1}, {0, 0, 0, 1}, {0, 0, 10, 1}}}
	s := vol.Stats()
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 10.0, s.Max, 1e-9)
	assert.InDelta(t, 5.0, s.StdDev, 1e-9)
}

func TestVolume_Bytes(t *testing.T) {
	vol := &Volume{Dims: Dims{1, 1, 1}, Samples: []mgl32.Vec4{{1, 0, 0, 1}}}
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x80, 0x3f}, vol.Bytes())
}

func TestSynthesize_Turbulence(t *testing.T) {
	dims := Dims{4, 4, 4}
	plain, err := Synthesize(nil, dims, DefaultOptions())
	require.NoError(t, err)
	noisy, err := Synthesize(nil, dims, Options{Softening: DefaultSoftening, Turbulence: 0.5, NoiseSeed: 42})
	require.NoError(t, err)
	again, err := Synthesize(nil, dims, Options{Softening: DefaultSoftening, Turbulence: 0.5, NoiseSeed: 42})
	require.NoError(t, err)

	assert.NotEqual(t, plain.Samples, noisy.Samples)
	assert.Equal(t, noisy.Samples, again.Samples)
	for _, s := range noisy.Samples {
		require.True(t, finite(s))
	}
}
