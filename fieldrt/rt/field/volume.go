package field

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrInvalidDims = errors.New("invalid field dimensions")

type Dims struct {
	Width, Height, Depth int
}

func (d Dims) Len() int { return d.Width * d.Height * d.Depth }

func (d Dims) String() string { return fmt.Sprintf("%dx%dx%d", d.Width, d.Height, d.Depth) }

type Options struct {
	Softening float32
	// Turbulence scales an added Perlin noise vector. Zero disables it.
	Turbulence float32
	NoiseSeed  int64
}

func DefaultOptions() Options {
	return Options{Softening: DefaultSoftening}
}

// Volume is a baked W*H*D grid of field vectors, x fastest. It is never
// modified after Synthesize returns.
type Volume struct {
	Dims    Dims
	Samples []mgl32.Vec4
}

// Synthesize bakes the field of charges over the [-1,1]^3 cell.
func Synthesize(charges []Charge, dims Dims, opts Options) (*Volume, error) {
	if dims.Width < 0 || dims.Height < 0 || dims.Depth < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDims, dims)
	}
	if opts.Softening == 0 {
		opts.Softening = DefaultSoftening
	}

	var noise *perlin.Perlin
	if opts.Turbulence > 0 {
		noise = perlin.NewPerlin(2, 2, 3, opts.NoiseSeed)
	}

	n := dims.Len()
	vol := &Volume{Dims: dims, Samples: make([]mgl32.Vec4, n)}
	plane := dims.Width * dims.Height
	for i := 0; i < n; i++ {
		p := mgl32.Vec3{
			normalize(i%dims.Width, dims.Width),
			normalize((i/dims.Width)%dims.Height, dims.Height),
			normalize(i/plane, dims.Depth),
		}
		v := At(charges, p, opts.Softening)
		if noise != nil {
			v = v.Add(noiseVector(noise, p).Mul(opts.Turbulence))
		}
		vol.Samples[i] = v.Vec4(1)
	}
	return vol, nil
}

// normalize maps grid index c of n to [-1, 1].
func normalize(c, n int) float32 {
	if n <= 1 {
		return 0
	}
	return float32(c)/float32(n-1)*2 - 1
}

// noiseVector samples three decorrelated noise channels at p.
func noiseVector(noise *perlin.Perlin, p mgl32.Vec3) mgl32.Vec3 {
	x, y, z := float64(p[0]), float64(p[1]), float64(p[2])
	return mgl32.Vec3{
		float32(noise.Noise3D(x, y, z)),
		float32(noise.Noise3D(x+31.7, y+11.3, z+7.9)),
		float32(noise.Noise3D(x+5.1, y+47.2, z+19.4)),
	}
}

func (v *Volume) at(x, y, z int) mgl32.Vec3 {
	return v.Samples[x+y*v.Dims.Width+z*v.Dims.Width*v.Dims.Height].Vec3()
}

// mirror folds i into [0, n) with mirrored repetition, the same addressing
// the compute shader applies to texel loads.
func mirror(i, n int) int {
	period := 2 * n
	m := i % period
	if m < 0 {
		m += period
	}
	if m >= n {
		m = period - 1 - m
	}
	return m
}

// Sample trilinearly interpolates the volume at p in cell coordinates
// ([-1,1] spans the grid) with mirrored addressing outside it.
func (v *Volume) Sample(p mgl32.Vec3) mgl32.Vec3 {
	if len(v.Samples) == 0 {
		return mgl32.Vec3{}
	}
	dims := [3]int{v.Dims.Width, v.Dims.Height, v.Dims.Depth}
	var base [3]int
	var frac [3]float32
	for a := 0; a < 3; a++ {
		g := (p[a] + 1) * 0.5 * float32(dims[a]-1)
		f := float32(math.Floor(float64(g)))
		base[a] = int(f)
		frac[a] = g - f
	}

	var out mgl32.Vec3
	for corner := 0; corner < 8; corner++ {
		w := float32(1)
		var idx [3]int
		for a := 0; a < 3; a++ {
			off := (corner >> a) & 1
			idx[a] = mirror(base[a]+off, dims[a])
			if off == 1 {
				w *= frac[a]
			} else {
				w *= 1 - frac[a]
			}
		}
		if w != 0 {
			out = out.Add(v.at(idx[0], idx[1], idx[2]).Mul(w))
		}
	}
	return out
}

type Stats struct {
	Mean   float64
	StdDev float64
	Max    float64
}

// Stats summarizes sample magnitudes.
func (v *Volume) Stats() Stats {
	if len(v.Samples) == 0 {
		return Stats{}
	}
	mags := make([]float64, len(v.Samples))
	for i, s := range v.Samples {
		mags[i] = float64(s.Vec3().Len())
	}
	mean, std := stat.MeanStdDev(mags, nil)
	return Stats{Mean: mean, StdDev: std, Max: floats.Max(mags)}
}

// Bytes is the RGBA32Float texel payload, little-endian.
func (v *Volume) Bytes() []byte {
	buf := make([]byte, len(v.Samples)*16)
	for i, s := range v.Samples {
		for c := 0; c < 4; c++ {
			binary.LittleEndian.PutUint32(buf[i*16+c*4:], math.Float32bits(s[c]))
		}
	}
	return buf
}
