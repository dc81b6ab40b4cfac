// Package field bakes the static vector field particles are advected through.
package field

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Charge is a signed point source. Charges only exist while baking.
type Charge struct {
	Q   float32
	Pos mgl32.Vec3
}

// RandomCharges draws count charges with Q in [-maxCharge, maxCharge) and
// each position component in [-posRange, posRange).
func RandomCharges(rng *rand.Rand, count int, maxCharge, posRange float32) []Charge {
	if count <= 0 {
		return nil
	}
	charges := make([]Charge, count)
	for i := range charges {
		charges[i] = Charge{
			Q: (rng.Float32()*2 - 1) * maxCharge,
			Pos: mgl32.Vec3{
				(rng.Float32()*2 - 1) * posRange,
				(rng.Float32()*2 - 1) * posRange,
				(rng.Float32()*2 - 1) * posRange,
			},
		}
	}
	return charges
}

const (
	DefaultSoftening = 1e-2
	// MinRadiusSq floors |p - pos|^2 so a sample on top of a charge stays finite.
	MinRadiusSq = 1e-8
)

// At is the summed contribution of charges at p: pc*(q/|pc|^3 + softening)
// with pc = p - pos. Accumulation runs in float64.
func At(charges []Charge, p mgl32.Vec3, softening float32) mgl32.Vec3 {
	var sx, sy, sz float64
	eps := float64(softening)
	for _, c := range charges {
		dx := float64(p[0] - c.Pos[0])
		dy := float64(p[1] - c.Pos[1])
		dz := float64(p[2] - c.Pos[2])
		r2 := math.Max(dx*dx+dy*dy+dz*dz, MinRadiusSq)
		k := float64(c.Q)/(r2*math.Sqrt(r2)) + eps
		sx += dx * k
		sy += dy * k
		sz += dz * k
	}
	return mgl32.Vec3{float32(sx), float32(sy), float32(sz)}
}
