package lights

import "github.com/df07/spectral-tracer/pkg/core"

// Sampler picks one light among a scene's registered lamps for direct
// lighting, spec.md §4.K's pick_lamp contract.
type Sampler interface {
	Pick(rng *core.RNG) (light Light, pdf float64, ok bool)
	Count() int
}

// Uniform picks among its lights with equal probability 1/N, the
// simplest unbiased lamp sampler and the one the teacher's scene
// package and pyrite's world both default to.
type Uniform struct {
	Lights []Light
}

func NewUniform(lights []Light) *Uniform {
	return &Uniform{Lights: lights}
}

func (u *Uniform) Count() int { return len(u.Lights) }

func (u *Uniform) Pick(rng *core.RNG) (Light, float64, bool) {
	n := len(u.Lights)
	if n == 0 {
		return nil, 0, false
	}
	idx := rng.Intn(n)
	return u.Lights[idx], 1.0 / float64(n), true
}
