package integrator

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
	"github.com/df07/spectral-tracer/pkg/world"
)

// Simple is spec.md §4.I's unidirectional path tracer: at each hit,
// take a direct-lighting sample if the surface has a diffuse
// component, sample one component to continue, propagate throughput
// by reflectivity*cos/pdf, and terminate on an emission-only hit,
// Russian roulette or the bounce cap.
//
// Grounded on original_source/pyrite/src/renderer/simple.rs's
// SimpleRenderer::render, whose contribute() loop is exactly this
// shape: gather emission, sample direct light if diffuse, sample a
// continuation, apply russian roulette.
type Simple struct {
	World  *world.World
	VM     *shader.VM
	Config Config
}

// TraceRay walks a single camera ray, returning the coherent-bundle
// radiance it gathers. The bundle and pool are owned by the caller; a
// fresh Coherent is returned drawn from pool, which the caller must
// release. Unidirectional path tracing never needs to land a sample
// anywhere but its own pixel, so splat is unused.
func (s *Simple) TraceRay(ray core.Ray, bundle spectrum.Bundle, pool *spectrum.Pool, res shader.Resources, rng *core.RNG, _ Splat) *spectrum.Coherent {
	radiance := pool.Get()
	throughput := pool.WithValue(1.0)
	s.walk(ray, bundle, pool, res, rng, s.Config.Bounces, throughput, radiance)
	throughput.Release()
	return radiance
}

// walk advances a coherent-bundle path for up to maxBounces steps,
// accumulating into radiance. If a bounce disperses the bundle (a
// dispersive refraction), the remaining bounces are walked as a
// single-bin hero-only path through a nested pool and folded back
// into radiance's bin 0 before returning — spec.md §4.E's "freeze
// every other wavelength bin from this bounce on".
func (s *Simple) walk(ray core.Ray, bundle spectrum.Bundle, pool *spectrum.Pool, res shader.Resources, rng *core.RNG, maxBounces int, throughput, radiance *spectrum.Coherent) {
	currentRay := ray
	for bounce := 0; bounce < maxBounces; bounce++ {
		sp, hit := s.World.Intersect(currentRay, world.Epsilon, world.Infinity)
		if !hit {
			sky := s.World.SkyEmission(currentRay, bundle, pool, s.VM, res)
			sky.MulLight(throughput)
			radiance.AddLight(sky)
			sky.Release()
			return
		}

		mat := sp.Material
		out := currentRay.Direction.Negate()
		normal := shadingNormal(sp, out, s.VM, res)

		emission := mat.LightEmission(out, normal, sp.UV, bundle, pool, s.VM, res)
		emission.MulLight(throughput)
		radiance.AddLight(emission)
		emission.Release()

		if !mat.HasScattering() {
			return
		}

		if hasDiffuse(mat) && s.Config.LightSamples > 0 {
			direct := sampleDirectLighting(s.World, sp, out, normal, bundle, pool, s.VM, res, rng, s.Config.LightSamples)
			direct.MulLight(throughput)
			radiance.AddLight(direct)
			direct.Release()
		}

		inter, ok := mat.SampleReflectionCoherent(out, normal, sp.UV, bundle, pool, s.VM, res, rng)
		if !ok {
			return
		}
		if inter.IsDelta {
			throughput.MulLight(inter.Reflectivity)
		} else {
			if inter.PDF <= 0 {
				inter.Reflectivity.Release()
				return
			}
			cos := math.Abs(inter.InDirection.Dot(normal))
			throughput.MulScalar(cos / inter.PDF).MulLight(inter.Reflectivity)
		}
		inter.Reflectivity.Release()
		if throughput.IsBlack() {
			return
		}

		currentRay = core.NewRay(offsetOrigin(sp, inter.InDirection), inter.InDirection)

		if inter.Dispersive {
			s.walkDispersed(currentRay, bundle.Hero(), res, rng, maxBounces-bounce-1, throughput.At(0), radiance)
			return
		}

		if !russianRoulette(rng, throughput) {
			return
		}
	}
}

// walkDispersed continues a path that has collapsed to a single
// wavelength after a dispersive refraction, running the same walk
// logic through a scratch one-bin pool so the hero wavelength's
// remaining bounces still reuse every coherent-path routine, and
// folds its result back into radiance's bin 0.
func (s *Simple) walkDispersed(ray core.Ray, wavelength float64, res shader.Resources, rng *core.RNG, maxBounces int, heroThroughput float64, radiance *spectrum.Coherent) {
	pool1 := spectrum.NewPool(1)
	bundle1 := spectrum.Bundle{wavelength}
	throughput1 := pool1.WithValue(heroThroughput)
	radiance1 := pool1.Get()
	s.walk(ray, bundle1, pool1, res, rng, maxBounces, throughput1, radiance1)
	radiance.Set(0, radiance.At(0)+radiance1.At(0))
	throughput1.Release()
	radiance1.Release()
}
