package integrator

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/geom"
	"github.com/df07/spectral-tracer/pkg/material"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
	"github.com/df07/spectral-tracer/pkg/world"
)

// tileSeed derives a per-tile RNG seed from the configured base seed,
// so a render is reproducible tile-for-tile regardless of which
// worker happens to pick up which tile.
func tileSeed(base uint64, tileIndex int) uint64 {
	const mix = 0x9E3779B97F4A7C15
	return base + uint64(tileIndex)*mix + mix
}

// russianRoulette applies spec.md §4.I's termination rule in place:
// once throughput.Max() falls below rrThreshold, continue with
// probability clamp(max,0,1), scaling the survivor back up by 1/p so
// the estimator stays unbiased. Returns false when the path should
// stop.
func russianRoulette(rng *core.RNG, throughput *spectrum.Coherent) bool {
	m := throughput.Max()
	if m >= rrThreshold {
		return true
	}
	p := spectrum.Clamp01(m)
	if p <= 0 || rng.Float64() >= p {
		return false
	}
	throughput.MulScalar(1 / p)
	return true
}

// hasDiffuse reports whether a material has a component direct
// lighting can usefully sample towards (spec.md §4.I: "specular and
// emissive bounces skip direct lighting; they collect emission on the
// next hit").
func hasDiffuse(mat *material.Flat) bool {
	for _, c := range mat.Components {
		if c.Kind == material.KindDiffuse {
			return true
		}
	}
	return false
}

// shadingNormal returns the normal a BSDF/emission evaluation at sp
// should use: the material's NormalMap program perturbing the
// geometric normal within the surface's tangent frame when present,
// otherwise the geometric normal unchanged. Ray-offset math
// (offsetOrigin) always stays on the geometric normal to avoid
// shifting the next ray's origin by the perturbation.
func shadingNormal(sp geom.SurfacePoint, out core.Vec3, vm *shader.VM, res shader.Resources) core.Vec3 {
	tangent, bitangent := sp.Frame()
	return sp.Material.ShadingNormal(out, sp.Normal, tangent, bitangent, sp.UV, vm, res)
}

// offsetOrigin nudges a continuation ray's origin off the surface
// along the normal, on the same side as direction, so the next
// intersection test doesn't immediately re-hit the source surface.
func offsetOrigin(sp geom.SurfacePoint, direction core.Vec3) core.Vec3 {
	if direction.Dot(sp.Normal) < 0 {
		return sp.Position.Subtract(sp.Normal.Multiply(world.Epsilon))
	}
	return sp.Position.Add(sp.Normal.Multiply(world.Epsilon))
}

// sampleDirectLighting draws lightSamples direct-lighting samples at
// a diffuse hit, spec.md §4.I's "uniform-pick one lamp with
// probability 1/N, draw K samples from it, occlude-test, add
// lamp_color * BRDF(in,n,out) * cos_out / (N * K * 2*pi * pdf)". The
// returned bundle is owned by the caller and must be released. normal
// is the shading normal (shadingNormal's result) used for the cosine
// term and BRDF evaluation; ray offsets stay on sp's geometric normal.
func sampleDirectLighting(w *world.World, sp geom.SurfacePoint, out, normal core.Vec3, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG, lightSamples int) *spectrum.Coherent {
	result := pool.Get()
	n := w.Lights.Count()
	if n == 0 || lightSamples <= 0 {
		return result
	}
	norm := 1.0 / (float64(n) * float64(lightSamples) * 2 * math.Pi)

	light, lightPDF, ok := w.PickLamp(rng)
	if !ok || lightPDF <= 0 {
		return result
	}
	for k := 0; k < lightSamples; k++ {
		ls, ok := light.Sample(sp.Position, rng.Vec2(), bundle, pool, vm, res, rng)
		if !ok {
			continue
		}
		if ls.Emission.IsBlack() {
			ls.Emission.Release()
			continue
		}
		cosOut := ls.Direction.Dot(normal)
		if cosOut <= 0 {
			ls.Emission.Release()
			continue
		}

		weight := 1.0
		if !ls.IsDelta {
			if ls.PDF <= 0 {
				ls.Emission.Release()
				continue
			}
			weight = 1.0 / ls.PDF
		}

		shadowOrigin := offsetOrigin(sp, ls.Direction)
		maxDist := ls.Distance - world.Epsilon
		if maxDist > world.Epsilon && w.Occluded(core.NewRay(shadowOrigin, ls.Direction), world.Epsilon, maxDist) {
			ls.Emission.Release()
			continue
		}

		brdf := sp.Material.EvaluateCoherent(out, normal, ls.Direction, sp.UV, bundle, pool, vm, res)
		brdf.MulLight(ls.Emission).MulScalar(cosOut * weight * norm / lightPDF)
		result.AddLight(brdf)
		brdf.Release()
		ls.Emission.Release()
	}
	return result
}
