package material

import (
	"math"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// Interaction is the result of sampling a direction off a material:
// the incoming direction the path continues along, the spectral
// reflectivity of that bounce, its sampling density and whether the
// density is a Dirac delta (mirror/refractive components never have a
// finite pdf, so MIS weighting skips them).
type Interaction struct {
	InDirection  core.Vec3
	Reflectivity *spectrum.Coherent
	PDF          float64
	IsDelta      bool
	// Dispersive is set when the sampled component is a refractive leaf
	// with a non-zero Cauchy coefficient: the chosen direction was
	// computed at the bundle's hero wavelength only, and the caller must
	// stop advancing every other wavelength bin from this bounce on,
	// per spec.md §4.E's dispersion bookkeeping.
	Dispersive bool
}

// evalInput builds the shading-VM input for the given geometric state.
// Incident is the direction the viewing ray travels (the negation of
// out), matching the convention every instruction reading InputNormal
// or InputIncident expects.
func evalInput(out, normal core.Vec3, uv core.Vec2, wavelength float64) shader.Input {
	return shader.Input{
		Wavelength: wavelength,
		Normal:     core.NewVec4(normal.X, normal.Y, normal.Z, 0),
		Incident:   core.NewVec4(-out.X, -out.Y, -out.Z, 0),
		UV:         core.NewVec4(uv.X, uv.Y, 0, 0),
	}
}

func rgbOf(prog *shader.Program, vm *shader.VM, out, normal core.Vec3, uv core.Vec2, res shader.Resources) core.Vec3 {
	if prog == nil {
		return core.NewVec3(1, 1, 1)
	}
	return vm.RunRgb(prog, evalInput(out, normal, uv, 0), res)
}

func numberOf(prog *shader.Program, vm *shader.VM, out, normal core.Vec3, uv core.Vec2, res shader.Resources) float64 {
	if prog == nil {
		return 0
	}
	return vm.RunNumber(prog, evalInput(out, normal, uv, 0), res)
}

// spectralFromRGB evaluates an RGB response at every wavelength in
// bundle and scales it, the inverse operation of the film package's
// spectral-to-RGB integration.
func spectralFromRGB(pool *spectrum.Pool, bundle spectrum.Bundle, rgb core.Vec3, scale float64) *spectrum.Coherent {
	c := pool.Get()
	for i := 0; i < bundle.Len(); i++ {
		c.Set(i, spectrum.RGBToSpectrumSample(rgb.X, rgb.Y, rgb.Z, bundle[i])*scale)
	}
	return c
}

// SampleReflectionCoherent draws a continuation direction for a path
// carrying a full wavelength bundle, spec.md §4.E's coherent sampling
// entry point. It picks one flattened component uniformly, samples its
// BSDF, and for non-delta components combines the result's pdf and
// reflectivity with every other diffuse sibling the way a one-sample
// MIS estimator over the component array requires.
func (f *Flat) SampleReflectionCoherent(out, normal core.Vec3, uv core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources, rng *core.RNG) (Interaction, bool) {
	n := len(f.Components)
	if n == 0 {
		return Interaction{}, false
	}
	idx := rng.Intn(n)
	chosen := f.Components[idx]

	in, pdf, isDelta, dispersive, ok := sampleDirection(chosen, out, normal, bundle.Hero(), vm, res, rng)
	if !ok {
		return Interaction{}, false
	}

	if !isDelta {
		for i, c := range f.Components {
			if i == idx || c.Kind != KindDiffuse {
				continue
			}
			pdf += diffusePDF(c, in, normal)
		}
		pdf /= float64(n)
	}

	var refl *spectrum.Coherent
	switch chosen.Kind {
	case KindDiffuse:
		rgb := rgbOf(chosen.Reflectance, vm, out, normal, uv, res)
		refl = spectralFromRGB(pool, bundle, rgb, 1.0/math.Pi)
		if !isDelta && n > 1 {
			reflected := in.Dot(normal)*out.Dot(normal) > 0
			if reflected {
				for i, c := range f.Components {
					if i == idx || c.Kind != KindDiffuse {
						continue
					}
					other := rgbOf(c.Reflectance, vm, out, normal, uv, res)
					otherSpec := spectralFromRGB(pool, bundle, other, 1.0/math.Pi)
					refl.AddLight(otherSpec)
					otherSpec.Release()
				}
			}
		}
	case KindMirror:
		rgb := rgbOf(chosen.Reflectance, vm, out, normal, uv, res)
		refl = spectralFromRGB(pool, bundle, rgb, 1.0)
	case KindRefractive:
		refl = pool.WithValue(1.0)
	}

	return Interaction{InDirection: in, Reflectivity: refl, PDF: pdf, IsDelta: isDelta, Dispersive: dispersive}, true
}

// SampleReflectionDispersed is the single-wavelength counterpart used
// once a path has collapsed to one dispersed sample (e.g. after a
// rough refraction chromatically separates it). It reuses the same
// component selection and sampling logic, evaluated at one wavelength.
func (f *Flat) SampleReflectionDispersed(out, normal core.Vec3, uv core.Vec2, wavelength int, bundle spectrum.Bundle, vm *shader.VM, res shader.Resources, rng *core.RNG) (core.Vec3, float64, float64, bool) {
	n := len(f.Components)
	if n == 0 {
		return core.Vec3{}, 0, 0, false
	}
	idx := rng.Intn(n)
	chosen := f.Components[idx]
	lambda := bundle[wavelength]
	in, pdf, _, _, ok := sampleDirection(chosen, out, normal, lambda, vm, res, rng)
	if !ok {
		return core.Vec3{}, 0, 0, false
	}

	var value float64
	switch chosen.Kind {
	case KindDiffuse:
		rgb := rgbOf(chosen.Reflectance, vm, out, normal, uv, res)
		value = spectrum.RGBToSpectrumSample(rgb.X, rgb.Y, rgb.Z, lambda) / math.Pi
	case KindMirror:
		rgb := rgbOf(chosen.Reflectance, vm, out, normal, uv, res)
		value = spectrum.RGBToSpectrumSample(rgb.X, rgb.Y, rgb.Z, lambda)
	case KindRefractive:
		value = 1.0
	}
	return in, value, pdf, true
}

// cauchyIOR evaluates a Cauchy two-term dispersion curve: base is the
// index at the curve's reference wavelength and k is the dispersion
// coefficient (nil/zero programs make the curve flat), per spec.md
// §4.E's "index of refraction varies with wavelength" requirement.
func cauchyIOR(base, k, wavelengthNM float64) float64 {
	if k == 0 {
		return base
	}
	um := wavelengthNM * 1e-3
	return base + k/(um*um)
}

// sampleDirection draws an incoming direction from one flattened
// component's BSDF at the given wavelength. pdf is 0 and isDelta is
// true for mirror and refractive components, matching their
// Dirac-delta distributions. dispersive reports whether a refractive
// component's IOR actually varies with wavelength at this hit; callers
// sampling a whole bundle must treat that as the bundle collapsing to
// a single dispersed wavelength from this bounce on.
func sampleDirection(c Component, out, normal core.Vec3, wavelengthNM float64, vm *shader.VM, res shader.Resources, rng *core.RNG) (in core.Vec3, pdf float64, isDelta bool, dispersive bool, ok bool) {
	switch c.Kind {
	case KindDiffuse:
		in = core.RandomCosineDirection(normal, rng)
		return in, diffusePDF(c, in, normal), false, false, true
	case KindMirror:
		in = out.Negate().Reflect(normal)
		return in, 0, true, false, true
	case KindRefractive:
		baseIOR := numberOf(c.IOR, vm, out, normal, core.Vec2{}, res)
		if baseIOR <= 0 {
			baseIOR = 1.5
		}
		envBase := 1.0
		if c.EnvIOR != nil {
			envBase = numberOf(c.EnvIOR, vm, out, normal, core.Vec2{}, res)
		}
		k := numberOf(c.Dispersion, vm, out, normal, core.Vec2{}, res)
		envK := numberOf(c.EnvDispersion, vm, out, normal, core.Vec2{}, res)
		dispersive = k != 0 || envK != 0

		ior := cauchyIOR(baseIOR, k, wavelengthNM)
		envIOR := cauchyIOR(envBase, envK, wavelengthNM)

		entering := out.Dot(normal) > 0
		n := normal
		eta := envIOR / ior
		if !entering {
			n = normal.Negate()
			eta = ior / envIOR
		}
		cosine := out.Dot(n)
		reflectProb := core.Schlick(cosine, eta)
		if rng.Float64() < reflectProb {
			in = out.Negate().Reflect(normal)
			return in, 0, true, false, true
		}
		refracted, okR := out.Negate().Refract(n, eta)
		if !okR {
			in = out.Negate().Reflect(normal)
			return in, 0, true, false, true
		}
		return refracted, 0, true, dispersive, true
	}
	return core.Vec3{}, 0, false, false, false
}

func diffusePDF(c Component, in, normal core.Vec3) float64 {
	cos := in.Dot(normal)
	if cos <= 0 {
		return 0
	}
	return cos / math.Pi
}

// EvaluateCoherent returns the combined diffuse BSDF value f(out, in)
// for a wavelength bundle: the sum of every diffuse component's
// Lambertian reflectance/pi, the counterpart PDF needs for a
// direct-lighting sample whose direction is drawn towards a lamp
// rather than from the BSDF itself. Mirror and refractive components
// never contribute here — a light sample can't land exactly on a
// delta direction.
func (f *Flat) EvaluateCoherent(out, normal, in core.Vec3, uv core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources) *spectrum.Coherent {
	result := pool.Get()
	if in.Dot(normal) <= 0 || out.Dot(normal) <= 0 {
		return result
	}
	for _, c := range f.Components {
		if c.Kind != KindDiffuse {
			continue
		}
		rgb := rgbOf(c.Reflectance, vm, out, normal, uv, res)
		spec := spectralFromRGB(pool, bundle, rgb, 1.0/math.Pi)
		result.AddLight(spec)
		spec.Release()
	}
	return result
}

// PDF returns the combined sampling density of choosing direction in
// from out at normal: (1/n) * sum(component.pdf_weighted), where a
// diffuse component's pdf_weighted is cos(in,n)/pi scaled by its
// compiled selection probability. SampleReflectionCoherent's own
// combined pdf sums the same cos/pi terms without that weighting.
func (f *Flat) PDF(out, normal, in core.Vec3, uv core.Vec2, vm *shader.VM, res shader.Resources) float64 {
	n := len(f.Components)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, c := range f.Components {
		if c.Kind == KindDiffuse {
			sum += diffusePDF(c, in, normal) * numberOf(c.SelectionProb, vm, out, normal, uv, res)
		}
	}
	return sum / float64(n)
}

// ShadingNormal returns the perturbed shading normal at a hit: the
// geometric normal unless the material carries a NormalMap program, in
// which case the program's Rgb output is read as a tangent-space
// direction via the (c*2-1) convention and transformed into world
// space through the surface's tangent/bitangent/normal frame.
func (f *Flat) ShadingNormal(out, normal, tangent, bitangent core.Vec3, uv core.Vec2, vm *shader.VM, res shader.Resources) core.Vec3 {
	if f.NormalMap == nil {
		return normal
	}
	t := vm.RunRgb(f.NormalMap, evalInput(out, normal, uv, 0), res)
	perturbed := tangent.Multiply(t.X).Add(bitangent.Multiply(t.Y)).Add(normal.Multiply(t.Z))
	if perturbed.IsZero() {
		return normal
	}
	return perturbed.Normalize()
}

// LightEmission returns the spectral radiance an emissive component
// contributes towards out, zero unless some component is emissive and
// faces the query direction.
func (f *Flat) LightEmission(out, normal core.Vec3, uv core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources) *spectrum.Coherent {
	result := pool.Get()
	if out.Dot(normal) <= 0 {
		return result
	}
	for _, c := range f.Components {
		if c.Kind != KindEmissive {
			continue
		}
		rgb := rgbOf(c.Emission, vm, out, normal, uv, res)
		spec := spectralFromRGB(pool, bundle, rgb, 1.0)
		result.AddLight(spec)
		spec.Release()
	}
	return result
}
