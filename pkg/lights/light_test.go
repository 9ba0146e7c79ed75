package lights

import (
	"math"
	"testing"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/geom"
	"github.com/df07/spectral-tracer/pkg/material"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

type fakeResources struct{}

func (fakeResources) SampleSpectrum(id int, wavelength float64) float64 { return 0 }
func (fakeResources) SampleColorTexture(id int, uv core.Vec2) core.Vec3 {
	return core.Vec3{}
}
func (fakeResources) SampleMonoTexture(id int, uv core.Vec2) float64 { return 0 }

func whiteRgbProgram(arena *shader.Arena, compiler *shader.Compiler, v float64) *shader.Program {
	id := arena.Rgb(arena.Number(v), arena.Number(v), arena.Number(v))
	prog, err := compiler.Compile(id, shader.KindRgb)
	if err != nil {
		panic(err)
	}
	return prog
}

func newBundleAndPool() (spectrum.Bundle, *spectrum.Pool) {
	return spectrum.Bundle{500, 550, 600, 650}, spectrum.NewPool(4)
}

func TestPointLightIntensityFallsOffWithSquaredDistance(t *testing.T) {
	arena := shader.NewArena()
	compiler := shader.NewCompiler(arena)
	light := NewPoint(core.NewVec3(0, 10, 0), whiteRgbProgram(arena, compiler, 100))

	bundle, pool := newBundleAndPool()
	vm := shader.NewVM()
	rng := core.NewRNG(1)

	sample, ok := light.Sample(core.NewVec3(0, 0, 0), core.Vec2{}, bundle, pool, vm, fakeResources{}, rng)
	if !ok {
		t.Fatal("expected a valid point-light sample")
	}
	if !sample.IsDelta || sample.PDF != 0 {
		t.Fatalf("point light samples should be delta with pdf 0, got %+v", sample)
	}
	if math.Abs(sample.Distance-10) > 1e-9 {
		t.Errorf("expected distance 10, got %v", sample.Distance)
	}
	if math.Abs(sample.Direction.Y-1) > 1e-9 {
		t.Errorf("expected direction straight up, got %v", sample.Direction)
	}
	if sample.Emission.IsBlack() {
		t.Fatal("expected non-zero emission at distance 10")
	}

	// Halving the distance must quadruple the received intensity.
	near, ok := light.Sample(core.NewVec3(0, 5, 0), core.Vec2{}, bundle, pool, vm, fakeResources{}, rng)
	if !ok {
		t.Fatal("expected a valid point-light sample at distance 5")
	}
	for i := 0; i < bundle.Len(); i++ {
		if math.Abs(near.Emission.At(i)-4*sample.Emission.At(i)) > 1e-9*math.Max(1, near.Emission.At(i)) {
			t.Errorf("bin %d: emission at distance 5 is %v, want 4x the distance-10 value %v", i, near.Emission.At(i), sample.Emission.At(i))
		}
	}
	near.Emission.Release()
	sample.Emission.Release()
}

func TestPointLightSampleFailsAtZeroDistance(t *testing.T) {
	arena := shader.NewArena()
	compiler := shader.NewCompiler(arena)
	light := NewPoint(core.NewVec3(0, 0, 0), whiteRgbProgram(arena, compiler, 1))
	bundle, pool := newBundleAndPool()
	vm := shader.NewVM()
	rng := core.NewRNG(1)

	if _, ok := light.Sample(core.NewVec3(0, 0, 0), core.Vec2{}, bundle, pool, vm, fakeResources{}, rng); ok {
		t.Error("expected sampling a point light at its own position to fail")
	}
}

func TestDirectionalLightAlwaysReturnsItsDirection(t *testing.T) {
	arena := shader.NewArena()
	compiler := shader.NewCompiler(arena)
	light := NewDirectional(core.NewVec3(0, -1, 0), whiteRgbProgram(arena, compiler, 2), 5)

	bundle, pool := newBundleAndPool()
	vm := shader.NewVM()
	rng := core.NewRNG(1)

	for _, p := range []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(3, 1, -2)} {
		sample, ok := light.Sample(p, core.Vec2{}, bundle, pool, vm, fakeResources{}, rng)
		if !ok {
			t.Fatal("directional light should always illuminate")
		}
		if math.Abs(sample.Direction.Y-1) > 1e-9 {
			t.Errorf("expected direction opposite travel direction, got %v", sample.Direction)
		}
		if !math.IsInf(sample.Distance, 1) {
			t.Errorf("expected infinite distance, got %v", sample.Distance)
		}
		sample.Emission.Release()
	}
}

func buildEmissiveSphere(t *testing.T, center core.Vec3, radius float64) *geom.Sphere {
	t.Helper()
	arena := shader.NewArena()
	emission := arena.Rgb(arena.Number(10), arena.Number(10), arena.Number(10))
	flat, err := material.Build(&material.Emissive{Emission: emission}, arena, shader.NoExpr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return geom.NewSphere(center, radius, flat)
}

func TestShapeLightSampleIsWithinSolidAngleOfHemisphere(t *testing.T) {
	sphere := buildEmissiveSphere(t, core.NewVec3(0, 5, 0), 1)
	light := NewShape(sphere)

	bundle, pool := newBundleAndPool()
	vm := shader.NewVM()
	rng := core.NewRNG(42)

	point := core.NewVec3(0, 0, 0)
	for i := 0; i < 20; i++ {
		sample, ok := light.Sample(point, core.Vec2{}, bundle, pool, vm, fakeResources{}, rng)
		if !ok {
			t.Fatal("expected a valid shape-light sample")
		}
		if sample.IsDelta {
			t.Error("shape lights are not delta")
		}
		if sample.PDF <= 0 {
			t.Error("expected a positive solid-angle pdf")
		}
		if sample.Direction.Y <= 0 {
			t.Errorf("direction toward a sphere overhead should point upward, got %v", sample.Direction)
		}
		if sample.Emission.IsBlack() {
			t.Error("expected nonzero emission from the visible hemisphere of an emissive sphere")
		}
		sample.Emission.Release()
	}
}

func TestShapeLightSolidAnglePDFMatchesClosedForm(t *testing.T) {
	sphere := buildEmissiveSphere(t, core.NewVec3(0, 10, 0), 2)
	light := NewShape(sphere)

	point := core.NewVec3(0, 0, 0)
	got := light.PDF(point, core.NewVec3(0, 1, 0))
	expected, ok := sphere.SolidAngleTowards(point)
	if !ok {
		t.Fatal("expected a closed-form solid angle for a sphere")
	}
	if math.Abs(got-1.0/expected) > 1e-9 {
		t.Errorf("PDF should be 1/solidAngle, got %v want %v", got, 1.0/expected)
	}
}

func TestUniformSamplerPicksAmongAllLights(t *testing.T) {
	arena := shader.NewArena()
	compiler := shader.NewCompiler(arena)
	a := NewPoint(core.NewVec3(1, 0, 0), whiteRgbProgram(arena, compiler, 1))
	b := NewPoint(core.NewVec3(-1, 0, 0), whiteRgbProgram(arena, compiler, 1))
	sampler := NewUniform([]Light{a, b})

	if sampler.Count() != 2 {
		t.Fatalf("expected 2 lights, got %d", sampler.Count())
	}
	rng := core.NewRNG(9)
	seen := map[Light]bool{}
	for i := 0; i < 50; i++ {
		light, pdf, ok := sampler.Pick(rng)
		if !ok {
			t.Fatal("expected a valid pick")
		}
		if math.Abs(pdf-0.5) > 1e-9 {
			t.Errorf("expected uniform pdf 0.5, got %v", pdf)
		}
		seen[light] = true
	}
	if len(seen) != 2 {
		t.Error("expected both lights to be picked across 50 draws")
	}
}

func TestUniformSamplerEmptyFails(t *testing.T) {
	sampler := NewUniform(nil)
	rng := core.NewRNG(1)
	if _, _, ok := sampler.Pick(rng); ok {
		t.Error("expected picking from an empty sampler to fail")
	}
}
