package material

import (
	"math"
	"testing"

	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

type fakeResources struct{}

func (fakeResources) SampleSpectrum(id int, wavelength float64) float64 { return 0 }
func (fakeResources) SampleColorTexture(id int, uv core.Vec2) core.Vec3 {
	return core.Vec3{}
}
func (fakeResources) SampleMonoTexture(id int, uv core.Vec2) float64 { return 0 }

func whiteReflectance(arena *shader.Arena) shader.ExprID {
	return arena.Rgb(arena.Number(0.8), arena.Number(0.8), arena.Number(0.8))
}

func TestBuildSingleDiffuseComponent(t *testing.T) {
	arena := shader.NewArena()
	tree := &Diffuse{Reflectance: whiteReflectance(arena)}
	flat, err := Build(tree, arena, shader.NoExpr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(flat.Components) != 1 || flat.Components[0].Kind != KindDiffuse {
		t.Fatalf("expected one diffuse component, got %+v", flat.Components)
	}
}

func TestBuildMixSplitsSelectionProbability(t *testing.T) {
	arena := shader.NewArena()
	tree := &Mix{
		A:      &Diffuse{Reflectance: whiteReflectance(arena)},
		B:      &Mirror{Reflectance: whiteReflectance(arena)},
		Factor: arena.Number(0.3),
	}
	flat, err := Build(tree, arena, shader.NoExpr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(flat.Components) != 2 {
		t.Fatalf("expected 2 components from a Mix, got %d", len(flat.Components))
	}
	vm := shader.NewVM()
	in := shader.Input{}
	aProb := vm.RunNumber(flat.Components[0].SelectionProb, in, fakeResources{})
	bProb := vm.RunNumber(flat.Components[1].SelectionProb, in, fakeResources{})
	if math.Abs(aProb-0.7) > 1e-9 || math.Abs(bProb-0.3) > 1e-9 {
		t.Errorf("expected selection probs (0.7, 0.3), got (%v, %v)", aProb, bProb)
	}
}

func TestSampleReflectionCoherentDiffuseStaysInHemisphere(t *testing.T) {
	arena := shader.NewArena()
	flat, err := Build(&Diffuse{Reflectance: whiteReflectance(arena)}, arena, shader.NoExpr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	normal := core.NewVec3(0, 1, 0)
	out := core.NewVec3(0, 1, 0)
	pool := spectrum.NewPool(4)
	bundle := spectrum.Bundle{500, 550, 600, 650}
	vm := shader.NewVM()
	rng := core.NewRNG(7)

	for i := 0; i < 50; i++ {
		interaction, ok := flat.SampleReflectionCoherent(out, normal, core.Vec2{}, bundle, pool, vm, fakeResources{}, rng)
		if !ok {
			t.Fatal("expected a sampled interaction")
		}
		if interaction.InDirection.Dot(normal) <= 0 {
			t.Errorf("diffuse sample should stay in the upper hemisphere, got %v", interaction.InDirection)
		}
		if interaction.PDF <= 0 {
			t.Errorf("diffuse pdf should be positive, got %v", interaction.PDF)
		}
		interaction.Reflectivity.Release()
	}
}

func TestSampleReflectionCoherentMirrorIsDelta(t *testing.T) {
	arena := shader.NewArena()
	flat, err := Build(&Mirror{Reflectance: whiteReflectance(arena)}, arena, shader.NoExpr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	normal := core.NewVec3(0, 1, 0)
	out := core.NewVec3(0, 1, 0)
	pool := spectrum.NewPool(4)
	bundle := spectrum.Bundle{500, 550, 600, 650}
	vm := shader.NewVM()
	rng := core.NewRNG(3)

	interaction, ok := flat.SampleReflectionCoherent(out, normal, core.Vec2{}, bundle, pool, vm, fakeResources{}, rng)
	if !ok || !interaction.IsDelta || interaction.PDF != 0 {
		t.Fatalf("expected a delta mirror interaction with pdf 0, got %+v ok=%v", interaction, ok)
	}
	if math.Abs(interaction.InDirection.Y-1) > 1e-9 {
		t.Errorf("a straight-down mirror reflection off an up-facing normal should bounce straight back, got %v", interaction.InDirection)
	}
}

func TestLightEmissionZeroWhenFacingAway(t *testing.T) {
	arena := shader.NewArena()
	emission := arena.Rgb(arena.Number(5), arena.Number(5), arena.Number(5))
	flat, err := Build(&Emissive{Emission: emission}, arena, shader.NoExpr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	normal := core.NewVec3(0, 1, 0)
	away := core.NewVec3(0, -1, 0)
	pool := spectrum.NewPool(4)
	bundle := spectrum.Bundle{500, 550, 600, 650}
	vm := shader.NewVM()

	light := flat.LightEmission(away, normal, core.Vec2{}, bundle, pool, vm, fakeResources{})
	if !light.IsBlack() {
		t.Error("expected zero emission when viewed from behind the surface")
	}
}

func TestLightEmissionPositiveWhenFacingToward(t *testing.T) {
	arena := shader.NewArena()
	emission := arena.Rgb(arena.Number(5), arena.Number(5), arena.Number(5))
	flat, err := Build(&Emissive{Emission: emission}, arena, shader.NoExpr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	normal := core.NewVec3(0, 1, 0)
	toward := core.NewVec3(0, 1, 0)
	pool := spectrum.NewPool(4)
	bundle := spectrum.Bundle{500, 550, 600, 650}
	vm := shader.NewVM()

	light := flat.LightEmission(toward, normal, core.Vec2{}, bundle, pool, vm, fakeResources{})
	if light.IsBlack() {
		t.Error("expected nonzero emission when viewed from the front")
	}
}

func TestIsEmissiveDetectsEmissiveComponent(t *testing.T) {
	arena := shader.NewArena()
	flat, _ := Build(&Emissive{Emission: arena.Rgb(arena.Number(1), arena.Number(1), arena.Number(1))}, arena, shader.NoExpr)
	if !flat.IsEmissive() {
		t.Error("expected IsEmissive to report true")
	}
	flat2, _ := Build(&Diffuse{Reflectance: whiteReflectance(arena)}, arena, shader.NoExpr)
	if flat2.IsEmissive() {
		t.Error("expected IsEmissive to report false for a diffuse-only material")
	}
}
