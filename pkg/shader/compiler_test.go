package shader

import (
	"math"
	"testing"

	"github.com/df07/spectral-tracer/pkg/core"
)

type fakeResources struct{}

func (fakeResources) SampleSpectrum(id int, wavelength float64) float64 { return float64(id) * 0.1 }
func (fakeResources) SampleColorTexture(id int, uv core.Vec2) core.Vec3 {
	return core.Vec3{X: uv.X, Y: uv.Y, Z: 0}
}
func (fakeResources) SampleMonoTexture(id int, uv core.Vec2) float64 { return uv.X + uv.Y }

func TestCompileNumberArithmetic(t *testing.T) {
	arena := NewArena()
	a := arena.Number(3)
	b := arena.Number(4)
	sum := arena.Binary(OpAdd, a, b)

	prog, err := NewCompiler(arena).Compile(sum, KindNumber)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	vm := NewVM()
	got := vm.RunNumber(prog, Input{}, fakeResources{})
	if got != 7 {
		t.Errorf("3+4 = %v, want 7", got)
	}
}

func TestCompileSharesIdenticalSubexpressions(t *testing.T) {
	arena := NewArena()
	a := arena.Number(2)
	b := arena.Number(2)
	if a != b {
		t.Fatalf("identical Number constants should share one ExprID, got %v and %v", a, b)
	}
}

func TestCompilePromotesNumberToRgbInBinary(t *testing.T) {
	arena := NewArena()
	rgb := arena.Rgb(arena.Number(0.2), arena.Number(0.4), arena.Number(0.6))
	scaled := arena.Binary(OpMul, rgb, arena.Number(2))

	prog, err := NewCompiler(arena).Compile(scaled, KindRgb)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	vm := NewVM()
	got := vm.RunRgb(prog, Input{}, fakeResources{})
	want := core.Vec3{X: 0.4, Y: 0.8, Z: 1.2}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 || math.Abs(got.Z-want.Z) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCompileRejectsVectorRgbMix(t *testing.T) {
	arena := NewArena()
	v := arena.Vector(arena.Number(1), arena.Number(0), arena.Number(0), arena.Number(0))
	rgb := arena.Rgb(arena.Number(1), arena.Number(0), arena.Number(0))
	bad := arena.Binary(OpAdd, v, rgb)

	_, err := NewCompiler(arena).Compile(bad, KindRgb)
	if err == nil {
		t.Fatal("expected an error mixing Vector and Rgb operands directly")
	}
}

func TestCompileMixNumber(t *testing.T) {
	arena := NewArena()
	mix := arena.Mix(arena.Number(0), arena.Number(10), arena.Number(0.25))
	prog, err := NewCompiler(arena).Compile(mix, KindNumber)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := NewVM().RunNumber(prog, Input{}, fakeResources{})
	if math.Abs(got-2.5) > 1e-9 {
		t.Errorf("mix(0,10,0.25) = %v, want 2.5", got)
	}
}

func TestCompileWavelengthInputAndSpectrum(t *testing.T) {
	arena := NewArena()
	wl := arena.NumberInput(InputWavelength)
	sample := arena.Spectrum(5, wl)
	prog, err := NewCompiler(arena).Compile(sample, KindNumber)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := NewVM().RunNumber(prog, Input{Wavelength: 550}, fakeResources{})
	if got != 0.5 {
		t.Errorf("got %v, want 0.5 (fakeResources returns id*0.1)", got)
	}
}

func TestCompileBlackbody(t *testing.T) {
	arena := NewArena()
	bb := arena.Blackbody(arena.Number(550), arena.Number(5778))
	prog, err := NewCompiler(arena).Compile(bb, KindNumber)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := NewVM().RunNumber(prog, Input{}, fakeResources{})
	if got <= 0 || got > 1 {
		t.Errorf("normalized blackbody radiance should be in (0,1], got %v", got)
	}
}

func TestCompileReusedAcrossMultipleRuns(t *testing.T) {
	arena := NewArena()
	wl := arena.NumberInput(InputWavelength)
	prog, err := NewCompiler(arena).Compile(wl, KindNumber)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	vm := NewVM()
	if got := vm.RunNumber(prog, Input{Wavelength: 400}, fakeResources{}); got != 400 {
		t.Errorf("run 1: got %v, want 400", got)
	}
	if got := vm.RunNumber(prog, Input{Wavelength: 700}, fakeResources{}); got != 700 {
		t.Errorf("run 2: got %v, want 700", got)
	}
}
