package spectrum

import (
	"math"
	"testing"
)

func TestRGBResponseLinearInInput(t *testing.T) {
	// Scaling an Rgb input must scale the integrated spectrum sample
	// linearly (testable property 6's Mix test relies on this).
	const lambda = 611.0
	a := RGBToSpectrumSample(1, 0, 0, lambda)
	b := RGBToSpectrumSample(0.7, 0, 0, lambda)
	if math.Abs(b-0.7*a) > 1e-9 {
		t.Errorf("response not linear: f(0.7)=%v, 0.7*f(1)=%v", b, 0.7*a)
	}
}

func TestMixRedGreenMatchesResponseCurves(t *testing.T) {
	// Mirrors spec.md §8 scenario 6: Mix(0.3, Rgb(1,0,0), Rgb(0,1,0))
	// evaluated at a wavelength should give 0.7*R(lambda) + 0.3*G(lambda).
	const lambda = 550.0
	amount := 0.3
	red := RGBToSpectrumSample(1, 0, 0, lambda)
	green := RGBToSpectrumSample(0, 1, 0, lambda)
	mixed := (1-amount)*red + amount*green

	r, g, _ := RGBResponse(lambda)
	want := 0.7*r + 0.3*g
	if math.Abs(mixed-want) > 1e-9 {
		t.Errorf("mixed = %v, want %v", mixed, want)
	}
}

func TestCIEYPeaksNearGreen(t *testing.T) {
	peak := 0.0
	peakLambda := 0.0
	for lambda := 400.0; lambda <= 700; lambda++ {
		if y := CIEY(lambda); y > peak {
			peak = y
			peakLambda = lambda
		}
	}
	if peakLambda < 530 || peakLambda > 580 {
		t.Errorf("CIEY peak at %v nm, want ~555nm", peakLambda)
	}
}

func TestBlackbodyPeakShiftsWithTemperature(t *testing.T) {
	hot := Blackbody(450, 6000)
	cool := Blackbody(450, 3000)
	if hot <= cool {
		t.Errorf("hotter blackbody should radiate relatively more blue: hot=%v cool=%v", hot, cool)
	}
}

func TestGammaEncodeSRGBMonotonic(t *testing.T) {
	prev := -1.0
	for c := 0.0; c <= 1.0; c += 0.1 {
		v := GammaEncodeSRGB(c)
		if v < prev {
			t.Fatalf("gamma encode not monotonic at c=%v", c)
		}
		prev = v
	}
}
