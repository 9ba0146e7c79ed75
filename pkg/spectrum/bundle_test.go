package spectrum

import (
	"testing"

	"github.com/df07/spectral-tracer/pkg/core"
)

func TestSampleBundleStratifiedAndOrdered(t *testing.T) {
	rng := core.NewRNG(1)
	b := SampleBundle(rng, 8, DefaultLow, DefaultHigh)
	if len(b) != 8 {
		t.Fatalf("want 8 bins, got %d", len(b))
	}
	for _, w := range b {
		if w < DefaultLow || w >= DefaultHigh {
			t.Errorf("wavelength %v outside [%v,%v)", w, DefaultLow, DefaultHigh)
		}
	}
}

func TestBinIndexRoundTrip(t *testing.T) {
	// Testable property 5: wavelength -> bin -> representative wavelength
	// -> bin is idempotent.
	const n = 16
	for bin := 0; bin < n; bin++ {
		rep := RepresentativeWavelength(bin, DefaultLow, DefaultHigh, n)
		got := BinIndex(rep, DefaultLow, DefaultHigh, n)
		if got != bin {
			t.Errorf("bin %d -> wavelength %v -> bin %d, not idempotent", bin, rep, got)
		}
	}
}

func TestBinIndexClampsToRange(t *testing.T) {
	if got := BinIndex(DefaultLow-10, DefaultLow, DefaultHigh, 8); got != 0 {
		t.Errorf("below-range wavelength should clamp to bin 0, got %d", got)
	}
	if got := BinIndex(DefaultHigh+10, DefaultLow, DefaultHigh, 8); got != 7 {
		t.Errorf("above-range wavelength should clamp to last bin, got %d", got)
	}
}
