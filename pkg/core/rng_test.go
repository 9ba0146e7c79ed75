package core

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(12345)
	b := NewRNG(12345)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
}

func TestRNGFloat64Range(t *testing.T) {
	rng := NewRNG(1)
	for i := 0; i < 10000; i++ {
		v := rng.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64 out of range: %v", v)
		}
	}
}

func TestRNGZeroSeedRemapped(t *testing.T) {
	rng := NewRNG(0)
	// A true zero state would be a fixed point of XorShift; confirm we
	// escape it instead of producing all-zero draws forever.
	for i := 0; i < 5; i++ {
		if rng.Uint64() == 0 {
			t.Fatalf("zero-seeded RNG produced a zero draw at %d", i)
		}
	}
}
