package spectrum

import "testing"

func TestPoolGetReturnsZeroed(t *testing.T) {
	pool := NewPool(4)
	c := pool.Get()
	if !c.IsBlack() {
		t.Fatal("fresh bundle should be all zero")
	}
	c.AddScalar(1)
	c.Release()

	c2 := pool.Get()
	if !c2.IsBlack() {
		t.Fatal("reused bundle should be re-zeroed on Get")
	}
}

func TestCoherentArithmetic(t *testing.T) {
	pool := NewPool(3)
	a := pool.WithValue(2)
	b := pool.WithValue(3)
	a.MulLight(b)
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != 6 {
			t.Fatalf("bin %d = %v, want 6", i, a.At(i))
		}
	}
	a.DivScalar(0)
	if !a.IsBlack() {
		t.Fatal("divide by zero should absorb to black, not NaN/Inf")
	}
}

func TestDispersedMulCoherent(t *testing.T) {
	pool := NewPool(4)
	c := pool.Get()
	c.Set(2, 5)
	d := Dispersed{Index: 2, Value: 4}
	got := d.MulCoherent(c)
	if got.Index != 2 || got.Value != 20 {
		t.Errorf("MulCoherent = %+v, want {2 20}", got)
	}
}

func TestCoherentAddDispersed(t *testing.T) {
	pool := NewPool(4)
	c := pool.WithValue(1)
	c.AddDispersed(Dispersed{Index: 1, Value: 5})
	want := []float64{1, 6, 1, 1}
	for i, w := range want {
		if c.At(i) != w {
			t.Errorf("bin %d = %v, want %v", i, c.At(i), w)
		}
	}
}

func TestMaxAndIsBlack(t *testing.T) {
	pool := NewPool(3)
	c := pool.Get()
	if !c.IsBlack() || c.Max() != 0 {
		t.Error("zero bundle should be black with max 0")
	}
	c.Set(1, 0.5)
	if c.IsBlack() || c.Max() != 0.5 {
		t.Errorf("expected non-black with max 0.5, got black=%v max=%v", c.IsBlack(), c.Max())
	}
}
