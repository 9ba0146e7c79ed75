package core

import "testing"

func TestVec3Basics(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -1, 2)

	if got := a.Add(b); !got.Equals(NewVec3(5, 1, 5)) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Dot(b); got != 4-2+6 {
		t.Errorf("Dot = %v, want %v", got, 4-2+6)
	}
	if got := a.Cross(b).Dot(a); got > 1e-9 || got < -1e-9 {
		t.Errorf("Cross(a,b) not orthogonal to a: dot=%v", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	if got := v.Length(); got < 0.9999 || got > 1.0001 {
		t.Errorf("Normalize length = %v, want 1", got)
	}
	if zero := (Vec3{}).Normalize(); !zero.IsZero() {
		t.Errorf("Normalize of zero vector should stay zero, got %v", zero)
	}
}

func TestVec3Reflect(t *testing.T) {
	v := NewVec3(1, -1, 0)
	n := NewVec3(0, 1, 0)
	got := v.Reflect(n)
	want := NewVec3(1, 1, 0)
	if !got.Equals(want) {
		t.Errorf("Reflect = %v, want %v", got, want)
	}
}

func TestVec3Refract(t *testing.T) {
	// Straight-on incidence should pass through unrefracted in direction.
	v := NewVec3(0, -1, 0)
	n := NewVec3(0, 1, 0)
	refracted, ok := v.Refract(n, 1.0/1.5)
	if !ok {
		t.Fatal("expected refraction, got TIR")
	}
	if !refracted.Normalize().Equals(NewVec3(0, -1, 0)) {
		t.Errorf("normal-incidence refraction changed direction: %v", refracted)
	}

	// Grazing incidence past the critical angle must report TIR.
	grazing := NewVec3(0.999, -0.0447, 0).Normalize()
	if _, ok := grazing.Refract(n, 1.5); ok {
		t.Error("expected total internal reflection at grazing incidence into denser medium")
	}
}

func TestVec3Basis(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 0, 1),
		NewVec3(0, 1, 0),
		NewVec3(1, 1, 1).Normalize(),
		NewVec3(0, 0, -1),
	}
	for _, n := range normals {
		tangent, bitangent := n.Basis()
		const eps = 1e-6
		if d := tangent.Dot(n); d > eps || d < -eps {
			t.Errorf("tangent not orthogonal to normal %v: dot=%v", n, d)
		}
		if d := bitangent.Dot(n); d > eps || d < -eps {
			t.Errorf("bitangent not orthogonal to normal %v: dot=%v", n, d)
		}
		if d := tangent.Dot(bitangent); d > eps || d < -eps {
			t.Errorf("tangent not orthogonal to bitangent for normal %v: dot=%v", n, d)
		}
		if l := tangent.Length(); l < 1-1e-5 || l > 1+1e-5 {
			t.Errorf("tangent not unit length: %v", l)
		}
	}
}

func TestAABBHit(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))
	hit := NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, 1))
	if !box.Hit(hit, 0, 1e9) {
		t.Error("expected ray through box center to hit")
	}
	miss := NewRay(NewVec3(5, 5, -5), NewVec3(0, 0, 1))
	if box.Hit(miss, 0, 1e9) {
		t.Error("expected parallel ray outside box to miss")
	}
}
