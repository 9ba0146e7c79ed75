package material

import "github.com/df07/spectral-tracer/pkg/shader"

// Node is an unflattened material tree node: a leaf BSDF or a
// combinator over child nodes. Trees are built against a single shared
// Arena so Build can compile every leaf's selection-probability
// sub-program from shared expression nodes without re-walking the
// source project expressions.
type Node interface {
	flatten(selectionProb shader.ExprID, arena *shader.Arena) []rawComponent
}

// rawComponent is one flattened leaf before its expression ids are
// compiled into Programs.
type rawComponent struct {
	kind          BSDFKind
	reflectance   shader.ExprID
	roughness     shader.ExprID
	ior           shader.ExprID
	envIOR        shader.ExprID
	dispersion    shader.ExprID
	envDispersion shader.ExprID
	emission      shader.ExprID
	selectionProb shader.ExprID
}

// Diffuse is a Lambertian leaf: reflectance is an Rgb-valued expression.
type Diffuse struct {
	Reflectance shader.ExprID
}

func (d *Diffuse) flatten(sel shader.ExprID, arena *shader.Arena) []rawComponent {
	return []rawComponent{{kind: KindDiffuse, reflectance: d.Reflectance, selectionProb: sel}}
}

// Mirror is a perfectly specular reflective leaf.
type Mirror struct {
	Reflectance shader.ExprID
}

func (m *Mirror) flatten(sel shader.ExprID, arena *shader.Arena) []rawComponent {
	return []rawComponent{{kind: KindMirror, reflectance: m.Reflectance, selectionProb: sel}}
}

// Refractive is a smooth dielectric leaf: ior and roughness are
// Number-valued expressions. Roughness is compiled but sampling does not
// read it: the leaf always reflects or refracts as a perfect delta BSDF.
// Dispersion and EnvDispersion are the Cauchy coefficients (may be
// shader.NoExpr for a non-dispersive glass); EnvIOR defaults to vacuum
// (1.0) when left as shader.NoExpr.
type Refractive struct {
	IOR           shader.ExprID
	Roughness     shader.ExprID
	EnvIOR        shader.ExprID
	Dispersion    shader.ExprID
	EnvDispersion shader.ExprID
}

func (r *Refractive) flatten(sel shader.ExprID, arena *shader.Arena) []rawComponent {
	return []rawComponent{{
		kind:          KindRefractive,
		ior:           r.IOR,
		roughness:     r.Roughness,
		envIOR:        r.EnvIOR,
		dispersion:    r.Dispersion,
		envDispersion: r.EnvDispersion,
		selectionProb: sel,
	}}
}

// Emissive is a light-emitting leaf: emission is an Rgb-valued
// expression giving radiance.
type Emissive struct {
	Emission shader.ExprID
}

func (e *Emissive) flatten(sel shader.ExprID, arena *shader.Arena) []rawComponent {
	return []rawComponent{{kind: KindEmissive, emission: e.Emission, selectionProb: sel}}
}

// Mix stochastically selects between A and B with probability Factor
// of choosing B, the tree-level combinator a "mix" material expression
// compiles to.
type Mix struct {
	A, B   Node
	Factor shader.ExprID
}

func (m *Mix) flatten(sel shader.ExprID, arena *shader.Arena) []rawComponent {
	one := arena.Number(1)
	aProb := arena.Binary(shader.OpMul, sel, arena.Binary(shader.OpSub, one, m.Factor))
	bProb := arena.Binary(shader.OpMul, sel, m.Factor)
	out := m.A.flatten(aProb, arena)
	return append(out, m.B.flatten(bProb, arena)...)
}

// Add layers A and B as independent, simultaneously-present components
// (e.g. a clear coat over a base layer) rather than a stochastic
// choice between them; each inherits half the parent's selection
// probability so the combined array still sums to one.
type Add struct {
	A, B Node
}

func (a *Add) flatten(sel shader.ExprID, arena *shader.Arena) []rawComponent {
	half := arena.Number(0.5)
	childSel := arena.Binary(shader.OpMul, sel, half)
	out := a.A.flatten(childSel, arena)
	return append(out, a.B.flatten(childSel, arena)...)
}

// FresnelMix blends Reflect and Transmit by the dielectric Fresnel
// reflectance at the shading normal and incident direction, the
// physically-based alternative to a constant Mix factor used for glass
// and coated materials.
type FresnelMix struct {
	Reflect, Transmit Node
	IOR               shader.ExprID
}

func (f *FresnelMix) flatten(sel shader.ExprID, arena *shader.Arena) []rawComponent {
	reflectProb := arena.Fresnel(f.IOR, arena.Number(1.0), arena.VectorInput(shader.InputNormal), arena.VectorInput(shader.InputIncident))
	reflectSel := arena.Binary(shader.OpMul, sel, reflectProb)
	transmitSel := arena.Binary(shader.OpMul, sel, arena.Binary(shader.OpSub, arena.Number(1), reflectProb))
	out := f.Reflect.flatten(reflectSel, arena)
	return append(out, f.Transmit.flatten(transmitSel, arena)...)
}
