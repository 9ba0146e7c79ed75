// Package material implements spec.md's component E: the material tree
// (diffuse/mirror/refractive leaves, mix/add/fresnel-mix inner nodes)
// and its load-time flattening into a component array with
// selection-probability sub-programs, per spec.md §4.E.
package material

import "github.com/df07/spectral-tracer/pkg/shader"

// BSDFKind enumerates the leaf reflectance models spec.md §4.E names.
type BSDFKind int

const (
	KindDiffuse BSDFKind = iota
	KindMirror
	KindRefractive
	KindEmissive
)

// Component is one flattened leaf of a material tree: a BSDF kind, the
// compiled programs that drive its parameters (color, roughness, IOR),
// and the compiled program giving its selection probability among
// sibling components once the tree has been flattened at load time.
type Component struct {
	Kind          BSDFKind
	Reflectance   *shader.Program // number/rgb valued, evaluated per hit
	Roughness     *shader.Program
	IOR           *shader.Program
	EnvIOR        *shader.Program // surrounding medium's IOR, nil means vacuum (1.0)
	Dispersion    *shader.Program // Cauchy coefficient, nil means non-dispersive
	EnvDispersion *shader.Program
	Emission      *shader.Program
	SelectionProb *shader.Program // probability this component is chosen
}

// Flat is a material tree flattened into a component array, spec.md
// §4.E: "materials are flattened at load time into a flat array of
// components, each carrying its own selection-probability program, so
// that the hot path never walks Mix/Add/FresnelMix nodes at render
// time."
type Flat struct {
	Components []Component
	// NormalMap is the material's tree-level normal-perturbation
	// expression, compiled as an Rgb program whose output maps to a
	// tangent-space direction via the (c*2-1) convention; nil means the
	// material uses its geometric shading normal unperturbed.
	NormalMap *shader.Program
}

// HasScattering reports whether the material has any non-emissive
// component, i.e. whether a path can continue past this hit at all.
// An emissive-only leaf (a pure light source) has none.
func (f *Flat) HasScattering() bool {
	for _, c := range f.Components {
		if c.Kind != KindEmissive {
			return true
		}
	}
	return false
}

// IsEmissive reports whether any component of the material emits light,
// used by the world/lights packages to decide whether a primitive needs
// to be registered as an area light.
func (f *Flat) IsEmissive() bool {
	for _, c := range f.Components {
		if c.Kind == KindEmissive {
			return true
		}
	}
	return false
}
