package material

import "github.com/df07/spectral-tracer/pkg/shader"

// Build flattens root into a Flat material, compiling each leaf's
// parameter and selection-probability expressions against arena. arena
// must be the same Arena every Node in the tree was built against.
// normalMap is the material's optional tree-level normal-map
// expression (shader.NoExpr when the material has none).
func Build(root Node, arena *shader.Arena, normalMap shader.ExprID) (*Flat, error) {
	raws := root.flatten(arena.Number(1), arena)
	compiler := shader.NewCompiler(arena)

	var normalProgram *shader.Program
	if normalMap != shader.NoExpr {
		var err error
		normalProgram, err = compiler.Compile(normalMap, shader.KindRgb)
		if err != nil {
			return nil, err
		}
	}

	components := make([]Component, len(raws))
	for i, rc := range raws {
		c := Component{Kind: rc.kind}

		sel, err := compiler.CompileSelectionProbability(rc.selectionProb)
		if err != nil {
			return nil, err
		}
		c.SelectionProb = sel

		switch rc.kind {
		case KindDiffuse, KindMirror:
			c.Reflectance, err = compiler.Compile(rc.reflectance, shader.KindRgb)
		case KindRefractive:
			c.IOR, err = compiler.Compile(rc.ior, shader.KindNumber)
			if err == nil {
				c.Roughness, err = compiler.Compile(rc.roughness, shader.KindNumber)
			}
			if err == nil && rc.envIOR != shader.NoExpr {
				c.EnvIOR, err = compiler.Compile(rc.envIOR, shader.KindNumber)
			}
			if err == nil && rc.dispersion != shader.NoExpr {
				c.Dispersion, err = compiler.Compile(rc.dispersion, shader.KindNumber)
			}
			if err == nil && rc.envDispersion != shader.NoExpr {
				c.EnvDispersion, err = compiler.Compile(rc.envDispersion, shader.KindNumber)
			}
		case KindEmissive:
			c.Emission, err = compiler.Compile(rc.emission, shader.KindRgb)
		}
		if err != nil {
			return nil, err
		}
		components[i] = c
	}
	return &Flat{Components: components, NormalMap: normalProgram}, nil
}
