package project

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/df07/spectral-tracer/pkg/camera"
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/geom"
	"github.com/df07/spectral-tracer/pkg/integrator"
	"github.com/df07/spectral-tracer/pkg/lights"
	"github.com/df07/spectral-tracer/pkg/material"
	"github.com/df07/spectral-tracer/pkg/meshio"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/texio"
	"github.com/df07/spectral-tracer/pkg/world"
)

// Loaded is everything Build assembles from a project file: a ready
// World, Camera and integrator Config, plus the Resources table and VM
// the integrator needs to evaluate the compiled material/sky/light
// programs it references.
type Loaded struct {
	World     *world.World
	Camera    *camera.Camera
	Config    integrator.Config
	Resources *Resources
	VM        *shader.VM
	Image     ImageSpec
	Algorithm string
}

// builder accumulates shared state (the expression arena, the
// resources table, and caches so a texture or named spectrum
// referenced by several materials is only loaded/registered once)
// while walking a File into a Loaded world.
type builder struct {
	baseDir    string
	arena      *shader.Arena
	compiler   *shader.Compiler
	resources  *Resources
	file       *File
	textureIDs map[string]int
	spectrumIDs map[string]int
}

// Load reads and decodes the TOML project file at path and builds it
// into a renderable World, Camera and Config. Relative file references
// inside the project (mesh, texture files) resolve against path's
// directory, the same convention the teacher's pkg/loaders/pbrt.go
// uses for its "scenes/" relative paths.
func Load(path string) (*Loaded, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("project: decoding %s: %w", path, err)
	}
	return build(&f, filepath.Dir(path))
}

func build(f *File, baseDir string) (*Loaded, error) {
	if f.Image.Width <= 0 || f.Image.Height <= 0 {
		return nil, fmt.Errorf("project: image.width and image.height must be positive")
	}
	if f.Renderer.PixelSamples <= 0 {
		return nil, fmt.Errorf("project: renderer.pixel_samples must be positive")
	}

	arena := shader.NewArena()
	b := &builder{
		baseDir:     baseDir,
		arena:       arena,
		compiler:    shader.NewCompiler(arena),
		resources:   &Resources{},
		file:        f,
		textureIDs:  make(map[string]int),
		spectrumIDs: make(map[string]int),
	}

	var sky *shader.Program
	if f.World.Sky != nil {
		expr, err := b.buildColor(f.World.Sky)
		if err != nil {
			return nil, fmt.Errorf("project: world.sky: %w", err)
		}
		prog, err := b.compiler.Compile(expr, shader.KindRgb)
		if err != nil {
			return nil, fmt.Errorf("project: compiling world.sky: %w", err)
		}
		sky = prog
	}

	var primitives []geom.Primitive
	var explicitLights []lights.Light
	for i, obj := range f.World.Objects {
		switch obj.Type {
		case "sphere":
			p, err := b.buildSphere(obj)
			if err != nil {
				return nil, fmt.Errorf("project: world.objects[%d]: %w", i, err)
			}
			primitives = append(primitives, p)
		case "plane":
			p, err := b.buildPlane(obj)
			if err != nil {
				return nil, fmt.Errorf("project: world.objects[%d]: %w", i, err)
			}
			primitives = append(primitives, p)
		case "mesh":
			ps, err := b.buildMesh(obj)
			if err != nil {
				return nil, fmt.Errorf("project: world.objects[%d]: %w", i, err)
			}
			primitives = append(primitives, ps...)
		case "point_light":
			l, err := b.buildPointLight(obj)
			if err != nil {
				return nil, fmt.Errorf("project: world.objects[%d]: %w", i, err)
			}
			explicitLights = append(explicitLights, l)
		case "directional_light":
			l, err := b.buildDirectionalLight(obj)
			if err != nil {
				return nil, fmt.Errorf("project: world.objects[%d]: %w", i, err)
			}
			explicitLights = append(explicitLights, l)
		default:
			return nil, fmt.Errorf("project: world.objects[%d]: unknown type %q", i, obj.Type)
		}
	}

	allLights := append(explicitLights, world.CollectShapeLights(primitives)...)
	sampler := lights.NewUniform(allLights)
	w := world.Build(primitives, sampler, sky)

	cam, err := b.buildCamera(f.Camera)
	if err != nil {
		return nil, fmt.Errorf("project: camera: %w", err)
	}

	cfg := b.buildConfig(f.Renderer)

	return &Loaded{
		World:     w,
		Camera:    cam,
		Config:    cfg,
		Resources: b.resources,
		VM:        shader.NewVM(),
		Image:     f.Image,
		Algorithm: f.Renderer.Algorithm,
	}, nil
}

func (b *builder) buildConfig(r RendererSpec) integrator.Config {
	cfg := integrator.Config{
		Bounces:         orDefault(r.Bounces, 8),
		PixelSamples:    r.PixelSamples,
		LightSamples:    orDefault(r.LightSamples, 1),
		SpectrumSamples: orDefault(r.SpectrumSamples, 4),
		SpectrumLow:     380.0,
		SpectrumHigh:    780.0,
		TileSize:        orDefault(r.TileSize, 32),
		Workers:         r.Threads,
		Seed:            r.Seed,
		Photons:         orDefault(r.Photons, 100000),
		Iterations:      orDefault(r.Iterations, 1),
		InitialRadius:   orDefaultF(r.InitialRadius, 1.0),
		Alpha:           0.7,
	}
	return cfg
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultF(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func (b *builder) buildCamera(c CameraSpec) (*camera.Camera, error) {
	var transform core.Mat4
	switch {
	case len(c.Matrix) == 16:
		var m core.Mat4
		copy(m[:], c.Matrix)
		transform = m
	case len(c.Eye) == 3 && len(c.Target) == 3:
		eye, err := vec3(c.Eye)
		if err != nil {
			return nil, err
		}
		target, err := vec3(c.Target)
		if err != nil {
			return nil, err
		}
		up := core.NewVec3(0, 1, 0)
		if len(c.Up) == 3 {
			if up, err = vec3(c.Up); err != nil {
				return nil, err
			}
		}
		transform = core.LookAt(eye, target, up)
	default:
		return nil, fmt.Errorf("camera requires either a 16-entry transform or eye/target")
	}
	fov := c.FOV
	if fov <= 0 {
		fov = 50
	}
	return camera.NewPerspective(transform, fov, c.FocusDistance, c.Aperture), nil
}

func vec3(v []float64) (core.Vec3, error) {
	if len(v) != 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(v))
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}

func (b *builder) buildSphere(o ObjectSpec) (geom.Primitive, error) {
	center, err := vec3(o.Center)
	if err != nil {
		return nil, fmt.Errorf("sphere.center: %w", err)
	}
	if o.Radius <= 0 {
		return nil, fmt.Errorf("sphere.radius must be positive")
	}
	mat, err := b.buildMaterial(o.Material)
	if err != nil {
		return nil, err
	}
	return geom.NewSphere(center, o.Radius, mat), nil
}

func (b *builder) buildPlane(o ObjectSpec) (geom.Primitive, error) {
	point, err := vec3(o.Point)
	if err != nil {
		return nil, fmt.Errorf("plane.point: %w", err)
	}
	normal, err := vec3(o.Normal)
	if err != nil {
		return nil, fmt.Errorf("plane.normal: %w", err)
	}
	mat, err := b.buildMaterial(o.Material)
	if err != nil {
		return nil, err
	}
	return geom.NewPlane(point, normal, mat), nil
}

func (b *builder) buildMesh(o ObjectSpec) ([]geom.Primitive, error) {
	if o.File == "" {
		return nil, fmt.Errorf("mesh.file is required")
	}
	m, err := meshio.Load(filepath.Join(b.baseDir, o.File))
	if err != nil {
		return nil, err
	}

	defaultMat, err := b.buildMaterial(o.Material)
	if err != nil {
		return nil, err
	}
	groupMats := make(map[string]*material.Flat)
	for name, spec := range o.Materials {
		mat, err := b.buildMaterial(spec)
		if err != nil {
			return nil, fmt.Errorf("materials[%s]: %w", name, err)
		}
		groupMats[name] = mat
	}

	var prims []geom.Primitive
	for matName, faces := range m.ByMaterial() {
		mat := defaultMat
		if gm, ok := groupMats[matName]; ok {
			mat = gm
		}
		for _, face := range faces {
			v0, v1, v2 := m.Position(face, 0), m.Position(face, 1), m.Position(face, 2)
			n0, ok0 := m.Normal(face, 0)
			n1, ok1 := m.Normal(face, 1)
			n2, ok2 := m.Normal(face, 2)
			uv0, hasUV0 := m.TexCoord(face, 0)
			uv1, _ := m.TexCoord(face, 1)
			uv2, _ := m.TexCoord(face, 2)
			if ok0 && ok1 && ok2 {
				prims = append(prims, geom.NewTriangleWithNormals(v0, v1, v2, n0, n1, n2, uv0, uv1, uv2, hasUV0, mat))
			} else if hasUV0 {
				prims = append(prims, geom.NewTriangleWithUVs(v0, v1, v2, uv0, uv1, uv2, mat))
			} else {
				prims = append(prims, geom.NewTriangle(v0, v1, v2, mat))
			}
		}
	}
	return prims, nil
}

func (b *builder) buildPointLight(o ObjectSpec) (lights.Light, error) {
	pos, err := vec3(o.Position)
	if err != nil {
		return nil, fmt.Errorf("point_light.position: %w", err)
	}
	prog, err := b.buildColorProgram(o.Intensity)
	if err != nil {
		return nil, fmt.Errorf("point_light.intensity: %w", err)
	}
	return lights.NewPoint(pos, prog), nil
}

func (b *builder) buildDirectionalLight(o ObjectSpec) (lights.Light, error) {
	dir, err := vec3(o.Direction)
	if err != nil {
		return nil, fmt.Errorf("directional_light.direction: %w", err)
	}
	prog, err := b.buildColorProgram(o.Intensity)
	if err != nil {
		return nil, fmt.Errorf("directional_light.intensity: %w", err)
	}
	sceneRadius := 1000.0
	return lights.NewDirectional(dir, prog, sceneRadius), nil
}

func (b *builder) buildColorProgram(v *ColorValue) (*shader.Program, error) {
	expr, err := b.buildColor(v)
	if err != nil {
		return nil, err
	}
	return b.compiler.Compile(expr, shader.KindRgb)
}

// buildMaterial builds spec into a flattened material.Flat, defaulting
// to a mid-gray diffuse surface when spec is nil (an object with no
// material table at all, useful for a quick test scene).
func (b *builder) buildMaterial(spec *MaterialSpec) (*material.Flat, error) {
	if spec == nil {
		gray := b.arena.Rgb(b.arena.Number(0.6), b.arena.Number(0.6), b.arena.Number(0.6))
		return material.Build(&material.Diffuse{Reflectance: gray}, b.arena, shader.NoExpr)
	}
	node, err := b.buildMaterialNode(spec)
	if err != nil {
		return nil, err
	}
	normalMap := shader.NoExpr
	if spec.NormalMap != nil {
		if normalMap, err = b.buildColor(spec.NormalMap); err != nil {
			return nil, fmt.Errorf("normal_map: %w", err)
		}
	}
	return material.Build(node, b.arena, normalMap)
}

func (b *builder) buildMaterialNode(spec *MaterialSpec) (material.Node, error) {
	if spec == nil {
		return nil, fmt.Errorf("missing material node")
	}
	switch spec.Type {
	case "diffuse":
		expr, err := b.buildColor(spec.Reflectance)
		if err != nil {
			return nil, fmt.Errorf("diffuse.reflectance: %w", err)
		}
		return &material.Diffuse{Reflectance: expr}, nil
	case "mirror":
		expr, err := b.buildColor(spec.Reflectance)
		if err != nil {
			return nil, fmt.Errorf("mirror.reflectance: %w", err)
		}
		return &material.Mirror{Reflectance: expr}, nil
	case "refractive":
		ior, err := b.buildNumber(spec.IOR, 1.5)
		if err != nil {
			return nil, fmt.Errorf("refractive.ior: %w", err)
		}
		roughness, err := b.buildNumber(spec.Roughness, 0)
		if err != nil {
			return nil, fmt.Errorf("refractive.roughness: %w", err)
		}
		envIOR := shader.NoExpr
		if spec.EnvIOR != nil {
			if envIOR, err = b.buildNumber(spec.EnvIOR, 1.0); err != nil {
				return nil, fmt.Errorf("refractive.env_ior: %w", err)
			}
		}
		dispersion := shader.NoExpr
		if spec.Dispersion != nil {
			if dispersion, err = b.buildNumber(spec.Dispersion, 0); err != nil {
				return nil, fmt.Errorf("refractive.dispersion: %w", err)
			}
		}
		envDispersion := shader.NoExpr
		if spec.EnvDispersion != nil {
			if envDispersion, err = b.buildNumber(spec.EnvDispersion, 0); err != nil {
				return nil, fmt.Errorf("refractive.env_dispersion: %w", err)
			}
		}
		return &material.Refractive{
			IOR: ior, Roughness: roughness, EnvIOR: envIOR,
			Dispersion: dispersion, EnvDispersion: envDispersion,
		}, nil
	case "emissive":
		expr, err := b.buildColor(spec.Emission)
		if err != nil {
			return nil, fmt.Errorf("emissive.emission: %w", err)
		}
		return &material.Emissive{Emission: expr}, nil
	case "mix":
		a, err := b.buildMaterialNode(spec.A)
		if err != nil {
			return nil, fmt.Errorf("mix.a: %w", err)
		}
		bb, err := b.buildMaterialNode(spec.B)
		if err != nil {
			return nil, fmt.Errorf("mix.b: %w", err)
		}
		factor, err := b.buildNumber(spec.Factor, 0.5)
		if err != nil {
			return nil, fmt.Errorf("mix.factor: %w", err)
		}
		return &material.Mix{A: a, B: bb, Factor: factor}, nil
	case "add":
		a, err := b.buildMaterialNode(spec.A)
		if err != nil {
			return nil, fmt.Errorf("add.a: %w", err)
		}
		bb, err := b.buildMaterialNode(spec.B)
		if err != nil {
			return nil, fmt.Errorf("add.b: %w", err)
		}
		return &material.Add{A: a, B: bb}, nil
	case "fresnel_mix":
		reflect, err := b.buildMaterialNode(spec.Reflect)
		if err != nil {
			return nil, fmt.Errorf("fresnel_mix.reflect: %w", err)
		}
		transmit, err := b.buildMaterialNode(spec.Transmit)
		if err != nil {
			return nil, fmt.Errorf("fresnel_mix.transmit: %w", err)
		}
		ior, err := b.buildNumber(spec.FresnelIOR, 1.5)
		if err != nil {
			return nil, fmt.Errorf("fresnel_mix.fresnel_ior: %w", err)
		}
		return &material.FresnelMix{Reflect: reflect, Transmit: transmit, IOR: ior}, nil
	default:
		return nil, fmt.Errorf("unknown material type %q", spec.Type)
	}
}

func (b *builder) buildColor(v *ColorValue) (shader.ExprID, error) {
	if v == nil {
		return b.arena.Rgb(b.arena.Number(0), b.arena.Number(0), b.arena.Number(0)), nil
	}
	switch {
	case len(v.RGB) == 3:
		return b.arena.Rgb(b.arena.Number(v.RGB[0]), b.arena.Number(v.RGB[1]), b.arena.Number(v.RGB[2])), nil
	case v.Texture != "":
		id, err := b.textureID(v.Texture)
		if err != nil {
			return shader.NoExpr, err
		}
		return b.arena.ColorTexture(id, b.arena.VectorInput(shader.InputUV)), nil
	case v.Blackbody > 0:
		wl := b.arena.NumberInput(shader.InputWavelength)
		return b.arena.Blackbody(wl, b.arena.Number(v.Blackbody)), nil
	case len(v.Mix) == 2:
		a, err := b.buildColor(&v.Mix[0])
		if err != nil {
			return shader.NoExpr, err
		}
		bb, err := b.buildColor(&v.Mix[1])
		if err != nil {
			return shader.NoExpr, err
		}
		factor, err := b.buildNumber(v.MixFactor, 0.5)
		if err != nil {
			return shader.NoExpr, err
		}
		return b.arena.Mix(a, bb, factor), nil
	default:
		return shader.NoExpr, fmt.Errorf("color value has no rgb, texture, blackbody or mix set")
	}
}

func (b *builder) buildNumber(v *NumberValue, def float64) (shader.ExprID, error) {
	if v == nil {
		return b.arena.Number(def), nil
	}
	switch {
	case v.Value != nil:
		return b.arena.Number(*v.Value), nil
	case v.Texture != "":
		id, err := b.textureID(v.Texture)
		if err != nil {
			return shader.NoExpr, err
		}
		return b.arena.MonoTexture(id, b.arena.VectorInput(shader.InputUV)), nil
	case v.Spectrum != "":
		id, err := b.spectrumID(v.Spectrum)
		if err != nil {
			return shader.NoExpr, err
		}
		return b.arena.Spectrum(id, b.arena.NumberInput(shader.InputWavelength)), nil
	default:
		return b.arena.Number(def), nil
	}
}

func (b *builder) textureID(path string) (int, error) {
	if id, ok := b.textureIDs[path]; ok {
		return id, nil
	}
	tex, err := texio.Load(filepath.Join(b.baseDir, path))
	if err != nil {
		return 0, err
	}
	id := b.resources.addTexture(tex)
	b.textureIDs[path] = id
	return id, nil
}

func (b *builder) spectrumID(name string) (int, error) {
	if id, ok := b.spectrumIDs[name]; ok {
		return id, nil
	}
	points, ok := b.file.World.Spectra[name]
	if !ok {
		return 0, fmt.Errorf("undefined named spectrum %q", name)
	}
	id := b.resources.addSpectrum(NewNamedSpectrum(points))
	b.spectrumIDs[name] = id
	return id, nil
}
