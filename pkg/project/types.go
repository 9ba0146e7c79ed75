// Package project implements spec.md §6's project-file external
// interface: a TOML document describing the image, camera, renderer
// settings and world contents, decoded with BurntSushi/toml the way
// the teacher's pkg/loaders/pbrt.go decodes a PBRT scene file into the
// teacher's own scene graph, then built into a world.World, a
// camera.Camera and an integrator.Config ready to render.
package project

// File is the top-level TOML document.
type File struct {
	Image    ImageSpec    `toml:"image"`
	Camera   CameraSpec   `toml:"camera"`
	Renderer RendererSpec `toml:"renderer"`
	World    WorldSpec    `toml:"world"`
}

// ImageSpec is the §6 "image" table.
type ImageSpec struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	File   string  `toml:"file"`
	Filter string  `toml:"filter"`
	White  float64 `toml:"white"`
}

// CameraSpec is the §6 "camera" table. Transform is given either as an
// explicit 16-entry row-major matrix, or as the look-at convenience
// fields (Eye/Target/Up); Matrix takes precedence when present.
type CameraSpec struct {
	Matrix        []float64 `toml:"transform"`
	Eye           []float64 `toml:"eye"`
	Target        []float64 `toml:"target"`
	Up            []float64 `toml:"up"`
	FOV           float64   `toml:"fov"`
	FocusDistance float64   `toml:"focus_distance"`
	Aperture      float64   `toml:"aperture"`
}

// RendererSpec is the §6 "renderer" table.
type RendererSpec struct {
	Algorithm          string `toml:"algorithm"`
	Threads            int    `toml:"threads"`
	Bounces            int    `toml:"bounces"`
	PixelSamples       int    `toml:"pixel_samples"`
	LightSamples       int    `toml:"light_samples"`
	SpectrumSamples    int    `toml:"spectrum_samples"`
	SpectrumResolution int    `toml:"spectrum_resolution"`
	TileSize           int    `toml:"tile_size"`
	Seed               uint64 `toml:"seed"`
	Photons            int    `toml:"photons"`
	Iterations         int    `toml:"iterations"`
	InitialRadius      float64 `toml:"initial_radius"`
}

// WorldSpec is the §6 "world" table.
type WorldSpec struct {
	Sky      *ColorValue            `toml:"sky"`
	Spectra  map[string][][2]float64 `toml:"spectra"`
	Objects  []ObjectSpec           `toml:"objects"`
}

// ObjectSpec is one entry of world.objects. Type selects which of the
// geometry-specific fields apply: "sphere", "plane", "mesh",
// "point_light" or "directional_light".
type ObjectSpec struct {
	Type string `toml:"type"`

	// sphere
	Center []float64 `toml:"center"`
	Radius float64   `toml:"radius"`

	// plane
	Point  []float64 `toml:"point"`
	Normal []float64 `toml:"normal"`

	// mesh
	File string `toml:"file"`

	// point_light / directional_light
	Position    []float64   `toml:"position"`
	Direction   []float64   `toml:"direction"`
	Intensity   *ColorValue `toml:"intensity"`

	Material *MaterialSpec `toml:"material"`
	// Materials maps a mesh's "usemtl" names to per-group materials;
	// used only when Type == "mesh" and a single shared Material isn't
	// enough.
	Materials map[string]*MaterialSpec `toml:"materials"`
}

// MaterialSpec is a node of the recursive material tree: Type selects
// which of the leaf/combinator fields apply ("diffuse", "mirror",
// "refractive", "emissive", "mix", "add", "fresnel_mix"), mirroring
// pkg/material/tree.go's Node variants one for one.
type MaterialSpec struct {
	Type string `toml:"type"`

	// diffuse, mirror
	Reflectance *ColorValue `toml:"reflectance"`

	// refractive
	IOR           *NumberValue `toml:"ior"`
	Roughness     *NumberValue `toml:"roughness"`
	EnvIOR        *NumberValue `toml:"env_ior"`
	Dispersion    *NumberValue `toml:"dispersion"`
	EnvDispersion *NumberValue `toml:"env_dispersion"`

	// emissive
	Emission *ColorValue `toml:"emission"`

	// mix, add, fresnel_mix
	A         *MaterialSpec `toml:"a"`
	B         *MaterialSpec `toml:"b"`
	Reflect   *MaterialSpec `toml:"reflect"`
	Transmit  *MaterialSpec `toml:"transmit"`
	Factor    *NumberValue  `toml:"factor"`
	FresnelIOR *NumberValue `toml:"fresnel_ior"`

	// NormalMap is an optional tree-level normal-perturbation texture,
	// independent of Type: it applies to whichever leaf/combinator this
	// node builds.
	NormalMap *ColorValue `toml:"normal_map"`
}

// ColorValue is an Rgb-kind expression leaf: exactly one of its fields
// should be set. Mix lets a color be an interpolation between two
// other colors so a project file can describe e.g. a textured
// reflectance blended with a constant tint.
type ColorValue struct {
	RGB       []float64   `toml:"rgb"`
	Texture   string      `toml:"texture"`
	Blackbody float64     `toml:"blackbody"`
	Mix       []ColorValue `toml:"mix"`
	MixFactor *NumberValue `toml:"mix_factor"`
}

// NumberValue is a Number-kind expression leaf: exactly one of its
// fields should be set.
type NumberValue struct {
	Value    *float64     `toml:"value"`
	Texture  string       `toml:"texture"`
	Spectrum string       `toml:"spectrum"`
}
