// Package integrator implements spec.md §4.I's three rendering
// strategies — simple unidirectional path tracing, bidirectional path
// tracing and stochastic progressive photon mapping — sharing the
// Russian-roulette and direct-lighting machinery spec.md describes
// once and every strategy reuses.
//
// Grounded on original_source/pyrite/src/renderer/simple.rs for the
// unidirectional walk and direct-lighting formula, and on spec.md
// §4.I's literal algorithm text for the bidirectional weighting and
// photon-mapping accumulation, since pyrite's bidirectional.rs and
// photon_mapping.rs implement a fuller power-heuristic MIS than the
// simplified per-vertex-pair weighting spec.md asks for.
package integrator

// Config collects every renderer knob spec.md §6's project file
// exposes under "renderer", shared across all three strategies.
type Config struct {
	// Bounces caps the number of scattering events a path may undergo
	// before forced termination, regardless of Russian roulette.
	Bounces int
	// PixelSamples is the number of camera samples drawn per pixel.
	PixelSamples int
	// LightSamples is the number of direct-lighting samples drawn at
	// each diffuse hit.
	LightSamples int
	// SpectrumSamples is the wavelength-bundle width (spec.md §3's
	// "N" in a hero-plus-(N-1) bundle).
	SpectrumSamples int
	// SpectrumLow, SpectrumHigh bound the sampled wavelength span.
	SpectrumLow, SpectrumHigh float64
	// TileSize is the film tile edge length in pixels.
	TileSize int
	// Workers bounds worker-pool concurrency; 0 means runtime.NumCPU().
	Workers int
	// Seed seeds every tile's per-thread RNG deterministically.
	Seed uint64

	// Photons is the number of photons traced per SPPM iteration.
	Photons int
	// Iterations is the number of SPPM photon passes.
	Iterations int
	// InitialRadius is the starting photon-gather radius for SPPM
	// visible points.
	InitialRadius float64
	// Alpha is SPPM's radius-reduction factor per iteration (Knaus &
	// Zwicker's ppm update), spec.md §4.I names it alpha.
	Alpha float64
}

// rrThreshold is the throughput level below which Russian roulette
// starts culling paths, spec.md §4.I's "once throughput.max() < 0.25".
const rrThreshold = 0.25
