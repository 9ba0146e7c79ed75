package integrator

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/df07/spectral-tracer/pkg/accel"
	"github.com/df07/spectral-tracer/pkg/camera"
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/film"
	"github.com/df07/spectral-tracer/pkg/material"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
	"github.com/df07/spectral-tracer/pkg/workpool"
	"github.com/df07/spectral-tracer/pkg/world"
)

// SPPM implements spec.md §4.I's third rendering strategy: stochastic
// progressive photon mapping. Unlike Simple and Bidirectional it does
// not satisfy Strategy — it drives the film through repeated
// camera/photon pass pairs rather than one independent sample per
// pixel — so it is run through RenderSPPM instead of Render.
//
// Grounded on original_source/pyrite/src/renderer/photon_mapping.rs for
// the camera-pass/photon-pass/radius-update shape and Knaus & Zwicker's
// progressive photon mapping recursion (n'=n+alpha*m, r'=r*sqrt(n'/(n+m)),
// tau'=(tau+phi)*(r'/r)^2) that both pyrite and spec.md's literal text
// name.
//
// Every other strategy re-samples a fresh stratified wavelength bundle
// per camera sample (spec.md §4.L). SPPM instead fixes its wavelength
// basis for the whole render to the film's own Bins bin centers: tau,
// phi and the photon count are accumulated per pixel across many
// iterations, and an iteration's random wavelength choice would have no
// way to land back on the same bin a previous iteration contributed to.
// Evaluating every film bin every iteration costs more per photon and
// per camera sample than a dispersed bundle would, but it keeps the
// progressive recursion in a single, stable basis from iteration to
// iteration.
type SPPM struct {
	World  *world.World
	Camera *camera.Camera
	VM     *shader.VM
	Config Config
}

// pixelState is one pixel's persistent SPPM accumulator, carried across
// every iteration of the render. iterPhi/iterM are mutated by any
// number of photon-tracing goroutines concurrently landing on this
// pixel, so both use lock-free atomic fetch-add rather than a mutex:
// iterPhi stores each bin's float64 bits behind a CAS loop, iterM is a
// plain atomic counter.
type pixelState struct {
	radius  float64
	n       float64 // Knaus & Zwicker's accumulated photon count estimate
	tau     []float64
	direct  []float64        // accumulated direct-lighting radiance, divided by iterations at the end
	iterPhi []atomic.Uint64  // this iteration's gathered photon contribution (float64 bits), reset every iteration
	iterM   atomic.Int64     // this iteration's gathered photon count, reset every iteration
}

// addFloat64Bits atomically adds delta to the float64 value stored in
// addr's bit pattern, via a compare-and-swap retry loop (the standard
// lock-free float accumulation idiom: sync/atomic has no native
// float64 add).
func addFloat64Bits(addr *atomic.Uint64, delta float64) {
	for {
		old := addr.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if addr.CompareAndSwap(old, next) {
			return
		}
	}
}

// visiblePoint is the first non-specular vertex of one pixel's eye path
// in the current iteration: the surface the photon pass gathers light
// at.
type visiblePoint struct {
	position    core.Vec3
	normal, out core.Vec3
	throughput  []float64 // per film bin, eye-path throughput up to this vertex
	reflectance []float64 // per film bin, sum of diffuse components' rho/pi at (out, normal)
	radius      float64   // snapshot of the pixel's radius when this point was recorded
	state       *pixelState
}

func (v *visiblePoint) Center() core.Vec3 { return v.position }
func (v *visiblePoint) Radius() float64   { return v.radius }

// RenderSPPM drives s across f through cfg.Iterations camera/photon
// pass pairs, reporting progress over the total iteration count.
func RenderSPPM(ctx context.Context, s *SPPM, f *film.Film, res shader.Resources, onProgress func(done, total int)) error {
	bundle := fixedBundle(f)
	states := make([]pixelState, f.Width*f.Height)
	for i := range states {
		states[i].radius = s.Config.InitialRadius
		states[i].tau = make([]float64, f.Bins)
		states[i].direct = make([]float64, f.Bins)
		states[i].iterPhi = make([]atomic.Uint64, f.Bins)
	}

	pool := workpool.New(s.Config.Workers)
	for iter := 0; iter < s.Config.Iterations; iter++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i := range states {
			for b := range states[i].iterPhi {
				states[i].iterPhi[b].Store(0)
			}
			states[i].iterM.Store(0)
		}

		points := s.cameraPass(ctx, pool, f, bundle, res, states)
		pbvh := accel.BuildPointBVH(points)
		if err := s.photonPass(ctx, pool, pbvh, bundle, res); err != nil {
			return err
		}
		updateRadii(states, s.Config.Alpha)

		if onProgress != nil {
			onProgress(iter+1, s.Config.Iterations)
		}
	}

	develop(f, states, s.Config.Iterations)
	return nil
}

// fixedBundle returns the film's own bin centers as the wavelength
// basis every SPPM pass shares.
func fixedBundle(f *film.Film) spectrum.Bundle {
	b := make(spectrum.Bundle, f.Bins)
	for i := range b {
		b[i] = spectrum.RepresentativeWavelength(i, f.Lo, f.Hi, f.Bins)
	}
	return b
}

// cameraPass traces one eye path per pixel, folding directly-gathered
// emission and next-event-estimated direct lighting straight into each
// pixel's accumulator, and returns the visible point recorded at every
// pixel whose path reached a diffuse surface.
func (s *SPPM) cameraPass(ctx context.Context, pool *workpool.Pool, f *film.Film, bundle spectrum.Bundle, res shader.Resources, states []pixelState) []*visiblePoint {
	rows := make([]int, f.Height)
	for y := range rows {
		rows[y] = y
	}
	half := float64(max(f.Width, f.Height)) / 2
	cx, cy := float64(f.Width)/2, float64(f.Height)/2

	var mu sync.Mutex
	var points []*visiblePoint

	workpool.Run(ctx, pool, rows, func(_ context.Context, y int) (struct{}, error) {
		rng := core.NewRNG(tileSeed(s.Config.Seed, y))
		specPool := spectrum.NewPool(f.Bins)
		var rowPoints []*visiblePoint
		for x := 0; x < f.Width; x++ {
			st := &states[y*f.Width+x]
			target := core.NewVec2((float64(x)+rng.Float64()-cx)/half, (cy-(float64(y)+rng.Float64()))/half)
			ray := s.Camera.RayTowards(target, rng)
			if vp := s.traceEyePath(ray, bundle, specPool, res, rng, st); vp != nil {
				rowPoints = append(rowPoints, vp)
			}
		}
		mu.Lock()
		points = append(points, rowPoints...)
		mu.Unlock()
		return struct{}{}, nil
	}, nil)

	return points
}

// traceEyePath walks one eye ray through any number of specular bounces,
// adding directly-seen emission into st.direct, and stops at the first
// diffuse hit: direct lighting is sampled there immediately (it needs no
// density estimation) and a visiblePoint is recorded for the photon pass.
func (s *SPPM) traceEyePath(ray core.Ray, bundle spectrum.Bundle, pool *spectrum.Pool, res shader.Resources, rng *core.RNG, st *pixelState) *visiblePoint {
	throughput := pool.WithValue(1.0)
	defer throughput.Release()
	currentRay := ray

	for bounce := 0; bounce < s.Config.Bounces; bounce++ {
		sp, hit := s.World.Intersect(currentRay, world.Epsilon, world.Infinity)
		if !hit {
			sky := s.World.SkyEmission(currentRay, bundle, pool, s.VM, res)
			sky.MulLight(throughput)
			addInto(st.direct, sky)
			sky.Release()
			return nil
		}

		mat := sp.Material
		out := currentRay.Direction.Negate()
		normal := shadingNormal(sp, out, s.VM, res)

		emission := mat.LightEmission(out, normal, sp.UV, bundle, pool, s.VM, res)
		emission.MulLight(throughput)
		addInto(st.direct, emission)
		emission.Release()

		if !mat.HasScattering() {
			return nil
		}

		if hasDiffuse(mat) {
			if s.Config.LightSamples > 0 {
				direct := sampleDirectLighting(s.World, sp, out, normal, bundle, pool, s.VM, res, rng, s.Config.LightSamples)
				direct.MulLight(throughput)
				addInto(st.direct, direct)
				direct.Release()
			}
			return &visiblePoint{
				position:    sp.Position,
				normal:      normal,
				out:         out,
				throughput:  append([]float64(nil), throughput.Values()...),
				reflectance: diffuseReflectance(mat, out, normal, sp.UV, bundle, pool, s.VM, res),
				radius:      st.radius,
				state:       st,
			}
		}

		inter, ok := mat.SampleReflectionCoherent(out, normal, sp.UV, bundle, pool, s.VM, res, rng)
		if !ok {
			return nil
		}
		if !advanceThroughput(throughput, inter, normal) {
			return nil
		}
		if !russianRoulette(rng, throughput) {
			return nil
		}
		currentRay = core.NewRay(offsetOrigin(sp, inter.InDirection), inter.InDirection)
	}
	return nil
}

// diffuseReflectance returns the sum of every diffuse component's
// rho/pi at (out, normal), per film bin. A Lambertian term doesn't
// depend on the incoming direction (only on its cosine against normal,
// checked separately at gather time), so this can be precomputed once
// per visible point and reused for every photon that lands on it.
func diffuseReflectance(mat *material.Flat, out, normal core.Vec3, uv core.Vec2, bundle spectrum.Bundle, pool *spectrum.Pool, vm *shader.VM, res shader.Resources) []float64 {
	c := mat.EvaluateCoherent(out, normal, normal, uv, bundle, pool, vm, res)
	defer c.Release()
	return append([]float64(nil), c.Values()...)
}

func addInto(dst []float64, c *spectrum.Coherent) {
	for i := range dst {
		dst[i] += c.At(i)
	}
}

// photonPass emits s.Config.Photons photons from the scene's lights and
// walks each one through the world, gathering its contribution into
// every visible point whose current radius contains the hit.
func (s *SPPM) photonPass(ctx context.Context, pool *workpool.Pool, idx *accel.PointBVH[*visiblePoint], bundle spectrum.Bundle, res shader.Resources) error {
	if s.World.Lights.Count() == 0 {
		return nil
	}
	tasks := make([]int, s.Config.Photons)
	for i := range tasks {
		tasks[i] = i
	}
	_, err := workpool.Run(ctx, pool, tasks, func(_ context.Context, i int) (struct{}, error) {
		rng := core.NewRNG(tileSeed(s.Config.Seed^0x5350504D, i))
		specPool := spectrum.NewPool(bundle.Len())
		s.tracePhoton(idx, bundle, specPool, res, rng)
		return struct{}{}, nil
	}, nil)
	return err
}

func (s *SPPM) tracePhoton(idx *accel.PointBVH[*visiblePoint], bundle spectrum.Bundle, pool *spectrum.Pool, res shader.Resources, rng *core.RNG) {
	light, lightPDF, ok := s.World.PickLamp(rng)
	if !ok || lightPDF <= 0 {
		return
	}
	es, ok := light.SampleEmission(rng.Vec2(), rng.Vec2(), bundle, pool, s.VM, res, rng)
	if !ok {
		return
	}
	if es.AreaPDF <= 0 || es.DirectionPDF <= 0 {
		es.Emission.Release()
		return
	}

	flux := es.Emission
	flux.MulScalar(1.0 / (lightPDF * es.AreaPDF * es.DirectionPDF * float64(s.Config.Photons)))
	defer flux.Release()

	currentRay := core.NewRay(es.Point.Add(es.Normal.Multiply(world.Epsilon)), es.Direction)
	for bounce := 0; bounce < s.Config.Bounces; bounce++ {
		sp, hit := s.World.Intersect(currentRay, world.Epsilon, world.Infinity)
		if !hit {
			return
		}
		mat := sp.Material
		photonOut := currentRay.Direction.Negate()
		normal := shadingNormal(sp, photonOut, s.VM, res)
		if !mat.HasScattering() {
			return
		}

		if hasDiffuse(mat) {
			idx.Query(sp.Position, func(vp *visiblePoint) {
				gather(vp, photonOut, flux)
			})
		}

		inter, ok := mat.SampleReflectionCoherent(photonOut, normal, sp.UV, bundle, pool, s.VM, res, rng)
		if !ok {
			return
		}
		if !advanceThroughput(flux, inter, normal) {
			return
		}
		if !russianRoulette(rng, flux) {
			return
		}
		currentRay = core.NewRay(offsetOrigin(sp, inter.InDirection), inter.InDirection)
	}
}

// gather folds one photon's arrival at vp into its pixel's iterPhi/iterM
// via lock-free atomic fetch-add: phi += flux * BRDF(vp.out, photonDir)
// * vp.throughput, evaluated bin by bin since both flux and throughput
// are spectral. photonDir is the direction pointing back along the
// photon's incoming ray, the same "out" convention used everywhere else
// in this package.
func gather(vp *visiblePoint, photonDir core.Vec3, flux *spectrum.Coherent) {
	if photonDir.Dot(vp.normal) <= 0 {
		return
	}
	st := vp.state
	for b := 0; b < len(st.iterPhi); b++ {
		addFloat64Bits(&st.iterPhi[b], flux.At(b)*vp.reflectance[b]*vp.throughput[b])
	}
	st.iterM.Add(1)
}

// updateRadii applies Knaus & Zwicker's progressive radius reduction to
// every pixel that gathered at least one photon this iteration.
func updateRadii(states []pixelState, alpha float64) {
	for i := range states {
		st := &states[i]
		m := float64(st.iterM.Load())
		if m <= 0 {
			continue
		}
		n := st.n
		nNew := n + alpha*m
		rNew := st.radius * math.Sqrt(nNew/(n+m))
		scale := (rNew * rNew) / (st.radius * st.radius)
		for b := range st.tau {
			st.tau[b] = (st.tau[b] + math.Float64frombits(st.iterPhi[b].Load())) * scale
		}
		st.n = nNew
		st.radius = rNew
	}
}

// develop writes every pixel's final radiance estimate — the photon
// density term plus the averaged direct-lighting term — into f. Each
// photon's flux was already normalized by 1/Config.Photons at emission
// (tracePhoton), so tau's accumulated contribution only needs dividing
// by the iteration count here, not by the total photon count again.
func develop(f *film.Film, states []pixelState, iterations int) {
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			st := &states[y*f.Width+x]
			for b := 0; b < f.Bins; b++ {
				wavelength := spectrum.RepresentativeWavelength(b, f.Lo, f.Hi, f.Bins)
				var photonTerm float64
				if st.radius > 0 && iterations > 0 {
					photonTerm = st.tau[b] / (float64(iterations) * math.Pi * st.radius * st.radius)
				}
				directTerm := 0.0
				if iterations > 0 {
					directTerm = st.direct[b] / float64(iterations)
				}
				f.ExposeDeveloped(x, y, wavelength, photonTerm+directTerm)
			}
		}
	}
}
