package integrator

import (
	"context"

	"github.com/df07/spectral-tracer/pkg/camera"
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/film"
	"github.com/df07/spectral-tracer/pkg/shader"
	"github.com/df07/spectral-tracer/pkg/spectrum"
	"github.com/df07/spectral-tracer/pkg/workpool"
)

// Splat exposes one additional spectral sample at the film position a
// camera screen-space target (the same [-1,1]x[-1,1], y-up space
// Camera.IsVisible returns) maps to, independent of the pixel the
// originating camera sample belongs to. Bidirectional uses this to
// land a light-subpath vertex's camera connection on whatever pixel it
// actually projects to, per spec.md §4.I's "project every diffuse
// light-path vertex visible to the camera onto the film and splat it
// there". Taking screen space rather than a film position keeps a
// Strategy implementation independent of tile geometry.
type Splat func(screenTarget core.Vec2, s film.Sample)

// Strategy is the per-camera-sample tracing contract Simple and
// Bidirectional both satisfy, spec.md §4.I's "for each pixel sample:
// draw a wavelength bundle, trace a ray, expose the result". splat lets
// a strategy deposit additional samples elsewhere on the film in the
// same pass (Bidirectional's camera-side light connections); Simple
// ignores it. Stochastic progressive photon mapping drives the film
// differently (a photon pass followed by a camera pass) and is run
// through RenderSPPM instead.
type Strategy interface {
	TraceRay(ray core.Ray, bundle spectrum.Bundle, pool *spectrum.Pool, res shader.Resources, rng *core.RNG, splat Splat) *spectrum.Coherent
}

type tileTask struct {
	tile  *film.Tile
	index int
}

// renderTile runs every pixel sample of one tile and flushes its
// exposures, spec.md §4.I's per-tile loop: "iterate pixels, for each
// pixel iterate pixel_samples, for each sample draw a wavelength
// bundle and a position inside the pixel, trace, expose".
func renderTile(strategy Strategy, cam *camera.Camera, tile *film.Tile, cfg Config, res shader.Resources, seed uint64) {
	rng := core.NewRNG(seed)
	pool := spectrum.NewPool(cfg.SpectrumSamples)
	x0, y0, x1, y1 := tile.Bounds()
	splat := func(target core.Vec2, s film.Sample) { tile.Expose(tile.FromScreen(target), s) }

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			for i := 0; i < cfg.PixelSamples; i++ {
				pos := tile.PixelPosition(x, y, rng)
				target := tile.ScreenTarget(pos)
				ray := cam.RayTowards(target, rng)
				bundle := spectrum.SampleBundle(rng, cfg.SpectrumSamples, cfg.SpectrumLow, cfg.SpectrumHigh)

				radiance := strategy.TraceRay(ray, bundle, pool, res, rng, splat)
				for b := 0; b < bundle.Len(); b++ {
					tile.Expose(pos, film.Sample{Wavelength: bundle[b], Brightness: radiance.At(b), Weight: 1})
				}
				radiance.Release()
			}
		}
	}
	tile.Finish()
}

// Render drives strategy across every tile of f through a worker
// pool, spec.md §4.J's task runner: fixed worker count, progress
// throttled to onProgress, cooperative cancellation via ctx.
func Render(ctx context.Context, strategy Strategy, cam *camera.Camera, f *film.Film, cfg Config, res shader.Resources, onProgress func(done, total int)) error {
	tiles := f.Tiles(cfg.TileSize)
	tasks := make([]tileTask, len(tiles))
	for i, t := range tiles {
		tasks[i] = tileTask{tile: t, index: i}
	}

	pool := workpool.New(cfg.Workers)
	_, err := workpool.Run(ctx, pool, tasks, func(_ context.Context, task tileTask) (struct{}, error) {
		renderTile(strategy, cam, task.tile, cfg, res, tileSeed(cfg.Seed, task.index))
		return struct{}{}, nil
	}, onProgress)
	return err
}
