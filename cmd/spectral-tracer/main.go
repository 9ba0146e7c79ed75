// Command spectral-tracer renders a spectral-tracer project file to a
// PNG image: spec.md §6's CLI contract, a single positional project-file
// argument, exit 0 on success and a one-line message on stderr with a
// non-zero exit on failure, periodically overwriting render.png in the
// project's directory while the render runs.
//
// Grounded on the teacher's root main.go for its flag-free CLI
// structure, error-message-then-os.Exit(1) convention, and periodic
// intermediate-save loop, adapted from the teacher's multi-scene flag
// dispatch to a single project-file argument and from its
// channel-driven progressive passes to one blocking render watched by
// a ticker.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/df07/spectral-tracer/pkg/film"
	"github.com/df07/spectral-tracer/pkg/imageout"
	"github.com/df07/spectral-tracer/pkg/integrator"
	"github.com/df07/spectral-tracer/pkg/project"
)

const previewInterval = 5 * time.Second

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <project-file>\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "spectral-tracer: %v\n", err)
		os.Exit(1)
	}
}

func run(projectPath string) error {
	loaded, err := project.Load(projectPath)
	if err != nil {
		return err
	}

	projectDir := filepath.Dir(projectPath)
	previewPath := filepath.Join(projectDir, "render.png")
	outputPath := previewPath
	if loaded.Image.File != "" {
		outputPath = filepath.Join(projectDir, loaded.Image.File)
	}

	bins := loaded.Config.SpectrumSamples
	if bins < 8 {
		bins = 8
	}
	f := film.New(loaded.Image.Width, loaded.Image.Height, bins, loaded.Config.SpectrumLow, loaded.Config.SpectrumHigh)

	whitePoint := loaded.Image.White
	if whitePoint <= 0 {
		whitePoint = 1
	}

	savePreview := func() {
		pixels := f.Develop(whitePoint)
		if err := imageout.Write(previewPath, loaded.Image.Width, loaded.Image.Height, pixels); err != nil {
			// A failed intermediate save does not abort the render:
			// spec.md §7 treats periodic-write errors as logged, not fatal.
			fmt.Fprintf(os.Stderr, "spectral-tracer: periodic save failed: %v\n", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- renderWith(ctx, loaded, f)
	}()

	ticker := time.NewTicker(previewInterval)
	defer ticker.Stop()

	var renderErr error
renderLoop:
	for {
		select {
		case renderErr = <-done:
			break renderLoop
		case <-ticker.C:
			savePreview()
		}
	}
	if renderErr != nil {
		return renderErr
	}

	pixels := f.Develop(whitePoint)
	return imageout.Write(outputPath, loaded.Image.Width, loaded.Image.Height, pixels)
}

func renderWith(ctx context.Context, loaded *project.Loaded, f *film.Film) error {
	onProgress := func(done, total int) {}

	switch loaded.Algorithm {
	case "", "simple":
		strategy := &integrator.Simple{World: loaded.World, VM: loaded.VM, Config: loaded.Config}
		return integrator.Render(ctx, strategy, loaded.Camera, f, loaded.Config, loaded.Resources, onProgress)
	case "bidirectional", "bdpt":
		strategy := &integrator.Bidirectional{World: loaded.World, Camera: loaded.Camera, VM: loaded.VM, Config: loaded.Config}
		return integrator.Render(ctx, strategy, loaded.Camera, f, loaded.Config, loaded.Resources, onProgress)
	case "sppm", "photon_mapping":
		sppm := &integrator.SPPM{World: loaded.World, Camera: loaded.Camera, VM: loaded.VM, Config: loaded.Config}
		return integrator.RenderSPPM(ctx, sppm, f, loaded.Resources, onProgress)
	default:
		return fmt.Errorf("unknown renderer.algorithm %q", loaded.Algorithm)
	}
}
