package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/soypat/geometry/ms3"

	"github.com/tiwylli/sdfield"
	"github.com/tiwylli/sdfield/extract"
	"github.com/tiwylli/sdfield/grid"
)

// Runner executes jobs sequentially with shared defaults. It is stateless
// apart from its logger: each job builds, consumes and releases its own
// scalar field. Jobs have no data dependencies on one another, so callers
// wanting parallelism may run one Runner per worker.
type Runner struct {
	Logger *log.Logger
	// OutputDir receives meshes for jobs without an explicit output path.
	OutputDir string
	// ScratchDir backs fields with memory-mapped files; empty keeps fields
	// in memory.
	ScratchDir string
	// Defaults for jobs that omit the corresponding field.
	DefaultResolution int
	DefaultChunk      int
	DefaultBounds     [2]ms3.Vec
}

// NewRunner returns a runner with the reference defaults: resolution 256,
// slab thickness 8, bounds [-1.5,1.5]^3.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Logger:            logger,
		DefaultResolution: 256,
		DefaultChunk:      grid.DefaultSlabSize,
		DefaultBounds:     DefaultBounds,
	}
}

// RunAll executes every job, isolating failures: a failed job is logged and
// reported in the joined error while the remaining jobs still run.
func (r *Runner) RunAll(jobs []Job) error {
	var errs []error
	for _, job := range jobs {
		if err := r.Run(job); err != nil {
			r.Logger.Error("job failed", "job", job.label(), "err", err)
			errs = append(errs, fmt.Errorf("job %s: %w", job.label(), err))
		}
	}
	return errors.Join(errs...)
}

// Run executes one job end to end. The whole tree is resolved and the
// extraction capability checked before any grid evaluation begins; no
// partial field is ever handed to extraction.
func (r *Runner) Run(job Job) (err error) {
	shape, err := sdfield.Resolve(job.Shape)
	if err != nil {
		return err
	}
	method := job.method()
	switch method {
	case MethodMarchingCubes:
	case MethodMarchingTetrahedra:
		if !extract.HasTetrahedralizer() {
			return fmt.Errorf("%w: job requests marching tetrahedra", sdfield.ErrMissingCapability)
		}
	default:
		return fmt.Errorf("unknown extraction method %q", job.Method)
	}

	res := job.Resolution
	if res <= 0 {
		res = r.DefaultResolution
	}
	chunk := job.Chunk
	if chunk <= 0 {
		chunk = r.DefaultChunk
	}
	bmin, bmax := r.DefaultBounds[0], r.DefaultBounds[1]
	if job.Bounds != nil {
		b := *job.Bounds
		bmin = ms3.Vec{X: b[0], Y: b[2], Z: b[4]}
		bmax = ms3.Vec{X: b[1], Y: b[3], Z: b[5]}
	}
	g, err := grid.New(bmin, bmax, res)
	if err != nil {
		return err
	}
	output := job.Output
	if output == "" {
		output = filepath.Join(r.OutputDir, fmt.Sprintf("%s_%d.obj", job.label(), res))
	}

	r.Logger.Info("job start", "job", job.label(), "res", res, "chunk", chunk, "method", method)
	start := time.Now()

	cfg := extract.Config{
		Scale:       job.Scale,
		Translate:   ms3.Vec{X: job.Translate[0], Y: job.Translate[1], Z: job.Translate[2]},
		WithNormals: true,
	}
	var mesh extract.Mesh
	if method == MethodMarchingTetrahedra {
		mesh, err = extract.MarchingTetrahedra(&shape, g, cfg)
		if err != nil {
			return err
		}
	} else {
		field, err := grid.Build(&shape, g, grid.Options{
			SlabSize:   chunk,
			ScratchDir: r.ScratchDir,
			Logger:     r.Logger,
		})
		if err != nil {
			return err
		}
		// The field is scratch: release it whether or not extraction
		// succeeds.
		defer field.Close()
		mesh, err = extract.MarchingCubes(field, cfg)
		if err != nil {
			return err
		}
	}

	if err := writeMesh(output, mesh); err != nil {
		return err
	}
	r.Logger.Info("job done", "job", job.label(), "output", output,
		"vertices", len(mesh.Vertices), "faces", len(mesh.Faces),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func writeMesh(path string, mesh extract.Mesh) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mesh file: %w", err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".stl") {
		_, err = extract.WriteBinarySTL(f, mesh)
	} else {
		err = extract.WriteOBJ(f, mesh)
	}
	if err != nil {
		return fmt.Errorf("writing mesh: %w", err)
	}
	return f.Close()
}
