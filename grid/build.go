package grid

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/soypat/geometry/ms3"

	"github.com/tiwylli/sdfield"
)

// DefaultSlabSize keeps one slab's flattened point batch comfortably in
// memory at the resolutions the batch driver defaults to.
const DefaultSlabSize = 8

// Options configures field construction.
type Options struct {
	// SlabSize is the number of z slices evaluated per batch. Zero means
	// DefaultSlabSize.
	SlabSize int
	// ScratchDir, when non-empty, backs the field with a memory-mapped file
	// under that directory instead of process memory.
	ScratchDir string
	// Logger receives per-slab progress. Nil disables progress reporting.
	Logger *log.Logger
}

// Build evaluates sdf densely over g and returns the completed field. The
// evaluation streams in z-slabs: one flattened point batch per slab, one
// Evaluate call, one contiguous write per (x,y) row. Peak memory is bounded
// by the slab batch regardless of grid size when a scratch dir is given.
//
// The field has a single writer (this function) for its entire lifetime and
// is read-only afterwards. On error the backing store is already released.
func Build(sdf SDF, g Grid, opts Options) (field *Field, err error) {
	if sdf == nil {
		return nil, fmt.Errorf("nil SDF")
	}
	slab := opts.SlabSize
	if slab <= 0 {
		slab = DefaultSlabSize
	}
	if slab > g.Nz {
		slab = g.Nz
	}
	if opts.ScratchDir != "" {
		field, err = newMappedField(g, opts.ScratchDir)
		if err != nil {
			return nil, err
		}
	} else {
		field = newMemField(g)
	}
	// The scratch file must not outlive a failed build.
	defer func() {
		if err != nil {
			field.Close()
			field = nil
		}
	}()

	xs, ys, zs := g.Axes()
	batch := g.Nx * g.Ny * slab
	pos := make([]ms3.Vec, batch)
	dist := make([]float32, batch)
	vp := &sdfield.VecPool{}

	start := time.Now()
	for z0 := 0; z0 < g.Nz; z0 += slab {
		z1 := min(z0+slab, g.Nz)
		zc := zs[z0:z1]
		k := 0
		for ix := 0; ix < g.Nx; ix++ {
			for iy := 0; iy < g.Ny; iy++ {
				for _, z := range zc {
					pos[k] = ms3.Vec{X: xs[ix], Y: ys[iy], Z: z}
					k++
				}
			}
		}
		if err = sdf.Evaluate(pos[:k], dist[:k], vp); err != nil {
			return nil, fmt.Errorf("evaluating slab at z=%d: %w", z0, err)
		}
		nzc := len(zc)
		for ix := 0; ix < g.Nx; ix++ {
			for iy := 0; iy < g.Ny; iy++ {
				row := (ix*g.Ny + iy)
				copy(field.data[row*g.Nz+z0:row*g.Nz+z1], dist[row*nzc:(row+1)*nzc])
			}
		}
		if opts.Logger != nil {
			opts.Logger.Info("slab written", "slices", z1, "total", g.Nz, "elapsed", time.Since(start).Round(time.Millisecond))
		}
	}
	if err = field.Flush(); err != nil {
		return nil, fmt.Errorf("flushing field: %w", err)
	}
	return field, nil
}
