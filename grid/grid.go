// Package grid samples signed distance fields densely over an axis-aligned
// bounding box, streaming evaluation in z-slabs into a scalar field that may
// be backed by a memory-mapped scratch file when the field exceeds RAM.
package grid

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// SDF is the batch evaluation contract consumed by the sampler, implemented
// by [github.com/tiwylli/sdfield.Shape].
type SDF interface {
	// Evaluate evaluates the signed distance field over pos positions.
	// dist and pos must be of same length.
	Evaluate(pos []ms3.Vec, dist []float32, userData any) error
}

// Grid is an axis-aligned sampling box with per-axis sample counts. The
// default pipeline uses the same count along all three axes but the counts
// are independent.
type Grid struct {
	Min, Max   ms3.Vec
	Nx, Ny, Nz int
}

// New returns a grid with res samples along each axis.
func New(min, max ms3.Vec, res int) (Grid, error) {
	return NewAxes(min, max, res, res, res)
}

// NewAxes returns a grid with independent per-axis sample counts. Bounds
// must satisfy min < max componentwise and every count must be at least 2.
func NewAxes(min, max ms3.Vec, nx, ny, nz int) (Grid, error) {
	if nx < 2 || ny < 2 || nz < 2 {
		return Grid{}, fmt.Errorf("grid resolution must be at least 2 per axis, got %dx%dx%d", nx, ny, nz)
	}
	if min.X >= max.X || min.Y >= max.Y || min.Z >= max.Z {
		return Grid{}, errors.New("grid bounds must satisfy min < max componentwise")
	}
	return Grid{Min: min, Max: max, Nx: nx, Ny: ny, Nz: nz}, nil
}

// Len is the total number of samples in the grid.
func (g Grid) Len() int { return g.Nx * g.Ny * g.Nz }

// Spacing returns the per-axis step between adjacent samples.
func (g Grid) Spacing() ms3.Vec {
	return ms3.Vec{
		X: (g.Max.X - g.Min.X) / float32(g.Nx-1),
		Y: (g.Max.Y - g.Min.Y) / float32(g.Ny-1),
		Z: (g.Max.Z - g.Min.Z) / float32(g.Nz-1),
	}
}

// Axes returns the three ascending, evenly spaced coordinate arrays, with
// both bounds included as the first and last samples.
func (g Grid) Axes() (xs, ys, zs []float32) {
	return linspace(g.Min.X, g.Max.X, g.Nx),
		linspace(g.Min.Y, g.Max.Y, g.Ny),
		linspace(g.Min.Z, g.Max.Z, g.Nz)
}

func linspace(lo, hi float32, n int) []float32 {
	s := make([]float32, n)
	step := (hi - lo) / float32(n-1)
	for i := range s {
		s[i] = lo + float32(i)*step
	}
	s[n-1] = hi
	return s
}
