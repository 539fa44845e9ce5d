package extract

import (
	"fmt"
	"math/rand"

	"github.com/soypat/geometry/ms3"

	"github.com/tiwylli/sdfield"
	"github.com/tiwylli/sdfield/grid"
)

// Tetrahedralizer is the optional marching-tetrahedra collaborator pair:
// a Delaunay tetrahedralization of scattered points and an isosurface walk
// over the resulting simplices. The core never implements these; a build
// that wants the path registers an implementation at startup.
type Tetrahedralizer interface {
	// Delaunay tetrahedralizes the point cloud into 4-index simplices.
	Delaunay(points []ms3.Vec) ([][4]int, error)
	// MarchingTetrahedra extracts the level-0 surface of the per-point sdf
	// values over the simplices.
	MarchingTetrahedra(points []ms3.Vec, simplices [][4]int, sdf []float32) (vertices []ms3.Vec, faces [][3]int, err error)
}

var tetrahedralizer Tetrahedralizer

// RegisterTetrahedralizer installs the marching-tetrahedra collaborator.
// Call once at program startup, before jobs are validated.
func RegisterTetrahedralizer(t Tetrahedralizer) { tetrahedralizer = t }

// HasTetrahedralizer reports whether the marching-tetrahedra path is
// available. Job validation checks this before any grid evaluation begins.
func HasTetrahedralizer() bool { return tetrahedralizer != nil }

// jitterScale matches the perturbation the Delaunay path needs to avoid
// degenerate tetrahedra on regular grids.
const jitterScale = 1e-4

// MarchingTetrahedra evaluates sdf at jittered grid points, tetrahedralizes
// them and walks the level-0 surface. The jitter is deterministic so the
// path stays reproducible. Returns sdfield.ErrMissingCapability when no
// collaborator is registered.
func MarchingTetrahedra(sdf grid.SDF, g grid.Grid, cfg Config) (Mesh, error) {
	if tetrahedralizer == nil {
		return Mesh{}, fmt.Errorf("%w: marching tetrahedra requires a registered Tetrahedralizer", sdfield.ErrMissingCapability)
	}
	xs, ys, zs := g.Axes()
	rng := rand.New(rand.NewSource(1))
	points := make([]ms3.Vec, 0, g.Len())
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				points = append(points, ms3.Vec{
					X: x + float32(rng.NormFloat64())*jitterScale,
					Y: y + float32(rng.NormFloat64())*jitterScale,
					Z: z + float32(rng.NormFloat64())*jitterScale,
				})
			}
		}
	}
	dist := make([]float32, len(points))
	if err := sdf.Evaluate(points, dist, nil); err != nil {
		return Mesh{}, fmt.Errorf("evaluating jittered grid: %w", err)
	}
	simplices, err := tetrahedralizer.Delaunay(points)
	if err != nil {
		return Mesh{}, fmt.Errorf("tetrahedralizing: %w", err)
	}
	verts, faces, err := tetrahedralizer.MarchingTetrahedra(points, simplices, dist)
	if err != nil {
		return Mesh{}, fmt.Errorf("marching tetrahedra: %w", err)
	}
	mesh := Mesh{Vertices: verts, Faces: faces}
	scale := cfg.Scale
	if scale == 0 {
		scale = 1
	}
	inv := 1 / scale
	// Collaborator vertices are already world space; apply output placement.
	for i, v := range mesh.Vertices {
		mesh.Vertices[i] = ms3.Sub(ms3.Scale(inv, v), cfg.Translate)
	}
	return mesh, nil
}
