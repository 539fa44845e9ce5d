package extract

import (
	"fmt"

	"github.com/fogleman/mc"
	"github.com/soypat/geometry/ms3"

	"github.com/tiwylli/sdfield/grid"
)

// Config controls vertex placement of extracted meshes. The isosurface
// level is always 0.
type Config struct {
	// Scale divides and Translate shifts world-space vertices for final
	// output placement. Scale zero means 1 (no rescaling).
	Scale     float32
	Translate ms3.Vec
	// WithNormals computes per-vertex normals from central-difference field
	// gradients.
	WithNormals bool
}

// MarchingCubes extracts the level-0 isosurface of the completed field. The
// collaborator works in grid index space; emitted vertices are scaled by the
// grid spacing and translated by the grid's minimum corner to land in world
// space, then optionally rescaled by cfg for output placement.
//
// The collaborator consumes the full field at once, so the hand-off
// re-materializes the out-of-core field in memory as float64.
func MarchingCubes(f *grid.Field, cfg Config) (Mesh, error) {
	g := f.Grid()
	vals := f.Values()
	if vals == nil {
		return Mesh{}, fmt.Errorf("field already released")
	}
	// Ours is z-fastest [x][y][z]; the collaborator wants x-fastest.
	data := make([]float64, g.Len())
	for ix := 0; ix < g.Nx; ix++ {
		for iy := 0; iy < g.Ny; iy++ {
			row := (ix*g.Ny + iy) * g.Nz
			for iz := 0; iz < g.Nz; iz++ {
				data[ix+iy*g.Nx+iz*g.Nx*g.Ny] = float64(vals[row+iz])
			}
		}
	}
	tris := mc.MarchingCubesGrid(g.Nx, g.Ny, g.Nz, data, 0)

	mesh := indexMesh(tris)
	if cfg.WithNormals {
		mesh.Normals = make([]ms3.Vec, len(mesh.Vertices))
		for i, v := range mesh.Vertices {
			mesh.Normals[i] = fieldNormal(f, v)
		}
	}
	toWorld(&mesh, g, cfg)
	return mesh, nil
}

// indexMesh welds the collaborator's triangle soup into vertex/face lists.
// Shared edges yield bit-identical interpolated coordinates, so exact keys
// suffice for deduplication. Vertices stay in grid index space.
func indexMesh(tris []mc.Triangle) Mesh {
	var mesh Mesh
	index := make(map[[3]float64]int, len(tris))
	add := func(v mc.Vector) int {
		key := [3]float64{v.X, v.Y, v.Z}
		if i, ok := index[key]; ok {
			return i
		}
		i := len(mesh.Vertices)
		index[key] = i
		mesh.Vertices = append(mesh.Vertices, ms3.Vec{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)})
		return i
	}
	mesh.Faces = make([][3]int, 0, len(tris))
	for _, t := range tris {
		mesh.Faces = append(mesh.Faces, [3]int{add(t.V1), add(t.V2), add(t.V3)})
	}
	return mesh
}

// toWorld maps index-space vertices to world space and applies the output
// placement transform v*(1/scale) - translate.
func toWorld(m *Mesh, g grid.Grid, cfg Config) {
	d := g.Spacing()
	scale := cfg.Scale
	if scale == 0 {
		scale = 1
	}
	inv := 1 / scale
	// Uniform rescale leaves normal directions unchanged.
	for i, v := range m.Vertices {
		w := ms3.Add(g.Min, ms3.MulElem(v, d))
		m.Vertices[i] = ms3.Sub(ms3.Scale(inv, w), cfg.Translate)
	}
}

// fieldNormal estimates the outward surface normal at an index-space
// position from central differences of trilinearly interpolated field
// samples, one cell step per axis.
func fieldNormal(f *grid.Field, p ms3.Vec) ms3.Vec {
	const h = 0.5
	n := ms3.Vec{
		X: sampleField(f, p.X+h, p.Y, p.Z) - sampleField(f, p.X-h, p.Y, p.Z),
		Y: sampleField(f, p.X, p.Y+h, p.Z) - sampleField(f, p.X, p.Y-h, p.Z),
		Z: sampleField(f, p.X, p.Y, p.Z+h) - sampleField(f, p.X, p.Y, p.Z-h),
	}
	if nn := ms3.Norm(n); nn > 0 {
		n = ms3.Scale(1/nn, n)
	}
	return n
}

// sampleField trilinearly interpolates the field at fractional index-space
// coordinates, clamping to the grid.
func sampleField(f *grid.Field, x, y, z float32) float32 {
	g := f.Grid()
	x0, fx := splitClamp(x, g.Nx)
	y0, fy := splitClamp(y, g.Ny)
	z0, fz := splitClamp(z, g.Nz)
	x1, y1, z1 := clampIdx(x0+1, g.Nx), clampIdx(y0+1, g.Ny), clampIdx(z0+1, g.Nz)

	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }
	c00 := lerp(f.At(x0, y0, z0), f.At(x1, y0, z0), fx)
	c10 := lerp(f.At(x0, y1, z0), f.At(x1, y1, z0), fx)
	c01 := lerp(f.At(x0, y0, z1), f.At(x1, y0, z1), fx)
	c11 := lerp(f.At(x0, y1, z1), f.At(x1, y1, z1), fx)
	return lerp(lerp(c00, c10, fy), lerp(c01, c11, fy), fz)
}

func splitClamp(v float32, n int) (int, float32) {
	if v <= 0 {
		return 0, 0
	}
	if v >= float32(n-1) {
		return n - 1, 0
	}
	i := int(v)
	return i, v - float32(i)
}

func clampIdx(i, n int) int {
	if i >= n {
		return n - 1
	}
	return i
}
