// Package pipeline runs batch SDF-to-mesh jobs: resolve and validate the
// shape tree, sample the field in slabs, extract the isosurface and export
// the mesh. Jobs are independent units of work; one job's failure is logged
// and does not abort the rest of the batch.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/soypat/geometry/ms3"

	"github.com/tiwylli/sdfield"
)

// Method selects the isosurface extraction path.
const (
	MethodMarchingCubes      = "mc"
	MethodMarchingTetrahedra = "mt"
)

// Job describes one shape-to-mesh unit of work. Zero fields fall back to
// the runner's defaults.
type Job struct {
	// Name labels logs and, when Output is empty, the output file.
	Name string `json:"name"`
	// Shape is the partial shape spec tree; resolution happens at job start.
	Shape sdfield.Spec `json:"shape"`
	// Resolution is the per-axis sample count.
	Resolution int `json:"resolution,omitempty"`
	// Chunk is the z-slab thickness in slices.
	Chunk int `json:"chunk,omitempty"`
	// Bounds overrides the sampled box: xmin xmax ymin ymax zmin zmax.
	Bounds *[6]float32 `json:"bounds,omitempty"`
	// Method is "mc" (default) or "mt".
	Method string `json:"method,omitempty"`
	// Scale and Translate place the final mesh: v*(1/scale) - translate.
	Scale     float32    `json:"scale,omitempty"`
	Translate [3]float32 `json:"translate,omitempty"`
	// Output is the mesh path; extension selects OBJ (default) or STL.
	Output string `json:"output,omitempty"`
}

func (j Job) label() string {
	if j.Name != "" {
		return j.Name
	}
	return j.Shape.Type
}

func (j Job) method() string {
	if j.Method == "" {
		return MethodMarchingCubes
	}
	return strings.ToLower(j.Method)
}

// LoadJobs reads a JSON array of jobs.
func LoadJobs(path string) ([]Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jobs file: %w", err)
	}
	var jobs []Job
	if err := json.Unmarshal(b, &jobs); err != nil {
		return nil, fmt.Errorf("jobs file must be a JSON array of job objects: %w", err)
	}
	return jobs, nil
}

// DefaultBounds is the sampled box when neither job nor runner overrides it.
var DefaultBounds = [2]ms3.Vec{
	{X: -1.5, Y: -1.5, Z: -1.5},
	{X: 1.5, Y: 1.5, Z: 1.5},
}

// DefaultJobs is the built-in fractal showcase batch.
func DefaultJobs() []Job {
	return []Job{
		{
			Name: "mandelbulb_power8",
			Shape: sdfield.Spec{Type: string(sdfield.TypeMandelbulb), Overrides: map[string]any{
				"power": 8.0, "max_iterations": 16.0, "bailout": 8.0,
			}},
			Resolution: 320,
		},
		{
			Name: "mandelbulb_power6",
			Shape: sdfield.Spec{Type: string(sdfield.TypeMandelbulb), Overrides: map[string]any{
				"power": 6.0, "max_iterations": 18.0, "bailout": 10.0,
			}},
			Resolution: 384,
		},
		{
			Name: "julia_default",
			Shape: sdfield.Spec{Type: string(sdfield.TypeJulia), Overrides: map[string]any{
				"constant": []any{0.355, 0.355, 0.355}, "max_iterations": 28.0,
			}},
			Resolution: 320,
		},
		{
			Name: "julia_shifted",
			Shape: sdfield.Spec{Type: string(sdfield.TypeJulia), Overrides: map[string]any{
				"constant": []any{-0.2, 0.6, 0.35}, "max_iterations": 32.0,
			}},
			Resolution: 360,
		},
		{
			Name: "fbm_noise_dense",
			Shape: sdfield.Spec{Type: string(sdfield.TypeFBMNoise), Overrides: map[string]any{
				"half_extent":   []any{1.0, 1.0, 1.0},
				"corner_radius": 0.15,
				"octaves":       8.0,
				"frequency":     2.2,
				"gain":          0.55,
				"blend":         0.2,
				"noise_variant": "simplex",
				"warp_matrix": []any{
					[]any{0.0, 0.80, 0.60},
					[]any{-0.80, 0.36, -0.48},
					[]any{-0.60, -0.48, 0.64},
				},
			}},
			Resolution: 256,
		},
	}
}
