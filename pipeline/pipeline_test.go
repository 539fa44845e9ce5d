package pipeline_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/tiwylli/sdfield"
	"github.com/tiwylli/sdfield/pipeline"
)

func testRunner(t *testing.T) *pipeline.Runner {
	t.Helper()
	r := pipeline.NewRunner(log.New(io.Discard))
	r.OutputDir = t.TempDir()
	r.DefaultResolution = 24
	return r
}

func sphereJob(name string) pipeline.Job {
	return pipeline.Job{
		Name:  name,
		Shape: sdfield.Spec{Type: string(sdfield.TypeSphere)},
	}
}

func TestRunWritesMesh(t *testing.T) {
	r := testRunner(t)
	if err := r.Run(sphereJob("unit_sphere")); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(r.OutputDir, "unit_sphere_24.obj")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "v ") {
		t.Errorf("output does not start with a vertex record: %q", string(b[:min(len(b), 20)]))
	}
	if !strings.Contains(string(b), "\nvn ") {
		t.Error("output has no normals")
	}
}

func TestRunExplicitOutputSTL(t *testing.T) {
	r := testRunner(t)
	job := sphereJob("stl_sphere")
	job.Output = filepath.Join(t.TempDir(), "out", "sphere.stl")
	job.Resolution = 16
	if err := r.Run(job); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(job.Output)
	if err != nil {
		t.Fatal(err)
	}
	if sz := info.Size(); sz < 84 || (sz-84)%50 != 0 {
		t.Errorf("STL size = %d, want 84+50n", sz)
	}
}

func TestRunScratchDirCleanedUp(t *testing.T) {
	r := testRunner(t)
	r.ScratchDir = t.TempDir()
	if err := r.Run(sphereJob("scratch_sphere")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(r.ScratchDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch files left behind: %v", entries)
	}
}

func TestRunJobBounds(t *testing.T) {
	r := testRunner(t)
	job := sphereJob("bounded")
	job.Bounds = &[6]float32{-2, 2, -2, 2, -2, 2}
	if err := r.Run(job); err != nil {
		t.Fatal(err)
	}
	// Inverted bounds are rejected before any evaluation.
	job.Bounds = &[6]float32{2, -2, -2, 2, -2, 2}
	if err := r.Run(job); err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestRunErrors(t *testing.T) {
	r := testRunner(t)

	bad := pipeline.Job{Shape: sdfield.Spec{Type: "sdf_bogus"}}
	if err := r.Run(bad); !errors.Is(err, sdfield.ErrUnknownShapeType) {
		t.Errorf("err = %v, want ErrUnknownShapeType", err)
	}

	mt := sphereJob("tetra")
	mt.Method = pipeline.MethodMarchingTetrahedra
	if err := r.Run(mt); !errors.Is(err, sdfield.ErrMissingCapability) {
		t.Errorf("err = %v, want ErrMissingCapability", err)
	}

	unknown := sphereJob("weird")
	unknown.Method = "dual-contouring"
	if err := r.Run(unknown); err == nil {
		t.Error("expected error for unknown method")
	}
}

// One bad job must not keep the rest of the batch from completing.
func TestRunAllIsolatesFailures(t *testing.T) {
	r := testRunner(t)
	jobs := []pipeline.Job{
		{Name: "broken", Shape: sdfield.Spec{Type: "sdf_bogus"}},
		sphereJob("survivor"),
	}
	err := r.RunAll(jobs)
	if !errors.Is(err, sdfield.ErrUnknownShapeType) {
		t.Errorf("joined err = %v, want ErrUnknownShapeType", err)
	}
	if _, statErr := os.Stat(filepath.Join(r.OutputDir, "survivor_24.obj")); statErr != nil {
		t.Errorf("surviving job wrote no output: %v", statErr)
	}
}

func TestLoadJobs(t *testing.T) {
	src := `[
		{"name": "a", "shape": {"type": "sdf_sphere", "radius": 0.5}, "resolution": 64},
		{"shape": {"type": "sdf_menger_sponge"}, "method": "mc", "output": "sponge.stl",
		 "bounds": [-2, 2, -2, 2, -2, 2], "scale": 2, "translate": [1, 0, 0]}
	]`
	path := filepath.Join(t.TempDir(), "jobs.json")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	jobs, err := pipeline.LoadJobs(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs", len(jobs))
	}
	if jobs[0].Name != "a" || jobs[0].Resolution != 64 {
		t.Errorf("job 0 = %+v", jobs[0])
	}
	if jobs[0].Shape.Overrides["radius"] != 0.5 {
		t.Errorf("job 0 shape overrides = %v", jobs[0].Shape.Overrides)
	}
	if jobs[1].Bounds == nil || jobs[1].Bounds[1] != 2 {
		t.Errorf("job 1 bounds = %v", jobs[1].Bounds)
	}
	if jobs[1].Translate != [3]float32{1, 0, 0} {
		t.Errorf("job 1 translate = %v", jobs[1].Translate)
	}

	if _, err := pipeline.LoadJobs(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := os.WriteFile(path, []byte(`{"not": "an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := pipeline.LoadJobs(path); err == nil {
		t.Error("expected error for non-array jobs file")
	}
}

// Every built-in job must pass resolution; a default batch that cannot even
// resolve is useless.
func TestDefaultJobsResolvable(t *testing.T) {
	jobs := pipeline.DefaultJobs()
	if len(jobs) == 0 {
		t.Fatal("no default jobs")
	}
	for _, job := range jobs {
		if _, err := sdfield.Resolve(job.Shape); err != nil {
			t.Errorf("job %s: %v", job.Name, err)
		}
		if job.Resolution <= 0 {
			t.Errorf("job %s: no resolution", job.Name)
		}
	}
}
