package grid_test

import (
	"math"
	"os"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/tiwylli/sdfield"
	"github.com/tiwylli/sdfield/grid"
)

func resolveT(t *testing.T, spec sdfield.Spec) sdfield.Shape {
	t.Helper()
	sh, err := sdfield.Resolve(spec)
	if err != nil {
		t.Fatal(err)
	}
	return sh
}

func TestGridValidation(t *testing.T) {
	lo := ms3.Vec{X: -1, Y: -1, Z: -1}
	hi := ms3.Vec{X: 1, Y: 1, Z: 1}
	if _, err := grid.New(lo, hi, 1); err == nil {
		t.Error("expected error for resolution 1")
	}
	if _, err := grid.New(hi, lo, 8); err == nil {
		t.Error("expected error for inverted bounds")
	}
	if _, err := grid.NewAxes(lo, ms3.Vec{X: 1, Y: -1, Z: 1}, 8, 8, 8); err == nil {
		t.Error("expected error for degenerate axis")
	}
	g, err := grid.NewAxes(lo, hi, 3, 5, 9)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 3*5*9 {
		t.Errorf("Len = %d", g.Len())
	}
}

func TestGridAxes(t *testing.T) {
	g, err := grid.New(ms3.Vec{X: -1.5, Y: -1.5, Z: -1.5}, ms3.Vec{X: 1.5, Y: 1.5, Z: 1.5}, 7)
	if err != nil {
		t.Fatal(err)
	}
	xs, ys, zs := g.Axes()
	for _, axis := range [][]float32{xs, ys, zs} {
		if len(axis) != 7 {
			t.Fatalf("axis length = %d", len(axis))
		}
		if axis[0] != -1.5 || axis[6] != 1.5 {
			t.Errorf("axis endpoints = %v, %v", axis[0], axis[6])
		}
		for i := 1; i < len(axis); i++ {
			if axis[i] <= axis[i-1] {
				t.Errorf("axis not ascending at %d: %v", i, axis)
			}
		}
	}
	sp := g.Spacing()
	if math.Abs(float64(sp.X-0.5)) > 1e-6 {
		t.Errorf("spacing = %v, want 0.5", sp.X)
	}
}

// The slab size is an execution detail: any chunking must produce the exact
// same field as evaluating all slices at once.
func TestBuildChunkInvariance(t *testing.T) {
	shapes := []sdfield.Spec{
		{Type: string(sdfield.TypeSphere)},
		{Type: string(sdfield.TypeFBMNoiseSphere)},
	}
	g, err := grid.New(ms3.Vec{X: -1.5, Y: -1.5, Z: -1.5}, ms3.Vec{X: 1.5, Y: 1.5, Z: 1.5}, 11)
	if err != nil {
		t.Fatal(err)
	}
	for _, spec := range shapes {
		sh := resolveT(t, spec)
		whole, err := grid.Build(&sh, g, grid.Options{SlabSize: g.Nz})
		if err != nil {
			t.Fatal(err)
		}
		chunked, err := grid.Build(&sh, g, grid.Options{SlabSize: 3})
		if err != nil {
			t.Fatal(err)
		}
		a, b := whole.Values(), chunked.Values()
		if len(a) != g.Len() || len(b) != g.Len() {
			t.Fatalf("%s: field lengths %d, %d, want %d", spec.Type, len(a), len(b), g.Len())
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("%s: sample %d differs: %v vs %v", spec.Type, i, a[i], b[i])
				break
			}
		}
		whole.Close()
		chunked.Close()
	}
}

func TestBuildFieldValues(t *testing.T) {
	sh := resolveT(t, sdfield.Spec{Type: string(sdfield.TypeSphere)})
	g, err := grid.New(ms3.Vec{X: -2, Y: -2, Z: -2}, ms3.Vec{X: 2, Y: 2, Z: 2}, 9)
	if err != nil {
		t.Fatal(err)
	}
	f, err := grid.Build(&sh, g, grid.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if f.Mapped() {
		t.Error("field mapped without a scratch dir")
	}
	xs, ys, zs := g.Axes()
	for _, idx := range [][3]int{{0, 0, 0}, {4, 4, 4}, {8, 0, 3}, {2, 7, 5}} {
		ix, iy, iz := idx[0], idx[1], idx[2]
		p := ms3.Vec{X: xs[ix], Y: ys[iy], Z: zs[iz]}
		want := ms3.Norm(p) - 1
		got := f.At(ix, iy, iz)
		if math.Abs(float64(got-want)) > 1e-5 {
			t.Errorf("At(%d,%d,%d) = %v, want %v", ix, iy, iz, got, want)
		}
	}
}

func TestBuildMappedField(t *testing.T) {
	dir := t.TempDir()
	sh := resolveT(t, sdfield.Spec{Type: string(sdfield.TypeSphere)})
	g, err := grid.New(ms3.Vec{X: -1.5, Y: -1.5, Z: -1.5}, ms3.Vec{X: 1.5, Y: 1.5, Z: 1.5}, 8)
	if err != nil {
		t.Fatal(err)
	}
	mem, err := grid.Build(&sh, g, grid.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer mem.Close()
	mapped, err := grid.Build(&sh, g, grid.Options{ScratchDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if !mapped.Mapped() {
		t.Fatal("field not mapped with a scratch dir")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("scratch dir has %d entries, want 1", len(entries))
	}
	a, b := mem.Values(), mapped.Values()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("mapped sample %d differs: %v vs %v", i, b[i], a[i])
		}
	}
	if err := mapped.Close(); err != nil {
		t.Fatal(err)
	}
	if err := mapped.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	entries, err = os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch file not removed: %v", entries)
	}
}

func TestBuildNilSDF(t *testing.T) {
	g, _ := grid.New(ms3.Vec{X: -1, Y: -1, Z: -1}, ms3.Vec{X: 1, Y: 1, Z: 1}, 4)
	if _, err := grid.Build(nil, g, grid.Options{}); err == nil {
		t.Error("expected error for nil SDF")
	}
}
