package sdfield_test

import (
	"math"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/tiwylli/sdfield"
)

// A zero-iteration sponge is the plain box of its half size.
func TestMengerZeroIterationsIsBox(t *testing.T) {
	sponge := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeMengerSponge),
		Overrides: map[string]any{"iterations": 0.0, "half_size": 1.0},
	})
	pos := []ms3.Vec{
		{},
		{X: 2},
		{X: 1, Y: 1, Z: 1},
		{X: 0.5, Y: 0.5, Z: 0.5},
		{X: 2, Y: 2},
	}
	want := []float32{
		-1,
		1,
		0,
		-0.5,
		float32(math.Sqrt2),
	}
	got := evalAt(t, sponge, pos...)
	for i := range want {
		if absd(got[i]-want[i]) > tol {
			t.Errorf("pos %v: dist = %v, want %v", pos[i], got[i], want[i])
		}
	}
}

// Iterated sponges stay inside the outer box and carve material out of it.
func TestMengerCarvesBox(t *testing.T) {
	sponge := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeMengerSponge),
		Overrides: map[string]any{"iterations": 3.0},
	})
	box := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeMengerSponge),
		Overrides: map[string]any{"iterations": 0.0},
	})
	pos := cubeLattice(1.4, 7)
	ds := evalAt(t, sponge, pos...)
	db := evalAt(t, box, pos...)
	carved := false
	for i := range pos {
		if ds[i] < db[i]-tol {
			t.Errorf("pos %v: sponge %v below box %v", pos[i], ds[i], db[i])
		}
		if ds[i] > db[i]+0.01 {
			carved = true
		}
	}
	if !carved {
		t.Error("iterated sponge never exceeds the plain box distance")
	}
	// The very center of the cross cutout is outside the sponge.
	d := evalAt(t, sponge, ms3.Vec{})[0]
	if d <= 0 {
		t.Errorf("sponge center dist = %v, want positive", d)
	}
}

func TestFBMZeroOctavesIsBase(t *testing.T) {
	noisy := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeFBMNoise),
		Overrides: map[string]any{"octaves": 0.0},
	})
	base := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeRoundBox),
		Overrides: map[string]any{"radius": 0.1},
	})
	pos := cubeLattice(1.6, 6)
	dn := evalAt(t, noisy, pos...)
	db := evalAt(t, base, pos...)
	for i := range pos {
		if dn[i] != db[i] {
			t.Errorf("pos %v: %v != base %v", pos[i], dn[i], db[i])
		}
	}
}

func TestFBMVariantsDiffer(t *testing.T) {
	lattice := resolveT(t, sdfield.Spec{Type: string(sdfield.TypeFBMNoiseSphere)})
	simplex := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeFBMNoiseSphere),
		Overrides: map[string]any{"noise_variant": "simplex"},
	})
	pos := cubeLattice(1.2, 5)
	dl := evalAt(t, lattice, pos...)
	ds := evalAt(t, simplex, pos...)
	same := true
	for i := range pos {
		if isBad(dl[i]) || isBad(ds[i]) {
			t.Fatalf("pos %v: non-finite noise distance %v / %v", pos[i], dl[i], ds[i])
		}
		if dl[i] != ds[i] {
			same = false
		}
	}
	if same {
		t.Error("lattice and simplex variants produced identical fields")
	}
}

func isBad(f float32) bool {
	f64 := float64(f)
	return math.IsNaN(f64) || math.IsInf(f64, 0)
}

func TestFractalsFiniteEverywhere(t *testing.T) {
	specs := []sdfield.Spec{
		{Type: string(sdfield.TypeMandelbulb)},
		{Type: string(sdfield.TypeMandelbulb), Overrides: map[string]any{"power": 6.0}},
		{Type: string(sdfield.TypeMandelbulb), Overrides: map[string]any{"power": 2.0, "max_iterations": 30.0}},
		{Type: string(sdfield.TypeJulia)},
		{Type: string(sdfield.TypeJulia), Overrides: map[string]any{"constant": []any{-0.2, 0.8, 0.0}}},
	}
	pos := append(cubeLattice(1.5, 6), ms3.Vec{}) // origin included
	for _, spec := range specs {
		sh := resolveT(t, spec)
		got := evalAt(t, sh, pos...)
		for i, d := range got {
			if isBad(d) {
				t.Errorf("%s at %v: dist = %v", spec.Type, pos[i], d)
			}
		}
	}
}

// Far from the set the estimator must report a clearly positive distance,
// and deep inside the solid radius a negative one.
func TestFractalSign(t *testing.T) {
	bulb := resolveT(t, sdfield.Spec{Type: string(sdfield.TypeMandelbulb)})
	far := evalAt(t, bulb, ms3.Vec{X: 4})[0]
	if far <= 0.5 {
		t.Errorf("dist at (4,0,0) = %v, want well above 0", far)
	}
	solid := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeMandelbulb),
		Overrides: map[string]any{"solid_radius": 0.4},
	})
	in := evalAt(t, solid, ms3.Vec{X: 0.1})[0]
	if absd(in-(-0.3)) > tol {
		t.Errorf("solid interior dist = %v, want -0.3", in)
	}
}

// With zero displacement amplitude the sine sphere degenerates to a sphere.
func TestSphereSineZeroAmp(t *testing.T) {
	sine := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeSphereSine),
		Overrides: map[string]any{"displacement_amp": 0.0, "radius": 1.0},
	})
	sphere := resolveT(t, sphereSpec(1))
	pos := cubeLattice(1.5, 5)
	ds := evalAt(t, sine, pos...)
	dr := evalAt(t, sphere, pos...)
	for i := range pos {
		if ds[i] != dr[i] {
			t.Errorf("pos %v: %v != %v", pos[i], ds[i], dr[i])
		}
	}
}

func TestCappedCylinder(t *testing.T) {
	cyl := resolveT(t, sdfield.Spec{Type: string(sdfield.TypeCappedCylinder)})
	pos := []ms3.Vec{
		{},
		{X: 2},
		{Y: 2},
		{Y: -2},
		{X: 2, Y: 2},
		{X: 0.5, Y: 0.5},
	}
	want := []float32{
		-1,
		1,
		1,
		1,
		float32(math.Sqrt2),
		-0.5,
	}
	got := evalAt(t, cyl, pos...)
	for i := range want {
		if absd(got[i]-want[i]) > tol {
			t.Errorf("pos %v: dist = %v, want %v", pos[i], got[i], want[i])
		}
	}
}

func TestPlane(t *testing.T) {
	plane := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypePlane),
		Overrides: map[string]any{"normal": []any{0.0, 0.0, 2.0}, "offset": 0.5},
	})
	// Normal is normalized before use.
	got := evalAt(t, plane, ms3.Vec{Z: 1}, ms3.Vec{Z: -0.5}, ms3.Vec{X: 7})
	want := []float32{1.5, 0, 0.5}
	for i := range want {
		if absd(got[i]-want[i]) > tol {
			t.Errorf("dist[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// A zero-length normal recovers as +Y instead of yielding NaNs.
	degenerate := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypePlane),
		Overrides: map[string]any{"normal": []any{0.0, 0.0, 0.0}},
	})
	got = evalAt(t, degenerate, ms3.Vec{Y: 2}, ms3.Vec{Y: -1})
	want = []float32{2, -1}
	for i := range want {
		if absd(got[i]-want[i]) > tol {
			t.Errorf("degenerate dist[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRoundBox(t *testing.T) {
	box := resolveT(t, sdfield.Spec{
		Type:      string(sdfield.TypeRoundBox),
		Overrides: map[string]any{"half_extent": []any{1.0, 1.0, 1.0}, "radius": 0.25},
	})
	pos := []ms3.Vec{
		{},
		{X: 2},
		{X: 1},
	}
	want := []float32{-1, 1, 0}
	got := evalAt(t, box, pos...)
	for i := range want {
		if absd(got[i]-want[i]) > tol {
			t.Errorf("pos %v: dist = %v, want %v", pos[i], got[i], want[i])
		}
	}
}
