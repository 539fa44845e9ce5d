package sdfield

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Closed-form primitive kernels. Each is a pure function over the whole
// point batch: no per-point branching crosses the call boundary.

func sdfSphere(pos []ms3.Vec, dist []float32, p SphereParams) {
	r := p.Radius
	for i, q := range pos {
		dist[i] = ms3.Norm(q) - r
	}
}

func sdfPlane(pos []ms3.Vec, dist []float32, p PlaneParams) {
	n := p.Normal
	if ms3.Norm(n) <= epstol {
		// Degenerate zero-length normal recovers as +Y.
		n = ms3.Vec{Y: 1}
	} else {
		n = ms3.Unit(n)
	}
	off := p.Offset
	for i, q := range pos {
		dist[i] = ms3.Dot(q, n) + off
	}
}

func sdfRoundBox(pos []ms3.Vec, dist []float32, p RoundBoxParams) {
	d := p.HalfExtent
	r := p.Radius
	for i, v := range pos {
		q := ms3.AddScalar(r, ms3.Sub(ms3.AbsElem(v), d))
		dist[i] = ms3.Norm(ms3.MaxElem(q, ms3.Vec{})) + minf(maxcomp(q), 0) - r
	}
}

func sdfSphereSine(pos []ms3.Vec, dist []float32, p SphereSineParams) {
	r := p.Radius
	f := p.DisplacementFreq
	a := p.DisplacementAxisAmp
	amp := p.DisplacementAmp
	for i, v := range pos {
		disp := math32.Sin(f.X*v.X) * a.X
		disp *= math32.Sin(f.Y*v.Y) * a.Y
		disp *= math32.Sin(f.Z*v.Z) * a.Z
		dist[i] = ms3.Norm(v) - r + amp*disp
	}
}

func sdfCappedCylinder(pos []ms3.Vec, dist []float32, p CappedCylinderParams) {
	r := p.Radius
	h := p.HalfHeight
	for i, v := range pos {
		dx := math32.Hypot(v.X, v.Z) - r
		dy := math32.Abs(v.Y) - h
		dist[i] = minf(maxf(dx, dy), 0) + math32.Hypot(maxf(dx, 0), maxf(dy, 0))
	}
}
