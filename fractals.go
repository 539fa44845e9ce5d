package sdfield

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// juliaPower is the fixed exponent of the Julia iteration z <- z^8 + c.
const juliaPower = 8

func sdfMandelbulb(pos []ms3.Vec, dist []float32, p MandelbulbParams, vp *VecPool) {
	escapeTimeDE(pos, dist, p.Power, nil, p.MaxIterations, p.Bailout, p.SolidRadius, vp)
}

func sdfJulia(pos []ms3.Vec, dist []float32, p JuliaParams, vp *VecPool) {
	c := p.Constant
	escapeTimeDE(pos, dist, juliaPower, &c, p.MaxIterations, p.Bailout, p.SolidRadius, vp)
}

// escapeTimeDE iterates z <- z^power + c in spherical form while tracking
// the running derivative magnitude dr, then estimates distance as
// 0.5*ln(r)*r/dr. For the Mandelbulb (constant == nil) c is the sample point
// itself; for Julia sets it is the fixed constant.
//
// Lanes whose orbit radius leaves (fractalEps, bailout] are masked out so
// later iterations skip them: escaped points would blow up numerically and
// near-zero radii would poison the log. Points still inside solidRadius
// after iteration are reported as a small negative distance so the fractal
// behaves as a solid interior rather than an infinitely thin shell.
//
// The estimate is a standard escape-time approximation, not an exact SDF;
// consumers assuming Lipschitz-1 fields need their own step clamping.
func escapeTimeDE(pos []ms3.Vec, dist []float32, power float32, constant *ms3.Vec, maxIter int, bailout, solidRadius float32, vp *VecPool) {
	n := len(pos)
	z := vp.V3.Acquire(n)
	defer vp.V3.Release(z)
	dr := vp.Float.Acquire(n)
	defer vp.Float.Release(dr)
	r := vp.Float.Acquire(n)
	defer vp.Float.Release(r)

	for i, p := range pos {
		z[i] = p
		dr[i] = 1
		r[i] = ms3.Norm(p)
	}

	for it := 0; it < maxIter; it++ {
		active := 0
		for i := range z {
			ri := r[i]
			if ri <= fractalEps || ri > bailout {
				continue
			}
			active++
			theta := math32.Acos(clampf(z[i].Z/ri, -1, 1)) * power
			phi := math32.Atan2(z[i].Y, z[i].X) * power
			zr := math32.Pow(ri, power)
			dr[i] = power*math32.Pow(ri, power-1)*dr[i] + 1

			st, ct := math32.Sincos(theta)
			sp, cp := math32.Sincos(phi)
			zn := ms3.Vec{X: zr * st * cp, Y: zr * st * sp, Z: zr * ct}
			if constant != nil {
				zn = ms3.Add(zn, *constant)
			} else {
				zn = ms3.Add(zn, pos[i])
			}
			z[i] = zn
			r[i] = ms3.Norm(zn)
		}
		if active == 0 {
			break
		}
	}

	for i := range dist {
		if r[i] <= fractalEps {
			dist[i] = 0
		} else {
			dist[i] = 0.5 * math32.Log(r[i]) * r[i] / dr[i]
		}
	}
	if solidRadius > 0 {
		for i := range dist {
			if r[i] < solidRadius {
				dist[i] = -(solidRadius - r[i])
			}
		}
	}
}

// sdfMengerSponge is the iterated box-folding sponge: the intersection of
// the outer box with a cross-shaped cutout repeated at every scale, hence
// the max combine. Zero iterations leaves the plain box of HalfSize.
func sdfMengerSponge(pos []ms3.Vec, dist []float32, p MengerParams) {
	h := maxf(p.HalfSize, 1e-8)
	one := ms3.Vec{X: 1, Y: 1, Z: 1}
	for i, v := range pos {
		q := ms3.Scale(1/h, v)
		d := sdBox(q, one)
		scale := float32(1)
		for it := 0; it < p.Iterations; it++ {
			q = ms3.Vec{X: floorMod2(3 * q.X), Y: floorMod2(3 * q.Y), Z: floorMod2(3 * q.Z)}
			scale *= 3
			r := ms3.AddScalar(1, ms3.Scale(-3, ms3.AbsElem(q)))
			da := maxf(absf(r.X), absf(r.Y))
			db := maxf(absf(r.Y), absf(r.Z))
			dc := maxf(absf(r.Z), absf(r.X))
			c := (minf(minf(da, db), dc) - 1) / scale
			d = maxf(d, c)
		}
		dist[i] = d * h
	}
}
