package sdfield

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// hashCell mixes integer lattice cell coordinates into a deterministic
// pseudo-random scalar in [-1,1]. Both noise kernels are built from this
// single primitive. Inputs must be exactly integral (floors of sample
// coordinates plus 0/1 corner offsets).
func hashCell(v ms3.Vec) float32 {
	n := int64(v.X)*15731 + int64(v.Y)*789221 + int64(v.Z)*13763125899
	n = (n << 13) ^ n
	nn := n*(n*n*15731+789221) + 13763125899
	return 1 - float32(nn&0x7fffffff)/1073741824.0
}

// latticeNoise is hash-based value noise: the distance to the nearest of 8
// pseudo-random spheres seeded on the corners of the containing cell.
func latticeNoise(p ms3.Vec) float32 {
	cell := ms3.Vec{X: math32.Floor(p.X), Y: math32.Floor(p.Y), Z: math32.Floor(p.Z)}
	frac := ms3.Sub(p, cell)
	result := float32(largenum)
	for dx := float32(0); dx <= 1; dx++ {
		for dy := float32(0); dy <= 1; dy++ {
			for dz := float32(0); dz <= 1; dz++ {
				corner := ms3.Vec{X: dx, Y: dy, Z: dz}
				h := hashCell(ms3.Add(cell, corner))
				radius := h * h * 0.7
				d := ms3.Norm(ms3.Sub(frac, corner)) - radius
				result = minf(result, d)
			}
		}
	}
	return result
}

// simplexNoise is gradient-style noise over the 4 corners of the containing
// simplex, using the same cell hash.
func simplexNoise(p ms3.Vec) float32 {
	const k1 = 1.0 / 3.0
	const k2 = 1.0 / 6.0
	s := (p.X + p.Y + p.Z) * k1
	i := ms3.Vec{
		X: math32.Floor(p.X + s),
		Y: math32.Floor(p.Y + s),
		Z: math32.Floor(p.Z + s),
	}
	t := (i.X + i.Y + i.Z) * k2
	d0 := ms3.Sub(p, ms3.AddScalar(-t, i))

	ex := b2f(d0.Y < d0.X)
	ey := b2f(d0.Z < d0.Y)
	ez := b2f(d0.X < d0.Z)
	i1 := ms3.Vec{X: ex * (1 - ez), Y: ey * (1 - ex), Z: ez * (1 - ey)}
	i2 := ms3.Vec{X: 1 - ex*(1-ez), Y: 1 - ey*(1-ex), Z: 1 - ez*(1-ey)}

	d1 := ms3.AddScalar(k2, ms3.Sub(d0, i1))
	d2 := ms3.AddScalar(2*k2, ms3.Sub(d0, i2))
	d3 := ms3.AddScalar(-0.5, d0)

	r0 := hashCell(i)
	r1 := hashCell(ms3.Add(i, i1))
	r2 := hashCell(ms3.Add(i, i2))
	r3 := hashCell(ms3.AddScalar(1, i))

	sph := func(delta ms3.Vec, r float32) float32 {
		return ms3.Norm(delta) - 0.55*r*r
	}
	return minf(minf(sph(d0, r0), sph(d1, r1)), minf(sph(d2, r2), sph(d3, r3)))
}

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// warpApply multiplies the warp matrix rows against v: the domain warping
// step between fBm octaves.
func warpApply(w [3]ms3.Vec, v ms3.Vec) ms3.Vec {
	return ms3.Vec{X: ms3.Dot(w[0], v), Y: ms3.Dot(w[1], v), Z: ms3.Dot(w[2], v)}
}

// sdfFBM carves multi-octave noise into the base distances already stored in
// dist. Each octave combines -amp*noise into the running result through
// smoothMax with a transition band scaled by the current amplitude, then
// warps the sample points and decays amplitude/raises frequency for the
// next. Zero octaves returns the base distances untouched.
func sdfFBM(pos []ms3.Vec, dist []float32, p NoiseParams, vp *VecPool) {
	if p.Octaves <= 0 {
		return
	}
	warped := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(warped)
	for i, v := range pos {
		warped[i] = ms3.Add(v, p.Offset)
	}
	amp := float32(1)
	freq := float32(1)
	simplex := p.Variant == NoiseSimplex
	for oct := 0; oct < p.Octaves; oct++ {
		band := p.Blend * amp
		for i, w := range warped {
			q := ms3.Scale(freq, w)
			var noise float32
			if simplex {
				noise = simplexNoise(q)
			} else {
				noise = latticeNoise(q)
			}
			dist[i] = smoothMax(dist[i], -amp*noise, band)
		}
		for i, w := range warped {
			warped[i] = warpApply(p.Warp, w)
		}
		amp *= p.Gain
		freq *= p.Frequency
	}
}

func sdfFBMNoise(pos []ms3.Vec, dist []float32, p FBMNoiseParams, vp *VecPool) {
	sdfRoundBox(pos, dist, RoundBoxParams{HalfExtent: p.HalfExtent, Radius: p.CornerRadius})
	sdfFBM(pos, dist, p.Noise, vp)
}

func sdfFBMNoiseSphere(pos []ms3.Vec, dist []float32, p FBMNoiseSphereParams, vp *VecPool) {
	sdfSphere(pos, dist, SphereParams{Radius: p.Radius})
	sdfFBM(pos, dist, p.Noise, vp)
}
