// Package sdfield evaluates trees of analytic and fractal signed distance
// fields over batches of 3D points.
//
// A shape is described by a [Spec]: a JSON-compatible tree of primitives,
// escape-time fractals, noise-displaced surfaces and CSG combinators.
// [Resolve] merges the user description with per-type defaults and validates
// the whole tree up front; the resulting [Shape] evaluates batches of points
// through a single recursive pass, transforming points into each node's local
// frame and rescaling distances on the way back out.
//
// Evaluation is vectorized: a kernel receives the entire point batch and
// fills the matching distance slice in one call. Scratch buffers are recycled
// through a [VecPool] passed as userData.
package sdfield

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	// epstol is used to check for badly conditioned denominators
	// such as lengths used for normalization.
	epstol = 6e-7
	// fractalEps is the numerical floor below which escape-time orbits are
	// treated as sitting exactly on the set (distance 0).
	fractalEps = 1e-8
	largenum   = 1e20
)

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

func absf(a float32) float32 {
	return math32.Abs(a)
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}

func maxcomp(v ms3.Vec) float32 {
	return maxf(v.X, maxf(v.Y, v.Z))
}

// minReduce takes element-wise minimum of arguments and stores to first argument.
func minReduce(d1AndDst, d2 []float32) {
	for i := range d1AndDst {
		d1AndDst[i] = math32.Min(d1AndDst[i], d2[i])
	}
}

// maxReduce takes element-wise maximum of arguments and stores to first argument.
func maxReduce(d1AndDst, d2 []float32) {
	for i := range d1AndDst {
		d1AndDst[i] = math32.Max(d1AndDst[i], d2[i])
	}
}

// smoothMax blends two distances with C1 continuity over a transition band of
// half-width k. Outside the band it is an ordinary max.
func smoothMax(a, b, k float32) float32 {
	if k <= 0 {
		return maxf(a, b)
	}
	h := clampf((k-absf(a-b))/k, 0, 1)
	return maxf(a, b) + 0.25*h*h*k
}

// floorMod2 maps v onto [-1,1) via (v mod 2)-1 with a non-negative modulus,
// matching the box-folding step of the Menger iteration.
func floorMod2(v float32) float32 {
	m := math32.Mod(v, 2)
	if m < 0 {
		m += 2
	}
	return m - 1
}

// sdBox is the sharp box distance with unit half extents used as the Menger
// sponge starting volume.
func sdBox(p, halfExtent ms3.Vec) float32 {
	q := ms3.Sub(ms3.AbsElem(p), halfExtent)
	return ms3.Norm(ms3.MaxElem(q, ms3.Vec{})) + minf(maxcomp(q), 0)
}
