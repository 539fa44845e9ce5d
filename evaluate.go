package sdfield

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// Evaluate computes the signed distance of the shape over pos positions.
// dist and pos must be of same length. Resulting distances are stored in
// dist.
//
// userData may carry a [VecPool] to recycle scratch buffers across calls;
// when it does not a throwaway pool is used. Evaluation is a pure function
// of (pos, shape): identical inputs always produce identical outputs.
func (s *Shape) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	vp, err := GetVecPool(userData)
	if err != nil {
		vp = &VecPool{}
	}
	return s.eval(pos, dist, vp)
}

// EvaluateSpec resolves a partial spec and evaluates it in one call. For
// repeated evaluation resolve once and reuse the Shape.
func EvaluateSpec(spec Spec, pos []ms3.Vec, dist []float32, userData any) error {
	sh, err := Resolve(spec)
	if err != nil {
		return err
	}
	return sh.Evaluate(pos, dist, userData)
}

// eval transforms the incoming batch into the node's local frame, dispatches
// to the kernel or CSG combination of children against the local points, and
// rescales the result. Transforms therefore compose multiplicatively down
// the tree: a child's translate/scale is relative to its parent's local
// frame. Valid for uniform scale only; distances stay metric.
func (s *Shape) eval(pos []ms3.Vec, dist []float32, vp *VecPool) error {
	local := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(local)
	inv := 1 / s.Scale
	for i, p := range pos {
		local[i] = ms3.Scale(inv, ms3.Sub(p, s.Translate))
	}

	var err error
	switch s.Type {
	case TypeUnion:
		err = s.evalChildren(local, dist, vp, minReduce)
	case TypeIntersection:
		err = s.evalChildren(local, dist, vp, maxReduce)
	case TypeDifference:
		err = s.evalDifference(local, dist, vp)
	default:
		s.evalKernel(local, dist, vp)
	}
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] *= s.Scale
	}
	return nil
}

// evalChildren folds the children's distances at the local points with
// reduce, left to right in sibling order.
func (s *Shape) evalChildren(local []ms3.Vec, dist []float32, vp *VecPool, reduce func(dst, src []float32)) error {
	err := s.Children[0].eval(local, dist, vp)
	if err != nil {
		return err
	}
	if len(s.Children) == 1 {
		return nil
	}
	aux := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(aux)
	for i := range s.Children[1:] {
		err = s.Children[i+1].eval(local, aux, vp)
		if err != nil {
			return err
		}
		reduce(dist, aux)
	}
	return nil
}

func (s *Shape) evalDifference(local []ms3.Vec, dist []float32, vp *VecPool) error {
	err := s.Children[0].eval(local, dist, vp)
	if err != nil {
		return err
	}
	aux := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(aux)
	err = s.Children[1].eval(local, aux, vp)
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] = maxf(dist[i], -aux[i])
	}
	return nil
}

// evalKernel dispatches the closed kernel set over an exhaustive type
// switch. Resolution guarantees Params matches Type, so the default branch
// is unreachable on resolved shapes.
func (s *Shape) evalKernel(local []ms3.Vec, dist []float32, vp *VecPool) {
	switch p := s.Params.(type) {
	case SphereParams:
		sdfSphere(local, dist, p)
	case PlaneParams:
		sdfPlane(local, dist, p)
	case RoundBoxParams:
		sdfRoundBox(local, dist, p)
	case SphereSineParams:
		sdfSphereSine(local, dist, p)
	case CappedCylinderParams:
		sdfCappedCylinder(local, dist, p)
	case MandelbulbParams:
		sdfMandelbulb(local, dist, p, vp)
	case JuliaParams:
		sdfJulia(local, dist, p, vp)
	case MengerParams:
		sdfMengerSponge(local, dist, p)
	case FBMNoiseParams:
		sdfFBMNoise(local, dist, p, vp)
	case FBMNoiseSphereParams:
		sdfFBMNoiseSphere(local, dist, p, vp)
	default:
		panic(fmt.Sprintf("unresolved shape %q reached evaluation", s.Type))
	}
}
