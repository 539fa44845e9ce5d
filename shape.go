package sdfield

import "github.com/soypat/geometry/ms3"

// Shape is a fully resolved, immutable shape-tree node. Every parameter has
// a value (built-in default or user override) and the tree has passed eager
// validation: types known, arities satisfied, scales positive. Construct
// with [Resolve].
type Shape struct {
	Type      ShapeType
	Translate ms3.Vec
	// Scale is a positive uniform scale applied to the node's local frame.
	Scale    float32
	Params   Params
	Children []Shape
}

// Params is the closed tagged union of per-type parameter structs.
// Combinators carry nil Params.
type Params interface {
	shape() ShapeType
}

// SphereParams parametrizes sdf_sphere: ||p|| - r.
type SphereParams struct {
	Radius float32
}

// PlaneParams parametrizes sdf_plane: p·n̂ + offset. A degenerate zero-length
// normal falls back to +Y rather than failing (recovered geometry).
type PlaneParams struct {
	Normal ms3.Vec
	Offset float32
}

// RoundBoxParams parametrizes sdf_round_box, a box with edges rounded by
// Radius.
type RoundBoxParams struct {
	HalfExtent ms3.Vec
	Radius     float32
}

// SphereSineParams parametrizes sdf_sphere_sine: a sphere displaced by a
// separable triple-sine product.
type SphereSineParams struct {
	Radius              float32
	DisplacementFreq    ms3.Vec
	DisplacementAmp     float32
	DisplacementAxisAmp ms3.Vec
}

// CappedCylinderParams parametrizes sdf_capped_cylinder, a Y-axis cylinder
// capped at ±HalfHeight.
type CappedCylinderParams struct {
	Radius     float32
	HalfHeight float32
}

// MandelbulbParams parametrizes the Mandelbulb escape-time distance
// estimator. SolidRadius > 0 turns the numerically hollow core into a solid
// interior.
type MandelbulbParams struct {
	Power         float32
	MaxIterations int
	Bailout       float32
	SolidRadius   float32
}

// JuliaParams parametrizes the power-8 Julia escape-time distance estimator
// with fixed iteration constant c.
type JuliaParams struct {
	Constant      ms3.Vec
	MaxIterations int
	Bailout       float32
	SolidRadius   float32
}

// MengerParams parametrizes the iterated box-folding Menger sponge. At zero
// iterations the sponge is the plain box of HalfSize.
type MengerParams struct {
	HalfSize   float32
	Iterations int
}

// NoiseVariant selects the base noise kernel of an fBm stack.
type NoiseVariant string

const (
	// NoiseLattice is hash-based value noise over the 8 cell corners.
	NoiseLattice NoiseVariant = "lattice"
	// NoiseSimplex is gradient noise over the 4 simplex corners.
	NoiseSimplex NoiseVariant = "simplex"
)

// NoiseParams drives multi-octave domain-warped fBm carving of a base
// distance. Warp holds the rows of the affine matrix applied to sample
// points between octaves.
type NoiseParams struct {
	Offset    ms3.Vec
	Octaves   int
	Frequency float32
	Gain      float32
	Blend     float32
	Warp      [3]ms3.Vec
	Variant   NoiseVariant
}

// FBMNoiseParams parametrizes sdf_fbm_noise: fBm carved from a rounded box.
type FBMNoiseParams struct {
	HalfExtent   ms3.Vec
	CornerRadius float32
	Noise        NoiseParams
}

// FBMNoiseSphereParams parametrizes sdf_fbm_noise_sphere: fBm carved from a
// sphere.
type FBMNoiseSphereParams struct {
	Radius float32
	Noise  NoiseParams
}

func (SphereParams) shape() ShapeType         { return TypeSphere }
func (PlaneParams) shape() ShapeType          { return TypePlane }
func (RoundBoxParams) shape() ShapeType       { return TypeRoundBox }
func (SphereSineParams) shape() ShapeType     { return TypeSphereSine }
func (CappedCylinderParams) shape() ShapeType { return TypeCappedCylinder }
func (MandelbulbParams) shape() ShapeType     { return TypeMandelbulb }
func (JuliaParams) shape() ShapeType          { return TypeJulia }
func (MengerParams) shape() ShapeType         { return TypeMengerSponge }
func (FBMNoiseParams) shape() ShapeType       { return TypeFBMNoise }
func (FBMNoiseSphereParams) shape() ShapeType { return TypeFBMNoiseSphere }

// Spec converts the resolved shape back into a fully populated partial spec.
// Resolving the result reproduces the shape exactly, which makes resolution
// idempotent and lets resolved trees round-trip through job files.
func (s Shape) Spec() Spec {
	tr := [3]float32{s.Translate.X, s.Translate.Y, s.Translate.Z}
	sc := s.Scale
	spec := Spec{
		Type:      string(s.Type),
		Translate: &tr,
		Scale:     &sc,
		Overrides: paramOverrides(s.Params),
	}
	if len(s.Children) > 0 {
		spec.Children = make([]Spec, len(s.Children))
		for i, c := range s.Children {
			spec.Children[i] = c.Spec()
		}
	}
	return spec
}

func vec3Slice(v ms3.Vec) []any {
	return []any{float64(v.X), float64(v.Y), float64(v.Z)}
}

func warpSlice(w [3]ms3.Vec) []any {
	return []any{vec3Slice(w[0]), vec3Slice(w[1]), vec3Slice(w[2])}
}

func noiseOverrides(m map[string]any, n NoiseParams) {
	m["offset"] = vec3Slice(n.Offset)
	m["octaves"] = float64(n.Octaves)
	m["frequency"] = float64(n.Frequency)
	m["gain"] = float64(n.Gain)
	m["blend"] = float64(n.Blend)
	m["warp_matrix"] = warpSlice(n.Warp)
	m["noise_variant"] = string(n.Variant)
}

func paramOverrides(p Params) map[string]any {
	m := make(map[string]any)
	switch q := p.(type) {
	case nil: // combinators
		return nil
	case SphereParams:
		m["radius"] = float64(q.Radius)
	case PlaneParams:
		m["normal"] = vec3Slice(q.Normal)
		m["offset"] = float64(q.Offset)
	case RoundBoxParams:
		m["half_extent"] = vec3Slice(q.HalfExtent)
		m["radius"] = float64(q.Radius)
	case SphereSineParams:
		m["radius"] = float64(q.Radius)
		m["displacement_freq"] = vec3Slice(q.DisplacementFreq)
		m["displacement_amp"] = float64(q.DisplacementAmp)
		m["displacement_axis_amp"] = vec3Slice(q.DisplacementAxisAmp)
	case CappedCylinderParams:
		m["radius"] = float64(q.Radius)
		m["half_height"] = float64(q.HalfHeight)
	case MandelbulbParams:
		m["power"] = float64(q.Power)
		m["max_iterations"] = float64(q.MaxIterations)
		m["bailout"] = float64(q.Bailout)
		m["solid_radius"] = float64(q.SolidRadius)
	case JuliaParams:
		m["constant"] = vec3Slice(q.Constant)
		m["max_iterations"] = float64(q.MaxIterations)
		m["bailout"] = float64(q.Bailout)
		m["solid_radius"] = float64(q.SolidRadius)
	case MengerParams:
		m["half_size"] = float64(q.HalfSize)
		m["iterations"] = float64(q.Iterations)
	case FBMNoiseParams:
		m["half_extent"] = vec3Slice(q.HalfExtent)
		m["corner_radius"] = float64(q.CornerRadius)
		noiseOverrides(m, q.Noise)
	case FBMNoiseSphereParams:
		m["radius"] = float64(q.Radius)
		noiseOverrides(m, q.Noise)
	}
	return m
}
