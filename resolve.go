package sdfield

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// Base defaults shared by every shape type. Type defaults and user overrides
// layer on top, user values always winning.
var (
	defaultTranslate = ms3.Vec{}
	defaultScale     = float32(1)
)

// defaultWarp is the classic fBm rotation matrix, rows of the affine warp
// applied between octaves.
var defaultWarp = [3]ms3.Vec{
	{X: 0.0, Y: 0.80, Z: 0.60},
	{X: -0.80, Y: 0.36, Z: -0.48},
	{X: -0.60, Y: -0.48, Z: 0.64},
}

func defaultNoise() NoiseParams {
	return NoiseParams{
		Offset:    ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
		Octaves:   6,
		Frequency: 2.0,
		Gain:      0.55,
		Blend:     0.15,
		Warp:      defaultWarp,
		Variant:   NoiseLattice,
	}
}

// defaultParams returns the built-in parameter table for t, or nil for
// combinators.
func defaultParams(t ShapeType) Params {
	switch t {
	case TypeSphere:
		return SphereParams{Radius: 1}
	case TypePlane:
		return PlaneParams{Normal: ms3.Vec{Y: 1}, Offset: 0}
	case TypeRoundBox:
		return RoundBoxParams{HalfExtent: ms3.Vec{X: 1, Y: 1, Z: 1}, Radius: 0.25}
	case TypeSphereSine:
		return SphereSineParams{
			Radius:              1,
			DisplacementFreq:    ms3.Vec{X: 1, Y: 1, Z: 1},
			DisplacementAmp:     1,
			DisplacementAxisAmp: ms3.Vec{X: 1, Y: 1, Z: 1},
		}
	case TypeCappedCylinder:
		return CappedCylinderParams{Radius: 1, HalfHeight: 1}
	case TypeMandelbulb:
		return MandelbulbParams{Power: 8, MaxIterations: 12, Bailout: 8, SolidRadius: 0}
	case TypeJulia:
		return JuliaParams{
			Constant:      ms3.Vec{X: 0.355, Y: 0.355, Z: 0.355},
			MaxIterations: 25,
			Bailout:       6,
			SolidRadius:   0,
		}
	case TypeMengerSponge:
		return MengerParams{HalfSize: 1, Iterations: 4}
	case TypeFBMNoise:
		return FBMNoiseParams{
			HalfExtent:   ms3.Vec{X: 1, Y: 1, Z: 1},
			CornerRadius: 0.1,
			Noise:        defaultNoise(),
		}
	case TypeFBMNoiseSphere:
		return FBMNoiseSphereParams{Radius: 1.1, Noise: defaultNoise()}
	}
	return nil
}

// Resolve merges spec with the built-in defaults of its type, recursively
// for children, and validates the whole tree eagerly: unknown types,
// non-positive scales, combinator arity and ill-typed parameters are all
// rejected before any grid evaluation can begin. The returned Shape is fully
// defaulted and immutable.
//
// Resolution is idempotent: resolving the [Shape.Spec] of a resolved shape
// reproduces it exactly.
func Resolve(spec Spec) (Shape, error) {
	var sh Shape
	if spec.Type == "" {
		return sh, fmt.Errorf("%w: shape spec has no type", ErrMissingField)
	}
	t := ShapeType(spec.Type)
	if !shapeTypes[t] {
		return sh, fmt.Errorf("%w: %q", ErrUnknownShapeType, spec.Type)
	}
	sh.Type = t
	sh.Translate = defaultTranslate
	sh.Scale = defaultScale
	if spec.Translate != nil {
		sh.Translate = ms3.Vec{X: spec.Translate[0], Y: spec.Translate[1], Z: spec.Translate[2]}
	}
	if spec.Scale != nil {
		sh.Scale = *spec.Scale
	}
	if sh.Scale <= 0 {
		return Shape{}, fmt.Errorf("%w: shape %s has scale %v", ErrInvalidScale, t, sh.Scale)
	}

	var err error
	sh.Params, err = applyOverrides(t, defaultParams(t), spec.Overrides)
	if err != nil {
		return Shape{}, err
	}

	switch t {
	case TypeUnion, TypeIntersection:
		if len(spec.Children) < 1 {
			return Shape{}, fmt.Errorf("%w: %s requires at least one child", ErrArity, t)
		}
	case TypeDifference:
		if len(spec.Children) != 2 {
			return Shape{}, fmt.Errorf("%w: %s requires exactly two children, got %d", ErrArity, t, len(spec.Children))
		}
	default:
		if len(spec.Children) != 0 {
			return Shape{}, fmt.Errorf("%w: leaf shape %s cannot have children", ErrArity, t)
		}
	}
	if n := len(spec.Children); n > 0 {
		sh.Children = make([]Shape, n)
		for i, child := range spec.Children {
			sh.Children[i], err = Resolve(child)
			if err != nil {
				return Shape{}, err
			}
		}
	}
	return sh, nil
}

// applyOverrides overlays the user's parameter keys onto the type defaults.
// Every key must be known to the type and carry a coercible value; resolution
// is total and type-checked, there is no stringly-typed access at evaluation
// time.
func applyOverrides(t ShapeType, defaults Params, overrides map[string]any) (Params, error) {
	if defaults == nil {
		// Combinators take no parameters.
		if len(overrides) > 0 {
			for k := range overrides {
				return nil, fmt.Errorf("shape %s: unknown parameter %q", t, k)
			}
		}
		return nil, nil
	}
	if len(overrides) == 0 {
		return defaults, nil
	}
	var err error
	switch p := defaults.(type) {
	case SphereParams:
		for k, v := range overrides {
			switch k {
			case "radius":
				p.Radius, err = toFloat(v)
			default:
				err = errUnknownParam(t, k)
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case PlaneParams:
		for k, v := range overrides {
			switch k {
			case "normal":
				p.Normal, err = toVec3(v)
			case "offset":
				p.Offset, err = toFloat(v)
			default:
				err = errUnknownParam(t, k)
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case RoundBoxParams:
		for k, v := range overrides {
			switch k {
			case "half_extent":
				p.HalfExtent, err = toVec3(v)
			case "radius":
				p.Radius, err = toFloat(v)
			default:
				err = errUnknownParam(t, k)
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case SphereSineParams:
		for k, v := range overrides {
			switch k {
			case "radius":
				p.Radius, err = toFloat(v)
			case "displacement_freq":
				p.DisplacementFreq, err = toVec3(v)
			case "displacement_amp":
				p.DisplacementAmp, err = toFloat(v)
			case "displacement_axis_amp":
				p.DisplacementAxisAmp, err = toVec3(v)
			default:
				err = errUnknownParam(t, k)
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case CappedCylinderParams:
		for k, v := range overrides {
			switch k {
			case "radius":
				p.Radius, err = toFloat(v)
			case "half_height":
				p.HalfHeight, err = toFloat(v)
			default:
				err = errUnknownParam(t, k)
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case MandelbulbParams:
		for k, v := range overrides {
			switch k {
			case "power":
				p.Power, err = toFloat(v)
			case "max_iterations":
				p.MaxIterations, err = toInt(v)
			case "bailout":
				p.Bailout, err = toFloat(v)
			case "solid_radius":
				p.SolidRadius, err = toFloat(v)
			default:
				err = errUnknownParam(t, k)
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case JuliaParams:
		for k, v := range overrides {
			switch k {
			case "constant":
				p.Constant, err = toVec3(v)
			case "max_iterations":
				p.MaxIterations, err = toInt(v)
			case "bailout":
				p.Bailout, err = toFloat(v)
			case "solid_radius":
				p.SolidRadius, err = toFloat(v)
			default:
				err = errUnknownParam(t, k)
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case MengerParams:
		for k, v := range overrides {
			switch k {
			case "half_size":
				p.HalfSize, err = toFloat(v)
			case "iterations":
				p.Iterations, err = toInt(v)
			default:
				err = errUnknownParam(t, k)
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case FBMNoiseParams:
		for k, v := range overrides {
			switch k {
			case "half_extent":
				p.HalfExtent, err = toVec3(v)
			case "corner_radius":
				p.CornerRadius, err = toFloat(v)
			default:
				err = applyNoiseOverride(&p.Noise, k, v)
				if err != nil {
					err = fmt.Errorf("shape %s: %w", t, err)
					return nil, err
				}
				continue
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	case FBMNoiseSphereParams:
		for k, v := range overrides {
			switch k {
			case "radius":
				p.Radius, err = toFloat(v)
			default:
				err = applyNoiseOverride(&p.Noise, k, v)
				if err != nil {
					err = fmt.Errorf("shape %s: %w", t, err)
					return nil, err
				}
				continue
			}
			if err != nil {
				return nil, paramErr(t, k, err)
			}
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownShapeType, t)
}

func applyNoiseOverride(n *NoiseParams, k string, v any) error {
	var err error
	switch k {
	case "offset":
		n.Offset, err = toVec3(v)
	case "octaves":
		n.Octaves, err = toInt(v)
	case "frequency":
		n.Frequency, err = toFloat(v)
	case "gain":
		n.Gain, err = toFloat(v)
	case "blend":
		n.Blend, err = toFloat(v)
	case "warp_matrix":
		n.Warp, err = toWarp(v)
	case "noise_variant":
		var s string
		s, err = toString(v)
		if err == nil {
			switch NoiseVariant(s) {
			case NoiseLattice, NoiseSimplex:
				n.Variant = NoiseVariant(s)
			default:
				err = fmt.Errorf("noise variant must be %q or %q, got %q", NoiseLattice, NoiseSimplex, s)
			}
		}
	default:
		return fmt.Errorf("unknown parameter %q", k)
	}
	if err != nil {
		return fmt.Errorf("parameter %q: %w", k, err)
	}
	return nil
}

func errUnknownParam(t ShapeType, k string) error {
	return fmt.Errorf("unknown parameter")
}

func paramErr(t ShapeType, k string, err error) error {
	return fmt.Errorf("shape %s: parameter %q: %w", t, k, err)
}

// JSON numbers decode as float64; the coercers below narrow them to the
// typed parameter fields. A JSON null coerces to nothing and surfaces as
// ErrMissingField: the value is absent from both defaults and overrides.

func toFloat(v any) (float32, error) {
	switch f := v.(type) {
	case float64:
		return float32(f), nil
	case float32:
		return f, nil
	case int:
		return float32(f), nil
	case nil:
		return 0, ErrMissingField
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	i := int(f)
	if float32(i) != f {
		return 0, fmt.Errorf("expected integer, got %v", v)
	}
	return i, nil
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", ErrMissingField
	}
	return "", fmt.Errorf("expected string, got %T", v)
}

func toVec3Array(v any) ([3]float32, error) {
	var out [3]float32
	if v == nil {
		return out, ErrMissingField
	}
	s, ok := v.([]any)
	if !ok || len(s) != 3 {
		return out, fmt.Errorf("expected array of 3 numbers, got %T", v)
	}
	for i, e := range s {
		f, err := toFloat(e)
		if err != nil {
			return out, err
		}
		out[i] = f
	}
	return out, nil
}

func toVec3(v any) (ms3.Vec, error) {
	a, err := toVec3Array(v)
	if err != nil {
		return ms3.Vec{}, err
	}
	return ms3.Vec{X: a[0], Y: a[1], Z: a[2]}, nil
}

func toWarp(v any) ([3]ms3.Vec, error) {
	var out [3]ms3.Vec
	if v == nil {
		return out, ErrMissingField
	}
	rows, ok := v.([]any)
	if !ok || len(rows) != 3 {
		return out, fmt.Errorf("expected 3x3 matrix, got %T", v)
	}
	for i, r := range rows {
		row, err := toVec3(r)
		if err != nil {
			return out, err
		}
		out[i] = row
	}
	return out, nil
}
