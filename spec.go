package sdfield

import (
	"encoding/json"
	"fmt"
)

// ShapeType identifies one kernel of the closed shape set. The set is fixed:
// dispatch happens through exhaustive switches rather than an open registry.
type ShapeType string

const (
	TypeSphere         ShapeType = "sdf_sphere"
	TypePlane          ShapeType = "sdf_plane"
	TypeRoundBox       ShapeType = "sdf_round_box"
	TypeSphereSine     ShapeType = "sdf_sphere_sine"
	TypeCappedCylinder ShapeType = "sdf_capped_cylinder"
	TypeMandelbulb     ShapeType = "sdf_mandelbulb"
	TypeJulia          ShapeType = "sdf_julia"
	TypeMengerSponge   ShapeType = "sdf_menger_sponge"
	TypeFBMNoise       ShapeType = "sdf_fbm_noise"
	TypeFBMNoiseSphere ShapeType = "sdf_fbm_noise_sphere"
	TypeUnion          ShapeType = "sdf_union"
	TypeIntersection   ShapeType = "sdf_intersection"
	TypeDifference     ShapeType = "sdf_difference"
)

// shapeTypes is the registered kernel set, used to reject unknown types
// before any evaluation begins.
var shapeTypes = map[ShapeType]bool{
	TypeSphere:         true,
	TypePlane:          true,
	TypeRoundBox:       true,
	TypeSphereSine:     true,
	TypeCappedCylinder: true,
	TypeMandelbulb:     true,
	TypeJulia:          true,
	TypeMengerSponge:   true,
	TypeFBMNoise:       true,
	TypeFBMNoiseSphere: true,
	TypeUnion:          true,
	TypeIntersection:   true,
	TypeDifference:     true,
}

// IsCombinator reports whether the type combines children by CSG instead of
// evaluating a leaf kernel.
func (t ShapeType) IsCombinator() bool {
	return t == TypeUnion || t == TypeIntersection || t == TypeDifference
}

// Spec is a partial, user-supplied shape description: the JSON tree consumed
// by [Resolve]. Only Type is required. Type-specific parameters land in
// Overrides keyed by their JSON name; [Resolve] layers them over the
// built-in defaults and produces an immutable [Shape].
//
// Spec and Shape are deliberately distinct types: a Spec may omit anything
// but its type, a Shape is always fully defaulted.
type Spec struct {
	Type      string
	Translate *[3]float32
	Scale     *float32
	Children  []Spec
	Overrides map[string]any
}

// UnmarshalJSON decodes the spec tree, routing the structural keys into
// their fields and every remaining key into Overrides.
func (s *Spec) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	spec, err := specFromMap(raw)
	if err != nil {
		return err
	}
	*s = spec
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON so resolved specs can be
// round-tripped through job files.
func (s Spec) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(s.Overrides)+4)
	for k, v := range s.Overrides {
		m[k] = v
	}
	m["type"] = s.Type
	if s.Translate != nil {
		m["translate"] = s.Translate
	}
	if s.Scale != nil {
		m["scale"] = s.Scale
	}
	if s.Children != nil {
		m["children"] = s.Children
	}
	return json.Marshal(m)
}

func specFromMap(raw map[string]any) (Spec, error) {
	var s Spec
	tv, ok := raw["type"]
	if !ok {
		return s, fmt.Errorf("%w: shape spec has no type", ErrMissingField)
	}
	s.Type, ok = tv.(string)
	if !ok {
		return s, fmt.Errorf("shape type must be a string, got %T", tv)
	}
	for k, v := range raw {
		switch k {
		case "type":
		case "translate":
			t, err := toVec3Array(v)
			if err != nil {
				return s, fmt.Errorf("shape %s: translate: %w", s.Type, err)
			}
			s.Translate = &t
		case "scale":
			f, err := toFloat(v)
			if err != nil {
				return s, fmt.Errorf("shape %s: scale: %w", s.Type, err)
			}
			s.Scale = &f
		case "children":
			kids, ok := v.([]any)
			if !ok {
				return s, fmt.Errorf("shape %s: children must be an array", s.Type)
			}
			s.Children = make([]Spec, len(kids))
			for i, kid := range kids {
				km, ok := kid.(map[string]any)
				if !ok {
					return s, fmt.Errorf("shape %s: child %d is not an object", s.Type, i)
				}
				child, err := specFromMap(km)
				if err != nil {
					return s, err
				}
				s.Children[i] = child
			}
		default:
			if s.Overrides == nil {
				s.Overrides = make(map[string]any)
			}
			s.Overrides[k] = v
		}
	}
	return s, nil
}
