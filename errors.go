package sdfield

import "errors"

// Sentinel errors surfaced by shape resolution and mesh extraction.
// All are detected before any grid evaluation begins: a failed resolution
// never yields a partial result.
var (
	// ErrUnknownShapeType reports a spec node whose type is not in the
	// registered kernel set.
	ErrUnknownShapeType = errors.New("unknown shape type")
	// ErrMissingField reports a required field absent from both the user
	// spec and the built-in defaults, such as a spec without a type or a
	// parameter explicitly set to null.
	ErrMissingField = errors.New("missing required field")
	// ErrArity reports a combinator child-count violation: union and
	// intersection need at least one child, difference exactly two.
	ErrArity = errors.New("combinator arity violation")
	// ErrInvalidScale reports scale <= 0. Scale is never silently clamped.
	ErrInvalidScale = errors.New("scale must be positive")
	// ErrMissingCapability reports a job requesting an extraction path whose
	// collaborator is not present, such as marching tetrahedra without a
	// registered tetrahedralizer.
	ErrMissingCapability = errors.New("missing extraction capability")
)

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and distance buffer length mismatch")
)
