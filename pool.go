package sdfield

import (
	"errors"

	"github.com/soypat/geometry/ms3"
)

// VecPool recycles the scratch buffers consumed by recursive shape
// evaluation. Kernels and combinators acquire position and distance slices
// for the duration of a call and release them before returning, so the pool
// grows to the depth of the shape tree rather than the number of calls.
//
// A VecPool is not safe for concurrent use; give each worker its own.
type VecPool struct {
	V3    bufPool[ms3.Vec]
	Float bufPool[float32]
}

// VecPool implements the vecPooler interface so a *VecPool can be passed
// directly as the userData argument of Evaluate.
func (vp *VecPool) VecPool() *VecPool { return vp }

type vecPooler interface {
	VecPool() *VecPool
}

// GetVecPool asserts the userData argument as a VecPool carrier.
func GetVecPool(userData any) (*VecPool, error) {
	vp, ok := userData.(vecPooler)
	if !ok {
		return nil, errors.New("userData carries no VecPool")
	}
	return vp.VecPool(), nil
}

type bufPool[T any] struct {
	free [][]T
}

// Acquire returns a zero-value-agnostic buffer of length n. Contents are
// undefined; callers overwrite every element.
func (p *bufPool[T]) Acquire(n int) []T {
	for i := len(p.free) - 1; i >= 0; i-- {
		if cap(p.free[i]) >= n {
			buf := p.free[i][:n]
			p.free[i] = p.free[len(p.free)-1]
			p.free = p.free[:len(p.free)-1]
			return buf
		}
	}
	return make([]T, n)
}

// Release returns buf to the pool for reuse by a later Acquire.
func (p *bufPool[T]) Release(buf []T) {
	if cap(buf) == 0 {
		return
	}
	p.free = append(p.free, buf[:0])
}
