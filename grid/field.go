package grid

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"
)

// Field is a dense scalar field over a Grid, indexed [x][y][z] with z
// varying fastest. It is written exactly once by [Build] and read-only
// afterwards. Large fields live in a memory-mapped scratch file; Close
// releases the mapping and removes the file, so fields are transient scratch
// state, never persisted artifacts.
type Field struct {
	grid Grid
	data []float32
	mm   mmap.MMap
	file *os.File
	path string
}

// newMemField allocates an in-memory field.
func newMemField(g Grid) *Field {
	return &Field{grid: g, data: make([]float32, g.Len())}
}

// newMappedField creates a field backed by a scratch file under dir. The
// file name embeds a UUID so concurrently running jobs never collide.
func newMappedField(g Grid, dir string) (*Field, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	path := filepath.Join(dir, "sdfield-"+uuid.NewString()+".dat")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating scratch field: %w", err)
	}
	size := int64(g.Len()) * 4
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("sizing scratch field: %w", err)
	}
	mm, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("mapping scratch field: %w", err)
	}
	data := unsafe.Slice((*float32)(unsafe.Pointer(&mm[0])), g.Len())
	return &Field{grid: g, data: data, mm: mm, file: f, path: path}, nil
}

// Grid returns the sampling grid the field was evaluated over.
func (f *Field) Grid() Grid { return f.grid }

// At returns the sample at integer grid coordinates.
func (f *Field) At(ix, iy, iz int) float32 {
	return f.data[(ix*f.grid.Ny+iy)*f.grid.Nz+iz]
}

// Values exposes the flat backing array, indexed (ix*Ny+iy)*Nz+iz. Callers
// must treat it as read-only once Build has returned.
func (f *Field) Values() []float32 {
	return f.data
}

// Mapped reports whether the field lives in a memory-mapped scratch file.
func (f *Field) Mapped() bool { return f.mm != nil }

// Flush forces mapped contents out to the backing file. No-op for in-memory
// fields.
func (f *Field) Flush() error {
	if f.mm == nil {
		return nil
	}
	return f.mm.Flush()
}

// Close releases the mapping and deletes the scratch file. It is safe to
// call multiple times and must run on every exit path, including errors:
// a partially written backing store is invalid and may not be reused.
func (f *Field) Close() error {
	if f.mm == nil {
		f.data = nil
		return nil
	}
	var errs []error
	if err := f.mm.Unmap(); err != nil {
		errs = append(errs, err)
	}
	if err := f.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	f.mm = nil
	f.data = nil
	return errors.Join(errs...)
}
