// Package extract bridges completed scalar fields to isosurface extraction
// collaborators and maps the resulting meshes back to world space.
//
// The default path runs marching cubes at level 0 through
// [github.com/fogleman/mc]. An alternative marching-tetrahedra path is
// available when a tetrahedralization collaborator is registered; without
// one it fails fast with [sdfield.ErrMissingCapability].
package extract

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/soypat/geometry/ms3"
)

// Mesh is a triangle mesh in world space. Normals are optional and, when
// present, per-vertex. Ownership transfers to the export collaborator once
// extraction completes.
type Mesh struct {
	Vertices []ms3.Vec
	Faces    [][3]int
	Normals  []ms3.Vec
}

// WriteOBJ writes the mesh in Wavefront OBJ format, emitting vn records and
// f v//vn faces when normals are present.
func WriteOBJ(w io.Writer, m Mesh) error {
	bw := bufio.NewWriter(w)
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	withNormals := len(m.Normals) == len(m.Vertices)
	if withNormals {
		for _, n := range m.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
		}
	}
	for _, f := range m.Faces {
		if withNormals {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", f[0]+1, f[0]+1, f[1]+1, f[1]+1, f[2]+1, f[2]+1)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
		}
	}
	return bw.Flush()
}

// WriteBinarySTL writes the mesh as binary STL. Facet normals come from the
// face winding; per-vertex normals are not representable in STL.
func WriteBinarySTL(w io.Writer, m Mesh) (int, error) {
	if len(m.Faces) > (1<<32)-1 {
		return 0, fmt.Errorf("too many faces for STL: %d", len(m.Faces))
	}
	bw := bufio.NewWriter(w)
	var header [80]byte
	copy(header[:], "sdfield binary STL")
	n, err := bw.Write(header[:])
	if err != nil {
		return n, err
	}
	if err = binary.Write(bw, binary.LittleEndian, uint32(len(m.Faces))); err != nil {
		return n, err
	}
	n += 4
	var rec [50]byte
	for _, f := range m.Faces {
		v0, v1, v2 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		e1, e2 := ms3.Sub(v1, v0), ms3.Sub(v2, v0)
		fn := ms3.Vec{
			X: e1.Y*e2.Z - e1.Z*e2.Y,
			Y: e1.Z*e2.X - e1.X*e2.Z,
			Z: e1.X*e2.Y - e1.Y*e2.X,
		}
		if nrm := ms3.Norm(fn); nrm > 0 {
			fn = ms3.Scale(1/nrm, fn)
		}
		putVec3(rec[0:], fn)
		putVec3(rec[12:], v0)
		putVec3(rec[24:], v1)
		putVec3(rec[36:], v2)
		rec[48], rec[49] = 0, 0
		nn, err := bw.Write(rec[:])
		n += nn
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

func putVec3(b []byte, v ms3.Vec) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
}
