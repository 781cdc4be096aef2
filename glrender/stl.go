package glrender

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 4*3*4 + 2
)

// WriteBinarySTL writes triangles to w in the binary STL format. Facet normals
// are computed from the triangle winding. It returns the number of bytes written.
func WriteBinarySTL(w io.Writer, triangles []ms3.Triangle) (int, error) {
	if len(triangles) > math.MaxUint32 {
		return 0, errors.New("too many triangles for STL")
	}
	var header [stlHeaderSize + 4]byte
	copy(header[:], "dynamit binary STL")
	binary.LittleEndian.PutUint32(header[stlHeaderSize:], uint32(len(triangles)))
	n, err := w.Write(header[:])
	if err != nil {
		return n, err
	}
	var buf [stlTriangleSize]byte
	for _, t := range triangles {
		nrm := Normal(t)
		putVec(buf[0:], nrm)
		putVec(buf[12:], t[0])
		putVec(buf[24:], t[1])
		putVec(buf[36:], t[2])
		// Attribute byte count is left zero.
		ngot, err := w.Write(buf[:])
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func putVec(b []byte, v ms3.Vec) {
	binary.LittleEndian.PutUint32(b[0:], math32.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math32.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math32.Float32bits(v.Z))
}

// Normal returns the unit normal of t given counter-clockwise winding.
// Degenerate triangles have a zero normal.
func Normal(t ms3.Triangle) ms3.Vec {
	n := t.Normal()
	if ms3.Norm(n) == 0 {
		return ms3.Vec{}
	}
	return ms3.Unit(n)
}
