// Package glrender reads triangles out of synthesized meshes and writes them
// to files. It also rasterizes polar profiles into images for previews.
package glrender

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms3"
)

// Renderer reads triangles in batches. It returns io.EOF once exhausted.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.ReadAll implementation.
func RenderAll(r Renderer, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, startSize)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// IndexedReader reads the triangles of an indexed mesh without materializing them.
type IndexedReader struct {
	vertices []ms3.Vec
	indices  []uint32
	off      int
}

var _ Renderer = (*IndexedReader)(nil)

// NewIndexedReader returns a reader over triangles given by 3 indices each into vertices.
func NewIndexedReader(vertices []ms3.Vec, indices []uint32) (*IndexedReader, error) {
	if len(indices)%3 != 0 {
		return nil, errors.New("index count not a multiple of 3")
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, errors.New("index out of range of vertices")
		}
	}
	return &IndexedReader{vertices: vertices, indices: indices}, nil
}

// ReadTriangles implements [Renderer]. userData is unused.
func (ir *IndexedReader) ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error) {
	if len(dst) == 0 {
		return 0, errors.New("empty triangle buffer")
	}
	for n < len(dst) && ir.off < len(ir.indices) {
		i := ir.indices[ir.off : ir.off+3]
		dst[n] = ms3.Triangle{ir.vertices[i[0]], ir.vertices[i[1]], ir.vertices[i[2]]}
		ir.off += 3
		n++
	}
	if ir.off >= len(ir.indices) {
		return n, io.EOF
	}
	return n, nil
}

// Reset rewinds the reader to the first triangle.
func (ir *IndexedReader) Reset() { ir.off = 0 }

// MeshReader reads a fixed triangle list.
type MeshReader struct {
	tris []ms3.Triangle
	off  int
}

var _ Renderer = (*MeshReader)(nil)

// NewMeshReader returns a reader over triangles. The slice is not copied.
func NewMeshReader(triangles []ms3.Triangle) *MeshReader {
	return &MeshReader{tris: triangles}
}

// ReadTriangles implements [Renderer]. userData is unused.
func (mr *MeshReader) ReadTriangles(dst []ms3.Triangle, userData any) (int, error) {
	if len(dst) == 0 {
		return 0, errors.New("empty triangle buffer")
	}
	n := copy(dst, mr.tris[mr.off:])
	mr.off += n
	if mr.off >= len(mr.tris) {
		return n, io.EOF
	}
	return n, nil
}
