package dynamit

import (
	"github.com/soypat/geometry/ms3"
)

// IndexedMesh is a triangle mesh whose Indices reference Vertices, Normals
// and TexCoords, which are parallel slices. Indices holds 3 entries per triangle.
type IndexedMesh struct {
	Vertices  []ms3.Vec
	Normals   []ms3.Vec
	TexCoords [][2]float32
	Indices   []uint32
}

// Mesh is a non-indexed triangle list: every 3 consecutive vertices form a triangle.
type Mesh struct {
	Vertices []ms3.Vec
	Normals  []ms3.Vec
}

// Flatten dereferences the index array in draw order.
func (m IndexedMesh) Flatten() Mesh {
	flat := Mesh{
		Vertices: make([]ms3.Vec, len(m.Indices)),
		Normals:  make([]ms3.Vec, len(m.Indices)),
	}
	for i, idx := range m.Indices {
		flat.Vertices[i] = m.Vertices[idx]
		flat.Normals[i] = m.Normals[idx]
	}
	return flat
}

// Triangles returns the mesh's triangles in index order.
func (m IndexedMesh) Triangles() []ms3.Triangle {
	return m.AppendTriangles(nil)
}

// AppendTriangles appends the mesh's triangles to dst.
func (m IndexedMesh) AppendTriangles(dst []ms3.Triangle) []ms3.Triangle {
	for i := 0; i+2 < len(m.Indices); i += 3 {
		dst = append(dst, ms3.Triangle{
			m.Vertices[m.Indices[i]],
			m.Vertices[m.Indices[i+1]],
			m.Vertices[m.Indices[i+2]],
		})
	}
	return dst
}

// Triangles returns the mesh's triangles.
func (m Mesh) Triangles() []ms3.Triangle {
	t := make([]ms3.Triangle, 0, len(m.Vertices)/3)
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		t = append(t, ms3.Triangle{m.Vertices[i], m.Vertices[i+1], m.Vertices[i+2]})
	}
	return t
}

// Flat3 flattens vectors into consecutive x,y,z components.
func Flat3(v []ms3.Vec) []float32 {
	return AppendFlat3(make([]float32, 0, 3*len(v)), v)
}

// AppendFlat3 appends the x,y,z components of v to dst.
func AppendFlat3(dst []float32, v []ms3.Vec) []float32 {
	for _, p := range v {
		dst = append(dst, p.X, p.Y, p.Z)
	}
	return dst
}

// Flat2 flattens texture coordinates into consecutive u,v components.
func Flat2(v [][2]float32) []float32 {
	dst := make([]float32, 0, 2*len(v))
	for _, p := range v {
		dst = append(dst, p[0], p[1])
	}
	return dst
}
