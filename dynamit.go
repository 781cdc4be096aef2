// Package dynamit synthesizes triangle meshes from textual polar formulas.
// A formula r(θ) is swept from a tip at z=-1 out to a base ring, producing a
// cone-like surface that can be drawn directly or as an indexed mesh.
package dynamit

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/dynamit/calc"
	"github.com/soypat/geometry/ms3"
)

const (
	DefaultSectors = 20
	DefaultSlices  = 3
	// DefaultVariable is the swept variable name bound by [PolarBuilder].
	DefaultVariable = "theta"
	zTip            = -1
)

// PolarBuilder configures a polar cone sweep. The zero value is not usable;
// at least Formula and the domain must be set. See [BuildConePolarIndexed] for defaults.
type PolarBuilder struct {
	// Formula is the polar radius r(θ).
	Formula string
	// Start and End delimit the swept domain of the variable.
	Start, End float64
	// Sectors is the number of angular steps per ring.
	Sectors int
	// Slices is the number of concentric rings between tip and base.
	Slices int
	// Variable is the swept variable name. Empty means [DefaultVariable].
	Variable string
	// Vars are additional constant bindings for the formula.
	Vars map[string]float64
	// Reversed negates all normals.
	Reversed bool
	// DoubleCoated appends a second coat with negated normals and
	// reversed winding so the surface shades from both sides.
	DoubleCoated bool
}

// BuildConePolarIndexed builds an indexed cone from formula swept over [domainStart, domainEnd].
func BuildConePolarIndexed(formula string, domainStart, domainEnd float64, nsectors, nslices int) (IndexedMesh, error) {
	pb := PolarBuilder{
		Formula: formula,
		Start:   domainStart,
		End:     domainEnd,
		Sectors: nsectors,
		Slices:  nslices,
	}
	return pb.BuildIndexed()
}

// BuildConePolar is the flattened form of [BuildConePolarIndexed].
func BuildConePolar(formula string, domainStart, domainEnd float64, nsectors, nslices int) (Mesh, error) {
	m, err := BuildConePolarIndexed(formula, domainStart, domainEnd, nsectors, nslices)
	if err != nil {
		return Mesh{}, err
	}
	return m.Flatten(), nil
}

// DefaultPolarBuilder returns a builder sweeping a full revolution with default subdivisions.
func DefaultPolarBuilder(formula string) PolarBuilder {
	return PolarBuilder{
		Formula: formula,
		Start:   0,
		End:     2 * math.Pi,
		Sectors: DefaultSectors,
		Slices:  DefaultSlices,
	}
}

func (pb *PolarBuilder) validate() error {
	var errs []error
	if pb.Formula == "" {
		errs = append(errs, errors.New("empty formula"))
	}
	if pb.Sectors < 1 {
		errs = append(errs, fmt.Errorf("sectors must be positive, got %d", pb.Sectors))
	}
	if pb.Slices < 1 {
		errs = append(errs, fmt.Errorf("slices must be positive, got %d", pb.Slices))
	}
	if math.IsNaN(pb.Start) || math.IsNaN(pb.End) || math.IsInf(pb.Start, 0) || math.IsInf(pb.End, 0) {
		errs = append(errs, errors.New("non-finite domain"))
	}
	return errors.Join(errs...)
}

// BuildIndexed sweeps the formula and returns the indexed mesh.
//
// Vertex 0 is the tip. Ring 0 lies on z=0 and keeps its unnormalized normals
// (r·cosθ, r·sinθ, -1). Later rings lie at z=(h+1)/slices with normalized normals.
func (pb PolarBuilder) BuildIndexed() (IndexedMesh, error) {
	if err := pb.validate(); err != nil {
		return IndexedMesh{}, err
	}
	varname := pb.Variable
	if varname == "" {
		varname = DefaultVariable
	}
	expr, err := calc.Compile(pb.Formula)
	if err != nil {
		return IndexedMesh{}, err
	}
	for name, v := range pb.Vars {
		expr.Bind(name, v)
	}
	var theta float64
	expr.BindFunc(varname, func() float64 { return theta })

	nsec, nsl := pb.Sectors, pb.Slices
	nverts := 1 + nsl*(nsec+1)
	m := IndexedMesh{
		Vertices:  make([]ms3.Vec, 0, nverts),
		Normals:   make([]ms3.Vec, 0, nverts),
		TexCoords: make([][2]float32, 0, nverts),
		Indices:   make([]uint32, 0, 3*nsec+6*nsec*(nsl-1)),
	}
	m.Vertices = append(m.Vertices, ms3.Vec{Z: zTip})
	m.Normals = append(m.Normals, ms3.Vec{})
	m.TexCoords = append(m.TexCoords, [2]float32{0.5, 0})

	step := (pb.End - pb.Start) / float64(nsec)
	for h := 0; h < nsl; h++ {
		h2n := float32(h+1) / float32(nsl)
		for i := 0; i <= nsec; i++ {
			theta = pb.Start + step*float64(i)
			r, err := expr.Eval()
			if err != nil {
				return IndexedMesh{}, fmt.Errorf("ring %d sector %d: %w", h, i, err)
			}
			s, c := math32.Sincos(float32(theta))
			rad := float32(r)
			n := ms3.Vec{X: rad * c, Y: rad * s, Z: zTip}
			v := ms3.Vec{X: n.X * h2n, Y: n.Y * h2n, Z: h2n}
			if h == 0 {
				v = ms3.Vec{X: n.X / float32(nsl), Y: n.Y / float32(nsl), Z: 0}
			} else if l := ms3.Norm(n); l > 1e-4 {
				n = ms3.Scale(1/l, n)
			}
			if pb.Reversed {
				n = ms3.Scale(-1, n)
			}
			m.Vertices = append(m.Vertices, v)
			m.Normals = append(m.Normals, n)
			m.TexCoords = append(m.TexCoords, [2]float32{float32(i) / float32(nsec), h2n})
		}
	}

	ring := func(h, i int) uint32 { return uint32(1 + h*(nsec+1) + i) }
	for i := 0; i < nsec; i++ {
		m.Indices = append(m.Indices, 0, ring(0, i), ring(0, i+1))
	}
	for h := 1; h < nsl; h++ {
		for i := 0; i < nsec; i++ {
			v00, v01 := ring(h-1, i), ring(h-1, i+1)
			v10, v11 := ring(h, i), ring(h, i+1)
			m.Indices = append(m.Indices, v00, v10, v01, v01, v10, v11)
		}
	}
	if pb.DoubleCoated {
		m.addCoat()
	}
	return m, nil
}

// Build sweeps the formula and returns the flattened mesh.
func (pb PolarBuilder) Build() (Mesh, error) {
	m, err := pb.BuildIndexed()
	if err != nil {
		return Mesh{}, err
	}
	return m.Flatten(), nil
}

// addCoat duplicates the mesh with negated normals and reversed winding.
func (m *IndexedMesh) addCoat() {
	base := uint32(len(m.Vertices))
	nv := len(m.Vertices)
	ni := len(m.Indices)
	for i := 0; i < nv; i++ {
		m.Vertices = append(m.Vertices, m.Vertices[i])
		m.Normals = append(m.Normals, ms3.Scale(-1, m.Normals[i]))
		m.TexCoords = append(m.TexCoords, m.TexCoords[i])
	}
	for i := 0; i < ni; i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		m.Indices = append(m.Indices, base+a, base+c, base+b)
	}
}
