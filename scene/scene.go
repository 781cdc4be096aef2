// Package scene loads YAML scene descriptions of polar cones and builds
// their draw object chains.
package scene

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/soypat/dynamit"
	"github.com/soypat/dynamit/calc"
	"github.com/soypat/dynamit/glbuild"
	"github.com/soypat/dynamit/gldraw"
	"gopkg.in/yaml.v3"
)

// Scene is the top level of a scene file.
type Scene struct {
	Version    int        `yaml:"version"`
	Background [4]float32 `yaml:"background,omitempty"`
	Objects    []Object   `yaml:"objects"`
}

// Object describes one cone in the scene.
type Object struct {
	Name    string `yaml:"name"`
	Formula string `yaml:"formula"`
	// Domain holds the sweep start and end as formulas, i.e: ["0", "2*pi"].
	Domain       []string           `yaml:"domain,omitempty"`
	Variable     string             `yaml:"variable,omitempty"`
	Sectors      int                `yaml:"sectors,omitempty"`
	Slices       int                `yaml:"slices,omitempty"`
	Indexed      bool               `yaml:"indexed,omitempty"`
	DoubleCoated bool               `yaml:"doubleCoated,omitempty"`
	Reversed     bool               `yaml:"reversed,omitempty"`
	Vars         map[string]float64 `yaml:"vars,omitempty"`
	Color        *[4]float32        `yaml:"color,omitempty"`
	Light        *Light             `yaml:"light,omitempty"`
	// Translate is the initial value of a uniform translation.
	Translate *[4]float32 `yaml:"translate,omitempty"`
	// Chain names an earlier object whose chain this object is appended to.
	Chain string `yaml:"chain,omitempty"`
}

// Light configures the object's light direction.
type Light struct {
	Direction [3]float32 `yaml:"direction"`
	Normalize bool       `yaml:"normalize,omitempty"`
	Uniform   bool       `yaml:"uniform,omitempty"`
}

func (s *Scene) normalize() {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Background == ([4]float32{}) {
		s.Background[3] = 1
	}
	for i := range s.Objects {
		obj := &s.Objects[i]
		if obj.Name == "" {
			obj.Name = fmt.Sprintf("object%d", i)
		}
		if obj.Sectors == 0 {
			obj.Sectors = dynamit.DefaultSectors
		}
		if obj.Slices == 0 {
			obj.Slices = dynamit.DefaultSlices
		}
		if len(obj.Domain) == 0 {
			obj.Domain = []string{"0", "2*pi"}
		}
	}
}

// Load reads and parses the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML scene and fills in defaults.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.normalize()
	if s.Version != 1 {
		return nil, fmt.Errorf("unsupported scene version %d", s.Version)
	}
	return &s, nil
}

// Builder returns the cone builder configured by obj.
func (obj *Object) Builder() (dynamit.PolarBuilder, error) {
	if len(obj.Domain) != 2 {
		return dynamit.PolarBuilder{}, fmt.Errorf("domain needs start and end, got %d values", len(obj.Domain))
	}
	var domain [2]float64
	for i, src := range obj.Domain {
		v, err := evalConstant(src)
		if err != nil {
			return dynamit.PolarBuilder{}, fmt.Errorf("domain %q: %w", src, err)
		}
		domain[i] = v
	}
	return dynamit.PolarBuilder{
		Formula:      obj.Formula,
		Start:        domain[0],
		End:          domain[1],
		Sectors:      obj.Sectors,
		Slices:       obj.Slices,
		Variable:     obj.Variable,
		Vars:         obj.Vars,
		Reversed:     obj.Reversed,
		DoubleCoated: obj.DoubleCoated,
	}, nil
}

func evalConstant(src string) (float64, error) {
	e, err := calc.Compile(src)
	if err != nil {
		return 0, err
	}
	v, err := e.Eval()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not finite")
	}
	return v, nil
}

// Build synthesizes every object and returns the chain roots in file order.
func (s *Scene) Build() ([]*gldraw.Object, error) {
	byName := make(map[string]*gldraw.Object, len(s.Objects))
	var roots []*gldraw.Object
	for i := range s.Objects {
		obj := &s.Objects[i]
		if _, dup := byName[obj.Name]; dup {
			return nil, fmt.Errorf("duplicate object name %q", obj.Name)
		}
		var d *gldraw.Object
		if obj.Chain == "" {
			d = gldraw.New(obj.Name)
			roots = append(roots, d)
		} else {
			prev, ok := byName[obj.Chain]
			if !ok {
				return nil, fmt.Errorf("object %q chains to unknown or later object %q", obj.Name, obj.Chain)
			}
			d = prev.Last().Append(obj.Name)
		}
		if err := obj.configure(d); err != nil {
			return nil, fmt.Errorf("object %q: %w", obj.Name, err)
		}
		byName[obj.Name] = d
	}
	return roots, nil
}

func (obj *Object) configure(d *gldraw.Object) error {
	pb, err := obj.Builder()
	if err != nil {
		return err
	}
	m, err := pb.BuildIndexed()
	if err != nil {
		return err
	}
	if obj.Indexed {
		d.WithVertices(dynamit.Flat3(m.Vertices), 3).
			WithNormals(dynamit.Flat3(m.Normals), 3).
			WithIndices(m.Indices)
	} else {
		flat := m.Flatten()
		d.WithVertices(dynamit.Flat3(flat.Vertices), 3).
			WithNormals(dynamit.Flat3(flat.Normals), 3)
	}
	d.WithPrimitive(glbuild.Triangles)
	if obj.Color != nil {
		d.WithConstColor(*obj.Color)
	}
	if l := obj.Light; l != nil {
		if l.Uniform {
			d.WithLightDirection(l.Direction, l.Normalize)
		} else {
			d.WithConstLightDirection(l.Direction, l.Normalize)
		}
	}
	if obj.Translate != nil {
		d.WithTranslation(*obj.Translate)
	}
	return d.Err()
}
