package glbuild

import (
	"errors"
	"fmt"
	"strconv"
)

// AttribType is the component type of a vertex attribute. Values match the GL enums.
type AttribType uint32

const (
	Byte          AttribType = 0x1400
	UnsignedByte  AttribType = 0x1401
	Short         AttribType = 0x1402
	UnsignedShort AttribType = 0x1403
	Int           AttribType = 0x1404
	UnsignedInt   AttribType = 0x1405
	Float         AttribType = 0x1406
)

// Size returns the size in bytes of one component. Unknown types are assumed to be 4 bytes wide.
func (t AttribType) Size() int {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	}
	return 4
}

func (t AttribType) String() string {
	switch t {
	case Byte:
		return "byte"
	case UnsignedByte:
		return "ubyte"
	case Short:
		return "short"
	case UnsignedShort:
		return "ushort"
	case Int:
		return "int"
	case UnsignedInt:
		return "uint"
	case Float:
		return "float"
	}
	return "AttribType(" + strconv.Itoa(int(t)) + ")"
}

// IndexType is the element type of an index buffer. Values match the GL enums.
type IndexType uint32

const (
	IndexUint8  = IndexType(UnsignedByte)
	IndexUint16 = IndexType(UnsignedShort)
	IndexUint32 = IndexType(UnsignedInt)
)

// Size returns the size in bytes of one index.
func (t IndexType) Size() int { return AttribType(t).Size() }

func (t IndexType) String() string { return AttribType(t).String() }

// Primitive is a draw topology. Values match the GL enums.
type Primitive uint32

const (
	Points Primitive = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

func (p Primitive) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case LineLoop:
		return "line loop"
	case LineStrip:
		return "line strip"
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle strip"
	case TriangleFan:
		return "triangle fan"
	}
	return "Primitive(" + strconv.Itoa(int(p)) + ")"
}

// Semantic attribute names recognised by the composer.
const (
	AttribVertex   = "vertex"
	AttribNormal   = "normal"
	AttribColor    = "color"
	AttribTexCoord = "texCoord"
)

// LayoutAttrib is a vertex attribute bound to a shader input location.
type LayoutAttrib struct {
	Name     string
	Location int
	// Size is the component count in 1..4.
	Size       int
	Type       AttribType
	Normalized bool
	// Offset is the byte offset of the attribute within one interleaved record.
	Offset int
}

// VaryName is the name of the attribute's pass-through varying.
func (a LayoutAttrib) VaryName() string { return a.Name + "Vary" }

// Decl returns the typed declaration, i.e. "vec3 normal".
func (a LayoutAttrib) Decl() string { return vecType(a.Size) + " " + a.Name }

// VaryDecl returns the typed varying declaration, i.e. "vec3 normalVary".
func (a LayoutAttrib) VaryDecl() string { return vecType(a.Size) + " " + a.VaryName() }

// InputDecl returns the vertex stage input declaration line.
func (a LayoutAttrib) InputDecl() string {
	return "layout (location = " + strconv.Itoa(a.Location) + ") in " + a.Decl() + ";"
}

// Vec4 returns the attribute as a homogeneous vec4 expression.
func (a LayoutAttrib) Vec4() string { return vec4Expr(a.Name, a.Size) }

// Vec4Vary returns the attribute's varying as a homogeneous vec4 expression.
func (a LayoutAttrib) Vec4Vary() string { return vec4Expr(a.VaryName(), a.Size) }

func (a LayoutAttrib) validate() error {
	if a.Name == "" {
		return errors.New("empty attribute name")
	}
	if a.Size < 1 || a.Size > 4 {
		return fmt.Errorf("attribute %q size %d not in 1..4", a.Name, a.Size)
	}
	if a.Location < 0 {
		return fmt.Errorf("attribute %q negative location %d", a.Name, a.Location)
	}
	return nil
}

// Layout describes named attributes sharing one interleaved buffer. Offsets
// are assigned in order of addition unless overridden with SetOffset.
// The zero value is an empty layout ready for use.
type Layout struct {
	attrs  []LayoutAttrib
	offset int
	stride int
}

// Add appends an attribute at the current offset and advances the offset by its size.
// Attribute names are unique within a layout.
func (l *Layout) Add(name string, location, size int, typ AttribType, normalized bool) (LayoutAttrib, error) {
	if typ == 0 {
		typ = Float
	}
	a := LayoutAttrib{
		Name:       name,
		Location:   location,
		Size:       size,
		Type:       typ,
		Normalized: normalized,
		Offset:     l.offset,
	}
	if err := a.validate(); err != nil {
		return LayoutAttrib{}, &ConfigError{Msg: err.Error()}
	}
	if l.Has(name) {
		return LayoutAttrib{}, &ConfigError{Msg: "duplicate layout attribute " + strconv.Quote(name)}
	}
	l.attrs = append(l.attrs, a)
	l.offset += size * typ.Size()
	return a, nil
}

// SetOffset overrides the byte offset at which the next attribute is placed.
func (l *Layout) SetOffset(bytes int) { l.offset = bytes }

// Offset returns the byte offset at which the next attribute is placed.
func (l *Layout) Offset() int { return l.offset }

// SetStride sets the record stride explicitly.
func (l *Layout) SetStride(bytes int) { l.stride = bytes }

// Finalize sets the record stride to the current offset.
func (l *Layout) Finalize() { l.stride = l.offset }

// Stride returns the explicit stride if set, else the accumulated offset.
func (l *Layout) Stride() int {
	if l.stride > 0 {
		return l.stride
	}
	return l.offset
}

// Len returns the number of attributes.
func (l *Layout) Len() int {
	if l == nil {
		return 0
	}
	return len(l.attrs)
}

// Attributes returns the attributes in order of addition.
func (l *Layout) Attributes() []LayoutAttrib {
	if l == nil {
		return nil
	}
	return append([]LayoutAttrib(nil), l.attrs...)
}

// Attribute returns the attribute named name.
func (l *Layout) Attribute(name string) (LayoutAttrib, bool) {
	if l == nil {
		return LayoutAttrib{}, false
	}
	for _, a := range l.attrs {
		if a.Name == name {
			return a, true
		}
	}
	return LayoutAttrib{}, false
}

// Has reports whether the layout has an attribute named name.
func (l *Layout) Has(name string) bool {
	_, ok := l.Attribute(name)
	return ok
}
