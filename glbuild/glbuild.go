// Package glbuild composes GLSL ES 3.00 vertex and fragment shader sources
// from a declarative set of rendering ingredients.
package glbuild

import (
	"bytes"
	"strconv"
)

// VersionES300 is the default version pragma heading every composed shader.
const VersionES300 = "#version 300 es"

const (
	mainStart = "void main(void)\n{"
	mainEnd   = "}\n"
)

// SourceBuilder accumulates head (declaration) lines and main (statement)
// lines of one shader stage. The zero value is ready to use and renders with [VersionES300].
type SourceBuilder struct {
	// Version is the version pragma line. Empty means [VersionES300].
	Version string
	head    []string
	main    []string
	source  string
	buf     []byte
}

// AddHead appends declaration lines.
func (sb *SourceBuilder) AddHead(lines ...string) { sb.head = append(sb.head, lines...) }

// AddMain appends statement lines to the main block.
func (sb *SourceBuilder) AddMain(lines ...string) { sb.main = append(sb.main, lines...) }

// InsertHead prepends declaration lines.
func (sb *SourceBuilder) InsertHead(lines ...string) {
	sb.head = append(lines[:len(lines):len(lines)], sb.head...)
}

// InsertMain prepends statement lines to the main block.
func (sb *SourceBuilder) InsertMain(lines ...string) {
	sb.main = append(lines[:len(lines):len(lines)], sb.main...)
}

// Reset discards accumulated lines. An explicit source set with SetSource is kept.
func (sb *SourceBuilder) Reset() {
	sb.head = sb.head[:0]
	sb.main = sb.main[:0]
}

// SetSource sets an explicit source returned by Build instead of the composed one.
// An empty string clears it.
func (sb *SourceBuilder) SetSource(src string) { sb.source = src }

// Source returns the explicit source, if any.
func (sb *SourceBuilder) Source() string { return sb.source }

// Build returns the explicit source if set, otherwise it renders the
// accumulated lines and resets the builder.
func (sb *SourceBuilder) Build() string {
	if sb.source != "" {
		return sb.source
	}
	sb.buf = sb.AppendSource(sb.buf[:0])
	sb.Reset()
	return string(sb.buf)
}

// AppendSource appends the rendered accumulated lines to dst without resetting.
func (sb *SourceBuilder) AppendSource(dst []byte) []byte {
	version := sb.Version
	if version == "" {
		version = VersionES300
	}
	dst = append(dst, version...)
	dst = append(dst, '\n')
	dst = appendLines(dst, sb.head)
	dst = append(dst, '\n')
	dst = append(dst, mainStart...)
	dst = append(dst, '\n')
	dst = appendLines(dst, sb.main)
	dst = append(dst, '\n')
	dst = append(dst, mainEnd...)
	return dst
}

func appendLines(dst []byte, lines []string) []byte {
	for i, line := range lines {
		if i > 0 {
			dst = append(dst, '\n')
		}
		dst = append(dst, line...)
	}
	return dst
}

// AppendFloat appends the shortest representation of v that round-trips as
// a float32. The result always carries a decimal separator so GLSL parses it as a float.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', -1, 32)
	if b[start] == '-' {
		b[start] = neg
	}
	idx := bytes.IndexByte(b[start:], '.')
	last := b[len(b)-1]
	if idx < 0 && last >= '0' && last <= '9' {
		b = append(b, decimal, '0')
	} else if idx >= 0 && decimal != '.' {
		b[start+idx] = decimal
	}
	return b
}

// AppendFloats appends the float literals of s separated by sep.
func AppendFloats(b []byte, sep string, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		if i > 0 {
			b = append(b, sep...)
		}
		b = AppendFloat(b, neg, decimal, v)
	}
	return b
}

// floatList formats s as a comma separated GLSL float literal list.
func floatList(s ...float32) string {
	return string(AppendFloats(nil, ", ", '-', '.', s...))
}

// AppendConstDecl appends a constant vector declaration such as
// "const vec4 name = vec4(1.0, 0.0, 0.0, 1.0);". Single component vectors are declared as float.
func AppendConstDecl(b []byte, name string, v ...float32) []byte {
	tp := vecType(len(v))
	b = append(b, "const "...)
	b = append(b, tp...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, " = "...)
	b = append(b, tp...)
	b = append(b, '(')
	b = AppendFloats(b, ", ", '-', '.', v...)
	b = append(b, ");"...)
	return b
}

// vecType returns the GLSL type name of a float vector with size components.
func vecType(size int) string {
	switch size {
	case 1:
		return "float"
	case 2:
		return "vec2"
	case 3:
		return "vec3"
	case 4:
		return "vec4"
	}
	return "vec" + strconv.Itoa(size)
}

var homogeneousPad = [4]float32{0, 0, 0, 1}

// vec4Expr returns name promoted to a homogeneous vec4 when it has fewer than 4 components.
func vec4Expr(name string, size int) string {
	if size >= 4 {
		return name
	}
	b := make([]byte, 0, len(name)+32)
	b = append(b, "vec4("...)
	b = append(b, name...)
	b = append(b, ", "...)
	b = AppendFloats(b, ", ", '-', '.', homogeneousPad[size:]...)
	b = append(b, ')')
	return string(b)
}
