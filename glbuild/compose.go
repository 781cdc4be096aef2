package glbuild

import (
	"errors"
	"strconv"
)

// Sources holds a matched pair of shader sources.
type Sources struct {
	Vertex   string
	Fragment string
}

// Composer derives vertex and fragment shader sources from [Ingredients].
// Composition is deterministic: identical inputs yield byte-identical sources.
// The zero value is ready to use. A Composer is not safe for concurrent use.
type Composer struct {
	// Version is the version pragma line. Empty means [VersionES300].
	Version string
	vs, fs  SourceBuilder
}

// Compose composes sources with a zero [Composer].
func Compose(ing *Ingredients, layout *Layout) (Sources, error) {
	var c Composer
	return c.Compose(ing, layout)
}

// SetSources sets explicit sources returned by Compose instead of composing them.
// Both sources must be provided, or both empty to clear them.
func (c *Composer) SetSources(vertex, fragment string) error {
	if (vertex == "") != (fragment == "") {
		return errors.New("sources provided must be both or none")
	}
	c.vs.SetSource(vertex)
	c.fs.SetSource(fragment)
	return nil
}

// Compose derives shader sources from ing and an optional interleaved layout.
// When layout has attributes all attribute inputs are taken from it and ing
// must not carry dedicated attribute buffers. ing is not modified.
func (c *Composer) Compose(ing *Ingredients, layout *Layout) (Sources, error) {
	if ing == nil {
		return Sources{}, &ConfigError{Msg: "nil ingredients"}
	}
	if c.vs.Source() != "" {
		return Sources{Vertex: c.vs.Source(), Fragment: c.fs.Source()}, nil
	}
	interleaved := layout.Len() > 0
	if err := validate(ing, layout, interleaved); err != nil {
		return Sources{}, err
	}
	req := ing.withRequirements(layout)
	c.vs.Version, c.fs.Version = c.Version, c.Version
	c.vs.Reset()
	c.fs.Reset()
	if interleaved {
		c.addLayoutDecls(&req, layout)
	} else {
		c.addBufferDecls(&req)
	}
	c.addVertexMain(&req, layout, interleaved)
	c.addFragmentMain(&req, layout, interleaved)
	return Sources{Vertex: c.vs.Build(), Fragment: c.fs.Build()}, nil
}

func validate(ing *Ingredients, layout *Layout, interleaved bool) error {
	if interleaved {
		if ing.set&(Position|Normals|ColorBuffer) != 0 {
			return &ConfigError{Msg: "dedicated attribute buffers cannot be combined with an interleaved layout"}
		}
		if !layout.Has(AttribVertex) {
			return &ConfigError{Msg: "interleaved layout has no " + AttribVertex + " attribute"}
		}
		if layout.Has(AttribColor) && ing.Has(ConstColor) {
			return &ConfigError{Msg: "layout color attribute conflicts with constant color"}
		}
		normal, ok := layout.Attribute(AttribNormal)
		return validateNormal(normal, ok)
	}
	if !ing.Has(Position) {
		return &ConfigError{Msg: "no position source"}
	}
	if ing.Has(ColorBuffer | ConstColor) {
		return &ConfigError{Msg: ErrColorConflict.Error()}
	}
	return validateNormal(ing.NormalsAttrib())
}

// validateNormal requires 3 component normals, matching the vec3 light direction.
func validateNormal(normal LayoutAttrib, ok bool) error {
	if ok && normal.Size != 3 {
		return &ConfigError{Msg: "normals must have 3 components, got " + strconv.Itoa(normal.Size)}
	}
	return nil
}

func (c *Composer) addFragmentPreamble(ing *Ingredients) {
	c.fs.AddHead("precision "+ing.PrecisionValue()+";", "out vec4 fragColor;")
}

func (c *Composer) addVarying(a LayoutAttrib) {
	c.vs.AddHead("out " + a.VaryDecl() + ";")
	c.fs.AddHead("in " + a.VaryDecl() + ";")
}

func (c *Composer) addUniformDecls(ing *Ingredients) {
	if name, rgba, ok := ing.ConstColorValue(); ok {
		c.fs.AddHead(string(AppendConstDecl(nil, name, rgba[:]...)))
	}
	if l, ok := ing.LightValue(); ok {
		if l.Uniform {
			c.fs.AddHead("uniform vec3 " + l.Name + ";")
		} else {
			c.fs.AddHead(string(AppendConstDecl(nil, l.Name, l.Direction[:]...)))
		}
	}
	if name, ok := ing.TranslationName(); ok {
		c.vs.AddHead("uniform vec4 " + name + ";")
	}
}

func (c *Composer) addBufferDecls(ing *Ingredients) {
	c.addFragmentPreamble(ing)
	c.vs.AddHead(ing.position.InputDecl())
	if a, ok := ing.NormalsAttrib(); ok {
		c.vs.AddHead(a.InputDecl())
		c.addVarying(a)
	}
	if a, ok := ing.ColorAttrib(); ok {
		c.vs.AddHead(a.InputDecl())
		c.addVarying(a)
	}
	c.addUniformDecls(ing)
}

func (c *Composer) addLayoutDecls(ing *Ingredients, layout *Layout) {
	c.addFragmentPreamble(ing)
	for _, a := range layout.attrs {
		c.vs.AddHead(a.InputDecl())
		if a.Name == AttribNormal || a.Name == AttribColor {
			c.addVarying(a)
		}
	}
	c.addUniformDecls(ing)
}

// positionExpr nests translations around the homogeneous position:
// uniform translation outermost, then constant translation.
func positionExpr(ing *Ingredients, pos LayoutAttrib) string {
	expr := pos.Vec4()
	if t, ok := ing.ConstTranslationValue(); ok {
		expr = "vec4(" + floatList(t[:]...) + ") + " + expr
	}
	if name, ok := ing.TranslationName(); ok {
		expr = "vec4(" + name + ") + " + expr
	}
	return expr
}

func (c *Composer) addVertexMain(ing *Ingredients, layout *Layout, interleaved bool) {
	var pos LayoutAttrib
	var normal, color LayoutAttrib
	var hasNormal, hasColor bool
	if interleaved {
		pos, _ = layout.Attribute(AttribVertex)
		normal, hasNormal = layout.Attribute(AttribNormal)
		color, hasColor = layout.Attribute(AttribColor)
	} else {
		pos = ing.position
		normal, hasNormal = ing.NormalsAttrib()
		color, hasColor = ing.ColorAttrib()
	}
	c.vs.AddMain("   gl_Position = " + positionExpr(ing, pos) + ";")
	if hasNormal {
		c.vs.AddMain("   " + normal.VaryName() + " = " + normal.Name + ";")
	}
	if hasColor {
		c.vs.AddMain("   " + color.VaryName() + " = " + color.Name + ";")
	}
}

// colorExpr selects per-vertex color over constant color over opaque white.
func colorExpr(ing *Ingredients, layout *Layout, interleaved bool) string {
	var a LayoutAttrib
	var ok bool
	if interleaved {
		a, ok = layout.Attribute(AttribColor)
	} else {
		a, ok = ing.ColorAttrib()
	}
	if ok {
		return a.Vec4Vary()
	}
	if name, _, ok := ing.ConstColorValue(); ok {
		return name
	}
	return "vec4(1.0, 1.0, 1.0, 1.0)"
}

// lightingFactor returns the empty string when lighting inputs are absent.
func lightingFactor(ing *Ingredients, layout *Layout, interleaved bool) string {
	var normal LayoutAttrib
	var ok bool
	if interleaved {
		normal, ok = layout.Attribute(AttribNormal)
	} else {
		normal, ok = ing.NormalsAttrib()
	}
	light, hasLight := ing.LightValue()
	if !ok || !hasLight {
		return ""
	}
	if light.Normalize {
		return "-dot(normalize(" + light.Name + "), normalize(" + normal.VaryName() + "))"
	}
	return "-dot(" + light.Name + ", " + normal.VaryName() + ")"
}

func (c *Composer) addFragmentMain(ing *Ingredients, layout *Layout, interleaved bool) {
	color := colorExpr(ing, layout, interleaved)
	factor := lightingFactor(ing, layout, interleaved)
	if factor == "" {
		c.fs.AddMain("   fragColor = vec4(" + color + ");")
		return
	}
	c.fs.AddMain(
		"   float prod = "+factor+";",
		"   fragColor = vec4("+color+".rgb * prod, 1.0);",
	)
}
