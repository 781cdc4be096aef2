package glbuild_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soypat/dynamit/glbuild"
)

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{v: 0, want: "0.0"},
		{v: 1, want: "1.0"},
		{v: -2, want: "-2.0"},
		{v: 0.7, want: "0.7"},
		{v: 0.5, want: "0.5"},
		{v: 1.25, want: "1.25"},
		{v: 100, want: "100.0"},
		{v: -0.1, want: "-0.1"},
	} {
		got := string(glbuild.AppendFloat(nil, '-', '.', test.v))
		if got != test.want {
			t.Errorf("%v: got %q, want %q", test.v, got, test.want)
		}
	}
	got := string(glbuild.AppendFloats([]byte("x="), ", ", '-', '.', 1, 0, -1))
	if got != "x=1.0, 0.0, -1.0" {
		t.Errorf("got %q", got)
	}
}

func TestSourceBuilder(t *testing.T) {
	var sb glbuild.SourceBuilder
	sb.AddHead("b;")
	sb.InsertHead("a;")
	sb.AddMain("   y;")
	sb.InsertMain("   x;")
	const want = "#version 300 es\na;\nb;\nvoid main(void)\n{\n   x;\n   y;\n}\n"
	got := sb.Build()
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
	// Build resets accumulated lines.
	got = sb.Build()
	if strings.Contains(got, "a;") || strings.Contains(got, "x;") {
		t.Errorf("builder leaked lines after build:\n%s", got)
	}
	sb.SetSource("explicit")
	sb.AddHead("c;")
	if sb.Build() != "explicit" {
		t.Error("explicit source not returned")
	}
}

func TestComposeConstColor(t *testing.T) {
	var ing glbuild.Ingredients
	mustNil(t, ing.SetPosition(0, 3))
	mustNil(t, ing.SetConstColor("", [4]float32{1, 0, 0, 1}))
	src, err := glbuild.Compose(&ing, nil)
	if err != nil {
		t.Fatal(err)
	}
	const wantVS = `#version 300 es
layout (location = 0) in vec3 vertex;
void main(void)
{
   gl_Position = vec4(vertex, 1.0);
}
`
	const wantFS = `#version 300 es
precision mediump float;
out vec4 fragColor;
const vec4 constColor = vec4(1.0, 0.0, 0.0, 1.0);
void main(void)
{
   fragColor = vec4(constColor);
}
`
	if src.Vertex != wantVS {
		t.Errorf("vertex source:\n%s\nwant\n%s", src.Vertex, wantVS)
	}
	if src.Fragment != wantFS {
		t.Errorf("fragment source:\n%s\nwant\n%s", src.Fragment, wantFS)
	}
	if strings.Contains(src.Fragment, "dot(") {
		t.Error("unexpected lighting statement")
	}
}

func TestComposeDefaultLight(t *testing.T) {
	var ing glbuild.Ingredients
	mustNil(t, ing.SetPosition(0, 3))
	mustNil(t, ing.SetNormals(1, 3))
	src, err := glbuild.Compose(&ing, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"const vec3 lightDirection = vec3(0.0, 0.5, 1.0);",
		"const vec4 constColor = vec4(0.7, 0.7, 0.7, 1.0);",
		"in vec3 normalVary;",
		"   float prod = -dot(normalize(lightDirection), normalize(normalVary));",
		"   fragColor = vec4(constColor.rgb * prod, 1.0);",
	} {
		if !strings.Contains(src.Fragment, want) {
			t.Errorf("fragment missing %q:\n%s", want, src.Fragment)
		}
	}
	for _, want := range []string{
		"layout (location = 1) in vec3 normal;",
		"out vec3 normalVary;",
		"   normalVary = normal;",
	} {
		if !strings.Contains(src.Vertex, want) {
			t.Errorf("vertex missing %q:\n%s", want, src.Vertex)
		}
	}
	// Requirement inference must not leak into the caller's ingredients.
	if ing.Has(glbuild.Light) || ing.Has(glbuild.ConstColor) {
		t.Error("compose modified ingredients")
	}
}

func TestComposeLightVariants(t *testing.T) {
	var ing glbuild.Ingredients
	mustNil(t, ing.SetPosition(0, 4))
	mustNil(t, ing.SetNormals(1, 3))
	mustNil(t, ing.SetColorBuffer(2, 3))
	mustNil(t, ing.SetLight(glbuild.LightDirection{Name: "sun", Direction: [3]float32{0, 0, 1}, Uniform: true}))
	mustNil(t, ing.SetPrecision("highp float"))
	src, err := glbuild.Compose(&ing, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"precision highp float;",
		"uniform vec3 sun;",
		"in vec3 colorVary;",
		"   float prod = -dot(sun, normalVary);",
		"   fragColor = vec4(vec4(colorVary, 1.0).rgb * prod, 1.0);",
	} {
		if !strings.Contains(src.Fragment, want) {
			t.Errorf("fragment missing %q:\n%s", want, src.Fragment)
		}
	}
	if strings.Contains(src.Fragment, "constColor") {
		t.Error("default color added despite color buffer")
	}
	if !strings.Contains(src.Vertex, "   gl_Position = vertex;") {
		t.Errorf("vec4 position not passed through:\n%s", src.Vertex)
	}
	if got := ing.Uniforms(); len(got) != 1 || got[0] != "sun" {
		t.Errorf("got uniforms %v", got)
	}
}

func TestComposeTranslations(t *testing.T) {
	var ing glbuild.Ingredients
	mustNil(t, ing.SetPosition(0, 2))
	mustNil(t, ing.SetConstTranslation([4]float32{0.5, -0.5, 0, 0}))
	mustNil(t, ing.SetTranslation(""))
	src, err := glbuild.Compose(&ing, nil)
	if err != nil {
		t.Fatal(err)
	}
	const want = "   gl_Position = vec4(translate) + vec4(0.5, -0.5, 0.0, 0.0) + vec4(vertex, 0.0, 1.0);"
	if !strings.Contains(src.Vertex, want) {
		t.Errorf("vertex missing %q:\n%s", want, src.Vertex)
	}
	if !strings.Contains(src.Vertex, "uniform vec4 translate;") {
		t.Errorf("vertex missing translate uniform:\n%s", src.Vertex)
	}
	if got := ing.Uniforms(); len(got) != 1 || got[0] != "translate" {
		t.Errorf("got uniforms %v", got)
	}
}

func TestComposeInterleaved(t *testing.T) {
	var layout glbuild.Layout
	_, err := layout.Add(glbuild.AttribVertex, 0, 3, glbuild.Float, false)
	mustNil(t, err)
	attr, err := layout.Add(glbuild.AttribColor, 1, 4, glbuild.Float, false)
	mustNil(t, err)
	if attr.Offset != 12 {
		t.Errorf("color offset %d, want 12", attr.Offset)
	}
	if layout.Stride() != 28 {
		t.Errorf("stride %d, want 28", layout.Stride())
	}
	layout.SetStride(32)
	if layout.Stride() != 32 {
		t.Errorf("explicit stride not kept")
	}
	_, err = layout.Add(glbuild.AttribColor, 2, 4, glbuild.Float, false)
	if err == nil {
		t.Error("expected duplicate attribute error")
	}
	var ing glbuild.Ingredients
	src, err := glbuild.Compose(&ing, &layout)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"layout (location = 0) in vec3 vertex;",
		"layout (location = 1) in vec4 color;",
		"out vec4 colorVary;",
		"   colorVary = color;",
	} {
		if !strings.Contains(src.Vertex, want) {
			t.Errorf("vertex missing %q:\n%s", want, src.Vertex)
		}
	}
	if !strings.Contains(src.Fragment, "   fragColor = vec4(colorVary);") {
		t.Errorf("fragment not using per-vertex color:\n%s", src.Fragment)
	}
	if strings.Contains(src.Fragment, "constColor") || strings.Contains(src.Fragment, "dot(") {
		t.Errorf("unexpected default color or lighting:\n%s", src.Fragment)
	}

	// Dedicated buffers cannot be mixed with a layout.
	mustNil(t, ing.SetPosition(0, 3))
	_, err = glbuild.Compose(&ing, &layout)
	var cerr *glbuild.ConfigError
	if !errors.As(err, &cerr) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestComposeInterleavedNormals(t *testing.T) {
	var layout glbuild.Layout
	layout.Add(glbuild.AttribVertex, 0, 3, glbuild.Float, false)
	layout.Add(glbuild.AttribNormal, 1, 3, glbuild.Float, false)
	layout.Finalize()
	var ing glbuild.Ingredients
	src, err := glbuild.Compose(&ing, &layout)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src.Fragment, "normalize(normalVary)") {
		t.Errorf("default light not required for layout normals:\n%s", src.Fragment)
	}
	if !strings.Contains(src.Fragment, "constColor.rgb") {
		t.Errorf("default color not used:\n%s", src.Fragment)
	}
}

func TestComposeErrors(t *testing.T) {
	var ing glbuild.Ingredients
	_, err := glbuild.Compose(&ing, nil)
	var cerr *glbuild.ConfigError
	if !errors.As(err, &cerr) {
		t.Errorf("expected config error for missing position, got %v", err)
	}
	var layout glbuild.Layout
	layout.Add(glbuild.AttribNormal, 0, 3, glbuild.Float, false)
	_, err = glbuild.Compose(&ing, &layout)
	if !errors.As(err, &cerr) {
		t.Errorf("expected config error for layout without vertex, got %v", err)
	}
	var colored glbuild.Layout
	colored.Add(glbuild.AttribVertex, 0, 3, glbuild.Float, false)
	colored.Add(glbuild.AttribColor, 1, 3, glbuild.Float, false)
	mustNil(t, ing.SetConstColor("", [4]float32{1, 1, 1, 1}))
	_, err = glbuild.Compose(&ing, &colored)
	if !errors.As(err, &cerr) {
		t.Errorf("expected config error for layout color with const color, got %v", err)
	}
}

func TestComposeNormalSize(t *testing.T) {
	for _, size := range []int{1, 2, 4} {
		var ing glbuild.Ingredients
		mustNil(t, ing.SetPosition(0, 2))
		mustNil(t, ing.SetNormals(1, size))
		_, err := glbuild.Compose(&ing, nil)
		var cerr *glbuild.ConfigError
		if !errors.As(err, &cerr) {
			t.Errorf("size %d normals: expected config error, got %v", size, err)
		}
		var layout glbuild.Layout
		layout.Add(glbuild.AttribVertex, 0, 3, glbuild.Float, false)
		layout.Add(glbuild.AttribNormal, 1, size, glbuild.Float, false)
		var empty glbuild.Ingredients
		_, err = glbuild.Compose(&empty, &layout)
		if !errors.As(err, &cerr) {
			t.Errorf("size %d layout normals: expected config error, got %v", size, err)
		}
	}
}

func TestLayoutSetOffset(t *testing.T) {
	var layout glbuild.Layout
	_, err := layout.Add(glbuild.AttribVertex, 0, 3, glbuild.Float, false)
	mustNil(t, err)
	layout.SetOffset(16)
	if layout.Offset() != 16 {
		t.Errorf("offset %d, want 16", layout.Offset())
	}
	normal, err := layout.Add(glbuild.AttribNormal, 1, 3, glbuild.Float, false)
	mustNil(t, err)
	if normal.Offset != 16 {
		t.Errorf("normal offset %d, want 16", normal.Offset)
	}
	color, err := layout.Add(glbuild.AttribColor, 2, 4, glbuild.Float, false)
	mustNil(t, err)
	if color.Offset != 28 {
		t.Errorf("color offset %d, want 28", color.Offset)
	}
	if layout.Stride() != 44 {
		t.Errorf("stride %d, want 44", layout.Stride())
	}
	layout.Finalize()
	if layout.Stride() != 44 {
		t.Errorf("finalized stride %d, want 44", layout.Stride())
	}
}

func TestWriteOnce(t *testing.T) {
	var ing glbuild.Ingredients
	mustNil(t, ing.SetConstColor("", [4]float32{1, 0, 0, 1}))
	err := ing.SetColorBuffer(1, 4)
	var serr *glbuild.StateError
	if !errors.As(err, &serr) || !errors.Is(err, glbuild.ErrColorConflict) {
		t.Errorf("expected color conflict, got %v", err)
	} else if serr.Field != glbuild.ColorBuffer {
		t.Errorf("got field %v", serr.Field)
	}

	var other glbuild.Ingredients
	mustNil(t, other.SetColorBuffer(1, 4))
	if err := other.SetConstColor("", [4]float32{}); !errors.Is(err, glbuild.ErrColorConflict) {
		t.Errorf("expected color conflict, got %v", err)
	}

	for _, set := range []func(*glbuild.Ingredients) error{
		func(ing *glbuild.Ingredients) error { return ing.SetPosition(0, 3) },
		func(ing *glbuild.Ingredients) error { return ing.SetNormals(1, 3) },
		func(ing *glbuild.Ingredients) error { return ing.SetColorBuffer(2, 4) },
		func(ing *glbuild.Ingredients) error { return ing.SetLight(glbuild.DefaultLight()) },
		func(ing *glbuild.Ingredients) error { return ing.SetTranslation("") },
		func(ing *glbuild.Ingredients) error { return ing.SetConstTranslation([4]float32{}) },
		func(ing *glbuild.Ingredients) error { return ing.SetIndices(3, glbuild.IndexUint16) },
		func(ing *glbuild.Ingredients) error { return ing.SetPrimitive(glbuild.TriangleFan) },
		func(ing *glbuild.Ingredients) error { return ing.SetPrecision("highp float") },
	} {
		var ing glbuild.Ingredients
		mustNil(t, set(&ing))
		err := set(&ing)
		if !errors.Is(err, glbuild.ErrAlreadySet) {
			t.Errorf("%v: expected already set error, got %v", ing.Set(), err)
		}
	}
	if err := ing.SetPosition(0, 5); err == nil {
		t.Error("expected error for 5 component position")
	}
}

func TestComposeDeterministic(t *testing.T) {
	build := func() glbuild.Ingredients {
		var ing glbuild.Ingredients
		ing.SetPosition(0, 3)
		ing.SetNormals(1, 3)
		ing.SetConstColor("tint", [4]float32{0.2, 0.4, 0.6, 1})
		ing.SetTranslation("offset")
		return ing
	}
	a, b := build(), build()
	var c glbuild.Composer
	first, err := c.Compose(&a, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Compose(&b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("non deterministic composition:\n%s\n%s", first.Fragment, second.Fragment)
	}
	third, _ := glbuild.Compose(&a, nil)
	if third != first {
		t.Error("composer state leaked between builds")
	}
	if strings.Count(first.Vertex, "uniform vec4 offset;") != 1 {
		t.Errorf("bad uniform declarations:\n%s", first.Vertex)
	}
}

func TestComposerExplicitSources(t *testing.T) {
	var c glbuild.Composer
	if err := c.SetSources("vs", ""); err == nil {
		t.Error("expected error for half explicit sources")
	}
	mustNil(t, c.SetSources("vs", "fs"))
	var ing glbuild.Ingredients
	ing.SetPosition(0, 3)
	src, err := c.Compose(&ing, nil)
	mustNil(t, err)
	if src.Vertex != "vs" || src.Fragment != "fs" {
		t.Errorf("explicit sources not used: %+v", src)
	}
}

func TestIngredientString(t *testing.T) {
	if s := (glbuild.Position | glbuild.Normals).String(); s != "position|normals" {
		t.Errorf("got %q", s)
	}
	if s := glbuild.Light.String(); s != "light direction" {
		t.Errorf("got %q", s)
	}
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
