package gldraw_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soypat/dynamit/gldraw"
	"github.com/soypat/dynamit/glbuild"
)

var triangle = []float32{
	0, 0, 0,
	1, 0, 0,
	0, 1, 0,
}

func TestChainSharesLocations(t *testing.T) {
	root := gldraw.New("a").
		WithVertices(triangle, 3).
		WithNormals(triangle, 3).
		WithConstColor([4]float32{1, 0, 0, 1})
	next := root.Append("b").WithColors([]float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, 3).WithVertices(triangle, 3)
	for _, obj := range []*gldraw.Object{root, next} {
		if err := obj.Err(); err != nil {
			t.Fatal(err)
		}
	}
	rootIng, nextIng := root.Ingredients(), next.Ingredients()
	ra, _ := rootIng.PositionAttrib()
	na, _ := nextIng.PositionAttrib()
	if ra.Location != na.Location {
		t.Errorf("vertex locations differ: %d %d", ra.Location, na.Location)
	}
	ca, _ := nextIng.ColorAttrib()
	if ca.Location != 2 {
		t.Errorf("color location %d, want 2", ca.Location)
	}
	if root.Registry() != next.Registry() || root.Registry().Len() != 3 {
		t.Error("chain does not share registry")
	}
	if next.Root() != root || root.Last() != next || !next.IsLast() || !root.IsRoot() {
		t.Error("bad chain links")
	}
	rs, err := root.Sources()
	if err != nil {
		t.Fatal(err)
	}
	ns, err := next.Sources()
	if err != nil {
		t.Fatal(err)
	}
	if rs != ns {
		t.Error("successor does not reuse root program sources")
	}
	var names []string
	root.Walk(func(o *gldraw.Object) error {
		names = append(names, o.Name())
		return nil
	})
	if strings.Join(names, ",") != "a,b" {
		t.Errorf("walk order %v", names)
	}
}

func TestChainErrors(t *testing.T) {
	root := gldraw.New("root").WithVertices(triangle, 3)
	root.Append("first")
	late := root.Append("late")
	if !errors.Is(late.Err(), gldraw.ErrNotLast) {
		t.Errorf("expected not last error, got %v", late.Err())
	}
	second := root.Next().WithShaderSources("vs", "fs")
	if !errors.Is(second.Err(), gldraw.ErrNotChainRoot) {
		t.Errorf("expected not chain root error, got %v", second.Err())
	}
	if !errors.Is(root.Next().WithShaderVersion("#version 330 core").Err(), gldraw.ErrNotChainRoot) {
		t.Error("expected shader version on successor to fail")
	}
	if err := root.UpdateNormals(triangle); !errors.Is(err, gldraw.ErrNotConfigured) {
		t.Errorf("expected not configured, got %v", err)
	}
	if err := root.Translate(1, 2, 3, 0); !errors.Is(err, gldraw.ErrNotConfigured) {
		t.Errorf("expected not configured, got %v", err)
	}
}

func TestWriteOnceAccumulates(t *testing.T) {
	obj := gldraw.New("x").
		WithVertices(triangle, 3).
		WithVertices(triangle, 3).
		WithConstColor([4]float32{1, 1, 1, 1}).
		WithColors(triangle, 3).
		WithVertices(triangle[:4], 3)
	err := obj.Err()
	if !errors.Is(err, glbuild.ErrAlreadySet) {
		t.Errorf("expected already set, got %v", err)
	}
	if !errors.Is(err, glbuild.ErrColorConflict) {
		t.Errorf("expected color conflict, got %v", err)
	}
	if _, err := obj.Sources(); err == nil {
		t.Error("sources composed despite registration errors")
	}
}

func TestUpdatesAndDirty(t *testing.T) {
	obj := gldraw.New("x").
		WithVertices(triangle, 3).
		WithColors([]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, 3).
		WithTranslation([4]float32{}).
		WithLightDirection([3]float32{0, 0, 1}, true)
	if err := obj.Err(); err != nil {
		t.Fatal(err)
	}
	want := gldraw.DirtyVertices | gldraw.DirtyColors | gldraw.DirtyTranslation | gldraw.DirtyLight
	if d := obj.TakeDirty(); d != want {
		t.Errorf("got dirty %b, want %b", d, want)
	}
	if d := obj.TakeDirty(); d != 0 {
		t.Errorf("dirty not cleared: %b", d)
	}
	if err := obj.Translate(0.5, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := obj.SetLightDirection(1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := obj.UpdateColors([]float32{1, 1, 1}); err == nil {
		t.Error("expected color count mismatch error")
	}
	if err := obj.UpdateVertices(append(triangle[:9:9], 1, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if obj.VertexCount() != 4 {
		t.Errorf("got %d vertices", obj.VertexCount())
	}
	if d := obj.TakeDirty(); d != gldraw.DirtyTranslation|gldraw.DirtyLight|gldraw.DirtyVertices {
		t.Errorf("got dirty %b", d)
	}
	if obj.Translation() != [4]float32{0.5, 0, 0, 0} || obj.LightDirection() != [3]float32{1, 0, 0} {
		t.Error("uniform values not updated")
	}
	uniforms := obj.Uniforms()
	if len(uniforms) != 2 || uniforms[0] != glbuild.DefaultTranslateName || uniforms[1] != glbuild.DefaultLightName {
		t.Errorf("got uniforms %v", uniforms)
	}
}

func TestDrawCall(t *testing.T) {
	arrays := gldraw.New("arrays").WithVertices(triangle, 3)
	dc, err := arrays.DrawCall(glbuild.TriangleFan)
	if err != nil {
		t.Fatal(err)
	}
	if dc.Indexed || dc.Count != 3 || dc.Primitive != glbuild.TriangleFan {
		t.Errorf("bad arrays draw call %+v", dc)
	}
	elems := arrays.Append("elems").
		WithVertices(triangle, 3).
		WithIndices([]uint32{0, 1, 2, 2, 1, 0}).
		WithPrimitive(glbuild.Triangles)
	dc, err = elems.DrawCall(glbuild.TriangleFan)
	if err != nil {
		t.Fatal(err)
	}
	if !dc.Indexed || dc.Count != 6 || dc.IndexType != glbuild.IndexUint32 || dc.Primitive != glbuild.Triangles {
		t.Errorf("bad elements draw call %+v", dc)
	}
	calls, err := arrays.DrawCalls(glbuild.Triangles)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 {
		t.Errorf("got %d draw calls", len(calls))
	}
	if _, err := gldraw.New("empty").DrawCall(glbuild.Triangles); !errors.Is(err, gldraw.ErrNotConfigured) {
		t.Errorf("expected not configured, got %v", err)
	}
}

func TestInterleavedChain(t *testing.T) {
	// Two vertices of position xyz + color rgba.
	data := []float32{
		0, 0, 0, 1, 0, 0, 1,
		1, 0, 0, 0, 1, 0, 1,
	}
	root := gldraw.New("strided").
		WithStride(data, 28).
		WithStrideVertices(3).
		WithStrideColors(4)
	next := root.Append("again").WithStride(data, 28).WithStrideVertices(3).WithStrideColors(4)
	for _, obj := range []*gldraw.Object{root, next} {
		if err := obj.Err(); err != nil {
			t.Fatal(err)
		}
	}
	if root.Layout() != next.Layout() {
		t.Error("successor does not share layout")
	}
	if n := root.Layout().Len(); n != 2 {
		t.Errorf("layout has %d attributes, want 2", n)
	}
	if root.VertexCount() != 2 {
		t.Errorf("got %d vertices", root.VertexCount())
	}
	src, err := next.Sources()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src.Vertex, "layout (location = 1) in vec4 color;") {
		t.Errorf("bad interleaved vertex source:\n%s", src.Vertex)
	}
	if next.WithStrideColors(3).Err() == nil {
		t.Error("expected error for color size differing from chain layout")
	}
	bad := gldraw.New("bad").WithStride(data, 28).WithVertices(triangle, 3)
	if bad.Err() == nil {
		t.Error("expected error mixing dedicated and interleaved buffers")
	}
	if gldraw.New("nostride").WithStrideVertices(3).Err() == nil {
		t.Error("expected error adding stride attribute without stride")
	}
}

func TestStrideOffset(t *testing.T) {
	// Position xyz, 4 bytes padding, normal xyz per record.
	data := []float32{
		0, 0, 0, 0, 0, 0, 1,
		1, 0, 0, 0, 0, 0, 1,
	}
	root := gldraw.New("padded").
		WithStride(data, 28).
		WithStrideVertices(3).
		WithStrideOffset(16).
		WithStrideNormals(3)
	if err := root.Err(); err != nil {
		t.Fatal(err)
	}
	normal, ok := root.Layout().Attribute(glbuild.AttribNormal)
	if !ok || normal.Offset != 16 {
		t.Errorf("normal attribute %+v, want offset 16", normal)
	}
	if root.Layout().Stride() != 28 || root.VertexCount() != 2 {
		t.Errorf("stride %d with %d vertices", root.Layout().Stride(), root.VertexCount())
	}
	if root.WithStrideOffset(-4).Err() == nil {
		t.Error("expected negative offset error")
	}
}
