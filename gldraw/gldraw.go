// Package gldraw holds CPU side draw objects: attribute data, the write-once
// shader ingredients describing it, and the chain of objects sharing one
// shader program. Uploading and issuing draw calls is left to a GPU backend
// such as package glview, which consumes [Object.DrawCall] and [Object.TakeDirty].
package gldraw

import (
	"errors"
	"fmt"

	"github.com/soypat/dynamit/glbuild"
)

var (
	ErrNotChainRoot  = errors.New("operation requires the chain root")
	ErrNotLast       = errors.New("can only append to the last object of a chain")
	ErrNotConfigured = errors.New("not configured")
)

// Dirty flags which CPU side data changed since the last [Object.TakeDirty].
type Dirty uint8

const (
	DirtyVertices Dirty = 1 << iota
	DirtyNormals
	DirtyColors
	DirtyIndices
	DirtyStride
	DirtyTranslation
	DirtyLight

	DirtyAll = DirtyVertices | DirtyNormals | DirtyColors | DirtyIndices | DirtyStride | DirtyTranslation | DirtyLight
)

// Registry assigns shader input locations to attribute names. All objects
// of a chain share one Registry so that an attribute name maps to the same
// location in every object drawn with the chain's program.
type Registry struct {
	locs   map[string]int
	next   int
	layout glbuild.Layout
}

// Location returns the location bound to name, allocating the next free one if unbound.
func (r *Registry) Location(name string) int {
	if loc, ok := r.locs[name]; ok {
		return loc
	}
	if r.locs == nil {
		r.locs = make(map[string]int)
	}
	loc := r.next
	r.locs[name] = loc
	r.next++
	return loc
}

// Lookup returns the location bound to name.
func (r *Registry) Lookup(name string) (int, bool) {
	loc, ok := r.locs[name]
	return loc, ok
}

// Len returns the number of allocated locations.
func (r *Registry) Len() int { return r.next }

type attribData struct {
	data []float32
	dim  int
}

func (a attribData) count() int {
	if a.dim == 0 {
		return 0
	}
	return len(a.data) / a.dim
}

// Object is one draw object: a vertex array's worth of data together with
// its shader ingredients. Registration methods return the receiver and
// accumulate errors, retrieved with [Object.Err].
type Object struct {
	name      string
	reg       *Registry
	prev      *Object
	next      *Object
	ing       glbuild.Ingredients
	composer  glbuild.Composer
	vertices  attribData
	normals   attribData
	colors    attribData
	indices   []uint32
	strided   bool
	stride    []float32
	translate [4]float32
	light     [3]float32
	dirty     Dirty
	errs      []error
}

// New returns a chain root with its own [Registry].
func New(name string) *Object {
	return &Object{name: name, reg: &Registry{}}
}

// Append returns a new object chained after o. The successor shares o's
// registry and program, and inherits o's interleaved layout if o has one.
// o must be the last object of its chain.
func (o *Object) Append(name string) *Object {
	obj := &Object{name: name, reg: o.reg, prev: o, strided: o.strided}
	if o.next != nil {
		obj.errs = append(obj.errs, fmt.Errorf("append %q after %q: %w", name, o.name, ErrNotLast))
		return obj
	}
	o.next = obj
	return obj
}

func (o *Object) Name() string { return o.name }
func (o *Object) Prev() *Object { return o.prev }
func (o *Object) Next() *Object { return o.next }
func (o *Object) IsRoot() bool { return o.prev == nil }
func (o *Object) IsLast() bool { return o.next == nil }
func (o *Object) Registry() *Registry { return o.reg }
func (o *Object) Translation() [4]float32 { return o.translate }
func (o *Object) LightDirection() [3]float32 { return o.light }

// Root returns the first object of o's chain.
func (o *Object) Root() *Object {
	for o.prev != nil {
		o = o.prev
	}
	return o
}

// Last returns the last object of o's chain.
func (o *Object) Last() *Object {
	for o.next != nil {
		o = o.next
	}
	return o
}

// Walk calls fn on o and every successor in chain order, stopping at the first error.
func (o *Object) Walk(fn func(*Object) error) error {
	for obj := o; obj != nil; obj = obj.next {
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

// Err returns all errors accumulated during registration.
func (o *Object) Err() error {
	if len(o.errs) == 0 {
		return nil
	}
	return errors.Join(o.errs...)
}

func (o *Object) ok(err error, op string) *Object {
	if err != nil {
		o.errs = append(o.errs, fmt.Errorf("%s %q: %w", op, o.name, err))
	}
	return o
}

// Ingredients returns a copy of the object's shader ingredients.
func (o *Object) Ingredients() glbuild.Ingredients { return o.ing }

// Layout returns the chain's interleaved layout, or nil if o is not interleaved.
func (o *Object) Layout() *glbuild.Layout {
	if !o.strided {
		return nil
	}
	return &o.reg.layout
}

func (o *Object) Vertices() []float32 { return o.vertices.data }
func (o *Object) Normals() []float32 { return o.normals.data }
func (o *Object) Colors() []float32 { return o.colors.data }
func (o *Object) Indices() []uint32 { return o.indices }

// Interleaved returns the interleaved buffer data.
func (o *Object) Interleaved() []float32 { return o.stride }

// IsInterleaved reports whether o draws from an interleaved buffer.
func (o *Object) IsInterleaved() bool { return o.strided }

func checkDim(data []float32, dim int) error {
	if dim < 1 || dim > 4 {
		return fmt.Errorf("dimension %d not in 1..4", dim)
	}
	if len(data)%dim != 0 {
		return fmt.Errorf("data length %d is not a multiple of %d", len(data), dim)
	}
	return nil
}

func (o *Object) withAttrib(dst *attribData, name string, data []float32, dim int, set func(loc, dim int) error) error {
	if o.strided {
		return errors.New("dedicated " + name + " buffer on interleaved object")
	}
	if err := checkDim(data, dim); err != nil {
		return err
	}
	if err := set(o.reg.Location(name), dim); err != nil {
		return err
	}
	*dst = attribData{data: data, dim: dim}
	return nil
}

// WithVertices registers the vertex positions with dim components per vertex.
func (o *Object) WithVertices(data []float32, dim int) *Object {
	err := o.withAttrib(&o.vertices, glbuild.AttribVertex, data, dim, o.ing.SetPosition)
	if err == nil {
		o.dirty |= DirtyVertices
	}
	return o.ok(err, "vertices")
}

// WithNormals registers per-vertex normals.
func (o *Object) WithNormals(data []float32, dim int) *Object {
	err := o.withAttrib(&o.normals, glbuild.AttribNormal, data, dim, o.ing.SetNormals)
	if err == nil {
		o.dirty |= DirtyNormals
	}
	return o.ok(err, "normals")
}

// WithColors registers per-vertex colors.
func (o *Object) WithColors(data []float32, dim int) *Object {
	err := o.withAttrib(&o.colors, glbuild.AttribColor, data, dim, o.ing.SetColorBuffer)
	if err == nil {
		o.dirty |= DirtyColors
	}
	return o.ok(err, "colors")
}

// WithConstColor sets a constant RGBA color.
func (o *Object) WithConstColor(rgba [4]float32) *Object {
	return o.ok(o.ing.SetConstColor("", rgba), "const color")
}

// WithConstLightDirection sets a compile-time light direction.
func (o *Object) WithConstLightDirection(dir [3]float32, normalize bool) *Object {
	err := o.ing.SetLight(glbuild.LightDirection{Direction: dir, Normalize: normalize})
	if err == nil {
		o.light = dir
	}
	return o.ok(err, "const light")
}

// WithLightDirection sets a uniform light direction, updated with [Object.SetLightDirection].
func (o *Object) WithLightDirection(dir [3]float32, normalize bool) *Object {
	err := o.ing.SetLight(glbuild.LightDirection{Direction: dir, Normalize: normalize, Uniform: true})
	if err == nil {
		o.light = dir
		o.dirty |= DirtyLight
	}
	return o.ok(err, "light")
}

// WithTranslation sets a uniform translation, updated with [Object.Translate].
func (o *Object) WithTranslation(v [4]float32) *Object {
	err := o.ing.SetTranslation("")
	if err == nil {
		o.translate = v
		o.dirty |= DirtyTranslation
	}
	return o.ok(err, "translation")
}

// WithConstTranslation sets a compile-time translation.
func (o *Object) WithConstTranslation(v [4]float32) *Object {
	return o.ok(o.ing.SetConstTranslation(v), "const translation")
}

// WithIndices registers 32-bit triangle indices.
func (o *Object) WithIndices(indices []uint32) *Object {
	err := o.ing.SetIndices(len(indices), glbuild.IndexUint32)
	if err == nil {
		o.indices = indices
		o.dirty |= DirtyIndices
	}
	return o.ok(err, "indices")
}

// WithPrimitive sets the draw topology, overriding the default passed to [Object.DrawCall].
func (o *Object) WithPrimitive(p glbuild.Primitive) *Object {
	return o.ok(o.ing.SetPrimitive(p), "primitive")
}

// WithPrecision sets the fragment stage precision qualifier.
func (o *Object) WithPrecision(precision string) *Object {
	return o.ok(o.ing.SetPrecision(precision), "precision")
}

// WithShaderSources sets explicit shader sources for the chain. Only the chain root may do so.
func (o *Object) WithShaderSources(vertex, fragment string) *Object {
	if !o.IsRoot() {
		return o.ok(ErrNotChainRoot, "shader sources")
	}
	return o.ok(o.composer.SetSources(vertex, fragment), "shader sources")
}

// WithShaderVersion sets the version pragma of the chain's composed sources.
// Only the chain root may do so.
func (o *Object) WithShaderVersion(version string) *Object {
	if !o.IsRoot() {
		return o.ok(ErrNotChainRoot, "shader version")
	}
	o.composer.Version = version
	return o
}

// WithStride registers an interleaved buffer with records of strideBytes bytes.
// Chained successors of an interleaved object reuse its layout.
func (o *Object) WithStride(data []float32, strideBytes int) *Object {
	var err error
	switch {
	case o.ing.Has(glbuild.Position) || o.ing.Has(glbuild.Normals) || o.ing.Has(glbuild.ColorBuffer):
		err = errors.New("interleaved buffer on object with dedicated buffers")
	case strideBytes <= 0 || strideBytes%4 != 0:
		err = fmt.Errorf("invalid stride %d", strideBytes)
	case (len(data)*4)%strideBytes != 0:
		err = fmt.Errorf("data of %d bytes is not a whole number of %d byte records", len(data)*4, strideBytes)
	case o.stride != nil:
		err = glbuild.ErrAlreadySet
	}
	if err != nil {
		return o.ok(err, "stride")
	}
	inherited := o.prev != nil && o.prev.strided
	if !inherited || o.reg.layout.Stride() == 0 {
		o.reg.layout.SetStride(strideBytes)
	} else if o.reg.layout.Stride() != strideBytes {
		return o.ok(fmt.Errorf("stride %d differs from chain stride %d", strideBytes, o.reg.layout.Stride()), "stride")
	}
	o.strided = true
	o.stride = data
	o.dirty |= DirtyStride
	return o
}

// WithStrideOffset sets the byte offset of the next interleaved attribute.
func (o *Object) WithStrideOffset(bytes int) *Object {
	if bytes < 0 {
		return o.ok(fmt.Errorf("negative offset %d", bytes), "stride offset")
	}
	o.reg.layout.SetOffset(bytes)
	return o
}

func (o *Object) withStrideAttrib(name string, size int) *Object {
	if !o.strided {
		return o.ok(fmt.Errorf("%s: %w: call WithStride first", name, ErrNotConfigured), "stride attribute")
	}
	if a, ok := o.reg.layout.Attribute(name); ok {
		if a.Size != size {
			return o.ok(fmt.Errorf("%s: size %d differs from chain layout size %d", name, size, a.Size), "stride attribute")
		}
		return o // Inherited from predecessor.
	}
	_, err := o.reg.layout.Add(name, o.reg.Location(name), size, glbuild.Float, false)
	return o.ok(err, "stride attribute")
}

func (o *Object) WithStrideVertices(size int) *Object { return o.withStrideAttrib(glbuild.AttribVertex, size) }
func (o *Object) WithStrideNormals(size int) *Object { return o.withStrideAttrib(glbuild.AttribNormal, size) }
func (o *Object) WithStrideColors(size int) *Object { return o.withStrideAttrib(glbuild.AttribColor, size) }
func (o *Object) WithStrideTexCoords(size int) *Object { return o.withStrideAttrib(glbuild.AttribTexCoord, size) }

func (o *Object) update(dst *attribData, name string, data []float32, flag Dirty) error {
	if dst.dim == 0 {
		return fmt.Errorf("update %s of %q: %w", name, o.name, ErrNotConfigured)
	}
	if len(data)%dst.dim != 0 {
		return fmt.Errorf("update %s of %q: length %d is not %dD", name, o.name, len(data), dst.dim)
	}
	dst.data = data
	o.dirty |= flag
	return nil
}

// UpdateVertices replaces vertex data. The ingredients are unchanged.
func (o *Object) UpdateVertices(data []float32) error {
	return o.update(&o.vertices, "vertices", data, DirtyVertices)
}

// UpdateNormals replaces normal data.
func (o *Object) UpdateNormals(data []float32) error {
	return o.update(&o.normals, "normals", data, DirtyNormals)
}

// UpdateColors replaces color data. The color count must match the vertex count.
func (o *Object) UpdateColors(data []float32) error {
	if o.colors.dim != 0 && o.vertices.dim != 0 && len(data)/o.colors.dim != o.vertices.count() {
		return fmt.Errorf("update colors of %q: %d colors for %d vertices", o.name, len(data)/o.colors.dim, o.vertices.count())
	}
	return o.update(&o.colors, "colors", data, DirtyColors)
}

// UpdateInterleaved replaces the interleaved buffer data.
func (o *Object) UpdateInterleaved(data []float32) error {
	if o.stride == nil {
		return fmt.Errorf("update interleaved of %q: %w", o.name, ErrNotConfigured)
	}
	if stride := o.reg.layout.Stride(); (len(data)*4)%stride != 0 {
		return fmt.Errorf("update interleaved of %q: not a whole number of %d byte records", o.name, stride)
	}
	o.stride = data
	o.dirty |= DirtyStride
	return nil
}

// Translate updates the uniform translation.
func (o *Object) Translate(x, y, z, w float32) error {
	if !o.ing.Has(glbuild.Translation) {
		return fmt.Errorf("translate %q: %w: no uniform translation", o.name, ErrNotConfigured)
	}
	o.translate = [4]float32{x, y, z, w}
	o.dirty |= DirtyTranslation
	return nil
}

// SetLightDirection updates the uniform light direction.
func (o *Object) SetLightDirection(x, y, z float32) error {
	l, ok := o.ing.LightValue()
	if !ok || !l.Uniform {
		return fmt.Errorf("light direction of %q: %w: no uniform light", o.name, ErrNotConfigured)
	}
	o.light = [3]float32{x, y, z}
	o.dirty |= DirtyLight
	return nil
}

// TakeDirty returns the data changed since the last call and clears the flags.
func (o *Object) TakeDirty() Dirty {
	d := o.dirty
	o.dirty = 0
	return d
}

// Sources returns the shader sources of o's chain. Every object of a chain
// is drawn with the program composed for the chain root.
func (o *Object) Sources() (glbuild.Sources, error) {
	root := o.Root()
	if err := root.Err(); err != nil {
		return glbuild.Sources{}, err
	}
	return root.composer.Compose(&root.ing, root.Layout())
}

// Uniforms returns the uniform names of the chain's program.
func (o *Object) Uniforms() []string {
	root := o.Root()
	return root.ing.Uniforms()
}

// VertexCount returns the number of vertices drawn by a non-indexed draw call.
func (o *Object) VertexCount() int {
	if o.strided {
		stride := o.reg.layout.Stride()
		if stride == 0 {
			return 0
		}
		return len(o.stride) * 4 / stride
	}
	return o.vertices.count()
}

// DrawCall describes the draw call issued for one object.
type DrawCall struct {
	Primitive glbuild.Primitive
	// Indexed selects an elements draw call of Count indices of IndexType.
	Indexed   bool
	IndexType glbuild.IndexType
	// Count is the number of vertices or indices drawn.
	Count int
}

// DrawCall returns o's draw call. Primitive defaults to def unless set with [Object.WithPrimitive].
func (o *Object) DrawCall(def glbuild.Primitive) (DrawCall, error) {
	if err := o.Err(); err != nil {
		return DrawCall{}, err
	}
	if !o.ing.Has(glbuild.Position) && !o.reg.layout.Has(glbuild.AttribVertex) {
		return DrawCall{}, fmt.Errorf("draw %q: %w: no vertices", o.name, ErrNotConfigured)
	}
	dc := DrawCall{Primitive: def}
	if p, ok := o.ing.PrimitiveValue(); ok {
		dc.Primitive = p
	}
	if n, typ, ok := o.ing.IndexInfo(); ok {
		dc.Indexed = true
		dc.IndexType = typ
		dc.Count = n
	} else {
		dc.Count = o.VertexCount()
	}
	return dc, nil
}

// DrawCalls returns the draw calls of o and its successors in chain order.
func (o *Object) DrawCalls(def glbuild.Primitive) ([]DrawCall, error) {
	var calls []DrawCall
	err := o.Walk(func(obj *Object) error {
		dc, err := obj.DrawCall(def)
		if err != nil {
			return err
		}
		calls = append(calls, dc)
		return nil
	})
	return calls, err
}
