package glbuild

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadySet is wrapped by [StateError] when a write-once ingredient is assigned twice.
	ErrAlreadySet = errors.New("can only be set once")
	// ErrColorConflict is wrapped by [StateError] when a color buffer and a constant color are combined.
	ErrColorConflict = errors.New("color buffer and constant color are mutually exclusive")
)

// StateError reports a rejected assignment to an [Ingredients] field.
type StateError struct {
	Field Ingredient
	Err   error
}

func (e *StateError) Error() string { return e.Field.String() + ": " + e.Err.Error() }

func (e *StateError) Unwrap() error { return e.Err }

// ConfigError reports an ingredient set or layout that cannot be composed into shaders.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "glbuild: " + e.Msg }

// Ingredient identifies one optional input of a draw object. Values are bit flags.
type Ingredient uint16

const (
	Position Ingredient = 1 << iota
	Normals
	ColorBuffer
	ConstColor
	Light
	Translation
	ConstTranslation
	Indices
	PrimitiveType
	Precision

	maxIngredient = iota
)

// String implements fmt.Stringer. Combined flags are joined by '|'.
func (ing Ingredient) String() string {
	switch ing {
	case 0:
		return "none"
	case Position:
		return "position"
	case Normals:
		return "normals"
	case ColorBuffer:
		return "color buffer"
	case ConstColor:
		return "constant color"
	case Light:
		return "light direction"
	case Translation:
		return "translation"
	case ConstTranslation:
		return "constant translation"
	case Indices:
		return "indices"
	case PrimitiveType:
		return "primitive"
	case Precision:
		return "precision"
	}
	var names []string
	for i := 0; i < maxIngredient; i++ {
		if bit := Ingredient(1 << i); ing&bit != 0 {
			names = append(names, bit.String())
		}
	}
	if rem := ing &^ (1<<maxIngredient - 1); rem != 0 || len(names) == 0 {
		names = append(names, "invalid")
	}
	return strings.Join(names, "|")
}

// Defaults applied by requirement inference and unset names.
const (
	DefaultConstColorName = "constColor"
	DefaultLightName      = "lightDirection"
	DefaultTranslateName  = "translate"
	DefaultPrecision      = "mediump float"
)

var (
	DefaultConstColor     = [4]float32{0.7, 0.7, 0.7, 1}
	DefaultLightDirection = [3]float32{0, 0.5, 1}
)

// LightDirection describes the direction lighting arrives from.
type LightDirection struct {
	// Name is the shader identifier. Empty means [DefaultLightName].
	Name      string
	Direction [3]float32
	// Normalize normalizes light and normal before the dot product in the fragment stage.
	Normalize bool
	// Uniform declares the direction as a uniform updated at runtime
	// instead of a compile-time constant. Direction is then the initial value.
	Uniform bool
}

// DefaultLight is the constant light assumed when normals are present without a light.
func DefaultLight() LightDirection {
	return LightDirection{Name: DefaultLightName, Direction: DefaultLightDirection, Normalize: true}
}

// Ingredients is a write-once descriptor of everything a draw object
// may need for shader composition. Every field can be set at most once;
// later assignments fail with [*StateError]. The zero value is empty and ready for use.
type Ingredients struct {
	set              Ingredient
	position         LayoutAttrib
	normals          LayoutAttrib
	colors           LayoutAttrib
	constColorName   string
	constColor       [4]float32
	light            LightDirection
	translateName    string
	constTranslation [4]float32
	indexCount       int
	indexType        IndexType
	primitive        Primitive
	precision        string
}

// Has reports whether all ingredients in mask are set.
func (ing *Ingredients) Has(mask Ingredient) bool { return ing.set&mask == mask }

// Set returns the set of assigned ingredients.
func (ing *Ingredients) Set() Ingredient { return ing.set }

func (ing *Ingredients) claim(field Ingredient) error {
	if ing.set&field != 0 {
		return &StateError{Field: field, Err: ErrAlreadySet}
	}
	ing.set |= field
	return nil
}

func dedicatedAttrib(name string, location, size int) (LayoutAttrib, error) {
	a := LayoutAttrib{Name: name, Location: location, Size: size, Type: Float}
	if err := a.validate(); err != nil {
		return LayoutAttrib{}, &ConfigError{Msg: err.Error()}
	}
	return a, nil
}

// SetPosition sets the dedicated vertex position buffer bound at location with size components.
func (ing *Ingredients) SetPosition(location, size int) error {
	a, err := dedicatedAttrib(AttribVertex, location, size)
	if err != nil {
		return err
	}
	if err := ing.claim(Position); err != nil {
		return err
	}
	ing.position = a
	return nil
}

// SetNormals sets the dedicated normals buffer bound at location with size components.
func (ing *Ingredients) SetNormals(location, size int) error {
	a, err := dedicatedAttrib(AttribNormal, location, size)
	if err != nil {
		return err
	}
	if err := ing.claim(Normals); err != nil {
		return err
	}
	ing.normals = a
	return nil
}

// SetColorBuffer sets the dedicated per-vertex color buffer bound at location with size components.
// It fails if a constant color is set.
func (ing *Ingredients) SetColorBuffer(location, size int) error {
	a, err := dedicatedAttrib(AttribColor, location, size)
	if err != nil {
		return err
	}
	if ing.Has(ConstColor) {
		return &StateError{Field: ColorBuffer, Err: ErrColorConflict}
	}
	if err := ing.claim(ColorBuffer); err != nil {
		return err
	}
	ing.colors = a
	return nil
}

// SetConstColor sets a constant RGBA color declared as name in the fragment stage.
// An empty name means [DefaultConstColorName]. It fails if a color buffer is set.
func (ing *Ingredients) SetConstColor(name string, rgba [4]float32) error {
	if ing.Has(ColorBuffer) {
		return &StateError{Field: ConstColor, Err: ErrColorConflict}
	}
	if err := ing.claim(ConstColor); err != nil {
		return err
	}
	if name == "" {
		name = DefaultConstColorName
	}
	ing.constColorName = name
	ing.constColor = rgba
	return nil
}

// SetLight sets the light direction.
func (ing *Ingredients) SetLight(l LightDirection) error {
	if err := ing.claim(Light); err != nil {
		return err
	}
	if l.Name == "" {
		l.Name = DefaultLightName
	}
	ing.light = l
	return nil
}

// SetTranslation declares a uniform vec4 translation named name added to the vertex position.
// An empty name means [DefaultTranslateName].
func (ing *Ingredients) SetTranslation(name string) error {
	if err := ing.claim(Translation); err != nil {
		return err
	}
	if name == "" {
		name = DefaultTranslateName
	}
	ing.translateName = name
	return nil
}

// SetConstTranslation sets a compile-time translation added to the vertex position.
func (ing *Ingredients) SetConstTranslation(v [4]float32) error {
	if err := ing.claim(ConstTranslation); err != nil {
		return err
	}
	ing.constTranslation = v
	return nil
}

// SetIndices records an index buffer of count elements of type typ.
func (ing *Ingredients) SetIndices(count int, typ IndexType) error {
	if count < 0 {
		return &ConfigError{Msg: "negative index count"}
	}
	switch typ {
	case IndexUint8, IndexUint16, IndexUint32:
	default:
		return &ConfigError{Msg: "invalid index type " + typ.String()}
	}
	if err := ing.claim(Indices); err != nil {
		return err
	}
	ing.indexCount = count
	ing.indexType = typ
	return nil
}

// SetPrimitive sets the draw topology.
func (ing *Ingredients) SetPrimitive(p Primitive) error {
	if p > TriangleFan {
		return &ConfigError{Msg: "invalid primitive " + p.String()}
	}
	if err := ing.claim(PrimitiveType); err != nil {
		return err
	}
	ing.primitive = p
	return nil
}

// SetPrecision sets the fragment stage default precision qualifier, i.e. "highp float".
func (ing *Ingredients) SetPrecision(precision string) error {
	if strings.TrimSpace(precision) == "" {
		return &ConfigError{Msg: "empty precision"}
	}
	if err := ing.claim(Precision); err != nil {
		return err
	}
	ing.precision = precision
	return nil
}

// PositionAttrib returns the dedicated position buffer attribute.
func (ing *Ingredients) PositionAttrib() (LayoutAttrib, bool) { return ing.position, ing.Has(Position) }

// NormalsAttrib returns the dedicated normals buffer attribute.
func (ing *Ingredients) NormalsAttrib() (LayoutAttrib, bool) { return ing.normals, ing.Has(Normals) }

// ColorAttrib returns the dedicated color buffer attribute.
func (ing *Ingredients) ColorAttrib() (LayoutAttrib, bool) { return ing.colors, ing.Has(ColorBuffer) }

// ConstColorValue returns the constant color and its shader name.
func (ing *Ingredients) ConstColorValue() (name string, rgba [4]float32, ok bool) {
	return ing.constColorName, ing.constColor, ing.Has(ConstColor)
}

// LightValue returns the light direction.
func (ing *Ingredients) LightValue() (LightDirection, bool) { return ing.light, ing.Has(Light) }

// TranslationName returns the name of the uniform translation.
func (ing *Ingredients) TranslationName() (string, bool) { return ing.translateName, ing.Has(Translation) }

// ConstTranslationValue returns the compile-time translation.
func (ing *Ingredients) ConstTranslationValue() ([4]float32, bool) {
	return ing.constTranslation, ing.Has(ConstTranslation)
}

// IndexInfo returns the index buffer element count and type.
func (ing *Ingredients) IndexInfo() (count int, typ IndexType, ok bool) {
	return ing.indexCount, ing.indexType, ing.Has(Indices)
}

// PrimitiveValue returns the draw topology.
func (ing *Ingredients) PrimitiveValue() (Primitive, bool) { return ing.primitive, ing.Has(PrimitiveType) }

// PrecisionValue returns the precision qualifier, [DefaultPrecision] if unset.
func (ing *Ingredients) PrecisionValue() string {
	if ing.Has(Precision) {
		return ing.precision
	}
	return DefaultPrecision
}

// Uniforms returns the uniform names a linked program must resolve,
// translation first then light direction.
func (ing *Ingredients) Uniforms() []string {
	var names []string
	if ing.Has(Translation) {
		names = append(names, ing.translateName)
	}
	if ing.Has(Light) && ing.light.Uniform {
		names = append(names, ing.light.Name)
	}
	return names
}

// withRequirements returns a copy of ing with default color and light
// filled in where composition requires them.
func (ing Ingredients) withRequirements(layout *Layout) Ingredients {
	if !ing.Has(ColorBuffer) && !ing.Has(ConstColor) && !layout.Has(AttribColor) {
		ing.SetConstColor(DefaultConstColorName, DefaultConstColor)
	}
	hasNormals := ing.Has(Normals) || layout.Has(AttribNormal)
	if hasNormals && !ing.Has(Light) {
		ing.SetLight(DefaultLight())
	}
	return ing
}
