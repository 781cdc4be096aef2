package calc

import (
	"slices"
	"strings"
)

// Binding is the value bound to a variable name. It holds either a constant
// or a producer that is called on every evaluation, which lets an expression
// read a live value such as an animation angle without being recompiled.
type Binding struct {
	v  float64
	fn func() float64
}

// Value returns a constant Binding.
func Value(v float64) Binding { return Binding{v: v} }

// Func returns a Binding resolved by calling fn on every evaluation.
func Func(fn func() float64) Binding { return Binding{fn: fn} }

// IsFunc reports whether the binding is a producer.
func (b Binding) IsFunc() bool { return b.fn != nil }

// Resolve returns the current value of the binding.
func (b Binding) Resolve() float64 {
	if b.fn != nil {
		return b.fn()
	}
	return b.v
}

// Context maps case-insensitive variable names to bindings.
// The zero value is ready to use.
type Context struct {
	m map[string]Binding
}

// Bind binds name to b, replacing any previous binding.
func (c *Context) Bind(name string, b Binding) *Context {
	if c.m == nil {
		c.m = make(map[string]Binding)
	}
	c.m[strings.ToLower(name)] = b
	return c
}

// BindValue binds name to the constant v.
func (c *Context) BindValue(name string, v float64) *Context { return c.Bind(name, Value(v)) }

// BindFunc binds name to the producer fn.
func (c *Context) BindFunc(name string, fn func() float64) *Context { return c.Bind(name, Func(fn)) }

// Unbind removes name's binding. Unbinding an unbound name is a no-op.
func (c *Context) Unbind(name string) *Context {
	delete(c.m, strings.ToLower(name))
	return c
}

// Lookup returns the binding for name.
func (c *Context) Lookup(name string) (Binding, bool) {
	b, ok := c.m[strings.ToLower(name)]
	return b, ok
}

// Has reports whether name is bound.
func (c *Context) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Clear removes all bindings.
func (c *Context) Clear() *Context {
	clear(c.m)
	return c
}

// Names returns the bound names, lower-cased and sorted.
func (c *Context) Names() []string {
	names := make([]string, 0, len(c.m))
	for name := range c.m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
