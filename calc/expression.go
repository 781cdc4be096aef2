// Package calc compiles textual mathematical formulas into reusable,
// rebindable evaluators. Identifiers are case-insensitive. Every identifier
// that is neither a recognised function nor a built-in constant is a free
// variable that must be bound before evaluation.
package calc

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// CompileError is returned when a formula fails to parse or compile.
type CompileError struct {
	Formula string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling %q: %s", e.Formula, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// UnboundVariableError is returned by evaluation when a free variable has no binding.
// It is recoverable: bind the variable and evaluate again.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return "unbound variable: " + e.Name
}

// Constant is a named built-in constant.
type Constant struct {
	Name  string
	Value float64
}

// constants is ordered. Compiled evaluators receive these as their leading positional arguments.
var constants = [...]Constant{
	{"pi", math.Pi},
	{"e", math.E},
	{"tau", 2 * math.Pi},
	{"m_pi", math.Pi},
	{"m_e", math.E},
	{"m_pi_2", math.Pi / 2},
	{"m_pi_4", math.Pi / 4},
	{"m_sqrt2", math.Sqrt2},
	{"m_ln2", math.Ln2},
	{"m_ln10", math.Ln10},
}

// Constants returns the built-in constants in the order they are passed to compiled evaluators.
func Constants() []Constant { return slices.Clone(constants[:]) }

var functions = map[string]any{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"atan2": math.Atan2,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"exp":   math.Exp,
	"log":   math.Log,
	"log10": math.Log10,
	"log2":  math.Log2,
	"pow":   math.Pow,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": round,
	"min":   minf,
	"max":   maxf,
	"sign":  sign,
}

// IsFunction reports whether name is a recognised function name. Case-insensitive.
func IsFunction(name string) bool {
	_, ok := functions[strings.ToLower(name)]
	return ok
}

// IsConstant reports whether name is a built-in constant. Case-insensitive.
func IsConstant(name string) bool {
	name = strings.ToLower(name)
	for _, c := range constants {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Expression is a compiled formula with its own variable [Context].
// An Expression is not safe for concurrent use.
type Expression struct {
	formula string
	vars    []string
	params  []string
	fn      func(args []float64) (float64, error)
	ctx     Context
	args    []float64
}

// Compile compiles formula. It fails with a [*CompileError] on malformed syntax.
// Formulas are case insensitive, so variables may not be named after the
// operator keywords in, not, and, or, matches, contains or let in any case.
func Compile(formula string) (*Expression, error) {
	if strings.TrimSpace(formula) == "" {
		return nil, &CompileError{Formula: formula, Err: errors.New("empty formula")}
	}
	src := strings.ToLower(formula)
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, &CompileError{Formula: formula, Err: err}
	}
	var v varCollector
	ast.Walk(&tree.Node, &v)

	params := make([]string, 0, len(constants)+len(v.names))
	for _, c := range constants {
		params = append(params, c.Name)
	}
	params = append(params, v.names...)

	env := make(map[string]any, len(functions)+len(params))
	for name, f := range functions {
		env[name] = f
	}
	for _, name := range params {
		env[name] = 0.0
	}
	prog, err := expr.Compile(src, expr.Env(env), expr.DisableAllBuiltins())
	if err != nil {
		return nil, &CompileError{Formula: formula, Err: err}
	}
	e := &Expression{
		formula: formula,
		vars:    v.names,
		params:  params,
		fn:      makeEvaluator(prog, params, env),
		args:    make([]float64, len(params)),
	}
	return e, nil
}

// makeEvaluator returns the compiled callable. args are positional and follow params.
func makeEvaluator(prog *vm.Program, params []string, env map[string]any) func(args []float64) (float64, error) {
	return func(args []float64) (float64, error) {
		for i, name := range params {
			env[name] = args[i]
		}
		out, err := expr.Run(prog, env)
		if err != nil {
			return 0, err
		}
		switch v := out.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float32:
			return float64(v), nil
		default:
			return 0, fmt.Errorf("non-numeric result of type %T", out)
		}
	}
}

// Formula returns the formula text as given to [Compile].
func (e *Expression) Formula() string { return e.formula }

// Variables returns the free variable names, lower-cased, in first-seen order.
func (e *Expression) Variables() []string { return slices.Clone(e.vars) }

// Params returns the positional parameter list of the compiled evaluator:
// the built-in constants followed by the free variables.
func (e *Expression) Params() []string { return slices.Clone(e.params) }

// Context returns the expression's variable bindings.
func (e *Expression) Context() *Context { return &e.ctx }

// Bind binds name to the constant v.
func (e *Expression) Bind(name string, v float64) *Expression {
	e.ctx.BindValue(name, v)
	return e
}

// BindFunc binds name to a producer called on every evaluation.
func (e *Expression) BindFunc(name string, fn func() float64) *Expression {
	e.ctx.BindFunc(name, fn)
	return e
}

// Unbind removes name's binding.
func (e *Expression) Unbind(name string) *Expression {
	e.ctx.Unbind(name)
	return e
}

// Eval evaluates the expression with the current bindings. Producers are
// called anew on every call. It fails with [*UnboundVariableError] if a free
// variable has no binding.
func (e *Expression) Eval() (float64, error) {
	nc := len(constants)
	for i, c := range constants {
		e.args[i] = c.Value
	}
	for i, name := range e.vars {
		b, ok := e.ctx.Lookup(name)
		if !ok {
			return 0, &UnboundVariableError{Name: name}
		}
		e.args[nc+i] = b.Resolve()
	}
	v, err := e.fn(e.args)
	if err != nil {
		return 0, fmt.Errorf("evaluating %q: %w", e.formula, err)
	}
	return v, nil
}

// CylX treats the expression's result as a polar radius and returns r*cos(theta).
// It does not bind theta; callers bind the swept variable beforehand.
func (e *Expression) CylX(theta float64) (float64, error) {
	r, err := e.Eval()
	return r * math.Cos(theta), err
}

// CylY treats the expression's result as a polar radius and returns r*sin(theta).
// It does not bind theta; callers bind the swept variable beforehand.
func (e *Expression) CylY(theta float64) (float64, error) {
	r, err := e.Eval()
	return r * math.Sin(theta), err
}

type varCollector struct {
	names []string
}

func (v *varCollector) Visit(node *ast.Node) {
	ident, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	name := ident.Value
	if IsFunction(name) || IsConstant(name) || slices.Contains(v.names, name) {
		return
	}
	v.names = append(v.names, name)
}

func round(x float64) float64 { return math.Floor(x + 0.5) }

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x // Zero or NaN.
}

func minf(x float64, xs ...float64) float64 {
	for _, v := range xs {
		x = math.Min(x, v)
	}
	return x
}

func maxf(x float64, xs ...float64) float64 {
	for _, v := range xs {
		x = math.Max(x, v)
	}
	return x
}
