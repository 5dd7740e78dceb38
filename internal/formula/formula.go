// Package formula evaluates the numeric expressions that definition records use in place of
// literal values (for example `"ship_class_mass * 0.02 + 10"`).
//
// Expressions are built from numbers, named variables, the four arithmetic operators,
// `%`, `^` (or `**`), parentheses and a fixed whitelist of math functions. Syntax errors and
// unknown functions fail Compile. Variable names are only bound at evaluation, so a name
// missing from the Vars map fails Eval with ErrUnknownIdentifier. There is no way to reach
// Go values beyond that map.
package formula

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	// ErrSyntax is returned for malformed expressions.
	ErrSyntax = errors.New("formula: syntax error")
	// ErrUnknownIdentifier is returned when an expression names a variable that is not in
	// the evaluation context or a function that is not whitelisted.
	ErrUnknownIdentifier = errors.New("formula: unknown identifier")
	// ErrNotFinite is returned when evaluation produces NaN or ±Inf.
	ErrNotFinite = errors.New("formula: result is not finite")
)

// Vars is the symbol table an expression is evaluated against.
type Vars map[string]float64

// constants are always in scope and cannot be shadowed by Vars.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type function struct {
	minArgs, maxArgs int // maxArgs < 0 means variadic
	call             func(args []float64) float64
}

var functions = map[string]function{
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"log2":  unary(math.Log2),
	"exp":   unary(math.Exp),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"pow": {2, 2, func(a []float64) float64 {
		return math.Pow(a[0], a[1])
	}},
	"min": {1, -1, func(a []float64) float64 {
		return slices.Min(a)
	}},
	"max": {1, -1, func(a []float64) float64 {
		return slices.Max(a)
	}},
	"clamp": {3, 3, func(a []float64) float64 {
		return math.Max(a[1], math.Min(a[2], a[0]))
	}},
}

func unary(fn func(float64) float64) function {
	return function{1, 1, func(a []float64) float64 { return fn(a[0]) }}
}

// Expr is a compiled expression. It is immutable and safe for concurrent use.
type Expr struct {
	src  string
	root node
	vars []string
}

// Compile parses src into an Expr. A single leading '=' is accepted and ignored, so
// spreadsheet-style formulas ("=2*x") compile as well.
func Compile(src string) (*Expr, error) {
	text := strings.TrimSpace(src)
	text = strings.TrimPrefix(text, "=")

	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, p.peek().text, p.peek().pos)
	}

	var vars []string
	collectVars(root, &vars)
	slices.Sort(vars)
	vars = slices.Compact(vars)

	return &Expr{src: src, root: root, vars: vars}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and package-level
// literals.
func MustCompile(src string) *Expr {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Eval compiles and evaluates src in one step.
func Eval(src string, vars Vars) (float64, error) {
	e, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(vars)
}

// String returns the source text the expression was compiled from.
func (e *Expr) String() string { return e.src }

// Vars returns the sorted, de-duplicated variable names the expression references.
func (e *Expr) Vars() []string { return slices.Clone(e.vars) }

// References reports whether the expression reads the named variable.
func (e *Expr) References(name string) bool {
	_, ok := slices.BinarySearch(e.vars, name)
	return ok
}

// Eval evaluates the expression. Missing variables and non-finite results are errors.
func (e *Expr) Eval(vars Vars) (float64, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotFinite, e.src)
	}
	return v, nil
}

func collectVars(n node, out *[]string) {
	switch n := n.(type) {
	case varNode:
		*out = append(*out, string(n))
	case unaryNode:
		collectVars(n.x, out)
	case binaryNode:
		collectVars(n.l, out)
		collectVars(n.r, out)
	case callNode:
		for _, a := range n.args {
			collectVars(a, out)
		}
	}
}
