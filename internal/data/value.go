package data

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/shipyard/internal/formula"
)

// Value is a definition field that is either a literal number or a formula string.
// Formulas are compiled once when the definition is loaded; a formula that fails to
// compile is kept (with its error) so that resolution can report it and fall back to 0
// instead of aborting the whole load.
type Value struct {
	literal float64
	src     string
	expr    *formula.Expr
	err     error
}

// Literal returns a Value holding a fixed number.
func Literal(v float64) Value {
	return Value{literal: v}
}

// Formula returns a Value backed by the expression src.
func Formula(src string) Value {
	expr, err := formula.Compile(src)
	return Value{src: src, expr: expr, err: err}
}

// ParseValue interprets s as a number when possible and as a formula otherwise.
func ParseValue(s string) Value {
	trimmed := strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Literal(f)
	}
	return Formula(trimmed)
}

// IsFormula reports whether the value is expression-backed.
func (v Value) IsFormula() bool { return v.src != "" }

// Source returns the formula text, or the literal formatted as text.
func (v Value) Source() string {
	if v.IsFormula() {
		return v.src
	}
	return strconv.FormatFloat(v.literal, 'g', -1, 64)
}

// References reports whether a formula value reads the named variable.
func (v Value) References(name string) bool {
	return v.expr != nil && v.expr.References(name)
}

// Resolve evaluates the value against vars. Literals never fail.
func (v Value) Resolve(vars formula.Vars) (float64, error) {
	if !v.IsFormula() {
		return v.literal, nil
	}
	if v.err != nil {
		return 0, v.err
	}
	return v.expr.Eval(vars)
}

// UnmarshalYAML accepts numeric scalars and formula strings.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected number or formula, got %s", node.Line, kindName(node.Kind))
	}
	switch node.Tag {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: parsing number %q: %w", node.Line, node.Value, err)
		}
		*v = Literal(f)
	case "!!bool":
		return fmt.Errorf("line %d: expected number or formula, got bool", node.Line)
	default:
		*v = ParseValue(node.Value)
	}
	return nil
}

// MarshalYAML writes literals as numbers and formulas as strings.
func (v Value) MarshalYAML() (any, error) {
	if v.IsFormula() {
		return v.src, nil
	}
	return v.literal, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "scalar"
	}
}
