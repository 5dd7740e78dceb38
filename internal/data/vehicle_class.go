package data

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayerType names a damage-absorption tier of a ship.
type LayerType string

const (
	LayerHull  LayerType = "HULL"
	LayerCore  LayerType = "CORE"
	LayerInner LayerType = "INNER"
	LayerOuter LayerType = "OUTER"
	LayerArmor LayerType = "ARMOR"
)

// VehicleClass is an immutable hull class definition.
type VehicleClass struct {
	ID           string                 `yaml:"id"`
	Name         string                 `yaml:"name"`
	Type         string                 `yaml:"type"` // vehicle type, e.g. "Ship", "Fighter"
	MaxMass      float64                `yaml:"max_mass"`
	HullMass     float64                `yaml:"hull_mass"`
	Requirements map[string]Requirement `yaml:"requirements"`
	Layers       []LayerDef             `yaml:"layers"`
}

// RequirementNames returns the requirement ability names in sorted order.
func (c *VehicleClass) RequirementNames() []string {
	names := make([]string, 0, len(c.Requirements))
	for name := range c.Requirements {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Layer returns the layer definition of the given type, or nil.
func (c *VehicleClass) Layer(t LayerType) *LayerDef {
	for i := range c.Layers {
		if c.Layers[i].Type == t {
			return &c.Layers[i]
		}
	}
	return nil
}

// LayerDef describes one layer of a vehicle class.
type LayerDef struct {
	Type         LayerType          `yaml:"type"`
	RadiusPct    float64            `yaml:"radius_pct"`
	MaxMassPct   float64            `yaml:"max_mass_pct"`
	Restrictions []LayerRestriction `yaml:"restrictions"`
}

// RestrictionKind is the dimension a layer restriction filters on.
type RestrictionKind string

const (
	AllowType    RestrictionKind = "allow_type"
	DenyType     RestrictionKind = "deny_type"
	AllowAbility RestrictionKind = "allow_ability"
	DenyAbility  RestrictionKind = "deny_ability"
)

// LayerRestriction is a placement rule written as "kind:value", e.g. "deny_type:Armor".
type LayerRestriction struct {
	Kind  RestrictionKind
	Value string
}

// ParseLayerRestriction parses the "kind:value" form.
func ParseLayerRestriction(s string) (LayerRestriction, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return LayerRestriction{}, fmt.Errorf("restriction %q: want kind:value", s)
	}
	r := LayerRestriction{Kind: RestrictionKind(strings.TrimSpace(kind)), Value: strings.TrimSpace(value)}
	switch r.Kind {
	case AllowType, DenyType, AllowAbility, DenyAbility:
		return r, nil
	}
	return LayerRestriction{}, fmt.Errorf("restriction %q: unknown kind %q", s, kind)
}

// String returns the "kind:value" form.
func (r LayerRestriction) String() string { return string(r.Kind) + ":" + r.Value }

// UnmarshalYAML decodes the "kind:value" string form.
func (r *LayerRestriction) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLayerRestriction(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = parsed
	return nil
}

// MarshalYAML encodes the restriction as a string.
func (r LayerRestriction) MarshalYAML() (any, error) { return r.String(), nil }

// Requirement is a class requirement: either "at least one operational component with the
// ability" (Boolean) or "the ability totals at least Min".
type Requirement struct {
	Boolean bool
	Min     float64
}

// UnmarshalYAML accepts `true`/`false` or a number.
func (q *Requirement) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: requirement must be bool or number", node.Line)
	}
	if node.Tag == "!!bool" {
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		// `false` means "not required"; keep it as a numeric zero threshold.
		*q = Requirement{Boolean: b}
		return nil
	}
	f, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return fmt.Errorf("line %d: requirement %q: %w", node.Line, node.Value, err)
	}
	*q = Requirement{Min: f}
	return nil
}

// MarshalYAML writes the requirement back in its short form.
func (q Requirement) MarshalYAML() (any, error) {
	if q.Boolean {
		return true, nil
	}
	return q.Min, nil
}

// String renders the requirement threshold for messages.
func (q Requirement) String() string {
	if q.Boolean {
		return "at least one"
	}
	return strconv.FormatFloat(q.Min, 'g', -1, 64)
}
