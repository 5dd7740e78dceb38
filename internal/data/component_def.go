package data

import (
	"fmt"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ComponentDef is the immutable template a placed component is cloned from.
type ComponentDef struct {
	ID                  string         `yaml:"id"`
	Name                string         `yaml:"name"`
	Type                string         `yaml:"type"` // classification tag, e.g. "Weapons", "Armor"
	Mass                Value          `yaml:"mass"`
	HP                  Value          `yaml:"hp"`
	FiringArc           *float64       `yaml:"firing_arc,omitempty"`
	AllowedVehicleTypes []string       `yaml:"allowed_vehicle_types"`
	AllowedLayers       []LayerType    `yaml:"allowed_layers"`
	IsUnique            bool           `yaml:"is_unique"`
	ExclusiveGroup      string         `yaml:"exclusive_group"`
	Abilities           []AbilityBlock `yaml:"-"`
}

// AbilityBlock is one parameter block of a named capability. A definition may carry several
// blocks with the same name.
type AbilityBlock struct {
	Name   string
	Params Params
}

// componentDefYAML mirrors ComponentDef but decodes the ability mapping as a raw node so
// declaration order is preserved.
type componentDefYAML struct {
	ID                  string      `yaml:"id"`
	Name                string      `yaml:"name"`
	Type                string      `yaml:"type"`
	Mass                Value       `yaml:"mass"`
	HP                  Value       `yaml:"hp"`
	FiringArc           *float64    `yaml:"firing_arc,omitempty"`
	AllowedVehicleTypes []string    `yaml:"allowed_vehicle_types"`
	AllowedLayers       []LayerType `yaml:"allowed_layers"`
	IsUnique            bool        `yaml:"is_unique"`
	ExclusiveGroup      string      `yaml:"exclusive_group"`
	Abilities           yaml.Node   `yaml:"abilities"`
}

// UnmarshalYAML decodes a component definition. Each ability entry may be a mapping (one
// instance), a sequence of mappings (several instances) or a bare scalar, which becomes
// {value: <scalar>}.
func (d *ComponentDef) UnmarshalYAML(node *yaml.Node) error {
	var raw componentDefYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*d = ComponentDef{
		ID:                  raw.ID,
		Name:                raw.Name,
		Type:                raw.Type,
		Mass:                raw.Mass,
		HP:                  raw.HP,
		FiringArc:           raw.FiringArc,
		AllowedVehicleTypes: raw.AllowedVehicleTypes,
		AllowedLayers:       raw.AllowedLayers,
		IsUnique:            raw.IsUnique,
		ExclusiveGroup:      raw.ExclusiveGroup,
	}

	ab := &raw.Abilities
	if ab.Kind == 0 {
		return nil
	}
	if ab.Kind != yaml.MappingNode {
		return fmt.Errorf("component %q line %d: abilities must be a mapping", raw.ID, ab.Line)
	}
	for i := 0; i+1 < len(ab.Content); i += 2 {
		name := ab.Content[i].Value
		val := ab.Content[i+1]
		switch val.Kind {
		case yaml.MappingNode:
			var p Params
			if err := val.Decode(&p); err != nil {
				return fmt.Errorf("component %q ability %s: %w", raw.ID, name, err)
			}
			d.Abilities = append(d.Abilities, AbilityBlock{Name: name, Params: p})
		case yaml.SequenceNode:
			var ps []Params
			if err := val.Decode(&ps); err != nil {
				return fmt.Errorf("component %q ability %s: %w", raw.ID, name, err)
			}
			for _, p := range ps {
				d.Abilities = append(d.Abilities, AbilityBlock{Name: name, Params: p})
			}
		case yaml.ScalarNode:
			var v any
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("component %q ability %s: %w", raw.ID, name, err)
			}
			d.Abilities = append(d.Abilities, AbilityBlock{Name: name, Params: Params{"value": v}})
		default:
			return fmt.Errorf("component %q ability %s: unsupported %s", raw.ID, name, kindName(val.Kind))
		}
	}
	return nil
}

// AbilityParams returns every parameter block declared under name.
func (d *ComponentDef) AbilityParams(name string) []Params {
	var out []Params
	for _, b := range d.Abilities {
		if b.Name == name {
			out = append(out, b.Params)
		}
	}
	return out
}

// AllowsVehicleType reports whether the component may be fitted to the vehicle type.
// An empty allow-list means any vehicle type.
func (d *ComponentDef) AllowsVehicleType(vehicleType string) bool {
	return len(d.AllowedVehicleTypes) == 0 || slices.Contains(d.AllowedVehicleTypes, vehicleType)
}

// AllowsLayer reports whether the component may be placed in the layer. An empty list means
// any layer.
func (d *ComponentDef) AllowsLayer(layer LayerType) bool {
	return len(d.AllowedLayers) == 0 || slices.Contains(d.AllowedLayers, layer)
}

// Params is one ability parameter block as decoded from a definition record.
type Params map[string]any

// Value returns the named field as a Value. Numbers become literals, strings are parsed as
// numbers or formulas. ok is false when the field is missing or not numeric.
func (p Params) Value(key string) (Value, bool) {
	raw, present := p[key]
	if !present {
		return Value{}, false
	}
	switch v := raw.(type) {
	case int:
		return Literal(float64(v)), true
	case int64:
		return Literal(float64(v)), true
	case float64:
		return Literal(v), true
	case bool:
		if v {
			return Literal(1), true
		}
		return Literal(0), true
	case string:
		return ParseValue(v), true
	}
	return Value{}, false
}

// ValueOr returns the named field or a literal fallback.
func (p Params) ValueOr(key string, fallback float64) Value {
	if v, ok := p.Value(key); ok {
		return v
	}
	return Literal(fallback)
}

// Float returns a numeric field without formula support.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// String returns a string field or fallback.
func (p Params) String(key, fallback string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
