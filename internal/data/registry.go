package data

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Definitions is the on-disk layout of a definition file.
type Definitions struct {
	Components     []*ComponentDef `yaml:"components"`
	Modifiers      []*ModifierDef  `yaml:"modifiers"`
	VehicleClasses []*VehicleClass `yaml:"vehicle_classes"`
}

// Registry holds the immutable component, modifier and vehicle-class definitions.
//
// A Registry is built once (Load*/Register*) and then only read. Reads are safe from many
// goroutines as long as nothing is being loaded concurrently; parallel battles share one.
type Registry struct {
	components map[string]*ComponentDef
	modifiers  map[string]*ModifierDef
	classes    map[string]*VehicleClass
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// NewDefaultRegistry returns a registry populated with the embedded default definitions.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadDefaults(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadRegistry returns the default definitions with files merged over them in order.
func LoadRegistry(files []string) (*Registry, error) {
	r, err := NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		if err := r.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Reset drops every definition.
func (r *Registry) Reset() {
	r.components = make(map[string]*ComponentDef, 64)
	r.modifiers = make(map[string]*ModifierDef, 16)
	r.classes = make(map[string]*VehicleClass, 8)
}

// LoadDefaults loads the embedded default definition set.
func (r *Registry) LoadDefaults() error {
	return r.Load(defaultsYAML, "defaults.yaml")
}

// LoadFile merges the definitions in a YAML file.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading definitions %s: %w", path, err)
	}
	return r.Load(raw, path)
}

// Load merges definitions from raw YAML. Entries without an id are skipped with a warning;
// an id that is already present is replaced.
func (r *Registry) Load(raw []byte, source string) error {
	var defs Definitions
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("parsing definitions %s: %w", source, err)
	}

	for _, c := range defs.Components {
		r.RegisterComponent(c)
	}
	for _, m := range defs.Modifiers {
		r.RegisterModifier(m)
	}
	for _, vc := range defs.VehicleClasses {
		r.RegisterVehicleClass(vc)
	}

	slog.Info("loaded definitions",
		"source", source,
		"components", len(defs.Components),
		"modifiers", len(defs.Modifiers),
		"vehicle_classes", len(defs.VehicleClasses))
	return nil
}

// RegisterComponent adds or replaces a component definition.
func (r *Registry) RegisterComponent(def *ComponentDef) {
	if def == nil || def.ID == "" {
		slog.Warn("skipping component definition without id")
		return
	}
	if _, dup := r.components[def.ID]; dup {
		slog.Warn("replacing component definition", "id", def.ID)
	}
	r.components[def.ID] = def
}

// RegisterModifier adds or replaces a modifier definition.
func (r *Registry) RegisterModifier(def *ModifierDef) {
	if def == nil || def.ID == "" {
		slog.Warn("skipping modifier definition without id")
		return
	}
	if def.MinVal > def.MaxVal {
		slog.Warn("modifier has inverted bounds, swapping", "id", def.ID, "min", def.MinVal, "max", def.MaxVal)
		def.MinVal, def.MaxVal = def.MaxVal, def.MinVal
	}
	if _, dup := r.modifiers[def.ID]; dup {
		slog.Warn("replacing modifier definition", "id", def.ID)
	}
	r.modifiers[def.ID] = def
}

// RegisterVehicleClass adds or replaces a vehicle class.
func (r *Registry) RegisterVehicleClass(def *VehicleClass) {
	if def == nil || def.ID == "" {
		slog.Warn("skipping vehicle class without id")
		return
	}
	if _, dup := r.classes[def.ID]; dup {
		slog.Warn("replacing vehicle class", "id", def.ID)
	}
	r.classes[def.ID] = def
}

// Component returns the component definition or nil.
func (r *Registry) Component(id string) *ComponentDef { return r.components[id] }

// Modifier returns the modifier definition or nil.
func (r *Registry) Modifier(id string) *ModifierDef { return r.modifiers[id] }

// VehicleClass returns the vehicle class or nil.
func (r *Registry) VehicleClass(id string) *VehicleClass { return r.classes[id] }

// ComponentIDs returns all component ids, sorted.
func (r *Registry) ComponentIDs() []string { return sortedKeys(r.components) }

// ModifierIDs returns all modifier ids, sorted.
func (r *Registry) ModifierIDs() []string { return sortedKeys(r.modifiers) }

// VehicleClassIDs returns all vehicle class ids, sorted.
func (r *Registry) VehicleClassIDs() []string { return sortedKeys(r.classes) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
