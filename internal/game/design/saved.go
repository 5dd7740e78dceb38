package design

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/game/stats"
	"github.com/udisondev/shipyard/internal/model"
)

// ErrUnknownClass is returned when a saved design names a vehicle class the registry lacks.
var ErrUnknownClass = errors.New("unknown vehicle class")

// SavedDesign is the persisted form of a ship design.
type SavedDesign struct {
	Name          string                              `yaml:"name"`
	Class         string                              `yaml:"class"`
	Theme         string                              `yaml:"theme,omitempty"`
	Layers        map[data.LayerType][]SavedComponent `yaml:"layers"`
	ExpectedStats *ExpectedStats                      `yaml:"expected_stats,omitempty"`
}

// SavedComponent is one placement in a saved design.
type SavedComponent struct {
	ComponentID string          `yaml:"component_id"`
	Modifiers   []SavedModifier `yaml:"modifiers,omitempty"`
}

// SavedModifier is a modifier id and value.
type SavedModifier struct {
	ID    string  `yaml:"id"`
	Value float64 `yaml:"value"`
}

// ExpectedStats is an optional regression oracle checked when a design is built. Missing
// fields are not compared.
type ExpectedStats struct {
	Mass     *float64 `yaml:"mass,omitempty"`
	HP       *float64 `yaml:"hp,omitempty"`
	Speed    *float64 `yaml:"speed,omitempty"`
	Thrust   *float64 `yaml:"thrust,omitempty"`
	TurnRate *float64 `yaml:"turn_rate,omitempty"`
}

// ParseSavedDesign decodes a YAML design.
func ParseSavedDesign(raw []byte) (*SavedDesign, error) {
	var d SavedDesign
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing design: %w", err)
	}
	if d.Class == "" {
		return nil, fmt.Errorf("parsing design %q: class is required", d.Name)
	}
	return &d, nil
}

// LoadSavedDesign reads a YAML design file.
func LoadSavedDesign(path string) (*SavedDesign, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading design %s: %w", path, err)
	}
	d, err := ParseSavedDesign(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Marshal encodes the design as YAML.
func (d *SavedDesign) Marshal() ([]byte, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshaling design %q: %w", d.Name, err)
	}
	return raw, nil
}

// ComponentCount returns the number of placements.
func (d *SavedDesign) ComponentCount() int {
	n := 0
	for _, comps := range d.Layers {
		n += len(comps)
	}
	return n
}

// Fingerprint is a stable content hash of the class and placements. Name, theme and the
// expected stats do not contribute; modifier order does not matter.
func (d *SavedDesign) Fingerprint() string {
	var sb strings.Builder
	sb.WriteString(d.Class)

	layers := make([]string, 0, len(d.Layers))
	for lt := range d.Layers {
		layers = append(layers, string(lt))
	}
	slices.Sort(layers)

	for _, lt := range layers {
		fmt.Fprintf(&sb, "|%s", lt)
		for _, sc := range d.Layers[data.LayerType(lt)] {
			mods := slices.Clone(sc.Modifiers)
			slices.SortFunc(mods, func(a, b SavedModifier) int { return strings.Compare(a.ID, b.ID) })
			fmt.Fprintf(&sb, ";%s", sc.ComponentID)
			for _, m := range mods {
				fmt.Fprintf(&sb, ",%s=%g", m.ID, m.Value)
			}
		}
	}

	sum := blake2b.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// FromShip captures a ship as a saved design, modifiers included.
func FromShip(s *model.Ship) *SavedDesign {
	d := &SavedDesign{
		Name:   s.Name,
		Class:  s.Class.ID,
		Layers: make(map[data.LayerType][]SavedComponent, len(s.Layers())),
	}
	for _, l := range s.Layers() {
		for _, c := range l.Components() {
			sc := SavedComponent{ComponentID: c.ID()}
			for _, m := range c.Modifiers() {
				sc.Modifiers = append(sc.Modifiers, SavedModifier{ID: m.ID(), Value: m.Value})
			}
			d.Layers[l.Type] = append(d.Layers[l.Type], sc)
		}
	}
	return d
}

// Build constructs a ship from a saved design. Unknown component and modifier ids, and
// placements the validator rejects, are skipped with a warning. The built ship is
// recalculated and checked with ValidateDesign; expected stats outside tolerance (relative)
// are reported as warnings. Only an unknown class is an error.
func Build(reg *data.Registry, d *SavedDesign, calc *stats.Calculator, tolerance float64) (*model.Ship, Result, error) {
	class := reg.VehicleClass(d.Class)
	if class == nil {
		return nil, Result{}, fmt.Errorf("building design %q: %w: %s", d.Name, ErrUnknownClass, d.Class)
	}

	s := model.NewShip(d.Name, class)
	res := newResult()

	// placements follow class layer order so builds are reproducible
	for _, ld := range class.Layers {
		for _, sc := range d.Layers[ld.Type] {
			placeSaved(reg, s, ld.Type, sc, &res)
		}
	}
	for lt, comps := range d.Layers {
		if class.Layer(lt) == nil && len(comps) > 0 {
			res.warn("class %s has no %s layer, %d component(s) skipped", class.ID, lt, len(comps))
		}
	}

	calc.Recalculate(s)
	res.Merge(ValidateDesign(s))
	if d.ExpectedStats != nil {
		compareExpected(s, d.ExpectedStats, tolerance, &res)
	}

	for _, w := range res.Warnings {
		slog.Warn("design warning", "design", d.Name, "warning", w)
	}
	return s, res, nil
}

func placeSaved(reg *data.Registry, s *model.Ship, layer data.LayerType, sc SavedComponent, res *Result) {
	def := reg.Component(sc.ComponentID)
	if def == nil {
		res.warn("unknown component %q in %s skipped", sc.ComponentID, layer)
		return
	}
	c := model.NewComponent(def, reg)
	for _, sm := range sc.Modifiers {
		md := reg.Modifier(sm.ID)
		if md == nil {
			res.warn("unknown modifier %q on %s skipped", sm.ID, def.ID)
			continue
		}
		if err := c.AddModifier(md, sm.Value); err != nil {
			res.warn("modifier %s on %s: %v", sm.ID, def.ID, err)
		}
	}

	check := ValidateAddition(s, c, layer)
	res.Warnings = append(res.Warnings, check.Warnings...)
	if !check.Valid {
		res.warn("%s in %s skipped: %s", def.ID, layer, strings.Join(check.Errors, "; "))
		return
	}
	s.AddComponent(c, layer)
}

func compareExpected(s *model.Ship, exp *ExpectedStats, tolerance float64, res *Result) {
	check := func(name string, want *float64, got float64) {
		if want == nil {
			return
		}
		if !withinTolerance(*want, got, tolerance) {
			res.warn("expected %s %.4f, got %.4f", name, *want, got)
		}
	}
	check("mass", exp.Mass, s.Mass)
	check("hp", exp.HP, s.MaxHP)
	check("speed", exp.Speed, s.MaxSpeed)
	check("thrust", exp.Thrust, s.TotalThrust)
	check("turn_rate", exp.TurnRate, s.TurnSpeed)
}

func withinTolerance(want, got, tolerance float64) bool {
	diff := math.Abs(want - got)
	if want == 0 {
		return diff <= tolerance
	}
	return diff/math.Abs(want) <= tolerance
}
