package model

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/udisondev/shipyard/internal/data"
)

// Layer is a damage-absorption tier of a ship holding components in placement order.
type Layer struct {
	Def        *data.LayerDef
	Type       data.LayerType
	MaxMass    float64
	components []*Component
}

// Components returns the layer's components in placement order.
func (l *Layer) Components() []*Component { return slices.Clone(l.components) }

// Len returns the number of components in the layer.
func (l *Layer) Len() int { return len(l.components) }

// Mass returns the summed component mass.
func (l *Layer) Mass() float64 {
	var m float64
	for _, c := range l.components {
		m += c.mass
	}
	return m
}

// HP returns the summed current HP.
func (l *Layer) HP() float64 {
	var hp float64
	for _, c := range l.components {
		hp += c.currentHP
	}
	return hp
}

// Stats are the derived values the stats calculator writes onto a ship.
type Stats struct {
	Mass             float64
	MaxHP            float64
	HP               float64
	MaxShields       float64
	ShieldRegen      float64
	ShieldRegenCost  float64 // energy per shield point
	TotalThrust      float64
	TotalTurnRate    float64
	MaxSpeed         float64
	AccelerationRate float64
	TurnSpeed        float64 // degrees per second
	Radius           float64
	SizeScore        float64
	ManeuverScore    float64
	ECMScore         float64
	DefenseScore     float64
	AttackBonus      float64
	EmissiveArmor    float64
	CrewCapacity     float64
	LifeSupport      float64
	CrewRequired     float64
	CrewAvailable    float64
}

// Ship is a vehicle instance: a class, layered components and runtime state.
type Ship struct {
	Name      string
	Class     *data.VehicleClass
	Team      int
	Resources *ResourceRegistry

	Stats
	CurrentShields      float64
	IsDerelict          bool
	MissingRequirements []string

	Position r2.Vec
	Velocity r2.Vec
	Heading  float64 // degrees, 0 = +X
	Throttle float64 // 0..1 of max speed

	CurrentTarget *Ship
	Fire          bool

	layers        []*Layer
	nextPlacement int
	destroyed     bool
}

// NewShip builds an empty ship with one layer per class layer, in class order.
func NewShip(name string, class *data.VehicleClass) *Ship {
	s := &Ship{Name: name, Class: class, Resources: NewResourceRegistry()}
	for i := range class.Layers {
		ld := &class.Layers[i]
		s.layers = append(s.layers, &Layer{Def: ld, Type: ld.Type, MaxMass: ld.MaxMassPct * class.MaxMass})
	}
	s.Mass = class.HullMass
	return s
}

// VehicleType returns the class vehicle type.
func (s *Ship) VehicleType() string { return s.Class.Type }

// Layers returns the layers in class order.
func (s *Ship) Layers() []*Layer { return slices.Clone(s.layers) }

// Layer returns the layer of type t, or nil if the class does not have it.
func (s *Ship) Layer(t data.LayerType) *Layer {
	for _, l := range s.layers {
		if l.Type == t {
			return l
		}
	}
	return nil
}

// AddComponent places a component in a layer without validation (see design.ValidateAddition)
// and recalculates it against this ship. It returns false when the layer does not exist or
// the component is already placed elsewhere.
func (s *Ship) AddComponent(c *Component, layer data.LayerType) bool {
	l := s.Layer(layer)
	if l == nil {
		slog.Warn("ship has no such layer", "ship", s.Name, "layer", layer, "component", c.ID())
		return false
	}
	if c.ship != nil {
		slog.Warn("component already placed", "ship", s.Name, "component", c.Label())
		return false
	}
	c.ship = s
	c.layer = layer
	c.placement = s.nextPlacement
	s.nextPlacement++
	l.components = append(l.components, c)
	c.RecalculateStats()
	return true
}

// RemoveComponent takes a component off the ship.
func (s *Ship) RemoveComponent(c *Component) bool {
	l := s.Layer(c.layer)
	if c.ship != s || l == nil {
		return false
	}
	idx := slices.Index(l.components, c)
	if idx < 0 {
		return false
	}
	l.components = slices.Delete(l.components, idx, idx+1)
	c.ship = nil
	c.layer = ""
	c.placement = -1
	c.RecalculateStats()
	return true
}

// Components returns every component, layer by layer in class order.
func (s *Ship) Components() []*Component {
	var out []*Component
	for _, l := range s.layers {
		out = append(out, l.components...)
	}
	return out
}

// ComponentsWith returns the components carrying an ability, in layer order.
func (s *Ship) ComponentsWith(ability string) []*Component {
	var out []*Component
	for _, l := range s.layers {
		for _, c := range l.components {
			if c.HasAbility(ability) {
				out = append(out, c)
			}
		}
	}
	return out
}

// ComponentMass returns the summed mass of placed components, hull excluded.
func (s *Ship) ComponentMass() float64 {
	var m float64
	for _, l := range s.layers {
		m += l.Mass()
	}
	return m
}

// TotalHP returns the summed current HP of all components.
func (s *Ship) TotalHP() float64 {
	var hp float64
	for _, l := range s.layers {
		hp += l.HP()
	}
	return hp
}

// IsAlive reports whether the ship still has component HP. A ship with no components
// is considered alive until it is explicitly destroyed.
func (s *Ship) IsAlive() bool {
	if s.destroyed {
		return false
	}
	if len(s.Components()) == 0 {
		return true
	}
	return s.TotalHP() > 0
}

// Destroy zeroes every component and marks the ship dead.
func (s *Ship) Destroy() {
	for _, c := range s.Components() {
		c.TakeDamage(c.currentHP)
	}
	s.CurrentShields = 0
	s.destroyed = true
}

// OperationalAbilities returns the abilities answering to name across operational components.
func (s *Ship) OperationalAbilities(name string) []Ability {
	var out []Ability
	for _, c := range s.Components() {
		if c.IsOperational() {
			out = append(out, c.Abilities(name)...)
		}
	}
	return out
}
