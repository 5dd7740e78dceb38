package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/formula"
)

// VarShipClassMass is bound to the owning ship's class max mass when component formulas
// are evaluated; 0 while the component is not placed.
const VarShipClassMass = "ship_class_mass"

var (
	ErrUnknownModifier    = errors.New("unknown modifier")
	ErrModifierNotAllowed = errors.New("modifier not allowed on component")
	ErrMandatoryModifier  = errors.New("mandatory modifier cannot be removed")
)

// Status is the operational state of a component.
type Status uint8

const (
	StatusActive Status = iota
	StatusInactive
	StatusNoCrew
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusNoCrew:
		return "no_crew"
	default:
		return "unknown"
	}
}

// ModifierLookup resolves modifier definitions by id. *data.Registry implements it.
type ModifierLookup interface {
	Modifier(id string) *data.ModifierDef
}

// Component is a placed instance of a ComponentDef with its own modifiers, abilities and
// HP. It is owned by at most one ship; the ship back-reference is set by Ship.AddComponent.
type Component struct {
	def       *data.ComponentDef
	modifiers []*Modifier
	abilities []Ability
	effects   Effects

	mass      float64
	maxHP     float64
	currentHP float64
	hpReady   bool

	status          Status
	damageDisabled  bool
	ship            *Ship
	layer           data.LayerType
	placement       int
	intrinsicArc    float64
	hasIntrinsicArc bool
}

// NewComponent instantiates a definition. Unknown ability names are skipped with a
// warning. Mandatory modifiers are attached from mods; missing ones are skipped with a
// warning. The component starts active at full HP.
func NewComponent(def *data.ComponentDef, mods ModifierLookup) *Component {
	c := &Component{def: def, placement: -1}
	c.intrinsicArc, c.hasIntrinsicArc = intrinsicArc(def)

	for _, block := range def.Abilities {
		a := NewAbility(block.Name, block.Params)
		if a == nil {
			slog.Warn("unknown ability, skipping", "component", def.ID, "ability", block.Name)
			continue
		}
		c.abilities = append(c.abilities, a)
	}

	for _, id := range MandatoryModifierIDs(c) {
		md := mods.Modifier(id)
		if md == nil {
			slog.Warn("mandatory modifier not defined", "component", def.ID, "modifier", id)
			continue
		}
		c.modifiers = append(c.modifiers, &Modifier{Def: md, Value: c.defaultValue(md), mandatory: true})
	}

	c.RecalculateStats()
	return c
}

func (c *Component) defaultValue(md *data.ModifierDef) float64 {
	switch md.Kind {
	case data.ModKindSize:
		return c.clampModifier(md, 1)
	case data.ModKindTurret:
		if c.hasIntrinsicArc {
			return c.clampModifier(md, c.intrinsicArc)
		}
		return md.MinVal
	default:
		return c.clampModifier(md, md.DefaultVal)
	}
}

// ModifierBounds returns the value range a modifier accepts on this component. The
// turret minimum is raised to the component's intrinsic arc.
func (c *Component) ModifierBounds(md *data.ModifierDef) (lo, hi float64) {
	lo, hi = md.MinVal, md.MaxVal
	if md.Kind == data.ModKindTurret && c.hasIntrinsicArc {
		lo = math.Max(lo, c.intrinsicArc)
		hi = math.Max(hi, lo)
	}
	return lo, hi
}

func (c *Component) clampModifier(md *data.ModifierDef, v float64) float64 {
	lo, hi := c.ModifierBounds(md)
	return math.Min(math.Max(v, lo), hi)
}

func (c *Component) Def() *data.ComponentDef { return c.def }
func (c *Component) ID() string              { return c.def.ID }
func (c *Component) Name() string            { return c.def.Name }
func (c *Component) Type() string            { return c.def.Type }
func (c *Component) Mass() float64           { return c.mass }
func (c *Component) MaxHP() float64          { return c.maxHP }
func (c *Component) CurrentHP() float64      { return c.currentHP }
func (c *Component) Status() Status          { return c.status }
func (c *Component) Ship() *Ship             { return c.ship }
func (c *Component) Layer() data.LayerType   { return c.layer }
func (c *Component) Effects() Effects        { return c.effects }

// Label identifies a placed component in logs, e.g. "laser#3".
func (c *Component) Label() string {
	if c.placement < 0 {
		return c.def.ID
	}
	return fmt.Sprintf("%s#%d", c.def.ID, c.placement)
}

// IsDestroyed reports whether HP is depleted.
func (c *Component) IsDestroyed() bool { return c.currentHP <= 0 }

// IsOperational reports whether the component contributes to ship stats.
func (c *Component) IsOperational() bool {
	return c.status == StatusActive && c.currentHP > 0
}

// SetActive toggles the component. A destroyed component stays inactive until repaired.
func (c *Component) SetActive(active bool) {
	switch {
	case !active:
		c.status = StatusInactive
	case c.IsDestroyed():
		c.status = StatusInactive
	default:
		c.status = StatusActive
		c.damageDisabled = false
	}
}

// SetStatus is used by the crew allocation pass.
func (c *Component) SetStatus(s Status) { c.status = s }

// Abilities returns every ability answering to name, in declaration order.
func (c *Component) Abilities(name string) []Ability {
	var out []Ability
	for _, a := range c.abilities {
		if a.Is(name) {
			out = append(out, a)
		}
	}
	return out
}

// Ability returns the first ability answering to name, or nil.
func (c *Component) Ability(name string) Ability {
	for _, a := range c.abilities {
		if a.Is(name) {
			return a
		}
	}
	return nil
}

// HasAbility reports whether any ability answers to name.
func (c *Component) HasAbility(name string) bool { return c.Ability(name) != nil }

// AllAbilities returns every ability in declaration order.
func (c *Component) AllAbilities() []Ability { return slices.Clone(c.abilities) }

// AbilityTotal aggregates all abilities answering to name.
func (c *Component) AbilityTotal(name string) float64 { return Total(c.Abilities(name)) }

// Weapons returns the weapon abilities.
func (c *Component) Weapons() []*WeaponAbility {
	var out []*WeaponAbility
	for _, a := range c.abilities {
		if w, ok := a.(*WeaponAbility); ok {
			out = append(out, w)
		}
	}
	return out
}

// Modifiers returns the attached modifiers in attach order.
func (c *Component) Modifiers() []*Modifier { return slices.Clone(c.modifiers) }

// Modifier returns the attached modifier with id, or nil.
func (c *Component) Modifier(id string) *Modifier {
	for _, m := range c.modifiers {
		if m.Def.ID == id {
			return m
		}
	}
	return nil
}

// AddModifier attaches a modifier with a value, or updates the value if it is already
// attached. The value is clamped to ModifierBounds.
func (c *Component) AddModifier(md *data.ModifierDef, value float64) error {
	if md == nil {
		return ErrUnknownModifier
	}
	if m := c.Modifier(md.ID); m != nil {
		m.Value = c.clampModifier(md, value)
		c.RecalculateStats()
		return nil
	}
	if !md.Allows(c.def.Type, c.HasAbility) {
		return fmt.Errorf("%w: %s on %s", ErrModifierNotAllowed, md.ID, c.def.ID)
	}
	c.modifiers = append(c.modifiers, &Modifier{Def: md, Value: c.clampModifier(md, value)})
	c.RecalculateStats()
	return nil
}

// SetModifierValue changes the value of an attached modifier.
func (c *Component) SetModifierValue(id string, value float64) error {
	m := c.Modifier(id)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrUnknownModifier, id)
	}
	m.Value = c.clampModifier(m.Def, value)
	c.RecalculateStats()
	return nil
}

// RemoveModifier detaches a modifier. Mandatory modifiers cannot be removed.
func (c *Component) RemoveModifier(id string) error {
	idx := slices.IndexFunc(c.modifiers, func(m *Modifier) bool { return m.Def.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownModifier, id)
	}
	if c.modifiers[idx].mandatory {
		return fmt.Errorf("%w: %s", ErrMandatoryModifier, id)
	}
	c.modifiers = slices.Delete(c.modifiers, idx, idx+1)
	c.RecalculateStats()
	return nil
}

// FormulaVars returns the variables component formulas are evaluated with.
func (c *Component) FormulaVars() formula.Vars {
	vars := formula.Vars{VarShipClassMass: 0}
	if c.ship != nil && c.ship.Class != nil {
		vars[VarShipClassMass] = c.ship.Class.MaxMass
	}
	return vars
}

// RecalculateStats recomputes mass, max HP and ability values from the definition
// and modifiers. Current HP keeps its fraction of max HP; the first computation
// fills it.
func (c *Component) RecalculateStats() {
	r := resolver{vars: c.FormulaVars(), owner: c.def.ID}
	if c.def.FiringArc != nil {
		r.rootArc = *c.def.FiringArc
	}

	c.effects = combineEffects(c.modifiers, c.intrinsicArc)

	c.mass = math.Max(0, r.resolve(c.def.Mass, "mass")*c.effects.Mass)
	newMax := math.Max(0, r.resolve(c.def.HP, "hp")*c.effects.HP)

	for _, a := range c.abilities {
		a.recalculate(r, c.effects)
	}

	switch {
	case !c.hpReady:
		c.currentHP = newMax
		c.hpReady = true
	case c.maxHP > 0:
		c.currentHP = c.currentHP / c.maxHP * newMax
	case c.damageDisabled:
		c.currentHP = 0
	default:
		// max was 0 (e.g. unplaced formula component); treat as fresh
		c.currentHP = newMax
	}
	c.maxHP = newMax
	c.currentHP = math.Min(math.Max(c.currentHP, 0), c.maxHP)
}

// TakeDamage applies up to amount damage and returns what was absorbed. A component
// reduced to 0 HP is deactivated.
func (c *Component) TakeDamage(amount float64) (absorbed float64) {
	if amount <= 0 || c.currentHP <= 0 {
		return 0
	}
	absorbed = math.Min(amount, c.currentHP)
	c.currentHP -= absorbed
	if c.currentHP <= 1e-9 {
		c.currentHP = 0
		c.status = StatusInactive
		c.damageDisabled = true
	}
	return absorbed
}

// Repair restores HP. A component disabled by damage comes back online.
func (c *Component) Repair(amount float64) {
	if amount <= 0 {
		return
	}
	c.currentHP = math.Min(c.maxHP, c.currentHP+amount)
	if c.damageDisabled && c.currentHP > 0 {
		c.status = StatusActive
		c.damageDisabled = false
	}
}

// Clone returns an independent copy: modifiers and abilities are duplicated, the
// copy is unplaced and weapon cooldowns are kept.
func (c *Component) Clone() *Component {
	cp := *c
	cp.ship = nil
	cp.layer = ""
	cp.placement = -1

	cp.modifiers = make([]*Modifier, len(c.modifiers))
	for i, m := range c.modifiers {
		mm := *m
		cp.modifiers[i] = &mm
	}
	cp.abilities = make([]Ability, len(c.abilities))
	for i, a := range c.abilities {
		cp.abilities[i] = a.clone()
	}
	return &cp
}

// MassOn previews the component's mass as if it were placed on s, without placing it.
func (c *Component) MassOn(s *Ship) float64 {
	if c.ship == s {
		return c.mass
	}
	cp := c.Clone()
	cp.ship = s
	cp.RecalculateStats()
	return cp.mass
}

func (c *Component) String() string {
	return fmt.Sprintf("%s mass=%.2f hp=%.2f/%.2f %s", c.Label(), c.mass, c.currentHP, c.maxHP, c.status)
}
