package model

import (
	"log/slog"
	"math"
	"slices"

	"github.com/udisondev/shipyard/internal/data"
)

// Effects is the combined effect of every modifier on a component. Multipliers start
// at 1, Accuracy at 0; Arc and Facing are overrides and nil when unset.
type Effects struct {
	Mass      float64
	HP        float64
	Magnitude float64 // scaling of ability magnitudes (size)
	Damage    float64
	Range     float64
	Endurance float64
	Crew      float64
	Accuracy  float64
	Arc       *float64
	Facing    *float64
}

// NeutralEffects is the effect of no modifiers.
func NeutralEffects() Effects {
	return Effects{Mass: 1, HP: 1, Magnitude: 1, Damage: 1, Range: 1, Endurance: 1, Crew: 1}
}

// Modifier is a modifier definition applied to one component with a value.
type Modifier struct {
	Def       *data.ModifierDef
	Value     float64
	mandatory bool
}

// ID returns the definition id.
func (m *Modifier) ID() string { return m.Def.ID }

// Mandatory reports whether the modifier was attached automatically and cannot be removed.
func (m *Modifier) Mandatory() bool { return m.mandatory }

type stat uint8

const (
	statMass stat = iota
	statHP
	statMagnitude
	statDamage
	statRange
	statEndurance
	statCrew
	statCount
)

// effect is the contribution of a single modifier. Only stats it touches are set.
type effect struct {
	mult     [statCount]float64
	set      [statCount]bool
	accuracy float64
	arc      *float64
	facing   *float64
}

func (e *effect) multiply(s stat, v float64) {
	if !e.set[s] {
		e.mult[s] = 1
		e.set[s] = true
	}
	e.mult[s] *= v
}

// effect computes what this modifier does at its current value. intrinsicArc is the
// component's own firing arc, used to price turret widening.
func (m *Modifier) effect(intrinsicArc float64) effect {
	var e effect
	v := m.Value
	def := m.Def

	switch def.Kind {
	case data.ModKindSize:
		e.multiply(statMass, v)
		e.multiply(statHP, v)
		e.multiply(statMagnitude, v)
	case data.ModKindRange:
		e.multiply(statHP, math.Pow(def.Param("hp_base", 3.5), v))
		e.multiply(statRange, 1+def.Param("range_per_level", 1)*v)
	case data.ModKindTurret:
		// 0 leaves the weapon's own arc in place
		if v > 0 {
			arc := v
			e.arc = &arc
		}
		e.multiply(statMass, 1+math.Max(0, v-intrinsicArc)/360*def.Param("mass_per_arc", 1))
	case data.ModKindFacing:
		facing := v
		e.facing = &facing
	case data.ModKindPrecision:
		e.accuracy = v * def.Param("accuracy_per_level", 0.5)
		e.multiply(statMass, 1+v*def.Param("mass_per_level", 0.1))
	case data.ModKindAutomation:
		e.multiply(statCrew, math.Max(0, 1-v))
		e.multiply(statMass, 1+v*def.Param("mass_factor", 0.5))
	case data.ModKindSeekerEndurance:
		e.multiply(statEndurance, v)
		e.multiply(statMass, 1+(v-1)*def.Param("mass_factor", 0.25))
	case data.ModKindSeekerWarhead:
		e.multiply(statDamage, v)
		e.multiply(statMass, 1+(v-1)*def.Param("mass_factor", 0.25))
	case data.ModKindMassMult:
		e.multiply(statMass, v)
	case data.ModKindHPMult:
		e.multiply(statHP, v)
	case data.ModKindDamageMult:
		e.multiply(statDamage, v)
	case data.ModKindRangeMult:
		e.multiply(statRange, v)
	default:
		slog.Warn("modifier kind has no effect", "modifier", def.ID, "kind", def.Kind)
	}
	return e
}

// combineEffects folds modifier effects. Modifiers sharing a stack group keep the
// largest multiplier per stat; groups (and ungrouped modifiers) multiply together.
// Groups are folded in sorted key order so results do not depend on attach order.
func combineEffects(mods []*Modifier, intrinsicArc float64) Effects {
	groups := make(map[string]*effect, len(mods))
	keys := make([]string, 0, len(mods))

	for _, m := range mods {
		key := "mod:" + m.Def.ID
		if m.Def.StackGroup != "" {
			key = "group:" + m.Def.StackGroup
		}
		e := m.effect(intrinsicArc)

		g, ok := groups[key]
		if !ok {
			groups[key] = &e
			keys = append(keys, key)
			continue
		}
		for s := range statCount {
			if !e.set[s] {
				continue
			}
			if !g.set[s] || e.mult[s] > g.mult[s] {
				g.mult[s] = e.mult[s]
				g.set[s] = true
			}
		}
		g.accuracy = math.Max(g.accuracy, e.accuracy)
		g.arc = maxOverride(g.arc, e.arc)
		g.facing = maxOverride(g.facing, e.facing)
	}

	slices.Sort(keys)
	out := NeutralEffects()
	for _, key := range keys {
		g := groups[key]
		for s := range statCount {
			if g.set[s] {
				out.apply(s, g.mult[s])
			}
		}
		out.Accuracy += g.accuracy
		out.Arc = maxOverride(out.Arc, g.arc)
		out.Facing = maxOverride(out.Facing, g.facing)
	}
	return out
}

func (fx *Effects) apply(s stat, v float64) {
	switch s {
	case statMass:
		fx.Mass *= v
	case statHP:
		fx.HP *= v
	case statMagnitude:
		fx.Magnitude *= v
	case statDamage:
		fx.Damage *= v
	case statRange:
		fx.Range *= v
	case statEndurance:
		fx.Endurance *= v
	case statCrew:
		fx.Crew *= v
	}
}

func maxOverride(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

// MandatoryModifierIDs returns the modifiers a component always carries, in attach order.
func MandatoryModifierIDs(c *Component) []string {
	ids := []string{data.ModSize}
	if c.HasAbility(WeaponAbilityName) {
		ids = append(ids, data.ModRange, data.ModFacing, data.ModTurret)
	}
	if c.HasAbility(BeamWeaponAbilityName) {
		ids = append(ids, data.ModPrecision)
	}
	if c.HasAbility(SeekerWeaponAbilityName) {
		ids = append(ids, data.ModSeekerEndurance, data.ModSeekerWarhead)
	}
	if c.HasAbility(CrewRequiredName) {
		ids = append(ids, data.ModAutomation)
	}
	return ids
}

var weaponBlockOrder = []string{
	BeamWeaponAbilityName,
	ProjectileWeaponAbilityName,
	SeekerWeaponAbilityName,
	WeaponAbilityName,
}

// intrinsicArc finds the component's own firing arc: the definition's root firing_arc,
// then the first weapon block declaring one. ok is false when neither exists.
func intrinsicArc(def *data.ComponentDef) (arc float64, ok bool) {
	if def.FiringArc != nil {
		return *def.FiringArc, true
	}
	for _, name := range weaponBlockOrder {
		for _, p := range def.AbilityParams(name) {
			if v, has := p.Value("firing_arc"); has && !v.IsFormula() {
				f, err := v.Resolve(nil)
				if err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}
