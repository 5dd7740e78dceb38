package model

import (
	"log/slog"
	"math"

	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/formula"
)

// VarRangeToTarget is the formula variable bound to the shooter/target distance when a
// weapon's damage is evaluated.
const VarRangeToTarget = "range_to_target"

// WeaponKind selects how a weapon delivers damage.
type WeaponKind uint8

const (
	WeaponBeam WeaponKind = iota
	WeaponProjectile
	WeaponSeeker
)

func (k WeaponKind) String() string {
	switch k {
	case WeaponBeam:
		return "beam"
	case WeaponProjectile:
		return "projectile"
	case WeaponSeeker:
		return "seeker"
	default:
		return "unknown"
	}
}

// WeaponAbility is a weapon mount. Beam weapons resolve instantly, projectile and seeker
// weapons spawn flight entities.
//
// Derived fields are recomputed by Component.RecalculateStats; Cooldown is runtime state
// and survives recalculation.
type WeaponAbility struct {
	name string
	Kind WeaponKind

	damage, rng, reload                 data.Value
	accuracy, falloff                   data.Value
	speed, endurance, turnRate, hp, arc data.Value
	hasArc                              bool
	vars                                formula.Vars
	owner                               string
	damageMult                          float64

	Damage          float64 // at range 0, modifiers applied
	Range           float64
	Reload          float64 // seconds
	Accuracy        float64 // base sigmoid score for beams
	AccuracyFalloff float64 // score lost per distance unit
	ProjectileSpeed float64
	Endurance       float64 // seeker flight time, seconds
	TurnRate        float64 // seeker homing, degrees per second
	ProjectileHP    float64
	FiringArc       float64 // total arc width, degrees
	Facing          float64 // arc center relative to ship heading, degrees

	Cooldown float64
}

func newWeapon(name string, kind WeaponKind, p data.Params) *WeaponAbility {
	w := &WeaponAbility{
		name:      name,
		Kind:      kind,
		damage:    p.ValueOr("damage", 0),
		rng:       p.ValueOr("range", 0),
		reload:    p.ValueOr("reload", 1),
		accuracy:  p.ValueOr("accuracy", 0),
		falloff:   p.ValueOr("accuracy_falloff", 0),
		speed:     p.ValueOr("projectile_speed", 0),
		endurance: p.ValueOr("endurance", 0),
		turnRate:  p.ValueOr("turn_rate", 0),
		hp:        p.ValueOr("hp", 1),
	}
	w.arc, w.hasArc = p.Value("firing_arc")
	return w
}

func (w *WeaponAbility) Name() string { return w.name }

func (w *WeaponAbility) Is(name string) bool {
	return name == w.name || name == WeaponAbilityName
}

func (w *WeaponAbility) Magnitude() float64   { return w.Damage }
func (w *WeaponAbility) Combine() CombineRule { return CombineSum }

func (w *WeaponAbility) clone() Ability {
	c := *w
	c.vars = cloneVars(w.vars)
	return &c
}

func (w *WeaponAbility) recalculate(r resolver, fx Effects) {
	w.vars = cloneVars(r.vars)
	w.owner = r.owner
	w.damageMult = fx.Magnitude * fx.Damage

	zero := cloneVars(r.vars)
	zero[VarRangeToTarget] = 0
	w.Damage = resolver{vars: zero, owner: r.owner}.resolve(w.damage, w.name+".damage") * w.damageMult

	w.Range = r.resolve(w.rng, w.name+".range") * fx.Range
	w.Reload = r.resolve(w.reload, w.name+".reload")
	w.Accuracy = r.resolve(w.accuracy, w.name+".accuracy") + fx.Accuracy
	w.AccuracyFalloff = r.resolve(w.falloff, w.name+".accuracy_falloff")
	w.ProjectileSpeed = r.resolve(w.speed, w.name+".projectile_speed")
	w.Endurance = r.resolve(w.endurance, w.name+".endurance") * fx.Endurance
	w.TurnRate = r.resolve(w.turnRate, w.name+".turn_rate")
	w.ProjectileHP = r.resolve(w.hp, w.name+".hp")

	switch {
	case fx.Arc != nil:
		w.FiringArc = *fx.Arc
	case w.hasArc:
		w.FiringArc = r.resolve(w.arc, w.name+".firing_arc")
	case r.rootArc > 0:
		w.FiringArc = r.rootArc
	default:
		w.FiringArc = 360
	}
	w.Facing = 0
	if fx.Facing != nil {
		w.Facing = *fx.Facing
	}
}

// DamageAt returns the damage dealt at a distance. Damage formulas may reference
// range_to_target; everything else is constant over distance.
func (w *WeaponAbility) DamageAt(distance float64) float64 {
	if !w.damage.References(VarRangeToTarget) {
		return w.Damage
	}
	vars := cloneVars(w.vars)
	vars[VarRangeToTarget] = distance
	v, err := w.damage.Resolve(vars)
	if err != nil {
		slog.Warn("weapon damage evaluation failed", "component", w.owner, "distance", distance, "err", err)
		return 0
	}
	return math.Max(0, v*w.damageMult)
}

// Ready reports whether the weapon can fire.
func (w *WeaponAbility) Ready() bool { return w.Cooldown <= 0 }

// StartCooldown arms the reload timer after a shot.
func (w *WeaponAbility) StartCooldown() { w.Cooldown = w.Reload }

// Tick advances the reload timer.
func (w *WeaponAbility) Tick(dt float64) {
	if w.Cooldown > 0 {
		w.Cooldown = math.Max(0, w.Cooldown-dt)
	}
}

// InArc reports whether a world bearing (degrees) lies inside the arc for a ship heading.
func (w *WeaponAbility) InArc(heading, bearing float64) bool {
	if w.FiringArc >= 360 {
		return true
	}
	center := heading + w.Facing
	return math.Abs(AngleDiff(bearing, center)) <= w.FiringArc/2+1e-9
}

// AngleDiff returns a-b normalized into (-180, 180].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

func cloneVars(v formula.Vars) formula.Vars {
	out := make(formula.Vars, len(v)+1)
	for k, x := range v {
		out[k] = x
	}
	return out
}
