// Package stats derives ship-level values (mass, speed, defense, crew, derelict state)
// from the ship's operational components.
package stats

import (
	"log/slog"
	"math"
	"slices"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/model"
)

// crewLayerOrder is the crew allocation priority after command components.
var crewLayerOrder = []data.LayerType{
	data.LayerCore,
	data.LayerInner,
	data.LayerOuter,
	data.LayerArmor,
	data.LayerHull,
}

// Calculator recomputes derived ship stats. It holds no per-ship state.
type Calculator struct {
	phys config.Physics
}

// NewCalculator creates a calculator with the given physics constants.
func NewCalculator(phys config.Physics) *Calculator {
	return &Calculator{phys: phys}
}

// Recalculate refreshes every component, allocates crew, aggregates stats and
// re-evaluates class requirements.
func (c *Calculator) Recalculate(s *model.Ship) {
	comps := s.Components()
	for _, comp := range comps {
		comp.RecalculateStats()
		if comp.Status() == model.StatusNoCrew {
			comp.SetStatus(model.StatusActive)
		}
	}

	c.allocateCrew(s, comps)
	c.aggregate(s, comps)

	s.Resources.Update(comps)

	statuses := model.EvaluateRequirements(s)
	s.MissingRequirements = model.Unmet(statuses)
	wasDerelict := s.IsDerelict
	s.IsDerelict = len(s.MissingRequirements) > 0
	if s.IsDerelict != wasDerelict {
		slog.Debug("ship derelict state changed", "ship", s.Name, "derelict", s.IsDerelict, "missing", s.MissingRequirements)
	}
}

// allocateCrew satisfies crew demand in priority order from the smaller of quarters and
// life support. Capacity providers are counted before allocation, so a component that
// itself needs crew still houses or supports crew for others.
func (c *Calculator) allocateCrew(s *model.Ship, comps []*model.Component) {
	var capacity, lifeSupport float64
	for _, comp := range comps {
		if !comp.IsOperational() {
			continue
		}
		capacity += comp.AbilityTotal(model.CrewCapacityName)
		lifeSupport += comp.AbilityTotal(model.LifeSupportCapacityName)
	}
	available := math.Min(capacity, lifeSupport)

	s.CrewCapacity = capacity
	s.LifeSupport = lifeSupport
	s.CrewAvailable = available
	s.CrewRequired = 0

	for _, comp := range crewPriority(comps) {
		need := comp.AbilityTotal(model.CrewRequiredName)
		if need <= 0 || !comp.IsOperational() {
			continue
		}
		s.CrewRequired += need
		if need <= available+1e-9 {
			available -= need
			continue
		}
		comp.SetStatus(model.StatusNoCrew)
		slog.Debug("component unmanned", "ship", s.Name, "component", comp.Label(), "need", need, "left", available)
	}
}

// crewPriority orders components: command first, then by layer, then placement order.
func crewPriority(comps []*model.Component) []*model.Component {
	rank := func(comp *model.Component) int {
		idx := slices.Index(crewLayerOrder, comp.Layer())
		if idx < 0 {
			idx = len(crewLayerOrder)
		}
		if comp.HasAbility(model.CommandAndControlName) {
			return idx
		}
		return len(crewLayerOrder) + 1 + idx
	}
	out := slices.Clone(comps)
	// stable keeps placement order within a rank
	slices.SortStableFunc(out, func(a, b *model.Component) int { return rank(a) - rank(b) })
	return out
}

func (c *Calculator) aggregate(s *model.Ship, comps []*model.Component) {
	st := model.Stats{
		CrewCapacity:  s.CrewCapacity,
		LifeSupport:   s.LifeSupport,
		CrewAvailable: s.CrewAvailable,
		CrewRequired:  s.CrewRequired,
	}

	st.Mass = s.Class.HullMass
	var regenCostWeighted float64
	for _, comp := range comps {
		st.Mass += comp.Mass()
		st.MaxHP += comp.MaxHP()
		st.HP += comp.CurrentHP()
		if !comp.IsOperational() {
			continue
		}
		st.TotalThrust += comp.AbilityTotal(model.CombatPropulsionName)
		st.TotalTurnRate += comp.AbilityTotal(model.ManeuveringThrusterName)
		st.MaxShields += comp.AbilityTotal(model.ShieldProjectionName)
		st.ECMScore += comp.AbilityTotal(model.ToHitDefenseName)
		st.AttackBonus += comp.AbilityTotal(model.ToHitAttackName)
		st.EmissiveArmor = math.Max(st.EmissiveArmor, comp.AbilityTotal(model.EmissiveArmorName))
		for _, a := range comp.Abilities(model.ShieldRegenerationName) {
			r := a.(*model.ShieldRegeneration)
			st.ShieldRegen += r.Rate()
			regenCostWeighted += r.Rate() * r.EnergyCost
		}
	}
	if st.ShieldRegen > 0 {
		st.ShieldRegenCost = regenCostWeighted / st.ShieldRegen
	}

	c.applyPhysics(&st)

	s.Stats = st
	s.CurrentShields = math.Min(s.CurrentShields, st.MaxShields)
}

func (c *Calculator) applyPhysics(st *model.Stats) {
	p := c.phys
	if st.Mass > 0 {
		st.MaxSpeed = st.TotalThrust * p.KSpeed / st.Mass
		st.AccelerationRate = st.TotalThrust * p.KThrust / (st.Mass * st.Mass)
		st.TurnSpeed = st.TotalTurnRate * p.KTurn / math.Pow(st.Mass, 1.5)
		st.Radius = p.BaseRadius * math.Cbrt(st.Mass/p.ReferenceMass)
	}
	st.SizeScore = SizeScore(2*st.Radius, p.ReferenceDiameter)
	st.ManeuverScore = ManeuverScore(st.AccelerationRate, st.TurnSpeed)
	st.DefenseScore = st.SizeScore + st.ManeuverScore + st.ECMScore
}

// SizeScore is the to-hit modifier from a ship's diameter: larger ships are easier to hit.
func SizeScore(diameter, referenceDiameter float64) float64 {
	return -2.5 * math.Log10(math.Max(0.1, diameter/referenceDiameter))
}

// ManeuverScore is the to-hit modifier from agility.
func ManeuverScore(acceleration, turnSpeed float64) float64 {
	return math.Sqrt(math.Max(0, acceleration/20+turnSpeed/360))
}
