package design

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/model"
)

// ErrInvalidDesign is wrapped by Result.Err when a result carries errors.
var ErrInvalidDesign = errors.New("invalid design")

// budgetWarnPct is the layer fill ratio above which a placement gets a warning.
const budgetWarnPct = 0.9

const massEpsilon = 1e-9

// Result is the outcome of a validation. Warnings never make a result invalid.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func newResult() Result { return Result{Valid: true} }

func (r *Result) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Merge appends other's messages; the merged result is valid only if both are.
func (r *Result) Merge(other Result) {
	r.Valid = r.Valid && other.Valid
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Err returns nil for a valid result, otherwise ErrInvalidDesign with every error message.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidDesign, strings.Join(r.Errors, "; "))
}

// addition is the input every placement rule sees.
type addition struct {
	ship  *model.Ship
	comp  *model.Component
	layer *model.Layer
	mass  float64 // component mass as placed on ship
}

type additionRule func(a addition, r *Result)

// additionRules run in order; every rule runs so the caller sees all problems at once.
var additionRules = []additionRule{
	checkVehicleType,
	checkLayerRestrictions,
	checkMassBudget,
	checkUnique,
	checkExclusive,
}

// ValidateAddition checks whether comp may be placed in layer of ship. The ship is not
// modified.
//
// Checks, in order:
//   - vehicle type: the component's allowed vehicle types include the ship's
//   - layer placement: the class layer restrictions and the component's allowed layers
//   - mass budget: layer budget and whole-ship cap, exactly at budget is valid
//   - uniqueness: unique components appear at most once per ship
//   - exclusivity: components sharing an exclusive group cannot be mixed
func ValidateAddition(ship *model.Ship, comp *model.Component, layer data.LayerType) Result {
	r := newResult()
	if ship == nil || comp == nil {
		r.fail("ship and component are required")
		return r
	}
	if comp.Ship() != nil {
		r.fail("%s is already placed on %s", comp.Label(), comp.Ship().Name)
		return r
	}
	l := ship.Layer(layer)
	if l == nil {
		r.fail("%s has no %s layer", ship.Class.ID, layer)
		return r
	}

	a := addition{ship: ship, comp: comp, layer: l, mass: comp.MassOn(ship)}
	for _, rule := range additionRules {
		rule(a, &r)
	}
	return r
}

func checkVehicleType(a addition, r *Result) {
	if !a.comp.Def().AllowsVehicleType(a.ship.VehicleType()) {
		r.fail("%s cannot be fitted to a %s (allowed: %s)",
			a.comp.Name(), a.ship.VehicleType(), strings.Join(a.comp.Def().AllowedVehicleTypes, ", "))
	}
}

func checkLayerRestrictions(a addition, r *Result) {
	c := a.comp
	if !c.Def().AllowsLayer(a.layer.Type) {
		r.fail("%s cannot be placed in %s", c.Name(), a.layer.Type)
	}
	if a.layer.Def == nil {
		return
	}

	var allowTypes, allowAbilities []string
	for _, rule := range a.layer.Def.Restrictions {
		switch rule.Kind {
		case data.AllowType:
			allowTypes = append(allowTypes, rule.Value)
		case data.AllowAbility:
			allowAbilities = append(allowAbilities, rule.Value)
		case data.DenyType:
			if c.Type() == rule.Value {
				r.fail("%s layer does not accept %s components", a.layer.Type, rule.Value)
			}
		case data.DenyAbility:
			if c.HasAbility(rule.Value) {
				r.fail("%s layer does not accept components with %s", a.layer.Type, rule.Value)
			}
		}
	}
	if len(allowTypes) > 0 && !slices.Contains(allowTypes, c.Type()) {
		r.fail("%s layer only accepts %s components", a.layer.Type, strings.Join(allowTypes, ", "))
	}
	if len(allowAbilities) > 0 && !slices.ContainsFunc(allowAbilities, c.HasAbility) {
		r.fail("%s layer only accepts components with %s", a.layer.Type, strings.Join(allowAbilities, ", "))
	}
}

func checkMassBudget(a addition, r *Result) {
	layerMass := a.layer.Mass() + a.mass
	if layerMass > a.layer.MaxMass+massEpsilon {
		r.fail("%s layer over budget: %.2f / %.2f", a.layer.Type, layerMass, a.layer.MaxMass)
	} else if a.layer.MaxMass > 0 && layerMass > a.layer.MaxMass*budgetWarnPct {
		r.warn("%s layer at %.0f%% of budget", a.layer.Type, layerMass/a.layer.MaxMass*100)
	}

	class := a.ship.Class
	shipMass := class.HullMass + a.ship.ComponentMass() + a.mass
	if shipMass > class.MaxMass+massEpsilon {
		r.fail("ship over mass cap: %.2f / %.2f", shipMass, class.MaxMass)
	}
}

func checkUnique(a addition, r *Result) {
	def := a.comp.Def()
	if !def.IsUnique {
		return
	}
	for _, c := range a.ship.Components() {
		if c.ID() == def.ID {
			r.fail("%s is unique and already fitted", def.Name)
			return
		}
	}
}

func checkExclusive(a addition, r *Result) {
	def := a.comp.Def()
	if def.ExclusiveGroup == "" {
		return
	}
	for _, c := range a.ship.Components() {
		if c.Def().ExclusiveGroup == def.ExclusiveGroup && c.ID() != def.ID {
			r.fail("%s conflicts with %s (exclusive group %s)", def.Name, c.Name(), def.ExclusiveGroup)
			return
		}
	}
}

// ValidateDesign checks a whole ship: class requirements, layer budgets and the mass cap.
// Requirements are evaluated over operational components, so the ship should be
// recalculated first. Components idle for lack of crew are reported as warnings.
func ValidateDesign(ship *model.Ship) Result {
	r := newResult()
	if ship == nil || ship.Class == nil {
		r.fail("ship has no class")
		return r
	}

	for _, st := range model.EvaluateRequirements(ship) {
		if !st.Met {
			r.fail("%s", st)
		}
	}

	for _, l := range ship.Layers() {
		if m := l.Mass(); m > l.MaxMass+massEpsilon {
			r.fail("%s layer over budget: %.2f / %.2f", l.Type, m, l.MaxMass)
		}
	}
	class := ship.Class
	if m := class.HullMass + ship.ComponentMass(); m > class.MaxMass+massEpsilon {
		r.fail("ship over mass cap: %.2f / %.2f", m, class.MaxMass)
	}

	for _, c := range ship.Components() {
		if c.Status() == model.StatusNoCrew {
			r.warn("%s is unmanned", c.Label())
		}
	}
	return r
}
