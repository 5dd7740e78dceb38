package model

import (
	"log/slog"
	"math"

	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/formula"
)

// Capability names. Definitions key their ability blocks by these names and all queries
// (Component.Ability, Component.HasAbility, requirement checks) go through them.
const (
	WeaponAbilityName           = "WeaponAbility"
	BeamWeaponAbilityName       = "BeamWeaponAbility"
	ProjectileWeaponAbilityName = "ProjectileWeaponAbility"
	SeekerWeaponAbilityName     = "SeekerWeaponAbility"
	ResourceStorageName         = "ResourceStorage"
	ResourceGenerationName      = "ResourceGeneration"
	ResourceConsumptionName     = "ResourceConsumption"
	ShieldProjectionName        = "ShieldProjection"
	ShieldRegenerationName      = "ShieldRegeneration"
	CrewCapacityName            = "CrewCapacity"
	CrewRequiredName            = "CrewRequired"
	LifeSupportCapacityName     = "LifeSupportCapacity"
	CombatPropulsionName        = "CombatPropulsion"
	ManeuveringThrusterName     = "ManeuveringThruster"
	EmissiveArmorName           = "EmissiveArmor"
	CommandAndControlName       = "CommandAndControl"
	ToHitDefenseName            = "ToHitDefenseModifier"
	ToHitAttackName             = "ToHitAttackModifier"
)

// CombineRule says how several instances of one capability aggregate.
type CombineRule uint8

const (
	CombineSum CombineRule = iota
	CombineMax
)

// Ability is a typed capability instance owned by one component.
//
// The set of implementations is closed (unexported methods); every concrete type is listed
// in abilityConstructors. Callers select abilities by capability name and type-assert to the
// concrete type when they need kind-specific fields.
type Ability interface {
	// Name returns the capability name this instance was declared under.
	Name() string
	// Is reports whether the instance answers to a capability name. Weapon kinds also
	// answer to WeaponAbilityName.
	Is(name string) bool
	// Magnitude is the scalar contribution used for requirement totals and generic sums.
	Magnitude() float64
	// Combine is the aggregation rule across instances.
	Combine() CombineRule

	recalculate(r resolver, fx Effects)
	clone() Ability
}

var abilityConstructors = map[string]func(data.Params) Ability{
	WeaponAbilityName:           func(p data.Params) Ability { return newWeapon(WeaponAbilityName, WeaponProjectile, p) },
	BeamWeaponAbilityName:       func(p data.Params) Ability { return newWeapon(BeamWeaponAbilityName, WeaponBeam, p) },
	ProjectileWeaponAbilityName: func(p data.Params) Ability { return newWeapon(ProjectileWeaponAbilityName, WeaponProjectile, p) },
	SeekerWeaponAbilityName:     func(p data.Params) Ability { return newWeapon(SeekerWeaponAbilityName, WeaponSeeker, p) },
	ResourceStorageName: func(p data.Params) Ability {
		return &ResourceStorage{scalar: newScalar(ResourceStorageName, p, "capacity", true), Resource: p.String("resource", ResourceEnergy)}
	},
	ResourceGenerationName: func(p data.Params) Ability {
		return &ResourceGeneration{scalar: newScalar(ResourceGenerationName, p, "rate", true), Resource: p.String("resource", ResourceEnergy)}
	},
	ResourceConsumptionName: func(p data.Params) Ability {
		return &ResourceConsumption{
			scalar:   newScalar(ResourceConsumptionName, p, "amount", true),
			Resource: p.String("resource", ResourceEnergy),
			Trigger:  ConsumptionTrigger(p.String("trigger", string(TriggerConstant))),
		}
	},
	ShieldProjectionName: func(p data.Params) Ability {
		return &ShieldProjection{scalar: newScalar(ShieldProjectionName, p, "capacity", true)}
	},
	ShieldRegenerationName: func(p data.Params) Ability {
		return &ShieldRegeneration{scalar: newScalar(ShieldRegenerationName, p, "rate", true), energyCost: p.ValueOr("energy_cost", 0)}
	},
	CrewCapacityName: func(p data.Params) Ability {
		return &CrewCapacity{scalar: newScalar(CrewCapacityName, p, "amount", true)}
	},
	CrewRequiredName: func(p data.Params) Ability {
		return &CrewRequired{scalar: newScalar(CrewRequiredName, p, "amount", true)}
	},
	LifeSupportCapacityName: func(p data.Params) Ability {
		return &LifeSupportCapacity{scalar: newScalar(LifeSupportCapacityName, p, "amount", true)}
	},
	CombatPropulsionName: func(p data.Params) Ability {
		return &CombatPropulsion{scalar: newScalar(CombatPropulsionName, p, "thrust", true)}
	},
	ManeuveringThrusterName: func(p data.Params) Ability {
		return &ManeuveringThruster{scalar: newScalar(ManeuveringThrusterName, p, "turn_rate", true)}
	},
	EmissiveArmorName: func(p data.Params) Ability {
		s := newScalar(EmissiveArmorName, p, "threshold", true)
		s.combine = CombineMax
		return &EmissiveArmor{scalar: s}
	},
	CommandAndControlName: func(p data.Params) Ability {
		return &CommandAndControl{scalar: newScalar(CommandAndControlName, p, "value", false)}
	},
	ToHitDefenseName: func(p data.Params) Ability {
		return &ToHitDefense{scalar: newScalar(ToHitDefenseName, p, "value", false)}
	},
	ToHitAttackName: func(p data.Params) Ability {
		return &ToHitAttack{scalar: newScalar(ToHitAttackName, p, "value", false)}
	},
}

// NewAbility builds an ability from a definition block. It returns nil for unknown names.
func NewAbility(name string, params data.Params) Ability {
	ctor, ok := abilityConstructors[name]
	if !ok {
		return nil
	}
	return ctor(params)
}

// KnownAbility reports whether name is a registered capability.
func KnownAbility(name string) bool {
	_, ok := abilityConstructors[name]
	return ok
}

// Total aggregates the magnitudes of abilities according to their combine rule.
func Total(abilities []Ability) float64 {
	var sum, hi float64
	for _, a := range abilities {
		if a.Combine() == CombineMax {
			hi = math.Max(hi, a.Magnitude())
			continue
		}
		sum += a.Magnitude()
	}
	return sum + hi
}

// resolver evaluates definition values in a component's formula context.
// Failures are logged and resolve to 0.
type resolver struct {
	vars    formula.Vars
	owner   string
	rootArc float64 // component-level firing_arc, 0 when absent
}

func (r resolver) resolve(v data.Value, field string) float64 {
	f, err := v.Resolve(r.vars)
	if err != nil {
		slog.Warn("formula evaluation failed, using 0",
			"component", r.owner,
			"field", field,
			"formula", v.Source(),
			"err", err)
		return 0
	}
	return f
}

// scalar is the shared body of single-valued capabilities.
type scalar struct {
	name    string
	field   string
	raw     data.Value
	value   float64
	scales  bool // multiplied by the size modifier
	combine CombineRule
}

func newScalar(name string, p data.Params, field string, scales bool) scalar {
	raw, ok := p.Value(field)
	if !ok {
		// shorthand blocks ("CrewRequired: 5") land in "value"
		raw = p.ValueOr("value", 0)
	}
	return scalar{name: name, field: field, raw: raw, scales: scales}
}

func (s *scalar) Name() string         { return s.name }
func (s *scalar) Is(name string) bool  { return s.name == name }
func (s *scalar) Magnitude() float64   { return s.value }
func (s *scalar) Combine() CombineRule { return s.combine }

func (s *scalar) recalculate(r resolver, fx Effects) {
	s.value = r.resolve(s.raw, s.name+"."+s.field)
	if s.scales {
		s.value *= fx.Magnitude
	}
}
