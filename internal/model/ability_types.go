package model

import (
	"math"

	"github.com/udisondev/shipyard/internal/data"
)

// ConsumptionTrigger says when a ResourceConsumption is charged.
type ConsumptionTrigger string

const (
	TriggerConstant   ConsumptionTrigger = "constant"   // per second, folded into regen
	TriggerActivation ConsumptionTrigger = "activation" // per use, e.g. per shot
)

// ResourceStorage adds capacity for one resource.
type ResourceStorage struct {
	scalar
	Resource string
}

func (a *ResourceStorage) Capacity() float64 { return a.value }
func (a *ResourceStorage) clone() Ability    { c := *a; return &c }

// ResourceGeneration produces a resource per second.
type ResourceGeneration struct {
	scalar
	Resource string
}

func (a *ResourceGeneration) Rate() float64  { return a.value }
func (a *ResourceGeneration) clone() Ability { c := *a; return &c }

// ResourceConsumption drains a resource continuously or per activation.
type ResourceConsumption struct {
	scalar
	Resource string
	Trigger  ConsumptionTrigger
}

func (a *ResourceConsumption) Amount() float64 { return a.value }
func (a *ResourceConsumption) clone() Ability  { c := *a; return &c }

// ShieldProjection contributes to the ship's shield pool.
type ShieldProjection struct{ scalar }

func (a *ShieldProjection) Capacity() float64 { return a.value }
func (a *ShieldProjection) clone() Ability    { c := *a; return &c }

// ShieldRegeneration restores shield points per second, optionally paying energy per point.
type ShieldRegeneration struct {
	scalar
	energyCost data.Value
	EnergyCost float64
}

func (a *ShieldRegeneration) Rate() float64  { return a.value }
func (a *ShieldRegeneration) clone() Ability { c := *a; return &c }
func (a *ShieldRegeneration) recalculate(r resolver, fx Effects) {
	a.scalar.recalculate(r, fx)
	a.EnergyCost = r.resolve(a.energyCost, a.name+".energy_cost")
}

// CrewCapacity houses crew.
type CrewCapacity struct{ scalar }

func (a *CrewCapacity) Amount() float64 { return a.value }
func (a *CrewCapacity) clone() Ability  { c := *a; return &c }

// CrewRequired is the crew a component needs to operate. The automation modifier reduces it.
type CrewRequired struct{ scalar }

func (a *CrewRequired) Amount() float64 { return a.value }
func (a *CrewRequired) clone() Ability  { c := *a; return &c }
func (a *CrewRequired) recalculate(r resolver, fx Effects) {
	a.scalar.recalculate(r, fx)
	a.value = math.Ceil(a.value*fx.Crew - 1e-9)
	if a.value < 0 {
		a.value = 0
	}
}

// LifeSupportCapacity is how much crew the ship can keep alive.
type LifeSupportCapacity struct{ scalar }

func (a *LifeSupportCapacity) Amount() float64 { return a.value }
func (a *LifeSupportCapacity) clone() Ability  { c := *a; return &c }

// CombatPropulsion provides thrust.
type CombatPropulsion struct{ scalar }

func (a *CombatPropulsion) Thrust() float64 { return a.value }
func (a *CombatPropulsion) clone() Ability  { c := *a; return &c }

// ManeuveringThruster provides turn rate.
type ManeuveringThruster struct{ scalar }

func (a *ManeuveringThruster) TurnRate() float64 { return a.value }
func (a *ManeuveringThruster) clone() Ability    { c := *a; return &c }

// EmissiveArmor ignores damage packets at or below its threshold. Instances combine by max.
type EmissiveArmor struct{ scalar }

func (a *EmissiveArmor) Threshold() float64 { return a.value }
func (a *EmissiveArmor) clone() Ability     { c := *a; return &c }

// CommandAndControl marks a component as able to command the ship.
type CommandAndControl struct{ scalar }

func (a *CommandAndControl) clone() Ability { c := *a; return &c }

// ToHitDefense is an ECM contribution to the defense score.
type ToHitDefense struct{ scalar }

func (a *ToHitDefense) Value() float64 { return a.value }
func (a *ToHitDefense) clone() Ability { c := *a; return &c }

// ToHitAttack is a sensor contribution to the offense baseline.
type ToHitAttack struct{ scalar }

func (a *ToHitAttack) Value() float64 { return a.value }
func (a *ToHitAttack) clone() Ability { c := *a; return &c }
