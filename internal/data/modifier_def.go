package data

import "slices"

// ModifierKind selects the stat transformation a modifier performs.
type ModifierKind string

const (
	ModKindSize            ModifierKind = "size"             // mass, HP and ability magnitudes × value
	ModKindRange           ModifierKind = "range"            // HP × hp_base^value, weapon range extended
	ModKindTurret          ModifierKind = "turret"           // firing arc = value, mass grows with extra arc
	ModKindFacing          ModifierKind = "facing"           // mount facing = value degrees
	ModKindPrecision       ModifierKind = "precision"        // beam accuracy bonus, small mass cost
	ModKindAutomation      ModifierKind = "automation"       // crew requirement × (1 - value), mass cost
	ModKindSeekerEndurance ModifierKind = "seeker_endurance" // seeker endurance × value
	ModKindSeekerWarhead   ModifierKind = "seeker_warhead"   // seeker damage × value
	ModKindMassMult        ModifierKind = "mass_mult"
	ModKindHPMult          ModifierKind = "hp_mult"
	ModKindDamageMult      ModifierKind = "damage_mult"
	ModKindRangeMult       ModifierKind = "range_mult"
)

// Well-known modifier ids the mandatory-modifier computation attaches.
const (
	ModSize            = "simple_size"
	ModRange           = "range_mount"
	ModFacing          = "facing"
	ModTurret          = "turret_mount"
	ModPrecision       = "beam_precision"
	ModSeekerEndurance = "seeker_endurance"
	ModSeekerWarhead   = "seeker_warhead"
	ModAutomation      = "automation"
)

// ModifierDef is an immutable modifier definition.
type ModifierDef struct {
	ID           string             `yaml:"id"`
	Name         string             `yaml:"name"`
	Kind         ModifierKind       `yaml:"kind"`
	MinVal       float64            `yaml:"min_val"`
	MaxVal       float64            `yaml:"max_val"`
	DefaultVal   float64            `yaml:"default_val"`
	Restrictions Restrictions       `yaml:"restrictions"`
	StackGroup   string             `yaml:"stack_group"`
	Params       map[string]float64 `yaml:"params"`
}

// Restrictions limits which components a modifier may be attached to.
type Restrictions struct {
	AllowTypes     []string `yaml:"allow_types"`
	DenyTypes      []string `yaml:"deny_types"`
	AllowAbilities []string `yaml:"allow_abilities"`
}

// Param returns a kind parameter or fallback when unset.
func (m *ModifierDef) Param(key string, fallback float64) float64 {
	if v, ok := m.Params[key]; ok {
		return v
	}
	return fallback
}

// Clamp bounds v into the definition's value domain.
func (m *ModifierDef) Clamp(v float64) float64 {
	return max(m.MinVal, min(m.MaxVal, v))
}

// Allows evaluates the restriction predicate against a component classification and an
// ability-presence query.
func (m *ModifierDef) Allows(componentType string, hasAbility func(string) bool) bool {
	r := m.Restrictions
	if slices.Contains(r.DenyTypes, componentType) {
		return false
	}
	if len(r.AllowTypes) > 0 && !slices.Contains(r.AllowTypes, componentType) {
		return false
	}
	if len(r.AllowAbilities) > 0 && !slices.ContainsFunc(r.AllowAbilities, hasAbility) {
		return false
	}
	return true
}
