package combat

import (
	"math"
	"math/rand/v2"

	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/model"
)

// DamageOrder is the order layers absorb damage, outermost first.
var DamageOrder = []data.LayerType{
	data.LayerArmor,
	data.LayerOuter,
	data.LayerInner,
	data.LayerCore,
	data.LayerHull,
}

// DamageSelector picks the component of a layer that absorbs a damage packet.
// Implementations must draw randomness only from rng.
type DamageSelector interface {
	Select(candidates []*model.Component, rng *rand.Rand) *model.Component
}

// UniformSelector picks uniformly among candidates.
type UniformSelector struct{}

func (UniformSelector) Select(candidates []*model.Component, rng *rand.Rand) *model.Component {
	return candidates[rng.IntN(len(candidates))]
}

// HPWeightedSelector picks with probability proportional to current HP.
type HPWeightedSelector struct{}

func (HPWeightedSelector) Select(candidates []*model.Component, rng *rand.Rand) *model.Component {
	var total float64
	for _, c := range candidates {
		total += c.CurrentHP()
	}
	roll := rng.Float64() * total
	for _, c := range candidates {
		roll -= c.CurrentHP()
		if roll < 0 {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

// NewSelector returns the selector for a config name; unknown names get UniformSelector.
func NewSelector(name string) DamageSelector {
	if name == "hp_weighted" {
		return HPWeightedSelector{}
	}
	return UniformSelector{}
}

// ComponentHit records damage absorbed by one component.
type ComponentHit struct {
	Component *model.Component
	Layer     data.LayerType
	Amount    float64
	Destroyed bool
}

// DamageReport describes where a damage packet went.
type DamageReport struct {
	Incoming float64
	Ignored  float64 // stopped by emissive armor
	Shields  float64
	Hits     []ComponentHit
	Overflow float64 // left over after every layer was exhausted
}

// HullDamage is the HP removed from components.
func (r DamageReport) HullDamage() float64 {
	var sum float64
	for _, h := range r.Hits {
		sum += h.Amount
	}
	return sum
}

// EmissiveThreshold returns the largest EmissiveArmor threshold among operational components.
func EmissiveThreshold(s *model.Ship) float64 {
	var hi float64
	for _, a := range s.OperationalAbilities(model.EmissiveArmorName) {
		hi = math.Max(hi, a.Magnitude())
	}
	return hi
}

// ApplyDamage routes one damage packet through emissive armor, shields and layers.
//
// A packet at or below the emissive threshold is ignored, a larger one is reduced by it.
// Shields absorb next. The rest hits the outermost layer that still has a component with
// HP: one component is chosen by sel and absorbs what it can. When that component is
// destroyed the remainder goes to another component of the same layer, and moves inward
// only once the layer has nothing left to hit.
func ApplyDamage(s *model.Ship, amount float64, sel DamageSelector, rng *rand.Rand) DamageReport {
	rep := DamageReport{Incoming: amount}
	if amount <= 0 || !s.IsAlive() {
		return rep
	}

	if threshold := EmissiveThreshold(s); threshold > 0 {
		if amount <= threshold {
			rep.Ignored = amount
			return rep
		}
		rep.Ignored = threshold
		amount -= threshold
	}

	if s.CurrentShields > 0 {
		absorbed := math.Min(amount, s.CurrentShields)
		s.CurrentShields -= absorbed
		rep.Shields = absorbed
		amount -= absorbed
	}

	for _, lt := range DamageOrder {
		l := s.Layer(lt)
		if l == nil {
			continue
		}
		for amount > 0 {
			candidates := damageCandidates(l)
			if len(candidates) == 0 {
				break
			}
			target := sel.Select(candidates, rng)
			absorbed := target.TakeDamage(amount)
			amount -= absorbed
			rep.Hits = append(rep.Hits, ComponentHit{
				Component: target,
				Layer:     lt,
				Amount:    absorbed,
				Destroyed: target.IsDestroyed(),
			})
			if absorbed <= 0 {
				break
			}
		}
		if amount <= 0 {
			break
		}
	}
	rep.Overflow = math.Max(0, amount)
	return rep
}

// damageCandidates returns the active components of a layer that have HP, or, if none
// are active, any component that still has HP.
func damageCandidates(l *model.Layer) []*model.Component {
	var active, rest []*model.Component
	for _, c := range l.Components() {
		if c.IsDestroyed() {
			continue
		}
		if c.Status() == model.StatusActive {
			active = append(active, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(active) > 0 {
		return active
	}
	return rest
}
