package combat

import (
	"math"
	"math/rand/v2"

	"github.com/udisondev/shipyard/internal/model"
)

// RamResult is the outcome of a ramming check.
type RamResult struct {
	Rammed    bool
	Destroyed []*model.Ship
	Survivor  *model.Ship
	Damage    float64 // applied to the survivor
}

// Hostile reports whether two ships are on opposing teams.
func Hostile(a, b *model.Ship) bool { return a.Team != b.Team }

// CheckRamming resolves a collision between two hostile live ships whose collision
// circles overlap. The ship with less HP is destroyed outright and the other takes half
// that HP as a normal damage packet; equal HP destroys both.
func CheckRamming(a, b *model.Ship, sel DamageSelector, rng *rand.Rand) RamResult {
	if a == b || !Hostile(a, b) || !a.IsAlive() || !b.IsAlive() {
		return RamResult{}
	}
	if Distance(a.Position, b.Position) >= a.Radius+b.Radius {
		return RamResult{}
	}

	hpA, hpB := a.TotalHP(), b.TotalHP()
	if math.Abs(hpA-hpB) < 1e-9 {
		a.Destroy()
		b.Destroy()
		return RamResult{Rammed: true, Destroyed: []*model.Ship{a, b}}
	}

	loser, winner, lowHP := a, b, hpA
	if hpB < hpA {
		loser, winner, lowHP = b, a, hpB
	}
	loser.Destroy()

	half := lowHP / 2
	ApplyDamage(winner, half, sel, rng)
	res := RamResult{Rammed: true, Destroyed: []*model.Ship{loser}, Survivor: winner, Damage: half}
	if !winner.IsAlive() {
		res.Destroyed = append(res.Destroyed, winner)
		res.Survivor = nil
	}
	return res
}
