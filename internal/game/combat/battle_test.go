package combat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/model"
)

func duel(t *testing.T, seed uint64) *Battle {
	t.Helper()
	reg := testRegistry(t)
	b := NewBattle(Options{Seed: seed, TickRate: 100, Physics: config.DefaultPhysics()})

	red, blue := warship(t, reg, "red"), warship(t, reg, "blue")
	b.AddShip(red, 0, r2.Vec{}, 0)
	b.AddShip(blue, 1, r2.Vec{X: 1000}, 180)
	b.SetPilot(red, ChasePilot{StandOff: 300})
	b.SetPilot(blue, ChasePilot{StandOff: 300})
	return b
}

func TestBattle_Deterministic(t *testing.T) {
	first := duel(t, 42)
	resA := first.Run(3000)

	second := duel(t, 42)
	resB := second.Run(3000)

	require.NotEmpty(t, first.Log())
	assert.Equal(t, first.Log(), second.Log())
	assert.Equal(t, resA, resB)

	var hits int
	for _, e := range first.Events() {
		if e.Kind == EventHit {
			hits++
		}
	}
	assert.Positive(t, hits)
}

func TestBattle_ObserverSeesEveryEvent(t *testing.T) {
	b := duel(t, 7)
	var seen []Event
	b.SetObserver(func(e Event) { seen = append(seen, e) })

	b.Run(1000)
	assert.Equal(t, b.Events(), seen)
	assert.Equal(t, 1000, b.Tick(), "1000 ticks is too short for a kill")
	assert.InDelta(t, 10.0, b.Elapsed(), 1e-9)
}

func TestBattle_DerelictDoesNotFire(t *testing.T) {
	reg := testRegistry(t)
	b := NewBattle(Options{Seed: 1, TickRate: 100, Physics: config.DefaultPhysics()})

	// no bridge: CommandAndControl is missing
	hulk := buildShip(t, reg, "hulk", "escort",
		placement{"reactor", data.LayerCore},
		placement{"crew_quarters", data.LayerInner},
		placement{"life_support", data.LayerInner},
		placement{"engine", data.LayerInner},
		placement{"laser", data.LayerOuter},
	)
	dummy := buildShip(t, reg, "dummy", "escort",
		placement{"armor_plate", data.LayerArmor},
	)
	b.AddShip(hulk, 0, r2.Vec{}, 0)
	b.AddShip(dummy, 1, r2.Vec{X: 300}, 180)
	require.True(t, hulk.IsDerelict)
	assert.Contains(t, hulk.MissingRequirements, "CommandAndControl")

	b.SetPilot(hulk, PilotFunc(func(b *Battle, s *model.Ship, _ float64) {
		s.CurrentTarget = b.NearestEnemy(s)
		s.Fire = true
	}))
	for range 200 {
		b.Update()
	}
	for _, e := range b.Events() {
		assert.False(t, strings.HasPrefix(e.Source, "hulk/"), e.String())
	}
	assert.Equal(t, r2.Vec{}, hulk.Position)
	assert.True(t, b.Finished(), "no armed non-derelict ship is left")
}

func TestBattle_BeamHitCostsEnergy(t *testing.T) {
	reg := testRegistry(t)
	b := NewBattle(Options{Seed: 3, TickRate: 100, Physics: config.DefaultPhysics()})
	shooter := warship(t, reg, "shooter")
	target := buildShip(t, reg, "target", "escort", placement{"armor_plate", data.LayerArmor})
	b.AddShip(shooter, 0, r2.Vec{}, 0)
	b.AddShip(target, 1, r2.Vec{X: 200}, 180)
	shooter.CurrentTarget = target
	shooter.Fire = true

	require.Equal(t, 100.0, shooter.Resources.Current("energy"))
	b.Update()

	events := b.Events()
	require.Len(t, events, 1)
	assert.Contains(t, []EventKind{EventHit, EventMiss}, events[0].Kind)
	assert.Equal(t, "shooter/laser#6", events[0].Source)
	assert.InDelta(t, 95.0, shooter.Resources.Current("energy"), 1e-9, "regen is clamped at capacity before the shot")

	// reloading
	b.Update()
	assert.Len(t, b.Events(), 1)
}

func TestBattle_ResultWinner(t *testing.T) {
	reg := testRegistry(t)
	b := NewBattle(Options{Seed: 1})
	a := layeredShip(t, reg)
	c := layeredShip(t, reg)
	b.AddShip(a, 0, r2.Vec{}, 0)
	b.AddShip(c, 1, r2.Vec{X: 5000}, 0)

	assert.Equal(t, -1, b.Result().Winner)
	c.Destroy()
	res := b.Result()
	assert.Equal(t, 0, res.Winner)
	assert.True(t, b.Finished())
	require.Len(t, res.Ships, 2)
	assert.False(t, res.Ships[1].Alive)
}

func TestEvent_String(t *testing.T) {
	e := Event{Tick: 12, Kind: EventHit, Source: "a/laser#3", Target: "b", Amount: 1.0 / 3, Detail: "x"}
	assert.Equal(t, "000012 hit       a/laser#3 > b 0.3333 x", e.String())
}

const twinMountYAML = `
components:
  - id: twin_mount
    name: Twin Mount
    type: Weapons
    mass: 40
    hp: 60
    firing_arc: 60
    abilities:
      BeamWeaponAbility:
        damage: 10
        range: 800
        reload: 1
        accuracy: 2.0
      ProjectileWeaponAbility:
        damage: 30
        range: 1500
        reload: 1
        projectile_speed: 800
        hp: 3
      ResourceConsumption:
        resource: energy
        amount: 5
        trigger: activation
`

// twinMountBattle puts a ship whose single component carries a beam and a projectile
// weapon 200 units from an armored target.
func twinMountBattle(t *testing.T) (*Battle, *model.Ship) {
	t.Helper()
	reg := testRegistry(t)
	require.NoError(t, reg.Load([]byte(twinMountYAML), "test"))

	b := NewBattle(Options{Seed: 3, TickRate: 100, Physics: config.DefaultPhysics()})
	shooter := buildShip(t, reg, "shooter", "escort",
		placement{"bridge", data.LayerCore},
		placement{"reactor", data.LayerCore},
		placement{"crew_quarters", data.LayerInner},
		placement{"life_support", data.LayerInner},
		placement{"engine", data.LayerInner},
		placement{"thruster", data.LayerOuter},
		placement{"twin_mount", data.LayerOuter},
	)
	target := buildShip(t, reg, "target", "escort", placement{"armor_plate", data.LayerArmor})
	b.AddShip(shooter, 0, r2.Vec{}, 0)
	b.AddShip(target, 1, r2.Vec{X: 200}, 180)
	shooter.CurrentTarget = target
	shooter.Fire = true
	return b, shooter
}

func TestBattle_ActivationCostChargedOncePerComponent(t *testing.T) {
	b, shooter := twinMountBattle(t)
	require.Equal(t, 100.0, shooter.Resources.Current("energy"))

	b.Update()

	var kinds []EventKind
	for _, e := range b.Events() {
		kinds = append(kinds, e.Kind)
	}
	require.Len(t, kinds, 2, b.Log())
	assert.Contains(t, kinds, EventLaunch)
	assert.InDelta(t, 95.0, shooter.Resources.Current("energy"), 1e-9)
}

func TestBattle_LaunchIgnoresShooterVelocity(t *testing.T) {
	b, shooter := twinMountBattle(t)
	shooter.Velocity = r2.Vec{Y: 50}

	b.Update()

	projectiles := b.Projectiles()
	require.Len(t, projectiles, 1)
	p := projectiles[0]
	assert.InDelta(t, 800.0, r2.Norm(p.Velocity), 1e-9)
	assert.LessOrEqual(t, p.Velocity.Y, 0.0, "aimed at the target, not drifting with the shooter")
}

func TestBattle_DamageProjectile(t *testing.T) {
	b, shooter := twinMountBattle(t)
	b.Update()
	require.Len(t, b.Projectiles(), 1)
	id := b.Projectiles()[0].ID
	shooter.Fire = false

	assert.False(t, b.DamageProjectile("pd", id, 2))
	assert.False(t, b.DamageProjectile("pd", id+1, 10), "unknown id")
	require.Len(t, b.Projectiles(), 1)

	assert.True(t, b.DamageProjectile("pd", id, 1))
	assert.Empty(t, b.Projectiles())
	assert.False(t, b.DamageProjectile("pd", id, 1), "already destroyed")

	events := b.Events()
	last := events[len(events)-1]
	assert.Equal(t, EventShotDown, last.Kind)
	assert.Equal(t, "pd", last.Source)

	for range 50 {
		b.Update()
	}
	for _, e := range b.Events()[len(events):] {
		assert.NotEqual(t, EventHit, e.Kind, "shot down rounds never land: %s", e)
	}
}
