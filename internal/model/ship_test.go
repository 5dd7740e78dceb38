package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/shipyard/internal/data"
)

func newTestShip(t *testing.T, reg *data.Registry, class string) *Ship {
	t.Helper()
	vc := reg.VehicleClass(class)
	require.NotNil(t, vc)
	return NewShip("test", vc)
}

func TestNewShip_Layers(t *testing.T) {
	reg := testRegistry(t)
	s := newTestShip(t, reg, "escort")

	var types []data.LayerType
	for _, l := range s.Layers() {
		types = append(types, l.Type)
	}
	assert.Equal(t, []data.LayerType{data.LayerCore, data.LayerInner, data.LayerOuter, data.LayerArmor}, types)
	assert.InDelta(t, 400.0, s.Layer(data.LayerCore).MaxMass, 1e-9)
	assert.Nil(t, s.Layer(data.LayerHull))
	assert.True(t, s.IsAlive(), "empty ship is alive")
}

func TestShip_AddComponentBindsFormulas(t *testing.T) {
	reg := testRegistry(t)
	s := newTestShip(t, reg, "escort")

	plate := newTestComponent(t, reg, "armor_plate")
	assert.Equal(t, 0.0, plate.Mass(), "unplaced: ship_class_mass is 0")

	require.True(t, s.AddComponent(plate, data.LayerArmor))
	assert.InDelta(t, 40.0, plate.Mass(), 1e-9)
	assert.InDelta(t, 200.0, plate.MaxHP(), 1e-9)
	assert.InDelta(t, 200.0, plate.CurrentHP(), 1e-9)
	assert.Same(t, s, plate.Ship())
	assert.Equal(t, "armor_plate#0", plate.Label())

	assert.False(t, s.AddComponent(plate, data.LayerArmor), "already placed")
	assert.False(t, s.AddComponent(newTestComponent(t, reg, "battery"), data.LayerHull), "no such layer")

	require.True(t, s.RemoveComponent(plate))
	assert.Nil(t, plate.Ship())
	assert.Equal(t, 0, s.Layer(data.LayerArmor).Len())
}

func TestShip_AliveUntilAllHPGone(t *testing.T) {
	reg := testRegistry(t)
	s := newTestShip(t, reg, "escort")
	a := newTestComponent(t, reg, "battery")
	b := newTestComponent(t, reg, "fuel_tank")
	require.True(t, s.AddComponent(a, data.LayerInner))
	require.True(t, s.AddComponent(b, data.LayerOuter))

	a.TakeDamage(1000)
	assert.True(t, s.IsAlive())
	b.TakeDamage(1000)
	assert.False(t, s.IsAlive())
}

func TestEvaluateRequirements(t *testing.T) {
	reg := testRegistry(t)
	s := newTestShip(t, reg, "escort")

	st := EvaluateRequirements(s)
	require.Len(t, st, 2)
	assert.Equal(t, []string{CombatPropulsionName, CommandAndControlName}, Unmet(st))

	bridge := newTestComponent(t, reg, "bridge")
	require.True(t, s.AddComponent(bridge, data.LayerCore))
	require.True(t, s.AddComponent(newTestComponent(t, reg, "engine"), data.LayerInner))
	assert.Empty(t, Unmet(EvaluateRequirements(s)))

	bridge.SetActive(false)
	assert.Equal(t, []string{CommandAndControlName}, Unmet(EvaluateRequirements(s)))
}

func TestResourceRegistry_FirstFillThenDelta(t *testing.T) {
	reg := testRegistry(t)
	s := newTestShip(t, reg, "escort")
	require.True(t, s.AddComponent(newTestComponent(t, reg, "reactor"), data.LayerCore))

	r := s.Resources
	r.Update(s.Components())
	assert.Equal(t, 100.0, r.Current("energy"))
	assert.Equal(t, 12.0, r.Get("energy").RegenRate)

	require.True(t, r.Consume("energy", 30))
	assert.Equal(t, 70.0, r.Current("energy"))

	require.True(t, s.AddComponent(newTestComponent(t, reg, "battery"), data.LayerInner))
	r.Update(s.Components())
	assert.Equal(t, 250.0, r.Capacity("energy"))
	assert.Equal(t, 220.0, r.Current("energy"), "only the capacity increase is added")

	r.Update(s.Components())
	assert.Equal(t, 220.0, r.Current("energy"), "recalculating without change does not refill")

	r.Tick(1)
	assert.InDelta(t, 232.0, r.Current("energy"), 1e-9)
	r.Tick(10)
	assert.Equal(t, 250.0, r.Current("energy"))
}

func TestResourceRegistry_CapacityDecreaseClamps(t *testing.T) {
	reg := testRegistry(t)
	s := newTestShip(t, reg, "escort")
	battery := newTestComponent(t, reg, "battery")
	require.True(t, s.AddComponent(newTestComponent(t, reg, "reactor"), data.LayerCore))
	require.True(t, s.AddComponent(battery, data.LayerInner))

	r := s.Resources
	r.Update(s.Components())
	assert.Equal(t, 250.0, r.Current("energy"))

	battery.TakeDamage(1000)
	r.Update(s.Components())
	assert.Equal(t, 100.0, r.Current("energy"))
}

func TestResourceRegistry_ConsumeAllIsAtomic(t *testing.T) {
	reg := testRegistry(t)
	s := newTestShip(t, reg, "escort")
	require.True(t, s.AddComponent(newTestComponent(t, reg, "reactor"), data.LayerCore))
	r := s.Resources
	r.Update(s.Components())

	assert.False(t, r.ConsumeAll(map[string]float64{"energy": 10, "ammo": 1}))
	assert.Equal(t, 100.0, r.Current("energy"))

	assert.False(t, r.Consume("energy", 100.5))
	assert.Equal(t, 100.0, r.Current("energy"))

	assert.True(t, r.Consume("energy", 100))
	assert.Equal(t, 0.0, r.Current("energy"))
}

func TestActivationCosts(t *testing.T) {
	reg := testRegistry(t)

	assert.Equal(t, map[string]float64{"energy": 5}, ActivationCosts(newTestComponent(t, reg, "laser")))
	assert.Equal(t, map[string]float64{"ammo": 2}, ActivationCosts(newTestComponent(t, reg, "missile_launcher")))
	assert.Nil(t, ActivationCosts(newTestComponent(t, reg, "engine")))
}

func TestComponent_MassOnPreviewsPlacement(t *testing.T) {
	reg := testRegistry(t)
	s := newTestShip(t, reg, "escort")
	armor := newTestComponent(t, reg, "armor_plate")

	assert.Equal(t, 0.0, armor.Mass(), "unplaced formula mass")
	assert.InDelta(t, 40.0, armor.MassOn(s), 1e-9)
	assert.Nil(t, armor.Ship(), "preview does not place")
	assert.Equal(t, 0.0, armor.Mass())

	require.True(t, s.AddComponent(armor, data.LayerArmor))
	assert.InDelta(t, 40.0, armor.MassOn(s), 1e-9)
}
