package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/shipyard/internal/formula"
)

func TestLoadDefaults(t *testing.T) {
	reg, err := NewDefaultRegistry()
	require.NoError(t, err)

	for _, id := range []string{ModSize, ModRange, ModFacing, ModTurret, ModPrecision, ModSeekerEndurance, ModSeekerWarhead, ModAutomation} {
		assert.NotNil(t, reg.Modifier(id), "mandatory modifier %s must be defined", id)
	}

	laser := reg.Component("laser")
	require.NotNil(t, laser)
	assert.Equal(t, "Weapons", laser.Type)
	require.NotNil(t, laser.FiringArc)
	assert.Equal(t, 60.0, *laser.FiringArc)

	// Declaration order is preserved.
	require.Len(t, laser.Abilities, 3)
	assert.Equal(t, "BeamWeaponAbility", laser.Abilities[0].Name)
	assert.Equal(t, "ResourceConsumption", laser.Abilities[1].Name)
	assert.Equal(t, "CrewRequired", laser.Abilities[2].Name)

	dmg, ok := laser.Abilities[0].Params.Value("damage")
	require.True(t, ok)
	assert.True(t, dmg.IsFormula())
	assert.True(t, dmg.References("range_to_target"))

	escort := reg.VehicleClass("escort")
	require.NotNil(t, escort)
	assert.Equal(t, []string{"CombatPropulsion", "CommandAndControl"}, escort.RequirementNames())
	assert.True(t, escort.Requirements["CommandAndControl"].Boolean)
	assert.Equal(t, 1.0, escort.Requirements["CombatPropulsion"].Min)

	armor := escort.Layer(LayerArmor)
	require.NotNil(t, armor)
	assert.Equal(t, []LayerRestriction{{Kind: AllowType, Value: "Armor"}}, armor.Restrictions)
	assert.Nil(t, escort.Layer(LayerHull))
}

func TestRegistry_UnknownIDs(t *testing.T) {
	reg := NewRegistry()

	assert.Nil(t, reg.Component("nope"))
	assert.Nil(t, reg.Modifier("nope"))
	assert.Nil(t, reg.VehicleClass("nope"))
}

func TestRegistry_ResetAndOverride(t *testing.T) {
	reg, err := NewDefaultRegistry()
	require.NoError(t, err)
	require.NotEmpty(t, reg.ComponentIDs())

	override := []byte(`
components:
  - id: laser
    name: Laser Mk2
    type: Weapons
    mass: 35
    hp: 70
  - name: missing id is skipped
`)
	require.NoError(t, reg.Load(override, "override.yaml"))
	assert.Equal(t, "Laser Mk2", reg.Component("laser").Name)

	reg.Reset()
	assert.Empty(t, reg.ComponentIDs())
	assert.Empty(t, reg.ModifierIDs())
	assert.Empty(t, reg.VehicleClassIDs())
}

func TestComponentDef_AbilityShapes(t *testing.T) {
	raw := []byte(`
components:
  - id: multi
    name: Multi Tank
    type: Storage
    mass: 10
    hp: "1 + * 2"
    abilities:
      ResourceStorage:
        - resource: fuel
          capacity: 50
        - resource: ammo
          capacity: 20
      CommandAndControl: true
`)
	reg := NewRegistry()
	require.NoError(t, reg.Load(raw, "test"))

	def := reg.Component("multi")
	require.NotNil(t, def)
	assert.Len(t, def.AbilityParams("ResourceStorage"), 2)
	assert.Equal(t, "ammo", def.AbilityParams("ResourceStorage")[1].String("resource", ""))

	cc := def.AbilityParams("CommandAndControl")
	require.Len(t, cc, 1)
	v, ok := cc[0].Value("value")
	require.True(t, ok)
	got, err := v.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	// A formula that does not compile is kept and reported at resolution time.
	assert.True(t, def.HP.IsFormula())
	_, err = def.HP.Resolve(formula.Vars{})
	assert.ErrorIs(t, err, formula.ErrSyntax)
}

func TestParseValue(t *testing.T) {
	v := ParseValue(" 12.5 ")
	assert.False(t, v.IsFormula())
	got, err := v.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, 12.5, got)

	f := ParseValue("ship_class_mass / 100")
	assert.True(t, f.IsFormula())
	got, err = f.Resolve(formula.Vars{"ship_class_mass": 2000})
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)

	_, err = f.Resolve(formula.Vars{})
	assert.ErrorIs(t, err, formula.ErrUnknownIdentifier)
}

func TestParseLayerRestriction(t *testing.T) {
	r, err := ParseLayerRestriction("deny_ability:CrewRequired")
	require.NoError(t, err)
	assert.Equal(t, LayerRestriction{Kind: DenyAbility, Value: "CrewRequired"}, r)
	assert.Equal(t, "deny_ability:CrewRequired", r.String())

	_, err = ParseLayerRestriction("forbid:Armor")
	assert.Error(t, err)
	_, err = ParseLayerRestriction("deny_type")
	assert.Error(t, err)
}

func TestModifierDef_Allows(t *testing.T) {
	reg, err := NewDefaultRegistry()
	require.NoError(t, err)

	has := func(names ...string) func(string) bool {
		return func(n string) bool {
			for _, x := range names {
				if x == n {
					return true
				}
			}
			return false
		}
	}

	plating := reg.Modifier("reinforced_plating")
	assert.True(t, plating.Allows("Armor", has()))
	assert.False(t, plating.Allows("Weapons", has()))

	frame := reg.Modifier("lightweight_frame")
	assert.False(t, frame.Allows("Armor", has()))
	assert.True(t, frame.Allows("Engines", has()))

	automation := reg.Modifier(ModAutomation)
	assert.True(t, automation.Allows("Command", has("CrewRequired")))
	assert.False(t, automation.Allows("Command", has("CommandAndControl")))

	assert.Equal(t, 1.0, reg.Modifier(ModSize).Clamp(0))
	assert.Equal(t, 128.0, reg.Modifier(ModSize).Clamp(1000))
}

func TestLoadRegistry_MergesFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
components:
  - id: battery
    name: Heavy Battery
    type: Power
    mass: 35
    hp: 60
`), 0o644))

	reg, err := LoadRegistry([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "Heavy Battery", reg.Component("battery").Name)
	assert.NotNil(t, reg.Component("laser"), "defaults stay loaded")

	_, err = LoadRegistry([]string{filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
