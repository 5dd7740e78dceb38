package design

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/shipyard/internal/config"
	"github.com/udisondev/shipyard/internal/data"
	"github.com/udisondev/shipyard/internal/game/stats"
)

func TestBuild_SkipsUnknownIDs(t *testing.T) {
	reg := testRegistry(t)
	d, err := LoadSavedDesign(filepath.Join("testdata", "picket.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "steel", d.Theme)
	assert.Equal(t, 8, d.ComponentCount())

	s, res, err := Build(reg, d, stats.NewCalculator(config.DefaultPhysics()), 0.01)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Errors)
	assert.Len(t, s.Components(), 7)
	assert.Equal(t, 1500.0, s.TotalThrust)

	warnings := strings.Join(res.Warnings, "\n")
	assert.Contains(t, warnings, `unknown modifier "warp_core_tuning" on laser skipped`)
	assert.Contains(t, warnings, `unknown component "plasma_cannon" in OUTER skipped`)
	assert.Contains(t, warnings, "expected mass 100.0000")
	assert.NotContains(t, warnings, "expected thrust")

	laser := s.Layer(data.LayerOuter).Components()[0]
	assert.Equal(t, 2.0, laser.Modifier(data.ModPrecision).Value)
}

func TestBuild_UnknownClass(t *testing.T) {
	reg := testRegistry(t)
	_, _, err := Build(reg, &SavedDesign{Name: "x", Class: "dreadnought"}, stats.NewCalculator(config.DefaultPhysics()), 0.01)
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestBuild_RejectedPlacementIsSkipped(t *testing.T) {
	reg := testRegistry(t)
	d := &SavedDesign{
		Name:  "twin bridge",
		Class: "escort",
		Layers: map[data.LayerType][]SavedComponent{
			data.LayerCore:  {{ComponentID: "bridge"}, {ComponentID: "bridge"}},
			data.LayerArmor: {{ComponentID: "laser"}},
		},
	}
	s, res, err := Build(reg, d, stats.NewCalculator(config.DefaultPhysics()), 0.01)
	require.NoError(t, err)
	assert.Len(t, s.Components(), 1)
	assert.Len(t, res.Warnings, 3, res.Warnings) // second bridge, laser, unmanned bridge
}

func TestFromShip_RoundTrip(t *testing.T) {
	reg := testRegistry(t)
	calc := stats.NewCalculator(config.DefaultPhysics())
	d, err := LoadSavedDesign(filepath.Join("testdata", "picket.yaml"))
	require.NoError(t, err)
	orig, _, err := Build(reg, d, calc, 0.01)
	require.NoError(t, err)

	saved := FromShip(orig)
	raw, err := saved.Marshal()
	require.NoError(t, err)
	parsed, err := ParseSavedDesign(raw)
	require.NoError(t, err)

	again, res, err := Build(reg, parsed, calc, 0.01)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, orig.Mass, again.Mass)
	assert.Equal(t, orig.MaxHP, again.MaxHP)
	assert.Equal(t, saved.Fingerprint(), FromShip(again).Fingerprint())
}

func TestFingerprint(t *testing.T) {
	base := func() *SavedDesign {
		return &SavedDesign{
			Name:  "a",
			Class: "escort",
			Layers: map[data.LayerType][]SavedComponent{
				data.LayerOuter: {{ComponentID: "laser", Modifiers: []SavedModifier{
					{ID: data.ModSize, Value: 2},
					{ID: data.ModPrecision, Value: 1},
				}}},
				data.LayerCore: {{ComponentID: "bridge"}},
			},
		}
	}

	a := base()
	b := base()
	b.Name, b.Theme = "renamed", "gold"
	mods := b.Layers[data.LayerOuter][0].Modifiers
	mods[0], mods[1] = mods[1], mods[0]
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)

	c := base()
	c.Layers[data.LayerOuter][0].Modifiers[0].Value = 3
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d := base()
	d.Class = "cruiser"
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}

func TestParseSavedDesign_Errors(t *testing.T) {
	_, err := ParseSavedDesign([]byte("name: x\n"))
	assert.Error(t, err)

	_, err = ParseSavedDesign([]byte("name: [unclosed"))
	assert.Error(t, err)

	_, err = LoadSavedDesign(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}
